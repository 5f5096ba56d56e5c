package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/fanout"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/telemetry"
)

// EventPublisher is the fan-out surface handlers publish on after their
// transactions commit.
type EventPublisher interface {
	Publish(ctx context.Context, event fanout.Event)
}

// SummaryMaintainer keeps the last-message pointers consistent.
type SummaryMaintainer interface {
	OnMessageCreated(ctx context.Context, msg models.Message) error
	OnMessageDeleted(ctx context.Context, msg models.Message) (*models.Message, bool, error)
}

// DeletionScheduler arms deferred group deletions.
type DeletionScheduler interface {
	ScheduleGroupDeletion(ctx context.Context, group models.Group, delay time.Duration, requestedBy int) error
}

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func userIDFromContext(c *gin.Context) *int64 {
	if val, ok := c.Get("userID"); ok {
		switch userID := val.(type) {
		case int:
			if userID != 0 {
				value := int64(userID)
				return &value
			}
		case int64:
			if userID != 0 {
				value := userID
				return &value
			}
		}
	}
	return nil
}

func emitAudit(c *gin.Context, audit *telemetry.AuditEmitter, level, action, text string) {
	if audit == nil {
		return
	}
	audit.Emit(c.Request.Context(), level, action, text, requestIDFromContext(c), userIDFromContext(c))
}

func paramInt(c *gin.Context, name string) (int, bool) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil || value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return value, true
}
