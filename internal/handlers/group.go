package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/fanout"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/repositories"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/telemetry"
)

// GroupHandler manages group lifecycle endpoints: creation, advisor
// reassignment, status changes, membership replacement and deferred
// deletion.
type GroupHandler struct {
	groups      repositories.GroupRepository
	users       repositories.UserRepository
	publisher   EventPublisher
	scheduler   DeletionScheduler
	audit       *telemetry.AuditEmitter
	deleteDelay time.Duration
}

// NewGroupHandler builds a GroupHandler.
func NewGroupHandler(
	groups repositories.GroupRepository,
	users repositories.UserRepository,
	publisher EventPublisher,
	scheduler DeletionScheduler,
	audit *telemetry.AuditEmitter,
	deleteDelay time.Duration,
) *GroupHandler {
	return &GroupHandler{
		groups:      groups,
		users:       users,
		publisher:   publisher,
		scheduler:   scheduler,
		audit:       audit,
		deleteDelay: deleteDelay,
	}
}

type createGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	AsesorID    *int   `json:"asesor_id"`
	MemberIDs   []int  `json:"member_ids"`
}

// Create creates a group. The caller becomes the owner; the owner and
// the assigned advisor are always members regardless of member_ids.
func (h *GroupHandler) Create(c *gin.Context) {
	userID := c.GetInt("userID")

	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group name is required"})
		return
	}

	if req.AsesorID != nil {
		advisor, err := h.users.GetUser(c.Request.Context(), *req.AsesorID)
		if err != nil || !advisor.IsAsesor {
			c.JSON(http.StatusBadRequest, gin.H{"error": "asesor_id must reference an advisor"})
			return
		}
	}

	group := models.Group{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     userID,
		AsesorID:    req.AsesorID,
	}
	created, err := h.groups.CreateGroup(c.Request.Context(), group, req.MemberIDs)
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "group_create", "failed to create group")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create group"})
		return
	}

	c.JSON(http.StatusCreated, created)
}

type reassignAdvisorRequest struct {
	AsesorID int `json:"asesor_id" binding:"required"`
}

// ReassignAdvisor swaps the advisor assigned to a group (admin only).
// The previous advisor leaves the member set unless they also own the
// group; the new advisor joins it. Everyone on the group channel plus
// the group-status channel learns of the change.
func (h *GroupHandler) ReassignAdvisor(c *gin.Context) {
	groupID, ok := paramInt(c, "group_id")
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	caller, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil || !caller.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return
	}

	var req reassignAdvisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	advisor, err := h.users.GetUser(c.Request.Context(), req.AsesorID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrUserNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "advisor not found"})
		return
	}
	if !advisor.IsAsesor {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user is not an advisor"})
		return
	}

	group, err := h.groups.ReassignAdvisor(c.Request.Context(), groupID, advisor.ID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrGroupNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "failed to reassign advisor"})
		return
	}

	h.publishGroupChange(c, group, fanout.GroupAsesorChanged, userID)
	emitAudit(c, h.audit, "INFO", "group_reassign_advisor",
		fmt.Sprintf("group %d reassigned to advisor %d", group.ID, advisor.ID))
	c.JSON(http.StatusOK, group)
}

type changeStatusRequest struct {
	CodeStatus int `json:"code_status"`
}

// ChangeStatus updates the group's workflow status code (admin or
// assigned advisor). The change reaches the group channel and the
// dedicated status channel.
func (h *GroupHandler) ChangeStatus(c *gin.Context) {
	groupID, ok := paramInt(c, "group_id")
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	caller, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	current, err := h.groups.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrGroupNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "group not found"})
		return
	}

	assignedAdvisor := current.AsesorID != nil && *current.AsesorID == userID
	if !caller.IsAdmin && !assignedAdvisor {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin or assigned advisor only"})
		return
	}

	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groups.ChangeStatus(c.Request.Context(), groupID, req.CodeStatus)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update status"})
		return
	}

	h.publishGroupChange(c, group, fanout.GroupStatusChanged, userID)
	c.JSON(http.StatusOK, group)
}

type replaceMembersRequest struct {
	MemberIDs []int `json:"member_ids" binding:"required"`
}

// ReplaceMembers swaps the group's member set wholesale (owner or
// admin). The owner and the assigned advisor can never be removed this
// way; the repository re-adds them.
func (h *GroupHandler) ReplaceMembers(c *gin.Context) {
	groupID, ok := paramInt(c, "group_id")
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	current, err := h.groups.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrGroupNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "group not found"})
		return
	}

	if current.OwnerID != userID {
		caller, err := h.users.GetUser(c.Request.Context(), userID)
		if err != nil || !caller.IsAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "owner or admin only"})
			return
		}
	}

	var req replaceMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groups.ReplaceMembers(c.Request.Context(), groupID, req.MemberIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update members"})
		return
	}

	h.publishGroupChange(c, group, fanout.GroupMembersChanged, userID)
	c.JSON(http.StatusOK, group)
}

// ScheduleDeletion arms a deferred deletion of the group (owner only).
// The group stays fully usable during the grace period; ownership is
// re-checked when the timer fires, so a transfer cancels the deletion.
func (h *GroupHandler) ScheduleDeletion(c *gin.Context) {
	groupID, ok := paramInt(c, "group_id")
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	group, err := h.groups.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrGroupNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "group not found"})
		return
	}
	if group.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "owner only"})
		return
	}

	if err := h.scheduler.ScheduleGroupDeletion(c.Request.Context(), group, h.deleteDelay, userID); err != nil {
		emitAudit(c, h.audit, "ERROR", "group_delete_schedule", "failed to schedule deletion")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to schedule deletion"})
		return
	}

	emitAudit(c, h.audit, "INFO", "group_delete_schedule",
		fmt.Sprintf("group %d deletion scheduled", group.ID))
	c.JSON(http.StatusAccepted, gin.H{
		"group_id": group.ID,
		"due_at":   time.Now().Add(h.deleteDelay).UTC(),
	})
}

func (h *GroupHandler) publishGroupChange(c *gin.Context, group models.Group, change string, initiatorID int) {
	memberIDs, err := h.groups.MemberIDs(c.Request.Context(), group.ID)
	if err != nil {
		memberIDs = nil
	}
	h.publisher.Publish(c.Request.Context(), fanout.GroupChanged{
		Group:       group,
		Change:      change,
		MemberIDs:   memberIDs,
		InitiatorID: initiatorID,
	})
}
