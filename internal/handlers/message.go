package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/fanout"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/repositories"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/storage"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/telemetry"
)

const messagePageSize = 10

// MessageHandler manages message endpoints: send, delete, history.
type MessageHandler struct {
	messages   repositories.MessageRepository
	users      repositories.UserRepository
	groups     repositories.GroupRepository
	maintainer SummaryMaintainer
	publisher  EventPublisher
	store      storage.Storage
	audit      *telemetry.AuditEmitter
}

// NewMessageHandler builds a MessageHandler.
func NewMessageHandler(
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	groups repositories.GroupRepository,
	maintainer SummaryMaintainer,
	publisher EventPublisher,
	store storage.Storage,
	audit *telemetry.AuditEmitter,
) *MessageHandler {
	return &MessageHandler{
		messages:   messages,
		users:      users,
		groups:     groups,
		maintainer: maintainer,
		publisher:  publisher,
		store:      store,
		audit:      audit,
	}
}

type sendMessageRequest struct {
	ReceiverID *int   `json:"receiver_id" form:"receiver_id"`
	GroupID    *int   `json:"group_id" form:"group_id"`
	Body       string `json:"body" form:"body"`
	ReplyToID  *int   `json:"reply_to_id" form:"reply_to_id"`
}

// Send stores a message (direct or group), persists its attachments
// atomically with it, repoints the conversation summary, and fans the
// event out. Nothing is published when any step before it fails.
func (h *MessageHandler) Send(c *gin.Context) {
	userID := c.GetInt("userID")

	var req sendMessageRequest
	var files []*multipart.FileHeader
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if form, err := c.MultipartForm(); err == nil && form != nil {
			files = form.File["attachments"]
		}
	} else {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	// Exactly one target, and either a body or at least one attachment.
	if (req.ReceiverID == nil) == (req.GroupID == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of receiver_id and group_id is required"})
		return
	}
	if strings.TrimSpace(req.Body) == "" && len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message body or attachments required"})
		return
	}

	if req.ReceiverID != nil {
		if *req.ReceiverID == userID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "cannot message yourself"})
			return
		}
		if _, err := h.users.GetUser(c.Request.Context(), *req.ReceiverID); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, repositories.ErrUserNotFound) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": "receiver not found"})
			return
		}
	} else {
		member, err := h.groups.IsMember(c.Request.Context(), *req.GroupID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
			return
		}
		if !member {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a group member"})
			return
		}
	}

	msg := models.Message{
		SenderID:   userID,
		ReceiverID: req.ReceiverID,
		GroupID:    req.GroupID,
		Body:       req.Body,
		ReplyToID:  req.ReplyToID,
	}
	if req.ReplyToID != nil {
		parent, err := h.messages.GetMessage(c.Request.Context(), *req.ReplyToID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reply target not found"})
			return
		}
		if models.ConversationOf(parent) != models.ConversationOf(msg) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "reply target belongs to another conversation"})
			return
		}
	}

	attachments, err := h.storeAttachments(c, files)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store attachments"})
		return
	}

	created, err := h.messages.CreateMessage(c.Request.Context(), msg, attachments)
	if err != nil {
		emitAudit(c, h.audit, "ERROR", "message_send", "failed to store message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	if err := h.maintainer.OnMessageCreated(c.Request.Context(), created); err != nil {
		emitAudit(c, h.audit, "ERROR", "message_send", "summary update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update conversation"})
		return
	}

	sender, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load sender"})
		return
	}

	h.publisher.Publish(c.Request.Context(), fanout.MessageCreated{Message: created, Sender: sender.Public()})
	c.JSON(http.StatusCreated, created)
}

func (h *MessageHandler) storeAttachments(c *gin.Context, files []*multipart.FileHeader) ([]repositories.NewAttachment, error) {
	var out []repositories.NewAttachment
	for _, file := range files {
		src, err := file.Open()
		if err != nil {
			return nil, err
		}
		locator, err := h.store.Save(c.Request.Context(), file.Filename, src)
		src.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, repositories.NewAttachment{
			Name: file.Filename,
			Mime: file.Header.Get("Content-Type"),
			Size: file.Size,
			Path: locator,
		})
	}
	return out, nil
}

// Delete hard-deletes a message (sender only), repairs the summary
// pointer and fans out the deletion with the replacement summary. The
// response carries the conversation's new last message, or null when
// none remains.
func (h *MessageHandler) Delete(c *gin.Context) {
	messageID, ok := paramInt(c, "message_id")
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	msg, err := h.messages.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return
	}
	if msg.SenderID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the sender can delete a message"})
		return
	}

	if err := h.messages.DeleteMessage(c.Request.Context(), messageID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not delete message"})
		return
	}

	replacement, changed, err := h.maintainer.OnMessageDeleted(c.Request.Context(), msg)
	if err != nil && !isConversationGone(err) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update conversation"})
		return
	}

	h.publisher.Publish(c.Request.Context(), fanout.MessageDeleted{
		Message:        msg,
		SummaryChanged: changed,
		Replacement:    replacement,
	})

	c.JSON(http.StatusOK, gin.H{"message": replacement})
}

// isConversationGone tolerates summary repair against a conversation
// whose backing row disappeared (e.g. the group was deleted meanwhile).
func isConversationGone(err error) bool {
	return errors.Is(err, repositories.ErrConversationNotFound) || errors.Is(err, repositories.ErrGroupNotFound)
}

// ListDirect returns a newest-first page of messages between the caller
// and another user. `before` is an optional message-id cursor.
func (h *MessageHandler) ListDirect(c *gin.Context) {
	otherID, ok := paramInt(c, "user_id")
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	msgs, err := h.messages.ListDirectMessages(c.Request.Context(), userID, otherID, beforeCursor(c), messagePageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// ListGroup returns a newest-first page of a group's messages; the
// caller must be a member.
func (h *MessageHandler) ListGroup(c *gin.Context) {
	groupID, ok := paramInt(c, "group_id")
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	member, err := h.groups.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a group member"})
		return
	}

	msgs, err := h.messages.ListGroupMessages(c.Request.Context(), groupID, beforeCursor(c), messagePageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func beforeCursor(c *gin.Context) int {
	before, err := strconv.Atoi(c.Query("before"))
	if err != nil || before <= 0 {
		return 0
	}
	return before
}
