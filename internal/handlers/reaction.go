package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/fanout"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/repositories"
)

const maxEmojiLen = 32

// ReactionHandler manages per-user message reactions.
type ReactionHandler struct {
	reactions repositories.ReactionRepository
	messages  repositories.MessageRepository
	users     repositories.UserRepository
	groups    repositories.GroupRepository
	publisher EventPublisher
}

// NewReactionHandler builds a ReactionHandler.
func NewReactionHandler(
	reactions repositories.ReactionRepository,
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	groups repositories.GroupRepository,
	publisher EventPublisher,
) *ReactionHandler {
	return &ReactionHandler{
		reactions: reactions,
		messages:  messages,
		users:     users,
		groups:    groups,
		publisher: publisher,
	}
}

type reactRequest struct {
	Emoji string `json:"emoji"`
}

// React sets the caller's reaction on a message. Reacting again with a
// different emoji replaces the previous one; each user holds at most
// one reaction per message.
func (h *ReactionHandler) React(c *gin.Context) {
	messageID, ok := paramInt(c, "message_id")
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	var req reactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	emoji := strings.TrimSpace(req.Emoji)
	if emoji == "" || len(emoji) > maxEmojiLen || !utf8.ValidString(emoji) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid emoji"})
		return
	}

	_, conv, ok := h.participantMessage(c, messageID, userID)
	if !ok {
		return
	}

	reaction, err := h.reactions.Upsert(c.Request.Context(), messageID, userID, emoji)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save reaction"})
		return
	}

	actor, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	h.publisher.Publish(c.Request.Context(), fanout.ReactionChanged{
		Reaction:     reaction,
		Actor:        actor.Public(),
		Action:       "add",
		Conversation: conv,
	})
	c.JSON(http.StatusOK, reaction)
}

// Remove clears the caller's reaction from a message. Removing a
// reaction that does not exist is a no-op, not an error, so retried
// removals stay safe.
func (h *ReactionHandler) Remove(c *gin.Context) {
	messageID, ok := paramInt(c, "message_id")
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	_, conv, ok := h.participantMessage(c, messageID, userID)
	if !ok {
		return
	}

	removed, existed, err := h.reactions.Remove(c.Request.Context(), messageID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove reaction"})
		return
	}
	if !existed {
		c.JSON(http.StatusOK, gin.H{"removed": false})
		return
	}

	actor, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	h.publisher.Publish(c.Request.Context(), fanout.ReactionChanged{
		Reaction:     removed,
		Actor:        actor.Public(),
		Action:       "remove",
		Conversation: conv,
	})
	c.JSON(http.StatusOK, gin.H{"removed": true})
}

// List returns every reaction on a message, oldest first.
func (h *ReactionHandler) List(c *gin.Context) {
	messageID, ok := paramInt(c, "message_id")
	if !ok {
		return
	}
	userID := c.GetInt("userID")

	if _, _, ok := h.participantMessage(c, messageID, userID); !ok {
		return
	}

	reactions, err := h.reactions.ListForMessage(c.Request.Context(), messageID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load reactions"})
		return
	}
	if reactions == nil {
		reactions = []models.Reaction{}
	}
	c.JSON(http.StatusOK, gin.H{"reactions": reactions})
}

// participantMessage loads the message and verifies the caller belongs
// to its conversation. It writes the error response itself on failure.
func (h *ReactionHandler) participantMessage(c *gin.Context, messageID, userID int) (models.Message, models.Conversation, bool) {
	msg, err := h.messages.GetMessage(c.Request.Context(), messageID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrMessageNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "message not found"})
		return models.Message{}, models.Conversation{}, false
	}

	conv := models.ConversationOf(msg)
	allowed := conv.Includes(userID)
	if conv.Kind == models.GroupKind {
		member, err := h.groups.IsMember(c.Request.Context(), conv.GroupID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "membership check failed"})
			return models.Message{}, models.Conversation{}, false
		}
		allowed = member
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a conversation participant"})
		return models.Message{}, models.Conversation{}, false
	}
	return msg, conv, true
}
