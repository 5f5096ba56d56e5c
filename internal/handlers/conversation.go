package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/repositories"
)

// ConversationHandler serves the merged conversation list and the
// advisor directory.
type ConversationHandler struct {
	users  repositories.UserRepository
	groups repositories.GroupRepository
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(users repositories.UserRepository, groups repositories.GroupRepository) *ConversationHandler {
	return &ConversationHandler{users: users, groups: groups}
}

// List returns the caller's conversations, direct and group merged,
// most recent activity first. Conversations without messages sort
// last. Blocked peers are hidden from regular users and sorted to the
// bottom for admins.
func (h *ConversationHandler) List(c *gin.Context) {
	userID := c.GetInt("userID")

	viewer, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	direct, err := h.users.ListConversationPartners(c.Request.Context(), viewer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}
	groups, err := h.groups.ListGroupsForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	merged := append(direct, groups...)
	sort.SliceStable(merged, func(i, j int) bool {
		return summaryLess(merged[i], merged[j])
	})

	c.JSON(http.StatusOK, gin.H{"conversations": merged})
}

// summaryLess orders summaries: unblocked before blocked, then newest
// activity first, then empty conversations last.
func summaryLess(a, b models.ConversationSummary) bool {
	if (a.BlockedAt != nil) != (b.BlockedAt != nil) {
		return a.BlockedAt == nil
	}
	switch {
	case a.LastMessageAt == nil && b.LastMessageAt == nil:
		return false
	case a.LastMessageAt == nil:
		return false
	case b.LastMessageAt == nil:
		return true
	default:
		return a.LastMessageAt.After(*b.LastMessageAt)
	}
}

// Advisors returns the advisor directory. Blocked advisors are hidden
// from non-admin callers.
func (h *ConversationHandler) Advisors(c *gin.Context) {
	userID := c.GetInt("userID")

	viewer, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	advisors, err := h.users.ListAdvisors(c.Request.Context(), viewer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load advisors"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"advisors": advisors})
}
