package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/fanout"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/mocks"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

func setupReactionRouter(handler *ReactionHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 7)
		c.Next()
	})
	r.PUT("/messages/:message_id/reaction", handler.React)
	r.DELETE("/messages/:message_id/reaction", handler.Remove)
	r.GET("/messages/:message_id/reactions", handler.List)
	return r
}

func TestReactUpsertsAndPublishes(t *testing.T) {
	reactions := new(mocks.ReactionRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	publisher := new(mocks.EventPublisherMock)
	handler := NewReactionHandler(reactions, messages, users, new(mocks.GroupRepositoryMock), publisher)
	router := setupReactionRouter(handler)

	messages.On("GetMessage", mock.Anything, 10).Return(models.Message{ID: 10, SenderID: 3, ReceiverID: intPtr(7)}, nil).Once()
	reaction := models.Reaction{ID: 5, MessageID: 10, UserID: 7, Emoji: "👍"}
	reactions.On("Upsert", mock.Anything, 10, 7, "👍").Return(reaction, nil).Once()
	users.On("GetUser", mock.Anything, 7).Return(models.User{ID: 7, Name: "Ana"}, nil).Once()
	publisher.On("Publish", mock.Anything, fanout.ReactionChanged{
		Reaction:     reaction,
		Actor:        models.PublicProfile{ID: 7, Name: "Ana"},
		Action:       "add",
		Conversation: models.Direct(3, 7),
	}).Once()

	req := httptest.NewRequest(http.MethodPut, "/messages/10/reaction", bytes.NewBufferString(`{"emoji":"👍"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	reactions.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestReactRejectsInvalidEmoji(t *testing.T) {
	handler := NewReactionHandler(new(mocks.ReactionRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), new(mocks.GroupRepositoryMock), new(mocks.EventPublisherMock))
	router := setupReactionRouter(handler)

	for _, body := range []string{
		`{"emoji":""}`,
		`{"emoji":"   "}`,
		`{"emoji":"0123456789012345678901234567890123456789"}`,
	} {
		req := httptest.NewRequest(http.MethodPut, "/messages/10/reaction", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestReactOutsiderForbidden(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	reactions := new(mocks.ReactionRepositoryMock)
	handler := NewReactionHandler(reactions, messages, new(mocks.UserRepositoryMock), new(mocks.GroupRepositoryMock), new(mocks.EventPublisherMock))
	router := setupReactionRouter(handler)

	// A direct message between 3 and 5; caller 7 is not part of it.
	messages.On("GetMessage", mock.Anything, 10).Return(models.Message{ID: 10, SenderID: 3, ReceiverID: intPtr(5)}, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/messages/10/reaction", bytes.NewBufferString(`{"emoji":"👍"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	reactions.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReactGroupMemberAllowed(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	reactions := new(mocks.ReactionRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	publisher := new(mocks.EventPublisherMock)
	handler := NewReactionHandler(reactions, messages, users, groups, publisher)
	router := setupReactionRouter(handler)

	messages.On("GetMessage", mock.Anything, 10).Return(models.Message{ID: 10, SenderID: 3, GroupID: intPtr(12)}, nil).Once()
	groups.On("IsMember", mock.Anything, 12, 7).Return(true, nil).Once()
	reaction := models.Reaction{ID: 5, MessageID: 10, UserID: 7, Emoji: "🎉"}
	reactions.On("Upsert", mock.Anything, 10, 7, "🎉").Return(reaction, nil).Once()
	users.On("GetUser", mock.Anything, 7).Return(models.User{ID: 7}, nil).Once()
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("fanout.ReactionChanged")).Once()

	req := httptest.NewRequest(http.MethodPut, "/messages/10/reaction", bytes.NewBufferString(`{"emoji":"🎉"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	groups.AssertExpectations(t)
}

func TestRemoveMissingReactionIsNoop(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	reactions := new(mocks.ReactionRepositoryMock)
	publisher := new(mocks.EventPublisherMock)
	handler := NewReactionHandler(reactions, messages, new(mocks.UserRepositoryMock), new(mocks.GroupRepositoryMock), publisher)
	router := setupReactionRouter(handler)

	messages.On("GetMessage", mock.Anything, 10).Return(models.Message{ID: 10, SenderID: 3, ReceiverID: intPtr(7)}, nil).Once()
	reactions.On("Remove", mock.Anything, 10, 7).Return(models.Reaction{}, false, nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/10/reaction", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestRemoveExistingReactionPublishes(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	reactions := new(mocks.ReactionRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	publisher := new(mocks.EventPublisherMock)
	handler := NewReactionHandler(reactions, messages, users, new(mocks.GroupRepositoryMock), publisher)
	router := setupReactionRouter(handler)

	messages.On("GetMessage", mock.Anything, 10).Return(models.Message{ID: 10, SenderID: 3, ReceiverID: intPtr(7)}, nil).Once()
	removed := models.Reaction{ID: 5, MessageID: 10, UserID: 7, Emoji: "👍"}
	reactions.On("Remove", mock.Anything, 10, 7).Return(removed, true, nil).Once()
	users.On("GetUser", mock.Anything, 7).Return(models.User{ID: 7}, nil).Once()
	publisher.On("Publish", mock.Anything, fanout.ReactionChanged{
		Reaction:     removed,
		Actor:        models.PublicProfile{ID: 7},
		Action:       "remove",
		Conversation: models.Direct(3, 7),
	}).Once()

	req := httptest.NewRequest(http.MethodDelete, "/messages/10/reaction", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	publisher.AssertExpectations(t)
}

func TestListReactions(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	reactions := new(mocks.ReactionRepositoryMock)
	handler := NewReactionHandler(reactions, messages, new(mocks.UserRepositoryMock), new(mocks.GroupRepositoryMock), new(mocks.EventPublisherMock))
	router := setupReactionRouter(handler)

	messages.On("GetMessage", mock.Anything, 10).Return(models.Message{ID: 10, SenderID: 3, ReceiverID: intPtr(7)}, nil).Once()
	reactions.On("ListForMessage", mock.Anything, 10).Return([]models.Reaction{
		{ID: 5, MessageID: 10, UserID: 3, Emoji: "👍"},
		{ID: 6, MessageID: 10, UserID: 7, Emoji: "🎉"},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/10/reactions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "🎉")
	reactions.AssertExpectations(t)
}
