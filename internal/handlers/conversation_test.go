package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/mocks"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
)

func setupConversationRouter(handler *ConversationHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 7)
		c.Next()
	})
	r.GET("/conversations", handler.List)
	r.GET("/advisors", handler.Advisors)
	return r
}

func timePtr(v time.Time) *time.Time { return &v }

func TestListMergesDirectAndGroupsByActivity(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	handler := NewConversationHandler(users, groups)
	router := setupConversationRouter(handler)

	viewer := models.User{ID: 7}
	base := time.Now()
	users.On("GetUser", mock.Anything, 7).Return(viewer, nil).Once()
	users.On("ListConversationPartners", mock.Anything, viewer).Return([]models.ConversationSummary{
		{UserID: 3, Name: "Eva", LastMessage: "old", LastMessageAt: timePtr(base.Add(-time.Hour))},
	}, nil).Once()
	groups.On("ListGroupsForUser", mock.Anything, 7).Return([]models.ConversationSummary{
		{IsGroup: true, GroupID: 12, Name: "algebra", LastMessage: "new", LastMessageAt: timePtr(base)},
		{IsGroup: true, GroupID: 13, Name: "quiet"},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Conversations, 3)
	assert.Equal(t, "algebra", resp.Conversations[0].Name)
	assert.Equal(t, "Eva", resp.Conversations[1].Name)
	assert.Equal(t, "quiet", resp.Conversations[2].Name, "message-less conversations sort last")
}

func TestListSortsBlockedPeersLast(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	groups := new(mocks.GroupRepositoryMock)
	handler := NewConversationHandler(users, groups)
	router := setupConversationRouter(handler)

	viewer := models.User{ID: 7, IsAdmin: true}
	base := time.Now()
	users.On("GetUser", mock.Anything, 7).Return(viewer, nil).Once()
	users.On("ListConversationPartners", mock.Anything, viewer).Return([]models.ConversationSummary{
		{UserID: 3, Name: "Blocked", BlockedAt: timePtr(base), LastMessageAt: timePtr(base)},
		{UserID: 5, Name: "Active", LastMessageAt: timePtr(base.Add(-time.Hour))},
	}, nil).Once()
	groups.On("ListGroupsForUser", mock.Anything, 7).Return([]models.ConversationSummary(nil), nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Conversations, 2)
	assert.Equal(t, "Active", resp.Conversations[0].Name)
	assert.Equal(t, "Blocked", resp.Conversations[1].Name)
}

func TestAdvisorsList(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewConversationHandler(users, new(mocks.GroupRepositoryMock))
	router := setupConversationRouter(handler)

	viewer := models.User{ID: 7}
	users.On("GetUser", mock.Anything, 7).Return(viewer, nil).Once()
	users.On("ListAdvisors", mock.Anything, viewer).Return([]models.User{{ID: 4, Name: "Sof", IsAsesor: true}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/advisors", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}
