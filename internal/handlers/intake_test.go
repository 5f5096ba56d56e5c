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
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/repositories"
)

func setupIntakeRouter(handler *IntakeHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/intake", handler.Create)
	return r
}

func TestIntakeCreateNotifiesAdvisor(t *testing.T) {
	intakes := new(mocks.IntakeRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	publisher := new(mocks.EventPublisherMock)
	handler := NewIntakeHandler(intakes, users, publisher)
	router := setupIntakeRouter(handler)

	created := models.ChatUser{ID: 1, FullName: "Luis Vega", Email: "luis@example.com", Phone: "5551234"}
	intakes.On("CreateChatUser", mock.Anything, mock.AnythingOfType("models.ChatUser")).Return(created, nil).Once()
	users.On("ListAdvisors", mock.Anything, models.User{}).Return([]models.User{{ID: 4, IsAsesor: true}}, nil).Once()
	publisher.On("Publish", mock.Anything, fanout.ClientIntake{
		Client:    created,
		AdvisorID: 4,
		Note:      "needs calculus help",
	}).Once()

	body := bytes.NewBufferString(`{"full_name":"Luis Vega","email":"luis@example.com","phone":"5551234","note":"needs calculus help"}`)
	req := httptest.NewRequest(http.MethodPost, "/intake", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	intakes.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestIntakeDuplicateAnswersConflict(t *testing.T) {
	intakes := new(mocks.IntakeRepositoryMock)
	publisher := new(mocks.EventPublisherMock)
	handler := NewIntakeHandler(intakes, new(mocks.UserRepositoryMock), publisher)
	router := setupIntakeRouter(handler)

	intakes.On("CreateChatUser", mock.Anything, mock.AnythingOfType("models.ChatUser")).Return(models.ChatUser{}, repositories.ErrIntakeDuplicate).Once()

	body := bytes.NewBufferString(`{"full_name":"Luis Vega","email":"luis@example.com","phone":"5551234"}`)
	req := httptest.NewRequest(http.MethodPost, "/intake", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestIntakeNoAdvisorStillCreates(t *testing.T) {
	intakes := new(mocks.IntakeRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	publisher := new(mocks.EventPublisherMock)
	handler := NewIntakeHandler(intakes, users, publisher)
	router := setupIntakeRouter(handler)

	intakes.On("CreateChatUser", mock.Anything, mock.AnythingOfType("models.ChatUser")).Return(models.ChatUser{ID: 1}, nil).Once()
	users.On("ListAdvisors", mock.Anything, models.User{}).Return([]models.User(nil), nil).Once()

	body := bytes.NewBufferString(`{"full_name":"Luis Vega","email":"luis@example.com","phone":"5551234"}`)
	req := httptest.NewRequest(http.MethodPost, "/intake", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestIntakeRejectsBadEmail(t *testing.T) {
	handler := NewIntakeHandler(new(mocks.IntakeRepositoryMock), new(mocks.UserRepositoryMock), new(mocks.EventPublisherMock))
	router := setupIntakeRouter(handler)

	body := bytes.NewBufferString(`{"full_name":"Luis Vega","email":"not-an-email","phone":"5551234"}`)
	req := httptest.NewRequest(http.MethodPost, "/intake", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
