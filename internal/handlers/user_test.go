package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/mocks"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/models"
	"github.com/SamuelDMS-2006/CHAT-RAPPIPROFE/internal/repositories"
)

func setupUserRouter(handler *UserHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/users", handler.Create)
	r.PUT("/users/:user_id/admin", handler.ToggleAdmin)
	r.PUT("/users/:user_id/asesor", handler.ToggleAsesor)
	r.PUT("/users/:user_id/blocked", handler.ToggleBlocked)
	return r
}

func TestCreateUserRequiresAdmin(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(users, nil)
	router := setupUserRouter(handler)

	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1}, nil).Once()

	body := bytes.NewBufferString(`{"name":"Eva","email":"eva@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/users", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestCreateUserSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(users, nil)
	router := setupUserRouter(handler)

	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, IsAdmin: true}, nil).Once()
	users.On("CreateUser", mock.Anything, mock.AnythingOfType("models.User")).Return(models.User{ID: 9, Name: "Eva"}, nil).Once()

	body := bytes.NewBufferString(`{"name":"Eva","email":"eva@example.com","is_asesor":true}`)
	req := httptest.NewRequest(http.MethodPost, "/users", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	users.AssertExpectations(t)
}

func TestToggleBlockedSuccess(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(users, nil)
	router := setupUserRouter(handler)

	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, IsAdmin: true}, nil).Once()
	users.On("ToggleBlocked", mock.Anything, 9).Return(models.User{ID: 9}, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/users/9/blocked", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestToggleAdminTargetMissing(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	handler := NewUserHandler(users, nil)
	router := setupUserRouter(handler)

	users.On("GetUser", mock.Anything, 1).Return(models.User{ID: 1, IsAdmin: true}, nil).Once()
	users.On("ToggleAdmin", mock.Anything, 9).Return(models.User{}, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodPut, "/users/9/admin", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}
