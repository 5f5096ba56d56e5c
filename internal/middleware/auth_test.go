package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestUserIDFromBearerValid(t *testing.T) {
	header := "Bearer " + signToken(t, testSecret, "7")

	userID, err := UserIDFromBearer(testSecret, header)
	require.NoError(t, err)
	assert.Equal(t, 7, userID)
}

func TestUserIDFromBearerRejects(t *testing.T) {
	tests := map[string]string{
		"empty header":     "",
		"no scheme":        signToken(t, testSecret, "7"),
		"wrong secret":     "Bearer " + signToken(t, []byte("other"), "7"),
		"non-numeric sub":  "Bearer " + signToken(t, testSecret, "ana"),
		"non-positive sub": "Bearer " + signToken(t, testSecret, "0"),
		"garbage token":    "Bearer not.a.jwt",
	}
	for name, header := range tests {
		_, err := UserIDFromBearer(testSecret, header)
		assert.Error(t, err, name)
	}
}

func TestAuthMiddlewareSetsUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(testSecret))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetInt("userID")})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "7"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":7`)
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware(testSecret))
	r.GET("/me", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
