package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var errInvalidToken = errors.New("invalid token")

// AuthMiddleware validates the Authorization bearer token and stores the
// authenticated user id in the gin context under "userID".
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := UserIDFromBearer(secret, c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("userID", userID)
		c.Next()
	}
}

// UserIDFromBearer parses a "Bearer <jwt>" header value and returns the
// subject user id. The websocket handshake uses it directly because it
// accepts the token from a query parameter too.
func UserIDFromBearer(secret []byte, header string) (int, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return 0, errInvalidToken
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return 0, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, errInvalidToken
	}
	userID, err := strconv.Atoi(sub)
	if err != nil || userID <= 0 {
		return 0, errInvalidToken
	}
	return userID, nil
}
