package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"
)

// BearerAuth rejects requests whose Authorization header does not carry apiKey.
// An empty apiKey accepts any non-empty bearer token.
func BearerAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		token = strings.TrimSpace(token)
		switch {
		case !ok || token == "":
			AbortWithError(c, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		case apiKey != "" && subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1:
			AbortWithError(c, http.StatusUnauthorized, errors.New("invalid api key"))
			return
		}
		c.Next()
	}
}
