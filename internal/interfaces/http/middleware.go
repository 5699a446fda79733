package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vlaamswoordenboek/woordenboek/internal/infrastructure/identity"
)

// actorMiddleware places the acting user from header into the request context.
// Requests without the header are anonymous; a malformed value is rejected.
func actorMiddleware(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(header)
		if raw == "" {
			c.Next()
			return
		}

		userID, err := identity.ParseUserID(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   "invalid " + header + " header",
			})
			return
		}

		c.Request = c.Request.WithContext(identity.WithUser(c.Request.Context(), userID))
		c.Next()
	}
}
