package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rental-service/internal/identity"
	"rental-service/internal/models"
)

const ActorKey = "actor"

// AuthMiddleware validates the Authorization header with the identity provider.
func AuthMiddleware(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}

		token, ok := identity.BearerToken(header)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		actor, err := provider.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ActorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the actor stored by AuthMiddleware.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	val, ok := c.Get(ActorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := val.(models.Actor)
	return actor, ok && actor.UserID > 0
}
