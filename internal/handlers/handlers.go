package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/folio/internal/middleware"
	"github.com/joshua-takyi/folio/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ownerID returns the authenticated caller or aborts with 401.
func ownerID(c *gin.Context) (primitive.ObjectID, bool) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		middleware.AbortWithError(c, models.Unauthenticated("authentication required"))
		return primitive.NilObjectID, false
	}
	return identity.UserID, true
}

func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		middleware.AbortWithError(c, models.ValidationFailed("invalid request payload"))
		return false
	}
	return true
}

// itemID prefers the path parameter and falls back to an id sent in the body.
func itemID(c *gin.Context, bodyIDs ...string) string {
	if id := c.Param("id"); id != "" {
		return id
	}
	for _, id := range bodyIDs {
		if id != "" {
			return id
		}
	}
	return ""
}
