package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/folio/internal/middleware"
	"github.com/joshua-takyi/folio/internal/models"
	"github.com/joshua-takyi/folio/internal/services"
)

// ListUsers accepts ?verified=true|false.
func ListUsers(as *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var filter models.UserFilter
		if raw, ok := c.GetQuery("verified"); ok && raw != "" {
			verified, err := strconv.ParseBool(raw)
			if err != nil {
				middleware.AbortWithError(c, models.ValidationFailed("verified must be true or false"))
				return
			}
			filter.Verified = &verified
		}
		users, err := as.ListUsers(c.Request.Context(), filter)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(users, len(users)))
	}
}

// AdminUpdateUser takes the target from the path, or from userId in the body.
func AdminUpdateUser(as *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AdminUserUpdate
		if !bindJSON(c, &req) {
			return
		}
		user, err := as.UpdateUser(c.Request.Context(), itemID(c, req.UserID), req.UserUpdate)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, "user updated"))
	}
}

func AdminDeleteUser(as *services.AdminService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AdminUserDelete
		if c.Param("id") == "" && c.Request.ContentLength != 0 {
			if !bindJSON(c, &req) {
				return
			}
		}
		if err := as.DeleteUser(c.Request.Context(), itemID(c, req.UserID)); err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "user and portfolio deleted"))
	}
}
