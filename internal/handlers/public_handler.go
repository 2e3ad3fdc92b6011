package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/folio/internal/middleware"
	"github.com/joshua-takyi/folio/internal/models"
	"github.com/joshua-takyi/folio/internal/services"
)

// GetPublicPortfolio never tells a visitor why a page is missing. Store
// failures are logged and still answered with 404.
func GetPublicPortfolio(ps *services.PublicService, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := ps.Resolve(c.Request.Context(), c.Param("username"))
		if err != nil {
			if !models.IsNotFound(err) {
				requestID, _ := c.Get(middleware.RequestIDKey)
				logger.Error("public portfolio lookup failed",
					slog.Any("request_id", requestID),
					slog.Any("error", err),
				)
			}
			c.JSON(http.StatusNotFound, models.ErrorResponse("not found"))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(page, ""))
	}
}
