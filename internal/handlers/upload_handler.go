package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/folio/internal/middleware"
	"github.com/joshua-takyi/folio/internal/models"
	"github.com/joshua-takyi/folio/internal/services"
)

func UploadFile(us *services.UploadService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		header, err := c.FormFile("file")
		if err != nil {
			middleware.AbortWithError(c, models.ValidationFailed("no file uploaded"))
			return
		}
		file, err := header.Open()
		if err != nil {
			middleware.AbortWithError(c, models.ValidationFailed("could not read uploaded file"))
			return
		}
		defer file.Close()

		res, err := us.UploadAsset(c.Request.Context(), userID, header.Filename, file)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(res, "file uploaded"))
	}
}
