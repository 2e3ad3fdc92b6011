package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/folio/internal/middleware"
	"github.com/joshua-takyi/folio/internal/models"
	"github.com/joshua-takyi/folio/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func GetPortfolio(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		portfolio, err := ps.GetPortfolio(c.Request.Context(), userID)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(portfolio, ""))
	}
}

func GetAbout(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		about, err := ps.GetAbout(c.Request.Context(), userID)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(about, ""))
	}
}

type sectionUpdate func(ctx context.Context, userID primitive.ObjectID, patch *models.PortfolioPatch) (interface{}, error)

// updateSection binds the shared section payload and hands it to update.
func updateSection(message string, update sectionUpdate) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		var patch models.PortfolioPatch
		if !bindJSON(c, &patch) {
			return
		}
		result, err := update(c.Request.Context(), userID, &patch)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(result, message))
	}
}

func UpdatePortfolio(ps *services.PortfolioService) gin.HandlerFunc {
	return updateSection("portfolio updated", func(ctx context.Context, id primitive.ObjectID, p *models.PortfolioPatch) (interface{}, error) {
		return ps.UpdatePortfolio(ctx, id, p)
	})
}

func UpdateAbout(ps *services.PortfolioService) gin.HandlerFunc {
	return updateSection("about section updated", func(ctx context.Context, id primitive.ObjectID, p *models.PortfolioPatch) (interface{}, error) {
		return ps.UpdateAbout(ctx, id, p)
	})
}

func UpdateHero(ps *services.PortfolioService) gin.HandlerFunc {
	return updateSection("hero section updated", func(ctx context.Context, id primitive.ObjectID, p *models.PortfolioPatch) (interface{}, error) {
		return ps.UpdateHero(ctx, id, p)
	})
}

func UpdateTheme(ps *services.PortfolioService) gin.HandlerFunc {
	return updateSection("theme updated", func(ctx context.Context, id primitive.ObjectID, p *models.PortfolioPatch) (interface{}, error) {
		return ps.UpdateTheme(ctx, id, p)
	})
}

func UpdateContact(ps *services.PortfolioService) gin.HandlerFunc {
	return updateSection("contact updated", func(ctx context.Context, id primitive.ObjectID, p *models.PortfolioPatch) (interface{}, error) {
		return ps.UpdateContact(ctx, id, p)
	})
}

func UpdateHeroTemplate(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		var req struct {
			HeroTemplate string `json:"heroTemplate"`
		}
		if !bindJSON(c, &req) {
			return
		}
		template, err := ps.UpdateHeroTemplate(c.Request.Context(), userID, req.HeroTemplate)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"heroTemplate": template}, "hero template updated"))
	}
}
