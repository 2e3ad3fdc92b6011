package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/folio/internal/middleware"
	"github.com/joshua-takyi/folio/internal/models"
	"github.com/joshua-takyi/folio/internal/services"
)

// deleteRequest is the body of a delete that does not carry the id in the
// path. Both spellings are accepted.
type deleteRequest struct {
	ID    string `json:"id"`
	MgoID string `json:"_id"`
}

// deleteTarget resolves the id of the element to remove.
func deleteTarget(c *gin.Context) (string, bool) {
	if id := c.Param("id"); id != "" {
		return id, true
	}
	var req deleteRequest
	if c.Request.ContentLength == 0 {
		return "", true
	}
	if !bindJSON(c, &req) {
		return "", false
	}
	return itemID(c, req.ID, req.MgoID), true
}

func respondDeleted(c *gin.Context, err error, message string) {
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SuccessResponse(nil, message))
}

// Projects

func ListProjects(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		projects, err := ps.ListProjects(c.Request.Context(), userID)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(projects, ""))
	}
}

func GetProject(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		project, err := ps.GetProject(c.Request.Context(), userID, c.Param("id"))
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(project, ""))
	}
}

func CreateProject(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		var in models.ProjectInput
		if !bindJSON(c, &in) {
			return
		}
		project, err := ps.CreateProject(c.Request.Context(), userID, &in)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(project, "project created"))
	}
}

func UpdateProject(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		var in models.ProjectInput
		if !bindJSON(c, &in) {
			return
		}
		project, err := ps.UpdateProject(c.Request.Context(), userID, itemID(c, in.ID), &in)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(project, "project updated"))
	}
}

func DeleteProject(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		id, ok := deleteTarget(c)
		if !ok {
			return
		}
		respondDeleted(c, ps.DeleteProject(c.Request.Context(), userID, id), "project deleted")
	}
}

// Experiences

func ListExperiences(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		experiences, err := ps.ListExperiences(c.Request.Context(), userID)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(experiences, ""))
	}
}

func CreateExperience(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		var in models.ExperienceInput
		if !bindJSON(c, &in) {
			return
		}
		experience, err := ps.CreateExperience(c.Request.Context(), userID, &in)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(experience, "experience created"))
	}
}

func UpdateExperience(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		var in models.ExperienceInput
		if !bindJSON(c, &in) {
			return
		}
		experience, err := ps.UpdateExperience(c.Request.Context(), userID, itemID(c, in.ID), &in)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(experience, "experience updated"))
	}
}

func DeleteExperience(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		id, ok := deleteTarget(c)
		if !ok {
			return
		}
		respondDeleted(c, ps.DeleteExperience(c.Request.Context(), userID, id), "experience deleted")
	}
}

// Education

func ListEducation(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		education, err := ps.ListEducation(c.Request.Context(), userID)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(education, ""))
	}
}

func CreateEducation(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		var in models.EducationInput
		if !bindJSON(c, &in) {
			return
		}
		entry, err := ps.CreateEducation(c.Request.Context(), userID, &in)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(entry, "education created"))
	}
}

func UpdateEducation(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		var in models.EducationInput
		if !bindJSON(c, &in) {
			return
		}
		entry, err := ps.UpdateEducation(c.Request.Context(), userID, itemID(c, in.ID), &in)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(entry, "education updated"))
	}
}

func DeleteEducation(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		id, ok := deleteTarget(c)
		if !ok {
			return
		}
		respondDeleted(c, ps.DeleteEducation(c.Request.Context(), userID, id), "education deleted")
	}
}

// Skills

func ListSkills(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		skills, err := ps.ListSkills(c.Request.Context(), userID)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(skills, ""))
	}
}

func CreateSkill(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		var in models.SkillInput
		if !bindJSON(c, &in) {
			return
		}
		skill, err := ps.CreateSkill(c.Request.Context(), userID, &in)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(skill, "skill created"))
	}
}

func UpdateSkill(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		var in models.SkillInput
		if !bindJSON(c, &in) {
			return
		}
		skill, err := ps.UpdateSkill(c.Request.Context(), userID, itemID(c, in.ID), &in)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(skill, "skill updated"))
	}
}

func DeleteSkill(ps *services.PortfolioService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		id, ok := deleteTarget(c)
		if !ok {
			return
		}
		respondDeleted(c, ps.DeleteSkill(c.Request.Context(), userID, id), "skill deleted")
	}
}
