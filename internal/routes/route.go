package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/folio/internal/container"
	"github.com/joshua-takyi/folio/internal/handlers"
	"github.com/joshua-takyi/folio/internal/middleware"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.New()

	// CORS for the dashboard origins
	r.Use(cors.New(cors.Config{
		AllowOrigins:     container.Config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
	}))

	// Global middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())
	r.Use(container.Metrics.Middleware())

	r.GET("/metrics", gin.WrapH(container.Metrics.Handler()))

	cookies := handlers.CookieOptions{Secure: container.Config.IsProduction()}
	limit := middleware.RateLimit(container.Limiter, container.Metrics, container.Logger)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"service": "folio-api",
			})
		})

		// Public portfolio page
		v1.GET("/portfolio/:username", handlers.GetPublicPortfolio(container.PublicService, container.Logger))

		auth := v1.Group("/auth")
		auth.Use(limit)
		{
			auth.POST("/register", handlers.Register(container.UserService))
			auth.POST("/login", handlers.Login(container.UserService, cookies))
			auth.POST("/logout", handlers.Logout(cookies))
			auth.POST("/verify-code", handlers.VerifyCode(container.UserService))
			auth.POST("/resend-code", handlers.ResendCode(container.UserService))
			auth.POST("/forgot-password", handlers.ForgotPassword(container.UserService))
			auth.POST("/reset-password", handlers.ResetPassword(container.UserService))
		}
	}

	// Protected routes (require authentication)
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(container.UserService, container.Logger))
	{
		protected.GET("/me", handlers.GetMe(container.UserService))
		protected.PUT("/settings", handlers.UpdateSettings(container.UserService))
		protected.POST("/upload", handlers.UploadFile(container.UploadService))
	}

	ps := container.PortfolioService
	portfolio := protected.Group("/portfolio")
	{
		portfolio.GET("", handlers.GetPortfolio(ps))
		portfolio.PUT("", handlers.UpdatePortfolio(ps))
		portfolio.GET("/about", handlers.GetAbout(ps))
		portfolio.PUT("/about", handlers.UpdateAbout(ps))
		portfolio.PUT("/hero", handlers.UpdateHero(ps))
		portfolio.PUT("/theme", handlers.UpdateTheme(ps))
		portfolio.PUT("/contact", handlers.UpdateContact(ps))
		portfolio.PATCH("/hero-template", handlers.UpdateHeroTemplate(ps))

		portfolio.GET("/projects", handlers.ListProjects(ps))
		portfolio.POST("/projects", handlers.CreateProject(ps))
		portfolio.GET("/projects/:id", handlers.GetProject(ps))
		portfolio.PUT("/projects/:id", handlers.UpdateProject(ps))
		portfolio.DELETE("/projects/:id", handlers.DeleteProject(ps))

		portfolio.GET("/experiences", handlers.ListExperiences(ps))
		portfolio.POST("/experiences", handlers.CreateExperience(ps))
		portfolio.PUT("/experiences", handlers.UpdateExperience(ps))
		portfolio.DELETE("/experiences", handlers.DeleteExperience(ps))
		portfolio.PUT("/experiences/:id", handlers.UpdateExperience(ps))
		portfolio.DELETE("/experiences/:id", handlers.DeleteExperience(ps))

		portfolio.GET("/education", handlers.ListEducation(ps))
		portfolio.POST("/education", handlers.CreateEducation(ps))
		portfolio.PUT("/education", handlers.UpdateEducation(ps))
		portfolio.DELETE("/education", handlers.DeleteEducation(ps))
		portfolio.PUT("/education/:id", handlers.UpdateEducation(ps))
		portfolio.DELETE("/education/:id", handlers.DeleteEducation(ps))

		portfolio.GET("/skills", handlers.ListSkills(ps))
		portfolio.POST("/skills", handlers.CreateSkill(ps))
		portfolio.PUT("/skills/:id", handlers.UpdateSkill(ps))
		portfolio.DELETE("/skills/:id", handlers.DeleteSkill(ps))
	}

	// Admin routes (require stored superadmin role)
	admin := protected.Group("/users")
	admin.Use(middleware.RequireSuperadmin(container.AdminService))
	{
		admin.GET("", handlers.ListUsers(container.AdminService))
		admin.PUT("", handlers.AdminUpdateUser(container.AdminService))
		admin.DELETE("", handlers.AdminDeleteUser(container.AdminService))
		admin.PUT("/:id", handlers.AdminUpdateUser(container.AdminService))
		admin.DELETE("/:id", handlers.AdminDeleteUser(container.AdminService))
	}

	return r
}
