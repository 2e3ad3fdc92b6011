package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/folio/internal/middleware"
	"github.com/joshua-takyi/folio/internal/models"
	"github.com/joshua-takyi/folio/internal/services"
)

// CookieOptions controls the session cookie written at login.
type CookieOptions struct {
	Secure bool
	Domain string
}

func setSessionCookie(c *gin.Context, opts CookieOptions, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenName, token, maxAge, "/", opts.Domain, opts.Secure, true)
}

func Register(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RegisterRequest
		if !bindJSON(c, &req) {
			return
		}
		user, err := u.Register(c.Request.Context(), &req)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(user, "account created, check your email for the verification code"))
	}
}

func Login(u *services.UserService, opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := u.Login(c.Request.Context(), &req)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		setSessionCookie(c, opts, res.Token, int(u.TokenTTL().Seconds()))
		c.JSON(http.StatusOK, models.SuccessResponse(res, "logged in"))
	}
}

func Logout(opts CookieOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		setSessionCookie(c, opts, "", -1)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "logged out"))
	}
}

func VerifyCode(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.VerifyCodeRequest
		if !bindJSON(c, &req) {
			return
		}
		already, err := u.VerifyCode(c.Request.Context(), &req)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		message := "email verified"
		if already {
			message = "email already verified"
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, message))
	}
}

func ResendCode(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.EmailRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := u.ResendCode(c.Request.Context(), &req); err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "verification code sent"))
	}
}

// ForgotPassword answers the same way whether or not the account exists.
func ForgotPassword(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.EmailRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := u.ForgotPassword(c.Request.Context(), &req); err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "if an account exists for this email, a reset link has been sent"))
	}
}

func ResetPassword(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ResetPasswordRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := u.ResetPassword(c.Request.Context(), &req); err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "password updated"))
	}
}

func GetMe(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		user, err := u.GetMe(c.Request.Context(), userID)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, ""))
	}
}

func UpdateSettings(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := ownerID(c)
		if !ok {
			return
		}
		var update models.SettingsUpdate
		if !bindJSON(c, &update) {
			return
		}
		user, err := u.UpdateSettings(c.Request.Context(), userID, &update)
		if err != nil {
			middleware.AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, "settings updated"))
	}
}
