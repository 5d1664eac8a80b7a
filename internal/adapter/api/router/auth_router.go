package router

import (
	"github.com/labstack/echo/v4"

	"handcraft/internal/adapter/api/handler"
	"handcraft/internal/adapter/api/middleware"
)

func SetupAuthRoutes(e *echo.Echo, h *handler.AuthHandler, auth *middleware.AuthMiddleware) {
	group := e.Group("/v1/auth")

	group.POST("/register", h.Register)
	group.POST("/login", h.Login)
	group.POST("/forgot-password", h.ForgotPassword)
	group.POST("/verify-otp", h.VerifyOTP)
	group.POST("/reset-password", h.ResetPassword)

	group.GET("/me", h.Me, auth.Authenticate)
	group.PUT("/me", h.UpdateProfile, auth.Authenticate)
}
