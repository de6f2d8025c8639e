package handlers

import (
	"time"

	"github.com/labstack/echo/v4"
	"uk.co.dudmesh.profiles/internal/blob"
)

type RouteConfig struct {
	AuthService    AuthService
	ProfileService ProfileService

	LoginRateLimit    int
	LoginRateWindow   time.Duration
	ProfileRateLimit  int
	ProfileRateWindow time.Duration

	// MediaRoot, when set, is served read-only under blob.MediaPath.
	MediaRoot string
}

func RegisterRoutes(server *echo.Echo, config *RouteConfig) {
	server.GET("/api/health", Health())

	loginLimiter := RateLimit(RateLimitConfig{
		Limit:   config.LoginRateLimit,
		Window:  config.LoginRateWindow,
		Message: "Too many login attempts. Please try again later.",
		Charge:  ChargeAttempts,
	})
	profileLimiter := RateLimit(RateLimitConfig{
		Limit:   config.ProfileRateLimit,
		Window:  config.ProfileRateWindow,
		Message: "Too many profile creation attempts. Please try again later.",
	})

	v1 := server.Group("/v1/api")
	v1.POST("/auth/login", Login(config.AuthService), loginLimiter)
	v1.POST("/create-profile", CreateProfile(config.ProfileService), profileLimiter)

	if config.MediaRoot != "" {
		server.Static(blob.MediaPath, config.MediaRoot)
	}
}
