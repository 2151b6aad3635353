package routes

import (
	"time"

	"github.com/ekinyurt/auth-service/internal/config"
	"github.com/ekinyurt/auth-service/internal/handlers"
	"github.com/ekinyurt/auth-service/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)
	api.Post("/email-check", authHandler.EmailCheck)

	// Auth — public, stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/signup", authHandler.Signup)
	auth.Post("/signin", authHandler.Signin)
	auth.Post("/signout", authHandler.Signout)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password/:token", authHandler.ResetPassword)
	auth.Get("/session", authHandler.Session)

	// Google OAuth code flow
	auth.Get("/google", authHandler.GoogleBegin)
	auth.Get("/google/callback", authHandler.GoogleCallback)

	// Protected routes (JWT required) - apply middleware per route so the
	// public routes above stay unaffected
	api.Get("/me", middleware.JWTProtected(cfg), userHandler.Me)
}
