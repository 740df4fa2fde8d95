package routes

import (
	"github.com/blackbox-chat/blackbox-backend/internal/config"
	"github.com/blackbox-chat/blackbox-backend/internal/handler"
	"github.com/blackbox-chat/blackbox-backend/internal/middleware"
	"github.com/blackbox-chat/blackbox-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handlers groups every HTTP handler mounted under /api
type Handlers struct {
	Auth    *handler.AuthHandler
	Message *handler.MessageHandler
	Contact *handler.ContactHandler
	Profile *handler.ProfileHandler
	Admin   *handler.AdminHandler
	Upload  *handler.UploadHandler
	Privacy *handler.PrivacyHandler
	WS      *handler.WSHandler
}

// Deps are the shared pieces the route middleware needs
type Deps struct {
	JWT        *jwt.Manager
	CookieName string
	Profiles   middleware.FlagsProvider
	Redis      *redis.Client // nil disables rate limiting
	RateLimit  config.RateLimitConfig
}

// Setup configures all API routes
func Setup(router *gin.Engine, h Handlers, d Deps) {
	cookieAuth := middleware.CookieAuth(d.JWT, d.CookieName)

	api := router.Group("/api", cookieAuth)

	// Authentication endpoints (no auth required)
	auth := api.Group("/auth")
	auth.POST("/login", middleware.RateLimit(d.Redis, middleware.RateLimitConfig{
		RequestsPerMinute: d.RateLimit.LoginPerMinute,
		KeyPrefix:         "bb:ratelimit:login:",
	}), h.Auth.Login)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.Me)

	// Everything below requires a session
	private := api.Group("", middleware.RequireAuth(), middleware.RateLimit(d.Redis, middleware.RateLimitConfig{
		RequestsPerMinute: d.RateLimit.RequestsPerMinute,
		KeyPrefix:         "bb:ratelimit:",
		PerUser:           true,
	}))

	messages := private.Group("/messages")
	{
		messages.GET("", h.Message.List)
		messages.POST("", h.Message.Send)
		messages.PUT("", h.Message.Edit)
		messages.DELETE("", h.Message.Delete)  // ?id= | ?peer_id=
		messages.PATCH("", h.Message.MarkRead) // ?peer_id=
		messages.POST("/read", middleware.Deprecation(middleware.DeprecationConfig{
			Successor: "/api/messages?peer_id=",
		}), h.Message.MarkRead)
	}

	contacts := private.Group("/contacts")
	{
		contacts.GET("", h.Contact.List)
		contacts.POST("", h.Contact.Request)
		contacts.DELETE("", h.Contact.Remove)
		contacts.PATCH("", h.Contact.Search) // ?q=<PIN>

		contacts.GET("/requests", h.Contact.PendingRequests)
		contacts.POST("/requests", h.Contact.Accept)
		contacts.DELETE("/requests", h.Contact.Reject)
	}

	profile := private.Group("/profile")
	{
		profile.PATCH("", h.Profile.Update)
		profile.POST("/update", middleware.Deprecation(middleware.DeprecationConfig{
			Successor: "/api/profile",
		}), h.Profile.Update)
		profile.POST("/change-password", h.Profile.ChangePassword)
		profile.POST("/set-lock-key", h.Profile.SetLockKey)
		profile.POST("/app-lock", h.Profile.AppLock)
		profile.POST("/verify-lock", h.Profile.VerifyLock)
		profile.GET("/avatar", h.Profile.Avatar)
		profile.POST("/nuke", h.Profile.Nuke)
	}

	private.POST("/upload", h.Upload.Upload)
	private.POST("/privacy/resolve-ids", h.Privacy.ResolveIDs)

	admin := private.Group("/admin", middleware.RequireAdmin(d.Profiles))
	{
		admin.GET("/users", h.Admin.ListUsers)
		admin.POST("/users", h.Admin.CreateUser)
		admin.PATCH("/users/:id", h.Admin.UpdateUser)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)
		admin.POST("/system", h.Admin.System)
		admin.GET("/audit", h.Admin.AuditLogs)
	}

	// WebSocket (cookie auth; browsers cannot set headers on upgrade)
	router.GET("/ws", cookieAuth, h.WS.Connect)
}
