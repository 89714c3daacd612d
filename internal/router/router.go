// Package router wires HTTP routes to their handlers and gates.
package router

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/model-marketplace/internal/config"
	"github.com/iliyamo/model-marketplace/internal/handler"
	"github.com/iliyamo/model-marketplace/internal/middleware"
	"github.com/iliyamo/model-marketplace/internal/repository"
)

// Handlers groups everything the route table needs.
type Handlers struct {
	Auth          *handler.AuthHandler
	Upload        *handler.UploadHandler
	Models        *handler.ModelHandler
	Notifications *handler.NotificationHandler
}

// Register sets up the full route table. The auth gate resolves the caller
// from the credential store on every protected request; the artist and
// admin role gates layer on top of it. rdb may be nil, which disables rate
// limiting and catalog caching.
func Register(e *echo.Echo, cfg config.Config, rdb *redis.Client, users middleware.UserStore, h Handlers) {
	e.GET("/healthz", handler.Health)

	// Stored model files are served straight from the storage root.
	e.Static("/uploads", cfg.UploadDir)

	gate := middleware.AuthGate(cfg.JWTSecret, users)
	artistOnly := middleware.RequireRole(repository.RoleArtist)
	adminOnly := middleware.RequireRole(repository.RoleAdmin)
	limit := middleware.RateLimit(rdb, 20, time.Minute)

	auth := e.Group("/api/auth", limit)
	auth.POST("/signup", h.Auth.Signup)
	auth.POST("/signin", h.Auth.Signin)

	// Multipart overhead means the request body runs slightly larger than
	// the file ceiling enforced by the asset store.
	bodyLimit := echomw.BodyLimit(fmt.Sprintf("%dM", cfg.MaxUploadMB+1))
	e.POST("/api/upload", h.Upload.Upload, bodyLimit, gate, artistOnly)

	e.GET("/api/models", h.Models.ListAll, middleware.CatalogCache(rdb, 30*time.Second))
	e.GET("/api/models/pending", h.Models.ListPending, gate, adminOnly)
	e.PATCH("/api/models/status/:modelId", h.Models.UpdateStatus, gate, adminOnly)
	e.POST("/api/models/:modelId/purchase", h.Models.Purchase, gate)
	e.GET("/api/models/creator/:creatorId", h.Models.ListByCreator, gate)
	e.DELETE("/api/models/:modelId", h.Models.Delete, gate)

	e.GET("/api/notifications", h.Notifications.List, gate)
	e.POST("/api/notifications/clear", h.Notifications.Clear, gate)
}
