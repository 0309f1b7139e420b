package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"guestbook-server/internal/config"
	"guestbook-server/internal/interfaces/httpserver/handlers"
	"guestbook-server/internal/interfaces/httpserver/middlewares"
)

// Routes encapsulates versioned route registration.
type Routes struct {
	handlers *handlers.Provider
	cfg      *config.Config
	log      zerolog.Logger
}

func NewRoutes(provider *handlers.Provider, cfg *config.Config, log zerolog.Logger) *Routes {
	return &Routes{handlers: provider, cfg: cfg, log: log}
}

// Register attaches all v1 routes under the /v1 prefix. Login and media
// streaming stay outside the session guard so the curtain page can
// authenticate and stored files remain directly linkable.
func (r *Routes) Register(router gin.IRouter) {
	group := router.Group("/v1")

	group.POST("/auth/login", r.handlers.Auth.Login)
	group.GET("/media/*key", r.handlers.Stream.Serve)

	protected := group.Group("")
	protected.Use(middlewares.Session(r.cfg, r.log))

	protected.GET("/files", r.handlers.Media.List)
	protected.POST("/files", r.handlers.Media.Upload)
	protected.DELETE("/files", r.handlers.Media.Delete)
	protected.POST("/files/prepare-upload", r.handlers.Media.PrepareUpload)
	protected.POST("/files/metadata", r.handlers.Media.SaveMetadata)
	protected.POST("/files/sync", r.handlers.Media.SyncNow)
	protected.GET("/storage-config", r.handlers.Media.StorageConfig)
	protected.POST("/storage-config/toggle", r.handlers.Media.ToggleStorage)
}
