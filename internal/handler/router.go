package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-resource-portal/internal/middleware"
	"github.com/noah-isme/edu-resource-portal/internal/service"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth      *AuthHandler
	Resources *ResourceHandler
	Search    *SearchHandler
	Downloads *DownloadHandler
	Favorites *FavoritesHandler
	Analytics *AnalyticsHandler
	Store     *StoreHandler
	Metrics   *MetricsHandler
}

// RegisterRoutes mounts the public and admin API surface.
func RegisterRoutes(r *gin.Engine, h Handlers, authService *service.AuthService, metricsService *service.MetricsService) {
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", h.Auth.Login)

		v1.GET("/resources", h.Resources.List)
		v1.GET("/resources/options", h.Resources.Options)
		v1.GET("/resources/:id", h.Resources.Get)

		v1.GET("/search", h.Search.Search)
		v1.GET("/search/suggestions", h.Search.Suggestions)
		v1.GET("/search/recent", h.Search.Recent)
		v1.DELETE("/search/recent", h.Search.ClearRecent)

		v1.POST("/downloads/batch", h.Downloads.Batch)
		v1.GET("/downloads/file/:token", h.Downloads.Serve)
		v1.GET("/downloads/history", h.Downloads.History)
		v1.DELETE("/downloads/history", h.Downloads.ClearHistory)
		v1.GET("/downloads/history/export", h.Downloads.ExportHistory)
		v1.GET("/downloads/stats", h.Downloads.Stats)
		v1.POST("/downloads/:id", h.Downloads.Request)
		v1.GET("/downloads/:id/size", h.Downloads.ProbeSize)

		v1.GET("/favorites", h.Favorites.List)
		v1.DELETE("/favorites", h.Favorites.Clear)
		v1.POST("/favorites/:id/toggle", h.Favorites.Toggle)

		v1.POST("/analytics/events", h.Analytics.Track)
	}

	admin := v1.Group("/admin", middleware.JWT(authService))
	{
		admin.POST("/resources", h.Resources.Create)
		admin.PUT("/resources/:id", h.Resources.Update)
		admin.DELETE("/resources/:id", h.Resources.Delete)

		admin.GET("/analytics/stats", h.Analytics.Stats)
		admin.POST("/analytics/flush", h.Analytics.Flush)

		admin.GET("/store/usage", h.Store.Usage)
		admin.DELETE("/store/expired", h.Store.ClearExpired)
		admin.GET("/store/backup", h.Store.ExportBackup)
		admin.POST("/store/backup", h.Store.RestoreBackup)

		admin.GET("/metrics", h.Metrics.Snapshot)
	}
}
