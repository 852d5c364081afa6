package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/facetag/internal/api/handlers"
	"github.com/your-org/facetag/internal/auth"
)

type RouterConfig struct {
	APIKey  string
	Videos  *handlers.VideoHandler
	System  *handlers.SystemHandler
	GinMode string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	r.GET("/healthz", cfg.System.Healthz)
	r.GET("/readyz", cfg.System.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))
	{
		v1.GET("/videos/:id", cfg.Videos.Get)
		v1.POST("/videos/:id/analyze", cfg.Videos.Analyze)
		v1.GET("/videos/:id/tags", cfg.Videos.ListTags)
		v1.GET("/tags/:id/thumbnail", cfg.Videos.Thumbnail)
	}

	return r
}
