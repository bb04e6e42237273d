package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/calltoken-server/internal/config"
	"github.com/vovakirdan/calltoken-server/internal/metrics"
	"github.com/vovakirdan/calltoken-server/internal/service/tokens"
)

// NewServer builds the HTTP server with all routes.
func NewServer(svc *tokens.Service, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(svc, m, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter registers the routes on a fresh gin engine.
func NewRouter(svc *tokens.Service, m *metrics.Metrics, logger *zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware())

	router.GET("/health", healthHandler)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	tokenHandlers := NewTokenHandlers(svc, m, logger)
	api := router.Group("/api")
	{
		api.POST("/createUser", tokenHandlers.CreateUser)
	}

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
