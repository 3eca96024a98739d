package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pipelab/stallmeter/internal/api/middleware"
	"github.com/pipelab/stallmeter/internal/api/ws"
	"github.com/pipelab/stallmeter/internal/infrastructure/config"
	"github.com/pipelab/stallmeter/internal/infrastructure/monitoring"
	"github.com/pipelab/stallmeter/internal/logging"
)

// Server wraps the HTTP server and its dependencies
type Server struct {
	router  *gin.Engine
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
	hub     *ws.Hub
}

// New creates a new server instance
func New(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics, hub *ws.Hub) *Server {
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	s := &Server{
		router:  router,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
		hub:     hub,
	}

	// Register routes
	router.GET("/health", s.health)
	router.GET("/stats", s.stats)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		metrics.Registry(),
		promhttp.HandlerOpts{},
	)))
	router.GET("/stream", hub.HandleConnection)

	return s
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close disconnects streaming clients and flushes the logger
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	s.hub.Close()
	s.logger.Sync()
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.GetSnapshot())
}
