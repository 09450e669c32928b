// internal/web/server.go
package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"hostguard/internal/alerting"
	"hostguard/internal/config"
	"hostguard/internal/scheduler"
	"hostguard/internal/sink"
)

type Server struct {
	config    *config.Config
	sched     *scheduler.Scheduler
	history   *sink.BoltStore
	router    *gin.Engine
	wsClients map[*WSClient]bool
	server    *http.Server
}

func NewServer(cfg *config.Config, sched *scheduler.Scheduler, history *sink.BoltStore) *Server {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	server := &Server{
		config:    cfg,
		sched:     sched,
		history:   history,
		router:    router,
		wsClients: make(map[*WSClient]bool),
	}

	server.setupRoutes()
	return server
}

func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    s.config.Web.Listen,
		Handler: s.router,
	}

	logrus.WithField("listen", s.config.Web.Listen).Info("Starting web server")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("Web server failed")
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// BroadcastAlert pushes one alert event to all connected websocket clients.
// Wired as the scheduler's OnAlert hook.
func (s *Server) BroadcastAlert(event alerting.AlertEvent) {
	s.broadcast(WSMessage{Type: "alert", Data: event})
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/status", s.getStatus)
		api.GET("/alerts", s.getAlerts)
		api.GET("/health", s.healthCheck)
	}

	s.router.GET("/ws", s.handleWebSocket)
	s.router.GET(s.config.Web.MetricsPath, gin.WrapH(promhttp.Handler()))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
