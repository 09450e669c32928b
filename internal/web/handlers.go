// internal/web/handlers.go
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) getStatus(c *gin.Context) {
	resp := gin.H{
		"host_id":    s.config.Host.ID,
		"state":      s.sched.State().String(),
		"thresholds": s.config.Thresholds,
		"interval_s": s.config.Host.IntervalSeconds,
	}

	if snap, ok := s.sched.LastSnapshot(); ok {
		resp["snapshot"] = snap
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) getAlerts(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	alerts, err := s.history.Recent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"scheduler": s.sched.State().String(),
		"timestamp": time.Now().UTC(),
	})
}
