package api

import (
	"github.com/gin-gonic/gin"

	"scooter_simulator/internal/simulator"
)

// RegisterRoutes mounts the REST API under /api/v1 plus the health probe.
func RegisterRoutes(r *gin.Engine, manager *simulator.Manager) {
	h := NewHandler(manager)

	r.GET("/health", h.health)

	v1 := r.Group("/api/v1")

	sim := v1.Group("/simulation")
	sim.GET("/status", h.getStatus)
	sim.GET("/snapshot", h.getSnapshot)
	sim.POST("/start", h.start)
	sim.POST("/pause", h.pause)
	sim.POST("/resume", h.resume)
	sim.POST("/stop", h.stop)
	sim.POST("/reset", h.reset)
	sim.PATCH("/speed", h.adjustSpeed)
	sim.POST("/step", h.step)

	cfg := v1.Group("/config")
	cfg.GET("", h.getConfig)
	cfg.PUT("", h.setConfig)
	cfg.POST("/validate", h.validateConfig)

	metrics := v1.Group("/metrics")
	metrics.GET("/current", h.currentMetrics)
	metrics.GET("/summary", h.metricsSummary)
	metrics.GET("/stations/:id/swaps", h.stationSwaps)
}
