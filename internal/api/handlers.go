// Package api exposes the REST control surface for the simulation:
// lifecycle commands, configuration, snapshots and metrics.
package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"scooter_simulator/internal/config"
	"scooter_simulator/internal/simulator"
)

// ErrorResponse carries a human-readable failure reason.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ControlResponse acknowledges a lifecycle command.
type ControlResponse struct {
	Message string           `json:"message"`
	Status  simulator.Status `json:"status"`
}

// StartResponse acknowledges a start command with the new session id.
type StartResponse struct {
	Message   string           `json:"message"`
	SessionID string           `json:"session_id"`
	Status    simulator.Status `json:"status"`
}

// SpeedRequest adjusts the pacing multiplier.
type SpeedRequest struct {
	SpeedMultiplier float64 `json:"speed_multiplier"`
}

// ValidateResponse reports configuration validation findings.
type ValidateResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// StationSwaps is a page of swap events at one station.
type StationSwaps struct {
	StationID string                `json:"station_id"`
	Total     int                   `json:"total"`
	Offset    int                   `json:"offset"`
	Limit     int                   `json:"limit"`
	SortBy    string                `json:"sort_by"`
	Order     string                `json:"order"`
	Swaps     []simulator.SwapEvent `json:"swaps"`
}

// Handler serves the REST endpoints on top of the simulation manager.
type Handler struct {
	manager *simulator.Manager
}

func NewHandler(manager *simulator.Manager) *Handler {
	return &Handler{manager: manager}
}

func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.StatusInfo())
}

func (h *Handler) getSnapshot(c *gin.Context) {
	info, ok := h.manager.Snapshot()
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "No simulation running"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (h *Handler) start(c *gin.Context) {
	sessionID, err := h.manager.Start()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, StartResponse{
		Message:   "Simulation started",
		SessionID: sessionID,
		Status:    h.manager.Status(),
	})
}

func (h *Handler) pause(c *gin.Context) {
	if err := h.manager.Pause(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, ControlResponse{Message: "Simulation paused", Status: h.manager.Status()})
}

func (h *Handler) resume(c *gin.Context) {
	if err := h.manager.Resume(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, ControlResponse{Message: "Simulation resumed", Status: h.manager.Status()})
}

func (h *Handler) stop(c *gin.Context) {
	h.manager.Stop()
	c.JSON(http.StatusAccepted, ControlResponse{Message: "Simulation stopped", Status: h.manager.Status()})
}

func (h *Handler) reset(c *gin.Context) {
	if err := h.manager.Reset(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, ControlResponse{Message: "Simulation reset", Status: h.manager.Status()})
}

func (h *Handler) adjustSpeed(c *gin.Context) {
	var req SpeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
		return
	}
	if req.SpeedMultiplier < 0.1 || req.SpeedMultiplier > 100 {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: "speed_multiplier must be between 0.1 and 100"})
		return
	}

	applied := h.manager.SetSpeed(req.SpeedMultiplier)
	c.JSON(http.StatusOK, ControlResponse{
		Message: "Speed adjusted to " + strconv.FormatFloat(applied, 'g', -1, 64) + "x",
		Status:  h.manager.Status(),
	})
}

func (h *Handler) step(c *gin.Context) {
	executed, err := h.manager.Step()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}
	message := "Step executed"
	if !executed {
		message = "No more events"
	}
	c.JSON(http.StatusOK, ControlResponse{Message: message, Status: h.manager.Status()})
}

func (h *Handler) getConfig(c *gin.Context) {
	cfg, ok := h.manager.Config()
	if !ok {
		c.JSON(http.StatusOK, config.Default())
		return
	}
	c.JSON(http.StatusOK, config.FromSimulation(cfg))
}

func (h *Handler) setConfig(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}

	req, err := config.Parse(data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
		return
	}

	if err := h.manager.SetConfig(req.ToSimulation()); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Configuration updated", "status": "configured"})
}

func (h *Handler) validateConfig(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}

	req, err := config.Parse(data)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
		return
	}

	errs := req.ValidateStations()
	c.JSON(http.StatusOK, ValidateResponse{Valid: len(errs) == 0, Errors: errorsOrEmpty(errs)})
}

func errorsOrEmpty(errs []string) []string {
	if errs == nil {
		return []string{}
	}
	return errs
}

func (h *Handler) currentMetrics(c *gin.Context) {
	metrics, ok := h.manager.CurrentMetrics()
	if !ok {
		metrics = simulator.CurrentMetrics{
			MissesPerStation: map[string]int{},
			SwapsPerStation:  map[string]int{},
		}
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *Handler) metricsSummary(c *gin.Context) {
	summary, ok := h.manager.MetricsSummary()
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "No simulation data available"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) stationSwaps(c *gin.Context) {
	stationID := c.Param("id")

	swaps, ok := h.manager.SwapEventsForStation(stationID)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "No simulation data available"})
		return
	}

	offset := intQuery(c, "offset", 0)
	limit := intQuery(c, "limit", 50)
	order := c.DefaultQuery("order", "asc")

	// Events are recorded chronologically; only the order flag matters.
	if order == "desc" {
		sort.SliceStable(swaps, func(i, j int) bool {
			return swaps[i].Timestamp > swaps[j].Timestamp
		})
	}

	total := len(swaps)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, StationSwaps{
		StationID: stationID,
		Total:     total,
		Offset:    offset,
		Limit:     limit,
		SortBy:    "timestamp",
		Order:     order,
		Swaps:     swaps[offset:end],
	})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(fallback)))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
