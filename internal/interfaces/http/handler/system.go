package handler

import (
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	apiName    = "Cashdesk API"
	apiVersion = "1.0.0"
)

// SystemHandler serves the unauthenticated service metadata endpoints
// used by load balancers and operators.
type SystemHandler struct {
	BaseHandler
	startedAt time.Time
}

func NewSystemHandler() *SystemHandler {
	return &SystemHandler{startedAt: time.Now()}
}

// SystemInfoResponse describes the running service.
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name      string `json:"name" example:"Cashdesk API"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns basic system information including version and uptime
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Failure      500 {object} ErrorResponse
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      apiName,
		Version:   apiVersion,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// PingResponse acknowledges a liveness probe.
// @name HandlerPingResponse
type PingResponse struct {
	Message   string `json:"message" example:"pong"`
	Timestamp string `json:"timestamp" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Ping the API
// @Description  Simple ping endpoint to check if the API is responsive
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
