package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appprovisioning "github.com/sitesync/agent/internal/application/provisioning"
	"github.com/sitesync/agent/internal/interfaces/http/dto"
)

// SystemHandler handles agent-level API endpoints
type SystemHandler struct {
	BaseHandler
	diagnostics *appprovisioning.DiagnosticsService
	startTime   time.Time
	log         *zap.Logger
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(diagnostics *appprovisioning.DiagnosticsService, log *zap.Logger) *SystemHandler {
	return &SystemHandler{
		diagnostics: diagnostics,
		startTime:   time.Now(),
		log:         log.Named("http.system"),
	}
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	system := rg.Group("/system")
	{
		system.GET("/info", h.Info)
		system.GET("/ping", h.Ping)
		system.GET("/diagnostics", h.Diagnostics)
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Info returns basic agent information
func (h *SystemHandler) Info(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      "sitesync-agent",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ping checks that the identity service answers an authenticated request
func (h *SystemHandler) Ping(c *gin.Context) {
	if err := h.diagnostics.Ping(c.Request.Context()); err != nil {
		h.log.Warn("identity service ping failed", zap.Error(err))
		h.Error(c, http.StatusBadGateway, dto.ErrCodeUnavailable, "identity service unreachable")
		return
	}
	h.Success(c, dto.PingResponse{Status: "ok"})
}

// Diagnostics runs the full diagnostic suite.
// Pass format=text for the human-readable rendering.
func (h *SystemHandler) Diagnostics(c *gin.Context) {
	report := h.diagnostics.Run(c.Request.Context())

	if c.Query("format") == "text" {
		c.String(http.StatusOK, report.Render())
		return
	}
	h.Success(c, report)
}
