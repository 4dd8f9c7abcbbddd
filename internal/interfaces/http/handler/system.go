package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/Oscarts/backery2-app-sub003/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler serves health, readiness and build information
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	startTime time.Time
	db        Pinger
	routes    []RouteInfo
	probes    map[string]Probe
}

// Probe returns a snapshot of some runtime state for the info endpoint
type Probe func() (any, error)

// RouteInfo describes one mounted API route
type RouteInfo struct {
	Group  string `json:"group"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, db Pinger) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		startTime: time.Now(),
		db:        db,
		probes:    make(map[string]Probe),
	}
}

// AddProbe exposes a named snapshot, such as pool statistics, on the info endpoint
func (h *SystemHandler) AddProbe(name string, p Probe) {
	h.probes[name] = p
}

// SetRoutes publishes the route catalogue on the info endpoint
func (h *SystemHandler) SetRoutes(routes []RouteInfo) {
	h.routes = routes
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string         `json:"name"`
	Version   string         `json:"version"`
	GoVersion string         `json:"go_version"`
	Uptime    string         `json:"uptime"`
	Routes    []RouteInfo    `json:"routes,omitempty"`
	Probes    map[string]any `json:"probes,omitempty"`
}

// HealthResponse is the body of the health and readiness probes
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

// Health answers the liveness probe
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready answers 503 until the database responds
func (h *SystemHandler) Ready(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Database: err.Error()})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
}

// GetSystemInfo returns the service name, version and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	resp := SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Routes:    h.routes,
	}
	if len(h.probes) > 0 {
		resp.Probes = make(map[string]any, len(h.probes))
		for name, p := range h.probes {
			v, err := p()
			if err != nil {
				v = map[string]string{"error": err.Error()}
			}
			resp.Probes[name] = v
		}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
