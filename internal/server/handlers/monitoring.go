package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/cardlink/internal/foundation/errors"
	"git.home.luguber.info/inful/cardlink/internal/server/responses"
	"git.home.luguber.info/inful/cardlink/internal/version"
)

// Status reports what the health endpoint needs to know.
type Status interface {
	StartTime() time.Time
	Enabled() bool
}

// MonitoringHandlers contains monitoring-related HTTP handlers.
type MonitoringHandlers struct {
	status       Status
	errorAdapter *errors.HTTPErrorAdapter
}

// NewMonitoringHandlers creates a new monitoring handlers instance.
func NewMonitoringHandlers(status Status, logger *slog.Logger) *MonitoringHandlers {
	return &MonitoringHandlers{status: status, errorAdapter: errors.NewHTTPErrorAdapter(logger)}
}

// HandleHealthCheck handles the health check endpoint.
func (h *MonitoringHandlers) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	health := &responses.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   version.Version,
		Uptime:    time.Since(h.status.StartTime()).Seconds(),
		Enabled:   h.status.Enabled(),
	}
	if err := writeJSONPretty(w, r, http.StatusOK, health); err != nil {
		internalErr := errors.WrapError(err, errors.CategoryInternal, "failed to write health response").Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}
