package api

import (
	"context"
	"net/http"

	"github.com/okian/talentflow/internal/domain/types"
)

// DashboardProvider computes the dashboard counters.
type DashboardProvider interface {
	Dashboard(ctx context.Context) (types.Stats, error)
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	dashboard     DashboardProvider
	statsProvider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(dashboard DashboardProvider, statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{dashboard: dashboard, statsProvider: statsProvider}
}

// HandleDashboard handles GET /stats.
func (h *StatsHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Dashboard(r.Context())
	if err != nil {
		writeError(w, r, Wrap("api.stats", err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleServiceStats handles GET /stats/service with queue, worker and
// record counts.
func (h *StatsHandler) HandleServiceStats(w http.ResponseWriter, r *http.Request) {
	if h.statsProvider == nil {
		writeError(w, r, NewKind("api.service_stats", ErrNotFound))
		return
	}
	writeJSON(w, http.StatusOK, h.statsProvider.GetStats())
}
