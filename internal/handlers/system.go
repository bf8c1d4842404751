package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"hfproxy-gateway/internal/stats"
	"hfproxy-gateway/pkg/logging/logging"
)

// SystemHandler serves the introspection endpoints. The core request path
// does not depend on either of them.
type SystemHandler struct {
	Stats   stats.Store
	Started time.Time
}

func NewSystemHandler(store stats.Store) *SystemHandler {
	return &SystemHandler{
		Stats:   store,
		Started: time.Now(),
	}
}

func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *SystemHandler) StatsSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counters, err := h.Stats.Snapshot(ctx)
	if err != nil {
		logging.L(ctx).Error("stats snapshot failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "stats_unavailable", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, struct {
		UptimeSeconds int64            `json:"uptime_seconds"`
		Counters      map[string]int64 `json:"counters"`
	}{
		UptimeSeconds: int64(time.Since(h.Started).Seconds()),
		Counters:      counters,
	})
}
