package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/models"
)

// APICacheInfo reports how long a rebuild took.
type APICacheInfo struct {
	Time string `json:"time"`
}

// UpdateMissionRawCache handles GET /cache/update_mission_raw
// @Summary Force-rebuild every L1 artifact from the relational store
func (h *Handler) UpdateMissionRawCache(w http.ResponseWriter, r *http.Request) {
	snap := h.state.SnapshotMapping()

	elapsed, err := compute(h, r.Context(), "update_mission_raw", func(ctx context.Context) (time.Duration, error) {
		return h.cache.RebuildAllMissionRaw(ctx, snap)
	})
	if err != nil {
		fail[APICacheInfo](h, w, err)
		return
	}
	h.envelope(w, models.OK(APICacheInfo{Time: fmt.Sprintf("%v", elapsed)}))
}

// UpdateMissionKPIRawCache handles GET /cache/update_mission_kpi_raw
// @Summary Force-rebuild every L2 artifact from the L1 layer
func (h *Handler) UpdateMissionKPIRawCache(w http.ResponseWriter, r *http.Request) {
	kpiConfig, ok := h.state.KPIConfig()
	if !ok {
		h.envelope(w, models.ConfigRequired[APICacheInfo]("kpi_config"))
		return
	}
	snap := h.state.SnapshotMapping()

	elapsed, err := compute(h, r.Context(), "update_mission_kpi_raw", func(ctx context.Context) (time.Duration, error) {
		return h.cache.RebuildAllMissionKPIRaw(ctx, snap, kpiConfig)
	})
	if err != nil {
		fail[APICacheInfo](h, w, err)
		return
	}
	h.envelope(w, models.OK(APICacheInfo{Time: fmt.Sprintf("%v", elapsed)}))
}

// UpdateGlobalKPIState handles GET /cache/update_global_kpi_state
// @Summary Force-rebuild the L3 artifact
func (h *Handler) UpdateGlobalKPIState(w http.ResponseWriter, r *http.Request) {
	kpiConfig, ok := h.state.KPIConfig()
	if !ok {
		h.envelope(w, models.ConfigRequired[APICacheInfo]("kpi_config"))
		return
	}
	snap := h.state.SnapshotMapping()

	elapsed, err := compute(h, r.Context(), "update_global_kpi_state", func(ctx context.Context) (time.Duration, error) {
		invalidMissionIDs, err := h.store.InvalidMissionIDs(ctx)
		if err != nil {
			return 0, err
		}
		return h.cache.RebuildGlobalKPIState(ctx, snap, kpiConfig, invalidMissionIDs)
	})
	if err != nil {
		fail[APICacheInfo](h, w, err)
		return
	}
	h.envelope(w, models.OK(APICacheInfo{Time: fmt.Sprintf("%v", elapsed)}))
}
