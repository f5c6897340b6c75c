package handlers

import (
	"context"
	"net/http"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/kpi"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/logic"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/models"
)

// GetKPIVersion handles GET /kpi/version
func (h *Handler) GetKPIVersion(w http.ResponseWriter, r *http.Request) {
	h.envelope(w, models.OK(kpi.Version))
}

// GetPlayerKPI handles GET /kpi/player_kpi
// @Summary Per-player KPI roll-up across missions
// @Produce json
func (h *Handler) GetPlayerKPI(w http.ResponseWriter, r *http.Request) {
	result, err := compute(h, r.Context(), "player_kpi", func(ctx context.Context) (map[string]logic.PlayerKPIInfo, error) {
		data, err := h.loadKPIData(ctx)
		if err != nil {
			return nil, err
		}
		return logic.GeneratePlayerKPI(data.missionList, data.missionKPIList,
			data.invalidMissionIDs, data.watchlistPlayerIDs,
			data.lookup.PlayerIDToName, data.globalState, data.kpiConfig)
	})
	if err != nil {
		fail[map[string]logic.PlayerKPIInfo](h, w, err)
		return
	}
	h.envelope(w, models.OK(result))
}

// GetBotKPIInfo handles GET /kpi/bot_kpi_info
// @Summary Per-player KPI trend split into earlier and recent windows
// @Produce json
func (h *Handler) GetBotKPIInfo(w http.ResponseWriter, r *http.Request) {
	result, err := compute(h, r.Context(), "bot_kpi_info", func(ctx context.Context) (map[string]logic.PlayerBotKPIInfo, error) {
		data, err := h.loadKPIData(ctx)
		if err != nil {
			return nil, err
		}
		return logic.GenerateBotKPIInfo(data.missionList, data.missionKPIList,
			data.invalidMissionIDs, data.watchlistPlayerIDs,
			data.lookup.PlayerIDToName, data.globalState, data.kpiConfig)
	})
	if err != nil {
		fail[map[string]logic.PlayerBotKPIInfo](h, w, err)
		return
	}
	h.envelope(w, models.OK(result))
}

// GetGammaInfo handles GET /kpi/gamma
func (h *Handler) GetGammaInfo(w http.ResponseWriter, r *http.Request) {
	result, err := compute(h, r.Context(), "gamma", func(ctx context.Context) (map[string]map[string]logic.GammaInnerInfo, error) {
		data, err := h.loadKPIData(ctx)
		if err != nil {
			return nil, err
		}
		return logic.GenerateGammaInfo(data.globalState), nil
	})
	if err != nil {
		fail[map[string]map[string]logic.GammaInnerInfo](h, w, err)
		return
	}
	h.envelope(w, models.OK(result))
}

// GetTransformRangeInfo handles GET /kpi/transform_range_info
func (h *Handler) GetTransformRangeInfo(w http.ResponseWriter, r *http.Request) {
	result, err := compute(h, r.Context(), "transform_range_info", func(ctx context.Context) (map[string]map[string][]kpi.IndexTransformRange, error) {
		data, err := h.loadKPIData(ctx)
		if err != nil {
			return nil, err
		}
		return logic.GenerateTransformRangeInfo(data.globalState), nil
	})
	if err != nil {
		fail[map[string]map[string][]kpi.IndexTransformRange](h, w, err)
		return
	}
	h.envelope(w, models.OK(result))
}

// GetWeightTable handles GET /kpi/weight_table
func (h *Handler) GetWeightTable(w http.ResponseWriter, r *http.Request) {
	kpiConfig, ok := h.state.KPIConfig()
	if !ok {
		h.envelope(w, models.ConfigRequired[[]logic.APIWeightTableData]("kpi_config"))
		return
	}

	entityMapping := h.state.Mapping().EntityMapping
	h.envelope(w, models.OK(logic.GenerateWeightTable(entityMapping, kpiConfig)))
}
