package handlers

import (
	"context"
	"net/http"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/logic"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/models"
)

// GetAPIMissionList handles GET /mission/api_mission_list
// @Summary Plain mission list
// @Produce json
func (h *Handler) GetAPIMissionList(w http.ResponseWriter, r *http.Request) {
	result, err := compute(h, r.Context(), "api_mission_list", func(ctx context.Context) ([]logic.APIMission, error) {
		missions, err := h.store.Missions(ctx)
		if err != nil {
			return nil, err
		}
		lookup, err := h.store.LoadLookup(ctx)
		if err != nil {
			return nil, err
		}
		return logic.GenerateAPIMissionList(missions, lookup.MissionTypeIDToGameID), nil
	})
	if err != nil {
		fail[[]logic.APIMission](h, w, err)
		return
	}
	h.envelope(w, models.OK(result))
}

// GetMissionList handles GET /mission/mission_list
// @Summary Annotated mission list with invalid markers
// @Produce json
func (h *Handler) GetMissionList(w http.ResponseWriter, r *http.Request) {
	missionTypeMapping := h.state.Mapping().MissionTypeMapping

	result, err := compute(h, r.Context(), "mission_list", func(ctx context.Context) (logic.MissionList, error) {
		missions, err := h.store.Missions(ctx)
		if err != nil {
			return logic.MissionList{}, err
		}
		invalidMissions, err := h.store.InvalidMissions(ctx)
		if err != nil {
			return logic.MissionList{}, err
		}
		lookup, err := h.store.LoadLookup(ctx)
		if err != nil {
			return logic.MissionList{}, err
		}
		return logic.GenerateMissionList(missions, invalidMissions, lookup.MissionTypeIDToGameID, missionTypeMapping), nil
	})
	if err != nil {
		fail[logic.MissionList](h, w, err)
		return
	}
	h.envelope(w, models.OK(result))
}

// getMission reads the L1 artifact of the mission in the path.
func (h *Handler) getMission(ctx context.Context, r *http.Request) (*cacheMission, error) {
	missionID, err := missionIDParam(r)
	if err != nil {
		return nil, errBadMissionID
	}

	snap := h.state.SnapshotMapping()

	mission, err := h.cache.GetMissionRaw(ctx, snap, missionID)
	if err != nil {
		return nil, err
	}

	lookup, err := h.store.LoadLookup(ctx)
	if err != nil {
		return nil, err
	}

	return &cacheMission{mission: mission, lookup: lookup}, nil
}

// GetMissionGeneralInfo handles GET /mission/{missionID}/info
func (h *Handler) GetMissionGeneralInfo(w http.ResponseWriter, r *http.Request) {
	missionID, err := missionIDParam(r)
	if err != nil {
		h.envelope(w, models.BadRequest[*logic.MissionGeneralInfo]("invalid mission id"))
		return
	}

	result, err := compute(h, r.Context(), "mission_info", func(ctx context.Context) (*logic.MissionGeneralInfo, error) {
		snap := h.state.SnapshotMapping()
		mission, err := h.cache.GetMissionRaw(ctx, snap, missionID)
		if err != nil {
			return nil, err
		}
		invalidMissions, err := h.store.InvalidMissions(ctx)
		if err != nil {
			return nil, err
		}
		return logic.GenerateMissionGeneralInfo(mission, invalidMissions), nil
	})
	if err != nil {
		fail[*logic.MissionGeneralInfo](h, w, err)
		return
	}
	h.envelope(w, models.OK(result))
}

// GetMissionPlayerCharacter handles GET /mission/{missionID}/basic
func (h *Handler) GetMissionPlayerCharacter(w http.ResponseWriter, r *http.Request) {
	result, err := compute(h, r.Context(), "mission_basic", func(ctx context.Context) (map[string]string, error) {
		data, err := h.getMission(ctx, r)
		if err != nil {
			return nil, err
		}
		return logic.GenerateMissionPlayerCharacter(data.mission,
			data.lookup.PlayerIDToName, data.lookup.CharacterIDToGameID), nil
	})
	if err != nil {
		missionFail[map[string]string](h, w, err)
		return
	}
	h.envelope(w, models.OK(result))
}

// GetMissionGeneral handles GET /mission/{missionID}/general
func (h *Handler) GetMissionGeneral(w http.ResponseWriter, r *http.Request) {
	result, err := compute(h, r.Context(), "mission_general", func(ctx context.Context) (*logic.MissionGeneralData, error) {
		data, err := h.getMission(ctx, r)
		if err != nil {
			return nil, err
		}
		return logic.GenerateMissionGeneral(data.mission, data.lookup.PlayerIDToName,
			data.lookup.CharacterIDToGameID, data.lookup.MissionTypeIDToGameID), nil
	})
	if err != nil {
		missionFail[*logic.MissionGeneralData](h, w, err)
		return
	}
	h.envelope(w, models.OK(result))
}

// GetMissionDamage handles GET /mission/{missionID}/damage
func (h *Handler) GetMissionDamage(w http.ResponseWriter, r *http.Request) {
	entityMapping := h.state.Mapping().EntityMapping

	result, err := compute(h, r.Context(), "mission_damage", func(ctx context.Context) (*logic.MissionDamageInfo, error) {
		data, err := h.getMission(ctx, r)
		if err != nil {
			return nil, err
		}
		return logic.GenerateMissionDamage(data.mission, data.lookup.PlayerIDToName, entityMapping), nil
	})
	if err != nil {
		missionFail[*logic.MissionDamageInfo](h, w, err)
		return
	}
	h.envelope(w, models.OK(result))
}

// GetMissionWeaponDamage handles GET /mission/{missionID}/weapon
func (h *Handler) GetMissionWeaponDamage(w http.ResponseWriter, r *http.Request) {
	m := h.state.Mapping()

	result, err := compute(h, r.Context(), "mission_weapon", func(ctx context.Context) (map[string]logic.MissionWeaponDamageInfo, error) {
		data, err := h.getMission(ctx, r)
		if err != nil {
			return nil, err
		}
		return logic.GenerateMissionWeaponDamage(data.mission, m.WeaponCharacter, m.WeaponMapping), nil
	})
	if err != nil {
		missionFail[map[string]logic.MissionWeaponDamageInfo](h, w, err)
		return
	}
	h.envelope(w, models.OK(result))
}

// GetMissionResource handles GET /mission/{missionID}/resource
func (h *Handler) GetMissionResource(w http.ResponseWriter, r *http.Request) {
	resourceMapping := h.state.Mapping().ResourceMapping

	result, err := compute(h, r.Context(), "mission_resource", func(ctx context.Context) (*logic.MissionResourceInfo, error) {
		data, err := h.getMission(ctx, r)
		if err != nil {
			return nil, err
		}
		return logic.GenerateMissionResource(data.mission, data.lookup.PlayerIDToName, resourceMapping), nil
	})
	if err != nil {
		missionFail[*logic.MissionResourceInfo](h, w, err)
		return
	}
	h.envelope(w, models.OK(result))
}

// GetMissionKPI handles GET /mission/{missionID}/kpi
func (h *Handler) GetMissionKPI(w http.ResponseWriter, r *http.Request) {
	missionID, err := missionIDParam(r)
	if err != nil {
		h.envelope(w, models.BadRequest[[]logic.MissionKPIInfo]("invalid mission id"))
		return
	}

	result, err := compute(h, r.Context(), "mission_kpi", func(ctx context.Context) ([]logic.MissionKPIInfo, error) {
		kpiConfig, ok := h.state.KPIConfig()
		if !ok {
			return nil, models.ErrConfigRequired
		}
		snap := h.state.SnapshotMapping()

		missionKPI, err := h.cache.GetMissionKPIRaw(ctx, snap, kpiConfig, missionID)
		if err != nil {
			return nil, err
		}

		invalidMissionIDs, err := h.store.InvalidMissionIDs(ctx)
		if err != nil {
			return nil, err
		}

		globalState, err := h.cache.GetGlobalKPIState(ctx, snap, kpiConfig, invalidMissionIDs)
		if err != nil {
			return nil, err
		}

		lookup, err := h.store.LoadLookup(ctx)
		if err != nil {
			return nil, err
		}

		return logic.GenerateMissionKPI(missionKPI, lookup.PlayerIDToName, globalState, kpiConfig)
	})
	if err != nil {
		missionFail[[]logic.MissionKPIInfo](h, w, err)
		return
	}
	h.envelope(w, models.OK(result))
}
