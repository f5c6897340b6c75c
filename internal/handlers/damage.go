package handlers

import (
	"context"
	"net/http"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/logic"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/models"
)

// APIMapping is the full display mapping export.
type APIMapping struct {
	Character       map[string]string `json:"character"`
	Entity          map[string]string `json:"entity"`
	EntityBlacklist []string          `json:"entityBlacklist"`
	EntityCombine   map[string]string `json:"entityCombine"`
	MissionType     map[string]string `json:"missionType"`
	Resource        map[string]string `json:"resource"`
	Weapon          map[string]string `json:"weapon"`
	WeaponCombine   map[string]string `json:"weaponCombine"`
	WeaponCharacter map[string]string `json:"weaponHero"`
}

// GetMapping handles GET /mapping
func (h *Handler) GetMapping(w http.ResponseWriter, r *http.Request) {
	m := h.state.Mapping()

	blacklist := m.EntityBlacklist
	if blacklist == nil {
		blacklist = []string{}
	}

	h.envelope(w, models.OK(APIMapping{
		Character:       m.CharacterMapping,
		Entity:          m.EntityMapping,
		EntityBlacklist: blacklist,
		EntityCombine:   m.EntityCombine,
		MissionType:     m.MissionTypeMapping,
		Resource:        m.ResourceMapping,
		Weapon:          m.WeaponMapping,
		WeaponCombine:   m.WeaponCombine,
		WeaponCharacter: m.WeaponCharacter,
	}))
}

// GetOverallDamageInfo handles GET /damage/
// @Summary Cross-mission damage summary for watch-listed players
// @Produce json
func (h *Handler) GetOverallDamageInfo(w http.ResponseWriter, r *http.Request) {
	entityMapping := h.state.Mapping().EntityMapping

	result, err := compute(h, r.Context(), "overall_damage", func(ctx context.Context) (logic.OverallDamageInfo, error) {
		snap := h.state.SnapshotMapping()

		missionList, err := h.cache.GetAllMissionRaw(ctx, snap)
		if err != nil {
			return logic.OverallDamageInfo{}, err
		}

		invalidMissionIDs, err := h.store.InvalidMissionIDs(ctx)
		if err != nil {
			return logic.OverallDamageInfo{}, err
		}

		players, err := h.store.Players(ctx)
		if err != nil {
			return logic.OverallDamageInfo{}, err
		}

		playerIDToName := make(map[int16]string, len(players))
		var watchlistPlayerIDs []int16
		for _, player := range players {
			playerIDToName[player.ID] = player.PlayerName
			if player.Friend {
				watchlistPlayerIDs = append(watchlistPlayerIDs, player.ID)
			}
		}

		return logic.GenerateOverallDamageInfo(missionList, invalidMissionIDs,
			watchlistPlayerIDs, playerIDToName, entityMapping), nil
	})
	if err != nil {
		fail[logic.OverallDamageInfo](h, w, err)
		return
	}
	h.envelope(w, models.OK(result))
}

// GetWeaponPreference handles GET /info/weapon_preference
// @Summary Per-character weapon pick rates
// @Produce json
func (h *Handler) GetWeaponPreference(w http.ResponseWriter, r *http.Request) {
	result, err := compute(h, r.Context(), "weapon_preference", func(ctx context.Context) (logic.WeaponPreferenceResponse, error) {
		snap := h.state.SnapshotMapping()

		missionList, err := h.cache.GetAllMissionRaw(ctx, snap)
		if err != nil {
			return nil, err
		}

		invalidMissionIDs, err := h.store.InvalidMissionIDs(ctx)
		if err != nil {
			return nil, err
		}

		lookup, err := h.store.LoadLookup(ctx)
		if err != nil {
			return nil, err
		}

		return logic.GenerateWeaponPreference(missionList, invalidMissionIDs,
			lookup.CharacterIDToGameID, lookup.WeaponIDToGameID), nil
	})
	if err != nil {
		fail[logic.WeaponPreferenceResponse](h, w, err)
		return
	}
	h.envelope(w, models.OK(result))
}
