package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/mapping"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/models"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/store"
)

// MissionCachedInfo is the L1 artifact: one mission's event rows aggregated
// into per-player and per-weapon statistics with entity/weapon synonyms
// combined and blacklisted takers dropped.
type MissionCachedInfo struct {
	MissionInfo models.Mission      `msgpack:"mission_info"`
	PlayerInfo  []models.PlayerInfo `msgpack:"player_info"`
	// PlayerIndex is present_time / mission_time per player.
	PlayerIndex map[int16]float64 `msgpack:"player_index"`
	// KillInfo: player id -> combined entity game id -> kills.
	KillInfo map[int16]map[string]models.KillPack `msgpack:"kill_info"`
	// DamageInfo: causer player id -> taker key -> damage. The taker key is
	// the taker's player name when the taker is a player, else the combined
	// entity game id.
	DamageInfo map[int16]map[string]models.DamagePack `msgpack:"damage_info"`
	// WeaponDamageInfo: combined weapon game id -> damage detail across all
	// player causers, friendly fire included.
	WeaponDamageInfo map[string]models.WeaponPack `msgpack:"weapon_damage_info"`
	// ResourceInfo: player id -> resource game id -> amount.
	ResourceInfo map[int16]map[string]float64 `msgpack:"resource_info"`
	ReviveCount  map[int16]int16              `msgpack:"revive_count"`
	DeathCount   map[int16]int16              `msgpack:"death_count"`
	SupplyInfo   map[int16][]models.SupplyPack `msgpack:"supply_info"`
}

// BuildMissionRaw aggregates one mission's raw rows into the L1 artifact.
func BuildMissionRaw(
	missionInfo models.Mission,
	events *store.MissionEvents,
	snap mapping.Snapshot,
	lookup *store.Lookup,
) (*MissionCachedInfo, error) {
	playerIndex := make(map[int16]float64, len(events.PlayerInfo))
	reviveCount := make(map[int16]int16, len(events.PlayerInfo))
	deathCount := make(map[int16]int16, len(events.PlayerInfo))

	for _, info := range events.PlayerInfo {
		playerIndex[info.PlayerID] = float64(info.PresentTime) / float64(missionInfo.MissionTime)
		reviveCount[info.PlayerID] = info.ReviveNum
		deathCount[info.PlayerID] = info.DeathNum
	}

	killInfo := make(map[int16]map[string]models.KillPack, len(events.PlayerInfo))

	for _, kill := range events.Kill {
		recordEntityGameID, ok := lookup.EntityIDToGameID[kill.EntityID]
		if !ok {
			return nil, fmt.Errorf("kill row %d references unknown entity %d", kill.ID, kill.EntityID)
		}

		killedEntityGameID := recordEntityGameID
		if combined, ok := snap.EntityCombine[recordEntityGameID]; ok {
			killedEntityGameID = combined
		}

		if _, blacklisted := snap.EntityBlacklistSet[killedEntityGameID]; blacklisted {
			continue
		}

		playerKillMap, ok := killInfo[kill.PlayerID]
		if !ok {
			playerKillMap = make(map[string]models.KillPack)
			killInfo[kill.PlayerID] = playerKillMap
		}

		entry, ok := playerKillMap[killedEntityGameID]
		if !ok {
			entry = models.KillPack{
				TakerID:   kill.EntityID,
				TakerName: killedEntityGameID,
			}
		}
		entry.TotalAmount++
		playerKillMap[killedEntityGameID] = entry
	}

	weaponGameIDToID := make(map[string]int16, len(lookup.WeaponIDToGameID))
	for id, gameID := range lookup.WeaponIDToGameID {
		weaponGameIDToID[gameID] = id
	}

	damageInfo := make(map[int16]map[string]models.DamagePack, len(events.PlayerInfo))
	weaponDetails := make(map[string]map[string]models.DamagePack)

	for _, damage := range events.Damage {
		if damage.CauserKind != models.DamageKindPlayer {
			continue
		}

		var takerGameID string
		takerKind := damage.TakerKind
		if damage.TakerKind == models.DamageKindPlayer {
			name, ok := lookup.PlayerIDToName[damage.TakerID]
			if !ok {
				return nil, fmt.Errorf("damage row %d references unknown player %d", damage.ID, damage.TakerID)
			}
			takerGameID = name
		} else {
			recordEntityGameID, ok := lookup.EntityIDToGameID[damage.TakerID]
			if !ok {
				return nil, fmt.Errorf("damage row %d references unknown entity %d", damage.ID, damage.TakerID)
			}

			takerGameID = recordEntityGameID
			if combined, ok := snap.EntityCombine[recordEntityGameID]; ok {
				takerGameID = combined
			}

			if _, blacklisted := snap.EntityBlacklistSet[takerGameID]; blacklisted {
				continue
			}
		}

		playerDamageMap, ok := damageInfo[damage.CauserID]
		if !ok {
			playerDamageMap = make(map[string]models.DamagePack)
			damageInfo[damage.CauserID] = playerDamageMap
		}

		entry, ok := playerDamageMap[takerGameID]
		if !ok {
			entry = models.DamagePack{
				TakerID:   damage.TakerID,
				TakerKind: takerKind,
				WeaponID:  damage.WeaponID,
			}
		}
		entry.TotalAmount += damage.Damage
		playerDamageMap[takerGameID] = entry

		recordWeaponGameID, ok := lookup.WeaponIDToGameID[damage.WeaponID]
		if !ok {
			return nil, fmt.Errorf("damage row %d references unknown weapon %d", damage.ID, damage.WeaponID)
		}

		weaponGameID := recordWeaponGameID
		if combined, ok := snap.WeaponCombine[recordWeaponGameID]; ok {
			weaponGameID = combined
		}

		detailMap, ok := weaponDetails[weaponGameID]
		if !ok {
			detailMap = make(map[string]models.DamagePack)
			weaponDetails[weaponGameID] = detailMap
		}

		detailEntry, ok := detailMap[takerGameID]
		if !ok {
			detailEntry = models.DamagePack{
				TakerID:   damage.TakerID,
				TakerKind: takerKind,
				WeaponID:  damage.WeaponID,
			}
		}
		detailEntry.TotalAmount += damage.Damage
		detailMap[takerGameID] = detailEntry
	}

	weaponDamageInfo := make(map[string]models.WeaponPack, len(weaponDetails))
	for weaponGameID, detail := range weaponDetails {
		totalDamage := 0.0
		weaponID, haveID := weaponGameIDToID[weaponGameID]
		for _, pack := range detail {
			totalDamage += pack.TotalAmount
			if !haveID {
				// Combined game ids that are not weapons themselves keep the
				// id of a contributing weapon.
				weaponID = pack.WeaponID
				haveID = true
			}
		}
		weaponDamageInfo[weaponGameID] = models.WeaponPack{
			WeaponID:    weaponID,
			TotalAmount: totalDamage,
			Detail:      detail,
		}
	}

	resourceInfo := make(map[int16]map[string]float64, len(events.PlayerInfo))
	for _, resource := range events.Resource {
		resourceGameID, ok := lookup.ResourceIDToGameID[resource.ResourceID]
		if !ok {
			return nil, fmt.Errorf("resource row %d references unknown resource %d", resource.ID, resource.ResourceID)
		}

		playerResourceMap, ok := resourceInfo[resource.PlayerID]
		if !ok {
			playerResourceMap = make(map[string]float64)
			resourceInfo[resource.PlayerID] = playerResourceMap
		}
		playerResourceMap[resourceGameID] += resource.Amount
	}

	supplyInfo := make(map[int16][]models.SupplyPack, len(events.PlayerInfo))
	for _, supply := range events.Supply {
		supplyInfo[supply.PlayerID] = append(supplyInfo[supply.PlayerID], models.SupplyPack{
			Ammo:   supply.Ammo,
			Health: supply.Health,
		})
	}

	return &MissionCachedInfo{
		MissionInfo:      missionInfo,
		PlayerInfo:       events.PlayerInfo,
		PlayerIndex:      playerIndex,
		KillInfo:         killInfo,
		DamageInfo:       damageInfo,
		WeaponDamageInfo: weaponDamageInfo,
		ResourceInfo:     resourceInfo,
		ReviveCount:      reviveCount,
		DeathCount:       deathCount,
		SupplyInfo:       supplyInfo,
	}, nil
}

// missionRawFromDB builds the L1 artifact for one mission straight from the
// relational store.
func (m *Manager) missionRawFromDB(ctx context.Context, snap mapping.Snapshot, lookup *store.Lookup, missionID int32) (*MissionCachedInfo, error) {
	missionInfo, err := m.store.Mission(ctx, missionID)
	if err != nil {
		return nil, err
	}

	events, err := m.store.MissionEvents(ctx, missionID)
	if err != nil {
		return nil, err
	}

	return BuildMissionRaw(missionInfo, events, snap, lookup)
}

// GetMissionRaw is the read-through L1 getter for one mission.
func (m *Manager) GetMissionRaw(ctx context.Context, snap mapping.Snapshot, missionID int32) (*MissionCachedInfo, error) {
	return getOrBuild(ctx, m, "mission_raw", missionRawKey(missionID), func() (*MissionCachedInfo, error) {
		lookup, err := m.store.LoadLookup(ctx)
		if err != nil {
			return nil, err
		}
		return m.missionRawFromDB(ctx, snap, lookup, missionID)
	})
}

// GetAllMissionRaw returns the L1 artifact for every mission, populating
// missing entries as it goes.
func (m *Manager) GetAllMissionRaw(ctx context.Context, snap mapping.Snapshot) ([]*MissionCachedInfo, error) {
	missions, err := m.store.Missions(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot load mission list: %w", err)
	}

	var lookup *store.Lookup

	result := make([]*MissionCachedInfo, 0, len(missions))
	for _, mission := range missions {
		missionID := mission.ID
		cached, err := getOrBuild(ctx, m, "mission_raw", missionRawKey(missionID), func() (*MissionCachedInfo, error) {
			if lookup == nil {
				if lookup, err = m.store.LoadLookup(ctx); err != nil {
					return nil, err
				}
			}
			return m.missionRawFromDB(ctx, snap, lookup, missionID)
		})
		if err != nil {
			return nil, err
		}
		result = append(result, cached)
	}

	return result, nil
}

// RebuildAllMissionRaw recomputes every L1 artifact from the relational store,
// overwrites the cache and asks the key-value store to flush.
func (m *Manager) RebuildAllMissionRaw(ctx context.Context, snap mapping.Snapshot) (time.Duration, error) {
	begin := time.Now()

	lookup, err := m.store.LoadLookup(ctx)
	if err != nil {
		return 0, err
	}

	missions, err := m.store.Missions(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot load mission list: %w", err)
	}

	allEvents, err := m.store.AllMissionEvents(ctx)
	if err != nil {
		return 0, err
	}

	empty := &store.MissionEvents{}
	for _, mission := range missions {
		events, ok := allEvents[mission.ID]
		if !ok {
			events = empty
		}

		cached, err := BuildMissionRaw(mission, events, snap, lookup)
		if err != nil {
			return 0, err
		}

		serialized, err := encode(cached)
		if err != nil {
			return 0, fmt.Errorf("cannot encode mission %d: %w", mission.ID, err)
		}
		if err := m.kv.Set(ctx, missionRawKey(mission.ID), serialized); err != nil {
			return 0, fmt.Errorf("cannot write mission %d to cache store: %w", mission.ID, err)
		}
	}

	if err := m.kv.Save(ctx); err != nil {
		m.logger.Warnw("cache store flush failed", "error", err)
	}

	elapsed := time.Since(begin)
	m.logger.Infow("rebuilt mission raw cache", "missions", len(missions), "elapsed", elapsed)
	return elapsed, nil
}
