package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/kpi"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/mapping"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/models"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/store"
)

// PlayerRawKPIData is one player's raw standing on one KPI component within a
// mission.
type PlayerRawKPIData struct {
	SourceValue               float64 `msgpack:"source_value" json:"sourceValue"`
	WeightedValue             float64 `msgpack:"weighted_value" json:"weightedValue"`
	MissionTotalWeightedValue float64 `msgpack:"mission_total_weighted_value" json:"missionTotalWeightedValue"`
	RawIndex                  float64 `msgpack:"raw_index" json:"rawIndex"`
}

// MissionKPICachedInfo is the L2 artifact: the raw KPI component indices of
// one mission, before cross-mission correction and rank transformation.
type MissionKPICachedInfo struct {
	MissionID int32 `msgpack:"mission_id"`
	// DamageMap excludes friendly fire; keys are taker game ids.
	DamageMap   map[int16]map[string]float64 `msgpack:"damage_map"`
	KillMap     map[int16]map[string]float64 `msgpack:"kill_map"`
	ResourceMap map[int16]map[string]float64 `msgpack:"resource_map"`
	// Mission-wide totals keyed by taker/entity/resource game id.
	TotalDamageMap   map[string]float64 `msgpack:"total_damage_map"`
	TotalKillMap     map[string]float64 `msgpack:"total_kill_map"`
	TotalResourceMap map[string]float64 `msgpack:"total_resource_map"`

	PlayerIDToKPICharacter map[int16]kpi.CharacterType `msgpack:"player_id_to_kpi_character"`

	RawKPIData map[int16]map[kpi.Component]PlayerRawKPIData `msgpack:"raw_kpi_data"`
}

// indexOrZero divides weighted by total, treating near-zero totals as zero.
func indexOrZero(weighted, total float64) float64 {
	if total < kpi.FloatEpsilon {
		return 0.0
	}
	return weighted / total
}

// BuildMissionKPIRaw derives the L2 artifact from a mission's L1 artifact and
// the KPI config.
func BuildMissionKPIRaw(
	missionInfo *MissionCachedInfo,
	lookup *store.Lookup,
	scoutSpecialPlayerSet map[string]struct{},
	kpiConfig kpi.Config,
) (*MissionKPICachedInfo, error) {
	damageMap := make(map[int16]map[string]float64, len(missionInfo.DamageInfo))
	for playerID, playerData := range missionInfo.DamageInfo {
		playerDamage := make(map[string]float64, len(playerData))
		for takerGameID, pack := range playerData {
			if pack.TakerKind == models.DamageKindPlayer {
				continue
			}
			playerDamage[takerGameID] = pack.TotalAmount
		}
		damageMap[playerID] = playerDamage
	}

	killMap := make(map[int16]map[string]float64, len(missionInfo.KillInfo))
	for playerID, playerData := range missionInfo.KillInfo {
		playerKill := make(map[string]float64, len(playerData))
		for entityGameID, pack := range playerData {
			playerKill[entityGameID] = float64(pack.TotalAmount)
		}
		killMap[playerID] = playerKill
	}

	resourceMap := missionInfo.ResourceInfo

	totalDamageMap := make(map[string]float64)
	totalKillMap := make(map[string]float64)
	totalResourceMap := make(map[string]float64)

	for _, playerData := range damageMap {
		for takerGameID, amount := range playerData {
			totalDamageMap[takerGameID] += amount
		}
	}
	for _, playerData := range killMap {
		for entityGameID, amount := range playerData {
			totalKillMap[entityGameID] += amount
		}
	}
	for _, playerData := range resourceMap {
		for resourceGameID, amount := range playerData {
			totalResourceMap[resourceGameID] += amount
		}
	}

	totalWeightedResource := kpi.SumWeighted(totalResourceMap, kpiConfig.ResourceWeightTable)

	totalReviveCount := 0.0
	totalDeathCount := 0.0
	for _, info := range missionInfo.PlayerInfo {
		totalReviveCount += float64(info.ReviveNum)
		totalDeathCount += float64(info.DeathNum)
	}

	totalSupplyCount := 0.0
	for _, supplies := range missionInfo.SupplyInfo {
		totalSupplyCount += float64(len(supplies))
	}

	playerIDToKPICharacter := make(map[int16]kpi.CharacterType, len(missionInfo.PlayerInfo))
	rawKPIData := make(map[int16]map[kpi.Component]PlayerRawKPIData, len(missionInfo.PlayerInfo))

	for _, playerInfo := range missionInfo.PlayerInfo {
		playerName, ok := lookup.PlayerIDToName[playerInfo.PlayerID]
		if !ok {
			return nil, fmt.Errorf("mission %d references unknown player %d", missionInfo.MissionInfo.ID, playerInfo.PlayerID)
		}
		characterGameID, ok := lookup.CharacterIDToGameID[playerInfo.CharacterID]
		if !ok {
			return nil, fmt.Errorf("mission %d references unknown character %d", missionInfo.MissionInfo.ID, playerInfo.CharacterID)
		}

		characterType, err := kpi.CharacterTypeFromPlayer(characterGameID, playerName, scoutSpecialPlayerSet)
		if err != nil {
			return nil, err
		}
		playerIDToKPICharacter[playerInfo.PlayerID] = characterType

		characterWeightTable := kpiConfig.CharacterWeightTable[characterType]

		playerDamage := damageMap[playerInfo.PlayerID]
		playerKill := killMap[playerInfo.PlayerID]
		playerResource := resourceMap[playerInfo.PlayerID]

		// Kill
		sourceKill := sumValues(playerKill)
		weightedKill := kpi.SumWeighted(playerKill, characterWeightTable)
		missionTotalWeightedKill := kpi.SumWeighted(totalKillMap, characterWeightTable)

		// Damage
		sourceDamage := sumValues(playerDamage)
		weightedDamage := kpi.SumWeighted(playerDamage, characterWeightTable)
		missionTotalWeightedDamage := kpi.SumWeighted(totalDamageMap, characterWeightTable)

		// Priority
		priorityDamage := kpi.SumPriority(playerDamage, kpiConfig.PriorityTable)
		missionTotalPriorityDamage := kpi.SumPriority(totalDamageMap, kpiConfig.PriorityTable)

		// Revive / Death
		reviveCount := float64(playerInfo.ReviveNum)
		deathCount := float64(playerInfo.DeathNum)

		// FriendlyFire: damage dealt to other players.
		friendlyFire := 0.0
		for _, pack := range missionInfo.DamageInfo[playerInfo.PlayerID] {
			if pack.TakerKind == models.DamageKindPlayer && pack.TakerID != playerInfo.PlayerID {
				friendlyFire += pack.TotalAmount
			}
		}

		overallDamage := sourceDamage + friendlyFire
		ffIndex := 1.0
		if overallDamage >= kpi.FloatEpsilon {
			ffIndex = kpi.FriendlyFireIndex(friendlyFire / overallDamage)
		}

		// Nitra
		playerNitra := playerResource[kpi.NitraGameID]
		totalNitra := totalResourceMap[kpi.NitraGameID]

		// Minerals
		sourceMinerals := sumValues(playerResource)
		weightedMinerals := kpi.SumWeighted(playerResource, kpiConfig.ResourceWeightTable)

		// Supply
		supplyCount := float64(len(missionInfo.SupplyInfo[playerInfo.PlayerID]))

		playerData := map[kpi.Component]PlayerRawKPIData{
			kpi.ComponentKill: {
				SourceValue:               sourceKill,
				WeightedValue:             weightedKill,
				MissionTotalWeightedValue: missionTotalWeightedKill,
				RawIndex:                  indexOrZero(weightedKill, missionTotalWeightedKill),
			},
			kpi.ComponentDamage: {
				SourceValue:               sourceDamage,
				WeightedValue:             weightedDamage,
				MissionTotalWeightedValue: missionTotalWeightedDamage,
				RawIndex:                  indexOrZero(weightedDamage, missionTotalWeightedDamage),
			},
			kpi.ComponentPriority: {
				SourceValue:               sourceDamage,
				WeightedValue:             priorityDamage,
				MissionTotalWeightedValue: missionTotalPriorityDamage,
				RawIndex:                  indexOrZero(priorityDamage, missionTotalPriorityDamage),
			},
			kpi.ComponentRevive: {
				SourceValue:               reviveCount,
				WeightedValue:             reviveCount,
				MissionTotalWeightedValue: totalReviveCount,
				// A mission without a single revive counts as a full score
				// for everyone.
				RawIndex: reviveIndex(reviveCount, totalReviveCount),
			},
			kpi.ComponentDeath: {
				SourceValue:               deathCount,
				WeightedValue:             deathCount,
				MissionTotalWeightedValue: totalDeathCount,
				RawIndex:                  -indexOrZero(deathCount, totalDeathCount),
			},
			kpi.ComponentFriendlyFire: {
				SourceValue:               friendlyFire,
				WeightedValue:             ffIndex,
				MissionTotalWeightedValue: 0.0,
				RawIndex:                  ffIndex,
			},
			kpi.ComponentNitra: {
				SourceValue:               playerNitra,
				WeightedValue:             playerNitra,
				MissionTotalWeightedValue: totalNitra,
				RawIndex:                  indexOrZero(playerNitra, totalNitra),
			},
			kpi.ComponentSupply: {
				SourceValue:               supplyCount,
				WeightedValue:             supplyCount,
				MissionTotalWeightedValue: totalSupplyCount,
				RawIndex:                  -indexOrZero(supplyCount, totalSupplyCount),
			},
			kpi.ComponentMinerals: {
				SourceValue:               sourceMinerals,
				WeightedValue:             weightedMinerals,
				MissionTotalWeightedValue: totalWeightedResource,
				RawIndex:                  indexOrZero(weightedMinerals, totalWeightedResource),
			},
		}

		rawKPIData[playerInfo.PlayerID] = playerData
	}

	return &MissionKPICachedInfo{
		MissionID:              missionInfo.MissionInfo.ID,
		DamageMap:              damageMap,
		KillMap:                killMap,
		ResourceMap:            resourceMap,
		TotalDamageMap:         totalDamageMap,
		TotalKillMap:           totalKillMap,
		TotalResourceMap:       totalResourceMap,
		PlayerIDToKPICharacter: playerIDToKPICharacter,
		RawKPIData:             rawKPIData,
	}, nil
}

func sumValues(m map[string]float64) float64 {
	total := 0.0
	for _, v := range m {
		total += v
	}
	return total
}

func reviveIndex(revives, totalRevives float64) float64 {
	if totalRevives < kpi.FloatEpsilon {
		return 1.0
	}
	return revives / totalRevives
}

// GetMissionKPIRaw is the read-through L2 getter for one mission. A missing
// L1 dependency is populated transitively.
func (m *Manager) GetMissionKPIRaw(
	ctx context.Context,
	snap mapping.Snapshot,
	kpiConfig kpi.Config,
	missionID int32,
) (*MissionKPICachedInfo, error) {
	return getOrBuild(ctx, m, "mission_kpi_raw", missionKPIRawKey(missionID), func() (*MissionKPICachedInfo, error) {
		missionInfo, err := m.GetMissionRaw(ctx, snap, missionID)
		if err != nil {
			return nil, err
		}
		lookup, err := m.store.LoadLookup(ctx)
		if err != nil {
			return nil, err
		}
		return BuildMissionKPIRaw(missionInfo, lookup, snap.ScoutSpecialPlayerSet, kpiConfig)
	})
}

// GetAllMissionKPIRaw returns the L2 artifact for every mission.
func (m *Manager) GetAllMissionKPIRaw(
	ctx context.Context,
	snap mapping.Snapshot,
	kpiConfig kpi.Config,
) ([]*MissionKPICachedInfo, error) {
	missionList, err := m.GetAllMissionRaw(ctx, snap)
	if err != nil {
		return nil, err
	}

	var lookup *store.Lookup

	result := make([]*MissionKPICachedInfo, 0, len(missionList))
	for _, missionInfo := range missionList {
		missionInfo := missionInfo
		cached, err := getOrBuild(ctx, m, "mission_kpi_raw", missionKPIRawKey(missionInfo.MissionInfo.ID), func() (*MissionKPICachedInfo, error) {
			if lookup == nil {
				if lookup, err = m.store.LoadLookup(ctx); err != nil {
					return nil, err
				}
			}
			return BuildMissionKPIRaw(missionInfo, lookup, snap.ScoutSpecialPlayerSet, kpiConfig)
		})
		if err != nil {
			return nil, err
		}
		result = append(result, cached)
	}

	return result, nil
}

// RebuildAllMissionKPIRaw recomputes every L2 artifact from the current L1
// layer, overwrites the cache and asks the key-value store to flush.
func (m *Manager) RebuildAllMissionKPIRaw(
	ctx context.Context,
	snap mapping.Snapshot,
	kpiConfig kpi.Config,
) (time.Duration, error) {
	begin := time.Now()

	missionList, err := m.GetAllMissionRaw(ctx, snap)
	if err != nil {
		return 0, err
	}

	lookup, err := m.store.LoadLookup(ctx)
	if err != nil {
		return 0, err
	}

	for _, missionInfo := range missionList {
		cached, err := BuildMissionKPIRaw(missionInfo, lookup, snap.ScoutSpecialPlayerSet, kpiConfig)
		if err != nil {
			return 0, err
		}

		serialized, err := encode(cached)
		if err != nil {
			return 0, fmt.Errorf("cannot encode mission kpi %d: %w", cached.MissionID, err)
		}
		if err := m.kv.Set(ctx, missionKPIRawKey(cached.MissionID), serialized); err != nil {
			return 0, fmt.Errorf("cannot write mission kpi %d to cache store: %w", cached.MissionID, err)
		}
	}

	if err := m.kv.Save(ctx); err != nil {
		m.logger.Warnw("cache store flush failed", "error", err)
	}

	elapsed := time.Since(begin)
	m.logger.Infow("rebuilt mission kpi raw cache", "missions", len(missionList), "elapsed", elapsed)
	return elapsed, nil
}
