package cache

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/kpi"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/mapping"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/models"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/store"
)

// CorrectionFactorInfo is one role's baseline on one correction component.
type CorrectionFactorInfo struct {
	// PlayerIndex is the role's summed player index across all valid
	// missions.
	PlayerIndex float64 `msgpack:"player_index" json:"playerIndex"`
	// Value is the role's raw total per unit player index.
	Value float64 `msgpack:"value" json:"value"`
	// CorrectionFactor is Value divided by the minimum Value across all
	// observed roles; 0 when that minimum is zero.
	CorrectionFactor float64 `msgpack:"correction_factor" json:"correctionFactor"`
}

// GlobalKPIState is the L3 artifact: the cross-mission correction factors and
// the observed rank-to-value transform tables.
type GlobalKPIState struct {
	CharacterCorrectionFactor map[kpi.CharacterType]map[kpi.Component]CorrectionFactorInfo `msgpack:"character_correction_factor"`
	// StandardCorrectionSum sums the correction factors of the four standard
	// roles per component; roles never observed contribute nothing.
	StandardCorrectionSum map[kpi.Component]float64 `msgpack:"standard_correction_sum"`

	TransformRange map[kpi.CharacterType]map[kpi.Component][]kpi.IndexTransformRange `msgpack:"transform_range"`
}

// characterMissionSample is one player's per-mission raw totals feeding the
// role baselines.
type characterMissionSample struct {
	playerIndex float64
	damage      float64
	priority    float64
	kill        float64
	nitra       float64
	resource    float64
}

// BuildGlobalKPIState derives the L3 artifact from every mission's L1 and L2
// artifacts. Missions in the invalid set are skipped entirely; player samples
// with a player index below kpi.MinPlayerIndex stay out of the rank
// distribution.
func BuildGlobalKPIState(
	cachedMissionList []*MissionCachedInfo,
	cachedMissionKPIList []*MissionKPICachedInfo,
	invalidMissionIDs []int32,
	kpiConfig kpi.Config,
	lookup *store.Lookup,
	scoutSpecialPlayerSet map[string]struct{},
) (*GlobalKPIState, error) {
	missionKPIByID := make(map[int32]*MissionKPICachedInfo, len(cachedMissionKPIList))
	for _, item := range cachedMissionKPIList {
		missionKPIByID[item.MissionID] = item
	}

	invalidMissionIDSet := make(map[int32]struct{}, len(invalidMissionIDs))
	for _, id := range invalidMissionIDs {
		invalidMissionIDSet[id] = struct{}{}
	}

	validMissionList := make([]*MissionCachedInfo, 0, len(cachedMissionList))
	for _, mission := range cachedMissionList {
		if _, invalid := invalidMissionIDSet[mission.MissionInfo.ID]; !invalid {
			validMissionList = append(validMissionList, mission)
		}
	}

	if len(validMissionList) == 0 {
		return &GlobalKPIState{
			CharacterCorrectionFactor: map[kpi.CharacterType]map[kpi.Component]CorrectionFactorInfo{},
			StandardCorrectionSum:     map[kpi.Component]float64{},
			TransformRange:            map[kpi.CharacterType]map[kpi.Component][]kpi.IndexTransformRange{},
		}, nil
	}

	characterOf := func(mission *MissionCachedInfo, playerID, characterID int16) (kpi.CharacterType, error) {
		playerName, ok := lookup.PlayerIDToName[playerID]
		if !ok {
			return 0, fmt.Errorf("mission %d references unknown player %d", mission.MissionInfo.ID, playerID)
		}
		characterGameID, ok := lookup.CharacterIDToGameID[characterID]
		if !ok {
			return 0, fmt.Errorf("mission %d references unknown character %d", mission.MissionInfo.ID, characterID)
		}
		return kpi.CharacterTypeFromPlayer(characterGameID, playerName, scoutSpecialPlayerSet)
	}

	// Step 1: collect per-role raw totals across every valid mission.
	characterSamples := make(map[kpi.CharacterType][]characterMissionSample)

	for _, mission := range validMissionList {
		for _, playerInfo := range mission.PlayerInfo {
			characterType, err := characterOf(mission, playerInfo.PlayerID, playerInfo.CharacterID)
			if err != nil {
				return nil, err
			}

			playerKill := 0.0
			for _, pack := range mission.KillInfo[playerInfo.PlayerID] {
				playerKill += float64(pack.TotalAmount)
			}

			playerDamageMap := make(map[string]float64)
			for takerGameID, pack := range mission.DamageInfo[playerInfo.PlayerID] {
				if pack.TakerKind == models.DamageKindPlayer {
					continue
				}
				playerDamageMap[takerGameID] = pack.TotalAmount
			}

			playerPriorityDamage := kpi.SumPriority(playerDamageMap, kpiConfig.PriorityTable)
			playerDamage := sumValues(playerDamageMap)

			playerNitra := mission.ResourceInfo[playerInfo.PlayerID][kpi.NitraGameID]
			playerResource := sumValues(mission.ResourceInfo[playerInfo.PlayerID])

			characterSamples[characterType] = append(characterSamples[characterType], characterMissionSample{
				playerIndex: mission.PlayerIndex[playerInfo.PlayerID],
				damage:      playerDamage,
				priority:    playerPriorityDamage,
				kill:        playerKill,
				nitra:       playerNitra,
				resource:    playerResource,
			})
		}
	}

	characterCorrectionFactor := make(map[kpi.CharacterType]map[kpi.Component]CorrectionFactorInfo, len(characterSamples))

	for characterType, samples := range characterSamples {
		playerIndexSum := 0.0
		var damage, priority, kill, nitra, resource float64
		for _, sample := range samples {
			playerIndexSum += sample.playerIndex
			damage += sample.damage
			priority += sample.priority
			kill += sample.kill
			nitra += sample.nitra
			resource += sample.resource
		}

		characterCorrectionFactor[characterType] = map[kpi.Component]CorrectionFactorInfo{
			kpi.ComponentDamage:   {PlayerIndex: playerIndexSum, Value: damage / playerIndexSum},
			kpi.ComponentPriority: {PlayerIndex: playerIndexSum, Value: priority / playerIndexSum},
			kpi.ComponentKill:     {PlayerIndex: playerIndexSum, Value: kill / playerIndexSum},
			kpi.ComponentNitra:    {PlayerIndex: playerIndexSum, Value: nitra / playerIndexSum},
			kpi.ComponentMinerals: {PlayerIndex: playerIndexSum, Value: resource / playerIndexSum},
		}
	}

	// Step 2: correction factor = value / min value over every observed role,
	// ScoutSpecial included. A zero minimum falls back to factor 0.
	for _, component := range kpi.CorrectionComponents {
		minValue := 0.0
		first := true
		for _, correctionInfo := range characterCorrectionFactor {
			value := correctionInfo[component].Value
			if first || value < minValue {
				minValue = value
				first = false
			}
		}

		for _, correctionInfo := range characterCorrectionFactor {
			info := correctionInfo[component]
			if minValue < kpi.FloatEpsilon {
				info.CorrectionFactor = 0.0
			} else {
				info.CorrectionFactor = info.Value / minValue
			}
			correctionInfo[component] = info
		}
	}

	// Step 3: standard correction sum over the four standard roles only.
	standardCorrectionSum := make(map[kpi.Component]float64, len(kpi.CorrectionComponents))
	for _, component := range kpi.CorrectionComponents {
		sum := 0.0
		for _, characterType := range kpi.StandardCharacterTypes {
			if correctionInfo, ok := characterCorrectionFactor[characterType]; ok {
				sum += correctionInfo[component].CorrectionFactor
			}
		}
		standardCorrectionSum[component] = sum
	}

	// Step 4: per (role, player, component) corrected-index samples.
	type indexSample struct {
		playerIndex    float64
		correctedIndex float64
	}
	sampleLists := make(map[kpi.CharacterType]map[int16]map[kpi.Component][]indexSample)

	for _, mission := range validMissionList {
		missionKPI, ok := missionKPIByID[mission.MissionInfo.ID]
		if !ok {
			return nil, fmt.Errorf("missing mission kpi artifact for mission %d", mission.MissionInfo.ID)
		}

		missionCorrectionSum := make(map[kpi.Component]float64, len(kpi.CorrectionComponents))
		for _, playerInfo := range mission.PlayerInfo {
			characterType, err := characterOf(mission, playerInfo.PlayerID, playerInfo.CharacterID)
			if err != nil {
				return nil, err
			}
			for component, info := range characterCorrectionFactor[characterType] {
				missionCorrectionSum[component] += info.CorrectionFactor
			}
		}

		for _, playerInfo := range mission.PlayerInfo {
			playerIndex := mission.PlayerIndex[playerInfo.PlayerID]
			if playerIndex < kpi.MinPlayerIndex {
				continue
			}

			characterType, err := characterOf(mission, playerInfo.PlayerID, playerInfo.CharacterID)
			if err != nil {
				return nil, err
			}

			playerRawKPIData, ok := missionKPI.RawKPIData[playerInfo.PlayerID]
			if !ok {
				return nil, fmt.Errorf("mission %d kpi artifact misses player %d", mission.MissionInfo.ID, playerInfo.PlayerID)
			}

			for _, component := range kpi.CorrectionComponents {
				standardSum := standardCorrectionSum[component]
				if standardSum < kpi.FloatEpsilon {
					continue
				}
				correctedIndex := playerRawKPIData[component].RawIndex *
					missionCorrectionSum[component] / standardSum

				byPlayer, ok := sampleLists[characterType]
				if !ok {
					byPlayer = make(map[int16]map[kpi.Component][]indexSample)
					sampleLists[characterType] = byPlayer
				}
				byComponent, ok := byPlayer[playerInfo.PlayerID]
				if !ok {
					byComponent = make(map[kpi.Component][]indexSample)
					byPlayer[playerInfo.PlayerID] = byComponent
				}
				byComponent[component] = append(byComponent[component], indexSample{
					playerIndex:    playerIndex,
					correctedIndex: correctedIndex,
				})
			}
		}
	}

	// One player-weighted mean corrected index per (role, player, component),
	// then sort the per-(role, component) lists ascending.
	sourceDistribution := make(map[kpi.CharacterType]map[kpi.Component][]float64, len(sampleLists))
	for characterType, byPlayer := range sampleLists {
		for _, byComponent := range byPlayer {
			for component, samples := range byComponent {
				playerIndexSum := 0.0
				weightedSum := 0.0
				for _, sample := range samples {
					playerIndexSum += sample.playerIndex
					weightedSum += sample.playerIndex * sample.correctedIndex
				}

				byComponentDist, ok := sourceDistribution[characterType]
				if !ok {
					byComponentDist = make(map[kpi.Component][]float64)
					sourceDistribution[characterType] = byComponentDist
				}
				byComponentDist[component] = append(byComponentDist[component], weightedSum/playerIndexSum)
			}
		}
	}

	for _, byComponent := range sourceDistribution {
		for _, indexList := range byComponent {
			sort.Float64s(indexList)
		}
	}

	// Step 5: bind the configured rank segments to the observed distribution.
	transformRange := make(map[kpi.CharacterType]map[kpi.Component][]kpi.IndexTransformRange, len(sourceDistribution))

	for characterType, byComponent := range sourceDistribution {
		for _, component := range kpi.TransformComponents {
			byComponentRange, ok := transformRange[characterType]
			if !ok {
				byComponentRange = make(map[kpi.Component][]kpi.IndexTransformRange)
				transformRange[characterType] = byComponentRange
			}
			byComponentRange[component] = deriveTransformRanges(byComponent[component], kpiConfig.TransformRange)
		}
	}

	return &GlobalKPIState{
		CharacterCorrectionFactor: characterCorrectionFactor,
		StandardCorrectionSum:     standardCorrectionSum,
		TransformRange:            transformRange,
	}, nil
}

// deriveTransformRanges binds the configured rank segments to an ascending
// corrected-index distribution. Rank breakpoints index the sorted list via
// floor(N·r); index 0 snaps the lower bound to 0.0 and an index at or past
// the end snaps the upper bound to 1.0. A zero-width source interval gets the
// midpoint slope through the origin.
func deriveTransformRanges(indexList []float64, rangeConfigs []kpi.TransformRangeConfig) []kpi.IndexTransformRange {
	n := len(indexList)
	result := make([]kpi.IndexTransformRange, 0, len(rangeConfigs))

	for _, rangeConfig := range rangeConfigs {
		beginIndex := int(float64(n) * rangeConfig.RankRange[0])
		endIndex := int(float64(n) * rangeConfig.RankRange[1])

		sourceMin := 0.0
		if beginIndex != 0 {
			sourceMin = indexList[beginIndex]
		}
		sourceMax := 1.0
		if endIndex < n {
			sourceMax = indexList[endIndex]
		}

		transformMin := rangeConfig.TransformRange[0]
		transformMax := rangeConfig.TransformRange[1]

		var a, b float64
		if sourceMax-sourceMin == 0.0 {
			a = (transformMax + transformMin) / (2.0 * sourceMin)
			b = 0.0
		} else {
			a = (transformMax - transformMin) / (sourceMax - sourceMin)
			b = transformMin - a*sourceMin
		}

		result = append(result, kpi.IndexTransformRange{
			RankRange:            rangeConfig.RankRange,
			SourceRange:          [2]float64{sourceMin, sourceMax},
			TransformRange:       rangeConfig.TransformRange,
			TransformCoefficient: [2]float64{a, b},
			PlayerCount:          int32(endIndex - beginIndex),
		})
	}

	return result
}

// buildGlobalFromCaches loads L1 and L2 for every mission and generates L3.
func (m *Manager) buildGlobalFromCaches(
	ctx context.Context,
	snap mapping.Snapshot,
	kpiConfig kpi.Config,
	invalidMissionIDs []int32,
) (*GlobalKPIState, error) {
	cachedMissionList, err := m.GetAllMissionRaw(ctx, snap)
	if err != nil {
		return nil, err
	}

	cachedMissionKPIList, err := m.GetAllMissionKPIRaw(ctx, snap, kpiConfig)
	if err != nil {
		return nil, err
	}

	lookup, err := m.store.LoadLookup(ctx)
	if err != nil {
		return nil, err
	}

	return BuildGlobalKPIState(cachedMissionList, cachedMissionKPIList, invalidMissionIDs,
		kpiConfig, lookup, snap.ScoutSpecialPlayerSet)
}

// GetGlobalKPIState is the read-through L3 getter. Missing L1/L2 dependencies
// are populated transitively.
func (m *Manager) GetGlobalKPIState(
	ctx context.Context,
	snap mapping.Snapshot,
	kpiConfig kpi.Config,
	invalidMissionIDs []int32,
) (*GlobalKPIState, error) {
	return getOrBuild(ctx, m, "global_kpi_state", globalKPIStateKey, func() (*GlobalKPIState, error) {
		return m.buildGlobalFromCaches(ctx, snap, kpiConfig, invalidMissionIDs)
	})
}

// RebuildGlobalKPIState recomputes L3 from the current L1/L2 layers,
// overwrites the cache and asks the key-value store to flush.
func (m *Manager) RebuildGlobalKPIState(
	ctx context.Context,
	snap mapping.Snapshot,
	kpiConfig kpi.Config,
	invalidMissionIDs []int32,
) (time.Duration, error) {
	begin := time.Now()

	state, err := m.buildGlobalFromCaches(ctx, snap, kpiConfig, invalidMissionIDs)
	if err != nil {
		return 0, err
	}

	serialized, err := encode(state)
	if err != nil {
		return 0, fmt.Errorf("cannot encode global kpi state: %w", err)
	}
	if err := m.kv.Set(ctx, globalKPIStateKey, serialized); err != nil {
		return 0, fmt.Errorf("cannot write global kpi state to cache store: %w", err)
	}

	if err := m.kv.Save(ctx); err != nil {
		m.logger.Warnw("cache store flush failed", "error", err)
	}

	elapsed := time.Since(begin)
	m.logger.Infow("rebuilt global kpi state", "elapsed", elapsed)
	return elapsed, nil
}
