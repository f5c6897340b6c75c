// Package logic contains the pure report computations composed from the cache
// artifacts. Handlers gather the inputs (cache layers, lookup tables, config
// snapshots) and call into here; nothing in this package touches a store.
package logic

import (
	"fmt"
	"sort"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/cache"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/kpi"
)

// MissionKPIComponent is one row of a player's mission KPI breakdown.
type MissionKPIComponent struct {
	Name                      string  `json:"name"`
	SourceValue               float64 `json:"sourceValue"`
	WeightedValue             float64 `json:"weightedValue"`
	MissionTotalWeightedValue float64 `json:"missionTotalWeightedValue"`
	RawIndex                  float64 `json:"rawIndex"`
	CorrectedIndex            float64 `json:"correctedIndex"`
	TransformedIndex          float64 `json:"transformedIndex"`
	Weight                    float64 `json:"weight"`

	component kpi.Component
}

// MissionKPIInfo is one player's KPI in one mission.
type MissionKPIInfo struct {
	PlayerName       string                `json:"playerName"`
	KPICharacterType string                `json:"kpiCharacterType"`
	WeightedKill     float64               `json:"weightedKill"`
	WeightedDamage   float64               `json:"weightedDamage"`
	PriorityDamage   float64               `json:"priorityDamage"`
	ReviveNum        float64               `json:"reviveNum"`
	DeathNum         float64               `json:"deathNum"`
	FriendlyFire     float64               `json:"friendlyFire"`
	Nitra            float64               `json:"nitra"`
	SupplyCount      float64               `json:"supplyCount"`
	WeightedResource float64               `json:"weightedResource"`
	Component        []MissionKPIComponent `json:"component"`
	MissionKPI       float64               `json:"missionKPI"`
}

// GenerateMissionKPI composes a mission's final KPI from its L2 artifact and
// the global state: corrects the raw indices by the mission's role mix,
// remaps them through the observed rank transform, then takes the
// role-weighted mean.
func GenerateMissionKPI(
	missionKPI *cache.MissionKPICachedInfo,
	playerIDToName map[int16]string,
	globalState *cache.GlobalKPIState,
	kpiConfig kpi.Config,
) ([]MissionKPIInfo, error) {
	// Mission correction factor: the mission's summed per-role correction
	// factors over the four-role standard sum, per component.
	missionCorrectionFactor := make(map[kpi.Component]float64, len(kpi.CorrectionComponents))

	for _, component := range kpi.CorrectionComponents {
		sum := 0.0
		for _, characterType := range missionKPI.PlayerIDToKPICharacter {
			correctionInfo, ok := globalState.CharacterCorrectionFactor[characterType]
			if !ok {
				return nil, fmt.Errorf("global state has no correction data for role %s", characterType)
			}
			sum += correctionInfo[component].CorrectionFactor
		}

		standardSum := globalState.StandardCorrectionSum[component]
		if standardSum < kpi.FloatEpsilon {
			missionCorrectionFactor[component] = 0.0
		} else {
			missionCorrectionFactor[component] = sum / standardSum
		}
	}

	result := make([]MissionKPIInfo, 0, len(missionKPI.RawKPIData))

	for playerID, rawKPIData := range missionKPI.RawKPIData {
		playerName, ok := playerIDToName[playerID]
		if !ok {
			return nil, fmt.Errorf("mission %d references unknown player %d", missionKPI.MissionID, playerID)
		}

		characterType, ok := missionKPI.PlayerIDToKPICharacter[playerID]
		if !ok {
			return nil, fmt.Errorf("mission %d has no role for player %d", missionKPI.MissionID, playerID)
		}

		componentList := make([]MissionKPIComponent, 0, len(rawKPIData))

		weightedSum := 0.0
		maxSum := 0.0

		for component, kpiData := range rawKPIData {
			correctedIndex := kpiData.RawIndex
			if factor, corrected := missionCorrectionFactor[component]; corrected {
				correctedIndex = kpiData.RawIndex * factor
				if correctedIndex > 1.0 {
					correctedIndex = 1.0
				}
			}

			transformedIndex := correctedIndex
			if rangeInfo, ok := globalState.TransformRange[characterType][component]; ok && len(rangeInfo) > 0 {
				// Pick the last segment whose lower source bound is strictly
				// below the corrected index; exact breakpoints stay in the
				// lower segment.
				rangeIndex := 0
				for i := range rangeInfo {
					if correctedIndex > rangeInfo[i].SourceRange[0] {
						rangeIndex = i
					} else {
						break
					}
				}

				segment := rangeInfo[rangeIndex]
				transformedIndex = correctedIndex*segment.TransformCoefficient[0] + segment.TransformCoefficient[1]
			}

			weight := kpiConfig.CharacterComponentWeight[characterType][component]

			componentList = append(componentList, MissionKPIComponent{
				Name:                      component.DisplayName(),
				SourceValue:               kpiData.SourceValue,
				WeightedValue:             kpiData.WeightedValue,
				MissionTotalWeightedValue: kpiData.MissionTotalWeightedValue,
				RawIndex:                  kpiData.RawIndex,
				CorrectedIndex:            correctedIndex,
				TransformedIndex:          transformedIndex,
				Weight:                    weight,
				component:                 component,
			})

			weightedSum += transformedIndex * weight
			maxSum += component.MaxValue() * weight
		}

		sort.Slice(componentList, func(i, j int) bool {
			return componentList[i].component < componentList[j].component
		})

		result = append(result, MissionKPIInfo{
			PlayerName:       playerName,
			KPICharacterType: characterType.String(),
			WeightedKill:     rawKPIData[kpi.ComponentKill].WeightedValue,
			WeightedDamage:   rawKPIData[kpi.ComponentDamage].WeightedValue,
			PriorityDamage:   rawKPIData[kpi.ComponentPriority].WeightedValue,
			ReviveNum:        rawKPIData[kpi.ComponentRevive].WeightedValue,
			DeathNum:         rawKPIData[kpi.ComponentDeath].WeightedValue,
			FriendlyFire:     rawKPIData[kpi.ComponentFriendlyFire].SourceValue,
			Nitra:            rawKPIData[kpi.ComponentNitra].WeightedValue,
			SupplyCount:      rawKPIData[kpi.ComponentSupply].WeightedValue,
			WeightedResource: rawKPIData[kpi.ComponentMinerals].WeightedValue,
			Component:        componentList,
			MissionKPI:       weightedSum / maxSum,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PlayerName < result[j].PlayerName
	})

	return result, nil
}
