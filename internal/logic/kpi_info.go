package logic

import (
	"sort"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/cache"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/kpi"
)

// GammaInnerInfo is one role's baseline on one correction component.
type GammaInnerInfo struct {
	PlayerIndex float64 `json:"playerIndex"`
	Value       float64 `json:"value"`
	Ratio       float64 `json:"ratio"`
}

// GenerateGammaInfo exports the correction factor table keyed by component
// name then role name.
func GenerateGammaInfo(globalState *cache.GlobalKPIState) map[string]map[string]GammaInnerInfo {
	result := make(map[string]map[string]GammaInnerInfo)

	for characterType, componentInfo := range globalState.CharacterCorrectionFactor {
		for component, info := range componentInfo {
			byCharacter, ok := result[component.String()]
			if !ok {
				byCharacter = make(map[string]GammaInnerInfo)
				result[component.String()] = byCharacter
			}
			byCharacter[characterType.String()] = GammaInnerInfo{
				PlayerIndex: info.PlayerIndex,
				Value:       info.Value,
				Ratio:       info.CorrectionFactor,
			}
		}
	}

	return result
}

// GenerateTransformRangeInfo exports the derived transform segments keyed by
// role name then component name.
func GenerateTransformRangeInfo(globalState *cache.GlobalKPIState) map[string]map[string][]kpi.IndexTransformRange {
	result := make(map[string]map[string][]kpi.IndexTransformRange, len(globalState.TransformRange))

	for characterType, componentInfo := range globalState.TransformRange {
		byComponent := make(map[string][]kpi.IndexTransformRange, len(componentInfo))
		for component, ranges := range componentInfo {
			byComponent[component.String()] = append([]kpi.IndexTransformRange(nil), ranges...)
		}
		result[characterType.String()] = byComponent
	}

	return result
}

// APIWeightTableData is one entity's full weight row.
type APIWeightTableData struct {
	EntityGameID string  `json:"entityGameId"`
	Priority     float64 `json:"priority"`
	Driller      float64 `json:"driller"`
	Gunner       float64 `json:"gunner"`
	Engineer     float64 `json:"engineer"`
	Scout        float64 `json:"scout"`
	ScoutSpecial float64 `json:"scoutSpecial"`
}

// GenerateWeightTable renders the configured weights for every entity the
// display mapping knows, with the table defaults (priority 0, role weight 1)
// filled in.
func GenerateWeightTable(entityMapping map[string]string, kpiConfig kpi.Config) []APIWeightTableData {
	roleWeight := func(characterType kpi.CharacterType, entityGameID string) float64 {
		if table, ok := kpiConfig.CharacterWeightTable[characterType]; ok {
			if weight, ok := table[entityGameID]; ok {
				return weight
			}
		}
		return 1.0
	}

	result := make([]APIWeightTableData, 0, len(entityMapping))
	for entityGameID := range entityMapping {
		result = append(result, APIWeightTableData{
			EntityGameID: entityGameID,
			Priority:     kpiConfig.PriorityTable[entityGameID],
			Driller:      roleWeight(kpi.CharacterDriller, entityGameID),
			Gunner:       roleWeight(kpi.CharacterGunner, entityGameID),
			Engineer:     roleWeight(kpi.CharacterEngineer, entityGameID),
			Scout:        roleWeight(kpi.CharacterScout, entityGameID),
			ScoutSpecial: roleWeight(kpi.CharacterScoutSpecial, entityGameID),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].EntityGameID < result[j].EntityGameID
	})

	return result
}
