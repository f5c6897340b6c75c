package logic

import (
	"github.com/saitewasreset/DRG-MissionMonitor/internal/cache"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/kpi"
)

// PlayerMissionKPIInfo is one mission sample in a player's roll-up.
type PlayerMissionKPIInfo struct {
	MissionID      int32   `json:"missionId"`
	BeginTimestamp int64   `json:"beginTimestamp"`
	PlayerIndex    float64 `json:"playerIndex"`
	MissionKPI     float64 `json:"missionKPI"`
}

// PlayerCharacterKPIInfo is a player's roll-up within one role.
type PlayerCharacterKPIInfo struct {
	PlayerIndex      float64                `json:"playerIndex"`
	CharacterKPI     float64                `json:"characterKPI"`
	CharacterKPIType string                 `json:"characterKPIType"`
	MissionList      []PlayerMissionKPIInfo `json:"missionList"`
}

// PlayerKPIInfo is a watch-listed player's full roll-up.
type PlayerKPIInfo struct {
	PlayerIndex float64                           `json:"playerIndex"`
	PlayerKPI   float64                           `json:"playerKPI"`
	ByCharacter map[string]PlayerCharacterKPIInfo `json:"byCharacter"`
}

// GeneratePlayerKPI rolls every watch-listed player's mission KPIs up by role
// and overall, weighting each mission by the player's presence.
func GeneratePlayerKPI(
	cachedMissionList []*cache.MissionCachedInfo,
	cachedMissionKPIList []*cache.MissionKPICachedInfo,
	invalidMissionIDs []int32,
	watchlistPlayerIDs []int16,
	playerIDToName map[int16]string,
	globalState *cache.GlobalKPIState,
	kpiConfig kpi.Config,
) (map[string]PlayerKPIInfo, error) {
	playerNameToID := make(map[string]int16, len(playerIDToName))
	for id, name := range playerIDToName {
		playerNameToID[name] = id
	}

	watchlistNameSet := make(map[string]struct{}, len(watchlistPlayerIDs))
	for _, id := range watchlistPlayerIDs {
		if name, ok := playerIDToName[id]; ok {
			watchlistNameSet[name] = struct{}{}
		}
	}

	invalidMissionIDSet := make(map[int32]struct{}, len(invalidMissionIDs))
	for _, id := range invalidMissionIDs {
		invalidMissionIDSet[id] = struct{}{}
	}

	missionByID := make(map[int32]*cache.MissionCachedInfo, len(cachedMissionList))
	for _, mission := range cachedMissionList {
		missionByID[mission.MissionInfo.ID] = mission
	}

	// player name -> role name -> mission samples
	type missionSample struct {
		missionID int32
		info      MissionKPIInfo
	}
	byPlayerByCharacter := make(map[string]map[string][]missionSample)

	for _, missionKPI := range cachedMissionKPIList {
		if _, invalid := invalidMissionIDSet[missionKPI.MissionID]; invalid {
			continue
		}

		missionKPIInfoList, err := GenerateMissionKPI(missionKPI, playerIDToName, globalState, kpiConfig)
		if err != nil {
			return nil, err
		}

		for _, info := range missionKPIInfoList {
			byCharacter, ok := byPlayerByCharacter[info.PlayerName]
			if !ok {
				byCharacter = make(map[string][]missionSample)
				byPlayerByCharacter[info.PlayerName] = byCharacter
			}
			byCharacter[info.KPICharacterType] = append(byCharacter[info.KPICharacterType], missionSample{
				missionID: missionKPI.MissionID,
				info:      info,
			})
		}
	}

	result := make(map[string]PlayerKPIInfo)

	for playerName, byCharacter := range byPlayerByCharacter {
		if _, watched := watchlistNameSet[playerName]; !watched {
			continue
		}

		playerID := playerNameToID[playerName]

		totalPlayerIndex := 0.0
		playerWeightedSum := 0.0

		byCharacterResult := make(map[string]PlayerCharacterKPIInfo, len(byCharacter))

		for characterType, samples := range byCharacter {
			characterPlayerIndex := 0.0
			characterWeightedSum := 0.0

			missionList := make([]PlayerMissionKPIInfo, 0, len(samples))

			for _, sample := range samples {
				mission, ok := missionByID[sample.missionID]
				if !ok {
					continue
				}
				playerIndex := mission.PlayerIndex[playerID]

				missionList = append(missionList, PlayerMissionKPIInfo{
					MissionID:      sample.missionID,
					BeginTimestamp: mission.MissionInfo.BeginTimestamp,
					PlayerIndex:    playerIndex,
					MissionKPI:     sample.info.MissionKPI,
				})

				characterPlayerIndex += playerIndex
				characterWeightedSum += playerIndex * sample.info.MissionKPI

				totalPlayerIndex += playerIndex
				playerWeightedSum += playerIndex * sample.info.MissionKPI
			}

			byCharacterResult[characterType] = PlayerCharacterKPIInfo{
				PlayerIndex:      characterPlayerIndex,
				CharacterKPI:     characterWeightedSum / characterPlayerIndex,
				CharacterKPIType: characterType,
				MissionList:      missionList,
			}
		}

		result[playerName] = PlayerKPIInfo{
			PlayerIndex: totalPlayerIndex,
			PlayerKPI:   playerWeightedSum / totalPlayerIndex,
			ByCharacter: byCharacterResult,
		}
	}

	return result, nil
}
