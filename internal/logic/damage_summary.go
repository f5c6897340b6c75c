package logic

import (
	"github.com/saitewasreset/DRG-MissionMonitor/internal/cache"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/models"
)

// FriendlyFireData accumulates friendly fire against or from one other
// player across missions. Show is set when the other player is watch-listed;
// unlisted players are filtered from the report.
type FriendlyFireData struct {
	GameCount int32   `json:"gameCount"`
	Damage    float64 `json:"damage"`
	Show      bool    `json:"show"`
}

// OverallPlayerFriendlyFireInfo is a player's cross-mission friendly fire in
// both directions, keyed by the other player's name.
type OverallPlayerFriendlyFireInfo struct {
	Cause map[string]FriendlyFireData `json:"cause"`
	Take  map[string]FriendlyFireData `json:"take"`
}

// OverallPlayerDamageInfo is one player's cross-mission damage summary.
type OverallPlayerDamageInfo struct {
	Damage             map[string]float64            `json:"damage"`
	Kill               map[string]int32              `json:"kill"`
	FF                 OverallPlayerFriendlyFireInfo `json:"ff"`
	AverageSupplyCount float64                       `json:"averageSupplyCount"`
	ValidGameCount     int32                         `json:"validGameCount"`
}

// OverallDamageInfo is the cross-mission damage report for the watch-listed
// players: Info covers every valid mission, PrevInfo the earlier window that
// leaves out the most recent missions.
type OverallDamageInfo struct {
	Info          map[string]OverallPlayerDamageInfo `json:"info"`
	PrevInfo      map[string]OverallPlayerDamageInfo `json:"prevInfo"`
	EntityMapping map[string]string                  `json:"entityMapping"`
}

// GenerateOverallDamageInfo aggregates damage/kill/friendly-fire per
// watch-listed player over all valid missions, and again over the window
// before the most recent max(10, N/10) missions.
func GenerateOverallDamageInfo(
	cachedMissionList []*cache.MissionCachedInfo,
	invalidMissionIDs []int32,
	watchlistPlayerIDs []int16,
	playerIDToName map[int16]string,
	entityMapping map[string]string,
) OverallDamageInfo {
	invalidMissionIDSet := make(map[int32]struct{}, len(invalidMissionIDs))
	for _, id := range invalidMissionIDs {
		invalidMissionIDSet[id] = struct{}{}
	}

	watchlistIDSet := make(map[int16]struct{}, len(watchlistPlayerIDs))
	for _, id := range watchlistPlayerIDs {
		watchlistIDSet[id] = struct{}{}
	}

	missionByPlayer := make(map[int16][]*cache.MissionCachedInfo, len(watchlistPlayerIDs))

	for _, mission := range cachedMissionList {
		if _, invalid := invalidMissionIDSet[mission.MissionInfo.ID]; invalid {
			continue
		}
		for _, playerInfo := range mission.PlayerInfo {
			if _, watched := watchlistIDSet[playerInfo.PlayerID]; watched {
				missionByPlayer[playerInfo.PlayerID] = append(missionByPlayer[playerInfo.PlayerID], mission)
			}
		}
	}

	overall := make(map[string]OverallPlayerDamageInfo, len(missionByPlayer))
	prev := make(map[string]OverallPlayerDamageInfo, len(missionByPlayer))

	for playerID, playerMissionList := range missionByPlayer {
		playerName, ok := playerIDToName[playerID]
		if !ok {
			continue
		}

		recentCount := len(playerMissionList) / 10
		if recentCount < 10 {
			recentCount = min(10, len(playerMissionList))
		}
		prevLimit := len(playerMissionList) - recentCount

		overall[playerName] = generateForPlayer(playerID, watchlistIDSet, playerIDToName, playerMissionList)
		prev[playerName] = generateForPlayer(playerID, watchlistIDSet, playerIDToName, playerMissionList[:prevLimit])
	}

	return OverallDamageInfo{
		Info:          overall,
		PrevInfo:      prev,
		EntityMapping: entityMapping,
	}
}

func generateForPlayer(
	playerID int16,
	watchlistIDSet map[int16]struct{},
	playerIDToName map[int16]string,
	playerMissionList []*cache.MissionCachedInfo,
) OverallPlayerDamageInfo {
	playerNameToID := make(map[string]int16, len(playerIDToName))
	for id, name := range playerIDToName {
		playerNameToID[name] = id
	}

	damageMap := make(map[string]float64)
	killMap := make(map[string]int32)

	ffCauseMap := make(map[string]FriendlyFireData)
	ffTakeMap := make(map[string]FriendlyFireData)

	totalSupplyCount := 0

	for _, mission := range playerMissionList {
		for entityGameID, pack := range mission.DamageInfo[playerID] {
			if pack.TakerKind == models.DamageKindPlayer {
				continue
			}
			damageMap[entityGameID] += pack.TotalAmount
		}

		for entityGameID, pack := range mission.KillInfo[playerID] {
			killMap[entityGameID] += pack.TotalAmount
		}

		totalSupplyCount += len(mission.SupplyInfo[playerID])

		for causerPlayerID, takerMap := range mission.DamageInfo {
			causerName, ok := playerIDToName[causerPlayerID]
			if !ok {
				continue
			}

			for takerName, pack := range takerMap {
				if pack.TakerKind != models.DamageKindPlayer {
					continue
				}
				takerPlayerID, ok := playerNameToID[takerName]
				if !ok {
					continue
				}

				if causerPlayerID == playerID && takerPlayerID != playerID {
					entry := ffCauseMap[takerName]
					entry.Damage += pack.TotalAmount
					entry.GameCount++
					_, entry.Show = watchlistIDSet[takerPlayerID]
					ffCauseMap[takerName] = entry
				}

				if takerPlayerID == playerID && causerPlayerID != playerID {
					entry := ffTakeMap[causerName]
					entry.Damage += pack.TotalAmount
					entry.GameCount++
					_, entry.Show = watchlistIDSet[causerPlayerID]
					ffTakeMap[causerName] = entry
				}
			}
		}
	}

	resultFFCause := make(map[string]FriendlyFireData, len(ffCauseMap))
	for takerName, data := range ffCauseMap {
		if data.Show {
			resultFFCause[takerName] = data
		}
	}
	resultFFTake := make(map[string]FriendlyFireData, len(ffTakeMap))
	for causerName, data := range ffTakeMap {
		if data.Show {
			resultFFTake[causerName] = data
		}
	}

	averageSupplyCount := 0.0
	if len(playerMissionList) > 0 {
		averageSupplyCount = float64(totalSupplyCount) / float64(len(playerMissionList))
	}

	return OverallPlayerDamageInfo{
		Damage: damageMap,
		Kill:   killMap,
		FF: OverallPlayerFriendlyFireInfo{
			Cause: resultFFCause,
			Take:  resultFFTake,
		},
		AverageSupplyCount: averageSupplyCount,
		ValidGameCount:     int32(len(playerMissionList)),
	}
}
