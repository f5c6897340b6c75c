package logic

import (
	"sort"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/cache"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/kpi"
)

// PlayerBotKPIInfo is a watch-listed player's KPI trend: overall and recent
// performance plus the relative change against the earlier window.
type PlayerBotKPIInfo struct {
	DeltaPercent float64 `json:"deltaPercent"`
	Overall      float64 `json:"overall"`
	Recent       float64 `json:"recent"`
}

// GenerateBotKPIInfo splits each player's chronological mission samples into
// an earlier window of max(10, ⌊0.8·N⌋) missions (clamped to N) and the rest,
// and compares the player-index-weighted KPI of the two.
func GenerateBotKPIInfo(
	cachedMissionList []*cache.MissionCachedInfo,
	cachedMissionKPIList []*cache.MissionKPICachedInfo,
	invalidMissionIDs []int32,
	watchlistPlayerIDs []int16,
	playerIDToName map[int16]string,
	globalState *cache.GlobalKPIState,
	kpiConfig kpi.Config,
) (map[string]PlayerBotKPIInfo, error) {
	playerKPIInfo, err := GeneratePlayerKPI(cachedMissionList, cachedMissionKPIList,
		invalidMissionIDs, watchlistPlayerIDs, playerIDToName, globalState, kpiConfig)
	if err != nil {
		return nil, err
	}

	result := make(map[string]PlayerBotKPIInfo, len(playerKPIInfo))

	for playerName, playerInfo := range playerKPIInfo {
		var missionList []PlayerMissionKPIInfo
		for _, characterInfo := range playerInfo.ByCharacter {
			missionList = append(missionList, characterInfo.MissionList...)
		}

		result[playerName] = trendFromMissionList(missionList)
	}

	return result, nil
}

// trendFromMissionList computes one player's trend: the earlier window covers
// max(10, ⌊0.8·N⌋) chronological missions (clamped to N), the recent window
// the remainder; an empty recent window falls back to the overall KPI.
func trendFromMissionList(missionList []PlayerMissionKPIInfo) PlayerBotKPIInfo {
	sort.Slice(missionList, func(i, j int) bool {
		return missionList[i].BeginTimestamp < missionList[j].BeginTimestamp
	})

	prevMissionCount := len(missionList) * 8 / 10
	if prevMissionCount < 10 {
		prevMissionCount = 10
	}
	if prevMissionCount > len(missionList) {
		prevMissionCount = len(missionList)
	}

	prevList := missionList[:prevMissionCount]
	recentList := missionList[prevMissionCount:]

	prevKPI := weightedKPI(prevList)
	overallKPI := weightedKPI(missionList)

	recentKPI := overallKPI
	if recentIndexSum := playerIndexSum(recentList); recentIndexSum >= kpi.FloatEpsilon {
		recentKPI = weightedKPI(recentList)
	}

	deltaPercent := 0.0
	if prevKPI != 0.0 {
		deltaPercent = (recentKPI - prevKPI) / prevKPI
	}

	return PlayerBotKPIInfo{
		DeltaPercent: deltaPercent,
		Overall:      overallKPI,
		Recent:       recentKPI,
	}
}

func playerIndexSum(list []PlayerMissionKPIInfo) float64 {
	sum := 0.0
	for _, item := range list {
		sum += item.PlayerIndex
	}
	return sum
}

func weightedKPI(list []PlayerMissionKPIInfo) float64 {
	indexSum := 0.0
	weightedSum := 0.0
	for _, item := range list {
		indexSum += item.PlayerIndex
		weightedSum += item.MissionKPI * item.PlayerIndex
	}
	return weightedSum / indexSum
}
