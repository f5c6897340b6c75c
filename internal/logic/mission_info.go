package logic

import (
	"github.com/saitewasreset/DRG-MissionMonitor/internal/cache"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/kpi"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/models"
)

// APIMission is one row of the plain mission list.
type APIMission struct {
	ID               int32   `json:"id"`
	BeginTimestamp   int64   `json:"begin_timestamp"`
	MissionTime      int16   `json:"mission_time"`
	MissionType      string  `json:"mission_type"`
	HazardID         int16   `json:"hazard_id"`
	Result           int16   `json:"result"`
	RewardCredit     float64 `json:"reward_credit"`
	TotalSupplyCount int16   `json:"total_supply_count"`
}

// MissionInfo is one row of the annotated mission list.
type MissionInfo struct {
	MissionID            int32   `json:"missionId"`
	BeginTimestamp       int64   `json:"beginTimestamp"`
	MissionTime          int16   `json:"missionTime"`
	MissionTypeID        string  `json:"missionTypeId"`
	HazardID             int16   `json:"hazardId"`
	MissionResult        int16   `json:"missionResult"`
	RewardCredit         float64 `json:"rewardCredit"`
	MissionInvalid       bool    `json:"missionInvalid"`
	MissionInvalidReason string  `json:"missionInvalidReason"`
}

// MissionList is the annotated mission list plus the display mapping for
// mission types.
type MissionList struct {
	MissionInfo        []MissionInfo     `json:"missionInfo"`
	MissionTypeMapping map[string]string `json:"missionTypeMapping"`
}

// MissionGeneralInfo is the lightweight per-mission header.
type MissionGeneralInfo struct {
	MissionID            int32  `json:"missionId"`
	MissionBeginTimestamp int64 `json:"missionBeginTimestamp"`
	MissionInvalid       bool   `json:"missionInvalid"`
	MissionInvalidReason string `json:"missionInvalidReason"`
}

// MissionGeneralPlayerInfo is one player's participation summary.
type MissionGeneralPlayerInfo struct {
	CharacterGameID    string `json:"characterGameId"`
	PlayerRank         int16  `json:"playerRank"`
	CharacterRank      int16  `json:"characterRank"`
	CharacterPromotion int16  `json:"characterPromotion"`
	PresentTime        int16  `json:"presentTime"`
	ReviveNum          int16  `json:"reviveNum"`
	DeathNum           int16  `json:"deathNum"`
	PlayerEscaped      bool   `json:"playerEscaped"`
}

// MissionGeneralData is the full per-mission summary.
type MissionGeneralData struct {
	BeginTimestamp   int64                               `json:"beginTimeStamp"`
	HazardID         int16                               `json:"hazardId"`
	HazardValue      float64                             `json:"hazardValue"`
	MissionResult    int16                               `json:"missionResult"`
	MissionTime      int16                               `json:"missionTime"`
	MissionTypeID    string                              `json:"missionTypeId"`
	PlayerInfo       map[string]MissionGeneralPlayerInfo `json:"playerInfo"`
	RewardCredit     float64                             `json:"rewardCredit"`
	TotalDamage      float64                             `json:"totalDamage"`
	TotalKill        int32                               `json:"totalKill"`
	TotalMinerals    float64                             `json:"totalMinerals"`
	TotalNitra       float64                             `json:"totalNitra"`
	TotalSupplyCount int16                               `json:"totalSupplyCount"`
}

// PlayerFriendlyFireInfo maps the other player's name to damage, in both
// directions.
type PlayerFriendlyFireInfo struct {
	Cause map[string]float64 `json:"cause"`
	Take  map[string]float64 `json:"take"`
}

// PlayerDamageInfo is one player's damage summary within a mission.
type PlayerDamageInfo struct {
	Damage      map[string]float64     `json:"damage"`
	Kill        map[string]int32       `json:"kill"`
	FF          PlayerFriendlyFireInfo `json:"ff"`
	SupplyCount int16                  `json:"supplyCount"`
}

// MissionDamageInfo is the per-mission damage report.
type MissionDamageInfo struct {
	Info          map[string]PlayerDamageInfo `json:"info"`
	EntityMapping map[string]string           `json:"entityMapping"`
}

// MissionWeaponDamageInfo is one weapon's damage within a mission.
type MissionWeaponDamageInfo struct {
	Damage          float64 `json:"damage"`
	FriendlyFire    float64 `json:"friendlyFire"`
	CharacterGameID string  `json:"characterGameId"`
	MappedName      string  `json:"mappedName"`
}

// PlayerResourceData is one player's mined resources and supply uses.
type PlayerResourceData struct {
	Resource map[string]float64  `json:"resource"`
	Supply   []models.SupplyPack `json:"supply"`
}

// MissionResourceInfo is the per-mission resource report.
type MissionResourceInfo struct {
	Data            map[string]PlayerResourceData `json:"data"`
	ResourceMapping map[string]string             `json:"resourceMapping"`
}

// GenerateAPIMissionList renders the plain mission list.
func GenerateAPIMissionList(missions []models.Mission, missionTypeIDToGameID map[int16]string) []APIMission {
	result := make([]APIMission, 0, len(missions))
	for _, mission := range missions {
		missionType, ok := missionTypeIDToGameID[mission.MissionTypeID]
		if !ok {
			missionType = "Unknown"
		}
		result = append(result, APIMission{
			ID:               mission.ID,
			BeginTimestamp:   mission.BeginTimestamp,
			MissionTime:      mission.MissionTime,
			MissionType:      missionType,
			HazardID:         mission.HazardID,
			Result:           mission.Result,
			RewardCredit:     mission.RewardCredit,
			TotalSupplyCount: mission.TotalSupplyCount,
		})
	}
	return result
}

// GenerateMissionList renders the annotated mission list.
func GenerateMissionList(
	missions []models.Mission,
	invalidMissions []models.MissionInvalid,
	missionTypeIDToGameID map[int16]string,
	missionTypeMapping map[string]string,
) MissionList {
	invalidByMissionID := make(map[int32]models.MissionInvalid, len(invalidMissions))
	for _, invalid := range invalidMissions {
		invalidByMissionID[invalid.MissionID] = invalid
	}

	missionInfo := make([]MissionInfo, 0, len(missions))
	for _, mission := range missions {
		missionTypeID, ok := missionTypeIDToGameID[mission.MissionTypeID]
		if !ok {
			missionTypeID = "Unknown"
		}

		invalid, isInvalid := invalidByMissionID[mission.ID]

		missionInfo = append(missionInfo, MissionInfo{
			MissionID:            mission.ID,
			BeginTimestamp:       mission.BeginTimestamp,
			MissionTime:          mission.MissionTime,
			MissionTypeID:        missionTypeID,
			HazardID:             mission.HazardID,
			MissionResult:        mission.Result,
			RewardCredit:         mission.RewardCredit,
			MissionInvalid:       isInvalid,
			MissionInvalidReason: invalid.Reason,
		})
	}

	return MissionList{
		MissionInfo:        missionInfo,
		MissionTypeMapping: missionTypeMapping,
	}
}

// GenerateMissionGeneralInfo renders the per-mission header, or nil when the
// mission is unknown.
func GenerateMissionGeneralInfo(
	mission *cache.MissionCachedInfo,
	invalidMissions []models.MissionInvalid,
) *MissionGeneralInfo {
	if mission == nil {
		return nil
	}

	info := &MissionGeneralInfo{
		MissionID:             mission.MissionInfo.ID,
		MissionBeginTimestamp: mission.MissionInfo.BeginTimestamp,
	}

	for _, invalid := range invalidMissions {
		if invalid.MissionID == mission.MissionInfo.ID {
			info.MissionInvalid = true
			info.MissionInvalidReason = invalid.Reason
			break
		}
	}

	return info
}

// GenerateMissionPlayerCharacter maps player name to character game id for
// one mission.
func GenerateMissionPlayerCharacter(
	mission *cache.MissionCachedInfo,
	playerIDToName map[int16]string,
	characterIDToGameID map[int16]string,
) map[string]string {
	result := make(map[string]string, len(mission.PlayerInfo))
	for _, playerInfo := range mission.PlayerInfo {
		playerName, ok := playerIDToName[playerInfo.PlayerID]
		if !ok {
			continue
		}
		result[playerName] = characterIDToGameID[playerInfo.CharacterID]
	}
	return result
}

// GenerateMissionGeneral renders the full per-mission summary.
func GenerateMissionGeneral(
	mission *cache.MissionCachedInfo,
	playerIDToName map[int16]string,
	characterIDToGameID map[int16]string,
	missionTypeIDToGameID map[int16]string,
) *MissionGeneralData {
	playerInfoMap := make(map[string]MissionGeneralPlayerInfo, len(mission.PlayerInfo))
	for _, playerInfo := range mission.PlayerInfo {
		playerName, ok := playerIDToName[playerInfo.PlayerID]
		if !ok {
			continue
		}
		playerInfoMap[playerName] = MissionGeneralPlayerInfo{
			CharacterGameID:    characterIDToGameID[playerInfo.CharacterID],
			PlayerRank:         playerInfo.PlayerRank,
			CharacterRank:      playerInfo.CharacterRank,
			CharacterPromotion: playerInfo.CharacterPromotion,
			PresentTime:        playerInfo.PresentTime,
			ReviveNum:          playerInfo.ReviveNum,
			DeathNum:           playerInfo.DeathNum,
			PlayerEscaped:      playerInfo.PlayerEscaped,
		}
	}

	totalDamage := 0.0
	for _, playerDamageMap := range mission.DamageInfo {
		for _, pack := range playerDamageMap {
			if pack.TakerKind == models.DamageKindPlayer {
				continue
			}
			totalDamage += pack.TotalAmount
		}
	}

	var totalKill int32
	for _, playerKillMap := range mission.KillInfo {
		for _, pack := range playerKillMap {
			totalKill += pack.TotalAmount
		}
	}

	totalNitra := 0.0
	totalMinerals := 0.0
	for _, playerResourceMap := range mission.ResourceInfo {
		for resourceGameID, amount := range playerResourceMap {
			if resourceGameID == kpi.NitraGameID {
				totalNitra += amount
			}
			totalMinerals += amount
		}
	}

	var totalSupplyCount int16
	for _, supplies := range mission.SupplyInfo {
		totalSupplyCount += int16(len(supplies))
	}

	missionTypeID, ok := missionTypeIDToGameID[mission.MissionInfo.MissionTypeID]
	if !ok {
		missionTypeID = "Unknown"
	}

	// Deep-dive overlay ids resolve to their effective difficulty; unknown
	// ids report 0.
	hazardValue, _ := models.HazardValue(mission.MissionInfo.HazardID)

	return &MissionGeneralData{
		BeginTimestamp:   mission.MissionInfo.BeginTimestamp,
		HazardID:         mission.MissionInfo.HazardID,
		HazardValue:      hazardValue,
		MissionResult:    mission.MissionInfo.Result,
		MissionTime:      mission.MissionInfo.MissionTime,
		MissionTypeID:    missionTypeID,
		PlayerInfo:       playerInfoMap,
		RewardCredit:     mission.MissionInfo.RewardCredit,
		TotalDamage:      totalDamage,
		TotalKill:        totalKill,
		TotalMinerals:    totalMinerals,
		TotalNitra:       totalNitra,
		TotalSupplyCount: totalSupplyCount,
	}
}

// GenerateMissionDamage renders the per-mission damage report, splitting
// friendly fire out in both directions.
func GenerateMissionDamage(
	mission *cache.MissionCachedInfo,
	playerIDToName map[int16]string,
	entityMapping map[string]string,
) *MissionDamageInfo {
	// causer name -> taker name -> amount, and the transpose.
	ffCauseMap := make(map[string]map[string]float64, len(mission.PlayerInfo))
	ffTakeMap := make(map[string]map[string]float64, len(mission.PlayerInfo))

	for causerPlayerID, playerDamageMap := range mission.DamageInfo {
		causerName, ok := playerIDToName[causerPlayerID]
		if !ok {
			continue
		}

		for takerName, pack := range playerDamageMap {
			if pack.TakerKind != models.DamageKindPlayer || pack.TakerID == causerPlayerID {
				continue
			}

			if ffCauseMap[causerName] == nil {
				ffCauseMap[causerName] = make(map[string]float64)
			}
			ffCauseMap[causerName][takerName] = pack.TotalAmount

			if ffTakeMap[takerName] == nil {
				ffTakeMap[takerName] = make(map[string]float64)
			}
			ffTakeMap[takerName][causerName] = pack.TotalAmount
		}
	}

	info := make(map[string]PlayerDamageInfo, len(mission.PlayerInfo))

	for _, playerInfo := range mission.PlayerInfo {
		playerName, ok := playerIDToName[playerInfo.PlayerID]
		if !ok {
			continue
		}

		playerDamage := make(map[string]float64)
		for takerGameID, pack := range mission.DamageInfo[playerInfo.PlayerID] {
			if pack.TakerKind == models.DamageKindPlayer {
				continue
			}
			playerDamage[takerGameID] = pack.TotalAmount
		}

		playerKill := make(map[string]int32)
		for entityGameID, pack := range mission.KillInfo[playerInfo.PlayerID] {
			playerKill[entityGameID] = pack.TotalAmount
		}

		ffData := PlayerFriendlyFireInfo{
			Cause: ffCauseMap[playerName],
			Take:  ffTakeMap[playerName],
		}
		if ffData.Cause == nil {
			ffData.Cause = map[string]float64{}
		}
		if ffData.Take == nil {
			ffData.Take = map[string]float64{}
		}

		info[playerName] = PlayerDamageInfo{
			Damage:      playerDamage,
			Kill:        playerKill,
			FF:          ffData,
			SupplyCount: int16(len(mission.SupplyInfo[playerInfo.PlayerID])),
		}
	}

	return &MissionDamageInfo{
		Info:          info,
		EntityMapping: entityMapping,
	}
}

// GenerateMissionWeaponDamage renders the per-weapon damage report.
func GenerateMissionWeaponDamage(
	mission *cache.MissionCachedInfo,
	weaponCharacter map[string]string,
	weaponMapping map[string]string,
) map[string]MissionWeaponDamageInfo {
	result := make(map[string]MissionWeaponDamageInfo, len(mission.WeaponDamageInfo))

	for weaponGameID, weaponPack := range mission.WeaponDamageInfo {
		damage := 0.0
		friendlyFire := 0.0
		for _, pack := range weaponPack.Detail {
			if pack.TakerKind == models.DamageKindPlayer {
				friendlyFire += pack.TotalAmount
			} else {
				damage += pack.TotalAmount
			}
		}

		characterGameID, ok := weaponCharacter[weaponGameID]
		if !ok {
			characterGameID = "Unknown"
		}

		mappedName, ok := weaponMapping[weaponGameID]
		if !ok {
			mappedName = weaponGameID
		}

		result[weaponGameID] = MissionWeaponDamageInfo{
			Damage:          damage,
			FriendlyFire:    friendlyFire,
			CharacterGameID: characterGameID,
			MappedName:      mappedName,
		}
	}

	return result
}

// GenerateMissionResource renders the per-mission resource report.
func GenerateMissionResource(
	mission *cache.MissionCachedInfo,
	playerIDToName map[int16]string,
	resourceMapping map[string]string,
) *MissionResourceInfo {
	data := make(map[string]PlayerResourceData, len(mission.PlayerInfo))

	for _, playerInfo := range mission.PlayerInfo {
		playerName, ok := playerIDToName[playerInfo.PlayerID]
		if !ok {
			continue
		}

		resource := make(map[string]float64, len(mission.ResourceInfo[playerInfo.PlayerID]))
		for resourceGameID, amount := range mission.ResourceInfo[playerInfo.PlayerID] {
			resource[resourceGameID] = amount
		}

		supply := append([]models.SupplyPack(nil), mission.SupplyInfo[playerInfo.PlayerID]...)
		if supply == nil {
			supply = []models.SupplyPack{}
		}

		data[playerName] = PlayerResourceData{
			Resource: resource,
			Supply:   supply,
		}
	}

	return &MissionResourceInfo{
		Data:            data,
		ResourceMapping: resourceMapping,
	}
}
