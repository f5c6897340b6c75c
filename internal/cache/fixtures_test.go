package cache

import (
	"github.com/saitewasreset/DRG-MissionMonitor/internal/kpi"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/mapping"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/models"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/store"
)

// Shared literal fixtures for the cache layer tests.

const (
	playerKarl  int16 = 1
	playerDotty int16 = 2

	characterDriller int16 = 1
	characterScout   int16 = 2

	entityGrunt      int16 = 1
	entitySwarmer    int16 = 2
	entityGruntAlias int16 = 3

	weaponFlameThrower int16 = 1

	resourceNitra int16 = 1
	resourceGold  int16 = 2
)

func testLookup() *store.Lookup {
	return &store.Lookup{
		PlayerIDToName: map[int16]string{
			playerKarl:  "Karl",
			playerDotty: "Dotty",
		},
		EntityIDToGameID: map[int16]string{
			entityGrunt:      "ED_Grunt",
			entitySwarmer:    "ED_Swarmer",
			entityGruntAlias: "ED_Grunt_Elite",
		},
		WeaponIDToGameID: map[int16]string{
			weaponFlameThrower: "WPN_FlameThrower",
		},
		ResourceIDToGameID: map[int16]string{
			resourceNitra: kpi.NitraGameID,
			resourceGold:  "RES_VEIN_Gold",
		},
		CharacterIDToGameID: map[int16]string{
			characterDriller: "DRILLER",
			characterScout:   "SCOUT",
		},
		MissionTypeIDToGameID: map[int16]string{
			1: "Mining_Expedition",
		},
	}
}

func emptySnapshot() mapping.Snapshot {
	return mapping.Snapshot{
		EntityBlacklistSet:    map[string]struct{}{},
		EntityCombine:         map[string]string{},
		WeaponCombine:         map[string]string{},
		ScoutSpecialPlayerSet: map[string]struct{}{},
	}
}

func testKPIConfig() kpi.Config {
	return kpi.Config{
		CharacterWeightTable: map[kpi.CharacterType]map[string]float64{
			kpi.CharacterDriller: {"ED_Grunt": 1.0},
			kpi.CharacterScout:   {"ED_Grunt": 1.0},
		},
		PriorityTable:       map[string]float64{"ED_Grunt": 1.0},
		ResourceWeightTable: map[string]float64{kpi.NitraGameID: 1.0, "RES_VEIN_Gold": 1.0},
		CharacterComponentWeight: map[kpi.CharacterType]map[kpi.Component]float64{
			kpi.CharacterDriller: uniformComponentWeight(),
			kpi.CharacterScout:   uniformComponentWeight(),
		},
		TransformRange: []kpi.TransformRangeConfig{
			{RankRange: [2]float64{0, 0.5}, TransformRange: [2]float64{0, 0.5}},
			{RankRange: [2]float64{0.5, 1.0}, TransformRange: [2]float64{0.5, 1.0}},
		},
	}
}

func uniformComponentWeight() map[kpi.Component]float64 {
	weights := make(map[kpi.Component]float64, kpi.ComponentCount)
	for id := 0; id < kpi.ComponentCount; id++ {
		weights[kpi.Component(id)] = 1.0
	}
	return weights
}

// soloDrillerMission is the single-player literal scenario: 100 damage to
// ED_Grunt, 2 kills, 40 nitra, 200 resources total, 1 revive, 0 deaths, no
// friendly fire, 1 supply, full presence.
func soloDrillerMission() (models.Mission, *store.MissionEvents) {
	mission := models.Mission{
		ID:               1,
		BeginTimestamp:   1700000000,
		MissionTime:      1200,
		MissionTypeID:    1,
		HazardID:         5,
		Result:           models.MissionResultWin,
		RewardCredit:     1000,
		TotalSupplyCount: 1,
	}

	events := &store.MissionEvents{
		PlayerInfo: []models.PlayerInfo{{
			ID: 1, MissionID: 1, PlayerID: playerKarl, CharacterID: characterDriller,
			PresentTime: 1200, ReviveNum: 1, DeathNum: 0,
		}},
		Damage: []models.DamageRow{{
			ID: 1, MissionID: 1, Time: 60, Damage: 100.0,
			CauserID: playerKarl, TakerID: entityGrunt, WeaponID: weaponFlameThrower,
			CauserKind: models.DamageKindPlayer, TakerKind: models.DamageKindEnemy,
		}},
		Kill: []models.KillRow{
			{ID: 1, MissionID: 1, Time: 61, PlayerID: playerKarl, EntityID: entityGrunt},
			{ID: 2, MissionID: 1, Time: 62, PlayerID: playerKarl, EntityID: entityGrunt},
		},
		Resource: []models.ResourceRow{
			{ID: 1, MissionID: 1, PlayerID: playerKarl, Time: 100, ResourceID: resourceNitra, Amount: 40.0},
			{ID: 2, MissionID: 1, PlayerID: playerKarl, Time: 120, ResourceID: resourceGold, Amount: 160.0},
		},
		Supply: []models.SupplyRow{
			{ID: 1, MissionID: 1, PlayerID: playerKarl, Time: 600, Ammo: 0.5, Health: 0.25},
		},
	}

	return mission, events
}

// duoMission builds a two-player mission (Karl the driller, Dotty the scout)
// with identical totals for both players.
func duoMission(missionID int32, beginTimestamp int64) (models.Mission, *store.MissionEvents) {
	mission := models.Mission{
		ID:               missionID,
		BeginTimestamp:   beginTimestamp,
		MissionTime:      1800,
		MissionTypeID:    1,
		HazardID:         4,
		Result:           models.MissionResultWin,
		RewardCredit:     900,
		TotalSupplyCount: 2,
	}

	events := &store.MissionEvents{
		PlayerInfo: []models.PlayerInfo{
			{ID: 1, MissionID: missionID, PlayerID: playerKarl, CharacterID: characterDriller, PresentTime: 1800, ReviveNum: 0, DeathNum: 1},
			{ID: 2, MissionID: missionID, PlayerID: playerDotty, CharacterID: characterScout, PresentTime: 1800, ReviveNum: 1, DeathNum: 0},
		},
		Damage: []models.DamageRow{
			{ID: 1, MissionID: missionID, Time: 30, Damage: 100.0, CauserID: playerKarl, TakerID: entityGrunt, WeaponID: weaponFlameThrower, CauserKind: models.DamageKindPlayer, TakerKind: models.DamageKindEnemy},
			{ID: 2, MissionID: missionID, Time: 31, Damage: 100.0, CauserID: playerDotty, TakerID: entityGrunt, WeaponID: weaponFlameThrower, CauserKind: models.DamageKindPlayer, TakerKind: models.DamageKindEnemy},
		},
		Kill: []models.KillRow{
			{ID: 1, MissionID: missionID, Time: 40, PlayerID: playerKarl, EntityID: entityGrunt},
			{ID: 2, MissionID: missionID, Time: 41, PlayerID: playerDotty, EntityID: entityGrunt},
		},
		Resource: []models.ResourceRow{
			{ID: 1, MissionID: missionID, PlayerID: playerKarl, Time: 50, ResourceID: resourceNitra, Amount: 40.0},
			{ID: 2, MissionID: missionID, PlayerID: playerDotty, Time: 51, ResourceID: resourceNitra, Amount: 40.0},
		},
		Supply: []models.SupplyRow{
			{ID: 1, MissionID: missionID, PlayerID: playerKarl, Time: 700, Ammo: 0.5, Health: 0.5},
			{ID: 2, MissionID: missionID, PlayerID: playerDotty, Time: 701, Ammo: 0.5, Health: 0.5},
		},
	}

	return mission, events
}
