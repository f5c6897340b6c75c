package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/cache"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/kpi"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/models"
)

func generalFixture() *cache.MissionCachedInfo {
	return &cache.MissionCachedInfo{
		MissionInfo: models.Mission{
			ID: 1, BeginTimestamp: 1700000000, MissionTime: 1500, MissionTypeID: 1,
			HazardID: 103, Result: models.MissionResultWin, RewardCredit: 1200,
		},
		PlayerInfo: []models.PlayerInfo{
			{MissionID: 1, PlayerID: 1, CharacterID: 1, PresentTime: 1500, ReviveNum: 1, PlayerEscaped: true},
		},
		PlayerIndex: map[int16]float64{1: 1.0},
		DamageInfo: map[int16]map[string]models.DamagePack{
			1: {
				"ED_Grunt": {TakerID: 1, TakerKind: models.DamageKindEnemy, WeaponID: 1, TotalAmount: 250},
				"Dotty":    {TakerID: 2, TakerKind: models.DamageKindPlayer, WeaponID: 1, TotalAmount: 30},
			},
		},
		KillInfo: map[int16]map[string]models.KillPack{
			1: {"ED_Grunt": {TakerID: 1, TakerName: "ED_Grunt", TotalAmount: 4}},
		},
		ResourceInfo: map[int16]map[string]float64{
			1: {kpi.NitraGameID: 55, "RES_VEIN_Gold": 45},
		},
		SupplyInfo: map[int16][]models.SupplyPack{
			1: {{Ammo: 0.5, Health: 0.5}},
		},
	}
}

func TestGenerateMissionGeneral(t *testing.T) {
	got := GenerateMissionGeneral(generalFixture(),
		map[int16]string{1: "Karl"},
		map[int16]string{1: "DRILLER"},
		map[int16]string{1: "Mining_Expedition"})

	require.NotNil(t, got)

	// Friendly fire stays out of the damage total.
	assert.Equal(t, 250.0, got.TotalDamage)
	assert.Equal(t, int32(4), got.TotalKill)
	assert.Equal(t, 55.0, got.TotalNitra)
	assert.Equal(t, 100.0, got.TotalMinerals)
	assert.Equal(t, int16(1), got.TotalSupplyCount)
	assert.Equal(t, "Mining_Expedition", got.MissionTypeID)

	// Hazard 103 is an elite deep dive stage: effective difficulty 4.5.
	assert.Equal(t, int16(103), got.HazardID)
	assert.Equal(t, 4.5, got.HazardValue)

	require.Contains(t, got.PlayerInfo, "Karl")
	assert.True(t, got.PlayerInfo["Karl"].PlayerEscaped)
}

func TestGenerateMissionDamageSplitsFriendlyFire(t *testing.T) {
	got := GenerateMissionDamage(generalFixture(),
		map[int16]string{1: "Karl", 2: "Dotty"},
		map[string]string{"ED_Grunt": "Grunt"})

	require.Contains(t, got.Info, "Karl")
	karl := got.Info["Karl"]

	assert.Equal(t, 250.0, karl.Damage["ED_Grunt"])
	assert.NotContains(t, karl.Damage, "Dotty")
	assert.Equal(t, 30.0, karl.FF.Cause["Dotty"])
	assert.Equal(t, "Grunt", got.EntityMapping["ED_Grunt"])
}
