package cache

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/kpi"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/models"
)

func buildSoloL2(t *testing.T) *MissionKPICachedInfo {
	t.Helper()

	mission, events := soloDrillerMission()
	l1, err := BuildMissionRaw(mission, events, emptySnapshot(), testLookup())
	require.NoError(t, err)

	l2, err := BuildMissionKPIRaw(l1, testLookup(), map[string]struct{}{}, testKPIConfig())
	require.NoError(t, err)
	return l2
}

// The single-player literal scenario: every positive component index is 1.0,
// Death is 0, and the mission totals equal the player's own weighted values.
func TestBuildMissionKPIRawSoloScenario(t *testing.T) {
	l2 := buildSoloL2(t)

	playerData, ok := l2.RawKPIData[playerKarl]
	require.True(t, ok)

	fullScore := []kpi.Component{
		kpi.ComponentKill, kpi.ComponentDamage, kpi.ComponentPriority,
		kpi.ComponentNitra, kpi.ComponentMinerals, kpi.ComponentRevive,
		kpi.ComponentFriendlyFire,
	}
	for _, component := range fullScore {
		assert.InDelta(t, 1.0, playerData[component].RawIndex, 1e-9, "component %s", component)
	}

	assert.InDelta(t, 0.0, playerData[kpi.ComponentDeath].RawIndex, 1e-9)

	for _, component := range []kpi.Component{
		kpi.ComponentKill, kpi.ComponentDamage, kpi.ComponentPriority,
		kpi.ComponentNitra, kpi.ComponentMinerals,
	} {
		data := playerData[component]
		assert.InDelta(t, data.WeightedValue, data.MissionTotalWeightedValue, 1e-9, "component %s", component)
	}

	assert.Equal(t, 100.0, playerData[kpi.ComponentDamage].SourceValue)
	assert.Equal(t, 2.0, playerData[kpi.ComponentKill].SourceValue)
	assert.Equal(t, 40.0, playerData[kpi.ComponentNitra].SourceValue)
	assert.Equal(t, 200.0, playerData[kpi.ComponentMinerals].SourceValue)
	assert.Equal(t, kpi.CharacterDriller, l2.PlayerIDToKPICharacter[playerKarl])
}

// ∀ mission with at least one kill: Σ_p raw_index[p][Kill] = 1.
func TestKillRawIndexSumsToOne(t *testing.T) {
	mission, events := duoMission(2, 1700000100)
	l1, err := BuildMissionRaw(mission, events, emptySnapshot(), testLookup())
	require.NoError(t, err)

	l2, err := BuildMissionKPIRaw(l1, testLookup(), map[string]struct{}{}, testKPIConfig())
	require.NoError(t, err)

	sum := 0.0
	for _, playerData := range l2.RawKPIData {
		sum += playerData[kpi.ComponentKill].RawIndex
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

// Zero friendly fire and zero total damage yields a friendly fire index of
// exactly 1.0.
func TestFriendlyFireIndexZeroDamage(t *testing.T) {
	mission, events := soloDrillerMission()
	events.Damage = nil

	l1, err := BuildMissionRaw(mission, events, emptySnapshot(), testLookup())
	require.NoError(t, err)

	l2, err := BuildMissionKPIRaw(l1, testLookup(), map[string]struct{}{}, testKPIConfig())
	require.NoError(t, err)

	assert.Equal(t, 1.0, l2.RawKPIData[playerKarl][kpi.ComponentFriendlyFire].RawIndex)
}

// A heavy team-damage player gets the clamped index.
func TestFriendlyFireIndexClamp(t *testing.T) {
	mission, events := duoMission(4, 1700000200)

	// Karl's only meaningful output is damage to Dotty.
	events.Damage = []models.DamageRow{
		{ID: 1, MissionID: 4, Time: 30, Damage: 1000.0, CauserID: playerKarl, TakerID: playerDotty, WeaponID: weaponFlameThrower, CauserKind: models.DamageKindPlayer, TakerKind: models.DamageKindPlayer},
		{ID: 2, MissionID: 4, Time: 31, Damage: 10.0, CauserID: playerKarl, TakerID: entityGrunt, WeaponID: weaponFlameThrower, CauserKind: models.DamageKindPlayer, TakerKind: models.DamageKindEnemy},
	}

	l1, err := BuildMissionRaw(mission, events, emptySnapshot(), testLookup())
	require.NoError(t, err)

	l2, err := BuildMissionKPIRaw(l1, testLookup(), map[string]struct{}{}, testKPIConfig())
	require.NoError(t, err)

	ffData := l2.RawKPIData[playerKarl][kpi.ComponentFriendlyFire]
	assert.Equal(t, 1000.0, ffData.SourceValue)
	assert.Equal(t, -1000.0, ffData.RawIndex)
}

// Friendly fire is excluded from the damage/priority maps but retained in the
// friendly fire component.
func TestFriendlyFireExcludedFromDamage(t *testing.T) {
	mission, events := duoMission(5, 1700000300)
	events.Damage = append(events.Damage, models.DamageRow{
		ID: 9, MissionID: 5, Time: 90, Damage: 30.0,
		CauserID: playerKarl, TakerID: playerDotty, WeaponID: weaponFlameThrower,
		CauserKind: models.DamageKindPlayer, TakerKind: models.DamageKindPlayer,
	})

	l1, err := BuildMissionRaw(mission, events, emptySnapshot(), testLookup())
	require.NoError(t, err)

	l2, err := BuildMissionKPIRaw(l1, testLookup(), map[string]struct{}{}, testKPIConfig())
	require.NoError(t, err)

	assert.Equal(t, 100.0, l2.RawKPIData[playerKarl][kpi.ComponentDamage].SourceValue)
	assert.NotContains(t, l2.DamageMap[playerKarl], "Dotty")
	assert.Equal(t, 30.0, l2.RawKPIData[playerKarl][kpi.ComponentFriendlyFire].SourceValue)
}

// A short-presence player still has complete L2 output.
func TestLowPresencePlayerPresentInL2(t *testing.T) {
	mission, events := duoMission(6, 1700000400)
	events.PlayerInfo[1].PresentTime = 300 // player index 1/6

	l1, err := BuildMissionRaw(mission, events, emptySnapshot(), testLookup())
	require.NoError(t, err)

	l2, err := BuildMissionKPIRaw(l1, testLookup(), map[string]struct{}{}, testKPIConfig())
	require.NoError(t, err)

	require.Contains(t, l2.RawKPIData, playerDotty)
	assert.Len(t, l2.RawKPIData[playerDotty], kpi.ComponentCount)
}

// Scout special classification flows through the L2 role map.
func TestScoutSpecialClassification(t *testing.T) {
	mission, events := duoMission(8, 1700000500)

	l1, err := BuildMissionRaw(mission, events, emptySnapshot(), testLookup())
	require.NoError(t, err)

	l2, err := BuildMissionKPIRaw(l1, testLookup(), map[string]struct{}{"Dotty": {}}, testKPIConfig())
	require.NoError(t, err)

	assert.Equal(t, kpi.CharacterScoutSpecial, l2.PlayerIDToKPICharacter[playerDotty])
	assert.Equal(t, kpi.CharacterDriller, l2.PlayerIDToKPICharacter[playerKarl])
}

// Death and Supply raw indices are negative shares.
func TestNegativeComponents(t *testing.T) {
	mission, events := duoMission(9, 1700000600)

	l1, err := BuildMissionRaw(mission, events, emptySnapshot(), testLookup())
	require.NoError(t, err)

	l2, err := BuildMissionKPIRaw(l1, testLookup(), map[string]struct{}{}, testKPIConfig())
	require.NoError(t, err)

	// Karl has the single death; both players used one supply each.
	assert.InDelta(t, -1.0, l2.RawKPIData[playerKarl][kpi.ComponentDeath].RawIndex, 1e-9)
	assert.InDelta(t, 0.0, l2.RawKPIData[playerDotty][kpi.ComponentDeath].RawIndex, 1e-9)
	assert.InDelta(t, -0.5, l2.RawKPIData[playerKarl][kpi.ComponentSupply].RawIndex, 1e-9)
	assert.True(t, math.Signbit(l2.RawKPIData[playerDotty][kpi.ComponentSupply].RawIndex))
}
