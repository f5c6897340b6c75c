package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/cache"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/models"
)

func prefMission(missionID int32, weaponID int16) *cache.MissionCachedInfo {
	return &cache.MissionCachedInfo{
		MissionInfo: models.Mission{ID: missionID, MissionTime: 1200},
		PlayerInfo: []models.PlayerInfo{
			{MissionID: missionID, PlayerID: 1, CharacterID: 1, PresentTime: 1200},
		},
		PlayerIndex: map[int16]float64{1: 1.0},
		DamageInfo: map[int16]map[string]models.DamagePack{
			1: {"ED_Grunt": {TakerID: 1, TakerKind: models.DamageKindEnemy, WeaponID: weaponID, TotalAmount: 100}},
		},
	}
}

func TestGenerateWeaponPreference(t *testing.T) {
	characterIDToGameID := map[int16]string{1: "DRILLER"}
	weaponIDToGameID := map[int16]string{1: "WPN_FlameThrower", 2: "WPN_Cryospray"}

	missionList := []*cache.MissionCachedInfo{
		prefMission(1, 1),
		prefMission(2, 1),
		prefMission(3, 2),
	}

	got := GenerateWeaponPreference(missionList, nil, characterIDToGameID, weaponIDToGameID)

	require.Contains(t, got, "DRILLER")
	primaries := got["DRILLER"][0]
	require.Len(t, primaries, 2)

	// Display order puts the flamethrower before the cryo cannon.
	assert.Equal(t, "WPN_FlameThrower", primaries[0].WeaponGameID)
	assert.InDelta(t, 2.0/3.0, primaries[0].PreferenceIndex, 1e-9)
	assert.Equal(t, "WPN_Cryospray", primaries[1].WeaponGameID)
	assert.InDelta(t, 1.0/3.0, primaries[1].PreferenceIndex, 1e-9)
}

func TestGenerateWeaponPreferenceSkipsUnknownWeapons(t *testing.T) {
	characterIDToGameID := map[int16]string{1: "DRILLER"}
	weaponIDToGameID := map[int16]string{7: "ITM_ZipLineGun"}

	got := GenerateWeaponPreference([]*cache.MissionCachedInfo{prefMission(1, 7)},
		nil, characterIDToGameID, weaponIDToGameID)

	assert.Empty(t, got)
}

func TestGenerateWeaponPreferenceSkipsInvalidMissions(t *testing.T) {
	characterIDToGameID := map[int16]string{1: "DRILLER"}
	weaponIDToGameID := map[int16]string{1: "WPN_FlameThrower"}

	got := GenerateWeaponPreference([]*cache.MissionCachedInfo{prefMission(1, 1)},
		[]int32{1}, characterIDToGameID, weaponIDToGameID)

	assert.Empty(t, got)
}
