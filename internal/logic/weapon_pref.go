package logic

import (
	"sort"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/cache"
)

// Primary (0) / secondary (1) slot per weapon game id. Weapons outside this
// table are traversal/support tools and stay out of the preference report.
var weaponType = map[string]int16{
	"WPN_FlameThrower":         0,
	"WPN_Cryospray":            0,
	"WPN_GooCannon":            0,
	"WPN_Pistol_A":             1,
	"WPN_ChargeBlaster":        1,
	"WPN_MicrowaveGun":         1,
	"WPN_CombatShotgun":        0,
	"WPN_SMG_OneHand":          0,
	"WPN_LockOnRifle":          0,
	"WPN_GrenadeLauncher":      1,
	"WPN_LineCutter":           1,
	"WPN_HeavyParticleCannon":  1,
	"WPN_Gatling":              0,
	"WPN_Autocannon":           0,
	"WPN_MicroMissileLauncher": 0,
	"WPN_Revolver":             1,
	"WPN_BurstPistol":          1,
	"WPN_CoilGun":              1,
	"WPN_AssaultRifle":         0,
	"WPN_M1000":                0,
	"WPN_PlasmaCarbine":        0,
	"WPN_SawedOffShotgun":      1,
	"WPN_DualMPs":              1,
	"WPN_Crossbow":             1,
}

// Stable display order for the preference lists.
var weaponOrder = map[string]int16{
	"WPN_FlameThrower":         0,
	"WPN_Cryospray":            1,
	"WPN_GooCannon":            2,
	"WPN_Pistol_A":             3,
	"WPN_ChargeBlaster":        4,
	"WPN_MicrowaveGun":         5,
	"WPN_CombatShotgun":        6,
	"WPN_SMG_OneHand":          7,
	"WPN_LockOnRifle":          8,
	"WPN_GrenadeLauncher":      9,
	"WPN_LineCutter":           10,
	"WPN_HeavyParticleCannon":  11,
	"WPN_Gatling":              12,
	"WPN_Autocannon":           13,
	"WPN_MicroMissileLauncher": 14,
	"WPN_Revolver":             15,
	"WPN_BurstPistol":          16,
	"WPN_CoilGun":              17,
	"WPN_AssaultRifle":         18,
	"WPN_M1000":                19,
	"WPN_PlasmaCarbine":        20,
	"WPN_SawedOffShotgun":      21,
	"WPN_DualMPs":              22,
	"WPN_Crossbow":             23,
}

// WeaponPreference is one ranked weapon entry.
type WeaponPreference struct {
	WeaponGameID    string  `json:"weaponGameId"`
	PreferenceIndex float64 `json:"preferenceIndex"`
}

// WeaponPreferenceResponse: character game id -> weapon slot -> ranked list.
type WeaponPreferenceResponse map[string]map[int16][]WeaponPreference

// GenerateWeaponPreference scores how often each character brings each
// weapon: per player the weapon's mission count divided by the summed mission
// counts of all that player's weapons for the character, summed across
// players.
func GenerateWeaponPreference(
	cachedMissionList []*cache.MissionCachedInfo,
	invalidMissionIDs []int32,
	characterIDToGameID map[int16]string,
	weaponIDToGameID map[int16]string,
) WeaponPreferenceResponse {
	invalidMissionIDSet := make(map[int32]struct{}, len(invalidMissionIDs))
	for _, id := range invalidMissionIDs {
		invalidMissionIDSet[id] = struct{}{}
	}

	// character id -> player id -> weapon id -> mission id set
	characterWeaponMissions := make(map[int16]map[int16]map[int16]map[int32]struct{})

	for _, mission := range cachedMissionList {
		if _, invalid := invalidMissionIDSet[mission.MissionInfo.ID]; invalid {
			continue
		}

		for _, playerInfo := range mission.PlayerInfo {
			playerDamageInfo, ok := mission.DamageInfo[playerInfo.PlayerID]
			if !ok {
				continue
			}

			for _, damagePack := range playerDamageInfo {
				byPlayer, ok := characterWeaponMissions[playerInfo.CharacterID]
				if !ok {
					byPlayer = make(map[int16]map[int16]map[int32]struct{})
					characterWeaponMissions[playerInfo.CharacterID] = byPlayer
				}
				byWeapon, ok := byPlayer[playerInfo.PlayerID]
				if !ok {
					byWeapon = make(map[int16]map[int32]struct{})
					byPlayer[playerInfo.PlayerID] = byWeapon
				}
				missionSet, ok := byWeapon[damagePack.WeaponID]
				if !ok {
					missionSet = make(map[int32]struct{})
					byWeapon[damagePack.WeaponID] = missionSet
				}
				missionSet[mission.MissionInfo.ID] = struct{}{}
			}
		}
	}

	// character id -> weapon id -> summed per-player preference
	characterWeaponPreference := make(map[int16]map[int16]float64, len(characterWeaponMissions))

	for characterID, byPlayer := range characterWeaponMissions {
		for _, byWeapon := range byPlayer {
			totalCount := 0
			for _, missionSet := range byWeapon {
				totalCount += len(missionSet)
			}

			for weaponID, missionSet := range byWeapon {
				preference, ok := characterWeaponPreference[characterID]
				if !ok {
					preference = make(map[int16]float64)
					characterWeaponPreference[characterID] = preference
				}
				preference[weaponID] += float64(len(missionSet)) / float64(totalCount)
			}
		}
	}

	result := make(WeaponPreferenceResponse, len(characterWeaponPreference))

	for characterID, preference := range characterWeaponPreference {
		characterGameID, ok := characterIDToGameID[characterID]
		if !ok {
			continue
		}

		for weaponID, preferenceIndex := range preference {
			weaponGameID, ok := weaponIDToGameID[weaponID]
			if !ok {
				continue
			}
			slot, ok := weaponType[weaponGameID]
			if !ok {
				continue
			}

			bySlot, ok := result[characterGameID]
			if !ok {
				bySlot = make(map[int16][]WeaponPreference)
				result[characterGameID] = bySlot
			}
			bySlot[slot] = append(bySlot[slot], WeaponPreference{
				WeaponGameID:    weaponGameID,
				PreferenceIndex: preferenceIndex,
			})
		}
	}

	for _, bySlot := range result {
		for _, list := range bySlot {
			sort.Slice(list, func(i, j int) bool {
				return weaponOrder[list[i].WeaponGameID] < weaponOrder[list[j].WeaponGameID]
			})
		}
	}

	return result
}
