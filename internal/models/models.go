// Package models holds the relational row types, the aggregation packs shared
// by the cache layers, and the API data transfer types.
package models

// Mission result codes as stored in the mission table.
const (
	MissionResultWin     = 0
	MissionResultLoss    = 1
	MissionResultAborted = 2
)

// Causer/taker kinds on a damage row.
const (
	DamageKindUnknown = 0
	DamageKindPlayer  = 1
	DamageKindEnemy   = 2
)

// Mission is one finished play session.
type Mission struct {
	ID               int32   `msgpack:"id" json:"id"`
	BeginTimestamp   int64   `msgpack:"begin_timestamp" json:"beginTimestamp"`
	MissionTime      int16   `msgpack:"mission_time" json:"missionTime"`
	MissionTypeID    int16   `msgpack:"mission_type_id" json:"missionTypeId"`
	HazardID         int16   `msgpack:"hazard_id" json:"hazardId"`
	Result           int16   `msgpack:"result" json:"result"`
	RewardCredit     float64 `msgpack:"reward_credit" json:"rewardCredit"`
	TotalSupplyCount int16   `msgpack:"total_supply_count" json:"totalSupplyCount"`
}

// PlayerInfo is the per-mission, per-player participation row.
type PlayerInfo struct {
	ID                 int32   `msgpack:"id"`
	MissionID          int32   `msgpack:"mission_id"`
	PlayerID           int16   `msgpack:"player_id"`
	CharacterID        int16   `msgpack:"character_id"`
	PlayerRank         int16   `msgpack:"player_rank"`
	CharacterRank      int16   `msgpack:"character_rank"`
	CharacterPromotion int16   `msgpack:"character_promotion"`
	PresentTime        int16   `msgpack:"present_time"`
	KillNum            int16   `msgpack:"kill_num"`
	ReviveNum          int16   `msgpack:"revive_num"`
	DeathNum           int16   `msgpack:"death_num"`
	GoldMined          float64 `msgpack:"gold_mined"`
	MineralsMined      float64 `msgpack:"minerals_mined"`
	PlayerEscaped      bool    `msgpack:"player_escaped"`
}

// DamageRow is a raw damage event.
type DamageRow struct {
	ID         int32
	MissionID  int32
	Time       int16
	Damage     float64
	CauserID   int16
	TakerID    int16
	WeaponID   int16
	CauserKind int16
	TakerKind  int16
}

// KillRow is a raw kill event.
type KillRow struct {
	ID        int32
	MissionID int32
	Time      int16
	PlayerID  int16
	EntityID  int16
}

// ResourceRow is a raw mined-resource event.
type ResourceRow struct {
	ID         int32
	MissionID  int32
	PlayerID   int16
	Time       int16
	ResourceID int16
	Amount     float64
}

// SupplyRow is a raw supply-drop use event.
type SupplyRow struct {
	ID        int32
	MissionID int32
	PlayerID  int16
	Time      int16
	Ammo      float64
	Health    float64
}

// Player maps an internal player id to its game name; Friend marks watch-listed
// players.
type Player struct {
	ID         int16
	PlayerName string
	Friend     bool
}

// Entity maps an internal entity id to its game id.
type Entity struct {
	ID           int16
	EntityGameID string
}

// Character maps an internal character id to its game id.
type Character struct {
	ID              int16
	CharacterGameID string
}

// Weapon maps an internal weapon id to its game id.
type Weapon struct {
	ID           int16
	WeaponGameID string
}

// Resource maps an internal resource id to its game id.
type Resource struct {
	ID             int16
	ResourceGameID string
}

// MissionType maps an internal mission type id to its game id.
type MissionType struct {
	ID                int16
	MissionTypeGameID string
}

// MissionInvalid marks a mission excluded from the global KPI state.
type MissionInvalid struct {
	ID        int32
	MissionID int32
	Reason    string
}

// DamagePack is damage aggregated over one (causer, taker) pair.
type DamagePack struct {
	TakerID     int16   `msgpack:"taker_id"`
	TakerKind   int16   `msgpack:"taker_kind"`
	WeaponID    int16   `msgpack:"weapon_id"`
	TotalAmount float64 `msgpack:"total_amount"`
}

// KillPack is kill count aggregated over one (player, entity) pair.
type KillPack struct {
	TakerID     int16  `msgpack:"taker_id"`
	TakerName   string `msgpack:"taker_name"`
	TotalAmount int32  `msgpack:"total_amount"`
}

// WeaponPack aggregates damage per weapon across all player causers. TotalAmount
// includes friendly fire; Detail keys are resolved taker game ids.
type WeaponPack struct {
	WeaponID    int16                 `msgpack:"weapon_id"`
	TotalAmount float64               `msgpack:"total_amount"`
	Detail      map[string]DamagePack `msgpack:"detail"`
}

// SupplyPack is one supply-drop use.
type SupplyPack struct {
	Ammo   float64 `msgpack:"ammo" json:"ammo"`
	Health float64 `msgpack:"health" json:"health"`
}
