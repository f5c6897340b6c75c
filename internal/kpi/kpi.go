// Package kpi defines the KPI domain vocabulary: character roles, KPI
// components, the uploaded KPI configuration, and the numeric helpers shared
// by the cache layers.
package kpi

import "fmt"

// Version identifies the KPI calculation scheme. Bump when the component
// definitions or the correction/transform pipeline change.
const Version = "0.3.0"

// FloatEpsilon is the threshold under which a float total counts as zero.
const FloatEpsilon = 1e-3

// MinPlayerIndex excludes short-presence samples from the global rank
// distribution. Players below it still appear in per-mission output.
const MinPlayerIndex = 0.5

// NitraGameID is the resource game id backing the Nitra component.
const NitraGameID = "RES_VEIN_Nitra"

// CharacterType is the role bucket used for KPI aggregation: the four base
// character classes plus a scout-special override for designated players.
type CharacterType int16

const (
	CharacterDriller CharacterType = iota
	CharacterGunner
	CharacterEngineer
	CharacterScout
	CharacterScoutSpecial
)

// CharacterTypeFromID converts the on-disk role ordinal.
func CharacterTypeFromID(id int16) (CharacterType, error) {
	if id < 0 || id > int16(CharacterScoutSpecial) {
		return 0, fmt.Errorf("invalid character type: %d", id)
	}
	return CharacterType(id), nil
}

func (c CharacterType) String() string {
	switch c {
	case CharacterDriller:
		return "driller"
	case CharacterGunner:
		return "gunner"
	case CharacterEngineer:
		return "engineer"
	case CharacterScout:
		return "scout"
	case CharacterScoutSpecial:
		return "scout_special"
	default:
		return fmt.Sprintf("character(%d)", int16(c))
	}
}

// MarshalText encodes the role as its name, so JSON maps keyed by role are
// readable in the uploaded config blobs.
func (c CharacterType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a role name.
func (c *CharacterType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "driller":
		*c = CharacterDriller
	case "gunner":
		*c = CharacterGunner
	case "engineer":
		*c = CharacterEngineer
	case "scout":
		*c = CharacterScout
	case "scout_special":
		*c = CharacterScoutSpecial
	default:
		return fmt.Errorf("unknown character type: %q", text)
	}
	return nil
}

// CharacterTypeFromPlayer classifies a player into a role bucket. Scouts on
// the scout-special list get the override bucket; every other class maps
// directly.
func CharacterTypeFromPlayer(characterGameID, playerName string, scoutSpecialPlayerSet map[string]struct{}) (CharacterType, error) {
	switch characterGameID {
	case "DRILLER":
		return CharacterDriller, nil
	case "ENGINEER":
		return CharacterEngineer, nil
	case "GUNNER":
		return CharacterGunner, nil
	case "SCOUT":
		if _, ok := scoutSpecialPlayerSet[playerName]; ok {
			return CharacterScoutSpecial, nil
		}
		return CharacterScout, nil
	default:
		return 0, fmt.Errorf("unknown character game id: %q", characterGameID)
	}
}

// StandardCharacterTypes are the four roles whose correction factors sum into
// the standard correction normalizer. ScoutSpecial is deliberately excluded.
var StandardCharacterTypes = []CharacterType{
	CharacterDriller,
	CharacterEngineer,
	CharacterGunner,
	CharacterScout,
}

// Component is one KPI scoring dimension. The ordinal is both the
// serialization key and the sort key for mission breakdowns.
type Component int16

const (
	ComponentKill Component = iota
	ComponentDamage
	ComponentPriority
	ComponentRevive
	ComponentDeath
	ComponentFriendlyFire
	ComponentNitra
	ComponentSupply
	ComponentMinerals
)

// ComponentFromID converts the on-disk component ordinal.
func ComponentFromID(id int16) (Component, error) {
	if id < 0 || id > int16(ComponentMinerals) {
		return 0, fmt.Errorf("invalid kpi component id: %d", id)
	}
	return Component(id), nil
}

// ComponentCount is the number of KPI components.
const ComponentCount = int(ComponentMinerals) + 1

func (c Component) String() string {
	switch c {
	case ComponentKill:
		return "kill"
	case ComponentDamage:
		return "damage"
	case ComponentPriority:
		return "priority"
	case ComponentRevive:
		return "revive"
	case ComponentDeath:
		return "death"
	case ComponentFriendlyFire:
		return "friendly_fire"
	case ComponentNitra:
		return "nitra"
	case ComponentSupply:
		return "supply"
	case ComponentMinerals:
		return "minerals"
	default:
		return fmt.Sprintf("component(%d)", int16(c))
	}
}

// MarshalText encodes the component as its name for JSON map keys.
func (c Component) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a component name.
func (c *Component) UnmarshalText(text []byte) error {
	for id := 0; id < ComponentCount; id++ {
		if Component(id).String() == string(text) {
			*c = Component(id)
			return nil
		}
	}
	return fmt.Errorf("unknown kpi component: %q", text)
}

// DisplayName is the client-facing component label.
func (c Component) DisplayName() string {
	switch c {
	case ComponentKill:
		return "击杀数指数"
	case ComponentDamage:
		return "输出指数"
	case ComponentPriority:
		return "高威胁目标"
	case ComponentRevive:
		return "救人指数"
	case ComponentDeath:
		return "倒地指数"
	case ComponentFriendlyFire:
		return "友伤指数"
	case ComponentNitra:
		return "硝石指数"
	case ComponentSupply:
		return "补给指数"
	case ComponentMinerals:
		return "采集指数"
	default:
		return c.String()
	}
}

// MaxValue is the component's contribution to the mission KPI denominator.
// Death and Supply carry zero weight there: they are reported but never raise
// the achievable maximum.
func (c Component) MaxValue() float64 {
	switch c {
	case ComponentDeath, ComponentSupply:
		return 0.0
	default:
		return 1.0
	}
}

// CorrectionComponents are the components normalized by the cross-role
// correction factors.
var CorrectionComponents = []Component{
	ComponentDamage,
	ComponentPriority,
	ComponentKill,
	ComponentNitra,
	ComponentMinerals,
}

// TransformComponents are the components remapped through the observed rank
// distribution. Identical to the correction set in the current scheme.
var TransformComponents = []Component{
	ComponentDamage,
	ComponentPriority,
	ComponentKill,
	ComponentNitra,
	ComponentMinerals,
}

// Config is the uploaded KPI configuration. Immutable once snapshotted: every
// computation deep-copies what it needs from the shared state before running.
type Config struct {
	// CharacterWeightTable weighs entity damage/kills per role; missing
	// entities weigh 1.0.
	CharacterWeightTable map[CharacterType]map[string]float64 `json:"character_weight_table"`
	// PriorityTable weighs priority-target damage; entities the table does not
	// list weigh 0.0.
	PriorityTable map[string]float64 `json:"priority_table"`
	// ResourceWeightTable weighs mined resources; missing resources weigh 1.0.
	ResourceWeightTable map[string]float64 `json:"resource_weight_table"`
	// CharacterComponentWeight weighs each component in the final mission KPI
	// sum, per role.
	CharacterComponentWeight map[CharacterType]map[Component]float64 `json:"character_component_weight"`
	// TransformRange is the configured rank→value piecewise mapping; the rank
	// intervals partition [0,1] in order.
	TransformRange []TransformRangeConfig `json:"transform_range"`
}

// TransformRangeConfig is one configured rank segment.
type TransformRangeConfig struct {
	RankRange      [2]float64 `json:"rank_range"`
	TransformRange [2]float64 `json:"transform_range"`
}

// IndexTransformRange is one derived transform segment of the global KPI
// state: the configured rank segment bound to the observed source interval
// and the y = a·x + b coefficients mapping source to transformed index.
type IndexTransformRange struct {
	RankRange            [2]float64 `msgpack:"rank_range" json:"rankRange"`
	SourceRange          [2]float64 `msgpack:"source_range" json:"sourceRange"`
	TransformRange       [2]float64 `msgpack:"transform_range" json:"transformRange"`
	TransformCoefficient [2]float64 `msgpack:"transform_coefficient" json:"transformCofficient"`
	PlayerCount          int32      `msgpack:"player_count" json:"playerCount"`
}

// ApplyWeightTable multiplies source values by their table weight, keeping the
// source value untouched for keys the table does not list.
func ApplyWeightTable(source map[string]float64, weightTable map[string]float64) map[string]float64 {
	result := make(map[string]float64, len(source))
	for key, value := range source {
		if weight, ok := weightTable[key]; ok {
			result[key] = value * weight
		} else {
			result[key] = value
		}
	}
	return result
}

// SumWeighted is ApplyWeightTable followed by summing, without building the
// intermediate map.
func SumWeighted(source map[string]float64, weightTable map[string]float64) float64 {
	total := 0.0
	for key, value := range source {
		if weight, ok := weightTable[key]; ok {
			total += value * weight
		} else {
			total += value
		}
	}
	return total
}

// SumPriority sums source values weighted by the priority table. Unlike the
// character and resource tables, an entity missing from the priority table
// weighs zero: only listed priority targets count.
func SumPriority(source map[string]float64, priorityTable map[string]float64) float64 {
	total := 0.0
	for key, value := range source {
		total += value * priorityTable[key]
	}
	return total
}

// FriendlyFireIndex maps a friendly-fire rate in [0,1] to its score. Rates at
// or above 0.91 clamp to -1000; below that the curve is 99/(x-1) + 100, which
// is 1.0 at x=0 and falls away steeply as the rate grows.
func FriendlyFireIndex(ffRate float64) float64 {
	if ffRate >= 0.91 {
		return -1000.0
	}
	return 99.0/(ffRate-1.0) + 100.0
}
