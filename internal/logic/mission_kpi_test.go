package logic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/cache"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/kpi"
)

func uniformWeights() map[kpi.Component]float64 {
	weights := make(map[kpi.Component]float64, kpi.ComponentCount)
	for id := 0; id < kpi.ComponentCount; id++ {
		weights[kpi.Component(id)] = 1.0
	}
	return weights
}

// identityGlobalState builds an L3 state where every correction factor is 1.0
// for a solo driller and the transform is the identity line.
func identityGlobalState() *cache.GlobalKPIState {
	correction := map[kpi.Component]cache.CorrectionFactorInfo{}
	for _, component := range kpi.CorrectionComponents {
		correction[component] = cache.CorrectionFactorInfo{PlayerIndex: 1.0, Value: 1.0, CorrectionFactor: 1.0}
	}

	identity := []kpi.IndexTransformRange{{
		RankRange:            [2]float64{0, 1},
		SourceRange:          [2]float64{0, 1},
		TransformRange:       [2]float64{0, 1},
		TransformCoefficient: [2]float64{1, 0},
		PlayerCount:          1,
	}}

	transform := map[kpi.Component][]kpi.IndexTransformRange{}
	for _, component := range kpi.TransformComponents {
		transform[component] = identity
	}

	return &cache.GlobalKPIState{
		CharacterCorrectionFactor: map[kpi.CharacterType]map[kpi.Component]cache.CorrectionFactorInfo{
			kpi.CharacterDriller: correction,
		},
		StandardCorrectionSum: map[kpi.Component]float64{
			kpi.ComponentDamage:   1.0,
			kpi.ComponentPriority: 1.0,
			kpi.ComponentKill:     1.0,
			kpi.ComponentNitra:    1.0,
			kpi.ComponentMinerals: 1.0,
		},
		TransformRange: map[kpi.CharacterType]map[kpi.Component][]kpi.IndexTransformRange{
			kpi.CharacterDriller: transform,
		},
	}
}

func soloMissionKPICached(rawIndex float64) *cache.MissionKPICachedInfo {
	rawData := map[kpi.Component]cache.PlayerRawKPIData{}
	for id := 0; id < kpi.ComponentCount; id++ {
		component := kpi.Component(id)
		index := rawIndex
		switch component {
		case kpi.ComponentDeath, kpi.ComponentSupply:
			index = 0.0
		case kpi.ComponentFriendlyFire:
			index = 1.0
		}
		rawData[component] = cache.PlayerRawKPIData{
			SourceValue:               index,
			WeightedValue:             index,
			MissionTotalWeightedValue: index,
			RawIndex:                  index,
		}
	}

	return &cache.MissionKPICachedInfo{
		MissionID: 1,
		PlayerIDToKPICharacter: map[int16]kpi.CharacterType{
			1: kpi.CharacterDriller,
		},
		RawKPIData: map[int16]map[kpi.Component]cache.PlayerRawKPIData{
			1: rawData,
		},
	}
}

func TestGenerateMissionKPIFullScore(t *testing.T) {
	cfg := kpi.Config{
		CharacterComponentWeight: map[kpi.CharacterType]map[kpi.Component]float64{
			kpi.CharacterDriller: uniformWeights(),
		},
	}

	result, err := GenerateMissionKPI(soloMissionKPICached(1.0),
		map[int16]string{1: "Karl"}, identityGlobalState(), cfg)
	require.NoError(t, err)
	require.Len(t, result, 1)

	info := result[0]
	assert.Equal(t, "Karl", info.PlayerName)
	assert.Equal(t, "driller", info.KPICharacterType)

	// Full score on everything: weighted sum 7 (Death/Supply transformed 0,
	// FriendlyFire 1) over max sum 7 (Death/Supply excluded).
	assert.InDelta(t, 1.0, info.MissionKPI, 1e-9)

	// Breakdown is ordered by component ordinal.
	require.Len(t, info.Component, kpi.ComponentCount)
	for i, component := range info.Component {
		assert.Equal(t, kpi.Component(i).DisplayName(), component.Name)
	}
}

func TestGenerateMissionKPICorrectionClamp(t *testing.T) {
	cfg := kpi.Config{
		CharacterComponentWeight: map[kpi.CharacterType]map[kpi.Component]float64{
			kpi.CharacterDriller: uniformWeights(),
		},
	}

	state := identityGlobalState()
	// Doubled correction factor would push the corrected index past 1.0.
	for _, component := range kpi.CorrectionComponents {
		state.CharacterCorrectionFactor[kpi.CharacterDriller][component] = cache.CorrectionFactorInfo{
			PlayerIndex: 1.0, Value: 2.0, CorrectionFactor: 2.0,
		}
	}

	result, err := GenerateMissionKPI(soloMissionKPICached(0.8),
		map[int16]string{1: "Karl"}, state, cfg)
	require.NoError(t, err)
	require.Len(t, result, 1)

	for _, component := range result[0].Component {
		switch component.Name {
		case kpi.ComponentDamage.DisplayName(), kpi.ComponentKill.DisplayName(),
			kpi.ComponentPriority.DisplayName(), kpi.ComponentNitra.DisplayName(),
			kpi.ComponentMinerals.DisplayName():
			assert.Equal(t, 1.0, component.CorrectedIndex, "component %s must clamp at 1", component.Name)
		}
	}
}

// Segment selection uses strict > on the lower source bound: an index at an
// exact breakpoint stays in the lower segment.
func TestGenerateMissionKPISegmentSelection(t *testing.T) {
	cfg := kpi.Config{
		CharacterComponentWeight: map[kpi.CharacterType]map[kpi.Component]float64{
			kpi.CharacterDriller: uniformWeights(),
		},
	}

	state := identityGlobalState()
	twoSegments := []kpi.IndexTransformRange{
		{
			SourceRange:          [2]float64{0.0, 0.5},
			TransformRange:       [2]float64{0, 0.5},
			TransformCoefficient: [2]float64{1, 0},
		},
		{
			SourceRange:          [2]float64{0.5, 1.0},
			TransformRange:       [2]float64{0.5, 1.0},
			TransformCoefficient: [2]float64{2, -0.5},
		},
	}
	for _, component := range kpi.TransformComponents {
		state.TransformRange[kpi.CharacterDriller][component] = twoSegments
	}

	// Raw 0.5 with correction 1.0 sits exactly on the breakpoint: the lower
	// segment's coefficients must apply (0.5*1+0 = 0.5, not 0.5*2-0.5).
	result, err := GenerateMissionKPI(soloMissionKPICached(0.5),
		map[int16]string{1: "Karl"}, state, cfg)
	require.NoError(t, err)

	for _, component := range result[0].Component {
		if component.Name == kpi.ComponentDamage.DisplayName() {
			assert.InDelta(t, 0.5, component.TransformedIndex, 1e-9)
		}
	}

	// Raw 0.6 crosses into the upper segment: 0.6*2-0.5 = 0.7.
	result, err = GenerateMissionKPI(soloMissionKPICached(0.6),
		map[int16]string{1: "Karl"}, state, cfg)
	require.NoError(t, err)

	for _, component := range result[0].Component {
		if component.Name == kpi.ComponentDamage.DisplayName() {
			assert.InDelta(t, 0.7, component.TransformedIndex, 1e-9)
		}
	}
}

// Death and Supply never contribute to the denominator, so heavy deaths drive
// the mission KPI negative without changing the maximum.
func TestGenerateMissionKPIDeathPenalty(t *testing.T) {
	cfg := kpi.Config{
		CharacterComponentWeight: map[kpi.CharacterType]map[kpi.Component]float64{
			kpi.CharacterDriller: uniformWeights(),
		},
	}

	cached := soloMissionKPICached(0.0)
	playerData := cached.RawKPIData[1]
	playerData[kpi.ComponentDeath] = cache.PlayerRawKPIData{
		SourceValue: 5, WeightedValue: 5, MissionTotalWeightedValue: 5, RawIndex: -1.0,
	}
	playerData[kpi.ComponentFriendlyFire] = cache.PlayerRawKPIData{RawIndex: 0.0}

	result, err := GenerateMissionKPI(cached, map[int16]string{1: "Karl"}, identityGlobalState(), cfg)
	require.NoError(t, err)

	assert.Less(t, result[0].MissionKPI, 0.0)
}
