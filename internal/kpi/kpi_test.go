package kpi

import (
	"math"
	"testing"
)

func TestCharacterTypeFromPlayer(t *testing.T) {
	scoutSpecial := map[string]struct{}{"Karl": {}}

	tests := []struct {
		name            string
		characterGameID string
		playerName      string
		want            CharacterType
		wantErr         bool
	}{
		{"driller", "DRILLER", "Mission Control", CharacterDriller, false},
		{"engineer", "ENGINEER", "Mission Control", CharacterEngineer, false},
		{"gunner", "GUNNER", "Mission Control", CharacterGunner, false},
		{"plain scout", "SCOUT", "Mission Control", CharacterScout, false},
		{"special scout", "SCOUT", "Karl", CharacterScoutSpecial, false},
		{"unknown class", "MULE", "Karl", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CharacterTypeFromPlayer(tt.characterGameID, tt.playerName, scoutSpecial)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CharacterTypeFromPlayer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("CharacterTypeFromPlayer() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCharacterTypeFromID(t *testing.T) {
	for id := int16(0); id <= 4; id++ {
		if _, err := CharacterTypeFromID(id); err != nil {
			t.Errorf("CharacterTypeFromID(%d) unexpected error: %v", id, err)
		}
	}
	if _, err := CharacterTypeFromID(5); err == nil {
		t.Error("CharacterTypeFromID(5) expected error")
	}
	if _, err := CharacterTypeFromID(-1); err == nil {
		t.Error("CharacterTypeFromID(-1) expected error")
	}
}

func TestComponentOrdinalRoundTrip(t *testing.T) {
	for id := 0; id < ComponentCount; id++ {
		component, err := ComponentFromID(int16(id))
		if err != nil {
			t.Fatalf("ComponentFromID(%d) unexpected error: %v", id, err)
		}
		if int16(component) != int16(id) {
			t.Errorf("ComponentFromID(%d) = %d", id, int16(component))
		}
	}
	if _, err := ComponentFromID(int16(ComponentCount)); err == nil {
		t.Error("ComponentFromID out of range expected error")
	}
}

func TestComponentMaxValue(t *testing.T) {
	// Death and Supply are reported but never raise the achievable maximum.
	for id := 0; id < ComponentCount; id++ {
		component := Component(id)
		want := 1.0
		if component == ComponentDeath || component == ComponentSupply {
			want = 0.0
		}
		if got := component.MaxValue(); got != want {
			t.Errorf("%s.MaxValue() = %v, want %v", component, got, want)
		}
	}
}

func TestFriendlyFireIndex(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want float64
	}{
		{"no friendly fire", 0.0, 1.0},
		{"clamp threshold", 0.91, -1000.0},
		{"above clamp", 0.95, -1000.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FriendlyFireIndex(tt.rate); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("FriendlyFireIndex(%v) = %v, want %v", tt.rate, got, tt.want)
			}
		})
	}

	// The curve falls monotonically below the clamp.
	if !(FriendlyFireIndex(0.1) < FriendlyFireIndex(0.0)) {
		t.Error("friendly fire index should decrease as the rate grows")
	}
	if !(FriendlyFireIndex(0.9) < FriendlyFireIndex(0.5)) {
		t.Error("friendly fire index should decrease as the rate grows")
	}
}

func TestApplyWeightTable(t *testing.T) {
	source := map[string]float64{"ED_Grunt": 100.0, "ED_Praetorian": 50.0}
	weights := map[string]float64{"ED_Praetorian": 2.0}

	got := ApplyWeightTable(source, weights)

	if got["ED_Grunt"] != 100.0 {
		t.Errorf("unlisted key should keep source value, got %v", got["ED_Grunt"])
	}
	if got["ED_Praetorian"] != 100.0 {
		t.Errorf("listed key should be weighted, got %v", got["ED_Praetorian"])
	}

	if sum := SumWeighted(source, weights); sum != 200.0 {
		t.Errorf("SumWeighted = %v, want 200", sum)
	}
}

func TestSumPriority(t *testing.T) {
	source := map[string]float64{"ED_Grunt": 100.0, "ED_Dreadnought": 40.0}
	priority := map[string]float64{"ED_Dreadnought": 1.0}

	// Entities missing from the priority table weigh zero.
	if got := SumPriority(source, priority); got != 40.0 {
		t.Errorf("SumPriority = %v, want 40", got)
	}
}
