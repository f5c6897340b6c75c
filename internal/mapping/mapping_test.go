package mapping

import (
	"testing"

	"go.uber.org/zap"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/kpi"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	state, err := NewState(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return state
}

func TestKPIConfigAbsentUntilUploaded(t *testing.T) {
	state := newTestState(t)

	if _, ok := state.KPIConfig(); ok {
		t.Fatal("expected no kpi config before upload")
	}

	cfg := kpi.Config{
		PriorityTable: map[string]float64{"ED_Dreadnought": 1.0},
	}
	if err := state.ReplaceKPIConfig(cfg); err != nil {
		t.Fatalf("ReplaceKPIConfig: %v", err)
	}

	got, ok := state.KPIConfig()
	if !ok {
		t.Fatal("expected kpi config after upload")
	}
	if got.PriorityTable["ED_Dreadnought"] != 1.0 {
		t.Errorf("priority table lost on round-trip: %v", got.PriorityTable)
	}
}

func TestStatePersistsAcrossRestart(t *testing.T) {
	dir := t.TempDir()

	state, err := NewState(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}

	m := Mapping{
		EntityBlacklist:    []string{"ED_Spawner"},
		EntityCombine:      map[string]string{"ED_Grunt_Elite": "ED_Grunt"},
		ScoutSpecialPlayer: []string{"Karl"},
	}
	if err := state.ReplaceMapping(m); err != nil {
		t.Fatalf("ReplaceMapping: %v", err)
	}
	if err := state.ReplaceKPIConfig(kpi.Config{
		ResourceWeightTable: map[string]float64{kpi.NitraGameID: 1.0},
	}); err != nil {
		t.Fatalf("ReplaceKPIConfig: %v", err)
	}

	// A fresh state over the same instance path sees both blobs.
	restarted, err := NewState(dir, zap.NewNop())
	if err != nil {
		t.Fatalf("NewState after restart: %v", err)
	}

	snap := restarted.SnapshotMapping()
	if _, ok := snap.EntityBlacklistSet["ED_Spawner"]; !ok {
		t.Error("blacklist lost across restart")
	}
	if snap.EntityCombine["ED_Grunt_Elite"] != "ED_Grunt" {
		t.Error("entity combine lost across restart")
	}
	if _, ok := snap.ScoutSpecialPlayerSet["Karl"]; !ok {
		t.Error("scout special set lost across restart")
	}

	if _, ok := restarted.KPIConfig(); !ok {
		t.Error("kpi config lost across restart")
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	state := newTestState(t)

	if err := state.ReplaceMapping(Mapping{
		EntityCombine: map[string]string{"A": "B"},
	}); err != nil {
		t.Fatalf("ReplaceMapping: %v", err)
	}

	snap := state.SnapshotMapping()
	snap.EntityCombine["A"] = "C"
	snap.EntityBlacklistSet["X"] = struct{}{}

	fresh := state.SnapshotMapping()
	if fresh.EntityCombine["A"] != "B" {
		t.Error("snapshot mutation leaked into shared state")
	}
	if _, ok := fresh.EntityBlacklistSet["X"]; ok {
		t.Error("snapshot mutation leaked into shared state")
	}
}
