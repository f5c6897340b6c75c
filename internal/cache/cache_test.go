package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/store"
)

// fakeKV is an in-memory KV for facade tests.
type fakeKV struct {
	data  map[string][]byte
	saves int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string][]byte{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, ok := f.data[key]
	if !ok {
		return nil, errMiss
	}
	return value, nil
}

func (f *fakeKV) Set(ctx context.Context, key string, value []byte) error {
	f.data[key] = value
	return nil
}

func (f *fakeKV) Save(ctx context.Context) error {
	f.saves++
	return nil
}

// Serialize-then-deserialize is the identity for every artifact type.
func TestCodecRoundTrip(t *testing.T) {
	mission, events := soloDrillerMission()
	l1, err := BuildMissionRaw(mission, events, emptySnapshot(), testLookup())
	require.NoError(t, err)

	l2, err := BuildMissionKPIRaw(l1, testLookup(), map[string]struct{}{}, testKPIConfig())
	require.NoError(t, err)

	state, err := BuildGlobalKPIState([]*MissionCachedInfo{l1}, []*MissionKPICachedInfo{l2},
		nil, testKPIConfig(), testLookup(), map[string]struct{}{})
	require.NoError(t, err)

	t.Run("mission raw", func(t *testing.T) {
		content, err := encode(l1)
		require.NoError(t, err)

		var decoded MissionCachedInfo
		require.NoError(t, decode(content, &decoded))
		assert.Equal(t, *l1, decoded)
	})

	t.Run("mission kpi raw", func(t *testing.T) {
		content, err := encode(l2)
		require.NoError(t, err)

		var decoded MissionKPICachedInfo
		require.NoError(t, decode(content, &decoded))
		assert.Equal(t, *l2, decoded)
	})

	t.Run("global kpi state", func(t *testing.T) {
		content, err := encode(state)
		require.NoError(t, err)

		var decoded GlobalKPIState
		require.NoError(t, decode(content, &decoded))
		assert.Equal(t, *state, decoded)
	})
}

// Recomputing a layer from identical inputs yields an identical artifact.
func TestBuildPurity(t *testing.T) {
	mission, events := soloDrillerMission()

	first, err := BuildMissionRaw(mission, events, emptySnapshot(), testLookup())
	require.NoError(t, err)
	second, err := BuildMissionRaw(mission, events, emptySnapshot(), testLookup())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	l2First, err := BuildMissionKPIRaw(first, testLookup(), map[string]struct{}{}, testKPIConfig())
	require.NoError(t, err)
	l2Second, err := BuildMissionKPIRaw(second, testLookup(), map[string]struct{}{}, testKPIConfig())
	require.NoError(t, err)
	assert.Equal(t, l2First, l2Second)

	stateFirst, err := BuildGlobalKPIState([]*MissionCachedInfo{first}, []*MissionKPICachedInfo{l2First},
		nil, testKPIConfig(), testLookup(), map[string]struct{}{})
	require.NoError(t, err)
	stateSecond, err := BuildGlobalKPIState([]*MissionCachedInfo{second}, []*MissionKPICachedInfo{l2Second},
		nil, testKPIConfig(), testLookup(), map[string]struct{}{})
	require.NoError(t, err)
	assert.Equal(t, stateFirst, stateSecond)
}

// A cache hit is served from the KV store without touching the relational
// store.
func TestGetMissionRawCacheHit(t *testing.T) {
	mission, events := soloDrillerMission()
	l1, err := BuildMissionRaw(mission, events, emptySnapshot(), testLookup())
	require.NoError(t, err)

	kv := newFakeKV()
	serialized, err := encode(l1)
	require.NoError(t, err)
	kv.data[missionRawKey(mission.ID)] = serialized

	// The nil pool is never dereferenced on the hit path.
	manager := NewManager(store.New(nil), kv, zap.NewNop())

	got, err := manager.GetMissionRaw(context.Background(), emptySnapshot(), mission.ID)
	require.NoError(t, err)
	assert.Equal(t, l1, got)
}

// Corrupt cached bytes surface as an error rather than a rebuilt artifact.
func TestGetMissionRawCorruptEntry(t *testing.T) {
	kv := newFakeKV()
	kv.data[missionRawKey(1)] = []byte{0xc1} // reserved msgpack byte

	manager := NewManager(store.New(nil), kv, zap.NewNop())

	_, err := manager.GetMissionRaw(context.Background(), emptySnapshot(), 1)
	assert.Error(t, err)
}
