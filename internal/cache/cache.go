// Package cache builds and stores the three derived dataset layers:
//
//	L1 mission_raw:{id}     per-mission aggregated statistics
//	L2 mission_kpi_raw:{id} per-mission raw KPI component indices
//	L3 global_kpi_state     cross-mission correction + rank transform tables
//
// Every artifact is a pure function of the relational store plus the uploaded
// mapping/KPI config. Reads go through the key-value store and rebuild
// transitively on miss. RebuildAllMissionRaw recomputes L1 from the relational
// store; the L2 and L3 rebuilds recompute from the lower layers as the
// key-value store holds them (building only missing entries) and do not
// rebuild L1 first. Each rebuild overwrites its keys.
package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/store"
)

const (
	missionRawKeyPrefix    = "mission_raw:"
	missionKPIRawKeyPrefix = "mission_kpi_raw:"
	globalKPIStateKey      = "global_kpi_state"
)

// errMiss is the internal cache-miss marker.
var errMiss = errors.New("cache miss")

// Prometheus metrics
var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_monitor_cache_hits_total",
		Help: "Cache artifacts served from the key-value store",
	}, []string{"layer"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_monitor_cache_misses_total",
		Help: "Cache artifacts rebuilt on read",
	}, []string{"layer"})

	buildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mission_monitor_cache_build_duration_seconds",
		Help:    "Duration of cache artifact builds",
		Buckets: prometheus.DefBuckets,
	}, []string{"layer"})
)

// KV is the slice of the key-value store the cache layers need. Implemented
// by redisKV in production and by in-memory fakes in tests.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Save asks the store to flush to disk; best effort.
	Save(ctx context.Context) error
}

type redisKV struct {
	client *redis.Client
}

// NewRedisKV adapts a redis client to the KV interface.
func NewRedisKV(client *redis.Client) KV {
	return &redisKV{client: client}
}

func (r *redisKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errMiss
	}
	return value, err
}

func (r *redisKV) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *redisKV) Save(ctx context.Context) error {
	return r.client.Save(ctx).Err()
}

// Manager is the cache storage facade over the relational store and the
// key-value store.
type Manager struct {
	store  *store.Store
	kv     KV
	logger *zap.SugaredLogger
}

func NewManager(st *store.Store, kv KV, logger *zap.Logger) *Manager {
	return &Manager{
		store:  st,
		kv:     kv,
		logger: logger.Sugar(),
	}
}

func encode(artifact any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := msgpack.NewEncoder(&buf)
	encoder.SetSortMapKeys(true)
	if err := encoder.Encode(artifact); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(content []byte, artifact any) error {
	return msgpack.Unmarshal(content, artifact)
}

// getOrBuild runs the read-through protocol for one key: decode on hit,
// otherwise build, store and return.
func getOrBuild[T any](ctx context.Context, m *Manager, layer, key string, build func() (*T, error)) (*T, error) {
	content, err := m.kv.Get(ctx, key)
	switch {
	case err == nil:
		artifact := new(T)
		if err := decode(content, artifact); err != nil {
			return nil, fmt.Errorf("cannot decode cached %s: %w", key, err)
		}
		cacheHits.WithLabelValues(layer).Inc()
		return artifact, nil
	case errors.Is(err, errMiss):
		// fall through to rebuild
	default:
		m.logger.Warnw("cannot read cache, rebuilding", "key", key, "error", err)
	}

	cacheMisses.WithLabelValues(layer).Inc()

	begin := time.Now()
	artifact, err := build()
	if err != nil {
		return nil, err
	}
	buildDuration.WithLabelValues(layer).Observe(time.Since(begin).Seconds())

	serialized, err := encode(artifact)
	if err != nil {
		return nil, fmt.Errorf("cannot encode %s: %w", key, err)
	}
	if err := m.kv.Set(ctx, key, serialized); err != nil {
		return nil, fmt.Errorf("cannot write %s to cache store: %w", key, err)
	}

	return artifact, nil
}

func missionRawKey(missionID int32) string {
	return fmt.Sprintf("%s%d", missionRawKeyPrefix, missionID)
}

func missionKPIRawKey(missionID int32) string {
	return fmt.Sprintf("%s%d", missionKPIRawKeyPrefix, missionID)
}
