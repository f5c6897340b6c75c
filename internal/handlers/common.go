package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/cache"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/kpi"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/mapping"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/models"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/store"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/worker"
)

// Health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Ready check endpoint
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Check all dependencies
	checks := map[string]bool{
		"postgres": h.pg != nil && h.pg.Ping(ctx) == nil,
		"redis":    h.redis != nil && h.redis.Ping(ctx).Err() == nil,
	}

	allHealthy := true
	for _, ok := range checks {
		if !ok {
			allHealthy = false
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if !allHealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"ready":      allHealthy,
		"checks":     checks,
		"queueDepth": h.pool.QueueDepth(),
	})
}

// Heartbeat answers the client liveness probe with an empty envelope.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	h.envelope(w, models.OK(struct{}{}))
}

// AccessTokenMiddleware guards admin routes with the shared token, accepted
// as a cookie or header. An empty configured token disables the check.
func (h *Handler) AccessTokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.accessToken == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := ""
		if cookie, err := r.Cookie("access_token"); err == nil {
			token = cookie.Value
		}
		if token == "" {
			token = r.Header.Get("X-Access-Token")
		}

		if token != h.accessToken {
			h.envelope(w, models.Unauthorized[struct{}]())
			return
		}

		next.ServeHTTP(w, r)
	})
}

// envelope writes the uniform JSON envelope; application-level failures keep
// HTTP 200 and carry the code in the body.
func (h *Handler) envelope(w http.ResponseWriter, response any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Errorw("cannot encode response", "error", err)
	}
}

// fail maps an error to the envelope taxonomy.
func fail[T any](h *Handler, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		h.envelope(w, models.NotFound[T]())
	case errors.Is(err, models.ErrConfigRequired):
		h.envelope(w, models.ConfigRequired[T]("kpi_config"))
	case errors.Is(err, worker.ErrQueueFull):
		h.envelope(w, models.APIResponse[T]{
			Code:    models.CodeInternalError,
			Message: "Multiplayer Session Ended: the server is overloaded, try again later",
		})
	default:
		h.envelope(w, models.InternalError[T]())
	}
}

// errBadMissionID marks an unparseable mission id path segment.
var errBadMissionID = errors.New("invalid mission id")

// cacheMission pairs a mission's L1 artifact with the lookup tables.
type cacheMission struct {
	mission *cache.MissionCachedInfo
	lookup  *store.Lookup
}

// missionFail extends fail with the bad-mission-id case.
func missionFail[T any](h *Handler, w http.ResponseWriter, err error) {
	if errors.Is(err, errBadMissionID) {
		h.envelope(w, models.BadRequest[T]("invalid mission id"))
		return
	}
	fail[T](h, w, err)
}

// missionIDParam parses the mission id path segment.
func missionIDParam(r *http.Request) (int32, error) {
	raw := chi.URLParam(r, "missionID")
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(id), nil
}

// compute offloads fn to the pool and hands back its typed result.
func compute[T any](h *Handler, ctx context.Context, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	value, err := h.pool.Do(ctx, name, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value.(T), nil
}

// kpiData bundles the fully-loaded KPI computation inputs.
type kpiData struct {
	snap               mapping.Snapshot
	kpiConfig          kpi.Config
	lookup             *store.Lookup
	watchlistPlayerIDs []int16
	invalidMissionIDs  []int32
	missionList        []*cache.MissionCachedInfo
	missionKPIList     []*cache.MissionKPICachedInfo
	globalState        *cache.GlobalKPIState
}

// loadKPIData snapshots the shared config and reads all three cache layers,
// populating missing artifacts transitively. Must run on the compute pool.
func (h *Handler) loadKPIData(ctx context.Context) (*kpiData, error) {
	kpiConfig, ok := h.state.KPIConfig()
	if !ok {
		return nil, models.ErrConfigRequired
	}
	snap := h.state.SnapshotMapping()

	lookup, err := h.store.LoadLookup(ctx)
	if err != nil {
		return nil, err
	}

	players, err := h.store.Players(ctx)
	if err != nil {
		return nil, err
	}
	var watchlistPlayerIDs []int16
	for _, player := range players {
		if player.Friend {
			watchlistPlayerIDs = append(watchlistPlayerIDs, player.ID)
		}
	}

	invalidMissionIDs, err := h.store.InvalidMissionIDs(ctx)
	if err != nil {
		return nil, err
	}

	missionList, err := h.cache.GetAllMissionRaw(ctx, snap)
	if err != nil {
		return nil, err
	}

	missionKPIList, err := h.cache.GetAllMissionKPIRaw(ctx, snap, kpiConfig)
	if err != nil {
		return nil, err
	}

	globalState, err := h.cache.GetGlobalKPIState(ctx, snap, kpiConfig, invalidMissionIDs)
	if err != nil {
		return nil, err
	}

	return &kpiData{
		snap:               snap,
		kpiConfig:          kpiConfig,
		lookup:             lookup,
		watchlistPlayerIDs: watchlistPlayerIDs,
		invalidMissionIDs:  invalidMissionIDs,
		missionList:        missionList,
		missionKPIList:     missionKPIList,
		globalState:        globalState,
	}, nil
}
