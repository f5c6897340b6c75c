// Package handlers wires the HTTP surface: the JSON envelope, the access
// token check on admin routes, and the offloading of every computation to the
// compute pool.
package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/cache"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/mapping"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/store"
)

// ComputePool is the slice of the worker pool the handlers use.
type ComputePool interface {
	Do(ctx context.Context, name string, run func(ctx context.Context) (any, error)) (any, error)
	QueueDepth() int
}

type Config struct {
	Pool         ComputePool
	Store        *store.Store
	Cache        *cache.Manager
	State        *mapping.State
	Postgres     *pgxpool.Pool
	Redis        *redis.Client
	Logger       *zap.Logger
	AccessToken  string
	MaxBodyBytes int64
}

type Handler struct {
	pool         ComputePool
	store        *store.Store
	cache        *cache.Manager
	state        *mapping.State
	pg           *pgxpool.Pool
	redis        *redis.Client
	logger       *zap.SugaredLogger
	accessToken  string
	maxBodyBytes int64
}

func New(cfg Config) *Handler {
	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = 64 << 20
	}

	return &Handler{
		pool:         cfg.Pool,
		store:        cfg.Store,
		cache:        cfg.Cache,
		state:        cfg.State,
		pg:           cfg.Postgres,
		redis:        cfg.Redis,
		logger:       cfg.Logger.Sugar(),
		accessToken:  cfg.AccessToken,
		maxBodyBytes: maxBodyBytes,
	}
}

// Routes assembles the chi router for the API surface.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/heartbeat", h.Heartbeat)
	r.Get("/mapping", h.GetMapping)

	r.Route("/mission", func(r chi.Router) {
		r.Get("/api_mission_list", h.GetAPIMissionList)
		r.Get("/mission_list", h.GetMissionList)

		r.Route("/{missionID}", func(r chi.Router) {
			r.Get("/info", h.GetMissionGeneralInfo)
			r.Get("/basic", h.GetMissionPlayerCharacter)
			r.Get("/general", h.GetMissionGeneral)
			r.Get("/damage", h.GetMissionDamage)
			r.Get("/weapon", h.GetMissionWeaponDamage)
			r.Get("/resource", h.GetMissionResource)
			r.Get("/kpi", h.GetMissionKPI)
		})
	})

	r.Route("/kpi", func(r chi.Router) {
		r.Get("/version", h.GetKPIVersion)
		r.Get("/player_kpi", h.GetPlayerKPI)
		r.Get("/bot_kpi_info", h.GetBotKPIInfo)
		r.Get("/gamma", h.GetGammaInfo)
		r.Get("/transform_range_info", h.GetTransformRangeInfo)
		r.Get("/weight_table", h.GetWeightTable)
	})

	r.Route("/damage", func(r chi.Router) {
		r.Get("/", h.GetOverallDamageInfo)
	})

	r.Route("/info", func(r chi.Router) {
		r.Get("/weapon_preference", h.GetWeaponPreference)
	})

	r.Route("/cache", func(r chi.Router) {
		r.Get("/update_mission_raw", h.UpdateMissionRawCache)
		r.Get("/update_mission_kpi_raw", h.UpdateMissionKPIRawCache)
		r.Get("/update_global_kpi_state", h.UpdateGlobalKPIState)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.AccessTokenMiddleware)
		r.Post("/load_mapping", h.LoadMapping)
		r.Post("/load_kpi", h.LoadKPI)
		r.Post("/load_watchlist", h.LoadWatchlist)
		r.Post("/delete_mission", h.DeleteMission)
	})

	return r
}
