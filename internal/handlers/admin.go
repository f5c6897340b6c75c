package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/saitewasreset/DRG-MissionMonitor/internal/kpi"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/mapping"
	"github.com/saitewasreset/DRG-MissionMonitor/internal/models"
)

// readBody reads a capped request body.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// LoadMapping handles POST /admin/load_mapping
// @Summary Replace the game-id mapping blob
// @Security AccessToken
func (h *Handler) LoadMapping(w http.ResponseWriter, r *http.Request) {
	uploadID := uuid.NewString()

	body, err := h.readBody(w, r)
	if err != nil {
		h.envelope(w, models.BadRequest[struct{}]("cannot read payload body"))
		return
	}

	var m mapping.Mapping
	if err := json.Unmarshal(body, &m); err != nil {
		h.logger.Warnw("cannot parse mapping payload", "upload", uploadID, "error", err)
		h.envelope(w, models.BadRequest[struct{}]("cannot parse payload body as json"))
		return
	}

	if err := h.state.ReplaceMapping(m); err != nil {
		h.logger.Errorw("cannot install mapping", "upload", uploadID, "error", err)
		h.envelope(w, models.InternalError[struct{}]())
		return
	}

	h.logger.Infow("mapping replaced", "upload", uploadID, "bytes", len(body))
	h.envelope(w, models.OK(struct{}{}))
}

// LoadKPI handles POST /admin/load_kpi
// @Summary Replace the KPI config blob
// @Security AccessToken
func (h *Handler) LoadKPI(w http.ResponseWriter, r *http.Request) {
	uploadID := uuid.NewString()

	body, err := h.readBody(w, r)
	if err != nil {
		h.envelope(w, models.BadRequest[struct{}]("cannot read payload body"))
		return
	}

	var cfg kpi.Config
	if err := json.Unmarshal(body, &cfg); err != nil {
		h.logger.Warnw("cannot parse kpi config payload", "upload", uploadID, "error", err)
		h.envelope(w, models.BadRequest[struct{}]("cannot parse payload body as json"))
		return
	}

	if err := h.state.ReplaceKPIConfig(cfg); err != nil {
		h.logger.Errorw("cannot install kpi config", "upload", uploadID, "error", err)
		h.envelope(w, models.InternalError[struct{}]())
		return
	}

	h.logger.Infow("kpi config replaced", "upload", uploadID, "bytes", len(body))
	h.envelope(w, models.OK(struct{}{}))
}

// LoadWatchlist handles POST /admin/load_watchlist
// @Summary Replace the watch-listed player set
// @Security AccessToken
func (h *Handler) LoadWatchlist(w http.ResponseWriter, r *http.Request) {
	body, err := h.readBody(w, r)
	if err != nil {
		h.envelope(w, models.BadRequest[struct{}]("cannot read payload body"))
		return
	}

	var watchlist []string
	if err := json.Unmarshal(body, &watchlist); err != nil {
		h.envelope(w, models.BadRequest[struct{}]("cannot parse payload body as json"))
		return
	}

	_, err = compute(h, r.Context(), "load_watchlist", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, h.store.ReplaceWatchlist(ctx, watchlist)
	})
	if err != nil {
		fail[struct{}](h, w, err)
		return
	}
	h.envelope(w, models.OK(struct{}{}))
}

// DeleteMission handles POST /admin/delete_mission
// @Summary Delete missions and their child rows
// @Security AccessToken
func (h *Handler) DeleteMission(w http.ResponseWriter, r *http.Request) {
	body, err := h.readBody(w, r)
	if err != nil {
		h.envelope(w, models.BadRequest[struct{}]("cannot read payload body"))
		return
	}

	var missionIDs []int32
	if err := json.Unmarshal(body, &missionIDs); err != nil {
		h.envelope(w, models.BadRequest[struct{}]("cannot parse payload body as json"))
		return
	}

	_, err = compute(h, r.Context(), "delete_mission", func(ctx context.Context) (struct{}, error) {
		for _, missionID := range missionIDs {
			if err := h.store.DeleteMission(ctx, missionID); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	if err != nil {
		fail[struct{}](h, w, err)
		return
	}
	h.envelope(w, models.OK(struct{}{}))
}
