package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aleehealey/alphagem/server/agent"
	"github.com/aleehealey/alphagem/server/rating"
	"github.com/aleehealey/alphagem/server/sim"
	"github.com/aleehealey/alphagem/server/store"
)

// runStore is the part of *store.DB the API reads and writes.
type runStore interface {
	Ping(ctx context.Context) error
	SaveRun(ctx context.Context, run store.Run) (uuid.UUID, error)
	ListRuns(ctx context.Context, limit int) ([]store.RunInfo, error)
	GetRun(ctx context.Context, id uuid.UUID) (store.RunDetail, error)
	ListGames(ctx context.Context, runID uuid.UUID, limit, offset int) ([]sim.GameLog, error)
	Leaderboard(ctx context.Context, limit int) ([]store.LeaderRow, error)
}

// maxAPIGames caps batches started over HTTP.
const maxAPIGames = 20000

type api struct {
	db    runStore
	batch func(ctx context.Context, p batchParams) (store.Run, error)
	log   *zap.Logger
}

func Router(db runStore, batch func(context.Context, batchParams) (store.Run, error), log *zap.Logger) http.Handler {
	a := &api{db: db, batch: batch, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", a.health)
		r.Get("/strategies", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, agent.Names())
		})
		r.Get("/leaderboard", a.leaderboard)
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", a.listRuns)
			r.With(middleware.Timeout(5*time.Minute)).Post("/", a.createRun)
			r.Get("/{id}", a.getRun)
			r.Get("/{id}/games", a.listGames)
		})
	})
	return r
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	if err := a.db.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *api) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := a.db.ListRuns(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (a *api) getRun(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}
	run, err := a.db.GetRun(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (a *api) listGames(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}
	games, err := a.db.ListGames(r.Context(), id, queryInt(r, "limit", 100), queryInt(r, "offset", 0))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

func (a *api) leaderboard(w http.ResponseWriter, r *http.Request) {
	rows, err := a.db.Leaderboard(r.Context(), queryInt(r, "limit", 100))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type runCreated struct {
	ID         uuid.UUID                     `json:"id"`
	Summaries  []sim.Summary                 `json:"summaries"`
	Ratings    []rating.Row                  `json:"ratings"`
	Actions    map[string]*sim.ActionAudit   `json:"actions"`
	Strategies map[string]*sim.StrategyAudit `json:"strategies"`
}

func (a *api) createRun(w http.ResponseWriter, r *http.Request) {
	var p batchParams
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if p.Games <= 0 || p.Games > maxAPIGames {
		http.Error(w, "games must be in 1.."+strconv.Itoa(maxAPIGames), http.StatusBadRequest)
		return
	}

	run, err := a.batch(r.Context(), p)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	id, err := a.db.SaveRun(r.Context(), run)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.log.Info("run stored", zap.String("run", id.String()), zap.Int("games", p.Games), zap.Int64("seed", p.Seed))

	actions := make(map[string]*sim.ActionAudit, len(run.Result.Actions))
	for k, v := range run.Result.Actions {
		actions[string(k)] = v
	}
	writeJSON(w, http.StatusCreated, runCreated{
		ID:         id,
		Summaries:  run.Summaries,
		Ratings:    run.Ratings,
		Actions:    actions,
		Strategies: run.Result.Strategies,
	})
}

// fail maps domain errors to status codes and logs the rest.
func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, errBadBatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		http.Error(w, "request cancelled", http.StatusServiceUnavailable)
	default:
		a.log.Error("api error",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "bad run id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
