package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aleehealey/alphagem/server/engine"
	"github.com/aleehealey/alphagem/server/rating"
	"github.com/aleehealey/alphagem/server/sim"
)

//go:embed schema.sql
var schema embed.FS

var ErrNotFound = errors.New("store: not found")

type DB struct{ *pgxpool.Pool }

func Open(ctx context.Context, dsn string) (*DB, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &DB{p}, nil
}

func (db *DB) Close()                         { db.Pool.Close() }
func (db *DB) Ping(ctx context.Context) error { return db.Pool.Ping(ctx) }

func Migrate(ctx context.Context, db *DB) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx, string(sqlBytes))
	return err
}

// Run is one finished batch ready to persist.
type Run struct {
	ID        uuid.UUID
	Result    *sim.Result
	Summaries []sim.Summary
	Ratings   []rating.Row
}

type RunInfo struct {
	ID             uuid.UUID `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Seed           int64     `json:"seed"`
	Games          int       `json:"games"`
	PlayersPerGame int       `json:"players_per_game"`
}

// StrategyRow is one strategy's persisted line in a run.
type StrategyRow struct {
	sim.Summary
	Top2       int               `json:"top2"`
	TotalScore int               `json:"total_score"`
	Elo        *float64          `json:"elo,omitempty"`
	Glicko     *float64          `json:"glicko,omitempty"`
	GlickoRD   *float64          `json:"glicko_rd,omitempty"`
	GlickoSig  *float64          `json:"glicko_sigma,omitempty"`
	Audit      sim.StrategyAudit `json:"audit"`
	Faults     engine.Faults     `json:"faults"`
}

type RunDetail struct {
	RunInfo
	Chart      engine.ValueChart                      `json:"chart"`
	Trinkets   []engine.TrinketObjective              `json:"trinkets"`
	Actions    map[engine.ActionKind]*sim.ActionAudit `json:"actions"`
	Strategies []StrategyRow                          `json:"strategies"`
}

type LeaderRow struct {
	Name     string   `json:"name"`
	Runs     int      `json:"runs"`
	Games    int      `json:"games"`
	Wins     int      `json:"wins"`
	WinRate  float64  `json:"win_rate"`
	AvgScore float64  `json:"avg_score"`
	Glicko   *float64 `json:"glicko,omitempty"`
}

// strategyRows joins summaries, ratings and audits by name, in summary order.
func strategyRows(run Run) []StrategyRow {
	byName := make(map[string]rating.Row, len(run.Ratings))
	for _, r := range run.Ratings {
		byName[r.Name] = r
	}
	out := make([]StrategyRow, 0, len(run.Summaries))
	for _, s := range run.Summaries {
		row := StrategyRow{Summary: s}
		if st := run.Result.PerStrategy[s.Name]; st != nil {
			row.Top2 = st.Top2
			row.TotalScore = st.TotalScore
		}
		if a := run.Result.Strategies[s.Name]; a != nil {
			row.Audit = *a
		}
		row.Faults = run.Result.Faults[s.Name]
		if r, ok := byName[s.Name]; ok {
			elo, g, rd, sig := r.Elo, r.Glicko, r.RD, r.Sigma
			row.Elo, row.Glicko, row.GlickoRD, row.GlickoSig = &elo, &g, &rd, &sig
		}
		out = append(out, row)
	}
	return out
}

/* -----------------------------
   Writes
------------------------------*/

// SaveRun writes the run, its strategy lines and every game log atomically.
func (db *DB) SaveRun(ctx context.Context, run Run) (uuid.UUID, error) {
	if run.Result == nil {
		return uuid.Nil, errors.New("store: run has no result")
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	res := run.Result

	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx) // safe if already committed

	if _, err := tx.Exec(ctx, `
		INSERT INTO sim_runs(id, seed, games, players_per_game, chart, trinkets, actions)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, run.ID.String(), res.Seed, len(res.GameLogs), res.PlayersPerGame, res.Chart, res.Trinkets, res.Actions); err != nil {
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}

	b := &pgx.Batch{}
	for _, s := range strategyRows(run) {
		b.Queue(`
			INSERT INTO sim_run_strategies(
				run_id, name, games, wins, top2, total_score,
				win_rate, avg_rank, avg_score, median_score, stddev_score,
				min_score, max_score, win_ci_low, win_ci_high,
				elo, g_rating, g_rd, g_sigma, audit, faults
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
		`, run.ID.String(), s.Name, s.Games, s.Wins, s.Top2, s.TotalScore,
			s.WinRate, s.AvgRank, s.AvgScore, s.MedianScore, s.StdDevScore,
			s.MinScore, s.MaxScore, s.WinCI[0], s.WinCI[1],
			s.Elo, s.Glicko, s.GlickoRD, s.GlickoSig, s.Audit, s.Faults)
	}
	for _, g := range res.GameLogs {
		b.Queue(`
			INSERT INTO sim_games(run_id, game_index, seed, seating, final_scores, winner, turns, exhausted)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, run.ID.String(), g.GameIndex, g.Seed, g.Seating, g.FinalScores, g.Winner, g.Turns, g.Exhausted)
	}
	br := tx.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return uuid.Nil, fmt.Errorf("batch insert %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return uuid.Nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return run.ID, nil
}

/* -----------------------------
   Reads
------------------------------*/

func (db *DB) ListRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(ctx, `
		SELECT id::text, created_at, seed, games, players_per_game
		  FROM sim_runs
		 ORDER BY created_at DESC
		 LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []RunInfo{}
	for rows.Next() {
		ri, err := scanRunInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ri)
	}
	return out, rows.Err()
}

func scanRunInfo(row pgx.Row, extra ...any) (RunInfo, error) {
	var ri RunInfo
	var id string
	dest := append([]any{&id, &ri.CreatedAt, &ri.Seed, &ri.Games, &ri.PlayersPerGame}, extra...)
	if err := row.Scan(dest...); err != nil {
		return RunInfo{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return RunInfo{}, err
	}
	ri.ID = parsed
	return ri, nil
}

func (db *DB) GetRun(ctx context.Context, id uuid.UUID) (RunDetail, error) {
	var d RunDetail
	ri, err := scanRunInfo(db.QueryRow(ctx, `
		SELECT id::text, created_at, seed, games, players_per_game, chart, trinkets, actions
		  FROM sim_runs WHERE id = $1
	`, id.String()), &d.Chart, &d.Trinkets, &d.Actions)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RunDetail{}, ErrNotFound
		}
		return RunDetail{}, err
	}
	d.RunInfo = ri

	rows, err := db.Query(ctx, `
		SELECT name, games, wins, top2, total_score,
		       win_rate, avg_rank, avg_score, median_score, stddev_score,
		       min_score, max_score, win_ci_low, win_ci_high,
		       elo, g_rating, g_rd, g_sigma, audit, faults
		  FROM sim_run_strategies
		 WHERE run_id = $1
		 ORDER BY win_rate DESC, avg_score DESC
	`, id.String())
	if err != nil {
		return RunDetail{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var s StrategyRow
		if err := rows.Scan(&s.Name, &s.Games, &s.Wins, &s.Top2, &s.TotalScore,
			&s.WinRate, &s.AvgRank, &s.AvgScore, &s.MedianScore, &s.StdDevScore,
			&s.MinScore, &s.MaxScore, &s.WinCI[0], &s.WinCI[1],
			&s.Elo, &s.Glicko, &s.GlickoRD, &s.GlickoSig, &s.Audit, &s.Faults); err != nil {
			return RunDetail{}, err
		}
		if s.Games > 0 {
			s.Top2Rate = float64(s.Top2) / float64(s.Games)
		}
		d.Strategies = append(d.Strategies, s)
	}
	return d, rows.Err()
}

func (db *DB) ListGames(ctx context.Context, runID uuid.UUID, limit, offset int) ([]sim.GameLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := db.Query(ctx, `
		SELECT game_index, seed, seating, final_scores, winner, turns, exhausted
		  FROM sim_games
		 WHERE run_id = $1
		 ORDER BY game_index
		 LIMIT $2 OFFSET $3
	`, runID.String(), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []sim.GameLog{}
	for rows.Next() {
		var g sim.GameLog
		if err := rows.Scan(&g.GameIndex, &g.Seed, &g.Seating, &g.FinalScores, &g.Winner, &g.Turns, &g.Exhausted); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Leaderboard aggregates every stored run per strategy name; the Glicko column is
// the strategy's rating in its most recent run.
func (db *DB) Leaderboard(ctx context.Context, limit int) ([]LeaderRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(ctx, `
		WITH latest AS (
			SELECT DISTINCT ON (s.name) s.name, s.g_rating
			  FROM sim_run_strategies s
			  JOIN sim_runs r ON r.id = s.run_id
			 ORDER BY s.name, r.created_at DESC
		)
		SELECT s.name,
		       COUNT(*)::int,
		       SUM(s.games)::int,
		       SUM(s.wins)::int,
		       COALESCE(SUM(s.wins)::float8 / NULLIF(SUM(s.games), 0), 0),
		       COALESCE(SUM(s.total_score)::float8 / NULLIF(SUM(s.games), 0), 0),
		       l.g_rating
		  FROM sim_run_strategies s
		  JOIN latest l ON l.name = s.name
		 GROUP BY s.name, l.g_rating
		 ORDER BY 5 DESC, 6 DESC
		 LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LeaderRow{}
	for rows.Next() {
		var lr LeaderRow
		if err := rows.Scan(&lr.Name, &lr.Runs, &lr.Games, &lr.Wins, &lr.WinRate, &lr.AvgScore, &lr.Glicko); err != nil {
			return nil, err
		}
		out = append(out, lr)
	}
	return out, rows.Err()
}
