package sim

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/aleehealey/alphagem/server/engine"
)

var (
	ErrPlayersPerGame = errors.New("sim: players per game must be 3-5")
	ErrPoolTooSmall   = errors.New("sim: not enough entries for players per game")
	ErrDuplicateName  = errors.New("sim: duplicate entry name")
	ErrNoFactory      = errors.New("sim: entry has no factory")
	ErrGames          = errors.New("sim: game count must not be negative")
)

// Entry is a named strategy factory. New is called once per game and seat with a
// seed derived from the game seed, and must return a fresh instance.
type Entry struct {
	Name string
	New  func(seed int64) engine.Strategy
}

type Options struct {
	// PlayersPerGame defaults to the pool size. With a larger pool each game
	// samples that many entries uniformly.
	PlayersPerGame int
	Seed           int64
	// ConfigFor builds the engine config of one game; default engine.Config{Seed: gameSeed}.
	ConfigFor func(gameSeed int64) engine.Config
	Chart     engine.ValueChart
	// Trinkets defaults to DefaultTrinkets drawn once from the batch RNG.
	Trinkets     []engine.TrinketObjective
	VerboseEvery int
	// Workers bounds concurrent games; <= 1 runs serially. Results do not depend on it.
	Workers int
	Logger  *zap.Logger
}

// StrategyStats is the per-entry aggregate of a batch.
type StrategyStats struct {
	Games      int   `json:"games"`
	Wins       int   `json:"wins"`
	Top2       int   `json:"top2"`
	TotalScore int   `json:"total_score"`
	Scores     []int `json:"scores"`
	Ranks      []int `json:"ranks"`
}

type ScoreLine struct {
	PlayerID int    `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

type GameLog struct {
	GameIndex   int         `json:"game_index"`
	Seed        int64       `json:"seed"`
	Seating     []string    `json:"seating"`
	FinalScores []ScoreLine `json:"final_scores"`
	Winner      string      `json:"winner"`
	Turns       int         `json:"turns"`
	Exhausted   bool        `json:"exhausted,omitempty"`
}

type Result struct {
	// Names lists entries in the order they were given.
	Names       []string                  `json:"names"`
	PerStrategy map[string]*StrategyStats `json:"per_strategy"`
	GameLogs    []GameLog                 `json:"game_logs"`

	Actions    map[engine.ActionKind]*ActionAudit `json:"actions"`
	Strategies map[string]*StrategyAudit          `json:"strategies"`
	Faults     map[string]engine.Faults           `json:"faults"`

	PlayersPerGame int                       `json:"players_per_game"`
	Seed           int64                     `json:"seed"`
	Chart          engine.ValueChart         `json:"chart"`
	Trinkets       []engine.TrinketObjective `json:"trinkets"`
}

// gamePlan is everything decided up front, in order, from the batch RNG.
type gamePlan struct {
	index   int
	seed    int64
	seating []Entry
}

// Run plays nGames and aggregates them. The batch RNG is consumed serially while
// planning, so the logs are identical for any Workers value.
func Run(ctx context.Context, entries []Entry, nGames int, opts Options) (*Result, error) {
	if nGames < 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrGames, nGames)
	}
	k := opts.PlayersPerGame
	if k == 0 {
		k = len(entries)
	}
	if k < engine.MinPlayers || k > engine.MaxPlayers {
		return nil, fmt.Errorf("%w (got %d)", ErrPlayersPerGame, k)
	}
	if len(entries) < k {
		return nil, fmt.Errorf("%w: %d entries, %d seats", ErrPoolTooSmall, len(entries), k)
	}
	seen := make(map[string]bool, len(entries))
	for _, en := range entries {
		if seen[en.Name] {
			return nil, fmt.Errorf("%w %q", ErrDuplicateName, en.Name)
		}
		if en.New == nil {
			return nil, fmt.Errorf("%w: %q", ErrNoFactory, en.Name)
		}
		seen[en.Name] = true
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	rng := rand.New(rand.NewSource(uint64(opts.Seed)))
	chart := opts.Chart
	if chart == nil {
		chart = DefaultValueChart()
	}
	trinkets := opts.Trinkets
	if trinkets == nil {
		trinkets = DefaultTrinkets(rng)
	}
	configFor := opts.ConfigFor
	if configFor == nil {
		configFor = func(seed int64) engine.Config { return engine.Config{Seed: seed} }
	}

	plans := make([]gamePlan, nGames)
	for g := range plans {
		p := gamePlan{index: g, seed: rng.Int63n(1_000_000_000)}
		if len(entries) == k {
			p.seating = append([]Entry(nil), entries...)
		} else {
			for _, i := range rng.Perm(len(entries))[:k] {
				p.seating = append(p.seating, entries[i])
			}
		}
		rng.Shuffle(len(p.seating), func(i, j int) { p.seating[i], p.seating[j] = p.seating[j], p.seating[i] })
		plans[g] = p
	}

	results := make([]engine.Outcome, nGames)
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range plans {
		if gctx.Err() != nil {
			break
		}
		i := i
		eg.Go(func() error {
			out, err := playOne(gctx, plans[i], configFor, chart, trinkets, log)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		PerStrategy:    make(map[string]*StrategyStats, len(entries)),
		Actions:        map[engine.ActionKind]*ActionAudit{},
		Strategies:     make(map[string]*StrategyAudit, len(entries)),
		Faults:         make(map[string]engine.Faults, len(entries)),
		PlayersPerGame: k,
		Seed:           opts.Seed,
		Chart:          chart,
		Trinkets:       trinkets,
	}
	for _, en := range entries {
		res.Names = append(res.Names, en.Name)
		res.PerStrategy[en.Name] = &StrategyStats{}
		res.Strategies[en.Name] = &StrategyAudit{}
	}
	for i, p := range plans {
		gl := res.fold(p, results[i])
		if opts.VerboseEvery > 0 && (i+1)%opts.VerboseEvery == 0 {
			log.Info("game finished",
				zap.Int("game", i+1),
				zap.Int("of", nGames),
				zap.String("winner", gl.Winner),
				zap.Strings("seating", gl.Seating),
			)
		}
	}
	finalizeAudit(res.Actions, res.Strategies)
	return res, nil
}

func playOne(ctx context.Context, p gamePlan, configFor func(int64) engine.Config, chart engine.ValueChart, trinkets []engine.TrinketObjective, log *zap.Logger) (engine.Outcome, error) {
	strategies := make([]engine.Strategy, len(p.seating))
	names := make([]string, len(p.seating))
	for seat, en := range p.seating {
		strategies[seat] = en.New(p.seed + int64(seat))
		names[seat] = en.Name
	}
	e, err := engine.New(strategies, configFor(p.seed), chart, trinkets,
		engine.WithNames(names),
		engine.WithLogger(log.With(zap.Int("game", p.index))),
	)
	if err != nil {
		return engine.Outcome{}, fmt.Errorf("game %d: %w", p.index, err)
	}
	return e.Play(ctx)
}

// fold adds one game to the aggregates and returns its log.
func (r *Result) fold(p gamePlan, out engine.Outcome) GameLog {
	seating := make([]string, len(p.seating))
	for i, en := range p.seating {
		seating[i] = en.Name
	}
	gl := GameLog{
		GameIndex: p.index,
		Seed:      p.seed,
		Seating:   seating,
		Turns:     out.Turns,
		Exhausted: out.Exhausted,
	}
	for rank, s := range out.FinalScores {
		gl.FinalScores = append(gl.FinalScores, ScoreLine{PlayerID: s.PlayerID, Name: s.Name, Score: s.Score})
		st := r.PerStrategy[seating[s.PlayerID]]
		st.Games++
		st.Scores = append(st.Scores, s.Score)
		st.Ranks = append(st.Ranks, rank+1)
		st.TotalScore += s.Score
		if s.PlayerID == out.WinnerID {
			st.Wins++
			gl.Winner = seating[s.PlayerID]
		}
		if rank < 2 {
			st.Top2++
		}
	}
	for pid, f := range out.Faults {
		tot := r.Faults[seating[pid]]
		tot.Add(f)
		r.Faults[seating[pid]] = tot
	}
	auditGame(out, seating, r.Actions, r.Strategies)
	r.GameLogs = append(r.GameLogs, gl)
	return gl
}
