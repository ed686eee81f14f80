package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/aleehealey/alphagem/server/agent"
	"github.com/aleehealey/alphagem/server/config"
	"github.com/aleehealey/alphagem/server/engine"
	"github.com/aleehealey/alphagem/server/rating"
	"github.com/aleehealey/alphagem/server/sim"
	"github.com/aleehealey/alphagem/server/store"
)

// batchParams is one batch request, from the CLI env or POST /api/runs.
type batchParams struct {
	Strategies   []string `json:"strategies"`
	Games        int      `json:"games"`
	Players      int      `json:"players"`
	Seed         int64    `json:"seed"`
	Workers      int      `json:"-"`
	VerboseEvery int      `json:"-"`
}

var errBadBatch = errors.New("bad batch request")

// defaultTable seats pools larger than a table when no size was asked for.
const defaultTable = 4

// batchRunner plays a batch and derives everything a report or the store needs.
type batchRunner struct {
	setup *config.EngineFile
	log   *zap.Logger
}

func (b batchRunner) run(ctx context.Context, p batchParams) (store.Run, error) {
	if p.Games <= 0 {
		return store.Run{}, fmt.Errorf("%w: games must be positive", errBadBatch)
	}
	entries, err := agent.Entries(p.Strategies)
	if err != nil {
		return store.Run{}, fmt.Errorf("%w: %v", errBadBatch, err)
	}
	if p.Players == 0 && len(entries) > engine.MaxPlayers {
		p.Players = defaultTable
	}
	if p.Workers <= 0 {
		p.Workers = runtime.NumCPU()
	}
	opts := sim.Options{
		PlayersPerGame: p.Players,
		Seed:           p.Seed,
		Workers:        p.Workers,
		VerboseEvery:   p.VerboseEvery,
		Logger:         b.log,
	}
	if ef := b.setup; ef != nil {
		opts.ConfigFor = ef.ConfigFor
		opts.Chart = ef.Chart()
		if opts.Trinkets, err = ef.TrinketSet(); err != nil {
			return store.Run{}, err
		}
	}

	res, err := sim.Run(ctx, entries, p.Games, opts)
	if err != nil {
		if errors.Is(err, sim.ErrPlayersPerGame) || errors.Is(err, sim.ErrPoolTooSmall) || errors.Is(err, sim.ErrDuplicateName) {
			return store.Run{}, fmt.Errorf("%w: %v", errBadBatch, err)
		}
		return store.Run{}, err
	}
	return store.Run{
		Result:    res,
		Summaries: sim.Report(res),
		Ratings:   ratingsFor(res),
	}, nil
}

// ratingsFor rates strategies over the batch in game order.
func ratingsFor(res *sim.Result) []rating.Row {
	games := make([]rating.Game, 0, len(res.GameLogs))
	for _, g := range res.GameLogs {
		places := make([]rating.Place, 0, len(g.FinalScores))
		for _, s := range g.FinalScores {
			places = append(places, rating.Place{Name: s.Name, Score: s.Score})
		}
		games = append(games, rating.Game{Places: places})
	}
	return rating.FromGames(games)
}
