package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Strategy is a bot seated in one game. The engine never trusts it: errors, panics,
// out-of-range values and (with Config.StrategyTimeout) slow calls all fall back to
// a safe default.
type Strategy interface {
	// Name must stay constant for the instance's lifetime.
	Name() string
	// Bid returns the sealed bid for the current action; 0 passes.
	Bid(ctx context.Context, obs Observation) (int, error)
	// ChooseReveal is called only after a win while unrevealed info cards remain.
	// It returns the id of one of obs.Private.Unrevealed.
	ChooseReveal(ctx context.Context, obs Observation, res AuctionResult) (string, error)
}

// Optional hooks, dispatched when a Strategy also implements them.
type (
	GameStarter interface {
		OnGameStart(ctx context.Context, obs Observation) error
	}
	AuctionWatcher interface {
		OnAuctionResolved(ctx context.Context, obs Observation, res AuctionResult) error
	}
	GameEnder interface {
		OnGameEnd(ctx context.Context, obs Observation) error
	}
)

// Faults counts strategy misbehaviour that the engine absorbed. Timeout calls are
// also counted under the callback they interrupted.
type Faults struct {
	Bid     int `json:"bid"`
	Reveal  int `json:"reveal"`
	Hook    int `json:"hook"`
	Timeout int `json:"timeout"`
}

func (f Faults) Total() int { return f.Bid + f.Reveal + f.Hook }

func (f *Faults) Add(o Faults) {
	f.Bid += o.Bid
	f.Reveal += o.Reveal
	f.Hook += o.Hook
	f.Timeout += o.Timeout
}

var (
	errStrategyTimeout = errors.New("strategy call timed out")
	errBenched         = errors.New("strategy benched after timeout")
)

type seat struct {
	strategy Strategy
	faults   Faults
	// benched after a timeout; every later call short-circuits to the default.
	benched bool
}

// call invokes fn for player pid behind the fault boundary.
func (e *Engine) call(ctx context.Context, pid int, callback string, fn func(context.Context) error) error {
	s := &e.seats[pid]
	if s.benched {
		return errBenched
	}
	err := guard(ctx, e.cfg.StrategyTimeout, fn)
	if err == nil {
		return nil
	}
	if errors.Is(err, errStrategyTimeout) {
		s.faults.Timeout++
		s.benched = true
	}
	e.log.Debug("strategy fault",
		zap.Int("player", pid),
		zap.String("strategy", e.names[pid]),
		zap.String("callback", callback),
		zap.Error(err),
	)
	return err
}

func guard(ctx context.Context, timeout time.Duration, fn func(context.Context) error) error {
	if timeout <= 0 {
		return protect(ctx, fn)
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- protect(cctx, fn) }()
	var err error
	select {
	case err = <-done:
	case <-cctx.Done():
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if cctx.Err() != nil {
		return errStrategyTimeout
	}
	return err
}

func protect(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy panic: %v", r)
		}
	}()
	return fn(ctx)
}

// askBid returns the legalized bid of pid: anything outside [0, cash] is 0.
func (e *Engine) askBid(ctx context.Context, pid int) int {
	var amt int
	obs := e.observe(pid)
	err := e.call(ctx, pid, "bid", func(ctx context.Context) error {
		v, err := e.seats[pid].strategy.Bid(ctx, obs)
		amt = v
		return err
	})
	if errors.Is(err, errBenched) {
		return 0
	}
	if err != nil {
		e.seats[pid].faults.Bid++
		return 0
	}
	legal, ok := e.legalize(pid, amt)
	if !ok {
		e.seats[pid].faults.Bid++
	}
	return legal
}

// askReveal returns the card id pid wants revealed, or "" to take the fallback.
func (e *Engine) askReveal(ctx context.Context, pid int, res AuctionResult) string {
	var id string
	obs := e.observe(pid)
	err := e.call(ctx, pid, "reveal", func(ctx context.Context) error {
		v, err := e.seats[pid].strategy.ChooseReveal(ctx, obs, res.clone())
		id = v
		return err
	})
	if errors.Is(err, errBenched) {
		return ""
	}
	if err != nil {
		e.seats[pid].faults.Reveal++
		return ""
	}
	if _, ok := e.unrevealedIndex(pid, id); !ok {
		e.seats[pid].faults.Reveal++
		return ""
	}
	return id
}

// hook runs an optional no-result callback.
func (e *Engine) hook(ctx context.Context, pid int, name string, fn func(context.Context) error) {
	err := e.call(ctx, pid, name, fn)
	if err != nil && !errors.Is(err, errBenched) {
		e.seats[pid].faults.Hook++
	}
}

func (e *Engine) notifyGameStart(ctx context.Context) {
	for pid := range e.seats {
		gs, ok := e.seats[pid].strategy.(GameStarter)
		if !ok {
			continue
		}
		obs := e.observe(pid)
		e.hook(ctx, pid, "game_start", func(ctx context.Context) error { return gs.OnGameStart(ctx, obs) })
	}
}

func (e *Engine) notifyResolved(ctx context.Context, res AuctionResult) {
	for pid := range e.seats {
		aw, ok := e.seats[pid].strategy.(AuctionWatcher)
		if !ok {
			continue
		}
		obs := e.observe(pid)
		e.hook(ctx, pid, "auction_resolved", func(ctx context.Context) error { return aw.OnAuctionResolved(ctx, obs, res.clone()) })
	}
}

func (e *Engine) notifyGameEnd(ctx context.Context) {
	for pid := range e.seats {
		ge, ok := e.seats[pid].strategy.(GameEnder)
		if !ok {
			continue
		}
		obs := e.observe(pid)
		e.hook(ctx, pid, "game_end", func(ctx context.Context) error { return ge.OnGameEnd(ctx, obs) })
	}
}
