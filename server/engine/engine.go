package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

type phase uint8

const (
	phaseDraw phase = iota
	phaseBidding
	phaseReveal
	phaseEnded
)

type playerState struct {
	id            int
	name          string
	cash          int
	gems          []Card
	loans         []LoanPosition
	investments   []InvestmentPosition
	revealed      []Card
	unrevealed    []Card
	trinketPoints int
}

// Engine owns the full mutable state of one game. It is not safe for concurrent use;
// run one Engine per goroutine.
type Engine struct {
	cfg     Config
	rng     *rand.Rand
	log     *zap.Logger
	names   []string
	players []*playerState
	seats   []seat

	gemPile    []Card // facedown, top is the end
	upcoming   []Card // face-up row, 0..2
	gemDiscard []Card // gems thrown away by all-pass

	actionPile      []Action
	actionDiscard   []Action
	actionRemaining map[ActionKind]int

	seating     []int
	leader      int
	trinkets    []TrinketState
	chart       ValueChart
	infoAtStart [NumSuits]int
	history     []AuctionResult

	phase     phase
	turn      int // index of the current (or last) turn
	turns     int // turns resolved so far
	current   Action
	bids      []int
	reveal    int // player owing a reveal, or NoPlayer
	greeted   bool
	exhausted bool
}

type Option func(*Engine)

// WithLogger routes strategy-fault diagnostics to l.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithNames overrides the display names (default: each strategy's Name()).
func WithNames(names []string) Option {
	return func(e *Engine) { e.names = append([]string(nil), names...) }
}

// New deals a fresh game. Everything random derives from cfg.Seed.
func New(strategies []Strategy, cfg Config, chart ValueChart, trinkets []TrinketObjective, opts ...Option) (*Engine, error) {
	cfg = cfg.withDefaults()
	n := len(strategies)
	if err := cfg.validate(n); err != nil {
		return nil, err
	}
	if err := checkDeckCanFinish(cfg); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		rng:    newRNG(cfg.Seed),
		log:    zap.NewNop(),
		chart:  append(ValueChart(nil), chart...),
		reveal: NoPlayer,
	}
	for _, o := range opts {
		o(e)
	}
	if e.names == nil {
		for _, s := range strategies {
			e.names = append(e.names, s.Name())
		}
	}
	if len(e.names) != n {
		return nil, fmt.Errorf("%w (%d names, %d strategies)", ErrNameCount, len(e.names), n)
	}

	cash := cfg.StartingCash[n]
	for i, s := range strategies {
		e.seats = append(e.seats, seat{strategy: s})
		e.players = append(e.players, &playerState{id: i, name: e.names[i], cash: cash})
	}

	gems := NewGemDeck(cfg.GemsPerSuit)
	actions := NewActionDeck(cfg.ActionCounts)
	shuffleCards(e.rng, gems)
	shuffleActions(e.rng, actions)

	deal := cfg.InfoCardsPerPlayer[n]
	for _, p := range e.players {
		for i := 0; i < deal; i++ {
			p.unrevealed = append(p.unrevealed, popCard(&gems))
		}
		for _, c := range p.unrevealed {
			e.infoAtStart[c.Suit]++
		}
	}

	e.gemPile = gems
	e.refillUpcoming()

	e.seating = make([]int, n)
	for i := range e.seating {
		e.seating[i] = i
	}
	e.leader = e.seating[e.rng.Intn(n)]

	e.actionPile = actions
	e.actionRemaining = make(map[ActionKind]int, len(ActionKinds))
	for _, k := range ActionKinds {
		e.actionRemaining[k] = cfg.ActionCounts[k]
	}

	for _, t := range trinkets {
		t.RequiredCards = cloneCards(t.RequiredCards)
		e.trinkets = append(e.trinkets, TrinketState{Objective: t, ClaimedBy: NoPlayer})
	}
	return e, nil
}

// checkDeckCanFinish rejects non-empty action decks that could never sell the
// last single gem, which would loop forever on loans and investments.
func checkDeckCanFinish(cfg Config) error {
	total := 0
	for _, n := range cfg.ActionCounts {
		total += n
	}
	if total == 0 {
		return nil
	}
	if cfg.ActionCounts[Auction1] > 0 {
		return nil
	}
	if cfg.ActionCounts[Auction2] > 0 && !cfg.SkipAuction2IfInsufficientGems {
		return nil
	}
	return fmt.Errorf("%w: action deck cannot sell the last gem", ErrConfiguration)
}

// Play runs the game to the end, driving every strategy through the step API.
// Only ctx cancellation makes it fail; strategy faults never do.
func (e *Engine) Play(ctx context.Context) (Outcome, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		_, ok, err := e.BeginTurn()
		if err != nil {
			return Outcome{}, err
		}
		if !ok {
			break
		}
		if !e.greeted {
			e.greeted = true
			e.notifyGameStart(ctx)
		}

		for pid := range e.seats {
			if _, err := e.CollectBid(pid, e.askBid(ctx, pid)); err != nil {
				return Outcome{}, err
			}
		}
		res, err := e.ResolveTurn()
		if err != nil {
			return Outcome{}, err
		}
		e.notifyResolved(ctx, res)

		if pid, owed := e.PendingReveal(); owed {
			if _, err := e.ApplyReveal(e.askReveal(ctx, pid, res)); err != nil {
				return Outcome{}, err
			}
		}
	}
	e.notifyGameEnd(ctx)
	return e.Finish()
}

// ---- turn helpers ----

func (e *Engine) refillUpcoming() {
	for len(e.upcoming) < 2 && len(e.gemPile) > 0 {
		e.upcoming = append(e.upcoming, popCard(&e.gemPile))
	}
}

// takeUpcoming removes up to k gems from the front of the row.
func (e *Engine) takeUpcoming(k int) []Card {
	if k > len(e.upcoming) {
		k = len(e.upcoming)
	}
	out := append([]Card(nil), e.upcoming[:k]...)
	e.upcoming = append(e.upcoming[:0], e.upcoming[k:]...)
	return out
}

func (e *Engine) skippable(a Action) bool {
	switch a.Kind {
	case Auction1:
		return len(e.upcoming) < 1
	case Auction2:
		return e.cfg.SkipAuction2IfInsufficientGems && len(e.upcoming) < 2
	}
	return false
}

func (e *Engine) legalize(pid, amt int) (int, bool) {
	if amt < 0 || amt > e.players[pid].cash {
		return 0, false
	}
	return amt, true
}

// tieBreak scans clockwise starting right after leader; leader is scanned last.
func tieBreak(seating []int, tied []int, leader int) int {
	in := make(map[int]bool, len(tied))
	for _, p := range tied {
		in[p] = true
	}
	start := 0
	for i, p := range seating {
		if p == leader {
			start = i + 1
			break
		}
	}
	for k := 0; k < len(seating); k++ {
		p := seating[(start+k)%len(seating)]
		if in[p] {
			return p
		}
	}
	return tied[0]
}

// resolveWinner returns the winner (NoPlayer for an all-pass discard) and the price.
func (e *Engine) resolveWinner(bids []int) (int, int) {
	top := 0
	for _, b := range bids {
		if b > top {
			top = b
		}
	}
	if top == 0 && e.cfg.DiscardOnAllPass {
		return NoPlayer, 0
	}
	var tied []int
	for pid, b := range bids {
		if b == top {
			tied = append(tied, pid)
		}
	}
	if len(tied) == 1 {
		return tied[0], top
	}
	return tieBreak(e.seating, tied, e.leader), top
}

// applyEffect carries out the current action for winner; it returns the gems sold.
func (e *Engine) applyEffect(winner, bid int) ([]Card, error) {
	kind := e.current.Kind
	switch {
	case kind.IsAuction():
		gems := e.takeUpcoming(kind.GemCount())
		if winner != NoPlayer {
			e.players[winner].gems = append(e.players[winner].gems, gems...)
		} else {
			e.gemDiscard = append(e.gemDiscard, gems...)
		}
		e.refillUpcoming()
		return gems, nil
	case kind.IsLoan():
		if winner != NoPlayer {
			p := e.players[winner]
			p.cash += kind.Principal()
			p.loans = append(p.loans, LoanPosition{ID: fmt.Sprintf("L%d", e.turn), Principal: kind.Principal(), WinningBid: bid})
		}
		return nil, nil
	case kind.IsInvestment():
		if winner != NoPlayer {
			p := e.players[winner]
			p.investments = append(p.investments, InvestmentPosition{ID: fmt.Sprintf("I%d", e.turn), Payout: kind.Payout(), Locked: bid})
		}
		return nil, nil
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownAction, kind)
}

// awardTrinkets claims, in declaration order, every open trinket winner now satisfies.
func (e *Engine) awardTrinkets(winner int) []string {
	if winner == NoPlayer {
		return nil
	}
	p := e.players[winner]
	var claimed []string
	for i := range e.trinkets {
		t := &e.trinkets[i]
		if t.Claimed() || !ObjectiveSatisfied(t.Objective, p.gems) {
			continue
		}
		t.ClaimedBy = winner
		p.trinketPoints += t.Objective.Points
		claimed = append(claimed, t.Objective.ID)
	}
	return claimed
}

func (e *Engine) unrevealedIndex(pid int, id string) (int, bool) {
	for i, c := range e.players[pid].unrevealed {
		if c.ID == id {
			return i, true
		}
	}
	return 0, false
}
