package engine

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/exp/rand"
)

// ---- test strategies ----

type fixedBot struct {
	name string
	bid  int
}

func (b fixedBot) Name() string { return b.name }

func (b fixedBot) Bid(_ context.Context, obs Observation) (int, error) {
	if b.bid > LegalMaxBid(obs) {
		return 0, nil
	}
	return b.bid, nil
}

func (b fixedBot) ChooseReveal(_ context.Context, obs Observation, _ AuctionResult) (string, error) {
	return obs.Private.Unrevealed[0].ID, nil
}

type randomBot struct {
	r *rand.Rand
}

func newRandomBot(seed uint64) *randomBot { return &randomBot{r: rand.New(rand.NewSource(seed))} }

func (b *randomBot) Name() string { return "random" }

func (b *randomBot) Bid(_ context.Context, obs Observation) (int, error) {
	if b.r.Intn(3) == 0 {
		return 0, nil
	}
	return b.r.Intn(LegalMaxBid(obs) + 1), nil
}

func (b *randomBot) ChooseReveal(_ context.Context, obs Observation, _ AuctionResult) (string, error) {
	u := obs.Private.Unrevealed
	return u[b.r.Intn(len(u))].ID, nil
}

// funcBot lets a test script every callback.
type funcBot struct {
	bid    func(ctx context.Context, obs Observation) (int, error)
	reveal func(ctx context.Context, obs Observation) (string, error)
}

func (b *funcBot) Name() string { return "func" }

func (b *funcBot) Bid(ctx context.Context, obs Observation) (int, error) {
	if b.bid == nil {
		return 0, nil
	}
	return b.bid(ctx, obs)
}

func (b *funcBot) ChooseReveal(ctx context.Context, obs Observation, _ AuctionResult) (string, error) {
	if b.reveal == nil {
		return obs.Private.Unrevealed[0].ID, nil
	}
	return b.reveal(ctx, obs)
}

type hookBot struct {
	fixedBot
	starts, resolved, ends int
	endAction            Action
	sawTurns             []int
}

func (b *hookBot) OnGameStart(context.Context, Observation) error { b.starts++; return nil }

func (b *hookBot) OnAuctionResolved(_ context.Context, obs Observation, res AuctionResult) error {
	b.resolved++
	b.sawTurns = append(b.sawTurns, obs.Context.TurnIndex)
	if obs.Context.TurnIndex != res.TurnIndex {
		return errors.New("context turn does not match result")
	}
	return nil
}

func (b *hookBot) OnGameEnd(_ context.Context, obs Observation) error {
	b.ends++
	b.endAction = obs.Context.Action
	return nil
}

func randomBots(n int, seed uint64) []Strategy {
	out := make([]Strategy, n)
	for i := range out {
		out[i] = newRandomBot(seed + uint64(i)*7919)
	}
	return out
}

var testChart = ValueChart{0, 4, 8, 12, 16, 20, 24}

var testTrinkets = []TrinketObjective{
	{ID: "P2_SAME_RUBY", Points: 5, RequiredCards: []Card{{ID: "r1", Suit: Ruby}, {ID: "r2", Suit: Ruby}}},
	{ID: "P2_DIFF_SAPPHIRE_EMERALD", Points: 5, RequiredCards: []Card{{ID: "s", Suit: Sapphire}, {ID: "e", Suit: Emerald}}},
	{ID: "T3_AMETHYST_DIAMOND_RUBY", Points: 10, RequiredCards: []Card{{ID: "a", Suit: Amethyst}, {ID: "d", Suit: Diamond}, {ID: "r", Suit: Ruby}}},
}

// ---- invariants ----

func checkInvariants(t *testing.T, e *Engine) {
	t.Helper()
	seen := map[string]string{}
	mark := func(zone string, cs []Card) {
		for _, c := range cs {
			if prev, dup := seen[c.ID]; dup {
				t.Fatalf("card %s in both %s and %s", c.ID, prev, zone)
			}
			seen[c.ID] = zone
		}
	}
	mark("pile", e.gemPile)
	mark("upcoming", e.upcoming)
	mark("discard", e.gemDiscard)
	for _, p := range e.players {
		mark("owned", p.gems)
		mark("unrevealed", p.unrevealed)
		mark("revealed", p.revealed)
		if p.cash < 0 {
			t.Fatalf("player %d cash negative: %d", p.id, p.cash)
		}
	}
	if want := NumSuits * e.cfg.GemsPerSuit; len(seen) != want {
		t.Fatalf("conservation broken: %d cards tracked, want %d", len(seen), want)
	}
	pub := e.Public()
	for _, pp := range pub.Players {
		if pp.UnrevealedInfoCount != len(e.players[pp.PlayerID].unrevealed) {
			t.Fatalf("player %d unrevealed count mismatch", pp.PlayerID)
		}
	}
	if len(e.upcoming) > 2 {
		t.Fatalf("upcoming row too long: %d", len(e.upcoming))
	}
}

// playSteps drives e through the step API with strategies' bids, checking
// invariants at every turn boundary.
func playSteps(t *testing.T, e *Engine, strategies []Strategy) Outcome {
	t.Helper()
	ctx := context.Background()
	claimed := map[string]int{}
	for {
		checkInvariants(t, e)
		if _, ok, err := e.BeginTurn(); err != nil {
			t.Fatalf("begin: %v", err)
		} else if !ok {
			break
		}
		for pid, s := range strategies {
			obs, err := e.Observation(pid)
			if err != nil {
				t.Fatalf("observation: %v", err)
			}
			bid, _ := s.Bid(ctx, obs)
			if _, err := e.CollectBid(pid, bid); err != nil {
				t.Fatalf("collect: %v", err)
			}
		}
		res, err := e.ResolveTurn()
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if res.HasWinner() && res.WinningBid != res.Bids[res.WinnerID] {
			t.Fatalf("winner paid %d, bid %d", res.WinningBid, res.Bids[res.WinnerID])
		}
		if pid, owed := e.PendingReveal(); owed {
			obs, _ := e.Observation(pid)
			id, _ := strategies[pid].ChooseReveal(ctx, obs, res)
			if _, err := e.ApplyReveal(id); err != nil {
				t.Fatalf("reveal: %v", err)
			}
		}
		for _, tr := range e.trinkets {
			if prev, ok := claimed[tr.Objective.ID]; ok && prev != tr.ClaimedBy {
				t.Fatalf("trinket %s moved from %d to %d", tr.Objective.ID, prev, tr.ClaimedBy)
			}
			if tr.Claimed() {
				claimed[tr.Objective.ID] = tr.ClaimedBy
			}
		}
	}
	out, err := e.Finish()
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	return out
}

// ---- tests ----

func TestTieBreak(t *testing.T) {
	seating := []int{0, 1, 2}
	cases := []struct {
		tied   []int
		leader int
		want   int
	}{
		{[]int{1, 2}, 0, 1},
		{[]int{0, 2}, 0, 2},
		{[]int{0}, 0, 0},
		{[]int{0, 1, 2}, 2, 0},
		{[]int{0, 1}, 1, 0},
		{[]int{1, 2}, 1, 2},
	}
	for _, c := range cases {
		if got := tieBreak(seating, c.tied, c.leader); got != c.want {
			t.Fatalf("tied=%v leader=%d: got %d want %d", c.tied, c.leader, got, c.want)
		}
	}
}

func TestInvariantsAcrossSeeds(t *testing.T) {
	for _, discard := range []bool{false, true} {
		for seed := int64(0); seed < 40; seed++ {
			for n := MinPlayers; n <= MaxPlayers; n++ {
				cfg := Config{Seed: seed, DiscardOnAllPass: discard, SkipAuction2IfInsufficientGems: seed%2 == 0}
				bots := randomBots(n, uint64(seed))
				e, err := New(bots, cfg, testChart, testTrinkets)
				if err != nil {
					t.Fatalf("new: %v", err)
				}
				out := playSteps(t, e, bots)
				if out.Exhausted {
					t.Fatalf("seed %d: default deck exhausted", seed)
				}
				if len(out.History) != out.Turns {
					t.Fatalf("history %d != turns %d", len(out.History), out.Turns)
				}
			}
		}
	}
}

func TestScenarioSingleAggressiveBidder(t *testing.T) {
	cfg := Config{
		Seed:               3,
		GemsPerSuit:        1,
		InfoCardsPerPlayer: map[int]int{3: 0},
		StartingCash:       map[int]int{3: 1},
		ActionCounts:       map[ActionKind]int{Auction1: 3},
	}
	bots := []Strategy{fixedBot{"a", 0}, fixedBot{"b", 0}, fixedBot{"c", 1}}
	e, err := New(bots, cfg, testChart, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := e.Play(context.Background())
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	var winners []int
	for _, r := range out.History {
		winners = append(winners, r.WinnerID)
	}
	// player 2 wins the first sale outright, then 0-bid ties rotate clockwise from the last winner
	if want := []int{2, 0, 1, 2, 0}; !reflect.DeepEqual(winners, want) {
		t.Fatalf("winners = %v, want %v", winners, want)
	}
	if out.History[0].WinningBid != 1 {
		t.Fatalf("first sale price = %d", out.History[0].WinningBid)
	}
	p2, _ := out.FinalPublic.Player(2)
	if p2.Cash != 0 {
		t.Fatalf("player 2 cash = %d", p2.Cash)
	}
}

func TestScoreEqualsCashWithZeroChart(t *testing.T) {
	cfg := Config{Seed: 11, ActionCounts: map[ActionKind]int{Auction1: 12, Auction2: 5}}
	bots := randomBots(4, 11)
	e, err := New(bots, cfg, ValueChart{0}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := e.Play(context.Background())
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	for _, s := range out.FinalScores {
		p, _ := out.FinalPublic.Player(s.PlayerID)
		if s.Score != p.Cash {
			t.Fatalf("player %d score %d != cash %d", s.PlayerID, s.Score, p.Cash)
		}
	}
}

func TestScoreBreakdownMatchesPublicState(t *testing.T) {
	bots := randomBots(5, 99)
	e, err := New(bots, Config{Seed: 99}, testChart, testTrinkets)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := e.Play(context.Background())
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	for i := 1; i < len(out.FinalScores); i++ {
		if out.FinalScores[i-1].Score < out.FinalScores[i].Score {
			t.Fatalf("scores not descending: %+v", out.FinalScores)
		}
	}
	if out.WinnerID != out.FinalScores[0].PlayerID {
		t.Fatalf("winner %d, top %d", out.WinnerID, out.FinalScores[0].PlayerID)
	}
	for _, s := range out.FinalScores {
		p, _ := out.FinalPublic.Player(s.PlayerID)
		want := p.Cash + p.TrinketPoints
		for _, g := range p.GemsOwned {
			want += out.GemValues[g.Suit]
		}
		for _, inv := range p.Investments {
			want += inv.Payout + inv.Locked
		}
		for _, l := range p.Loans {
			want -= l.Principal
		}
		if s.Score != want || s.Breakdown.Total() != s.Score {
			t.Fatalf("player %d score %d, recomputed %d", s.PlayerID, s.Score, want)
		}
	}
}

func TestInvestmentIsCashNeutral(t *testing.T) {
	cfg := Config{Seed: 5, DiscardOnAllPass: true, ActionCounts: map[ActionKind]int{Invest5: 1, Auction1: 2}}
	investor := &funcBot{bid: func(_ context.Context, obs Observation) (int, error) {
		if obs.Context.Action.Kind == Invest5 && obs.Me.Cash >= 4 {
			return 4, nil
		}
		return 0, nil
	}}
	bots := []Strategy{investor, fixedBot{"p", 0}, fixedBot{"q", 0}}
	e, err := New(bots, cfg, ValueChart{0}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out := playSteps(t, e, bots)
	wins := 0
	for _, r := range out.History {
		if r.WinnerID == 0 {
			wins++
		}
	}
	if wins == 0 {
		t.Fatalf("investor never won")
	}
	s, _ := out.ScoreOf(0)
	if s.Breakdown.Cash != 30-4*wins {
		t.Fatalf("cash = %d, want %d", s.Breakdown.Cash, 30-4*wins)
	}
	if s.Score != 30+5*wins {
		t.Fatalf("score = %d, want %d", s.Score, 30+5*wins)
	}
}

func TestLoanIdsAndPrincipal(t *testing.T) {
	cfg := Config{Seed: 8, DiscardOnAllPass: true, ActionCounts: map[ActionKind]int{Loan20: 1, Auction1: 1}}
	borrower := &funcBot{bid: func(_ context.Context, obs Observation) (int, error) {
		if obs.Context.Action.Kind == Loan20 {
			return 1, nil
		}
		return 0, nil
	}}
	bots := []Strategy{fixedBot{"p", 0}, borrower, fixedBot{"q", 0}}
	e, err := New(bots, cfg, ValueChart{0}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out := playSteps(t, e, bots)
	p, _ := out.FinalPublic.Player(1)
	if len(p.Loans) == 0 {
		t.Fatalf("no loans taken")
	}
	for _, l := range p.Loans {
		if l.Principal != 20 || l.WinningBid != 1 || l.ID[0] != 'L' {
			t.Fatalf("bad loan %+v", l)
		}
	}
	s, _ := out.ScoreOf(1)
	if want := 30 - len(p.Loans); s.Score != want {
		t.Fatalf("score = %d, want %d", s.Score, want)
	}
}

func TestAllPassDiscard(t *testing.T) {
	cfg := Config{Seed: 2, DiscardOnAllPass: true}
	bots := []Strategy{fixedBot{"a", 0}, fixedBot{"b", 0}, fixedBot{"c", 0}}
	e, err := New(bots, cfg, testChart, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	leader := e.Context().TiebreakLeaderID
	out := playSteps(t, e, bots)
	if len(out.History) == 0 {
		t.Fatalf("no turns played")
	}
	for _, r := range out.History {
		if r.HasWinner() {
			t.Fatalf("turn %d had winner %d", r.TurnIndex, r.WinnerID)
		}
		if r.NewTiebreakLeaderID != leader {
			t.Fatalf("turn %d moved leader %d -> %d", r.TurnIndex, leader, r.NewTiebreakLeaderID)
		}
	}
	if out.FinalPublic.DiscardedGems != NumSuits*DefaultGemsPerSuit-3*5 {
		t.Fatalf("discarded %d", out.FinalPublic.DiscardedGems)
	}
}

func TestStrategyFaultsFallBack(t *testing.T) {
	calls := 0
	panicky := &funcBot{bid: func(context.Context, Observation) (int, error) { calls++; panic("boom") }}
	failing := &funcBot{
		bid:    func(context.Context, Observation) (int, error) { return 0, errors.New("nope") },
		reveal: func(context.Context, Observation) (string, error) { return "", errors.New("nope") },
	}
	greedy := &funcBot{
		bid:    func(_ context.Context, obs Observation) (int, error) { return obs.Me.Cash + 1, nil },
		reveal: func(context.Context, Observation) (string, error) { return "not-a-card", nil },
	}
	e, err := New([]Strategy{panicky, failing, greedy}, Config{Seed: 4}, testChart, testTrinkets)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := e.Play(context.Background())
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if out.Faults[0].Bid != calls || calls != out.Turns {
		t.Fatalf("panic faults = %d, calls %d, turns %d", out.Faults[0].Bid, calls, out.Turns)
	}
	if out.Faults[1].Bid != out.Turns {
		t.Fatalf("error faults = %d", out.Faults[1].Bid)
	}
	if out.Faults[2].Bid != out.Turns {
		t.Fatalf("overbid faults = %d", out.Faults[2].Bid)
	}
	for _, r := range out.History {
		for _, b := range r.Bids {
			if b != 0 {
				t.Fatalf("illegal bid survived: %v", r.Bids)
			}
		}
	}
}

// brittleNameBot answers Name once, at construction, and panics afterwards.
type brittleNameBot struct {
	funcBot
	named bool
}

func (b *brittleNameBot) Name() string {
	if b.named {
		panic("name exploded")
	}
	b.named = true
	return "brittle"
}

func TestFaultLoggingDoesNotCallName(t *testing.T) {
	brittle := &brittleNameBot{funcBot: funcBot{
		bid:    func(context.Context, Observation) (int, error) { return 0, errors.New("nope") },
		reveal: func(context.Context, Observation) (string, error) { return "", errors.New("nope") },
	}}
	e, err := New([]Strategy{brittle, fixedBot{"b", 1}, fixedBot{"c", 0}}, Config{Seed: 9}, testChart, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := e.Play(context.Background())
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if out.Faults[0].Bid != out.Turns {
		t.Fatalf("bid faults = %d, turns %d", out.Faults[0].Bid, out.Turns)
	}
}

func TestRevealFallbackTakesFirstCard(t *testing.T) {
	cfg := Config{Seed: 1, ActionCounts: map[ActionKind]int{Auction1: 4}}
	bots := []Strategy{fixedBot{"a", 1}, fixedBot{"b", 0}, fixedBot{"c", 0}}
	e, err := New(bots, cfg, testChart, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok, err := e.BeginTurn(); !ok || err != nil {
		t.Fatalf("begin: ok=%v err=%v", ok, err)
	}
	if _, err := e.CollectBid(0, 1); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if _, err := e.ResolveTurn(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	pid, owed := e.PendingReveal()
	if !owed || pid != 0 {
		t.Fatalf("pending reveal = %d, %v", pid, owed)
	}
	first := e.players[0].unrevealed[0]
	got, err := e.ApplyReveal("bogus")
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if got != first {
		t.Fatalf("revealed %v, want %v", got, first)
	}
	if _, owed := e.PendingReveal(); owed {
		t.Fatalf("reveal still pending")
	}
}

func TestSlowStrategyIsBenched(t *testing.T) {
	var calls atomic.Int32
	slow := &funcBot{bid: func(ctx context.Context, _ Observation) (int, error) {
		calls.Add(1)
		<-ctx.Done()
		return 5, ctx.Err()
	}}
	cfg := Config{Seed: 6, StrategyTimeout: 5 * time.Millisecond}
	e, err := New([]Strategy{slow, fixedBot{"b", 1}, fixedBot{"c", 2}}, cfg, testChart, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := e.Play(context.Background())
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Fatalf("slow strategy called %d times after timeout", n)
	}
	if out.Faults[0].Timeout != 1 {
		t.Fatalf("timeouts = %d", out.Faults[0].Timeout)
	}
}

func TestPlayHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e, err := New(randomBots(3, 1), Config{Seed: 1}, testChart, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := e.Play(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestHooksDispatched(t *testing.T) {
	h := &hookBot{fixedBot: fixedBot{"hook", 1}}
	e, err := New([]Strategy{h, fixedBot{"b", 0}, fixedBot{"c", 2}}, Config{Seed: 10}, testChart, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := e.Play(context.Background())
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if h.starts != 1 || h.ends != 1 || h.resolved != out.Turns {
		t.Fatalf("hooks: start=%d resolved=%d end=%d turns=%d", h.starts, h.resolved, h.ends, out.Turns)
	}
	if h.endAction != (Action{}) {
		t.Fatalf("end action = %+v", h.endAction)
	}
	if out.Faults[0].Hook != 0 {
		t.Fatalf("hook faults = %d", out.Faults[0].Hook)
	}
}

func TestStepAPIPhases(t *testing.T) {
	bots := []Strategy{fixedBot{"a", 0}, fixedBot{"b", 0}, fixedBot{"c", 0}}
	e, err := New(bots, Config{Seed: 21}, testChart, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := e.CollectBid(0, 1); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("collect before begin: %v", err)
	}
	if _, err := e.ResolveTurn(); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("resolve before begin: %v", err)
	}
	if _, err := e.Finish(); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("finish early: %v", err)
	}
	if _, ok, err := e.BeginTurn(); !ok || err != nil {
		t.Fatalf("begin: ok=%v err=%v", ok, err)
	}
	if _, _, err := e.BeginTurn(); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("double begin: %v", err)
	}
	if _, err := e.CollectBid(7, 1); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("unknown player: %v", err)
	}
	if got, _ := e.CollectBid(1, 1000); got != 0 {
		t.Fatalf("overbid legalized to %d", got)
	}
	if _, err := e.ApplyReveal("x"); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("reveal while bidding: %v", err)
	}

	out := playSteps(t, finishTurn(t, e), bots)
	if !e.Ended() {
		t.Fatalf("engine not ended")
	}
	if _, ok, err := e.BeginTurn(); ok || err != nil {
		t.Fatalf("begin after end: ok=%v err=%v", ok, err)
	}
	if _, err := e.CollectBid(0, 0); !errors.Is(err, ErrGameOver) {
		t.Fatalf("collect after end: %v", err)
	}
	again, err := e.Finish()
	if err != nil || !reflect.DeepEqual(again.FinalScores, out.FinalScores) {
		t.Fatalf("finish not repeatable: %v", err)
	}
}

func finishTurn(t *testing.T, e *Engine) *Engine {
	t.Helper()
	if _, err := e.ResolveTurn(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, owed := e.PendingReveal(); owed {
		if _, err := e.ApplyReveal(""); err != nil {
			t.Fatalf("reveal: %v", err)
		}
	}
	return e
}

func TestObservationIsACopy(t *testing.T) {
	e, err := New(randomBots(3, 2), Config{Seed: 2}, testChart, testTrinkets)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, _, err := e.BeginTurn(); err != nil {
		t.Fatalf("begin: %v", err)
	}
	obs, _ := e.Observation(0)
	obs.Private.Unrevealed[0].Suit = Diamond
	obs.Private.Unrevealed[0].ID = "hacked"
	obs.Context.UpcomingGems[0].ID = "hacked"
	obs.Public.Trinkets[0].Objective.RequiredCards[0].Suit = Diamond
	obs.Public.ValueChart[0] = 100
	obs.Context.SeatingOrder[0] = 9

	again, _ := e.Observation(0)
	if again.Private.Unrevealed[0].ID == "hacked" || again.Context.UpcomingGems[0].ID == "hacked" {
		t.Fatalf("observation aliases engine cards")
	}
	if again.Public.Trinkets[0].Objective.RequiredCards[0].Suit != Ruby {
		t.Fatalf("observation aliases trinkets")
	}
	if again.Public.ValueChart[0] != 0 || again.Context.SeatingOrder[0] != 0 {
		t.Fatalf("observation aliases chart or seating")
	}
	if _, err := e.Observation(3); !errors.Is(err, ErrUnknownPlayer) {
		t.Fatalf("unknown player: %v", err)
	}
}

func TestSameSeedSameGame(t *testing.T) {
	play := func() Outcome {
		e, err := New(randomBots(4, 77), Config{Seed: 77}, testChart, testTrinkets)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		out, err := e.Play(context.Background())
		if err != nil {
			t.Fatalf("play: %v", err)
		}
		return out
	}
	if a, b := play(), play(); !reflect.DeepEqual(a, b) {
		t.Fatalf("same seed produced different games")
	}
}

func TestExhaustionValve(t *testing.T) {
	cfg := Config{Seed: 1, ActionCounts: map[ActionKind]int{Auction1: 0}}
	e, err := New(randomBots(3, 1), cfg, testChart, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := e.Play(context.Background())
	if err != nil {
		t.Fatalf("play: %v", err)
	}
	if !out.Exhausted || out.Turns != 0 {
		t.Fatalf("exhausted=%v turns=%d", out.Exhausted, out.Turns)
	}
}

func TestConfigurationErrors(t *testing.T) {
	cases := []struct {
		name string
		n    int
		cfg  Config
		opts []Option
		want error
	}{
		{"too few players", 2, Config{}, nil, ErrPlayerCount},
		{"too many players", 6, Config{}, nil, ErrPlayerCount},
		{"no cash entry", 4, Config{StartingCash: map[int]int{3: 30}}, nil, ErrStartingCash},
		{"no deal entry", 4, Config{InfoCardsPerPlayer: map[int]int{3: 5}}, nil, ErrDealCount},
		{"not enough gems", 5, Config{GemsPerSuit: 1, InfoCardsPerPlayer: map[int]int{5: 2}}, nil, ErrInsufficientGems},
		{"unknown action", 3, Config{ActionCounts: map[ActionKind]int{"WILD": 1}}, nil, ErrUnknownAction},
		{"deck cannot finish", 3, Config{ActionCounts: map[ActionKind]int{Loan10: 2}}, nil, ErrConfiguration},
		{"skip leaves no single sale", 3, Config{SkipAuction2IfInsufficientGems: true, ActionCounts: map[ActionKind]int{Auction2: 2}}, nil, ErrConfiguration},
		{"name count", 3, Config{}, []Option{WithNames([]string{"x"})}, ErrNameCount},
	}
	for _, c := range cases {
		_, err := New(randomBots(c.n, 1), c.cfg, testChart, nil, c.opts...)
		if !errors.Is(err, c.want) || !errors.Is(err, ErrConfiguration) {
			t.Fatalf("%s: err = %v, want %v", c.name, err, c.want)
		}
	}
}

func TestValueChartClamps(t *testing.T) {
	vc := ValueChart{0, 4, 8}
	if vc.Value(-1) != 0 || vc.Value(2) != 8 || vc.Value(9) != 8 {
		t.Fatalf("clamp failed")
	}
	if (ValueChart{}).Value(3) != 0 {
		t.Fatalf("empty chart should be worth 0")
	}
}

func FuzzPlay(f *testing.F) {
	for _, s := range []int64{0, 1, 42, -7} {
		f.Add(s, uint8(3))
	}
	f.Fuzz(func(t *testing.T, seed int64, n uint8) {
		players := MinPlayers + int(n)%(MaxPlayers-MinPlayers+1)
		bots := randomBots(players, uint64(seed))
		e, err := New(bots, Config{Seed: seed, DiscardOnAllPass: seed%3 == 0}, testChart, testTrinkets)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		playSteps(t, e, bots)
	})
}
