package agent

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/aleehealey/alphagem/server/engine"
)

// ---- AlwaysPass ----

type AlwaysPass struct{}

func (AlwaysPass) Name() string { return "AlwaysPass" }

func (AlwaysPass) Bid(context.Context, engine.Observation) (int, error) { return 0, nil }

func (AlwaysPass) ChooseReveal(_ context.Context, obs engine.Observation, _ engine.AuctionResult) (string, error) {
	return FirstUnrevealed(obs), nil
}

// ---- RandomBid ----

// RandomBid passes about a third of the time and otherwise bids 0..5.
type RandomBid struct {
	rng *rand.Rand
}

func NewRandomBid(seed int64) *RandomBid {
	return &RandomBid{rng: rand.New(rand.NewSource(uint64(seed)))}
}

func (b *RandomBid) Name() string { return "RandomBid" }

func (b *RandomBid) Bid(_ context.Context, obs engine.Observation) (int, error) {
	hi := engine.LegalMaxBid(obs)
	if hi <= 0 || b.rng.Float64() < 0.35 {
		return 0, nil
	}
	if hi > 5 {
		hi = 5
	}
	return b.rng.Intn(hi + 1), nil
}

func (b *RandomBid) ChooseReveal(_ context.Context, obs engine.Observation, _ engine.AuctionResult) (string, error) {
	hand := obs.Private.Unrevealed
	if len(hand) == 0 {
		return "", nil
	}
	return hand[b.rng.Intn(len(hand))].ID, nil
}

// ---- GreedyTrinket ----

// GreedyTrinket values gems plus the trinkets they would complete and ignores
// loans and investments.
type GreedyTrinket struct{}

func (GreedyTrinket) Name() string { return "GreedyTrinket" }

func (GreedyTrinket) Bid(_ context.Context, obs engine.Observation) (int, error) {
	cards := CurrentItem(obs)
	if len(cards) == 0 {
		return 0, nil
	}
	v := BundleValue(obs, cards) + TrinketBonus(obs, cards)
	return Affordable(roundHalfEven(0.7*float64(v)), obs), nil
}

func (GreedyTrinket) ChooseReveal(_ context.Context, obs engine.Observation, _ engine.AuctionResult) (string, error) {
	return RevealWeakest(obs), nil
}

// ---- ValueTrader ----

// ValueTrader bids Risk times the estimated value of gems, discounts investments
// and only borrows when cash-constrained or late.
type ValueTrader struct {
	Risk float64
}

func (v ValueTrader) Name() string { return fmt.Sprintf("ValueTrader(r=%.2f)", v.Risk) }

func (v ValueTrader) Bid(_ context.Context, obs engine.Observation) (int, error) {
	kind := obs.Context.Action.Kind
	late := RemainingGems(obs) <= 6

	switch {
	case kind.IsAuction():
		cards := CurrentItem(obs)
		if len(cards) == 0 {
			return 0, nil
		}
		val := BundleValue(obs, cards) + TrinketBonus(obs, cards)
		mult := v.Risk
		if late {
			mult *= 1.05
		}
		return Affordable(roundHalfEven(mult*float64(val)), obs), nil

	case kind.IsInvestment():
		discount := 0.65
		if late {
			discount = 0.9
		}
		return Affordable(int(math.Floor(discount*float64(kind.Payout()))), obs), nil

	case kind.IsLoan():
		constrained := obs.Me.Cash <= 3
		if !constrained && !late {
			return 0, nil
		}
		bid := 1
		if constrained {
			bid = 2
		}
		if ceiling := kind.Principal() / 10; bid > ceiling {
			bid = ceiling
		}
		return Affordable(bid, obs), nil
	}
	return 0, nil
}

// ChooseReveal shows a suit whose count in hand is closest to the public
// expectation, so the reveal moves prices least.
func (v ValueTrader) ChooseReveal(_ context.Context, obs engine.Observation, _ engine.AuctionResult) (string, error) {
	known, total := InfoCounts(obs)
	sum := 0
	for _, n := range known {
		sum += n
	}
	expEach := 0.0
	if rem := total - sum; rem > 0 {
		expEach = float64(rem) / engine.NumSuits
	}
	return revealBy(obs, func(mine int) float64 { return math.Abs(float64(mine) - expEach) }), nil
}

// ---- Heuristic ----

// Heuristic uses its own hidden info cards when estimating suit values and adds
// a bonus for suits that advance open trinkets. It bids Pct of the estimate.
type Heuristic struct {
	Pct   float64
	Label string
}

func NewHeuristic(pct float64, label string) Heuristic {
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	if label == "" {
		label = "HeuristicBot"
	}
	return Heuristic{Pct: pct, Label: label}
}

func (h Heuristic) Name() string { return h.Label }

// estimateCounts: public reveals plus our hidden cards, the rest spread evenly.
func (h Heuristic) estimateCounts(obs engine.Observation) [engine.NumSuits]float64 {
	revealed, total := InfoCounts(obs)
	mine := engine.CountGems(obs.Private.Unrevealed)
	known := 0
	for s := range revealed {
		known += revealed[s] + mine[s]
	}
	unknown := total - known
	if unknown < 0 {
		unknown = 0
	}
	var out [engine.NumSuits]float64
	for s := range out {
		out[s] = float64(revealed[s]+mine[s]) + float64(unknown)/engine.NumSuits
	}
	return out
}

func (h Heuristic) trinketPull(obs engine.Observation, suit engine.Suit) float64 {
	have := engine.CountGems(obs.Me.GemsOwned)
	bonus := 0.0
	for _, t := range obs.Public.Trinkets {
		if t.Claimed() {
			continue
		}
		need := engine.CountGems(t.Objective.RequiredCards)
		if need[suit] == 0 {
			continue
		}
		pts := float64(t.Objective.Points)
		switch {
		case have[suit] > 0:
			bonus += pts * float64(have[suit]) / float64(need[suit]) * 0.5
		case need[suit]-have[suit] == 1:
			bonus += pts * 0.3
		}
	}
	return bonus
}

func (h Heuristic) Bid(_ context.Context, obs engine.Observation) (int, error) {
	cards := CurrentItem(obs)
	if len(cards) == 0 {
		return 0, nil
	}
	est := h.estimateCounts(obs)
	total := 0.0
	for _, c := range cards {
		total += float64(chartAt(obs.Public.ValueChart, est[c.Suit])) + h.trinketPull(obs, c.Suit)
	}
	total += float64(TrinketBonus(obs, cards))
	bid := roundHalfEven(total * h.Pct)
	if bid < 0 {
		bid = 0
	}
	return Affordable(bid, obs), nil
}

func (h Heuristic) ChooseReveal(_ context.Context, obs engine.Observation, _ engine.AuctionResult) (string, error) {
	return RevealWeakest(obs), nil
}
