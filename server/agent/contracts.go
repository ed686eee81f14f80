package agent

import (
	"math"

	"github.com/aleehealey/alphagem/server/engine"
)

// Helpers shared by the reference strategies. They only read the Observation a
// strategy is handed, so any external bot can use them too.

// CurrentItem returns the gems the current action sells (none for loans and investments).
func CurrentItem(obs engine.Observation) []engine.Card {
	n := obs.Context.Action.Kind.GemCount()
	up := obs.Context.UpcomingGems
	if n > len(up) {
		n = len(up)
	}
	return up[:n]
}

// RemainingGems counts gems still to be sold, upcoming row included.
func RemainingGems(obs engine.Observation) int {
	return len(obs.Context.UpcomingGems) + obs.Context.BiddablePileCount
}

// Affordable clamps bid into [0, LegalMaxBid].
func Affordable(bid int, obs engine.Observation) int {
	if bid < 0 {
		return 0
	}
	if hi := engine.LegalMaxBid(obs); bid > hi {
		return hi
	}
	return bid
}

// InfoCounts returns the publicly revealed info cards per suit and how many info
// cards in total were dealt.
func InfoCounts(obs engine.Observation) (revealed [engine.NumSuits]int, total int) {
	for _, p := range obs.Public.Players {
		total += p.UnrevealedInfoCount + len(p.RevealedInfo)
		for _, c := range p.RevealedInfo {
			revealed[c.Suit]++
		}
	}
	return revealed, total
}

// chartAt rounds a fractional info count half-to-even and looks it up.
func chartAt(chart engine.ValueChart, count float64) int {
	return chart.Value(int(math.RoundToEven(count)))
}

// SuitValue estimates the per-gem value of suit from public information only:
// revealed counts plus the hidden remainder spread evenly over the suits.
func SuitValue(obs engine.Observation, suit engine.Suit) int {
	known, total := InfoCounts(obs)
	sum := 0
	for _, n := range known {
		sum += n
	}
	remaining := total - sum
	if remaining <= 0 {
		return obs.Public.ValueChart.Value(known[suit])
	}
	return chartAt(obs.Public.ValueChart, float64(known[suit])+float64(remaining)/engine.NumSuits)
}

// BundleValue sums SuitValue over cards.
func BundleValue(obs engine.Observation, cards []engine.Card) int {
	v := 0
	for _, c := range cards {
		v += SuitValue(obs, c.Suit)
	}
	return v
}

// TrinketBonus is the points of every open trinket that owning gained on top of
// the current gems would satisfy.
func TrinketBonus(obs engine.Observation, gained []engine.Card) int {
	after := append(append([]engine.Card(nil), obs.Me.GemsOwned...), gained...)
	bonus := 0
	for _, t := range obs.Public.Trinkets {
		if t.Claimed() {
			continue
		}
		if engine.ObjectiveSatisfied(t.Objective, after) {
			bonus += t.Objective.Points
		}
	}
	return bonus
}

// FirstUnrevealed is the reveal every strategy may fall back on.
func FirstUnrevealed(obs engine.Observation) string {
	if len(obs.Private.Unrevealed) == 0 {
		return ""
	}
	return obs.Private.Unrevealed[0].ID
}

// RevealWeakest picks a card of the suit we hold fewest of, keeping strong suits hidden.
// Ties go to the lowest card id.
func RevealWeakest(obs engine.Observation) string {
	return revealBy(obs, func(mine int) float64 { return float64(mine) })
}

// revealBy reveals the unrevealed card minimizing score(count of its suit in hand),
// then the count itself, then the id.
func revealBy(obs engine.Observation, score func(mine int) float64) string {
	hand := obs.Private.Unrevealed
	if len(hand) == 0 {
		return ""
	}
	mine := engine.CountGems(hand)
	best := hand[0]
	for _, c := range hand[1:] {
		sc, sb := score(mine[c.Suit]), score(mine[best.Suit])
		switch {
		case sc < sb:
			best = c
		case sc > sb:
		case mine[c.Suit] < mine[best.Suit]:
			best = c
		case mine[c.Suit] == mine[best.Suit] && c.ID < best.ID:
			best = c
		}
	}
	return best.ID
}

func roundHalfEven(x float64) int { return int(math.RoundToEven(x)) }
