package sim

import (
	"fmt"
	"strings"

	"golang.org/x/exp/rand"

	"github.com/aleehealey/alphagem/server/engine"
)

// DefaultValueChart: index is how many info cards of a suit were dealt at start.
func DefaultValueChart() engine.ValueChart {
	return engine.ValueChart{0, 4, 8, 12, 16, 20, 24}
}

// DefaultTrinketCount is how many trinkets a batch samples when none are given.
const DefaultTrinketCount = 4

// AllTrinkets is the full trinket menu: 5 same-suit pendants, 10 two-suit
// pendants (5 pts each), 10 triples (10 pts) and 5 quads (15 pts).
func AllTrinkets() []engine.TrinketObjective {
	var out []engine.TrinketObjective
	suits := engine.Suits[:]

	for _, s := range suits {
		out = append(out, trinket("P2_SAME", "Pendant", 5, []engine.Suit{s, s}))
	}
	for _, combo := range combinations(suits, 2) {
		out = append(out, trinket("P2_DIFF", "Pendant", 5, combo))
	}
	for _, combo := range combinations(suits, 3) {
		out = append(out, trinket("T3", "Trinket", 10, combo))
	}
	for _, combo := range combinations(suits, 4) {
		out = append(out, trinket("T4", "Trinket", 15, combo))
	}
	return out
}

// DefaultTrinkets samples DefaultTrinketCount distinct trinkets from the menu.
func DefaultTrinkets(rng *rand.Rand) []engine.TrinketObjective {
	menu := AllTrinkets()
	out := make([]engine.TrinketObjective, 0, DefaultTrinketCount)
	for _, i := range rng.Perm(len(menu))[:DefaultTrinketCount] {
		out = append(out, menu[i])
	}
	return out
}

func trinket(prefix, kind string, points int, suits []engine.Suit) engine.TrinketObjective {
	names := make([]string, len(suits))
	cards := make([]engine.Card, len(suits))
	for i, s := range suits {
		names[i] = s.String()
		cards[i] = engine.Card{ID: fmt.Sprintf("%s_%d", strings.ToLower(prefix), i), Suit: s}
	}
	id := prefix + "_" + strings.Join(names, "_")
	if prefix == "P2_SAME" {
		id = prefix + "_" + names[0]
	}
	return engine.TrinketObjective{
		ID:            id,
		Points:        points,
		RequiredCards: cards,
		DisplayText:   fmt.Sprintf("%s (%d): %s", kind, points, strings.Join(names, " + ")),
	}
}

// combinations lists k-subsets of suits in lexicographic order.
func combinations(suits []engine.Suit, k int) [][]engine.Suit {
	var out [][]engine.Suit
	var pick func(start int, cur []engine.Suit)
	pick = func(start int, cur []engine.Suit) {
		if len(cur) == k {
			out = append(out, append([]engine.Suit(nil), cur...))
			return
		}
		for i := start; i < len(suits); i++ {
			pick(i+1, append(cur, suits[i]))
		}
	}
	pick(0, nil)
	return out
}
