package engine

import (
	"fmt"

	"golang.org/x/exp/rand"
)

// newRNG is the single random stream of one game.
func newRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(uint64(seed)))
}

// NewGemDeck builds gemsPerSuit cards of every suit, ids G0.. in suit order.
func NewGemDeck(gemsPerSuit int) []Card {
	deck := make([]Card, 0, NumSuits*gemsPerSuit)
	for _, s := range Suits {
		for i := 0; i < gemsPerSuit; i++ {
			deck = append(deck, Card{ID: fmt.Sprintf("G%d", len(deck)), Suit: s})
		}
	}
	return deck
}

// NewActionDeck builds the action deck in canonical kind order, ids A0...
func NewActionDeck(counts map[ActionKind]int) []Action {
	var deck []Action
	for _, kind := range ActionKinds {
		for i := 0; i < counts[kind]; i++ {
			deck = append(deck, Action{ID: fmt.Sprintf("A%d", len(deck)), Kind: kind})
		}
	}
	return deck
}

func shuffleCards(r *rand.Rand, cs []Card) {
	r.Shuffle(len(cs), func(i, j int) { cs[i], cs[j] = cs[j], cs[i] })
}

func shuffleActions(r *rand.Rand, as []Action) {
	r.Shuffle(len(as), func(i, j int) { as[i], as[j] = as[j], as[i] })
}

// popCard takes from the top (end) of a pile.
func popCard(pile *[]Card) Card {
	p := *pile
	c := p[len(p)-1]
	*pile = p[:len(p)-1]
	return c
}

func popAction(pile *[]Action) Action {
	p := *pile
	a := p[len(p)-1]
	*pile = p[:len(p)-1]
	return a
}

func cloneCards(cs []Card) []Card {
	if cs == nil {
		return []Card{}
	}
	return append([]Card(nil), cs...)
}
