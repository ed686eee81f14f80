package rating

import "math"

// Elo rates strategies from ranked multiplayer games. Each game is split into
// every pairwise duel between its players; K is shared across the n-1 duels a
// player takes part in.
type Elo struct {
	Start   float64
	K       float64
	Ratings map[string]float64
	Games   map[string]int
}

func NewElo(start, k float64) *Elo {
	return &Elo{Start: start, K: k, Ratings: map[string]float64{}, Games: map[string]int{}}
}

func (e *Elo) Rating(name string) float64 {
	if r, ok := e.Ratings[name]; ok {
		return r
	}
	return e.Start
}

func expect(ra, rb float64) float64 {
	return 1.0 / (1.0 + math.Pow(10, (rb-ra)/400.0))
}

// UpdateGame applies one game → returns the applied delta per name.
// Ratings used for expectations are the ones from before the game.
func (e *Elo) UpdateGame(g Game) map[string]float64 {
	n := len(g.Places)
	deltas := make(map[string]float64, n)
	if n < 2 {
		return deltas
	}
	before := make([]float64, n)
	for i, p := range g.Places {
		before[i] = e.Rating(p.Name)
	}
	for i, a := range g.Places {
		kEff := e.K / float64(n-1) * decay(e.Games[a.Name])
		for j, b := range g.Places {
			if i == j {
				continue
			}
			s := softScore(a.Score - b.Score)
			deltas[a.Name] += kEff * (s - expect(before[i], before[j]))
		}
	}
	for _, p := range g.Places {
		e.Ratings[p.Name] = e.Rating(p.Name) + deltas[p.Name]
		e.Games[p.Name]++
	}
	return deltas
}

// ---- helpers ----

// marginPoints is the score gap that maps to roughly a 76/24 duel.
const marginPoints = 10.0

// softScore maps a score margin to [0,1]: 0.5 for a draw, saturating for blowouts.
func softScore(margin int) float64 {
	return 0.5 + 0.5*math.Tanh(float64(margin)/marginPoints)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// decay slowly anneals K as a strategy accumulates games.
func decay(games int) float64 {
	return clamp(1.0/(1.0+0.01*float64(games)), 0.25, 1.0)
}
