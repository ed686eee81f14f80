package rating

import "sort"

// Place is one player's final standing in a game.
type Place struct {
	Name  string
	Score int
}

// Game lists every seat of one finished game.
type Game struct {
	Places []Place
}

type Row struct {
	Name    string  `json:"name"`
	Games   int     `json:"games"`
	Elo     float64 `json:"elo"`
	Glicko  float64 `json:"glicko"`
	RD      float64 `json:"rd"`
	Sigma   float64 `json:"sigma"`
	Conserv float64 `json:"conservative"` // Glicko minus two RD
}

// Table accumulates both rating systems over a sequence of games.
type Table struct {
	elo    *Elo
	glicko map[string]Glicko2
	tau    float64
}

func NewTable() *Table {
	return &Table{elo: NewElo(1500, 32), glicko: map[string]Glicko2{}, tau: defaultTau}
}

func (t *Table) player(name string) Glicko2 {
	if p, ok := t.glicko[name]; ok {
		return p
	}
	return NewGlicko2()
}

// Add rates one game. Games must be added in play order.
func (t *Table) Add(g Game) {
	t.elo.UpdateGame(g)

	start := make([]Glicko2, len(g.Places))
	for i, p := range g.Places {
		start[i] = t.player(p.Name)
	}
	for i, a := range g.Places {
		duels := make([]duel, 0, len(g.Places)-1)
		for j, b := range g.Places {
			if i != j {
				duels = append(duels, duel{opp: start[j], score: duelScore(a.Score, b.Score)})
			}
		}
		t.glicko[a.Name] = start[i].update(duels, t.tau)
	}
}

// Rows returns every rated name, best Glicko first.
func (t *Table) Rows() []Row {
	rows := make([]Row, 0, len(t.glicko))
	for name, p := range t.glicko {
		rows = append(rows, Row{
			Name:    name,
			Games:   p.Games,
			Elo:     t.elo.Rating(name),
			Glicko:  p.Rating,
			RD:      p.RD,
			Sigma:   p.Volatility,
			Conserv: p.Rating - 2*p.RD,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Glicko != rows[j].Glicko {
			return rows[i].Glicko > rows[j].Glicko
		}
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// FromGames rates a whole batch.
func FromGames(games []Game) []Row {
	t := NewTable()
	for _, g := range games {
		t.Add(g)
	}
	return t.Rows()
}
