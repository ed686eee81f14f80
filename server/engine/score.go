package engine

import "sort"

// ScoreBreakdown itemizes a final score. Loans is the principal owed and is subtracted.
type ScoreBreakdown struct {
	Cash        int `json:"cash"`
	Gems        int `json:"gems"`
	Investments int `json:"investments"`
	Loans       int `json:"loans"`
	Trinkets    int `json:"trinkets"`
}

func (b ScoreBreakdown) Total() int {
	return b.Cash + b.Gems + b.Investments - b.Loans + b.Trinkets
}

type PlayerScore struct {
	PlayerID  int            `json:"player_id"`
	Name      string         `json:"name"`
	Score     int            `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

type Outcome struct {
	// FinalScores is ranked best first; equal scores keep seat order.
	FinalScores []PlayerScore   `json:"final_scores"`
	WinnerID    int             `json:"winner_id"`
	History     []AuctionResult `json:"history"`
	FinalPublic PublicState     `json:"final_public_state"`
	// GemValues is the per-gem value of each suit, fixed by the starting deal.
	GemValues [NumSuits]int `json:"gem_values"`
	Faults    []Faults      `json:"faults"`
	Turns     int           `json:"turns"`
	Exhausted bool          `json:"exhausted"`
}

// ScoreOf looks up pid in the ranking.
func (o Outcome) ScoreOf(pid int) (PlayerScore, bool) {
	for _, s := range o.FinalScores {
		if s.PlayerID == pid {
			return s, true
		}
	}
	return PlayerScore{}, false
}

// GemValues returns the per-gem value of each suit: the chart entry for the
// number of info cards of that suit dealt at setup.
func (e *Engine) GemValues() [NumSuits]int {
	var out [NumSuits]int
	for s, n := range e.infoAtStart {
		out[s] = e.chart.Value(n)
	}
	return out
}

func (e *Engine) breakdown(p *playerState, values [NumSuits]int) ScoreBreakdown {
	b := ScoreBreakdown{Cash: p.cash, Trinkets: p.trinketPoints}
	for _, g := range p.gems {
		b.Gems += values[g.Suit]
	}
	for _, inv := range p.investments {
		b.Investments += inv.Payout + inv.Locked
	}
	for _, l := range p.loans {
		b.Loans += l.Principal
	}
	return b
}

// Finish scores the ended game. It may be called more than once.
func (e *Engine) Finish() (Outcome, error) {
	if e.phase != phaseEnded {
		return Outcome{}, ErrWrongPhase
	}
	values := e.GemValues()
	scores := make([]PlayerScore, len(e.players))
	for i, p := range e.players {
		b := e.breakdown(p, values)
		scores[i] = PlayerScore{PlayerID: p.id, Name: p.name, Score: b.Total(), Breakdown: b}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Score > scores[j].Score })

	pub := e.publicState()
	return Outcome{
		FinalScores: scores,
		WinnerID:    scores[0].PlayerID,
		History:     pub.PastAuctions,
		FinalPublic: pub,
		GemValues:   values,
		Faults:      e.Faults(),
		Turns:       e.turns,
		Exhausted:   e.exhausted,
	}, nil
}
