package engine

import "fmt"

// Observation returns a deep-copied snapshot for pid. Nothing in it aliases engine
// state, so strategies may keep or mutate it freely.
func (e *Engine) Observation(pid int) (Observation, error) {
	if pid < 0 || pid >= len(e.players) {
		return Observation{}, fmt.Errorf("%w: %d", ErrUnknownPlayer, pid)
	}
	return e.observe(pid), nil
}

// Public is the shared snapshot every player sees.
func (e *Engine) Public() PublicState { return e.publicState() }

// Context describes the current turn. After the end it carries the zero Action.
func (e *Engine) Context() TurnContext { return e.context() }

func (e *Engine) observe(pid int) Observation {
	pub := e.publicState()
	p := e.players[pid]
	return Observation{
		Public: pub,
		Private: PlayerPrivate{
			PlayerID:   pid,
			Unrevealed: cloneCards(p.unrevealed),
			Revealed:   cloneCards(p.revealed),
		},
		Context: e.context(),
		Me:      e.playerPublic(p),
	}
}

func (e *Engine) playerPublic(p *playerState) PlayerPublic {
	return PlayerPublic{
		PlayerID:            p.id,
		Name:                p.name,
		Cash:                p.cash,
		GemsOwned:           cloneCards(p.gems),
		Loans:               append([]LoanPosition{}, p.loans...),
		Investments:         append([]InvestmentPosition{}, p.investments...),
		RevealedInfo:        cloneCards(p.revealed),
		UnrevealedInfoCount: len(p.unrevealed),
		TrinketPoints:       p.trinketPoints,
	}
}

func (e *Engine) publicState() PublicState {
	ps := PublicState{
		NumPlayers:    len(e.players),
		ValueChart:    append(ValueChart{}, e.chart...),
		ActionDiscard: append([]Action{}, e.actionDiscard...),
		DiscardedGems: len(e.gemDiscard),
	}
	for _, p := range e.players {
		ps.Players = append(ps.Players, e.playerPublic(p))
	}
	ps.Trinkets = make([]TrinketState, len(e.trinkets))
	for i, t := range e.trinkets {
		t.Objective.RequiredCards = cloneCards(t.Objective.RequiredCards)
		ps.Trinkets[i] = t
	}
	ps.PastAuctions = make([]AuctionResult, len(e.history))
	for i, r := range e.history {
		ps.PastAuctions[i] = r.clone()
	}
	ps.ActionCountsRemaining = make(map[ActionKind]int, len(e.actionRemaining))
	for k, v := range e.actionRemaining {
		ps.ActionCountsRemaining[k] = v
	}
	return ps
}

func (e *Engine) context() TurnContext {
	tc := TurnContext{
		TurnIndex:         e.turn,
		Action:            e.current,
		UpcomingGems:      cloneCards(e.upcoming),
		BiddablePileCount: len(e.gemPile),
		TiebreakLeaderID:  e.leader,
		SeatingOrder:      append([]int(nil), e.seating...),
	}
	if e.phase == phaseEnded {
		tc.TurnIndex = e.turns
		tc.Action = Action{}
	}
	return tc
}
