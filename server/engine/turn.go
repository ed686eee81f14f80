package engine

import (
	"errors"
	"fmt"
)

var (
	ErrWrongPhase    = errors.New("engine: call not valid in current phase")
	ErrUnknownPlayer = errors.New("engine: unknown player")
	ErrGameOver      = errors.New("engine: game over")
)

// BeginTurn draws action cards until one is playable. ok is false once the game
// has ended, either because every gem is gone or because both action piles ran dry.
func (e *Engine) BeginTurn() (TurnContext, bool, error) {
	switch e.phase {
	case phaseEnded:
		return TurnContext{}, false, nil
	case phaseBidding, phaseReveal:
		return TurnContext{}, false, fmt.Errorf("%w: turn %d not finished", ErrWrongPhase, e.turn)
	}

	for {
		if len(e.upcoming) == 0 && len(e.gemPile) == 0 {
			e.phase = phaseEnded
			return TurnContext{}, false, nil
		}
		if len(e.actionPile) == 0 {
			if len(e.actionDiscard) == 0 {
				e.exhausted = true
				e.phase = phaseEnded
				return TurnContext{}, false, nil
			}
			e.actionPile = e.actionDiscard
			e.actionDiscard = nil
			shuffleActions(e.rng, e.actionPile)
		}

		a := popAction(&e.actionPile)
		e.actionDiscard = append(e.actionDiscard, a)
		if e.actionRemaining[a.Kind] > 0 {
			e.actionRemaining[a.Kind]--
		}
		if e.skippable(a) {
			continue
		}

		e.turn = e.turns
		e.current = a
		e.bids = make([]int, len(e.players))
		e.phase = phaseBidding
		return e.context(), true, nil
	}
}

// CollectBid records pid's sealed bid for the current turn and returns the
// amount that will count: anything outside [0, cash] becomes 0.
func (e *Engine) CollectBid(pid, bid int) (int, error) {
	if e.phase != phaseBidding {
		return 0, e.phaseErr()
	}
	if pid < 0 || pid >= len(e.players) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownPlayer, pid)
	}
	legal, _ := e.legalize(pid, bid)
	e.bids[pid] = legal
	return legal, nil
}

// ResolveTurn settles the current action with the collected bids. Players that
// never called CollectBid pass.
func (e *Engine) ResolveTurn() (AuctionResult, error) {
	if e.phase != phaseBidding {
		return AuctionResult{}, e.phaseErr()
	}
	winner, price := e.resolveWinner(e.bids)
	if winner != NoPlayer {
		e.players[winner].cash -= price
	}
	gems, err := e.applyEffect(winner, price)
	if err != nil {
		return AuctionResult{}, err
	}
	claimed := e.awardTrinkets(winner)

	if winner != NoPlayer {
		e.leader = winner
	}
	res := AuctionResult{
		TurnIndex:           e.turn,
		Action:              e.current,
		WinnerID:            winner,
		WinningBid:          price,
		AuctionedGems:       cloneCards(gems),
		NewTiebreakLeaderID: e.leader,
		TrinketsClaimed:     claimed,
		Bids:                append([]int(nil), e.bids...),
	}
	e.history = append(e.history, res)
	e.turns++

	if winner != NoPlayer && len(e.players[winner].unrevealed) > 0 {
		e.reveal = winner
		e.phase = phaseReveal
	} else {
		e.phase = phaseDraw
	}
	return res.clone(), nil
}

// PendingReveal reports the player who owes a reveal for the last resolved turn.
func (e *Engine) PendingReveal() (int, bool) {
	if e.phase != phaseReveal {
		return NoPlayer, false
	}
	return e.reveal, true
}

// ApplyReveal moves cardID from the winner's hidden info to the revealed pile.
// An unknown id reveals the first hidden card.
func (e *Engine) ApplyReveal(cardID string) (Card, error) {
	if e.phase != phaseReveal {
		return Card{}, e.phaseErr()
	}
	p := e.players[e.reveal]
	idx, ok := e.unrevealedIndex(e.reveal, cardID)
	if !ok {
		idx = 0
	}
	c := p.unrevealed[idx]
	p.unrevealed = append(p.unrevealed[:idx], p.unrevealed[idx+1:]...)
	p.revealed = append(p.revealed, c)

	e.reveal = NoPlayer
	e.phase = phaseDraw
	return c, nil
}

func (e *Engine) Ended() bool { return e.phase == phaseEnded }

// Exhausted reports that the game ended because no action cards were left.
func (e *Engine) Exhausted() bool { return e.exhausted }

// Turns is the number of resolved turns.
func (e *Engine) Turns() int { return e.turns }

// Faults returns the absorbed strategy faults per player.
func (e *Engine) Faults() []Faults {
	out := make([]Faults, len(e.seats))
	for i, s := range e.seats {
		out[i] = s.faults
	}
	return out
}

func (e *Engine) phaseErr() error {
	if e.phase == phaseEnded {
		return ErrGameOver
	}
	return ErrWrongPhase
}

func (r AuctionResult) clone() AuctionResult {
	r.AuctionedGems = cloneCards(r.AuctionedGems)
	r.TrinketsClaimed = append([]string(nil), r.TrinketsClaimed...)
	r.Bids = append([]int(nil), r.Bids...)
	return r
}
