package engine

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConfiguration is the root of every fatal construction error.
	ErrConfiguration = errors.New("engine configuration")

	ErrPlayerCount      = fmt.Errorf("%w: PocketRockets supports 3-5 players", ErrConfiguration)
	ErrStartingCash     = fmt.Errorf("%w: no starting cash for player count", ErrConfiguration)
	ErrDealCount        = fmt.Errorf("%w: no info card deal count for player count", ErrConfiguration)
	ErrInsufficientGems = fmt.Errorf("%w: not enough gems to deal info cards", ErrConfiguration)
	ErrUnknownAction    = fmt.Errorf("%w: unknown action kind", ErrConfiguration)
	ErrNameCount        = fmt.Errorf("%w: names length must match strategies", ErrConfiguration)
)

const (
	MinPlayers = 3
	MaxPlayers = 5
)

type Config struct {
	Seed               int64              `json:"seed"`
	InfoCardsPerPlayer map[int]int        `json:"info_cards_per_player"`
	StartingCash       map[int]int        `json:"starting_cash"`
	GemsPerSuit        int                `json:"gems_per_suit"`
	ActionCounts       map[ActionKind]int `json:"action_counts"`

	// DiscardOnAllPass: when every bid is 0 the item is discarded instead of
	// going to the tiebreak winner for free.
	DiscardOnAllPass bool `json:"discard_on_all_pass"`
	// SkipAuction2IfInsufficientGems skips AUCTION_2 while fewer than two gems are upcoming.
	SkipAuction2IfInsufficientGems bool `json:"skip_auction2_if_insufficient_gems"`

	// StrategyTimeout bounds each strategy callback; 0 means unbounded.
	StrategyTimeout time.Duration `json:"strategy_timeout"`
}

func DefaultInfoCardsPerPlayer() map[int]int { return map[int]int{3: 5, 4: 4, 5: 3} }
func DefaultStartingCash() map[int]int       { return map[int]int{3: 30, 4: 25, 5: 20} }

func DefaultActionCounts() map[ActionKind]int {
	return map[ActionKind]int{
		Auction1: 12,
		Auction2: 5,
		Loan10:   2,
		Loan20:   2,
		Invest5:  2,
		Invest10: 2,
	}
}

const DefaultGemsPerSuit = 6

// DefaultConfig is the tabletop setup.
func DefaultConfig(seed int64) Config {
	return Config{Seed: seed}.withDefaults()
}

// withDefaults fills zero-valued fields.
func (c Config) withDefaults() Config {
	if c.InfoCardsPerPlayer == nil {
		c.InfoCardsPerPlayer = DefaultInfoCardsPerPlayer()
	}
	if c.StartingCash == nil {
		c.StartingCash = DefaultStartingCash()
	}
	if c.GemsPerSuit <= 0 {
		c.GemsPerSuit = DefaultGemsPerSuit
	}
	if c.ActionCounts == nil {
		c.ActionCounts = DefaultActionCounts()
	}
	return c
}

func (c Config) validate(numPlayers int) error {
	if numPlayers < MinPlayers || numPlayers > MaxPlayers {
		return fmt.Errorf("%w (got %d)", ErrPlayerCount, numPlayers)
	}
	if _, ok := c.StartingCash[numPlayers]; !ok {
		return fmt.Errorf("%w: %d", ErrStartingCash, numPlayers)
	}
	deal, ok := c.InfoCardsPerPlayer[numPlayers]
	if !ok || deal < 0 {
		return fmt.Errorf("%w: %d", ErrDealCount, numPlayers)
	}
	for kind, n := range c.ActionCounts {
		if !kind.Valid() {
			return fmt.Errorf("%w %q", ErrUnknownAction, kind)
		}
		if n < 0 {
			return fmt.Errorf("%w: negative count for %s", ErrConfiguration, kind)
		}
	}
	if need, have := numPlayers*deal, NumSuits*c.GemsPerSuit; need > have {
		return fmt.Errorf("%w: need %d, deck has %d", ErrInsufficientGems, need, have)
	}
	return nil
}
