package engine

import "fmt"

// NoPlayer marks "nobody": an all-pass discard or an unclaimed trinket.
const NoPlayer = -1

type Suit uint8

const (
	Ruby Suit = iota
	Sapphire
	Emerald
	Amethyst
	Diamond
)

// NumSuits is the number of gem suits.
const NumSuits = 5

// Suits lists every suit in declaration order.
var Suits = [NumSuits]Suit{Ruby, Sapphire, Emerald, Amethyst, Diamond}

var suitNames = [NumSuits]string{"RUBY", "SAPPHIRE", "EMERALD", "AMETHYST", "DIAMOND"}

func (s Suit) String() string {
	if int(s) < NumSuits {
		return suitNames[s]
	}
	return fmt.Sprintf("Suit(%d)", uint8(s))
}

func (s Suit) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Suit) UnmarshalText(b []byte) error {
	v, err := ParseSuit(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func ParseSuit(name string) (Suit, error) {
	for i, n := range suitNames {
		if n == name {
			return Suit(i), nil
		}
	}
	return 0, fmt.Errorf("unknown suit %q", name)
}

// Card is used for both gems and info cards; identity is the ID.
type Card struct {
	ID   string `json:"id"`
	Suit Suit   `json:"suit"`
}

type ActionKind string

const (
	Auction1 ActionKind = "AUCTION_1"
	Auction2 ActionKind = "AUCTION_2"
	Loan10   ActionKind = "LOAN_10"
	Loan20   ActionKind = "LOAN_20"
	Invest5  ActionKind = "INVESTMENT_5"
	Invest10 ActionKind = "INVESTMENT_10"
)

// ActionKinds is the canonical deck-building order.
var ActionKinds = []ActionKind{Auction1, Auction2, Loan10, Loan20, Invest5, Invest10}

func (k ActionKind) Valid() bool {
	for _, v := range ActionKinds {
		if v == k {
			return true
		}
	}
	return false
}

// GemCount is how many upcoming gems the action sells.
func (k ActionKind) GemCount() int {
	switch k {
	case Auction1:
		return 1
	case Auction2:
		return 2
	}
	return 0
}

func (k ActionKind) IsAuction() bool    { return k == Auction1 || k == Auction2 }
func (k ActionKind) IsLoan() bool       { return k == Loan10 || k == Loan20 }
func (k ActionKind) IsInvestment() bool { return k == Invest5 || k == Invest10 }

// Principal is the cash a loan pays out now and costs at the end.
func (k ActionKind) Principal() int {
	switch k {
	case Loan10:
		return 10
	case Loan20:
		return 20
	}
	return 0
}

// Payout is the profit an investment returns at the end.
func (k ActionKind) Payout() int {
	switch k {
	case Invest5:
		return 5
	case Invest10:
		return 10
	}
	return 0
}

type Action struct {
	ID   string     `json:"id"`
	Kind ActionKind `json:"kind"`
}

type LoanPosition struct {
	ID         string `json:"id"`
	Principal  int    `json:"principal"`
	WinningBid int    `json:"winning_bid"`
}

// InvestmentPosition: Locked is the winning bid, returned at the end along with Payout.
type InvestmentPosition struct {
	ID     string `json:"id"`
	Payout int    `json:"payout"`
	Locked int    `json:"locked"`
}

// ValueChart maps "info cards of a suit dealt at start" to the per-gem value of that suit.
type ValueChart []int

// Value looks up count, clamped to the chart's index range. An empty chart is worth 0.
func (vc ValueChart) Value(count int) int {
	if len(vc) == 0 {
		return 0
	}
	if count < 0 {
		count = 0
	}
	if count >= len(vc) {
		count = len(vc) - 1
	}
	return vc[count]
}

type TrinketObjective struct {
	ID     string `json:"id"`
	Points int    `json:"points"`
	// Only the suits of RequiredCards matter.
	RequiredCards []Card `json:"required_cards"`
	DisplayText   string `json:"display_text,omitempty"`
}

type TrinketState struct {
	Objective TrinketObjective `json:"objective"`
	ClaimedBy int              `json:"claimed_by"`
}

func (t TrinketState) Claimed() bool { return t.ClaimedBy != NoPlayer }

// CountGems tallies cards by suit.
func CountGems(cards []Card) [NumSuits]int {
	var out [NumSuits]int
	for _, c := range cards {
		if int(c.Suit) < NumSuits {
			out[c.Suit]++
		}
	}
	return out
}

// ObjectiveSatisfied reports whether owned covers the objective's suit multiset.
func ObjectiveSatisfied(obj TrinketObjective, owned []Card) bool {
	have := CountGems(owned)
	need := CountGems(obj.RequiredCards)
	for s := range need {
		if have[s] < need[s] {
			return false
		}
	}
	return true
}

// ---- observation snapshot ----

type PlayerPublic struct {
	PlayerID            int                  `json:"player_id"`
	Name                string               `json:"name"`
	Cash                int                  `json:"cash"`
	GemsOwned           []Card               `json:"gems_owned"`
	Loans               []LoanPosition       `json:"loans"`
	Investments         []InvestmentPosition `json:"investments"`
	RevealedInfo        []Card               `json:"revealed_info"`
	UnrevealedInfoCount int                  `json:"unrevealed_info_count"`
	TrinketPoints       int                  `json:"trinket_points"`
}

type PlayerPrivate struct {
	PlayerID   int    `json:"player_id"`
	Unrevealed []Card `json:"unrevealed"`
	Revealed   []Card `json:"revealed"`
}

type TurnContext struct {
	TurnIndex int    `json:"turn_index"`
	Action    Action `json:"action"`
	// UpcomingGems[0] is sold first.
	UpcomingGems      []Card `json:"upcoming_gems"`
	BiddablePileCount int    `json:"biddable_pile_count"`
	TiebreakLeaderID  int    `json:"tiebreak_leader_id"`
	SeatingOrder      []int  `json:"seating_order"`
}

type PublicState struct {
	NumPlayers            int                `json:"num_players"`
	Players               []PlayerPublic     `json:"players"`
	Trinkets              []TrinketState     `json:"trinkets"`
	ValueChart            ValueChart         `json:"value_chart"`
	ActionDiscard         []Action           `json:"action_discard"`
	PastAuctions          []AuctionResult    `json:"past_auctions"`
	ActionCountsRemaining map[ActionKind]int `json:"action_counts_remaining,omitempty"`
	DiscardedGems         int                `json:"discarded_gems"`
}

// Player returns the public view of id.
func (ps PublicState) Player(id int) (PlayerPublic, bool) {
	for _, p := range ps.Players {
		if p.PlayerID == id {
			return p, true
		}
	}
	return PlayerPublic{}, false
}

// Observation is everything one strategy may see on one turn.
type Observation struct {
	Public  PublicState   `json:"public"`
	Private PlayerPrivate `json:"private"`
	Context TurnContext   `json:"context"`
	Me      PlayerPublic  `json:"me"`
}

// LegalMaxBid: a bid must be payable immediately.
func LegalMaxBid(obs Observation) int {
	if obs.Me.Cash < 0 {
		return 0
	}
	return obs.Me.Cash
}

type AuctionResult struct {
	TurnIndex           int      `json:"turn_index"`
	Action              Action   `json:"action"`
	WinnerID            int      `json:"winner_id"`
	WinningBid          int      `json:"winning_bid"`
	AuctionedGems       []Card   `json:"auctioned_gems"`
	NewTiebreakLeaderID int      `json:"new_tiebreak_leader_id"`
	TrinketsClaimed     []string `json:"trinkets_claimed,omitempty"`
	Bids                []int    `json:"bids"`
}

func (r AuctionResult) HasWinner() bool { return r.WinnerID != NoPlayer }
