package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aleehealey/alphagem/server/engine"
	"github.com/aleehealey/alphagem/server/llm"
)

// LLMPrefix marks registry names served by a chat model, e.g. "llm:gpt-4o-mini".
const LLMPrefix = "llm:"

const llmSystem = `You play PocketRockets, a sealed-bid gem auction for 3-5 players.
Each turn one action is auctioned: AUCTION_1/AUCTION_2 sell the next 1/2 upcoming gems,
LOAN_10/LOAN_20 pay you the principal now and cost it back at the end,
INVESTMENT_5/INVESTMENT_10 lock your bid and pay bid+payout at the end.
Everyone bids at once; highest bid wins and pays, ties go to the player nearest the
tiebreak leader in seating order. A gem is worth value_chart[n] at the end, where n is
how many info cards of its suit were dealt. Info cards are hidden until their owner wins
an auction and reveals one. Trinkets award points to the first player owning the listed suits.
Final score = cash + gem values + investments - loans + trinket points.
Answer with JSON only.`

// LLMBot asks a chat model for every decision. Errors surface to the engine,
// which counts them as faults and falls back to a pass or the first card.
type LLMBot struct {
	Client *llm.Client
	Label  string
}

func NewLLMBot(model string) (*LLMBot, error) {
	c, err := llm.FromEnv(model)
	if err != nil {
		return nil, err
	}
	return &LLMBot{Client: c, Label: LLMPrefix + c.Model()}, nil
}

func (b *LLMBot) Name() string { return b.Label }

func (b *LLMBot) Bid(ctx context.Context, obs engine.Observation) (int, error) {
	hi := engine.LegalMaxBid(obs)
	if hi == 0 {
		return 0, nil
	}
	state, err := json.Marshal(obs)
	if err != nil {
		return 0, err
	}
	user := fmt.Sprintf("You are player %d. Turn %d, action %s, item on sale: %s.\nYour legal bids are 0..%d.\nState:\n%s\nReply {\"bid\": <int>}.",
		obs.Me.PlayerID, obs.Context.TurnIndex, obs.Context.Action.Kind, describeCards(CurrentItem(obs)), hi, state)
	bid, _, err := b.Client.ChooseBid(ctx, llmSystem, user, hi)
	return bid, err
}

func (b *LLMBot) ChooseReveal(ctx context.Context, obs engine.Observation, res engine.AuctionResult) (string, error) {
	hand := obs.Private.Unrevealed
	if len(hand) == 0 {
		return "", nil
	}
	ids := make([]string, len(hand))
	for i, c := range hand {
		ids[i] = c.ID
	}
	state, err := json.Marshal(obs)
	if err != nil {
		return "", err
	}
	user := fmt.Sprintf("You won turn %d (%s) and must reveal one hidden info card: %s.\nState:\n%s\nReply {\"card_id\": \"<id>\"}.",
		res.TurnIndex, res.Action.Kind, describeCards(hand), state)
	id, _, err := b.Client.ChooseReveal(ctx, llmSystem, user, ids)
	return id, err
}

func describeCards(cards []engine.Card) string {
	if len(cards) == 0 {
		return "nothing"
	}
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.ID + ":" + c.Suit.String()
	}
	return strings.Join(parts, ", ")
}
