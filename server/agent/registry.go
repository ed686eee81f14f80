package agent

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aleehealey/alphagem/server/engine"
	"github.com/aleehealey/alphagem/server/sim"
)

var ErrUnknownStrategy = errors.New("unknown strategy")

var registry = map[string]func(seed int64) engine.Strategy{
	"AlwaysPass":    func(int64) engine.Strategy { return AlwaysPass{} },
	"RandomBid":     func(seed int64) engine.Strategy { return NewRandomBid(seed) },
	"GreedyTrinket": func(int64) engine.Strategy { return GreedyTrinket{} },
}

func init() {
	for _, r := range []int{10, 20, 30, 40, 50, 70} {
		risk := float64(r) / 100
		registry[fmt.Sprintf("ValueTraderRisk%d", r)] = func(int64) engine.Strategy { return ValueTrader{Risk: risk} }
	}
	for r := 10; r <= 70; r += 10 {
		label := fmt.Sprintf("HeuristicBot%d", r)
		pct := float64(r) / 100
		registry[label] = func(int64) engine.Strategy { return NewHeuristic(pct, label) }
	}
}

// Names lists every registered strategy, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Entries resolves names to simulator entries. Empty input means every registered
// strategy; "llm:<model>" adds a chat-model player configured from the environment.
func Entries(names []string) ([]sim.Entry, error) {
	if len(names) == 0 {
		names = Names()
	}
	out := make([]sim.Entry, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		if model, ok := strings.CutPrefix(name, LLMPrefix); ok {
			proto, err := NewLLMBot(model)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			// One bot per game; the chat client itself is safe to share.
			out = append(out, sim.Entry{Name: name, New: func(int64) engine.Strategy {
				return &LLMBot{Client: proto.Client, Label: proto.Label}
			}})
			continue
		}
		f, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownStrategy, name)
		}
		out = append(out, sim.Entry{Name: name, New: f})
	}
	return out, nil
}
