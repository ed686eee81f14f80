package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aleehealey/alphagem/server/engine"
	"github.com/aleehealey/alphagem/server/sim"
)

// EngineFile is the YAML shape of an engine setup. Omitted fields keep the
// tabletop defaults.
//
//	gems_per_suit: 6
//	starting_cash: {3: 30, 4: 25, 5: 20}
//	action_counts: {AUCTION_1: 12, AUCTION_2: 5}
//	discard_on_all_pass: true
//	strategy_timeout: 250ms
//	value_chart: [0, 4, 8, 12, 16, 20, 24]
//	trinkets: [P2_SAME_RUBY, T3_RUBY_SAPPHIRE_EMERALD]
type EngineFile struct {
	InfoCardsPerPlayer             map[int]int               `mapstructure:"info_cards_per_player"`
	StartingCash                   map[int]int               `mapstructure:"starting_cash"`
	GemsPerSuit                    int                       `mapstructure:"gems_per_suit"`
	ActionCounts                   map[engine.ActionKind]int `mapstructure:"action_counts"`
	DiscardOnAllPass               bool                      `mapstructure:"discard_on_all_pass"`
	SkipAuction2IfInsufficientGems bool                      `mapstructure:"skip_auction2_if_insufficient_gems"`
	StrategyTimeout                time.Duration             `mapstructure:"strategy_timeout"`
	ValueChart                     []int                     `mapstructure:"value_chart"`
	Trinkets                       []string                  `mapstructure:"trinkets"`
}

// LoadEngineFile reads and decodes an engine setup. Unknown keys are errors.
func LoadEngineFile(path string) (EngineFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return EngineFile{}, err
	}
	return ParseEngineFile(raw)
}

func ParseEngineFile(raw []byte) (EngineFile, error) {
	var generic map[string]interface{}
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return EngineFile{}, fmt.Errorf("engine config yaml: %w", err)
	}
	var ef EngineFile
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToIntHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &ef,
	})
	if err != nil {
		return EngineFile{}, err
	}
	if err := decoder.Decode(generic); err != nil {
		return EngineFile{}, fmt.Errorf("engine config decode: %w", err)
	}
	for kind := range ef.ActionCounts {
		if !kind.Valid() {
			return EngineFile{}, fmt.Errorf("engine config: %w %q", engine.ErrUnknownAction, kind)
		}
	}
	return ef, nil
}

// stringToIntHookFunc accepts quoted numbers for int fields and map keys.
func stringToIntHookFunc() mapstructure.DecodeHookFunc {
	return func(from reflect.Kind, to reflect.Kind, data interface{}) (interface{}, error) {
		if from == reflect.String && to == reflect.Int {
			return strconv.Atoi(data.(string))
		}
		return data, nil
	}
}

// ConfigFor returns the engine config of one game.
func (ef EngineFile) ConfigFor(seed int64) engine.Config {
	return engine.Config{
		Seed:                           seed,
		InfoCardsPerPlayer:             copyIntMap(ef.InfoCardsPerPlayer),
		StartingCash:                   copyIntMap(ef.StartingCash),
		GemsPerSuit:                    ef.GemsPerSuit,
		ActionCounts:                   copyKindMap(ef.ActionCounts),
		DiscardOnAllPass:               ef.DiscardOnAllPass,
		SkipAuction2IfInsufficientGems: ef.SkipAuction2IfInsufficientGems,
		StrategyTimeout:                ef.StrategyTimeout,
	}
}

// Chart is the configured value chart, nil when unset.
func (ef EngineFile) Chart() engine.ValueChart {
	if len(ef.ValueChart) == 0 {
		return nil
	}
	return append(engine.ValueChart(nil), ef.ValueChart...)
}

// TrinketSet resolves trinket ids against the full menu, nil when unset.
func (ef EngineFile) TrinketSet() ([]engine.TrinketObjective, error) {
	if len(ef.Trinkets) == 0 {
		return nil, nil
	}
	byID := map[string]engine.TrinketObjective{}
	for _, t := range sim.AllTrinkets() {
		byID[t.ID] = t
	}
	out := make([]engine.TrinketObjective, 0, len(ef.Trinkets))
	for _, id := range ef.Trinkets {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("engine config: unknown trinket %q", id)
		}
		out = append(out, t)
	}
	return out, nil
}

func copyIntMap(m map[int]int) map[int]int {
	if m == nil {
		return nil
	}
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyKindMap(m map[engine.ActionKind]int) map[engine.ActionKind]int {
	if m == nil {
		return nil
	}
	out := make(map[engine.ActionKind]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
