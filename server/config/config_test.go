package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aleehealey/alphagem/server/engine"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"DATABASE_URL", "PORT", "SIM_GAMES", "SIM_SEED", "SIM_STRATEGIES", "STRATEGY_TIMEOUT_MS", "DEBUG", "NO_COLOR", "USE_COLOR", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	c := Load()
	if c.Port != "8080" || c.Games != 1000 || c.Seed != 0 || c.Strategies != nil {
		t.Fatalf("defaults = %+v", c)
	}
	if c.StrategyTimeout != 0 || !c.UseColor || c.LogLevel != "info" {
		t.Fatalf("defaults = %+v", c)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SIM_GAMES", "250")
	t.Setenv("SIM_SEED", "42")
	t.Setenv("SIM_PLAYERS", "4")
	t.Setenv("SIM_STRATEGIES", " AlwaysPass, HeuristicBot40 ,,")
	t.Setenv("STRATEGY_TIMEOUT_MS", "150")
	t.Setenv("AUTO_MIGRATE", "yes")
	t.Setenv("DEBUG", "1")
	t.Setenv("NO_COLOR", "1")
	c := Load()
	if c.Games != 250 || c.Seed != 42 || c.Players != 4 {
		t.Fatalf("numbers = %+v", c)
	}
	if len(c.Strategies) != 2 || c.Strategies[1] != "HeuristicBot40" {
		t.Fatalf("strategies = %q", c.Strategies)
	}
	if c.StrategyTimeout != 150*time.Millisecond || !c.AutoMigrate || c.LogLevel != "debug" || c.UseColor {
		t.Fatalf("flags = %+v", c)
	}
}

func TestAtoiDefAndAsBool(t *testing.T) {
	if atoiDef("x", 7) != 7 || atoiDef(" 3 ", 7) != 3 || atoiDef("", 7) != 7 {
		t.Fatalf("atoiDef")
	}
	for s, want := range map[string]bool{"1": true, "TRUE": true, "on": true, "0": false, "": false, "nope": false} {
		if asBool(s) != want {
			t.Fatalf("asBool(%q) != %v", s, want)
		}
	}
}

const sampleEngine = `
gems_per_suit: 7
starting_cash: {3: 40, 4: "35", 5: 30}
action_counts:
  AUCTION_1: 10
  AUCTION_2: 4
  LOAN_10: 1
discard_on_all_pass: true
strategy_timeout: 250ms
value_chart: [0, 5, 10, 15, 20, 25, 30]
trinkets: [P2_SAME_RUBY, T3_RUBY_SAPPHIRE_EMERALD]
`

func TestLoadEngineFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	if err := os.WriteFile(path, []byte(sampleEngine), 0o644); err != nil {
		t.Fatal(err)
	}
	ef, err := LoadEngineFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := ef.ConfigFor(99)
	if cfg.Seed != 99 || cfg.GemsPerSuit != 7 || cfg.StartingCash[4] != 35 || !cfg.DiscardOnAllPass {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.ActionCounts[engine.Auction2] != 4 || cfg.StrategyTimeout != 250*time.Millisecond {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.InfoCardsPerPlayer != nil {
		t.Fatalf("unset field should stay nil for engine defaults")
	}
	cfg.StartingCash[3] = 1
	if ef.ConfigFor(1).StartingCash[3] != 40 {
		t.Fatalf("ConfigFor shares maps between games")
	}
	if chart := ef.Chart(); len(chart) != 7 || chart[1] != 5 {
		t.Fatalf("chart = %v", chart)
	}
	ts, err := ef.TrinketSet()
	if err != nil || len(ts) != 2 || ts[1].Points != 10 {
		t.Fatalf("trinkets = %+v, %v", ts, err)
	}
}

func TestParseEngineFileRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "gem_per_suit: 3\n",
		"unknown action": "action_counts: {AUCTION_3: 1}\n",
		"bad yaml":       "gems_per_suit: [\n",
	}
	for name, body := range cases {
		if _, err := ParseEngineFile([]byte(body)); err == nil {
			t.Fatalf("%s: accepted", name)
		}
	}
	_, err := ParseEngineFile([]byte("action_counts: {AUCTION_3: 1}\n"))
	if !errors.Is(err, engine.ErrConfiguration) {
		t.Fatalf("unknown action should wrap ErrConfiguration, got %v", err)
	}
	ef, _ := ParseEngineFile([]byte("trinkets: [NOPE]\n"))
	if _, err := ef.TrinketSet(); err == nil {
		t.Fatalf("unknown trinket accepted")
	}
}
