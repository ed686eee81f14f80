package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration read from the environment (and .env).
type Config struct {
	DatabaseURL string
	Port        string
	AutoMigrate bool

	Games        int
	Seed         int64
	Players      int // 0 = pool size
	Workers      int // 0 = NumCPU
	Strategies   []string
	VerboseEvery int

	EngineConfig    string
	StrategyTimeout time.Duration

	LogLevel string
	Debug    bool
	UseColor bool
}

// Load reads .env when present, then the environment.
func Load() Config {
	_ = godotenv.Load()

	c := Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		Port:         getenv("PORT", "8080"),
		AutoMigrate:  asBool(os.Getenv("AUTO_MIGRATE")),
		Games:        atoiDef(os.Getenv("SIM_GAMES"), 1000),
		Seed:         int64(atoiDef(os.Getenv("SIM_SEED"), 0)),
		Players:      atoiDef(os.Getenv("SIM_PLAYERS"), 0),
		Workers:      atoiDef(os.Getenv("SIM_WORKERS"), 0),
		Strategies:   splitList(os.Getenv("SIM_STRATEGIES")),
		VerboseEvery: atoiDef(os.Getenv("SIM_VERBOSE_EVERY"), 0),
		EngineConfig: strings.TrimSpace(os.Getenv("ENGINE_CONFIG")),
		LogLevel:     strings.ToLower(getenv("LOG_LEVEL", "info")),
		Debug:        asBool(os.Getenv("DEBUG")),
	}
	if ms := atoiDef(os.Getenv("STRATEGY_TIMEOUT_MS"), 0); ms > 0 {
		c.StrategyTimeout = time.Duration(ms) * time.Millisecond
	}
	c.UseColor = os.Getenv("NO_COLOR") == "" && strings.TrimSpace(os.Getenv("USE_COLOR")) != "0"
	if c.Debug {
		c.LogLevel = "debug"
	}
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
func atoiDef(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
func asBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
