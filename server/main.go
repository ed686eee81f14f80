package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aleehealey/alphagem/server/config"
	"github.com/aleehealey/alphagem/server/store"
)

func main() {
	cfg := config.Load()
	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()
	if !cfg.UseColor {
		pterm.DisableColor()
	}

	var serve, migrate, asJSON bool
	for _, a := range os.Args[1:] {
		switch a {
		case "--serve":
			serve = true
		case "--migrate":
			migrate = true
		case "--json":
			asJSON = true
		case "--simulate":
		default:
			log.Fatal("unknown flag", zap.String("flag", a))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchSignals(cancel, log)

	setup, err := engineSetup(cfg)
	if err != nil {
		log.Fatal("engine config", zap.String("path", cfg.EngineConfig), zap.Error(err))
	}
	runner := batchRunner{setup: setup, log: log}

	switch {
	case migrate:
		db := mustOpen(ctx, cfg, log)
		defer db.Close()
		if err := store.Migrate(ctx, db); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
		log.Info("migrated")

	case serve:
		db := mustOpen(ctx, cfg, log)
		defer db.Close()
		if cfg.AutoMigrate {
			if err := store.Migrate(ctx, db); err != nil {
				log.Fatal("migrate", zap.Error(err))
			}
		}
		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           Router(db, runner.run, log),
			ReadHeaderTimeout: 15 * time.Second,
		}
		go func() {
			<-ctx.Done()
			sctx, done := context.WithTimeout(context.Background(), 10*time.Second)
			defer done()
			_ = srv.Shutdown(sctx)
		}()
		log.Info("listening", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("serve", zap.Error(err))
		}

	default:
		simulate(ctx, cfg, runner, asJSON, log)
	}
}

func simulate(ctx context.Context, cfg config.Config, runner batchRunner, asJSON bool, log *zap.Logger) {
	start := time.Now()
	run, err := runner.run(ctx, batchParams{
		Strategies:   cfg.Strategies,
		Games:        cfg.Games,
		Players:      cfg.Players,
		Seed:         cfg.Seed,
		Workers:      cfg.Workers,
		VerboseEvery: cfg.VerboseEvery,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("batch cancelled")
			return
		}
		log.Fatal("batch", zap.Error(err))
	}
	log.Info("batch done",
		zap.Int("games", len(run.Result.GameLogs)),
		zap.Int64("seed", run.Result.Seed),
		zap.Duration("took", time.Since(start)))

	if cfg.DatabaseURL != "" {
		if db, err := store.Open(ctx, cfg.DatabaseURL); err != nil {
			log.Warn("DB disabled (open failed)", zap.Error(err))
		} else {
			defer db.Close()
			if cfg.AutoMigrate {
				if err := store.Migrate(ctx, db); err != nil {
					log.Warn("migrate failed", zap.Error(err))
				}
			}
			if id, err := db.SaveRun(ctx, run); err != nil {
				log.Warn("save run failed", zap.Error(err))
			} else {
				log.Info("run stored", zap.String("run", id.String()))
			}
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{
			"summaries": run.Summaries,
			"ratings":   run.Ratings,
			"games":     run.Result.GameLogs,
		}); err != nil {
			log.Error("encode", zap.Error(err))
		}
		return
	}
	printReport(run)
}

// engineSetup merges ENGINE_CONFIG with the env timeout; nil means engine defaults.
func engineSetup(cfg config.Config) (*config.EngineFile, error) {
	var ef *config.EngineFile
	if cfg.EngineConfig != "" {
		f, err := config.LoadEngineFile(cfg.EngineConfig)
		if err != nil {
			return nil, err
		}
		ef = &f
	}
	if cfg.StrategyTimeout > 0 {
		if ef == nil {
			ef = &config.EngineFile{}
		}
		ef.StrategyTimeout = cfg.StrategyTimeout
	}
	return ef, nil
}

func mustOpen(ctx context.Context, cfg config.Config, log *zap.Logger) *store.DB {
	if cfg.DatabaseURL == "" {
		log.Fatal("missing env var", zap.String("key", "DATABASE_URL"))
	}
	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open db", zap.Error(err))
	}
	return db
}

func newLogger(cfg config.Config) *zap.Logger {
	zc := zap.NewProductionConfig()
	if cfg.Debug {
		zc = zap.NewDevelopmentConfig()
	}
	if lvl, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	log, err := zc.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func watchSignals(cancel context.CancelFunc, log *zap.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	s := <-c
	log.Info("stopping", zap.String("signal", s.String()))
	cancel()
}
