package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/roasbeef/booksum/internal/api"
	"github.com/roasbeef/booksum/internal/build"
	"github.com/roasbeef/booksum/internal/cache"
	"github.com/roasbeef/booksum/internal/config"
	"github.com/roasbeef/booksum/internal/db"
	"github.com/roasbeef/booksum/internal/jobs"
	"github.com/roasbeef/booksum/internal/library"
	"github.com/roasbeef/booksum/internal/pipeline"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// app holds everything a command needs, built from the config and the
// global flags.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	client *api.Client
	poller *jobs.Poller
	lib    *library.Service
	db     *db.Store

	closeLog func() error
}

// loadConfig reads the config file and applies the global flags on top.
func loadConfig(overrides ...func(*config.Config)) (config.Config, error) {
	switch outputFormat {
	case formatText, formatJSON:
	default:
		return config.Config{}, fmt.Errorf("unknown output format %q",
			outputFormat)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}

	if apiURL != "" {
		cfg.API.URL = apiURL
	}
	if debug {
		cfg.Log.Level = "debug"
	}
	if cacheDBPath != "" {
		cfg.Cache.DBPath = cacheDBPath
	}
	for _, o := range overrides {
		o(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

// openApp wires the client, the pipeline and the cache restored from disk.
// The caller must Close the app.
func openApp(ctx context.Context,
	overrides ...func(*config.Config)) (*app, error) {

	cfg, err := loadConfig(overrides...)
	if err != nil {
		return nil, err
	}

	log, closeLog, err := build.NewLogger(build.LogConfig{
		Level: cfg.Log.Level,
		Rotator: build.RotatorConfig{
			Dir:           cfg.Log.Dir,
			MaxFiles:      cfg.Log.MaxFiles,
			MaxFileSizeMB: cfg.Log.MaxFileSizeMB,
		},
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, closeLog: closeLog}

	a.client, err = api.NewClient(cfg.APIConfig(), log)
	if err != nil {
		a.Close()
		return nil, err
	}

	dbPath := cfg.Cache.DBPath
	if dbPath == "" {
		dbPath, err = db.DefaultDBPath()
		if err != nil {
			a.Close()
			return nil, err
		}
	}
	a.db, err = db.Open(dbPath, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	store := cache.NewStore(cfg.CacheConfig(), log)
	snap, err := a.db.LoadSnapshot(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	store.Restore(snap)

	a.poller = jobs.NewPoller(a.client, cfg.PollConfig(), log)
	orch := pipeline.NewOrchestrator(a.poller, a.client, a.client, log)
	a.lib = library.NewService(
		a.client, orch, store, cfg.ListingConfig(), log,
		library.WithPersist(a.db.SaveSnapshot),
	)

	return a, nil
}

// Close releases the database and flushes the log file.
func (a *app) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close cache database", "err", err)
		}
	}
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

// outputJSON outputs data as JSON.
func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
