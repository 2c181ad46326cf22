// Package app wires the configured store, logger and collaborators into an
// Engine and owns their lifecycle.
package app

import (
	"context"
	"errors"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"lune/internal/config"
	"lune/internal/db"
	"lune/internal/engine"
	"lune/internal/entitlement"
	"lune/internal/kv"
	"lune/internal/logging"
	"lune/internal/reflection"
	"lune/internal/repo"
)

// FileStoreName is the default file-backend document inside .lune.
const FileStoreName = "store.json"

type Options struct {
	Workspace string
	Viper     *viper.Viper
	// Console overrides the log console, mostly for tests.
	Console io.Writer
}

type App struct {
	Workspace   string
	Config      *config.Config
	Log         zerolog.Logger
	Store       kv.Store
	Repo        *repo.Repo
	Engine      engine.Engine
	Entitlement *entitlement.Service

	logCloser io.Closer
}

// Open resolves config, starts logging and opens the configured medium.
func Open(ctx context.Context, opts Options) (*App, error) {
	dir, err := db.EnsureWorkspace(opts.Workspace)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.Workspace, opts.Viper)
	if err != nil {
		return nil, err
	}
	log, logCloser, err := logging.New(logging.Options{Level: cfg.Log.Level, Dir: dir, Console: opts.Console})
	if err != nil {
		return nil, err
	}
	a := &App{Workspace: opts.Workspace, Config: cfg, Log: log, logCloser: logCloser}

	filePath := cfg.Store.File
	if filePath == "" {
		filePath = filepath.Join(dir, FileStoreName)
	}
	store, err := kv.Open(ctx, kv.Options{
		Backend:   cfg.Store.Backend,
		Workspace: opts.Workspace,
		RedisAddr: cfg.Store.RedisAddr,
		RedisDB:   cfg.Store.RedisDB,
		Namespace: cfg.Store.Namespace,
		FilePath:  filePath,
	})
	if err != nil {
		logCloser.Close()
		return nil, err
	}
	a.Store = store

	r := repo.New(store, log.With().Str("component", "repo").Logger())
	r.VerifyDelay = cfg.Ledger.VerifyDelay
	a.Repo = r

	ent := entitlement.New(cfg.Entitlement.APIKey, cfg.Entitlement.AppUserID, log.With().Str("component", "entitlement").Logger())
	if cfg.Entitlement.BaseURL != "" {
		ent.BaseURL = cfg.Entitlement.BaseURL
	}
	if len(cfg.Entitlement.IDs) > 0 {
		ent.IDs = cfg.Entitlement.IDs
	}
	if err := ent.Init(ctx); err != nil {
		log.Debug().Err(err).Msg("entitlement service left uninitialized")
	}
	a.Entitlement = ent

	eng := engine.New(r, cfg, log.With().Str("component", "engine").Logger())
	eng.Entitlement = ent
	if cfg.ReflectionConfigured() {
		client := reflection.New(cfg.Reflection.URL, cfg.Reflection.AnonKey)
		client.Timeout = cfg.Reflection.Timeout
		eng.Reflection = client
	}
	a.Engine = eng
	log.Debug().Str("backend", cfg.Store.Backend).Str("workspace", dir).Msg("app opened")
	return a, nil
}

// Close releases the collaborators in reverse order of Open.
func (a *App) Close() error {
	var errs []error
	if a.Entitlement != nil {
		errs = append(errs, a.Entitlement.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}
	return errors.Join(errs...)
}
