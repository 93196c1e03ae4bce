package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/AlenaMolokova/circlepay/internal/cache"
	"github.com/AlenaMolokova/circlepay/internal/config"
	"github.com/AlenaMolokova/circlepay/internal/constants"
	"github.com/AlenaMolokova/circlepay/internal/ledger"
	"github.com/AlenaMolokova/circlepay/internal/logger"
	"github.com/AlenaMolokova/circlepay/internal/settings"
	"github.com/AlenaMolokova/circlepay/internal/sheets"
)

// app holds the components every command shares.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	store    *sheets.Client
	cache    *cache.ReadCache
	settings *settings.Provider
	ledger   *ledger.Ledger
	close    func() error
}

func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.envFiles...)
	if err != nil {
		return nil, err
	}
	if opts.ownersFile != "" {
		if cfg.Owners, err = config.LoadOwners(opts.ownersFile); err != nil {
			return nil, err
		}
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	zlog.Logger = log

	backend, closeFn, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := sheets.NewClient(backend, sheets.Options{
		MinInterval: cfg.StoreMinInterval,
		MaxAttempts: cfg.StoreMaxAttempts,
		BaseDelay:   cfg.StoreBaseDelay,
		Jitter:      cfg.StoreJitter,
	}, log)

	c := cache.New(cfg.SettingsTTL, cfg.QueueTTL)
	defaults := settings.Defaults()
	defaults.OwnerAccounts = cfg.Owners
	sp := settings.NewProvider(store, c, defaults, cfg.Tenant, log)

	log.Info().
		Str("backend", cfg.StoreBackend).
		Str("tenant", cfg.Tenant).
		Int("owners", len(cfg.Owners)).
		Msg("Configuration loaded")

	return &app{
		cfg:      cfg,
		log:      log,
		store:    store,
		cache:    c,
		settings: sp,
		ledger:   ledger.New(store, c, sp, log),
		close:    closeFn,
	}, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (sheets.Backend, func() error, error) {
	switch cfg.StoreBackend {
	case config.BackendXLSX:
		b, err := sheets.OpenXLSX(cfg.XLSXPath)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	default:
		creds, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read credentials: %w", err)
		}
		b, err := sheets.NewGoogleBackend(ctx, cfg.SpreadsheetID, creds)
		if err != nil {
			return nil, nil, err
		}
		return b, func() error { return nil }, nil
	}
}

// ensureSheets creates every sheet the service reads or writes.
func (a *app) ensureSheets(ctx context.Context) error {
	if err := a.ledger.EnsureSheets(ctx); err != nil {
		return err
	}
	if err := a.store.EnsureSheetAndHeaders(ctx, constants.SheetSettings, settings.Headers); err != nil {
		return fmt.Errorf("failed to prepare settings sheet: %w", err)
	}
	return nil
}
