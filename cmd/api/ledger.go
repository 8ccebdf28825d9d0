package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"esign/internal/config"
	"esign/internal/database"
	"esign/internal/database/migration"
	handlers "esign/internal/http/handler"
	"esign/internal/repository"
	"esign/internal/repository/badger"
	"esign/internal/repository/cache"
	"esign/internal/repository/postgres"
)

type ledgerBackend struct {
	repo   repository.SignatureRepository
	pinger handlers.Pinger
	close  func() error
}

// openLedger opens the configured backend and wraps it in the LRU when enabled.
func openLedger(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*ledgerBackend, error) {
	var l *ledgerBackend
	switch cfg.Ledger.Backend {
	case "postgres":
		db, err := database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, err
		}
		l = &ledgerBackend{repo: postgres.NewSignaturePostgres(db), pinger: db, close: db.Close}
	case "badger":
		store, err := badger.Open(badger.Options{
			Path:       cfg.Ledger.BadgerPath,
			SyncWrites: cfg.Ledger.SyncWrites,
			Logger:     log,
		})
		if err != nil {
			return nil, err
		}
		log.Info("ledger opened", zap.String("component", "badger"), zap.String("path", cfg.Ledger.BadgerPath))
		l = &ledgerBackend{repo: store, pinger: store, close: store.Close}
	default:
		return nil, fmt.Errorf("unknown ledger backend %q (want postgres or badger)", cfg.Ledger.Backend)
	}

	if cfg.Ledger.CacheSize > 0 {
		cached, err := cache.New(l.repo, cfg.Ledger.CacheSize)
		if err != nil {
			_ = l.close()
			return nil, err
		}
		l.repo = cached
	}
	return l, nil
}
