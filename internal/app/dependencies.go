package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/bazaarmkt/settlement/internal/domain"
	"github.com/bazaarmkt/settlement/internal/storage/memory"
	"github.com/bazaarmkt/settlement/internal/storage/postgres"
)

// Dependencies содержит хранилища приложения.
type Dependencies struct {
	Orders       domain.OrderRepository
	Products     domain.ProductRepository
	Wallets      domain.WalletRepository
	Transactions domain.WalletTransactionRepository
	Users        domain.UserRepository
	Settings     domain.SettingsRepository

	// Store заполнен только в PostgreSQL-режиме; используется health-проверкой.
	Store  *postgres.Store
	Logger *log.Entry
}

// NewDependencies собирает хранилища: PostgreSQL при заданном DSN,
// иначе in-memory (dev-режим).
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	if cfg.PostgresDSN == "" {
		logger.Info("DATABASE_URL is not set, using in-memory storage")
		return &Dependencies{
			Orders:       memory.NewOrderRepository(),
			Products:     memory.NewProductRepository(),
			Wallets:      memory.NewWalletRepository(),
			Transactions: memory.NewWalletTransactionRepository(),
			Users:        memory.NewUserRepository(),
			Settings:     memory.NewSettingsRepository(),
			Logger:       logger,
		}, nil
	}

	store, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.PostgresAutoMigrate {
		if err := store.MigrateUp(ctx, 0); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		logger.Info("postgres migrations applied")
	}

	logger.Info("using postgres storage")
	return &Dependencies{
		Orders:       postgres.NewOrderRepository(store),
		Products:     postgres.NewProductRepository(store),
		Wallets:      postgres.NewWalletRepository(store),
		Transactions: postgres.NewWalletTransactionRepository(store),
		Users:        postgres.NewUserRepository(store),
		Settings:     postgres.NewSettingsRepository(store),
		Store:        store,
		Logger:       logger,
	}, nil
}

// Close освобождает ресурсы хранилищ.
func (d *Dependencies) Close() error {
	if d == nil || d.Store == nil {
		return nil
	}
	return d.Store.Close()
}
