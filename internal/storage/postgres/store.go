package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const defaultConnTimeout = 5 * time.Second

// poolConfig — настройки пула подключений. Значения по умолчанию рассчитаны
// на нагрузку сервиса: короткие OLTP-транзакции вебхуков и CAS-списания выплат.
type poolConfig struct {
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
	connMaxIdleTime time.Duration
}

func defaultPoolConfig() poolConfig {
	return poolConfig{
		maxOpenConns:    25,
		maxIdleConns:    25,
		connMaxLifetime: 30 * time.Minute,
		connMaxIdleTime: 5 * time.Minute,
	}
}

// StoreOption переопределяет настройки пула подключений.
type StoreOption func(*poolConfig)

// WithMaxOpenConns задаёт предел одновременных подключений к базе.
func WithMaxOpenConns(n int) StoreOption {
	return func(c *poolConfig) {
		c.maxOpenConns = n
		if c.maxIdleConns > n {
			c.maxIdleConns = n
		}
	}
}

// WithConnMaxLifetime задаёт максимальное время жизни подключения в пуле.
func WithConnMaxLifetime(d time.Duration) StoreOption {
	return func(c *poolConfig) {
		c.connMaxLifetime = d
	}
}

// Store оборачивает SQL-подключение сервиса выплат к PostgreSQL. Все
// репозитории хранилища (заказы, товары, кошельки, леджер, настройки)
// делят один пул через Store.
type Store struct {
	db *sql.DB
}

// Open открывает подключение к PostgreSQL через драйвер pgx и проверяет
// доступность базы до того, как хранилище попадёт в зависимости сервиса.
func Open(ctx context.Context, dsn string, opts ...StoreOption) (*Store, error) {
	cfg := defaultPoolConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(cfg.maxOpenConns)
	db.SetMaxIdleConns(cfg.maxIdleConns)
	db.SetConnMaxLifetime(cfg.connMaxLifetime)
	db.SetConnMaxIdleTime(cfg.connMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// DB возвращает raw SQL DB для репозиториев и миграций.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping проверяет доступность подключения; используется readiness-чекером.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("postgres store is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultConnTimeout)
	defer cancel()
	return s.db.PingContext(pingCtx)
}

// EnsureSchema применяет все up-миграции схемы расчётов.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

// Close закрывает подключение к БД.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
