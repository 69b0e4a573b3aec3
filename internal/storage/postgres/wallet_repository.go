package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bazaarmkt/settlement/internal/domain"
)

type walletRepository struct {
	db *sql.DB
}

// NewWalletRepository создаёт PostgreSQL-реализацию WalletRepository.
func NewWalletRepository(store *Store) domain.WalletRepository {
	return &walletRepository{db: store.DB()}
}

const walletColumns = `
	id, artisan_id, currency, balance_minor, payout_enabled, payout_schedule,
	minimum_payout_minor, next_payout_date, last_payout_date,
	total_payouts_minor, created_at, updated_at
`

func (r *walletRepository) Create(wallet domain.Wallet) error {
	if err := wallet.ValidatePayoutSettings(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wallets (`+walletColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		wallet.ID, wallet.ArtisanID, wallet.Currency, wallet.BalanceMinor,
		wallet.PayoutSettings.Enabled, string(wallet.PayoutSettings.Schedule),
		wallet.PayoutSettings.MinimumPayoutMinor, wallet.PayoutSettings.NextPayoutDate,
		wallet.PayoutSettings.LastPayoutDate, wallet.Metadata.TotalPayoutsMinor,
		wallet.CreatedAt, wallet.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

func (r *walletRepository) Get(id string) (domain.Wallet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE id = $1
	`, id)
	return scanWalletRow(row)
}

func (r *walletRepository) GetByArtisan(artisanID string) (domain.Wallet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE artisan_id = $1
	`, artisanID)
	return scanWalletRow(row)
}

func (r *walletRepository) Credit(walletID string, amountMinor int64, now time.Time) (domain.Wallet, error) {
	if amountMinor <= 0 {
		return domain.Wallet{}, domain.ErrCreditAmountInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		UPDATE wallets
		SET balance_minor = balance_minor + $2,
		    updated_at = $3
		WHERE id = $1
		RETURNING `+walletColumns+`
	`, walletID, amountMinor, now)
	return scanWalletRow(row)
}

func (r *walletRepository) ListDue(now time.Time, minBalanceMinor int64) ([]domain.Wallet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE payout_enabled
		  AND next_payout_date > '0001-01-01 00:00:00+00'
		  AND next_payout_date <= $1
		  AND balance_minor >= $2
		ORDER BY id ASC
	`, now, minBalanceMinor)
	if err != nil {
		return nil, fmt.Errorf("list due wallets: %w", err)
	}
	defer rows.Close()

	wallets := make([]domain.Wallet, 0)
	for rows.Next() {
		wallet, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, wallet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due wallets: %w", err)
	}
	return wallets, nil
}

// SettlePayout обнуляет баланс compare-and-swap'ом: UPDATE проходит только
// при совпадении текущего баланса с ожидаемым и включённых выплатах.
// Конкурентное зачисление даёт ErrWalletBalanceConflict, выключенные
// между выборкой и списанием выплаты — ErrPayoutsDisabled.
func (r *walletRepository) SettlePayout(walletID string, expectedBalanceMinor int64, paidAt, nextPayout time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE wallets
		SET balance_minor = 0,
		    last_payout_date = $3,
		    next_payout_date = $4,
		    total_payouts_minor = total_payouts_minor + $2,
		    updated_at = $3
		WHERE id = $1
		  AND balance_minor = $2
		  AND payout_enabled
	`, walletID, expectedBalanceMinor, paidAt, nextPayout)
	if err != nil {
		return fmt.Errorf("settle payout: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	wallet, err := r.Get(walletID)
	if err != nil {
		return err
	}
	if !wallet.PayoutSettings.Enabled {
		return domain.ErrPayoutsDisabled
	}
	return domain.ErrWalletBalanceConflict
}

type walletScanner interface {
	Scan(dest ...interface{}) error
}

func scanWalletRow(row *sql.Row) (domain.Wallet, error) {
	wallet, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Wallet{}, domain.ErrWalletNotFound
		}
		return domain.Wallet{}, err
	}
	return wallet, nil
}

func scanWallet(s walletScanner) (domain.Wallet, error) {
	var (
		wallet   domain.Wallet
		schedule string
	)

	err := s.Scan(
		&wallet.ID, &wallet.ArtisanID, &wallet.Currency, &wallet.BalanceMinor,
		&wallet.PayoutSettings.Enabled, &schedule,
		&wallet.PayoutSettings.MinimumPayoutMinor, &wallet.PayoutSettings.NextPayoutDate,
		&wallet.PayoutSettings.LastPayoutDate, &wallet.Metadata.TotalPayoutsMinor,
		&wallet.CreatedAt, &wallet.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Wallet{}, err
		}
		return domain.Wallet{}, fmt.Errorf("scan wallet: %w", err)
	}
	wallet.PayoutSettings.Schedule = domain.PayoutSchedule(schedule)
	return wallet, nil
}

var _ domain.WalletRepository = (*walletRepository)(nil)
