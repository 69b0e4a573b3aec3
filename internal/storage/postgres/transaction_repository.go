package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/bazaarmkt/settlement/internal/domain"
)

type transactionRepository struct {
	db *sql.DB
}

// NewWalletTransactionRepository создаёт PostgreSQL-реализацию леджера кошельков.
func NewWalletTransactionRepository(store *Store) domain.WalletTransactionRepository {
	return &transactionRepository{db: store.DB()}
}

// Append пишет новую запись леджера. Уникальность reference обеспечивается
// ограничением базы; UPDATE и DELETE по таблице не выполняются никогда.
func (r *transactionRepository) Append(tx domain.WalletTransaction) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	metadata := tx.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	rawMetadata, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("marshal transaction metadata: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO wallet_transactions (
			id, wallet_id, artisan_id, type, amount_minor, description,
			status, reference, balance_after_minor, metadata, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		tx.ID, tx.WalletID, tx.ArtisanID, string(tx.Type), tx.AmountMinor,
		tx.Description, string(tx.Status), tx.Reference, tx.BalanceAfterMinor,
		rawMetadata, tx.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTransactionReferenceTaken
		}
		return fmt.Errorf("insert wallet transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) ListByArtisan(artisanID string, limit int) ([]domain.WalletTransaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := `
		SELECT id, wallet_id, artisan_id, type, amount_minor, description,
		       status, reference, balance_after_minor, metadata, created_at
		FROM wallet_transactions
		WHERE artisan_id = $1
		ORDER BY created_at DESC, id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.QueryContext(ctx, query+" LIMIT $2", artisanID, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, query, artisanID)
	}
	if err != nil {
		return nil, fmt.Errorf("list wallet transactions: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.WalletTransaction, 0)
	for rows.Next() {
		var (
			entry       domain.WalletTransaction
			txType      string
			status      string
			rawMetadata []byte
		)
		if err := rows.Scan(
			&entry.ID, &entry.WalletID, &entry.ArtisanID, &txType,
			&entry.AmountMinor, &entry.Description, &status, &entry.Reference,
			&entry.BalanceAfterMinor, &rawMetadata, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan wallet transaction: %w", err)
		}
		entry.Type = domain.WalletTransactionType(txType)
		entry.Status = domain.WalletTransactionStatus(status)
		if len(rawMetadata) > 0 {
			if err := json.Unmarshal(rawMetadata, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal transaction metadata: %w", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet transactions: %w", err)
	}

	return entries, nil
}

var _ domain.WalletTransactionRepository = (*transactionRepository)(nil)
