package memory

import (
	"sort"
	"sync"

	"github.com/bazaarmkt/settlement/internal/domain"
)

// transactionRepositoryInMemory — append-only in-memory леджер кошельков.
type transactionRepositoryInMemory struct {
	mu      sync.RWMutex
	entries []domain.WalletTransaction
	// byReference защищает уникальность человекочитаемой ссылки.
	byReference map[string]struct{}
}

// NewWalletTransactionRepository возвращает in-memory леджер.
func NewWalletTransactionRepository() domain.WalletTransactionRepository {
	return &transactionRepositoryInMemory{
		byReference: make(map[string]struct{}),
	}
}

// Append добавляет запись леджера. Записи не мутируются и не удаляются.
func (r *transactionRepositoryInMemory) Append(tx domain.WalletTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byReference[tx.Reference]; taken {
		return domain.ErrTransactionReferenceTaken
	}

	if tx.Metadata != nil {
		metadata := make(map[string]string, len(tx.Metadata))
		for k, v := range tx.Metadata {
			metadata[k] = v
		}
		tx.Metadata = metadata
	}

	r.entries = append(r.entries, tx)
	r.byReference[tx.Reference] = struct{}{}
	return nil
}

// ListByArtisan возвращает записи артизана, новые первыми.
func (r *transactionRepositoryInMemory) ListByArtisan(artisanID string, limit int) ([]domain.WalletTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.WalletTransaction, 0)
	for _, entry := range r.entries {
		if entry.ArtisanID != artisanID {
			continue
		}
		result = append(result, entry)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ domain.WalletTransactionRepository = (*transactionRepositoryInMemory)(nil)
