package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/bazaarmkt/settlement/internal/domain"
)

// walletRepositoryInMemory — in-memory реализация WalletRepository.
type walletRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Wallet
	// byArtisan индексирует кошельки по владельцу (один кошелёк на артизана).
	byArtisan map[string]string
}

// NewWalletRepository возвращает in-memory репозиторий кошельков.
func NewWalletRepository() domain.WalletRepository {
	return &walletRepositoryInMemory{
		items:     make(map[string]domain.Wallet),
		byArtisan: make(map[string]string),
	}
}

// Create сохраняет новый кошелёк, проверяя настройки выплат.
func (r *walletRepositoryInMemory) Create(wallet domain.Wallet) error {
	if err := wallet.ValidatePayoutSettings(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[wallet.ID]; exists {
		return domain.ErrAlreadyExists
	}
	r.items[wallet.ID] = wallet
	if wallet.ArtisanID != "" {
		r.byArtisan[wallet.ArtisanID] = wallet.ID
	}
	return nil
}

// Get возвращает кошелёк или ErrWalletNotFound.
func (r *walletRepositoryInMemory) Get(id string) (domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wallet, ok := r.items[id]
	if !ok {
		return domain.Wallet{}, domain.ErrWalletNotFound
	}
	return wallet, nil
}

// GetByArtisan возвращает кошелёк владельца.
func (r *walletRepositoryInMemory) GetByArtisan(artisanID string) (domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byArtisan[artisanID]
	if !ok {
		return domain.Wallet{}, domain.ErrWalletNotFound
	}
	return r.items[id], nil
}

// Credit увеличивает баланс кошелька на amountMinor > 0.
func (r *walletRepositoryInMemory) Credit(walletID string, amountMinor int64, now time.Time) (domain.Wallet, error) {
	if amountMinor <= 0 {
		return domain.Wallet{}, domain.ErrCreditAmountInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, ok := r.items[walletID]
	if !ok {
		return domain.Wallet{}, domain.ErrWalletNotFound
	}

	wallet.BalanceMinor += amountMinor
	wallet.UpdatedAt = now
	r.items[walletID] = wallet
	return wallet, nil
}

// ListDue возвращает кошельки, подлежащие выплате на момент now.
func (r *walletRepositoryInMemory) ListDue(now time.Time, minBalanceMinor int64) ([]domain.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	due := make([]domain.Wallet, 0)
	for _, wallet := range r.items {
		if !wallet.PayoutSettings.Enabled {
			continue
		}
		next := wallet.PayoutSettings.NextPayoutDate
		if next.IsZero() || next.After(now) {
			continue
		}
		if wallet.BalanceMinor < minBalanceMinor {
			continue
		}
		due = append(due, wallet)
	}

	sort.Slice(due, func(i, j int) bool {
		return due[i].ID < due[j].ID
	})
	return due, nil
}

// SettlePayout обнуляет баланс compare-and-swap'ом по ожидаемому значению.
func (r *walletRepositoryInMemory) SettlePayout(walletID string, expectedBalanceMinor int64, paidAt, nextPayout time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, ok := r.items[walletID]
	if !ok {
		return domain.ErrWalletNotFound
	}
	// Выплаты могли выключить между выборкой планировщика и списанием.
	if !wallet.PayoutSettings.Enabled {
		return domain.ErrPayoutsDisabled
	}
	// Баланс мог измениться между чтением планировщика и списанием.
	if wallet.BalanceMinor != expectedBalanceMinor {
		return domain.ErrWalletBalanceConflict
	}

	wallet.BalanceMinor = 0
	wallet.PayoutSettings.LastPayoutDate = paidAt
	wallet.PayoutSettings.NextPayoutDate = nextPayout
	wallet.Metadata.TotalPayoutsMinor += expectedBalanceMinor
	wallet.UpdatedAt = paidAt
	r.items[walletID] = wallet
	return nil
}

var _ domain.WalletRepository = (*walletRepositoryInMemory)(nil)
