package domain

import "time"

// WalletTransactionType классифицирует записи леджера кошелька.
type WalletTransactionType string

const (
	// WalletTransactionPayout — списание баланса при плановой выплате.
	WalletTransactionPayout WalletTransactionType = "payout"
	// WalletTransactionRevenue — зачисление выручки по заказу.
	WalletTransactionRevenue WalletTransactionType = "revenue"
)

// WalletTransactionStatus описывает результат операции леджера.
type WalletTransactionStatus string

const (
	WalletTransactionStatusCompleted WalletTransactionStatus = "completed"
	WalletTransactionStatusPending   WalletTransactionStatus = "pending"
	WalletTransactionStatusFailed    WalletTransactionStatus = "failed"
)

// WalletTransaction — неизменяемая запись леджера: после записи не
// обновляется и не удаляется. Сумма payout-записей артизана сходится
// с wallet.Metadata.TotalPayoutsMinor.
type WalletTransaction struct {
	ID        string
	WalletID  string
	ArtisanID string
	Type      WalletTransactionType
	// AmountMinor отрицателен для исходящих операций (выплат).
	AmountMinor int64
	Description string
	Status      WalletTransactionStatus
	// Reference — уникальная человекочитаемая ссылка для аудита.
	Reference         string
	BalanceAfterMinor int64
	Metadata          map[string]string
	CreatedAt         time.Time
}
