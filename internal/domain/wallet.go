package domain

import "time"

// PayoutSchedule определяет периодичность выплат артизану.
type PayoutSchedule string

const (
	// PayoutScheduleWeekly — выплата каждые 7 дней.
	PayoutScheduleWeekly PayoutSchedule = "weekly"
	// PayoutScheduleMonthly — выплата первого числа следующего месяца.
	PayoutScheduleMonthly PayoutSchedule = "monthly"
)

// Valid проверяет, что расписание относится к поддерживаемым значениям.
// Нераспознанное расписание — жёсткая ошибка конфигурации, а не тихий no-op.
func (s PayoutSchedule) Valid() bool {
	switch s {
	case PayoutScheduleWeekly, PayoutScheduleMonthly:
		return true
	default:
		return false
	}
}

// Next вычисляет дату следующей выплаты относительно from.
func (s PayoutSchedule) Next(from time.Time) (time.Time, error) {
	switch s {
	case PayoutScheduleWeekly:
		return from.AddDate(0, 0, 7), nil
	case PayoutScheduleMonthly:
		// Первое число следующего календарного месяца.
		return time.Date(from.Year(), from.Month()+1, 1, 0, 0, 0, 0, from.Location()), nil
	default:
		return time.Time{}, ErrPayoutScheduleInvalid
	}
}

// PayoutSettings хранит настройки выплат кошелька.
type PayoutSettings struct {
	Enabled  bool
	Schedule PayoutSchedule
	// MinimumPayoutMinor — необязательный индивидуальный минимум; 0 означает
	// "использовать глобальный минимум платформы".
	MinimumPayoutMinor int64
	NextPayoutDate     time.Time
	LastPayoutDate     time.Time
}

// WalletMetadata накапливает пожизненную статистику кошелька.
type WalletMetadata struct {
	// TotalPayoutsMinor растёт монотонно на сумму каждой успешной выплаты.
	TotalPayoutsMinor int64
}

// Wallet — кошелёк артизана с балансом, доступным к выплате.
type Wallet struct {
	ID             string
	ArtisanID      string
	Currency       string
	BalanceMinor   int64
	PayoutSettings PayoutSettings
	Metadata       WalletMetadata
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EffectiveMinimum возвращает действующий минимум выплаты. Глобальный минимум
// платформы — жёсткий пол: индивидуальный минимум кошелька может только
// ужесточить порог, но не опустить его ниже глобального.
func (w *Wallet) EffectiveMinimum(globalMinimumMinor int64) int64 {
	if w.PayoutSettings.MinimumPayoutMinor > globalMinimumMinor {
		return w.PayoutSettings.MinimumPayoutMinor
	}
	return globalMinimumMinor
}

// ValidatePayoutSettings проверяет настройки выплат при конфигурации кошелька.
func (w *Wallet) ValidatePayoutSettings() error {
	if !w.PayoutSettings.Enabled {
		return nil
	}
	if !w.PayoutSettings.Schedule.Valid() {
		return ErrPayoutScheduleInvalid
	}
	return nil
}
