package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора платёжного интента.
	ErrPaymentIntentRequired = errors.New("payment_intent_id is required")
	// Ошибка отсутствующего идентификатора артизана.
	ErrArtisanRequired = errors.New("artisan_id is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("amount_minor must be non-negative")
	// ErrAlreadyExists возвращается при попытке создать запись с занятым ID.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrWalletNotFound возвращается, если кошелёк артизана не найден.
	ErrWalletNotFound = errors.New("wallet not found")
	// ErrUserNotFound возвращается, если пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrPaymentStatusInvalid сигнализирует о недопустимом переходе статуса платежа.
	ErrPaymentStatusInvalid = errors.New("invalid payment status transition")
	// ErrPayoutScheduleInvalid — неподдерживаемое значение расписания выплат.
	// Любое значение кроме weekly/monthly отклоняется на этапе настройки кошелька.
	ErrPayoutScheduleInvalid = errors.New("payout schedule must be weekly or monthly")
	// ErrPayoutsDisabled возвращается при попытке выплаты с выключенными payout settings.
	ErrPayoutsDisabled = errors.New("payouts are disabled for this wallet")
	// ErrWalletBalanceConflict — баланс изменился между чтением и списанием (lost update).
	ErrWalletBalanceConflict = errors.New("wallet balance conflict")
	// ErrTransactionReferenceTaken — reference леджера уже занят другой записью.
	ErrTransactionReferenceTaken = errors.New("wallet transaction reference already exists")
	// ErrCreditAmountInvalid — сумма пополнения кошелька должна быть положительной.
	ErrCreditAmountInvalid = errors.New("credit amount must be greater than zero")
)

// IsNotFound проверяет, относится ли ошибка к семейству "не найдено".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrWalletNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsBalanceConflict проверяет, является ли ошибка конфликтом баланса кошелька.
func IsBalanceConflict(err error) bool {
	return errors.Is(err, ErrWalletBalanceConflict)
}
