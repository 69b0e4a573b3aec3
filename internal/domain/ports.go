package domain

import "time"

// OrderRepository описывает требования к хранилищу заказов.
// Методы Mark* применяют переход по paymentIntentID с проверкой монотонности
// (PaymentStatus.CanTransitionTo): повторная доставка webhook сводится к тому
// же состоянию, немонотонный переход отклоняется с ErrPaymentStatusInvalid.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ошибку, если запись с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// GetByPaymentIntent возвращает заказ по ссылке платёжного провайдера.
	GetByPaymentIntent(intentID string) (Order, error)
	// MarkCaptured фиксирует успешное списание средств.
	MarkCaptured(intentID string, amountMinor int64, capturedAt time.Time) (Order, error)
	// MarkFailed переводит платёж в failed и атомарно претендует на восстановление
	// инвентаря. Второе возвращаемое значение true только для вызова, который
	// первым выставил флаг InventoryRestored.
	MarkFailed(intentID, reason string, failedAt time.Time) (Order, bool, error)
	// MarkCanceled переводит платёж в canceled, заказ в cancelled и претендует
	// на восстановление инвентаря аналогично MarkFailed.
	MarkCanceled(intentID string, canceledAt time.Time) (Order, bool, error)
	// MarkRefunded фиксирует возврат средств. Инвентарь не восстанавливается.
	MarkRefunded(intentID string, amountMinor int64, refundedAt time.Time) (Order, error)
	// ReleaseRestoreClaim снимает флаг InventoryRestored после неудавшегося
	// восстановления, чтобы повторная доставка webhook могла претендовать заново.
	ReleaseRestoreClaim(intentID string) error
}

// ProductRepository описывает хранилище каталога с инвентарём.
type ProductRepository interface {
	Create(product Product) error
	Get(id string) (Product, error)
	// RestoreInventory атомарно возвращает qty единиц в авторитетное поле
	// инвентаря товара, уменьшает soldCount (не ниже нуля) и переводит
	// out_of_stock → active, если остаток стал положительным. Инкремент
	// выполняется на уровне хранилища, а не через read-modify-write.
	RestoreInventory(productID string, qty int32) (Product, error)
}

// WalletRepository описывает хранилище кошельков артизанов.
type WalletRepository interface {
	Create(wallet Wallet) error
	Get(id string) (Wallet, error)
	GetByArtisan(artisanID string) (Wallet, error)
	// Credit атомарно увеличивает баланс кошелька на amountMinor > 0.
	Credit(walletID string, amountMinor int64, now time.Time) (Wallet, error)
	// ListDue возвращает кошельки с включёнными выплатами, наступившей датой
	// NextPayoutDate и балансом не ниже глобального минимума.
	ListDue(now time.Time, minBalanceMinor int64) ([]Wallet, error)
	// SettlePayout обнуляет баланс compare-and-swap'ом: обновление проходит
	// только если текущий баланс равен expectedBalanceMinor, иначе
	// ErrWalletBalanceConflict; выключенные выплаты дают ErrPayoutsDisabled.
	// Одновременно выставляются lastPayoutDate, nextPayoutDate и
	// инкрементируется metadata.totalPayouts.
	SettlePayout(walletID string, expectedBalanceMinor int64, paidAt, nextPayout time.Time) error
}

// WalletTransactionRepository — append-only леджер кошельков.
type WalletTransactionRepository interface {
	// Append записывает новую запись леджера. Повторный reference даёт
	// ErrTransactionReferenceTaken. Записи никогда не мутируются.
	Append(tx WalletTransaction) error
	// ListByArtisan возвращает записи артизана, новые первыми.
	ListByArtisan(artisanID string, limit int) ([]WalletTransaction, error)
}

// UserRepository описывает хранилище пользователей для синхронизации
// платёжных данных провайдера.
type UserRepository interface {
	Create(user User) error
	GetByEmail(email string) (User, error)
	// LinkProviderCustomer привязывает идентификатор клиента провайдера
	// к пользователю по совпадению email.
	LinkProviderCustomer(email, providerCustomerID string) (User, error)
	// AttachPaymentMethod добавляет сводку способа оплаты пользователю провайдера.
	AttachPaymentMethod(providerCustomerID string, pm PaymentMethodSummary) (User, error)
	// DetachPaymentMethod удаляет способ оплаты по его идентификатору у провайдера.
	DetachPaymentMethod(providerMethodID string) (User, error)
}

// SettingsRepository — singleton-хранилище настроек платформы.
type SettingsRepository interface {
	// Get возвращает настройки платформы; незаданные поля нормализуются к дефолтам.
	Get() (PlatformSettings, error)
	Save(settings PlatformSettings) error
}
