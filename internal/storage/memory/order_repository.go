package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/bazaarmkt/settlement/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Order
	// byIntent индексирует заказы по ссылке платёжного провайдера.
	byIntent map[string]string
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items:    make(map[string]domain.Order),
		byIntent: make(map[string]string),
	}
}

// Create сохраняет новый заказ, если ID ещё не занят и инварианты соблюдены.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return errors.Join(errs...)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrAlreadyExists
	}
	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	order.Items = append([]domain.OrderItem(nil), order.Items...)
	r.items[order.ID] = order
	if order.PaymentIntentID != "" {
		r.byIntent[order.PaymentIntentID] = order.ID
	}
	return nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// GetByPaymentIntent ищет заказ по ссылке платёжного провайдера.
func (r *orderRepositoryInMemory) GetByPaymentIntent(intentID string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.lookupByIntent(intentID)
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// MarkCaptured переводит платёж в captured. Повторная доставка webhook
// сводится к тому же состоянию, немонотонный переход отклоняется.
func (r *orderRepositoryInMemory) MarkCaptured(intentID string, amountMinor int64, capturedAt time.Time) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.lookupByIntent(intentID)
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if !order.PaymentStatus.CanTransitionTo(domain.PaymentStatusCaptured) {
		return domain.Order{}, domain.ErrPaymentStatusInvalid
	}

	order.PaymentStatus = domain.PaymentStatusCaptured
	order.PaymentDetails.AmountCapturedMinor = amountMinor
	order.PaymentDetails.CapturedAt = capturedAt
	order.UpdatedAt = capturedAt
	r.items[order.ID] = order
	return cloneOrder(order), nil
}

// MarkFailed переводит платёж в failed и претендует на восстановление инвентаря.
func (r *orderRepositoryInMemory) MarkFailed(intentID, reason string, failedAt time.Time) (domain.Order, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.lookupByIntent(intentID)
	if !ok {
		return domain.Order{}, false, domain.ErrOrderNotFound
	}
	if !order.PaymentStatus.CanTransitionTo(domain.PaymentStatusFailed) {
		return domain.Order{}, false, domain.ErrPaymentStatusInvalid
	}

	claimed := !order.InventoryRestored
	order.PaymentStatus = domain.PaymentStatusFailed
	order.PaymentDetails.FailureReason = reason
	order.PaymentDetails.FailedAt = failedAt
	order.InventoryRestored = true
	order.UpdatedAt = failedAt
	r.items[order.ID] = order
	return cloneOrder(order), claimed, nil
}

// MarkCanceled переводит платёж в canceled, заказ в cancelled и претендует
// на восстановление инвентаря.
func (r *orderRepositoryInMemory) MarkCanceled(intentID string, canceledAt time.Time) (domain.Order, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.lookupByIntent(intentID)
	if !ok {
		return domain.Order{}, false, domain.ErrOrderNotFound
	}
	if !order.PaymentStatus.CanTransitionTo(domain.PaymentStatusCanceled) {
		return domain.Order{}, false, domain.ErrPaymentStatusInvalid
	}

	claimed := !order.InventoryRestored
	order.PaymentStatus = domain.PaymentStatusCanceled
	order.Status = domain.OrderStatusCancelled
	order.PaymentDetails.CanceledAt = canceledAt
	order.InventoryRestored = true
	order.UpdatedAt = canceledAt
	r.items[order.ID] = order
	return cloneOrder(order), claimed, nil
}

// MarkRefunded фиксирует возврат средств без восстановления инвентаря.
func (r *orderRepositoryInMemory) MarkRefunded(intentID string, amountMinor int64, refundedAt time.Time) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.lookupByIntent(intentID)
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if !order.PaymentStatus.CanTransitionTo(domain.PaymentStatusRefunded) {
		return domain.Order{}, domain.ErrPaymentStatusInvalid
	}

	order.PaymentStatus = domain.PaymentStatusRefunded
	order.PaymentDetails.RefundAmountMinor = amountMinor
	order.PaymentDetails.RefundedAt = refundedAt
	order.UpdatedAt = refundedAt
	r.items[order.ID] = order
	return cloneOrder(order), nil
}

// ReleaseRestoreClaim возвращает право на восстановление инвентаря, если
// само восстановление сорвалось после претензии.
func (r *orderRepositoryInMemory) ReleaseRestoreClaim(intentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.lookupByIntent(intentID)
	if !ok {
		return domain.ErrOrderNotFound
	}
	order.InventoryRestored = false
	r.items[order.ID] = order
	return nil
}

func (r *orderRepositoryInMemory) lookupByIntent(intentID string) (domain.Order, bool) {
	id, ok := r.byIntent[intentID]
	if !ok {
		return domain.Order{}, false
	}
	order, ok := r.items[id]
	return order, ok
}

func cloneOrder(order domain.Order) domain.Order {
	order.Items = append([]domain.OrderItem(nil), order.Items...)
	return order
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
