package domain

import "time"

// PaymentStatus описывает состояние оплаты заказа.
type PaymentStatus string

const (
	// PaymentStatusPending — платёж инициирован, но провайдер ещё не подтвердил результат.
	PaymentStatusPending PaymentStatus = "pending"
	// PaymentStatusCaptured — деньги списаны с покупателя.
	PaymentStatusCaptured PaymentStatus = "captured"
	// PaymentStatusFailed — провайдер отклонил платёж.
	PaymentStatusFailed PaymentStatus = "failed"
	// PaymentStatusCanceled — платёж отменён до списания.
	PaymentStatusCanceled PaymentStatus = "canceled"
	// PaymentStatusRefunded — средства возвращены покупателю.
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// OrderStatus описывает этап исполнения заказа.
type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "pending"
	OrderStatusConfirmed        OrderStatus = "confirmed"
	OrderStatusPreparing        OrderStatus = "preparing"
	OrderStatusReadyForPickup   OrderStatus = "ready_for_pickup"
	OrderStatusReadyForDelivery OrderStatus = "ready_for_delivery"
	OrderStatusOutForDelivery   OrderStatus = "out_for_delivery"
	OrderStatusPickedUp         OrderStatus = "picked_up"
	OrderStatusDelivered        OrderStatus = "delivered"
	OrderStatusCompleted        OrderStatus = "completed"
	OrderStatusCancelled        OrderStatus = "cancelled"
	OrderStatusDeclined         OrderStatus = "declined"
)

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	// ProductID — ссылка на товар в каталоге.
	ProductID string
	// Quantity — количество единиц товара.
	Quantity int32
	// ProductType фиксирует модель исполнения товара на момент заказа,
	// чтобы восстановление инвентаря не зависело от последующих правок каталога.
	ProductType ProductType
	// PriceMinor — цена за единицу в минимальных денежных единицах.
	PriceMinor int64
}

// PaymentDetails хранит свободную запись о событиях платёжного цикла.
type PaymentDetails struct {
	AmountCapturedMinor int64
	CapturedAt          time.Time
	FailureReason       string
	FailedAt            time.Time
	CanceledAt          time.Time
	RefundAmountMinor   int64
	RefundedAt          time.Time
}

// Order агрегирует состояние одной покупки.
type Order struct {
	ID              string
	ArtisanID       string
	PaymentIntentID string
	PaymentStatus   PaymentStatus
	Status          OrderStatus
	Items           []OrderItem
	TotalMinor      int64
	PaymentDetails  PaymentDetails
	// InventoryRestored гарантирует не более одного восстановления инвентаря
	// на заказ: флаг выставляется атомарно вместе с переходом в failed/canceled.
	InventoryRestored bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CanTransitionTo проверяет монотонность переходов статуса оплаты:
// pending → {captured|failed|canceled} → refunded.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if s == next {
		// Повторная доставка webhook сводится к тому же состоянию.
		return true
	}
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusCaptured || next == PaymentStatusFailed || next == PaymentStatusCanceled
	case PaymentStatusCaptured, PaymentStatusFailed, PaymentStatusCanceled:
		return next == PaymentStatusRefunded
	default:
		return false
	}
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.PaymentIntentID == "" {
		errs = append(errs, ErrPaymentIntentRequired)
	}
	if o.ArtisanID == "" {
		errs = append(errs, ErrArtisanRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.TotalMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}
	for _, item := range o.Items {
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
	}

	return errs
}
