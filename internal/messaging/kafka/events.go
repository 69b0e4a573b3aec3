package kafka

import "time"

// EventType определяет тип события
type EventType string

const (
	// События платёжного цикла заказа
	EventTypeOrderPaymentCaptured EventType = "order.payment_captured"
	EventTypeOrderPaymentFailed   EventType = "order.payment_failed"
	EventTypeOrderPaymentCanceled EventType = "order.payment_canceled"
	EventTypeOrderRefunded        EventType = "order.refunded"

	// События выплат
	EventTypePayoutCompleted EventType = "payout.completed"
	EventTypePayoutFailed    EventType = "payout.failed"
)

// Topics для Kafka
const (
	TopicOrderEvents  = "settlement.order.events"
	TopicPayoutEvents = "settlement.payout.events"
)

// OrderEvent уведомляет внешних потребителей (нотификации, витрину заказов)
// об изменении платёжного статуса заказа.
type OrderEvent struct {
	EventType       EventType              `json:"event_type"`
	OrderID         string                 `json:"order_id"`
	PaymentIntentID string                 `json:"payment_intent_id"`
	ArtisanID       string                 `json:"artisan_id"`
	PaymentStatus   string                 `json:"payment_status"`
	Timestamp       time.Time              `json:"timestamp"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// PayoutEvent уведомляет внешних потребителей (дашборд заработка артизана)
// о результате плановой выплаты.
type PayoutEvent struct {
	EventType   EventType `json:"event_type"`
	WalletID    string    `json:"wallet_id"`
	ArtisanID   string    `json:"artisan_id"`
	AmountMinor int64     `json:"amount_minor"`
	Reference   string    `json:"reference"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewOrderEvent создает новое событие платёжного цикла заказа
func NewOrderEvent(eventType EventType, orderID, paymentIntentID, artisanID, paymentStatus string, metadata map[string]interface{}) *OrderEvent {
	return &OrderEvent{
		EventType:       eventType,
		OrderID:         orderID,
		PaymentIntentID: paymentIntentID,
		ArtisanID:       artisanID,
		PaymentStatus:   paymentStatus,
		Timestamp:       time.Now(),
		Metadata:        metadata,
	}
}

// NewPayoutEvent создает новое событие выплаты
func NewPayoutEvent(eventType EventType, walletID, artisanID string, amountMinor int64, reference string) *PayoutEvent {
	return &PayoutEvent{
		EventType:   eventType,
		WalletID:    walletID,
		ArtisanID:   artisanID,
		AmountMinor: amountMinor,
		Reference:   reference,
		Timestamp:   time.Now(),
	}
}
