package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/bazaarmkt/settlement/internal/domain"
	"github.com/bazaarmkt/settlement/internal/messaging/kafka"
	"github.com/bazaarmkt/settlement/internal/service/inventory"
)

// Типы событий платёжного провайдера, которые обрабатывает процессор.
const (
	EventPaymentSucceeded      = "payment_intent.succeeded"
	EventPaymentFailed         = "payment_intent.payment_failed"
	EventPaymentCanceled       = "payment_intent.canceled"
	EventChargeRefunded        = "charge.refunded"
	EventCustomerCreated       = "customer.created"
	EventCustomerUpdated       = "customer.updated"
	EventPaymentMethodAttached = "payment_method.attached"
	EventPaymentMethodDetached = "payment_method.detached"
)

const (
	resultProcessed      = "processed"
	resultOrderMissing   = "order_missing"
	resultUserMissing    = "user_missing"
	resultStatusConflict = "status_conflict"
)

var (
	webhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_webhook_events_total",
		Help: "Total number of processed payment provider webhook events grouped by type and result.",
	}, []string{"type", "result"})
	inventoryRestoredItemsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_inventory_restored_items_total",
		Help: "Total number of order items returned to the catalog after payment failure or cancellation.",
	})
)

// Receipt — подтверждение обработки, возвращаемое провайдеру.
type Receipt struct {
	Received bool   `json:"received"`
	Type     string `json:"type"`
}

// Processor аутентифицирует события платёжного провайдера и применяет
// идемпотентные переходы статуса к соответствующему заказу.
type Processor struct {
	verifier   SignatureVerifier
	orders     domain.OrderRepository
	users      domain.UserRepository
	reconciler *inventory.Reconciler
	producer   *kafka.Producer // опциональный producer для событий нотификаций
	logger     *log.Entry
	now        func() time.Time
}

// NewProcessor создаёт процессор webhook-событий.
func NewProcessor(
	verifier SignatureVerifier,
	orders domain.OrderRepository,
	users domain.UserRepository,
	reconciler *inventory.Reconciler,
	logger *log.Entry,
) *Processor {
	if logger == nil {
		logger = log.WithField("component", "webhook-processor")
	}
	return &Processor{
		verifier:   verifier,
		orders:     orders,
		users:      users,
		reconciler: reconciler,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// NewProcessorWithKafka создаёт процессор, публикующий события заказов в Kafka.
func NewProcessorWithKafka(
	verifier SignatureVerifier,
	orders domain.OrderRepository,
	users domain.UserRepository,
	reconciler *inventory.Reconciler,
	producer *kafka.Producer,
	logger *log.Entry,
) *Processor {
	processor := NewProcessor(verifier, orders, users, reconciler, logger)
	processor.producer = producer
	return processor
}

// Process проверяет подпись сырого тела и диспетчеризует событие.
// Ошибка верификации — всегда клиентская (ErrVerification); любая другая
// ошибка — серверная и провоцирует retry на стороне провайдера.
// Неизвестные типы событий подтверждаются без обработки.
func (p *Processor) Process(ctx context.Context, payload []byte, signatureHeader string) (Receipt, error) {
	event, err := p.verifier.Verify(payload, signatureHeader)
	if err != nil {
		webhookEventsTotal.WithLabelValues("unknown", "signature_invalid").Inc()
		p.logger.WithError(err).Warn("webhook signature verification failed")
		return Receipt{}, err
	}

	receipt := Receipt{Received: true, Type: event.Type}

	var (
		result string
		herr   error
	)
	switch event.Type {
	case EventPaymentSucceeded:
		result, herr = p.handleCaptured(ctx, event)
	case EventPaymentFailed:
		result, herr = p.handleFailed(ctx, event)
	case EventPaymentCanceled:
		result, herr = p.handleCanceled(ctx, event)
	case EventChargeRefunded:
		result, herr = p.handleRefunded(ctx, event)
	case EventCustomerCreated, EventCustomerUpdated:
		result, herr = p.handleCustomerSync(ctx, event)
	case EventPaymentMethodAttached:
		result, herr = p.handleMethodAttached(ctx, event)
	case EventPaymentMethodDetached:
		result, herr = p.handleMethodDetached(ctx, event)
	default:
		// Провайдер не должен получать retry-провоцирующий ответ на события,
		// которые нас не интересуют.
		p.logger.WithField("event_type", event.Type).Debug("ignoring unhandled webhook event type")
		webhookEventsTotal.WithLabelValues(event.Type, "ignored").Inc()
		return receipt, nil
	}

	if herr != nil {
		webhookEventsTotal.WithLabelValues(event.Type, "error").Inc()
		return Receipt{}, fmt.Errorf("handle %s: %w", event.Type, herr)
	}

	webhookEventsTotal.WithLabelValues(event.Type, result).Inc()
	return receipt, nil
}

// paymentIntentPayload — интересующие нас поля объекта payment intent.
type paymentIntentPayload struct {
	ID                 string `json:"id"`
	Amount             int64  `json:"amount"`
	AmountReceived     int64  `json:"amount_received"`
	CancellationReason string `json:"cancellation_reason"`
	LastPaymentError   *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

type chargePayload struct {
	ID             string `json:"id"`
	PaymentIntent  string `json:"payment_intent"`
	AmountRefunded int64  `json:"amount_refunded"`
}

type customerPayload struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type paymentMethodPayload struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Card     *struct {
		Brand    string `json:"brand"`
		Last4    string `json:"last4"`
		ExpMonth int32  `json:"exp_month"`
		ExpYear  int32  `json:"exp_year"`
	} `json:"card"`
}

func (p *Processor) handleCaptured(_ context.Context, event Event) (string, error) {
	var intent paymentIntentPayload
	if err := json.Unmarshal(event.Data, &intent); err != nil {
		return "", fmt.Errorf("decode payment intent: %w", err)
	}

	amount := intent.AmountReceived
	if amount == 0 {
		amount = intent.Amount
	}

	order, err := p.orders.MarkCaptured(intent.ID, amount, p.now())
	if err != nil {
		if domain.IsNotFound(err) {
			return p.orderMissing(event, intent.ID), nil
		}
		if errors.Is(err, domain.ErrPaymentStatusInvalid) {
			return p.statusConflict(event, intent.ID), nil
		}
		return "", err
	}

	p.logger.WithFields(log.Fields{
		"order_id":          order.ID,
		"payment_intent_id": intent.ID,
		"amount_minor":      amount,
	}).Info("payment captured")

	p.publishOrderEvent(kafka.EventTypeOrderPaymentCaptured, order, map[string]interface{}{
		"amount_minor": amount,
	})
	return resultProcessed, nil
}

func (p *Processor) handleFailed(ctx context.Context, event Event) (string, error) {
	var intent paymentIntentPayload
	if err := json.Unmarshal(event.Data, &intent); err != nil {
		return "", fmt.Errorf("decode payment intent: %w", err)
	}

	reason := "payment failed"
	if intent.LastPaymentError != nil && intent.LastPaymentError.Message != "" {
		reason = intent.LastPaymentError.Message
	}

	order, claimed, err := p.orders.MarkFailed(intent.ID, reason, p.now())
	if err != nil {
		if domain.IsNotFound(err) {
			return p.orderMissing(event, intent.ID), nil
		}
		if errors.Is(err, domain.ErrPaymentStatusInvalid) {
			return p.statusConflict(event, intent.ID), nil
		}
		return "", err
	}

	p.logger.WithFields(log.Fields{
		"order_id":          order.ID,
		"payment_intent_id": intent.ID,
		"reason":            reason,
		"restore_claimed":   claimed,
	}).Info("payment failed")

	// Восстановление не идемпотентно, поэтому выполняется только вызовом,
	// который первым претендовал на него при переходе статуса.
	if claimed {
		if err := p.restoreInventory(ctx, order); err != nil {
			p.releaseRestoreClaim(intent.ID)
			return "", err
		}
	}

	p.publishOrderEvent(kafka.EventTypeOrderPaymentFailed, order, map[string]interface{}{
		"reason": reason,
	})
	return resultProcessed, nil
}

func (p *Processor) handleCanceled(ctx context.Context, event Event) (string, error) {
	var intent paymentIntentPayload
	if err := json.Unmarshal(event.Data, &intent); err != nil {
		return "", fmt.Errorf("decode payment intent: %w", err)
	}

	order, claimed, err := p.orders.MarkCanceled(intent.ID, p.now())
	if err != nil {
		if domain.IsNotFound(err) {
			return p.orderMissing(event, intent.ID), nil
		}
		if errors.Is(err, domain.ErrPaymentStatusInvalid) {
			return p.statusConflict(event, intent.ID), nil
		}
		return "", err
	}

	p.logger.WithFields(log.Fields{
		"order_id":          order.ID,
		"payment_intent_id": intent.ID,
		"reason":            intent.CancellationReason,
		"restore_claimed":   claimed,
	}).Info("payment canceled")

	if claimed {
		if err := p.restoreInventory(ctx, order); err != nil {
			p.releaseRestoreClaim(intent.ID)
			return "", err
		}
	}

	p.publishOrderEvent(kafka.EventTypeOrderPaymentCanceled, order, map[string]interface{}{
		"reason": intent.CancellationReason,
	})
	return resultProcessed, nil
}

func (p *Processor) handleRefunded(_ context.Context, event Event) (string, error) {
	var charge chargePayload
	if err := json.Unmarshal(event.Data, &charge); err != nil {
		return "", fmt.Errorf("decode charge: %w", err)
	}

	// Возврат — отдельное бизнес-событие: он может случиться сильно после
	// исполнения заказа, поэтому инвентарь намеренно не восстанавливается.
	order, err := p.orders.MarkRefunded(charge.PaymentIntent, charge.AmountRefunded, p.now())
	if err != nil {
		if domain.IsNotFound(err) {
			return p.orderMissing(event, charge.PaymentIntent), nil
		}
		if errors.Is(err, domain.ErrPaymentStatusInvalid) {
			return p.statusConflict(event, charge.PaymentIntent), nil
		}
		return "", err
	}

	p.logger.WithFields(log.Fields{
		"order_id":          order.ID,
		"payment_intent_id": charge.PaymentIntent,
		"refund_minor":      charge.AmountRefunded,
	}).Info("charge refunded")

	p.publishOrderEvent(kafka.EventTypeOrderRefunded, order, map[string]interface{}{
		"refund_minor": charge.AmountRefunded,
	})
	return resultProcessed, nil
}

func (p *Processor) handleCustomerSync(_ context.Context, event Event) (string, error) {
	var customer customerPayload
	if err := json.Unmarshal(event.Data, &customer); err != nil {
		return "", fmt.Errorf("decode customer: %w", err)
	}

	if customer.Email == "" {
		p.logger.WithField("customer_id", customer.ID).Warn("customer event without email, nothing to link")
		return resultUserMissing, nil
	}

	user, err := p.users.LinkProviderCustomer(customer.Email, customer.ID)
	if err != nil {
		if domain.IsNotFound(err) {
			p.logger.WithFields(log.Fields{
				"customer_id": customer.ID,
				"email":       customer.Email,
			}).Warn("no local user for provider customer")
			return resultUserMissing, nil
		}
		return "", err
	}

	p.logger.WithFields(log.Fields{
		"user_id":     user.ID,
		"customer_id": customer.ID,
	}).Info("provider customer linked")
	return resultProcessed, nil
}

func (p *Processor) handleMethodAttached(_ context.Context, event Event) (string, error) {
	var method paymentMethodPayload
	if err := json.Unmarshal(event.Data, &method); err != nil {
		return "", fmt.Errorf("decode payment method: %w", err)
	}

	summary := domain.PaymentMethodSummary{ProviderID: method.ID}
	if method.Card != nil {
		summary.Brand = method.Card.Brand
		summary.Last4 = method.Card.Last4
		summary.ExpMonth = method.Card.ExpMonth
		summary.ExpYear = method.Card.ExpYear
	}

	user, err := p.users.AttachPaymentMethod(method.Customer, summary)
	if err != nil {
		if domain.IsNotFound(err) {
			p.logger.WithFields(log.Fields{
				"customer_id":       method.Customer,
				"payment_method_id": method.ID,
			}).Warn("no local user for attached payment method")
			return resultUserMissing, nil
		}
		return "", err
	}

	p.logger.WithFields(log.Fields{
		"user_id":           user.ID,
		"payment_method_id": method.ID,
	}).Info("payment method attached")
	return resultProcessed, nil
}

func (p *Processor) handleMethodDetached(_ context.Context, event Event) (string, error) {
	var method paymentMethodPayload
	if err := json.Unmarshal(event.Data, &method); err != nil {
		return "", fmt.Errorf("decode payment method: %w", err)
	}

	user, err := p.users.DetachPaymentMethod(method.ID)
	if err != nil {
		if domain.IsNotFound(err) {
			p.logger.WithField("payment_method_id", method.ID).Warn("detached payment method not found locally")
			return resultUserMissing, nil
		}
		return "", err
	}

	p.logger.WithFields(log.Fields{
		"user_id":           user.ID,
		"payment_method_id": method.ID,
	}).Info("payment method detached")
	return resultProcessed, nil
}

func (p *Processor) restoreInventory(ctx context.Context, order domain.Order) error {
	result, err := p.reconciler.Restore(ctx, order)
	if err != nil {
		return fmt.Errorf("restore inventory: %w", err)
	}
	inventoryRestoredItemsTotal.Add(float64(result.Restored))
	return nil
}

// releaseRestoreClaim снимает претензию на восстановление после его провала:
// иначе retry провайдера увидит занятый флаг и инвентарь не вернётся никогда.
func (p *Processor) releaseRestoreClaim(intentID string) {
	if err := p.orders.ReleaseRestoreClaim(intentID); err != nil {
		p.logger.WithError(err).WithField("payment_intent_id", intentID).
			Error("failed to release inventory restore claim")
	}
}

// publishOrderEvent отправляет событие заказа в Kafka, если producer настроен.
// Публикация не влияет на результат обработки вебхука.
func (p *Processor) publishOrderEvent(eventType kafka.EventType, order domain.Order, metadata map[string]interface{}) {
	if p.producer == nil {
		return
	}
	event := kafka.NewOrderEvent(eventType, order.ID, order.PaymentIntentID,
		order.ArtisanID, string(order.PaymentStatus), metadata)
	if err := p.producer.PublishOrderEvent(event); err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"event_type": string(eventType),
			"order_id":   order.ID,
		}).Warn("failed to publish order event")
	}
}

// statusConflict фиксирует немонотонный переход статуса оплаты: событие
// пришло не в том порядке или относится к уже завершённому циклу. Доставка
// подтверждается — retry провайдера порядок не исправит.
func (p *Processor) statusConflict(event Event, intentID string) string {
	p.logger.WithFields(log.Fields{
		"event_type":        event.Type,
		"payment_intent_id": intentID,
	}).Warn("payment status transition refused for webhook event")
	return resultStatusConflict
}

// orderMissing фиксирует доставку без подходящего заказа. Это warning,
// а не ошибка: доставка могла обогнать запись приложения или ссылаться
// на заказ из другого окружения.
func (p *Processor) orderMissing(event Event, intentID string) string {
	p.logger.WithFields(log.Fields{
		"event_type":        event.Type,
		"payment_intent_id": intentID,
	}).Warn("no matching order for webhook event")
	return resultOrderMissing
}
