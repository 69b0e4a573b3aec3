package webhook

import (
	"encoding/json"
	"errors"
	"fmt"

	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

var (
	// ErrSecretMissing — webhook secret не сконфигурирован; события не принимаются.
	ErrSecretMissing = errors.New("webhook secret is not configured")
	// ErrVerification — подпись не совпала с телом запроса. Всегда клиентская
	// ошибка: провайдер не должен делать retry такой доставки.
	ErrVerification = errors.New("webhook signature verification failed")
)

// Event — проверенное событие платёжного провайдера.
type Event struct {
	ID   string
	Type string
	Data json.RawMessage
}

// SignatureVerifier аутентифицирует сырое тело webhook-запроса.
// Проверка обязана идти по точным wire-байтам до какого-либо доверия событию.
type SignatureVerifier interface {
	Verify(payload []byte, signatureHeader string) (Event, error)
}

// StripeVerifier проверяет HMAC-подпись через SDK платёжного провайдера.
type StripeVerifier struct {
	secret string
}

// NewStripeVerifier создаёт verifier с pre-shared секретом endpoint'а.
func NewStripeVerifier(secret string) (*StripeVerifier, error) {
	if secret == "" {
		return nil, ErrSecretMissing
	}
	return &StripeVerifier{secret: secret}, nil
}

// Verify пересчитывает подпись по сырому телу и возвращает событие.
func (v *StripeVerifier) Verify(payload []byte, signatureHeader string) (Event, error) {
	stripeEvent, err := stripewebhook.ConstructEventWithOptions(
		payload, signatureHeader, v.secret,
		stripewebhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrVerification, err)
	}

	event := Event{ID: stripeEvent.ID, Type: string(stripeEvent.Type)}
	if stripeEvent.Data != nil {
		event.Data = stripeEvent.Data.Raw
	}
	return event, nil
}

var _ SignatureVerifier = (*StripeVerifier)(nil)
