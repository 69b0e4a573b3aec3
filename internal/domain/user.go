package domain

import "time"

// PaymentMethodSummary — краткая запись о сохранённом способе оплаты.
type PaymentMethodSummary struct {
	// ProviderID — идентификатор способа оплаты у платёжного провайдера.
	ProviderID string
	Brand      string
	Last4      string
	ExpMonth   int32
	ExpYear    int32
}

// User — покупатель, привязываемый к клиенту платёжного провайдера по email.
type User struct {
	ID                 string
	Email              string
	ProviderCustomerID string
	PaymentMethods     []PaymentMethodSummary
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
