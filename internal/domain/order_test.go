package domain

import (
	"errors"
	"testing"
)

func TestPaymentStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from PaymentStatus
		to   PaymentStatus
		want bool
	}{
		{name: "pending to captured", from: PaymentStatusPending, to: PaymentStatusCaptured, want: true},
		{name: "pending to failed", from: PaymentStatusPending, to: PaymentStatusFailed, want: true},
		{name: "pending to canceled", from: PaymentStatusPending, to: PaymentStatusCanceled, want: true},
		{name: "pending to refunded", from: PaymentStatusPending, to: PaymentStatusRefunded, want: false},
		{name: "captured to refunded", from: PaymentStatusCaptured, to: PaymentStatusRefunded, want: true},
		{name: "failed to refunded", from: PaymentStatusFailed, to: PaymentStatusRefunded, want: true},
		{name: "canceled to refunded", from: PaymentStatusCanceled, to: PaymentStatusRefunded, want: true},
		{name: "captured to failed", from: PaymentStatusCaptured, to: PaymentStatusFailed, want: false},
		{name: "refunded to captured", from: PaymentStatusRefunded, to: PaymentStatusCaptured, want: false},
		{name: "replay converges", from: PaymentStatusCaptured, to: PaymentStatusCaptured, want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
				t.Fatalf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestOrderValidateInvariants(t *testing.T) {
	order := Order{
		ID:              "order-1",
		ArtisanID:       "artisan-1",
		PaymentIntentID: "pi_123",
		PaymentStatus:   PaymentStatusPending,
		Status:          OrderStatusPending,
		TotalMinor:      1500,
		Items: []OrderItem{
			{ProductID: "p1", Quantity: 3, ProductType: ProductTypeReadyToShip, PriceMinor: 500},
		},
	}

	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no validation errors, got %v", errs)
	}

	order.PaymentIntentID = ""
	order.Items[0].Quantity = 0
	order.TotalMinor = -1

	errs := order.ValidateInvariants()
	if len(errs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d: %v", len(errs), errs)
	}
	for _, want := range []error{ErrPaymentIntentRequired, ErrItemQtyInvalid, ErrAmountNegative} {
		found := false
		for _, err := range errs {
			if errors.Is(err, want) {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected %v in validation errors %v", want, errs)
		}
	}
}
