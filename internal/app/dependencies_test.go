package app

import (
	"context"
	"testing"
	"time"

	"github.com/bazaarmkt/settlement/internal/domain"
)

func TestNewDependencies_MemoryMode(t *testing.T) {
	cfg := DefaultConfig()

	deps, err := NewDependencies(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewDependencies: %v", err)
	}
	defer deps.Close()

	if deps.Store != nil {
		t.Error("memory mode must not open a postgres store")
	}
	if deps.Orders == nil || deps.Products == nil || deps.Wallets == nil ||
		deps.Transactions == nil || deps.Users == nil || deps.Settings == nil {
		t.Fatal("all repositories must be initialized")
	}

	// Хранилища рабочие, а не заглушки.
	now := time.Now().UTC()
	if err := deps.Orders.Create(domain.Order{
		ID:              "order-1",
		ArtisanID:       "artisan-1",
		PaymentIntentID: "pi_1",
		PaymentStatus:   domain.PaymentStatusPending,
		Items:           []domain.OrderItem{{ProductID: "p1", Quantity: 1}},
		CreatedAt:       now,
		UpdatedAt:       now,
	}); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := deps.Orders.GetByPaymentIntent("pi_1"); err != nil {
		t.Fatalf("get order: %v", err)
	}

	settings, err := deps.Settings.Get()
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.MinimumPayoutMinor != domain.DefaultMinimumPayoutMinor {
		t.Errorf("minimum payout = %d, want default", settings.MinimumPayoutMinor)
	}
}

func TestDependencies_CloseNil(t *testing.T) {
	var deps *Dependencies
	if err := deps.Close(); err != nil {
		t.Fatalf("close nil dependencies: %v", err)
	}
}
