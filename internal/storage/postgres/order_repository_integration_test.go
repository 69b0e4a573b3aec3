package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/bazaarmkt/settlement/internal/domain"
)

func newIntegrationOrder(id, intentID string) domain.Order {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.Order{
		ID:              id,
		ArtisanID:       "artisan-1",
		PaymentIntentID: intentID,
		PaymentStatus:   domain.PaymentStatusPending,
		Status:          domain.OrderStatusPending,
		Items: []domain.OrderItem{
			{ProductID: "p1", Quantity: 2, ProductType: domain.ProductTypeReadyToShip, PriceMinor: 1500},
			{ProductID: "p2", Quantity: 1, ProductType: domain.ProductTypeMadeToOrder, PriceMinor: 4000},
		},
		TotalMinor: 7000,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestOrderRepository_PostgresCreateAndGet(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	order := newIntegrationOrder("order-1", "pi_create")
	if err := repo.Create(order); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if err := repo.Create(order); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("duplicate create error = %v, want ErrAlreadyExists", err)
	}

	got, err := repo.GetByPaymentIntent("pi_create")
	if err != nil {
		t.Fatalf("get by payment intent: %v", err)
	}
	if got.ID != order.ID || got.TotalMinor != order.TotalMinor {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(got.Items) != 2 || got.Items[0].ProductID != "p1" {
		t.Fatalf("unexpected items: %+v", got.Items)
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("missing order error = %v, want ErrOrderNotFound", err)
	}
}

func TestOrderRepository_PostgresMarkFailedClaimsOnce(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	if err := repo.Create(newIntegrationOrder("order-2", "pi_fail")); err != nil {
		t.Fatalf("create order: %v", err)
	}

	failedAt := time.Now().UTC().Truncate(time.Microsecond)
	order, claimed, err := repo.MarkFailed("pi_fail", "card_declined", failedAt)
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if !claimed {
		t.Fatal("first MarkFailed must claim inventory restoration")
	}
	if order.PaymentStatus != domain.PaymentStatusFailed {
		t.Fatalf("payment status = %s, want failed", order.PaymentStatus)
	}
	if order.PaymentDetails.FailureReason != "card_declined" {
		t.Fatalf("failure reason = %q", order.PaymentDetails.FailureReason)
	}

	_, claimed, err = repo.MarkFailed("pi_fail", "card_declined", failedAt)
	if err != nil {
		t.Fatalf("repeat mark failed: %v", err)
	}
	if claimed {
		t.Fatal("repeated MarkFailed must not claim restoration again")
	}

	if _, _, err := repo.MarkFailed("pi_missing", "x", failedAt); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("missing order error = %v, want ErrOrderNotFound", err)
	}
}

func TestOrderRepository_PostgresCaptureAndRefund(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	if err := repo.Create(newIntegrationOrder("order-3", "pi_capture")); err != nil {
		t.Fatalf("create order: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	order, err := repo.MarkCaptured("pi_capture", 7000, now)
	if err != nil {
		t.Fatalf("mark captured: %v", err)
	}
	if order.PaymentStatus != domain.PaymentStatusCaptured || order.PaymentDetails.AmountCapturedMinor != 7000 {
		t.Fatalf("unexpected captured order: %+v", order)
	}
	if order.InventoryRestored {
		t.Fatal("capture must not set inventory restored flag")
	}

	order, err = repo.MarkRefunded("pi_capture", 7000, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("mark refunded: %v", err)
	}
	if order.PaymentStatus != domain.PaymentStatusRefunded || order.PaymentDetails.RefundAmountMinor != 7000 {
		t.Fatalf("unexpected refunded order: %+v", order)
	}
	if order.InventoryRestored {
		t.Fatal("refund must not set inventory restored flag")
	}
}

func TestOrderRepository_PostgresMarkCanceled(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	if err := repo.Create(newIntegrationOrder("order-4", "pi_cancel")); err != nil {
		t.Fatalf("create order: %v", err)
	}

	order, claimed, err := repo.MarkCanceled("pi_cancel", time.Now().UTC().Truncate(time.Microsecond))
	if err != nil {
		t.Fatalf("mark canceled: %v", err)
	}
	if !claimed {
		t.Fatal("first MarkCanceled must claim inventory restoration")
	}
	if order.PaymentStatus != domain.PaymentStatusCanceled {
		t.Fatalf("payment status = %s, want canceled", order.PaymentStatus)
	}
	if order.Status != domain.OrderStatusCancelled {
		t.Fatalf("order status = %s, want cancelled", order.Status)
	}
}

func TestOrderRepository_PostgresRejectsOutOfOrderTransitions(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	if err := repo.Create(newIntegrationOrder("order-5", "pi_guard")); err != nil {
		t.Fatalf("create order: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	if _, err := repo.MarkRefunded("pi_guard", 7000, now); !errors.Is(err, domain.ErrPaymentStatusInvalid) {
		t.Fatalf("refund of pending payment error = %v, want ErrPaymentStatusInvalid", err)
	}

	if _, err := repo.MarkCaptured("pi_guard", 7000, now); err != nil {
		t.Fatalf("mark captured: %v", err)
	}
	if _, _, err := repo.MarkFailed("pi_guard", "card_declined", now); !errors.Is(err, domain.ErrPaymentStatusInvalid) {
		t.Fatalf("failed after captured error = %v, want ErrPaymentStatusInvalid", err)
	}
	if _, _, err := repo.MarkCanceled("pi_guard", now); !errors.Is(err, domain.ErrPaymentStatusInvalid) {
		t.Fatalf("canceled after captured error = %v, want ErrPaymentStatusInvalid", err)
	}

	got, err := repo.GetByPaymentIntent("pi_guard")
	if err != nil {
		t.Fatalf("get by payment intent: %v", err)
	}
	if got.PaymentStatus != domain.PaymentStatusCaptured {
		t.Fatalf("payment status = %s, want captured untouched", got.PaymentStatus)
	}
}

func TestOrderRepository_PostgresReleaseRestoreClaim(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	if err := repo.Create(newIntegrationOrder("order-6", "pi_release")); err != nil {
		t.Fatalf("create order: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	if _, claimed, err := repo.MarkFailed("pi_release", "card_declined", now); err != nil || !claimed {
		t.Fatalf("first MarkFailed: claimed=%v err=%v", claimed, err)
	}
	if err := repo.ReleaseRestoreClaim("pi_release"); err != nil {
		t.Fatalf("release restore claim: %v", err)
	}
	if _, claimed, err := repo.MarkFailed("pi_release", "card_declined", now); err != nil || !claimed {
		t.Fatalf("retry after release: claimed=%v err=%v", claimed, err)
	}

	if err := repo.ReleaseRestoreClaim("pi_missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("missing order error = %v, want ErrOrderNotFound", err)
	}
}
