package inventory_test

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/bazaarmkt/settlement/internal/domain"
	"github.com/bazaarmkt/settlement/internal/service/inventory"
	"github.com/bazaarmkt/settlement/internal/storage/memory"
)

func testLogger() *log.Entry {
	logger := log.New()
	logger.SetLevel(log.WarnLevel)
	return logger.WithField("component", "test")
}

func TestReconcilerRestoresAllFulfillmentModels(t *testing.T) {
	products := memory.NewProductRepository()
	seed := []domain.Product{
		{ID: "ready", ProductType: domain.ProductTypeReadyToShip, Status: domain.ProductStatusActive, SoldCount: 10},
		{ID: "made", ProductType: domain.ProductTypeMadeToOrder, Status: domain.ProductStatusActive, SoldCount: 10, RemainingCapacity: 1},
		{ID: "scheduled", ProductType: domain.ProductTypeScheduledOrder, Status: domain.ProductStatusActive, SoldCount: 10, AvailableQuantity: 2},
	}
	for _, p := range seed {
		if err := products.Create(p); err != nil {
			t.Fatalf("seed product %s: %v", p.ID, err)
		}
	}

	order := domain.Order{
		ID: "order-1",
		Items: []domain.OrderItem{
			{ProductID: "ready", Quantity: 3},
			{ProductID: "made", Quantity: 2},
			{ProductID: "scheduled", Quantity: 1},
		},
	}

	reconciler := inventory.NewReconciler(products, testLogger())
	result, err := reconciler.Restore(context.Background(), order)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if result.Restored != 3 || result.Skipped != 0 {
		t.Fatalf("restored=%d skipped=%d, want 3/0", result.Restored, result.Skipped)
	}

	ready, _ := products.Get("ready")
	if ready.Stock != 3 || ready.AvailableQuantity != 3 || ready.SoldCount != 7 {
		t.Fatalf("ready_to_ship after restore: stock=%d available=%d sold=%d", ready.Stock, ready.AvailableQuantity, ready.SoldCount)
	}

	made, _ := products.Get("made")
	if made.RemainingCapacity != 3 || made.SoldCount != 8 {
		t.Fatalf("made_to_order after restore: capacity=%d sold=%d", made.RemainingCapacity, made.SoldCount)
	}

	scheduled, _ := products.Get("scheduled")
	if scheduled.AvailableQuantity != 3 || scheduled.SoldCount != 9 {
		t.Fatalf("scheduled_order after restore: available=%d sold=%d", scheduled.AvailableQuantity, scheduled.SoldCount)
	}
}

func TestReconcilerSkipsMissingProduct(t *testing.T) {
	products := memory.NewProductRepository()
	if err := products.Create(domain.Product{
		ID:          "alive",
		ProductType: domain.ProductTypeReadyToShip,
		Status:      domain.ProductStatusActive,
		SoldCount:   5,
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	order := domain.Order{
		ID: "order-1",
		Items: []domain.OrderItem{
			{ProductID: "deleted", Quantity: 2},
			{ProductID: "alive", Quantity: 1},
		},
	}

	reconciler := inventory.NewReconciler(products, testLogger())
	result, err := reconciler.Restore(context.Background(), order)
	if err != nil {
		t.Fatalf("missing product must not be a hard failure: %v", err)
	}
	if result.Restored != 1 || result.Skipped != 1 {
		t.Fatalf("restored=%d skipped=%d, want 1/1", result.Restored, result.Skipped)
	}

	alive, _ := products.Get("alive")
	if alive.Stock != 1 {
		t.Fatalf("remaining item must still be restored, stock=%d", alive.Stock)
	}
}

func TestReconcilerReactivatesOutOfStock(t *testing.T) {
	products := memory.NewProductRepository()
	if err := products.Create(domain.Product{
		ID:          "p1",
		ProductType: domain.ProductTypeReadyToShip,
		Status:      domain.ProductStatusOutOfStock,
		SoldCount:   3,
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	order := domain.Order{
		ID:    "order-1",
		Items: []domain.OrderItem{{ProductID: "p1", Quantity: 3}},
	}

	reconciler := inventory.NewReconciler(products, testLogger())
	if _, err := reconciler.Restore(context.Background(), order); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	product, _ := products.Get("p1")
	if product.Status != domain.ProductStatusActive {
		t.Fatalf("status = %s, want active", product.Status)
	}
	if product.Stock != 3 {
		t.Fatalf("stock = %d, want 3", product.Stock)
	}
}
