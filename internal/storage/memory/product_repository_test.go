package memory_test

import (
	"errors"
	"testing"

	"github.com/bazaarmkt/settlement/internal/domain"
	"github.com/bazaarmkt/settlement/internal/storage/memory"
)

func newProduct(productType domain.ProductType) domain.Product {
	return domain.Product{
		ID:          "p1",
		ArtisanID:   "artisan-1",
		Name:        "sourdough loaf",
		ProductType: productType,
		Status:      domain.ProductStatusActive,
		SoldCount:   5,
	}
}

func TestProductRepository_RestoreReadyToShip(t *testing.T) {
	repo := memory.NewProductRepository()
	product := newProduct(domain.ProductTypeReadyToShip)
	product.Stock = 0
	product.AvailableQuantity = 0
	product.Status = domain.ProductStatusOutOfStock
	if err := repo.Create(product); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	restored, err := repo.RestoreInventory("p1", 3)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.Stock != 3 || restored.AvailableQuantity != 3 {
		t.Fatalf("stock=%d available=%d, want 3/3", restored.Stock, restored.AvailableQuantity)
	}
	if restored.SoldCount != 2 {
		t.Fatalf("sold count = %d, want 2", restored.SoldCount)
	}
	if restored.Status != domain.ProductStatusActive {
		t.Fatalf("status = %s, want active after out_of_stock restoration", restored.Status)
	}
}

func TestProductRepository_RestoreMadeToOrder(t *testing.T) {
	repo := memory.NewProductRepository()
	product := newProduct(domain.ProductTypeMadeToOrder)
	product.RemainingCapacity = 1
	if err := repo.Create(product); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	restored, err := repo.RestoreInventory("p1", 2)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.RemainingCapacity != 3 {
		t.Fatalf("remaining capacity = %d, want 3", restored.RemainingCapacity)
	}
	if restored.Stock != 0 {
		t.Fatalf("stock must stay untouched for made_to_order, got %d", restored.Stock)
	}
}

func TestProductRepository_RestoreScheduledOrder(t *testing.T) {
	repo := memory.NewProductRepository()
	product := newProduct(domain.ProductTypeScheduledOrder)
	product.AvailableQuantity = 4
	if err := repo.Create(product); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	restored, err := repo.RestoreInventory("p1", 1)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.AvailableQuantity != 5 {
		t.Fatalf("available quantity = %d, want 5", restored.AvailableQuantity)
	}
}

func TestProductRepository_SoldCountFloorsAtZero(t *testing.T) {
	repo := memory.NewProductRepository()
	product := newProduct(domain.ProductTypeReadyToShip)
	product.SoldCount = 1
	if err := repo.Create(product); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	restored, err := repo.RestoreInventory("p1", 4)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.SoldCount != 0 {
		t.Fatalf("sold count = %d, want 0", restored.SoldCount)
	}
}

func TestProductRepository_InactiveStaysInactive(t *testing.T) {
	repo := memory.NewProductRepository()
	product := newProduct(domain.ProductTypeReadyToShip)
	// Товар деактивирован вручную, а не из-за нулевого остатка.
	product.Status = domain.ProductStatusInactive
	if err := repo.Create(product); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	restored, err := repo.RestoreInventory("p1", 2)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if restored.Status != domain.ProductStatusInactive {
		t.Fatalf("status = %s, restoration must not reactivate manually deactivated products", restored.Status)
	}
}

func TestProductRepository_RestoreMissingProduct(t *testing.T) {
	repo := memory.NewProductRepository()
	if _, err := repo.RestoreInventory("ghost", 1); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}
