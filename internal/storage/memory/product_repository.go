package memory

import (
	"sync"
	"time"

	"github.com/bazaarmkt/settlement/internal/domain"
)

// productRepositoryInMemory — in-memory реализация ProductRepository.
type productRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewProductRepository возвращает in-memory репозиторий каталога.
func NewProductRepository() domain.ProductRepository {
	return &productRepositoryInMemory{
		items: make(map[string]domain.Product),
	}
}

// Create сохраняет новый товар, если ID ещё не занят.
func (r *productRepositoryInMemory) Create(product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[product.ID]; exists {
		return domain.ErrAlreadyExists
	}
	r.items[product.ID] = product
	return nil
}

// Get возвращает товар или ErrProductNotFound, если его нет.
func (r *productRepositoryInMemory) Get(id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.items[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// RestoreInventory возвращает qty единиц в авторитетное поле инвентаря.
// Инкремент и флип статуса выполняются под одной блокировкой, что эквивалентно
// атомарному обновлению на уровне хранилища.
func (r *productRepositoryInMemory) RestoreInventory(productID string, qty int32) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.items[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}

	switch product.ProductType {
	case domain.ProductTypeMadeToOrder:
		product.RemainingCapacity += qty
	case domain.ProductTypeScheduledOrder:
		product.AvailableQuantity += qty
	default:
		// ready_to_ship списывает оба поля при заказе, поэтому оба и восстанавливаются.
		product.Stock += qty
		product.AvailableQuantity += qty
	}

	product.SoldCount -= qty
	if product.SoldCount < 0 {
		product.SoldCount = 0
	}

	// Автоматически реактивируется только ребро out_of_stock → active:
	// товар, деактивированный по другой причине, остаётся как есть.
	if product.Status == domain.ProductStatusOutOfStock && product.AuthoritativeQuantity() > 0 {
		product.Status = domain.ProductStatusActive
	}

	product.UpdatedAt = time.Now().UTC()
	r.items[productID] = product
	return product, nil
}

var _ domain.ProductRepository = (*productRepositoryInMemory)(nil)
