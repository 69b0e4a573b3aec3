package domain

import "time"

// ProductType определяет модель исполнения товара и тем самым —
// какое поле инвентаря является авторитетным.
type ProductType string

const (
	// ProductTypeReadyToShip — готовый товар со склада: stock и availableQuantity.
	ProductTypeReadyToShip ProductType = "ready_to_ship"
	// ProductTypeMadeToOrder — изготовление под заказ: remainingCapacity.
	ProductTypeMadeToOrder ProductType = "made_to_order"
	// ProductTypeScheduledOrder — заказ к дате: availableQuantity.
	ProductTypeScheduledOrder ProductType = "scheduled_order"
)

// ProductStatus описывает доступность товара в каталоге.
type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "active"
	ProductStatusInactive   ProductStatus = "inactive"
	ProductStatusOutOfStock ProductStatus = "out_of_stock"
)

// Product — позиция каталога с инвентарём.
type Product struct {
	ID                string
	ArtisanID         string
	Name              string
	ProductType       ProductType
	Stock             int32
	AvailableQuantity int32
	RemainingCapacity int32
	SoldCount         int32
	Status            ProductStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Valid проверяет, что тип товара относится к поддерживаемым моделям исполнения.
func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeReadyToShip, ProductTypeMadeToOrder, ProductTypeScheduledOrder:
		return true
	default:
		return false
	}
}

// AuthoritativeQuantity возвращает значение авторитетного поля инвентаря
// для модели исполнения товара.
func (p *Product) AuthoritativeQuantity() int32 {
	switch p.ProductType {
	case ProductTypeMadeToOrder:
		return p.RemainingCapacity
	case ProductTypeScheduledOrder:
		return p.AvailableQuantity
	default:
		return p.Stock
	}
}
