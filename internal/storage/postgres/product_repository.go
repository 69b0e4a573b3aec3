package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bazaarmkt/settlement/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию ProductRepository.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

const productColumns = `
	id, artisan_id, name, product_type, stock, available_quantity,
	remaining_capacity, sold_count, status, created_at, updated_at
`

func (r *productRepository) Create(product domain.Product) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		product.ID, product.ArtisanID, product.Name, string(product.ProductType),
		product.Stock, product.AvailableQuantity, product.RemainingCapacity,
		product.SoldCount, string(product.Status), product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *productRepository) Get(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, id)
	return scanProduct(row)
}

// RestoreInventory возвращает qty единиц одним UPDATE: инкремент авторитетного
// поля, уменьшение sold_count и флип out_of_stock → active выполняются на
// стороне базы, без read-modify-write в приложении.
func (r *productRepository) RestoreInventory(productID string, qty int32) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET stock = stock + CASE WHEN product_type = $3 THEN $2::INT ELSE 0 END,
		    available_quantity = available_quantity + CASE WHEN product_type IN ($3, $4) THEN $2::INT ELSE 0 END,
		    remaining_capacity = remaining_capacity + CASE WHEN product_type = $5 THEN $2::INT ELSE 0 END,
		    sold_count = GREATEST(sold_count - $2::INT, 0),
		    status = CASE WHEN status = $6 THEN $7 ELSE status END,
		    updated_at = $8
		WHERE id = $1
		RETURNING `+productColumns+`
	`,
		productID, qty,
		string(domain.ProductTypeReadyToShip), string(domain.ProductTypeScheduledOrder),
		string(domain.ProductTypeMadeToOrder),
		string(domain.ProductStatusOutOfStock), string(domain.ProductStatusActive),
		time.Now().UTC(),
	)
	return scanProduct(row)
}

func scanProduct(row *sql.Row) (domain.Product, error) {
	var (
		product     domain.Product
		productType string
		status      string
	)

	err := row.Scan(
		&product.ID, &product.ArtisanID, &product.Name, &productType,
		&product.Stock, &product.AvailableQuantity, &product.RemainingCapacity,
		&product.SoldCount, &status, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("scan product: %w", err)
	}
	product.ProductType = domain.ProductType(productType)
	product.Status = domain.ProductStatus(status)
	return product, nil
}

var _ domain.ProductRepository = (*productRepository)(nil)
