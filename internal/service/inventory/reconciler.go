package inventory

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/bazaarmkt/settlement/internal/domain"
)

// ItemResult описывает судьбу одной позиции при восстановлении.
type ItemResult struct {
	ProductID string
	Quantity  int32
	Restored  bool
	Reason    string
}

// RestoreResult — сводка восстановления инвентаря по заказу.
type RestoreResult struct {
	Restored int
	Skipped  int
	Items    []ItemResult
}

// Reconciler возвращает количества позиций заказа в каталог после провала
// или отмены платежа. Операция не идемпотентна: гарантию "не более одного
// вызова на заказ" даёт вызывающая сторона через флаг InventoryRestored.
type Reconciler struct {
	products domain.ProductRepository
	logger   *log.Entry
}

// NewReconciler создаёт сервис восстановления инвентаря.
func NewReconciler(products domain.ProductRepository, logger *log.Entry) *Reconciler {
	if logger == nil {
		logger = log.WithField("component", "inventory-reconciler")
	}
	return &Reconciler{
		products: products,
		logger:   logger,
	}
}

// Restore возвращает количества позиций заказа в авторитетные поля инвентаря.
// Удалённый товар пропускается с warning и не блокирует остальные позиции.
// Инфраструктурная ошибка по любой позиции возвращается наружу, чтобы webhook
// ответил 500 и провайдер повторил доставку.
func (r *Reconciler) Restore(ctx context.Context, order domain.Order) (RestoreResult, error) {
	result := RestoreResult{Items: make([]ItemResult, 0, len(order.Items))}
	var firstErr error

	for _, item := range order.Items {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		product, err := r.products.RestoreInventory(item.ProductID, item.Quantity)
		if err != nil {
			if domain.IsNotFound(err) {
				r.logger.WithFields(log.Fields{
					"order_id":   order.ID,
					"product_id": item.ProductID,
				}).Warn("product missing, skipping inventory restoration for item")
				result.Skipped++
				result.Items = append(result.Items, ItemResult{
					ProductID: item.ProductID,
					Quantity:  item.Quantity,
					Reason:    "product not found",
				})
				continue
			}

			r.logger.WithError(err).WithFields(log.Fields{
				"order_id":   order.ID,
				"product_id": item.ProductID,
			}).Error("inventory restoration failed for item")
			result.Skipped++
			result.Items = append(result.Items, ItemResult{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				Reason:    err.Error(),
			})
			if firstErr == nil {
				firstErr = fmt.Errorf("restore product %s: %w", item.ProductID, err)
			}
			continue
		}

		result.Restored++
		result.Items = append(result.Items, ItemResult{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Restored:  true,
		})

		r.logger.WithFields(log.Fields{
			"order_id":     order.ID,
			"product_id":   item.ProductID,
			"qty":          item.Quantity,
			"product_type": product.ProductType,
			"status":       product.Status,
		}).Info("inventory restored for item")
	}

	return result, firstErr
}
