package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bazaarmkt/settlement/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

const orderColumns = `
	id, artisan_id, payment_intent_id, payment_status, status, total_minor,
	amount_captured_minor, captured_at, failure_reason, failed_at, canceled_at,
	refund_amount_minor, refunded_at, inventory_restored, created_at, updated_at
`

func (r *orderRepository) Create(order domain.Order) error {
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return errors.Join(errs...)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`,
		order.ID, order.ArtisanID, order.PaymentIntentID,
		string(order.PaymentStatus), string(order.Status), order.TotalMinor,
		order.PaymentDetails.AmountCapturedMinor, order.PaymentDetails.CapturedAt,
		order.PaymentDetails.FailureReason, order.PaymentDetails.FailedAt,
		order.PaymentDetails.CanceledAt, order.PaymentDetails.RefundAmountMinor,
		order.PaymentDetails.RefundedAt, order.InventoryRestored,
		order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range order.Items {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				order_id, product_id, quantity, product_type, price_minor
			) VALUES ($1,$2,$3,$4,$5)
		`,
			order.ID, item.ProductID, item.Quantity, string(item.ProductType), item.PriceMinor,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create order: %w", err)
	}

	return nil
}

func (r *orderRepository) Get(id string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getByColumn(ctx, "id", id)
}

func (r *orderRepository) GetByPaymentIntent(intentID string) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getByColumn(ctx, "payment_intent_id", intentID)
}

// MarkCaptured переводит платёж в captured. Условие по payment_status
// обеспечивает монотонность переходов прямо в UPDATE; повторная доставка
// того же события сходится к тому же состоянию.
func (r *orderRepository) MarkCaptured(intentID string, amountMinor int64, capturedAt time.Time) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $2,
		    amount_captured_minor = $3,
		    captured_at = $4,
		    updated_at = $4
		WHERE payment_intent_id = $1
		  AND payment_status IN ('pending', 'captured')
	`, intentID, string(domain.PaymentStatusCaptured), amountMinor, capturedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("mark order captured: %w", err)
	}
	if err := requireTransitionApplied(ctx, r, res, intentID); err != nil {
		return domain.Order{}, err
	}

	return r.getByColumn(ctx, "payment_intent_id", intentID)
}

// MarkFailed выставляет payment_status=failed и атомарно претендует на
// восстановление инвентаря: прежнее значение inventory_restored читается
// тем же UPDATE, поэтому из конкурирующих доставок флаг достаётся ровно одной.
func (r *orderRepository) MarkFailed(intentID, reason string, failedAt time.Time) (domain.Order, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var claimed bool
	err := r.db.QueryRowContext(ctx, `
		UPDATE orders o
		SET payment_status = $2,
		    failure_reason = $3,
		    failed_at = $4,
		    inventory_restored = TRUE,
		    updated_at = $4
		FROM (
			SELECT id, inventory_restored AS was_restored
			FROM orders
			WHERE payment_intent_id = $1
			  AND payment_status IN ('pending', 'failed')
			FOR UPDATE
		) prev
		WHERE o.id = prev.id
		RETURNING NOT prev.was_restored
	`, intentID, string(domain.PaymentStatusFailed), reason, failedAt).Scan(&claimed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, false, r.transitionRefused(ctx, intentID)
		}
		return domain.Order{}, false, fmt.Errorf("mark order failed: %w", err)
	}

	order, err := r.getByColumn(ctx, "payment_intent_id", intentID)
	if err != nil {
		return domain.Order{}, false, err
	}
	return order, claimed, nil
}

func (r *orderRepository) MarkCanceled(intentID string, canceledAt time.Time) (domain.Order, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var claimed bool
	err := r.db.QueryRowContext(ctx, `
		UPDATE orders o
		SET payment_status = $2,
		    status = $3,
		    canceled_at = $4,
		    inventory_restored = TRUE,
		    updated_at = $4
		FROM (
			SELECT id, inventory_restored AS was_restored
			FROM orders
			WHERE payment_intent_id = $1
			  AND payment_status IN ('pending', 'canceled')
			FOR UPDATE
		) prev
		WHERE o.id = prev.id
		RETURNING NOT prev.was_restored
	`, intentID, string(domain.PaymentStatusCanceled), string(domain.OrderStatusCancelled), canceledAt).Scan(&claimed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, false, r.transitionRefused(ctx, intentID)
		}
		return domain.Order{}, false, fmt.Errorf("mark order canceled: %w", err)
	}

	order, err := r.getByColumn(ctx, "payment_intent_id", intentID)
	if err != nil {
		return domain.Order{}, false, err
	}
	return order, claimed, nil
}

func (r *orderRepository) MarkRefunded(intentID string, amountMinor int64, refundedAt time.Time) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	// Возврат возможен только после исхода платежа: pending-заказ
	// возвращать нечем.
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $2,
		    refund_amount_minor = $3,
		    refunded_at = $4,
		    updated_at = $4
		WHERE payment_intent_id = $1
		  AND payment_status <> 'pending'
	`, intentID, string(domain.PaymentStatusRefunded), amountMinor, refundedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("mark order refunded: %w", err)
	}
	if err := requireTransitionApplied(ctx, r, res, intentID); err != nil {
		return domain.Order{}, err
	}

	return r.getByColumn(ctx, "payment_intent_id", intentID)
}

// ReleaseRestoreClaim возвращает право на восстановление инвентаря, если
// само восстановление сорвалось после претензии.
func (r *orderRepository) ReleaseRestoreClaim(intentID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET inventory_restored = FALSE
		WHERE payment_intent_id = $1
	`, intentID)
	if err != nil {
		return fmt.Errorf("release restore claim: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) getByColumn(ctx context.Context, column, value string) (domain.Order, error) {
	var (
		order         domain.Order
		paymentStatus string
		status        string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE `+column+` = $1
	`, value).Scan(
		&order.ID, &order.ArtisanID, &order.PaymentIntentID, &paymentStatus,
		&status, &order.TotalMinor, &order.PaymentDetails.AmountCapturedMinor,
		&order.PaymentDetails.CapturedAt, &order.PaymentDetails.FailureReason,
		&order.PaymentDetails.FailedAt, &order.PaymentDetails.CanceledAt,
		&order.PaymentDetails.RefundAmountMinor, &order.PaymentDetails.RefundedAt,
		&order.InventoryRestored, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}
	order.PaymentStatus = domain.PaymentStatus(paymentStatus)
	order.Status = domain.OrderStatus(status)

	items, err := r.loadItems(ctx, order.ID)
	if err != nil {
		return domain.Order{}, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) loadItems(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity, product_type, price_minor
		FROM order_items
		WHERE order_id = $1
		ORDER BY id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var (
			item        domain.OrderItem
			productType string
		)
		if err := rows.Scan(&item.ProductID, &item.Quantity, &productType, &item.PriceMinor); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		item.ProductType = domain.ProductType(productType)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}

	return items, nil
}

// requireTransitionApplied разбирает нулевое число затронутых строк:
// заказа нет вовсе либо его текущий payment_status запрещает переход.
func requireTransitionApplied(ctx context.Context, r *orderRepository, res sql.Result, intentID string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return r.transitionRefused(ctx, intentID)
	}
	return nil
}

// transitionRefused различает отсутствующий заказ и немонотонный переход.
func (r *orderRepository) transitionRefused(ctx context.Context, intentID string) error {
	if _, err := r.getByColumn(ctx, "payment_intent_id", intentID); err != nil {
		return err
	}
	return domain.ErrPaymentStatusInvalid
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.OrderRepository = (*orderRepository)(nil)
