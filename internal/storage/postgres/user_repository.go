package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bazaarmkt/settlement/internal/domain"
)

type userRepository struct {
	db *sql.DB
}

// NewUserRepository создаёт PostgreSQL-реализацию UserRepository.
func NewUserRepository(store *Store) domain.UserRepository {
	return &userRepository{db: store.DB()}
}

func (r *userRepository) Create(user domain.User) error {
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
		INSERT INTO users (
			id, email, provider_customer_id, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5)
	`,
		user.ID, normalizeEmail(user.Email), user.ProviderCustomerID,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	for _, pm := range user.PaymentMethods {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO user_payment_methods (
				provider_id, user_id, brand, last4, exp_month, exp_year
			) VALUES ($1,$2,$3,$4,$5,$6)
		`,
			pm.ProviderID, user.ID, pm.Brand, pm.Last4, pm.ExpMonth, pm.ExpYear,
		); err != nil {
			return fmt.Errorf("insert payment method: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByEmail(email string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getByColumn(ctx, "email", normalizeEmail(email))
}

func (r *userRepository) LinkProviderCustomer(email, providerCustomerID string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET provider_customer_id = $2,
		    updated_at = $3
		WHERE email = $1
	`, normalizeEmail(email), providerCustomerID, time.Now().UTC())
	if err != nil {
		return domain.User{}, fmt.Errorf("link provider customer: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.User{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.User{}, domain.ErrUserNotFound
	}

	return r.getByColumn(ctx, "email", normalizeEmail(email))
}

// AttachPaymentMethod добавляет сводку способа оплаты. Повторное событие
// с тем же provider_id перезаписывает существующую запись (upsert).
func (r *userRepository) AttachPaymentMethod(providerCustomerID string, pm domain.PaymentMethodSummary) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	user, err := r.getByColumn(ctx, "provider_customer_id", providerCustomerID)
	if err != nil {
		return domain.User{}, err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO user_payment_methods (
			provider_id, user_id, brand, last4, exp_month, exp_year
		) VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (provider_id) DO UPDATE
		SET user_id = EXCLUDED.user_id,
		    brand = EXCLUDED.brand,
		    last4 = EXCLUDED.last4,
		    exp_month = EXCLUDED.exp_month,
		    exp_year = EXCLUDED.exp_year
	`, pm.ProviderID, user.ID, pm.Brand, pm.Last4, pm.ExpMonth, pm.ExpYear)
	if err != nil {
		return domain.User{}, fmt.Errorf("attach payment method: %w", err)
	}

	return r.getByColumn(ctx, "id", user.ID)
}

func (r *userRepository) DetachPaymentMethod(providerMethodID string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var userID string
	err := r.db.QueryRowContext(ctx, `
		DELETE FROM user_payment_methods
		WHERE provider_id = $1
		RETURNING user_id
	`, providerMethodID).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("detach payment method: %w", err)
	}

	return r.getByColumn(ctx, "id", userID)
}

func (r *userRepository) getByColumn(ctx context.Context, column, value string) (domain.User, error) {
	var user domain.User

	err := r.db.QueryRowContext(ctx, `
		SELECT id, email, provider_customer_id, created_at, updated_at
		FROM users
		WHERE `+column+` = $1
	`, value).Scan(
		&user.ID, &user.Email, &user.ProviderCustomerID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}

	methods, err := r.loadPaymentMethods(ctx, user.ID)
	if err != nil {
		return domain.User{}, err
	}
	user.PaymentMethods = methods

	return user, nil
}

func (r *userRepository) loadPaymentMethods(ctx context.Context, userID string) ([]domain.PaymentMethodSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT provider_id, brand, last4, exp_month, exp_year
		FROM user_payment_methods
		WHERE user_id = $1
		ORDER BY created_at ASC, provider_id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("load payment methods: %w", err)
	}
	defer rows.Close()

	methods := make([]domain.PaymentMethodSummary, 0)
	for rows.Next() {
		var pm domain.PaymentMethodSummary
		if err := rows.Scan(&pm.ProviderID, &pm.Brand, &pm.Last4, &pm.ExpMonth, &pm.ExpYear); err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		methods = append(methods, pm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment methods: %w", err)
	}

	return methods, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ domain.UserRepository = (*userRepository)(nil)
