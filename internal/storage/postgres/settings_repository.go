package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bazaarmkt/settlement/internal/domain"
)

// Настройки платформы — singleton-строка с фиксированным ключом.
const platformSettingsID = 1

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository создаёт PostgreSQL-реализацию SettingsRepository.
func NewSettingsRepository(store *Store) domain.SettingsRepository {
	return &settingsRepository{db: store.DB()}
}

func (r *settingsRepository) Get() (domain.PlatformSettings, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		settings  domain.PlatformSettings
		rawBuffer []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT minimum_payout_minor, delivery_buffer
		FROM platform_settings
		WHERE id = $1
	`, platformSettingsID).Scan(&settings.MinimumPayoutMinor, &rawBuffer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.DefaultPlatformSettings(), nil
		}
		return domain.PlatformSettings{}, fmt.Errorf("select platform settings: %w", err)
	}

	if len(rawBuffer) > 0 {
		if err := json.Unmarshal(rawBuffer, &settings.DeliveryBuffer); err != nil {
			return domain.PlatformSettings{}, fmt.Errorf("unmarshal delivery buffer settings: %w", err)
		}
	}

	return settings.Normalize(), nil
}

func (r *settingsRepository) Save(settings domain.PlatformSettings) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	settings = settings.Normalize()
	rawBuffer, err := json.Marshal(settings.DeliveryBuffer)
	if err != nil {
		return fmt.Errorf("marshal delivery buffer settings: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO platform_settings (id, minimum_payout_minor, delivery_buffer, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET minimum_payout_minor = EXCLUDED.minimum_payout_minor,
		    delivery_buffer = EXCLUDED.delivery_buffer,
		    updated_at = EXCLUDED.updated_at
	`, platformSettingsID, settings.MinimumPayoutMinor, rawBuffer, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert platform settings: %w", err)
	}
	return nil
}

var _ domain.SettingsRepository = (*settingsRepository)(nil)
