package memory

import (
	"sync"

	"github.com/bazaarmkt/settlement/internal/domain"
)

// settingsRepositoryInMemory — in-memory singleton настроек платформы.
type settingsRepositoryInMemory struct {
	mu       sync.RWMutex
	settings domain.PlatformSettings
	set      bool
}

// NewSettingsRepository возвращает in-memory хранилище настроек платформы.
func NewSettingsRepository() domain.SettingsRepository {
	return &settingsRepositoryInMemory{}
}

// Get возвращает настройки платформы; до первого Save — значения по умолчанию.
func (r *settingsRepositoryInMemory) Get() (domain.PlatformSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.set {
		return domain.DefaultPlatformSettings(), nil
	}
	return r.settings.Normalize(), nil
}

// Save перезаписывает singleton-настройки.
func (r *settingsRepositoryInMemory) Save(settings domain.PlatformSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.settings = settings
	r.set = true
	return nil
}

var _ domain.SettingsRepository = (*settingsRepositoryInMemory)(nil)
