package settingscache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/bazaarmkt/settlement/internal/domain"
)

const (
	defaultTTL = 5 * time.Minute
	// Настройки платформы — singleton, но LRU требует ёмкость.
	cacheSize   = 1
	settingsKey = "platform"
)

// Cache — кэширующая обёртка над репозиторием настроек платформы.
// Настройки читаются на каждый webhook и каждый прогон выплат, а меняются
// редко, поэтому между обращениями к хранилищу выдерживается TTL.
type Cache struct {
	repo domain.SettingsRepository
	lru  *expirable.LRU[string, domain.PlatformSettings]
}

// New создаёт кэш с заданным TTL; ttl <= 0 заменяется значением по умолчанию.
func New(repo domain.SettingsRepository, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{
		repo: repo,
		lru:  expirable.NewLRU[string, domain.PlatformSettings](cacheSize, nil, ttl),
	}
}

// Get возвращает настройки платформы, обращаясь к хранилищу не чаще TTL.
func (c *Cache) Get() (domain.PlatformSettings, error) {
	if settings, ok := c.lru.Get(settingsKey); ok {
		return settings, nil
	}

	settings, err := c.repo.Get()
	if err != nil {
		return domain.PlatformSettings{}, err
	}
	c.lru.Add(settingsKey, settings)
	return settings, nil
}

// Save записывает настройки и сбрасывает кэш, чтобы следующее чтение
// увидело новую версию немедленно.
func (c *Cache) Save(settings domain.PlatformSettings) error {
	if err := c.repo.Save(settings); err != nil {
		return err
	}
	c.lru.Purge()
	return nil
}

// Invalidate принудительно сбрасывает кэш.
func (c *Cache) Invalidate() {
	c.lru.Purge()
}

var _ domain.SettingsRepository = (*Cache)(nil)
