package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/bazaarmkt/settlement/internal/domain"
)

// userRepositoryInMemory — in-memory реализация UserRepository.
type userRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.User
	// byEmail индексирует пользователей по нормализованному email.
	byEmail map[string]string
}

// NewUserRepository возвращает in-memory репозиторий пользователей.
func NewUserRepository() domain.UserRepository {
	return &userRepositoryInMemory{
		items:   make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

// Create сохраняет нового пользователя, если ID ещё не занят.
func (r *userRepositoryInMemory) Create(user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[user.ID]; exists {
		return domain.ErrAlreadyExists
	}
	user.PaymentMethods = append([]domain.PaymentMethodSummary(nil), user.PaymentMethods...)
	r.items[user.ID] = user
	if user.Email != "" {
		r.byEmail[normalizeEmail(user.Email)] = user.ID
	}
	return nil
}

// GetByEmail возвращает пользователя по email или ErrUserNotFound.
func (r *userRepositoryInMemory) GetByEmail(email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return cloneUser(r.items[id]), nil
}

// LinkProviderCustomer привязывает идентификатор клиента провайдера по email.
func (r *userRepositoryInMemory) LinkProviderCustomer(email, providerCustomerID string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}

	user := r.items[id]
	user.ProviderCustomerID = providerCustomerID
	user.UpdatedAt = time.Now().UTC()
	r.items[id] = user
	return cloneUser(user), nil
}

// AttachPaymentMethod добавляет сводку способа оплаты пользователю провайдера.
// Повторное событие с тем же ProviderID перезаписывает существующую сводку.
func (r *userRepositoryInMemory) AttachPaymentMethod(providerCustomerID string, pm domain.PaymentMethodSummary) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, user := range r.items {
		if user.ProviderCustomerID != providerCustomerID {
			continue
		}

		replaced := false
		for i, existing := range user.PaymentMethods {
			if existing.ProviderID == pm.ProviderID {
				user.PaymentMethods[i] = pm
				replaced = true
				break
			}
		}
		if !replaced {
			user.PaymentMethods = append(user.PaymentMethods, pm)
		}
		user.UpdatedAt = time.Now().UTC()
		r.items[id] = user
		return cloneUser(user), nil
	}

	return domain.User{}, domain.ErrUserNotFound
}

// DetachPaymentMethod удаляет способ оплаты по его идентификатору у провайдера.
func (r *userRepositoryInMemory) DetachPaymentMethod(providerMethodID string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, user := range r.items {
		for i, existing := range user.PaymentMethods {
			if existing.ProviderID != providerMethodID {
				continue
			}
			user.PaymentMethods = append(user.PaymentMethods[:i], user.PaymentMethods[i+1:]...)
			user.UpdatedAt = time.Now().UTC()
			r.items[id] = user
			return cloneUser(user), nil
		}
	}

	return domain.User{}, domain.ErrUserNotFound
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func cloneUser(user domain.User) domain.User {
	user.PaymentMethods = append([]domain.PaymentMethodSummary(nil), user.PaymentMethods...)
	return user
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)
