package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/bazaarmkt/settlement/internal/domain"
)

func TestUserRepository_PostgresProviderSync(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewUserRepository(store)

	now := time.Now().UTC().Truncate(time.Microsecond)
	if err := repo.Create(domain.User{
		ID:        "u1",
		Email:     "Buyer@Example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	// Email нормализуется при записи и при поиске.
	user, err := repo.GetByEmail("buyer@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if user.Email != "buyer@example.com" {
		t.Fatalf("email = %q, want normalized", user.Email)
	}

	user, err = repo.LinkProviderCustomer("BUYER@example.com", "cus_42")
	if err != nil {
		t.Fatalf("link provider customer: %v", err)
	}
	if user.ProviderCustomerID != "cus_42" {
		t.Fatalf("provider customer id = %q, want cus_42", user.ProviderCustomerID)
	}

	if _, err := repo.LinkProviderCustomer("stranger@example.com", "cus_x"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("unknown email error = %v, want ErrUserNotFound", err)
	}

	pm := domain.PaymentMethodSummary{
		ProviderID: "pm_7",
		Brand:      "visa",
		Last4:      "4242",
		ExpMonth:   12,
		ExpYear:    2030,
	}
	user, err = repo.AttachPaymentMethod("cus_42", pm)
	if err != nil {
		t.Fatalf("attach payment method: %v", err)
	}
	if len(user.PaymentMethods) != 1 || user.PaymentMethods[0].Last4 != "4242" {
		t.Fatalf("unexpected payment methods: %+v", user.PaymentMethods)
	}

	// Повторное событие с тем же provider_id перезаписывает сводку.
	pm.ExpYear = 2031
	user, err = repo.AttachPaymentMethod("cus_42", pm)
	if err != nil {
		t.Fatalf("re-attach payment method: %v", err)
	}
	if len(user.PaymentMethods) != 1 || user.PaymentMethods[0].ExpYear != 2031 {
		t.Fatalf("unexpected payment methods after re-attach: %+v", user.PaymentMethods)
	}

	user, err = repo.DetachPaymentMethod("pm_7")
	if err != nil {
		t.Fatalf("detach payment method: %v", err)
	}
	if len(user.PaymentMethods) != 0 {
		t.Fatalf("payment methods after detach: %+v", user.PaymentMethods)
	}

	if _, err := repo.DetachPaymentMethod("pm_missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("missing method error = %v, want ErrUserNotFound", err)
	}
}

func TestSettingsRepository_PostgresRoundTrip(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewSettingsRepository(store)

	// До первой записи возвращаются дефолты.
	settings, err := repo.Get()
	if err != nil {
		t.Fatalf("get defaults: %v", err)
	}
	if settings.MinimumPayoutMinor != domain.DefaultMinimumPayoutMinor {
		t.Fatalf("minimum payout = %d, want default", settings.MinimumPayoutMinor)
	}

	settings.MinimumPayoutMinor = 5000
	settings.DeliveryBuffer.BufferPercentage = 25
	if err := repo.Save(settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	got, err := repo.Get()
	if err != nil {
		t.Fatalf("get saved: %v", err)
	}
	if got.MinimumPayoutMinor != 5000 {
		t.Fatalf("minimum payout = %d, want 5000", got.MinimumPayoutMinor)
	}
	if got.DeliveryBuffer.BufferPercentage != 25 {
		t.Fatalf("buffer percentage = %v, want 25", got.DeliveryBuffer.BufferPercentage)
	}
	// Незаданные поля нормализованы дефолтами.
	if got.DeliveryBuffer.MaxBuffer == 0 {
		t.Fatal("expected normalized max buffer")
	}
}
