package domain

// DeliveryBufferSettings — платформенные настройки буфера стоимости доставки.
// Значения буфера выражены в валютных единицах котировки курьера.
type DeliveryBufferSettings struct {
	// BufferPercentage — наценка к котировке в процентах.
	BufferPercentage float64
	// MinBuffer и MaxBuffer ограничивают абсолютный размер буфера.
	MinBuffer float64
	MaxBuffer float64
	// AutoApproveThreshold — превышение, которое платформа поглощает молча.
	AutoApproveThreshold float64
	// ArtisanAbsorptionLimit — максимум, который имеет смысл предлагать артизану.
	ArtisanAbsorptionLimit float64
	// ResponseTimeoutMinutes — окно ответа артизана; молчание трактуется как отказ.
	ResponseTimeoutMinutes int
	// RefundThreshold — минимальная сумма, ради которой оформляется возврат.
	RefundThreshold float64
}

// PlatformSettings — singleton-конфигурация платформы.
type PlatformSettings struct {
	// MinimumPayoutMinor — глобальный нижний порог выплаты.
	MinimumPayoutMinor int64
	DeliveryBuffer     DeliveryBufferSettings
}

// DefaultMinimumPayoutMinor применяется, если глобальный минимум не настроен
// (25 валютных единиц).
const DefaultMinimumPayoutMinor int64 = 2500

// DefaultPlatformSettings возвращает настройки платформы по умолчанию.
func DefaultPlatformSettings() PlatformSettings {
	return PlatformSettings{
		MinimumPayoutMinor: DefaultMinimumPayoutMinor,
		DeliveryBuffer: DeliveryBufferSettings{
			BufferPercentage:       20,
			MinBuffer:              2,
			MaxBuffer:              10,
			AutoApproveThreshold:   0.50,
			ArtisanAbsorptionLimit: 5.00,
			ResponseTimeoutMinutes: 30,
			RefundThreshold:        1.00,
		},
	}
}

// Normalize заполняет незаданные поля значениями по умолчанию.
func (s PlatformSettings) Normalize() PlatformSettings {
	defaults := DefaultPlatformSettings()
	if s.MinimumPayoutMinor <= 0 {
		s.MinimumPayoutMinor = defaults.MinimumPayoutMinor
	}
	if s.DeliveryBuffer.BufferPercentage <= 0 {
		s.DeliveryBuffer.BufferPercentage = defaults.DeliveryBuffer.BufferPercentage
	}
	if s.DeliveryBuffer.MaxBuffer <= 0 {
		s.DeliveryBuffer.MaxBuffer = defaults.DeliveryBuffer.MaxBuffer
	}
	if s.DeliveryBuffer.MinBuffer <= 0 {
		s.DeliveryBuffer.MinBuffer = defaults.DeliveryBuffer.MinBuffer
	}
	if s.DeliveryBuffer.AutoApproveThreshold <= 0 {
		s.DeliveryBuffer.AutoApproveThreshold = defaults.DeliveryBuffer.AutoApproveThreshold
	}
	if s.DeliveryBuffer.ArtisanAbsorptionLimit <= 0 {
		s.DeliveryBuffer.ArtisanAbsorptionLimit = defaults.DeliveryBuffer.ArtisanAbsorptionLimit
	}
	if s.DeliveryBuffer.ResponseTimeoutMinutes <= 0 {
		s.DeliveryBuffer.ResponseTimeoutMinutes = defaults.DeliveryBuffer.ResponseTimeoutMinutes
	}
	if s.DeliveryBuffer.RefundThreshold <= 0 {
		s.DeliveryBuffer.RefundThreshold = defaults.DeliveryBuffer.RefundThreshold
	}
	return s
}
