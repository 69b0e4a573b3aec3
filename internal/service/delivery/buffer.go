package delivery

import (
	"math"
	"time"

	"github.com/bazaarmkt/settlement/internal/domain"
)

// Decision — результат политики по превышению стоимости доставки.
type Decision string

const (
	// DecisionAutoApprove — платформа молча поглощает превышение.
	DecisionAutoApprove Decision = "auto_approve"
	// DecisionAsk — превышение эскалируется артизану; молчание в течение
	// таймаута трактуется вызывающим workflow как отказ.
	DecisionAsk Decision = "ask"
	// DecisionAutoDecline — превышение слишком велико, заказ подлежит отмене/возврату.
	DecisionAutoDecline Decision = "auto_decline"
)

// Config — настройки политики буфера. Все пороги задаются конфигурацией,
// значения выражены в валютных единицах котировки курьера.
type Config struct {
	BufferPercentage       float64
	MinBuffer              float64
	MaxBuffer              float64
	AutoApproveThreshold   float64
	ArtisanAbsorptionLimit float64
	ResponseTimeout        time.Duration
	RefundThreshold        float64
}

// DefaultConfig возвращает настройки политики по умолчанию: 20% буфера
// в пределах [2, 10] валютных единиц.
func DefaultConfig() Config {
	return FromPlatformSettings(domain.DefaultPlatformSettings().DeliveryBuffer)
}

// FromPlatformSettings переводит платформенные тюнаблы в конфигурацию политики.
func FromPlatformSettings(settings domain.DeliveryBufferSettings) Config {
	return Config{
		BufferPercentage:       settings.BufferPercentage,
		MinBuffer:              settings.MinBuffer,
		MaxBuffer:              settings.MaxBuffer,
		AutoApproveThreshold:   settings.AutoApproveThreshold,
		ArtisanAbsorptionLimit: settings.ArtisanAbsorptionLimit,
		ResponseTimeout:        time.Duration(settings.ResponseTimeoutMinutes) * time.Minute,
		RefundThreshold:        settings.RefundThreshold,
	}
}

// Quote — котировка доставки с заложенным буфером против surge-волатильности.
type Quote struct {
	BufferAmount     float64
	BufferPercentage float64
	ChargedAmount    float64
}

// ComputeBuffer рассчитывает буфер как процент от котировки, ограниченный
// диапазоном [MinBuffer, MaxBuffer], и итоговую сумму для покупателя.
func ComputeBuffer(estimatedFee float64, cfg Config) Quote {
	buffer := estimatedFee * cfg.BufferPercentage / 100
	if buffer < cfg.MinBuffer {
		buffer = cfg.MinBuffer
	}
	if buffer > cfg.MaxBuffer {
		buffer = cfg.MaxBuffer
	}
	buffer = round2(buffer)

	return Quote{
		BufferAmount:     buffer,
		BufferPercentage: cfg.BufferPercentage,
		ChargedAmount:    round2(estimatedFee + buffer),
	}
}

// DecideOnExcess решает судьбу превышения фактической стоимости доставки
// над суммой, списанной с покупателя.
func DecideOnExcess(excessAmount float64, cfg Config) Decision {
	switch {
	case excessAmount <= cfg.AutoApproveThreshold:
		return DecisionAutoApprove
	case excessAmount > cfg.ArtisanAbsorptionLimit:
		return DecisionAutoDecline
	default:
		return DecisionAsk
	}
}

// ShouldRefund решает, оправдан ли возврат: суммы ниже порога платформа
// поглощает, не создавая процессинговый шум.
func ShouldRefund(refundAmount float64, cfg Config) bool {
	return refundAmount >= cfg.RefundThreshold
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
