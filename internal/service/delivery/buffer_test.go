package delivery

import (
	"testing"
	"time"

	"github.com/bazaarmkt/settlement/internal/domain"
)

func TestComputeBuffer(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name         string
		estimatedFee float64
		wantBuffer   float64
		wantCharged  float64
	}{
		{name: "clamped to max", estimatedFee: 100, wantBuffer: 10, wantCharged: 110},
		{name: "at the min exactly", estimatedFee: 10, wantBuffer: 2, wantCharged: 12},
		{name: "raised to min", estimatedFee: 5, wantBuffer: 2, wantCharged: 7},
		{name: "inside bounds", estimatedFee: 25, wantBuffer: 5, wantCharged: 30},
		{name: "zero fee still buffered", estimatedFee: 0, wantBuffer: 2, wantCharged: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			quote := ComputeBuffer(tc.estimatedFee, cfg)
			if quote.BufferAmount != tc.wantBuffer {
				t.Fatalf("buffer = %v, want %v", quote.BufferAmount, tc.wantBuffer)
			}
			if quote.ChargedAmount != tc.wantCharged {
				t.Fatalf("charged = %v, want %v", quote.ChargedAmount, tc.wantCharged)
			}
			if quote.BufferPercentage != cfg.BufferPercentage {
				t.Fatalf("percentage = %v, want %v", quote.BufferPercentage, cfg.BufferPercentage)
			}
		})
	}
}

func TestDecideOnExcess(t *testing.T) {
	cfg := DefaultConfig() // autoApprove=0.50, absorptionLimit=5.00

	tests := []struct {
		name   string
		excess float64
		want   Decision
	}{
		{name: "small excess absorbed silently", excess: 0.30, want: DecisionAutoApprove},
		{name: "at auto-approve threshold", excess: 0.50, want: DecisionAutoApprove},
		{name: "between thresholds escalates", excess: 2.00, want: DecisionAsk},
		{name: "at absorption limit still asks", excess: 5.00, want: DecisionAsk},
		{name: "beyond limit declines", excess: 6.00, want: DecisionAutoDecline},
		{name: "negative excess approves", excess: -1.00, want: DecisionAutoApprove},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DecideOnExcess(tc.excess, cfg); got != tc.want {
				t.Fatalf("DecideOnExcess(%v) = %s, want %s", tc.excess, got, tc.want)
			}
		})
	}
}

func TestShouldRefund(t *testing.T) {
	cfg := DefaultConfig() // refundThreshold=1.00

	if ShouldRefund(0.99, cfg) {
		t.Fatal("sub-threshold difference must be absorbed, not refunded")
	}
	if !ShouldRefund(1.00, cfg) {
		t.Fatal("threshold amount must be refunded")
	}
	if !ShouldRefund(7.50, cfg) {
		t.Fatal("large amount must be refunded")
	}
}

func TestFromPlatformSettings(t *testing.T) {
	cfg := FromPlatformSettings(domain.DeliveryBufferSettings{
		BufferPercentage:       15,
		MinBuffer:              1,
		MaxBuffer:              20,
		AutoApproveThreshold:   0.25,
		ArtisanAbsorptionLimit: 4,
		ResponseTimeoutMinutes: 45,
		RefundThreshold:        2,
	})

	if cfg.ResponseTimeout != 45*time.Minute {
		t.Fatalf("response timeout = %v, want 45m", cfg.ResponseTimeout)
	}

	quote := ComputeBuffer(100, cfg)
	if quote.BufferAmount != 15 || quote.ChargedAmount != 115 {
		t.Fatalf("quote = %+v, want buffer 15, charged 115", quote)
	}
}
