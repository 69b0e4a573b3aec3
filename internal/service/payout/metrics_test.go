package payout_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/bazaarmkt/settlement/internal/domain"
)

// gatherCounter возвращает суммарное значение счётчика с заданным лейблом.
func gatherCounter(t *testing.T, name, labelName, labelValue string) float64 {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err, "gather metrics")

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		var total float64
		for _, metric := range family.GetMetric() {
			if labelName != "" && !hasLabel(metric, labelName, labelValue) {
				continue
			}
			total += metric.GetCounter().GetValue()
		}
		return total
	}
	return 0
}

func hasLabel(metric *dto.Metric, name, value string) bool {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == name && pair.GetValue() == value {
			return true
		}
	}
	return false
}

func TestProcessOnceRecordsMetrics(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.wallets.Create(dueWallet("w1", "artisan-1", 5000, domain.PayoutScheduleWeekly)))

	runsBefore := gatherCounter(t, "settlement_payout_runs_total", "trigger", "metrics-test")
	paidBefore := gatherCounter(t, "settlement_payout_wallets_total", "result", "paid")
	amountBefore := gatherCounter(t, "settlement_payout_amount_minor_total", "", "")

	summary, err := f.scheduler.ProcessOnce(context.Background(), "metrics-test")
	require.NoError(t, err)
	require.Equal(t, 1, summary.Processed)

	require.Equal(t, runsBefore+1, gatherCounter(t, "settlement_payout_runs_total", "trigger", "metrics-test"))
	require.Equal(t, paidBefore+1, gatherCounter(t, "settlement_payout_wallets_total", "result", "paid"))
	require.Equal(t, amountBefore+5000, gatherCounter(t, "settlement_payout_amount_minor_total", "", ""))
}
