package payout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/bazaarmkt/settlement/internal/domain"
	"github.com/bazaarmkt/settlement/internal/messaging/kafka"
)

const defaultRunInterval = 1 * time.Hour

// ErrRunInProgress возвращается при попытке запустить прогон поверх уже идущего.
var ErrRunInProgress = errors.New("payout run already in progress")

var (
	payoutRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_payout_runs_total",
		Help: "Total number of payout sweep runs grouped by trigger.",
	}, []string{"trigger"})
	payoutWalletsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_payout_wallets_total",
		Help: "Total number of wallets handled by payout sweeps grouped by result.",
	}, []string{"result"})
	payoutAmountMinorTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_payout_amount_minor_total",
		Help: "Total amount in minor units paid out to artisans.",
	})
)

// SettingsSource отдаёт актуальные настройки платформы. Реализуется
// репозиторием настроек напрямую либо кэширующей обёрткой над ним.
type SettingsSource interface {
	Get() (domain.PlatformSettings, error)
}

// WalletResult — исход обработки одного кошелька в рамках прогона.
type WalletResult struct {
	WalletID    string `json:"wallet_id"`
	ArtisanID   string `json:"artisan_id"`
	Status      string `json:"status"`
	AmountMinor int64  `json:"amount_minor,omitempty"`
	Reference   string `json:"reference,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Статусы WalletResult.
const (
	StatusPaid    = "paid"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

// Summary — агрегированный итог одного прогона планировщика.
type Summary struct {
	Processed int            `json:"processed"`
	Skipped   int            `json:"skipped"`
	Errors    int            `json:"errors"`
	Total     int            `json:"total"`
	Results   []WalletResult `json:"results"`
}

// SchedulerOptions задаёт параметры планировщика выплат.
type SchedulerOptions struct {
	Logger   *log.Entry
	Producer *kafka.Producer
	Interval time.Duration
	Now      func() time.Time
}

// Option настраивает Scheduler.
type Option func(*SchedulerOptions)

// WithLogger задаёт logger для планировщика.
func WithLogger(logger *log.Entry) Option {
	return func(opts *SchedulerOptions) {
		opts.Logger = logger
	}
}

// WithProducer задаёт producer для публикации событий выплат.
func WithProducer(producer *kafka.Producer) Option {
	return func(opts *SchedulerOptions) {
		opts.Producer = producer
	}
}

// WithInterval задаёт период между фоновыми прогонами.
func WithInterval(interval time.Duration) Option {
	return func(opts *SchedulerOptions) {
		opts.Interval = interval
	}
}

// WithNow подменяет источник времени (для тестов).
func WithNow(now func() time.Time) Option {
	return func(opts *SchedulerOptions) {
		opts.Now = now
	}
}

// Scheduler периодически списывает балансы кошельков с наступившей датой
// выплаты. Каждая выплата обнуляет баланс целиком: сначала пишется запись
// леджера, затем баланс обнуляется compare-and-swap'ом по прочитанному
// значению.
type Scheduler struct {
	wallets      domain.WalletRepository
	transactions domain.WalletTransactionRepository
	settings     SettingsSource
	producer     *kafka.Producer
	logger       *log.Entry
	interval     time.Duration
	now          func() time.Time
	running      atomic.Bool
}

// NewScheduler создаёт планировщик выплат.
func NewScheduler(
	wallets domain.WalletRepository,
	transactions domain.WalletTransactionRepository,
	settings SettingsSource,
	options ...Option,
) *Scheduler {
	opts := SchedulerOptions{
		Interval: defaultRunInterval,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "payout-scheduler")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultRunInterval
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	return &Scheduler{
		wallets:      wallets,
		transactions: transactions,
		settings:     settings,
		producer:     opts.Producer,
		logger:       logger,
		interval:     opts.Interval,
		now:          now,
	}
}

// Run запускает периодические прогоны до отмены ctx.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ProcessOnce(ctx, "schedule"); err != nil {
				s.logger.WithError(err).Error("scheduled payout run failed")
			}
		}
	}
}

// ProcessOnce выполняет один полный прогон по всем кошелькам с наступившей
// выплатой. Ошибка по одному кошельку не прерывает прогон: она фиксируется
// в Summary, остальные кошельки обрабатываются дальше. Параллельные прогоны
// не допускаются.
func (s *Scheduler) ProcessOnce(ctx context.Context, trigger string) (Summary, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.WithField("trigger", trigger).Warn("payout run already in progress, skipping")
		return Summary{}, ErrRunInProgress
	}
	defer s.running.Store(false)

	payoutRunsTotal.WithLabelValues(trigger).Inc()

	settings, err := s.settings.Get()
	if err != nil {
		return Summary{}, fmt.Errorf("load platform settings: %w", err)
	}

	// Глобальный минимум — жёсткий пол уже на этапе выборки: кошелёк с балансом
	// ниже него не попадает в прогон независимо от индивидуального минимума.
	now := s.now()
	due, err := s.wallets.ListDue(now, settings.MinimumPayoutMinor)
	if err != nil {
		return Summary{}, fmt.Errorf("list due wallets: %w", err)
	}

	summary := Summary{Total: len(due), Results: make([]WalletResult, 0, len(due))}
	for _, wallet := range due {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		result := s.processWallet(wallet, settings, now)
		switch result.Status {
		case StatusPaid:
			summary.Processed++
		case StatusSkipped:
			summary.Skipped++
		default:
			summary.Errors++
		}
		payoutWalletsTotal.WithLabelValues(result.Status).Inc()
		summary.Results = append(summary.Results, result)
	}

	s.logger.WithFields(log.Fields{
		"trigger":   trigger,
		"total":     summary.Total,
		"processed": summary.Processed,
		"skipped":   summary.Skipped,
		"errors":    summary.Errors,
	}).Info("payout run finished")
	return summary, nil
}

func (s *Scheduler) processWallet(wallet domain.Wallet, settings domain.PlatformSettings, now time.Time) WalletResult {
	result := WalletResult{WalletID: wallet.ID, ArtisanID: wallet.ArtisanID}

	minimum := wallet.EffectiveMinimum(settings.MinimumPayoutMinor)
	if wallet.BalanceMinor < minimum {
		s.logger.WithFields(log.Fields{
			"wallet_id":     wallet.ID,
			"balance_minor": wallet.BalanceMinor,
			"minimum_minor": minimum,
		}).Debug("wallet below payout minimum, skipping")
		result.Status = StatusSkipped
		return result
	}

	// Нераспознанное расписание — ошибка конфигурации кошелька; она должна
	// быть видима, а не маскироваться под пропуск.
	nextPayout, err := wallet.PayoutSettings.Schedule.Next(now)
	if err != nil {
		return s.walletError(result, wallet, err)
	}

	amount := wallet.BalanceMinor
	reference := newPayoutReference(now)

	// Запись леджера идёт первой: при сбое между Append и SettlePayout
	// баланс остаётся нетронутым, а повторный прогон создаст новую
	// запись с новым reference.
	tx := domain.WalletTransaction{
		ID:                uuid.NewString(),
		WalletID:          wallet.ID,
		ArtisanID:         wallet.ArtisanID,
		Type:              domain.WalletTransactionPayout,
		AmountMinor:       -amount,
		Description:       fmt.Sprintf("Scheduled %s payout", wallet.PayoutSettings.Schedule),
		Status:            domain.WalletTransactionStatusCompleted,
		Reference:         reference,
		BalanceAfterMinor: 0,
		CreatedAt:         now,
	}
	if err := s.transactions.Append(tx); err != nil {
		return s.walletError(result, wallet, fmt.Errorf("append ledger entry: %w", err))
	}

	if err := s.wallets.SettlePayout(wallet.ID, amount, now, nextPayout); err != nil {
		// Конфликт баланса означает конкурентное зачисление после чтения;
		// кошелёк догонит следующий прогон.
		return s.walletError(result, wallet, fmt.Errorf("settle payout: %w", err))
	}

	s.logger.WithFields(log.Fields{
		"wallet_id":    wallet.ID,
		"artisan_id":   wallet.ArtisanID,
		"amount_minor": amount,
		"reference":    reference,
		"next_payout":  nextPayout.Format(time.RFC3339),
	}).Info("payout settled")
	payoutAmountMinorTotal.Add(float64(amount))

	s.publishPayoutEvent(kafka.EventTypePayoutCompleted, wallet, amount, reference)

	result.Status = StatusPaid
	result.AmountMinor = amount
	result.Reference = reference
	return result
}

func (s *Scheduler) walletError(result WalletResult, wallet domain.Wallet, err error) WalletResult {
	s.logger.WithError(err).WithField("wallet_id", wallet.ID).Error("payout failed for wallet")
	s.publishPayoutEvent(kafka.EventTypePayoutFailed, wallet, wallet.BalanceMinor, "")
	result.Status = StatusError
	result.Error = err.Error()
	return result
}

func (s *Scheduler) publishPayoutEvent(eventType kafka.EventType, wallet domain.Wallet, amountMinor int64, reference string) {
	if s.producer == nil {
		return
	}
	event := kafka.NewPayoutEvent(eventType, wallet.ID, wallet.ArtisanID, amountMinor, reference)
	if err := s.producer.PublishPayoutEvent(event); err != nil {
		s.logger.WithError(err).WithField("wallet_id", wallet.ID).Warn("failed to publish payout event")
	}
}

// newPayoutReference генерирует уникальную ссылку вида PAYOUT-20240105-1a2b3c4d.
func newPayoutReference(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("PAYOUT-%s-%s", now.Format("20060102"), suffix)
}
