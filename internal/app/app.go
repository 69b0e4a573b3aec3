package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/bazaarmkt/settlement/internal/health"
	"github.com/bazaarmkt/settlement/internal/service/inventory"
	"github.com/bazaarmkt/settlement/internal/service/payout"
	"github.com/bazaarmkt/settlement/internal/service/webhook"
	"github.com/bazaarmkt/settlement/internal/settingscache"
	"github.com/bazaarmkt/settlement/internal/transport/httpapi"
	"github.com/bazaarmkt/settlement/internal/version"
)

const shutdownTimeout = 5 * time.Second

// Run собирает зависимости и запускает сервис: API-сервер, служебный сервер
// метрик и фоновый планировщик выплат. Блокируется до отмены ctx или
// фатальной ошибки сервера.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := deps.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	kafkaProducer := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	verifier, err := webhook.NewStripeVerifier(cfg.WebhookSecret)
	if err != nil {
		return err
	}

	reconciler := inventory.NewReconciler(deps.Products, logger.WithField("component", "inventory-reconciler"))
	processor := webhook.NewProcessorWithKafka(
		verifier, deps.Orders, deps.Users, reconciler, kafkaProducer,
		logger.WithField("component", "webhook-processor"),
	)

	settings := settingscache.New(deps.Settings, cfg.SettingsCacheTTL)
	scheduler := payout.NewScheduler(deps.Wallets, deps.Transactions, settings,
		payout.WithLogger(logger.WithField("component", "payout-scheduler")),
		payout.WithProducer(kafkaProducer),
		payout.WithInterval(cfg.PayoutInterval),
	)
	go scheduler.Run(ctx)

	healthHandler := healthcheck.NewHandler(version.String())
	if deps.Store != nil {
		store := deps.Store
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(pingCtx)
		}))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiServer := httpapi.NewServer(
		processor, scheduler, deps.Transactions, cfg.PayoutTriggerToken,
		logger.WithField("component", "http-api"),
	)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("API сервер слушает %s", cfg.HTTPAddr)
		errCh <- apiServer.Start(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем API сервер")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("api shutdown with error")
		}
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает служебный HTTP-сервер с метриками и health-проверками.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
