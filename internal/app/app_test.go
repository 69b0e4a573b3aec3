package app

import (
	"context"
	"errors"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func TestRun_RequiresWebhookSecret(t *testing.T) {
	cfg := DefaultConfig()

	err := Run(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error without webhook secret")
	}
}

func TestRun_StartsAndStopsGracefully(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"
	cfg.WebhookSecret = "whsec_test"
	cfg.PayoutInterval = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, cfg)
	}()

	// Даём серверам подняться и планировщику сделать пустой прогон.
	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
}

func TestInitKafkaProducer_EmptyBrokers(t *testing.T) {
	logger := log.WithField("component", "test")

	if producer := initKafkaProducer(nil, logger); producer != nil {
		t.Error("expected nil producer for empty brokers")
	}

	// closeKafka переносит nil без паники.
	closeKafka(nil, logger)
}
