package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/bazaarmkt/settlement/internal/domain"
	"github.com/bazaarmkt/settlement/internal/service/payout"
	"github.com/bazaarmkt/settlement/internal/service/webhook"
)

const defaultLedgerLimit = 50

// Server — HTTP-фасад сервиса: приём webhook'ов провайдера, ручной запуск
// выплат и чтение леджера кошелька.
type Server struct {
	echo         *echo.Echo
	processor    *webhook.Processor
	scheduler    *payout.Scheduler
	transactions domain.WalletTransactionRepository
	triggerToken string
	logger       *log.Entry
}

// NewServer создаёт сервер и регистрирует маршруты. triggerToken защищает
// ручной запуск выплат; пустой token отключает проверку (dev-режим).
func NewServer(
	processor *webhook.Processor,
	scheduler *payout.Scheduler,
	transactions domain.WalletTransactionRepository,
	triggerToken string,
	logger *log.Entry,
) *Server {
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:         e,
		processor:    processor,
		scheduler:    scheduler,
		transactions: transactions,
		triggerToken: triggerToken,
		logger:       logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.echo.POST("/webhooks/payments", s.handlePaymentWebhook)
	s.echo.GET("/jobs/payouts", s.handlePayoutTrigger)
	s.echo.GET("/wallets/:artisanId/transactions", s.handleListTransactions)
}

// Handler отдаёт http.Handler для тестов и встраивания.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start блокируется, обслуживая address до Shutdown.
func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

// Shutdown корректно останавливает сервер, дожидаясь активных запросов.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// handlePaymentWebhook принимает доставку платёжного провайдера.
// Тело читается сырыми байтами: подпись считается по точному wire-payload.
func (s *Server) handlePaymentWebhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	receipt, err := s.processor.Process(
		c.Request().Context(),
		payload,
		c.Request().Header.Get("Stripe-Signature"),
	)
	if err != nil {
		if errors.Is(err, webhook.ErrVerification) {
			return echo.NewHTTPError(http.StatusBadRequest, "signature verification failed")
		}
		// Серверная ошибка: провайдер сделает retry доставки.
		s.logger.WithError(err).Error("webhook processing failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "webhook processing failed")
	}

	return c.JSON(http.StatusOK, receipt)
}

type payoutRunResponse struct {
	Success bool `json:"success"`
	payout.Summary
}

// handlePayoutTrigger запускает прогон выплат вне расписания (cron-вызов).
func (s *Server) handlePayoutTrigger(c echo.Context) error {
	if !s.authorizeTrigger(c.Request().Header.Get("Authorization")) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid trigger token")
	}

	summary, err := s.scheduler.ProcessOnce(c.Request().Context(), "manual")
	if err != nil {
		if errors.Is(err, payout.ErrRunInProgress) {
			return echo.NewHTTPError(http.StatusConflict, "payout run already in progress")
		}
		s.logger.WithError(err).Error("manual payout run failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "payout run failed")
	}

	return c.JSON(http.StatusOK, payoutRunResponse{Success: true, Summary: summary})
}

func (s *Server) authorizeTrigger(header string) bool {
	if s.triggerToken == "" {
		return true
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.triggerToken)) == 1
}

type transactionView struct {
	ID                string            `json:"id"`
	WalletID          string            `json:"wallet_id"`
	Type              string            `json:"type"`
	AmountMinor       int64             `json:"amount_minor"`
	Description       string            `json:"description,omitempty"`
	Status            string            `json:"status"`
	Reference         string            `json:"reference"`
	BalanceAfterMinor int64             `json:"balance_after_minor"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	CreatedAt         string            `json:"created_at"`
}

// handleListTransactions отдаёт записи леджера артизана, новые первыми.
func (s *Server) handleListTransactions(c echo.Context) error {
	artisanID := c.Param("artisanId")
	if artisanID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "artisanId is required")
	}

	limit := defaultLedgerLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	entries, err := s.transactions.ListByArtisan(artisanID, limit)
	if err != nil {
		s.logger.WithError(err).WithField("artisan_id", artisanID).Error("failed to list wallet transactions")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list transactions")
	}

	views := make([]transactionView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, transactionView{
			ID:                entry.ID,
			WalletID:          entry.WalletID,
			Type:              string(entry.Type),
			AmountMinor:       entry.AmountMinor,
			Description:       entry.Description,
			Status:            string(entry.Status),
			Reference:         entry.Reference,
			BalanceAfterMinor: entry.BalanceAfterMinor,
			Metadata:          entry.Metadata,
			CreatedAt:         entry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"artisan_id":   artisanID,
		"transactions": views,
	})
}
