// Package paymentprovider — клиент шлюза push-платежей мобильными деньгами.
// Вызовы идут через circuit breaker: при серии отказов шлюза запросы
// отклоняются сразу, не дожидаясь таймаута.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/magabrotheeeer/bookstore/internal/config"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

const pushPath = "/payments/push"

// Client отправляет запросы push-платежей в шлюз.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        *slog.Logger
}

// NewClient создаёт клиент шлюза по настройкам конфига.
func NewClient(cfg config.PaymentGateway, log *slog.Logger) *Client {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	st := gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: cfg.BreakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    gobreaker.NewCircuitBreaker(st),
		log:        log,
	}
}

// Push запрашивает у шлюза push-платёж. bearer — токен сессии покупателя.
// Любой отказ шлюза (сеть, статус, тело, открытый breaker) оборачивает ErrUpstream.
func (c *Client) Push(ctx context.Context, bearer string, req PushRequest) (*PushResponse, error) {
	const op = "paymentprovider.Push"

	res, err := c.breaker.Execute(func() (any, error) {
		return c.push(ctx, bearer, req)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrUpstream, err)
	}
	return res.(*PushResponse), nil
}

func (c *Client) push(ctx context.Context, bearer string, req PushRequest) (*PushResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pushPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out PushResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Reference == "" {
		return nil, errors.New("gateway returned empty reference")
	}
	return &out, nil
}
