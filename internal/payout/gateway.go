package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	interfaces "github.com/sheikh-saqib/org-finance-ledger/internal/interfaces"
)

type payoutRequest struct {
	Reference string `json:"reference"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// Gateway settles payouts through an external payout service. Repeated failures
// open the breaker, after which payouts fail fast until it half-opens again.
type Gateway struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewGateway(url string, client *http.Client, logger *zap.Logger) *Gateway {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Gateway{url: url, client: client, logger: logger}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "payout-gateway",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return g
}

// Transfer posts the payout. The record reference doubles as the idempotency key,
// so a gateway that already settled it can answer without paying twice.
func (g *Gateway) Transfer(ctx context.Context, p interfaces.Payout) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, g.post(ctx, p)
	})
	return err
}

func (g *Gateway) post(ctx context.Context, p interfaces.Payout) error {
	body, err := json.Marshal(payoutRequest{
		Reference: p.Reference.String(),
		Recipient: p.Recipient.String(),
		Amount:    p.Amount.String(),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", p.Reference.String())

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("payout gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("payout gateway: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

var _ interfaces.Transferer = (*Gateway)(nil)
