package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3/simple/price"

// Fetcher asks an upstream source for the current rate.
type Fetcher interface {
	Fetch(ctx context.Context) (decimal.Decimal, error)
	Source() string
}

// CoinGecko reads the simple/price endpoint for one coin in one fiat currency.
type CoinGecko struct {
	endpoint string
	coin     string
	currency string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
}

func NewCoinGecko(endpoint, coin, currency string, client *http.Client, logger *zap.Logger) *CoinGecko {
	if endpoint == "" {
		endpoint = DefaultCoinGeckoURL
	}
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CoinGecko{
		endpoint: endpoint,
		coin:     coin,
		currency: currency,
		client:   client,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "coingecko",
			Timeout: time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
}

func (c *CoinGecko) Source() string {
	return "coingecko"
}

func (c *CoinGecko) Fetch(ctx context.Context) (decimal.Decimal, error) {
	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return out.(decimal.Decimal), nil
}

func (c *CoinGecko) fetch(ctx context.Context) (decimal.Decimal, error) {
	q := url.Values{}
	q.Set("ids", c.coin)
	q.Set("vs_currencies", c.currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("coingecko: status %d", resp.StatusCode)
	}

	var body map[string]map[string]decimal.Decimal
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("coingecko: decode: %w", err)
	}

	rate, ok := body[c.coin][c.currency]
	if !ok {
		return decimal.Zero, fmt.Errorf("coingecko: no %s/%s rate in response", c.coin, c.currency)
	}
	if rate.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("coingecko: non-positive rate %s", rate)
	}
	return rate, nil
}
