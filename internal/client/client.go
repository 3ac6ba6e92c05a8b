package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sheikh-saqib/org-finance-ledger/internal/api"
	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
)

// APIError is a non-2xx answer from the ledger service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ledger api: %d %s: %s", e.Status, e.Code, e.Message)
}

// Client talks to the ledger HTTP API acting as the identity its bearer token
// was issued to.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

func (c *Client) RecordIncome(ctx context.Context, category, description string, amount decimal.Decimal) (models.TransactionRecord, error) {
	var rec models.TransactionRecord
	err := c.do(ctx, http.MethodPost, "/transactions/income", api.IncomeRequest{
		Category:    category,
		Description: description,
		Amount:      amount,
	}, &rec)
	return rec, err
}

func (c *Client) RecordExpense(ctx context.Context, recipient models.Address, amount decimal.Decimal, category, description string) (models.TransactionRecord, error) {
	var rec models.TransactionRecord
	err := c.do(ctx, http.MethodPost, "/transactions/expense", api.ExpenseRequest{
		Recipient:   recipient.String(),
		Amount:      amount,
		Category:    category,
		Description: description,
	}, &rec)
	return rec, err
}

func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	var resp api.BalanceResponse
	err := c.do(ctx, http.MethodGet, "/balance", nil, &resp)
	return resp.Balance, err
}

func (c *Client) TransactionCount(ctx context.Context) (int, error) {
	var resp api.CountResponse
	err := c.do(ctx, http.MethodGet, "/transactions/count", nil, &resp)
	return resp.Count, err
}

func (c *Client) Transaction(ctx context.Context, index int) (models.TransactionRecord, error) {
	var rec models.TransactionRecord
	err := c.do(ctx, http.MethodGet, "/transactions/"+strconv.Itoa(index), nil, &rec)
	return rec, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{Status: resp.StatusCode, Code: e.Code, Message: e.Message}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
