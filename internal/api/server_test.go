package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sheikh-saqib/org-finance-ledger/internal/auth"
	interfaces "github.com/sheikh-saqib/org-finance-ledger/internal/interfaces"
	"github.com/sheikh-saqib/org-finance-ledger/internal/ledger"
	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
	"github.com/sheikh-saqib/org-finance-ledger/internal/payout"
	"github.com/sheikh-saqib/org-finance-ledger/internal/rates"
	"github.com/sheikh-saqib/org-finance-ledger/internal/storage/memory"
)

const (
	ownerHex     = "0x00000000000000000000000000000000000000a1"
	adminHex     = "0x00000000000000000000000000000000000000b2"
	outsiderHex  = "0x00000000000000000000000000000000000000c3"
	recipientHex = "0x00000000000000000000000000000000000000d4"
)

var testAuthority = mustAuthority("0123456789abcdef0123456789abcdef")

func mustAuthority(secret string) *auth.Authority {
	a, err := auth.New([]byte(secret), time.Hour)
	if err != nil {
		panic(err)
	}
	return a
}

func bearer(t *testing.T, a *auth.Authority, caller string) string {
	t.Helper()
	token, _, err := a.Issue(models.MustParseAddress(caller))
	require.NoError(t, err)
	return "Bearer " + token
}

type stubQuoter struct {
	quote rates.Quote
	err   error
}

func (q stubQuoter) Quote(context.Context) (rates.Quote, error) { return q.quote, q.err }
func (q stubQuoter) Source() string                             { return "coingecko" }
func (q stubQuoter) TTL() time.Duration                         { return rates.DefaultTTL }

func newTestServer(t *testing.T, opts ...ledger.Option) (*httptest.Server, *ledger.Ledger) {
	t.Helper()

	base := []ledger.Option{ledger.WithTransferer(payout.NewBook(nil))}
	l, err := ledger.Open(context.Background(), models.MustParseAddress(ownerHex), memory.NewMemoryLedgerStore(), append(base, opts...)...)
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(l, testAuthority).Handler())
	t.Cleanup(srv.Close)
	return srv, l
}

func do(t *testing.T, srv *httptest.Server, method, path, caller string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if caller != "" {
		req.Header.Set("Authorization", bearer(t, testAuthority, caller))
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func TestLedgerScenarioOverHTTP(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, srv, http.MethodPost, "/transactions/income", ownerHex,
		map[string]any{"category": "Donation", "description": "gift", "amount": 1_000_000})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	income := decode[models.TransactionRecord](t, body)
	assert.Equal(t, models.Income, income.Kind)
	assert.Equal(t, 0, income.Index)

	resp, body = do(t, srv, http.MethodPost, "/transactions/expense", ownerHex,
		map[string]any{"recipient": recipientHex, "amount": "400000", "category": "Event", "description": "food"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	_, body = do(t, srv, http.MethodGet, "/balance", "", nil)
	assert.True(t, decimal.NewFromInt(600_000).Equal(decode[BalanceResponse](t, body).Balance))

	_, body = do(t, srv, http.MethodGet, "/transactions/count", "", nil)
	assert.Equal(t, 2, decode[CountResponse](t, body).Count)

	resp, body = do(t, srv, http.MethodGet, "/transactions/1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[models.TransactionRecord](t, body)
	assert.Equal(t, models.Expense, rec.Kind)
	assert.Equal(t, models.Address(recipientHex), rec.Counterparty)
	assert.True(t, decimal.NewFromInt(400_000).Equal(rec.Amount))

	resp, body = do(t, srv, http.MethodPost, "/transactions/expense", ownerHex,
		map[string]any{"recipient": recipientHex, "amount": "1000000"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_FUNDS", decode[ErrorResponse](t, body).Code)

	resp, body = do(t, srv, http.MethodGet, "/transactions/999", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "INDEX_OUT_OF_RANGE", decode[ErrorResponse](t, body).Code)
}

func TestErrorMapping(t *testing.T) {
	srv, l := newTestServer(t)
	_, err := l.RecordIncome(context.Background(), l.Owner(), "", "", decimal.NewFromInt(10))
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		caller string
		body   any
		status int
		code   string
	}{
		{"non-admin income", http.MethodPost, "/transactions/income", outsiderHex, map[string]any{"amount": 5}, http.StatusForbidden, "UNAUTHORIZED"},
		{"zero income", http.MethodPost, "/transactions/income", ownerHex, map[string]any{"amount": 0}, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"negative expense", http.MethodPost, "/transactions/expense", ownerHex, map[string]any{"recipient": recipientHex, "amount": -3}, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"bad recipient", http.MethodPost, "/transactions/expense", ownerHex, map[string]any{"recipient": "bob", "amount": 1}, http.StatusBadRequest, "INVALID_RECIPIENT"},
		{"zero recipient", http.MethodPost, "/transactions/expense", ownerHex, map[string]any{"recipient": string(models.ZeroAddress), "amount": 1}, http.StatusBadRequest, "INVALID_RECIPIENT"},
		{"missing token", http.MethodPost, "/transactions/income", "", map[string]any{"amount": 1}, http.StatusUnauthorized, "MISSING_TOKEN"},
		{"huge exponent", http.MethodPost, "/transactions/income", ownerHex, map[string]any{"amount": "1e2000000"}, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"above uint256", http.MethodPost, "/transactions/income", ownerHex, map[string]any{"amount": "1e100"}, http.StatusBadRequest, "INVALID_AMOUNT"},
		{"index past int", http.MethodGet, "/transactions/99999999999999999999999", "", nil, http.StatusNotFound, "INDEX_OUT_OF_RANGE"},
		{"remove owner", http.MethodDelete, "/admins/" + ownerHex, ownerHex, nil, http.StatusBadRequest, "INVALID_OPERATION"},
		{"admin by non-owner", http.MethodPut, "/admins/" + adminHex, outsiderHex, nil, http.StatusForbidden, "UNAUTHORIZED"},
		{"bad admin address", http.MethodPut, "/admins/nobody", ownerHex, nil, http.StatusBadRequest, "INVALID_ADDRESS"},
		{"unknown route", http.MethodGet, "/ledger", "", nil, http.StatusNotFound, "NOT_FOUND"},
		{"wrong method", http.MethodPatch, "/balance", "", nil, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, srv, tt.method, tt.path, tt.caller, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
			assert.Equal(t, tt.code, decode[ErrorResponse](t, body).Code)
		})
	}

	assert.True(t, decimal.NewFromInt(10).Equal(l.Balance()))
	assert.Equal(t, 1, l.TransactionCount())
}

func TestInvalidBody(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/transactions/income", bytes.NewBufferString("{"))
	require.NoError(t, err)
	req.Header.Set("Authorization", bearer(t, testAuthority, ownerHex))
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCallerHeaderAloneGrantsNothing(t *testing.T) {
	srv, l := newTestServer(t)
	forger := mustAuthority("ffffffffffffffffffffffffffffffff")

	send := func(authorization string) (*http.Response, ErrorResponse) {
		req, err := http.NewRequest(http.MethodPut, srv.URL+"/admins/"+outsiderHex, nil)
		require.NoError(t, err)
		req.Header.Set("X-Caller-Address", ownerHex)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		var body ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return resp, body
	}

	resp, body := send("")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "MISSING_TOKEN", body.Code)

	resp, body = send("Bearer " + ownerHex)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", body.Code)

	resp, body = send(bearer(t, forger, ownerHex))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", body.Code)

	// A valid token for someone else wins over the header.
	resp, body = send(bearer(t, testAuthority, outsiderHex))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body.Code)

	assert.False(t, l.IsAdmin(models.MustParseAddress(outsiderHex)))
	assert.Empty(t, l.Admins())
}

func TestTransferFailureIsBadGateway(t *testing.T) {
	srv, l := newTestServer(t, ledger.WithTransferer(interfaces.TransferFunc(func(context.Context, interfaces.Payout) error {
		return errors.New("gateway offline")
	})))
	_, err := l.RecordIncome(context.Background(), l.Owner(), "", "", decimal.NewFromInt(10))
	require.NoError(t, err)

	resp, body := do(t, srv, http.MethodPost, "/transactions/expense", ownerHex,
		map[string]any{"recipient": recipientHex, "amount": 5})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "TRANSFER_FAILURE", decode[ErrorResponse](t, body).Code)
	assert.Equal(t, 1, l.TransactionCount())
}

func TestAdminEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	_, body := do(t, srv, http.MethodGet, "/admins/"+adminHex, "", nil)
	assert.False(t, decode[AdminStatusResponse](t, body).IsAdmin)

	for i := 0; i < 2; i++ {
		resp, body := do(t, srv, http.MethodPut, "/admins/"+adminHex, ownerHex, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	}

	_, body = do(t, srv, http.MethodGet, "/admins/"+adminHex, "", nil)
	assert.True(t, decode[AdminStatusResponse](t, body).IsAdmin)

	_, body = do(t, srv, http.MethodGet, "/admins", "", nil)
	list := decode[AdminsResponse](t, body)
	assert.Equal(t, ownerHex, list.Owner)
	assert.Equal(t, []string{adminHex}, list.Admins)

	resp, body := do(t, srv, http.MethodPost, "/transactions/income", adminHex, map[string]any{"amount": 3})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Equal(t, models.Address(adminHex), decode[models.TransactionRecord](t, body).RecordedBy)

	resp, _ = do(t, srv, http.MethodDelete, "/admins/"+adminHex, ownerHex, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPost, "/transactions/income", adminHex, map[string]any{"amount": 3})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPriceEndpoint(t *testing.T) {
	l, err := ledger.Open(context.Background(), models.MustParseAddress(ownerHex), memory.NewMemoryLedgerStore())
	require.NoError(t, err)

	updated := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	ok := httptest.NewServer(NewServer(l, testAuthority, WithQuoter(stubQuoter{quote: rates.Quote{
		Rate: decimal.RequireFromString("182000.5"), Source: "coingecko", UpdatedAt: updated,
	}})).Handler())
	defer ok.Close()

	resp, body := do(t, ok, http.MethodGet, "/price", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	price := decode[PriceResponse](t, body)
	require.NotNil(t, price.Rate)
	assert.True(t, decimal.RequireFromString("182000.5").Equal(*price.Rate))
	assert.Equal(t, 300, price.TTLSeconds)
	assert.True(t, updated.Equal(price.UpdatedAt))

	down := httptest.NewServer(NewServer(l, testAuthority, WithQuoter(stubQuoter{err: rates.ErrNoRate})).Handler())
	defer down.Close()

	resp, body = do(t, down, http.MethodGet, "/price", "", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	failed := decode[PriceResponse](t, body)
	assert.Nil(t, failed.Rate)
	assert.Equal(t, "coingecko", failed.Source)
}

func TestRequestsAreLogged(t *testing.T) {
	l, err := ledger.Open(context.Background(), models.MustParseAddress(ownerHex), memory.NewMemoryLedgerStore())
	require.NoError(t, err)
	core, logs := observer.New(zapcore.InfoLevel)

	srv := httptest.NewServer(NewServer(l, testAuthority, WithLogger(zap.New(core))).Handler())
	defer srv.Close()

	do(t, srv, http.MethodGet, "/transactions/7", "", nil)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/transactions/{index:[0-9]+}", fields["route"])
	assert.Equal(t, int64(http.StatusNotFound), fields["status"])
}
