package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
	"github.com/sheikh-saqib/org-finance-ledger/internal/models/events"
	"github.com/sheikh-saqib/org-finance-ledger/internal/rates"
)

// Authenticator turns a bearer token into the address the request acts as. The
// address is checked against the admin set on every call.
type Authenticator interface {
	Caller(token string) (models.Address, error)
}

// Ledger is what the HTTP layer needs from *ledger.Ledger.
type Ledger interface {
	Owner() models.Address
	IsAdmin(id models.Address) bool
	Admins() []models.Address
	AddAdmin(ctx context.Context, caller, id models.Address) (events.AdminAdded, error)
	RemoveAdmin(ctx context.Context, caller, id models.Address) (events.AdminRemoved, error)
	RecordIncome(ctx context.Context, caller models.Address, category, description string, amount decimal.Decimal) (models.TransactionRecord, error)
	RecordExpense(ctx context.Context, caller, recipient models.Address, amount decimal.Decimal, category, description string) (models.TransactionRecord, error)
	Balance() decimal.Decimal
	TransactionCount() int
	Transaction(index int) (models.TransactionRecord, error)
}

type Quoter interface {
	Quote(ctx context.Context) (rates.Quote, error)
	Source() string
	TTL() time.Duration
}

type Server struct {
	ledger Ledger
	authn  Authenticator
	quoter Quoter
	logger *zap.Logger
	tracer trace.Tracer
}

type Option func(*Server)

func WithQuoter(q Quoter) Option {
	return func(s *Server) { s.quoter = q }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) { s.tracer = tp.Tracer("github.com/sheikh-saqib/org-finance-ledger/internal/api") }
}

func NewServer(l Ledger, authn Authenticator, opts ...Option) *Server {
	s := &Server{
		ledger: l,
		authn:  authn,
		logger: zap.NewNop(),
		tracer: otel.GetTracerProvider().Tracer("github.com/sheikh-saqib/org-finance-ledger/internal/api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.tracing, s.logging)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/balance", s.balance).Methods(http.MethodGet)

	r.HandleFunc("/transactions/count", s.transactionCount).Methods(http.MethodGet)
	r.HandleFunc("/transactions/income", s.recordIncome).Methods(http.MethodPost)
	r.HandleFunc("/transactions/expense", s.recordExpense).Methods(http.MethodPost)
	r.HandleFunc("/transactions/{index:[0-9]+}", s.transaction).Methods(http.MethodGet)

	r.HandleFunc("/admins", s.listAdmins).Methods(http.MethodGet)
	r.HandleFunc("/admins/{address}", s.isAdmin).Methods(http.MethodGet)
	r.HandleFunc("/admins/{address}", s.addAdmin).Methods(http.MethodPut)
	r.HandleFunc("/admins/{address}", s.removeAdmin).Methods(http.MethodDelete)

	if s.quoter != nil {
		r.HandleFunc("/price", s.price).Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such route")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed")
	})

	return r
}
