package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sheikh-saqib/org-finance-ledger/internal/auth"
	"github.com/sheikh-saqib/org-finance-ledger/internal/models"
	"github.com/sheikh-saqib/org-finance-ledger/internal/rates"
)

type IncomeRequest struct {
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type ExpenseRequest struct {
	Recipient   string          `json:"recipient"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

type CountResponse struct {
	Count int `json:"count"`
}

type AdminStatusResponse struct {
	Address string `json:"address"`
	IsAdmin bool   `json:"is_admin"`
}

type AdminsResponse struct {
	Owner  string   `json:"owner"`
	Admins []string `json:"admins"`
}

type PriceResponse struct {
	Rate       *decimal.Decimal `json:"rate"`
	Source     string           `json:"source"`
	UpdatedAt  time.Time        `json:"updated_at"`
	TTLSeconds int              `json:"ttl_seconds"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BalanceResponse{Balance: s.ledger.Balance()})
}

func (s *Server) transactionCount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CountResponse{Count: s.ledger.TransactionCount()})
}

func (s *Server) transaction(w http.ResponseWriter, r *http.Request) {
	// The route only matches digits, so a parse failure means the index overflows
	// int and is past the end of any log.
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusNotFound, "INDEX_OUT_OF_RANGE", "no transaction at index "+mux.Vars(r)["index"])
		return
	}

	rec, err := s.ledger.Transaction(index)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) recordIncome(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerFrom(w, r)
	if !ok {
		return
	}

	var req IncomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	rec, err := s.ledger.RecordIncome(r.Context(), caller, req.Category, req.Description, req.Amount)
	if err != nil {
		s.logFailure(caller, "record income", err)
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) recordExpense(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerFrom(w, r)
	if !ok {
		return
	}

	var req ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	// A malformed recipient is the ledger's InvalidRecipient, not a body error.
	recipient, err := models.ParseAddress(req.Recipient)
	if err != nil {
		recipient = models.Address(req.Recipient)
	}

	rec, err := s.ledger.RecordExpense(r.Context(), caller, recipient, req.Amount, req.Category, req.Description)
	if err != nil {
		s.logFailure(caller, "record expense", err)
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) listAdmins(w http.ResponseWriter, r *http.Request) {
	admins := s.ledger.Admins()
	resp := AdminsResponse{Owner: s.ledger.Owner().String(), Admins: make([]string, 0, len(admins))}
	for _, a := range admins {
		resp.Admins = append(resp.Admins, a.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) isAdmin(w http.ResponseWriter, r *http.Request) {
	addr, err := models.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ADDRESS", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, AdminStatusResponse{Address: addr.String(), IsAdmin: s.ledger.IsAdmin(addr)})
}

func (s *Server) addAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerFrom(w, r)
	if !ok {
		return
	}
	addr, err := models.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ADDRESS", err.Error())
		return
	}

	ev, err := s.ledger.AddAdmin(r.Context(), caller, addr)
	if err != nil {
		s.logFailure(caller, "add admin", err)
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) removeAdmin(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.callerFrom(w, r)
	if !ok {
		return
	}
	addr, err := models.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ADDRESS", err.Error())
		return
	}

	ev, err := s.ledger.RemoveAdmin(r.Context(), caller, addr)
	if err != nil {
		s.logFailure(caller, "remove admin", err)
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) price(w http.ResponseWriter, r *http.Request) {
	ttl := int(s.quoter.TTL() / time.Second)

	q, err := s.quoter.Quote(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, rates.ErrNoRate) {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, PriceResponse{Source: s.quoter.Source(), UpdatedAt: time.Now().UTC(), TTLSeconds: ttl})
		return
	}

	writeJSON(w, http.StatusOK, PriceResponse{
		Rate:       &q.Rate,
		Source:     q.Source,
		UpdatedAt:  q.UpdatedAt,
		TTLSeconds: ttl,
	})
}

// callerFrom resolves the caller from the request's bearer token, answering the
// request itself when the token is missing or does not verify.
func (s *Server) callerFrom(w http.ResponseWriter, r *http.Request) (models.Address, bool) {
	token, err := auth.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "MISSING_TOKEN", "bearer token required")
		return "", false
	}
	caller, err := s.authn.Caller(token)
	if err != nil {
		s.logger.Warn("rejected credentials", zap.String("route", routeName(r)), zap.Error(err))
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "invalid or expired token")
		return "", false
	}
	return caller, true
}

func (s *Server) logFailure(caller models.Address, op string, err error) {
	s.logger.Warn(op+" failed",
		zap.String("caller", caller.String()),
		zap.Error(err),
	)
}
