package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sheikh-saqib/org-finance-ledger/internal/ledger"
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// writeLedgerError maps the ledger's error taxonomy onto HTTP statuses.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "UNAUTHORIZED", err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "INVALID_AMOUNT", err.Error())
	case errors.Is(err, ledger.ErrInvalidRecipient):
		writeError(w, http.StatusBadRequest, "INVALID_RECIPIENT", err.Error())
	case errors.Is(err, ledger.ErrInvalidOperation):
		writeError(w, http.StatusBadRequest, "INVALID_OPERATION", err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "INSUFFICIENT_FUNDS", err.Error())
	case errors.Is(err, ledger.ErrIndexOutOfRange):
		writeError(w, http.StatusNotFound, "INDEX_OUT_OF_RANGE", err.Error())
	case errors.Is(err, ledger.ErrTransferFailure):
		writeError(w, http.StatusBadGateway, "TRANSFER_FAILURE", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
