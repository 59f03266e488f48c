package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"bank-core/internal/domain"
	"bank-core/internal/service"
)

type Handlers struct {
	svc *service.Service
}

func NewHandlers(svc *service.Service) *Handlers { return &Handlers{svc: svc} }

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func httpStatusForErr(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	// Structural validation
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidTransfer):
		return http.StatusBadRequest

	// Store-level semantic errors
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoTransactions):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity

	// Context / timeouts
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout

	default:
		return http.StatusInternalServerError
	}
}

func publicErrMessage(code int, err error) string {
	// Don't leak internals on 5xx.
	if code >= 500 {
		return "internal error"
	}
	return err.Error()
}

func fail(w http.ResponseWriter, err error) {
	code := httpStatusForErr(err)
	writeErr(w, code, publicErrMessage(code, err))
}

func accountNoVar(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["accountNo"])
}

// POST /v1/accounts
func (h *Handlers) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	acct, err := h.svc.CreateAccount(ctx, req.CustomerName)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, acct)
}

// GET /v1/accounts/{accountNo}/balance
func (h *Handlers) ShowBalance(w http.ResponseWriter, r *http.Request) {
	accountNo, err := accountNoVar(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid account number")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	balance, err := h.svc.ShowBalance(ctx, accountNo)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{AccountNo: accountNo, Balance: balance})
}

// POST /v1/accounts/{accountNo}/deposits
func (h *Handlers) Deposit(w http.ResponseWriter, r *http.Request) {
	h.postAmount(w, r, h.svc.Deposit)
}

// POST /v1/accounts/{accountNo}/withdrawals
func (h *Handlers) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.postAmount(w, r, h.svc.Withdraw)
}

func (h *Handlers) postAmount(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, uuid.UUID, decimal.Decimal) (domain.Transaction, error),
) {
	accountNo, err := accountNoVar(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid account number")
		return
	}

	var req amountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	txn, err := op(ctx, accountNo, req.Amount)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

// POST /v1/transfers
func (h *Handlers) FundTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	txn, err := h.svc.FundTransfer(ctx, req.FromAccountNo, req.ToAccountNo, req.Amount)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, txn)
}

// GET /v1/accounts/{accountNo}/transactions
func (h *Handlers) GetRecentTransactions(w http.ResponseWriter, r *http.Request) {
	accountNo, err := accountNoVar(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid account number")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	txs, err := h.svc.GetRecentTransactions(ctx, accountNo)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}
