package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

func Router(h *Handlers, maxInflight int) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/accounts", h.CreateAccount).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{accountNo}/balance", h.ShowBalance).Methods(http.MethodGet)
	v1.HandleFunc("/accounts/{accountNo}/deposits", h.Deposit).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{accountNo}/withdrawals", h.Withdraw).Methods(http.MethodPost)
	v1.HandleFunc("/accounts/{accountNo}/transactions", h.GetRecentTransactions).Methods(http.MethodGet)
	v1.HandleFunc("/transfers", h.FundTransfer).Methods(http.MethodPost)

	// Backpressure at the edge.
	// Prevents unbounded goroutine/pool queueing when the store is saturated.
	return withConcurrencyLimit(r, maxInflight)
}

func withConcurrencyLimit(next http.Handler, max int) http.Handler {
	if max <= 0 {
		max = 64
	}
	sem := make(chan struct{}, max)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
			next.ServeHTTP(w, r)
		default:
			// Fast fail instead of queueing forever.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"server busy"}`))
		}
	})
}
