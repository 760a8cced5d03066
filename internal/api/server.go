// Package api exposes the agent's HTTP surface: application submission and
// status lookup, a dashboard summary, Prometheus metrics, and a websocket
// feed of live decisions. It also ships a small client for the same API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"loan-agent/internal/loan"
	"loan-agent/internal/metrics"
	"loan-agent/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Decimal accepts a JSON number, a quoted decimal string, or null. Absent or
// malformed values coerce to 0 rather than failing the request, matching the
// engine's treatment of missing numerics.
type Decimal float64

func (d *Decimal) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*d = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*d = 0
		return nil
	}
	*d = Decimal(f)
	return nil
}

// SubmitRequest is the payload for POST /applications.
type SubmitRequest struct {
	RequestedAmount     Decimal `json:"requested_amount"`
	AnnualIncome        Decimal `json:"annual_income"`
	CreditScore         Decimal `json:"credit_score"`
	ExistingDebt        Decimal `json:"existing_debt"`
	DebtToIncomeRatio   Decimal `json:"debt_to_income_ratio"`
	CollateralValue     Decimal `json:"collateral_value"`
	AccountAgeDays      Decimal `json:"account_age_days"`
	AvgTransactionCount Decimal `json:"avg_transaction_count"`
	ProcessingPriority  Decimal `json:"processing_priority"`
	LoyaltyPoints       Decimal `json:"loyalty_points"`
}

// SubmitResponse acknowledges a stored application.
type SubmitResponse struct {
	ID     string      `json:"id"`
	Status loan.Status `json:"status"`
}

// ApplicationResponse is an application joined with its latest decision.
type ApplicationResponse struct {
	Application loan.Application `json:"application"`
	Decision    *loan.Decision   `json:"decision,omitempty"`
}

// Server serves the agent HTTP API.
type Server struct {
	store  *storage.Store
	mw     *metrics.Wrapper
	hub    *Hub
	server *http.Server
}

// NewServer wires the API routes. hub may be nil to disable the live feed.
func NewServer(store *storage.Store, mw *metrics.Wrapper, hub *Hub, port int) *Server {
	s := &Server{store: store, mw: mw, hub: hub}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/applications", s.handleSubmit)
	mux.HandleFunc("/applications/", s.handleApplication)
	mux.HandleFunc("/summary", s.handleSummary)
	if hub != nil {
		mux.HandleFunc("/ws", hub.ServeWS)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("starting api server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request: %v", err), http.StatusBadRequest)
		return
	}

	app := req.toApplication()
	id, err := s.store.SubmitApplication(app)
	if err != nil {
		log.Error().Err(err).Msg("submit failed")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	s.mw.ApplicationSubmitted()

	writeJSON(w, http.StatusCreated, SubmitResponse{ID: id, Status: loan.StatusPending})
}

func (s *Server) handleApplication(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/applications/")
	if id == "" {
		http.Error(w, "application id required", http.StatusBadRequest)
		return
	}

	app, err := s.store.GetApplication(id)
	if err != nil {
		http.Error(w, "application not found", http.StatusNotFound)
		return
	}

	resp := ApplicationResponse{Application: app}
	if dec, ok, err := s.store.LatestDecision(id); err == nil && ok {
		resp.Decision = &dec
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sum, err := s.store.Summarize()
	if err != nil {
		log.Error().Err(err).Msg("summary failed")
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// toApplication converts the request into a domain record, deriving the
// debt-to-income ratio from debt and income when the caller did not supply
// one.
func (r SubmitRequest) toApplication() loan.Application {
	dti := float64(r.DebtToIncomeRatio)
	if dti == 0 && r.AnnualIncome > 0 {
		dti = float64(r.ExistingDebt) / float64(r.AnnualIncome)
	}
	return loan.Application{
		RequestedAmount:     float64(r.RequestedAmount),
		AnnualIncome:        float64(r.AnnualIncome),
		CreditScore:         int(r.CreditScore),
		ExistingDebt:        float64(r.ExistingDebt),
		DebtToIncomeRatio:   dti,
		CollateralValue:     float64(r.CollateralValue),
		AccountAgeDays:      int(r.AccountAgeDays),
		AvgTransactionCount: float64(r.AvgTransactionCount),
		ProcessingPriority:  int(r.ProcessingPriority),
		LoyaltyPoints:       int(r.LoyaltyPoints),
		Status:              loan.StatusPending,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
