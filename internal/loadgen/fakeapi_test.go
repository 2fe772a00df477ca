package loadgen

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/tradeflow/backend/internal/application/workflow"
	"github.com/tradeflow/backend/internal/domain/proof"
	"github.com/tradeflow/backend/internal/interfaces/http/dto"
)

// fakeAPI answers the workflow endpoints with canned envelopes
type fakeAPI struct {
	complianceStatus string
	paymentStatus    string
	verifyResult     proof.Result
	// failPaymentsOnce returns 503 for the first attempt of each payment call
	failPaymentsOnce bool

	seq      atomic.Int64
	mu       sync.Mutex
	keys     map[string]int // Idempotency-Key -> attempts
	accepted []string
	tokens   []string
}

func newFakeAPI(t *testing.T, opts ...func(*fakeAPI)) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{
		complianceStatus: "passed",
		paymentStatus:    "completed",
		verifyResult:     proof.ResultVerified,
		keys:             make(map[string]int),
	}
	for _, opt := range opts {
		opt(api)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/trades", func(w http.ResponseWriter, r *http.Request) {
		var req workflow.CreateTradeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ExporterName == "" {
			writeError(w, http.StatusBadRequest, dto.ErrCodeValidation, "bad trade")
			return
		}
		api.track(r)
		writeData(w, http.StatusCreated, workflow.TradeResponse{
			ID:     fmt.Sprintf("TRD-20260101-%04d", api.seq.Add(1)),
			Status: "created",
		})
	})
	mux.HandleFunc("POST /api/v1/trades/{id}/compliance", func(w http.ResponseWriter, r *http.Request) {
		api.track(r)
		writeData(w, http.StatusOK, workflow.ComplianceRunResponse{TradeID: r.PathValue("id"), Status: api.complianceStatus})
	})
	mux.HandleFunc("POST /api/v1/trades/{id}/finance/offers", func(w http.ResponseWriter, r *http.Request) {
		api.track(r)
		id := r.PathValue("id")
		writeData(w, http.StatusOK, []workflow.FinanceOfferResponse{
			{ID: id + "-expensive", TotalCost: decimal.NewFromInt(9000)},
			{ID: id + "-cheap", TotalCost: decimal.NewFromInt(4000)},
			{ID: id + "-middle", TotalCost: decimal.NewFromInt(6000)},
		})
	})
	mux.HandleFunc("POST /api/v1/finance/offers/{offerId}/accept", func(w http.ResponseWriter, r *http.Request) {
		api.track(r)
		api.mu.Lock()
		api.accepted = append(api.accepted, r.PathValue("offerId"))
		api.mu.Unlock()
		writeData(w, http.StatusOK, workflow.FinanceOfferResponse{ID: r.PathValue("offerId"), Status: "accepted"})
	})
	mux.HandleFunc("POST /api/v1/trades/{id}/payments", func(w http.ResponseWriter, r *http.Request) {
		attempt := api.track(r)
		if api.failPaymentsOnce && attempt == 1 {
			writeError(w, http.StatusServiceUnavailable, dto.ErrCodeInternal, "try again")
			return
		}
		writeData(w, http.StatusOK, workflow.PaymentResponse{TradeID: r.PathValue("id"), Status: api.paymentStatus})
	})
	mux.HandleFunc("POST /api/v1/trades/{id}/proofs", func(w http.ResponseWriter, r *http.Request) {
		api.track(r)
		writeData(w, http.StatusCreated, workflow.ProofBundleResponse{
			BundleID:   "BND-" + r.PathValue("id"),
			TradeID:    r.PathValue("id"),
			MerkleRoot: "ab12",
		})
	})
	mux.HandleFunc("GET /api/v1/proofs/verify", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" || r.URL.Query().Get("deep") != "true" {
			writeError(w, http.StatusBadRequest, dto.ErrCodeValidation, "q and deep required")
			return
		}
		writeData(w, http.StatusOK, proof.Verification{Result: api.verifyResult})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return api, srv
}

// track counts attempts per Idempotency-Key and returns this attempt's number
func (a *fakeAPI) track(r *http.Request) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tokens = append(a.tokens, r.Header.Get("Authorization"))
	key := r.Header.Get("Idempotency-Key")
	a.keys[key]++
	return a.keys[key]
}

func (a *fakeAPI) snapshot() (accepted, tokens []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.accepted...), append([]string(nil), a.tokens...)
}

func (a *fakeAPI) maxAttempts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, v := range a.keys {
		n = max(n, v)
	}
	return n
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.Response{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.Response{Error: &dto.ErrorInfo{Code: code, Message: message}})
}
