package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tradeflow/backend/internal/application/workflow"
	"github.com/tradeflow/backend/internal/domain/proof"
	"github.com/tradeflow/backend/internal/interfaces/http/dto"
)

const apiPrefix = "/api/v1"

// APIError is a non-success envelope returned by the service
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// retryable reports whether the same request may succeed on another attempt
func (e *APIError) retryable() bool {
	switch {
	case e.Status == http.StatusTooManyRequests, e.Status >= http.StatusInternalServerError:
		return true
	case e.Status == http.StatusConflict:
		return e.Code == dto.ErrCodeRequestInProgress || e.Code == dto.ErrCodeLockNotAcquired
	}
	return false
}

// IsAPIError reports whether err carries the given error code
func IsAPIError(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
}

// Client calls the workflow endpoints. Every mutating call carries an
// Idempotency-Key that is reused across retries of the same call.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	retries int
	backoff time.Duration
}

// NewClient creates a client for the configured target
func NewClient(cfg Config) *Client {
	return &Client{
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		baseURL: strings.TrimRight(cfg.Target, "/") + apiPrefix,
		token:   cfg.Token,
		retries: cfg.Retries,
		backoff: 200 * time.Millisecond,
	}
}

// CreateTrade calls POST /trades
func (c *Client) CreateTrade(ctx context.Context, req workflow.CreateTradeRequest) (*workflow.TradeResponse, error) {
	var out workflow.TradeResponse
	return &out, c.post(ctx, "/trades", req, &out)
}

// RunCompliance calls POST /trades/:id/compliance
func (c *Client) RunCompliance(ctx context.Context, tradeID string) (*workflow.ComplianceRunResponse, error) {
	var out workflow.ComplianceRunResponse
	return &out, c.post(ctx, "/trades/"+url.PathEscape(tradeID)+"/compliance", nil, &out)
}

// GenerateOffers calls POST /trades/:id/finance/offers
func (c *Client) GenerateOffers(ctx context.Context, tradeID string) ([]workflow.FinanceOfferResponse, error) {
	var out []workflow.FinanceOfferResponse
	return out, c.post(ctx, "/trades/"+url.PathEscape(tradeID)+"/finance/offers", nil, &out)
}

// AcceptOffer calls POST /finance/offers/:offerId/accept
func (c *Client) AcceptOffer(ctx context.Context, offerID string) (*workflow.FinanceOfferResponse, error) {
	var out workflow.FinanceOfferResponse
	return &out, c.post(ctx, "/finance/offers/"+url.PathEscape(offerID)+"/accept", nil, &out)
}

// ExecutePayment calls POST /trades/:id/payments
func (c *Client) ExecutePayment(ctx context.Context, tradeID string) (*workflow.PaymentResponse, error) {
	var out workflow.PaymentResponse
	return &out, c.post(ctx, "/trades/"+url.PathEscape(tradeID)+"/payments", nil, &out)
}

// GenerateProof calls POST /trades/:id/proofs
func (c *Client) GenerateProof(ctx context.Context, tradeID string) (*workflow.ProofBundleResponse, error) {
	var out workflow.ProofBundleResponse
	return &out, c.post(ctx, "/trades/"+url.PathEscape(tradeID)+"/proofs", nil, &out)
}

// Verify calls GET /proofs/verify with a bundle id or Merkle root
func (c *Client) Verify(ctx context.Context, query string, deep bool) (*proof.Verification, error) {
	q := url.Values{"q": {query}}
	if deep {
		q.Set("deep", "true")
	}
	var out proof.Verification
	return &out, c.do(ctx, http.MethodGet, "/proofs/verify?"+q.Encode(), nil, "", &out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, uuid.NewString(), out)
}

func (c *Client) do(ctx context.Context, method, path string, body any, idempotencyKey string, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var err error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff * time.Duration(1<<(attempt-1))):
			}
		}
		err = c.once(ctx, method, path, payload, idempotencyKey, out)
		var apiErr *APIError
		if err == nil || !errors.As(err, &apiErr) || !apiErr.retryable() {
			return err
		}
	}
	return err
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte, idempotencyKey string, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{Status: resp.StatusCode, Code: "ERR_DECODE", Message: err.Error()}
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		if env.Error != nil {
			apiErr.Code, apiErr.Message = env.Error.Code, env.Error.Message
		}
		return apiErr
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
