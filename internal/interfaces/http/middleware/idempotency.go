package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// MaxIdempotencyKeyLength bounds client-supplied idempotency keys
const MaxIdempotencyKeyLength = 255

// HeaderIdempotentReplayed marks a response served from the idempotency store
const HeaderIdempotentReplayed = "Idempotent-Replayed"

// idempotencySettleTimeout bounds recording the outcome once the handler
// has returned, whether or not the client is still connected
const idempotencySettleTimeout = 5 * time.Second

// IdempotencyConfig configures Idempotency
type IdempotencyConfig struct {
	Store  shared.IdempotencyStore
	TTL    time.Duration
	Logger *zap.Logger
}

type recordedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// bodyRecorder tees the response body into a buffer
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the first response of a request carrying an
// Idempotency-Key header. Keys are scoped to the method and path. While the
// first request is still running, repeats get 409 ERR_REQUEST_IN_PROGRESS.
// Requests without the header pass through untouched.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if key == "" || cfg.Store == nil {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			abortWithError(c, dto.ErrCodeBadRequest, "Idempotency-Key is too long")
			return
		}

		ctx := c.Request.Context()
		storeKey := idempotencyStoreKey(c, key)

		if replayed := replay(c, cfg.Store, storeKey, log); replayed {
			return
		}

		reserved, err := cfg.Store.Reserve(ctx, storeKey, ttl)
		if err != nil {
			log.Error("Idempotency reserve failed, serving without replay protection", zap.Error(err))
			c.Next()
			return
		}
		if !reserved {
			// Completed between Lookup and Reserve, or still running
			if replay(c, cfg.Store, storeKey, log) {
				return
			}
			abortWithError(c, dto.ErrCodeRequestInProgress, "A request with this Idempotency-Key is still being processed")
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		// the outcome is settled even when the client has disconnected
		settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), idempotencySettleTimeout)
		defer cancel()

		status := rec.Status()
		if !replayable(status) {
			if err := cfg.Store.Release(settleCtx, storeKey); err != nil {
				log.Warn("Idempotency release failed", zap.Error(err))
			}
			return
		}

		payload, err := json.Marshal(recordedResponse{
			Status:      status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		})
		if err == nil {
			err = cfg.Store.Complete(settleCtx, storeKey, payload, ttl)
		}
		if err != nil {
			log.Warn("Idempotency record failed", zap.Error(err))
		}
	}
}

// replay writes the recorded response for storeKey if there is one
func replay(c *gin.Context, store shared.IdempotencyStore, storeKey string, log *zap.Logger) bool {
	raw, found, err := store.Lookup(c.Request.Context(), storeKey)
	if err != nil {
		log.Warn("Idempotency lookup failed", zap.Error(err))
		return false
	}
	if !found {
		return false
	}
	var rec recordedResponse
	if err := json.Unmarshal(raw, &rec); err != nil {
		log.Warn("Discarding unreadable idempotency record", zap.Error(err))
		return false
	}
	c.Header(HeaderIdempotentReplayed, "true")
	c.Data(rec.Status, rec.ContentType, rec.Body)
	c.Abort()
	return true
}

// replayable reports whether a response is final for its key. Server
// errors and contention responses are released so the client can retry.
func replayable(status int) bool {
	switch {
	case status >= http.StatusInternalServerError:
		return false
	case status == http.StatusConflict, status == http.StatusTooManyRequests:
		return false
	default:
		return true
	}
}

func idempotencyStoreKey(c *gin.Context, key string) string {
	scope := c.Request.Method + " " + c.Request.URL.Path
	if claims := GetJWTClaims(c); claims != nil {
		scope = claims.Subject + " " + scope
	}
	return "idem:" + scope + ":" + key
}
