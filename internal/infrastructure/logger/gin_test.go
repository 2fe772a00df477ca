package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestEngine(base *zap.Logger, opts ...GinOption) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(RequestIDKey, "req-123")
		c.Next()
	})
	r.Use(Recovery(base), GinMiddleware(base, opts...))
	return r
}

func accessLogs(recorded *observer.ObservedLogs) []observer.LoggedEntry {
	return recorded.FilterMessage("HTTP request").All()
}

func TestGinMiddleware(t *testing.T) {
	t.Run("logs route status and correlation fields", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		r := newTestEngine(zap.New(core))

		var handlerTradeID string
		r.GET("/api/v1/trades/:id", func(c *gin.Context) {
			handlerTradeID = TradeID(c.Request.Context())
			L(c.Request.Context()).Info("Loaded trade")
			c.JSON(http.StatusOK, gin.H{"success": true})
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/trades/TRD-01HZ?verbose=1", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "TRD-01HZ", handlerTradeID)

		handlerLog := recorded.FilterMessage("Loaded trade").All()
		require.Len(t, handlerLog, 1)
		assert.Equal(t, "req-123", handlerLog[0].ContextMap()["request_id"])

		logs := accessLogs(recorded)
		require.Len(t, logs, 1)
		fields := logs[0].ContextMap()
		assert.Equal(t, zapcore.InfoLevel, logs[0].Level)
		assert.Equal(t, "/api/v1/trades/:id", fields["route"])
		assert.Equal(t, int64(200), fields["status"])
		assert.Equal(t, "verbose=1", fields["query"])
		assert.Equal(t, "TRD-01HZ", fields["trade_id"])
		assert.Equal(t, "req-123", fields["request_id"])
	})

	t.Run("non trade ids are not tagged", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		r := newTestEngine(zap.New(core))
		r.GET("/api/v1/proofs/:id", func(c *gin.Context) {
			c.Status(http.StatusNotFound)
		})

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/proofs/BND-1", nil))

		logs := accessLogs(recorded)
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
		assert.NotContains(t, logs[0].ContextMap(), "trade_id")
	})

	t.Run("server errors log at error level", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		r := newTestEngine(zap.New(core))
		r.POST("/api/v1/trades", func(c *gin.Context) {
			_ = c.Error(assert.AnError)
			c.Status(http.StatusInternalServerError)
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/trades", nil)
		req.Header.Set("Idempotency-Key", "abc")
		r.ServeHTTP(httptest.NewRecorder(), req)

		logs := accessLogs(recorded)
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
		assert.Equal(t, "abc", logs[0].ContextMap()["idempotency_key"])
		assert.Contains(t, logs[0].ContextMap(), "errors")
	})

	t.Run("skip paths", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		r := newTestEngine(zap.New(core), WithSkipPaths("/health"))
		r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Empty(t, accessLogs(recorded))
	})
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	r := newTestEngine(zap.New(core))
	r.GET("/boom", func(c *gin.Context) { panic("ledger offline") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":{"code":"ERR_INTERNAL","message":"internal server error"}}`, w.Body.String())

	panics := recorded.FilterMessage("Panic recovered").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "ledger offline", panics[0].ContextMap()["panic"])
}
