package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backend/internal/interfaces/http/dto"
)

type shipmentRequest struct {
	Product  string  `json:"product" binding:"required,min=2"`
	Currency string  `json:"currency" binding:"required,iso4217"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
}

func TestRegisterValidations(t *testing.T) {
	v := validator.New()
	RegisterValidations(v)

	type payload struct {
		Currency string `json:"currency" validate:"iso4217"`
	}

	assert.NoError(t, v.Struct(payload{Currency: "USD"}))
	assert.NoError(t, v.Struct(payload{Currency: "kes"}))

	err := v.Struct(payload{Currency: "XX1"})
	require.Error(t, err)
	details := ValidationDetails(err)
	require.Len(t, details, 1)
	assert.Equal(t, "currency", details[0].Field)
	assert.Equal(t, "Must be an ISO 4217 currency code", details[0].Message)
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	r := gin.New()
	r.Use(RequestID())
	r.POST("/shipments", func(c *gin.Context) {
		var req shipmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusCreated)
	})

	post := func(body string) (*httptest.ResponseRecorder, dto.Response) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/shipments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		var resp dto.Response
		if w.Body.Len() > 0 {
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		}
		return w, resp
	}

	t.Run("field errors", func(t *testing.T) {
		w, resp := post(`{"product":"x","currency":"ZZZZ"}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)

		fields := map[string]string{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = d.Message
		}
		assert.Equal(t, "Must be at least 2 characters", fields["product"])
		assert.Equal(t, "Must be an ISO 4217 currency code", fields["currency"])
		assert.Equal(t, "This field is required", fields["amount"])
	})

	t.Run("type mismatch", func(t *testing.T) {
		w, resp := post(`{"product":"coffee","currency":"USD","amount":"lots"}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "amount", resp.Error.Details[0].Field)
	})

	t.Run("malformed body", func(t *testing.T) {
		w, resp := post(`{"product":`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "body", resp.Error.Details[0].Field)
	})

	t.Run("valid", func(t *testing.T) {
		w, _ := post(`{"product":"coffee","currency":"EUR","amount":12.5}`)
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}
