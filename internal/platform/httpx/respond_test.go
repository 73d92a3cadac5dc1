package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name  string `json:"name" validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestDecodeAndValidateReportsFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"toolong","email":"nope"}`))
	var body sampleRequest
	err := DecodeAndValidate(req, &body)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must be at most 5", verr.Fields["Name"])
	assert.Equal(t, "must be a valid email", verr.Fields["Email"])
}

func TestDecodeAndValidateMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	var body sampleRequest
	assert.ErrorIs(t, DecodeAndValidate(req, &body), ErrValidation)
}

func TestRespondErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("create: %w", ErrDuplicate), http.StatusConflict},
		{fmt.Errorf("approve: %w", ErrInvalidStatus), http.StatusConflict},
		{fmt.Errorf("delete: %w", ErrInUse), http.StatusConflict},
		{ErrValidation, http.StatusBadRequest},
		{fmt.Errorf("render: %w", ErrUnavailable), http.StatusBadGateway},
		{fmt.Errorf("list: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{&ValidationError{Fields: map[string]string{"Name": "is required"}}, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		RespondError(rr, tt.err)
		assert.Equal(t, tt.code, rr.Code, tt.err.Error())

		var problem ProblemDetail
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&problem))
		assert.Equal(t, tt.code, problem.Status)
	}
}

func TestPaginationBounds(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=5000&offset=-3", nil)
	limit, offset := Pagination(req, 50)
	assert.Equal(t, 1000, limit)
	assert.Equal(t, 0, offset)
}

func TestIDParam(t *testing.T) {
	id, err := IDParam("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = IDParam("0")
	assert.ErrorIs(t, err, ErrValidation)
}

type pricedRequest struct {
	Price decimal.Decimal `json:"price"`
	Lines []struct {
		Cost *decimal.Decimal `json:"cost"`
	} `json:"lines"`
}

func TestDecodeAndValidateRejectsUnboundedAmounts(t *testing.T) {
	body := `{"price": 1e200000000, "lines": [{"cost": "12.5"}, {"cost": "1E-400"}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dst pricedRequest
	err := DecodeAndValidate(req, &dst)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "is out of range", verr.Fields["Price"])
	assert.Equal(t, "is out of range", verr.Fields["Lines[1].Cost"])
	assert.NotContains(t, verr.Fields, "Lines[0].Cost")
}

func TestDecodeAndValidateAcceptsOrdinaryAmounts(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"price": 1234.5678, "lines": [{"cost": 1e3}]}`))
	var dst pricedRequest
	require.NoError(t, DecodeAndValidate(req, &dst))
	assert.Equal(t, "1234.5678", dst.Price.String())
}
