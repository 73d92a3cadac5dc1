package commissions

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/proposals"
)

func newTestRouter() http.Handler {
	source := stubProposals{
		1: {ID: 1, Number: "PROP-2026-0001", Status: proposals.StatusApproved, LineCommission: dec("80")},
	}
	r := chi.NewRouter()
	r.Route("/commissions", NewHandler(nil, NewService(newMockRepository(), source, nil)).MountRoutes)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCommissionHandlers(t *testing.T) {
	router := newTestRouter()

	rec := doJSON(t, router, http.MethodPost, "/commissions", `{"proposal_id": 1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/commissions", `{"proposal_id": 1, "commercial": "João Silva"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created Commission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.TotalValue.Equal(dec("80")))

	rec = doJSON(t, router, http.MethodPost, "/commissions", `{"proposal_id": 1, "commercial": "Maria"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/commissions/1/payments", `{"amount": "100"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/commissions/1/payments", `{"amount": 30, "paid_at": "2026-05-02"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, "/commissions/1/payments", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var payments []Payment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payments))
	require.Len(t, payments, 1)
	assert.True(t, payments[0].Amount.Equal(dec("30")))

	rec = doJSON(t, router, http.MethodGet, "/commissions?status=pago_parcialmente", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	rec = doJSON(t, router, http.MethodGet, "/commissions/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summary Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.True(t, summary.PendingValue.Equal(dec("50")))

	rec = doJSON(t, router, http.MethodDelete, "/commissions/1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/commissions/7", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
