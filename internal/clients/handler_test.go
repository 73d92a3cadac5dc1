package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
)

func newTestRouter(repo *mockRepository) http.Handler {
	r := chi.NewRouter()
	r.Route("/clients", NewHandler(nil, NewService(repo)).MountRoutes)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) httpx.ProblemDetail {
	t.Helper()
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem), rec.Body.String())
	return problem
}

func TestClientHandlers(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/clients", `{"name": "Oficina Norte", "email": "norte@oficina.pt"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created Client
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.ID)

	rec = doJSON(t, router, http.MethodGet, "/clients?search=norte", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list httpx.ListResponse[Client]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, "Oficina Norte", list.Data[0].Name)

	rec = doJSON(t, router, http.MethodPut, "/clients/1", `{"name": "Oficina Norte Lda"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Oficina Norte Lda")

	rec = doJSON(t, router, http.MethodGet, "/clients/7", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClientHandlersValidation(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		field  string
	}{
		{"missing name", http.MethodPost, "/clients", `{"email": "a@b.pt"}`, "Name"},
		{"bad email", http.MethodPost, "/clients", `{"name": "Oficina", "email": "not-an-email"}`, "Email"},
		{"long nif", http.MethodPost, "/clients", `{"name": "Oficina", "nif": "123456789012345678901"}`, "NIF"},
		{"long phone on update", http.MethodPut, "/clients/1", `{"phone": "` + strings.Repeat("9", 51) + `"}`, "Phone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			_, _ = repo.Create(context.Background(), Client{Name: "Existente"})
			rec := doJSON(t, newTestRouter(repo), tt.method, tt.path, tt.body)

			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			problem := decodeProblem(t, rec)
			assert.Equal(t, "Validation Failed", problem.Title)
			assert.Contains(t, problem.Errors, tt.field)
		})
	}
}

func TestClientHandlersMalformedInput(t *testing.T) {
	router := newTestRouter(newMockRepository())

	rec := doJSON(t, router, http.MethodPost, "/clients", `{"name": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/clients/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClientHandlersDuplicateNIF(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/clients", `{"name": "Padaria Lusa", "nif": "509876543"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = doJSON(t, router, http.MethodPost, "/clients", `{"name": "Outra"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/clients", `{"name": "Copia", "nif": "509876543"}`)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, "Duplicate", decodeProblem(t, rec).Title)

	rec = doJSON(t, router, http.MethodPut, "/clients/2", `{"nif": "509876543"}`)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	assert.Equal(t, "Duplicate", decodeProblem(t, rec).Title)
}

func TestDeleteClientInUse(t *testing.T) {
	repo := newMockRepository()
	id, _ := repo.Create(context.Background(), Client{Name: "Com propostas"})
	repo.inUse[id] = true
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodDelete, "/clients/1", "")
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "In Use", decodeProblem(t, rec).Title)

	repo.inUse[id] = false
	rec = doJSON(t, router, http.MethodDelete, "/clients/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
