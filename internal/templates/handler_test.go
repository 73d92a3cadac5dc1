package templates

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
	r.Route("/templates", NewHandler(nil, NewService(repo)).MountRoutes)
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

func TestTemplateHandlers(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/templates",
		`{"name": "Proposta", "type": "proposal", "pages": [{"title": "Corpo"}, {"orientation": "horizontal"}]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Len(t, created.Pages, 2)

	rec = doJSON(t, router, http.MethodGet, "/templates?type=proposal", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list httpx.ListResponse[Template]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	rec = doJSON(t, router, http.MethodPut, "/templates/1", `{"name": "Proposta 2026"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Proposta 2026")

	rec = doJSON(t, router, http.MethodGet, "/templates/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/templates/1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, repo.templates)
}

func TestTemplateHandlersRejectInvalidBodies(t *testing.T) {
	router := newTestRouter(newMockRepository())

	for _, body := range []string{
		`{"pages": [{}]}`,
		`{"name": "Sem páginas", "pages": []}`,
		`{"name": "X", "type": "menu", "pages": [{}]}`,
		`{"name": "X", "pages": [{"orientation": "diagonal"}]}`,
	} {
		rec := doJSON(t, router, http.MethodPost, "/templates", body)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
	}
}

func TestDeleteTemplateInUse(t *testing.T) {
	repo := newMockRepository()
	id, _ := repo.Create(context.Background(), Template{Name: "Usado", Type: TypeProposal, Pages: []Page{{ID: "p1"}}})
	repo.inUse[id] = true

	rec := doJSON(t, newTestRouter(repo), http.MethodDelete, "/templates/1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}
