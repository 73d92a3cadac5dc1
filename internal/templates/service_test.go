package templates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	templates map[int64]*Template
	nextID    int64
	inUse     map[int64]bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{templates: map[int64]*Template{}, inUse: map[int64]bool{}}
}

func (m *mockRepository) List(ctx context.Context, typ *Type) ([]Template, error) {
	var out []Template
	for _, t := range m.templates {
		if typ != nil && t.Type != *typ {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Template, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	cp.Pages = append([]Page(nil), t.Pages...)
	return &cp, nil
}

func (m *mockRepository) Create(ctx context.Context, t Template) (int64, error) {
	m.nextID++
	t.ID = m.nextID
	m.templates[t.ID] = &t
	return t.ID, nil
}

func (m *mockRepository) Update(ctx context.Context, t Template) error {
	if _, ok := m.templates[t.ID]; !ok {
		return ErrNotFound
	}
	m.templates[t.ID] = &t
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.templates[id]; !ok {
		return ErrNotFound
	}
	if m.inUse[id] {
		return fmt.Errorf("%w: template is used by proposals", ErrInUse)
	}
	delete(m.templates, id)
	return nil
}

func strPtr(s string) *string { return &s }

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *httpx.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr.Fields
}

// ============================================================================
// SERVICE TESTS
// ============================================================================

func TestCreateTemplateFillsPageDefaults(t *testing.T) {
	svc := NewService(newMockRepository())

	tpl, err := svc.Create(context.Background(), CreateTemplateRequest{
		Name: "  Proposta padrão ",
		Pages: []PageInput{
			{BackgroundImage: strPtr("data:image/png;base64,iVBORw0KGgo=")},
			{Orientation: OrientationHorizontal},
			{Title: "Condições", BackgroundImage: strPtr("   ")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Proposta padrão", tpl.Name)
	assert.Equal(t, TypeProposal, tpl.Type)
	require.Len(t, tpl.Pages, 3)
	assert.Equal(t, BodyTitle, tpl.Pages[0].Title)
	assert.Equal(t, OrientationVertical, tpl.Pages[0].Orientation)
	require.NotNil(t, tpl.Pages[0].BackgroundImage)
	assert.Equal(t, "Página 1", tpl.Pages[1].Title)
	assert.Equal(t, OrientationHorizontal, tpl.Pages[1].Orientation)
	assert.Equal(t, "Condições", tpl.Pages[2].Title)
	assert.Nil(t, tpl.Pages[2].BackgroundImage)

	ids := map[string]bool{}
	for _, p := range tpl.Pages {
		assert.NotEmpty(t, p.ID)
		ids[p.ID] = true
	}
	assert.Len(t, ids, 3)
}

func TestCreateTemplateValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   CreateTemplateRequest
		field string
	}{
		{"blank name", CreateTemplateRequest{Name: "  ", Pages: []PageInput{{}}}, "name"},
		{"no pages", CreateTemplateRequest{Name: "Vazio"}, "pages"},
		{"unknown type", CreateTemplateRequest{Name: "X", Type: "contract", Pages: []PageInput{{}}}, "type"},
		{"bad orientation", CreateTemplateRequest{Name: "X", Pages: []PageInput{{Orientation: "diagonal"}}}, "pages[0].orientation"},
		{"script background", CreateTemplateRequest{Name: "X", Pages: []PageInput{{}, {BackgroundImage: strPtr("javascript:alert(1)")}}}, "pages[1].background_image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			_, err := NewService(repo).Create(context.Background(), tt.req)
			assert.Contains(t, validationFields(t, err), tt.field)
			assert.Empty(t, repo.templates)
		})
	}
}

func TestUpdateTemplateReplacesPagesAndKeepsIDs(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()
	created, err := svc.Create(ctx, CreateTemplateRequest{Name: "Fatura", Type: TypeInvoice, Pages: []PageInput{{}, {}}})
	require.NoError(t, err)
	bodyID := created.Pages[0].ID

	reordered := []PageInput{
		{ID: created.Pages[1].ID, Title: "Capa", Orientation: OrientationHorizontal},
		{ID: bodyID, Title: BodyTitle},
	}
	updated, err := svc.Update(ctx, created.ID, UpdateTemplateRequest{Pages: &reordered})
	require.NoError(t, err)
	assert.Equal(t, TypeInvoice, updated.Type)
	require.Len(t, updated.Pages, 2)
	assert.Equal(t, created.Pages[1].ID, updated.Pages[0].ID)
	assert.Equal(t, bodyID, updated.Pages[1].ID)
	assert.Equal(t, 1, updated.BodyIndex())

	empty := []PageInput{}
	_, err = svc.Update(ctx, created.ID, UpdateTemplateRequest{Name: strPtr(" "), Pages: &empty})
	fields := validationFields(t, err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "pages")

	_, err = svc.Update(ctx, 99, UpdateTemplateRequest{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListTemplatesByType(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()
	for _, req := range []CreateTemplateRequest{
		{Name: "B proposta", Pages: []PageInput{{}}},
		{Name: "A proposta", Pages: []PageInput{{}}},
		{Name: "Relatório", Type: TypeReport, Pages: []PageInput{{}}},
	} {
		_, err := svc.Create(ctx, req)
		require.NoError(t, err)
	}

	typ := TypeProposal
	list, err := svc.List(ctx, &typ)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A proposta", list[0].Name)

	unknown := Type("menu")
	_, err = svc.List(ctx, &unknown)
	assert.Contains(t, validationFields(t, err), "type")
}

func TestBodyIndexFallsBackToFirstPage(t *testing.T) {
	tpl := Template{Pages: []Page{{Title: "Capa"}, {Title: " corpo "}}}
	assert.Equal(t, 1, tpl.BodyIndex())
	tpl.Pages[1].Title = "Anexo"
	assert.Equal(t, 0, tpl.BodyIndex())
}
