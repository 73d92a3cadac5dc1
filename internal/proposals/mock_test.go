package proposals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/catalog"
	"github.com/bizdesk/bizdesk/internal/clients"
	"github.com/bizdesk/bizdesk/internal/pricing"
	"github.com/bizdesk/bizdesk/internal/templates"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	proposals    map[int64]*Proposal
	nextID       int64
	seqByYear    map[int]int
	takenNumbers int
	expiredAsOf  time.Time
	expireCount  int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{proposals: map[int64]*Proposal{}, seqByYear: map[int]int{}}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Proposal, error) {
	p, ok := m.proposals[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	cp.Lines = append([]Line(nil), p.Lines...)
	return &cp, nil
}

func (m *mockRepository) List(ctx context.Context, req ListProposalsRequest) ([]Proposal, int, error) {
	var out []Proposal
	for id := int64(1); id <= m.nextID; id++ {
		p, ok := m.proposals[id]
		if !ok {
			continue
		}
		if req.Status != nil && p.Status != *req.Status {
			continue
		}
		if req.Search != nil && !strings.Contains(p.Number, *req.Search) {
			continue
		}
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockRepository) NextSequence(ctx context.Context, year int) (int, error) {
	return m.seqByYear[year] + 1, nil
}

func (m *mockRepository) Create(ctx context.Context, p Proposal) (int64, error) {
	if m.takenNumbers > 0 {
		m.takenNumbers--
		m.seqByYear[p.ProposalDate.Year()]++
		return 0, fmt.Errorf("%w: proposal number %s", ErrAlreadyExists, p.Number)
	}
	m.seqByYear[p.ProposalDate.Year()]++
	m.nextID++
	p.ID = m.nextID
	m.proposals[p.ID] = &p
	return p.ID, nil
}

func (m *mockRepository) UpdateHeader(ctx context.Context, p Proposal) error {
	stored, ok := m.proposals[p.ID]
	if !ok {
		return ErrNotFound
	}
	lines := stored.Lines
	*stored = p
	stored.Lines = lines
	return nil
}

func (m *mockRepository) ReplaceLines(ctx context.Context, proposalID int64, lines []Line) error {
	stored, ok := m.proposals[proposalID]
	if !ok {
		return ErrNotFound
	}
	stored.Lines = nil
	for i, l := range lines {
		l.ID = int64(i + 1)
		l.ProposalID = proposalID
		stored.Lines = append(stored.Lines, l)
	}
	return nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	p, ok := m.proposals[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	return nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.proposals[id]; !ok {
		return ErrNotFound
	}
	delete(m.proposals, id)
	return nil
}

func (m *mockRepository) ExpireOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	m.expiredAsOf = asOf
	var n int64
	for _, p := range m.proposals {
		if (p.Status == StatusDraft || p.Status == StatusSent) && p.ExpiryDate != nil && p.ExpiryDate.Before(asOf) {
			p.Status = StatusExpired
			n++
		}
	}
	m.expireCount += n
	return n, nil
}

// ============================================================================
// STUB DEPENDENCIES
// ============================================================================

type stubArticles struct {
	articles map[int64]*catalog.Article
	rates    pricing.RateTable
}

func (s *stubArticles) GetArticle(ctx context.Context, id int64) (*catalog.Article, error) {
	a, ok := s.articles[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return a, nil
}

func (s *stubArticles) Rates(context.Context) (pricing.RateTable, error) {
	return s.rates, nil
}

type stubClients map[int64]*clients.Client

func (s stubClients) Get(ctx context.Context, id int64) (*clients.Client, error) {
	c, ok := s[id]
	if !ok {
		return nil, clients.ErrNotFound
	}
	return c, nil
}

type stubTemplates map[int64]*templates.Template

func (s stubTemplates) Get(ctx context.Context, id int64) (*templates.Template, error) {
	t, ok := s[id]
	if !ok {
		return nil, templates.ErrNotFound
	}
	return t, nil
}

type stubRenderer struct {
	html string
}

func (s *stubRenderer) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	s.html = html
	return []byte("%PDF-1.7"), nil
}

type fixture struct {
	svc      *Service
	repo     *mockRepository
	articles *stubArticles
	renderer *stubRenderer
}

var fixedNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func newFixture() fixture {
	sites := "Sites"
	nif := "509000111"
	repo := newMockRepository()
	articles := &stubArticles{
		articles: map[int64]*catalog.Article{
			7: {
				ID: 7, Reference: "SITE-1", Description: "Site institucional", Unit: "un",
				GroupName: &sites, SalePrice: dec("1500"), PurchasePrice: dec("1000"),
			},
		},
		rates: pricing.DefaultRates(),
	}
	cls := stubClients{1: {ID: 1, Name: "Padaria Lusa", NIF: &nif}}
	renderer := &stubRenderer{}
	tpls := stubTemplates{
		3: {ID: 3, Name: "Institucional", Type: templates.TypeProposal, Pages: []templates.Page{
			{ID: "capa", Title: "Capa", Orientation: templates.OrientationVertical},
			{ID: "corpo", Title: "Corpo", Orientation: templates.OrientationHorizontal},
		}},
		4: {ID: 4, Name: "Simples", Type: templates.TypeProposal, Pages: []templates.Page{
			{ID: "corpo", Title: "Corpo", Orientation: templates.OrientationVertical},
		}},
	}
	svc := NewService(repo, articles, cls, renderer, nil).WithTemplates(tpls)
	svc.now = func() time.Time { return fixedNow }
	return fixture{svc: svc, repo: repo, articles: articles, renderer: renderer}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string {
	return &s
}

func int64Ptr(v int64) *int64 {
	return &v
}
