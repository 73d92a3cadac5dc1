package catalog

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/pricing"
)

type memRepo struct {
	mu             sync.Mutex
	nextID         int64
	groups         map[int64]Group
	articles       map[int64]Article
	groupListCalls int
	pricingWrites  int
	listErr        error
}

func newMemRepo() *memRepo {
	return &memRepo{groups: map[int64]Group{}, articles: map[int64]Article{}}
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *memRepo) ListGroups(ctx context.Context) ([]Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groupListCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]Group, 0, len(m.groups))
	for _, g := range m.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memRepo) GetGroup(ctx context.Context, id int64) (*Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (m *memRepo) GetGroupByName(ctx context.Context, name string) (*Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if g.Name == name {
			return &g, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) CreateGroup(ctx context.Context, group Group) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	group.ID = m.nextID
	m.groups[group.ID] = group
	return group.ID, nil
}

func (m *memRepo) UpdateGroup(ctx context.Context, group Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[group.ID]; !ok {
		return ErrNotFound
	}
	m.groups[group.ID] = group
	return nil
}

func (m *memRepo) DeleteGroup(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[id]; !ok {
		return ErrNotFound
	}
	delete(m.groups, id)
	return nil
}

func (m *memRepo) ListArticles(ctx context.Context, req ListArticlesRequest) ([]Article, int, error) {
	all, _ := m.AllArticles(ctx)
	var out []Article
	for _, a := range all {
		if req.Search != nil && !strings.Contains(strings.ToLower(a.Reference+" "+a.Description), strings.ToLower(*req.Search)) {
			continue
		}
		if req.GroupName != nil && a.Group() != *req.GroupName {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (m *memRepo) AllArticles(ctx context.Context) ([]Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Article, 0, len(m.articles))
	for _, a := range m.articles {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memRepo) GetArticle(ctx context.Context, id int64) (*Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (m *memRepo) GetArticleByReference(ctx context.Context, reference string) (*Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.Reference == reference {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) CreateArticle(ctx context.Context, article Article) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	article.ID = m.nextID
	m.articles[article.ID] = article
	return article.ID, nil
}

func (m *memRepo) UpdateArticle(ctx context.Context, article Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[article.ID]; !ok {
		return ErrNotFound
	}
	m.articles[article.ID] = article
	return nil
}

func (m *memRepo) UpdateArticlePricing(ctx context.Context, article Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := m.articles[article.ID]
	stored.MarginPercent = article.MarginPercent
	stored.MarginValue = article.MarginValue
	stored.Commission = article.Commission
	m.articles[article.ID] = stored
	m.pricingWrites++
	return nil
}

func (m *memRepo) DeleteArticle(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[id]; !ok {
		return ErrNotFound
	}
	delete(m.articles, id)
	return nil
}

type stubRates struct {
	table         pricing.RateTable
	invalidations int
}

func (s *stubRates) Rates(context.Context) (pricing.RateTable, error) {
	return s.table, nil
}

func (s *stubRates) Invalidate(context.Context) error {
	s.invalidations++
	return nil
}

type stubScheduler struct {
	reasons []string
}

func (s *stubScheduler) EnqueueCatalogReprice(_ context.Context, reason string) error {
	s.reasons = append(s.reasons, reason)
	return nil
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

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
