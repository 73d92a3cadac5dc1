package commissions

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/proposals"
)

type mockRepository struct {
	commissions map[int64]*Commission
	payments    map[int64][]Payment
	nextID      int64
	locks       int
}

func newMockRepository() *mockRepository {
	return &mockRepository{commissions: map[int64]*Commission{}, payments: map[int64][]Payment{}}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	snapshot := make(map[int64]Commission, len(m.commissions))
	for id, c := range m.commissions {
		snapshot[id] = *c
	}
	payments := make(map[int64][]Payment, len(m.payments))
	for id, p := range m.payments {
		payments[id] = append([]Payment(nil), p...)
	}
	if err := fn(ctx, m); err != nil {
		for id, c := range snapshot {
			c := c
			m.commissions[id] = &c
		}
		m.payments = payments
		return err
	}
	return nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Commission, error) {
	c, ok := m.commissions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	cp.PendingValue = cp.Pending()
	return &cp, nil
}

func (m *mockRepository) GetForUpdate(ctx context.Context, id int64) (*Commission, error) {
	m.locks++
	return m.Get(ctx, id)
}

func (m *mockRepository) GetByProposal(ctx context.Context, proposalID int64) (*Commission, error) {
	for _, c := range m.commissions {
		if c.ProposalID == proposalID {
			return m.Get(ctx, c.ID)
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepository) List(ctx context.Context, req ListCommissionsRequest) ([]Commission, int, error) {
	var out []Commission
	for id := int64(1); id <= m.nextID; id++ {
		c, ok := m.commissions[id]
		if !ok || (req.Status != nil && c.Status != *req.Status) {
			continue
		}
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockRepository) Summary(ctx context.Context) (Summary, error) {
	s := Summary{}
	for _, c := range m.commissions {
		s.Count++
		s.TotalValue = s.TotalValue.Add(c.TotalValue)
		s.PaidValue = s.PaidValue.Add(c.PaidValue)
		s.PendingValue = s.PendingValue.Add(c.Pending())
	}
	return s, nil
}

func (m *mockRepository) Create(ctx context.Context, c Commission) (int64, error) {
	for _, existing := range m.commissions {
		if existing.ProposalID == c.ProposalID {
			return 0, fmt.Errorf("%w: commission for proposal %d", ErrAlreadyExists, c.ProposalID)
		}
	}
	m.nextID++
	c.ID = m.nextID
	m.commissions[c.ID] = &c
	return c.ID, nil
}

func (m *mockRepository) UpdateDetails(ctx context.Context, c Commission) error {
	stored, ok := m.commissions[c.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Commercial = c.Commercial
	stored.Notes = c.Notes
	return nil
}

func (m *mockRepository) UpdatePaid(ctx context.Context, id int64, paid decimal.Decimal, status Status, paymentDate time.Time) error {
	stored, ok := m.commissions[id]
	if !ok {
		return ErrNotFound
	}
	stored.PaidValue = paid
	stored.Status = status
	stored.PaymentDate = &paymentDate
	return nil
}

func (m *mockRepository) InsertPayment(ctx context.Context, p Payment) error {
	m.payments[p.CommissionID] = append(m.payments[p.CommissionID], p)
	return nil
}

func (m *mockRepository) ListPayments(ctx context.Context, commissionID int64) ([]Payment, error) {
	return append([]Payment{}, m.payments[commissionID]...), nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.commissions[id]; !ok {
		return ErrNotFound
	}
	delete(m.commissions, id)
	return nil
}

type stubProposals map[int64]*proposals.Proposal

func (s stubProposals) Get(ctx context.Context, id int64) (*proposals.Proposal, error) {
	p, ok := s[id]
	if !ok {
		return nil, proposals.ErrNotFound
	}
	return p, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
