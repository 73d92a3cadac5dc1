package commissions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bizdesk/bizdesk/internal/platform/httpx"
	"github.com/bizdesk/bizdesk/internal/proposals"
)

// ProposalSource resolves the proposal a commission is raised for.
type ProposalSource interface {
	Get(ctx context.Context, id int64) (*proposals.Proposal, error)
}

type Service struct {
	repo      Repository
	proposals ProposalSource
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, proposals ProposalSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		proposals: proposals,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) List(ctx context.Context, req ListCommissionsRequest) ([]Commission, int, error) {
	return s.repo.List(ctx, req)
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	return s.repo.Summary(ctx)
}

// Get returns the commission with its payments.
func (s *Service) Get(ctx context.Context, id int64) (*Commission, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	c.Payments = payments
	return c, nil
}

// Create raises the commission of an approved proposal. The per-line
// commission is owed when the lines carry one; otherwise the proposal
// commission percentage applies.
func (s *Service) Create(ctx context.Context, req CreateCommissionRequest) (*Commission, error) {
	p, err := s.proposals.Get(ctx, req.ProposalID)
	if errors.Is(err, proposals.ErrNotFound) {
		return nil, &httpx.ValidationError{Fields: map[string]string{"proposal_id": "does not exist"}}
	}
	if err != nil {
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	if p.Status != proposals.StatusApproved {
		return nil, fmt.Errorf("%w: proposal %s is %s", ErrInvalidStatus, p.Number, p.Status)
	}
	existing, err := s.repo.GetByProposal(ctx, p.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check existing commission: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: commission for proposal %s", ErrAlreadyExists, p.Number)
	}

	total := p.CommissionAmount
	if p.LineCommission.IsPositive() {
		total = p.LineCommission
	}
	c := Commission{
		ProposalID: p.ID,
		Commercial: strings.TrimSpace(req.Commercial),
		TotalValue: total,
		Status:     StatusUnpaid,
		Notes:      req.Notes,
	}
	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("create commission: %w", err)
	}
	s.logger.Info("commission created", slog.String("proposal", p.Number),
		slog.String("commercial", c.Commercial), slog.String("total", total.StringFixed(2)))
	return s.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateCommissionRequest) (*Commission, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get commission: %w", err)
	}
	if req.Commercial != nil {
		c.Commercial = strings.TrimSpace(*req.Commercial)
	}
	if req.Notes != nil {
		c.Notes = req.Notes
	}
	if c.Commercial == "" {
		return nil, &httpx.ValidationError{Fields: map[string]string{"commercial": "is required"}}
	}
	if err := s.repo.UpdateDetails(ctx, *c); err != nil {
		return nil, fmt.Errorf("update commission: %w", err)
	}
	return s.Get(ctx, id)
}

// RegisterPayment records a payout against the pending value and advances
// the status.
func (s *Service) RegisterPayment(ctx context.Context, id int64, req RegisterPaymentRequest) (*Payment, error) {
	if !req.Amount.IsPositive() {
		return nil, &httpx.ValidationError{Fields: map[string]string{"amount": "must be positive"}}
	}
	paidAt := s.now().Truncate(24 * time.Hour)
	if req.PaidAt != "" {
		parsed, err := time.Parse("2006-01-02", req.PaidAt)
		if err != nil {
			return nil, &httpx.ValidationError{Fields: map[string]string{"paid_at": "must be YYYY-MM-DD"}}
		}
		paidAt = parsed
	}

	payment := Payment{
		ID:           uuid.New(),
		CommissionID: id,
		Amount:       req.Amount,
		PaidAt:       paidAt,
		Notes:        req.Notes,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		c, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c.Status == StatusPaid {
			return fmt.Errorf("%w: commission already paid", ErrInvalidStatus)
		}
		if req.Amount.GreaterThan(c.Pending()) {
			return &httpx.ValidationError{Fields: map[string]string{
				"amount": "exceeds pending value " + c.Pending().StringFixed(2),
			}}
		}
		if err := repo.InsertPayment(ctx, payment); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		paid := c.PaidValue.Add(req.Amount)
		return repo.UpdatePaid(ctx, id, paid, StatusFor(c.TotalValue, paid), paidAt)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("commission payment registered", slog.Int64("commission_id", id),
		slog.String("payment_id", payment.ID.String()), slog.String("amount", req.Amount.StringFixed(2)))
	return &payment, nil
}

func (s *Service) ListPayments(ctx context.Context, id int64) ([]Payment, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, id)
}

// Delete removes a commission that has no payments yet.
func (s *Service) Delete(ctx context.Context, id int64) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get commission: %w", err)
	}
	if c.PaidValue.IsPositive() {
		return fmt.Errorf("%w: commission has payments", ErrInvalidStatus)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete commission: %w", err)
	}
	return nil
}
