package commissions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/shared"
)

var (
	ErrNotFound      = shared.ErrNotFound
	ErrAlreadyExists = shared.ErrAlreadyExists
	ErrInvalidStatus = shared.ErrInvalidStatus
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Commission, error)
	GetForUpdate(ctx context.Context, id int64) (*Commission, error)
	GetByProposal(ctx context.Context, proposalID int64) (*Commission, error)
	List(ctx context.Context, req ListCommissionsRequest) ([]Commission, int, error)
	Summary(ctx context.Context) (Summary, error)
	Create(ctx context.Context, c Commission) (int64, error)
	UpdateDetails(ctx context.Context, c Commission) error
	UpdatePaid(ctx context.Context, id int64, paid decimal.Decimal, status Status, paymentDate time.Time) error
	InsertPayment(ctx context.Context, p Payment) error
	ListPayments(ctx context.Context, commissionID int64) ([]Payment, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const commissionColumns = `m.id, m.proposal_id, COALESCE(p.number, ''), COALESCE(c.name, ''), m.commercial,
	m.total_value, m.paid_value, m.status, m.payment_date, m.notes, m.created_at, m.updated_at`

const commissionFrom = `FROM commissions m
	LEFT JOIN proposals p ON p.id = m.proposal_id
	LEFT JOIN clients c ON c.id = p.client_id`

func scanCommission(row pgx.Row) (Commission, error) {
	var c Commission
	err := row.Scan(
		&c.ID, &c.ProposalID, &c.ProposalNumber, &c.ClientName, &c.Commercial,
		&c.TotalValue, &c.PaidValue, &c.Status, &c.PaymentDate, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	c.PendingValue = c.Pending()
	return c, err
}

func (r *repository) getOne(ctx context.Context, where string, arg any) (*Commission, error) {
	c, err := scanCommission(r.db.QueryRow(ctx, `SELECT `+commissionColumns+` `+commissionFrom+` WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Commission, error) {
	return r.getOne(ctx, "m.id = $1", id)
}

// GetForUpdate locks the commission row for the rest of the transaction.
func (r *repository) GetForUpdate(ctx context.Context, id int64) (*Commission, error) {
	return r.getOne(ctx, "m.id = $1 FOR UPDATE OF m", id)
}

func (r *repository) GetByProposal(ctx context.Context, proposalID int64) (*Commission, error) {
	return r.getOne(ctx, "m.proposal_id = $1", proposalID)
}

func (r *repository) List(ctx context.Context, req ListCommissionsRequest) ([]Commission, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("m.status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.Commercial != nil && *req.Commercial != "" {
		conditions = append(conditions, fmt.Sprintf("m.commercial ILIKE $%d", argPos))
		args = append(args, "%"+*req.Commercial+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) "+commissionFrom+" "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s %s %s ORDER BY m.created_at DESC, m.id DESC LIMIT $%d OFFSET $%d`,
		commissionColumns, commissionFrom, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Commission
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *repository) Summary(ctx context.Context) (Summary, error) {
	var s Summary
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_value), 0), COALESCE(SUM(paid_value), 0),
			COALESCE(SUM(GREATEST(total_value - paid_value, 0)), 0)
		FROM commissions`,
	).Scan(&s.Count, &s.TotalValue, &s.PaidValue, &s.PendingValue)
	return s, err
}

func (r *repository) Create(ctx context.Context, c Commission) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO commissions (proposal_id, commercial, total_value, paid_value, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		c.ProposalID, c.Commercial, c.TotalValue, c.PaidValue, string(c.Status), c.Notes,
	).Scan(&id)
	if db.IsUniqueViolation(err) {
		return 0, fmt.Errorf("%w: commission for proposal %d", ErrAlreadyExists, c.ProposalID)
	}
	return id, err
}

func (r *repository) UpdateDetails(ctx context.Context, c Commission) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE commissions SET commercial = $2, notes = $3, updated_at = NOW() WHERE id = $1`,
		c.ID, c.Commercial, c.Notes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) UpdatePaid(ctx context.Context, id int64, paid decimal.Decimal, status Status, paymentDate time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE commissions
		SET paid_value = $2, status = $3, payment_date = $4, updated_at = NOW()
		WHERE id = $1`,
		id, paid, string(status), paymentDate,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) InsertPayment(ctx context.Context, p Payment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO commission_payments (id, commission_id, amount, paid_at, notes)
		VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.CommissionID, p.Amount, p.PaidAt, p.Notes,
	)
	return err
}

func (r *repository) ListPayments(ctx context.Context, commissionID int64) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, commission_id, amount, paid_at, notes, created_at
		FROM commission_payments
		WHERE commission_id = $1
		ORDER BY paid_at, created_at`, commissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := make([]Payment, 0)
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.CommissionID, &p.Amount, &p.PaidAt, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM commissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
