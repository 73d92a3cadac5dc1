package proposals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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
	Get(ctx context.Context, id int64) (*Proposal, error)
	List(ctx context.Context, req ListProposalsRequest) ([]Proposal, int, error)
	NextSequence(ctx context.Context, year int) (int, error)
	Create(ctx context.Context, p Proposal) (int64, error)
	UpdateHeader(ctx context.Context, p Proposal) error
	ReplaceLines(ctx context.Context, proposalID int64, lines []Line) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	Delete(ctx context.Context, id int64) error
	ExpireOverdue(ctx context.Context, asOf time.Time) (int64, error)
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

const proposalColumns = `p.id, p.number, p.client_id, COALESCE(c.name, ''), p.status, p.group_name,
	p.template_id, p.proposal_date, p.expiry_date, p.subtotal, p.discount_percentage, p.discount_amount, p.total,
	p.commission_percentage, p.commission_amount, p.line_commission, p.notes, p.created_at, p.updated_at`

const proposalFrom = `FROM proposals p LEFT JOIN clients c ON c.id = p.client_id`

func scanProposal(row pgx.Row) (Proposal, error) {
	var p Proposal
	err := row.Scan(
		&p.ID, &p.Number, &p.ClientID, &p.ClientName, &p.Status, &p.GroupName,
		&p.TemplateID, &p.ProposalDate, &p.ExpiryDate, &p.Subtotal, &p.DiscountPercentage, &p.DiscountAmount, &p.Total,
		&p.CommissionPercentage, &p.CommissionAmount, &p.LineCommission, &p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (r *repository) Get(ctx context.Context, id int64) (*Proposal, error) {
	p, err := scanProposal(r.db.QueryRow(ctx, `SELECT `+proposalColumns+` `+proposalFrom+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	lines, err := r.lines(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load lines: %w", err)
	}
	p.Lines = lines
	return &p, nil
}

func (r *repository) lines(ctx context.Context, proposalID int64) ([]Line, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, proposal_id, article_id, description, unit, quantity, unit_price, cost_price,
			discount_percentage, line_total, calculation_mode, margin_percentage, margin_euro,
			commission, sort_order, created_at
		FROM proposal_lines
		WHERE proposal_id = $1
		ORDER BY sort_order, id`, proposalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]Line, 0)
	for rows.Next() {
		var l Line
		if err := rows.Scan(
			&l.ID, &l.ProposalID, &l.ArticleID, &l.Description, &l.Unit, &l.Quantity, &l.UnitPrice, &l.CostPrice,
			&l.DiscountPercentage, &l.LineTotal, &l.CalculationMode, &l.MarginPercentage, &l.MarginEuro,
			&l.Commission, &l.SortOrder, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListProposalsRequest) ([]Proposal, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}
	if req.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("p.client_id = $%d", argPos))
		args = append(args, *req.ClientID)
		argPos++
	}
	if req.Search != nil && *req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(p.number ILIKE $%d OR c.name ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) "+proposalFrom+" "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s %s %s ORDER BY p.proposal_date DESC, p.id DESC LIMIT $%d OFFSET $%d`,
		proposalColumns, proposalFrom, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var proposals []Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, 0, err
		}
		proposals = append(proposals, p)
	}
	return proposals, total, rows.Err()
}

// NextSequence returns the next free yearly sequence number.
func (r *repository) NextSequence(ctx context.Context, year int) (int, error) {
	prefix := fmt.Sprintf("%s-%04d-", numberPrefix, year)
	var seq int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX(CAST(SUBSTRING(number FROM $2) AS INTEGER)), 0) + 1
		FROM proposals
		WHERE number LIKE $1`, prefix+"%", len(prefix)+1,
	).Scan(&seq)
	return seq, err
}

func (r *repository) Create(ctx context.Context, p Proposal) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO proposals (number, client_id, status, group_name, proposal_date, expiry_date,
			subtotal, discount_percentage, discount_amount, total, commission_percentage,
			commission_amount, line_commission, notes, template_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id`,
		p.Number, p.ClientID, string(p.Status), p.GroupName, p.ProposalDate, p.ExpiryDate,
		p.Subtotal, p.DiscountPercentage, p.DiscountAmount, p.Total, p.CommissionPercentage,
		p.CommissionAmount, p.LineCommission, p.Notes, p.TemplateID,
	).Scan(&id)
	if db.IsUniqueViolation(err) {
		return 0, fmt.Errorf("%w: proposal number %s", ErrAlreadyExists, p.Number)
	}
	return id, err
}

func (r *repository) UpdateHeader(ctx context.Context, p Proposal) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE proposals
		SET client_id = $2, group_name = $3, proposal_date = $4, expiry_date = $5, subtotal = $6,
			discount_percentage = $7, discount_amount = $8, total = $9, commission_percentage = $10,
			commission_amount = $11, line_commission = $12, notes = $13, template_id = $14,
			updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.ClientID, p.GroupName, p.ProposalDate, p.ExpiryDate, p.Subtotal,
		p.DiscountPercentage, p.DiscountAmount, p.Total, p.CommissionPercentage,
		p.CommissionAmount, p.LineCommission, p.Notes, p.TemplateID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ReplaceLines(ctx context.Context, proposalID int64, lines []Line) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM proposal_lines WHERE proposal_id = $1`, proposalID); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(`
			INSERT INTO proposal_lines (proposal_id, article_id, description, unit, quantity, unit_price,
				cost_price, discount_percentage, line_total, calculation_mode, margin_percentage,
				margin_euro, commission, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			proposalID, l.ArticleID, l.Description, l.Unit, l.Quantity, l.UnitPrice,
			l.CostPrice, l.DiscountPercentage, l.LineTotal, string(l.CalculationMode), l.MarginPercentage,
			l.MarginEuro, l.Commission, l.SortOrder,
		)
	}
	if batch.Len() == 0 {
		return nil
	}
	return sendBatch(ctx, r.db, batch)
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := r.db.Exec(ctx, `UPDATE proposals SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM proposals WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: proposal has a commission", shared.ErrInUse)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExpireOverdue moves open proposals whose expiry date is before asOf to expirada.
func (r *repository) ExpireOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE proposals
		SET status = $1, updated_at = NOW()
		WHERE status IN ($2, $3) AND expiry_date IS NOT NULL AND expiry_date < $4`,
		string(StatusExpired), string(StatusDraft), string(StatusSent), asOf,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func sendBatch(ctx context.Context, conn db.DBTX, batch *pgx.Batch) error {
	results := conn.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert line %d: %w", i+1, err)
		}
	}
	return results.Close()
}
