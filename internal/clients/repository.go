package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/shared"
)

var (
	ErrNotFound      = shared.ErrNotFound
	ErrAlreadyExists = shared.ErrAlreadyExists
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Client, error)
	GetByNIF(ctx context.Context, nif string) (*Client, error)
	List(ctx context.Context, req ListClientsRequest) ([]Client, int, error)
	Create(ctx context.Context, client Client) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
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

const clientColumns = `id, name, email, phone, nif, address, notes, created_at, updated_at`

// updatableColumns fixes the SET order so generated statements are stable.
var updatableColumns = []string{"name", "email", "phone", "nif", "address", "notes"}

func scanClient(row pgx.Row) (Client, error) {
	var c Client
	var email, phone, nif, address, notes pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz
	err := row.Scan(&c.ID, &c.Name, &email, &phone, &nif, &address, &notes, &createdAt, &updatedAt)
	if err != nil {
		return c, err
	}
	c.Email = textPtr(email)
	c.Phone = textPtr(phone)
	c.NIF = textPtr(nif)
	c.Address = textPtr(address)
	c.Notes = textPtr(notes)
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		c.UpdatedAt = updatedAt.Time
	}
	return c, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetByNIF(ctx context.Context, nif string) (*Client, error) {
	c, err := scanClient(r.db.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE nif = $1`, nif))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repository) List(ctx context.Context, req ListClientsRequest) ([]Client, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Search != nil && *req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR nif ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM clients "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM clients %s ORDER BY name LIMIT $%d OFFSET $%d`,
		clientColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, err
		}
		clients = append(clients, c)
	}
	return clients, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Client) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO clients (name, email, phone, nif, address, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		c.Name, c.Email, c.Phone, c.NIF, c.Address, c.Notes,
	).Scan(&id)
	if db.IsUniqueViolation(err) {
		return 0, fmt.Errorf("%w: client nif", ErrAlreadyExists)
	}
	return id, err
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE clients SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range updatableColumns {
		v, ok := updates[col]
		if !ok {
			continue
		}
		query += fmt.Sprintf(", %s = $%d", col, argPos)
		args = append(args, v)
		argPos++
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: client nif", ErrAlreadyExists)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: client has proposals", shared.ErrInUse)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	v := t.String
	return &v
}
