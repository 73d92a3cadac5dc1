package templates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/shared"
)

var (
	ErrNotFound = shared.ErrNotFound
	ErrInUse    = shared.ErrInUse
)

type Repository interface {
	List(ctx context.Context, typ *Type) ([]Template, error)
	Get(ctx context.Context, id int64) (*Template, error)
	Create(ctx context.Context, t Template) (int64, error)
	Update(ctx context.Context, t Template) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db db.DBTX
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const templateColumns = `id, name, type, pages, created_at, updated_at`

func scanTemplate(row pgx.Row) (Template, error) {
	var t Template
	var pages []byte
	if err := row.Scan(&t.ID, &t.Name, &t.Type, &pages, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return t, err
	}
	if len(pages) > 0 {
		if err := json.Unmarshal(pages, &t.Pages); err != nil {
			return t, fmt.Errorf("decode pages of template %d: %w", t.ID, err)
		}
	}
	if t.Pages == nil {
		t.Pages = []Page{}
	}
	return t, nil
}

func (r *repository) List(ctx context.Context, typ *Type) ([]Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates`
	var args []any
	if typ != nil {
		query += ` WHERE type = $1`
		args = append(args, string(*typ))
	}
	query += ` ORDER BY name, id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (*Template, error) {
	t, err := scanTemplate(r.db.QueryRow(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) Create(ctx context.Context, t Template) (int64, error) {
	pages, err := json.Marshal(t.Pages)
	if err != nil {
		return 0, fmt.Errorf("encode pages: %w", err)
	}
	var id int64
	err = r.db.QueryRow(ctx, `
		INSERT INTO templates (name, type, pages)
		VALUES ($1, $2, $3::jsonb)
		RETURNING id`,
		t.Name, string(t.Type), string(pages),
	).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, t Template) error {
	pages, err := json.Marshal(t.Pages)
	if err != nil {
		return fmt.Errorf("encode pages: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE templates SET name = $2, type = $3, pages = $4::jsonb, updated_at = NOW()
		WHERE id = $1`,
		t.ID, t.Name, string(t.Type), string(pages),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM templates WHERE id = $1`, id)
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: template is used by proposals", ErrInUse)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
