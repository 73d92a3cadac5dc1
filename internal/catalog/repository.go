package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bizdesk/bizdesk/internal/platform/db"
	"github.com/bizdesk/bizdesk/internal/shared"
)

var (
	ErrNotFound      = shared.ErrNotFound
	ErrAlreadyExists = shared.ErrAlreadyExists
)

// Repository persists groups and articles.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	ListGroups(ctx context.Context) ([]Group, error)
	GetGroup(ctx context.Context, id int64) (*Group, error)
	GetGroupByName(ctx context.Context, name string) (*Group, error)
	CreateGroup(ctx context.Context, group Group) (int64, error)
	UpdateGroup(ctx context.Context, group Group) error
	DeleteGroup(ctx context.Context, id int64) error

	ListArticles(ctx context.Context, req ListArticlesRequest) ([]Article, int, error)
	AllArticles(ctx context.Context) ([]Article, error)
	GetArticle(ctx context.Context, id int64) (*Article, error)
	GetArticleByReference(ctx context.Context, reference string) (*Article, error)
	CreateArticle(ctx context.Context, article Article) (int64, error)
	UpdateArticle(ctx context.Context, article Article) error
	UpdateArticlePricing(ctx context.Context, article Article) error
	DeleteArticle(ctx context.Context, id int64) error
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository returns a pgx backed Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const groupColumns = `id, name, commission_percent, color, description, created_at, updated_at`

func scanGroup(row pgx.Row) (Group, error) {
	var g Group
	err := row.Scan(&g.ID, &g.Name, &g.CommissionPercent, &g.Color, &g.Description, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (r *repository) ListGroups(ctx context.Context) ([]Group, error) {
	rows, err := r.db.Query(ctx, `SELECT `+groupColumns+` FROM article_groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *repository) GetGroup(ctx context.Context, id int64) (*Group, error) {
	g, err := scanGroup(r.db.QueryRow(ctx, `SELECT `+groupColumns+` FROM article_groups WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *repository) GetGroupByName(ctx context.Context, name string) (*Group, error) {
	g, err := scanGroup(r.db.QueryRow(ctx, `SELECT `+groupColumns+` FROM article_groups WHERE name = $1`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *repository) CreateGroup(ctx context.Context, group Group) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO article_groups (name, commission_percent, color, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		group.Name, group.CommissionPercent, group.Color, group.Description,
	).Scan(&id)
	if db.IsUniqueViolation(err) {
		return 0, fmt.Errorf("%w: group %q", ErrAlreadyExists, group.Name)
	}
	return id, err
}

func (r *repository) UpdateGroup(ctx context.Context, group Group) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE article_groups
		SET name = $2, commission_percent = $3, color = $4, description = $5, updated_at = NOW()
		WHERE id = $1`,
		group.ID, group.Name, group.CommissionPercent, group.Color, group.Description,
	)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: group %q", ErrAlreadyExists, group.Name)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) DeleteGroup(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM article_groups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const articleColumns = `id, reference, description, unit, group_name, sale_price, purchase_price,
	margin_percent, margin_value, commission, created_at, updated_at`

func scanArticle(row pgx.Row) (Article, error) {
	var a Article
	err := row.Scan(
		&a.ID, &a.Reference, &a.Description, &a.Unit, &a.GroupName, &a.SalePrice, &a.PurchasePrice,
		&a.MarginPercent, &a.MarginValue, &a.Commission, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (r *repository) ListArticles(ctx context.Context, req ListArticlesRequest) ([]Article, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if req.Search != nil && *req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(reference ILIKE $%d OR description ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+*req.Search+"%")
		argPos++
	}
	if req.GroupName != nil && *req.GroupName != "" {
		conditions = append(conditions, fmt.Sprintf("group_name = $%d", argPos))
		args = append(args, *req.GroupName)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM articles "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM articles %s ORDER BY reference LIMIT $%d OFFSET $%d`,
		articleColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		articles = append(articles, a)
	}
	return articles, total, rows.Err()
}

func (r *repository) AllArticles(ctx context.Context) ([]Article, error) {
	rows, err := r.db.Query(ctx, `SELECT `+articleColumns+` FROM articles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (r *repository) GetArticle(ctx context.Context, id int64) (*Article, error) {
	a, err := scanArticle(r.db.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) GetArticleByReference(ctx context.Context, reference string) (*Article, error) {
	a, err := scanArticle(r.db.QueryRow(ctx, `SELECT `+articleColumns+` FROM articles WHERE reference = $1`, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) CreateArticle(ctx context.Context, a Article) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO articles (reference, description, unit, group_name, sale_price, purchase_price,
			margin_percent, margin_value, commission)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		a.Reference, a.Description, a.Unit, a.GroupName, a.SalePrice, a.PurchasePrice,
		a.MarginPercent, a.MarginValue, a.Commission,
	).Scan(&id)
	if db.IsUniqueViolation(err) {
		return 0, fmt.Errorf("%w: article reference %q", ErrAlreadyExists, a.Reference)
	}
	return id, err
}

func (r *repository) UpdateArticle(ctx context.Context, a Article) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE articles
		SET reference = $2, description = $3, unit = $4, group_name = $5, sale_price = $6,
			purchase_price = $7, margin_percent = $8, margin_value = $9, commission = $10,
			updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.Reference, a.Description, a.Unit, a.GroupName, a.SalePrice,
		a.PurchasePrice, a.MarginPercent, a.MarginValue, a.Commission,
	)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: article reference %q", ErrAlreadyExists, a.Reference)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateArticlePricing writes only the derived pricing columns.
func (r *repository) UpdateArticlePricing(ctx context.Context, a Article) error {
	_, err := r.db.Exec(ctx, `
		UPDATE articles
		SET margin_percent = $2, margin_value = $3, commission = $4, updated_at = NOW()
		WHERE id = $1`,
		a.ID, a.MarginPercent, a.MarginValue, a.Commission,
	)
	return err
}

func (r *repository) DeleteArticle(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
