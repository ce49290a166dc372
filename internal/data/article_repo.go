package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/beranamag/berana/internal/data/pgxutil"
	"github.com/beranamag/berana/internal/domain/model"
	apperrors "github.com/beranamag/berana/internal/errors"
)

var (
	// ErrArticleNotFound is returned when an article is not found.
	ErrArticleNotFound = errors.New("article not found")
	// ErrSlugExists is returned when attempting to create/update content with a duplicate slug.
	ErrSlugExists = errors.New("slug already exists")
)

const articleColumnsSQL = `id, slug, title_en, title_am, body_en, body_am, category,
	author_id, issue_id, status, published_at, created_at, updated_at`

// ArticleRepo provides database operations for articles.
type ArticleRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewArticleRepo creates a new ArticleRepo with real time provider.
func NewArticleRepo(db *sql.DB) *ArticleRepo {
	return &ArticleRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewArticleRepoWithTimeProvider creates a new ArticleRepo with a custom time provider.
func NewArticleRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ArticleRepo {
	return &ArticleRepo{DB: db, timeProvider: tp}
}

// Create inserts a new draft article.
func (r *ArticleRepo) Create(ctx context.Context, authorID string, req *model.CreateArticleRequest) (*model.Article, error) {
	if req == nil {
		return nil, errors.New("create article request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	var out model.Article
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO articles (id, slug, title_en, title_am, body_en, body_am, category, author_id, issue_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
			RETURNING `+articleColumnsSQL,
			uuid.NewString(), req.Slug, req.TitleEn, req.TitleAm, req.BodyEn, req.BodyAm,
			strings.TrimSpace(req.Category), authorID, req.IssueID, model.StatusDraft, now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Article])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, false)
	}
	return &out, nil
}

// GetByID retrieves an article by ID regardless of status.
func (r *ArticleRepo) GetByID(ctx context.Context, id string) (*model.Article, error) {
	return r.getByQuery(ctx, `SELECT `+articleColumnsSQL+` FROM articles WHERE id = $1`, id)
}

// GetBySlug retrieves a published article by slug.
func (r *ArticleRepo) GetBySlug(ctx context.Context, slug string) (*model.Article, error) {
	return r.getByQuery(ctx,
		`SELECT `+articleColumnsSQL+` FROM articles WHERE slug = $1 AND status = 'published'`,
		strings.ToLower(strings.TrimSpace(slug)))
}

// List retrieves articles with filters and pagination. The Q filter is a
// substring match on both title columns, delegated to ILIKE.
func (r *ArticleRepo) List(ctx context.Context, opts model.ContentListOptions) ([]*model.Article, error) {
	query, args := buildContentListQuery("articles", articleColumnsSQL, opts)

	var rowsOut []model.Article
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Article])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}

	res := make([]*model.Article, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Update updates fields of an article.
func (r *ArticleRepo) Update(ctx context.Context, id string, req model.UpdateArticleRequest) (*model.Article, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	setParts := make([]string, 0, 8)
	args := make([]any, 0, 10)
	nextIdx := func() int { return len(args) + 1 }

	appendSet := func(col string, v any) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", col, nextIdx()))
		args = append(args, v)
	}

	if req.Slug != nil {
		appendSet("slug", *req.Slug)
	}
	if req.TitleEn != nil {
		appendSet("title_en", *req.TitleEn)
	}
	if req.TitleAm != nil {
		appendSet("title_am", *req.TitleAm)
	}
	if req.BodyEn != nil {
		appendSet("body_en", *req.BodyEn)
	}
	if req.BodyAm != nil {
		appendSet("body_am", *req.BodyAm)
	}
	if req.Category != nil {
		appendSet("category", strings.TrimSpace(*req.Category))
	}
	if req.IssueID != nil {
		if strings.TrimSpace(*req.IssueID) == "" {
			setParts = append(setParts, "issue_id = NULL")
		} else {
			appendSet("issue_id", *req.IssueID)
		}
	}
	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}
	appendSet("updated_at", r.timeProvider.Now().UTC())

	args = append(args, id)
	query := "UPDATE articles SET " + strings.Join(setParts, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + articleColumnsSQL

	var out model.Article
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Article])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, true)
	}
	return &out, nil
}

// SetStatus transitions publication state. published_at is set when
// entering published and preserved otherwise.
func (r *ArticleRepo) SetStatus(ctx context.Context, id string, status model.ContentStatus) (*model.Article, error) {
	if !status.Valid() {
		return nil, errors.New("invalid content status")
	}
	now := r.timeProvider.Now().UTC()

	var out model.Article
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE articles
			SET status = $2,
			    published_at = CASE WHEN $2 = 'published' THEN $3 ELSE published_at END,
			    updated_at = $3
			WHERE id = $1
			RETURNING `+articleColumnsSQL,
			id, status, now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Article])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, true)
	}
	return &out, nil
}

// Delete deletes an article by ID.
func (r *ArticleRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM articles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete article: %w", err)
	}
	return rows > 0, nil
}

func (r *ArticleRepo) getByQuery(ctx context.Context, q string, args ...any) (*model.Article, error) {
	var article model.Article
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		article, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Article])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return &article, nil
}

func (r *ArticleRepo) mapWriteErr(err error, includeNotFound bool) error {
	if err == nil {
		return nil
	}
	if includeNotFound && errors.Is(err, pgx.ErrNoRows) {
		return ErrArticleNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrSlugExists
	}
	return apperrors.MapDBError(err)
}

// buildContentListQuery builds the shared SELECT for article/poem listings.
// Both tables expose the same filterable columns.
func buildContentListQuery(table, columns string, opts model.ContentListOptions) (string, []any) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := max(opts.Offset, 0)

	where := make([]string, 0, 4)
	args := make([]any, 0, 6)
	nextIdx := func() int { return len(args) + 1 }

	if opts.PublishedOnly {
		where = append(where, "status = 'published'")
	} else if opts.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", nextIdx()))
		args = append(args, *opts.Status)
	}
	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		q := "%" + strings.TrimSpace(*opts.Q) + "%"
		where = append(where, fmt.Sprintf("(title_en ILIKE $%d OR title_am ILIKE $%d)", nextIdx(), nextIdx()))
		args = append(args, q)
	}
	if opts.Lang != nil && opts.Lang.Valid() {
		// A row counts as available in a language when both its title and
		// body columns for that language are filled in.
		suffix := string(*opts.Lang)
		where = append(where, fmt.Sprintf("title_%s <> '' AND body_%s <> ''", suffix, suffix))
	}
	if opts.Category != nil && strings.TrimSpace(*opts.Category) != "" {
		where = append(where, fmt.Sprintf("category = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*opts.Category))
	}
	if opts.IssueID != nil && strings.TrimSpace(*opts.IssueID) != "" {
		where = append(where, fmt.Sprintf("issue_id = $%d", nextIdx()))
		args = append(args, *opts.IssueID)
	}

	query := "SELECT " + columns + " FROM " + table
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(nextIdx())
	args = append(args, limit)
	query += " OFFSET $" + strconv.Itoa(nextIdx())
	args = append(args, offset)

	return query, args
}
