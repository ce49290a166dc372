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

// ErrPoemNotFound is returned when a poem is not found.
var ErrPoemNotFound = errors.New("poem not found")

const poemColumnsSQL = `id, slug, title_en, title_am, body_en, body_am, translator,
	author_id, issue_id, status, published_at, created_at, updated_at`

// PoemRepo provides database operations for poems.
type PoemRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewPoemRepo creates a new PoemRepo with real time provider.
func NewPoemRepo(db *sql.DB) *PoemRepo {
	return &PoemRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewPoemRepoWithTimeProvider creates a new PoemRepo with a custom time provider.
func NewPoemRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *PoemRepo {
	return &PoemRepo{DB: db, timeProvider: tp}
}

// Create inserts a new draft poem.
func (r *PoemRepo) Create(ctx context.Context, authorID string, req *model.CreatePoemRequest) (*model.Poem, error) {
	if req == nil {
		return nil, errors.New("create poem request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	var out model.Poem
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO poems (id, slug, title_en, title_am, body_en, body_am, translator, author_id, issue_id, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
			RETURNING `+poemColumnsSQL,
			uuid.NewString(), req.Slug, req.TitleEn, req.TitleAm, req.BodyEn, req.BodyAm,
			req.Translator, authorID, req.IssueID, model.StatusDraft, now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Poem])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, false)
	}
	return &out, nil
}

// GetByID retrieves a poem by ID regardless of status.
func (r *PoemRepo) GetByID(ctx context.Context, id string) (*model.Poem, error) {
	return r.getByQuery(ctx, `SELECT `+poemColumnsSQL+` FROM poems WHERE id = $1`, id)
}

// GetBySlug retrieves a published poem by slug.
func (r *PoemRepo) GetBySlug(ctx context.Context, slug string) (*model.Poem, error) {
	return r.getByQuery(ctx,
		`SELECT `+poemColumnsSQL+` FROM poems WHERE slug = $1 AND status = 'published'`,
		strings.ToLower(strings.TrimSpace(slug)))
}

// List retrieves poems with filters and pagination.
func (r *PoemRepo) List(ctx context.Context, opts model.ContentListOptions) ([]*model.Poem, error) {
	query, args := buildContentListQuery("poems", poemColumnsSQL, opts)

	var rowsOut []model.Poem
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Poem])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list poems: %w", err)
	}

	res := make([]*model.Poem, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Update updates fields of a poem.
func (r *PoemRepo) Update(ctx context.Context, id string, req model.UpdatePoemRequest) (*model.Poem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	setParts := make([]string, 0, 9)
	args := make([]any, 0, 11)
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
	if req.Translator != nil {
		if strings.TrimSpace(*req.Translator) == "" {
			setParts = append(setParts, "translator = NULL")
		} else {
			appendSet("translator", *req.Translator)
		}
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
	query := "UPDATE poems SET " + strings.Join(setParts, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + poemColumnsSQL

	var out model.Poem
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Poem])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, true)
	}
	return &out, nil
}

// SetStatus transitions publication state.
func (r *PoemRepo) SetStatus(ctx context.Context, id string, status model.ContentStatus) (*model.Poem, error) {
	if !status.Valid() {
		return nil, errors.New("invalid content status")
	}
	now := r.timeProvider.Now().UTC()

	var out model.Poem
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE poems
			SET status = $2,
			    published_at = CASE WHEN $2 = 'published' THEN $3 ELSE published_at END,
			    updated_at = $3
			WHERE id = $1
			RETURNING `+poemColumnsSQL,
			id, status, now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Poem])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, true)
	}
	return &out, nil
}

// Delete deletes a poem by ID.
func (r *PoemRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM poems WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete poem: %w", err)
	}
	return rows > 0, nil
}

func (r *PoemRepo) getByQuery(ctx context.Context, q string, args ...any) (*model.Poem, error) {
	var poem model.Poem
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		poem, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Poem])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPoemNotFound
		}
		return nil, fmt.Errorf("failed to get poem: %w", err)
	}
	return &poem, nil
}

func (r *PoemRepo) mapWriteErr(err error, includeNotFound bool) error {
	if err == nil {
		return nil
	}
	if includeNotFound && errors.Is(err, pgx.ErrNoRows) {
		return ErrPoemNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrSlugExists
	}
	return apperrors.MapDBError(err)
}
