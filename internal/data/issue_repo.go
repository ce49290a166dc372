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
	// ErrIssueNotFound is returned when an issue is not found.
	ErrIssueNotFound = errors.New("issue not found")
	// ErrIssueNumberExists is returned when an issue number is already taken.
	ErrIssueNumberExists = errors.New("issue number already exists")
)

const issueColumnsSQL = `id, number, title_en, title_am, theme, cover_url,
	published, published_at, created_at, updated_at`

// IssueRepo provides database operations for magazine issues.
type IssueRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewIssueRepo creates a new IssueRepo with real time provider.
func NewIssueRepo(db *sql.DB) *IssueRepo {
	return &IssueRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewIssueRepoWithTimeProvider creates a new IssueRepo with a custom time provider.
func NewIssueRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *IssueRepo {
	return &IssueRepo{DB: db, timeProvider: tp}
}

// Create inserts a new unpublished issue.
func (r *IssueRepo) Create(ctx context.Context, req *model.CreateIssueRequest) (*model.Issue, error) {
	if req == nil {
		return nil, errors.New("create issue request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	var out model.Issue
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO issues (id, number, title_en, title_am, theme, cover_url, published, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $7)
			RETURNING `+issueColumnsSQL,
			uuid.NewString(), req.Number, req.TitleEn, req.TitleAm, strings.TrimSpace(req.Theme), req.CoverURL, now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Issue])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, false)
	}
	return &out, nil
}

// GetByID retrieves an issue by ID regardless of publication.
func (r *IssueRepo) GetByID(ctx context.Context, id string) (*model.Issue, error) {
	return r.getByQuery(ctx, `SELECT `+issueColumnsSQL+` FROM issues WHERE id = $1`, id)
}

// GetByNumber retrieves a published issue by its number.
func (r *IssueRepo) GetByNumber(ctx context.Context, number int) (*model.Issue, error) {
	return r.getByQuery(ctx,
		`SELECT `+issueColumnsSQL+` FROM issues WHERE number = $1 AND published = TRUE`, number)
}

// List retrieves issues newest-number-first with pagination.
func (r *IssueRepo) List(ctx context.Context, opts model.IssuesListOptions) ([]*model.Issue, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := max(opts.Offset, 0)

	where := make([]string, 0, 2)
	args := make([]any, 0, 3)
	nextIdx := func() int { return len(args) + 1 }

	if opts.PublishedOnly {
		where = append(where, "published = TRUE")
	}
	if opts.Theme != nil && strings.TrimSpace(*opts.Theme) != "" {
		where = append(where, fmt.Sprintf("theme = $%d", nextIdx()))
		args = append(args, strings.TrimSpace(*opts.Theme))
	}

	query := "SELECT " + issueColumnsSQL + " FROM issues"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY number DESC LIMIT $" + strconv.Itoa(nextIdx())
	args = append(args, limit)
	query += " OFFSET $" + strconv.Itoa(nextIdx())
	args = append(args, offset)

	var rowsOut []model.Issue
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Issue])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list issues: %w", err)
	}

	res := make([]*model.Issue, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Update updates fields of an issue.
func (r *IssueRepo) Update(ctx context.Context, id string, req model.UpdateIssueRequest) (*model.Issue, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	setParts := make([]string, 0, 6)
	args := make([]any, 0, 8)
	nextIdx := func() int { return len(args) + 1 }

	appendSet := func(col string, v any) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", col, nextIdx()))
		args = append(args, v)
	}

	if req.Number != nil {
		appendSet("number", *req.Number)
	}
	if req.TitleEn != nil {
		appendSet("title_en", *req.TitleEn)
	}
	if req.TitleAm != nil {
		appendSet("title_am", *req.TitleAm)
	}
	if req.Theme != nil {
		appendSet("theme", strings.TrimSpace(*req.Theme))
	}
	if req.CoverURL != nil {
		if strings.TrimSpace(*req.CoverURL) == "" {
			setParts = append(setParts, "cover_url = NULL")
		} else {
			appendSet("cover_url", *req.CoverURL)
		}
	}
	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}
	appendSet("updated_at", r.timeProvider.Now().UTC())

	args = append(args, id)
	query := "UPDATE issues SET " + strings.Join(setParts, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + issueColumnsSQL

	var out model.Issue
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Issue])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, true)
	}
	return &out, nil
}

// SetPublished flips publication state. published_at is stamped on the
// first publish and preserved afterwards.
func (r *IssueRepo) SetPublished(ctx context.Context, id string, published bool) (*model.Issue, error) {
	now := r.timeProvider.Now().UTC()

	var out model.Issue
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE issues
			SET published = $2,
			    published_at = CASE WHEN $2 AND published_at IS NULL THEN $3 ELSE published_at END,
			    updated_at = $3
			WHERE id = $1
			RETURNING `+issueColumnsSQL,
			id, published, now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Issue])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, true)
	}
	return &out, nil
}

// Delete deletes an issue by ID. Content referencing the issue keeps its
// rows; the foreign key is set null by the schema.
func (r *IssueRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM issues WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete issue: %w", err)
	}
	return rows > 0, nil
}

func (r *IssueRepo) getByQuery(ctx context.Context, q string, args ...any) (*model.Issue, error) {
	var issue model.Issue
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		issue, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Issue])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrIssueNotFound
		}
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return &issue, nil
}

func (r *IssueRepo) mapWriteErr(err error, includeNotFound bool) error {
	if err == nil {
		return nil
	}
	if includeNotFound && errors.Is(err, pgx.ErrNoRows) {
		return ErrIssueNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrIssueNumberExists
	}
	return apperrors.MapDBError(err)
}
