package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/beranamag/berana/internal/data/pgxutil"
	"github.com/beranamag/berana/internal/domain/model"
)

var (
	// ErrSubmissionNotFound is returned when a submission is not found.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrSubmissionAlreadyReviewed is returned when a non-pending submission is reviewed again.
	ErrSubmissionAlreadyReviewed = errors.New("submission already reviewed")
)

const submissionColumnsSQL = `id, submitter_name, submitter_email, kind, title, body,
	language, status, reviewed_by, reviewer_note, created_at, reviewed_at`

// SubmissionRepo provides database operations for reader submissions.
type SubmissionRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewSubmissionRepo creates a new SubmissionRepo with real time provider.
func NewSubmissionRepo(db *sql.DB) *SubmissionRepo {
	return &SubmissionRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewSubmissionRepoWithTimeProvider creates a new SubmissionRepo with a custom time provider.
func NewSubmissionRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *SubmissionRepo {
	return &SubmissionRepo{DB: db, timeProvider: tp}
}

// Create inserts a new pending submission.
func (r *SubmissionRepo) Create(ctx context.Context, req *model.CreateSubmissionRequest) (*model.Submission, error) {
	if req == nil {
		return nil, errors.New("create submission request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	var out model.Submission
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO submissions (id, submitter_name, submitter_email, kind, title, body, language, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING `+submissionColumnsSQL,
			uuid.NewString(), strings.TrimSpace(req.SubmitterName), req.SubmitterEmail,
			req.Kind, strings.TrimSpace(req.Title), req.Body, req.Language,
			model.SubmissionPending, now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Submission])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}
	return &out, nil
}

// GetByID retrieves a submission by ID.
func (r *SubmissionRepo) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	var sub model.Submission
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+submissionColumnsSQL+` FROM submissions WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()
		sub, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Submission])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return &sub, nil
}

// List retrieves submissions with filters and pagination, oldest pending first.
func (r *SubmissionRepo) List(ctx context.Context, opts model.SubmissionsListOptions) ([]*model.Submission, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := max(opts.Offset, 0)

	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	nextIdx := func() int { return len(args) + 1 }

	if opts.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", nextIdx()))
		args = append(args, *opts.Status)
	}
	if opts.Kind != nil {
		where = append(where, fmt.Sprintf("kind = $%d", nextIdx()))
		args = append(args, *opts.Kind)
	}

	query := "SELECT " + submissionColumnsSQL + " FROM submissions"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at ASC LIMIT $" + strconv.Itoa(nextIdx())
	args = append(args, limit)
	query += " OFFSET $" + strconv.Itoa(nextIdx())
	args = append(args, offset)

	var rowsOut []model.Submission
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Submission])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	res := make([]*model.Submission, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// ListRecent returns submissions created after the cutoff, newest first.
// Used to synthesize back-office notifications.
func (r *SubmissionRepo) ListRecent(ctx context.Context, since time.Time, limit int) ([]*model.Submission, error) {
	if limit <= 0 {
		limit = 20
	}

	var rowsOut []model.Submission
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+submissionColumnsSQL+` FROM submissions
			 WHERE created_at >= $1
			 ORDER BY created_at DESC LIMIT $2`,
			since.UTC(), limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Submission])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list recent submissions: %w", err)
	}

	res := make([]*model.Submission, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Review records an accept/reject decision on a pending submission.
// Only pending submissions can be reviewed; a second decision returns
// ErrSubmissionAlreadyReviewed.
func (r *SubmissionRepo) Review(ctx context.Context, id, reviewerID string, req model.ReviewSubmissionRequest) (*model.Submission, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := r.timeProvider.Now().UTC()

	var out model.Submission
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			UPDATE submissions
			SET status = $2, reviewed_by = $3, reviewed_at = $4, reviewer_note = $5
			WHERE id = $1 AND status = 'pending'
			RETURNING `+submissionColumnsSQL,
			id, req.Status, reviewerID, now, req.Note,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Submission])
		return err
	})
	if err == nil {
		return &out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to review submission: %w", err)
	}

	// Distinguish a missing row from a re-review of a decided one.
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrSubmissionAlreadyReviewed
}

// Delete deletes a submission by ID.
func (r *SubmissionRepo) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM submissions WHERE id = $1`, id)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete submission: %w", err)
	}
	return rows > 0, nil
}
