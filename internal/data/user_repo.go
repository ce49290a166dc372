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
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/beranamag/berana/internal/data/pgxutil"
	"github.com/beranamag/berana/internal/domain/model"
	apperrors "github.com/beranamag/berana/internal/errors"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailExists is returned when attempting to create a user with a duplicate email.
	ErrEmailExists = errors.New("email already exists")
)

const userColumnsSQL = `id, email, name, password_hash, role, active, verified,
	reset_token, reset_token_expires_at, created_at, updated_at`

// UserRepo provides database operations for users.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo with real time provider.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a new UserRepo with a custom time provider (useful for tests).
func NewUserRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: tp}
}

// Create inserts a new user. The caller supplies a pre-hashed password and
// a normalized (lowercased) email.
func (r *UserRepo) Create(ctx context.Context, user *model.User) (*model.User, error) {
	if user == nil {
		return nil, errors.New("user is required")
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.timeProvider.Now().UTC()

	var out model.User
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO users (id, email, name, password_hash, role, active, verified, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			RETURNING `+userColumnsSQL,
			user.ID,
			strings.ToLower(strings.TrimSpace(user.Email)),
			user.Name,
			user.PasswordHash,
			user.Role,
			user.Active,
			user.Verified,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, false)
	}
	return &out, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getByQuery(ctx, `SELECT `+userColumnsSQL+` FROM users WHERE id = $1`,
		"failed to get user by ID", id)
}

// GetByEmail retrieves a user by email. Comparison is case-insensitive;
// emails are stored lowercased.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getByQuery(ctx, `SELECT `+userColumnsSQL+` FROM users WHERE email = lower($1)`,
		"failed to get user by email", strings.TrimSpace(email))
}

// GetByResetToken retrieves the user owning an outstanding reset token.
func (r *UserRepo) GetByResetToken(ctx context.Context, token string) (*model.User, error) {
	return r.getByQuery(ctx, `SELECT `+userColumnsSQL+` FROM users WHERE reset_token = $1`,
		"failed to get user by reset token", token)
}

// List retrieves users with optional filters and pagination.
func (r *UserRepo) List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	where := make([]string, 0, 3)
	args := make([]any, 0, 5)
	nextIdx := func() int { return len(args) + 1 }

	if opts.Q != nil && strings.TrimSpace(*opts.Q) != "" {
		q := "%" + strings.TrimSpace(*opts.Q) + "%"
		where = append(where, fmt.Sprintf("(email ILIKE $%d OR name ILIKE $%d)", nextIdx(), nextIdx()))
		args = append(args, q)
	}
	if opts.Role != nil {
		where = append(where, fmt.Sprintf("role = $%d", nextIdx()))
		args = append(args, *opts.Role)
	}
	if opts.Active != nil {
		where = append(where, fmt.Sprintf("active = $%d", nextIdx()))
		args = append(args, *opts.Active)
	}

	query := `SELECT ` + userColumnsSQL + ` FROM users`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT $" + strconv.Itoa(nextIdx())
	args = append(args, limit)
	query += " OFFSET $" + strconv.Itoa(nextIdx())
	args = append(args, offset)

	var rowsOut []model.User
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	res := make([]*model.User, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Update applies administrative updates (name, role, active flag).
func (r *UserRepo) Update(ctx context.Context, id string, req model.UpdateUserRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	setParts := make([]string, 0, 4)
	args := make([]any, 0, 5)
	nextIdx := func() int { return len(args) + 1 }

	if req.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", nextIdx()))
		args = append(args, *req.Name)
	}
	if req.Role != nil {
		setParts = append(setParts, fmt.Sprintf("role = $%d", nextIdx()))
		args = append(args, *req.Role)
	}
	if req.Active != nil {
		setParts = append(setParts, fmt.Sprintf("active = $%d", nextIdx()))
		args = append(args, *req.Active)
	}
	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}
	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", nextIdx()))
	args = append(args, r.timeProvider.Now().UTC())

	args = append(args, id)
	query := "UPDATE users SET " + strings.Join(setParts, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + userColumnsSQL

	var out model.User
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, true)
	}
	return &out, nil
}

// SetPassword replaces the password hash and clears any outstanding reset token.
func (r *UserRepo) SetPassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, `
		UPDATE users
		SET password_hash = $2, reset_token = NULL, reset_token_expires_at = NULL, updated_at = $3
		WHERE id = $1`,
		id, passwordHash, r.timeProvider.Now().UTC())
}

// SetResetToken stores (or clears, when token is nil) the reset token pair.
func (r *UserRepo) SetResetToken(ctx context.Context, id string, token *string, expiresAt *time.Time) error {
	return r.exec(ctx, `
		UPDATE users
		SET reset_token = $2, reset_token_expires_at = $3, updated_at = $4
		WHERE id = $1`,
		id, token, expiresAt, r.timeProvider.Now().UTC())
}

// exec runs a single-row write and maps "zero rows affected" to ErrUserNotFound.
func (r *UserRepo) exec(ctx context.Context, query string, args ...any) error {
	var affected int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		affected = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return r.mapWriteErr(err, false)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// getByQuery executes a query expected to return a single user.
func (r *UserRepo) getByQuery(ctx context.Context, q, errMsg string, args ...any) (*model.User, error) {
	var user model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		user, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", errMsg, err)
	}
	return &user, nil
}

func (r *UserRepo) mapWriteErr(err error, includeNotFound bool) error {
	if err == nil {
		return nil
	}
	if includeNotFound && errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrEmailExists
	}
	return apperrors.MapDBError(err)
}
