package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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
	// ErrSubscriberNotFound is returned when a subscriber is not found.
	ErrSubscriberNotFound = errors.New("subscriber not found")
	// ErrAlreadySubscribed is returned on a duplicate subscription.
	ErrAlreadySubscribed = errors.New("email already subscribed")
)

const subscriberColumnsSQL = `id, email, confirmed, unsubscribe_token, created_at`

// SubscriberRepo provides database operations for newsletter subscribers.
type SubscriberRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewSubscriberRepo creates a new SubscriberRepo with real time provider.
func NewSubscriberRepo(db *sql.DB) *SubscriberRepo {
	return &SubscriberRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewSubscriberRepoWithTimeProvider creates a new SubscriberRepo with a custom time provider.
func NewSubscriberRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *SubscriberRepo {
	return &SubscriberRepo{DB: db, timeProvider: tp}
}

// Create inserts a new subscriber with a fresh unsubscribe token.
func (r *SubscriberRepo) Create(ctx context.Context, email string) (*model.Subscriber, error) {
	normalized, err := model.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	var out model.Subscriber
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO subscribers (id, email, confirmed, unsubscribe_token, created_at)
			VALUES ($1, $2, TRUE, $3, $4)
			RETURNING `+subscriberColumnsSQL,
			uuid.NewString(), normalized, uuid.NewString(), now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Subscriber])
		return err
	}); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrAlreadySubscribed
		}
		return nil, fmt.Errorf("failed to create subscriber: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}

// GetByEmail retrieves a subscriber by email. Lookup is case insensitive.
func (r *SubscriberRepo) GetByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	return r.getByQuery(ctx,
		`SELECT `+subscriberColumnsSQL+` FROM subscribers WHERE email = lower($1)`,
		strings.TrimSpace(email))
}

// DeleteByToken removes the subscriber holding the unsubscribe token.
func (r *SubscriberRepo) DeleteByToken(ctx context.Context, token string) (bool, error) {
	var rows int64
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM subscribers WHERE unsubscribe_token = $1`, token)
		if err != nil {
			return err
		}
		rows = ct.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to unsubscribe: %w", err)
	}
	return rows > 0, nil
}

// ListAll returns every confirmed subscriber, for newsletter broadcast.
func (r *SubscriberRepo) ListAll(ctx context.Context) ([]*model.Subscriber, error) {
	var rowsOut []model.Subscriber
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+subscriberColumnsSQL+` FROM subscribers WHERE confirmed = TRUE ORDER BY created_at ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Subscriber])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}

	res := make([]*model.Subscriber, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// ListRecent returns subscribers created after the cutoff, newest first.
// Used to synthesize back-office notifications.
func (r *SubscriberRepo) ListRecent(ctx context.Context, since time.Time, limit int) ([]*model.Subscriber, error) {
	if limit <= 0 {
		limit = 20
	}

	var rowsOut []model.Subscriber
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx,
			`SELECT `+subscriberColumnsSQL+` FROM subscribers
			 WHERE created_at >= $1
			 ORDER BY created_at DESC LIMIT $2`,
			since.UTC(), limit)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.Subscriber])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list recent subscribers: %w", err)
	}

	res := make([]*model.Subscriber, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Count returns the confirmed subscriber total.
func (r *SubscriberRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `SELECT count(*) FROM subscribers WHERE confirmed = TRUE`).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}
	return count, nil
}

func (r *SubscriberRepo) getByQuery(ctx context.Context, q string, args ...any) (*model.Subscriber, error) {
	var sub model.Subscriber
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		sub, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Subscriber])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("failed to get subscriber: %w", err)
	}
	return &sub, nil
}
