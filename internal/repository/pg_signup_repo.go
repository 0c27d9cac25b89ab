package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rootfleet/waitlist/internal/domain"
)

type pgSignupRepository struct {
	pool *pgxpool.Pool
}

// NewPgSignupRepository returns a SignupRepository backed by PostgreSQL.
func NewPgSignupRepository(pool *pgxpool.Pool) SignupRepository {
	return &pgSignupRepository{pool: pool}
}

const signupColumns = `email, role, fleet_size, company_name, ip, user_agent,
	       email_status, email_attempts, next_email_attempt_at, email_error,
	       provider_message_id, email_source, email_sent_at, created_at`

func (r *pgSignupRepository) Create(ctx context.Context, s *domain.Signup) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO waitlist
			(email, role, fleet_size, company_name, ip, user_agent,
			 email_status, email_attempts, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		s.Email, s.Role, s.FleetSize, s.CompanyName, s.IP, s.UserAgent,
		s.EmailStatus, s.EmailAttempts, s.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrAlreadyJoined
		}
		return fmt.Errorf("insert signup: %w", err)
	}
	return nil
}

func (r *pgSignupRepository) GetByEmail(ctx context.Context, email string) (*domain.Signup, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+signupColumns+` FROM waitlist WHERE email = $1`, email)

	s, err := scanSignup(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return s, err
}

func (r *pgSignupRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM waitlist`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count signups: %w", err)
	}
	return n, nil
}

func (r *pgSignupRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *pgSignupRepository) TryClaim(ctx context.Context, email string, source domain.EmailSource) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE waitlist
		SET email_status = 'processing', email_source = $1
		WHERE email = $2
		  AND (email_status IS NULL OR email_status = 'pending')
		  AND provider_message_id IS NULL`, source, email)
	if err != nil {
		return 0, fmt.Errorf("claim signup: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *pgSignupRepository) MarkSkipped(ctx context.Context, email string, source domain.EmailSource, reason string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE waitlist
		SET email_status = 'skipped', email_error = $1, email_source = $2
		WHERE email = $3`, reason, source, email)
	if err != nil {
		return fmt.Errorf("mark skipped: %w", err)
	}
	return nil
}

func (r *pgSignupRepository) MarkSent(ctx context.Context, email string, source domain.EmailSource, providerMessageID string, sentAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE waitlist
		SET email_status = 'sent', provider_message_id = $1, email_error = NULL,
		    email_sent_at = $2, next_email_attempt_at = NULL, email_source = $3
		WHERE email = $4`, providerMessageID, sentAt, source, email)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

func (r *pgSignupRepository) MarkRetry(ctx context.Context, email string, source domain.EmailSource, attempts int, nextAttemptAt time.Time, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE waitlist
		SET email_status = 'pending', email_attempts = $1, next_email_attempt_at = $2,
		    email_error = $3, email_source = $4
		WHERE email = $5`, attempts, nextAttemptAt, errMsg, source, email)
	if err != nil {
		return fmt.Errorf("mark retry: %w", err)
	}
	return nil
}

func (r *pgSignupRepository) MarkFailed(ctx context.Context, email string, source domain.EmailSource, attempts int, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE waitlist
		SET email_status = 'failed', email_attempts = $1, next_email_attempt_at = NULL,
		    email_error = $2, email_source = $3
		WHERE email = $4`, attempts, errMsg, source, email)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

func (r *pgSignupRepository) GetAttempts(ctx context.Context, email string) (int, error) {
	var attempts int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(email_attempts, 0) FROM waitlist WHERE email = $1`, email).Scan(&attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get attempts: %w", err)
	}
	return attempts, nil
}

func (r *pgSignupRepository) FindDueRetries(ctx context.Context, now time.Time, limit int) ([]*domain.Signup, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+signupColumns+`
		FROM waitlist
		WHERE email_status = 'pending'
		  AND provider_message_id IS NULL
		  AND next_email_attempt_at IS NOT NULL
		  AND next_email_attempt_at <= $1
		ORDER BY next_email_attempt_at ASC
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("find due retries: %w", err)
	}
	defer rows.Close()
	return scanSignups(rows)
}

func (r *pgSignupRepository) ReleaseRetry(ctx context.Context, email string, dueAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE waitlist
		SET next_email_attempt_at = NULL
		WHERE email = $1
		  AND email_status = 'pending'
		  AND next_email_attempt_at = $2`, email, dueAt)
	if err != nil {
		return false, fmt.Errorf("release retry: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgSignupRepository) ScheduleEmail(ctx context.Context, email string, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE waitlist
		SET next_email_attempt_at = $2
		WHERE email = $1
		  AND email_status = 'pending'
		  AND provider_message_id IS NULL
		  AND next_email_attempt_at IS NULL`, email, at)
	if err != nil {
		return false, fmt.Errorf("schedule email: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ---- helpers ----

// scanSignup reads a single waitlist row from any pgx row type.
func scanSignup(row pgx.Row) (*domain.Signup, error) {
	var s domain.Signup
	err := row.Scan(
		&s.Email, &s.Role, &s.FleetSize, &s.CompanyName, &s.IP, &s.UserAgent,
		&s.EmailStatus, &s.EmailAttempts, &s.NextEmailAttemptAt, &s.EmailError,
		&s.ProviderMessageID, &s.EmailSource, &s.EmailSentAt, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSignups(rows pgx.Rows) ([]*domain.Signup, error) {
	var result []*domain.Signup
	for rows.Next() {
		s, err := scanSignup(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
