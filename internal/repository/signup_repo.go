package repository

import (
	"context"
	"time"

	"github.com/rootfleet/waitlist/internal/domain"
)

// SignupRepository defines all persistence operations for waitlist rows.
// The pgx implementation is in pg_signup_repo.go.
// Tests use a hand-written mock (mock_signup_repo.go).
//
// The email-delivery fields are only ever changed through TryClaim and the
// Mark* methods. TryClaim is the one conditional write that serialises
// concurrent email jobs for the same address.
type SignupRepository interface {
	Create(ctx context.Context, s *domain.Signup) error
	GetByEmail(ctx context.Context, email string) (*domain.Signup, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error

	// TryClaim moves the row to processing only if its status is NULL or
	// pending and no provider message id is stored. It returns the number of
	// rows changed (0 or 1).
	TryClaim(ctx context.Context, email string, source domain.EmailSource) (int64, error)
	MarkSkipped(ctx context.Context, email string, source domain.EmailSource, reason string) error
	MarkSent(ctx context.Context, email string, source domain.EmailSource, providerMessageID string, sentAt time.Time) error
	MarkRetry(ctx context.Context, email string, source domain.EmailSource, attempts int, nextAttemptAt time.Time, errMsg string) error
	MarkFailed(ctx context.Context, email string, source domain.EmailSource, attempts int, errMsg string) error
	GetAttempts(ctx context.Context, email string) (int, error)

	// FindDueRetries lists pending rows whose next attempt time has passed.
	FindDueRetries(ctx context.Context, now time.Time, limit int) ([]*domain.Signup, error)
	// ReleaseRetry clears next_email_attempt_at if it still equals dueAt and
	// the row is still pending. It reports whether the row was released.
	ReleaseRetry(ctx context.Context, email string, dueAt time.Time) (bool, error)
	// ScheduleEmail sets next_email_attempt_at on a pending row that has no
	// due time yet, handing it to the retry sweeper. It reports whether the
	// row was scheduled.
	ScheduleEmail(ctx context.Context, email string, at time.Time) (bool, error)
}
