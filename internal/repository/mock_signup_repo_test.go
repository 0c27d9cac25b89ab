package repository_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rootfleet/waitlist/internal/domain"
	"github.com/rootfleet/waitlist/internal/repository"
)

func seed(t *testing.T, repo *repository.MockSignupRepository, email string) {
	t.Helper()
	if err := repo.Create(context.Background(), &domain.Signup{Email: email, Role: domain.RoleOther, FleetSize: "1-5"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestMockSignupRepository_ConcurrentClaim(t *testing.T) {
	repo := repository.NewMockSignupRepository()
	seed(t, repo, "a@b.com")

	const n = 50
	var wins atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := repo.TryClaim(context.Background(), "a@b.com", domain.SourceCron)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			wins.Add(got)
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
}

func TestMockSignupRepository_ClaimGuard(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		status domain.EmailStatus
		want   int64
	}{
		{"pending", domain.EmailPending, 1},
		{"processing", domain.EmailProcessing, 0},
		{"sent", domain.EmailSent, 0},
		{"skipped", domain.EmailSkipped, 0},
		{"failed", domain.EmailFailed, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repository.NewMockSignupRepository()
			seed(t, repo, "a@b.com")
			repo.SetStatus("a@b.com", tt.status)

			got, err := repo.TryClaim(ctx, "a@b.com", domain.SourceTrigger)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("want %d rows, got %d", tt.want, got)
			}
		})
	}
}

func TestMockSignupRepository_ClaimRequiresNoMessageID(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockSignupRepository()
	seed(t, repo, "a@b.com")

	if err := repo.MarkSent(ctx, "a@b.com", domain.SourceCron, "re_1", time.Now()); err != nil {
		t.Fatal(err)
	}
	// Even if the status were reset, a stored message id blocks the claim.
	repo.SetStatus("a@b.com", domain.EmailPending)

	got, err := repo.TryClaim(ctx, "a@b.com", domain.SourceCron)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Fatalf("expected claim to fail with a stored message id, got %d", got)
	}
}

func TestMockSignupRepository_DueRetries(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockSignupRepository()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, email := range []string{"late@b.com", "early@b.com", "future@b.com"} {
		seed(t, repo, email)
		offsets := []time.Duration{-time.Minute, -time.Hour, time.Minute}
		if err := repo.MarkRetry(ctx, email, domain.SourceCron, 1, now.Add(offsets[i]), "x"); err != nil {
			t.Fatal(err)
		}
	}

	due, err := repo.FindDueRetries(ctx, now, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 2 || due[0].Email != "early@b.com" || due[1].Email != "late@b.com" {
		t.Fatalf("unexpected due rows %+v", due)
	}

	ok, err := repo.ReleaseRetry(ctx, "early@b.com", now.Add(-time.Second))
	if err != nil || ok {
		t.Fatalf("release with a stale due time must not apply: ok=%v err=%v", ok, err)
	}
	ok, err = repo.ReleaseRetry(ctx, "early@b.com", *due[0].NextEmailAttemptAt)
	if err != nil || !ok {
		t.Fatalf("expected release: ok=%v err=%v", ok, err)
	}

	due, _ = repo.FindDueRetries(ctx, now, 10)
	if len(due) != 1 {
		t.Fatalf("expected one due row after release, got %d", len(due))
	}
}

func TestMockSignupRepository_ScheduleEmail(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMockSignupRepository()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	pending := domain.EmailPending
	if err := repo.Create(ctx, &domain.Signup{Email: "a@b.com", Role: domain.RoleOther, FleetSize: "1-5", EmailStatus: &pending}); err != nil {
		t.Fatal(err)
	}
	if due, _ := repo.FindDueRetries(ctx, now, 10); len(due) != 0 {
		t.Fatalf("fresh rows are not due, got %d", len(due))
	}

	ok, err := repo.ScheduleEmail(ctx, "a@b.com", now)
	if err != nil || !ok {
		t.Fatalf("expected schedule: ok=%v err=%v", ok, err)
	}
	due, _ := repo.FindDueRetries(ctx, now, 10)
	if len(due) != 1 || !due[0].NextEmailAttemptAt.Equal(now) {
		t.Fatalf("scheduled row must be due at %v, got %+v", now, due)
	}

	// An existing due time is never moved.
	if ok, _ := repo.ScheduleEmail(ctx, "a@b.com", now.Add(time.Hour)); ok {
		t.Fatal("a row that is already due must not be rescheduled")
	}

	seed(t, repo, "b@b.com")
	repo.SetStatus("b@b.com", domain.EmailProcessing)
	for _, email := range []string{"b@b.com", "ghost@b.com"} {
		if ok, _ := repo.ScheduleEmail(ctx, email, now); ok {
			t.Fatalf("%s must not be scheduled", email)
		}
	}
}
