package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rootfleet/waitlist/internal/domain"
)

// MockSignupRepository is a hand-written, in-memory implementation of
// SignupRepository used in unit tests. No mock-generation library needed.
// TryClaim checks and flips the status under one lock, so it gives the same
// at-most-one-winner guarantee as the conditional UPDATE in PostgreSQL.
type MockSignupRepository struct {
	mu      sync.RWMutex
	signups map[string]*domain.Signup

	// Optional error overrides, set in tests to simulate failure paths.
	CreateErr      error
	TryClaimErr    error
	MarkSentErr    error
	MarkRetryErr   error
	MarkFailedErr  error
	MarkSkippedErr error
	GetAttemptsErr error
	FindDueErr     error
	ScheduleErr    error
	PingErr        error
}

func NewMockSignupRepository() *MockSignupRepository {
	return &MockSignupRepository{signups: make(map[string]*domain.Signup)}
}

func (m *MockSignupRepository) Create(_ context.Context, s *domain.Signup) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.signups[s.Email]; ok {
		return domain.ErrAlreadyJoined
	}
	clone := *s
	m.signups[s.Email] = &clone
	return nil
}

func (m *MockSignupRepository) GetByEmail(_ context.Context, email string) (*domain.Signup, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.signups[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (m *MockSignupRepository) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.signups)), nil
}

func (m *MockSignupRepository) Ping(_ context.Context) error {
	return m.PingErr
}

func (m *MockSignupRepository) TryClaim(_ context.Context, email string, source domain.EmailSource) (int64, error) {
	if m.TryClaimErr != nil {
		return 0, m.TryClaimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.signups[email]
	if !ok || s.ProviderMessageID != nil {
		return 0, nil
	}
	if s.EmailStatus != nil && *s.EmailStatus != domain.EmailPending {
		return 0, nil
	}
	s.EmailStatus = statusPtr(domain.EmailProcessing)
	s.EmailSource = &source
	return 1, nil
}

func (m *MockSignupRepository) MarkSkipped(_ context.Context, email string, source domain.EmailSource, reason string) error {
	if m.MarkSkippedErr != nil {
		return m.MarkSkippedErr
	}
	m.update(email, func(s *domain.Signup) {
		s.EmailStatus = statusPtr(domain.EmailSkipped)
		s.EmailError = &reason
		s.EmailSource = &source
	})
	return nil
}

func (m *MockSignupRepository) MarkSent(_ context.Context, email string, source domain.EmailSource, providerMessageID string, sentAt time.Time) error {
	if m.MarkSentErr != nil {
		return m.MarkSentErr
	}
	m.update(email, func(s *domain.Signup) {
		s.EmailStatus = statusPtr(domain.EmailSent)
		s.ProviderMessageID = &providerMessageID
		s.EmailError = nil
		s.EmailSentAt = &sentAt
		s.NextEmailAttemptAt = nil
		s.EmailSource = &source
	})
	return nil
}

func (m *MockSignupRepository) MarkRetry(_ context.Context, email string, source domain.EmailSource, attempts int, nextAttemptAt time.Time, errMsg string) error {
	if m.MarkRetryErr != nil {
		return m.MarkRetryErr
	}
	m.update(email, func(s *domain.Signup) {
		s.EmailStatus = statusPtr(domain.EmailPending)
		s.EmailAttempts = attempts
		s.NextEmailAttemptAt = &nextAttemptAt
		s.EmailError = &errMsg
		s.EmailSource = &source
	})
	return nil
}

func (m *MockSignupRepository) MarkFailed(_ context.Context, email string, source domain.EmailSource, attempts int, errMsg string) error {
	if m.MarkFailedErr != nil {
		return m.MarkFailedErr
	}
	m.update(email, func(s *domain.Signup) {
		s.EmailStatus = statusPtr(domain.EmailFailed)
		s.EmailAttempts = attempts
		s.NextEmailAttemptAt = nil
		s.EmailError = &errMsg
		s.EmailSource = &source
	})
	return nil
}

func (m *MockSignupRepository) GetAttempts(_ context.Context, email string) (int, error) {
	if m.GetAttemptsErr != nil {
		return 0, m.GetAttemptsErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.signups[email]; ok {
		return s.EmailAttempts, nil
	}
	return 0, nil
}

func (m *MockSignupRepository) FindDueRetries(_ context.Context, now time.Time, limit int) ([]*domain.Signup, error) {
	if m.FindDueErr != nil {
		return nil, m.FindDueErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var due []*domain.Signup
	for _, s := range m.signups {
		if s.EmailStatus == nil || *s.EmailStatus != domain.EmailPending || s.ProviderMessageID != nil {
			continue
		}
		if s.NextEmailAttemptAt == nil || s.NextEmailAttemptAt.After(now) {
			continue
		}
		clone := *s
		due = append(due, &clone)
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].NextEmailAttemptAt.Before(*due[j].NextEmailAttemptAt)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *MockSignupRepository) ReleaseRetry(_ context.Context, email string, dueAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.signups[email]
	if !ok || s.EmailStatus == nil || *s.EmailStatus != domain.EmailPending {
		return false, nil
	}
	if s.NextEmailAttemptAt == nil || !s.NextEmailAttemptAt.Equal(dueAt) {
		return false, nil
	}
	s.NextEmailAttemptAt = nil
	return true, nil
}

func (m *MockSignupRepository) ScheduleEmail(_ context.Context, email string, at time.Time) (bool, error) {
	if m.ScheduleErr != nil {
		return false, m.ScheduleErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.signups[email]
	if !ok || s.EmailStatus == nil || *s.EmailStatus != domain.EmailPending {
		return false, nil
	}
	if s.ProviderMessageID != nil || s.NextEmailAttemptAt != nil {
		return false, nil
	}
	at = at.UTC()
	s.NextEmailAttemptAt = &at
	return true, nil
}

// SetStatus forces a row into a given state. Test helper only.
func (m *MockSignupRepository) SetStatus(email string, status domain.EmailStatus) {
	m.update(email, func(s *domain.Signup) { s.EmailStatus = statusPtr(status) })
}

func (m *MockSignupRepository) update(email string, fn func(s *domain.Signup)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.signups[email]; ok {
		fn(s)
	}
}

func statusPtr(s domain.EmailStatus) *domain.EmailStatus { return &s }
