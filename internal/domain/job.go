package domain

import "time"

// Job is the message placed on the work queue for one confirmation email.
// It carries the signup's natural key plus the denormalized fields needed to
// render the email, so the job never has to read the row before claiming it.
type Job struct {
	RequestID   string      `json:"rid"`
	Email       string      `json:"email"`
	Role        string      `json:"role"`
	FleetSize   string      `json:"fleetSize"`
	CompanyName *string     `json:"companyName"`
	Source      EmailSource `json:"emailSource,omitempty"`
}

// JobStatus is the outcome of one Claim-and-Send execution.
type JobStatus string

const (
	JobInvalid      JobStatus = "invalid_job"
	JobClaimMissed  JobStatus = "skip_not_pending"
	JobSkipped      JobStatus = "skipped"
	JobSent         JobStatus = "sent"
	JobPendingRetry JobStatus = "pending_retry"
	JobFailed       JobStatus = "failed"
)

// JobResult is returned for every expected outcome. Infrastructure failures
// (store unavailable) are reported as an error instead.
type JobResult struct {
	RequestID         string        `json:"rid"`
	Status            JobStatus     `json:"status"`
	Source            EmailSource   `json:"emailSource,omitempty"`
	Attempts          int           `json:"attempts,omitempty"`
	NextAttemptAt     *time.Time    `json:"nextAttemptAt,omitempty"`
	ProviderMessageID string        `json:"providerMessageId,omitempty"`
	TotalDuration     time.Duration `json:"-"`
}

// DrainResult summarises one drain invocation. Remaining is nil when the
// queue length could not be measured.
type DrainResult struct {
	Processed int         `json:"processed"`
	Failed    int         `json:"failed"`
	Remaining *int64      `json:"remaining"`
	Source    EmailSource `json:"source"`
}
