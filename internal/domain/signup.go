package domain

import (
	"regexp"
	"strings"
	"time"
)

// Role is the self-described role picked on the signup form.
type Role string

const (
	RoleFleetOwner Role = "fleet_owner"
	RoleOperations Role = "operations"
	RoleFleetStaff Role = "fleet_staff"
	RoleEngineer   Role = "engineer"
	RoleOther      Role = "other"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleFleetOwner, RoleOperations, RoleFleetStaff, RoleEngineer, RoleOther:
		return true
	}
	return false
}

// FleetSize is one of the fixed buckets offered on the signup form.
type FleetSize string

func (f FleetSize) IsValid() bool {
	switch f {
	case "1-5", "6-20", "21-100", "101-500", "500+":
		return true
	}
	return false
}

// EmailStatus tracks delivery of the confirmation email for one signup.
//
// processing is a transient claim state owned by the email job; a row is
// never left in it once a job execution completes.
type EmailStatus string

const (
	EmailPending    EmailStatus = "pending"
	EmailProcessing EmailStatus = "processing"
	EmailSent       EmailStatus = "sent"
	EmailSkipped    EmailStatus = "skipped"
	EmailFailed     EmailStatus = "failed"
)

// EmailSource records which invocation path last touched a row.
type EmailSource string

const (
	SourceTrigger EmailSource = "trigger"
	SourceCron    EmailSource = "cron"
)

func (s EmailSource) IsValid() bool {
	return s == SourceTrigger || s == SourceCron
}

// ParseEmailSource maps anything unrecognised to cron.
func ParseEmailSource(s string) EmailSource {
	if src := EmailSource(s); src.IsValid() {
		return src
	}
	return SourceCron
}

// Signup is one waitlist row. Email is the natural key.
type Signup struct {
	Email              string       `json:"email"`
	Role               Role         `json:"role"`
	FleetSize          FleetSize    `json:"fleet_size"`
	CompanyName        *string      `json:"company_name,omitempty"`
	IP                 *string      `json:"-"`
	UserAgent          *string      `json:"-"`
	EmailStatus        *EmailStatus `json:"email_status,omitempty"`
	EmailAttempts      int          `json:"email_attempts"`
	NextEmailAttemptAt *time.Time   `json:"next_email_attempt_at,omitempty"`
	EmailError         *string      `json:"email_error,omitempty"`
	ProviderMessageID  *string      `json:"provider_message_id,omitempty"`
	EmailSource        *EmailSource `json:"email_source,omitempty"`
	EmailSentAt        *time.Time   `json:"email_sent_at,omitempty"`
	CreatedAt          time.Time    `json:"created_at"`
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// JoinRequest is the inbound signup payload.
type JoinRequest struct {
	Email       string  `json:"email"`
	Role        string  `json:"role"`
	FleetSize   string  `json:"fleetSize"`
	CompanyName *string `json:"companyName"`
}

// Normalize trims every field, lowercases the email and turns a blank
// company name into nil.
func (r *JoinRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.Role = strings.TrimSpace(r.Role)
	r.FleetSize = strings.TrimSpace(r.FleetSize)
	if r.CompanyName != nil {
		name := strings.TrimSpace(*r.CompanyName)
		if name == "" {
			r.CompanyName = nil
		} else {
			r.CompanyName = &name
		}
	}
}

func (r *JoinRequest) Validate() error {
	if !emailPattern.MatchString(r.Email) {
		return ErrInvalidEmail
	}
	if !Role(r.Role).IsValid() {
		return ErrInvalidRole
	}
	if !FleetSize(r.FleetSize).IsValid() {
		return ErrInvalidFleetSize
	}
	if r.CompanyName != nil && len(*r.CompanyName) > 200 {
		return ErrInvalidCompanyName
	}
	return nil
}
