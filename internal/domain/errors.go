package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyJoined      = errors.New("email is already on the waitlist")
	ErrInvalidEmail       = errors.New("please enter a valid email")
	ErrInvalidRole        = errors.New("please select a valid role")
	ErrInvalidFleetSize   = errors.New("please select a valid fleet size")
	ErrInvalidCompanyName = errors.New("company name must be at most 200 characters")
	ErrQueueFull          = errors.New("queue is at capacity, try again later")
)
