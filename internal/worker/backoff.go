package worker

import "time"

const (
	// MaxEmailAttempts is the failure count at which a row becomes terminal.
	MaxEmailAttempts = 5
	// MaxErrorLength bounds the diagnostic stored in email_error.
	MaxErrorLength = 300

	maxBackoff = 60 * time.Minute
)

// Backoff returns the delay before the next attempt, where attempts is the
// failure count after incrementing:
//
//	attempt 1 → 1 min
//	attempt 2 → 2 min
//	attempt 3 → 4 min
//	attempt 4 → 8 min
//	...       → capped at 60 min
func Backoff(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	// 2^6 minutes already exceeds the cap; stop shifting before it overflows.
	if attempts > 7 {
		return maxBackoff
	}
	d := time.Duration(1<<(attempts-1)) * time.Minute
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// NextAttemptAt is now plus Backoff(attempts), in UTC at whole-second precision.
func NextAttemptAt(now time.Time, attempts int) time.Time {
	return now.Add(Backoff(attempts)).UTC().Truncate(time.Second)
}
