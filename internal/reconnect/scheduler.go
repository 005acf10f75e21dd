// Package reconnect implements the exponential-backoff reconnect scheduler.
// Grounded on the teacher's cron retry backoff shape (config struct + pure
// backoff function), but the growth law is exact and jitter-free per the
// connection engine's contract, unlike the teacher's jittered retries.
package reconnect

import "time"

const (
	MaxAttempts = 10
	BaseDelay   = time.Second
	MaxDelay    = 10 * time.Second
)

// Delay returns the backoff delay before the given 1-indexed attempt:
// min(base * 2^(attempt-1), max). attempt must be >= 1.
func Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= MaxDelay {
			return MaxDelay
		}
	}
	if d > MaxDelay {
		return MaxDelay
	}
	return d
}

// Outcome is what the scheduler decided to do on a transport close.
type Outcome int

const (
	// OutcomeStop means there is no target URL; the caller should settle
	// into Disconnected.
	OutcomeStop Outcome = iota
	// OutcomeExhausted means the attempt cap was reached; the caller
	// should transition to Error.
	OutcomeExhausted
	// OutcomeScheduled means a reconnect attempt was armed; Attempt and
	// Delay describe it.
	OutcomeScheduled
)

// Decide implements spec.md §4.F's decision table for one transport-close
// event. hasTarget reports whether a target URL is currently remembered;
// priorAttempt is the attempt count before this decision.
func Decide(hasTarget bool, priorAttempt int) (outcome Outcome, nextAttempt int, delay time.Duration) {
	if !hasTarget {
		return OutcomeStop, priorAttempt, 0
	}
	if priorAttempt >= MaxAttempts {
		return OutcomeExhausted, priorAttempt, 0
	}
	next := priorAttempt + 1
	return OutcomeScheduled, next, Delay(next)
}
