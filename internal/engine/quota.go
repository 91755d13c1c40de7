package engine

import (
	"errors"
	"fmt"
)

// QuotaEnforcer counts the ticks run on behalf of one external call and
// enforces a maximum.
//
// One enforcer is opened per commit token. A commit normally costs one tick;
// re-runs happen when state moves during a tick (a player committing from
// inside its handler, a rule handler mutating state). The quota bounds that
// loop so a ruleset that never settles fails the call instead of spinning.
type QuotaEnforcer struct {
	maxTicks int
	current  int
}

// NewQuotaEnforcer creates a quota enforcer with the given limit.
func NewQuotaEnforcer(maxTicks int) *QuotaEnforcer {
	return &QuotaEnforcer{maxTicks: maxTicks}
}

// Check counts one tick and validates against the limit.
// Returns TickQuotaError once the count exceeds the limit.
func (q *QuotaEnforcer) Check(token string) error {
	q.current++
	if q.current > q.maxTicks {
		return &TickQuotaError{
			Token: token,
			Ticks: q.current,
			Limit: q.maxTicks,
		}
	}
	return nil
}

// Current returns the current tick count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxTicks returns the limit.
func (q *QuotaEnforcer) MaxTicks() int {
	return q.maxTicks
}

// TickQuotaError is returned when one external call exceeds the tick quota.
// It matches ErrTickQuotaExceeded under errors.Is.
type TickQuotaError struct {
	Token string
	Ticks int
	Limit int
}

// Error implements the error interface.
func (e *TickQuotaError) Error() string {
	return fmt.Sprintf("%s: commit %s ran %d ticks > %d limit",
		ErrCodeTickQuotaExceeded, e.Token, e.Ticks, e.Limit)
}

// Is matches ErrTickQuotaExceeded.
func (e *TickQuotaError) Is(target error) bool {
	return target == ErrTickQuotaExceeded
}

// As lets Code() see the quota error as a RuntimeError.
func (e *TickQuotaError) As(target any) bool {
	re, ok := target.(**RuntimeError)
	if !ok {
		return false
	}
	*re = &RuntimeError{
		Code:    ErrCodeTickQuotaExceeded,
		Message: e.Error(),
		Token:   e.Token,
	}
	return true
}

// IsTickQuotaError returns true if err is a TickQuotaError.
func IsTickQuotaError(err error) bool {
	var qe *TickQuotaError
	return errors.As(err, &qe)
}
