package engine

import (
	"errors"
	"fmt"
	"strings"
)

// RuntimeError represents an error detected by the engine.
//
// Runtime errors are fatal to the calling operation only: the engine state
// before the failed call stays valid and later calls are served normally.
// Mutations already applied by a failed action or trigger are not rolled back.
//
// RuntimeError carries structured fields for diagnostics. Use errors.Is with
// the Err* sentinels, which match on Code.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Actor is the acting actor id, when known.
	Actor string

	// Choice is the choice id, when known.
	Choice string

	// Action is the action name, when known.
	Action string

	// Token is the commit token of the external call that failed.
	Token string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeQueryAttributeImmutable: assignment to a lazy (query) attribute.
	ErrCodeQueryAttributeImmutable RuntimeErrorCode = "QUERY_ATTRIBUTE_IMMUTABLE"

	// ErrCodeReservedAttribute: assignment to id or type.
	ErrCodeReservedAttribute RuntimeErrorCode = "RESERVED_ATTRIBUTE"

	// ErrCodeUnknownAction: lookup of an unregistered action.
	ErrCodeUnknownAction RuntimeErrorCode = "UNKNOWN_ACTION"

	// ErrCodeUnknownChoice: commit of a choice id absent from the current table.
	ErrCodeUnknownChoice RuntimeErrorCode = "UNKNOWN_CHOICE"

	// ErrCodeUnknownRule: lookup of an unregistered rule id.
	ErrCodeUnknownRule RuntimeErrorCode = "UNKNOWN_RULE"

	// ErrCodeForbiddenActor: the committing actor does not own the choice.
	ErrCodeForbiddenActor RuntimeErrorCode = "FORBIDDEN_ACTOR"

	// ErrCodeDuplicateTrigger: a trigger name is already registered.
	ErrCodeDuplicateTrigger RuntimeErrorCode = "DUPLICATE_TRIGGER"

	// ErrCodeTriggerDependencyMissing: a trigger is scoped to an unregistered action.
	ErrCodeTriggerDependencyMissing RuntimeErrorCode = "TRIGGER_DEPENDENCY_MISSING"

	// ErrCodeDuplicateAction: an action name is reused under DuplicateError.
	ErrCodeDuplicateAction RuntimeErrorCode = "DUPLICATE_ACTION"

	// ErrCodeDuplicateQuery: a query name is reused under DuplicateError.
	ErrCodeDuplicateQuery RuntimeErrorCode = "DUPLICATE_QUERY"

	// ErrCodeDuplicateRule: a rule id is already registered.
	ErrCodeDuplicateRule RuntimeErrorCode = "DUPLICATE_RULE"

	// ErrCodeDuplicateName: an entity name is already taken.
	ErrCodeDuplicateName RuntimeErrorCode = "DUPLICATE_NAME"

	// ErrCodeDuplicateActor: a player with the same actor id is registered.
	ErrCodeDuplicateActor RuntimeErrorCode = "DUPLICATE_ACTOR"

	// ErrCodeInvalidEntrypoint: an entrypoint or context has the wrong type.
	ErrCodeInvalidEntrypoint RuntimeErrorCode = "INVALID_ENTRYPOINT"

	// ErrCodeNotStarted: the operation needs a started engine.
	ErrCodeNotStarted RuntimeErrorCode = "NOT_STARTED"

	// ErrCodeAlreadyStarted: Start was called twice.
	ErrCodeAlreadyStarted RuntimeErrorCode = "ALREADY_STARTED"

	// ErrCodeTickQuotaExceeded: one external call ran too many ticks.
	ErrCodeTickQuotaExceeded RuntimeErrorCode = "TICK_QUOTA_EXCEEDED"

	// ErrCodeActionDepthExceeded: actions nested too deeply through triggers.
	ErrCodeActionDepthExceeded RuntimeErrorCode = "ACTION_DEPTH_EXCEEDED"
)

// Sentinels for errors.Is. They match any RuntimeError with the same code.
var (
	ErrQueryAttributeImmutable  = &RuntimeError{Code: ErrCodeQueryAttributeImmutable}
	ErrReservedAttribute        = &RuntimeError{Code: ErrCodeReservedAttribute}
	ErrUnknownAction            = &RuntimeError{Code: ErrCodeUnknownAction}
	ErrUnknownChoice            = &RuntimeError{Code: ErrCodeUnknownChoice}
	ErrUnknownRule              = &RuntimeError{Code: ErrCodeUnknownRule}
	ErrForbiddenActor           = &RuntimeError{Code: ErrCodeForbiddenActor}
	ErrDuplicateTrigger         = &RuntimeError{Code: ErrCodeDuplicateTrigger}
	ErrTriggerDependencyMissing = &RuntimeError{Code: ErrCodeTriggerDependencyMissing}
	ErrDuplicateAction          = &RuntimeError{Code: ErrCodeDuplicateAction}
	ErrDuplicateQuery           = &RuntimeError{Code: ErrCodeDuplicateQuery}
	ErrDuplicateRule            = &RuntimeError{Code: ErrCodeDuplicateRule}
	ErrDuplicateName            = &RuntimeError{Code: ErrCodeDuplicateName}
	ErrDuplicateActor           = &RuntimeError{Code: ErrCodeDuplicateActor}
	ErrInvalidEntrypoint        = &RuntimeError{Code: ErrCodeInvalidEntrypoint}
	ErrNotStarted               = &RuntimeError{Code: ErrCodeNotStarted}
	ErrAlreadyStarted           = &RuntimeError{Code: ErrCodeAlreadyStarted}
	ErrTickQuotaExceeded        = &RuntimeError{Code: ErrCodeTickQuotaExceeded}
	ErrActionDepthExceeded      = &RuntimeError{Code: ErrCodeActionDepthExceeded}
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}

	var attrs []string
	if e.Actor != "" {
		attrs = append(attrs, "actor="+e.Actor)
	}
	if e.Choice != "" {
		attrs = append(attrs, "choice="+e.Choice)
	}
	if e.Action != "" {
		attrs = append(attrs, "action="+e.Action)
	}
	if e.Token != "" {
		attrs = append(attrs, "token="+e.Token)
	}
	if len(attrs) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(attrs, ", "))
	}
	return b.String()
}

// Is reports whether target is a RuntimeError with the same code.
func (e *RuntimeError) Is(target error) bool {
	var re *RuntimeError
	if !errors.As(target, &re) {
		return false
	}
	return re.Code == e.Code
}

// Code extracts the RuntimeErrorCode from err, or "" if err is not a
// RuntimeError. Uses errors.As to handle wrapped errors.
func Code(err error) RuntimeErrorCode {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsGuardError returns true if err was raised by the recursion guard
// (tick quota or action depth).
func IsGuardError(err error) bool {
	switch Code(err) {
	case ErrCodeTickQuotaExceeded, ErrCodeActionDepthExceeded:
		return true
	}
	return false
}

func newError(code RuntimeErrorCode, format string, args ...any) *RuntimeError {
	return &RuntimeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewForbiddenActorError creates a RuntimeError for an out-of-turn commit.
func NewForbiddenActorError(actor, choice, owner string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeForbiddenActor,
		Message: "choice belongs to another actor",
		Actor:   actor,
		Choice:  choice,
		Details: map[string]string{"owner": owner},
	}
}

// NewActionDepthError creates a RuntimeError for runaway action nesting.
func NewActionDepthError(token, action string, depth int) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeActionDepthExceeded,
		Message: fmt.Sprintf("action nesting exceeded max depth (%d)", depth),
		Action:  action,
		Token:   token,
		Details: map[string]string{"max_depth": fmt.Sprintf("%d", depth)},
	}
}
