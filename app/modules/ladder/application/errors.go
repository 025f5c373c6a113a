package ladderservice

import (
	"errors"
	"fmt"

	ladderdomain "github.com/Black-And-White-Club/acerank/app/modules/ladder/domain"
	ladderdb "github.com/Black-And-White-Club/acerank/app/modules/ladder/infrastructure/repositories"
)

var (
	// ErrNotFound is returned when a player, challenge or match does not exist.
	ErrNotFound = ladderdb.ErrNotFound

	// ErrConcurrencyConflict is returned when another request changed the
	// same challenge or match first.
	ErrConcurrencyConflict = errors.New("resource was modified concurrently")
)

// ValidationError reports a malformed or out-of-window request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// InvariantViolation reports an actor doing something only another participant may do.
type InvariantViolation struct {
	Message string
}

func (e *InvariantViolation) Error() string { return e.Message }

func forbidden(format string, args ...any) error {
	return &InvariantViolation{Message: fmt.Sprintf(format, args...)}
}

// EligibilityError carries a denied challenge decision.
type EligibilityError struct {
	Decision ladderdomain.EligibilityDecision
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("challenge not allowed: %s", e.Decision.Message)
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConcurrencyConflict, fmt.Sprintf(format, args...))
}
