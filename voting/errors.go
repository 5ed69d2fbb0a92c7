package voting

import (
	"errors"
	"fmt"
)

var ErrDuplicateVote = errors.New("a vote has already been cast for this position")
var ErrElectionNotOpen = errors.New("election is not open for voting")
var ErrNotEligible = errors.New("caller is not eligible to vote")
var ErrForbidden = errors.New("operation requires administrator privileges")
var ErrNotFound = errors.New("resource not found")
var ErrResultsNotAvailable = errors.New("results are not available")

// ValidationError carries the specific reason a submission was rejected.
// Reasons are always safe to surface to the caller.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a submission validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
