package reconciliation

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrNoInvoiceItems  = errors.New("run has no invoice items")
	ErrVersionConflict = errors.New("run was modified concurrently")
	ErrRunBusy         = errors.New("matching already in progress for run")
	ErrMatchesStale    = errors.New("run has invoice items without matches")
)

// ValidationError reports malformed caller input. Nothing is persisted when
// one is returned.
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

// PersistenceError wraps a repository failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a caller input error, including a
// missing run or a run with nothing to match.
func IsValidation(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoInvoiceItems)
}

// persistence wraps err unless it already carries a meaning callers branch on.
func persistence(op string, err error) error {
	if IsValidation(err) || errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrRunBusy) {
		return err
	}

	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}

	return &PersistenceError{Op: op, Err: err}
}
