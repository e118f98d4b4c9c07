package domain

import (
	"errors"
	"strings"
)

var (
	// ErrValidation indicates malformed input. Nothing was changed.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates the caller does not hold the role the operation requires.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrOutOfOrder indicates an attempt to complete or approve a milestone other
	// than the current one, or to approve one that is not completed.
	ErrOutOfOrder = errors.New("milestone out of order")

	// ErrExceedsBudget indicates a deposit larger than the remaining budget headroom.
	ErrExceedsBudget = errors.New("deposit exceeds total budget")

	// ErrInsufficientEscrow indicates a release larger than the undisbursed escrow.
	ErrInsufficientEscrow = errors.New("insufficient escrow")

	// ErrInactiveProject indicates a mutation on a completed or withdrawn project.
	ErrInactiveProject = errors.New("project is not active")

	// ErrTransferFailure indicates the recipient could not be paid. The ledger is unchanged.
	ErrTransferFailure = errors.New("fund transfer failed")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
)

// ErrorKind names an error category for transports that map failures to codes.
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindOutOfOrder         ErrorKind = "out_of_order"
	KindExceedsBudget      ErrorKind = "exceeds_budget"
	KindInsufficientEscrow ErrorKind = "insufficient_escrow"
	KindInactiveProject    ErrorKind = "inactive_project"
	KindTransferFailure    ErrorKind = "transfer_failure"
	KindNotFound           ErrorKind = "not_found"
	KindInternal           ErrorKind = "internal"
)

var kindSentinels = []struct {
	kind ErrorKind
	err  error
}{
	{KindValidation, ErrValidation},
	{KindUnauthorized, ErrUnauthorized},
	{KindOutOfOrder, ErrOutOfOrder},
	{KindExceedsBudget, ErrExceedsBudget},
	{KindInsufficientEscrow, ErrInsufficientEscrow},
	{KindInactiveProject, ErrInactiveProject},
	{KindTransferFailure, ErrTransferFailure},
	{KindNotFound, ErrNotFound},
}

// KindOf classifies err. Errors outside the business taxonomy are KindInternal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, ks := range kindSentinels {
		if errors.Is(err, ks.err) {
			return ks.kind
		}
	}
	return KindInternal
}

// ValidationError collects every problem found in a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return ErrValidation.Error()
	}
	return ErrValidation.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add records a problem.
func (e *ValidationError) Add(problem string) {
	e.Problems = append(e.Problems, problem)
}

// OrNil returns e if any problems were recorded, nil otherwise.
func (e *ValidationError) OrNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}
