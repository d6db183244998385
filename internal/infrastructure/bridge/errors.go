package bridge

import (
	"errors"

	"github.com/awr/backend/internal/domain/issuance"
)

// Outcome is how one worker run ended
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeFailure   Outcome = "failure"
	OutcomeTimeout   Outcome = "timeout"
)

// Code returns the error code reported for a non-success outcome
func (o Outcome) Code() string {
	switch o {
	case OutcomeCancelled:
		return issuance.CodeBridgeCancelled
	case OutcomeTimeout:
		return issuance.CodeBridgeTimeout
	case OutcomeSuccess:
		return ""
	default:
		return issuance.CodeBridgeFailure
	}
}

// Error describes a worker run that did not succeed
type Error struct {
	Outcome  Outcome
	Code     string
	Message  string
	ExitCode int
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an Error whose code follows the outcome
func NewError(outcome Outcome, message string, exitCode int, cause error) *Error {
	return &Error{
		Outcome:  outcome,
		Code:     outcome.Code(),
		Message:  message,
		ExitCode: exitCode,
		Cause:    cause,
	}
}

// OutcomeOf returns the outcome carried by err, or success when err is nil
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	var be *Error
	if errors.As(err, &be) {
		return be.Outcome
	}
	return OutcomeFailure
}
