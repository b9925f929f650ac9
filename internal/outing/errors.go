package outing

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures crossing the plan entry point.
type ErrorCode string

const (
	CodeValidation         ErrorCode = "VALIDATION_ERROR"
	CodeUpstreamExtraction ErrorCode = "UPSTREAM_EXTRACTION_FAILED"
	CodeUpstreamCompletion ErrorCode = "UPSTREAM_COMPLETION_FAILED"
	CodeUnsupportedSubtask ErrorCode = "UNSUPPORTED_SUBTASK"
	CodePlannerFatal       ErrorCode = "PLANNER_FAILED"
)

// UnsupportedAgentMessage is the error text for a subtask with no agent.
const UnsupportedAgentMessage = "Unsupported agent type"

// Error is a coded failure. Its message is surfaced to callers verbatim.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NewValidationError(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

func NewExtractionError(source string, err error) *Error {
	return &Error{Code: CodeUpstreamExtraction, Message: fmt.Sprintf("%s extraction failed: %v", source, err), Err: err}
}

func NewCompletionError(message string, err error) *Error {
	return &Error{Code: CodeUpstreamCompletion, Message: message, Err: err}
}

func NewUnsupportedSubtaskError(name string) *Error {
	return &Error{Code: CodeUnsupportedSubtask, Message: UnsupportedAgentMessage, Err: fmt.Errorf("no agent registered for %q", name)}
}

func NewPlannerError(message string, err error) *Error {
	return &Error{Code: CodePlannerFatal, Message: message, Err: err}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func IsValidation(err error) bool   { return CodeOf(err) == CodeValidation }
func IsPlannerFatal(err error) bool { return CodeOf(err) == CodePlannerFatal }
