package analysis

import "fmt"

// ErrorCode classifies pipeline failures.
type ErrorCode string

const (
	CodeInputTooShort ErrorCode = "input_too_short"
	CodeProvider      ErrorCode = "provider_error"
	CodeTransport     ErrorCode = "transport_error"
	CodeCache         ErrorCode = "cache_error"
)

// Error is a typed pipeline error. Only CodeInputTooShort and an exhausted
// transport chain ever reach the user; everything else is recovered
// internally.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// MinTextLength is the shortest input the pipeline will analyze. Anything
// below is rejected before any provider or channel work.
const MinTextLength = 10

// ErrInputTooShort is returned for inputs below MinTextLength.
var ErrInputTooShort = &Error{
	Code:    CodeInputTooShort,
	Message: "selected text is too short to analyze",
}
