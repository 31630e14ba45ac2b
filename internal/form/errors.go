package form

import (
	"errors"
	"fmt"
)

var (
	// ErrFormNotFound is returned when a form id resolves to nothing.
	ErrFormNotFound = errors.New("form not found")
	// ErrQuestionNotFound indicates a question id is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrResponseNotFound indicates a response id is invalid.
	ErrResponseNotFound = errors.New("response not found")
	// ErrFormNotAnswerable is returned when submitting to a form that is not
	// published and public.
	ErrFormNotAnswerable = errors.New("form not available")
	// ErrAttemptExhausted is returned when a respondent already submitted to a
	// single-attempt form. Not retryable without a policy change.
	ErrAttemptExhausted = errors.New("attempt-exhausted")
	// ErrConflict is the storage-level uniqueness violation for a duplicate
	// attempt. The orchestrator maps it to ErrAttemptExhausted.
	ErrConflict = errors.New("conflict")
	// ErrTimeLimitExceeded is returned when the submission arrives after the
	// form's time limit has elapsed.
	ErrTimeLimitExceeded = errors.New("time limit exceeded")
)

// Validation error codes, one per rejection class of the answer codec.
const (
	CodeMissingRequired = "missing_required"
	CodeUnknownOption   = "unknown_option"
	CodeOutOfRange      = "out_of_range"
	CodeMalformedGrid   = "malformed_grid"
	CodeBadFormat       = "bad_format"
	CodeBadType         = "bad_type"
	CodeUnknownQuestion = "unknown_question"
	CodeBadDefinition   = "bad_definition"
)

// ValidationError rejects one raw answer. It always names the offending
// question so callers can surface it next to the field.
type ValidationError struct {
	QuestionID string
	Code       string
	Msg        string
}

func (e *ValidationError) Error() string {
	if e.QuestionID == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("question %s: %s: %s", e.QuestionID, e.Code, e.Msg)
}

// IsValidation reports whether err is a codec rejection, unwrapping as needed.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
