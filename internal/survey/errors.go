package survey

import (
	"errors"
	"fmt"
)

var (
	ErrNotLoaded        = errors.New("survey catalog not loaded")
	ErrEmptyCatalog     = errors.New("survey catalog contains no questions")
	ErrMalformedPayload = errors.New("question payload is neither an array nor a known wrapper")
	ErrSessionDiscarded = errors.New("survey session was discarded")
)

// LoadError reports a catalog fetch or parse failure. The survey cannot start
// until a later Load succeeds.
type LoadError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *LoadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("load catalog: %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("load catalog: %s: %v", e.Op, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// InvalidPositionError is a caller bug: the target category or question does
// not exist in the loaded catalog.
type InvalidPositionError struct {
	CategoryKey   string
	QuestionIndex int
	QuestionID    string
	Reason        string
}

func (e *InvalidPositionError) Error() string {
	if e.QuestionID != "" {
		return fmt.Sprintf("invalid position %q/%q: %s", e.CategoryKey, e.QuestionID, e.Reason)
	}
	return fmt.Sprintf("invalid position %q[%d]: %s", e.CategoryKey, e.QuestionIndex, e.Reason)
}

// InvalidAnswerError is a caller bug: the value is outside [0,10] or not a number.
type InvalidAnswerError struct {
	Value  float64
	Reason string
}

func (e *InvalidAnswerError) Error() string {
	return fmt.Sprintf("invalid answer %v: %s", e.Value, e.Reason)
}

// SessionClosedError is returned when a mutation is attempted outside the
// answering phase.
type SessionClosedError struct {
	Op    string
	Phase Phase
}

func (e *SessionClosedError) Error() string {
	return fmt.Sprintf("%s rejected: session is %s", e.Op, e.Phase)
}

// ConfirmationRequiredError asks the caller to confirm a submission that still
// has unanswered questions.
type ConfirmationRequiredError struct {
	Unanswered int
}

func (e *ConfirmationRequiredError) Error() string {
	return fmt.Sprintf("%d questions are unanswered; confirmation required", e.Unanswered)
}

// SubmissionError reports that the submission sink rejected the result or was
// unreachable. Local answers and the computed result are kept.
type SubmissionError struct {
	StatusCode int
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("submit result: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("submit result: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

func IsContractViolation(err error) bool {
	var pe *InvalidPositionError
	var ae *InvalidAnswerError
	return errors.As(err, &pe) || errors.As(err, &ae)
}

func IsSessionClosed(err error) bool {
	var se *SessionClosedError
	return errors.As(err, &se)
}
