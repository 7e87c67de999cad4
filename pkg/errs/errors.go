// Package errs defines the error kinds shared across the orchestration
// core: sentinel errors for kinds that carry no extra data, and typed
// errors for kinds that do.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderError is returned when an LLM or embedding call fails.
	ErrProviderError = errors.New("provider call failed")

	// ErrStructuredParseError is returned when structured-output JSON
	// repair fails after the fallback path.
	ErrStructuredParseError = errors.New("structured output could not be parsed")

	// ErrTeamExtractionFailed is returned when both the LLM and regex
	// extraction paths yield zero team members.
	ErrTeamExtractionFailed = errors.New("team extraction failed: no members found")

	// ErrKbNotFound is returned when a knowledge document does not exist.
	ErrKbNotFound = errors.New("knowledge document not found")

	// ErrStatePersistError is returned when orchestration state could
	// not be upserted or read.
	ErrStatePersistError = errors.New("orchestration state persistence failed")

	// ErrOrchestrationCanceled is returned when a cancellation signal
	// fires mid-turn.
	ErrOrchestrationCanceled = errors.New("orchestration canceled")

	// ErrFatalBug is returned when an internal invariant is violated.
	ErrFatalBug = errors.New("internal invariant violated")

	// ErrTurnInProgress is returned when a turn is submitted for a
	// conversation that already has one in flight (spec §5's
	// one-turn-per-conversation concurrency gate).
	ErrTurnInProgress = errors.New("a turn is already in progress for this conversation")

	// ErrToolLoopExhausted is returned when an agent tool loop runs out
	// of turns without the model ending its turn or submitting, per
	// spec §4.3's "exhausted maxTurns returns null result" contract.
	ErrToolLoopExhausted = errors.New("agent tool loop exhausted max turns without a result")
)

// KbInvalidInput is returned when a KB document is saved with an empty
// title or content.
type KbInvalidInput struct {
	Field   string
	Message string
}

func (e *KbInvalidInput) Error() string {
	return fmt.Sprintf("invalid knowledge document field %q: %s", e.Field, e.Message)
}

// NewKbInvalidInput builds a KbInvalidInput error.
func NewKbInvalidInput(field, message string) error {
	return &KbInvalidInput{Field: field, Message: message}
}

// IsKbInvalidInput reports whether err is a KbInvalidInput.
func IsKbInvalidInput(err error) bool {
	var e *KbInvalidInput
	return errors.As(err, &e)
}

// PolicyError is returned for inbound validation failures, e.g. a
// missing required field on a dispatch request.
type PolicyError struct {
	Field   string
	Message string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("policy violation on field %q: %s", e.Field, e.Message)
}

// NewPolicyError builds a PolicyError.
func NewPolicyError(field, message string) error {
	return &PolicyError{Field: field, Message: message}
}

// IsPolicyError reports whether err is a PolicyError.
func IsPolicyError(err error) bool {
	var e *PolicyError
	return errors.As(err, &e)
}
