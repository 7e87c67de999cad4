// Package toolloop implements the bounded tool-use loop shared by
// specialist and lead agents (spec §3, C3): repeatedly call the
// provider, dispatch any requested tools, and feed results back until
// the model stops requesting tools or a designated submission tool is
// called.
package toolloop

import (
	"context"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/provider"
)

// Tool is a single callable the loop can dispatch to. Arguments arrive
// as the raw JSON object the model produced; Execute is responsible
// for its own unmarshalling and must never panic on malformed input.
type Tool interface {
	Name() string
	Description() string
	InputSchema() string // JSON Schema object, as a raw string
	Execute(ctx context.Context, argumentsJSON string) (string, error)
}

// Definition converts a Tool into the provider-facing ToolDefinition.
func Definition(t Tool) provider.ToolDefinition {
	return provider.ToolDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: t.InputSchema(),
	}
}

// ResultKind distinguishes the three ways a loop can end.
type ResultKind int

const (
	// ResultText means the loop ended because the model produced a
	// final answer with no further tool calls (StopEndTurn).
	ResultText ResultKind = iota
	// ResultSubmission means the model called the designated
	// submission tool; Submission holds its raw arguments.
	ResultSubmission
	// ResultExhausted means the loop ran opts.MaxTurns round-trips
	// without the model submitting or ending on its own — a null
	// result per spec §3's loop-termination contract, not a text
	// answer to surface to the user.
	ResultExhausted
)

// LoopResult is a tagged union over the loop's three exit shapes. Kind
// determines which field is populated — this mirrors the
// mutually-exclusive outcomes described in spec §9's design note,
// rather than using a mutable "submitted" flag plus a separate text
// field that could both be set at once.
type LoopResult struct {
	Kind ResultKind
	// Text holds the model's final answer when Kind == ResultText, or
	// the last assistant text seen before exhaustion when Kind ==
	// ResultExhausted (diagnostic only — callers must not surface it
	// as the turn's answer).
	Text       string
	Submission string // raw JSON arguments, populated when Kind == ResultSubmission
}
