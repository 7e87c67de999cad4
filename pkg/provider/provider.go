// Package provider defines the pluggable boundaries the orchestration
// core calls out through: ChatProvider, StreamingChatProvider,
// StructuredChatProvider, and EmbeddingProvider (spec §6). The core
// never imports a concrete LLM SDK directly; it only depends on these
// interfaces, mirroring the teacher's pkg/agent.LLMClient boundary
// (adapted from a single channel-based Generate call to the four-way
// split spec §6 calls for).
package provider

import "context"

// Role identifies the speaker of a ConversationMessage.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationMessage is a single turn in a chat history passed to a
// ChatProvider.
type ConversationMessage struct {
	Role    Role
	Content []ContentBlock
}

// ContentBlockType discriminates the variants of ContentBlock.
type ContentBlockType string

const (
	ContentText       ContentBlockType = "text"
	ContentToolUse    ContentBlockType = "tool_use"
	ContentToolResult ContentBlockType = "tool_result"
)

// ContentBlock is a tagged union over the content a message can carry.
// Exactly the fields relevant to Type are meaningful.
type ContentBlock struct {
	Type ContentBlockType

	// Type == ContentText
	Text string

	// Type == ContentToolUse
	ToolUseID string
	ToolName  string
	ToolInput string // JSON

	// Type == ContentToolResult
	ToolResultForID string
	ToolResultText  string
	ToolResultError bool
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentText, Text: text}
}

// ToolResultBlock builds a tool_result content block.
func ToolResultBlock(toolUseID, text string, isError bool) ContentBlock {
	return ContentBlock{Type: ContentToolResult, ToolResultForID: toolUseID, ToolResultText: text, ToolResultError: isError}
}

// ToolDefinition describes a tool available to the model.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema string // JSON Schema
}

// ToolChoiceMode selects how strongly the model must use a tool.
type ToolChoiceMode string

const (
	ToolChoiceAuto ToolChoiceMode = "auto"
	ToolChoiceAny  ToolChoiceMode = "any"
	ToolChoiceName ToolChoiceMode = "name"
)

// ToolChoice is {'auto'} | {'any'} | {name: ...} per spec §4.3.
type ToolChoice struct {
	Mode ToolChoiceMode
	Name string // meaningful only when Mode == ToolChoiceName
}

// StopReason mirrors the provider's reported stop reason.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
)

// CompleteRequest is the input to ChatProvider.Complete.
type CompleteRequest struct {
	Model       string
	System      string
	Messages    []ConversationMessage
	Tools       []ToolDefinition
	ToolChoice  *ToolChoice
	MaxTokens   int
	Temperature *float64
}

// CompleteResponse is the output of ChatProvider.Complete.
type CompleteResponse struct {
	Content    []ContentBlock
	StopReason StopReason
}

// ChatProvider issues single-shot chat completions.
type ChatProvider interface {
	Complete(ctx context.Context, req CompleteRequest) (*CompleteResponse, error)
}

// StreamChunk is one increment of a streamed completion. Deltas are
// forwarded as-is; the caller (pkg/toolloop) is responsible for
// accumulating them into the full-text-so-far shape SSE needs (§4.9).
type StreamChunk struct {
	TextDelta string
	Done      bool
	Final     *CompleteResponse // non-nil only on the chunk where Done is true
}

// StreamingChatProvider issues token-streamed chat completions.
type StreamingChatProvider interface {
	Stream(ctx context.Context, req CompleteRequest) (<-chan StreamChunk, error)
}

// ParseRequest is the input to StructuredChatProvider.Parse.
type ParseRequest struct {
	Model    string
	Schema   string // JSON Schema the response must conform to
	System   string
	Messages []ConversationMessage
}

// StructuredChatProvider issues structured-output completions used by
// C5's LLM extraction step. Raw is the provider's raw JSON text before
// application-level repair (pkg/teamspec owns the repair logic).
type StructuredChatProvider interface {
	Parse(ctx context.Context, req ParseRequest) (raw string, err error)
}

// EmbeddingProvider computes an embedding vector for a chunk of text.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
