package toolloop

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/provider"
)

// Options configures a single Run/RunStreaming invocation.
type Options struct {
	Model          string
	System         string
	Tools          []Tool
	ToolChoice     *provider.ToolChoice
	MaxTokens      int
	Temperature    *float64
	MaxTurns       int // bounds the number of provider round-trips; spec default 10
	SubmissionTool string
}

// systemPrompt returns opts.System augmented with tool-usage
// instructions when tools are present, per spec §4.3 ("When non-empty,
// tool usage instructions are appended to the system prompt
// automatically, plus 'you must eventually call <submissionToolName>'
// if set").
func (o Options) systemPrompt() string {
	if len(o.Tools) == 0 {
		return o.System
	}
	system := o.System + "\n\nYou have tools available. Call them as needed to complete the task."
	if o.SubmissionTool != "" {
		system += fmt.Sprintf(" You must eventually call %s to submit your final result.", o.SubmissionTool)
	}
	return system
}

// strictToolChoice reports whether opts.ToolChoice forces tool use
// (any or a named tool), per spec §4.3's re-prompt-on-drift rule.
func (o Options) strictToolChoice() bool {
	return o.ToolChoice != nil && (o.ToolChoice.Mode == provider.ToolChoiceAny || o.ToolChoice.Mode == provider.ToolChoiceName)
}

// demandSubmission is the user-role message injected when the model
// ends its turn without calling the submission tool despite a strict
// toolChoice (spec §4.3).
func (o Options) demandSubmission() provider.ConversationMessage {
	return provider.ConversationMessage{
		Role:    provider.RoleUser,
		Content: []provider.ContentBlock{provider.TextBlock(fmt.Sprintf("You must call %s to submit your final result.", o.SubmissionTool))},
	}
}

func (o Options) toolByName(name string) Tool {
	for _, t := range o.Tools {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

func (o Options) toolDefinitions() []provider.ToolDefinition {
	defs := make([]provider.ToolDefinition, len(o.Tools))
	for i, t := range o.Tools {
		defs[i] = Definition(t)
	}
	return defs
}

// Run drives a bounded native-tool-use loop against p: each turn calls
// Complete, dispatches any requested tools, and feeds results back as
// tool_result blocks until the model stops requesting tools
// (StopEndTurn) or calls opts.SubmissionTool (spec §3's "submission
// tool ends the loop" contract). Exhausting opts.MaxTurns without
// either returns a ResultExhausted null result, per spec's loop
// termination contract ("result, exhausted maxTurns, or propagated
// provider error").
func Run(ctx context.Context, p provider.ChatProvider, messages []provider.ConversationMessage, opts Options) (LoopResult, error) {
	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 10
	}

	history := append([]provider.ConversationMessage(nil), messages...)
	lastText := ""
	system := opts.systemPrompt()

	for turn := 0; turn < maxTurns; turn++ {
		resp, err := p.Complete(ctx, provider.CompleteRequest{
			Model:       opts.Model,
			System:      system,
			Messages:    history,
			Tools:       opts.toolDefinitions(),
			ToolChoice:  opts.ToolChoice,
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
		})
		if err != nil {
			return LoopResult{}, fmt.Errorf("tool loop: provider completion failed on turn %d: %w", turn+1, err)
		}

		history = append(history, provider.ConversationMessage{Role: provider.RoleAssistant, Content: resp.Content})

		for _, block := range resp.Content {
			if block.Type == provider.ContentText && block.Text != "" {
				lastText = block.Text
			}
		}

		toolUses := toolUseBlocks(resp.Content)

		if resp.StopReason != provider.StopToolUse || len(toolUses) == 0 {
			if opts.strictToolChoice() && opts.SubmissionTool != "" {
				history = append(history, opts.demandSubmission())
				continue
			}
			return LoopResult{Kind: ResultText, Text: lastText}, nil
		}

		var results []provider.ContentBlock
		for _, use := range toolUses {
			if use.ToolName == opts.SubmissionTool {
				return LoopResult{Kind: ResultSubmission, Submission: use.ToolInput}, nil
			}

			resultText, isError := dispatch(ctx, opts, use)
			results = append(results, provider.ToolResultBlock(use.ToolUseID, resultText, isError))
		}

		history = append(history, provider.ConversationMessage{Role: provider.RoleUser, Content: results})
	}

	slog.Warn("tool loop exhausted max turns without a submission", "max_turns", maxTurns)
	return LoopResult{Kind: ResultExhausted, Text: lastText}, nil
}

func toolUseBlocks(content []provider.ContentBlock) []provider.ContentBlock {
	var out []provider.ContentBlock
	for _, b := range content {
		if b.Type == provider.ContentToolUse {
			out = append(out, b)
		}
	}
	return out
}

// dispatch runs one tool call. An Execute error becomes the
// "Error executing <name>: <message>" text convention spec §4.3
// describes, so a failing tool degrades the conversation rather than
// aborting the loop. A name outside opts.Tools — this module's sole
// tool surface is the KB suite (§4.4) — returns that suite's own
// "Error: Unknown KB tool …" wording.
func dispatch(ctx context.Context, opts Options, use provider.ContentBlock) (text string, isError bool) {
	tool := opts.toolByName(use.ToolName)
	if tool == nil {
		return fmt.Sprintf("Error: Unknown KB tool %s", use.ToolName), true
	}

	result, err := tool.Execute(ctx, use.ToolInput)
	if err != nil {
		return fmt.Sprintf("Error executing %s: %s", use.ToolName, err.Error()), true
	}
	return result, false
}
