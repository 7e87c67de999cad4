package toolloop

import (
	"context"
	"fmt"
	"strings"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/provider"
)

// TextChunk is delivered to a RunStreaming callback once per delta
// received from the provider. Unlike the teacher's delta-only
// StreamCallback, Accumulated always holds the full response text
// produced so far in the current turn — spec §4.9 requires SSE
// consumers to receive the whole-text-so-far on every chunk, not a
// fragment the client must concatenate itself.
type TextChunk struct {
	Accumulated string
}

// StreamCallback receives one TextChunk per text delta across the
// whole tool loop (i.e. it keeps firing across turns, not just the
// first).
type StreamCallback func(TextChunk)

// RunStreaming behaves like Run but additionally invokes onChunk with
// the accumulated text of the turn currently being generated. Tool
// calls are still resolved and fed back turn-to-turn exactly as in
// Run; onChunk only observes text content, never tool_use/tool_result
// blocks.
func RunStreaming(ctx context.Context, p provider.StreamingChatProvider, messages []provider.ConversationMessage, opts Options, onChunk StreamCallback) (LoopResult, error) {
	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 10
	}

	history := append([]provider.ConversationMessage(nil), messages...)
	lastText := ""
	system := opts.systemPrompt()

	for turn := 0; turn < maxTurns; turn++ {
		stream, err := p.Stream(ctx, provider.CompleteRequest{
			Model:       opts.Model,
			System:      system,
			Messages:    history,
			Tools:       opts.toolDefinitions(),
			ToolChoice:  opts.ToolChoice,
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
		})
		if err != nil {
			return LoopResult{}, fmt.Errorf("tool loop: provider stream failed on turn %d: %w", turn+1, err)
		}

		var accumulated strings.Builder
		var final *provider.CompleteResponse
		for chunk := range stream {
			if chunk.TextDelta != "" {
				accumulated.WriteString(chunk.TextDelta)
				if onChunk != nil {
					onChunk(TextChunk{Accumulated: accumulated.String()})
				}
			}
			if chunk.Done {
				final = chunk.Final
			}
		}
		if final == nil {
			return LoopResult{}, fmt.Errorf("tool loop: provider stream closed without a final chunk on turn %d", turn+1)
		}

		history = append(history, provider.ConversationMessage{Role: provider.RoleAssistant, Content: final.Content})

		for _, block := range final.Content {
			if block.Type == provider.ContentText && block.Text != "" {
				lastText = block.Text
			}
		}

		toolUses := toolUseBlocks(final.Content)
		if final.StopReason != provider.StopToolUse || len(toolUses) == 0 {
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

	return LoopResult{Kind: ResultExhausted, Text: lastText}, nil
}
