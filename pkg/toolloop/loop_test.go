package toolloop_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/provider"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/toolloop"
)

type scriptedProvider struct {
	responses []*provider.CompleteResponse
	calls     int
}

func (p *scriptedProvider) Complete(ctx context.Context, req provider.CompleteRequest) (*provider.CompleteResponse, error) {
	if p.calls >= len(p.responses) {
		return nil, fmt.Errorf("scriptedProvider: no more responses scripted")
	}
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

type echoTool struct {
	calls int
}

func (t *echoTool) Name() string        { return "echo" }
func (t *echoTool) Description() string { return "echoes its input" }
func (t *echoTool) InputSchema() string { return `{"type":"object"}` }
func (t *echoTool) Execute(ctx context.Context, argumentsJSON string) (string, error) {
	t.calls++
	return "echoed: " + argumentsJSON, nil
}

func TestRun_ReturnsTextWhenNoToolsRequested(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.CompleteResponse{
		{Content: []provider.ContentBlock{provider.TextBlock("all done")}, StopReason: provider.StopEndTurn},
	}}

	result, err := toolloop.Run(context.Background(), p, nil, toolloop.Options{Model: "dev"})
	require.NoError(t, err)
	require.Equal(t, toolloop.ResultText, result.Kind)
	require.Equal(t, "all done", result.Text)
}

func TestRun_DispatchesToolThenReturnsFinalText(t *testing.T) {
	tool := &echoTool{}
	p := &scriptedProvider{responses: []*provider.CompleteResponse{
		{
			Content: []provider.ContentBlock{{Type: provider.ContentToolUse, ToolUseID: "t1", ToolName: "echo", ToolInput: `{"x":1}`}},
			StopReason: provider.StopToolUse,
		},
		{Content: []provider.ContentBlock{provider.TextBlock("final answer")}, StopReason: provider.StopEndTurn},
	}}

	result, err := toolloop.Run(context.Background(), p, nil, toolloop.Options{Model: "dev", Tools: []toolloop.Tool{tool}})
	require.NoError(t, err)
	require.Equal(t, toolloop.ResultText, result.Kind)
	require.Equal(t, "final answer", result.Text)
	require.Equal(t, 1, tool.calls)
}

func TestRun_SubmissionToolShortCircuits(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.CompleteResponse{
		{
			Content:    []provider.ContentBlock{{Type: provider.ContentToolUse, ToolUseID: "t1", ToolName: "submit_plan", ToolInput: `{"plan":"ok"}`}},
			StopReason: provider.StopToolUse,
		},
	}}

	result, err := toolloop.Run(context.Background(), p, nil, toolloop.Options{Model: "dev", SubmissionTool: "submit_plan"})
	require.NoError(t, err)
	require.Equal(t, toolloop.ResultSubmission, result.Kind)
	require.Equal(t, `{"plan":"ok"}`, result.Submission)
}

func TestRun_UnknownToolProducesErrorResultWithoutAborting(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.CompleteResponse{
		{
			Content:    []provider.ContentBlock{{Type: provider.ContentToolUse, ToolUseID: "t1", ToolName: "nonexistent", ToolInput: `{}`}},
			StopReason: provider.StopToolUse,
		},
		{Content: []provider.ContentBlock{provider.TextBlock("recovered")}, StopReason: provider.StopEndTurn},
	}}

	result, err := toolloop.Run(context.Background(), p, nil, toolloop.Options{Model: "dev"})
	require.NoError(t, err)
	require.Equal(t, "recovered", result.Text)
}

func TestRun_StrictToolChoiceRePromptsUntilSubmission(t *testing.T) {
	p := &scriptedProvider{responses: []*provider.CompleteResponse{
		{Content: []provider.ContentBlock{provider.TextBlock("not ready yet")}, StopReason: provider.StopEndTurn},
		{
			Content:    []provider.ContentBlock{{Type: provider.ContentToolUse, ToolUseID: "t1", ToolName: "submit_plan", ToolInput: `{"plan":"ok"}`}},
			StopReason: provider.StopToolUse,
		},
	}}

	result, err := toolloop.Run(context.Background(), p, nil, toolloop.Options{
		Model:          "dev",
		SubmissionTool: "submit_plan",
		ToolChoice:     &provider.ToolChoice{Mode: provider.ToolChoiceAny},
	})
	require.NoError(t, err)
	require.Equal(t, toolloop.ResultSubmission, result.Kind)
	require.Equal(t, `{"plan":"ok"}`, result.Submission)
	require.Equal(t, 2, p.calls)
}

func TestRun_AugmentsSystemPromptWhenToolsPresent(t *testing.T) {
	tool := &echoTool{}
	var seenSystem string
	p := &capturingProvider{onComplete: func(req provider.CompleteRequest) {
		seenSystem = req.System
	}, response: &provider.CompleteResponse{Content: []provider.ContentBlock{provider.TextBlock("done")}, StopReason: provider.StopEndTurn}}

	_, err := toolloop.Run(context.Background(), p, nil, toolloop.Options{
		Model:          "dev",
		System:         "base prompt",
		Tools:          []toolloop.Tool{tool},
		SubmissionTool: "submit_plan",
	})
	require.NoError(t, err)
	require.Contains(t, seenSystem, "base prompt")
	require.Contains(t, seenSystem, "submit_plan")
}

type capturingProvider struct {
	onComplete func(provider.CompleteRequest)
	response   *provider.CompleteResponse
}

func (p *capturingProvider) Complete(ctx context.Context, req provider.CompleteRequest) (*provider.CompleteResponse, error) {
	if p.onComplete != nil {
		p.onComplete(req)
	}
	return p.response, nil
}

func TestRun_ExhaustsMaxTurnsAndReturnsNullResult(t *testing.T) {
	tool := &echoTool{}
	loopingResponse := &provider.CompleteResponse{
		Content:    []provider.ContentBlock{provider.TextBlock("thinking"), {Type: provider.ContentToolUse, ToolUseID: "t1", ToolName: "echo", ToolInput: `{}`}},
		StopReason: provider.StopToolUse,
	}
	p := &scriptedProvider{responses: []*provider.CompleteResponse{loopingResponse, loopingResponse, loopingResponse}}

	result, err := toolloop.Run(context.Background(), p, nil, toolloop.Options{Model: "dev", Tools: []toolloop.Tool{tool}, MaxTurns: 3})
	require.NoError(t, err)
	require.Equal(t, toolloop.ResultExhausted, result.Kind)
	require.Equal(t, "thinking", result.Text)
	require.Equal(t, 3, tool.calls)
}
