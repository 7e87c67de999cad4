package provider

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// DevProvider is an offline ChatProvider/StreamingChatProvider/
// StructuredChatProvider/EmbeddingProvider implementation used by tests
// and local development when no real provider credentials are
// configured. It never calls out over the network: Complete echoes a
// deterministic acknowledgement, Stream replays Complete's text one
// word at a time, and Embed hashes the input into a fixed-size vector.
//
// Production deployments register a real provider (e.g. an Anthropic
// or OpenAI client) satisfying the same interfaces in pkg/provider;
// DevProvider exists so the rest of the module has something concrete
// to compile and test against.
type DevProvider struct {
	// Respond, when set, overrides the default echo behavior: given a
	// request it returns the text to answer with. Tests use this to
	// script specific LLM behaviors (team plans, QA questions, etc.)
	// without a real model.
	Respond func(req CompleteRequest) (*CompleteResponse, error)
}

func NewDevProvider() *DevProvider { return &DevProvider{} }

func (p *DevProvider) Complete(_ context.Context, req CompleteRequest) (*CompleteResponse, error) {
	if p.Respond != nil {
		return p.Respond(req)
	}
	return &CompleteResponse{
		Content:    []ContentBlock{TextBlock(fmt.Sprintf("Acknowledged: %s", lastUserText(req.Messages)))},
		StopReason: StopEndTurn,
	}, nil
}

func (p *DevProvider) Stream(ctx context.Context, req CompleteRequest) (<-chan StreamChunk, error) {
	resp, err := p.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamChunk, 8)
	go func() {
		defer close(ch)
		for _, block := range resp.Content {
			if block.Type != ContentText {
				continue
			}
			for _, r := range splitWords(block.Text) {
				select {
				case ch <- StreamChunk{TextDelta: r}:
				case <-ctx.Done():
					return
				}
			}
		}
		ch <- StreamChunk{Done: true, Final: resp}
	}()
	return ch, nil
}

func (p *DevProvider) Parse(_ context.Context, req ParseRequest) (string, error) {
	if p.Respond != nil {
		resp, err := p.Respond(CompleteRequest{Model: req.Model, System: req.System, Messages: req.Messages})
		if err != nil {
			return "", err
		}
		return lastText(resp.Content), nil
	}
	return "{}", nil
}

func (p *DevProvider) Embed(_ context.Context, text string) ([]float64, error) {
	const dims = 32
	sum := sha256.Sum256([]byte(text))
	vec := make([]float64, dims)
	for i := 0; i < dims; i++ {
		b := sum[i%len(sum):]
		if len(b) < 4 {
			b = sum[:4]
		}
		v := binary.BigEndian.Uint32(b[:4])
		vec[i] = float64(v%1000) / 1000.0
	}
	return vec, nil
}

func lastUserText(msgs []ConversationMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role != RoleUser {
			continue
		}
		return lastText(msgs[i].Content)
	}
	return ""
}

func lastText(blocks []ContentBlock) string {
	for i := len(blocks) - 1; i >= 0; i-- {
		if blocks[i].Type == ContentText {
			return blocks[i].Text
		}
	}
	return ""
}

func splitWords(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if r == ' ' {
			words = append(words, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		words = append(words, s[start:])
	}
	return words
}
