package api

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/chat"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/convstore"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/errs"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/provider"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/teamspec"
)

// fakeConversations is an in-memory convstore.ConversationStore, mirroring
// pkg/chat's own test fake.
type fakeConversations struct {
	mu   sync.Mutex
	data map[string]*convstore.Conversation
}

func newFakeConversations(seed ...*convstore.Conversation) *fakeConversations {
	f := &fakeConversations{data: make(map[string]*convstore.Conversation)}
	for _, c := range seed {
		f.data[c.ID] = c
	}
	return f
}

func (f *fakeConversations) Create(ctx context.Context, title string) (*convstore.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &convstore.Conversation{ID: uuid.NewString(), Title: title}
	f.data[c.ID] = c
	return c, nil
}

func (f *fakeConversations) Get(ctx context.Context, conversationID string) (*convstore.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.data[conversationID]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeConversations) SetTeam(ctx context.Context, conversationID, objective, fileID string, agents []convstore.TeamAgentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.data[conversationID]
	if !ok {
		return errs.NewPolicyError("conversationId", "not found")
	}
	c.TeamObjective = objective
	c.TeamFileID = fileID
	c.TeamAgents = agents
	return nil
}

func (f *fakeConversations) ClearTeam(ctx context.Context, conversationID string) error {
	return f.SetTeam(ctx, conversationID, "", "", nil)
}

func (f *fakeConversations) SetTitle(ctx context.Context, conversationID, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.data[conversationID]
	if !ok {
		return errs.NewPolicyError("conversationId", "not found")
	}
	c.Title = title
	return nil
}

// fakeMessages is an in-memory convstore.MessageStore.
type fakeMessages struct {
	mu     sync.Mutex
	byID   map[string]*convstore.Message
	byConv map[string][]string
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{byID: make(map[string]*convstore.Message), byConv: make(map[string][]string)}
}

func (f *fakeMessages) Save(ctx context.Context, m convstore.Message) (*convstore.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	cp := m
	f.byID[cp.ID] = &cp
	f.byConv[cp.ConversationID] = append(f.byConv[cp.ConversationID], cp.ID)
	return &cp, nil
}

func (f *fakeMessages) ListByConversation(ctx context.Context, conversationID string) ([]convstore.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []convstore.Message
	for _, id := range f.byConv[conversationID] {
		out = append(out, *f.byID[id])
	}
	return out, nil
}

func (f *fakeMessages) GetMessage(ctx context.Context, messageID string) (*convstore.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.byID[messageID]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

// fakeStream is a provider.StreamingChatProvider returning a single fixed
// assistant reply.
type fakeStream struct {
	text string
}

func (s *fakeStream) Stream(ctx context.Context, req provider.CompleteRequest) (<-chan provider.StreamChunk, error) {
	ch := make(chan provider.StreamChunk, 2)
	ch <- provider.StreamChunk{TextDelta: s.text}
	ch <- provider.StreamChunk{Done: true, Final: &provider.CompleteResponse{
		Content:    []provider.ContentBlock{provider.TextBlock(s.text)},
		StopReason: provider.StopEndTurn,
	}}
	close(ch)
	return ch, nil
}

func testChatConfig() chat.Config {
	return chat.Config{
		ActivationPattern:      regexp.MustCompile(`(?i)^dr\.?\s*sterling,?\s*this\s+is\s+(?P<name>[^.!?\n]*)`),
		CoordinatorName:        "Dr. Sterling",
		CoordinatorProvider:    "anthropic",
		CoordinatorModel:       "claude-coordinator-default",
		RoleDefaults:           teamspec.RoleDefaults{},
		ExtractorModel:         "claude-extractor-default",
		ExtractionMaxChars:     1000,
		MaxToolLoopTurns:       10,
		ConfirmationGraceDelay: 10 * time.Millisecond,
		FileAnalysisMaxChars:   1000,
		FileTriggeredRoleCap:   5,
		BackgroundTimeout:      time.Second,
	}
}

// newTestDispatcher builds a chat.Dispatcher over in-memory fakes,
// seeded with one conversation ("c1") whose turns get a fixed reply.
func newTestDispatcher(t *testing.T) *chat.Dispatcher {
	t.Helper()
	conversations := newFakeConversations(&convstore.Conversation{ID: "c1", Title: "untitled"})
	messages := newFakeMessages()
	streamP := &fakeStream{text: "Hello there."}
	return chat.NewDispatcher(conversations, messages, nil, nil, streamP, nil, testChatConfig())
}
