package chat_test

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/chat"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/convstore"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/errs"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/provider"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/teamspec"
)

// fakeConversations is an in-memory convstore.ConversationStore.
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
	mu   sync.Mutex
	byID map[string]*convstore.Message
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

// fakeStream is a provider.StreamingChatProvider returning a single
// fixed assistant reply, streamed one chunk at a time.
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

func testConfig() chat.Config {
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

func TestDispatcher_DirectModeAnswersAndPersistsMessages(t *testing.T) {
	conversations := newFakeConversations(&convstore.Conversation{ID: "c1", Title: "untitled"})
	messages := newFakeMessages()
	streamP := &fakeStream{text: "Hello there."}

	d := chat.NewDispatcher(conversations, messages, nil, nil, streamP, nil, testConfig())

	events, err := d.Submit(context.Background(), chat.TurnRequest{ConversationID: "c1", UserText: "hi"})
	require.NoError(t, err)

	final := drainToFinal(t, events)
	require.True(t, final.Success)
	require.False(t, final.TeamCreated)
	require.Equal(t, "Hello there.", final.ResponseMessage.Text)

	history, err := messages.ListByConversation(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.True(t, history[0].IsCreatedByUser)
	require.False(t, history[1].IsCreatedByUser)
}

func TestDispatcher_ConfirmationMarkerStrippedAndSchedulesExtraction(t *testing.T) {
	conversations := newFakeConversations(&convstore.Conversation{ID: "c2", Title: "untitled"})
	messages := newFakeMessages()
	streamP := &fakeStream{text: "Team confirmed. [TEAM_CONFIRMED]"}

	d := chat.NewDispatcher(conversations, messages, nil, nil, streamP, nil, testConfig())

	events, err := d.Submit(context.Background(), chat.TurnRequest{ConversationID: "c2", UserText: "looks good"})
	require.NoError(t, err)

	final := drainToFinal(t, events)
	require.True(t, final.Success)
	require.True(t, final.TeamCreated)
	require.NotContains(t, final.ResponseMessage.Text, "[TEAM_CONFIRMED]")
}

func TestDispatcher_RejectsSecondTurnWhileFirstInFlight(t *testing.T) {
	conversations := newFakeConversations(&convstore.Conversation{ID: "c3", Title: "untitled"})
	messages := newFakeMessages()

	block := make(chan struct{})
	streamP := &blockingStream{release: block}

	d := chat.NewDispatcher(conversations, messages, nil, nil, streamP, nil, testConfig())

	events1, err := d.Submit(context.Background(), chat.TurnRequest{ConversationID: "c3", UserText: "first"})
	require.NoError(t, err)

	_, err = d.Submit(context.Background(), chat.TurnRequest{ConversationID: "c3", UserText: "second"})
	require.ErrorIs(t, err, errs.ErrTurnInProgress)

	close(block)
	drainToFinal(t, events1)
}

// blockingStream blocks until release is closed before emitting a
// reply, so the test can assert the concurrency gate rejects a
// second submit while the first is still in flight.
type blockingStream struct {
	release chan struct{}
}

func (s *blockingStream) Stream(ctx context.Context, req provider.CompleteRequest) (<-chan provider.StreamChunk, error) {
	ch := make(chan provider.StreamChunk, 2)
	go func() {
		<-s.release
		ch <- provider.StreamChunk{TextDelta: "done"}
		ch <- provider.StreamChunk{Done: true, Final: &provider.CompleteResponse{
			Content:    []provider.ContentBlock{provider.TextBlock("done")},
			StopReason: provider.StopEndTurn,
		}}
		close(ch)
	}()
	return ch, nil
}

func TestDispatcher_MissingConversationFails(t *testing.T) {
	conversations := newFakeConversations()
	messages := newFakeMessages()
	d := chat.NewDispatcher(conversations, messages, nil, nil, &fakeStream{text: "x"}, nil, testConfig())

	events, err := d.Submit(context.Background(), chat.TurnRequest{ConversationID: "missing", UserText: "hi"})
	require.NoError(t, err)

	final := drainToFinal(t, events)
	require.False(t, final.Success)
	require.NotEmpty(t, final.Error)
}

func drainToFinal(t *testing.T, events <-chan chat.Event) *chat.FinalResult {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e, ok := <-events:
			if !ok {
				t.Fatal("channel closed before EventFinal")
			}
			if e.Kind == chat.EventFinal {
				return e.Final
			}
		case <-timeout:
			t.Fatal("timed out waiting for EventFinal")
		}
	}
}
