package chat

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/convstore"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/errs"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/kb"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/kbtools"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/orchestration"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/provider"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/teamspec"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/toolloop"
)

// Config holds the per-deployment knobs a Dispatcher needs, resolved
// from pkg/config at startup.
type Config struct {
	ActivationPattern      *regexp.Regexp
	CoordinatorName        string
	CoordinatorProvider    string
	CoordinatorModel       string
	RoleDefaults           teamspec.RoleDefaults
	ExtractorModel         string
	ExtractionMaxChars     int
	MaxToolLoopTurns       int
	ConfirmationGraceDelay time.Duration
	FileAnalysisMaxChars   int
	FileTriggeredRoleCap   int
	BackgroundTimeout      time.Duration
}

// Dispatcher routes a user turn to either the agent tool loop (C3) or
// the team orchestrator (C6), per spec §4.7.
type Dispatcher struct {
	Conversations convstore.ConversationStore
	Messages      convstore.MessageStore
	Orchestrator  *orchestration.Orchestrator
	Chat          provider.ChatProvider
	Stream        provider.StreamingChatProvider
	Structured    provider.StructuredChatProvider
	KB            *kb.Store // optional; when set, the direct-mode loop gets KB tools
	Cfg           Config

	mu     sync.Mutex
	active map[string]bool
	wg     sync.WaitGroup
}

// NewDispatcher builds a Dispatcher with its concurrency gate initialized.
func NewDispatcher(conversations convstore.ConversationStore, messages convstore.MessageStore, orch *orchestration.Orchestrator, chatP provider.ChatProvider, streamP provider.StreamingChatProvider, structuredP provider.StructuredChatProvider, cfg Config) *Dispatcher {
	return &Dispatcher{
		Conversations: conversations,
		Messages:      messages,
		Orchestrator:  orch,
		Chat:          chatP,
		Stream:        streamP,
		Structured:    structuredP,
		Cfg:           cfg,
		active:        make(map[string]bool),
	}
}

// Submit runs one user turn. It enforces spec §5's "one turn in
// flight per conversation" gate (grounded on
// pkg/queue/chat_executor.go's registerExecution/unregisterExecution)
// and returns a channel of progress events terminated by exactly one
// EventFinal. The returned channel is closed once EventFinal is sent.
func (d *Dispatcher) Submit(ctx context.Context, req TurnRequest) (<-chan Event, error) {
	if !d.tryAcquire(req.ConversationID) {
		return nil, errs.ErrTurnInProgress
	}

	events := make(chan Event, 16)
	go func() {
		defer d.release(req.ConversationID)
		defer close(events)
		d.run(ctx, req, events)
	}()
	return events, nil
}

func (d *Dispatcher) tryAcquire(conversationID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active[conversationID] {
		return false
	}
	d.active[conversationID] = true
	return true
}

func (d *Dispatcher) release(conversationID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.active, conversationID)
}

func (d *Dispatcher) run(ctx context.Context, req TurnRequest, events chan<- Event) {
	emit := func(e Event) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}
	fail := func(err error) {
		emit(Event{Kind: EventFinal, Final: &FinalResult{Success: false, Error: err.Error()}})
	}

	conv, err := d.Conversations.Get(ctx, req.ConversationID)
	if err != nil {
		fail(err)
		return
	}
	if conv == nil {
		fail(errs.NewPolicyError("conversationId", "conversation does not exist"))
		return
	}

	match, activated := teamspec.DetectActivation(d.Cfg.ActivationPattern, req.UserText)

	metadata := map[string]any{}
	userName := ""
	if activated {
		userName = match.UserName
		metadata["drSterlingContext"] = map[string]any{"userName": userName}
	}

	userMsg, err := d.Messages.Save(ctx, convstore.Message{
		ConversationID:  req.ConversationID,
		ParentMessageID: req.ParentMessageID,
		IsCreatedByUser: true,
		Text:            req.UserText,
		Metadata:        metadata,
	})
	if err != nil {
		fail(err)
		return
	}

	hasTeam := len(conv.TeamAgents) > 0

	switch {
	case activated:
		d.runDirect(ctx, req, conv, userMsg, events, userName)
	case hasTeam:
		d.runTeam(ctx, req, conv, userMsg, events)
	default:
		d.runDirect(ctx, req, conv, userMsg, events, "")
	}

	if !hasTeam && firstDocumentAttachment(req.Attachments) != nil {
		d.scheduleFileTriggeredTeamCreation(req.ConversationID, req.Attachments)
	}
}

var documentMimePrefixes = []string{"application/pdf", "application/", "text/"}

func firstDocumentAttachment(attachments []Attachment) *Attachment {
	for i, a := range attachments {
		for _, prefix := range documentMimePrefixes {
			if len(a.MimeType) >= len(prefix) && a.MimeType[:len(prefix)] == prefix {
				return &attachments[i]
			}
		}
	}
	return nil
}

func (d *Dispatcher) runDirect(ctx context.Context, req TurnRequest, conv *convstore.Conversation, userMsg *convstore.Message, events chan<- Event, userName string) {
	emit := func(e Event) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}
	fail := func(err error) {
		emit(Event{Kind: EventFinal, Final: &FinalResult{Success: false, RequestMessage: userMsg, Error: err.Error()}})
	}

	history, err := d.Messages.ListByConversation(ctx, req.ConversationID)
	if err != nil {
		fail(err)
		return
	}

	var tools []toolloop.Tool
	if d.KB != nil {
		tools = kbtools.ForConversation(req.ConversationID, d.KB)
	}

	opts := toolloop.Options{
		Model:    d.Cfg.CoordinatorModel,
		System:   coordinatorSystemPrompt(d.Cfg.CoordinatorName, userName),
		Tools:    tools,
		MaxTurns: d.Cfg.MaxToolLoopTurns,
	}

	result, err := toolloop.RunStreaming(ctx, d.Stream, buildHistory(history), opts, func(chunk toolloop.TextChunk) {
		emit(Event{Kind: EventStream, StreamAccumulated: chunk.Accumulated})
	})
	if err != nil {
		fail(err)
		return
	}
	if result.Kind == toolloop.ResultExhausted {
		fail(errs.ErrToolLoopExhausted)
		return
	}

	text := result.Text
	if result.Kind == toolloop.ResultSubmission {
		text = result.Submission
	}

	teamCreated := teamspec.HasConfirmationMarker(text)
	if teamCreated {
		text = teamspec.StripConfirmationMarker(text)
		d.scheduleConfirmedTeamExtraction(req.ConversationID)
	}

	respMsg, err := d.Messages.Save(ctx, convstore.Message{
		ConversationID:  req.ConversationID,
		ParentMessageID: userMsg.ID,
		IsCreatedByUser: false,
		Text:            text,
		Sender:          d.Cfg.CoordinatorName,
	})
	if err != nil {
		fail(err)
		return
	}
	d.persistArtifacts(ctx, req.ConversationID, respMsg.ID, text)

	emit(Event{Kind: EventFinal, Final: &FinalResult{
		Success:         true,
		Conversation:    conv,
		RequestMessage:  userMsg,
		ResponseMessage: respMsg,
		TeamCreated:     teamCreated,
	}})
}

func coordinatorSystemPrompt(name, userName string) string {
	if name == "" {
		name = "the coordinator"
	}
	prompt := "You are " + name + ", the lead coordinator for this conversation. " +
		"Answer the user directly unless they are defining a team, in which case follow the team specification workflow."
	if userName != "" {
		prompt += fmt.Sprintf(" You are speaking with %s.", userName)
	}
	return prompt
}
