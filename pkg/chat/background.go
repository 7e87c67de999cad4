package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/convstore"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/errs"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/teamspec"
)

// scheduleConfirmedTeamExtraction implements spec §4.7.1: once the
// coordinator's response carries the `[TEAM_CONFIRMED]` marker, wait
// out the grace delay (giving any trailing clarification a chance to
// land), then extract and persist the roster from the conversation so
// far. Runs detached from the request that triggered it, grounded on
// pkg/queue/chat_executor.go's pattern of launching stage work on its
// own context.Background() rather than the inbound HTTP context.
func (d *Dispatcher) scheduleConfirmedTeamExtraction(conversationID string) {
	d.wg.Add(1)
	time.AfterFunc(d.Cfg.ConfirmationGraceDelay, func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.Cfg.BackgroundTimeout)
		defer cancel()

		logger := slog.With("conversation_id", conversationID, "job", "confirmed_team_extraction")

		conv, err := d.Conversations.Get(ctx, conversationID)
		if err != nil {
			logger.Warn("failed to load conversation for team extraction", "error", err)
			return
		}
		if conv == nil || len(conv.TeamAgents) > 0 {
			return
		}

		messages, err := d.Messages.ListByConversation(ctx, conversationID)
		if err != nil {
			logger.Warn("failed to load messages for team extraction", "error", err)
			return
		}

		confirmedIdx := -1
		for i, m := range messages {
			if !m.IsCreatedByUser && teamspec.HasConfirmationMarker(convstore.ExtractText(m)) {
				confirmedIdx = i
			}
		}
		if confirmedIdx < 0 {
			// runDirect strips the marker before persisting the reply that
			// carried it, so that reply is the latest assistant message.
			for i := len(messages) - 1; i >= 0; i-- {
				if !messages[i].IsCreatedByUser {
					confirmedIdx = i
					break
				}
			}
		}
		if confirmedIdx < 0 {
			return
		}

		var texts []string
		for _, m := range messages[:confirmedIdx+1] {
			if m.IsCreatedByUser {
				continue
			}
			text := convstore.ExtractText(m)
			if teamspec.IsTeamRelated(text) {
				texts = append(texts, text)
			}
		}
		if len(texts) == 0 {
			return
		}

		relevant := teamspec.CollectRelevant(texts, d.Cfg.ExtractionMaxChars)
		if err := d.extractAndPersistTeam(ctx, conversationID, relevant, texts); err != nil {
			logger.Warn("team extraction failed", "error", err)
		}
	})
}

// extractAndPersistTeam runs teamspec.Extract against the given source
// text(s) and persists the resulting roster, shared by the two
// background triggers above and ForceTeamExtraction's synchronous path.
func (d *Dispatcher) extractAndPersistTeam(ctx context.Context, conversationID, relevant string, texts []string) error {
	team, err := teamspec.Extract(ctx, d.Structured, d.Cfg.ExtractorModel, relevant, texts)
	if err != nil {
		return err
	}

	agents := teamspec.ToTeamAgents(conversationID, team, d.Cfg.RoleDefaults, time.Now().UnixNano())
	records := make([]convstore.TeamAgentRecord, 0, len(agents))
	for _, a := range agents {
		records = append(records, toRecord(conversationID, a))
	}

	return d.Conversations.SetTeam(ctx, conversationID, team.ProjectName, "", records)
}

// ForceTeamExtraction runs team extraction synchronously for the given
// conversation, bypassing the confirmation-marker and grace-delay
// requirements of scheduleConfirmedTeamExtraction. Used by the
// POST .../parse route to let an operator force a roster out of a
// conversation that hasn't (yet) uttered the confirmation marker.
func (d *Dispatcher) ForceTeamExtraction(ctx context.Context, conversationID string) error {
	conv, err := d.Conversations.Get(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv == nil {
		return errs.NewPolicyError("conversationId", "conversation does not exist")
	}
	if len(conv.TeamAgents) > 0 {
		return errs.NewPolicyError("conversationId", "conversation already has a team")
	}

	messages, err := d.Messages.ListByConversation(ctx, conversationID)
	if err != nil {
		return err
	}

	var texts []string
	for _, m := range messages {
		if m.IsCreatedByUser {
			continue
		}
		text := convstore.ExtractText(m)
		if teamspec.IsTeamRelated(text) {
			texts = append(texts, text)
		}
	}
	if len(texts) == 0 {
		return errs.ErrTeamExtractionFailed
	}

	relevant := teamspec.CollectRelevant(texts, d.Cfg.ExtractionMaxChars)
	return d.extractAndPersistTeam(ctx, conversationID, relevant, texts)
}

// scheduleFileTriggeredTeamCreation implements spec §4.7's
// file-triggered path: when a turn of a team-less conversation
// carries a document attachment, analyze it in the background and
// stand up a roster from its content without the user having to
// utter the activation phrase. Failures here are logged only; they
// never affect the turn that triggered them.
func (d *Dispatcher) scheduleFileTriggeredTeamCreation(conversationID string, attachments []Attachment) {
	doc := firstDocumentAttachment(attachments)
	if doc == nil {
		return
	}
	content := doc.Content
	if d.Cfg.FileAnalysisMaxChars > 0 && len(content) > d.Cfg.FileAnalysisMaxChars {
		content = content[:d.Cfg.FileAnalysisMaxChars]
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.Cfg.BackgroundTimeout)
		defer cancel()

		logger := slog.With("conversation_id", conversationID, "job", "file_triggered_team_creation")

		conv, err := d.Conversations.Get(ctx, conversationID)
		if err != nil {
			logger.Warn("failed to load conversation for file-triggered team creation", "error", err)
			return
		}
		if conv == nil || len(conv.TeamAgents) > 0 {
			return
		}

		team, err := teamspec.Extract(ctx, d.Structured, d.Cfg.ExtractorModel, content, []string{content})
		if err != nil {
			logger.Warn("file-triggered team extraction failed", "error", err)
			return
		}

		if d.Cfg.FileTriggeredRoleCap > 0 && len(team.Members) > d.Cfg.FileTriggeredRoleCap {
			team.Members = team.Members[:d.Cfg.FileTriggeredRoleCap]
		}

		agents := teamspec.ToTeamAgents(conversationID, team, d.Cfg.RoleDefaults, time.Now().UnixNano())
		records := make([]convstore.TeamAgentRecord, 0, len(agents))
		for _, a := range agents {
			records = append(records, toRecord(conversationID, a))
		}

		if err := d.Conversations.SetTeam(ctx, conversationID, team.ProjectName, "", records); err != nil {
			logger.Warn("failed to persist file-triggered team", "error", err)
		}
	}()
}
