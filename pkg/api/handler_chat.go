package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/chat"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/errs"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/sseevents"
)

// chatHandler handles POST /api/v1/chat: a turn against the direct
// coordinator/tool-loop path or, if the conversation already has a
// roster, the team orchestrator — the dispatcher decides which.
func (s *Server) chatHandler(c *gin.Context) {
	s.streamTurn(c)
}

// teamsChatHandler handles POST /api/v1/teams/chat. It is the same
// turn contract as chatHandler; the distinct route exists so callers
// that always expect team semantics can hit a stable, descriptively
// named path (spec §6's two chat routes share one dispatcher).
func (s *Server) teamsChatHandler(c *gin.Context) {
	s.streamTurn(c)
}

func (s *Server) streamTurn(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	attachments := make([]chat.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		attachments = append(attachments, chat.Attachment{MimeType: a.MimeType, Content: a.Content})
	}

	events, err := s.dispatcher.Submit(c.Request.Context(), chat.TurnRequest{
		ConversationID:  req.ConversationID,
		ParentMessageID: req.ParentMessageID,
		UserText:        req.Text,
		Attachments:     attachments,
	})
	if err != nil {
		if errors.Is(err, errs.ErrTurnInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	w := sseevents.NewWriter(c)
	_ = w.WriteCreated(sseevents.Created{Created: true, ConversationID: req.ConversationID})

	streamMessageID := uuid.NewString()

	for e := range events {
		if w.ClientDisconnected() {
			continue
		}

		if e.Kind == chat.EventFinal {
			writeFinal(w, req.ConversationID, e.Final)
			continue
		}

		progress, chunk := sseevents.FromChatEvent(e, streamMessageID, req.ConversationID)
		if progress != nil {
			_ = w.WriteProgress(*progress)
		}
		if chunk != nil {
			_ = w.WriteTextChunk(*chunk)
		}
	}
}

func writeFinal(w *sseevents.Writer, conversationID string, result *chat.FinalResult) {
	if result == nil {
		_ = w.WriteFinal(sseevents.Final{Final: true}.WithError("internal error: empty turn result"))
		return
	}

	title := ""
	if result.Conversation != nil {
		title = result.Conversation.Title
	}

	final := sseevents.Final{
		Final:           true,
		Conversation:    result.Conversation,
		Title:           title,
		RequestMessage:  result.RequestMessage,
		ResponseMessage: result.ResponseMessage,
	}
	final = final.WithQAWaitingForApproval(result.QAWaitingForApproval)
	final = final.WithTeamCreated(result.TeamCreated)
	if !result.Success {
		final = final.WithError(result.Error)
	}

	_ = w.WriteFinal(final)
}
