package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// parseTeamHandler handles POST /api/v1/teams/:conversationId/parse: it
// forces team extraction for a conversation immediately, bypassing the
// `[TEAM_CONFIRMED]` marker and grace-delay of the normal background
// path, so an operator can stand up a roster out of band.
func (s *Server) parseTeamHandler(c *gin.Context) {
	conversationID := c.Param("conversationId")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversationId is required"})
		return
	}

	if err := s.dispatcher.ForceTeamExtraction(c.Request.Context(), conversationID); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, ParseTeamResponse{ConversationID: conversationID, Status: "team_created"})
}
