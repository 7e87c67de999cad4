package sseevents_test

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/orchestration"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/sseevents"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest("GET", "/chat", nil)
	return c, rec
}

func TestWriter_WriteCreatedSetsHeadersAndBody(t *testing.T) {
	c, rec := newTestContext()
	w := sseevents.NewWriter(c)

	require.NoError(t, w.WriteCreated(sseevents.Created{Created: true, ConversationID: "conv1"}))

	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), `"conversationId":"conv1"`)
	require.Contains(t, rec.Body.String(), "data:")
}

func TestWriter_WriteTextChunkCarriesFullAccumulatedText(t *testing.T) {
	c, rec := newTestContext()
	w := sseevents.NewWriter(c)

	require.NoError(t, w.WriteTextChunk(sseevents.NewTextChunk("Hello wor", 0, "msg1", "conv1")))
	require.NoError(t, w.WriteTextChunk(sseevents.NewTextChunk("Hello world", 0, "msg1", "conv1")))

	body := rec.Body.String()
	require.Contains(t, body, `"text":"Hello wor"`)
	require.Contains(t, body, `"text":"Hello world"`)
}

func TestWriter_WriteFinalWithErrorAndFlags(t *testing.T) {
	c, rec := newTestContext()
	w := sseevents.NewWriter(c)

	final := sseevents.Final{Final: true}.
		WithQAWaitingForApproval(true).
		WithTeamCreated(false).
		WithError("boom")

	require.NoError(t, w.WriteFinal(final))
	body := rec.Body.String()
	require.Contains(t, body, `"qaWaitingForApproval":true`)
	require.Contains(t, body, `"teamCreated":false`)
	require.Contains(t, body, `"error":{"message":"boom"}`)
}

func TestFromOrchestrationEvent_StreamProducesTextChunk(t *testing.T) {
	_, chunk := sseevents.FromOrchestrationEvent(orchestration.OrchestrationEvent{
		Kind:              orchestration.EventStream,
		StreamAccumulated: "partial text",
	}, "msg1", "conv1")

	require.NotNil(t, chunk)
	require.Equal(t, "partial text", chunk.Text)
	require.Equal(t, "msg1", chunk.MessageID)
}

func TestFromOrchestrationEvent_AgentStartProducesProgress(t *testing.T) {
	progress, chunk := sseevents.FromOrchestrationEvent(orchestration.OrchestrationEvent{
		Kind:  orchestration.EventAgentStart,
		Agent: &orchestration.TeamAgent{AgentID: "a1", Name: "Maria", Role: "Lead"},
	}, "msg1", "conv1")

	require.Nil(t, chunk)
	require.NotNil(t, progress)
	require.Equal(t, sseevents.ProgressAgentStart, progress.Event)
	require.Equal(t, "Maria", progress.Data.(map[string]any)["name"])
}

func TestFromOrchestrationEvent_DoneProducesNoFrame(t *testing.T) {
	progress, chunk := sseevents.FromOrchestrationEvent(orchestration.OrchestrationEvent{
		Kind: orchestration.EventDone,
	}, "msg1", "conv1")

	require.Nil(t, progress)
	require.Nil(t, chunk)
}
