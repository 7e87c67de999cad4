package convstore_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/convstore"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/dbstore"
)

func TestStore_CreateAndGetConversation(t *testing.T) {
	client := dbstore.SetupTestDatabase(t)
	store := convstore.NewStore(client.Pool)
	ctx := context.Background()

	created, err := store.Create(ctx, "Launch Plan")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Launch Plan", got.Title)
	require.Empty(t, got.TeamAgents)
}

func TestStore_GetMissingConversationReturnsNilNoError(t *testing.T) {
	client := dbstore.SetupTestDatabase(t)
	store := convstore.NewStore(client.Pool)

	got, err := store.Get(context.Background(), uuid.NewString())
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestStore_SetTeamThenClearTeam(t *testing.T) {
	client := dbstore.SetupTestDatabase(t)
	store := convstore.NewStore(client.Pool)
	ctx := context.Background()

	conv, err := store.Create(ctx, "Team convo")
	require.NoError(t, err)

	agents := []convstore.TeamAgentRecord{
		{AgentID: "team_" + conv.ID + "_lead", Name: "Maria Chen", Role: "Lead", Tier: 3, Provider: "anthropic", Model: "lead-model", Position: 0},
		{AgentID: "team_" + conv.ID + "_spec", Name: "Sam Patel", Role: "Specialist", Tier: 4, Provider: "anthropic", Model: "spec-model", Position: 1},
	}
	require.NoError(t, store.SetTeam(ctx, conv.ID, "Ship the launch", "", agents))

	got, err := store.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.Equal(t, "Ship the launch", got.TeamObjective)
	require.Len(t, got.TeamAgents, 2)
	require.Equal(t, "Maria Chen", got.TeamAgents[0].Name)

	require.NoError(t, store.ClearTeam(ctx, conv.ID))
	got, err = store.Get(ctx, conv.ID)
	require.NoError(t, err)
	require.Empty(t, got.TeamAgents)
	require.Empty(t, got.TeamObjective)
}

func TestStore_SaveAndListMessagesOrderedByCreatedAt(t *testing.T) {
	client := dbstore.SetupTestDatabase(t)
	store := convstore.NewStore(client.Pool)
	ctx := context.Background()

	conv, err := store.Create(ctx, "Conversation")
	require.NoError(t, err)

	first, err := store.Save(ctx, convstore.Message{ConversationID: conv.ID, IsCreatedByUser: true, Text: "hi"})
	require.NoError(t, err)
	second, err := store.Save(ctx, convstore.Message{
		ConversationID:  conv.ID,
		ParentMessageID: first.ID,
		IsCreatedByUser: false,
		Content: []convstore.ContentPart{
			{Type: "text", Text: mustJSON(t, "assistant reply")},
		},
	})
	require.NoError(t, err)

	messages, err := store.ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, first.ID, messages[0].ID)
	require.Equal(t, second.ID, messages[1].ID)
	require.Equal(t, "assistant reply", convstore.ExtractText(messages[1]))
}

func TestStore_GetMessageByID(t *testing.T) {
	client := dbstore.SetupTestDatabase(t)
	store := convstore.NewStore(client.Pool)
	ctx := context.Background()

	conv, err := store.Create(ctx, "Conversation")
	require.NoError(t, err)
	saved, err := store.Save(ctx, convstore.Message{ConversationID: conv.ID, IsCreatedByUser: true, Text: "find me"})
	require.NoError(t, err)

	got, err := store.GetMessage(ctx, saved.ID)
	require.NoError(t, err)
	require.Equal(t, "find me", got.Text)
}

func mustJSON(t *testing.T, s string) []byte {
	t.Helper()
	return []byte(`"` + s + `"`)
}
