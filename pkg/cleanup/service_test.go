package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/dbstore"
	"github.com/HyperFund-AI/LibreChat-HI-sub000/pkg/orchestration"
)

func TestService_RunOncePurgesOldCompletedStateOnly(t *testing.T) {
	client := dbstore.SetupTestDatabase(t)
	states := orchestration.NewStateStore(client.Pool)
	ctx := context.Background()

	oldDone := uuid.NewString()
	recentDone := uuid.NewString()

	require.NoError(t, states.Save(ctx, &orchestration.State{ConversationID: oldDone, ParentMessageID: uuid.NewString(), Status: orchestration.StatusCompleted}))
	require.NoError(t, states.Save(ctx, &orchestration.State{ConversationID: recentDone, ParentMessageID: uuid.NewString(), Status: orchestration.StatusCompleted}))

	_, err := client.Pool.Exec(ctx, `UPDATE orchestration_states SET updated_at = now() - interval '30 days' WHERE conversation_id = $1`, oldDone)
	require.NoError(t, err)

	svc := NewService(Config{StateRetention: 24 * time.Hour, Interval: time.Hour}, states)
	svc.runOnce(ctx)

	gone, err := states.GetLatest(ctx, oldDone)
	require.NoError(t, err)
	require.Nil(t, gone)

	kept, err := states.GetLatest(ctx, recentDone)
	require.NoError(t, err)
	require.NotNil(t, kept)
}

func TestService_StartAndStop(t *testing.T) {
	client := dbstore.SetupTestDatabase(t)
	states := orchestration.NewStateStore(client.Pool)

	svc := NewService(Config{StateRetention: 24 * time.Hour, Interval: time.Hour}, states)
	svc.Start(context.Background())
	svc.Stop()
}
