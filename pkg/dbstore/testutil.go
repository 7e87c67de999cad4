package dbstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	sharedDSN     string
	containerOnce sync.Once
	containerErr  error
)

// SetupTestDatabase returns a *Client backed by a shared local
// testcontainer, started once per test binary run and reused by every
// caller. Migrations run once against that shared database; tests
// that share this helper must tolerate rows left behind by others
// (conversation-scoped queries, unique-per-test IDs) rather than
// assuming a clean schema.
func SetupTestDatabase(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()

	dsn := getOrCreateSharedDatabase(t)

	client, err := NewClient(ctx, Config{DSN: dsn, MaxOpenConns: 5})
	require.NoError(t, err)

	t.Cleanup(client.Close)
	return client
}

func getOrCreateSharedDatabase(t *testing.T) string {
	t.Helper()

	containerOnce.Do(func() {
		ctx := context.Background()
		t.Log("starting shared postgres testcontainer")

		c, err := postgres.Run(ctx,
			"postgres:17-alpine",
			postgres.WithDatabase("test"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			containerErr = fmt.Errorf("failed to start postgres container: %w", err)
			return
		}

		connStr, err := c.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			containerErr = fmt.Errorf("failed to get connection string: %w", err)
			return
		}
		sharedDSN = connStr
	})

	require.NoError(t, containerErr, "failed to set up shared test container")
	return sharedDSN
}
