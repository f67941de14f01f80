package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/deepresearch/store"
)

func newTestStore(t *testing.T) *SqliteCheckpointStore {
	t.Helper()
	s, err := NewSqliteCheckpointStore(SqliteOptions{
		Path: filepath.Join(t.TempDir(), "checkpoints.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSqliteCheckpointStore_SaveLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cp := &store.Checkpoint{
		ID:        "cp-1",
		SessionID: "session-1",
		NodeName:  "write_report",
		State:     map[string]any{"research_complete": true},
		Metadata:  map[string]any{"event": "step"},
		Timestamp: time.Now().UTC(),
		Version:   1,
	}

	require.NoError(t, s.Save(ctx, cp))

	loaded, err := s.Load(ctx, "cp-1")
	require.NoError(t, err)
	assert.Equal(t, cp.SessionID, loaded.SessionID)
	assert.Equal(t, cp.NodeName, loaded.NodeName)

	state, ok := loaded.State.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, state["research_complete"])

	_, err = s.Load(ctx, "missing")
	assert.Error(t, err)
}

func TestSqliteCheckpointStore_SaveUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cp := &store.Checkpoint{ID: "cp-1", SessionID: "s", NodeName: "reflect", Version: 1}
	require.NoError(t, s.Save(ctx, cp))

	cp.Version = 2
	require.NoError(t, s.Save(ctx, cp))

	loaded, err := s.Load(ctx, "cp-1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Version)
}

func TestSqliteCheckpointStore_ListAndLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, v := range []int{2, 1, 3} {
		cp := &store.Checkpoint{
			ID:        fmt.Sprintf("cp-%d", v),
			SessionID: "session-order",
			NodeName:  "research_sections",
			Version:   v,
		}
		require.NoError(t, s.Save(ctx, cp))
	}

	list, err := s.List(ctx, "session-order")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, 1, list[0].Version)
	assert.Equal(t, 3, list[2].Version)

	latest, err := s.GetLatestBySession(ctx, "session-order")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 3, latest.Version)

	latest, err = s.GetLatestBySession(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestSqliteCheckpointStore_DeleteAndClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &store.Checkpoint{ID: "a", SessionID: "s", Version: 1}))
	require.NoError(t, s.Save(ctx, &store.Checkpoint{ID: "b", SessionID: "s", Version: 2}))

	require.NoError(t, s.Delete(ctx, "a"))
	_, err := s.Load(ctx, "a")
	assert.Error(t, err)

	require.NoError(t, s.Clear(ctx, "s"))
	list, err := s.List(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, list)
}
