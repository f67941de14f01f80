package postgres

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/deepresearch/store"
)

func TestPostgresCheckpointStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	cp := &store.Checkpoint{
		ID:        "cp-1",
		SessionID: "session-1",
		NodeName:  "plan_queries",
		State:     map[string]any{"query": "rust async runtimes"},
		Timestamp: time.Now(),
		Version:   1,
		Metadata:  map[string]any{"event": "step"},
	}

	stateJSON, _ := json.Marshal(cp.State)
	metadataJSON, _ := json.Marshal(cp.Metadata)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO checkpoints")).
		WithArgs(
			cp.ID,
			cp.SessionID,
			cp.NodeName,
			stateJSON,
			metadataJSON,
			cp.Timestamp,
			cp.Version,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.Save(context.Background(), cp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCheckpointStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	timestamp := time.Now()
	stateJSON, _ := json.Marshal(map[string]any{"query": "rust async runtimes"})
	metadataJSON, _ := json.Marshal(map[string]any{"event": "step"})

	rows := pgxmock.NewRows([]string{"id", "session_id", "node_name", "state", "metadata", "timestamp", "version"}).
		AddRow("cp-1", "session-1", "plan_queries", stateJSON, metadataJSON, timestamp, 1)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, session_id, node_name, state, metadata, timestamp, version FROM checkpoints WHERE id = $1")).
		WithArgs("cp-1").
		WillReturnRows(rows)

	loaded, err := s.Load(context.Background(), "cp-1")
	require.NoError(t, err)
	assert.Equal(t, "cp-1", loaded.ID)
	assert.Equal(t, "session-1", loaded.SessionID)
	assert.Equal(t, "plan_queries", loaded.NodeName)
	assert.Equal(t, 1, loaded.Version)

	state, ok := loaded.State.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "rust async runtimes", state["query"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCheckpointStore_Load_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	rows := pgxmock.NewRows([]string{"id", "session_id", "node_name", "state", "metadata", "timestamp", "version"})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, session_id, node_name, state, metadata, timestamp, version FROM checkpoints WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(rows)

	_, err = s.Load(context.Background(), "missing")
	assert.ErrorContains(t, err, "checkpoint not found")
}

func TestPostgresCheckpointStore_List(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	timestamp := time.Now()
	stateJSON, _ := json.Marshal(map[string]any{"iteration_count": 1})
	metadataJSON, _ := json.Marshal(map[string]any{})

	rows := pgxmock.NewRows([]string{"id", "session_id", "node_name", "state", "metadata", "timestamp", "version"}).
		AddRow("cp-1", "session-1", "plan_queries", stateJSON, metadataJSON, timestamp, 1).
		AddRow("cp-2", "session-1", "research_sections", stateJSON, metadataJSON, timestamp, 2)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, session_id, node_name, state, metadata, timestamp, version FROM checkpoints WHERE session_id = $1 ORDER BY version ASC")).
		WithArgs("session-1").
		WillReturnRows(rows)

	list, err := s.List(context.Background(), "session-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "plan_queries", list[0].NodeName)
	assert.Equal(t, "research_sections", list[1].NodeName)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCheckpointStore_DeleteAndClear(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresCheckpointStoreWithPool(mock, "checkpoints")

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM checkpoints WHERE id = $1")).
		WithArgs("cp-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.Delete(context.Background(), "cp-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM checkpoints WHERE session_id = $1")).
		WithArgs("session-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, s.Clear(context.Background(), "session-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
