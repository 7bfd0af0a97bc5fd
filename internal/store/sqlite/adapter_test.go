package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copilotx/copilotx-server/internal/model"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	st, err := NewWithDB(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestMemoriesRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Memories().Get(ctx, "u1")
	assert.ErrorIs(t, err, model.ErrNotFound)

	m := model.NewUserMemory("u1")
	m.Preferences.CommunicationStyle["formality"] = "casual"
	require.NoError(t, st.Memories().Put(ctx, m))

	got, err := st.Memories().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "casual", got.Preferences.CommunicationStyle["formality"])

	// Put is an upsert.
	m.Preferences.PreferredTone = "formal"
	require.NoError(t, st.Memories().Put(ctx, m))
	got, err = st.Memories().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "formal", got.Preferences.PreferredTone)

	require.NoError(t, st.Memories().Delete(ctx, "u1"))
	_, err = st.Memories().Get(ctx, "u1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAnalyticsListSince(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	for i, id := range []string{"a1", "a2", "a3"} {
		require.NoError(t, st.Analytics().Insert(ctx, &model.ConversationAnalysis{
			AnalysisID:     id,
			UserID:         "u1",
			ConversationID: "c" + id,
			Topics:         []string{"t"},
			Timestamp:      base.Add(time.Duration(i) * time.Minute),
		}))
	}
	// Another user's records must not leak in.
	require.NoError(t, st.Analytics().Insert(ctx, &model.ConversationAnalysis{
		AnalysisID: "other", UserID: "u2", ConversationID: "cx", Timestamp: base,
	}))

	all, err := st.Analytics().ListSince(ctx, "u1", nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, "a3", all[0].AnalysisID)
	assert.Equal(t, "a1", all[2].AnalysisID)

	// Strictly after: the record at the cut-off is excluded.
	cut := base.Add(time.Minute)
	since, err := st.Analytics().ListSince(ctx, "u1", &cut)
	require.NoError(t, err)
	require.Len(t, since, 1)
	assert.Equal(t, "a3", since[0].AnalysisID)

	require.NoError(t, st.Analytics().DeleteAll(ctx, "u1"))
	all, err = st.Analytics().ListSince(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, all)

	// u2 untouched by u1's purge.
	other, err := st.Analytics().ListSince(ctx, "u2", nil)
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestSettingsRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Settings().Get(ctx, "u1")
	assert.ErrorIs(t, err, model.ErrNotFound)

	in := &model.MemorySettings{
		UserID:             "u1",
		MemoryEnabled:      true,
		ChatHistoryEnabled: false,
		UpdatedAt:          time.Now().UTC(),
	}
	require.NoError(t, st.Settings().Put(ctx, in))

	got, err := st.Settings().Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, got.MemoryEnabled)
	assert.False(t, got.ChatHistoryEnabled)

	in.MemoryEnabled = false
	require.NoError(t, st.Settings().Put(ctx, in))
	got, err = st.Settings().Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.MemoryEnabled)
}

func TestHealthCheck(t *testing.T) {
	st := newTestStore(t)
	assert.NoError(t, st.HealthCheck(context.Background()))
}
