package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/copilotx/copilotx-server/internal/model"
	"github.com/copilotx/copilotx-server/internal/store"
	"github.com/copilotx/copilotx-server/internal/store/sqlite"
)

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	st, err := sqlite.NewWithDB(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return NewService(st), st
}

func TestGetCreatesDefaultDocument(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	m, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", m.UserID)
	assert.Equal(t, "balanced", m.Preferences.PreferredTone)
	assert.Empty(t, m.Preferences.TopicInterests)
	assert.Nil(t, m.LastCleared)

	// The default document is persisted on first access.
	stored, err := st.Memories().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.UserID)
}

func TestRecordFeedback(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.RecordFeedback(ctx, "u1", "msg-1", "positive", ""))
	require.NoError(t, svc.RecordFeedback(ctx, "u1", "msg-2", "negative", "wrong answer"))
	require.NoError(t, svc.RecordFeedback(ctx, "u1", "msg-3", "positive", ""))

	m, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, m.FeedbackHistory.TotalFeedbackCount)
	assert.Equal(t, 2, m.FeedbackHistory.PositiveFeedback)
	assert.Equal(t, 1, m.FeedbackHistory.NegativeFeedback)
}

func TestRecordFeedbackValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	err := svc.RecordFeedback(ctx, "u1", "", "positive", "")
	assert.ErrorIs(t, err, model.ErrValidation)

	err = svc.RecordFeedback(ctx, "u1", "msg-1", "", "")
	assert.ErrorIs(t, err, model.ErrValidation)

	err = svc.RecordFeedback(ctx, "u1", "msg-1", "meh", "")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestRecordAnalysisFoldsIntoDocument(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordAnalysis(ctx, &model.ConversationAnalysis{
		UserID:         "u1",
		ConversationID: "c1",
		Topics:         []string{"golang", "databases"},
		Language:       "go",
		MessageCount:   4,
		ResponseTimeMs: 100,
	})
	require.NoError(t, err)

	m, err := svc.RecordAnalysis(ctx, &model.ConversationAnalysis{
		UserID:         "u1",
		ConversationID: "c2",
		Topics:         []string{"golang"},
		Language:       "go",
		MessageCount:   6,
		ResponseTimeMs: 200,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, m.Statistics.TotalConversations)
	assert.Equal(t, 10, m.Statistics.TotalMessages)
	assert.InDelta(t, 150, m.Statistics.AverageResponseTime, 0.001)

	require.Len(t, m.Preferences.TopicInterests, 2)
	byTopic := map[string]model.TopicInterest{}
	for _, ti := range m.Preferences.TopicInterests {
		byTopic[ti.Topic] = ti
		assert.NotEmpty(t, ti.ID)
	}
	assert.Equal(t, 2, byTopic["golang"].Frequency)
	assert.Equal(t, 1, byTopic["databases"].Frequency)

	// Language deduplicated, newest conversation first.
	assert.Equal(t, []string{"go"}, m.BehavioralPatterns.PreferredLanguages)
	assert.Equal(t, []string{"c2", "c1"}, m.RecentContext.RecentConversations)
}

func TestRecordAnalysisRequiresConversationID(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.RecordAnalysis(context.Background(), &model.ConversationAnalysis{UserID: "u1"})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestRecentConversationsBounded(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < maxRecentConversations+5; i++ {
		_, err := svc.RecordAnalysis(ctx, &model.ConversationAnalysis{
			UserID:         "u1",
			ConversationID: string(rune('a' + i)),
			MessageCount:   1,
		})
		require.NoError(t, err)
	}
	m, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, m.RecentContext.RecentConversations, maxRecentConversations)
	// Most recent first.
	assert.Equal(t, string(rune('a'+maxRecentConversations+4)), m.RecentContext.RecentConversations[0])
}

func TestClearAllResetsDocumentAndPurgesAnalytics(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordAnalysis(ctx, &model.ConversationAnalysis{
		UserID:         "u1",
		ConversationID: "c1",
		Topics:         []string{"golang"},
		MessageCount:   3,
	})
	require.NoError(t, err)
	require.NoError(t, svc.RecordFeedback(ctx, "u1", "msg-1", "positive", ""))

	require.NoError(t, svc.ClearAll(ctx, "u1"))

	m, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, m.Preferences.TopicInterests)
	assert.Equal(t, 0, m.Statistics.TotalConversations)
	assert.Equal(t, 0, m.FeedbackHistory.TotalFeedbackCount)
	require.NotNil(t, m.LastCleared)

	records, err := st.Analytics().ListSince(ctx, "u1", nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRederivePredictionsIgnoresRecordsAtOrBeforeReset(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	cleared := time.Now().UTC().Add(-time.Hour)
	m, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	m.LastCleared = &cleared
	require.NoError(t, svc.Save(ctx, m))

	// One record before the reset, one after. Only the later one may
	// contribute.
	require.NoError(t, st.Analytics().Insert(ctx, &model.ConversationAnalysis{
		AnalysisID:     "a-old",
		UserID:         "u1",
		ConversationID: "c-old",
		Topics:         []string{"forgotten"},
		Timestamp:      cleared.Add(-time.Minute),
	}))
	require.NoError(t, st.Analytics().Insert(ctx, &model.ConversationAnalysis{
		AnalysisID:     "a-new",
		UserID:         "u1",
		ConversationID: "c-new",
		Topics:         []string{"golang"},
		Timestamp:      cleared.Add(time.Minute),
	}))

	m, err = svc.RederivePredictions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, m.Predictions.LikelyQuestions, 1)
	assert.Equal(t, "Tell me more about golang", m.Predictions.LikelyQuestions[0].Question)
	assert.InDelta(t, 1.0, m.Predictions.LikelyQuestions[0].Probability, 0.001)
}

func TestRederivePredictionsOrdersByProbability(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i, topics := range [][]string{
		{"golang", "testing"},
		{"golang"},
		{"golang"},
	} {
		_, err := svc.RecordAnalysis(ctx, &model.ConversationAnalysis{
			UserID:         "u1",
			ConversationID: string(rune('a' + i)),
			Topics:         topics,
		})
		require.NoError(t, err)
	}

	m, err := svc.RederivePredictions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, m.Predictions.LikelyQuestions, 2)
	assert.Equal(t, "Tell me more about golang", m.Predictions.LikelyQuestions[0].Question)
	assert.InDelta(t, 0.75, m.Predictions.LikelyQuestions[0].Probability, 0.001)
	assert.InDelta(t, 0.25, m.Predictions.LikelyQuestions[1].Probability, 0.001)
}

func TestUpsertActiveTopic(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.UpsertActiveTopic(ctx, "u1", "migration", "moving to postgres", []string{"c1"}))
	require.NoError(t, svc.UpsertActiveTopic(ctx, "u1", "migration", "schema done", nil))

	m, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, m.RecentContext.ActiveTopics, 1)
	topic := m.RecentContext.ActiveTopics[0]
	assert.NotEmpty(t, topic.ID)
	assert.Equal(t, "schema done", topic.Description)
	assert.Equal(t, []string{"c1"}, topic.RelatedConversations)
	assert.Equal(t, "started", topic.Progress)

	assert.ErrorIs(t, svc.UpsertActiveTopic(ctx, "u1", "", "", nil), model.ErrValidation)
}

func TestGetSettingsDefaultsToEnabled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	st, err := svc.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, st.MemoryEnabled)
	assert.True(t, st.ChatHistoryEnabled)

	st.MemoryEnabled = false
	require.NoError(t, svc.UpdateSettings(ctx, st))

	st, err = svc.GetSettings(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, st.MemoryEnabled)
	assert.True(t, st.ChatHistoryEnabled)
}
