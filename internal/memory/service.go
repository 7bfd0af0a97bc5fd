package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/copilotx/copilotx-server/internal/model"
	"github.com/copilotx/copilotx-server/internal/store"
)

const maxRecentConversations = 10

// Service owns the per-user memory document: read-modify-save plus the
// explicit feedback, topic and reset actions. Writes are last-write-wins at
// the storage layer; concurrent edits to the same user's document can lose
// updates, which is accepted for a single-user document.
type Service struct {
	store store.Store
}

func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// Get loads the user's document, creating and persisting a default one on
// first access. It never fails with "not found".
func (s *Service) Get(ctx context.Context, userID string) (*model.UserMemory, error) {
	m, err := s.store.Memories().Get(ctx, userID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	m = model.NewUserMemory(userID)
	if err := s.store.Memories().Put(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Save persists the full document, stamping LastUpdated.
func (s *Service) Save(ctx context.Context, m *model.UserMemory) error {
	m.LastUpdated = time.Now().UTC()
	return s.store.Memories().Put(ctx, m)
}

// DeleteItem removes one derived-memory entry addressed by its handle
// (see selector.go for the taxonomy). The handle is resolved against the
// current document, not a snapshot.
func (s *Service) DeleteItem(ctx context.Context, userID, memoryID string) error {
	m, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := deleteItem(m, memoryID); err != nil {
		return err
	}
	return s.Save(ctx, m)
}

// ClearAll resets every mutable field to its default, stamps LastCleared and
// purges the user's conversation-analytics records so cleared data cannot be
// re-learned from stale analysis.
func (s *Service) ClearAll(ctx context.Context, userID string) error {
	m := model.NewUserMemory(userID)
	now := time.Now().UTC()
	m.LastCleared = &now
	m.LastUpdated = now
	if err := s.store.Memories().Put(ctx, m); err != nil {
		return err
	}
	if err := s.store.Analytics().DeleteAll(ctx, userID); err != nil {
		return err
	}
	log.Info().Str("user_id", userID).Msg("cleared all memories and analytics")
	return nil
}

// RecordFeedback increments the feedback counters for the given message.
func (s *Service) RecordFeedback(ctx context.Context, userID, messageID, feedbackType, reason string) error {
	if messageID == "" || feedbackType == "" {
		return fmt.Errorf("%w: messageId and feedbackType are required", model.ErrValidation)
	}
	m, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	m.FeedbackHistory.TotalFeedbackCount++
	switch feedbackType {
	case "positive":
		m.FeedbackHistory.PositiveFeedback++
	case "negative":
		m.FeedbackHistory.NegativeFeedback++
	default:
		return fmt.Errorf("%w: feedbackType must be positive or negative", model.ErrValidation)
	}
	log.Debug().
		Str("user_id", userID).
		Str("message_id", messageID).
		Str("feedback", feedbackType).
		Str("reason", reason).
		Msg("feedback recorded")
	return s.Save(ctx, m)
}

// UpsertActiveTopic adds a topic to the recent context, or refreshes it when
// it already exists.
func (s *Service) UpsertActiveTopic(ctx context.Context, userID, topic, description string, related []string) error {
	if topic == "" {
		return fmt.Errorf("%w: topic is required", model.ErrValidation)
	}
	m, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for i := range m.RecentContext.ActiveTopics {
		t := &m.RecentContext.ActiveTopics[i]
		if t.Topic == topic {
			if description != "" {
				t.Description = description
			}
			if related != nil {
				t.RelatedConversations = related
			}
			t.LastUpdated = now
			return s.Save(ctx, m)
		}
	}
	m.RecentContext.ActiveTopics = append(m.RecentContext.ActiveTopics, model.ActiveTopic{
		ID:                   uuid.New().String(),
		Topic:                topic,
		Description:          description,
		StartedAt:            now,
		LastUpdated:          now,
		RelatedConversations: append([]string{}, related...),
		Progress:             "started",
	})
	return s.Save(ctx, m)
}

// RecordAnalysis persists a conversation-analysis record and folds it into
// the document: statistics counters, topic interests, preferred languages
// and the recent-conversation list.
func (s *Service) RecordAnalysis(ctx context.Context, a *model.ConversationAnalysis) (*model.UserMemory, error) {
	if a.ConversationID == "" {
		return nil, fmt.Errorf("%w: conversationId is required", model.ErrValidation)
	}
	if a.AnalysisID == "" {
		a.AnalysisID = uuid.New().String()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	if err := s.store.Analytics().Insert(ctx, a); err != nil {
		return nil, err
	}

	m, err := s.Get(ctx, a.UserID)
	if err != nil {
		return nil, err
	}
	// A reset suppresses learning from records at or before the reset; a
	// freshly recorded analysis is always newer, but guard anyway since the
	// record's timestamp is caller-supplied.
	if m.LastCleared != nil && !a.Timestamp.After(*m.LastCleared) {
		return m, nil
	}

	m.Statistics.TotalConversations++
	m.Statistics.TotalMessages += a.MessageCount
	if a.ResponseTimeMs > 0 {
		n := float64(m.Statistics.TotalConversations)
		m.Statistics.AverageResponseTime += (a.ResponseTimeMs - m.Statistics.AverageResponseTime) / n
	}

	for _, topic := range a.Topics {
		upsertTopicInterest(m, topic, a.Timestamp)
	}
	if a.Language != "" {
		addPreferredLanguage(m, a.Language)
	}
	m.RecentContext.RecentConversations = prependBounded(
		m.RecentContext.RecentConversations, a.ConversationID, maxRecentConversations)

	if err := s.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RederivePredictions recomputes likely questions from the user's analytics.
// The lastCleared filter is enforced here, centrally: records at or before a
// reset never contribute, so a clear-all stays permanent until new data
// arrives.
func (s *Service) RederivePredictions(ctx context.Context, userID string) (*model.UserMemory, error) {
	m, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := s.store.Analytics().ListSince(ctx, userID, m.LastCleared)
	if err != nil {
		return nil, err
	}

	freq := map[string]int{}
	total := 0
	for _, rec := range records {
		for _, topic := range rec.Topics {
			freq[topic]++
			total++
		}
	}
	questions := make([]model.LikelyQuestion, 0, len(freq))
	for topic, n := range freq {
		questions = append(questions, model.LikelyQuestion{
			Question:    fmt.Sprintf("Tell me more about %s", topic),
			Probability: float64(n) / float64(max(total, 1)),
		})
	}
	sort.Slice(questions, func(i, j int) bool {
		return questions[i].Probability > questions[j].Probability
	})
	m.Predictions.LikelyQuestions = questions

	if err := s.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// GetSettings returns the user's memory settings, defaulting to enabled.
func (s *Service) GetSettings(ctx context.Context, userID string) (*model.MemorySettings, error) {
	st, err := s.store.Settings().Get(ctx, userID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	return &model.MemorySettings{
		UserID:             userID,
		MemoryEnabled:      true,
		ChatHistoryEnabled: true,
	}, nil
}

// UpdateSettings persists the memory toggles.
func (s *Service) UpdateSettings(ctx context.Context, st *model.MemorySettings) error {
	st.UpdatedAt = time.Now().UTC()
	return s.store.Settings().Put(ctx, st)
}

func upsertTopicInterest(m *model.UserMemory, topic string, at time.Time) {
	for i := range m.Preferences.TopicInterests {
		t := &m.Preferences.TopicInterests[i]
		if t.Topic == topic {
			t.Frequency++
			t.LastDiscussed = at
			return
		}
	}
	m.Preferences.TopicInterests = append(m.Preferences.TopicInterests, model.TopicInterest{
		ID:            uuid.New().String(),
		Topic:         topic,
		Frequency:     1,
		LastDiscussed: at,
	})
}

func addPreferredLanguage(m *model.UserMemory, lang string) {
	for _, l := range m.BehavioralPatterns.PreferredLanguages {
		if l == lang {
			return
		}
	}
	m.BehavioralPatterns.PreferredLanguages = append(m.BehavioralPatterns.PreferredLanguages, lang)
}

func prependBounded(list []string, v string, limit int) []string {
	out := make([]string, 0, limit)
	out = append(out, v)
	for _, x := range list {
		if x == v {
			continue
		}
		out = append(out, x)
		if len(out) == limit {
			break
		}
	}
	return out
}
