// Package insights derives display-ready views from a user's memory
// document. Every function here is read-only over the document; mutations
// are routed through the memory service.
package insights

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/copilotx/copilotx-server/internal/model"
)

const maxPredictionsShown = 5

// Insights is the summary view behind GET /api/memory/insights.
type Insights struct {
	TopTopics      []model.TopicInterest `json:"topTopics"`
	RecentActivity RecentActivity        `json:"recentActivity"`
	Predictions    []Prediction          `json:"predictions"`
	ActiveTopics   []model.ActiveTopic   `json:"activeTopics"`
}

type RecentActivity struct {
	TotalConversations int     `json:"totalConversations"`
	TotalMessages      int     `json:"totalMessages"`
	AverageEngagement  float64 `json:"averageEngagement"`
}

// Prediction is a likely question with a display confidence percentage.
type Prediction struct {
	Question   string `json:"question"`
	Confidence int    `json:"confidence"`
}

// Summarize builds the insight view: topics by frequency descending, the
// activity counters, and the top likely questions by probability.
func Summarize(m *model.UserMemory) Insights {
	topics := append([]model.TopicInterest{}, m.Preferences.TopicInterests...)
	sort.SliceStable(topics, func(i, j int) bool {
		return topics[i].Frequency > topics[j].Frequency
	})

	questions := append([]model.LikelyQuestion{}, m.Predictions.LikelyQuestions...)
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Probability > questions[j].Probability
	})
	if len(questions) > maxPredictionsShown {
		questions = questions[:maxPredictionsShown]
	}
	preds := make([]Prediction, len(questions))
	for i, q := range questions {
		preds[i] = Prediction{
			Question:   q.Question,
			Confidence: int(math.Round(q.Probability * 100)),
		}
	}

	return Insights{
		TopTopics: topics,
		RecentActivity: RecentActivity{
			TotalConversations: m.Statistics.TotalConversations,
			TotalMessages:      m.Statistics.TotalMessages,
			AverageEngagement:  m.Statistics.AverageResponseTime,
		},
		Predictions:  preds,
		ActiveTopics: m.RecentContext.ActiveTopics,
	}
}

// LearningProgress reports how much the system has learned about the user.
// The learning score is a saturating weighted sum capped at 100; a display
// heuristic, not a probability.
type LearningProgress struct {
	PatternsIdentified    int `json:"patternsIdentified"`
	PreferencesLearned    int `json:"preferencesLearned"`
	ConversationsAnalyzed int `json:"conversationsAnalyzed"`
	FeedbackReceived      int `json:"feedbackReceived"`
	PredictionsMade       int `json:"predictionsMade"`
	LearningScore         int `json:"learningScore"`
}

func Progress(m *model.UserMemory) LearningProgress {
	p := LearningProgress{
		PatternsIdentified:    len(m.Preferences.TopicInterests),
		PreferencesLearned:    len(m.Preferences.CommunicationStyle),
		ConversationsAnalyzed: m.Statistics.TotalConversations,
		FeedbackReceived:      m.FeedbackHistory.TotalFeedbackCount,
		PredictionsMade:       len(m.Predictions.LikelyQuestions),
	}
	score := p.PatternsIdentified*5 + p.PreferencesLearned*10 +
		p.ConversationsAnalyzed*2 + p.FeedbackReceived*5
	if score > 100 {
		score = 100
	}
	p.LearningScore = score
	return p
}

// Stats is the storage overview behind GET /api/memory/stats.
type Stats struct {
	TotalMemories      int       `json:"totalMemories"`
	TotalConversations int       `json:"totalConversations"`
	TotalTopics        int       `json:"totalTopics"`
	StorageUsed        int       `json:"storageUsed"`
	LastUpdated        time.Time `json:"lastUpdated"`
	MemoryEnabled      bool      `json:"memoryEnabled"`
}

// Usage computes the stats view. StorageUsed is the byte length of the
// serialized document, recomputed on every call and never cached.
func Usage(m *model.UserMemory, memoryEnabled bool) Stats {
	total := len(m.Preferences.CommunicationStyle) +
		len(m.Preferences.TopicInterests) +
		len(m.RecentContext.ActiveTopics) +
		len(m.BehavioralPatterns.PreferredLanguages)

	size := 0
	if raw, err := json.Marshal(m); err == nil {
		size = len(raw)
	}
	return Stats{
		TotalMemories:      total,
		TotalConversations: m.Statistics.TotalConversations,
		TotalTopics:        len(m.Preferences.TopicInterests),
		StorageUsed:        size,
		LastUpdated:        m.LastUpdated,
		MemoryEnabled:      memoryEnabled,
	}
}

// Item is one flattened derived memory for the management UI. The ID is the
// handle accepted by DELETE /api/memory/{memoryId}.
type Item struct {
	ID         string    `json:"_id"`
	Category   string    `json:"category"`
	Content    string    `json:"content"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Items flattens the document's sub-collections into the management list.
// Topic and context items carry their durable IDs; languages use positional
// handles since a plain string has no identity of its own.
func Items(m *model.UserMemory) []Item {
	items := []Item{}

	for key, value := range m.Preferences.CommunicationStyle {
		items = append(items, Item{
			ID:         "pref_" + key,
			Category:   "Preferences",
			Content:    fmt.Sprintf("Communication %s: %s", key, value),
			Confidence: 0.9,
			CreatedAt:  m.LastUpdated,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	for _, t := range m.Preferences.TopicInterests {
		items = append(items, Item{
			ID:         "topic_" + t.ID,
			Category:   "Topics",
			Content:    t.Topic,
			Confidence: math.Min(float64(t.Frequency)/10, 1),
			CreatedAt:  t.LastDiscussed,
		})
	}

	for i, lang := range m.BehavioralPatterns.PreferredLanguages {
		items = append(items, Item{
			ID:         fmt.Sprintf("lang_%d", i),
			Category:   "Patterns",
			Content:    "Preferred language: " + lang,
			Confidence: 0.85,
			CreatedAt:  m.LastUpdated,
		})
	}
	if m.BehavioralPatterns.PeakUsageTime != nil {
		items = append(items, Item{
			ID:         "peak_time",
			Category:   "Patterns",
			Content:    "Peak usage time: " + *m.BehavioralPatterns.PeakUsageTime,
			Confidence: 0.8,
			CreatedAt:  m.LastUpdated,
		})
	}

	for _, t := range m.RecentContext.ActiveTopics {
		desc := t.Description
		if desc == "" {
			desc = "In progress"
		}
		items = append(items, Item{
			ID:         "context_" + t.ID,
			Category:   "Context",
			Content:    t.Topic + ": " + desc,
			Confidence: 0.95,
			CreatedAt:  t.LastUpdated,
		})
	}

	return items
}

// PersonalizedContext renders a short plain-text summary of what is known
// about the user, injected into chat prompts as a system preamble.
func PersonalizedContext(m *model.UserMemory) string {
	var b strings.Builder

	if n := len(m.Preferences.TopicInterests); n > 0 {
		topics := append([]model.TopicInterest{}, m.Preferences.TopicInterests...)
		sort.SliceStable(topics, func(i, j int) bool {
			return topics[i].Frequency > topics[j].Frequency
		})
		if len(topics) > 5 {
			topics = topics[:5]
		}
		names := make([]string, len(topics))
		for i, t := range topics {
			names[i] = t.Topic
		}
		fmt.Fprintf(&b, "The user is interested in: %s.\n", strings.Join(names, ", "))
	}
	if len(m.RecentContext.ActiveTopics) > 0 {
		names := make([]string, len(m.RecentContext.ActiveTopics))
		for i, t := range m.RecentContext.ActiveTopics {
			names[i] = t.Topic
		}
		fmt.Fprintf(&b, "Currently active projects: %s.\n", strings.Join(names, ", "))
	}
	if len(m.BehavioralPatterns.PreferredLanguages) > 0 {
		fmt.Fprintf(&b, "Preferred languages: %s.\n",
			strings.Join(m.BehavioralPatterns.PreferredLanguages, ", "))
	}
	if m.Preferences.PreferredTone != "" {
		fmt.Fprintf(&b, "Preferred tone: %s.\n", m.Preferences.PreferredTone)
	}
	return b.String()
}
