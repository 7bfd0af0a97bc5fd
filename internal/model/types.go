package model

import "time"

// UserMemory is the per-user learning document. One exists per user; it is
// created lazily on first access and mutated by conversation analysis,
// explicit feedback and settings actions. Concurrent writes to the same
// user's document follow last-write-wins at the storage layer; lost updates
// under concurrent edits by a single user are an accepted limitation.
type UserMemory struct {
	UserID             string             `json:"userId"`
	Preferences        Preferences        `json:"preferences"`
	RecentContext      RecentContext      `json:"recentContext"`
	BehavioralPatterns BehavioralPatterns `json:"behavioralPatterns"`
	Predictions        Predictions        `json:"predictions"`
	Statistics         Statistics         `json:"statistics"`
	FeedbackHistory    FeedbackHistory    `json:"feedbackHistory"`
	LastUpdated        time.Time          `json:"lastUpdated"`
	// LastCleared marks an explicit reset. When set, derivations must ignore
	// conversation analytics recorded at or before this instant so cleared
	// data is not resurrected.
	LastCleared *time.Time `json:"lastCleared,omitempty"`
}

type Preferences struct {
	CommunicationStyle map[string]string `json:"communicationStyle"`
	TopicInterests     []TopicInterest   `json:"topicInterests"`
	PreferredTone      string            `json:"preferredTone"`
}

// TopicInterest tracks how often a topic comes up. ID is a durable opaque
// handle assigned at creation; clients delete items by it.
type TopicInterest struct {
	ID            string    `json:"id"`
	Topic         string    `json:"topic"`
	Frequency     int       `json:"frequency"`
	LastDiscussed time.Time `json:"lastDiscussed"`
}

type RecentContext struct {
	ActiveTopics        []ActiveTopic `json:"activeTopics"`
	RecentConversations []string      `json:"recentConversations"`
}

type ActiveTopic struct {
	ID                   string    `json:"id"`
	Topic                string    `json:"topic"`
	Description          string    `json:"description,omitempty"`
	StartedAt            time.Time `json:"startedAt"`
	LastUpdated          time.Time `json:"lastUpdated"`
	RelatedConversations []string  `json:"relatedConversations"`
	Progress             string    `json:"progress"`
}

type BehavioralPatterns struct {
	PreferredLanguages     []string `json:"preferredLanguages"`
	PeakUsageTime          *string  `json:"peakUsageTime,omitempty"`
	AverageSessionDuration float64  `json:"averageSessionDuration"`
}

type Predictions struct {
	LikelyQuestions  []LikelyQuestion `json:"likelyQuestions"`
	SuggestedActions []string         `json:"suggestedActions"`
}

type LikelyQuestion struct {
	Question    string  `json:"question"`
	Probability float64 `json:"probability"`
}

type Statistics struct {
	TotalConversations  int     `json:"totalConversations"`
	TotalMessages       int     `json:"totalMessages"`
	AverageResponseTime float64 `json:"averageResponseTime"`
}

type FeedbackHistory struct {
	TotalFeedbackCount int `json:"totalFeedbackCount"`
	PositiveFeedback   int `json:"positiveFeedback"`
	NegativeFeedback   int `json:"negativeFeedback"`
}

// NewUserMemory returns a default-initialized document for a user.
func NewUserMemory(userID string) *UserMemory {
	return &UserMemory{
		UserID: userID,
		Preferences: Preferences{
			CommunicationStyle: map[string]string{},
			TopicInterests:     []TopicInterest{},
			PreferredTone:      "balanced",
		},
		RecentContext: RecentContext{
			ActiveTopics:        []ActiveTopic{},
			RecentConversations: []string{},
		},
		BehavioralPatterns: BehavioralPatterns{
			PreferredLanguages: []string{},
		},
		Predictions: Predictions{
			LikelyQuestions:  []LikelyQuestion{},
			SuggestedActions: []string{},
		},
		LastUpdated: time.Now().UTC(),
	}
}

// ConversationAnalysis is one analyzed conversation, stored separately from
// the document so a clear-all can purge it wholesale.
type ConversationAnalysis struct {
	AnalysisID     string    `json:"analysisId"`
	UserID         string    `json:"userId"`
	ConversationID string    `json:"conversationId"`
	Topics         []string  `json:"topics"`
	Language       string    `json:"language,omitempty"`
	MessageCount   int       `json:"messageCount"`
	ResponseTimeMs float64   `json:"responseTimeMs,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// MemorySettings holds the user-controllable memory toggles.
type MemorySettings struct {
	UserID             string    `json:"userId"`
	MemoryEnabled      bool      `json:"memoryEnabled"`
	ChatHistoryEnabled bool      `json:"chatHistoryEnabled"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
