package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/copilotx/copilotx-server/internal/api/respond"
	"github.com/copilotx/copilotx-server/internal/auth"
	"github.com/copilotx/copilotx-server/internal/insights"
	"github.com/copilotx/copilotx-server/internal/memory"
	"github.com/copilotx/copilotx-server/internal/model"
)

// MemoryHandler serves the /api/memory endpoints.
type MemoryHandler struct {
	svc      *memory.Service
	ctxCache *insights.ContextCache
}

func NewMemoryHandler(svc *memory.Service, ctxCache *insights.ContextCache) *MemoryHandler {
	return &MemoryHandler{svc: svc, ctxCache: ctxCache}
}

func (h *MemoryHandler) invalidate(userID string) {
	if h.ctxCache != nil {
		h.ctxCache.Invalidate(userID)
	}
}

// GetInsights GET /api/memory/insights
func (h *MemoryHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	m, err := h.svc.Get(r.Context(), user.UserID)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to get insights")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"insights": insights.Summarize(m),
	})
}

// GetPredictions GET /api/memory/predictions
func (h *MemoryHandler) GetPredictions(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	m, err := h.svc.Get(r.Context(), user.UserID)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to get predictions")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"predictions": m.Predictions,
	})
}

// RecordFeedback POST /api/memory/feedback
func (h *MemoryHandler) RecordFeedback(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	var req struct {
		MessageID    string `json:"messageId"`
		FeedbackType string `json:"feedbackType"`
		Reason       string `json:"reason,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.MessageID == "" || req.FeedbackType == "" {
		respond.WriteBadRequest(w, "Missing required fields")
		return
	}
	if err := h.svc.RecordFeedback(r.Context(), user.UserID, req.MessageID, req.FeedbackType, req.Reason); err != nil {
		respond.WriteFromError(w, err, "Failed to record feedback")
		return
	}
	h.invalidate(user.UserID)
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Feedback recorded",
	})
}

// GetLearningProgress GET /api/memory/learning-progress
func (h *MemoryHandler) GetLearningProgress(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	m, err := h.svc.Get(r.Context(), user.UserID)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to get learning progress")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"progress": insights.Progress(m),
	})
}

// GetTopics GET /api/memory/topics
func (h *MemoryHandler) GetTopics(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	m, err := h.svc.Get(r.Context(), user.UserID)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to get topics")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"topics":  insights.Summarize(m).TopTopics,
	})
}

// GetRecentContext GET /api/memory/recent-context
func (h *MemoryHandler) GetRecentContext(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	m, err := h.svc.Get(r.Context(), user.UserID)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to get recent context")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"recentContext": m.RecentContext,
	})
}

// GetStatistics GET /api/memory/statistics
func (h *MemoryHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	m, err := h.svc.Get(r.Context(), user.UserID)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to get statistics")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":            true,
		"statistics":         m.Statistics,
		"behavioralPatterns": m.BehavioralPatterns,
	})
}

// GetPersonalizedContext GET /api/memory/context
func (h *MemoryHandler) GetPersonalizedContext(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if h.ctxCache != nil {
		if cached, ok := h.ctxCache.Get(user.UserID); ok {
			respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"context": cached,
			})
			return
		}
	}
	m, err := h.svc.Get(r.Context(), user.UserID)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to get context")
		return
	}
	rendered := insights.PersonalizedContext(m)
	if h.ctxCache != nil {
		h.ctxCache.Set(user.UserID, rendered)
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"context": rendered,
	})
}

// UpsertActiveTopic POST /api/memory/active-topic
func (h *MemoryHandler) UpsertActiveTopic(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	var req struct {
		Topic                string   `json:"topic"`
		Description          string   `json:"description,omitempty"`
		RelatedConversations []string `json:"relatedConversations,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if req.Topic == "" {
		respond.WriteBadRequest(w, "Topic is required")
		return
	}
	if err := h.svc.UpsertActiveTopic(r.Context(), user.UserID, req.Topic, req.Description, req.RelatedConversations); err != nil {
		respond.WriteFromError(w, err, "Failed to update active topic")
		return
	}
	h.invalidate(user.UserID)
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Active topic updated",
	})
}

// AnalyzeConversation POST /api/memory/analyze/{conversationId}
func (h *MemoryHandler) AnalyzeConversation(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	conversationID := mux.Vars(r)["conversationId"]
	var req struct {
		Topics         []string `json:"topics,omitempty"`
		Language       string   `json:"language,omitempty"`
		MessageCount   int      `json:"messageCount,omitempty"`
		ResponseTimeMs float64  `json:"responseTimeMs,omitempty"`
	}
	if r.Body != nil {
		// Body is optional; a bare analyze call still counts the conversation.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	rec := &model.ConversationAnalysis{
		UserID:         user.UserID,
		ConversationID: conversationID,
		Topics:         req.Topics,
		Language:       req.Language,
		MessageCount:   req.MessageCount,
		ResponseTimeMs: req.ResponseTimeMs,
	}
	if _, err := h.svc.RecordAnalysis(r.Context(), rec); err != nil {
		respond.WriteFromError(w, err, "Failed to analyze conversation")
		return
	}
	m, err := h.svc.RederivePredictions(r.Context(), user.UserID)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to analyze conversation")
		return
	}
	h.invalidate(user.UserID)
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"analytics": rec,
		"memory":    m.Statistics,
	})
}

// ListAll GET /api/memory/all
func (h *MemoryHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	m, err := h.svc.Get(r.Context(), user.UserID)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to load memories")
		return
	}
	items := insights.Items(m)
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"memories": items,
		"count":    len(items),
	})
}

// GetStats GET /api/memory/stats
func (h *MemoryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	m, err := h.svc.Get(r.Context(), user.UserID)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to load statistics")
		return
	}
	settings, err := h.svc.GetSettings(r.Context(), user.UserID)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to load statistics")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats":   insights.Usage(m, settings.MemoryEnabled),
	})
}

// DeleteMemory DELETE /api/memory/{memoryId}
func (h *MemoryHandler) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	memoryID := mux.Vars(r)["memoryId"]
	if err := h.svc.DeleteItem(r.Context(), user.UserID, memoryID); err != nil {
		respond.WriteFromError(w, err, "Failed to delete memory")
		return
	}
	h.invalidate(user.UserID)
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Memory deleted successfully",
	})
}

// ClearAll DELETE /api/memory/clear-all
func (h *MemoryHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if err := h.svc.ClearAll(r.Context(), user.UserID); err != nil {
		respond.WriteFromError(w, err, "Failed to clear memories")
		return
	}
	h.invalidate(user.UserID)
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "All memories cleared successfully",
	})
}

// Export GET /api/memory/export
func (h *MemoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	m, err := h.svc.Get(r.Context(), user.UserID)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to export memories")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"memories": m,
	})
}

// UpdateSettings PUT /api/memory/settings
func (h *MemoryHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	var req struct {
		MemoryEnabled      *bool `json:"memoryEnabled"`
		ChatHistoryEnabled *bool `json:"chatHistoryEnabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	settings, err := h.svc.GetSettings(r.Context(), user.UserID)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to update settings")
		return
	}
	if req.MemoryEnabled != nil {
		settings.MemoryEnabled = *req.MemoryEnabled
	}
	if req.ChatHistoryEnabled != nil {
		settings.ChatHistoryEnabled = *req.ChatHistoryEnabled
	}
	if err := h.svc.UpdateSettings(r.Context(), settings); err != nil {
		respond.WriteFromError(w, err, "Failed to update settings")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Settings updated successfully",
	})
}
