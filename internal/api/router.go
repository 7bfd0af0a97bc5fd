package api

import (
	"github.com/gorilla/mux"

	"github.com/copilotx/copilotx-server/internal/api/recovery"
	"github.com/copilotx/copilotx-server/internal/auth"
	"github.com/copilotx/copilotx-server/internal/config"
	"github.com/copilotx/copilotx-server/internal/insights"
	"github.com/copilotx/copilotx-server/internal/media"
	"github.com/copilotx/copilotx-server/internal/memory"
	"github.com/copilotx/copilotx-server/internal/providers"
	"github.com/copilotx/copilotx-server/internal/store"
)

// NewRouter wires domain services, providers, and handlers into the HTTP API.
func NewRouter(cfg *config.Config, s store.Store) (*mux.Router, error) {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	memorySvc := memory.NewService(s)
	ctxCache, err := insights.NewContextCache(insights.DefaultContextTTL)
	if err != nil {
		return nil, err
	}
	library := media.NewLibrary(cfg.UploadDir)

	chatters := []Named[ChatProvider]{
		{Name: "groq", Provider: providers.NewGroqChat(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.ProviderTimeout)},
	}
	if cfg.AnthropicAPIKey != "" {
		chatters = append(chatters, Named[ChatProvider]{
			Name: "anthropic", Provider: providers.NewAnthropicChat(cfg.AnthropicAPIKey),
		})
	}

	deps := AIDeps{
		Transcribers: []Named[Transcriber]{
			{Name: "groq", Provider: providers.NewGroqWhisper(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.ProviderTimeout)},
			{Name: "huggingface", Provider: providers.NewHFWhisper(cfg.HuggingFaceBaseURL, cfg.HuggingFaceAPIKey, cfg.ProviderTimeout)},
		},
		Chatters: chatters,
		ImageGens: []Named[MediaGenerator]{
			{Name: "flux-schnell", Provider: providers.NewHFImage(cfg.HuggingFaceBaseURL, cfg.HuggingFaceAPIKey, providers.ImagePrimaryModel, cfg.ProviderTimeout)},
			{Name: "sdxl", Provider: providers.NewHFImage(cfg.HuggingFaceBaseURL, cfg.HuggingFaceAPIKey, providers.ImageFallbackModel, cfg.ProviderTimeout)},
		},
		VideoGens: []Named[VideoGenerator]{
			{Name: "huggingface", Provider: providers.NewHFVideo(cfg.HuggingFaceBaseURL, cfg.HuggingFaceAPIKey, cfg.ProviderTimeout)},
		},
		TTS:       providers.NewEdgeTTS(cfg.TTSPython, cfg.TTSCommand, cfg.TTSTimeout, cfg.TTSProbeCooldown),
		Library:   library,
		MemorySvc: memorySvc,
		CtxCache:  ctxCache,
	}

	healthHandler := NewHealthHandler(s)
	memoryHandler := NewMemoryHandler(memorySvc, ctxCache)
	aiHandler := NewAIHandler(deps)

	mw := auth.NewMiddleware(auth.NewStaticAuthorizer(cfg.DevAPIKey))

	// Health endpoints
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")
	router.HandleFunc("/api/health/db", healthHandler.CheckStorageHealth).Methods("GET")

	// Memory endpoints
	router.HandleFunc("/api/memory/insights", mw.Require(memoryHandler.GetInsights)).Methods("GET")
	router.HandleFunc("/api/memory/predictions", mw.Require(memoryHandler.GetPredictions)).Methods("GET")
	router.HandleFunc("/api/memory/feedback", mw.Require(memoryHandler.RecordFeedback)).Methods("POST")
	router.HandleFunc("/api/memory/learning-progress", mw.Require(memoryHandler.GetLearningProgress)).Methods("GET")
	router.HandleFunc("/api/memory/topics", mw.Require(memoryHandler.GetTopics)).Methods("GET")
	router.HandleFunc("/api/memory/recent-context", mw.Require(memoryHandler.GetRecentContext)).Methods("GET")
	router.HandleFunc("/api/memory/statistics", mw.Require(memoryHandler.GetStatistics)).Methods("GET")
	router.HandleFunc("/api/memory/context", mw.Require(memoryHandler.GetPersonalizedContext)).Methods("GET")
	router.HandleFunc("/api/memory/active-topic", mw.Require(memoryHandler.UpsertActiveTopic)).Methods("POST")
	router.HandleFunc("/api/memory/analyze/{conversationId}", mw.Require(memoryHandler.AnalyzeConversation)).Methods("POST")
	router.HandleFunc("/api/memory/all", mw.Require(memoryHandler.ListAll)).Methods("GET")
	router.HandleFunc("/api/memory/stats", mw.Require(memoryHandler.GetStats)).Methods("GET")
	router.HandleFunc("/api/memory/export", mw.Require(memoryHandler.Export)).Methods("GET")
	router.HandleFunc("/api/memory/settings", mw.Require(memoryHandler.UpdateSettings)).Methods("PUT")
	// clear-all must be registered before the {memoryId} wildcard.
	router.HandleFunc("/api/memory/clear-all", mw.Require(memoryHandler.ClearAll)).Methods("DELETE")
	router.HandleFunc("/api/memory/{memoryId}", mw.Require(memoryHandler.DeleteMemory)).Methods("DELETE")

	// AI endpoints
	router.HandleFunc("/api/ai/speech-to-text", mw.Require(aiHandler.SpeechToText)).Methods("POST")
	router.HandleFunc("/api/ai/text-to-speech-status", mw.Optional(aiHandler.TTSStatus)).Methods("GET")
	router.HandleFunc("/api/ai/text-to-speech", mw.Optional(aiHandler.TextToSpeech)).Methods("POST")
	router.HandleFunc("/api/ai/generate-image", mw.Require(aiHandler.GenerateImage)).Methods("POST")
	router.HandleFunc("/api/ai/images/{userId}/{filename}", mw.Require(aiHandler.ServeImage)).Methods("GET")
	router.HandleFunc("/api/ai/images/{filename}", mw.Require(aiHandler.DeleteImage)).Methods("DELETE")
	router.HandleFunc("/api/ai/my-images", mw.Require(aiHandler.ListMyImages)).Methods("GET")
	router.HandleFunc("/api/ai/generate-video", mw.Require(aiHandler.GenerateVideo)).Methods("POST")
	router.HandleFunc("/api/ai/generate-videos-batch", mw.Require(aiHandler.GenerateVideosBatch)).Methods("POST")
	router.HandleFunc("/api/ai/videos/{filename}", mw.Require(aiHandler.DeleteVideo)).Methods("DELETE")
	router.HandleFunc("/api/ai/chat", mw.Optional(aiHandler.Chat)).Methods("POST")
	router.HandleFunc("/api/ai/generate", mw.Optional(aiHandler.Generate)).Methods("POST")
	router.HandleFunc("/api/ai/voice-chat", mw.Require(aiHandler.VoiceChat)).Methods("POST")

	return router, nil
}
