package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/copilotx/copilotx-server/internal/api/respond"
	"github.com/copilotx/copilotx-server/internal/api/validate"
	"github.com/copilotx/copilotx-server/internal/auth"
	"github.com/copilotx/copilotx-server/internal/gateway"
	"github.com/copilotx/copilotx-server/internal/insights"
	"github.com/copilotx/copilotx-server/internal/media"
	"github.com/copilotx/copilotx-server/internal/memory"
	"github.com/copilotx/copilotx-server/internal/providers"
)

// Transcriber converts uploaded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio []byte) (providers.Transcription, error)
}

// ChatProvider generates a chat completion.
type ChatProvider interface {
	Complete(ctx context.Context, system, prompt string, history []providers.ChatMessage) (providers.ChatReply, error)
}

// MediaGenerator produces image or video bytes from a prompt.
type MediaGenerator interface {
	Generate(ctx context.Context, prompt string, opts providers.ImageOptions) (providers.GeneratedMedia, error)
}

// VideoGenerator produces a video clip from a prompt.
type VideoGenerator interface {
	Generate(ctx context.Context, prompt string) (providers.GeneratedMedia, error)
}

// SpeechSynthesizer renders text to audio.
type SpeechSynthesizer interface {
	Available(ctx context.Context) bool
	Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error)
}

// Named pairs a provider with the name reported in responses and aggregated
// errors; order in the slice is fallback order.
type Named[T any] struct {
	Name     string
	Provider T
}

// AIHandler serves the /api/ai endpoints.
type AIHandler struct {
	transcribers []Named[Transcriber]
	chatters     []Named[ChatProvider]
	imageGens    []Named[MediaGenerator]
	videoGens    []Named[VideoGenerator]
	tts          SpeechSynthesizer
	library      *media.Library
	memorySvc    *memory.Service
	ctxCache     *insights.ContextCache
}

// AIDeps bundles the collaborators the AI handlers need.
type AIDeps struct {
	Transcribers []Named[Transcriber]
	Chatters     []Named[ChatProvider]
	ImageGens    []Named[MediaGenerator]
	VideoGens    []Named[VideoGenerator]
	TTS          SpeechSynthesizer
	Library      *media.Library
	MemorySvc    *memory.Service
	CtxCache     *insights.ContextCache
}

func NewAIHandler(deps AIDeps) *AIHandler {
	return &AIHandler{
		transcribers: deps.Transcribers,
		chatters:     deps.Chatters,
		imageGens:    deps.ImageGens,
		videoGens:    deps.VideoGens,
		tts:          deps.TTS,
		library:      deps.Library,
		memorySvc:    deps.MemorySvc,
		ctxCache:     deps.CtxCache,
	}
}

// personalContext renders (and caches) the user's personalization preamble;
// empty when the request is unauthenticated or memory is unreachable.
func (h *AIHandler) personalContext(r *http.Request) string {
	user := auth.UserFromContext(r.Context())
	if user == nil || h.memorySvc == nil {
		return ""
	}
	if h.ctxCache != nil {
		if cached, ok := h.ctxCache.Get(user.UserID); ok {
			return cached
		}
	}
	m, err := h.memorySvc.Get(r.Context(), user.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.UserID).Msg("personalization unavailable")
		return ""
	}
	rendered := insights.PersonalizedContext(m)
	if h.ctxCache != nil {
		h.ctxCache.Set(user.UserID, rendered)
	}
	return rendered
}

func (h *AIHandler) complete(r *http.Request, system, prompt string, history []providers.ChatMessage) (providers.ChatReply, error) {
	candidates := make([]gateway.Candidate[providers.ChatReply], len(h.chatters))
	for i, c := range h.chatters {
		c := c
		candidates[i] = gateway.Candidate[providers.ChatReply]{
			Name: c.Name,
			Run: func(ctx context.Context) (providers.ChatReply, error) {
				return c.Provider.Complete(ctx, system, prompt, history)
			},
		}
	}
	reply, _, err := gateway.Invoke(r.Context(), "chat-completion", candidates)
	return reply, err
}

// SpeechToText POST /api/ai/speech-to-text
func (h *AIHandler) SpeechToText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, validate.MaxAudioUploadBytes)
	if err := r.ParseMultipartForm(validate.MaxAudioUploadBytes); err != nil {
		respond.WriteBadRequest(w, "No audio file provided")
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		respond.WriteBadRequest(w, "No audio file provided")
		return
	}
	defer func() { _ = file.Close() }()

	if err := validate.AudioUpload(header.Filename, header.Size); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	audio, err := io.ReadAll(file)
	if err != nil {
		respond.WriteInternalError(w, "Failed to read audio upload")
		return
	}

	candidates := make([]gateway.Candidate[providers.Transcription], len(h.transcribers))
	for i, c := range h.transcribers {
		c := c
		candidates[i] = gateway.Candidate[providers.Transcription]{
			Name: c.Name,
			Run: func(ctx context.Context) (providers.Transcription, error) {
				return c.Provider.Transcribe(ctx, header.Filename, audio)
			},
		}
	}
	result, _, err := gateway.Invoke(r.Context(), "speech-to-text", candidates)
	if err != nil {
		respond.WriteFromError(w, err, "Transcription failed")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"text":     result.Text,
		"language": result.Language,
		"provider": result.Provider,
	})
}

// TTSStatus GET /api/ai/text-to-speech-status
func (h *AIHandler) TTSStatus(w http.ResponseWriter, r *http.Request) {
	available := h.tts.Available(r.Context())
	provider := "edge_tts"
	message := "Server-side TTS is available."
	if !available {
		provider = "browser_fallback"
		message = "Server-side TTS is unavailable on this instance. Use browser fallback."
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"available": available,
		"provider":  provider,
		"message":   message,
	})
}

// TextToSpeech POST /api/ai/text-to-speech
func (h *AIHandler) TextToSpeech(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text  string  `json:"text"`
		Voice string  `json:"voice,omitempty"`
		Speed float64 `json:"speed,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.TTSText(req.Text); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if req.Speed == 0 {
		req.Speed = 1.0
	}

	audio, err := h.tts.Synthesize(r.Context(), req.Text, req.Voice, req.Speed)
	if err != nil {
		details := []string{err.Error()}
		var attempts *gateway.AttemptErrors
		if errors.As(err, &attempts) {
			details = attempts.Details()
			if len(details) > 3 {
				details = details[:3]
			}
		}
		respond.WriteJSON(w, http.StatusServiceUnavailable, respond.ErrorResponse{
			Error:   "TTS service unavailable",
			Message: "Edge TTS is not available on this server instance.",
			Details: details,
			Tip:     "Install edge-tts (pip install edge-tts), ensure python3 exists, or set COPILOTX_TTS_PYTHON/COPILOTX_TTS_COMMAND. Browser speech fallback remains available client-side.",
		})
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(audio)))
	w.Header().Set("Content-Disposition", `attachment; filename="speech.mp3"`)
	_, _ = w.Write(audio)
}

// GenerateImage POST /api/ai/generate-image
func (h *AIHandler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	var req struct {
		Prompt         string `json:"prompt"`
		Width          int    `json:"width,omitempty"`
		Height         int    `json:"height,omitempty"`
		Steps          int    `json:"steps,omitempty"`
		NegativePrompt string `json:"negativePrompt,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.NonEmpty("prompt", req.Prompt); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if err := validate.MaxLen("prompt", req.Prompt, validate.MaxImagePromptLen); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	opts := providers.ImageOptions{
		Width:          req.Width,
		Height:         req.Height,
		Steps:          req.Steps,
		NegativePrompt: req.NegativePrompt,
	}

	candidates := make([]gateway.Candidate[providers.GeneratedMedia], len(h.imageGens))
	for i, c := range h.imageGens {
		c := c
		candidates[i] = gateway.Candidate[providers.GeneratedMedia]{
			Name: c.Name,
			Run: func(ctx context.Context) (providers.GeneratedMedia, error) {
				return c.Provider.Generate(ctx, req.Prompt, opts)
			},
		}
	}
	result, _, err := gateway.Invoke(r.Context(), "image-generation", candidates)
	if err != nil {
		respond.WriteFromError(w, err, "Image generation failed")
		return
	}

	saved, err := h.library.Save("images", user.UserID, ".png", result.Data)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to save generated image")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"imageUrl":       saved.URL,
		"filename":       saved.Filename,
		"prompt":         req.Prompt,
		"userId":         user.UserID,
		"provider":       result.Provider,
		"model":          result.Model,
		"processingTime": result.ProcessingTime.Milliseconds(),
	})
}

// ServeImage GET /api/ai/images/{userId}/{filename}
func (h *AIHandler) ServeImage(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	vars := mux.Vars(r)
	// Cross-user access is rejected before any file I/O happens.
	if vars["userId"] != user.UserID {
		log.Warn().
			Str("user_id", user.UserID).
			Str("requested", vars["userId"]).
			Msg("cross-user image access denied")
		respond.WriteError(w, http.StatusForbidden, "Access denied - you can only access your own images")
		return
	}
	data, err := h.library.Open("images", user.UserID, vars["filename"])
	if err != nil {
		respond.WriteFromError(w, err, "Failed to serve image")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

// ListMyImages GET /api/ai/my-images
func (h *AIHandler) ListMyImages(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	images, err := h.library.List("images", user.UserID)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to fetch images")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"images":  images,
		"count":   len(images),
	})
}

// DeleteImage DELETE /api/ai/images/{filename}
func (h *AIHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if err := h.library.Delete("images", user.UserID, mux.Vars(r)["filename"]); err != nil {
		respond.WriteFromError(w, err, "Failed to delete image")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Image deleted successfully",
	})
}

// GenerateVideo POST /api/ai/generate-video
func (h *AIHandler) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.VideoPrompt(req.Prompt); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	video, err := h.generateOneVideo(r, user.UserID, req.Prompt)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to generate video")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Video generated successfully",
		"video":   video,
	})
}

type videoResult struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Prompt   string `json:"prompt"`
	Size     int64  `json:"size"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func (h *AIHandler) generateOneVideo(r *http.Request, userID, prompt string) (*videoResult, error) {
	candidates := make([]gateway.Candidate[providers.GeneratedMedia], len(h.videoGens))
	for i, c := range h.videoGens {
		c := c
		candidates[i] = gateway.Candidate[providers.GeneratedMedia]{
			Name: c.Name,
			Run: func(ctx context.Context) (providers.GeneratedMedia, error) {
				return c.Provider.Generate(ctx, prompt)
			},
		}
	}
	result, _, err := gateway.Invoke(r.Context(), "video-generation", candidates)
	if err != nil {
		return nil, err
	}
	saved, err := h.library.Save("videos", userID, ".mp4", result.Data)
	if err != nil {
		return nil, err
	}
	return &videoResult{
		URL:      saved.URL,
		Filename: saved.Filename,
		Prompt:   prompt,
		Size:     saved.Size,
		Provider: result.Provider,
		Model:    result.Model,
	}, nil
}

// GenerateVideosBatch POST /api/ai/generate-videos-batch
func (h *AIHandler) GenerateVideosBatch(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	var req struct {
		Prompts []string `json:"prompts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.VideoBatch(req.Prompts); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}

	type batchEntry struct {
		Success bool         `json:"success"`
		Prompt  string       `json:"prompt"`
		Video   *videoResult `json:"video,omitempty"`
		Error   string       `json:"error,omitempty"`
	}
	results := make([]batchEntry, 0, len(req.Prompts))
	succeeded := 0
	for _, prompt := range req.Prompts {
		video, err := h.generateOneVideo(r, user.UserID, prompt)
		if err != nil {
			results = append(results, batchEntry{Prompt: prompt, Error: err.Error()})
			continue
		}
		succeeded++
		results = append(results, batchEntry{Success: true, Prompt: prompt, Video: video})
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": fmt.Sprintf("Generated %d/%d videos", succeeded, len(req.Prompts)),
		"results": results,
	})
}

// DeleteVideo DELETE /api/ai/videos/{filename}
func (h *AIHandler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if err := h.library.Delete("videos", user.UserID, mux.Vars(r)["filename"]); err != nil {
		respond.WriteFromError(w, err, "Failed to delete video")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Video deleted successfully",
	})
}

// Chat POST /api/ai/chat
func (h *AIHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt              string                  `json:"prompt"`
		ConversationHistory []providers.ChatMessage `json:"conversationHistory,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.NonEmpty("prompt", req.Prompt); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	system := buildSystemPrompt("balanced", "default", h.personalContext(r))
	reply, err := h.complete(r, system, req.Prompt, req.ConversationHistory)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to generate response")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"reply":   reply.Content,
		"message": reply.Content,
		"metadata": map[string]interface{}{
			"provider": reply.Provider,
			"model":    reply.Model,
		},
	})
}

// Generate POST /api/ai/generate
func (h *AIHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message      string                  `json:"message"`
		History      []providers.ChatMessage `json:"history,omitempty"`
		ResponseType string                  `json:"responseType,omitempty"`
		EmojiUsage   string                  `json:"emojiUsage,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.NonEmpty("message", req.Message); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	if req.ResponseType == "" {
		req.ResponseType = "balanced"
	}
	if req.EmojiUsage == "" {
		req.EmojiUsage = "default"
	}
	system := buildSystemPrompt(req.ResponseType, req.EmojiUsage, h.personalContext(r))
	reply, err := h.complete(r, system, req.Message, req.History)
	if err != nil {
		respond.WriteFromError(w, err, "Failed to generate response")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"content": reply.Content,
		"metadata": map[string]interface{}{
			"provider": reply.Provider,
			"model":    reply.Model,
		},
	})
}

// VoiceChat POST /api/ai/voice-chat
func (h *AIHandler) VoiceChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.NonEmpty("input", req.Input); err != nil {
		respond.WriteBadRequest(w, "No input text provided")
		return
	}
	system := buildSystemPrompt("balanced", "default", h.personalContext(r))
	reply, err := h.complete(r, system, req.Input, nil)
	if err != nil {
		respond.WriteFromError(w, err, "Voice chat failed")
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"reply":   reply.Content,
	})
}

func buildSystemPrompt(responseType, emojiUsage, personal string) string {
	prompt := "You are CopilotX, a helpful AI assistant."
	switch responseType {
	case "concise":
		prompt += " Keep answers short and to the point."
	case "detailed":
		prompt += " Give thorough, well-structured answers."
	default:
		prompt += " Balance brevity with completeness."
	}
	if emojiUsage == "none" {
		prompt += " Do not use emojis."
	}
	if personal != "" {
		prompt += "\n\nWhat you know about this user:\n" + personal
	}
	return prompt
}
