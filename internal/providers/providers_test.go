package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroqChatComplete(t *testing.T) {
	var got chatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"model": "llama-3.3-70b-versatile",
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "hello there"}},
			},
		})
	}))
	defer srv.Close()

	g := NewGroqChat(srv.URL, "test-key", 5*time.Second)
	reply, err := g.Complete(context.Background(), "be brief", "hi", []ChatMessage{
		{Role: "user", Content: "earlier"},
		{Role: "assistant", Content: "noted"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply.Content)
	assert.Equal(t, "groq", reply.Provider)

	// system + 2 history turns + prompt, in order
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "be brief", got.Messages[0].Content)
	assert.Equal(t, "user", got.Messages[3].Role)
	assert.Equal(t, "hi", got.Messages[3].Content)
}

func TestGroqChatErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	g := NewGroqChat(srv.URL, "test-key", 5*time.Second)
	_, err := g.Complete(context.Background(), "", "hi", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGroqWhisperTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/audio/transcriptions", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-large-v3", r.FormValue("model"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		assert.Equal(t, "clip.wav", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "hello world"})
	}))
	defer srv.Close()

	g := NewGroqWhisper(srv.URL, "test-key", 5*time.Second)
	out, err := g.Transcribe(context.Background(), "clip.wav", []byte("riff-data"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", out.Text)
	assert.Equal(t, "en", out.Language, "missing language defaults to en")
	assert.Equal(t, "groq", out.Provider)
}

func TestHFWhisperTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/openai/whisper-small.en", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "transcribed"})
	}))
	defer srv.Close()

	h := NewHFWhisper(srv.URL, "test-key", 5*time.Second)
	out, err := h.Transcribe(context.Background(), "clip.mp3", []byte("audio"))
	require.NoError(t, err)
	assert.Equal(t, "transcribed", out.Text)
	assert.Equal(t, "huggingface", out.Provider)
}

func TestHFImageGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/"+ImagePrimaryModel, r.URL.Path)
		var req hfImageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a red fox", req.Inputs)
		assert.Equal(t, 512, req.Parameters.Width)

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	h := NewHFImage(srv.URL, "test-key", ImagePrimaryModel, 5*time.Second)
	out, err := h.Generate(context.Background(), "a red fox", ImageOptions{Width: 512, Height: 512})
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), out.Data)
	assert.Equal(t, "huggingface", out.Provider)
	assert.Equal(t, ImagePrimaryModel, out.Model)
}

func TestHFImageEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := NewHFImage(srv.URL, "test-key", ImagePrimaryModel, 5*time.Second)
	_, err := h.Generate(context.Background(), "a red fox", ImageOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty image")
}

func TestHFVideoGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/"+hfVideoModel, r.URL.Path)
		_, _ = w.Write([]byte("mp4-bytes"))
	}))
	defer srv.Close()

	h := NewHFVideo(srv.URL, "test-key", 5*time.Second)
	out, err := h.Generate(context.Background(), "waves at sunset")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp4-bytes"), out.Data)
}
