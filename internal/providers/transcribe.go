package providers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	groqWhisperModel = "whisper-large-v3"
	hfWhisperModel   = "openai/whisper-small.en"
)

// GroqWhisper transcribes audio through Groq's Whisper endpoint.
type GroqWhisper struct {
	client *resty.Client
}

func NewGroqWhisper(baseURL, apiKey string, timeout time.Duration) *GroqWhisper {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(timeout)
	return &GroqWhisper{client: c}
}

type groqTranscriptionResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Transcribe sends the audio bytes as a multipart upload.
func (g *GroqWhisper) Transcribe(ctx context.Context, filename string, audio []byte) (Transcription, error) {
	var out groqTranscriptionResponse
	resp, err := g.client.R().
		SetContext(ctx).
		SetFileReader("file", filename, bytes.NewReader(audio)).
		SetFormData(map[string]string{"model": groqWhisperModel}).
		SetResult(&out).
		Post("/audio/transcriptions")
	if err != nil {
		return Transcription{}, fmt.Errorf("groq transcription request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Transcription{}, fmt.Errorf("groq transcription status %d: %s",
			resp.StatusCode(), truncate(resp.String(), 200))
	}
	lang := out.Language
	if lang == "" {
		lang = "en"
	}
	return Transcription{Text: out.Text, Language: lang, Provider: "groq"}, nil
}

// HFWhisper is the fallback automatic-speech-recognition provider on the
// Hugging Face inference API.
type HFWhisper struct {
	client *resty.Client
}

func NewHFWhisper(baseURL, apiKey string, timeout time.Duration) *HFWhisper {
	c := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(timeout)
	return &HFWhisper{client: c}
}

type hfASRResponse struct {
	Text string `json:"text"`
}

func (h *HFWhisper) Transcribe(ctx context.Context, filename string, audio []byte) (Transcription, error) {
	var out hfASRResponse
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetBody(audio).
		SetResult(&out).
		Post("/models/" + hfWhisperModel)
	if err != nil {
		return Transcription{}, fmt.Errorf("huggingface asr request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return Transcription{}, fmt.Errorf("huggingface asr status %d: %s",
			resp.StatusCode(), truncate(resp.String(), 200))
	}
	// The hosted whisper-small.en model only handles English.
	return Transcription{Text: out.Text, Language: "en", Provider: "huggingface"}, nil
}
