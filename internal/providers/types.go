// Package providers implements the external capability providers (speech,
// chat, image, video, TTS). Each provider normalizes its result to one shape
// per capability regardless of which backend served it; the gateway package
// sequences them into fallback chains.
package providers

import "time"

// Transcription is the normalized speech-to-text result.
type Transcription struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Provider string `json:"provider"`
}

// ChatReply is the normalized chat-completion result.
type ChatReply struct {
	Content  string `json:"content"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// GeneratedMedia is the normalized image/video generation result.
type GeneratedMedia struct {
	Data           []byte        `json:"-"`
	Provider       string        `json:"provider"`
	Model          string        `json:"model"`
	ProcessingTime time.Duration `json:"processingTime"`
}

// ChatMessage is one turn of conversation history.
type ChatMessage struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// ImageOptions tune image generation; zero values fall back to provider
// defaults.
type ImageOptions struct {
	Width          int
	Height         int
	Steps          int
	NegativePrompt string
}
