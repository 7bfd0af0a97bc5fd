package validate

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// MaxTTSTextLen is the text ceiling for a text-to-speech request.
	MaxTTSTextLen = 5000
	// MaxImagePromptLen bounds an image-generation prompt.
	MaxImagePromptLen = 1000
	// MaxVideoPromptLen bounds a video-generation prompt.
	MaxVideoPromptLen = 500
	// MaxVideoBatchSize bounds a batch video request.
	MaxVideoBatchSize = 10
	// MaxAudioUploadBytes bounds a speech-to-text upload.
	MaxAudioUploadBytes = 10 << 20
)

var allowedAudioExts = map[string]bool{
	".wav": true, ".mp3": true, ".m4a": true, ".ogg": true, ".webm": true,
}

func NonEmpty(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field, v string, limit int) error {
	if len(v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// TTSText checks the text-to-speech input ceiling.
func TTSText(v string) error {
	if v == "" {
		return fmt.Errorf("text is required")
	}
	if len(v) > MaxTTSTextLen {
		return fmt.Errorf("text is too long (max %d characters)", MaxTTSTextLen)
	}
	return nil
}

// VideoPrompt checks a single video prompt.
func VideoPrompt(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("prompt is required")
	}
	if len(v) > MaxVideoPromptLen {
		return fmt.Errorf("prompt must be %d characters or less", MaxVideoPromptLen)
	}
	return nil
}

// VideoBatch checks the prompts of a batch request.
func VideoBatch(prompts []string) error {
	if len(prompts) == 0 {
		return fmt.Errorf("prompts array is required")
	}
	if len(prompts) > MaxVideoBatchSize {
		return fmt.Errorf("maximum %d videos per batch", MaxVideoBatchSize)
	}
	for i, p := range prompts {
		if err := VideoPrompt(p); err != nil {
			return fmt.Errorf("prompt %d: %w", i, err)
		}
	}
	return nil
}

// AudioUpload checks the filename extension and size of an audio upload.
func AudioUpload(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedAudioExts[ext] {
		return fmt.Errorf("only audio files are allowed (wav, mp3, m4a, ogg, webm)")
	}
	if size > MaxAudioUploadBytes {
		return fmt.Errorf("audio file too large (max %d bytes)", int64(MaxAudioUploadBytes))
	}
	return nil
}
