package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTTSText(t *testing.T) {
	assert.Error(t, TTSText(""))
	assert.NoError(t, TTSText("hello"))
	assert.NoError(t, TTSText(strings.Repeat("a", MaxTTSTextLen)))
	assert.Error(t, TTSText(strings.Repeat("a", MaxTTSTextLen+1)))
}

func TestVideoPrompt(t *testing.T) {
	assert.Error(t, VideoPrompt(""))
	assert.Error(t, VideoPrompt("   "))
	assert.NoError(t, VideoPrompt("a cat surfing"))
	assert.Error(t, VideoPrompt(strings.Repeat("a", MaxVideoPromptLen+1)))
}

func TestVideoBatch(t *testing.T) {
	assert.Error(t, VideoBatch(nil))
	assert.NoError(t, VideoBatch([]string{"a", "b"}))

	tooMany := make([]string, MaxVideoBatchSize+1)
	for i := range tooMany {
		tooMany[i] = "p"
	}
	err := VideoBatch(tooMany)
	assert.ErrorContains(t, err, "maximum 10 videos per batch")

	// A bad prompt inside the batch surfaces its position.
	err = VideoBatch([]string{"ok", ""})
	assert.ErrorContains(t, err, "prompt 1")
}

func TestAudioUpload(t *testing.T) {
	assert.NoError(t, AudioUpload("clip.wav", 1024))
	assert.NoError(t, AudioUpload("CLIP.MP3", 1024))
	assert.Error(t, AudioUpload("clip.exe", 1024))
	assert.Error(t, AudioUpload("clip", 1024))
	assert.Error(t, AudioUpload("clip.wav", MaxAudioUploadBytes+1))
}

func TestNonEmptyAndMaxLen(t *testing.T) {
	assert.Error(t, NonEmpty("prompt", "  "))
	assert.NoError(t, NonEmpty("prompt", "x"))
	assert.NoError(t, MaxLen("prompt", "abc", 3))
	assert.ErrorContains(t, MaxLen("prompt", "abcd", 3), "prompt exceeds 3 characters")
}
