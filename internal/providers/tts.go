package providers

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/copilotx/copilotx-server/internal/gateway"
)

const ttsProbeTimeout = 15 * time.Second

var ttsVoices = map[string]string{
	"default":  "en-US-AvaNeural",
	"male":     "en-US-GuyNeural",
	"female":   "en-US-JennyNeural",
	"friendly": "en-US-AriaNeural",
}

// ttsCommand is one way of invoking edge-tts: either an interpreter running
// the module, or the standalone binary.
type ttsCommand struct {
	cmd      string
	baseArgs []string
}

// EdgeTTS synthesizes speech by shelling out to the edge-tts Python tool.
// Availability is itself a fallback chain over candidate interpreters,
// cached through a ProbeCache so a broken environment is not re-probed on
// every request.
type EdgeTTS struct {
	candidates []ttsCommand
	probe      *gateway.ProbeCache
	timeout    time.Duration
	// run executes one command attempt; swapped out by tests.
	run func(ctx context.Context, timeout time.Duration, name string, args ...string) error
}

// NewEdgeTTS builds the candidate list from an optional explicit interpreter,
// the usual python locations, and the standalone command.
func NewEdgeTTS(pythonOverride, command string, timeout, probeCooldown time.Duration) *EdgeTTS {
	pythons := pythonCandidates(pythonOverride)
	candidates := make([]ttsCommand, 0, len(pythons)+1)
	for _, p := range pythons {
		candidates = append(candidates, ttsCommand{cmd: p, baseArgs: []string{"-m", "edge_tts"}})
	}
	if command == "" {
		command = "edge-tts"
	}
	candidates = append(candidates, ttsCommand{cmd: command})

	return &EdgeTTS{
		candidates: candidates,
		probe:      gateway.NewProbeCache(probeCooldown),
		timeout:    timeout,
		run:        runCommand,
	}
}

func pythonCandidates(override string) []string {
	out := []string{}
	if override != "" {
		out = append(out, override)
	}
	out = append(out, "/usr/bin/python3", "/usr/local/bin/python3", "python3", "python")
	return out
}

// Available reports whether any interpreter can import edge_tts. A positive
// answer is cached for the process lifetime; a negative one for the probe
// cool-down.
func (t *EdgeTTS) Available(ctx context.Context) bool {
	return t.probe.Available(ctx, func(ctx context.Context) bool {
		for _, c := range t.candidates {
			if len(c.baseArgs) == 0 {
				// Standalone binary: importability check does not apply;
				// probe by asking for its help output.
				if err := t.run(ctx, ttsProbeTimeout, c.cmd, "--help"); err == nil {
					return true
				}
				continue
			}
			if err := t.run(ctx, ttsProbeTimeout, c.cmd, "-c", "import edge_tts"); err == nil {
				return true
			}
		}
		return false
	})
}

// Synthesize renders the text to MP3 bytes, trying each command candidate in
// order. The temporary output file is removed on every path, success or
// failure, before the next attempt can be affected by it.
func (t *EdgeTTS) Synthesize(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	normalized := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", " "), "\n", " "))
	if normalized == "" {
		return nil, fmt.Errorf("empty text")
	}

	selectedVoice, ok := ttsVoices[voice]
	if !ok {
		selectedVoice = ttsVoices["default"]
	}

	ratePercent := 0
	if speed > 0 && !math.IsNaN(speed) && !math.IsInf(speed, 0) {
		ratePercent = int(math.Round((speed - 1) * 100))
	}

	outPath := filepath.Join(os.TempDir(), fmt.Sprintf("speech_%s.mp3", uuid.New().String()))
	defer func() {
		if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", outPath).Msg("failed to clean up TTS output file")
		}
	}()

	candidates := make([]gateway.Candidate[[]byte], len(t.candidates))
	for i, c := range t.candidates {
		c := c
		candidates[i] = gateway.Candidate[[]byte]{
			Name: c.cmd,
			Run: func(ctx context.Context) ([]byte, error) {
				args := append([]string{}, c.baseArgs...)
				args = append(args,
					"--text", normalized,
					"--write-media", outPath,
					"--voice", selectedVoice,
				)
				if ratePercent != 0 {
					args = append(args, "--rate", fmt.Sprintf("%+d%%", ratePercent))
				}
				if err := t.run(ctx, t.timeout, c.cmd, args...); err != nil {
					_ = os.Remove(outPath) // a failed attempt must not leave partial output behind
					return nil, err
				}
				data, err := os.ReadFile(outPath)
				if err != nil {
					return nil, fmt.Errorf("audio file was not generated: %w", err)
				}
				if len(data) == 0 {
					_ = os.Remove(outPath)
					return nil, fmt.Errorf("audio file is empty")
				}
				return data, nil
			},
		}
	}

	data, _, err := gateway.Invoke(ctx, "text-to-speech", candidates)
	return data, err
}

func runCommand(ctx context.Context, timeout time.Duration, name string, args ...string) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		detail := truncate(strings.TrimSpace(string(out)), 200)
		if detail != "" {
			return fmt.Errorf("%s: %w (%s)", name, err, detail)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
