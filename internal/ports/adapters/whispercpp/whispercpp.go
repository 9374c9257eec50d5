// Package whispercpp shells out to the whisper.cpp CLI for word-level
// transcription of mono 16k WAV audio.
package whispercpp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/retakecut/retakecut/internal/ports"
	"github.com/retakecut/retakecut/internal/types"
)

var _ ports.ASR = (*Adapter)(nil)

type Adapter struct {
	bin   string
	model string
}

func New(binPath, modelPath string) *Adapter {
	return &Adapter{bin: binPath, model: modelPath}
}

// wire format of whisper.cpp -oj output.
type whisperOutput struct {
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
		Words []struct {
			Start float64 `json:"start"`
			End   float64 `json:"end"`
			Word  string  `json:"word"`
		} `json:"words,omitempty"`
	} `json:"segments"`
}

// Transcribe runs whisper.cpp with word timestamps and flattens the segment
// tree into one time-ordered word list.
func (a *Adapter) Transcribe(ctx context.Context, wavPath, cacheDir string) ([]types.TranscriptWord, error) {
	outPrefix := filepath.Join(cacheDir, "whisper")
	args := []string{
		"-m", a.model,
		"-f", wavPath,
		"-oj",
		"-of", outPrefix,
		"-ml", "1",
	}
	cmd := exec.CommandContext(ctx, a.bin, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return nil, err
	}

	var out whisperOutput
	if err := json.Unmarshal(jb, &out); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	var words []types.TranscriptWord
	for _, seg := range out.Segments {
		if len(seg.Words) == 0 {
			// Token-level output disabled or unavailable; fall back to one
			// pseudo-word per segment so downstream matching still works.
			text := strings.TrimSpace(seg.Text)
			if text == "" {
				continue
			}
			words = append(words, types.TranscriptWord{Word: text, Start: seg.Start, End: seg.End})
			continue
		}
		for _, w := range seg.Words {
			word := strings.TrimSpace(w.Word)
			if word == "" {
				continue
			}
			words = append(words, types.TranscriptWord{Word: word, Start: w.Start, End: w.End})
		}
	}
	return words, nil
}
