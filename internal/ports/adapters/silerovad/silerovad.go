// Package silerovad shells out to a Silero VAD CLI that prints detected
// speech intervals as JSON on stdout.
package silerovad

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/retakecut/retakecut/internal/ports"
	"github.com/retakecut/retakecut/internal/types"
)

var _ ports.VAD = (*Adapter)(nil)

type Adapter struct {
	bin string
	// minSilence is the shortest pause that splits two speech intervals,
	// in milliseconds.
	minSilence int
}

func New(binPath string, minSilenceMs int) *Adapter {
	if binPath == "" {
		binPath = "silero-vad"
	}
	if minSilenceMs <= 0 {
		minSilenceMs = 500
	}
	return &Adapter{bin: binPath, minSilence: minSilenceMs}
}

type interval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (a *Adapter) DetectSpeech(ctx context.Context, wavPath string) ([]types.SpeechSegment, error) {
	cmd := exec.CommandContext(ctx, a.bin,
		"--input", wavPath,
		"--threshold", "0.5",
		"--min-speech-ms", "250",
		"--min-silence-ms", strconv.Itoa(a.minSilence),
		"--speech-pad-ms", "100",
		"--output-format", "json",
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("silero vad failed: %w\n%s", err, stderr.String())
	}

	var raw []interval
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		return nil, fmt.Errorf("parse vad output: %w", err)
	}

	segs := make([]types.SpeechSegment, 0, len(raw))
	for _, iv := range raw {
		if iv.End <= iv.Start {
			continue
		}
		segs = append(segs, types.SpeechSegment{Start: iv.Start, End: iv.End})
	}
	return segs, nil
}
