package ffmpeg

import (
	"context"
	"fmt"
	"strings"
)

// NormalizeLoudness runs the EBU R128 loudnorm filter toward -14 LUFS. Inputs
// without an audio stream are stream-copied unchanged; the bool reports
// whether normalization actually happened.
func (a *Adapter) NormalizeLoudness(ctx context.Context, in, out string) (bool, error) {
	hasAudio, err := a.hasAudioStream(ctx, in)
	if err != nil {
		return false, err
	}
	if !hasAudio {
		if err := a.Copy(ctx, in, out); err != nil {
			return false, err
		}
		return false, nil
	}

	_, err = runCmd(ctx, a.ffmpeg,
		"-y",
		"-i", in,
		"-af", "loudnorm=I=-14:TP=-1.5:LRA=11",
		"-c:v", "copy",
		"-c:a", "aac", "-b:a", "192k",
		"-loglevel", "error",
		out,
	)
	if err != nil {
		return false, fmt.Errorf("ffmpeg loudnorm: %w", err)
	}
	return true, nil
}

func (a *Adapter) hasAudioStream(ctx context.Context, in string) (bool, error) {
	b, err := runCmd(ctx, a.ffprobe,
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=codec_type",
		"-of", "csv=p=0",
		in,
	)
	if err != nil {
		return false, fmt.Errorf("ffprobe audio streams: %w", err)
	}
	return strings.TrimSpace(string(b)) != "", nil
}
