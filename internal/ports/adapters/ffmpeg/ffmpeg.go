package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/retakecut/retakecut/internal/ports"
	"github.com/retakecut/retakecut/internal/types"
)

var _ ports.VideoTool = (*Adapter)(nil)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ProbeDuration(ctx context.Context, in string) (float64, error) {
	b, err := runCmd(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		in,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w", err)
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return sec, nil
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, in, outWav string) error {
	_, err := runCmd(ctx, a.ffmpeg,
		"-y",
		"-i", in,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-acodec", "pcm_s16le",
		"-loglevel", "error",
		outWav,
	)
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w", err)
	}
	return nil
}

// ExtractConcat re-encodes each keep segment into its own file, then joins
// them with the concat demuxer using stream copy. Re-encoding per segment
// keeps cut points accurate; the final join is lossless.
func (a *Adapter) ExtractConcat(ctx context.Context, in string, keeps []types.KeepSegment, out string) error {
	if len(keeps) == 0 {
		return fmt.Errorf("extract concat: no keep segments")
	}

	tmpDir, err := os.MkdirTemp("", "retakecut-concat-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	var list strings.Builder
	for i, k := range keeps {
		segPath := filepath.Join(tmpDir, fmt.Sprintf("seg_%04d.mp4", i))
		_, err := runCmd(ctx, a.ffmpeg,
			"-y",
			"-i", in,
			"-ss", fmtSeconds(k.Start),
			"-t", fmtSeconds(k.End-k.Start),
			"-c:v", "libx264", "-preset", "fast", "-crf", "18",
			"-c:a", "aac", "-b:a", "192k",
			"-loglevel", "error",
			segPath,
		)
		if err != nil {
			return fmt.Errorf("ffmpeg extract segment %d [%.3f,%.3f]: %w", i, k.Start, k.End, err)
		}
		fmt.Fprintf(&list, "file '%s'\n", segPath)
	}

	concatPath := filepath.Join(tmpDir, "concat.txt")
	if err := os.WriteFile(concatPath, []byte(list.String()), 0o644); err != nil {
		return err
	}

	_, err = runCmd(ctx, a.ffmpeg,
		"-y",
		"-f", "concat", "-safe", "0",
		"-i", concatPath,
		"-c", "copy",
		"-loglevel", "error",
		out,
	)
	if err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	return nil
}

func (a *Adapter) Copy(ctx context.Context, in, out string) error {
	_, err := runCmd(ctx, a.ffmpeg,
		"-y",
		"-i", in,
		"-c", "copy",
		"-loglevel", "error",
		out,
	)
	if err != nil {
		return fmt.Errorf("ffmpeg copy: %w", err)
	}
	return nil
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

func runCmd(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%w\n%s", err, string(b))
	}
	return b, nil
}
