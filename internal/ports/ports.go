package ports

import (
	"context"

	"github.com/retakecut/retakecut/internal/types"
)

// VideoTool wraps the external transcoder (ffmpeg/ffprobe).
type VideoTool interface {
	ProbeDuration(ctx context.Context, in string) (float64, error)
	ExtractAudioMono16k(ctx context.Context, in, outWav string) error
	// ExtractConcat re-encodes each keep segment and concatenates them into out.
	ExtractConcat(ctx context.Context, in string, keeps []types.KeepSegment, out string) error
	// Copy is the no-cut path: stream copy without re-encoding.
	Copy(ctx context.Context, in, out string) error
	// NormalizeLoudness applies a loudness target; inputs without an audio
	// stream are copied through unchanged and reported as not normalized.
	NormalizeLoudness(ctx context.Context, in, out string) (bool, error)
}

// VAD detects speech intervals in a mono 16k WAV file.
type VAD interface {
	DetectSpeech(ctx context.Context, wavPath string) ([]types.SpeechSegment, error)
}

// ASR produces word-level timestamps for a mono 16k WAV file.
type ASR interface {
	Transcribe(ctx context.Context, wavPath, cacheDir string) ([]types.TranscriptWord, error)
}

// AdvisorRequest is the per-cluster payload sent to the decision service.
type AdvisorRequest struct {
	Excerpt      []types.TranscriptWord
	ExcerptStart float64
	ExcerptEnd   float64
	Markers      []types.RetakeMatch
	Pattern      types.Pattern
}

// AdvisorProposal is the decision service's answer: where the flubbed take
// begins. The resolver validates it locally and never trusts it blindly.
type AdvisorProposal struct {
	MistakeStart float64
	Reason       string
	Confidence   float64
}

// CutAdvisor is the external decision service that proposes a mistake start
// time for one retake cluster.
type CutAdvisor interface {
	ProposeMistakeStart(ctx context.Context, req AdvisorRequest) (AdvisorProposal, error)
}

// Storage moves job artifacts between object storage and local scratch space.
// Uploads must be idempotent under retry.
type Storage interface {
	Download(ctx context.Context, bucket, key, localPath string) error
	Upload(ctx context.Context, bucket, key, localPath, contentType string) error
}

// JobStore is the shared mutable job queue. ClaimNext must be a single atomic
// server-side operation: no two workers may receive the same job. A nil job
// with nil error means the queue has no claimable work.
type JobStore interface {
	ClaimNext(ctx context.Context, supportedTypes []string) (*types.Job, error)
	Complete(ctx context.Context, jobID string, output []byte) error
	Fail(ctx context.Context, jobID string, errMsg string) error
}
