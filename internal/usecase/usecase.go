// Package usecase holds the per-job pipelines. The worker claims jobs and
// dispatches here; everything external comes in through ports.
package usecase

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/retakecut/retakecut/internal/ports"
	"github.com/retakecut/retakecut/internal/resolve"
)

type Deps struct {
	Video   ports.VideoTool
	VAD     ports.VAD
	ASR     ports.ASR
	Advisor ports.CutAdvisor
	Storage ports.Storage
}

// Options carries the pipeline tuning knobs from config.
type Options struct {
	RetakePhrases   []string
	ContextWindow   float64
	MinConfidence   float64
	ClusterMaxGap   float64
	SegmentMergeGap float64
	SegmentPadding  float64
	NormalizeAudio  bool

	OutputBucket string
	ScratchRoot  string

	MaxRetries int
	RetryBase  time.Duration
}

type Service struct {
	d        Deps
	opts     Options
	resolver *resolve.Resolver
	validate *validator.Validate
	log      zerolog.Logger
}

func New(d Deps, opts Options, log zerolog.Logger) *Service {
	if len(opts.RetakePhrases) == 0 {
		opts.RetakePhrases = []string{"cut cut"}
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = time.Second
	}
	return &Service{
		d:    d,
		opts: opts,
		resolver: resolve.New(d.Advisor, resolve.Options{
			ContextWindow: opts.ContextWindow,
			MinConfidence: opts.MinConfidence,
		}, log),
		validate: validator.New(),
		log:      log,
	}
}

func resolveContract() string { return resolve.ContractVersion }

// scratchDir creates a job-scoped temp directory. The caller must remove it
// on every exit path.
func (s *Service) scratchDir(jobID string) (string, error) {
	root := s.opts.ScratchRoot
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, fmt.Sprintf("retakecut-%s-%s", jobID, uuid.NewString()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	return dir, nil
}
