package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/retakecut/retakecut/internal/config"
	"github.com/retakecut/retakecut/internal/logging"
	"github.com/retakecut/retakecut/internal/metrics"
	"github.com/retakecut/retakecut/internal/ports"
	"github.com/retakecut/retakecut/internal/ports/adapters/ffmpeg"
	"github.com/retakecut/retakecut/internal/ports/adapters/openrouter"
	"github.com/retakecut/retakecut/internal/ports/adapters/redisstore"
	"github.com/retakecut/retakecut/internal/ports/adapters/s3store"
	"github.com/retakecut/retakecut/internal/ports/adapters/silerovad"
	"github.com/retakecut/retakecut/internal/ports/adapters/whispercpp"
	"github.com/retakecut/retakecut/internal/types"
	"github.com/retakecut/retakecut/internal/usecase"
	"github.com/retakecut/retakecut/internal/worker"
)

func newWorkerCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the job-processing loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorker(cmd.Context(), cfg)
		},
	}
}

func runWorker(parent context.Context, cfg *config.Config) error {
	log := logging.WithComponent("worker")

	if cfg.OpenRouter.APIKey != "" {
		if err := openrouter.ValidateBaseURL(cfg.OpenRouter.BaseURL, cfg.OpenRouter.AllowedHosts); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := s3store.New(ctx, s3store.Options{
		Endpoint:        cfg.S3.Endpoint,
		Region:          cfg.S3.Region,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
		ForcePathStyle:  cfg.S3.ForcePathStyle,
	})
	if err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return errors.New("redis unreachable at " + cfg.Redis.Addr + ": " + err.Error())
	}
	jobs := redisstore.New(rdb)

	var advisor ports.CutAdvisor
	if cfg.OpenRouter.APIKey != "" {
		advisor = openrouter.New(cfg.OpenRouter.APIKey, cfg.OpenRouter.Model, cfg.OpenRouter.BaseURL)
	} else {
		log.Warn().Msg("no OpenRouter API key configured, cuts use the deterministic fallback")
	}

	svc := usecase.New(usecase.Deps{
		Video:   ffmpeg.New(cfg.Tools.FFmpegPath, cfg.Tools.FFprobePath),
		VAD:     silerovad.New(cfg.Tools.VADBin, cfg.Pipeline.MinSilenceMs),
		ASR:     whispercpp.New(cfg.Tools.WhisperBin, cfg.Tools.WhisperModel),
		Advisor: advisor,
		Storage: store,
	}, usecase.Options{
		RetakePhrases:   cfg.Pipeline.RetakePhrases,
		ContextWindow:   cfg.Pipeline.ContextWindowSec,
		MinConfidence:   cfg.Pipeline.MinConfidence,
		ClusterMaxGap:   cfg.Pipeline.ClusterMaxGapSec,
		SegmentMergeGap: cfg.Pipeline.SegmentMergeGap,
		SegmentPadding:  cfg.Pipeline.SegmentPadding,
		NormalizeAudio:  cfg.Pipeline.NormalizeAudio,
		OutputBucket:    cfg.S3.OutputBucket,
		ScratchRoot:     cfg.Worker.ScratchRoot,
		MaxRetries:      cfg.Worker.MaxRetries,
		RetryBase:       time.Second,
	}, log)

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(cfg.Metrics.Addr); err != nil {
				log.Error().Err(err).Msg("metrics listener stopped")
			}
		}()
	}

	w := worker.New(jobs, cfg.Worker.PollBase, cfg.Worker.PollCap, log)
	w.Register(types.JobTypeVideoProcess, svc.ProcessVideo)
	w.Register(types.JobTypeTranscribe, svc.Transcribe)

	log.Info().Str("redis", cfg.Redis.Addr).Msg("worker started")
	return w.Run(ctx)
}
