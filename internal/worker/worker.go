// Package worker runs the claim/dispatch loop: poll the job store with
// backoff, claim one job at a time, run its handler, record the outcome.
package worker

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/retakecut/retakecut/internal/metrics"
	"github.com/retakecut/retakecut/internal/ports"
)

// Handler processes one claimed job and returns its output payload.
type Handler func(ctx context.Context, jobID string, input []byte) ([]byte, error)

type Worker struct {
	store    ports.JobStore
	handlers map[string]Handler
	types    []string
	pollBase time.Duration
	pollCap  time.Duration
	log      zerolog.Logger
}

func New(store ports.JobStore, pollBase, pollCap time.Duration, log zerolog.Logger) *Worker {
	if pollBase <= 0 {
		pollBase = 2 * time.Second
	}
	if pollCap < pollBase {
		pollCap = 30 * time.Second
	}
	return &Worker{
		store:    store,
		handlers: make(map[string]Handler),
		pollBase: pollBase,
		pollCap:  pollCap,
		log:      log,
	}
}

// Register maps a job type to its handler. Registration order fixes the
// claim-filter order but has no effect on which job is claimed first.
func (w *Worker) Register(jobType string, h Handler) {
	if _, dup := w.handlers[jobType]; !dup {
		w.types = append(w.types, jobType)
	}
	w.handlers[jobType] = h
}

// Run polls until ctx is cancelled. A job already claimed when the signal
// arrives is finished before Run returns.
func (w *Worker) Run(ctx context.Context) error {
	delay := w.pollBase
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("worker stopping")
			return nil
		default:
		}

		job, err := w.store.ClaimNext(ctx, w.types)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.log.Error().Err(err).Msg("claim failed")
			if !w.sleep(ctx, delay) {
				return nil
			}
			delay = w.nextDelay(delay)
			continue
		}
		if job == nil {
			if !w.sleep(ctx, delay) {
				return nil
			}
			delay = w.nextDelay(delay)
			continue
		}
		delay = w.pollBase

		w.process(ctx, job.ID, job.Type, job.Input)
	}
}

func (w *Worker) process(ctx context.Context, jobID, jobType string, input []byte) {
	// The job keeps running through a shutdown signal; only polling stops.
	jobCtx := context.WithoutCancel(ctx)
	log := w.log.With().Str("jobId", jobID).Str("jobType", jobType).Logger()

	metrics.JobsClaimed.WithLabelValues(jobType).Inc()
	started := time.Now()
	log.Info().Msg("job claimed")

	handler, ok := w.handlers[jobType]
	if !ok {
		msg := fmt.Sprintf("unsupported job type %q", jobType)
		log.Error().Msg(msg)
		w.finish(jobCtx, jobID, jobType, nil, msg, started)
		return
	}

	output, err := handler(jobCtx, jobID, input)
	if err != nil {
		log.Error().Err(err).Dur("took", time.Since(started)).Msg("job failed")
		w.finish(jobCtx, jobID, jobType, nil, err.Error(), started)
		return
	}
	log.Info().Dur("took", time.Since(started)).Msg("job succeeded")
	w.finish(jobCtx, jobID, jobType, output, "", started)
}

func (w *Worker) finish(ctx context.Context, jobID, jobType string, output []byte, errMsg string, started time.Time) {
	metrics.JobDuration.WithLabelValues(jobType).Observe(time.Since(started).Seconds())

	if errMsg != "" {
		metrics.JobsFailed.WithLabelValues(jobType).Inc()
		if err := w.store.Fail(ctx, jobID, errMsg); err != nil {
			w.log.Error().Err(err).Str("jobId", jobID).Msg("recording job failure failed")
		}
		return
	}
	metrics.JobsSucceeded.WithLabelValues(jobType).Inc()
	if err := w.store.Complete(ctx, jobID, output); err != nil {
		w.log.Error().Err(err).Str("jobId", jobID).Msg("recording job completion failed")
	}
}

// nextDelay doubles the idle delay up to the cap.
func (w *Worker) nextDelay(cur time.Duration) time.Duration {
	next := cur * 2
	if next > w.pollCap {
		next = w.pollCap
	}
	return next
}

// sleep waits for roughly d with jitter, returning false when ctx ended.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	jittered := time.Duration(float64(d) * (0.75 + 0.5*rand.Float64()))
	t := time.NewTimer(jittered)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
