// Package resolve turns retake clusters into cut instructions by asking the
// external decision service for a mistake start time, validating the answer
// locally, and falling back to the deterministic heuristic whenever the
// service is unavailable or untrustworthy.
package resolve

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/retakecut/retakecut/internal/domain/retakes"
	"github.com/retakecut/retakecut/internal/ports"
	"github.com/retakecut/retakecut/internal/types"
)

// ContractVersion names the advisor request/response contract this resolver
// speaks: one call per cluster, mistake start time only.
const ContractVersion = "cluster-mistake-start/v1"

const (
	// startEpsilon: a proposed mistake start must sit strictly before the
	// cluster's first marker by at least this much.
	startEpsilon = 0.01

	// tailWindowCap limits how much post-marker context the excerpt carries.
	tailWindowCap = 12.0
)

// Options tune the resolver.
type Options struct {
	// ContextWindow is the excerpt span before the cluster, in seconds.
	ContextWindow float64
	// MinConfidence drops decision-service proposals below this score; the
	// coverage pass guarantees those clusters a fallback cut later.
	MinConfidence float64
}

// Resolver produces cuts for retake clusters.
type Resolver struct {
	advisor ports.CutAdvisor
	opts    Options
	log     zerolog.Logger
}

func New(advisor ports.CutAdvisor, opts Options, log zerolog.Logger) *Resolver {
	if opts.ContextWindow <= 0 {
		opts.ContextWindow = 30
	}
	return &Resolver{advisor: advisor, opts: opts, log: log}
}

// Resolve maps every cluster to cut instructions. Decision-service failures
// are isolated per cluster: one bad response never disturbs the others.
func (r *Resolver) Resolve(
	ctx context.Context,
	words []types.TranscriptWord,
	clusters []types.RetakeCluster,
	vad []types.SpeechSegment,
) []types.CutInstruction {
	var out []types.CutInstruction
	for _, cluster := range clusters {
		out = append(out, r.resolveCluster(ctx, words, cluster, vad)...)
	}
	return out
}

func (r *Resolver) resolveCluster(
	ctx context.Context,
	words []types.TranscriptWord,
	cluster types.RetakeCluster,
	vad []types.SpeechSegment,
) []types.CutInstruction {
	if r.advisor == nil {
		return retakes.FallbackCuts(words, cluster.Matches, vad)
	}

	excerptStart := math.Max(0, cluster.Start()-r.opts.ContextWindow)
	excerptEnd := cluster.End() + math.Min(r.opts.ContextWindow, tailWindowCap)

	var excerpt []types.TranscriptWord
	for _, w := range words {
		if w.Start >= excerptStart && w.Start <= excerptEnd {
			excerpt = append(excerpt, w)
		}
	}

	proposal, err := r.advisor.ProposeMistakeStart(ctx, ports.AdvisorRequest{
		Excerpt:      excerpt,
		ExcerptStart: excerptStart,
		ExcerptEnd:   excerptEnd,
		Markers:      cluster.Matches,
		Pattern:      cluster.Pattern,
	})
	if err != nil {
		r.log.Warn().Err(err).
			Float64("cluster_start", cluster.Start()).
			Msg("decision service failed, using fallback for cluster")
		return retakes.FallbackCuts(words, cluster.Matches, vad)
	}

	// A mistake start at or after the first marker is nonsense; reject it
	// rather than trusting the service.
	if proposal.MistakeStart >= cluster.Start()-startEpsilon {
		r.log.Warn().
			Float64("proposed", proposal.MistakeStart).
			Float64("cluster_start", cluster.Start()).
			Msg("decision service proposed invalid mistake start, using fallback")
		return retakes.FallbackCuts(words, cluster.Matches, vad)
	}

	// Never reach further back than the window we showed the service.
	start := proposal.MistakeStart
	if start < excerptStart {
		start = excerptStart
	}

	if proposal.Confidence < r.opts.MinConfidence {
		r.log.Info().
			Float64("confidence", proposal.Confidence).
			Float64("min", r.opts.MinConfidence).
			Msg("decision service confidence below threshold, dropping proposal")
		return nil
	}

	reason := proposal.Reason
	if reason == "" {
		reason = "retake removed by decision service"
	}
	return []types.CutInstruction{{
		Start:      start,
		End:        cluster.End(),
		Reason:     reason,
		Confidence: proposal.Confidence,
		Pattern:    cluster.Pattern,
		Method:     types.MethodDecisionService,
	}}
}
