package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/retakecut/retakecut/internal/ports"
	"github.com/retakecut/retakecut/internal/types"
)

type fakeAdvisor struct {
	proposal ports.AdvisorProposal
	err      error
	requests []ports.AdvisorRequest
}

func (f *fakeAdvisor) ProposeMistakeStart(_ context.Context, req ports.AdvisorRequest) (ports.AdvisorProposal, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return ports.AdvisorProposal{}, f.err
	}
	return f.proposal, nil
}

func testCluster() types.RetakeCluster {
	return types.RetakeCluster{
		Pattern: types.PatternFullRedo,
		Matches: []types.RetakeMatch{{Phrase: "cut cut", Start: 50.0, End: 50.6}},
	}
}

func testWords() []types.TranscriptWord {
	var words []types.TranscriptWord
	for ts := 30.0; ts < 50.0; ts += 0.4 {
		words = append(words, types.TranscriptWord{Word: "w", Start: ts, End: ts + 0.3})
	}
	return words
}

func newResolver(a ports.CutAdvisor) *Resolver {
	return New(a, Options{ContextWindow: 30, MinConfidence: 0.7}, zerolog.Nop())
}

func TestResolve_AcceptsValidProposal(t *testing.T) {
	t.Parallel()

	adv := &fakeAdvisor{proposal: ports.AdvisorProposal{MistakeStart: 30.0, Reason: "false start", Confidence: 0.9}}
	cuts := newResolver(adv).Resolve(context.Background(), testWords(), []types.RetakeCluster{testCluster()}, nil)

	if len(cuts) != 1 {
		t.Fatalf("got %d cuts, want 1: %+v", len(cuts), cuts)
	}
	c := cuts[0]
	if c.Start != 30.0 || c.End != 50.6 {
		t.Fatalf("cut span: got [%v,%v], want [30.0,50.6]", c.Start, c.End)
	}
	if c.Method != types.MethodDecisionService {
		t.Fatalf("method: got %q", c.Method)
	}
	if c.Pattern != types.PatternFullRedo {
		t.Fatalf("pattern: got %q", c.Pattern)
	}
}

func TestResolve_RejectsMistakeStartAtOrAfterMarker(t *testing.T) {
	t.Parallel()

	for _, proposed := range []float64{50.0, 50.3, 49.995} {
		adv := &fakeAdvisor{proposal: ports.AdvisorProposal{MistakeStart: proposed, Confidence: 0.95}}
		cuts := newResolver(adv).Resolve(context.Background(), testWords(), []types.RetakeCluster{testCluster()}, nil)

		if len(cuts) == 0 {
			t.Fatalf("proposed=%v: cluster must get fallback cuts, got none", proposed)
		}
		for _, c := range cuts {
			if c.Method != types.MethodFallbackHeuristic {
				t.Fatalf("proposed=%v: invalid timestamp must never be accepted, got %+v", proposed, c)
			}
		}
	}
}

func TestResolve_ClampsToContextStart(t *testing.T) {
	t.Parallel()

	// Proposal reaches back to 5.0 but the excerpt started at 20.0.
	adv := &fakeAdvisor{proposal: ports.AdvisorProposal{MistakeStart: 5.0, Confidence: 0.9}}
	cuts := newResolver(adv).Resolve(context.Background(), testWords(), []types.RetakeCluster{testCluster()}, nil)

	if len(cuts) != 1 {
		t.Fatalf("got %d cuts, want 1", len(cuts))
	}
	if cuts[0].Start != 20.0 {
		t.Fatalf("expected clamp to context start 20.0, got %v", cuts[0].Start)
	}
}

func TestResolve_LowConfidenceDropsProposal(t *testing.T) {
	t.Parallel()

	adv := &fakeAdvisor{proposal: ports.AdvisorProposal{MistakeStart: 35.0, Confidence: 0.4}}
	cuts := newResolver(adv).Resolve(context.Background(), testWords(), []types.RetakeCluster{testCluster()}, nil)

	// The proposal is dropped here; the coverage pass guarantees the cluster
	// a fallback cut downstream.
	if len(cuts) != 0 {
		t.Fatalf("low-confidence proposal must be dropped, got %+v", cuts)
	}
}

func TestResolve_TransportErrorFallsBack(t *testing.T) {
	t.Parallel()

	adv := &fakeAdvisor{err: errors.New("request timeout")}
	cuts := newResolver(adv).Resolve(context.Background(), testWords(), []types.RetakeCluster{testCluster()}, nil)

	if len(cuts) != 2 {
		t.Fatalf("got %d cuts, want 2 fallback cuts", len(cuts))
	}
	if cuts[0].Confidence != 0.5 || cuts[1].Confidence != 0.9 {
		t.Fatalf("fallback confidences: got %v/%v, want 0.5/0.9", cuts[0].Confidence, cuts[1].Confidence)
	}
}

func TestResolve_FailureIsolatedPerCluster(t *testing.T) {
	t.Parallel()

	// The advisor fails on every call; both clusters still get cuts, and
	// neither blocks the other.
	adv := &fakeAdvisor{err: errors.New("service unavailable")}
	clusters := []types.RetakeCluster{
		{Pattern: types.PatternQuickFix, Matches: []types.RetakeMatch{{Phrase: "cut cut", Start: 13.0, End: 13.6}}},
		testCluster(),
	}
	cuts := newResolver(adv).Resolve(context.Background(), testWords(), clusters, nil)

	if len(cuts) != 4 {
		t.Fatalf("got %d cuts, want 2 per cluster", len(cuts))
	}
	if len(adv.requests) != 2 {
		t.Fatalf("advisor should be asked once per cluster, got %d calls", len(adv.requests))
	}
}

func TestResolve_ExcerptWindow(t *testing.T) {
	t.Parallel()

	adv := &fakeAdvisor{proposal: ports.AdvisorProposal{MistakeStart: 30.0, Confidence: 0.9}}
	newResolver(adv).Resolve(context.Background(), testWords(), []types.RetakeCluster{testCluster()}, nil)

	req := adv.requests[0]
	if req.ExcerptStart != 20.0 {
		t.Fatalf("excerpt start: got %v, want cluster start - window = 20.0", req.ExcerptStart)
	}
	// Tail context is capped at 12s even with a 30s window.
	if req.ExcerptEnd != 62.6 {
		t.Fatalf("excerpt end: got %v, want 50.6 + 12 = 62.6", req.ExcerptEnd)
	}
	for _, w := range req.Excerpt {
		if w.Start < req.ExcerptStart || w.Start > req.ExcerptEnd {
			t.Fatalf("excerpt word outside window: %+v", w)
		}
	}
	if req.Pattern != types.PatternFullRedo {
		t.Fatalf("pattern hint missing: got %q", req.Pattern)
	}
}

func TestResolve_NilAdvisorUsesFallback(t *testing.T) {
	t.Parallel()

	cuts := newResolver(nil).Resolve(context.Background(), testWords(), []types.RetakeCluster{testCluster()}, nil)
	if len(cuts) != 2 {
		t.Fatalf("got %d cuts, want 2", len(cuts))
	}
}
