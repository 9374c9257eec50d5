package types

import "time"

// TranscriptWord is one word with second-precision timestamps as produced by
// the transcription collaborator. Words arrive ordered by Start.
type TranscriptWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SpeechSegment is a detected speech interval in seconds. Canonical segment
// lists are disjoint and time-ordered.
type SpeechSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (s SpeechSegment) Duration() float64 { return s.End - s.Start }

// RetakeMatch is one located occurrence of a configured retake phrase.
type RetakeMatch struct {
	Phrase    string  `json:"phrase"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	WordIndex int     `json:"word_index"`
}

// RetakeCluster groups temporally close retake matches that belong to one
// failed-attempt sequence. Matches are time-ordered and non-empty.
type RetakeCluster struct {
	Matches []RetakeMatch `json:"matches"`
	Pattern Pattern       `json:"pattern"`
}

// Start returns the start of the cluster's first marker.
func (c RetakeCluster) Start() float64 { return c.Matches[0].Start }

// End returns the end of the cluster's last marker.
func (c RetakeCluster) End() float64 { return c.Matches[len(c.Matches)-1].End }

// Pattern labels the shape of a retake cluster. The label is advisory context
// for the decision service and a minimum-lookback floor for coverage checks;
// it never determines cut boundaries by itself.
type Pattern string

const (
	PatternQuickFix         Pattern = "quick_fix"
	PatternMediumSegment    Pattern = "medium_segment"
	PatternFullRedo         Pattern = "full_redo"
	PatternMultipleAttempts Pattern = "multiple_attempts"
	PatternUnknown          Pattern = "unknown"
)

// CutMethod records which path produced a cut.
type CutMethod string

const (
	MethodDecisionService   CutMethod = "decision_service"
	MethodFallbackHeuristic CutMethod = "fallback_heuristic"
)

// CutInstruction is a time range to remove from the final video. Created by
// the resolver or the fallback heuristic; mutated only by the merge step.
type CutInstruction struct {
	Start      float64   `json:"start_time"`
	End        float64   `json:"end_time"`
	Reason     string    `json:"reason"`
	Confidence float64   `json:"confidence"`
	Pattern    Pattern   `json:"pattern"`
	Method     CutMethod `json:"method"`
}

func (c CutInstruction) Duration() float64 { return c.End - c.Start }

// KeepSegment is a time range retained in the final video; the complement of
// all cuts against [0, duration].
type KeepSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// JobStatus is the lifecycle state of a background job.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job types handled by this worker.
const (
	JobTypeVideoProcess = "video_process"
	JobTypeTranscribe   = "transcribe"
)

// Job is one record in the shared job store. Enqueueing is external; the
// worker owns every transition after queued.
type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    JobStatus `json:"status"`
	Input     []byte    `json:"-"`
	Output    []byte    `json:"-"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReportSettings captures the knobs that produced an edit, so a report can be
// read back against the configuration that made it.
type ReportSettings struct {
	ContextWindowSeconds float64 `json:"context_window_seconds"`
	MinConfidence        float64 `json:"min_confidence"`
	ClusterMaxGapSeconds float64 `json:"cluster_max_gap_seconds"`
	SilenceMergeGap      float64 `json:"silence_merge_gap_seconds"`
	PaddingSeconds       float64 `json:"padding_seconds"`
	AdvisorContract      string  `json:"advisor_contract"`
}

// EditReport is the machine-readable summary of one processed video.
type EditReport struct {
	OriginalDurationMS  int64            `json:"original_duration_ms"`
	ProcessedDurationMS int64            `json:"processed_duration_ms"`
	SilenceRemovedMS    int64            `json:"silence_removed_ms"`
	Cuts                []CutInstruction `json:"cuts"`
	SegmentCount        int              `json:"segment_count"`
	WordCount           int              `json:"transcript_word_count"`
	WordsRemoved        int              `json:"transcript_words_removed"`
	NormalizedLoudness  bool             `json:"normalized_loudness"`
	ProcessingSteps     []string         `json:"processing_steps"`
	Settings            ReportSettings   `json:"settings"`
}
