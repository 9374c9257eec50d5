package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/retakecut/retakecut/internal/domain/cuts"
	"github.com/retakecut/retakecut/internal/domain/retakes"
	"github.com/retakecut/retakecut/internal/domain/segments"
	"github.com/retakecut/retakecut/internal/domain/transcript"
	"github.com/retakecut/retakecut/internal/metrics"
	"github.com/retakecut/retakecut/internal/retry"
	"github.com/retakecut/retakecut/internal/types"
)

// VideoProcessInput is the payload of a video_process job.
type VideoProcessInput struct {
	Bucket       string `json:"bucket" validate:"required"`
	Key          string `json:"key" validate:"required"`
	OutputPrefix string `json:"output_prefix"`
}

// VideoProcessOutput is stored on the job when processing succeeds.
type VideoProcessOutput struct {
	VideoKey          string `json:"video_key"`
	TranscriptJSONKey string `json:"transcript_json_key,omitempty"`
	TranscriptTextKey string `json:"transcript_text_key,omitempty"`
	ReportKey         string `json:"report_key"`

	OriginalDurationMS  int64 `json:"original_duration_ms"`
	ProcessedDurationMS int64 `json:"processed_duration_ms"`
	CutCount            int   `json:"cut_count"`
}

// ProcessVideo runs the full edit pipeline for one claimed job: silence
// removal, retake detection and cutting, loudness normalization, uploads.
func (s *Service) ProcessVideo(ctx context.Context, jobID string, rawInput []byte) ([]byte, error) {
	var in VideoProcessInput
	if err := json.Unmarshal(rawInput, &in); err != nil {
		return nil, fmt.Errorf("parse job input: %w", err)
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("invalid job input: %w", err)
	}
	prefix := in.OutputPrefix
	if prefix == "" {
		prefix = jobID + "/"
	}

	dir, err := s.scratchDir(jobID)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	log := s.log.With().Str("jobId", jobID).Logger()
	var steps []string

	// Download and probe.
	srcPath := filepath.Join(dir, "input.mp4")
	err = retry.Do(ctx, s.opts.MaxRetries, s.opts.RetryBase, func() error {
		return s.d.Storage.Download(ctx, in.Bucket, in.Key, srcPath)
	})
	if err != nil {
		return nil, fmt.Errorf("download s3://%s/%s: %w", in.Bucket, in.Key, err)
	}
	duration, err := s.d.Video.ProbeDuration(ctx, srcPath)
	if err != nil {
		return nil, err
	}
	steps = append(steps, "download")

	// Silence removal: detect speech on the raw audio, keep only speech.
	rawWav := filepath.Join(dir, "input.wav")
	if err := s.d.Video.ExtractAudioMono16k(ctx, srcPath, rawWav); err != nil {
		return nil, err
	}
	rawVAD, err := s.d.VAD.DetectSpeech(ctx, rawWav)
	if err != nil {
		return nil, fmt.Errorf("speech detection: %w", err)
	}
	speech, err := segments.Detect(rawVAD, duration, segments.Options{
		MergeGap:  s.opts.SegmentMergeGap,
		Padding:   s.opts.SegmentPadding,
		KeepStart: true,
	})
	if err != nil {
		// ErrNoSpeech is fatal: an all-silence input is not an editable video.
		return nil, err
	}

	cutPath := filepath.Join(dir, "silence_cut.mp4")
	if len(speech) == 1 && speech[0].Start == 0 && speech[0].End >= duration {
		if err := s.d.Video.Copy(ctx, srcPath, cutPath); err != nil {
			return nil, err
		}
	} else {
		keeps := make([]types.KeepSegment, 0, len(speech))
		for _, seg := range speech {
			keeps = append(keeps, types.KeepSegment{Start: seg.Start, End: seg.End})
		}
		if err := s.d.Video.ExtractConcat(ctx, srcPath, keeps, cutPath); err != nil {
			return nil, fmt.Errorf("silence cut: %w", err)
		}
	}
	steps = append(steps, "silence_cut")

	cutDuration := segments.TotalSpeech(speech)
	if cutDuration > duration {
		cutDuration = duration
	}

	// Transcription is optional: failure degrades to a silence-only edit.
	var words []types.TranscriptWord
	cutWav := filepath.Join(dir, "silence_cut.wav")
	if err := s.d.Video.ExtractAudioMono16k(ctx, cutPath, cutWav); err != nil {
		log.Warn().Err(err).Msg("audio extraction for transcription failed, skipping retake detection")
	} else if words, err = s.d.ASR.Transcribe(ctx, cutWav, dir); err != nil {
		log.Warn().Err(err).Msg("transcription failed, skipping retake detection")
		words = nil
	} else {
		steps = append(steps, "transcribe")
	}

	// Retake detection and cutting, in the silence-cut timeline.
	var finalCuts []types.CutInstruction
	remaining := words
	outVideo := cutPath
	if len(words) > 0 {
		matches := transcript.FindPhrases(words, s.opts.RetakePhrases)
		if len(matches) > 0 {
			cutVAD, err := s.d.VAD.DetectSpeech(ctx, cutWav)
			if err != nil {
				log.Warn().Err(err).Msg("speech detection on cut audio failed, fallback uses transcript only")
				cutVAD = nil
			}

			clusters := retakes.ClassifyAll(retakes.Cluster(matches, s.opts.ClusterMaxGap), words)
			proposed := s.resolver.Resolve(ctx, words, clusters, cutVAD)
			merged := cuts.MergeOverlapping(proposed)
			finalCuts = cuts.EnsureCoverage(merged, matches, retakes.PatternsByMatch(matches, clusters), words, cutVAD)

			for _, c := range finalCuts {
				if c.Method == types.MethodFallbackHeuristic {
					metrics.FallbackCuts.Inc()
				}
			}

			if len(finalCuts) > 0 {
				keeps := cuts.ToKeepSegments(finalCuts, cutDuration)
				retakePath := filepath.Join(dir, "retakes_cut.mp4")
				if err := s.d.Video.ExtractConcat(ctx, cutPath, keeps, retakePath); err != nil {
					return nil, fmt.Errorf("apply retake cuts: %w", err)
				}
				outVideo = retakePath
				remaining = transcript.RemoveWordsIn(words, finalCuts)
				steps = append(steps, "retake_cut")
			}
			log.Info().
				Int("markers", len(matches)).
				Int("clusters", len(clusters)).
				Int("cuts", len(finalCuts)).
				Msg("retake detection finished")
		}
	}

	// Loudness normalization is optional: failure keeps the un-normalized cut.
	normalized := false
	if s.opts.NormalizeAudio {
		normPath := filepath.Join(dir, "normalized.mp4")
		ok, err := s.d.Video.NormalizeLoudness(ctx, outVideo, normPath)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("loudness normalization failed, keeping un-normalized video")
		case ok:
			outVideo = normPath
			normalized = true
			steps = append(steps, "loudnorm")
		}
	}

	// Uploads.
	videoKey := prefix + "video.mp4"
	if err := s.upload(ctx, videoKey, outVideo, "video/mp4"); err != nil {
		return nil, err
	}

	out := VideoProcessOutput{
		VideoKey:  videoKey,
		ReportKey: prefix + "report.json",
	}
	if len(words) > 0 {
		jsonKey, textKey, err := s.uploadTranscript(ctx, dir, prefix, remaining)
		if err != nil {
			return nil, err
		}
		out.TranscriptJSONKey = jsonKey
		out.TranscriptTextKey = textKey
	}

	processedDuration := cutDuration - cuts.TotalCut(finalCuts)
	report := types.EditReport{
		OriginalDurationMS:  int64(duration * 1000),
		ProcessedDurationMS: int64(processedDuration * 1000),
		SilenceRemovedMS:    int64((duration - cutDuration) * 1000),
		Cuts:                finalCuts,
		SegmentCount:        len(speech),
		WordCount:           len(words),
		WordsRemoved:        len(words) - len(remaining),
		NormalizedLoudness:  normalized,
		ProcessingSteps:     steps,
		Settings:            s.reportSettings(),
	}
	reportPath := filepath.Join(dir, "report.json")
	if err := writeJSON(reportPath, report); err != nil {
		return nil, err
	}
	if err := s.upload(ctx, out.ReportKey, reportPath, "application/json"); err != nil {
		return nil, err
	}

	out.OriginalDurationMS = report.OriginalDurationMS
	out.ProcessedDurationMS = report.ProcessedDurationMS
	out.CutCount = len(finalCuts)
	return json.Marshal(out)
}

func (s *Service) upload(ctx context.Context, key, localPath, contentType string) error {
	err := retry.Do(ctx, s.opts.MaxRetries, s.opts.RetryBase, func() error {
		return s.d.Storage.Upload(ctx, s.opts.OutputBucket, key, localPath, contentType)
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (s *Service) uploadTranscript(ctx context.Context, dir, prefix string, words []types.TranscriptWord) (string, string, error) {
	jsonKey := prefix + "transcript.json"
	textKey := prefix + "transcript.txt"

	jsonPath := filepath.Join(dir, "transcript.json")
	if err := writeJSON(jsonPath, words); err != nil {
		return "", "", err
	}
	if err := s.upload(ctx, jsonKey, jsonPath, "application/json"); err != nil {
		return "", "", err
	}

	textPath := filepath.Join(dir, "transcript.txt")
	if err := os.WriteFile(textPath, []byte(transcript.Plaintext(words)), 0o644); err != nil {
		return "", "", err
	}
	if err := s.upload(ctx, textKey, textPath, "text/plain"); err != nil {
		return "", "", err
	}
	return jsonKey, textKey, nil
}

func (s *Service) reportSettings() types.ReportSettings {
	return types.ReportSettings{
		ContextWindowSeconds: s.opts.ContextWindow,
		MinConfidence:        s.opts.MinConfidence,
		ClusterMaxGapSeconds: s.opts.ClusterMaxGap,
		SilenceMergeGap:      s.opts.SegmentMergeGap,
		PaddingSeconds:       s.opts.SegmentPadding,
		AdvisorContract:      resolveContract(),
	}
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
