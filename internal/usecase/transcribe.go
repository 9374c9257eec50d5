package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/retakecut/retakecut/internal/retry"
)

// TranscribeInput is the payload of a transcribe job.
type TranscribeInput struct {
	Bucket       string `json:"bucket" validate:"required"`
	Key          string `json:"key" validate:"required"`
	OutputPrefix string `json:"output_prefix"`
}

// TranscribeOutput is stored on the job when transcription succeeds.
type TranscribeOutput struct {
	TranscriptJSONKey string `json:"transcript_json_key"`
	TranscriptTextKey string `json:"transcript_text_key"`
	WordCount         int    `json:"word_count"`
}

// Transcribe runs the transcription-only pipeline. Unlike video_process,
// transcription is the whole job here, so its failure fails the job.
func (s *Service) Transcribe(ctx context.Context, jobID string, rawInput []byte) ([]byte, error) {
	var in TranscribeInput
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

	srcPath := filepath.Join(dir, "input.mp4")
	err = retry.Do(ctx, s.opts.MaxRetries, s.opts.RetryBase, func() error {
		return s.d.Storage.Download(ctx, in.Bucket, in.Key, srcPath)
	})
	if err != nil {
		return nil, fmt.Errorf("download s3://%s/%s: %w", in.Bucket, in.Key, err)
	}

	wavPath := filepath.Join(dir, "audio.wav")
	if err := s.d.Video.ExtractAudioMono16k(ctx, srcPath, wavPath); err != nil {
		return nil, err
	}

	words, err := s.d.ASR.Transcribe(ctx, wavPath, dir)
	if err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}

	jsonKey, textKey, err := s.uploadTranscript(ctx, dir, prefix, words)
	if err != nil {
		return nil, err
	}

	return json.Marshal(TranscribeOutput{
		TranscriptJSONKey: jsonKey,
		TranscriptTextKey: textKey,
		WordCount:         len(words),
	})
}
