package redisstore

import (
	"testing"
	"time"

	"github.com/retakecut/retakecut/internal/types"
)

func TestJobFromFields(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	job, err := jobFromFields(map[string]string{
		"id":         "job-1",
		"type":       types.JobTypeVideoProcess,
		"status":     string(types.JobRunning),
		"input":      `{"bucket":"b","key":"k"}`,
		"created_at": "1772366400000000000",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.ID != "job-1" || job.Type != types.JobTypeVideoProcess {
		t.Fatalf("unexpected job: %+v", job)
	}
	if job.Status != types.JobRunning {
		t.Fatalf("status: got %q", job.Status)
	}
	if !job.CreatedAt.Equal(created) {
		t.Fatalf("created_at: got %v, want %v", job.CreatedAt, created)
	}
	if string(job.Input) != `{"bucket":"b","key":"k"}` {
		t.Fatalf("input: got %q", job.Input)
	}
}

func TestJobFromFields_MissingID(t *testing.T) {
	t.Parallel()

	if _, err := jobFromFields(map[string]string{"type": "x"}); err == nil {
		t.Fatalf("expected error for missing id")
	}
}

func TestJobFromFields_BadTimestamp(t *testing.T) {
	t.Parallel()

	_, err := jobFromFields(map[string]string{"id": "j", "created_at": "yesterday"})
	if err == nil {
		t.Fatalf("expected error for bad created_at")
	}
}
