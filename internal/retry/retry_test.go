package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	t.Parallel()

	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("got %d calls, want 3", calls)
	}
}

func TestDo_ReturnsLastErrorAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	calls := 0
	wantErr := errors.New("still broken")
	err := Do(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
	if calls != 3 {
		t.Fatalf("got %d calls, want 3", calls)
	}
}

func TestDo_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, 10, 50*time.Millisecond, func() error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if err == nil {
		t.Fatalf("expected error after cancel")
	}
	if calls > 2 {
		t.Fatalf("retry kept going after cancel: %d calls", calls)
	}
}
