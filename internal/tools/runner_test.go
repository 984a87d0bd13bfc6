package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestExecRunner_Success(t *testing.T) {
	r := NewExecRunner()

	out, err := r.Run(context.Background(), 5*time.Second, "sh", "-c", "printf hello")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("Run() stdout = %q, want %q", out, "hello")
	}
	if r.Active() != 0 {
		t.Errorf("Active() = %d after completion, want 0", r.Active())
	}
}

func TestExecRunner_ExitError(t *testing.T) {
	r := NewExecRunner()

	_, err := r.Run(context.Background(), 5*time.Second, "sh", "-c", "echo boom >&2; exit 3")

	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("Run() error = %v, want *ToolError", err)
	}
	if te.Kind != KindExit {
		t.Errorf("Kind = %q, want %q", te.Kind, KindExit)
	}
	if te.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", te.ExitCode)
	}
	if te.Stderr != "boom" {
		t.Errorf("Stderr = %q, want %q", te.Stderr, "boom")
	}
	if !strings.Contains(te.Error(), "exited with status 3") {
		t.Errorf("Error() = %q", te.Error())
	}
}

func TestExecRunner_Timeout(t *testing.T) {
	r := NewExecRunner()

	start := time.Now()
	_, err := r.Run(context.Background(), time.Second, "sleep", "10")
	if time.Since(start) > 5*time.Second {
		t.Errorf("Run() did not honor timeout, took %v", time.Since(start))
	}

	if !IsKind(err, KindTimeout) {
		t.Fatalf("Run() error = %v, want timeout", err)
	}
	if got := err.Error(); got != "sleep timed out after 1s" {
		t.Errorf("Error() = %q, want %q", got, "sleep timed out after 1s")
	}
}

func TestExecRunner_Missing(t *testing.T) {
	r := NewExecRunner()

	_, err := r.Run(context.Background(), time.Second, "definitely-not-a-real-tool-xyz")
	if !IsKind(err, KindMissing) {
		t.Fatalf("Run() error = %v, want missing", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestExecRunner_Canceled(t *testing.T) {
	r := NewExecRunner()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := r.Run(ctx, time.Minute, "sleep", "10")
	if !IsKind(err, KindCanceled) {
		t.Fatalf("Run() error = %v, want canceled", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("errors.Is(err, context.Canceled) = false for %v", err)
	}
}

func TestExecRunner_CleanupKillsProcesses(t *testing.T) {
	r := NewExecRunner()

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background(), time.Minute, "sleep", "30")
		done <- err
	}()

	deadline := time.Now().Add(5 * time.Second)
	for r.Active() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	r.Cleanup()

	select {
	case err := <-done:
		if !IsKind(err, KindExit) {
			t.Errorf("killed process error = %v, want exit kind", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Cleanup did not kill running process")
	}
}

func TestIsKindSearchesJoinedErrors(t *testing.T) {
	joined := errors.Join(
		&ToolError{Tool: "cjxl", Kind: KindExit, ExitCode: 1},
		&ToolError{Tool: "magick", Kind: KindTimeout, Timeout: time.Second},
	)
	err := fmt.Errorf("all strategies failed: %w", joined)

	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{KindExit, true},
		{KindTimeout, true},
		{KindMissing, false},
		{KindCanceled, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := IsKind(err, tt.kind); got != tt.want {
				t.Errorf("IsKind(%v, %s) = %v, want %v", err, tt.kind, got, tt.want)
			}
		})
	}

	if IsKind(nil, KindExit) {
		t.Error("IsKind(nil) = true, want false")
	}
	if IsKind(errors.New("plain"), KindExit) {
		t.Error("IsKind(plain error) = true, want false")
	}
}

func TestTail(t *testing.T) {
	short := "  short  "
	if got := tail(short); got != "short" {
		t.Errorf("tail(short) = %q", got)
	}

	long := strings.Repeat("a", maxStderr) + "END"
	got := tail(long)
	if !strings.HasPrefix(got, "...") || !strings.HasSuffix(got, "END") {
		t.Errorf("tail(long) = %q...", got[:10])
	}
	if len(got) != maxStderr+3 {
		t.Errorf("len(tail(long)) = %d, want %d", len(got), maxStderr+3)
	}
}

func TestAvailable(t *testing.T) {
	found := Available("sh", "definitely-not-a-real-tool-xyz")
	if !found["sh"] {
		t.Error("sh should be available")
	}
	if found["definitely-not-a-real-tool-xyz"] {
		t.Error("bogus tool reported available")
	}
}
