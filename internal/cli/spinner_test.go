package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

// testSpinner returns a spinner that writes to buf as if stderr were a
// terminal when animate is set.
func testSpinner(ctx context.Context, buf *bytes.Buffer, animate bool) *Spinner {
	s := newSpinnerWithContext(ctx, "Rendering 2 snapshot(s)...")
	s.out = buf
	s.animate = animate
	return s
}

func TestSpinnerDrawsAndClears(t *testing.T) {
	var buf bytes.Buffer
	s := testSpinner(context.Background(), &buf, true)
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Rendering 2 snapshot(s)...") {
		t.Errorf("output %q missing message", out)
	}
	blank := "\r" + strings.Repeat(" ", len("Rendering 2 snapshot(s)...")+4) + "\r"
	if !strings.HasSuffix(out, blank) {
		t.Errorf("output does not end with a cleared line: %q", out)
	}
	if s.Cancelled() {
		t.Error("Cancelled() = true after Stop, want false")
	}
}

func TestSpinnerSilentOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	s := testSpinner(context.Background(), &buf, false)
	s.Start()
	time.Sleep(150 * time.Millisecond)
	s.StopWithSuccess("Rendered 2 snapshot(s)")

	if buf.Len() != 0 {
		t.Errorf("spinner wrote %q while not animating", buf.String())
	}
}

func TestSpinnerCancelledByContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  func() (context.Context, context.CancelFunc)
	}{
		{"cancel", func() (context.Context, context.CancelFunc) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			return ctx, cancel
		}},
		{"timeout", func() (context.Context, context.CancelFunc) {
			return context.WithTimeout(context.Background(), 30*time.Millisecond)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := tt.ctx()
			defer cancel()

			var buf bytes.Buffer
			s := testSpinner(ctx, &buf, false)
			s.Start()
			time.Sleep(100 * time.Millisecond)

			if !s.Cancelled() {
				t.Error("Cancelled() = false after context ended, want true")
			}
			s.Stop()
		})
	}
}

func TestSpinnerStopTwice(t *testing.T) {
	var buf bytes.Buffer
	s := testSpinner(context.Background(), &buf, false)
	s.Start()
	s.Stop()
	s.StopWithError("Render failed")
}
