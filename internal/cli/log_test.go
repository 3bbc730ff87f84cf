package cli

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerFiltersByLevel(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		emit  func(*log.Logger)
		want  bool
	}{
		{"render debug hidden at info", log.InfoLevel, func(l *log.Logger) { l.Debug("render scheduled") }, false},
		{"render debug shown with -v", log.DebugLevel, func(l *log.Logger) { l.Debug("render scheduled") }, true},
		{"info shown at info", log.InfoLevel, func(l *log.Logger) { l.Info("wrote graph.svg") }, true},
		{"warn shown at error", log.ErrorLevel, func(l *log.Logger) { l.Warn("background unreachable") }, false},
		{"error shown at error", log.ErrorLevel, func(l *log.Logger) { l.Error("render failed") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("wrote output = %v, want %v (%q)", got, tt.want, buf.String())
			}
		})
	}
}

func TestNewLoggerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Info("scene reset")

	stamp := regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `)
	if !stamp.MatchString(buf.String()) {
		t.Errorf("output %q does not start with an HH:MM:SS.ms timestamp", buf.String())
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("Rendered 2 snapshot(s)")

	out := buf.String()
	if !strings.Contains(out, "Rendered 2 snapshot(s)") {
		t.Errorf("output %q missing message", out)
	}
	if !regexp.MustCompile(`\(\d+(\.\d+)?[mµn]?s\)`).MatchString(out) {
		t.Errorf("output %q missing elapsed time", out)
	}
}

func TestProgressDoneRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.ErrorLevel)).done("Rendered 1 snapshot(s)")
	if buf.Len() != 0 {
		t.Errorf("progress logged at error level: %q", buf.String())
	}
}

func TestLoggerContext(t *testing.T) {
	t.Run("default when unset", func(t *testing.T) {
		if got := loggerFromContext(context.Background()); got != log.Default() {
			t.Error("loggerFromContext() should fall back to log.Default()")
		}
	})

	t.Run("round trip", func(t *testing.T) {
		var buf bytes.Buffer
		custom := newLogger(&buf, log.DebugLevel)
		ctx := withLogger(context.Background(), custom)

		got := loggerFromContext(ctx)
		if got != custom {
			t.Fatal("loggerFromContext() returned a different logger")
		}
		got.Debug("render complete", "generation", 1)
		if !strings.Contains(buf.String(), "generation=1") {
			t.Errorf("output %q missing structured field", buf.String())
		}
	})

	t.Run("inner context wins", func(t *testing.T) {
		outer := newLogger(&bytes.Buffer{}, log.InfoLevel)
		inner := newLogger(&bytes.Buffer{}, log.DebugLevel)
		ctx := withLogger(withLogger(context.Background(), outer), inner)
		if loggerFromContext(ctx) != inner {
			t.Error("loggerFromContext() should return the innermost logger")
		}
	})
}
