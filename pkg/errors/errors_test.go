package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "new",
			err:  New(ErrCodeInvalidInput, "canvas width must be positive, got %v", -4),
			want: "INVALID_INPUT: canvas width must be positive, got -4",
		},
		{
			name: "wrapped",
			err:  Wrap(ErrCodeNetwork, errors.New("connection refused"), "fetch background %s", "bg.png"),
			want: "NETWORK_ERROR: fetch background bg.png: connection refused",
		},
		{
			name: "no args",
			err:  New(ErrCodeLayoutFailed, "simulation diverged"),
			want: "LAYOUT_FAILED: simulation diverged",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("rsvg-convert: not found")
	err := Wrap(ErrCodeUnsupported, cause, "export pdf")

	if err.Code != ErrCodeUnsupported {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUnsupported)
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if err.Message != "export pdf" {
		t.Errorf("Message = %q, want %q", err.Message, "export pdf")
	}
}

type malformed struct{ edge int }

func (m malformed) Error() string { return fmt.Sprintf("malformed snapshot: edge %d", m.edge) }
func (malformed) Code() Code      { return ErrCodeMalformedSnapshot }

func TestIsAndGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
	}{
		{"structured", New(ErrCodeNotFound, "no session"), ErrCodeNotFound},
		{"outermost structured wins", Wrap(ErrCodeInternal, New(ErrCodeLayoutFailed, "nan"), "render task"), ErrCodeInternal},
		{"fmt wrapped structured", fmt.Errorf("render#3: %w", New(ErrCodeLayoutFailed, "nan")), ErrCodeLayoutFailed},
		{"coder", malformed{edge: 2}, ErrCodeMalformedSnapshot},
		{"fmt wrapped coder", fmt.Errorf("load a.json: %w", malformed{edge: 0}), ErrCodeMalformedSnapshot},
		{"structured wrapping coder", Wrap(ErrCodeInvalidInput, malformed{}, "render"), ErrCodeInvalidInput},
		{"plain", errors.New("boom"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && !Is(tt.err, tt.code) {
				t.Errorf("Is(%q) = false, want true", tt.code)
			}
			if Is(tt.err, ErrCodeTimeout) {
				t.Error("Is(TIMEOUT) = true, want false")
			}
		})
	}
}

func TestIsNilNeverMatchesEmptyCode(t *testing.T) {
	if Is(nil, "") {
		t.Error("Is(nil, \"\") = true, want false")
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"structured", New(ErrCodeInvalidConfig, "unknown update mode %q", "merge"), `unknown update mode "merge"`},
		{"wrapped structured", fmt.Errorf("config: %w", New(ErrCodeInvalidPath, "path escapes output dir")), "path escapes output dir"},
		{"coder", malformed{edge: 1}, "malformed snapshot: edge 1"},
		{"plain", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
