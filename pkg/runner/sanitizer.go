package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidUTF8 reports operator input that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("input is not valid UTF-8")

var (
	// DefaultMaxOutputSize caps how much captured process output is
	// rendered to the terminal. 4KB keeps verdicts readable.
	DefaultMaxOutputSize = 4096
	// EnvMaxOutputSize is the environment variable overriding the cap.
	EnvMaxOutputSize = "ESPALIER_MAX_OUTPUT_SIZE"

	// DefaultMaxInputSize caps a single line of operator input.
	DefaultMaxInputSize = 1024
	// EnvMaxInputSize is the environment variable overriding the cap.
	EnvMaxInputSize = "ESPALIER_MAX_INPUT_SIZE"
)

// truncationMarker is appended whenever output was cut at the cap.
const truncationMarker = "\n[output truncated]"

// SanitizeOutput cleans untrusted text before terminal rendering:
// oversized output is truncated with a marker, invalid UTF-8 is
// replaced, and control characters that could corrupt the terminal or
// poison logs are stripped. Newline, tab and carriage return survive.
//
// Unlike operator input, output cannot be rejected wholesale: the
// process already ran, so the dangerous parts are dropped instead.
func SanitizeOutput(s string) string {
	limit := maxOutputSize()
	truncated := false
	if len(s) > limit {
		s = truncateUTF8(s, limit)
		truncated = true
	}

	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, string(utf8.RuneError))
	}

	s = stripUnsafeControls(s)

	if truncated {
		s += truncationMarker
	}
	return s
}

// SanitizeInput validates one line of operator input. Oversized and
// malformed input is rejected outright, a prompt answer that needed
// repair is not the answer the operator typed. Control characters that
// could corrupt the terminal are stripped.
func SanitizeInput(s string) (string, error) {
	if limit := maxInputSize(); len(s) > limit {
		return "", fmt.Errorf("input exceeds %d bytes", limit)
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidUTF8
	}
	return strings.TrimSpace(stripUnsafeControls(s)), nil
}

// stripUnsafeControls drops control characters except newline, tab and
// carriage return. The fast path returns the string untouched.
func stripUnsafeControls(s string) string {
	clean := true
	for _, r := range s {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

// truncateUTF8 cuts at the byte limit without splitting a rune.
func truncateUTF8(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func maxOutputSize() int {
	return sizeFromEnv(EnvMaxOutputSize, DefaultMaxOutputSize)
}

func maxInputSize() int {
	return sizeFromEnv(EnvMaxInputSize, DefaultMaxInputSize)
}

func sizeFromEnv(name string, fallback int) int {
	if val := os.Getenv(name); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return fallback
}
