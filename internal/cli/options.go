package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mahirjain10/imagsharp/internal/transformation"
)

const defaultQuality = 80

// ParseQuality reads the quality flag. Input without a leading integer falls
// back to 80; numbers outside 0-100 are passed through for the encoder to
// handle.
func ParseQuality(s string) int {
	q, ok := leadingInt(s)
	if !ok {
		return defaultQuality
	}
	return q
}

// ParseWidth reads the width flag. Anything that does not start with a
// positive integer means "keep the source width" and yields 0.
func ParseWidth(s string) int {
	w, ok := leadingInt(s)
	if !ok || w < 0 {
		return 0
	}
	return w
}

// leadingInt reads an optionally signed run of digits at the start of s and
// ignores whatever follows it, so "640px" is 640 and "12.5" is 12.
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseFormat normalizes the format flag and rejects formats that cannot be
// encoded. An empty format keeps each source's own extension.
func ParseFormat(s string) (string, error) {
	f := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if f == "" {
		return "", nil
	}
	if !transformation.Supported(f) {
		return "", fmt.Errorf("%w: %s", transformation.ErrUnsupportedFormat, s)
	}
	return f, nil
}
