// Package source holds the error sentinels and text helpers shared by the
// per-site page decoders. Decoders are pure functions over fetched bytes:
// they never touch the network or the store.
package source

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrEmpty reports a page that exists but carries no entity (a "Матч не
// найден" placeholder, an out-of-range identifier). Match with errors.Is.
// An empty page is an expected outcome, not a failure.
var ErrEmpty = errors.New("page carries no entity")

// DecodeError reports markup the decoder could not make sense of. Unlike
// ErrEmpty it indicates the site changed shape or the fetch was truncated.
type DecodeError struct {
	Page string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Page, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Malformed builds a DecodeError for the named page kind.
func Malformed(page, format string, args ...any) error {
	return &DecodeError{Page: page, Err: fmt.Errorf(format, args...)}
}

// IsEmpty reports whether err (or anything it wraps) is the empty sentinel.
func IsEmpty(err error) bool { return errors.Is(err, ErrEmpty) }

// CleanText collapses interior whitespace and trims the ends, matching how
// both sites pad their table cells.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var digitsRe = regexp.MustCompile(`\d+`)

// FirstInt extracts the first integer in s, or nil when there is none.
func FirstInt(s string) *int {
	m := digitsRe.FindString(s)
	if m == "" {
		return nil
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return nil
	}
	return &n
}

// IntPtr is a literal helper for the nullable counters.
func IntPtr(n int) *int { return &n }

// ParseInt parses a trimmed cell as an int, nil when blank or non-numeric.
// Absent means absent: callers must never coerce nil to zero.
func ParseInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
