package fetch

import "fmt"

// Kind classifies fetch failures.
type Kind string

// Failure kinds. Retry policy is the caller's responsibility; the fetcher
// never retries internally.
const (
	KindTransport  Kind = "transport"
	KindHTTPStatus Kind = "http_status"
	KindTimeout    Kind = "timeout"
	KindDecode     Kind = "decode"
)

// Error is a typed fetch failure.
type Error struct {
	Kind       Kind
	Source     string
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
