// Package fetch implements the rate-limited page fetcher. A single outbound
// request is in flight per source at a time, separated by a minimum delay;
// sources are independent of each other. Response bytes are decoded from the
// source's fixed declared encoding before being handed to the decoders.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/time/rate"

	"github.com/vbstat/volleycrawl/internal/metrics"
	"github.com/vbstat/volleycrawl/internal/record"
)

// SourceConfig controls fetching for one source.
type SourceConfig struct {
	Encoding  string // "windows-1251" or "utf-8"
	Delay     time.Duration
	Timeout   time.Duration
	UserAgent string
}

const (
	defaultDelay   = 50 * time.Millisecond
	defaultTimeout = 30 * time.Second
)

type sourceState struct {
	cfg       SourceConfig
	limiter   *rate.Limiter
	collector *colly.Collector
	decoder   *encoding.Decoder // nil for utf-8
}

// Client fetches pages for the configured sources.
type Client struct {
	sources map[record.Source]*sourceState
	log     *zap.Logger
}

// New builds a Client for the given per-source configs.
func New(cfgs map[record.Source]SourceConfig, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		sources: make(map[record.Source]*sourceState, len(cfgs)),
		log:     log,
	}
	for src, cfg := range cfgs {
		if cfg.Delay <= 0 {
			cfg.Delay = defaultDelay
		}
		if cfg.Timeout <= 0 {
			cfg.Timeout = defaultTimeout
		}
		dec, err := decoderFor(cfg.Encoding)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", src, err)
		}
		collector := colly.NewCollector(colly.Async(false))
		collector.IgnoreRobotsTxt = true
		collector.AllowURLRevisit = true
		if cfg.UserAgent != "" {
			collector.UserAgent = cfg.UserAgent
		}
		collector.SetRequestTimeout(cfg.Timeout)
		// Burst 1 serializes callers: every request waits out the full delay.
		c.sources[src] = &sourceState{
			cfg:       cfg,
			limiter:   rate.NewLimiter(rate.Every(cfg.Delay), 1),
			collector: collector,
			decoder:   dec,
		}
	}
	return c, nil
}

func decoderFor(name string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "windows-1251", "cp1251":
		return charmap.Windows1251.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

// Fetch retrieves one page and returns its decoded bytes. Callers targeting
// the same source serialize on the per-source delay; callers targeting
// different sources do not contend.
func (c *Client) Fetch(ctx context.Context, src record.Source, url string) ([]byte, error) {
	st, ok := c.sources[src]
	if !ok {
		return nil, &Error{Kind: KindTransport, Source: string(src), URL: url,
			Err: fmt.Errorf("source %s not configured", src)}
	}

	start := time.Now()
	if err := st.limiter.Wait(ctx); err != nil {
		return nil, &Error{Kind: KindTimeout, Source: string(src), URL: url, Err: err}
	}
	if waited := time.Since(start); waited > time.Millisecond {
		metrics.ObserveRateLimitDelay(string(src), waited)
	}

	raw, status, err := c.visit(ctx, st, url)
	if err != nil {
		ferr := classify(src, url, status, err)
		metrics.ObserveFetchError(string(src), string(ferr.Kind))
		return nil, ferr
	}

	decoded := raw
	if st.decoder != nil {
		decoded, err = st.decoder.Bytes(raw)
		if err != nil {
			ferr := &Error{Kind: KindDecode, Source: string(src), URL: url, Err: err}
			metrics.ObserveFetchError(string(src), string(ferr.Kind))
			return nil, ferr
		}
	}
	metrics.ObservePage(string(src), len(decoded))
	return decoded, nil
}

// visit performs a single GET on a cloned collector, honoring ctx.
func (c *Client) visit(ctx context.Context, st *sourceState, url string) ([]byte, int, error) {
	collector := st.collector.Clone()

	var (
		body     []byte
		status   int
		visitErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		visitErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case err := <-done:
		if err != nil {
			return nil, status, err
		}
		if visitErr != nil {
			return nil, status, visitErr
		}
		return body, status, nil
	}
}

func classify(src record.Source, url string, status int, err error) *Error {
	ferr := &Error{Source: string(src), URL: url, StatusCode: status, Err: err}
	switch {
	case status >= http.StatusBadRequest:
		ferr.Kind = KindHTTPStatus
	case isTimeout(err):
		ferr.Kind = KindTimeout
	default:
		ferr.Kind = KindTransport
	}
	return ferr
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
