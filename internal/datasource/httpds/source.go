// Package httpds is an input source that downloads the row set over HTTP
// GET. Transient failures (transport errors, 429 and 5xx) are retried with
// exponential backoff; the response body is streamed, not buffered.
package httpds

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"parsenumber/internal/logging"
)

// Config configures a Source. Zero values get defaults: Timeout 30s,
// InitialBackoff 200ms, MaxBackoff 5s. MaxRetries=0 means one attempt.
type Config struct {
	URL     string
	Headers map[string]string

	// Timeout bounds the whole request including reading the body, so it
	// must cover the full download.
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	InsecureSkipVerify bool

	// Transport replaces the default transport, mainly for tests.
	Transport http.RoundTripper
}

// Source fetches Config.URL on every Open.
type Source struct {
	cfg    Config
	client *http.Client

	// sleep waits between attempts; tests replace it.
	sleep func(ctx context.Context, d time.Duration) error
}

// New applies defaults to cfg and returns a Source.
func New(cfg Config) *Source {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec // opt-in
		}
	}
	return &Source{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		sleep:  sleepContext,
	}
}

// Name returns the URL.
func (s *Source) Name() string { return s.cfg.URL }

// Open issues the GET and returns the body of the first 2xx response. The
// caller closes it.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.cfg.URL == "" {
		return nil, fmt.Errorf("httpds: url must not be empty")
	}
	log := logging.L().WithField("url", s.cfg.URL)

	attempts := s.cfg.MaxRetries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, retry, err := s.get(ctx)
		if err == nil {
			return body, nil
		}
		if !retry || attempt+1 >= attempts {
			return nil, err
		}
		lastErr = err

		d := backoff(s.cfg.InitialBackoff, attempt, s.cfg.MaxBackoff)
		log.WithFields(logrus.Fields{"attempt": attempt + 1, "backoff": d}).WithError(err).Warn("httpds: retrying")
		if err := s.sleep(ctx, d); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// get performs one attempt and reports whether a failure is worth retrying.
func (s *Source) get(ctx context.Context) (io.ReadCloser, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.URL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("httpds: build request: %w", err)
	}
	for k, v := range s.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, fmt.Errorf("httpds: GET %s: %w", s.cfg.URL, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return resp.Body, false, nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
	return nil, retryable(resp.StatusCode), fmt.Errorf("httpds: GET %s: status %d", s.cfg.URL, resp.StatusCode)
}

// retryable treats 429 and 5xx as transient.
func retryable(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// backoff returns initial * 2^attempt, clamped to max.
func backoff(initial time.Duration, attempt int, max time.Duration) time.Duration {
	d := initial << attempt
	if d <= 0 || d > max {
		return max
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
