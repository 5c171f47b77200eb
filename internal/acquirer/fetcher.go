package acquirer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jonesrussell/north-cloud/puzzle-feed/internal/logger"
)

// maxResponseBodyBytes limits the size of fetched articles.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

const (
	statusTooManyRequests = http.StatusTooManyRequests
	statusServerErrLow    = http.StatusInternalServerError
)

// Fetcher retrieves the article at url.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string) (string, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// StatusError is a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == statusTooManyRequests || e.StatusCode >= statusServerErrLow
}

// HTTPFetcherConfig configures HTTPFetcher.
type HTTPFetcherConfig struct {
	// Timeout bounds one Fetch call including retries.
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	UserAgent      string
}

// HTTPFetcher fetches articles over HTTP, retrying network errors, 429 and 5xx
// with exponential backoff.
type HTTPFetcher struct {
	client *http.Client
	cfg    HTTPFetcherConfig
	logger logger.Logger
}

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(cfg HTTPFetcherConfig, log logger.Logger) *HTTPFetcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &HTTPFetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: log,
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	var body string
	attempt := 0
	operation := func() error {
		attempt++
		var err error
		body, err = f.get(ctx, url)
		if err == nil {
			return nil
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Temporary() {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		f.logger.Debug("Retrying article fetch",
			logger.String("url", url),
			logger.Int("attempt", attempt),
			logger.Duration("wait", wait),
			logger.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, f.backOff(ctx), notify); err != nil {
		return "", err
	}
	return body, nil
}

func (f *HTTPFetcher) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if f.cfg.InitialBackoff > 0 {
		b.InitialInterval = f.cfg.InitialBackoff
	}
	if f.cfg.MaxBackoff > 0 {
		b.MaxInterval = f.cfg.MaxBackoff
	}
	// The context deadline bounds the total time instead.
	b.MaxElapsedTime = 0

	retries := f.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

func (f *HTTPFetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodyBytes))
		return "", &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(data), nil
}
