// Package fetch implements the page fetcher on top of the Colly collector.
// One Fetch call performs a bounded number of attempts and returns either a
// parsed document or a classified *scrape.FetchFailure.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/athledata/ffa-scraper/internal/document"
	"github.com/athledata/ffa-scraper/internal/scrape"
)

// Config controls collector and retry behavior.
type Config struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Fetcher implements scrape.Fetcher using a shared Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Fetcher with pooled transport settings.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 250 * time.Millisecond
	}
	c := colly.NewCollector()
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.SetRequestTimeout(cfg.Timeout)
	c.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        64,
		MaxIdleConnsPerHost: 32,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 15 * time.Second,
	})
	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch retrieves a URL, retrying transient transport failures up to the
// configured attempt budget. HTTP status errors are terminal on the first
// occurrence.
func (f *Fetcher) Fetch(ctx context.Context, url string) (scrape.Document, error) {
	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		body, status, err := f.attempt(ctx, url)
		if err == nil {
			doc, perr := document.Parse(body)
			if perr != nil {
				return nil, fmt.Errorf("fetch %s: %w", url, perr)
			}
			return doc, nil
		}
		if status >= http.StatusBadRequest {
			return nil, &scrape.FetchFailure{
				Kind:     scrape.FailureHTTP,
				URL:      url,
				Status:   status,
				Attempts: attempt,
				Err:      err,
			}
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, ctx.Err())
		}
		lastErr = err
		f.logger.Warn("fetch attempt failed",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", f.cfg.MaxRetries),
			zap.Error(err),
		)
		if attempt < f.cfg.MaxRetries {
			select {
			case <-time.After(f.cfg.RetryDelay):
			case <-ctx.Done():
				return nil, fmt.Errorf("fetch %s: %w", url, ctx.Err())
			}
		}
	}
	kind := scrape.FailureNetwork
	if isTimeout(lastErr) {
		kind = scrape.FailureTimeout
	}
	return nil, &scrape.FetchFailure{
		Kind:     kind,
		URL:      url,
		Attempts: f.cfg.MaxRetries,
		Err:      lastErr,
	}
}

// attemptResult carries one visit's outcome across the goroutine boundary.
// The visiting goroutine owns it exclusively until the send, so an early
// cancellation return never races with the collector callbacks.
type attemptResult struct {
	body   []byte
	status int
	err    error
}

// attempt performs a single GET. On a non-2xx response the returned status
// is set alongside the error so the caller can classify it as permanent.
func (f *Fetcher) attempt(ctx context.Context, url string) ([]byte, int, error) {
	collector := f.baseCollector.Clone()

	done := make(chan attemptResult, 1)
	go func() {
		var res attemptResult
		collector.OnResponse(func(r *colly.Response) {
			res.status = r.StatusCode
			res.body = append([]byte(nil), r.Body...)
		})
		collector.OnError(func(r *colly.Response, e error) {
			if r != nil {
				res.status = r.StatusCode
			}
			res.err = e
		})
		if visitErr := collector.Visit(url); visitErr != nil && res.err == nil {
			res.err = visitErr
		}
		done <- res
	}()

	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case res := <-done:
		return res.body, res.status, res.err
	}
}

// isTimeout reports whether the error chain indicates a timed-out or reset
// connection. Resets share the timeout classification; every other
// transport fault (refused, DNS) reports as a network failure.
func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ETIMEDOUT) || errors.Is(err, syscall.ECONNRESET)
}
