package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/athledata/ffa-scraper/internal/scrape"
)

func newTestFetcher(maxRetries int, timeout time.Duration) *Fetcher {
	return New(Config{
		Timeout:    timeout,
		MaxRetries: maxRetries,
		RetryDelay: 5 * time.Millisecond,
	}, zap.NewNop())
}

func TestFetchSuccessReturnsDocument(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a href="/athletes/77">X</a></body></html>`))
	}))
	defer srv.Close()

	f := newTestFetcher(3, time.Second)
	doc, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, doc.Links("athletes"), 1)
}

func TestFetchHTTPErrorIsPermanent(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := newTestFetcher(3, time.Second)
	_, err := f.Fetch(context.Background(), srv.URL)

	var failure *scrape.FetchFailure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, scrape.FailureHTTP, failure.Kind)
	require.Equal(t, http.StatusNotFound, failure.Status)
	require.Equal(t, int32(1), hits.Load(), "4xx must not be retried")
}

func TestFetchTimeoutExhaustsRetries(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	f := newTestFetcher(3, 50*time.Millisecond)
	_, err := f.Fetch(context.Background(), srv.URL)

	var failure *scrape.FetchFailure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, scrape.FailureTimeout, failure.Kind)
	require.Equal(t, 3, failure.Attempts)
	require.Equal(t, int32(3), hits.Load(), "exactly max_retries attempts")
}

func TestFetchConnectionErrorIsNetwork(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := newTestFetcher(2, time.Second)
	_, err := f.Fetch(context.Background(), url)

	var failure *scrape.FetchFailure
	require.ErrorAs(t, err, &failure)
	require.Equal(t, scrape.FailureNetwork, failure.Kind)
	require.Equal(t, 2, failure.Attempts)
}

func TestFetchCancellationMidVisit(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	// The visit is still in flight when the context expires; Fetch must
	// return promptly with the context error, not wait out the request.
	f := newTestFetcher(3, time.Second)
	start := time.Now()
	_, err := f.Fetch(ctx, srv.URL)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.DeadlineExceeded))
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestFetchCanceledContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newTestFetcher(3, time.Second)
	_, err := f.Fetch(ctx, srv.URL)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))

	var failure *scrape.FetchFailure
	require.False(t, errors.As(err, &failure), "cancellation is not a classified fetch failure")
}
