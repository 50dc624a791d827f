package monitor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/config"
	"github.com/aleister1102/sitewatch/internal/httpclient"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, mutate func(cfg *config.MonitorConfig)) *HTTPTimestampFetcher {
	t.Helper()
	cfg := config.NewDefaultMonitorConfig()
	cfg.FetchTimeoutSeconds = 2
	if mutate != nil {
		mutate(&cfg)
	}
	client, err := httpclient.NewHTTPClientFactory(zerolog.Nop()).CreateMonitorClient(cfg)
	require.NoError(t, err)
	return NewHTTPTimestampFetcher(client, cfg, zerolog.Nop())
}

func TestFetch_LastModifiedHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
		w.Header().Set("Last-Modified", "Mon, 01 Jan 2024 00:05:00 GMT")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	ts, err := newTestFetcher(t, nil).Fetch(context.Background(), server.URL)

	require.NoError(t, err)
	assert.True(t, ts.Time().Equal(time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC)))
}

func TestFetch_MissingHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("no timestamp here"))
	}))
	defer server.Close()

	ts, err := newTestFetcher(t, nil).Fetch(context.Background(), server.URL)

	require.Error(t, err)
	assert.False(t, ts.IsSet())
	assert.True(t, errors.Is(err, common.ErrMissingLastModified))
	assert.True(t, common.IsFetchError(err))
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", "Mon, 01 Jan 2024 00:05:00 GMT")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestFetcher(t, nil).Fetch(context.Background(), server.URL)

	var fetchErr *common.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
	assert.Contains(t, err.Error(), "HTTP 503")
}

func TestFetch_InvalidHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", "yesterday-ish")
	}))
	defer server.Close()

	_, err := newTestFetcher(t, nil).Fetch(context.Background(), server.URL)

	require.Error(t, err)
	assert.True(t, common.IsFetchError(err))
	assert.Contains(t, err.Error(), "yesterday-ish")
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	fetcher := newTestFetcher(t, nil)
	fetcher.timeout = 50 * time.Millisecond

	start := time.Now()
	_, err := fetcher.Fetch(context.Background(), server.URL)

	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrTimeout), "got %v", err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFetch_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestFetcher(t, nil).Fetch(context.Background(), url)

	require.Error(t, err)
	assert.True(t, common.IsFetchError(err))
}

func TestFetch_InvalidURL(t *testing.T) {
	_, err := newTestFetcher(t, nil).Fetch(context.Background(), "http://bad host/")

	require.Error(t, err)
	assert.True(t, common.IsFetchError(err))
}

func TestFetch_MetaFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head>
<meta name="description" content="etf">
<meta http-equiv="Last-Modified" content="2024-01-01T00:05:00Z">
</head><body></body></html>`))
	}))
	defer server.Close()

	withFallback := newTestFetcher(t, func(cfg *config.MonitorConfig) { cfg.HTMLMetaFallback = true })
	ts, err := withFallback.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, ts.Time().Equal(time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC)))

	withoutFallback := newTestFetcher(t, func(cfg *config.MonitorConfig) { cfg.HTMLMetaFallback = false })
	_, err = withoutFallback.Fetch(context.Background(), server.URL)
	assert.True(t, errors.Is(err, common.ErrMissingLastModified))
}

func TestParseMetaTime(t *testing.T) {
	tests := map[string]bool{
		"Mon, 01 Jan 2024 00:05:00 GMT": true,
		"2024-01-01T00:05:00+09:00":     true,
		"2024-01-01 00:05:00":           true,
		"2024/01/01 00:05:00":           true,
		"":                              false,
		"soon":                          false,
	}
	for input, ok := range tests {
		_, got := parseMetaTime(input)
		assert.Equal(t, ok, got, "input %q", input)
	}
}
