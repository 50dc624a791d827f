package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/aleister1102/sitewatch/internal/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder("https://example.com/")
	modified := time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC)

	r.PollSucceeded(modified)
	r.PollSucceeded(time.Time{})
	r.PollFailed()
	r.UpdateDetected()
	r.Recovered()
	r.WatchdogStalled()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.polls.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.polls.WithLabelValues("failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.updates))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.recoveries))
	assert.Equal(t, float64(modified.Unix()), testutil.ToFloat64(r.lastModified))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.stalls))
}

func TestServer(t *testing.T) {
	r := NewRecorder("https://example.com/")
	r.UpdateDetected()

	srv, err := NewServer(config.MetricsConfig{ListenAddr: "127.0.0.1:0", Path: "/metrics"}, r, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + srv.Addr() + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		body = string(data)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	assert.Contains(t, body, `sitewatch_updates_total{url="https://example.com/"} 1`)
	assert.Contains(t, body, `sitewatch_polls_total{result="failure",url="https://example.com/"} 0`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}

func TestNewServer_BadAddress(t *testing.T) {
	_, err := NewServer(config.MetricsConfig{ListenAddr: "256.0.0.1:99999"}, NewRecorder("x"), zerolog.Nop())
	assert.Error(t, err)
}
