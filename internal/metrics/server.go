package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// Server serves a Recorder's registry over HTTP
type Server struct {
	srv      *http.Server
	listener net.Listener
	logger   zerolog.Logger
}

// NewServer binds cfg.ListenAddr. Binding happens here so a bad address is
// reported before monitoring starts.
func NewServer(cfg config.MetricsConfig, recorder *Recorder, logger zerolog.Logger) (*Server, error) {
	path := cfg.Path
	if path == "" {
		path = config.DefaultMetricsPath
	}

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to listen on %s", cfg.ListenAddr)
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(recorder.Registry(), promhttp.HandlerOpts{}))

	return &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: listener,
		logger:   logger.With().Str("component", "MetricsServer").Logger(),
	}, nil
}

// Addr returns the bound address
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Run serves until ctx is done, then shuts the listener down
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.Addr()).Msg("Metrics server listening")
		if err := s.srv.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error().Err(err).Msg("Metrics server failed")
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn().Err(err).Msg("Metrics server shutdown error")
		return err
	}
	return nil
}
