package runnables

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ajitpratap0/launchpad/pkg/errors"
	"github.com/ajitpratap0/launchpad/pkg/registry"
)

// MetricsServer serves the default Prometheus registry over HTTP
type MetricsServer struct {
	Addr            string        `mapstructure:"addr"`
	Path            string        `mapstructure:"path"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// bound is closed once the listener is open
	bound    chan struct{}
	listener net.Listener
	started  sync.Once
}

func newMetricsServer(_ context.Context, spec registry.Spec) (any, error) {
	s := &MetricsServer{
		Addr:            ":9090",
		Path:            "/metrics",
		ShutdownTimeout: 5 * time.Second,
		bound:           make(chan struct{}),
	}
	if err := spec.Decode(s); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(s.Path, "/") {
		return nil, errors.Newf(errors.ErrorTypeValidation, "metrics path %q must start with /", s.Path).
			WithDetail("id", spec.ID)
	}
	return s, nil
}

// ListenAddr blocks until the server is listening and returns its address
func (s *MetricsServer) ListenAddr(ctx context.Context) (string, error) {
	select {
	case <-s.bound:
		return s.listener.Addr().String(), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Run serves until ctx is done, then shuts the server down gracefully. A
// server runs at most once; later calls fail with ErrorTypeConflict.
func (s *MetricsServer) Run(ctx context.Context) error {
	first := false
	s.started.Do(func() { first = true })
	if !first {
		return errors.New(errors.ErrorTypeConflict, "metrics server has already been started").
			WithDetail("addr", s.Addr)
	}

	l := log("metrics-server").With(zap.String("addr", s.Addr), zap.String("path", s.Path))

	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to listen").
			WithDetail("addr", s.Addr)
	}
	s.listener = ln
	close(s.bound)

	mux := http.NewServeMux()
	mux.Handle(s.Path, promhttp.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()
	l.Info("serving metrics", zap.String("listen", ln.Addr().String()))

	select {
	case err := <-serveErr:
		return errors.Wrap(err, errors.ErrorTypeConnection, "metrics server stopped")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "metrics server shutdown failed")
	}
	if err := <-serveErr; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, errors.ErrorTypeConnection, "metrics server stopped")
	}
	l.Info("metrics server stopped")
	return nil
}
