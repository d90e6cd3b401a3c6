package services

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// MetricsService exposes the tracker's Prometheus counters over HTTP.
type MetricsService struct {
	addr     string
	gatherer prometheus.Gatherer
	logger   zerolog.Logger

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	wg       sync.WaitGroup
}

// NewMetricsService creates a MetricsService listening on addr. A nil gatherer
// serves the default registry.
func NewMetricsService(addr string, gatherer prometheus.Gatherer, logger zerolog.Logger) *MetricsService {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &MetricsService{
		addr:     addr,
		gatherer: gatherer,
		logger:   logger,
	}
}

// Start binds the listen address and serves /metrics and /healthz.
func (m *MetricsService) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server != nil {
		m.logger.Warn().Msg("MetricsService is already running")
		return errors.New("metrics service is already running")
	}

	ln, err := net.Listen("tcp", m.addr)
	if err != nil {
		m.logger.Error().Err(err).Str("addr", m.addr).Msg("Failed to bind metrics listener")
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	m.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	m.listener = ln

	m.wg.Add(1)
	go func(srv *http.Server) {
		defer m.wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Msg("Metrics server stopped unexpectedly")
		}
	}(m.server)

	m.logger.Info().Str("addr", ln.Addr().String()).Msg("MetricsService started successfully")
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (m *MetricsService) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listener != nil {
		return m.listener.Addr().String()
	}
	return m.addr
}

// Stop shuts the HTTP server down.
func (m *MetricsService) Stop() error {
	m.mu.Lock()
	srv := m.server
	m.server = nil
	m.listener = nil
	m.mu.Unlock()

	if srv == nil {
		m.logger.Warn().Msg("MetricsService is not running")
		return errors.New("metrics service is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := srv.Shutdown(ctx)
	m.wg.Wait()

	m.logger.Info().Msg("MetricsService stopped")
	return err
}
