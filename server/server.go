// Package server implements the accept loop and session registry: one
// goroutine per accepted connection, all sharing the translator rule
// tables loaded once at startup and a server-wide cancel registry.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/cloudspannerecosystem/pg-spanner-proxy/backend"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/config"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/session"
	"github.com/cloudspannerecosystem/pg-spanner-proxy/translator"
)

// Server accepts TCP connections and spawns a goroutine per client.
type Server struct {
	cfg  *config.Config
	xlat *translator.Translator
	reg  *Registry
	log  zerolog.Logger

	mu        sync.Mutex
	listener  net.Listener
	wg        sync.WaitGroup
	quit      chan struct{}
	beFactory session.BackendFactory
}

// New creates a server with the given configuration and translator rule
// tables, loaded once at startup.
func New(cfg *config.Config, xlat *translator.Translator, log zerolog.Logger) *Server {
	return &Server{
		cfg:  cfg,
		xlat: xlat,
		reg:  newRegistry(),
		log:  log,
		quit: make(chan struct{}),
	}
}

// SetBackendFactory overrides how each session dials its backend. Tests use
// this to substitute a fake backend.Client instead of dialing Spanner or
// BigQuery for real.
func (s *Server) SetBackendFactory(f session.BackendFactory) {
	s.beFactory = f
}

// dialBackend constructs the backend.Client for one session, Spanner or
// BigQuery depending on cfg.BigQueryMode.
func (s *Server) dialBackend(ctx context.Context) (backend.Client, error) {
	if s.cfg.BigQueryMode {
		return backend.NewBigQueryClient(ctx, backend.BigQueryConfig{
			Project:         s.cfg.Project,
			Dataset:         s.cfg.Dataset,
			CredentialsFile: s.cfg.CredentialsFile,
		})
	}
	return backend.NewSpannerClient(ctx, backend.SpannerConfig{
		Project:         s.cfg.Project,
		Instance:        s.cfg.Instance,
		Database:        s.cfg.Database,
		CredentialsFile: s.cfg.CredentialsFile,
	})
}

// ListenAndServe starts accepting connections. It blocks until Shutdown
// is called or an unrecoverable error occurs.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.cfg.ServerPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.log.Info().Str("addr", addr).Bool("bigquery_mode", s.cfg.BigQueryMode).Msg("listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
				s.log.Warn().Err(err).Msg("accept error")
				continue
			}
		}

		beFactory := s.beFactory
		if beFactory == nil {
			beFactory = s.dialBackend
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sess := session.New(conn, s.cfg, beFactory, s.xlat, s.reg, s.log)
			sess.Run()
		}()
	}
}

// Addr returns the listener's network address, or nil if not yet listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		return ln.Addr()
	}
	return nil
}

// Shutdown stops accepting new connections, tells every live session it
// is being shut down, and waits for them to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.quit)
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln != nil {
		ln.Close()
	}

	s.reg.ShutdownAll()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
