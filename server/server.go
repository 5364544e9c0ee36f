// Package server is the start mode: an interactive development serving
// loop. Builds happen in memory, sources are watched, and connected
// browsers reload when a rebuild lands.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/sync/errgroup"

	"github.com/packsmith/packsmith/bundle"
	"github.com/packsmith/packsmith/config"
	"github.com/packsmith/packsmith/resolve"
)

type Server struct {
	cfg    config.Server
	source string
	bundle resolve.Config
	runner *bundle.Runner
	store  *AssetStore
	broker *Broker
	logger *slog.Logger
}

func New(cfg config.Server, sourceDir string, resolved resolve.Config, runner *bundle.Runner, store *AssetStore, logger *slog.Logger) *Server {
	return &Server{
		cfg:    cfg,
		source: sourceDir,
		bundle: resolved,
		runner: runner,
		store:  store,
		broker: NewBroker(),
		logger: logger,
	}
}

// rebuild runs one in-memory build and, on success, swaps the asset set
// and notifies clients. A failed rebuild keeps serving the last good
// build; the diagnostics already went to the log.
func (s *Server) rebuild(initial bool) error {
	res, err := s.runner.Run(s.bundle)
	if err != nil {
		if initial {
			return err
		}
		s.logger.Error("rebuild failed, serving previous build", "error", err)
		return nil
	}
	s.store.Store(res)
	if !initial {
		s.broker.Broadcast()
		s.logger.Info("rebuilt", "artifacts", len(res.Artifacts), "clients", s.broker.ClientCount())
	}
	return nil
}

func (s *Server) handler() http.Handler {
	router := httprouter.New()
	router.Handler(http.MethodGet, "/__reload", s.broker)
	// Everything else is an asset lookup; httprouter's catch-all would
	// conflict with the reload route, so the store is the NotFound
	// handler instead.
	router.NotFound = s.store
	return router
}

// Run serves until a shutdown signal arrives. The initial build must
// succeed; after that the server stays up through broken intermediate
// states of the source tree.
func (s *Server) Run() error {
	if err := s.rebuild(true); err != nil {
		return err
	}

	// Canceling connCtx tears down the long-lived reload streams so a
	// graceful shutdown is not held open by connected browsers.
	connCtx, cancelConns := context.WithCancel(context.Background())
	defer cancelConns()

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler(),
		ReadTimeout:       s.cfg.ReadTimeout.Duration,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout.Duration,
		// WriteTimeout would sever the long-lived reload stream, so it
		// stays unset and the read side bounds request handling.
		IdleTimeout: s.cfg.IdleTimeout.Duration,
		BaseContext: func(net.Listener) context.Context { return connCtx },
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	defer stop()

	watcher := NewWatcher(s.source, s.cfg.DebounceInterval.Duration, func() {
		_ = s.rebuild(false)
	}, s.logger)

	serverError := make(chan error, 1)
	go func() {
		s.logger.Info("dev server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverError <- err
		}
	}()

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go func() {
		if err := watcher.Run(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("watcher stopped", "error", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("received shutdown signal, shutting down gracefully")
	case err := <-serverError:
		s.logger.Error("server error, initiating shutdown", "error", err)
	}
	stop()
	cancelWatch()
	cancelConns()

	gracefulCtx, cancelShutdown := context.WithTimeout(context.Background(), s.cfg.ShutdownGracefulTimeout.Duration)
	defer cancelShutdown()

	shutdownGroup, _ := errgroup.WithContext(gracefulCtx)
	shutdownGroup.Go(func() error {
		return srv.Shutdown(gracefulCtx)
	})
	if err := shutdownGroup.Wait(); err != nil {
		s.logger.Error("graceful shutdown failed", "error", err)
		return err
	}

	s.logger.Info("dev server stopped")
	return nil
}
