// Package server exposes the broker's HTTP surface: the backend callback
// endpoint that drives job state transitions, a read API over persisted
// jobs, and a websocket feed of job updates.
package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/meridianhq/meridian/job"
	"github.com/meridianhq/meridian/storage"
)

// Options tunes server behavior
type Options struct {
	// CallbackRatePerSecond and CallbackBurst bound inbound callbacks per
	// remote address. Zero values disable rate limiting.
	CallbackRatePerSecond float64
	CallbackBurst         int
}

// Server handles inbound backend callbacks and job reads
type Server struct {
	store   *job.Store
	objects storage.ObjectStore
	logger  *zap.SugaredLogger

	// locks serializes callback handling per request id; the transaction
	// alone does not isolate the read-modify-write
	locks job.Locks

	limiters *remoteLimiters

	upgrader  websocket.Upgrader
	clientsMu sync.RWMutex
	clients   map[*wsClient]bool

	httpServer *http.Server
}

// NewServer creates a broker server over the given job store and object
// staging store.
func NewServer(store *job.Store, objects storage.ObjectStore, logger *zap.SugaredLogger, opts Options) *Server {
	s := &Server{
		store:   store,
		objects: objects,
		logger:  logger,
		clients: make(map[*wsClient]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if opts.CallbackRatePerSecond > 0 {
		s.limiters = newRemoteLimiters(opts.CallbackRatePerSecond, opts.CallbackBurst)
	}
	return s
}

// Handler returns the server's route table
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/callback/", s.HandleCallback)
	mux.HandleFunc("/api/jobs", s.HandleJobs)
	mux.HandleFunc("/api/jobs/", s.HandleJob)
	return mux
}

// Start runs the HTTP server until the context is canceled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	s.logger.Infow("Broker server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
