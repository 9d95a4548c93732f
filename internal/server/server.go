// Package server exposes a keymap store over a read-only HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/psantana5/keymap/internal/keymap"
	"github.com/psantana5/keymap/internal/metrics"
	"github.com/psantana5/keymap/pkg/logging"
	"github.com/psantana5/keymap/pkg/util"
)

// Server serves the contents of a Store
type Server struct {
	store   keymap.Store
	info    *util.Info
	logger  *logging.Logger
	metrics *metrics.Metrics
	limiter *Limiter
	router  *mux.Router
}

// New wires the routes. limiter may be nil to disable rate limiting.
func New(store keymap.Store, info *util.Info, logger *logging.Logger, m *metrics.Metrics, limiter *Limiter) *Server {
	s := &Server{
		store:   store,
		info:    info,
		logger:  logger,
		metrics: m,
		limiter: limiter,
		router:  mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.observe)
	if s.limiter != nil {
		s.router.Use(s.limiter.Middleware(ClientKey, s.metrics.ObserveRateLimited))
	}

	s.router.HandleFunc("/keys", s.listKeys).Methods(http.MethodGet)
	s.router.HandleFunc("/keys/{key:.+}", s.getKey).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts the
// listener down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", map[string]interface{}{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type listResponse struct {
	Pairs []keymap.Pair `json:"pairs"`
	Count int           `json:"count"`
}

type healthResponse struct {
	ExecName   string `json:"execname"`
	RunID      string `json:"run_id"`
	ExitStatus int    `json:"exit_status"`
	Date       string `json:"date"`
	Keys       int    `json:"keys"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) listKeys(w http.ResponseWriter, r *http.Request) {
	var (
		pairs []keymap.Pair
		err   error
	)
	if value, ok := r.URL.Query()["value"]; ok && len(value) > 0 {
		pairs, err = keymap.FindByValue(s.store, value[0])
	} else {
		pairs, err = s.store.All()
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Pairs: pairs, Count: len(pairs)})
}

func (s *Server) getKey(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	value, ok, err := s.store.Get(key)
	if err != nil {
		s.fail(w, err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: key + ": key not found"})
		return
	}
	writeJSON(w, http.StatusOK, keymap.Pair{Key: key, Value: value})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.Len()
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		ExecName:   s.info.ExecName(),
		RunID:      s.info.RunID(),
		ExitStatus: s.info.ExitStatus(),
		Date:       util.DateString(),
		Keys:       n,
	})
}

// fail logs store errors; they are not process failures, so Info is untouched.
func (s *Server) fail(w http.ResponseWriter, err error) {
	s.logger.Error("store error", map[string]interface{}{"error": err.Error()})
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// observe records every routed request in metrics and the debug log
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		s.metrics.ObserveRequest(r.Method, route, rec.status)
		s.logger.Debug("request", map[string]interface{}{
			"method":   r.Method,
			"route":    route,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		})
	})
}
