// Package server provides the HTTP challenge endpoint for serve mode.
//
// The API is compatible with the lego "httpreq" provider in default mode:
// POST /present and POST /cleanup accept a JSON body with the challenge
// FQDN and TXT value, and any 2xx response means success. /health and
// /metrics are exposed for monitoring.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.bluewillows.net/root/txtweaver/internal/metrics"
)

// Updater performs the dynamic updates behind the challenge endpoints.
type Updater interface {
	AddTXTRecord(ctx context.Context, name, content string, ttl uint32) error
	DeleteTXTRecord(ctx context.Context, name, content string) error
}

// ChallengeRequest is the lego httpreq request body.
type ChallengeRequest struct {
	FQDN  string `json:"fqdn"`
	Value string `json:"value"`
}

// errorResponse is returned on failures so callers get a reason.
type errorResponse struct {
	Error string `json:"error"`
}

// Server handles challenge requests over HTTP.
type Server struct {
	addr    string
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	updater Updater
	ttl     uint32
	timeout time.Duration
}

// Option is a functional option for configuring the Server.
type Option func(*Server)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTTL sets the TTL applied to challenge TXT records.
func WithTTL(ttl uint32) Option {
	return func(s *Server) {
		s.ttl = ttl
	}
}

// WithTimeout bounds the time spent on a single challenge request.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Server) {
		s.timeout = timeout
	}
}

// New creates a challenge server bound to addr, performing updates
// through the given updater.
func New(addr string, updater Updater, opts ...Option) *Server {
	s := &Server{
		addr:    addr,
		mux:     http.NewServeMux(),
		logger:  slog.Default(),
		updater: updater,
		ttl:     120,
		timeout: 60 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/present", s.handlePresent)
	s.mux.HandleFunc("/cleanup", s.handleCleanup)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func (s *Server) handlePresent(w http.ResponseWriter, r *http.Request) {
	s.handleChallenge(w, r, "/present", "add", func(ctx context.Context, req *ChallengeRequest) error {
		return s.updater.AddTXTRecord(ctx, req.FQDN, req.Value, s.ttl)
	})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	s.handleChallenge(w, r, "/cleanup", "delete", func(ctx context.Context, req *ChallengeRequest) error {
		return s.updater.DeleteTXTRecord(ctx, req.FQDN, req.Value)
	})
}

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request, endpoint, operation string, do func(context.Context, *ChallengeRequest) error) {
	if r.Method != http.MethodPost {
		s.writeError(w, endpoint, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}

	req, err := decodeChallenge(r)
	if err != nil {
		s.writeError(w, endpoint, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	start := time.Now()
	err = do(ctx, req)
	metrics.RecordOperation(operation, time.Since(start).Seconds(), err)

	if err != nil {
		s.logger.Error("challenge request failed",
			slog.String("endpoint", endpoint),
			slog.String("fqdn", req.FQDN),
			slog.String("error", err.Error()),
		)
		s.writeError(w, endpoint, http.StatusInternalServerError, err)
		return
	}

	s.logger.Info("challenge request handled",
		slog.String("endpoint", endpoint),
		slog.String("fqdn", req.FQDN),
		slog.Duration("duration", time.Since(start)),
	)

	metrics.HTTPRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(http.StatusOK)).Inc()
	w.WriteHeader(http.StatusOK)
}

func decodeChallenge(r *http.Request) (*ChallengeRequest, error) {
	defer r.Body.Close()

	var req ChallengeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("decoding request body: %w", err)
	}

	if req.FQDN == "" {
		return nil, errors.New("missing fqdn")
	}
	if req.Value == "" {
		return nil, errors.New("missing value")
	}

	return &req, nil
}

func (s *Server) writeError(w http.ResponseWriter, endpoint string, code int, err error) {
	metrics.HTTPRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

// Start starts the challenge server in a goroutine.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		s.logger.Info("challenge server starting", slog.String("addr", s.addr))
		if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Error("challenge server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the challenge server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
