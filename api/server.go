// Package api exposes the registrar over HTTP with JSON bodies.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"voting-registrar/encryption"
	"voting-registrar/service"
	"voting-registrar/storage"
)

const (
	// HeaderRegistrationOTT carries the admission token of a registration.
	HeaderRegistrationOTT = "X-Registration-OTT"
	HeaderRequestID       = "X-Request-ID"

	maxRegisterBody = 2 << 10
)

type Server struct {
	registrar *service.Registrar
	logger    zerolog.Logger
	mux       *http.ServeMux
}

type MakeTokenResponse struct {
	RegistrationOTT string `json:"registration_ott"`
}

func NewServer(registrar *service.Registrar, logger zerolog.Logger) *Server {
	s := &Server{
		registrar: registrar,
		logger:    logger.With().Str("component", "api").Logger(),
		mux:       http.NewServeMux(),
	}

	// Public
	s.mux.HandleFunc("GET /registrar-key", s.handleGetRegistrarKey)
	s.mux.HandleFunc("GET /ballots", s.handleListBallots)
	s.mux.HandleFunc("GET /ballots/{ballotNum}", s.handleGetBallot)
	s.mux.HandleFunc("PUT /register", s.handleRegister)

	// Admin
	s.mux.HandleFunc("POST /admin/make-one-token", s.handleMakeOneToken)
	s.mux.HandleFunc("GET /admin/metrics", s.handleGetMetrics)
	s.mux.HandleFunc("POST /admin/metrics/reset", s.handleResetMetrics)
	s.mux.HandleFunc("GET /admin/ledger", s.handleGetLedger)

	return s
}

// Handler returns the routes wrapped with request id tagging.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.mux)
}

// Start serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("starting server")
		serverChan <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		s.logger.Info().Msg("server shutdown completed")
		return nil
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(HeaderRequestID, id)

		logger := s.logger.With().Str("request_id", id).Logger()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context())))
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request served")
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeError maps registrar errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := zerolog.Ctx(r.Context())
	var fault *service.FaultError
	switch {
	case errors.Is(err, service.ErrNotAuthorized):
		http.Error(w, "Not authorized", http.StatusForbidden)
	case errors.Is(err, encryption.ErrUseMismatch),
		errors.Is(err, encryption.ErrAlgMismatch),
		errors.Is(err, encryption.ErrBadKeyLength),
		errors.Is(err, encryption.ErrMalformedKey),
		errors.Is(err, encryption.ErrMalformedPayload):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrUnavailable):
		logger.Warn().Err(err).Msg("store unavailable")
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
	case errors.As(err, &fault):
		http.Error(w, "Internal error", http.StatusInternalServerError)
	default:
		logger.Error().Err(err).Msg("request failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}

func (s *Server) handleGetRegistrarKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.registrar.RegistrarKey())
}

func (s *Server) handleListBallots(w http.ResponseWriter, r *http.Request) {
	nums, err := s.registrar.ListBallots(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, nums)
}

func (s *Server) handleGetBallot(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseUint(r.PathValue("ballotNum"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	load, found, err := s.registrar.GetBallot(r.Context(), n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !found {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, load)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get(HeaderRegistrationOTT)
	if token == "" {
		http.Error(w, "Missing registration token", http.StatusForbidden)
		return
	}

	var req service.RegistrationRequest
	body := http.MaxBytesReader(w, r.Body, maxRegisterBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reg, err := s.registrar.Register(r.Context(), token, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, reg.Signed)
}

func (s *Server) handleMakeOneToken(w http.ResponseWriter, r *http.Request) {
	tok, err := s.registrar.MakeRegistrationOTT(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, MakeTokenResponse{RegistrationOTT: tok.Token})
}

func (s *Server) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.registrar.Metrics())
}

func (s *Server) handleResetMetrics(w http.ResponseWriter, r *http.Request) {
	s.registrar.ResetMetrics()
	writeJSON(w, s.registrar.Metrics())
}

func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	status, ok := s.registrar.LedgerStatus()
	if !ok {
		http.Error(w, "Ledger status not available", http.StatusNotFound)
		return
	}
	writeJSON(w, status)
}
