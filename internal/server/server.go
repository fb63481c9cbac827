// Package server exposes report generation, tools, personalization and
// speech over HTTP for the web frontend.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/chris/briefing/internal/logging"
	"github.com/chris/briefing/internal/reports"
	"github.com/chris/briefing/internal/speech"
	"github.com/chris/briefing/internal/tools"
	"github.com/rs/zerolog"
)

type Generator interface {
	Generate(ctx context.Context) (*reports.Report, error)
}

type Speaker interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
	Transcribe(ctx context.Context, audio []byte, filename string) (*speech.Transcript, error)
}

type Options struct {
	Addr                string
	CORSOrigin          string
	PersonalizationPath string
}

type Server struct {
	opts      Options
	generator Generator
	reports   *reports.Store
	tools     *tools.Registry
	speaker   Speaker
	log       zerolog.Logger
}

func New(opts Options, generator Generator, store *reports.Store, registry *tools.Registry, speaker Speaker) *Server {
	return &Server{
		opts:      opts,
		generator: generator,
		reports:   store,
		tools:     registry,
		speaker:   speaker,
		log:       logging.For("server"),
	}
}

// Handler returns the routed handler with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /generate-report", s.handleGenerate)
	mux.HandleFunc("GET /latest-report", s.handleLatest)
	mux.HandleFunc("GET /reports", s.handleListReports)
	mux.HandleFunc("GET /reports/{name}", s.handleGetReport)
	mux.HandleFunc("GET /tools", s.handleListTools)
	mux.HandleFunc("POST /tools/{name}", s.handleInvokeTool)
	mux.HandleFunc("GET /personalization", s.handleGetPersonalization)
	mux.HandleFunc("POST /personalization", s.handleSavePersonalization)
	mux.HandleFunc("POST /text-to-speech", s.handleTextToSpeech)
	mux.HandleFunc("POST /tts/report", s.handleReportAudio)
	mux.HandleFunc("POST /transcribe-latest", s.handleTranscribeLatest)
	mux.HandleFunc("GET /voices", s.handleVoices)
	return s.logRequests(cors(s.opts.CORSOrigin, mux))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.opts.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("shutting down http server")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func cors(origin string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin != "" && r.Header.Get("Origin") == origin {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).
			Int("status", rec.status).Dur("took", time.Since(start)).Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, dst)
}
