// Package api exposes the composition pipeline over HTTP.
//
// The server is intended for asset build farms: a POST /v1/compose runs
// the pipeline against paths visible to the server, and composed sheets
// stay addressable by name for later retrieval.
package api

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pixelmill/spritepack/pkg/errors"
	"github.com/pixelmill/spritepack/pkg/observability"
	"github.com/pixelmill/spritepack/pkg/pipeline"
	"github.com/pixelmill/spritepack/pkg/sheet"
)

// Server serves the composition API.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router

	mu     sync.RWMutex
	sheets map[string]*sheet.SpriteSheet
}

// NewServer creates a server around the given pipeline runner.
func NewServer(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		logger: logger,
		sheets: make(map[string]*sheet.SpriteSheet),
	}

	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/compose", s.handleCompose)
	r.Get("/v1/sheets/{name}", s.handleSheet)
	r.Get("/v1/sheets/{name}/descriptor", s.handleDescriptor)
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type ctxKey int

const requestIDKey ctxKey = 0

// requestID tags every request with a UUID, echoed in the response.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(withRequestID(r.Context(), id)))
	})
}

// logRequests logs each request with its duration and status, and feeds
// the HTTP observability hooks.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		observability.HTTP().OnRequest(r.Context(), r.Method, r.URL.Path)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.URL.Path, rec.status, duration)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"request_id", requestIDFrom(r.Context()),
			"duration", duration.Round(time.Millisecond))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// composeRequest is the POST /v1/compose body: pipeline options plus the
// name the composed sheet is stored under.
type composeRequest struct {
	Name string `json:"name"`
	pipeline.Options
}

// composeResponse summarizes a completed composition.
type composeResponse struct {
	Name       string `json:"name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Animations int    `json:"animations"`
	Frames     int    `json:"frames"`
	Cached     bool   `json:"cached"`
}

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	var req composeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body"))
		return
	}
	if req.Name == "" {
		writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "name is required"))
		return
	}
	if err := errors.ValidateAnimationName(req.Name); err != nil {
		writeError(w, r, err)
		return
	}

	req.Options.Logger = s.logger
	result, err := s.runner.Execute(r.Context(), req.Options)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.mu.Lock()
	s.sheets[req.Name] = result.Sheet
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, composeResponse{
		Name:       req.Name,
		Width:      result.Config.SheetWidth(),
		Height:     result.Config.SheetHeight(),
		Animations: result.Stats.Animations,
		Frames:     result.Stats.Frames,
		Cached:     result.CacheInfo.SheetHit,
	})
}

func (s *Server) handleSheet(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	composed, ok := s.sheets[chi.URLParam(r, "name")]
	s.mu.RUnlock()
	if !ok {
		writeError(w, r, errors.New(errors.ErrCodeNotFound, "sheet not found"))
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, composed.Canvas); err != nil {
		writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encode sheet"))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleDescriptor(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	composed, ok := s.sheets[chi.URLParam(r, "name")]
	s.mu.RUnlock()
	if !ok {
		writeError(w, r, errors.New(errors.ErrCodeNotFound, "sheet not found"))
		return
	}
	writeJSON(w, http.StatusOK, composed.Descriptor)
}
