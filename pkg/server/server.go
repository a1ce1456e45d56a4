// Package server exposes the conversion pipeline over HTTP.
//
// Routes:
//
//	GET  /                      service banner
//	GET  /healthz               liveness and build version
//	POST /fabric/convert-to-pdf {"fabricJSON": {...}} -> "https://.../<id>.pdf"
//	GET  /artifacts/{id}        stored artifact (gridfs and local stores only)
//
// Errors are returned as {"error": <code>, "message": <text>}. Unknown
// routes answer 404 with the plain text "Resource not found".
//
// When Options.AuthSecret is set, the convert route requires an HS256
// bearer token signed with that secret.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/fabricpdf/pkg/buildinfo"
	"github.com/matzehuels/fabricpdf/pkg/errors"
	"github.com/matzehuels/fabricpdf/pkg/pipeline"
	"github.com/matzehuels/fabricpdf/pkg/store"
)

const (
	// DefaultMaxBodyBytes limits the size of a conversion request body.
	DefaultMaxBodyBytes = 10 << 20

	bannerMessage   = "FabricJS JSON to PDF Server"
	notFoundMessage = "Resource not found"
)

// Options configures a [Server].
type Options struct {
	// MaxBodyBytes limits request bodies. Zero selects DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// AuthSecret enables bearer-token auth on the convert route.
	AuthSecret string

	// CORSOrigins lists allowed origins. Empty allows all.
	CORSOrigins []string

	// Convert is passed to every conversion.
	Convert pipeline.Options

	Logger *log.Logger
}

// Server is the HTTP front end. It implements http.Handler.
type Server struct {
	runner *pipeline.Runner
	opener store.Opener
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New builds the router. opener may be nil, in which case /artifacts is
// not served.
func New(runner *pipeline.Runner, opener store.Opener, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	s := &Server{
		runner: runner,
		opener: opener,
		opts:   opts,
		logger: opts.Logger.WithPrefix("http"),
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer wraps s in an http.Server listening on addr.
func (s *Server) HTTPServer(addr string, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
	}
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(limitBody(s.opts.MaxBodyBytes))
		if s.opts.AuthSecret != "" {
			r.Use(requireToken([]byte(s.opts.AuthSecret)))
		}
		r.Post("/fabric/convert-to-pdf", s.handleConvert)
	})

	if s.opener != nil {
		r.Get("/artifacts/{id}", s.handleArtifact)
	}
	return r
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": bannerMessage})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	io.WriteString(w, notFoundMessage)
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	result, err := s.runner.ConvertRequest(r.Context(), r.Body, s.opts.Convert)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.URL)
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	obj, err := s.opener.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer obj.Close()

	h := w.Header()
	h.Set("Content-Type", obj.ContentType)
	h.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", obj.Name))
	if obj.Size > 0 {
		h.Set("Content-Length", fmt.Sprint(obj.Size))
	}
	if !obj.ModTime.IsZero() {
		h.Set("Last-Modified", obj.ModTime.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj); err != nil {
		s.logger.Warn("artifact stream interrupted", "id", obj.Name, "err", err)
	}
}

// =============================================================================
// Responses
// =============================================================================

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   errors.Code `json:"error"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error("failed to write JSON response", "err", err)
	}
}

// writeError maps err onto a status code. Causes are logged, never sent.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := errors.UserMessage(err)
	if code == errors.ErrCodeRequestTooLong {
		msg = fmt.Sprintf("request body exceeds %d bytes", s.opts.MaxBodyBytes)
	}

	logger := s.logger.With("request_id", middleware.GetReqID(r.Context()), "code", code)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

// classify returns the HTTP status and error code for err.
func classify(err error) (int, errors.Code) {
	if isBodyTooLarge(err) {
		return http.StatusRequestEntityTooLarge, errors.ErrCodeRequestTooLong
	}
	code := errors.GetCode(err)
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeRender:
		return http.StatusBadRequest, code
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized, code
	case errors.ErrCodeNotFound:
		return http.StatusNotFound, code
	case errors.ErrCodeFetch, errors.ErrCodeStore:
		return http.StatusBadGateway, code
	case "":
		return http.StatusInternalServerError, errors.ErrCodeInternal
	}
	return http.StatusInternalServerError, code
}
