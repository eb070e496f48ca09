package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"barberbridge/internal/config"
	"barberbridge/internal/domain"
	"barberbridge/internal/metrics"
	"barberbridge/internal/monitoring"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

// Conversations is the router side used by the webhooks and the direct create endpoint.
type Conversations interface {
	domain.Router
	Deliver(ctx context.Context, phone, body string)
}

// Pinger reports store readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps groups the collaborators of the HTTP server. Inbound and Reporter are optional.
type Deps struct {
	Ledger        domain.Ledger
	Conversations Conversations
	Inbound       domain.RateLimiter
	Store         Pinger
	Reporter      *monitoring.Reporter
}

// HTTPServer exposes webhooks, the scheduling API and exports.
type HTTPServer struct {
	cfg    *config.Config
	deps   Deps
	server *http.Server
	auth   *HTTPAuth
	logger *zerolog.Logger
}

func NewHTTPServer(cfg *config.Config, deps Deps, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	srv := &HTTPServer{
		cfg:    cfg,
		deps:   deps,
		auth:   NewHTTPAuth(cfg.API),
		logger: logger,
	}
	deps.Reporter.FilterHeaders(srv.auth.apiKeyHeader, srv.auth.extraHeader)

	mux := http.NewServeMux()
	srv.routes(mux)

	handler := srv.loggingMiddleware(srv.recoverMiddleware(srv.auth.Wrap(mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	return srv
}

func (s *HTTPServer) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhook/bia", s.handleBIAWebhook)
	mux.HandleFunc("POST /webhook/messages", s.handleMessageWebhook)

	mux.HandleFunc("GET /api/services", s.handleServices)
	mux.HandleFunc("GET /api/slots/{date}/{service}", s.handleSlots)
	mux.HandleFunc("POST /api/appointments", s.handleCreateAppointment)
	mux.HandleFunc("GET /api/appointments", s.handleListAppointments)
	mux.HandleFunc("POST /api/appointments/{id}/cancel", s.handleCancelAppointment)
	mux.HandleFunc("POST /api/appointments/{id}/confirm", s.handleConfirmAppointment)
	mux.HandleFunc("GET /api/conversations/{phone}", s.handleConversation)
	mux.HandleFunc("GET /api/export/appointments.csv", s.handleExportCSV)
	mux.HandleFunc("GET /api/export/appointments.xlsx", s.handleExportXLSX)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	if dir := strings.TrimSpace(s.cfg.HTTP.StaticDir); dir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(dir)))
	}
}

// Handler returns the fully wrapped handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type ctxKey struct{}

// RequestID returns the request id stored by the logging middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, requestID))

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = "unmatched"
		}
		metrics.IncHTTP(endpoint, strconv.Itoa(recorder.status))

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

func (s *HTTPServer) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error().
					Str("request_id", RequestID(r.Context())).
					Str("path", r.URL.Path).
					Interface("panic", rec).
					Msg("panic in http handler")
				s.deps.Reporter.CapturePanic(rec, r)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// internalError logs and reports an unexpected failure and answers 500.
func (s *HTTPServer) internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	s.logger.Error().
		Err(err).
		Str("request_id", RequestID(r.Context())).
		Str("path", r.URL.Path).
		Msg(msg)
	s.deps.Reporter.CaptureRequestError(err, r)
	writeError(w, http.StatusInternalServerError, msg)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{"success": false, "error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
