// Package monitoring reports unexpected failures to Sentry.
package monitoring

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"barberbridge/internal/config"

	"github.com/getsentry/sentry-go"
)

// defaultSensitiveHeaders never leave the process. Compared lower-case.
var defaultSensitiveHeaders = []string{"authorization", "cookie", "set-cookie", "x-api-key", "x-api-extra"}

// Reporter wraps a Sentry hub. A Reporter without a hub drops everything.
type Reporter struct {
	hub       *sentry.Hub
	sensitive map[string]bool
}

// New builds a reporter from config; an empty DSN gives a no-op reporter.
func New(cfg config.SentryConfig, app config.AppConfig) (*Reporter, error) {
	if cfg.DSN == "" {
		return &Reporter{sensitive: newSensitiveSet()}, nil
	}
	return NewWithOptions(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      app.Environment,
		Release:          app.Name + "@" + app.Version,
		TracesSampleRate: cfg.TracesSampleRate,
	})
}

func NewWithOptions(opts sentry.ClientOptions) (*Reporter, error) {
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("sentry initialization failed: %w", err)
	}
	return &Reporter{hub: sentry.NewHub(client, sentry.NewScope()), sensitive: newSensitiveSet()}, nil
}

func newSensitiveSet() map[string]bool {
	set := make(map[string]bool, len(defaultSensitiveHeaders))
	for _, h := range defaultSensitiveHeaders {
		set[h] = true
	}
	return set
}

// FilterHeaders adds header names whose values are replaced before sending.
// Call it before the reporter is shared between goroutines.
func (r *Reporter) FilterHeaders(names ...string) {
	if r == nil {
		return
	}
	if r.sensitive == nil {
		r.sensitive = newSensitiveSet()
	}
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" {
			r.sensitive[n] = true
		}
	}
}

func (r *Reporter) Enabled() bool {
	return r != nil && r.hub != nil
}

// CaptureError sends err with extra context values.
func (r *Reporter) CaptureError(err error, extras map[string]interface{}) {
	if !r.Enabled() || err == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range extras {
			scope.SetExtra(k, v)
		}
		r.hub.CaptureException(err)
	})
}

// CaptureRequestError attaches method, route and filtered headers of req.
// The raw request is not attached: sentry's own header filter does not know the API key headers.
func (r *Reporter) CaptureRequestError(err error, req *http.Request) {
	if !r.Enabled() || err == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("http.method", req.Method)
		scope.SetTag("http.route", req.URL.Path)
		scope.SetContext("Request", map[string]interface{}{
			"Method":  req.Method,
			"Path":    req.URL.Path,
			"Headers": r.safeHeaders(req.Header),
		})
		r.hub.CaptureException(err)
	})
}

// CapturePanic reports a recovered panic value.
func (r *Reporter) CapturePanic(recovered interface{}, req *http.Request) {
	if !r.Enabled() {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		if req != nil {
			scope.SetTag("http.route", req.URL.Path)
		}
		scope.SetLevel(sentry.LevelFatal)
		r.hub.Recover(recovered)
	})
}

// Flush waits for buffered events to be sent.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if !r.Enabled() {
		return true
	}
	return r.hub.Flush(timeout)
}

func (r *Reporter) safeHeaders(h http.Header) map[string]interface{} {
	sensitive := r.sensitive
	if sensitive == nil {
		sensitive = newSensitiveSet()
	}
	safe := make(map[string]interface{}, len(h))
	for k, v := range h {
		if sensitive[strings.ToLower(k)] {
			safe[k] = "[FILTERED]"
		} else {
			safe[k] = v
		}
	}
	return safe
}
