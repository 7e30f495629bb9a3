// Package router mounts the gateway endpoints and their middleware.
package router

import (
	_ "embed"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"go.uber.org/zap"

	"github.com/ys4e/pancake/internal/account"
	"github.com/ys4e/pancake/internal/combo"
	"github.com/ys4e/pancake/internal/shield"
	"github.com/ys4e/pancake/pkg/utilities"
)

// RequestIDHeader carries the per-request KSUID.
const RequestIDHeader = "X-Request-Id"

// Regions under which the shield and combo routes are mounted.
var Regions = []string{"/hk4e_global", "/hk4e_cn"}

//go:embed resources/favicon.ico
var favicon []byte

type Config struct {
	// RateLimit is the allowed requests per second per client address on
	// authentication routes. Zero disables limiting.
	RateLimit float64
}

// ConfigFromEnv reads RATE_LIMIT_RPS, defaulting to 5.
func ConfigFromEnv() Config {
	cfg := Config{RateLimit: 5}
	if v, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64); err == nil && v >= 0 {
		cfg.RateLimit = v
	}
	return cfg
}

// Handlers groups the endpoint handlers the router mounts. Nil handlers
// are not mounted.
type Handlers struct {
	Shield  *shield.Handler
	Combo   *combo.Handler
	Account *account.Handler
	Metrics http.Handler
}

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// LoggingMiddleware tags each request with a KSUID request id and logs it
// at debug level once served. An incoming X-Request-Id is kept.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := r.Header.Get(RequestIDHeader)
			if reqID == "" {
				reqID = utilities.NewKSUID()
			}
			w.Header().Set(RequestIDHeader, reqID)

			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			// ensure status is set
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware returns a middleware that sets common HTTP security headers.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Clickjacking protection
			w.Header().Set("X-Frame-Options", "DENY")

			w.Header().Set("Referrer-Policy", "no-referrer")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")

			// the registration page posts to itself only
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self'; form-action 'self';")
			}

			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware limits each client address to rps requests per
// second, resolving the address in the same order as the guard.
func RateLimitMiddleware(rps float64) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	lmt := tollbooth.NewLimiter(rps, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetIPLookups([]string{"CF-Connecting-IP", "X-Real-IP", "RemoteAddr"})
	lmt.SetMessageContentType("application/json")
	lmt.SetMessage(`{"retcode":-1,"message":"Too many requests.","data":null}`)
	return func(next http.Handler) http.Handler {
		return tollbooth.LimitHandler(lmt, next)
	}
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, cfg Config, h Handlers) http.Handler {
	mux := http.NewServeMux()
	limit := RateLimitMiddleware(cfg.RateLimit)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/x-icon")
		_, _ = w.Write(favicon)
	})
	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	for _, region := range Regions {
		if h.Shield != nil {
			mux.Handle("POST "+region+"/mdk/shield/api/login", limit(http.HandlerFunc(h.Shield.Login)))
			mux.Handle("POST "+region+"/mdk/shield/api/verify", limit(http.HandlerFunc(h.Shield.Verify)))
		}
		if h.Combo != nil {
			mux.Handle("POST "+region+"/combo/granter/login/v2/login", limit(http.HandlerFunc(h.Combo.Login)))
			mux.HandleFunc("GET "+region+"/combo/granter/jwks.json", h.Combo.JWKS)
		}
	}

	if h.Account != nil {
		mux.HandleFunc("GET /account/register", h.Account.Page)
		mux.Handle("POST /account/register", limit(http.HandlerFunc(h.Account.Register)))
	}

	// wrap with security headers middleware then logging middleware
	return LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux))
}
