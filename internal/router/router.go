package router

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hfiles/medical-records-api/internal/medicalfile"
	"github.com/hfiles/medical-records-api/internal/token"
	"github.com/hfiles/medical-records-api/internal/user"
)

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

// LoggingMiddleware returns a middleware that logs requests at debug level using the provided sugared logger.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			// ensure status is set
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
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
// It is intentionally simple and conservative so it works with most setups.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer-when-downgrade")
			w.Header().Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; object-src 'none'; base-uri 'self';")
			}
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
// Routes under /api/auth/profile* and /api/medicalfiles* require a bearer
// token; profileImageDir is served read-only so clients can load profile
// images by their recorded web path.
func RegisterRoutes(
	logger *zap.SugaredLogger,
	users *user.Handler,
	files *medicalfile.Handler,
	tokens *token.Service,
	profileImageDir string,
) http.Handler {
	mux := http.NewServeMux()
	auth := tokens.RequireAuth(logger)

	// health
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// auth routes
	mux.HandleFunc("POST /api/auth/register", users.Register)
	mux.HandleFunc("POST /api/auth/login", users.Login)
	mux.Handle("GET /api/auth/profile", auth(http.HandlerFunc(users.Profile)))
	mux.Handle("PUT /api/auth/profile", auth(http.HandlerFunc(users.UpdateProfile)))
	mux.Handle("POST /api/auth/profile-image", auth(http.HandlerFunc(users.UpdateProfileImage)))

	// medical file routes
	mux.Handle("POST /api/medicalfiles/upload", auth(http.HandlerFunc(files.Upload)))
	mux.Handle("GET /api/medicalfiles", auth(http.HandlerFunc(files.List)))
	mux.Handle("GET /api/medicalfiles/{id}", auth(http.HandlerFunc(files.GetByID)))
	mux.Handle("GET /api/medicalfiles/download/{id}", auth(http.HandlerFunc(files.Download)))
	mux.Handle("DELETE /api/medicalfiles/{id}", auth(http.HandlerFunc(files.Delete)))

	// profile images are public by recorded path; stored names are
	// unguessable ksuids
	if profileImageDir != "" {
		mux.Handle("GET /profile-images/", http.StripPrefix("/profile-images/", http.FileServer(http.Dir(profileImageDir))))
	}

	// wrap with security headers middleware then logging middleware
	handler := LoggingMiddleware(logger)(SecurityHeadersMiddleware()(mux))
	return handler
}
