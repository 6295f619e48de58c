package api

import (
	"net/http"
	"os"
	"runtime/debug"
	"slices"
	"time"

	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/masterchelly/microsites/auth"
	"github.com/masterchelly/microsites/errs"
)

type adminMiddleware struct {
	responder Responder
	logger    zerolog.Logger
	verifier  TokenVerifier
	provider  AuthProvider
	gate      AdminGate
	cookies   auth.Cookies
	loginURL  string
}

func newAdminMiddleware(verifier TokenVerifier, provider AuthProvider, gate AdminGate, cookies auth.Cookies, loginURL string) adminMiddleware {
	logger := log.With().Str("handlerName", "adminMiddleware").Logger()
	return adminMiddleware{
		responder: NewResponder(logger),
		logger:    logger,
		verifier:  verifier,
		provider:  provider,
		gate:      gate,
		cookies:   cookies,
		loginURL:  loginURL,
	}
}

// requireAdmin lets the request through only for a signed-in admin. Browsers
// without a session are sent to the login page; API clients get a 401.
func (m adminMiddleware) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.authenticate(w, r)
		if err != nil {
			if wantsHTML(r) {
				m.responder.WriteRedirect(w, r, m.loginURL)
				return
			}
			m.responder.WriteError(w, err)
			return
		}

		if err := m.gate.Require(r.Context(), user); err != nil {
			m.logger.Warn().Str("user", user.ID.String()).Msg("non-admin request to admin route")
			m.responder.WriteError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctxWithUser(r.Context(), user)))
	})
}

// authenticate verifies the access token, refreshing the session once when
// the token is expired or absent and a refresh token is present.
func (m adminMiddleware) authenticate(w http.ResponseWriter, r *http.Request) (auth.User, error) {
	access, refresh := auth.Tokens(r)
	user, err := m.verifier.Verify(access)
	if err == nil {
		return user, nil
	}
	if refresh == "" || !(errs.IsExpiredTokenError(err) || errs.IsMissingTokenError(err)) {
		return auth.User{}, err
	}

	session, refreshErr := m.provider.Refresh(r.Context(), refresh)
	if refreshErr != nil {
		m.logger.Debug().Err(refreshErr).Msg("session refresh failed")
		m.cookies.Clear(w)
		return auth.User{}, err
	}

	user, err = m.verifier.Verify(session.AccessToken)
	if err != nil {
		return auth.User{}, err
	}
	m.cookies.Set(w, session)
	return user, nil
}

type statusResponseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.status = statusCode
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(statusCode)
	}
}

func (w *statusResponseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func LogInternalServerErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", err).
					Str("stack", string(debug.Stack())).
					Msg("Recovered from panic")

				if !srw.wroteHeader {
					srw.WriteHeader(http.StatusInternalServerError)
				}
			}
		}()

		next.ServeHTTP(srw, r)

		if srw.status == http.StatusInternalServerError {
			log.Error().
				Str("method", r.Method).
				Str("host", r.Host).
				Str("path", r.URL.Path).
				Msg("500 error response")
		}
	})
}

// CORSCheckMiddleware rejects preflight requests from origins that are not
// allowed with a JSON error instead of a bare response without headers.
func CORSCheckMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed := slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			if !allowed && r.Method == http.MethodOptions {
				responder := NewResponder(log.Logger)
				responder.WriteError(w, errs.NewCORSError(origin))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// ColoredHTTPLoggingMiddleware logs HTTP requests with colored output based on status codes
func ColoredHTTPLoggingMiddleware(next http.Handler) http.Handler {
	colorLogger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, status: 200}

		next.ServeHTTP(srw, r)

		var logEvent *zerolog.Event
		switch {
		case srw.status >= 500:
			logEvent = colorLogger.Error()
		case srw.status >= 400:
			logEvent = colorLogger.Warn()
		default:
			logEvent = colorLogger.Info()
		}

		logEvent.
			Str("method", r.Method).
			Str("host", r.Host).
			Str("path", r.URL.Path).
			Int("status", srw.status).
			Dur("duration", time.Since(start)).
			Str("remote_addr", r.RemoteAddr).
			Msg("HTTP Request")
	})
}
