package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/tomasen/realip"

	"github.com/exceltravels/duty-track/internal/ctxstore"
	"github.com/exceltravels/duty-track/internal/observability"
	"github.com/exceltravels/duty-track/internal/response"
)

const (
	_traceIDKey  = ctxstore.Key("traceId")
	_driverIDKey = ctxstore.Key("authDriverId")
)

func (app *application) traceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tid := genTraceID()
		ctx := ctxstore.With(r.Context(), _traceIDKey, tid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (app *application) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err != nil {
				app.serverError(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (app *application) logAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mw := response.NewMetricsResponseWriter(w)
		next.ServeHTTP(mw, r)

		var (
			ip     = realip.FromRequest(r)
			method = r.Method
			url    = r.URL.String()
			proto  = r.Proto
			tid    = ctxstore.MustFrom[string](r.Context(), _traceIDKey)
		)

		userAttrs := slog.Group("user", "ip", ip)
		requestAttrs := slog.Group("request", "method", method, "url", url, "proto", proto, _traceIDKey.String(), tid)
		responseAttrs := slog.Group("response", "status", mw.StatusCode, "size", mw.BytesCount)

		app.serverLogger().Info("access", userAttrs, requestAttrs, responseAttrs)
	})
}

func (app *application) metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		mw := response.NewMetricsResponseWriter(w)
		next.ServeHTTP(mw, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		status := strconv.Itoa(mw.StatusCode)

		observability.HTTPRequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
		observability.HTTPRequestDuration.WithLabelValues(r.Method, pattern, status).Observe(time.Since(start).Seconds())
	})
}

func (app *application) CORS(next http.Handler) http.Handler {
	for _, origin := range app.config.cors.allowedOrigins {
		if origin == "*" {
			return cors.AllowAll().Handler(next)
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: app.config.cors.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})

	return c.Handler(next)
}

// limitOTPRequests throttles OTP issuance per client IP. Without Redis
// configured the limiter is absent and requests pass through.
func (app *application) limitOTPRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if app.otpLimiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		allowed, err := app.otpLimiter.Allow(r.Context(), realip.FromRequest(r))
		if err != nil {
			app.serverError(w, r, err)
			return
		}

		if !allowed {
			message := fmt.Sprintf(
				"Too many OTP requests from this IP, please try again after %d minutes",
				int(app.otpLimiter.Window().Minutes()),
			)
			app.errorMessage(w, r, http.StatusTooManyRequests, message, nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (app *application) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		tok, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tok == "" {
			app.errorMessage(w, r, http.StatusUnauthorized, "Missing or malformed bearer token", nil)
			return
		}

		claims, err := app.tokens.Verify(tok)
		if err != nil {
			app.errorMessage(w, r, http.StatusUnauthorized, "Invalid or expired token", nil)
			return
		}

		ctx := ctxstore.With(r.Context(), _driverIDKey, claims.DriverID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func genTraceID() string {
	id, _ := uuid.NewRandom()
	return id.String()
}
