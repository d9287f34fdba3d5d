package web

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/emiliopalmerini/effortmap/internal/apperrors"
	"github.com/emiliopalmerini/effortmap/internal/user"
)

// authedHandler receives the resolved account alongside the request.
type authedHandler func(w http.ResponseWriter, r *http.Request, u *user.User)

// requireUser resolves the bearer token against the users table. Chart and
// share endpoints stay public; everything mutating goes through here.
func (s *Server) requireUser(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			apperrors.Write(w, apperrors.ErrUnauthorized)
			return
		}

		u, err := s.users.GetByAPIToken(r.Context(), token)
		if err != nil {
			apperrors.Write(w, apperrors.ErrUnauthorized)
			return
		}

		next(w, r, u)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestObserver(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.metrics.HTTPRequests.Add(r.Context(), 1, metric.WithAttributes(
			attribute.String("method", r.Method),
			attribute.Int("status", rec.status),
		))
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}
