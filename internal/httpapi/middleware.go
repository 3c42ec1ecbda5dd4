package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/Leganyst/slotswapper/internal/auth"
	"github.com/Leganyst/slotswapper/internal/lifecycle"
)

type handlerWithIdentity func(w http.ResponseWriter, r *http.Request, id auth.Identity)

// authed пропускает запрос к ядру только с валидным Bearer-токеном.
func (s *Server) authed(next handlerWithIdentity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeAuthError(w, err)
			return
		}
		id, err := s.deps.Auth.Authenticate(r.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrUnauthenticated) && !errors.Is(err, auth.ErrUserInactive) {
				s.deps.Logger.Error("authenticate", "error", err)
			}
			writeAuthError(w, err)
			return
		}
		if rec, ok := w.(*statusRecorder); ok {
			rec.userID = id.UserID.String()
		}
		ctx := auth.WithIdentity(r.Context(), id)
		next(w, r.WithContext(ctx), id)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	userID string
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.deps.Logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(started),
			"user_id", rec.userID,
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.deps.Logger.Error("panic in handler", "path", r.URL.Path, "panic", v)
				writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: errorBody{
					Kind:    string(lifecycle.KindInternal),
					Message: "internal error",
				}})
			}
		}()
		next.ServeHTTP(w, r)
	})
}
