package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/Leganyst/slotswapper/internal/lifecycle"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

var kindStatus = map[lifecycle.Kind]int{
	lifecycle.KindValidation:          http.StatusBadRequest,
	lifecycle.KindSelfSwap:            http.StatusBadRequest,
	lifecycle.KindNotOwner:            http.StatusForbidden,
	lifecycle.KindNotFound:            http.StatusNotFound,
	lifecycle.KindInvalidTransition:   http.StatusConflict,
	lifecycle.KindSlotNotAvailable:    http.StatusConflict,
	lifecycle.KindAlreadyResolved:     http.StatusConflict,
	lifecycle.KindConcurrencyConflict: http.StatusConflict,
}

// writeError отдаёт ошибку ядра как {kind, message}. Внутренние ошибки
// наружу не раскрываются.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := lifecycle.KindOf(err)
	status, ok := kindStatus[kind]
	msg := err.Error()
	if !ok {
		status = http.StatusInternalServerError
		msg = "internal error"
		s.deps.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorEnvelope{Error: errorBody{Kind: string(kind), Message: msg}})
}

func writeAuthError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: errorBody{
		Kind:    "AuthError",
		Message: err.Error(),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
