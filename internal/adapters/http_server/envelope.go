package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"kos_service/internal/domain"
)

// envelope is the body of every JSON response, success or failure.
type envelope struct {
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	env := envelope{Status: status, Message: message, Data: data, Timestamp: time.Now().UnixMilli()}
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeError maps the error taxonomy onto HTTP. Causes are logged, never echoed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr.Message, nil)
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, "Kos not found", nil)
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, "You are not allowed to modify this Kos", nil)
	case errors.Is(err, domain.ErrUnauthenticated):
		writeJSON(w, http.StatusUnauthorized, "Authentication required", nil)
	case errors.Is(err, domain.ErrInvalidOwner):
		writeJSON(w, http.StatusBadRequest, "Owner is not valid", nil)
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("upstream unavailable")
		writeJSON(w, http.StatusBadGateway, "Owner service is unavailable", nil)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, "internal server error", nil)
	}
}
