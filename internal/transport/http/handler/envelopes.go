package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/authcore-api/internal/application/flow"
	"github.com/authcore-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AuthEnvelope wraps authorize and OAuth callback responses.
type AuthEnvelope struct {
	State   flow.State            `json:"state,omitempty"`
	Result  domain.ConsumeResult  `json:"result,omitempty"`
	Token   string                `json:"token,omitempty"`
	Claims  *domain.SessionClaims `json:"claims,omitempty"`
	Message string                `json:"message,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// ClaimsEnvelope wraps session introspection responses.
type ClaimsEnvelope struct {
	Claims domain.SessionClaims `json:"claims"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinel errors to HTTP responses. Internal detail
// (store errors, wrapped messages) never reaches the client.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, "a code was recently sent, wait before requesting another")
	case errors.Is(err, domain.ErrDeliveryFailed):
		writeError(w, http.StatusBadGateway, "failed to send, try again")
	default:
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable, try again")
	}
}
