package handler

import (
	"net/http"

	"github.com/authcore-api/internal/transport/http/middleware"
)

// SessionHandler echoes the claims the auth middleware already verified.
type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Introspect handles GET /v1/session.
func (h *SessionHandler) Introspect(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "no session")
		return
	}
	writeJSON(w, http.StatusOK, ClaimsEnvelope{Claims: claims})
}
