package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/authcore-api/internal/application/flow"
	"github.com/authcore-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ProfileVerifier validates a provider-issued credential and returns the
// asserted profile. One implementation per enabled OAuth provider.
type ProfileVerifier interface {
	Verify(ctx context.Context, token string) (*domain.OAuthProfile, error)
}

// OAuthHandler handles the OAuth callback endpoint. The provider handshake
// happens client-side; the server only sees the resulting ID token.
type OAuthHandler struct {
	svc       flow.Service
	verifiers map[string]ProfileVerifier
}

func NewOAuthHandler(svc flow.Service, verifiers map[string]ProfileVerifier) *OAuthHandler {
	return &OAuthHandler{svc: svc, verifiers: verifiers}
}

// Callback handles POST /v1/auth/oauth/{provider} with body {idToken}.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	verifier, ok := h.verifiers[provider]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown or disabled provider")
		return
	}

	var body struct {
		IDToken string `json:"idToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.IDToken == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := verifier.Verify(r.Context(), body.IDToken)
	if err != nil {
		httpError(w, err)
		return
	}

	out, err := h.svc.OAuthCallback(r.Context(), *profile)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{
		State:  out.State,
		Token:  out.Token,
		Claims: out.Claims,
	})
}
