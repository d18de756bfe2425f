package handler

import (
	"encoding/json"
	"net/http"

	"github.com/authcore-api/internal/application/flow"
	"github.com/authcore-api/internal/domain"
	"github.com/go-chi/chi/v5"
)

// invalidSecretMsg is the only detail verification failures expose: the
// caller learns nothing about whether an artifact exists or why it failed.
const invalidSecretMsg = "invalid or expired code or link"

// AuthorizeHandler handles the channel-agnostic authorization endpoint.
type AuthorizeHandler struct {
	svc flow.Service
}

func NewAuthorizeHandler(svc flow.Service) *AuthorizeHandler {
	return &AuthorizeHandler{svc: svc}
}

// Action handles POST /v1/auth/{channel} with body
// {action: "request"|"verify", identifier, secret?, callbackUrl?}.
func (h *AuthorizeHandler) Action(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action      string `json:"action"`
		Identifier  string `json:"identifier"`
		Secret      string `json:"secret"`
		CallbackURL string `json:"callbackUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.svc.Authorize(r.Context(), flow.AuthorizeRequest{
		Channel:     domain.Channel(chi.URLParam(r, "channel")),
		Action:      body.Action,
		Identifier:  body.Identifier,
		Secret:      body.Secret,
		CallbackURL: body.CallbackURL,
	})
	if err != nil {
		httpError(w, err)
		return
	}

	switch {
	case out.State == flow.StateAuthed:
		writeJSON(w, http.StatusOK, AuthEnvelope{
			State:  out.State,
			Result: out.Result,
			Token:  out.Token,
			Claims: out.Claims,
		})
	case out.Result != "":
		// Mismatch, Expired, NotFound: routine failures with a generic message.
		writeJSON(w, http.StatusBadRequest, AuthEnvelope{
			State:  out.State,
			Result: out.Result,
			Error:  invalidSecretMsg,
		})
	default:
		writeJSON(w, http.StatusOK, AuthEnvelope{
			State:   out.State,
			Message: "verification sent",
		})
	}
}
