package handler

import (
	"net/http"
	"net/url"

	"github.com/authcore-api/internal/application/flow"
	"github.com/authcore-api/internal/domain"
)

// VerifyEmailHandler is the magic-link landing endpoint. The emailed URL
// points here; a valid token redirects the browser to the callback URL with
// the session token attached, anything else lands on the error page.
type VerifyEmailHandler struct {
	svc flow.Service
}

func NewVerifyEmailHandler(svc flow.Service) *VerifyEmailHandler {
	return &VerifyEmailHandler{svc: svc}
}

// Verify handles GET /verify-email?token=&email=&callbackUrl=.
func (h *VerifyEmailHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := q.Get("token")
	email := q.Get("email")
	callbackURL := q.Get("callbackUrl")
	if callbackURL == "" {
		callbackURL = "/"
	}
	if token == "" || email == "" {
		redirectError(w, r, "MissingParameters")
		return
	}

	out, err := h.svc.Authorize(r.Context(), flow.AuthorizeRequest{
		Channel:    domain.ChannelEmailLink,
		Action:     "verify",
		Identifier: email,
		Secret:     token,
	})
	if err != nil || out.State != flow.StateAuthed {
		redirectError(w, r, "Verification")
		return
	}

	target, err := url.Parse(callbackURL)
	if err != nil {
		redirectError(w, r, "Verification")
		return
	}
	tq := target.Query()
	tq.Set("token", out.Token)
	target.RawQuery = tq.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

func redirectError(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/auth/error?error="+url.QueryEscape(code), http.StatusFound)
}
