package google

import (
	"context"
	"fmt"

	"github.com/authcore-api/internal/domain"
	"google.golang.org/api/idtoken"
)

// Verifier validates Google ID tokens against a specific client ID and maps
// the verified claims into the provider-agnostic OAuth profile shape. The
// redirect/token-exchange handshake happens on the client; this is the only
// server-side touchpoint with the provider.
type Verifier struct {
	clientID string
}

func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID}
}

// Verify validates the Google ID token and returns the asserted profile.
// Returns a domain.ErrUnauthorized-wrapped error if the token is invalid.
func (v *Verifier) Verify(ctx context.Context, token string) (*domain.OAuthProfile, error) {
	p, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google token: %w", domain.ErrUnauthorized)
	}
	email, _ := p.Claims["email"].(string)
	name, _ := p.Claims["name"].(string)
	picture, _ := p.Claims["picture"].(string)
	return &domain.OAuthProfile{
		Provider:  "google",
		SubjectID: p.Subject,
		Email:     email,
		Name:      name,
		AvatarURL: picture,
	}, nil
}
