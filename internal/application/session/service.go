package session

import (
	"fmt"

	"github.com/authcore-api/internal/domain"
)

// TokenProvider signs session claims into a token and reads them back.
type TokenProvider interface {
	Sign(claims domain.SessionClaims) (string, error)
	Verify(token string) (domain.SessionClaims, error)
}

// Service assembles normalized session claims from either an OAuth profile
// or a reconciled user record, and moves them in and out of the signed
// session token. Assembly is a pure, total mapping: every source variant
// produces a complete claims value, and no verification secret or artifact
// metadata ever reaches the output.
type Service interface {
	FromOAuth(profile domain.OAuthProfile) domain.SessionClaims
	FromUser(u *domain.UserRecord, channel domain.Channel) domain.SessionClaims
	IssueToken(claims domain.SessionClaims) (string, error)
	Introspect(token string) (domain.SessionClaims, error)
}

type service struct {
	tokens TokenProvider
}

func NewService(tokens TokenProvider) Service {
	return &service{tokens: tokens}
}

// FromOAuth copies the provider-asserted profile as-is. The store is not
// consulted; OAuth-only sessions carry the provider's subject id until a
// caller chooses to reconcile them.
func (s *service) FromOAuth(profile domain.OAuthProfile) domain.SessionClaims {
	return domain.SessionClaims{
		SubjectID: profile.SubjectID,
		Provider:  profile.Provider,
		Email:     profile.Email,
		Name:      profile.Name,
	}
}

// FromUser binds the claims to the durable user record, tagged with the
// channel that authenticated this session.
func (s *service) FromUser(u *domain.UserRecord, channel domain.Channel) domain.SessionClaims {
	claims := domain.SessionClaims{
		SubjectID: u.UserID,
		Provider:  string(channel),
		Name:      u.Name,
	}
	if u.Email != nil {
		claims.Email = *u.Email
	}
	if u.Phone != nil {
		claims.Phone = *u.Phone
	}
	return claims
}

func (s *service) IssueToken(claims domain.SessionClaims) (string, error) {
	token, err := s.tokens.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

func (s *service) Introspect(token string) (domain.SessionClaims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return domain.SessionClaims{}, fmt.Errorf("invalid session token: %w", domain.ErrUnauthorized)
	}
	return claims, nil
}
