package flow

import (
	"context"
	"fmt"

	"github.com/authcore-api/internal/application/identity"
	"github.com/authcore-api/internal/application/session"
	"github.com/authcore-api/internal/application/verification"
	"github.com/authcore-api/internal/config"
	"github.com/authcore-api/internal/domain"
	"github.com/authcore-api/internal/pkg/validate"
)

// State is where an identifier+channel flow stands after an authorize call.
type State string

const (
	StateIdle     State = "idle"
	StateAwaiting State = "awaiting_verification"
	StateAuthed   State = "authenticated"
)

// AuthorizeRequest is the channel-agnostic inbound authorization request.
type AuthorizeRequest struct {
	Channel     domain.Channel `json:"channel" validate:"required"`
	Action      string         `json:"action" validate:"required,oneof=request verify"`
	Identifier  string         `json:"identifier" validate:"required"`
	Secret      string         `json:"secret"`
	CallbackURL string         `json:"callbackUrl"`
}

// Outcome is the result of an authorize step. Claims and Token are set only
// when State is StateAuthed.
type Outcome struct {
	State  State                 `json:"state"`
	Result domain.ConsumeResult  `json:"result,omitempty"`
	Claims *domain.SessionClaims `json:"claims,omitempty"`
	Token  string                `json:"token,omitempty"`
}

// Service is the state machine dispatching inbound authorization requests to
// the issuer, consumer, reconciler, and claims assembler. OAuth callbacks go
// straight to the assembler.
type Service interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*Outcome, error)
	OAuthCallback(ctx context.Context, profile domain.OAuthProfile) (*Outcome, error)
}

type service struct {
	verifier verification.Service
	users    identity.Service
	sessions session.Service
	channels config.ChannelConfig
}

func NewService(verifier verification.Service, users identity.Service, sessions session.Service, channels config.ChannelConfig) Service {
	return &service{verifier: verifier, users: users, sessions: sessions, channels: channels}
}

func (s *service) Authorize(ctx context.Context, req AuthorizeRequest) (*Outcome, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	if err := s.channelEnabled(req.Channel); err != nil {
		return nil, err
	}

	switch req.Action {
	case "request":
		return s.request(ctx, req)
	default:
		return s.verify(ctx, req)
	}
}

// request: Idle -> AwaitingVerification. A delivery failure leaves the flow
// in Idle from the caller's view, but the artifact persists until TTL expiry,
// so a retried request within the cooldown reports a conflict.
func (s *service) request(ctx context.Context, req AuthorizeRequest) (*Outcome, error) {
	if _, err := s.verifier.Issue(ctx, req.Identifier, req.Channel, req.CallbackURL); err != nil {
		return nil, err
	}
	return &Outcome{State: StateAwaiting}, nil
}

// verify walks the terminal edges of the state machine. A bare verify with no
// live artifact lands on NotFound, the same as an exhausted or replaced one.
func (s *service) verify(ctx context.Context, req AuthorizeRequest) (*Outcome, error) {
	if req.Secret == "" {
		return nil, fmt.Errorf("secret required for verify: %w", domain.ErrBadRequest)
	}

	result, err := s.verifier.Consume(ctx, req.Identifier, req.Channel, req.Secret)
	if err != nil {
		return nil, err
	}

	switch result {
	case domain.ConsumeValid:
		return s.authenticate(ctx, req)
	case domain.ConsumeMismatch:
		return &Outcome{State: StateAwaiting, Result: result}, nil
	default: // Expired, NotFound
		return &Outcome{State: StateIdle, Result: result}, nil
	}
}

func (s *service) authenticate(ctx context.Context, req AuthorizeRequest) (*Outcome, error) {
	var email, phone *string
	if req.Channel.UsesEmail() {
		email = &req.Identifier
	} else {
		phone = &req.Identifier
	}

	user, err := s.users.Reconcile(ctx, email, phone)
	if err != nil {
		return nil, err
	}

	claims := s.sessions.FromUser(user, req.Channel)
	token, err := s.sessions.IssueToken(claims)
	if err != nil {
		return nil, err
	}
	return &Outcome{State: StateAuthed, Result: domain.ConsumeValid, Claims: &claims, Token: token}, nil
}

// OAuthCallback bypasses the issuer and consumer entirely:
// Idle -> Authenticated in one step.
func (s *service) OAuthCallback(ctx context.Context, profile domain.OAuthProfile) (*Outcome, error) {
	if !s.channels.OAuthEnabled(profile.Provider) {
		return nil, fmt.Errorf("oauth provider %q not enabled: %w", profile.Provider, domain.ErrBadRequest)
	}

	claims := s.sessions.FromOAuth(profile)
	token, err := s.sessions.IssueToken(claims)
	if err != nil {
		return nil, err
	}
	return &Outcome{State: StateAuthed, Claims: &claims, Token: token}, nil
}

func (s *service) channelEnabled(ch domain.Channel) error {
	enabled := false
	switch ch {
	case domain.ChannelEmailLink:
		enabled = s.channels.EnableEmailLink
	case domain.ChannelEmailCode:
		enabled = s.channels.EnableEmailCode
	case domain.ChannelPhone:
		enabled = s.channels.EnablePhone
	}
	if !enabled {
		return fmt.Errorf("channel %q not enabled: %w", ch, domain.ErrBadRequest)
	}
	return nil
}
