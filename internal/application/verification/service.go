package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/authcore-api/internal/config"
	"github.com/authcore-api/internal/domain"
	"github.com/authcore-api/internal/infrastructure/smtp"
	"github.com/authcore-api/internal/infrastructure/sns"
	"github.com/authcore-api/internal/infrastructure/throttle"
	"github.com/authcore-api/internal/pkg/identifier"
	"github.com/authcore-api/internal/pkg/secret"
)

// ArtifactStore is the persistence the issuer and consumer require. The
// DeleteMatching primitive must be atomic with respect to concurrent callers
// of the same (identifier, channel) key.
type ArtifactStore interface {
	Upsert(ctx context.Context, a *domain.VerificationArtifact) error
	Get(ctx context.Context, identifier string, channel domain.Channel) (*domain.VerificationArtifact, error)
	DeleteMatching(ctx context.Context, identifier string, channel domain.Channel, secret string) error
}

// Service issues and consumes single-use verification artifacts.
type Service interface {
	// Issue generates a secret for the pair, persists it (replacing any prior
	// live artifact), and hands it to the channel's transport. A delivery
	// failure surfaces as domain.ErrDeliveryFailed; the artifact is already
	// persisted and stays consumable until its TTL.
	Issue(ctx context.Context, rawIdentifier string, channel domain.Channel, callbackURL string) (*domain.VerificationArtifact, error)

	// Consume validates a presented secret against the stored artifact and
	// deletes it on success. The four outcomes are routine results; the error
	// is non-nil only for infrastructure failure.
	Consume(ctx context.Context, rawIdentifier string, channel domain.Channel, presented string) (domain.ConsumeResult, error)
}

// Deps holds the service's collaborators.
type Deps struct {
	Artifacts ArtifactStore
	Mailer    smtp.Mailer
	SMSSender sns.SMSSender
	Limiter   *throttle.Limiter
	TTL       config.TTLConfig
	BaseURL   string
}

type service struct {
	artifacts ArtifactStore
	mailer    smtp.Mailer
	smsSender sns.SMSSender
	limiter   *throttle.Limiter
	ttl       config.TTLConfig
	baseURL   string
}

func NewService(deps Deps) Service {
	return &service{
		artifacts: deps.Artifacts,
		mailer:    deps.Mailer,
		smsSender: deps.SMSSender,
		limiter:   deps.Limiter,
		ttl:       deps.TTL,
		baseURL:   deps.BaseURL,
	}
}

func (s *service) Issue(ctx context.Context, rawIdentifier string, channel domain.Channel, callbackURL string) (*domain.VerificationArtifact, error) {
	if !channel.Known() {
		return nil, fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	ident, err := identifier.Normalize(rawIdentifier, channel)
	if err != nil {
		return nil, err
	}

	if !s.limiter.AllowRequest(ctx, ident, string(channel)) {
		return nil, fmt.Errorf("a code was recently sent, wait before requesting another: %w", domain.ErrConflict)
	}

	sec, ttl, err := s.generate(channel)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	artifact := &domain.VerificationArtifact{
		Identifier: ident,
		Channel:    channel,
		Secret:     sec,
		ExpiresAt:  now.Add(ttl).Unix(),
		CreatedAt:  now.Unix(),
	}
	if err := s.artifacts.Upsert(ctx, artifact); err != nil {
		return nil, err
	}
	// A replacing issuance grants a fresh mismatch budget.
	s.limiter.ResetAttempts(ctx, ident, string(channel))

	if err := s.deliver(ctx, artifact, ttl, callbackURL); err != nil {
		slog.Warn("verification delivery failed", "channel", channel, "err", err)
		return artifact, fmt.Errorf("send verification: %w", domain.ErrDeliveryFailed)
	}
	return artifact, nil
}

func (s *service) Consume(ctx context.Context, rawIdentifier string, channel domain.Channel, presented string) (domain.ConsumeResult, error) {
	if !channel.Known() {
		return "", fmt.Errorf("unknown channel %q: %w", channel, domain.ErrBadRequest)
	}
	ident, err := identifier.Normalize(rawIdentifier, channel)
	if err != nil {
		return "", err
	}

	artifact, err := s.artifacts.Get(ctx, ident, channel)
	if err != nil {
		if errorsIsNotFound(err) {
			return domain.ConsumeNotFound, nil
		}
		return "", err
	}

	now := time.Now().Unix()
	if now > artifact.ExpiresAt {
		// Conditional on the observed secret: a re-issue that landed after
		// our read must not be destroyed by this stale cleanup.
		if err := s.artifacts.DeleteMatching(ctx, ident, channel, artifact.Secret); err != nil && !errorsIsNotFound(err) {
			slog.Warn("failed to delete expired artifact", "identifier", ident, "channel", channel, "err", err)
		}
		return domain.ConsumeExpired, nil
	}

	if artifact.Secret != presented {
		window := time.Duration(artifact.ExpiresAt-now) * time.Second
		if s.limiter.RecordMismatch(ctx, ident, string(channel), window) {
			// Retry budget exhausted: burn the artifact so the caller must
			// re-request. Reported as NotFound, not a distinct error class.
			// Conditional for the same reason as the expired branch.
			if err := s.artifacts.DeleteMatching(ctx, ident, channel, artifact.Secret); err != nil && !errorsIsNotFound(err) {
				slog.Warn("failed to delete artifact after retry cap", "identifier", ident, "channel", channel, "err", err)
			}
			return domain.ConsumeNotFound, nil
		}
		return domain.ConsumeMismatch, nil
	}

	// Conditional delete enforces at-most-once: of N concurrent matches,
	// exactly one delete succeeds.
	if err := s.artifacts.DeleteMatching(ctx, ident, channel, presented); err != nil {
		if errorsIsNotFound(err) {
			return domain.ConsumeNotFound, nil
		}
		return "", err
	}
	s.limiter.Reset(ctx, ident, string(channel))
	return domain.ConsumeValid, nil
}

func (s *service) generate(channel domain.Channel) (string, time.Duration, error) {
	switch channel {
	case domain.ChannelEmailLink:
		tok, err := secret.NewToken()
		return tok, s.ttl.EmailLink, err
	case domain.ChannelEmailCode:
		code, err := secret.NewCode()
		return code, s.ttl.EmailCode, err
	default:
		code, err := secret.NewCode()
		return code, s.ttl.Phone, err
	}
}

func (s *service) deliver(ctx context.Context, a *domain.VerificationArtifact, ttl time.Duration, callbackURL string) error {
	switch a.Channel {
	case domain.ChannelEmailLink:
		return s.mailer.SendEmail(a.Identifier, "Sign in to your account", magicLinkBody(s.verifyURL(a, callbackURL)))
	case domain.ChannelEmailCode:
		return s.mailer.SendEmail(a.Identifier, "Your sign-in code", codeBody(a.Secret, ttl))
	default:
		msg := fmt.Sprintf("Your verification code is: %s. This code will expire in %d minutes.", a.Secret, int(ttl.Minutes()))
		return s.smsSender.SendSMS(ctx, a.Identifier, msg)
	}
}

// verifyURL builds the magic-link landing URL:
// {baseURL}/verify-email?token={secret}&email={identifier}&callbackUrl={target}
func (s *service) verifyURL(a *domain.VerificationArtifact, callbackURL string) string {
	if callbackURL == "" {
		callbackURL = "/"
	}
	q := url.Values{}
	q.Set("token", a.Secret)
	q.Set("email", a.Identifier)
	q.Set("callbackUrl", callbackURL)
	return s.baseURL + "/verify-email?" + q.Encode()
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
