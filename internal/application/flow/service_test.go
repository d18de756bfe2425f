package flow

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/authcore-api/internal/config"
	"github.com/authcore-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Issue(ctx context.Context, identifier string, channel domain.Channel, callbackURL string) (*domain.VerificationArtifact, error) {
	args := m.Called(ctx, identifier, channel, callbackURL)
	if a, _ := args.Get(0).(*domain.VerificationArtifact); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVerifier) Consume(ctx context.Context, identifier string, channel domain.Channel, secret string) (domain.ConsumeResult, error) {
	args := m.Called(ctx, identifier, channel, secret)
	return args.Get(0).(domain.ConsumeResult), args.Error(1)
}

type mockReconciler struct{ mock.Mock }

func (m *mockReconciler) Reconcile(ctx context.Context, email, phone *string) (*domain.UserRecord, error) {
	args := m.Called(ctx, email, phone)
	if u, _ := args.Get(0).(*domain.UserRecord); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessions struct{ mock.Mock }

func (m *mockSessions) FromOAuth(profile domain.OAuthProfile) domain.SessionClaims {
	return m.Called(profile).Get(0).(domain.SessionClaims)
}
func (m *mockSessions) FromUser(u *domain.UserRecord, channel domain.Channel) domain.SessionClaims {
	return m.Called(u, channel).Get(0).(domain.SessionClaims)
}
func (m *mockSessions) IssueToken(claims domain.SessionClaims) (string, error) {
	args := m.Called(claims)
	return args.String(0), args.Error(1)
}
func (m *mockSessions) Introspect(token string) (domain.SessionClaims, error) {
	args := m.Called(token)
	return args.Get(0).(domain.SessionClaims), args.Error(1)
}

func allChannels() config.ChannelConfig {
	return config.ChannelConfig{
		EnableEmailLink: true,
		EnableEmailCode: true,
		EnablePhone:     true,
		OAuthProviders:  []string{"google"},
	}
}

func strPtr(s string) *string { return &s }

// --- Authorize: request ---

func TestAuthorize_Request_TransitionsToAwaiting(t *testing.T) {
	v := &mockVerifier{}
	v.On("Issue", mock.Anything, "a@b.com", domain.ChannelEmailCode, "").
		Return(&domain.VerificationArtifact{Identifier: "a@b.com"}, nil)

	svc := NewService(v, nil, nil, allChannels())
	out, err := svc.Authorize(context.Background(), AuthorizeRequest{
		Channel: domain.ChannelEmailCode, Action: "request", Identifier: "a@b.com",
	})

	require.NoError(t, err)
	assert.Equal(t, StateAwaiting, out.State)
	assert.Nil(t, out.Claims)
	assert.Empty(t, out.Token)
}

func TestAuthorize_Request_DeliveryFailure_SurfacesError(t *testing.T) {
	v := &mockVerifier{}
	v.On("Issue", mock.Anything, "a@b.com", domain.ChannelEmailCode, "").
		Return(nil, fmt.Errorf("send verification: %w", domain.ErrDeliveryFailed))

	svc := NewService(v, nil, nil, allChannels())
	_, err := svc.Authorize(context.Background(), AuthorizeRequest{
		Channel: domain.ChannelEmailCode, Action: "request", Identifier: "a@b.com",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDeliveryFailed))
}

func TestAuthorize_DisabledChannel_Rejected(t *testing.T) {
	channels := allChannels()
	channels.EnablePhone = false

	svc := NewService(nil, nil, nil, channels)
	_, err := svc.Authorize(context.Background(), AuthorizeRequest{
		Channel: domain.ChannelPhone, Action: "request", Identifier: "+15551234567",
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestAuthorize_BadAction_Rejected(t *testing.T) {
	svc := NewService(nil, nil, nil, allChannels())
	_, err := svc.Authorize(context.Background(), AuthorizeRequest{
		Channel: domain.ChannelEmailCode, Action: "destroy", Identifier: "a@b.com",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

// --- Authorize: verify ---

func TestAuthorize_Verify_Valid_Authenticates(t *testing.T) {
	v := &mockVerifier{}
	r := &mockReconciler{}
	s := &mockSessions{}

	v.On("Consume", mock.Anything, "a@b.com", domain.ChannelEmailCode, "123456").
		Return(domain.ConsumeValid, nil)
	user := &domain.UserRecord{UserID: "u1", Email: strPtr("a@b.com"), Name: "a"}
	r.On("Reconcile", mock.Anything, mock.MatchedBy(func(e *string) bool {
		return e != nil && *e == "a@b.com"
	}), (*string)(nil)).Return(user, nil)
	claims := domain.SessionClaims{SubjectID: "u1", Provider: "email-code", Email: "a@b.com", Name: "a"}
	s.On("FromUser", user, domain.ChannelEmailCode).Return(claims)
	s.On("IssueToken", claims).Return("session-token", nil)

	svc := NewService(v, r, s, allChannels())
	out, err := svc.Authorize(context.Background(), AuthorizeRequest{
		Channel: domain.ChannelEmailCode, Action: "verify", Identifier: "a@b.com", Secret: "123456",
	})

	require.NoError(t, err)
	assert.Equal(t, StateAuthed, out.State)
	assert.Equal(t, domain.ConsumeValid, out.Result)
	assert.Equal(t, "session-token", out.Token)
	require.NotNil(t, out.Claims)
	assert.Equal(t, "u1", out.Claims.SubjectID)
	v.AssertExpectations(t)
	r.AssertExpectations(t)
	s.AssertExpectations(t)
}

func TestAuthorize_Verify_PhoneChannel_ReconcilesByPhone(t *testing.T) {
	v := &mockVerifier{}
	r := &mockReconciler{}
	s := &mockSessions{}

	v.On("Consume", mock.Anything, "+15551234567", domain.ChannelPhone, "123456").
		Return(domain.ConsumeValid, nil)
	user := &domain.UserRecord{UserID: "u2", Phone: strPtr("+15551234567"), Name: "+15551234567"}
	r.On("Reconcile", mock.Anything, (*string)(nil), mock.MatchedBy(func(p *string) bool {
		return p != nil && *p == "+15551234567"
	})).Return(user, nil)
	claims := domain.SessionClaims{SubjectID: "u2", Provider: "phone", Phone: "+15551234567"}
	s.On("FromUser", user, domain.ChannelPhone).Return(claims)
	s.On("IssueToken", claims).Return("tok", nil)

	svc := NewService(v, r, s, allChannels())
	out, err := svc.Authorize(context.Background(), AuthorizeRequest{
		Channel: domain.ChannelPhone, Action: "verify", Identifier: "+15551234567", Secret: "123456",
	})

	require.NoError(t, err)
	assert.Equal(t, StateAuthed, out.State)
	r.AssertExpectations(t)
}

func TestAuthorize_Verify_Mismatch_StaysAwaiting(t *testing.T) {
	v := &mockVerifier{}
	v.On("Consume", mock.Anything, "a@b.com", domain.ChannelEmailCode, "999999").
		Return(domain.ConsumeMismatch, nil)

	svc := NewService(v, nil, nil, allChannels())
	out, err := svc.Authorize(context.Background(), AuthorizeRequest{
		Channel: domain.ChannelEmailCode, Action: "verify", Identifier: "a@b.com", Secret: "999999",
	})

	require.NoError(t, err)
	assert.Equal(t, StateAwaiting, out.State)
	assert.Equal(t, domain.ConsumeMismatch, out.Result)
	assert.Nil(t, out.Claims)
}

func TestAuthorize_Verify_Expired_ReturnsToIdle(t *testing.T) {
	v := &mockVerifier{}
	v.On("Consume", mock.Anything, "+15551234567", domain.ChannelPhone, "123456").
		Return(domain.ConsumeExpired, nil)

	svc := NewService(v, nil, nil, allChannels())
	out, err := svc.Authorize(context.Background(), AuthorizeRequest{
		Channel: domain.ChannelPhone, Action: "verify", Identifier: "+15551234567", Secret: "123456",
	})

	require.NoError(t, err)
	assert.Equal(t, StateIdle, out.State)
	assert.Equal(t, domain.ConsumeExpired, out.Result)
}

// A verify with no prior request is NotFound, not a distinct error class.
func TestAuthorize_BareVerify_NotFound(t *testing.T) {
	v := &mockVerifier{}
	v.On("Consume", mock.Anything, "a@b.com", domain.ChannelEmailCode, "123456").
		Return(domain.ConsumeNotFound, nil)

	svc := NewService(v, nil, nil, allChannels())
	out, err := svc.Authorize(context.Background(), AuthorizeRequest{
		Channel: domain.ChannelEmailCode, Action: "verify", Identifier: "a@b.com", Secret: "123456",
	})

	require.NoError(t, err)
	assert.Equal(t, StateIdle, out.State)
	assert.Equal(t, domain.ConsumeNotFound, out.Result)
}

func TestAuthorize_Verify_MissingSecret_BadRequest(t *testing.T) {
	svc := NewService(nil, nil, nil, allChannels())
	_, err := svc.Authorize(context.Background(), AuthorizeRequest{
		Channel: domain.ChannelEmailCode, Action: "verify", Identifier: "a@b.com",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

// --- OAuthCallback ---

func TestOAuthCallback_AuthenticatesWithoutStore(t *testing.T) {
	r := &mockReconciler{}
	s := &mockSessions{}

	profile := domain.OAuthProfile{Provider: "google", SubjectID: "g-1", Email: "z@w.com"}
	claims := domain.SessionClaims{SubjectID: "g-1", Provider: "google", Email: "z@w.com"}
	s.On("FromOAuth", profile).Return(claims)
	s.On("IssueToken", claims).Return("oauth-token", nil)

	svc := NewService(nil, r, s, allChannels())
	out, err := svc.OAuthCallback(context.Background(), profile)

	require.NoError(t, err)
	assert.Equal(t, StateAuthed, out.State)
	assert.Equal(t, "oauth-token", out.Token)
	assert.Equal(t, "g-1", out.Claims.SubjectID)
	assert.Equal(t, "google", out.Claims.Provider)
	r.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything, mock.Anything)
}

func TestOAuthCallback_UnknownProvider_Rejected(t *testing.T) {
	svc := NewService(nil, nil, nil, allChannels())
	_, err := svc.OAuthCallback(context.Background(), domain.OAuthProfile{Provider: "myspace", SubjectID: "m-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}
