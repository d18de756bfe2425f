package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/authcore-api/internal/domain"
	"github.com/authcore-api/internal/pkg/id"
	"github.com/authcore-api/internal/pkg/identifier"
)

// UserStore is the persistence the reconciler requires. Insert must reject a
// duplicate email/phone with domain.ErrConflict via a store-level uniqueness
// constraint.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.UserRecord, error)
	GetByPhone(ctx context.Context, phone string) (*domain.UserRecord, error)
	Insert(ctx context.Context, u *domain.UserRecord) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

// Service maps a verified channel identifier onto a durable user record,
// creating or updating it. Idempotent: repeated calls with the same
// identifier converge to the same user id.
type Service interface {
	Reconcile(ctx context.Context, email, phone *string) (*domain.UserRecord, error)
}

type service struct {
	users UserStore
}

func NewService(users UserStore) Service {
	return &service{users: users}
}

func (s *service) Reconcile(ctx context.Context, email, phone *string) (*domain.UserRecord, error) {
	switch {
	case email != nil:
		e, err := identifier.NormalizeEmail(*email)
		if err != nil {
			return nil, err
		}
		return s.reconcileEmail(ctx, e)
	case phone != nil:
		p, err := identifier.NormalizePhone(*phone)
		if err != nil {
			return nil, err
		}
		return s.reconcilePhone(ctx, p)
	default:
		return nil, fmt.Errorf("email or phone required: %w", domain.ErrBadRequest)
	}
}

func (s *service) reconcileEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	if u, err := s.users.GetByEmail(ctx, email); err == nil {
		return s.touchVerified(ctx, u)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	u := &domain.UserRecord{
		UserID:          id.New(),
		Email:           &email,
		Name:            identifier.LocalPart(email),
		EmailVerifiedAt: &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost the create race: another request claimed the address
			// between our lookup and insert. Converge on the winner.
			slog.Info("duplicate identity race, retrying as lookup", "email", email)
			winner, lerr := s.users.GetByEmail(ctx, email)
			if lerr != nil {
				return nil, lerr
			}
			return s.touchVerified(ctx, winner)
		}
		return nil, err
	}
	return u, nil
}

func (s *service) reconcilePhone(ctx context.Context, phone string) (*domain.UserRecord, error) {
	if u, err := s.users.GetByPhone(ctx, phone); err == nil {
		return s.touch(ctx, u)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	u := &domain.UserRecord{
		UserID:    id.New(),
		Phone:     &phone,
		Name:      phone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			slog.Info("duplicate identity race, retrying as lookup", "phone", phone)
			winner, lerr := s.users.GetByPhone(ctx, phone)
			if lerr != nil {
				return nil, lerr
			}
			return s.touch(ctx, winner)
		}
		return nil, err
	}
	return u, nil
}

// touchVerified stamps the verification time on an existing record. The
// record's identity is never altered here.
func (s *service) touchVerified(ctx context.Context, u *domain.UserRecord) (*domain.UserRecord, error) {
	now := time.Now().UTC()
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
		"email_verified_at": now.Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}
	u.EmailVerifiedAt = &now
	u.UpdatedAt = now
	return u, nil
}

// touch refreshes updated_at on an existing record, marking a fresh
// verification against it.
func (s *service) touch(ctx context.Context, u *domain.UserRecord) (*domain.UserRecord, error) {
	now := time.Now().UTC()
	if err := s.users.Update(ctx, u.UserID, map[string]interface{}{
		"updated_at": now.Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}
	u.UpdatedAt = now
	return u, nil
}
