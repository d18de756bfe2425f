package jwtinfra

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/authcore-api/internal/config"
	"github.com/authcore-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the JWT payload: the normalized session claims plus the
// registered expiry/issued-at fields. Nothing else ever enters the token.
type TokenClaims struct {
	SubjectID string `json:"subject_id"`
	Provider  string `json:"provider"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

// Provider signs and verifies RS256 session tokens.
type Provider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	maxAge     time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	maxAge := time.Duration(cfg.SessionMaxAgeDays) * 24 * time.Hour
	return &Provider{privateKey: privKey, publicKey: pubKey, maxAge: maxAge}, nil
}

// Sign embeds the session claims into a signed RS256 token.
func (p *Provider) Sign(sc domain.SessionClaims) (string, error) {
	claims := TokenClaims{
		SubjectID: sc.SubjectID,
		Provider:  sc.Provider,
		Email:     sc.Email,
		Name:      sc.Name,
		Phone:     sc.Phone,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sc.SubjectID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.maxAge)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

// Verify validates the token and returns the session claims it carries.
func (p *Provider) Verify(tokenStr string) (domain.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &TokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.publicKey, nil
	})
	if err != nil {
		return domain.SessionClaims{}, err
	}
	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return domain.SessionClaims{}, errors.New("invalid token claims")
	}
	return domain.SessionClaims{
		SubjectID: claims.SubjectID,
		Provider:  claims.Provider,
		Email:     claims.Email,
		Name:      claims.Name,
		Phone:     claims.Phone,
	}, nil
}
