package identifier

import (
	"fmt"
	"strings"

	"github.com/authcore-api/internal/domain"
	"github.com/authcore-api/internal/pkg/validate"
)

// Normalize canonicalizes a channel address so that artifact and user lookups
// key off a single representation: emails are trimmed and lower-cased, phone
// numbers are reduced to digits and E.164-prefixed.
func Normalize(raw string, channel domain.Channel) (string, error) {
	if channel.UsesEmail() {
		return NormalizeEmail(raw)
	}
	return NormalizePhone(raw)
}

// NormalizeEmail trims, lower-cases, and validates an email address.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if err := validate.Var(email, "required,email"); err != nil {
		return "", fmt.Errorf("invalid email address: %w", domain.ErrBadRequest)
	}
	return email, nil
}

// NormalizePhone strips everything but digits and prefixes the result with
// "+". Accepts 8 to 15 digits (E.164 upper bound).
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, c := range raw {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	digits := b.String()
	if len(digits) < 8 || len(digits) > 15 {
		return "", fmt.Errorf("invalid phone number: %w", domain.ErrBadRequest)
	}
	return "+" + digits, nil
}

// LocalPart returns the part of an email address before the "@", used to
// derive a display name for new user records.
func LocalPart(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
