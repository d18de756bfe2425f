package verification

import (
	"fmt"
	"time"
)

// magicLinkBody renders the sign-in email around the verification URL. The
// link expiry mentioned in the copy matches the email-link TTL default.
func magicLinkBody(verifyURL string) string {
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="margin: 0 0 10px 0;">Welcome back</h1>
  <p>Click the button below to sign in to your account.</p>
  <p style="margin: 30px 0;">
    <a href="%s" style="display: inline-block; background: #4f46e5; color: white; text-decoration: none; padding: 14px 28px; border-radius: 8px;">Sign In Securely</a>
  </p>
  <p style="color: #6b7280; font-size: 14px;">This sign-in link will expire in 24 hours. If you didn't request this email, you can safely ignore it.</p>
</div>`, verifyURL)
}

// codeBody renders the one-time-code email.
func codeBody(code string, ttl time.Duration) string {
	return fmt.Sprintf(`<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="margin: 0 0 10px 0;">Your sign-in code</h1>
  <p style="font-size: 32px; letter-spacing: 6px; font-weight: 700; margin: 30px 0;">%s</p>
  <p style="color: #6b7280; font-size: 14px;">This code will expire in %d minutes. If you didn't request it, you can safely ignore this email.</p>
</div>`, code, int(ttl.Minutes()))
}
