package domain

// SessionClaims is the normalized output attached to a session after a
// successful sign-in. It is held only inside the signed session token and is
// assembled fresh on every sign-in and refresh. It must never carry a
// verification secret or artifact metadata.
type SessionClaims struct {
	SubjectID string `json:"subject_id"`
	Provider  string `json:"provider"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// OAuthProfile is the provider-asserted identity received after the
// provider's own redirect/token-exchange flow. The handshake itself is
// delegated to the provider SDK.
type OAuthProfile struct {
	Provider  string `json:"provider"`
	SubjectID string `json:"subject_id"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
