package domain

// Channel identifies a proof-of-possession mechanism. The string value doubles
// as the provider tag on session claims after a successful verification.
type Channel string

const (
	ChannelEmailLink Channel = "email-link"
	ChannelEmailCode Channel = "email-code"
	ChannelPhone     Channel = "phone"
)

// Known reports whether c is one of the recognized channels.
func (c Channel) Known() bool {
	switch c {
	case ChannelEmailLink, ChannelEmailCode, ChannelPhone:
		return true
	}
	return false
}

// UsesEmail reports whether the channel delivers over email.
func (c Channel) UsesEmail() bool {
	return c == ChannelEmailLink || c == ChannelEmailCode
}

// VerificationArtifact is a single-use token or code awaiting verification.
// PK: identifier, SK: channel. At most one live artifact exists per
// (identifier, channel) pair; issuing again replaces the previous one.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type VerificationArtifact struct {
	Identifier string  `json:"identifier" dynamodbav:"identifier"`
	Channel    Channel `json:"channel" dynamodbav:"channel"`
	Secret     string  `json:"-" dynamodbav:"secret"`
	ExpiresAt  int64   `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
	CreatedAt  int64   `json:"created_at" dynamodbav:"created_at"`
}

// ConsumeResult is the outcome of presenting a secret against a stored
// artifact. These are routine state-machine branches, not errors.
type ConsumeResult string

const (
	ConsumeValid    ConsumeResult = "valid"
	ConsumeNotFound ConsumeResult = "not_found"
	ConsumeExpired  ConsumeResult = "expired"
	ConsumeMismatch ConsumeResult = "mismatch"
)
