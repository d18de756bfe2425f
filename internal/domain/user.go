package domain

import "time"

// UserRecord is the durable identity a verified channel address resolves to.
// Created and updated only by the identity reconciler; never deleted here.
// Email and phone are each unique across the table when present, enforced by
// conditional puts against the identities table.
type UserRecord struct {
	UserID          string     `json:"id" dynamodbav:"user_id"`
	Email           *string    `json:"email,omitempty" dynamodbav:"email,omitempty"`
	Phone           *string    `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	Name            string     `json:"name" dynamodbav:"name"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty" dynamodbav:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt       time.Time  `json:"updated" dynamodbav:"updated_at"`
}
