package domain

import "time"

// PendingRegistration is a signup awaiting email verification.
// PK: email. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type PendingRegistration struct {
	Email            string    `json:"email" dynamodbav:"email"`
	Username         string    `json:"username" dynamodbav:"username"`
	PasswordHash     string    `json:"-" dynamodbav:"password_hash"`
	VerificationCode string    `json:"-" dynamodbav:"verification_code"`
	ExpiresAt        int64     `json:"expires_at" dynamodbav:"expires_at"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
}

// Expired reports whether the record is no longer usable at now.
// The boundary instant itself counts as expired.
func (p *PendingRegistration) Expired(now time.Time) bool {
	return now.Unix() >= p.ExpiresAt
}

// Ticket is what a caller learns after a code has been issued.
type Ticket struct {
	Code      string
	ExpiresAt time.Time
}
