package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")

	// ErrDelivery and ErrChain mark failures of an external dependency. They are
	// reported as 500 and never retried.
	ErrDelivery = errors.New("email delivery failed")
	ErrChain    = errors.New("chain transaction failed")
)

// Specific errors. Each wraps one of the kinds above so errors.Is works on both levels.
var (
	ErrDuplicateEmail    = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrDuplicateUsername = fmt.Errorf("username already taken: %w", ErrConflict)
	ErrDomainTaken       = fmt.Errorf("domain already taken: %w", ErrConflict)
	ErrDomainOwnerTaken  = fmt.Errorf("domain or username already in use: %w", ErrConflict)

	ErrPendingNotFound = fmt.Errorf("no pending registration for this email: %w", ErrNotFound)
	ErrUserNotFound    = fmt.Errorf("user not found: %w", ErrNotFound)
	ErrCodeMismatch    = fmt.Errorf("invalid verification code: %w", ErrBadRequest)
	ErrCodeExpired     = fmt.Errorf("verification code expired: %w", ErrBadRequest)
	ErrBadPassword     = fmt.Errorf("incorrect password: %w", ErrUnauthorized)
)

// ValidationError reports a single request field that failed validation.
type ValidationError struct {
	Field   string
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("field '%s' failed '%s'", e.Field, e.Rule)
}

// Unwrap lets errors.Is(err, ErrBadRequest) match validation failures.
func (e *ValidationError) Unwrap() error { return ErrBadRequest }

// NewValidationError builds a ValidationError with a client-facing message.
func NewValidationError(field, rule, msg string) *ValidationError {
	return &ValidationError{Field: field, Rule: rule, Message: msg}
}

// PublicMessage returns the client-safe message for the most specific sentinel
// err wraps. It returns "" when err carries no domain sentinel.
func PublicMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	for _, s := range publicErrors {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}
	return ""
}

var publicErrors = []struct {
	err error
	msg string
}{
	{ErrDuplicateEmail, "Email already registered"},
	{ErrDuplicateUsername, "Username already taken"},
	{ErrDomainTaken, "Domain already taken"},
	{ErrDomainOwnerTaken, "Domain or username already in use"},
	{ErrPendingNotFound, "No pending registration for this email"},
	{ErrUserNotFound, "User not found"},
	{ErrCodeMismatch, "Invalid verification code"},
	{ErrCodeExpired, "Verification code expired"},
	{ErrBadPassword, "Incorrect password"},
	{ErrDelivery, "Failed to send verification email"},
	{ErrChain, "Blockchain transaction failed"},
	{ErrUnauthorized, "Unauthorized"},
	{ErrForbidden, "Forbidden"},
	{ErrNotFound, "Not found"},
	{ErrConflict, "Already exists"},
	{ErrBadRequest, "Bad request"},
}
