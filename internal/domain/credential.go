package domain

import "time"

// Credential is a finalized, login-capable user identity.
// PK: email. Username uniqueness is held by a guard item in the unique_keys table.
type Credential struct {
	Email         string    `json:"email" dynamodbav:"email"`
	UserID        string    `json:"id" dynamodbav:"user_id"`
	Username      string    `json:"username" dynamodbav:"username"`
	PasswordHash  string    `json:"-" dynamodbav:"password_hash"`
	WalletAddress *string   `json:"walletAddress,omitempty" dynamodbav:"wallet_address,omitempty"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}

// PublicUser is the subset of a Credential returned to clients.
type PublicUser struct {
	Email         string  `json:"email"`
	Username      string  `json:"username"`
	WalletAddress *string `json:"walletAddress,omitempty"`
}

func (c *Credential) Public() PublicUser {
	return PublicUser{Email: c.Email, Username: c.Username, WalletAddress: c.WalletAddress}
}

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,numeric,len=6"`
}

type ResendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ConnectWalletRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required,ethaddr"`
}
