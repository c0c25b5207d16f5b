package auth

import (
	"strings"
	"time"
)

// Status is the account lifecycle state. Users are never hard-deleted.
type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// Runtime flag keys read from config.Flags.
const (
	FlagSignUp       = "user.signup.enabled"
	FlagUsername     = "user.username.enabled"
	FlagPasswordless = "user.passwordless.enabled"
	FlagVerification = "user.verification.enabled"
	FlagJWTExpiresIn = "user.jwt.expiresIn"
	FlagDefaultRole  = "user.defaultRole"
	FlagMailEnabled  = "mail.enabled"
)

// DefaultRole is assigned on registration when no role flag is set.
const DefaultRole = "USER"

// SubjectMagicLink binds signed magic-link tokens to their purpose.
const SubjectMagicLink = "magic_link"

// DefaultFlags returns the flag values a fresh deployment starts with.
func DefaultFlags() map[string]any {
	return map[string]any{
		FlagSignUp:       true,
		FlagUsername:     false,
		FlagPasswordless: false,
		FlagVerification: false,
		FlagJWTExpiresIn: "30d",
		FlagDefaultRole:  DefaultRole,
		FlagMailEnabled:  false,
	}
}

// TwoFactor holds TOTP enrollment. Secret is sealed when a cipher is configured.
type TwoFactor struct {
	Enabled bool   `bson:"enabled" json:"enabled"`
	Secret  string `bson:"secret,omitempty" json:"-"`
}

// User is an account known to the directory.
type User struct {
	ID                string     `bson:"_id" json:"id"`
	Email             string     `bson:"email" json:"email"`
	Username          string     `bson:"username,omitempty" json:"username,omitempty"`
	PasswordHash      string     `bson:"password" json:"-"`
	Passwordless      bool       `bson:"passwordless" json:"passwordless"`
	Verified          bool       `bson:"verified" json:"verified"`
	VerificationToken string     `bson:"verification_token,omitempty" json:"-"`
	Status            Status     `bson:"status" json:"status"`
	Role              string     `bson:"role" json:"role"`
	TwoFactor         TwoFactor  `bson:"two_factor" json:"two_factor"`
	FirstName         string     `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName          string     `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Avatar            string     `bson:"avatar,omitempty" json:"avatar,omitempty"`
	TenantID          string     `bson:"tenant_id,omitempty" json:"tenant_id,omitempty"`
	CreatedAt         time.Time  `bson:"created_at" json:"created_at"`
	LastLoginAt       *time.Time `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
}

// Roles returns the user's role codes in the form the ACL engine expects.
func (u *User) Roles() []string {
	if u.Role == "" {
		return nil
	}
	return []string{u.Role}
}

// Active reports whether the account may authenticate.
func (u *User) Active() bool {
	return u.Status == StatusActive
}

// Public returns a copy without credential material.
func (u *User) Public() *User {
	c := *u
	c.PasswordHash = ""
	c.VerificationToken = ""
	c.TwoFactor.Secret = ""
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return &c
}

// SessionToken is the server-side record of an issued JWT. Only the keyed
// digest of the token is stored.
type SessionToken struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	TokenHash string    `bson:"token" json:"-"`
	IssuedAt  time.Time `bson:"issued_at" json:"issued_at"`
}

// LoginParams carries login input. Identifier is an email, or a username
// when username login is enabled.
type LoginParams struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password,omitempty"`
	OTP        string `json:"otp,omitempty"`
}

// LoginResult is either an issued session or a notice that a magic link
// was sent.
type LoginResult struct {
	Token        string `json:"token,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	Passwordless bool   `json:"passwordless,omitempty"`
	Email        string `json:"email,omitempty"`
}

// RegisterParams carries sign-up input.
type RegisterParams struct {
	Email     string `json:"email"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	TenantID  string `json:"tenant_id,omitempty"`
}

// TwoFactorSetup is what a client needs to enroll an authenticator app.
type TwoFactorSetup struct {
	Secret string `json:"secret"`
	URI    string `json:"uri"`
	QRCode string `json:"qr_code"`
}

// NormalizeEmail lower-cases and trims an address for lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
