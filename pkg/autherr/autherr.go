package autherr

import (
	"errors"
	"net/http"
)

// Kind is a stable machine-readable error identifier.
type Kind string

const (
	KindAuthenticationFailed     Kind = "AUTHENTICATION_FAILED"
	KindUserNotVerified          Kind = "USER_IS_NOT_VERIFIED"
	KindUserNotActive            Kind = "USER_IS_NOT_ACTIVE"
	KindPasswordLessOnly         Kind = "PASSWORD_LESS_ONLY"
	KindPasswordLessNotAvailable Kind = "PASSWORD_LESS_NOT_AVAILABLE"
	KindPasswordLessNotAllowed   Kind = "PASSWORD_LESS_NOT_ALLOWED"
	KindMissingTwoFactorCode     Kind = "MISSING_2FA_CODE"
	KindInvalidTwoFactorCode     Kind = "INVALID_2FA_TOKEN"
	KindSignUpNotAvailable       Kind = "SIGNUP_NOT_AVAILABLE"
	KindEmailAlreadyExists       Kind = "EMAIL_ALREADY_EXISTS"
	KindUsernameAlreadyExists    Kind = "USERNAME_ALREADY_EXISTS"
	KindUsernameCantEmpty        Kind = "USERNAME_CANT_EMPTY"
	KindPasswordCantEmpty        Kind = "PASSWORD_CANT_EMPTY"
	KindUserIsNotRegistered      Kind = "USER_IS_NOT_REGISTERED"
	KindInvalidToken             Kind = "INVALID_TOKEN"
	KindTokenHasExpired          Kind = "EXPIRED_TOKEN"
	KindNoPermission             Kind = "NO_PERMISSION"
	KindAccountHasBeenHacked     Kind = "ACCOUNT_HAS_BEEN_HACKED"
	KindUserAlreadyEnabled       Kind = "USER_ALREADY_ENABLED"
	KindUserAlreadyDisabled      Kind = "USER_ALREADY_DISABLED"
	KindInvalidVerification      Kind = "INVALID_VERIFICATION_TOKEN"
	KindRateLimitExceeded        Kind = "RATE_LIMIT_EXCEEDED"
)

// Error is an expected, caller-recoverable authentication or authorization
// failure. Two errors are equal under errors.Is when their kinds match, so
// overriding the message or status keeps the identity.
type Error struct {
	Kind    Kind
	Message string
	Status  int
}

// New creates an error of the given kind.
func New(kind Kind, message string, status int) *Error {
	return &Error{Kind: kind, Message: message, Status: status}
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// WithMessage returns a copy with a caller-supplied message.
func (e *Error) WithMessage(message string) *Error {
	c := *e
	c.Message = message
	return &c
}

// WithStatus returns a copy with a different status class.
func (e *Error) WithStatus(status int) *Error {
	c := *e
	c.Status = status
	return &c
}

// Request and account state errors (400).
var (
	ErrAuthenticationFailed     = New(KindAuthenticationFailed, "Authentication failed. User or Password is invalid.", http.StatusBadRequest)
	ErrUserNotVerified          = New(KindUserNotVerified, "User is not verified yet.", http.StatusBadRequest)
	ErrUserNotActive            = New(KindUserNotActive, "User is not active.", http.StatusBadRequest)
	ErrPasswordLessOnly         = New(KindPasswordLessOnly, "This is a passwordless account! Please login without password.", http.StatusBadRequest)
	ErrPasswordLessNotAvailable = New(KindPasswordLessNotAvailable, "Passwordless login is not available because mail transporter is not configured.", http.StatusBadRequest)
	ErrPasswordLessNotAllowed   = New(KindPasswordLessNotAllowed, "Passwordless login is not allowed.", http.StatusBadRequest)
	ErrMissingTwoFactorCode     = New(KindMissingTwoFactorCode, "Two-factor authentication is enabled. Please give the 2FA code.", http.StatusBadRequest)
	ErrInvalidTwoFactorCode     = New(KindInvalidTwoFactorCode, "Invalid 2FA token!", http.StatusBadRequest)
	ErrSignUpNotAvailable       = New(KindSignUpNotAvailable, "Sign up is not available.", http.StatusBadRequest)
	ErrEmailAlreadyExists       = New(KindEmailAlreadyExists, "Email has already been registered.", http.StatusBadRequest)
	ErrUsernameAlreadyExists    = New(KindUsernameAlreadyExists, "Username has already been registered.", http.StatusBadRequest)
	ErrUsernameCantEmpty        = New(KindUsernameCantEmpty, "Username can't be empty.", http.StatusBadRequest)
	ErrPasswordCantEmpty        = New(KindPasswordCantEmpty, "Password can't be empty.", http.StatusBadRequest)
	ErrUserAlreadyEnabled       = New(KindUserAlreadyEnabled, "Account has already been enabled!", http.StatusBadRequest)
	ErrUserAlreadyDisabled      = New(KindUserAlreadyDisabled, "Account has already been disabled!", http.StatusBadRequest)
	ErrInvalidVerification      = New(KindInvalidVerification, "Invalid verification token!", http.StatusBadRequest)
)

// Token and identity errors (401).
var (
	ErrUserIsNotRegistered = New(KindUserIsNotRegistered, "User is not registered yet.", http.StatusUnauthorized)
	ErrInvalidToken        = New(KindInvalidToken, "Invalid token.", http.StatusUnauthorized)
	ErrTokenHasExpired     = New(KindTokenHasExpired, "Token has expired.", http.StatusUnauthorized)
)

// Authorization errors (403).
var (
	ErrNoPermission         = New(KindNoPermission, "You have no permissions to perform this action.", http.StatusForbidden)
	ErrAccountHasBeenHacked = New(KindAccountHasBeenHacked, "Someone has used your account. All your sessions have been logged out, please login again and change your password.", http.StatusForbidden)
)

// Throttling errors (429).
var (
	ErrRateLimitExceeded = New(KindRateLimitExceeded, "Too many attempts. Please try again later.", http.StatusTooManyRequests)
)

// As extracts the *Error from an error chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of a domain error, or "" for infrastructure errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// StatusOf returns the status class carried by a domain error.
// Anything else is an infrastructure failure and maps to 500.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if e, ok := As(err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}
