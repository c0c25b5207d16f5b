package authkit

import (
	"time"

	"github.com/dmitrymomot/authkit/pkg/auth"
)

// Storage backends accepted by Config.Storage and Config.TokenStorage.
const (
	StorageMemory   = "memory"
	StorageMongo    = "mongo"
	StoragePostgres = "postgres"
)

// Config is the top-level kit configuration, usually parsed from env.
// Connection settings for Redis, MongoDB, PostgreSQL, email and TOTP live in
// their own package configs and are passed with options.
type Config struct {
	Environment string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"APP_NAME" envDefault:"authkit"`

	JWTSecret      string        `env:"AUTH_JWT_SECRET,required"`
	JWTIssuer      string        `env:"AUTH_JWT_ISSUER"`
	PasswordSecret string        `env:"AUTH_PASSWORD_SECRET,required"`
	PasswordPepper string        `env:"AUTH_PASSWORD_PEPPER"`
	BcryptCost     int           `env:"AUTH_BCRYPT_COST" envDefault:"10"`
	LinkSecret     string        `env:"AUTH_LINK_SECRET"`
	MagicLinkTTL   time.Duration `env:"AUTH_MAGIC_LINK_TTL" envDefault:"15m"`
	ResolveTTL     time.Duration `env:"AUTH_RESOLVE_TTL" envDefault:"5m"`

	SignUp       bool   `env:"AUTH_SIGNUP_ENABLED" envDefault:"true"`
	Username     bool   `env:"AUTH_USERNAME_ENABLED" envDefault:"false"`
	Passwordless bool   `env:"AUTH_PASSWORDLESS_ENABLED" envDefault:"false"`
	Verification bool   `env:"AUTH_VERIFICATION_ENABLED" envDefault:"false"`
	SessionTTL   string `env:"AUTH_JWT_EXPIRES_IN" envDefault:"30d"`
	DefaultRole  string `env:"AUTH_DEFAULT_ROLE" envDefault:"USER"`
	MailEnabled  bool   `env:"MAIL_ENABLED" envDefault:"false"`

	// LoginAttempts per identifier before Login is throttled; one attempt
	// is regained every LoginRefill. Zero disables throttling.
	LoginAttempts int           `env:"AUTH_LOGIN_ATTEMPTS" envDefault:"5"`
	LoginRefill   time.Duration `env:"AUTH_LOGIN_REFILL" envDefault:"1m"`

	ACLMemoSize int           `env:"ACL_MEMO_SIZE" envDefault:"1024"`
	ACLMemoTTL  time.Duration `env:"ACL_MEMO_TTL" envDefault:"10m"`
	ACLSeed     bool          `env:"ACL_SEED" envDefault:"true"`
	ACLChannel  string        `env:"ACL_EVENTS_CHANNEL" envDefault:"authkit:acl"`

	// Storage holds users, roles and permissions: memory or mongo.
	Storage string `env:"AUTH_STORAGE" envDefault:"memory"`
	// TokenStorage holds session tokens. Empty follows Storage; postgres
	// is also accepted.
	TokenStorage string `env:"AUTH_TOKEN_STORAGE"`
	// UseRedis backs the cache and ACL events with Redis.
	UseRedis bool `env:"AUTH_USE_REDIS" envDefault:"false"`
}

func (c Config) tokenStorage() string {
	if c.TokenStorage == "" {
		return c.Storage
	}
	return c.TokenStorage
}

// Flags returns the feature-flag snapshot seeded into the auth manager.
func (c Config) Flags() map[string]any {
	flags := auth.DefaultFlags()
	flags[auth.FlagSignUp] = c.SignUp
	flags[auth.FlagUsername] = c.Username
	flags[auth.FlagPasswordless] = c.Passwordless
	flags[auth.FlagVerification] = c.Verification
	flags[auth.FlagMailEnabled] = c.MailEnabled
	if c.SessionTTL != "" {
		flags[auth.FlagJWTExpiresIn] = c.SessionTTL
	}
	if c.DefaultRole != "" {
		flags[auth.FlagDefaultRole] = c.DefaultRole
	}
	return flags
}
