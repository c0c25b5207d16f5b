package totp

// Config holds two-factor settings parsed from the environment.
type Config struct {
	Issuer        string `env:"TOTP_ISSUER" envDefault:"authkit"`
	EncryptionKey string `env:"TOTP_ENCRYPTION_KEY"`
	Skew          int    `env:"TOTP_SKEW" envDefault:"1"`
}
