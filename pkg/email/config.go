package email

// Config holds email service configuration.
// Postmark tokens are optional so development setups can fall back to DevSender.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`
	DevOutputDir         string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
	Workers              int    `env:"EMAIL_WORKERS" envDefault:"2"`
	QueueSize            int    `env:"EMAIL_QUEUE_SIZE" envDefault:"256"`
}
