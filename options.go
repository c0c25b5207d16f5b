package authkit

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/authkit/pkg/auth"
	"github.com/dmitrymomot/authkit/pkg/email"
	"github.com/dmitrymomot/authkit/pkg/mongo"
	"github.com/dmitrymomot/authkit/pkg/pg"
	"github.com/dmitrymomot/authkit/pkg/redis"
	"github.com/dmitrymomot/authkit/pkg/totp"
)

type options struct {
	log      *slog.Logger
	registry prometheus.Registerer
	redis    *redis.Config
	mongo    *mongo.Config
	pg       *pg.Config
	email    email.Config
	totp     totp.Config
	sender   email.Sender
	links    auth.LinkBuilder
}

// Option configures New.
type Option func(*options)

// WithLogger sets the logger handed to every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithRegisterer registers the kit collectors with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// WithRedis supplies the connection used when Config.UseRedis is set.
func WithRedis(cfg redis.Config) Option {
	return func(o *options) { o.redis = &cfg }
}

// WithMongo supplies the connection used by the mongo storage backend.
func WithMongo(cfg mongo.Config) Option {
	return func(o *options) { o.mongo = &cfg }
}

// WithPostgres supplies the connection used by the postgres token backend.
func WithPostgres(cfg pg.Config) Option {
	return func(o *options) { o.pg = &cfg }
}

// WithEmail sets delivery settings. Postmark is used when both tokens are
// present, files under DevOutputDir otherwise.
func WithEmail(cfg email.Config) Option {
	return func(o *options) { o.email = cfg }
}

// WithTOTP sets two-factor settings.
func WithTOTP(cfg totp.Config) Option {
	return func(o *options) { o.totp = cfg }
}

// WithSender overrides the email transport. It is still wrapped in a
// dispatcher.
func WithSender(s email.Sender) Option {
	return func(o *options) { o.sender = s }
}

// WithLinkBuilder sets how one-shot tokens become email links.
func WithLinkBuilder(b auth.LinkBuilder) Option {
	return func(o *options) { o.links = b }
}
