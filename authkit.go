package authkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	goredis "github.com/redis/go-redis/v9"
	mongodrv "go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/authkit/pkg/acl"
	"github.com/dmitrymomot/authkit/pkg/auth"
	"github.com/dmitrymomot/authkit/pkg/broadcast"
	"github.com/dmitrymomot/authkit/pkg/cache"
	"github.com/dmitrymomot/authkit/pkg/config"
	"github.com/dmitrymomot/authkit/pkg/email"
	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/pkg/logger"
	"github.com/dmitrymomot/authkit/pkg/metrics"
	"github.com/dmitrymomot/authkit/pkg/mongo"
	"github.com/dmitrymomot/authkit/pkg/mongostore"
	"github.com/dmitrymomot/authkit/pkg/password"
	"github.com/dmitrymomot/authkit/pkg/pg"
	"github.com/dmitrymomot/authkit/pkg/pgstore"
	"github.com/dmitrymomot/authkit/pkg/ratelimiter"
	"github.com/dmitrymomot/authkit/pkg/redis"
	"github.com/dmitrymomot/authkit/pkg/totp"
)

// Kit is the assembled authentication and authorization core.
type Kit struct {
	Auth    *auth.Manager
	ACL     *acl.Engine
	Flags   *config.Flags
	Metrics *metrics.Metrics

	Roles       acl.RoleRepository
	Permissions acl.PermissionRepository
	Events      broadcast.Broadcaster[acl.Event]

	// TwoFactorIssuer labels authenticator entries created by SetupTwoFactor.
	TwoFactorIssuer string

	// Health holds one check per external backend, keyed by name.
	Health map[string]func(context.Context) error

	log     *slog.Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closers []func(context.Context) error
	once    sync.Once
	err     error
}

// New connects the configured backends and wires every component. On
// failure anything already opened is closed again.
func New(ctx context.Context, cfg Config, opts ...Option) (*Kit, error) {
	o := options{
		log:   logger.Discard(),
		email: email.Config{DevOutputDir: "./tmp/emails", Workers: 2, QueueSize: 256},
		totp:  totp.Config{Issuer: "authkit", Skew: totp.DefaultSkew},
	}
	for _, opt := range opts {
		opt(&o)
	}

	k := &Kit{
		log:             o.log.With(logger.Component("authkit")),
		Metrics:         metrics.New(o.registry),
		Flags:           config.NewFlags(cfg.Flags(), config.WithFlagsLogger(o.log)),
		TwoFactorIssuer: o.totp.Issuer,
		Health:          map[string]func(context.Context) error{},
	}
	if err := k.build(ctx, cfg, o); err != nil {
		return nil, errors.Join(err, k.Close(context.WithoutCancel(ctx)))
	}
	k.log.InfoContext(ctx, "authkit ready",
		slog.String("storage", cfg.Storage),
		slog.String("token_storage", cfg.tokenStorage()),
		slog.Bool("redis", cfg.UseRedis))
	return k, nil
}

// FromEnv loads Config and every backend config it needs from the
// environment, then calls New. Explicit opts win over env-derived ones.
func FromEnv(ctx context.Context, opts ...Option) (*Kit, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}

	var envOpts []Option
	if cfg.UseRedis {
		var c redis.Config
		if err := config.Load(&c); err != nil {
			return nil, err
		}
		envOpts = append(envOpts, WithRedis(c))
	}
	if cfg.Storage == StorageMongo || cfg.tokenStorage() == StorageMongo {
		var c mongo.Config
		if err := config.Load(&c); err != nil {
			return nil, err
		}
		envOpts = append(envOpts, WithMongo(c))
	}
	if cfg.tokenStorage() == StoragePostgres {
		var c pg.Config
		if err := config.Load(&c); err != nil {
			return nil, err
		}
		envOpts = append(envOpts, WithPostgres(c))
	}
	if cfg.MailEnabled {
		var c email.Config
		if err := config.Load(&c); err != nil {
			return nil, err
		}
		envOpts = append(envOpts, WithEmail(c))
	}
	var tc totp.Config
	if err := config.Load(&tc); err != nil {
		return nil, err
	}
	envOpts = append(envOpts, WithTOTP(tc),
		WithLogger(logger.New(logger.WithEnvironment(cfg.Environment, cfg.ServiceName))))

	return New(ctx, cfg, append(envOpts, opts...)...)
}

func (k *Kit) build(ctx context.Context, cfg Config, o options) error {
	passwords, err := password.New(cfg.PasswordSecret,
		password.WithCost(cfg.BcryptCost), password.WithPepper(cfg.PasswordPepper))
	if err != nil {
		return errors.Join(ErrInitFailed, err)
	}
	var jwtOpts []jwt.Option
	if cfg.JWTIssuer != "" {
		jwtOpts = append(jwtOpts, jwt.WithIssuer(cfg.JWTIssuer))
	}
	codec, err := jwt.New(cfg.JWTSecret, jwtOpts...)
	if err != nil {
		return errors.Join(ErrInitFailed, err)
	}

	var rdb *goredis.Client
	if cfg.UseRedis {
		if o.redis == nil {
			return fmt.Errorf("%w: redis", ErrMissingBackendConf)
		}
		if rdb, err = redis.Connect(ctx, *o.redis); err != nil {
			return err
		}
		k.closers = append(k.closers, func(context.Context) error { return rdb.Close() })
		k.Health["redis"] = redis.Healthcheck(rdb,
			redis.WithHealthTimeout(o.redis.HealthTimeout),
			redis.WithWriteCheck(o.redis.KeyPrefix+"health"),
		)
	}

	var store cache.Cache = cache.NewMemory()
	events := broadcast.Broadcaster[acl.Event](broadcast.NewMemory[acl.Event](16))
	if rdb != nil {
		store = cache.NewRedis(rdb, cache.WithPrefix(o.redis.KeyPrefix))
		events = broadcast.NewRedis[acl.Event](rdb, cfg.ACLChannel, broadcast.WithLogger(k.log))
	}
	k.Events = events
	k.closers = append(k.closers, func(context.Context) error { return events.Close() })

	var (
		users  auth.UserDirectory
		tokens auth.TokenStore
		mdb    *mongodrv.Database
	)
	if cfg.Storage == StorageMongo || cfg.tokenStorage() == StorageMongo {
		if mdb, err = k.connectMongo(ctx, o); err != nil {
			return err
		}
	}
	switch cfg.Storage {
	case StorageMemory, "":
		users = auth.NewMemoryUsers()
		k.Roles, k.Permissions = acl.NewMemoryRoles(), acl.NewMemoryPermissions()
	case StorageMongo:
		stores := mongostore.New(mdb)
		users, k.Roles, k.Permissions = stores.Users, stores.Roles, stores.Permissions
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, cfg.Storage)
	}
	switch cfg.tokenStorage() {
	case StorageMemory, "":
		tokens = auth.NewMemoryTokens()
	case StorageMongo:
		tokens = mongostore.NewTokens(mdb)
	case StoragePostgres:
		if tokens, err = k.connectPostgres(ctx, o); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, cfg.tokenStorage())
	}

	k.ACL = acl.NewEngine(k.Roles,
		acl.WithLogger(o.log),
		acl.WithMetrics(k.Metrics),
		acl.WithMemo(cfg.ACLMemoSize, cfg.ACLMemoTTL))
	if cfg.ACLSeed {
		if err := acl.Seed(ctx, k.Roles, k.Permissions, o.log); err != nil {
			return err
		}
	}
	listenCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	k.cancel = cancel
	sub := events.Subscribe(listenCtx)
	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		k.ACL.Listen(listenCtx, sub)
	}()

	managerOpts := []auth.Option{
		auth.WithLogger(o.log),
		auth.WithMetrics(k.Metrics),
		auth.WithResolveTTL(cfg.ResolveTTL),
		auth.WithMagicLinkTTL(cfg.MagicLinkTTL),
		auth.WithLinkBuilder(o.links),
	}
	if cfg.LoginAttempts > 0 {
		limiter, err := k.loginLimiter(cfg, rdb)
		if err != nil {
			return err
		}
		managerOpts = append(managerOpts, auth.WithLoginLimiter(limiter))
	}

	validator := totp.NewValidator()
	if o.totp.Skew > 0 {
		validator.Skew = o.totp.Skew
	}
	managerOpts = append(managerOpts, auth.WithOTPValidator(validator))
	if o.totp.EncryptionKey != "" {
		cipher, err := totp.NewCipher(o.totp.EncryptionKey)
		if err != nil {
			return errors.Join(ErrInitFailed, err)
		}
		managerOpts = append(managerOpts, auth.WithTwoFactorCipher(cipher))
	}

	deps := auth.Deps{
		Users:      users,
		Tokens:     tokens,
		Passwords:  passwords,
		JWT:        codec,
		Flags:      k.Flags,
		Cache:      store,
		LinkSecret: cfg.LinkSecret,
	}
	if deps.Mailer, err = k.mailer(o); err != nil {
		return err
	}
	if k.Auth, err = auth.NewManager(deps, managerOpts...); err != nil {
		return errors.Join(ErrInitFailed, err)
	}
	return nil
}

func (k *Kit) connectMongo(ctx context.Context, o options) (*mongodrv.Database, error) {
	if o.mongo == nil {
		return nil, fmt.Errorf("%w: mongo", ErrMissingBackendConf)
	}
	db, err := mongo.NewWithDatabase(ctx, *o.mongo)
	if err != nil {
		return nil, err
	}
	client := db.Client()
	k.closers = append(k.closers, client.Disconnect)
	k.Health["mongo"] = mongo.Healthcheck(client, mongo.WithHealthTimeout(o.mongo.HealthTimeout))
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		return nil, err
	}
	return db, nil
}

func (k *Kit) connectPostgres(ctx context.Context, o options) (*pgstore.Tokens, error) {
	if o.pg == nil {
		return nil, fmt.Errorf("%w: postgres", ErrMissingBackendConf)
	}
	pool, err := pg.Connect(ctx, *o.pg)
	if err != nil {
		return nil, err
	}
	k.closers = append(k.closers, func(context.Context) error { pool.Close(); return nil })
	k.Health["postgres"] = pg.Healthcheck(pool)

	db := pg.OpenDB(pool)
	k.closers = append(k.closers, func(context.Context) error { return db.Close() })
	if err := pg.Migrate(ctx, db, pgstore.Migrations(), *o.pg, o.log); err != nil {
		return nil, err
	}
	return pgstore.NewTokens(db), nil
}

func (k *Kit) loginLimiter(cfg Config, rdb *goredis.Client) (*ratelimiter.Bucket, error) {
	var store ratelimiter.Store
	if rdb != nil {
		store = ratelimiter.NewRedisStore(rdb, ratelimiter.WithKeyPrefix(cfg.ServiceName+":ratelimit:"))
	} else {
		mem := ratelimiter.NewMemoryStore()
		k.closers = append(k.closers, func(context.Context) error { return mem.Close() })
		store = mem
	}
	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
		Capacity:       cfg.LoginAttempts,
		RefillRate:     1,
		RefillInterval: cfg.LoginRefill,
	})
	if err != nil {
		return nil, errors.Join(ErrInitFailed, err)
	}
	return limiter, nil
}

// mailer returns nil when nothing can be delivered; the manager then skips
// every mail-dependent flow.
func (k *Kit) mailer(o options) (email.Sender, error) {
	sender := o.sender
	if sender == nil {
		switch {
		case o.email.PostmarkServerToken != "" && o.email.PostmarkAccountToken != "":
			pm, err := email.NewPostmark(o.email)
			if err != nil {
				return nil, err
			}
			sender = pm
		case o.email.DevOutputDir != "":
			sender = email.NewDevSender(o.email.DevOutputDir)
		default:
			return nil, nil
		}
	}
	d := email.NewDispatcher(sender,
		email.WithWorkers(o.email.Workers),
		email.WithQueueSize(o.email.QueueSize),
		email.WithLogger(o.log),
		email.WithMetrics(k.Metrics))
	k.closers = append(k.closers, d.Close)
	return d, nil
}

// Check runs every health check and joins the failures.
func (k *Kit) Check(ctx context.Context) error {
	var errs []error
	for name, check := range k.Health {
		if err := check(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Close stops the ACL listener, drains queued mail and closes backends in
// reverse order of opening. It is safe to call more than once.
func (k *Kit) Close(ctx context.Context) error {
	k.once.Do(func() {
		if k.cancel != nil {
			k.cancel()
		}
		var errs []error
		for i := len(k.closers) - 1; i >= 0; i-- {
			if err := k.closers[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		k.wg.Wait()
		k.err = errors.Join(errs...)
		if k.err != nil {
			k.log.ErrorContext(ctx, "authkit closed with errors", logger.Error(k.err))
		}
	})
	return k.err
}
