// Package authkit assembles the authentication and authorization core from
// the packages under pkg/: password hashing, JWT sessions with server-side
// token tracking, the role/permission engine and the mail and storage
// backends they depend on.
//
// Configuration comes from environment variables:
//
//	kit, err := authkit.FromEnv(ctx)
//	if err != nil {
//		return err
//	}
//	defer kit.Close(context.Background())
//
//	res, err := kit.Auth.Login(ctx, auth.LoginParams{Identifier: email, Password: pass})
//
// or explicitly, which is how tests build it:
//
//	kit, err := authkit.New(ctx, authkit.Config{
//		JWTSecret:      "...",
//		PasswordSecret: "...",
//		Storage:        authkit.StorageMongo,
//		TokenStorage:   authkit.StoragePostgres,
//		UseRedis:       true,
//	},
//		authkit.WithMongo(mongoCfg),
//		authkit.WithPostgres(pgCfg),
//		authkit.WithRedis(redisCfg),
//		authkit.WithLogger(log),
//	)
//
// HTTP handlers are protected with auth.Middleware and auth.RequireAccess,
// using kit.Auth and kit.ACL.
package authkit
