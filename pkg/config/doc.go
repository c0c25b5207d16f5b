// Package config loads typed configuration from the environment and holds
// runtime-adjustable settings.
//
// Static configuration is parsed with caarlos0/env from struct tags after an
// optional .env file is loaded with joho/godotenv. Load caches the parsed
// value per type:
//
//	var cfg authkit.Config
//	config.MustLoad(&cfg)
//
// Flags holds settings that may change while the process runs, addressed by
// dotted keys. Set stores the value first and then notifies subscribers, so a
// subscriber reading the key always sees the new value:
//
//	flags := config.NewFlags(map[string]any{"user.signup.enabled": true})
//	stop := flags.Subscribe("user.**", func(key string, v any) { ... })
//	defer stop()
//	flags.Set("user.signup.enabled", false)
package config
