// Package config loads application configuration from environment
// variables into tagged structs.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
// .env files feed the process environment, and env.Parse fills any
// struct with `env` field tags. MustLoad panics on failure and is meant
// for startup-critical configuration.
package config
