// Package config loads server configuration from the environment.
// Loads from .env file (godotenv), maps to Config struct via go-simpler/env struct tags.
package config
