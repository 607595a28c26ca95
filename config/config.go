package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/zllovesuki/custsync/auth"

	"github.com/joho/godotenv"
)

// Config holds the process configuration read at startup
type Config struct {
	Environment auth.Environment

	StripeKey     string
	PostgresURI   string
	JWTSigningKey string
	AMQPURI       string
	SentryDSN     string
	ListenAddr    string
	CORSOrigins   []string
}

// DotFile returns the .env file for the running environment
func DotFile(env auth.Environment) string {
	if env == auth.EnvProduction {
		return ".env.production"
	}
	return ".env.development"
}

// EnvironmentFromOS maps ENV to an auth.Environment
func EnvironmentFromOS() auth.Environment {
	if os.Getenv("ENV") == "production" {
		return auth.EnvProduction
	}
	return auth.EnvDevelopment
}

// Load reads the dotFile for the running environment into the process environment, then builds the Config.
// A missing dotFile is not an error; variables already set in the environment take precedence.
func Load() (*Config, error) {
	env := EnvironmentFromOS()
	if err := godotenv.Load(DotFile(env)); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return FromEnv(env, os.Getenv)
}

// FromEnv builds a Config from getenv and checks the startup preconditions
func FromEnv(env auth.Environment, getenv func(string) string) (*Config, error) {
	c := &Config{
		Environment:   env,
		StripeKey:     getenv("STRIPE_SECRET_KEY"),
		PostgresURI:   getenv("POSTGRES_URI"),
		JWTSigningKey: getenv("JWT_SIGNING_KEY"),
		AMQPURI:       getenv("AMQP_URI"),
		SentryDSN:     getenv("SENTRY_DSN"),
		ListenAddr:    getenv("LISTEN_ADDR"),
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":42069"
	}
	for _, origin := range strings.Split(getenv("CORS_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			c.CORSOrigins = append(c.CORSOrigins, origin)
		}
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) validate() error {
	if c.StripeKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is not defined")
	}
	if c.PostgresURI == "" {
		return fmt.Errorf("POSTGRES_URI is not defined")
	}
	if c.JWTSigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY is not defined")
	}
	return nil
}
