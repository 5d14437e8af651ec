package main

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/Decode-Labs-Web3/decode-gateway/internal/logger"
)

const (
	defaultListenAddr      = "localhost:8000"
	defaultLoggingLevel    = logger.LevelInfo
	defaultIdentityAddr    = "http://localhost:3000"
	defaultEnvironment     = logger.EnvProduction
	defaultUpstreamTimeout = 7 * time.Second
	defaultInternalMarker  = "decode-web"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the gateway will be run
	ListenAddr string

	// Identity backend base URL to forward to
	IdentityAddr string

	// Time box for every identity backend call; the gateway fails closed when
	// it elapses
	UpstreamTimeout time.Duration

	// Secret key
	// Verification tickets are sealed into cookies with a key derived from it
	SecretKey string

	// Marker value the web client sends on every API call
	InternalMarker string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:        defaultLoggingLevel,
		ListenAddr:      defaultListenAddr,
		IdentityAddr:    defaultIdentityAddr,
		UpstreamTimeout: defaultUpstreamTimeout,
		InternalMarker:  defaultInternalMarker,
		Environment:     defaultEnvironment,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		c.LoadEnv(func(key string) string {
			return envMap[key]
		})
		return nil
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) {
		return func(value string) {
			if value != "" {
				*o = value
			}
		}
	}
	setDuration := func(o *time.Duration) func(value string) {
		return func(value string) {
			if value == "" {
				return
			}
			if d, err := time.ParseDuration(value); err == nil {
				*o = d
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":              setString(&c.ListenAddr),
		"IDENTITY_BACKEND_ADDRESS": setString(&c.IdentityAddr),
		"UPSTREAM_TIMEOUT":         setDuration(&c.UpstreamTimeout),
		"SECRET_KEY":               setString(&c.SecretKey),
		"INTERNAL_MARKER":          setString(&c.InternalMarker),
		"LOG_LEVEL":                setString(&c.LogLevel),
		"ENVIRONMENT":              setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("gateway", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.IdentityAddr, "identity", "i", c.IdentityAddr, "Identity backend base URL")
	fs.DurationVarP(&c.UpstreamTimeout, "upstream-timeout", "t", c.UpstreamTimeout, "Identity backend call timeout")
	fs.StringVarP(&c.SecretKey, "secret-key", "s", c.SecretKey, "Secret key")
	fs.StringVarP(&c.InternalMarker, "internal-marker", "m", c.InternalMarker, "Internal request marker value")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}
