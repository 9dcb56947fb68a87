package main

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/taskward/internal/logger"
)

const (
	defaultListenAddr   = "localhost:8000"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProduction
	defaultCORSOrigin   = "http://localhost:3000"
	defaultAccessTTL    = "15m"
	defaultRefreshTTL   = "7d"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Address on which the service will be run
	ListenAddr string

	// Database to connect to
	DatabaseDSN string

	// Secrets to sign JWT tokens with
	// Access and refresh tokens are signed with different keys
	AccessSecret  string
	RefreshSecret string

	// Token lifetimes as '<integer><unit>' strings (s, m, h, d)
	AccessTTL  string
	RefreshTTL string

	// Bcrypt cost factor for password hashing, zero means library default
	BcryptCost int

	// Allowed CORS origin for browser clients
	CORSOrigin string

	// Environment
	Environment string
}

func NewConfig() *Config {
	return &Config{
		LogLevel:    defaultLoggingLevel,
		ListenAddr:  defaultListenAddr,
		Environment: defaultEnvironment,
		CORSOrigin:  defaultCORSOrigin,
		AccessTTL:   defaultAccessTTL,
		RefreshTTL:  defaultRefreshTTL,
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
	setInt := func(o *int) func(value string) {
		return func(value string) {
			if value == "" {
				return
			}
			if parsed, err := strconv.Atoi(value); err == nil {
				*o = parsed
			}
		}
	}

	envMap := map[string]func(string){
		"RUN_ADDRESS":            setString(&c.ListenAddr),
		"DATABASE_URI":           setString(&c.DatabaseDSN),
		"JWT_ACCESS_SECRET":      setString(&c.AccessSecret),
		"JWT_REFRESH_SECRET":     setString(&c.RefreshSecret),
		"JWT_ACCESS_EXPIRES_IN":  setString(&c.AccessTTL),
		"JWT_REFRESH_EXPIRES_IN": setString(&c.RefreshTTL),
		"BCRYPT_COST":            setInt(&c.BcryptCost),
		"CORS_ORIGIN":            setString(&c.CORSOrigin),
		"LOG_LEVEL":              setString(&c.LogLevel),
		"ENVIRONMENT":            setString(&c.Environment),
	}

	for key, parseFn := range envMap {
		parseFn(getenv(key))
	}
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("taskward", pflag.ContinueOnError)

	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVar(&c.AccessSecret, "access-secret", c.AccessSecret, "Secret to sign access tokens")
	fs.StringVar(&c.RefreshSecret, "refresh-secret", c.RefreshSecret, "Secret to sign refresh tokens")
	fs.StringVar(&c.AccessTTL, "access-ttl", c.AccessTTL, "Access token lifetime, e.g. 15m")
	fs.StringVar(&c.RefreshTTL, "refresh-ttl", c.RefreshTTL, "Refresh token lifetime, e.g. 7d")
	fs.IntVar(&c.BcryptCost, "bcrypt-cost", c.BcryptCost, "Bcrypt cost factor (0 for library default)")
	fs.StringVar(&c.CORSOrigin, "cors-origin", c.CORSOrigin, "Allowed CORS origin")
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")

	return fs.Parse(args)
}

// Validate checks options that have no sane defaults
func (c *Config) Validate() error {
	switch {
	case c.DatabaseDSN == "":
		return errors.New("database DSN is required")
	case c.AccessSecret == "":
		return errors.New("access token secret is required")
	case c.RefreshSecret == "":
		return errors.New("refresh token secret is required")
	case c.AccessSecret == c.RefreshSecret:
		return errors.New("access and refresh secrets must differ")
	}

	return nil
}
