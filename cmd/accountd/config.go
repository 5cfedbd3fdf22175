// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 accountd Contributors

package main

import (
	"os"
	"slices"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/notify"
	"github.com/accountd/accountd/internal/xdg"
)

// Default values for serve flags.
const (
	defaultHTTPAddr       = ":3000"
	defaultMetricsAddr    = ":9100"
	defaultLogFormat      = "json"
	defaultLogLevel       = "info"
	defaultStore          = storePostgres
	defaultNotifier       = notifierBrevo
	defaultRequestTimeout = 10 * time.Second
	defaultShutdownWait   = 15 * time.Second
)

const (
	storePostgres = "postgres"
	storeMemory   = "memory"

	notifierBrevo = "brevo"
	notifierLog   = "log"
)

// serveConfig holds everything the serve command needs.
// File values are overridden by flags that were set explicitly.
type serveConfig struct {
	HTTPAddr       string        `koanf:"http-addr"`
	MetricsAddr    string        `koanf:"metrics-addr"`
	LogFormat      string        `koanf:"log-format"`
	LogLevel       string        `koanf:"log-level"`
	Store          string        `koanf:"store"`
	Hasher         string        `koanf:"hasher"`
	BcryptCost     int           `koanf:"bcrypt-cost"`
	Notifier       string        `koanf:"notifier"`
	BrevoURL       string        `koanf:"brevo-url"`
	MailFrom       string        `koanf:"mail-from"`
	MailFromName   string        `koanf:"mail-from-name"`
	RequestTimeout time.Duration `koanf:"request-timeout"`
	ShutdownWait   time.Duration `koanf:"shutdown-timeout"`
	CORSOrigins    []string      `koanf:"cors-origins"`

	// Secrets come from the environment only.
	DatabaseURL string `koanf:"-"`
	BrevoAPIKey string `koanf:"-"`
}

// addServeFlags registers the serve flags with their defaults.
func addServeFlags(fs *pflag.FlagSet) {
	fs.String("http-addr", defaultHTTPAddr, "HTTP API listen address")
	fs.String("metrics-addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", defaultLogFormat, "log format (json or text)")
	fs.String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	fs.String("store", defaultStore, "account store (postgres or memory)")
	fs.String("hasher", account.AlgorithmArgon2id, "password hashing algorithm (argon2id or bcrypt)")
	fs.Int("bcrypt-cost", account.DefaultBcryptCost, "bcrypt cost when hasher is bcrypt")
	fs.String("notifier", defaultNotifier, "reset code delivery (brevo or log)")
	fs.String("brevo-url", notify.DefaultBrevoURL, "Brevo transactional email endpoint")
	fs.String("mail-from", "", "sender address for reset emails (falls back to MAILER_EMAIL)")
	fs.String("mail-from-name", notify.DefaultSenderName, "sender display name for reset emails")
	fs.Duration("request-timeout", defaultRequestTimeout, "upper bound on one account operation")
	fs.Duration("shutdown-timeout", defaultShutdownWait, "how long to wait for in-flight requests on shutdown")
	fs.StringSlice("cors-origins", []string{"*"}, "allowed CORS origins")
}

// loadServeConfig merges the config file, the flags and the environment.
// Without --config the XDG default file is read when present.
func loadServeConfig(configFile string, fs *pflag.FlagSet) (*serveConfig, error) {
	k := koanf.New(".")

	configFile, err := xdg.ResolveConfigFile(configFile)
	if err != nil {
		return nil, err
	}
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("config_file", configFile).Wrap(err)
		}
	}
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "load flags").Wrap(err)
	}

	cfg := &serveConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").With("operation", "decode config").Wrap(err)
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.BrevoAPIKey = os.Getenv("BREVO_API_KEY")
	if cfg.MailFrom == "" {
		cfg.MailFrom = os.Getenv("MAILER_EMAIL")
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (cfg *serveConfig) Validate() error {
	invalid := func(field, format string, args ...any) error {
		return oops.Code("CONFIG_INVALID").With("field", field).Errorf(format, args...)
	}

	if cfg.HTTPAddr == "" {
		return invalid("http-addr", "http-addr is required")
	}
	if !slices.Contains([]string{"json", "text"}, cfg.LogFormat) {
		return invalid("log-format", "log-format must be 'json' or 'text', got %q", cfg.LogFormat)
	}
	if !slices.Contains([]string{storePostgres, storeMemory}, cfg.Store) {
		return invalid("store", "store must be %q or %q, got %q", storePostgres, storeMemory, cfg.Store)
	}
	if !slices.Contains([]string{account.AlgorithmArgon2id, account.AlgorithmBcrypt}, cfg.Hasher) {
		return invalid("hasher", "hasher must be %q or %q, got %q", account.AlgorithmArgon2id, account.AlgorithmBcrypt, cfg.Hasher)
	}
	if !slices.Contains([]string{notifierBrevo, notifierLog}, cfg.Notifier) {
		return invalid("notifier", "notifier must be %q or %q, got %q", notifierBrevo, notifierLog, cfg.Notifier)
	}
	if cfg.RequestTimeout <= 0 {
		return invalid("request-timeout", "request-timeout must be positive")
	}
	if cfg.ShutdownWait <= 0 {
		return invalid("shutdown-timeout", "shutdown-timeout must be positive")
	}
	if cfg.Store == storePostgres && cfg.DatabaseURL == "" {
		return invalid("DATABASE_URL", "DATABASE_URL environment variable is required with the postgres store")
	}
	if cfg.Notifier == notifierBrevo {
		if cfg.BrevoAPIKey == "" {
			return invalid("BREVO_API_KEY", "BREVO_API_KEY environment variable is required with the brevo notifier")
		}
		if cfg.MailFrom == "" {
			return invalid("mail-from", "mail-from (or MAILER_EMAIL) is required with the brevo notifier")
		}
	}
	return nil
}
