// Package config provides functionality for managing configuration options
// for the application using defaults, a YAML file, environment variables and
// command-line flags, in increasing order of precedence.
package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Options holds the configuration values for the application.
type Options struct {
	// Address defines the server's listening address (ip:port).
	Address string `koanf:"address" validate:"required"`

	// DatabaseDSN holds the backend connection string. Empty runs on the
	// fallback store only.
	DatabaseDSN string `koanf:"database_dsn"`

	// ClientWait bounds how long an operation waits for the backend client.
	ClientWait time.Duration `koanf:"client_wait" validate:"gt=0"`

	LogLevel       string   `koanf:"log_level" validate:"oneof=debug info warn error"`
	AllowedOrigins []string `koanf:"allowed_origins"`

	Fallback FallbackOptions `koanf:"fallback"`
	TLS      TLSOptions      `koanf:"tls"`
	Breaker  BreakerOptions  `koanf:"breaker"`

	// Config is the path to the config file.
	Config string `koanf:"-"`
}

// FallbackOptions selects the local store used when the backend is unavailable.
type FallbackOptions struct {
	Driver        string        `koanf:"driver" validate:"oneof=file badger"`
	Path          string        `koanf:"path" validate:"required"`
	PruneInterval time.Duration `koanf:"prune_interval" validate:"gt=0"`
}

// TLSOptions enables HTTPS when both files are set.
type TLSOptions struct {
	Cert string `koanf:"cert" validate:"required_with=Key"`
	Key  string `koanf:"key" validate:"required_with=Cert"`
}

// Enabled reports whether the server should listen with TLS.
func (t TLSOptions) Enabled() bool { return t.Cert != "" && t.Key != "" }

// BreakerOptions tunes the circuit breaker in front of the backend.
type BreakerOptions struct {
	MaxRequests         uint32        `koanf:"max_requests" validate:"gt=0"`
	Interval            time.Duration `koanf:"interval"`
	Timeout             time.Duration `koanf:"timeout" validate:"gt=0"`
	ConsecutiveFailures uint32        `koanf:"consecutive_failures" validate:"gt=0"`
}

// Defaults returns the options used when nothing else is configured.
func Defaults() Options {
	return Options{
		Address:        "localhost:8080",
		ClientWait:     800 * time.Millisecond,
		LogLevel:       "info",
		AllowedOrigins: []string{"http://localhost:5173"},
		Fallback: FallbackOptions{
			Driver:        "file",
			Path:          "hacklearn-data.json",
			PruneInterval: time.Hour,
		},
		Breaker: BreakerOptions{
			MaxRequests:         1,
			Interval:            time.Minute,
			Timeout:             30 * time.Second,
			ConsecutiveFailures: 5,
		},
		Config: "config.yaml",
	}
}

// envKeys maps lower-cased variable names to config paths.
var envKeys = map[string]string{
	"hacklearn_address":                      "address",
	"server_address":                         "address",
	"hacklearn_database_dsn":                 "database_dsn",
	"database_dsn":                           "database_dsn",
	"hacklearn_client_wait":                  "client_wait",
	"hacklearn_log_level":                    "log_level",
	"hacklearn_allowed_origins":              "allowed_origins",
	"hacklearn_fallback_driver":              "fallback.driver",
	"hacklearn_fallback_path":                "fallback.path",
	"hacklearn_fallback_prune_interval":      "fallback.prune_interval",
	"hacklearn_tls_cert":                     "tls.cert",
	"hacklearn_tls_key":                      "tls.key",
	"hacklearn_breaker_max_requests":         "breaker.max_requests",
	"hacklearn_breaker_interval":             "breaker.interval",
	"hacklearn_breaker_timeout":              "breaker.timeout",
	"hacklearn_breaker_consecutive_failures": "breaker.consecutive_failures",
}

// envTransform returns the config path for an environment variable, or an
// empty string to skip it.
func envTransform(key string) string {
	return envKeys[strings.ToLower(key)]
}

// Parse parses the command-line flags, the config file and environment
// variables. It returns a pointer to the Options struct containing the
// resulting configuration values.
func Parse() *Options {
	opts, err := Load(os.Args[1:])
	if err != nil {
		log.Fatalf("error while loading config: %v", err)
	}
	return opts
}

// Load builds the options from args and the process environment.
func Load(args []string) (*Options, error) {
	defaults := Defaults()
	fs := flag.NewFlagSet("hacklearn", flag.ContinueOnError)
	flags := Defaults()
	fs.StringVar(&flags.Address, "a", defaults.Address, "run on ip:port server")
	fs.StringVar(&flags.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&flags.Config, "config", defaults.Config, "path to config file")
	fs.StringVar(&flags.Config, "c", defaults.Config, "path to config file (shorthand)")
	fs.StringVar(&flags.LogLevel, "l", defaults.LogLevel, "log level")
	fs.StringVar(&flags.Fallback.Driver, "fallback-driver", defaults.Fallback.Driver, "fallback store driver (file|badger)")
	fs.StringVar(&flags.Fallback.Path, "fallback-path", defaults.Fallback.Path, "fallback store location")
	fs.StringVar(&flags.TLS.Cert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&flags.TLS.Key, "tls-key", "", "TLS key file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := flags.Config
	if p := os.Getenv("CONFIG"); p != "" && !isSet(fs, "config", "c") {
		path = p
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := splitList(k, "allowed_origins"); err != nil {
		return nil, err
	}

	opts := &Options{}
	if err := k.Unmarshal("", opts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	opts.Config = path

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			opts.Address = flags.Address
		case "d":
			opts.DatabaseDSN = flags.DatabaseDSN
		case "l":
			opts.LogLevel = flags.LogLevel
		case "fallback-driver":
			opts.Fallback.Driver = flags.Fallback.Driver
		case "fallback-path":
			opts.Fallback.Path = flags.Fallback.Path
		case "tls-cert":
			opts.TLS.Cert = flags.TLS.Cert
		case "tls-key":
			opts.TLS.Key = flags.TLS.Key
		}
	})

	if err := validator.New().Struct(opts); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return opts, nil
}

// splitList turns a comma-separated string at path, as read from the
// environment, into a list.
func splitList(k *koanf.Koanf, path string) error {
	v, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	parts := make([]string, 0)
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if err := k.Set(path, parts); err != nil {
		return fmt.Errorf("failed to set %s: %w", path, err)
	}
	return nil
}

func isSet(fs *flag.FlagSet, names ...string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		for _, n := range names {
			if f.Name == n {
				set = true
			}
		}
	})
	return set
}
