// Package config loads the server configuration.
//
// Sources, lowest to highest precedence:
//
//  1. built-in defaults
//  2. a config file (CUE, JSON or YAML) checked against the embedded schema
//  3. CURSOR_RULES_* environment variables
//  4. command-line flags that were set explicitly
//
// The merged result is validated once and is read-only afterwards.
package config

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mattcknight/cursor-rules-mcp/cache"
	"github.com/mattcknight/cursor-rules-mcp/errors"
	"github.com/mattcknight/cursor-rules-mcp/git"
	"github.com/mattcknight/cursor-rules-mcp/logging"
)

// Config is the merged server configuration.
type Config struct {
	RepoURL      string        `json:"repo_url" validate:"required"`
	Ref          string        `json:"ref"`
	TTL          time.Duration `json:"ttl" validate:"gte=0"`
	FetchTimeout time.Duration `json:"fetch_timeout" validate:"gt=0"`
	CacheDir     string        `json:"cache_dir"`
	Fetcher      git.Kind      `json:"fetcher" validate:"oneof=cli gogit"`
	Auth         Auth          `json:"auth"`
	Log          Log           `json:"log"`

	// AutoRefresh refreshes the mirror in the background when positive.
	AutoRefresh time.Duration `json:"auto_refresh" validate:"gte=0"`

	// MetricsAddr serves Prometheus metrics when set, e.g. "127.0.0.1:9464".
	MetricsAddr string `json:"metrics_addr" validate:"omitempty,hostname_port"`
}

// Auth holds credentials for private repositories.
type Auth struct {
	Username       string `json:"username"`
	Token          string `json:"token"`
	SSHKey         string `json:"ssh_key" validate:"omitempty,file"`
	SSHKeyPassword string `json:"ssh_key_password"`
}

// Log configures the stderr logger.
type Log struct {
	Level  string `json:"level" validate:"oneof=debug info warn error"`
	Format string `json:"format" validate:"oneof=text json"`
}

// Default returns the built-in defaults. They match the defaults in
// schema.cue.
func Default() Config {
	return Config{
		TTL:          cache.DefaultTTL,
		FetchTimeout: cache.DefaultFetchTimeout,
		Fetcher:      git.KindCLI,
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks c and returns INVALID_CONFIGURATION listing every
// offending field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, errors.CodeInvalidConfig, "invalid configuration")
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, describeFieldError(fe))
	}

	perr := errors.WithContext(
		errors.Newf(errors.CodeInvalidConfig, "invalid configuration: %s", strings.Join(fields, "; ")),
		"fields", fields,
	)
	if c.RepoURL == "" {
		perr = errors.WithHints(perr,
			"set the rules repository with --repo-url or "+EnvRepoURL,
		)
	}
	return perr
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "file":
		return fmt.Sprintf("%s: file %q does not exist", field, fe.Value())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port, got %q", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s=%s (value %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
}

// MirrorPath returns where the mirror of RepoURL lives: under CacheDir when
// set, otherwise under the user cache directory.
func (c Config) MirrorPath() (string, error) {
	if c.CacheDir != "" {
		return cache.PathFor(c.CacheDir, c.RepoURL), nil
	}
	return cache.DefaultPath(c.RepoURL)
}

// Credentials returns the fetcher credentials.
func (c Config) Credentials() git.Credentials {
	return git.Credentials{
		Username:       c.Auth.Username,
		Token:          c.Auth.Token,
		SSHKeyPath:     c.Auth.SSHKey,
		SSHKeyPassword: c.Auth.SSHKeyPassword,
	}
}

// Logging returns the logger configuration writing to out.
func (c Config) Logging(out io.Writer) logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Output = out
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		cfg.Level = level
	}
	if format, err := logging.ParseFormat(c.Log.Format); err == nil {
		cfg.Format = format
	}
	return cfg
}
