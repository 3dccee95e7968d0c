package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/mattcknight/cursor-rules-mcp/errors"
	"github.com/mattcknight/cursor-rules-mcp/git"
)

// Environment variables.
const (
	EnvConfigFile     = "CURSOR_RULES_CONFIG"
	EnvRepoURL        = "CURSOR_RULES_REPO_URL"
	EnvRef            = "CURSOR_RULES_REF"
	EnvTTL            = "CURSOR_RULES_TTL"
	EnvFetchTimeout   = "CURSOR_RULES_FETCH_TIMEOUT"
	EnvCacheDir       = "CURSOR_RULES_CACHE_DIR"
	EnvFetcher        = "CURSOR_RULES_FETCHER"
	EnvUsername       = "CURSOR_RULES_USERNAME"
	EnvToken          = "CURSOR_RULES_TOKEN"
	EnvSSHKey         = "CURSOR_RULES_SSH_KEY"
	EnvSSHKeyPassword = "CURSOR_RULES_SSH_KEY_PASSWORD"
	EnvLogLevel       = "CURSOR_RULES_LOG_LEVEL"
	EnvLogFormat      = "CURSOR_RULES_LOG_FORMAT"
)

// Flag names.
const (
	FlagConfig       = "config"
	FlagRepoURL      = "repo-url"
	FlagRef          = "ref"
	FlagTTL          = "ttl"
	FlagFetchTimeout = "fetch-timeout"
	FlagCacheDir     = "cache-dir"
	FlagFetcher      = "fetcher"
	FlagSSHKey       = "ssh-key"
	FlagLogLevel     = "log-level"
	FlagLogFormat    = "log-format"
	FlagAutoRefresh  = "auto-refresh"
	FlagMetricsAddr  = "metrics-addr"
)

// RegisterFlags adds the flags shared by every command to fs. Tokens are
// read from the environment only.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagConfig, "", "config file (.cue, .json, .yaml); env "+EnvConfigFile)
	fs.String(FlagRepoURL, "", "rules repository URL; env "+EnvRepoURL)
	fs.String(FlagRef, "", "branch, tag or commit to check out; env "+EnvRef)
	fs.Duration(FlagTTL, d.TTL, "maximum mirror age before a refresh; env "+EnvTTL)
	fs.Duration(FlagFetchTimeout, d.FetchTimeout, "upper bound for one clone or pull; env "+EnvFetchTimeout)
	fs.String(FlagCacheDir, "", "base directory for mirrors; env "+EnvCacheDir)
	fs.String(FlagFetcher, string(d.Fetcher), "fetcher implementation: cli or gogit; env "+EnvFetcher)
	fs.String(FlagSSHKey, "", "private key for SSH remotes; env "+EnvSSHKey)
	fs.String(FlagLogLevel, d.Log.Level, "log level: debug, info, warn, error; env "+EnvLogLevel)
	fs.String(FlagLogFormat, d.Log.Format, "log format: text or json; env "+EnvLogFormat)
}

// RegisterServeFlags adds the flags only the server uses.
func RegisterServeFlags(fs *pflag.FlagSet) {
	fs.Duration(FlagAutoRefresh, 0, "refresh the mirror in the background at this interval (0 disables)")
	fs.String(FlagMetricsAddr, "", "serve Prometheus metrics on this address, e.g. 127.0.0.1:9464")
}

// Load merges defaults, the config file, the environment and fs (which may
// be nil) and validates the result.
func Load(fs *pflag.FlagSet) (Config, error) {
	cfg := Default()

	path := os.Getenv(EnvConfigFile)
	if v, ok := changedString(fs, FlagConfig); ok {
		path = v
	}
	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	applyFlags(&cfg, fs)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.WithHints(
			errors.WithContext(
				errors.Wrap(err, errors.CodeInvalidConfig, "failed to read config file"),
				"file", path,
			),
			"check the path given with --config or "+EnvConfigFile,
		)
	}

	fc, err := parseFile(path, data)
	if err != nil {
		return err
	}

	set(&cfg.RepoURL, fc.RepoURL)
	set(&cfg.Ref, fc.Ref)
	set(&cfg.CacheDir, fc.CacheDir)
	set(&cfg.Auth.Username, fc.Auth.Username)
	set(&cfg.Auth.Token, fc.Auth.Token)
	set(&cfg.Auth.SSHKey, fc.Auth.SSHKey)
	set(&cfg.Auth.SSHKeyPassword, fc.Auth.SSHKeyPassword)
	set(&cfg.Log.Level, fc.Log.Level)
	set(&cfg.Log.Format, fc.Log.Format)
	set(&cfg.MetricsAddr, fc.MetricsAddr)
	if fc.Fetcher != "" {
		cfg.Fetcher = git.Kind(fc.Fetcher)
	}

	durations := []struct {
		field string
		raw   string
		dst   *time.Duration
	}{
		{"ttl", fc.TTL, &cfg.TTL},
		{"fetch_timeout", fc.FetchTimeout, &cfg.FetchTimeout},
		{"auto_refresh", fc.AutoRefresh, &cfg.AutoRefresh},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return errors.WithContextMap(
				errors.Wrapf(err, errors.CodeInvalidConfig, "invalid duration for %s", d.field),
				map[string]interface{}{"file": path, "value": d.raw},
			)
		}
		*d.dst = v
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setEnv(&cfg.RepoURL, EnvRepoURL)
	setEnv(&cfg.Ref, EnvRef)
	setEnv(&cfg.CacheDir, EnvCacheDir)
	setEnv(&cfg.Auth.Username, EnvUsername)
	setEnv(&cfg.Auth.Token, EnvToken)
	setEnv(&cfg.Auth.SSHKey, EnvSSHKey)
	setEnv(&cfg.Auth.SSHKeyPassword, EnvSSHKeyPassword)
	setEnv(&cfg.Log.Level, EnvLogLevel)
	setEnv(&cfg.Log.Format, EnvLogFormat)
	if v := strings.TrimSpace(os.Getenv(EnvFetcher)); v != "" {
		cfg.Fetcher = git.Kind(strings.ToLower(v))
	}

	for env, dst := range map[string]*time.Duration{
		EnvTTL:          &cfg.TTL,
		EnvFetchTimeout: &cfg.FetchTimeout,
	} {
		raw := strings.TrimSpace(os.Getenv(env))
		if raw == "" {
			continue
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			return errors.WithHints(
				errors.WithContext(
					errors.Wrapf(err, errors.CodeInvalidConfig, "invalid duration in %s", env),
					"value", raw,
				),
				"durations use Go syntax such as \"30m\" or \"1h\"",
			)
		}
		*dst = v
	}
	return nil
}

func applyFlags(cfg *Config, fs *pflag.FlagSet) {
	if fs == nil {
		return
	}

	for name, dst := range map[string]*string{
		FlagRepoURL:     &cfg.RepoURL,
		FlagRef:         &cfg.Ref,
		FlagCacheDir:    &cfg.CacheDir,
		FlagSSHKey:      &cfg.Auth.SSHKey,
		FlagLogLevel:    &cfg.Log.Level,
		FlagLogFormat:   &cfg.Log.Format,
		FlagMetricsAddr: &cfg.MetricsAddr,
	} {
		if v, ok := changedString(fs, name); ok {
			*dst = v
		}
	}
	if v, ok := changedString(fs, FlagFetcher); ok {
		cfg.Fetcher = git.Kind(v)
	}

	for name, dst := range map[string]*time.Duration{
		FlagTTL:          &cfg.TTL,
		FlagFetchTimeout: &cfg.FetchTimeout,
		FlagAutoRefresh:  &cfg.AutoRefresh,
	} {
		if f := fs.Lookup(name); f != nil && f.Changed {
			if v, err := fs.GetDuration(name); err == nil {
				*dst = v
			}
		}
	}
}

// changedString returns the value of a string flag the user set explicitly.
func changedString(fs *pflag.FlagSet, name string) (string, bool) {
	if fs == nil {
		return "", false
	}
	f := fs.Lookup(name)
	if f == nil || !f.Changed {
		return "", false
	}
	return f.Value.String(), true
}

func set(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setEnv(dst *string, env string) {
	set(dst, strings.TrimSpace(os.Getenv(env)))
}
