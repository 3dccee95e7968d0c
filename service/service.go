// Package service is the boundary between the rules repository and its
// callers. Every operation first makes sure the local mirror is fresh and
// then reads rules from it. Errors leaving the package are always
// PlatformErrors.
package service

import (
	"context"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/mattcknight/cursor-rules-mcp/cache"
	"github.com/mattcknight/cursor-rules-mcp/errors"
	"github.com/mattcknight/cursor-rules-mcp/logging"
	"github.com/mattcknight/cursor-rules-mcp/rules"
)

// RuleResult is the outcome of GetRule. A name that does not exist is not
// an error; Found is false and Alternatives lists the known names.
type RuleResult = rules.Resolution

// Readme is the repository README and the file it was read from.
type Readme struct {
	Content string `json:"content"`
	File    string `json:"file"`
}

// Mirror is the part of cache.Mirror the service needs.
type Mirror interface {
	EnsureFresh(ctx context.Context, force bool) error
	Status() cache.Status
	Path() string
}

// Service serves rules from a mirrored repository.
type Service struct {
	mirror  Mirror
	locator *rules.Locator
	catalog *rules.Catalog
	logger  *logging.Logger
}

// Option configures a Service.
type Option func(*config)

type config struct {
	fs     billy.Filesystem
	logger *logging.Logger
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithFilesystem replaces the filesystem rules are read from. It must be
// rooted at the mirror. Defaults to the host filesystem at mirror.Path().
func WithFilesystem(fs billy.Filesystem) Option {
	return func(c *config) {
		c.fs = fs
	}
}

// New creates a Service reading rules from mirror.
func New(mirror Mirror, opts ...Option) *Service {
	cfg := &config{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.fs == nil {
		cfg.fs = osfs.New(mirror.Path())
	}

	logger := cfg.logger.WithComponent("service")
	return &Service{
		mirror:  mirror,
		locator: rules.NewLocator(cfg.fs, rules.WithLogger(logger)),
		catalog: rules.NewCatalog(cfg.fs, rules.WithLogger(logger)),
		logger:  logger,
	}
}

// GetRule returns the rule called name.
func (s *Service) GetRule(ctx context.Context, name string, force bool) (RuleResult, error) {
	defer s.trace(ctx, "get_rule", time.Now(), "rule", name)

	if err := s.mirror.EnsureFresh(ctx, force); err != nil {
		return RuleResult{}, boundary("get_rule", err)
	}

	res, err := s.locator.Resolve(name)
	if err != nil {
		return RuleResult{}, boundary("get_rule", errors.WithContext(err, "rule", name))
	}
	if !res.Found {
		s.logger.Debug(ctx, "rule not found", "rule", name, "alternatives", len(res.Alternatives))
	}
	return res, nil
}

// ListRules describes every rule in catalog order.
func (s *Service) ListRules(ctx context.Context, force bool) ([]rules.Descriptor, error) {
	defer s.trace(ctx, "list_rules", time.Now())

	if err := s.mirror.EnsureFresh(ctx, force); err != nil {
		return nil, boundary("list_rules", err)
	}

	descriptors, err := s.catalog.Describe()
	if err != nil {
		return nil, boundary("list_rules", err)
	}
	return descriptors, nil
}

// GetAllRules returns every rule concatenated, each wrapped in begin and end
// markers naming the rule and its file.
func (s *Service) GetAllRules(ctx context.Context, force bool) (string, error) {
	defer s.trace(ctx, "get_all_rules", time.Now())

	if err := s.mirror.EnsureFresh(ctx, force); err != nil {
		return "", boundary("get_all_rules", err)
	}

	all, err := s.catalog.ReadAll()
	if err != nil {
		return "", boundary("get_all_rules", err)
	}
	return all, nil
}

// GetReadme returns README.md from the rules root, or from the repository
// root when the rules root has none. A missing README is NOT_FOUND.
func (s *Service) GetReadme(ctx context.Context, force bool) (Readme, error) {
	defer s.trace(ctx, "get_readme", time.Now())

	if err := s.mirror.EnsureFresh(ctx, force); err != nil {
		return Readme{}, boundary("get_readme", err)
	}

	content, file, err := s.catalog.Readme()
	if err != nil {
		return Readme{}, boundary("get_readme", err)
	}
	return Readme{Content: content, File: file}, nil
}

// Refresh fetches the repository now. If a fetch is already running it waits
// for that one instead of starting another.
func (s *Service) Refresh(ctx context.Context) (cache.Status, error) {
	defer s.trace(ctx, "refresh", time.Now())

	if err := s.mirror.EnsureFresh(ctx, true); err != nil {
		return s.mirror.Status(), boundary("refresh", err)
	}
	return s.mirror.Status(), nil
}

// Status reports the mirror state without fetching.
func (s *Service) Status(_ context.Context) cache.Status {
	return s.mirror.Status()
}

func (s *Service) trace(ctx context.Context, op string, start time.Time, args ...any) {
	s.logger.Debug(ctx, "operation finished",
		append([]any{"operation", op, "duration_ms", time.Since(start).Milliseconds()}, args...)...)
}

// boundary converts err into the PlatformError returned to callers.
func boundary(op string, err error) error {
	if err == nil {
		return nil
	}

	var platformErr errors.PlatformError
	if !errors.As(err, &platformErr) {
		err = errors.Wrap(err, errors.CodeInternal, op+" failed")
	}
	return errors.WithContext(err, "operation", op)
}
