// Package mcp exposes the rules service over the Model Context Protocol.
//
// Tools:
//
//	get_rule       {name, force_refresh}  one rule by logical name
//	list_rules     {force_refresh}        rule descriptors as JSON
//	get_all_rules  {force_refresh}        every rule, delimited
//	get_readme     {force_refresh}        the repository README
//	refresh_rules  {}                     fetch now
//	cache_status   {}                     mirror state as JSON
//
// Resources are rules://readme and the template rules://{name}; the
// apply_rules prompt combines all rules with a task description.
//
// Failures come back as tool results flagged as errors, with remediation
// hints inline. They never stop the server.
package mcp

import (
	"context"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mattcknight/cursor-rules-mcp/cache"
	"github.com/mattcknight/cursor-rules-mcp/logging"
	"github.com/mattcknight/cursor-rules-mcp/rules"
	"github.com/mattcknight/cursor-rules-mcp/service"
)

// ServerName is announced to clients during initialization.
const ServerName = "cursor-rules-mcp"

// Rules is the service the server delegates to. *service.Service
// implements it.
type Rules interface {
	GetRule(ctx context.Context, name string, force bool) (service.RuleResult, error)
	ListRules(ctx context.Context, force bool) ([]rules.Descriptor, error)
	GetAllRules(ctx context.Context, force bool) (string, error)
	GetReadme(ctx context.Context, force bool) (service.Readme, error)
	Refresh(ctx context.Context) (cache.Status, error)
	Status(ctx context.Context) cache.Status
}

var _ Rules = (*service.Service)(nil)

// Server is an MCP server backed by Rules.
type Server struct {
	rules  Rules
	logger *logging.Logger
	mcp    *server.MCPServer
}

// Option configures a Server.
type Option func(*options)

type options struct {
	logger  *logging.Logger
	version string
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithVersion sets the version announced to clients.
func WithVersion(v string) Option {
	return func(o *options) {
		o.version = v
	}
}

// New creates a Server with every tool, resource and prompt registered.
func New(r Rules, opts ...Option) *Server {
	o := &options{logger: logging.NewNopLogger(), version: "dev"}
	for _, opt := range opts {
		opt(o)
	}

	s := &Server{
		rules:  r,
		logger: o.logger.WithComponent("mcp"),
		mcp: server.NewMCPServer(
			ServerName,
			o.version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
			server.WithPromptCapabilities(false),
			server.WithRecovery(),
		),
	}

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves requests read from in and writes responses to out
// until ctx is done or in is closed.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Slog().Handler(), slog.LevelError))

	s.logger.Info(ctx, "serving MCP over stdio")
	return stdio.Listen(ctx, in, out)
}
