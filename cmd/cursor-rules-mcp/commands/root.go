// Package commands implements the cursor-rules-mcp command line.
package commands

import (
	"context"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/mattcknight/cursor-rules-mcp/cache"
	"github.com/mattcknight/cursor-rules-mcp/config"
	"github.com/mattcknight/cursor-rules-mcp/git"
	"github.com/mattcknight/cursor-rules-mcp/logging"
	"github.com/mattcknight/cursor-rules-mcp/service"
)

const forceFlag = "force"

// CLI is the cursor-rules-mcp command tree.
type CLI struct {
	version string
	rootCmd *cobra.Command

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// New creates the command tree. Running the root command without a
// subcommand serves MCP over stdio.
func New(version string) *CLI {
	c := &CLI{
		version: version,
		in:      os.Stdin,
		out:     os.Stdout,
		errOut:  os.Stderr,
	}

	rootCmd := &cobra.Command{
		Use:   "cursor-rules-mcp",
		Short: "Serve rules from a git repository over the Model Context Protocol",
		Long: `cursor-rules-mcp keeps a local mirror of a rules repository and serves
its rules to MCP clients over stdio. The mirror is refreshed when it is older
than the configured TTL.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE:          c.runServe,
	}

	config.RegisterFlags(rootCmd.PersistentFlags())
	config.RegisterServeFlags(rootCmd.Flags())

	rootCmd.AddCommand(c.newServeCmd())
	rootCmd.AddCommand(c.newQueryCmds()...)
	rootCmd.AddCommand(c.newVersionCmd())

	c.rootCmd = rootCmd
	return c
}

// Execute runs the command selected by the arguments.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs replaces os.Args[1:]. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetIO replaces the standard streams. Used for testing.
func (c *CLI) SetIO(in io.Reader, out, errOut io.Writer) {
	c.in, c.out, c.errOut = in, out, errOut
	c.rootCmd.SetIn(in)
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(errOut)
}

// app holds the components every command needs.
type app struct {
	cfg      config.Config
	logger   *logging.Logger
	registry *prometheus.Registry
	mirror   *cache.Mirror
	svc      *service.Service
}

func (c *CLI) setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger(cfg.Logging(c.errOut))

	path, err := cfg.MirrorPath()
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mirror, err := cache.New(cfg.RepoURL, path, git.NewFetcher(cfg.Fetcher, cfg.Credentials()),
		cache.WithTTL(cfg.TTL),
		cache.WithRef(cfg.Ref),
		cache.WithFetchTimeout(cfg.FetchTimeout),
		cache.WithLogger(logger),
		cache.WithMetrics(cache.NewMetrics(reg)),
	)
	if err != nil {
		return nil, err
	}

	logger.Debug(cmd.Context(), "configuration loaded",
		"repo_url", mirror.Status().URL,
		"mirror", mirror.Path(),
		"ttl", cfg.TTL.String(),
		"fetcher", string(cfg.Fetcher))

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		mirror:   mirror,
		svc:      service.New(mirror, service.WithLogger(logger)),
	}, nil
}
