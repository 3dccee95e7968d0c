// Command cursor-rules-mcp serves rules from a git repository to MCP clients.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattcknight/cursor-rules-mcp/cmd/cursor-rules-mcp/commands"
	"github.com/mattcknight/cursor-rules-mcp/errors"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli := commands.New(version)
	cli.SetArgs(args)
	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+errors.Format(err))
		return 1
	}
	return 0
}
