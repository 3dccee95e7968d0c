package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mattcknight/cursor-rules-mcp/errors"
)

const jsonFlag = "json"

// newQueryCmds returns the one-shot commands that answer from the mirror
// and exit. They refresh the mirror the same way the server does.
func (c *CLI) newQueryCmds() []*cobra.Command {
	get := &cobra.Command{
		Use:   "get <name>",
		Short: "Print one rule by logical name",
		Args:  cobra.ExactArgs(1),
		RunE:  c.runGet,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List available rules",
		Args:  cobra.NoArgs,
		RunE:  c.runList,
	}
	list.Flags().Bool(jsonFlag, false, "print rule descriptors as JSON")

	all := &cobra.Command{
		Use:   "all",
		Short: "Print every rule, delimited by BEGIN/END RULE markers",
		Args:  cobra.NoArgs,
		RunE:  c.runAll,
	}

	readme := &cobra.Command{
		Use:   "readme",
		Short: "Print the README of the rules repository",
		Args:  cobra.NoArgs,
		RunE:  c.runReadme,
	}

	for _, cmd := range []*cobra.Command{get, list, all, readme} {
		cmd.Flags().BoolP(forceFlag, "f", false, "fetch before answering even if the mirror is fresh")
	}

	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the rules repository now and print the cache status",
		Args:  cobra.NoArgs,
		RunE:  c.runRefresh,
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the cache status without fetching",
		Args:  cobra.NoArgs,
		RunE:  c.runStatus,
	}

	return []*cobra.Command{get, list, all, readme, refresh, status}
}

func force(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool(forceFlag)
	return v
}

func (c *CLI) runGet(cmd *cobra.Command, args []string) error {
	a, err := c.setup(cmd)
	if err != nil {
		return err
	}

	res, err := a.svc.GetRule(cmd.Context(), args[0], force(cmd))
	if err != nil {
		return err
	}
	if !res.Found {
		perr := errors.Newf(errors.CodeNotFound, "rule %q not found", args[0])
		if len(res.Alternatives) > 0 {
			perr = errors.WithHints(perr, "available rules: "+strings.Join(res.Alternatives, ", "))
		}
		return perr
	}

	return writeText(c.out, res.Content)
}

func (c *CLI) runList(cmd *cobra.Command, _ []string) error {
	a, err := c.setup(cmd)
	if err != nil {
		return err
	}

	descriptors, err := a.svc.ListRules(cmd.Context(), force(cmd))
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool(jsonFlag); asJSON {
		return writeJSON(c.out, descriptors)
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFILE\tDESCRIPTION")
	for _, d := range descriptors {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, d.File, d.Description)
	}
	return tw.Flush()
}

func (c *CLI) runAll(cmd *cobra.Command, _ []string) error {
	a, err := c.setup(cmd)
	if err != nil {
		return err
	}

	all, err := a.svc.GetAllRules(cmd.Context(), force(cmd))
	if err != nil {
		return err
	}
	return writeText(c.out, all)
}

func (c *CLI) runReadme(cmd *cobra.Command, _ []string) error {
	a, err := c.setup(cmd)
	if err != nil {
		return err
	}

	readme, err := a.svc.GetReadme(cmd.Context(), force(cmd))
	if err != nil {
		return err
	}
	return writeText(c.out, readme.Content)
}

func (c *CLI) runRefresh(cmd *cobra.Command, _ []string) error {
	a, err := c.setup(cmd)
	if err != nil {
		return err
	}

	status, err := a.svc.Refresh(cmd.Context())
	if err != nil {
		return err
	}
	return writeJSON(c.out, status)
}

func (c *CLI) runStatus(cmd *cobra.Command, _ []string) error {
	a, err := c.setup(cmd)
	if err != nil {
		return err
	}
	return writeJSON(c.out, a.svc.Status(cmd.Context()))
}

func writeText(w io.Writer, s string) error {
	if s != "" && !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	_, err := io.WriteString(w, s)
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
