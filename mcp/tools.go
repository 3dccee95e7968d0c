package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/mattcknight/cursor-rules-mcp/errors"
	"github.com/mattcknight/cursor-rules-mcp/rules"
)

// Tool names.
const (
	ToolGetRule     = "get_rule"
	ToolListRules   = "list_rules"
	ToolGetAllRules = "get_all_rules"
	ToolGetReadme   = "get_readme"
	ToolRefresh     = "refresh_rules"
	ToolStatus      = "cache_status"
)

const forceRefreshArg = "force_refresh"

func forceRefreshOption() mcpgo.ToolOption {
	return mcpgo.WithBoolean(forceRefreshArg,
		mcpgo.Description("Fetch the rules repository before answering, even if the local copy is fresh"),
		mcpgo.DefaultBool(false),
	)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcpgo.NewTool(ToolGetRule,
		mcpgo.WithDescription("Get a rule by its logical name, for example \"code-style\" for rules/10-code-style.mdc"),
		mcpgo.WithString("name",
			mcpgo.Required(),
			mcpgo.Description("Logical rule name: the file name without extension or numeric prefix"),
		),
		forceRefreshOption(),
	), s.handleGetRule)

	s.mcp.AddTool(mcpgo.NewTool(ToolListRules,
		mcpgo.WithDescription("List the available rules with their descriptions"),
		forceRefreshOption(),
	), s.handleListRules)

	s.mcp.AddTool(mcpgo.NewTool(ToolGetAllRules,
		mcpgo.WithDescription("Get every rule in one document, each delimited by BEGIN/END RULE markers"),
		forceRefreshOption(),
	), s.handleGetAllRules)

	s.mcp.AddTool(mcpgo.NewTool(ToolGetReadme,
		mcpgo.WithDescription("Get the README of the rules repository"),
		forceRefreshOption(),
	), s.handleGetReadme)

	s.mcp.AddTool(mcpgo.NewTool(ToolRefresh,
		mcpgo.WithDescription("Fetch the latest rules from the remote repository now"),
	), s.handleRefresh)

	s.mcp.AddTool(mcpgo.NewTool(ToolStatus,
		mcpgo.WithDescription("Show the state of the local rules cache without fetching"),
	), s.handleStatus)
}

func (s *Server) handleGetRule(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcpgo.NewToolResultError("missing required argument: name"), nil
	}

	res, err := s.rules.GetRule(ctx, name, req.GetBool(forceRefreshArg, false))
	if err != nil {
		return s.toolError(ctx, ToolGetRule, err), nil
	}
	if !res.Found {
		return mcpgo.NewToolResultText(notFoundText(name, res.Alternatives)), nil
	}

	entry := rules.Entry{Name: res.Name, File: res.Path}
	return mcpgo.NewToolResultText(fmt.Sprintf("%s\n%s\n%s",
		rules.BeginMarker(entry), strings.TrimRight(res.Content, "\n"), rules.EndMarker(entry))), nil
}

func (s *Server) handleListRules(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	descriptors, err := s.rules.ListRules(ctx, req.GetBool(forceRefreshArg, false))
	if err != nil {
		return s.toolError(ctx, ToolListRules, err), nil
	}
	if descriptors == nil {
		descriptors = []rules.Descriptor{}
	}
	return jsonResult(descriptors)
}

func (s *Server) handleGetAllRules(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	all, err := s.rules.GetAllRules(ctx, req.GetBool(forceRefreshArg, false))
	if err != nil {
		return s.toolError(ctx, ToolGetAllRules, err), nil
	}
	if all == "" {
		return mcpgo.NewToolResultText("The rules repository contains no rules."), nil
	}
	return mcpgo.NewToolResultText(all), nil
}

func (s *Server) handleGetReadme(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	readme, err := s.rules.GetReadme(ctx, req.GetBool(forceRefreshArg, false))
	if err != nil {
		return s.toolError(ctx, ToolGetReadme, err), nil
	}
	return mcpgo.NewToolResultText(readme.Content), nil
}

func (s *Server) handleRefresh(ctx context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	status, err := s.rules.Refresh(ctx)
	if err != nil {
		return s.toolError(ctx, ToolRefresh, err), nil
	}
	return jsonResult(status)
}

func (s *Server) handleStatus(ctx context.Context, _ mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return jsonResult(s.rules.Status(ctx))
}

// toolError logs err and turns it into an error result carrying the message
// and hints.
func (s *Server) toolError(ctx context.Context, tool string, err error) *mcpgo.CallToolResult {
	s.logger.Warn(ctx, "tool call failed",
		"tool", tool,
		"code", string(errors.GetCode(err)),
		"error", err.Error())
	return mcpgo.NewToolResultError(errors.Format(err))
}

func jsonResult(v any) (*mcpgo.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcpgo.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcpgo.NewToolResultText(string(data)), nil
}

func notFoundText(name string, alternatives []string) string {
	if len(alternatives) == 0 {
		return fmt.Sprintf("Rule %q not found. The repository contains no rules.", name)
	}
	return fmt.Sprintf("Rule %q not found. Available rules: %s", name, strings.Join(alternatives, ", "))
}
