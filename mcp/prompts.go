package mcp

import (
	"context"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/mattcknight/cursor-rules-mcp/errors"
)

// PromptApplyRules combines every rule with a task.
const PromptApplyRules = "apply_rules"

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcpgo.NewPrompt(PromptApplyRules,
		mcpgo.WithPromptDescription("Carry out a task following every rule in the repository"),
		mcpgo.WithArgument("task",
			mcpgo.ArgumentDescription("What you want done"),
			mcpgo.RequiredArgument(),
		),
	), s.handleApplyRules)
}

func (s *Server) handleApplyRules(ctx context.Context, req mcpgo.GetPromptRequest) (*mcpgo.GetPromptResult, error) {
	task := strings.TrimSpace(req.Params.Arguments["task"])
	if task == "" {
		return nil, errors.New(errors.CodeInvalidInput, "missing required argument: task")
	}

	all, err := s.rules.GetAllRules(ctx, false)
	if err != nil {
		s.logger.Warn(ctx, "prompt failed", "prompt", PromptApplyRules, "error", err.Error())
		return nil, err
	}

	var b strings.Builder
	b.WriteString("Follow these project rules while working on the task below.\n\n")
	b.WriteString(all)
	b.WriteString("\nTask: ")
	b.WriteString(task)
	b.WriteString("\n")

	return mcpgo.NewGetPromptResult(
		"Task with project rules",
		[]mcpgo.PromptMessage{
			mcpgo.NewPromptMessage(mcpgo.RoleUser, mcpgo.NewTextContent(b.String())),
		},
	), nil
}
