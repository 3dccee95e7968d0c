package mcp

import (
	"context"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/mattcknight/cursor-rules-mcp/errors"
	"github.com/mattcknight/cursor-rules-mcp/rules"
)

// Resource URIs.
const (
	ReadmeURI       = rules.URIScheme + "readme"
	RuleURITemplate = rules.URIScheme + "{name}"
)

func (s *Server) registerResources() {
	s.mcp.AddResource(mcpgo.NewResource(ReadmeURI, "README",
		mcpgo.WithResourceDescription("README of the rules repository"),
		mcpgo.WithMIMEType(rules.MIMEType),
	), s.handleReadmeResource)

	s.mcp.AddResourceTemplate(mcpgo.NewResourceTemplate(RuleURITemplate, "Rule",
		mcpgo.WithTemplateDescription("A rule by logical name"),
		mcpgo.WithTemplateMIMEType(rules.MIMEType),
	), s.handleRuleResource)
}

func (s *Server) handleReadmeResource(ctx context.Context, req mcpgo.ReadResourceRequest) ([]mcpgo.ResourceContents, error) {
	readme, err := s.rules.GetReadme(ctx, false)
	if err != nil {
		return nil, s.resourceError(ctx, req.Params.URI, err)
	}
	return []mcpgo.ResourceContents{
		mcpgo.TextResourceContents{URI: req.Params.URI, MIMEType: rules.MIMEType, Text: readme.Content},
	}, nil
}

func (s *Server) handleRuleResource(ctx context.Context, req mcpgo.ReadResourceRequest) ([]mcpgo.ResourceContents, error) {
	name := strings.TrimPrefix(req.Params.URI, rules.URIScheme)

	res, err := s.rules.GetRule(ctx, name, false)
	if err != nil {
		return nil, s.resourceError(ctx, req.Params.URI, err)
	}
	if !res.Found {
		return nil, errors.WithContext(
			errors.New(errors.CodeNotFound, notFoundText(name, res.Alternatives)),
			"uri", req.Params.URI,
		)
	}

	return []mcpgo.ResourceContents{
		mcpgo.TextResourceContents{URI: req.Params.URI, MIMEType: rules.MIMEType, Text: res.Content},
	}, nil
}

func (s *Server) resourceError(ctx context.Context, uri string, err error) error {
	s.logger.Warn(ctx, "resource read failed", "uri", uri, "error", err.Error())
	return errors.WithContext(err, "uri", uri)
}
