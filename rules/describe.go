package rules

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// URIScheme prefixes rule resource URIs.
const URIScheme = "rules://"

// MIMEType is reported for every rule.
const MIMEType = "text/markdown"

// Descriptor describes a rule as a readable resource.
type Descriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MIMEType    string `json:"mimeType"`
	File        string `json:"file"`
}

// FrontMatter is the YAML header of an .mdc rule.
type FrontMatter struct {
	Description string `yaml:"description"`
	Globs       any    `yaml:"globs"`
	AlwaysApply bool   `yaml:"alwaysApply"`
}

var markdown = goldmark.New()

// Describe lists the rules as resource descriptors, in List order. The
// description comes from the front matter when present, else from the first
// markdown heading. Unreadable files are logged and left out.
func (c *Catalog) Describe() ([]Descriptor, error) {
	entries, err := c.List()
	if err != nil {
		return nil, err
	}

	contents := c.readEntries(entries)

	descriptors := make([]Descriptor, 0, len(entries))
	for i, e := range entries {
		content, ok := contents[i]
		if !ok {
			continue
		}
		descriptors = append(descriptors, Descriptor{
			URI:         URIScheme + e.Name,
			Name:        e.Name,
			Description: Description(e.Name, content),
			MIMEType:    MIMEType,
			File:        e.File,
		})
	}
	return descriptors, nil
}

// Description returns a one-line description of a rule's content.
func Description(name, content string) string {
	// Invalid front matter still yields the body for the heading fallback.
	fm, body, _ := ParseFrontMatter(content)
	if fm != nil && strings.TrimSpace(fm.Description) != "" {
		return strings.TrimSpace(fm.Description)
	}
	if heading := firstHeading([]byte(body)); heading != "" {
		return heading
	}
	return "Rule " + name
}

// ParseFrontMatter splits a leading "---" delimited YAML block from content.
// Content without front matter is returned unchanged with a nil FrontMatter.
// Malformed YAML yields an error and the body after the block.
func ParseFrontMatter(content string) (*FrontMatter, string, error) {
	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(normalized, "---\n") {
		return nil, content, nil
	}

	rest := normalized[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, content, nil
	}

	header := rest[:end]
	body := strings.TrimPrefix(rest[end+len("\n---"):], "\n")

	var fm FrontMatter
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return nil, body, err
	}
	return &fm, body, nil
}

// firstHeading returns the plain text of the first heading in source.
func firstHeading(source []byte) string {
	doc := markdown.Parser().Parse(text.NewReader(source))

	var heading string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		heading = strings.TrimSpace(inlineText(h, source))
		if heading == "" {
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkStop, nil
	})
	return heading
}

func inlineText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *ast.Text:
			buf.Write(node.Segment.Value(source))
			if node.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(node.Value)
		default:
			buf.WriteString(inlineText(child, source))
		}
	}
	return buf.String()
}
