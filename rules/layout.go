package rules

import (
	"path"
	"regexp"
	"strings"
)

// RootConventions lists the directories (or single file) that may hold the
// rules of a repository, in priority order. The first one that exists wins.
// "." is the repository root and always exists.
var RootConventions = []string{
	".cursor/rules",
	"rules",
	".cursorrules",
	".",
}

// Extensions lists the recognised rule file extensions in priority order.
var Extensions = []string{".mdc", ".md"}

// Template is one way a logical name maps to a file below the rules root.
type Template struct {
	// Name identifies the template in logs and tests.
	Name string

	// Pattern is expanded by replacing {name} and {ext}. A pattern
	// containing {nn} matches any numeric ordering prefix.
	Pattern string
}

// Templates is the ordered list tried for each extension.
var Templates = []Template{
	{Name: "direct", Pattern: "{name}{ext}"},
	{Name: "prefixed", Pattern: "{nn}-{name}{ext}"},
	{Name: "nested", Pattern: "{name}/README{ext}"},
}

// prefixGlob stands in for {nn} when a candidate is turned into a glob.
const prefixGlob = "[0-9]*"

var numericPrefix = regexp.MustCompile(`^[0-9]+-`)

// Candidate is the ordered list of paths a logical name may live at.
type Candidate struct {
	Name string

	// Paths are slash-separated and relative to the repository root.
	// Paths produced by a {nn} template are glob patterns.
	Paths []string
}

// Candidates expands Templates for name below root. Extensions form the outer
// loop and templates the inner one, so every .mdc form is tried before any
// .md form.
func Candidates(root, name string) Candidate {
	c := Candidate{Name: name}
	for _, ext := range Extensions {
		for _, tmpl := range Templates {
			c.Paths = append(c.Paths, path.Join(root, expand(tmpl.Pattern, name, ext)))
		}
	}
	return c
}

func expand(pattern, name, ext string) string {
	if strings.Contains(pattern, "{nn}") {
		name = escapeGlob(name)
		ext = escapeGlob(ext)
	}
	return strings.NewReplacer(
		"{nn}", prefixGlob,
		"{name}", name,
		"{ext}", ext,
	).Replace(pattern)
}

func escapeGlob(s string) string {
	return strings.NewReplacer(`\`, `\\`, "*", `\*`, "?", `\?`, "[", `\[`).Replace(s)
}

func isGlob(p string) bool {
	return strings.Contains(p, prefixGlob)
}

// ruleExt returns the recognised extension of file, or "".
func ruleExt(file string) string {
	ext := path.Ext(file)
	for _, e := range Extensions {
		if strings.EqualFold(ext, e) {
			return ext
		}
	}
	return ""
}

// LogicalName derives the rule name from a file name: the extension and any
// numeric ordering prefix are removed, as is a leading dot.
//
//	10-code-style.mdc → code-style
//	testing.md        → testing
//	.cursorrules      → cursorrules
func LogicalName(file string) string {
	base := path.Base(file)
	base = strings.TrimSuffix(base, ruleExt(base))
	base = strings.TrimPrefix(base, ".")
	if stripped := numericPrefix.ReplaceAllString(base, ""); stripped != "" {
		base = stripped
	}
	return base
}

// isReadme reports whether file is a README with a recognised extension.
func isReadme(file string) bool {
	base := path.Base(file)
	ext := ruleExt(base)
	return ext != "" && strings.EqualFold(strings.TrimSuffix(base, ext), "README")
}
