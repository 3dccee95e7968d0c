package rules

import (
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattcknight/cursor-rules-mcp/errors"
)

// newRepo returns an in-memory filesystem rooted at a fake checkout holding
// files (slash-separated path → content).
func newRepo(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()

	fsys, err := memfs.New().Chroot("/mirror")
	require.NoError(t, err)
	require.NoError(t, fsys.MkdirAll(".git", 0o755))

	for name, content := range files {
		require.NoError(t, util.WriteFile(fsys, name, []byte(content), 0o644))
	}
	return fsys
}

func TestCandidates(t *testing.T) {
	got := Candidates("rules", "code-style")

	assert.Equal(t, "code-style", got.Name)
	assert.Equal(t, []string{
		"rules/code-style.mdc",
		"rules/[0-9]*-code-style.mdc",
		"rules/code-style/README.mdc",
		"rules/code-style.md",
		"rules/[0-9]*-code-style.md",
		"rules/code-style/README.md",
	}, got.Paths)
}

func TestCandidates_RepositoryRoot(t *testing.T) {
	got := Candidates(".", "testing")
	assert.Equal(t, "testing.mdc", got.Paths[0])
	assert.Equal(t, "testing/README.md", got.Paths[len(got.Paths)-1])
}

func TestCandidates_EscapesGlobCharacters(t *testing.T) {
	got := Candidates("rules", "a*b")
	assert.Equal(t, "rules/a*b.mdc", got.Paths[0])
	assert.Equal(t, `rules/[0-9]*-a\*b.mdc`, got.Paths[1])
}

func TestLogicalName(t *testing.T) {
	tests := []struct {
		file     string
		expected string
	}{
		{"code-style.mdc", "code-style"},
		{"rules/10-code-style.mdc", "code-style"},
		{"001-testing.md", "testing"},
		{"2024-notes.md", "notes"},
		{"v2-api.md", "v2-api"},
		{"10-.md", "10-"},
		{".cursorrules", "cursorrules"},
		{"Security.MD", "Security"},
		{"notes.txt", "notes.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.expected, LogicalName(tt.file))
		})
	}
}

func TestFindRoot(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		expected Root
	}{
		{
			name:     "editor directory wins",
			files:    map[string]string{".cursor/rules/a.mdc": "a", "rules/b.mdc": "b"},
			expected: Root{Path: ".cursor/rules"},
		},
		{
			name:     "rules directory",
			files:    map[string]string{"rules/b.mdc": "b", "c.md": "c"},
			expected: Root{Path: "rules"},
		},
		{
			name:     "single file",
			files:    map[string]string{".cursorrules": "x", "c.md": "c"},
			expected: Root{Path: ".cursorrules", File: true},
		},
		{
			name:     "repository root",
			files:    map[string]string{"c.md": "c"},
			expected: Root{Path: "."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := FindRoot(newRepo(t, tt.files))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, root)
		})
	}
}

func TestResolve_Layouts(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		rule     string
		wantPath string
	}{
		{"direct mdc", map[string]string{"rules/style.mdc": "mdc"}, "style", "rules/style.mdc"},
		{"direct md", map[string]string{"rules/style.md": "md"}, "style", "rules/style.md"},
		{"prefixed", map[string]string{"rules/20-style.mdc": "p"}, "style", "rules/20-style.mdc"},
		{"nested readme", map[string]string{"rules/style/README.mdc": "n"}, "style", "rules/style/README.mdc"},
		{"nested readme md", map[string]string{"rules/style/README.md": "n"}, "style", "rules/style/README.md"},
		{"editor directory", map[string]string{".cursor/rules/style.mdc": "e"}, "style", ".cursor/rules/style.mdc"},
		{"repository root", map[string]string{"style.md": "r"}, "style", "style.md"},
		{
			"mdc before md",
			map[string]string{"rules/style.md": "md", "rules/style/README.mdc": "mdc"},
			"style", "rules/style/README.mdc",
		},
		{
			"direct before prefixed",
			map[string]string{"rules/style.mdc": "d", "rules/10-style.mdc": "p"},
			"style", "rules/style.mdc",
		},
		{
			"prefixed before nested",
			map[string]string{"rules/10-style.mdc": "p", "rules/style/README.mdc": "n"},
			"style", "rules/10-style.mdc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewLocator(newRepo(t, tt.files)).Resolve(tt.rule)
			require.NoError(t, err)

			require.True(t, res.Found)
			assert.Equal(t, tt.wantPath, res.Path)
			assert.Equal(t, tt.files[tt.wantPath], res.Content)
			assert.Empty(t, res.Alternatives)
		})
	}
}

func TestResolve_NumericPrefixedRule(t *testing.T) {
	content := "---\ndescription: Code style\n---\n# Code style\n\nUse gofmt.\n"
	fsys := newRepo(t, map[string]string{
		"rules/10-code-style.mdc": content,
		"rules/20-testing.mdc":    "# Testing\n",
	})

	res, err := NewLocator(fsys).Resolve("code-style")
	require.NoError(t, err)

	assert.True(t, res.Found)
	assert.Equal(t, "rules/10-code-style.mdc", res.Path)
	assert.Equal(t, content, res.Content)
}

func TestResolve_PrefixMustBeNumeric(t *testing.T) {
	fsys := newRepo(t, map[string]string{
		"rules/1x-style.mdc":     "no",
		"rules/10-my-style.mdc":  "no",
		"rules/10-style.mdc.bak": "no",
		"rules/other.mdc":        "other",
	})

	res, err := NewLocator(fsys).Resolve("style")
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestResolve_NotFound(t *testing.T) {
	fsys := newRepo(t, map[string]string{
		"rules/a.mdc":     "a",
		"rules/b.md":      "b",
		"rules/README.md": "readme",
	})

	res, err := NewLocator(fsys).Resolve("nonexistent")
	require.NoError(t, err)

	assert.False(t, res.Found)
	assert.Equal(t, "nonexistent", res.Name)
	assert.Empty(t, res.Path)
	assert.Empty(t, res.Content)
	assert.Equal(t, []string{"a", "b"}, res.Alternatives)
}

func TestResolve_AlternativesAreListedNamesWithoutRequested(t *testing.T) {
	fsys := newRepo(t, map[string]string{
		"rules/style.txt":       "not a rule",
		"rules/10-testing.mdc":  "t",
		"rules/testing.md":      "t",
		"rules/api/README.md":   "api",
		"rules/.hidden/x.mdc":   "h",
		"rules/draft/notes.mdc": "not a nested rule",
	})

	res, err := NewLocator(fsys).Resolve("api/extra")
	require.NoError(t, err)
	require.False(t, res.Found)

	entries, err := NewCatalog(fsys).List()
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}

	assert.Subset(t, names, res.Alternatives)
	assert.NotContains(t, res.Alternatives, "api/extra")
	assert.Equal(t, []string{"testing", "api"}, res.Alternatives, "duplicates collapse")
}

func TestResolve_SingleFileRoot(t *testing.T) {
	fsys := newRepo(t, map[string]string{
		".cursorrules": "always use tabs",
		"style.mdc":    "ignored",
	})
	locator := NewLocator(fsys)

	res, err := locator.Resolve("cursorrules")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, ".cursorrules", res.Path)
	assert.Equal(t, "always use tabs", res.Content)

	res, err = locator.Resolve("style")
	require.NoError(t, err)
	assert.False(t, res.Found)
	assert.Equal(t, []string{"cursorrules"}, res.Alternatives)
}

func TestResolve_TraversalIsNotFound(t *testing.T) {
	fsys := newRepo(t, map[string]string{"a.mdc": "a"})

	for _, name := range []string{"../etc/passwd", "../../mirror/a", "a/../../x"} {
		t.Run(name, func(t *testing.T) {
			res, err := NewLocator(fsys).Resolve(name)
			require.NoError(t, err)
			assert.False(t, res.Found)
			assert.Equal(t, []string{"a"}, res.Alternatives)
		})
	}
}

func TestResolve_RepositoryReadmeIsNotARule(t *testing.T) {
	for _, file := range []string{"README.md", "readme.mdc"} {
		t.Run(file, func(t *testing.T) {
			fsys := newRepo(t, map[string]string{
				file:    "readme",
				"a.mdc": "a",
			})

			res, err := NewLocator(fsys).Resolve(LogicalName(file))
			require.NoError(t, err)
			assert.False(t, res.Found)
			assert.Empty(t, res.Content)
			assert.Equal(t, []string{"a"}, res.Alternatives)
		})
	}
}

func TestResolve_NestedReadmeAtRepositoryRoot(t *testing.T) {
	fsys := newRepo(t, map[string]string{
		"README.md":     "readme",
		"api/README.md": "api",
	})

	res, err := NewLocator(fsys).Resolve("api")
	require.NoError(t, err)
	assert.True(t, res.Found)
	assert.Equal(t, "api/README.md", res.Path)
}

func TestResolve_EmptyName(t *testing.T) {
	_, err := NewLocator(newRepo(t, nil)).Resolve("  ")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestCatalog_List(t *testing.T) {
	fsys := newRepo(t, map[string]string{
		"README.md":           "repo readme",
		"a.mdc":               "a",
		"10-b.md":             "b",
		"c/README.mdc":        "c",
		"c/README.md":         "c (md)",
		"d/other.md":          "not a rule",
		"notes.txt":           "ignored",
		".github/workflow.md": "hidden",
		".editorconfig":       "hidden",
	})

	entries, err := NewCatalog(fsys).List()
	require.NoError(t, err)

	assert.Equal(t, []Entry{
		{Name: "b", File: "10-b.md"},
		{Name: "a", File: "a.mdc"},
		{Name: "c", File: "c/README.mdc"},
	}, entries)
}

func TestCatalog_ListNeverIncludesReadme(t *testing.T) {
	layouts := []map[string]string{
		{"README.md": "r", "a.md": "a"},
		{"rules/README.md": "r", "rules/readme.mdc": "r", "rules/a.md": "a"},
		{".cursor/rules/README.mdc": "r", ".cursor/rules/a.mdc": "a"},
	}

	for _, files := range layouts {
		entries, err := NewCatalog(newRepo(t, files)).List()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "a", entries[0].Name)
	}
}

func TestCatalog_ReadAll(t *testing.T) {
	fsys := newRepo(t, map[string]string{
		"rules/10-code-style.mdc": "# Code style\n",
		"rules/20-testing.md":     "Write tests.",
		"rules/README.md":         "readme",
	})
	catalog := NewCatalog(fsys)

	all, err := catalog.ReadAll()
	require.NoError(t, err)

	assert.Equal(t, "<!-- BEGIN RULE: code-style (rules/10-code-style.mdc) -->\n"+
		"# Code style\n"+
		"<!-- END RULE: code-style -->\n"+
		"\n"+
		"<!-- BEGIN RULE: testing (rules/20-testing.md) -->\n"+
		"Write tests.\n"+
		"<!-- END RULE: testing -->\n", all)
	assert.NotContains(t, all, "readme")
}

func TestCatalog_ReadAllSegmentsMatchList(t *testing.T) {
	fsys := newRepo(t, map[string]string{
		"rules/a.mdc":       "a",
		"rules/b.md":        "b\n",
		"rules/10-c.mdc":    "c",
		"rules/d/README.md": "d",
		"rules/README.md":   "readme",
	})
	catalog := NewCatalog(fsys)

	entries, err := catalog.List()
	require.NoError(t, err)
	all, err := catalog.ReadAll()
	require.NoError(t, err)

	segments := strings.Split(all, "<!-- BEGIN RULE: ")
	assert.Len(t, segments[1:], len(entries))
	assert.Equal(t, len(entries), strings.Count(all, "<!-- END RULE: "))
}

func TestCatalog_ReadAllEmpty(t *testing.T) {
	all, err := NewCatalog(newRepo(t, map[string]string{"notes.txt": "x"})).ReadAll()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCatalog_Readme(t *testing.T) {
	t.Run("rules root first", func(t *testing.T) {
		fsys := newRepo(t, map[string]string{
			"rules/README.md": "rules readme",
			"README.md":       "repo readme",
		})
		content, file, err := NewCatalog(fsys).Readme()
		require.NoError(t, err)
		assert.Equal(t, "rules readme", content)
		assert.Equal(t, "rules/README.md", file)
	})

	t.Run("falls back to repository root", func(t *testing.T) {
		fsys := newRepo(t, map[string]string{
			"rules/a.md": "a",
			"README.md":  "repo readme",
		})
		content, file, err := NewCatalog(fsys).Readme()
		require.NoError(t, err)
		assert.Equal(t, "repo readme", content)
		assert.Equal(t, "README.md", file)
	})

	t.Run("missing", func(t *testing.T) {
		_, _, err := NewCatalog(newRepo(t, map[string]string{"rules/a.md": "a"})).Readme()
		require.Error(t, err)
		assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	})
}

func TestCatalog_ReadmeVariants(t *testing.T) {
	for _, file := range []string{"readme.md", "Readme.md", "README.mdc", "rules/readme.md", "rules/README.mdc"} {
		t.Run(file, func(t *testing.T) {
			fsys := newRepo(t, map[string]string{
				file:         "readme",
				"rules/a.md": "a",
			})
			catalog := NewCatalog(fsys)

			entries, err := catalog.List()
			require.NoError(t, err)
			assert.Equal(t, []Entry{{Name: "a", File: "rules/a.md"}}, entries)

			content, got, err := catalog.Readme()
			require.NoError(t, err)
			assert.Equal(t, "readme", content)
			assert.Equal(t, file, got)
		})
	}
}

func TestCatalog_ReadmePreference(t *testing.T) {
	t.Run("exact name wins", func(t *testing.T) {
		fsys := newRepo(t, map[string]string{
			"README.mdc": "mdc",
			"readme.md":  "lower",
			"README.md":  "exact",
			"a.md":       "a",
		})
		content, file, err := NewCatalog(fsys).Readme()
		require.NoError(t, err)
		assert.Equal(t, "exact", content)
		assert.Equal(t, "README.md", file)
	})

	t.Run("extension order", func(t *testing.T) {
		fsys := newRepo(t, map[string]string{
			"readme.md":  "md",
			"README.mdc": "mdc",
			"a.md":       "a",
		})
		_, file, err := NewCatalog(fsys).Readme()
		require.NoError(t, err)
		assert.Equal(t, "README.mdc", file)
	})

	t.Run("directory named README is ignored", func(t *testing.T) {
		fsys := newRepo(t, map[string]string{
			"rules/README.md/x.md": "x",
			"rules/a.md":           "a",
			"readme.mdc":           "root",
		})
		_, file, err := NewCatalog(fsys).Readme()
		require.NoError(t, err)
		assert.Equal(t, "readme.mdc", file)
	})
}

func TestCatalog_Describe(t *testing.T) {
	fsys := newRepo(t, map[string]string{
		"rules/a.mdc": "---\ndescription: Front matter wins\nglobs: \"*.go\"\nalwaysApply: true\n---\n# Heading\n",
		"rules/b.md":  "Intro text.\n\n## Second *level* heading\n",
		"rules/c.md":  "no heading at all",
	})

	descriptors, err := NewCatalog(fsys).Describe()
	require.NoError(t, err)

	assert.Equal(t, []Descriptor{
		{URI: "rules://a", Name: "a", Description: "Front matter wins", MIMEType: "text/markdown", File: "rules/a.mdc"},
		{URI: "rules://b", Name: "b", Description: "Second level heading", MIMEType: "text/markdown", File: "rules/b.md"},
		{URI: "rules://c", Name: "c", Description: "Rule c", MIMEType: "text/markdown", File: "rules/c.md"},
	}, descriptors)
}

func TestParseFrontMatter(t *testing.T) {
	t.Run("with front matter", func(t *testing.T) {
		fm, body, err := ParseFrontMatter("---\r\ndescription: Hi\r\nalwaysApply: true\r\n---\r\nbody\r\n")
		require.NoError(t, err)
		require.NotNil(t, fm)
		assert.Equal(t, "Hi", fm.Description)
		assert.True(t, fm.AlwaysApply)
		assert.Equal(t, "body\n", body)
	})

	t.Run("without front matter", func(t *testing.T) {
		fm, body, err := ParseFrontMatter("# Title\n")
		require.NoError(t, err)
		assert.Nil(t, fm)
		assert.Equal(t, "# Title\n", body)
	})

	t.Run("unterminated", func(t *testing.T) {
		fm, body, err := ParseFrontMatter("---\ndescription: x\n")
		require.NoError(t, err)
		assert.Nil(t, fm)
		assert.Equal(t, "---\ndescription: x\n", body)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		fm, body, err := ParseFrontMatter("---\ndescription: [\n---\n# Title\n")
		assert.Error(t, err)
		assert.Nil(t, fm)
		assert.Equal(t, "# Title\n", body)
		assert.Equal(t, "Title", Description("x", "---\ndescription: [\n---\n# Title\n"))
	})
}
