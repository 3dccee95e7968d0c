package rules

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/errgroup"

	"github.com/mattcknight/cursor-rules-mcp/errors"
	"github.com/mattcknight/cursor-rules-mcp/logging"
)

// readConcurrency bounds parallel file reads in ReadAll and Describe.
const readConcurrency = 8

// Entry is one rule file in the catalog.
type Entry struct {
	// Name is the logical rule name.
	Name string `json:"name"`

	// File is slash-separated and relative to the repository root.
	File string `json:"file"`
}

// Root is the located rules root.
type Root struct {
	// Path is slash-separated and relative to the repository root; "." is
	// the repository root itself.
	Path string

	// File is set when the root is a single rules file such as .cursorrules.
	File bool
}

// FindRoot returns the first of RootConventions present in fsys.
func FindRoot(fsys billy.Filesystem) (Root, error) {
	for _, candidate := range RootConventions {
		if candidate == "." {
			return Root{Path: "."}, nil
		}

		info, err := fsys.Stat(candidate)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Root{}, errors.WithContext(
				errors.Wrap(err, errors.CodeIO, "failed to inspect rules root"),
				"root", candidate,
			)
		}
		return Root{Path: candidate, File: !info.IsDir()}, nil
	}
	return Root{Path: "."}, nil
}

// Option configures a Catalog or Locator.
type Option func(*options)

type options struct {
	logger *logging.Logger
}

// WithLogger sets the logger used to report files that could not be read.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func applyOptions(opts []Option) options {
	o := options{logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Catalog enumerates the rule files of a repository checkout.
//
// fsys must be rooted at the repository, for example
// osfs.New(mirror.Path()). Nothing is cached; every call reads the
// filesystem again so a fetch is picked up immediately.
type Catalog struct {
	fs     billy.Filesystem
	logger *logging.Logger
}

// NewCatalog creates a Catalog over fsys.
func NewCatalog(fsys billy.Filesystem, opts ...Option) *Catalog {
	o := applyOptions(opts)
	return &Catalog{fs: fsys, logger: o.logger}
}

// Root returns the rules root currently in effect.
func (c *Catalog) Root() (Root, error) {
	return FindRoot(c.fs)
}

// List returns the rules in directory order. Files with a recognised
// extension directly under the rules root are rules, as are directories
// holding a README with a recognised extension. The root README and hidden
// entries are skipped.
func (c *Catalog) List() ([]Entry, error) {
	root, err := c.Root()
	if err != nil {
		return nil, err
	}
	return c.list(root)
}

func (c *Catalog) list(root Root) ([]Entry, error) {
	if root.File {
		return []Entry{{Name: LogicalName(root.Path), File: root.Path}}, nil
	}

	infos, err := c.fs.ReadDir(root.Path)
	if err != nil {
		return nil, errors.WithContext(
			errors.Wrap(err, errors.CodeIO, "failed to list rules directory"),
			"root", root.Path,
		)
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		if info.IsDir() {
			if file, ok := c.nestedReadme(path.Join(root.Path, name)); ok {
				entries = append(entries, Entry{Name: name, File: file})
			}
			continue
		}

		if ruleExt(name) == "" || isReadme(name) {
			continue
		}
		entries = append(entries, Entry{Name: LogicalName(name), File: path.Join(root.Path, name)})
	}

	return entries, nil
}

// nestedReadme finds dir/README<ext> in extension order.
func (c *Catalog) nestedReadme(dir string) (string, bool) {
	for _, ext := range Extensions {
		file := path.Join(dir, "README"+ext)
		info, err := c.fs.Stat(file)
		if err == nil && !info.IsDir() {
			return file, true
		}
		if err != nil && !os.IsNotExist(err) {
			c.logger.Warn(context.Background(), "skipping unreadable rule directory", "dir", dir, "error", err.Error())
			return "", false
		}
	}
	return "", false
}

// ReadAll concatenates every rule in List order. Each rule is wrapped in
// delimiters naming it and its file:
//
//	<!-- BEGIN RULE: code-style (rules/10-code-style.mdc) -->
//	...
//	<!-- END RULE: code-style -->
//
// A file that cannot be read is logged and left out.
func (c *Catalog) ReadAll() (string, error) {
	entries, err := c.List()
	if err != nil {
		return "", err
	}

	contents := c.readEntries(entries)

	var b strings.Builder
	for i, e := range entries {
		content, ok := contents[i]
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\n", BeginMarker(e))
		b.WriteString(content)
		if !strings.HasSuffix(content, "\n") {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\n", EndMarker(e))
	}

	return b.String(), nil
}

// BeginMarker is the line that opens a rule in ReadAll output.
func BeginMarker(e Entry) string {
	return fmt.Sprintf("<!-- BEGIN RULE: %s (%s) -->", e.Name, e.File)
}

// EndMarker is the line that closes a rule in ReadAll output.
func EndMarker(e Entry) string {
	return fmt.Sprintf("<!-- END RULE: %s -->", e.Name)
}

// readEntries reads entries in parallel. Unreadable files are absent from
// the result.
func (c *Catalog) readEntries(entries []Entry) map[int]string {
	results := make([]*string, len(entries))

	var g errgroup.Group
	g.SetLimit(readConcurrency)
	for i, e := range entries {
		g.Go(func() error {
			data, err := util.ReadFile(c.fs, e.File)
			if err != nil {
				c.logger.Warn(context.Background(), "skipping unreadable rule file",
					"rule", e.Name, "file", e.File, "error", err.Error())
				return nil
			}
			content := string(data)
			results[i] = &content
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[int]string, len(entries))
	for i, r := range results {
		if r != nil {
			out[i] = *r
		}
	}
	return out
}

// Readme returns the repository README, looking in the rules root first and
// then in the repository root. Any file the catalog treats as a README is
// accepted; within one directory README.md wins, then the extensions are
// tried in order.
func (c *Catalog) Readme() (content, file string, err error) {
	root, err := c.Root()
	if err != nil {
		return "", "", err
	}

	var dirs []string
	if !root.File && root.Path != "." {
		dirs = append(dirs, root.Path)
	}
	dirs = append(dirs, ".")

	for _, dir := range dirs {
		candidate, err := c.findReadme(dir)
		if err != nil {
			return "", "", err
		}
		if candidate == "" {
			continue
		}

		data, err := util.ReadFile(c.fs, candidate)
		if err != nil {
			return "", "", errors.WithContext(
				errors.Wrap(err, errors.CodeIO, "failed to read README"),
				"file", candidate,
			)
		}
		return string(data), candidate, nil
	}

	return "", "", errors.WithHints(
		errors.WithContext(
			errors.New(errors.CodeNotFound, "repository has no README"),
			"searched", dirs,
		),
		"add a README.md to the rules directory or the repository root",
	)
}

// findReadme returns the preferred README file directly inside dir, or ""
// when there is none.
func (c *Catalog) findReadme(dir string) (string, error) {
	infos, err := c.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.WithContext(
			errors.Wrap(err, errors.CodeIO, "failed to read directory"),
			"dir", dir,
		)
	}

	var names []string
	for _, info := range infos {
		if !info.IsDir() && isReadme(info.Name()) {
			names = append(names, info.Name())
		}
	}
	if len(names) == 0 {
		return "", nil
	}

	sort.Slice(names, func(i, j int) bool {
		return readmeRank(names[i]) < readmeRank(names[j]) ||
			readmeRank(names[i]) == readmeRank(names[j]) && names[i] < names[j]
	})
	return path.Join(dir, names[0]), nil
}

// readmeRank orders README variants: README.md first, then by extension
// priority.
func readmeRank(name string) int {
	if name == "README.md" {
		return 0
	}
	ext := ruleExt(name)
	for i, e := range Extensions {
		if strings.EqualFold(ext, e) {
			return i + 1
		}
	}
	return len(Extensions) + 1
}
