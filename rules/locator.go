package rules

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/mattcknight/cursor-rules-mcp/errors"
	"github.com/mattcknight/cursor-rules-mcp/logging"
)

// Resolution is the outcome of resolving a logical rule name.
type Resolution struct {
	Found bool   `json:"found"`
	Name  string `json:"name"`

	// Path is the file that satisfied the lookup, relative to the
	// repository root. Empty when not found.
	Path    string `json:"path,omitempty"`
	Content string `json:"content,omitempty"`

	// Alternatives lists the names that do exist when Found is false.
	Alternatives []string `json:"alternatives,omitempty"`
}

// Locator resolves logical rule names to files.
type Locator struct {
	fs      billy.Filesystem
	catalog *Catalog
	logger  *logging.Logger
}

// NewLocator creates a Locator over fsys, which must be rooted at the
// repository.
func NewLocator(fsys billy.Filesystem, opts ...Option) *Locator {
	o := applyOptions(opts)
	return &Locator{
		fs:      fsys,
		catalog: &Catalog{fs: fsys, logger: o.logger},
		logger:  o.logger,
	}
}

// Resolve finds the rule called name. The candidates of Candidates are tried
// in order and the first existing file is returned with its content.
//
// An unknown name is not an error: the Resolution has Found unset and lists
// the names that exist. Names are used as given; a name that climbs out of
// the repository is refused by the filesystem and is simply not found.
func (l *Locator) Resolve(name string) (Resolution, error) {
	if strings.TrimSpace(name) == "" {
		return Resolution{}, errors.New(errors.CodeInvalidInput, "rule name is required")
	}

	root, err := FindRoot(l.fs)
	if err != nil {
		return Resolution{}, err
	}

	if root.File {
		if LogicalName(root.Path) == name {
			return l.read(name, root.Path)
		}
		return l.notFound(root, name)
	}

	for _, candidate := range Candidates(root.Path, name).Paths {
		// A README directly in the rules root documents the repository.
		if path.Dir(candidate) == root.Path && isReadme(candidate) {
			continue
		}
		file, ok := l.match(candidate, name)
		if ok {
			return l.read(name, file)
		}
	}

	return l.notFound(root, name)
}

// match reports whether candidate names an existing regular file.
func (l *Locator) match(candidate, name string) (string, bool) {
	if !isGlob(candidate) {
		info, err := l.fs.Stat(candidate)
		if err != nil || info.IsDir() {
			return "", false
		}
		return candidate, true
	}

	matches, err := util.Glob(l.fs, candidate)
	if err != nil {
		return "", false
	}
	for _, m := range matches {
		m = filepath.ToSlash(m)
		base := path.Base(m)
		if !numericPrefix.MatchString(base) || LogicalName(base) != name {
			continue
		}
		if info, err := l.fs.Stat(m); err == nil && !info.IsDir() {
			return m, true
		}
	}
	return "", false
}

func (l *Locator) read(name, file string) (Resolution, error) {
	data, err := util.ReadFile(l.fs, file)
	if err != nil {
		return Resolution{}, errors.WithContext(
			errors.Wrapf(err, errors.CodeIO, "failed to read rule %q", name),
			"file", file,
		)
	}
	return Resolution{Found: true, Name: name, Path: file, Content: string(data)}, nil
}

func (l *Locator) notFound(root Root, name string) (Resolution, error) {
	entries, err := l.catalog.list(root)
	if err != nil {
		return Resolution{}, err
	}

	seen := map[string]bool{name: true}
	alternatives := make([]string, 0, len(entries))
	for _, e := range entries {
		if seen[e.Name] {
			continue
		}
		seen[e.Name] = true
		alternatives = append(alternatives, e.Name)
	}

	return Resolution{Found: false, Name: name, Alternatives: alternatives}, nil
}
