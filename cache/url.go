package cache

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattcknight/cursor-rules-mcp/errors"
)

// AppName is the directory created under the user cache directory.
const AppName = "cursor-rules-mcp"

// normalizeURL turns a repository URL into a relative, filesystem-safe path.
//
// Examples:
//   - https://github.com/my/repo.git → github.com/my/repo
//   - git@github.com:my/repo → github.com/my/repo
//   - ssh://git@host:2222/org/repo.git → host/org/repo
//   - file:///srv/git/rules → srv/git/rules
//   - /srv/git/rules → srv/git/rules
func normalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	rawURL = strings.TrimSuffix(strings.TrimSuffix(rawURL, "/"), ".git")

	var joined string
	switch {
	case strings.Contains(rawURL, "://"):
		parsed, err := url.Parse(rawURL)
		if err != nil {
			joined = rawURL[strings.Index(rawURL, "://")+3:]
		} else {
			joined = parsed.Hostname() + "/" + parsed.Path
		}
	case strings.Contains(rawURL, "@") && strings.Contains(rawURL, ":"):
		// scp-style: user@host:path
		hostPath := strings.SplitN(rawURL, "@", 2)[1]
		joined = strings.Replace(hostPath, ":", "/", 1)
	default:
		joined = filepath.ToSlash(rawURL)
	}

	return cleanSegments(joined)
}

// cleanSegments drops empty, "." and ".." segments and characters that are
// unsafe in directory names.
func cleanSegments(p string) string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		seg = strings.Map(func(r rune) rune {
			switch r {
			case ':', '*', '?', '"', '<', '>', '|', '\\':
				return '_'
			}
			return r
		}, seg)
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		out = append(out, seg)
	}
	if len(out) == 0 {
		return "default"
	}
	return strings.Join(out, "/")
}

// DefaultPath returns the default mirror location for url:
// $XDG_CACHE_HOME/cursor-rules-mcp/<normalized-url> (see os.UserCacheDir).
func DefaultPath(rawURL string) (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", errors.WithHints(
			errors.Wrap(err, errors.CodeInvalidConfig, "failed to determine user cache directory"),
			"set the cache directory explicitly (CURSOR_RULES_CACHE_DIR or --cache-dir)",
		)
	}
	return PathFor(base, rawURL), nil
}

// PathFor returns the mirror location for url under base.
func PathFor(base, rawURL string) string {
	return filepath.Join(base, AppName, filepath.FromSlash(normalizeURL(rawURL)))
}
