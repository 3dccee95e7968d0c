package config

import (
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/mattcknight/cursor-rules-mcp/errors"
)

//go:embed schema.cue
var schemaSource []byte

// schemaDefinition is the definition a config file is unified with.
const schemaDefinition = "#Config"

// fileConfig mirrors #Config. Durations stay strings until merged.
type fileConfig struct {
	RepoURL      string `json:"repo_url"`
	Ref          string `json:"ref"`
	TTL          string `json:"ttl"`
	FetchTimeout string `json:"fetch_timeout"`
	CacheDir     string `json:"cache_dir"`
	Fetcher      string `json:"fetcher"`
	Auth         struct {
		Username       string `json:"username"`
		Token          string `json:"token"`
		SSHKey         string `json:"ssh_key"`
		SSHKeyPassword string `json:"ssh_key_password"`
	} `json:"auth"`
	Log struct {
		Level  string `json:"level"`
		Format string `json:"format"`
	} `json:"log"`
	AutoRefresh string `json:"auto_refresh"`
	MetricsAddr string `json:"metrics_addr"`
}

// parseFile validates data against the embedded schema and decodes it.
// Files ending in .yaml or .yml are read as YAML; anything else is compiled
// as CUE, which also covers JSON.
func parseFile(path string, data []byte) (*fileConfig, error) {
	cctx := cuecontext.New()

	schema := cctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "embedded config schema is invalid")
	}
	def := schema.LookupPath(cue.ParsePath(schemaDefinition))

	value, err := compileFile(cctx, path, data)
	if err != nil {
		return nil, err
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true), cue.Final(), cue.All()); err != nil {
		return nil, cueError(err, path, "config file does not match schema")
	}

	var fc fileConfig
	if err := unified.Decode(&fc); err != nil {
		return nil, cueError(err, path, "failed to decode config file")
	}
	return &fc, nil
}

func compileFile(cctx *cue.Context, path string, data []byte) (cue.Value, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return cue.Value{}, errors.WithContext(
				errors.Wrap(err, errors.CodeInvalidConfig, "failed to parse YAML config file"),
				"file", path,
			)
		}
		if doc == nil {
			doc = map[string]any{}
		}
		value := cctx.Encode(doc)
		if err := value.Err(); err != nil {
			return cue.Value{}, cueError(err, path, "failed to convert YAML config file")
		}
		return value, nil

	default:
		value := cctx.CompileBytes(data, cue.Filename(path))
		if err := value.Err(); err != nil {
			return cue.Value{}, cueError(err, path, "failed to compile config file")
		}
		return value, nil
	}
}

// cueError converts a CUE error into INVALID_CONFIGURATION with one issue
// line per underlying error.
func cueError(err error, path, message string) error {
	var issues []string
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if p := e.Path(); len(p) > 0 {
			msg = strings.Join(p, ".") + ": " + msg
		}
		issues = append(issues, msg)
	}

	return errors.WithHints(
		errors.WrapWithContext(err, errors.CodeInvalidConfig, message, map[string]interface{}{
			"file":   path,
			"issues": issues,
		}),
		"durations use Go syntax such as \"30m\" or \"1h\"",
		"fetcher must be \"cli\" or \"gogit\"",
	)
}
