package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattcknight/cursor-rules-mcp/cache"
	"github.com/mattcknight/cursor-rules-mcp/config"
	"github.com/mattcknight/cursor-rules-mcp/errors"
	"github.com/mattcknight/cursor-rules-mcp/git/testutil"
	"github.com/mattcknight/cursor-rules-mcp/logging"
)

var ruleFiles = map[string]string{
	"README.md":               "# Team rules\n",
	"rules/10-code-style.mdc": "---\ndescription: How we format code\n---\n# Code style\n",
	"rules/testing.md":        "# Testing\n",
}

// setEnv points the CLI at a fresh fixture repository using the in-process
// fetcher so no git executable is needed.
func setEnv(t *testing.T) *testutil.Repo {
	t.Helper()

	remote := testutil.NewRepo(t, ruleFiles)
	for _, env := range []string{
		config.EnvConfigFile, config.EnvRef, config.EnvTTL, config.EnvFetchTimeout,
		config.EnvUsername, config.EnvToken, config.EnvSSHKey, config.EnvSSHKeyPassword,
		config.EnvLogFormat,
	} {
		t.Setenv(env, "")
	}
	t.Setenv(config.EnvRepoURL, remote.Path)
	t.Setenv(config.EnvCacheDir, t.TempDir())
	t.Setenv(config.EnvFetcher, "gogit")
	t.Setenv(config.EnvLogLevel, "error")
	return remote
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cli := New("1.2.3")
	cli.SetIO(strings.NewReader(""), &out, &errOut)
	cli.SetArgs(args)
	err = cli.Execute(context.Background())
	return out.String(), errOut.String(), err
}

func TestGet(t *testing.T) {
	setEnv(t)

	out, _, err := execute(t, "get", "code-style")
	require.NoError(t, err)
	assert.Equal(t, ruleFiles["rules/10-code-style.mdc"], out)
}

func TestGet_NotFound(t *testing.T) {
	setEnv(t)

	_, _, err := execute(t, "get", "missing")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.Contains(t, errors.Format(err), "available rules: code-style, testing")
}

func TestGet_RequiresName(t *testing.T) {
	setEnv(t)

	_, _, err := execute(t, "get")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	setEnv(t)

	out, _, err := execute(t, "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "code-style")
	assert.Contains(t, lines[1], "How we format code")
	assert.Contains(t, lines[2], "testing")

	out, _, err = execute(t, "list", "--json")
	require.NoError(t, err)
	var descriptors []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &descriptors))
	require.Len(t, descriptors, 2)
	assert.Equal(t, "rules://code-style", descriptors[0]["uri"])
}

func TestAllAndReadme(t *testing.T) {
	setEnv(t)

	out, _, err := execute(t, "all")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "<!-- BEGIN RULE: "))

	out, _, err = execute(t, "readme")
	require.NoError(t, err)
	assert.Equal(t, "# Team rules\n", out)
}

func TestStatusAndRefresh(t *testing.T) {
	remote := setEnv(t)

	out, _, err := execute(t, "status")
	require.NoError(t, err)
	var status map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, false, status["mirror_exists"])

	out, _, err = execute(t, "refresh")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, true, status["mirror_exists"])
	assert.Equal(t, true, status["fresh"])

	remote.Commit(t, "update", map[string]string{"rules/testing.md": "v2\n"})

	// A new process within the TTL reuses the persisted fetch time.
	out, _, err = execute(t, "get", "testing")
	require.NoError(t, err)
	assert.Equal(t, "# Testing\n", out)

	out, _, err = execute(t, "get", "--force", "testing")
	require.NoError(t, err)
	assert.Equal(t, "v2\n", out)
}

func TestMissingRepoURL(t *testing.T) {
	setEnv(t)
	t.Setenv(config.EnvRepoURL, "")

	_, _, err := execute(t, "list")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))

	_, _, err = execute(t, "serve")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "cursor-rules-mcp version 1.2.3\n", out)
}

func TestServeMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	cache.NewMetrics(reg)

	addr, stop, err := serveMetrics(context.Background(), "127.0.0.1:0", reg, logging.NewNopLogger())
	require.NoError(t, err)
	defer stop()

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "cursor_rules_mirror_fresh_hits_total")
}

func TestServeMetrics_BadAddr(t *testing.T) {
	_, _, err := serveMetrics(context.Background(), "256.0.0.1:99999", prometheus.NewRegistry(), logging.NewNopLogger())
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
}
