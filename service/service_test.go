package service

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattcknight/cursor-rules-mcp/cache"
	"github.com/mattcknight/cursor-rules-mcp/errors"
	"github.com/mattcknight/cursor-rules-mcp/git"
	"github.com/mattcknight/cursor-rules-mcp/git/testutil"
)

var ruleFiles = map[string]string{
	"README.md":               "# Team rules\n",
	"rules/10-code-style.mdc": "---\ndescription: How we format code\n---\n# Code style\n\nUse gofmt.\n",
	"rules/testing.md":        "# Testing\n\nTable-driven tests.\n",
	"rules/api/README.md":     "# API design\n",
}

// countingFetcher wraps a real fetcher, counts calls and can hold a fetch
// until released.
type countingFetcher struct {
	git.Fetcher

	clones atomic.Int32
	pulls  atomic.Int32

	mu      sync.Mutex
	gate    chan struct{}
	started chan struct{}
}

func (f *countingFetcher) hold() (started, release chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
	f.started = make(chan struct{})
	return f.started, f.gate
}

func (f *countingFetcher) wait() {
	f.mu.Lock()
	gate, started := f.gate, f.started
	f.gate, f.started = nil, nil
	f.mu.Unlock()

	if gate != nil {
		close(started)
		<-gate
	}
}

func (f *countingFetcher) Clone(ctx context.Context, url, path string) error {
	f.clones.Add(1)
	f.wait()
	return f.Fetcher.Clone(ctx, url, path)
}

func (f *countingFetcher) Pull(ctx context.Context, path string) error {
	f.pulls.Add(1)
	f.wait()
	return f.Fetcher.Pull(ctx, path)
}

type fixture struct {
	remote  *testutil.Repo
	fetcher *countingFetcher
	mirror  *cache.Mirror
	reg     *prometheus.Registry
	svc     *Service
}

func newFixture(t *testing.T, files map[string]string, opts ...cache.Option) *fixture {
	t.Helper()

	f := &fixture{
		remote:  testutil.NewRepo(t, files),
		fetcher: &countingFetcher{Fetcher: git.NewNativeFetcher()},
		reg:     prometheus.NewRegistry(),
	}

	base := []cache.Option{cache.WithMetrics(cache.NewMetrics(f.reg))}
	mirror, err := cache.New(f.remote.Path, filepath.Join(t.TempDir(), "mirror"), f.fetcher, append(base, opts...)...)
	require.NoError(t, err)

	f.mirror = mirror
	f.svc = New(mirror)
	return f
}

func (f *fixture) sharedWaits(t *testing.T) float64 {
	t.Helper()

	families, err := f.reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "cursor_rules_mirror_shared_waits_total" {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func TestGetRule_NumericPrefix(t *testing.T) {
	f := newFixture(t, ruleFiles)

	res, err := f.svc.GetRule(context.Background(), "code-style", false)
	require.NoError(t, err)

	assert.True(t, res.Found)
	assert.Equal(t, "rules/10-code-style.mdc", res.Path)
	assert.Equal(t, ruleFiles["rules/10-code-style.mdc"], res.Content)
	assert.Equal(t, int32(1), f.fetcher.clones.Load())
}

func TestGetRule_NotFound(t *testing.T) {
	f := newFixture(t, map[string]string{
		"rules/a.mdc":     "a",
		"rules/b.md":      "b",
		"rules/README.md": "readme",
	})

	res, err := f.svc.GetRule(context.Background(), "nonexistent", false)
	require.NoError(t, err)

	assert.False(t, res.Found)
	assert.Equal(t, []string{"a", "b"}, res.Alternatives)
}

func TestGetRule_EmptyName(t *testing.T) {
	f := newFixture(t, ruleFiles)

	_, err := f.svc.GetRule(context.Background(), "", false)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}

func TestListRules(t *testing.T) {
	f := newFixture(t, ruleFiles)

	descriptors, err := f.svc.ListRules(context.Background(), false)
	require.NoError(t, err)

	var names []string
	for _, d := range descriptors {
		names = append(names, d.Name)
		assert.Equal(t, "rules://"+d.Name, d.URI)
		assert.NotContains(t, []string{"README.md", "rules/README.md"}, d.File)
	}
	assert.Equal(t, []string{"code-style", "api", "testing"}, names)
	assert.Equal(t, "How we format code", descriptors[0].Description)
	assert.Equal(t, "API design", descriptors[1].Description)
	assert.Equal(t, "rules/api/README.md", descriptors[1].File)
}

func TestGetAllRules(t *testing.T) {
	f := newFixture(t, ruleFiles)
	ctx := context.Background()

	all, err := f.svc.GetAllRules(ctx, false)
	require.NoError(t, err)
	listed, err := f.svc.ListRules(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, len(listed), strings.Count(all, "<!-- BEGIN RULE: "))
	assert.Contains(t, all, "<!-- BEGIN RULE: code-style (rules/10-code-style.mdc) -->")
	assert.NotContains(t, all, "Team rules")
	assert.Equal(t, int32(1), f.fetcher.clones.Load(), "second call within TTL does not fetch")
}

func TestGetReadme(t *testing.T) {
	t.Run("repository root", func(t *testing.T) {
		f := newFixture(t, ruleFiles)

		readme, err := f.svc.GetReadme(context.Background(), false)
		require.NoError(t, err)
		assert.Equal(t, "# Team rules\n", readme.Content)
		assert.Equal(t, "README.md", readme.File)
	})

	t.Run("missing", func(t *testing.T) {
		f := newFixture(t, map[string]string{"rules/a.md": "a"})

		_, err := f.svc.GetReadme(context.Background(), false)
		require.Error(t, err)
		assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

		var perr errors.PlatformError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "get_readme", perr.Context()["operation"])
		assert.NotEmpty(t, perr.Hints())
	})
}

func TestRefresh_PicksUpNewCommits(t *testing.T) {
	f := newFixture(t, ruleFiles)
	ctx := context.Background()

	res, err := f.svc.GetRule(ctx, "testing", false)
	require.NoError(t, err)
	require.True(t, res.Found)

	f.remote.Commit(t, "update testing", map[string]string{"rules/testing.md": "# Testing v2\n"})

	// Within the TTL the old content is served.
	res, err = f.svc.GetRule(ctx, "testing", false)
	require.NoError(t, err)
	assert.Equal(t, ruleFiles["rules/testing.md"], res.Content)

	status, err := f.svc.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, status.Fresh)
	assert.True(t, status.MirrorExists)

	res, err = f.svc.GetRule(ctx, "testing", false)
	require.NoError(t, err)
	assert.Equal(t, "# Testing v2\n", res.Content)
	assert.Equal(t, int32(1), f.fetcher.pulls.Load())
}

func TestForceRefreshFlag(t *testing.T) {
	f := newFixture(t, ruleFiles)
	ctx := context.Background()

	_, err := f.svc.GetRule(ctx, "testing", false)
	require.NoError(t, err)
	f.remote.Commit(t, "update", map[string]string{"rules/testing.md": "forced"})

	res, err := f.svc.GetRule(ctx, "testing", true)
	require.NoError(t, err)
	assert.Equal(t, "forced", res.Content)
}

func TestRefresh_JoinsFetchInProgress(t *testing.T) {
	f := newFixture(t, ruleFiles)
	ctx := context.Background()

	started, release := f.fetcher.hold()

	type ruleOutcome struct {
		res RuleResult
		err error
	}
	ruleDone := make(chan ruleOutcome, 1)
	go func() {
		res, err := f.svc.GetRule(ctx, "code-style", false)
		ruleDone <- ruleOutcome{res, err}
	}()
	<-started

	refreshDone := make(chan error, 1)
	go func() {
		_, err := f.svc.Refresh(ctx)
		refreshDone <- err
	}()

	require.Eventually(t, func() bool {
		return f.sharedWaits(t) == 1
	}, 5*time.Second, 5*time.Millisecond)
	close(release)

	require.NoError(t, <-refreshDone)
	outcome := <-ruleDone
	require.NoError(t, outcome.err)
	assert.True(t, outcome.res.Found)

	assert.Equal(t, int32(1), f.fetcher.clones.Load())
	assert.Equal(t, int32(0), f.fetcher.pulls.Load(), "refresh shares the running clone")
}

func TestStatus_DoesNotFetch(t *testing.T) {
	f := newFixture(t, ruleFiles, cache.WithRef("main"))

	status := f.svc.Status(context.Background())
	assert.False(t, status.MirrorExists)
	assert.Nil(t, status.LastFetch)
	assert.Equal(t, "main", status.Ref)
	assert.Equal(t, int32(0), f.fetcher.clones.Load())
}

func TestFetchFailureIsPlatformError(t *testing.T) {
	mirror, err := cache.New(filepath.Join(t.TempDir(), "does-not-exist"),
		filepath.Join(t.TempDir(), "mirror"), git.NewNativeFetcher())
	require.NoError(t, err)
	svc := New(mirror)

	_, err = svc.GetRule(context.Background(), "anything", false)
	require.Error(t, err)

	var perr errors.PlatformError
	require.True(t, errors.As(err, &perr))
	assert.NotEmpty(t, perr.Hints())
	assert.Equal(t, "get_rule", perr.Context()["operation"])
	assert.False(t, svc.Status(context.Background()).FetchInProgress)
}

type stubMirror struct {
	err  error
	path string
}

func (m *stubMirror) EnsureFresh(context.Context, bool) error { return m.err }
func (m *stubMirror) Status() cache.Status                    { return cache.Status{Path: m.path} }
func (m *stubMirror) Path() string                            { return m.path }

func TestBoundaryWrapsPlainErrors(t *testing.T) {
	svc := New(&stubMirror{err: stderrors.New("disk on fire"), path: t.TempDir()})
	ctx := context.Background()

	calls := map[string]func() error{
		"get_rule":      func() error { _, err := svc.GetRule(ctx, "x", false); return err },
		"list_rules":    func() error { _, err := svc.ListRules(ctx, false); return err },
		"get_all_rules": func() error { _, err := svc.GetAllRules(ctx, false); return err },
		"get_readme":    func() error { _, err := svc.GetReadme(ctx, false); return err },
		"refresh":       func() error { _, err := svc.Refresh(ctx); return err },
	}

	for op, call := range calls {
		t.Run(op, func(t *testing.T) {
			err := call()
			require.Error(t, err)

			var perr errors.PlatformError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, errors.CodeInternal, perr.Code())
			assert.Equal(t, op, perr.Context()["operation"])
			assert.Contains(t, perr.Error(), "disk on fire")
		})
	}
}
