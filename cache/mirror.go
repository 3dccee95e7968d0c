package cache

import (
	"context"
	"encoding/json"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/sync/singleflight"

	"github.com/mattcknight/cursor-rules-mcp/errors"
	"github.com/mattcknight/cursor-rules-mcp/git"
	"github.com/mattcknight/cursor-rules-mcp/logging"
)

const flightKey = "fetch"

// Mirror is a local working copy of a remote rules repository that is kept
// fresh under a TTL. At most one clone or pull runs at a time; concurrent
// callers share its result.
//
// A Mirror is safe for concurrent use. It does not coordinate with other
// processes using the same path.
type Mirror struct {
	url       string
	path      string
	statePath string
	ref       string

	ttl          time.Duration
	fetchTimeout time.Duration
	clock        Clock
	fetcher      git.Fetcher
	fs           billy.Filesystem
	persist      bool
	logger       *logging.Logger
	metrics      *Metrics

	group singleflight.Group

	mu         sync.Mutex
	lastFetch  time.Time
	lastErr    error
	inProgress bool
}

// New creates a Mirror of rawURL at path. The parent directory of path is
// created if missing. Persisted state from a previous run is reused when it
// describes the same URL and ref, so a restart within the TTL does not fetch.
//
// Example:
//
//	m, err := cache.New("https://github.com/org/rules.git", dir,
//	    git.NewCLIFetcher(),
//	    cache.WithTTL(30*time.Minute),
//	    cache.WithRef("main"))
func New(rawURL, path string, fetcher git.Fetcher, opts ...Option) (*Mirror, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, errors.WithHints(
			errors.New(errors.CodeInvalidConfig, "rules repository URL is required"),
			"set CURSOR_RULES_REPO_URL or pass --repo-url",
		)
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New(errors.CodeInvalidConfig, "mirror path is required")
	}
	if fetcher == nil {
		return nil, errors.New(errors.CodeInvalidConfig, "fetcher is required")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeInvalidConfig, "invalid mirror path %q", path)
	}

	m := &Mirror{
		url:          rawURL,
		path:         abs,
		statePath:    abs + ".state.json",
		ttl:          DefaultTTL,
		fetchTimeout: DefaultFetchTimeout,
		clock:        systemClock{},
		fetcher:      fetcher,
		fs:           osfs.New("/"),
		persist:      true,
		logger:       logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.fs.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, errors.WithContext(
			errors.Wrap(err, errors.CodeIO, "failed to create cache directory"),
			"path", filepath.Dir(abs),
		)
	}

	if m.persist {
		state, err := loadState(m.fs, m.statePath)
		if err != nil {
			m.logger.Warn(context.Background(), "ignoring mirror state", "path", m.statePath, "error", err.Error())
		} else if state.matches(m.url, m.ref) && m.exists() {
			m.lastFetch = state.LastFetch
			m.metrics.observeLastFetch(state.LastFetch)
		}
	}

	return m, nil
}

// Path returns the absolute mirror directory.
func (m *Mirror) Path() string { return m.path }

// URL returns the remote repository URL.
func (m *Mirror) URL() string { return m.url }

// Ref returns the configured ref, or "" for the remote default branch.
func (m *Mirror) Ref() string { return m.ref }

// TTL returns the freshness window.
func (m *Mirror) TTL() time.Duration { return m.ttl }

// EnsureFresh makes sure the mirror exists and was fetched within the TTL.
//
// A missing mirror is always cloned. An existing one is pulled when force is
// set or the TTL has elapsed. A caller arriving while a fetch is running
// waits for that fetch and returns its result without starting another.
//
// The fetch itself is not cancelled by ctx; it is bounded by the fetch
// timeout instead. When ctx ends first the caller stops waiting and gets a
// TIMEOUT or SERVICE_UNAVAILABLE error while the fetch runs to completion.
func (m *Mirror) EnsureFresh(ctx context.Context, force bool) error {
	if !force {
		m.mu.Lock()
		age, fresh := m.freshLocked()
		m.mu.Unlock()
		if fresh {
			m.metrics.observeFreshHit()
			logging.LogFreshHit(ctx, m.logger, age)
			return nil
		}
	}

	// Joining must happen under mu so the running flight cannot clear
	// inProgress and leave the group between the check and DoChan.
	m.mu.Lock()
	if m.inProgress {
		m.metrics.observeSharedWait()
		logging.LogFetchWait(ctx, m.logger)
	}
	ch := m.group.DoChan(flightKey, func() (interface{}, error) {
		return nil, m.fetch(ctx, force)
	})
	m.mu.Unlock()

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return waitError(ctx.Err())
	}
}

// fetch runs inside the flight. The freshness check is repeated so a caller
// that lost a race with a just-finished fetch does not fetch again.
func (m *Mirror) fetch(ctx context.Context, force bool) error {
	m.mu.Lock()
	if _, fresh := m.freshLocked(); fresh && !force {
		m.mu.Unlock()
		return nil
	}
	m.inProgress = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inProgress = false
		m.mu.Unlock()
	}()

	ctx = context.WithoutCancel(ctx)
	if m.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.fetchTimeout)
		defer cancel()
	}

	kind := logging.FetchPull
	if !m.exists() {
		kind = logging.FetchClone
	}

	start := time.Now()
	err := m.run(ctx, kind)
	elapsed := time.Since(start)

	m.metrics.observeFetch(kind, elapsed, err)
	logging.LogFetch(ctx, m.logger, kind, redactURL(m.url), elapsed, err)

	if err != nil {
		err = m.fetchError(err)
		m.mu.Lock()
		m.lastErr = err
		m.mu.Unlock()
		return err
	}

	now := m.clock.Now()
	m.mu.Lock()
	m.lastFetch = now
	m.lastErr = nil
	m.mu.Unlock()
	m.metrics.observeLastFetch(now)

	if m.persist {
		state := &mirrorState{Version: stateVersion, URL: m.url, Ref: m.ref, LastFetch: now}
		if err := state.save(m.fs, m.statePath); err != nil {
			m.logger.Warn(ctx, "failed to save mirror state", "path", m.statePath, "error", err.Error())
		}
	}

	return nil
}

func (m *Mirror) run(ctx context.Context, kind logging.FetchKind) error {
	if kind == logging.FetchClone {
		// Leftovers of an interrupted clone would make the clone fail.
		if _, err := m.fs.Stat(m.path); err == nil {
			if err := util.RemoveAll(m.fs, m.path); err != nil {
				return errors.Wrap(err, errors.CodeIO, "failed to remove incomplete mirror")
			}
		}
		if err := m.fetcher.Clone(ctx, m.url, m.path); err != nil {
			return err
		}
	} else if err := m.fetcher.Pull(ctx, m.path); err != nil {
		return err
	}

	if m.ref != "" {
		return m.fetcher.Checkout(ctx, m.path, m.ref)
	}
	return nil
}

func (m *Mirror) fetchError(err error) error {
	fields := map[string]interface{}{
		"url":  redactURL(m.url),
		"path": m.path,
	}
	var platformErr errors.PlatformError
	if errors.As(err, &platformErr) {
		return errors.WithContextMap(err, fields)
	}
	return errors.WithContextMap(
		errors.WithHints(
			errors.Wrap(err, errors.CodeFetchFailed, "rules repository fetch failed"),
			git.HintConnectivity, git.HintURL, git.HintPermissions,
		),
		fields,
	)
}

// freshLocked reports the mirror age and whether it is within the TTL.
// Callers hold mu.
func (m *Mirror) freshLocked() (time.Duration, bool) {
	if m.lastFetch.IsZero() || m.ttl <= 0 {
		return 0, false
	}
	age := m.clock.Now().Sub(m.lastFetch)
	if age >= m.ttl || !m.exists() {
		return age, false
	}
	return age, true
}

// exists reports whether the mirror directory holds a repository.
func (m *Mirror) exists() bool {
	_, err := m.fs.Stat(filepath.Join(m.path, ".git"))
	return err == nil
}

// Status is a point-in-time snapshot of a Mirror.
type Status struct {
	Path            string
	URL             string
	Ref             string
	TTL             time.Duration
	LastFetch       *time.Time
	Age             time.Duration
	Fresh           bool
	FetchInProgress bool
	MirrorExists    bool

	// LastError is the error of the most recent fetch, nil once a fetch
	// succeeds.
	LastError error
}

// Status returns a snapshot of the mirror. It never fetches.
func (m *Mirror) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Status{
		Path:            m.path,
		URL:             redactURL(m.url),
		Ref:             m.ref,
		TTL:             m.ttl,
		FetchInProgress: m.inProgress,
		MirrorExists:    m.exists(),
		LastError:       m.lastErr,
	}
	if !m.lastFetch.IsZero() {
		last := m.lastFetch
		s.LastFetch = &last
		s.Age, s.Fresh = m.freshLocked()
	}
	return s
}

// MarshalJSON renders durations as Go duration strings.
func (s Status) MarshalJSON() ([]byte, error) {
	out := struct {
		Path            string                `json:"path"`
		URL             string                `json:"url"`
		Ref             string                `json:"ref,omitempty"`
		TTL             string                `json:"ttl"`
		LastFetch       *time.Time            `json:"last_fetch,omitempty"`
		Age             string                `json:"age,omitempty"`
		Fresh           bool                  `json:"fresh"`
		FetchInProgress bool                  `json:"fetch_in_progress"`
		MirrorExists    bool                  `json:"mirror_exists"`
		LastError       *errors.ErrorResponse `json:"last_error,omitempty"`
	}{
		Path:            s.Path,
		URL:             s.URL,
		Ref:             s.Ref,
		TTL:             s.TTL.String(),
		LastFetch:       s.LastFetch,
		Fresh:           s.Fresh,
		FetchInProgress: s.FetchInProgress,
		MirrorExists:    s.MirrorExists,
		LastError:       errors.ToJSON(s.LastError),
	}
	if s.LastFetch != nil {
		out.Age = s.Age.Round(time.Second).String()
	}
	return json.Marshal(out)
}

func waitError(err error) error {
	if err == context.DeadlineExceeded {
		return errors.Wrap(err, errors.CodeTimeout, "timed out waiting for rules repository fetch")
	}
	return errors.Wrap(err, errors.CodeUnavailable, "stopped waiting for rules repository fetch")
}

// redactURL hides any password or token embedded in an http(s) URL.
func redactURL(raw string) string {
	if !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		// A bare user part on https is usually a token.
		if u.Scheme == "http" || u.Scheme == "https" {
			u.User = url.User("xxxxx")
		}
		return u.String()
	}
	return u.Redacted()
}
