// Package cache keeps a local mirror of the rules repository fresh.
//
// # Overview
//
// A Mirror owns one working-tree clone of a remote repository:
//
//	~/.cache/cursor-rules-mcp/
//	├── github.com/org/rules/          # the mirror (a normal git clone)
//	└── github.com/org/rules.state.json
//
// EnsureFresh decides whether the mirror must be fetched:
//
//  1. A missing mirror is always cloned.
//  2. A mirror fetched less than TTL ago is used as is, unless the caller
//     forces a refresh.
//  3. If a fetch is already running the caller waits for it and shares its
//     result; a second fetch is never started.
//  4. Otherwise the mirror is pulled, the configured ref is checked out and
//     the fetch time recorded.
//
// Fetches run on a context detached from the caller, bounded by the fetch
// timeout, so a client that gives up does not leave a half-updated mirror.
//
// # Usage
//
//	mirror, err := cache.New(url, path, git.NewCLIFetcher(),
//	    cache.WithTTL(time.Hour),
//	    cache.WithRef("main"),
//	    cache.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//
//	if err := mirror.EnsureFresh(ctx, false); err != nil {
//	    return err
//	}
//	// read files under mirror.Path()
//
// # Persistence
//
// The time of the last successful fetch is written to a small JSON state file
// next to the mirror (write to temp file, then rename). A process restarted
// within the TTL therefore serves the existing mirror without fetching.
//
// # Concurrency
//
// Mirror is safe for concurrent use within one process. Nothing coordinates
// separate processes sharing a cache directory.
package cache

//go:generate go run github.com/matryer/moq@latest -out fetcher_mock_test.go -pkg cache ../git Fetcher
