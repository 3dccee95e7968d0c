// Package git keeps a local mirror of a remote repository in sync.
//
// The Fetcher interface has three operations: Clone, Pull and Checkout. Two
// implementations are provided:
//
//   - CLIFetcher runs the git executable through the exec package. It is the
//     default and picks up the user's git configuration, credential helpers
//     and ssh-agent.
//   - NativeFetcher uses go-git in-process. It needs no executable and
//     authenticates with explicit Credentials (an HTTPS token or an SSH key).
//
// # Errors
//
// Failures are returned as PlatformErrors from the errors package. go-git
// sentinel errors and git's stderr output are classified into codes such as
// NOT_FOUND, UNAUTHORIZED, NETWORK_ERROR and TIMEOUT, and every error carries
// remediation hints:
//
//	err := fetcher.Clone(ctx, url, path)
//	fmt.Println(errors.Format(err))
//	// [UNAUTHORIZED] failed to clone repository: authentication failed: ...
//	//
//	// Suggestions:
//	// - check that your credentials have read access to the repository
//	// - verify the repository URL is correct
//
// A missing git executable is reported as INVALID_CONFIGURATION the first
// time the CLIFetcher is used.
//
// # Authentication
//
//	creds := git.Credentials{Token: os.Getenv("CURSOR_RULES_TOKEN")}
//	fetcher := git.NewFetcher(git.KindGoGit, creds)
//
// The CLI fetcher passes tokens through GIT_CONFIG_* environment variables
// and SSH keys through GIT_SSH_COMMAND so that neither appears in command
// lines or error messages.
package git
