package git

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"github.com/mattcknight/cursor-rules-mcp/errors"
)

// defaultTokenUser is the username paired with a bare access token. GitHub,
// Gitea and GitLab all accept it for token authentication over HTTPS.
const defaultTokenUser = "x-access-token"

// Credentials selects how fetchers authenticate against the remote.
// The zero value means ambient credentials: public access for go-git, and
// whatever credential helpers or ssh-agent the git CLI is configured with.
type Credentials struct {
	// Username paired with Token. Defaults to "x-access-token".
	Username string

	// Token is an HTTPS access token.
	Token string

	// SSHKeyPath is a PEM encoded private key used for ssh:// and scp-style URLs.
	SSHKeyPath string

	// SSHKeyPassword decrypts SSHKeyPath when it is encrypted.
	SSHKeyPassword string
}

// IsZero reports whether no explicit credentials were configured.
func (c Credentials) IsZero() bool {
	return c.Token == "" && c.SSHKeyPath == ""
}

func (c Credentials) tokenUser() string {
	if c.Username != "" {
		return c.Username
	}
	return defaultTokenUser
}

// AuthMethod returns the go-git authentication for url. HTTP(S) URLs use the
// token, everything else uses the SSH key. Returns nil when nothing applies.
func (c Credentials) AuthMethod(url string) (transport.AuthMethod, error) {
	if isHTTPURL(url) {
		if c.Token == "" {
			return nil, nil
		}
		return BasicAuth(c.tokenUser(), c.Token), nil
	}

	if c.SSHKeyPath == "" {
		return nil, nil
	}

	var opts []SSHKeyOption
	if c.SSHKeyPassword != "" {
		opts = append(opts, WithSSHPassword(c.SSHKeyPassword))
	}
	return SSHKeyFile("git", c.SSHKeyPath, opts...)
}

// gitEnv returns environment variables that make the git CLI use these
// credentials. The token travels through GIT_CONFIG_* variables so it never
// appears in the argument list, which ends up in error messages.
func (c Credentials) gitEnv() map[string]string {
	env := map[string]string{}

	if c.Token != "" {
		basic := base64.StdEncoding.EncodeToString([]byte(c.tokenUser() + ":" + c.Token))
		env["GIT_CONFIG_COUNT"] = "1"
		env["GIT_CONFIG_KEY_0"] = "http.extraHeader"
		env["GIT_CONFIG_VALUE_0"] = "Authorization: Basic " + basic
	}

	if c.SSHKeyPath != "" {
		env["GIT_SSH_COMMAND"] = fmt.Sprintf("ssh -i %s -o IdentitiesOnly=yes -o BatchMode=yes", shellQuote(c.SSHKeyPath))
	}

	return env
}

// SSHKeyOption configures SSH key authentication.
type SSHKeyOption func(*sshKeyOptions)

type sshKeyOptions struct {
	password string
}

// WithSSHPassword sets the password for encrypted SSH keys.
func WithSSHPassword(password string) SSHKeyOption {
	return func(opts *sshKeyOptions) {
		opts.password = password
	}
}

// SSHKeyAuth creates SSH authentication from PEM-encoded key bytes.
//
// Example:
//
//	auth, err := git.SSHKeyAuth("git", keyBytes, git.WithSSHPassword("passphrase"))
func SSHKeyAuth(user string, pemBytes []byte, opts ...SSHKeyOption) (transport.AuthMethod, error) {
	options := &sshKeyOptions{}
	for _, opt := range opts {
		opt(options)
	}

	publicKeys, err := ssh.NewPublicKeys(user, pemBytes, options.password)
	if err != nil {
		return nil, errors.WithHints(
			errors.Wrap(err, errors.CodeInvalidConfig, "failed to parse SSH key"),
			"check that the key is PEM encoded",
			"set the key password if the key is encrypted",
		)
	}

	return publicKeys, nil
}

// SSHKeyFile creates SSH authentication by reading a key from a file.
func SSHKeyFile(user string, keyPath string, opts ...SSHKeyOption) (transport.AuthMethod, error) {
	pemBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, errors.WithContext(
			errors.Wrapf(err, errors.CodeInvalidConfig, "failed to read SSH key file %q", keyPath),
			"path", keyPath,
		)
	}

	return SSHKeyAuth(user, pemBytes, opts...)
}

// BasicAuth creates HTTP basic authentication, typically a username paired
// with a personal access token.
func BasicAuth(username, password string) transport.AuthMethod {
	return &http.BasicAuth{
		Username: username,
		Password: password,
	}
}

func isHTTPURL(url string) bool {
	lower := strings.ToLower(url)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
