package git

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	platformerrors "github.com/jmgilman/go/errors"
)

// Compile-time check that go-git's transport.AuthMethod satisfies Auth.
var _ Auth = (transport.AuthMethod)(nil)

// SSHKeyOption configures SSH key authentication.
type SSHKeyOption func(*sshKeyOptions)

type sshKeyOptions struct {
	password string
}

// WithSSHPassword sets the passphrase for encrypted SSH keys.
func WithSSHPassword(password string) SSHKeyOption {
	return func(opts *sshKeyOptions) {
		opts.password = password
	}
}

// SSHKeyAuth creates SSH authentication from PEM-encoded key bytes.
//
// Example:
//
//	keyBytes, _ := os.ReadFile("/home/user/.ssh/id_ed25519")
//	auth, err := git.SSHKeyAuth("git", keyBytes, git.WithSSHPassword("passphrase"))
//	repo, err := git.Clone(ctx, "git@github.com:org/repo.git", "/src/repo", git.WithAuth(auth))
func SSHKeyAuth(user string, pemBytes []byte, opts ...SSHKeyOption) (Auth, error) {
	options := &sshKeyOptions{}
	for _, opt := range opts {
		opt(options)
	}

	publicKeys, err := ssh.NewPublicKeys(user, pemBytes, options.password)
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "failed to parse SSH key")
	}
	return publicKeys, nil
}

// SSHKeyFile creates SSH authentication from a private key file.
func SSHKeyFile(user string, keyPath string, opts ...SSHKeyOption) (Auth, error) {
	pemBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("failed to read SSH key file %q", keyPath))
	}
	return SSHKeyAuth(user, pemBytes, opts...)
}

// SSHAgentAuth uses the keys held by the running SSH agent (SSH_AUTH_SOCK).
func SSHAgentAuth(user string) (Auth, error) {
	auth, err := ssh.NewSSHAgentAuth(user)
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeUnauthorized, "failed to connect to SSH agent")
	}
	return auth, nil
}

// BasicAuth creates HTTP basic authentication. Most hosting services accept
// a personal access token as the password.
//
// Example:
//
//	auth := git.BasicAuth("x-access-token", os.Getenv("GITHUB_TOKEN"))
func BasicAuth(username, password string) Auth {
	return &http.BasicAuth{
		Username: username,
		Password: password,
	}
}

// TokenAuth creates HTTP bearer token authentication.
func TokenAuth(token string) Auth {
	return &http.TokenAuth{Token: token}
}

// authMethod converts an Auth into the transport's method. nil stays nil.
func authMethod(auth Auth) (transport.AuthMethod, error) {
	if auth == nil {
		return nil, nil
	}
	method, ok := auth.(transport.AuthMethod)
	if !ok {
		return nil, invalidInput("unsupported authentication type %T", auth)
	}
	return method, nil
}
