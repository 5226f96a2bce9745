package main

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/gitstate/git"
	"github.com/spf13/cobra"
)

type cloneResult struct {
	URL  string `json:"url" yaml:"url"`
	Path string `json:"path" yaml:"path"`
}

func newCloneCmd(opts *globalOptions) *cobra.Command {
	var (
		bare         bool
		depth        int
		branch       string
		singleBranch bool
		sshKey       string
		sshAgent     bool
		token        string
		quiet        bool
	)

	cmd := &cobra.Command{
		Use:   "clone <url> [path]",
		Short: "Clone a repository into a new directory",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			dest := defaultCloneDir(url)
			if len(args) == 2 {
				dest = args[1]
			}
			if dest == "" {
				return platformerrors.New(platformerrors.CodeInvalidInput, "destination directory is required")
			}

			repoOpts := opts.repoOptions()
			if bare {
				repoOpts = append(repoOpts, git.WithBare())
			}
			if depth > 0 {
				repoOpts = append(repoOpts, git.WithDepth(depth))
			}
			if singleBranch {
				repoOpts = append(repoOpts, git.WithSingleBranch())
			}
			if branch != "" {
				repoOpts = append(repoOpts, git.WithReferenceName(plumbing.NewBranchReferenceName(branch)))
			}

			auth, err := cloneAuth(sshKey, sshAgent, token)
			if err != nil {
				return err
			}
			if auth != nil {
				repoOpts = append(repoOpts, git.WithAuth(auth))
			}

			stderr := cmd.ErrOrStderr()
			reported := false
			if !quiet {
				repoOpts = append(repoOpts, git.WithProgress(func(p git.Progress) {
					reported = true
					fmt.Fprintf(stderr, "\rReceiving objects: %3d%% (%d/%d), %d bytes",
						p.Percent(), p.ReceivedObjects, p.TotalObjects, p.ReceivedBytes)
				}))
			}

			repo, err := git.Clone(cmd.Context(), url, dest, repoOpts...)
			if err != nil {
				if reported {
					fmt.Fprintln(stderr)
				}
				return err
			}
			if reported {
				fmt.Fprintln(stderr, ", done.")
			}

			res := cloneResult{URL: url, Path: repo.Path()}
			return render(cmd.OutOrStdout(), opts.output, res, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Cloned %s into %s\n", res.URL, res.Path)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&bare, "bare", false, "create a bare clone")
	cmd.Flags().IntVar(&depth, "depth", 0, "create a shallow clone with this many commits")
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch to check out")
	cmd.Flags().BoolVar(&singleBranch, "single-branch", false, "fetch only the checked out branch")
	cmd.Flags().StringVar(&sshKey, "ssh-key", "", "private key file for SSH authentication")
	cmd.Flags().BoolVar(&sshAgent, "ssh-agent", false, "authenticate with the running SSH agent")
	cmd.Flags().StringVar(&token, "token", "", "access token for HTTPS authentication")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not report progress")
	cmd.MarkFlagsMutuallyExclusive("ssh-key", "ssh-agent", "token")
	return cmd
}

// cloneAuth builds the authentication selected by the clone flags, or nil.
func cloneAuth(sshKey string, sshAgent bool, token string) (git.Auth, error) {
	switch {
	case sshKey != "":
		return git.SSHKeyFile("git", sshKey)
	case sshAgent:
		return git.SSHAgentAuth("git")
	case token != "":
		return git.BasicAuth("x-access-token", token), nil
	default:
		return nil, nil
	}
}

// defaultCloneDir derives the directory name git would pick for url:
// the last path element without a ".git" suffix.
func defaultCloneDir(url string) string {
	trimmed := strings.TrimRight(url, "/")
	if i := strings.LastIndexAny(trimmed, ":/"); i >= 0 {
		trimmed = trimmed[i+1:]
	}
	name := strings.TrimSuffix(path.Base(trimmed), ".git")
	if name == "." || name == "/" {
		return ""
	}
	return name
}
