package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/gitstate/git"
	"github.com/spf13/cobra"
)

func newAddCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>...",
		Short: "Stage file contents in the index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := opts.open()
			if err != nil {
				return err
			}

			for _, p := range args {
				if err := repo.Add(p); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newCommitCmd(opts *globalOptions) *cobra.Command {
	var message string
	var author string
	var parents []string
	var ref string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record the staged changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := opts.open()
			if err != nil {
				return err
			}

			now := time.Now()
			var sig git.Signature
			if author != "" {
				sig, err = parseSignature(author, now)
				if err != nil {
					return err
				}
			} else {
				def, err := repo.DefaultSignature()
				if err != nil {
					return fmt.Errorf("no author given and none configured (set user.name and user.email or pass --author): %w", err)
				}
				sig = *def
			}

			commitOpts := git.CommitOptions{
				Message:   message,
				Author:    sig,
				Committer: sig,
				Ref:       ref,
			}
			if cmd.Flags().Changed("parent") {
				commitOpts.Parents = parents
			}

			commit, err := repo.Commit(commitOpts)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), opts.output, commit, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "[%s %s] %s\n", headName(repo, ref), shortID(commit.ID), commit.Summary)
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", `author and committer as "Name <email>" (default: user.name and user.email)`)
	cmd.Flags().StringSliceVar(&parents, "parent", nil, "parent commit id; repeat for merges, pass an empty value for a root commit")
	cmd.Flags().StringVar(&ref, "ref", "", "reference to advance (default: HEAD)")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

// parseSignature parses "Name <email>".
func parseSignature(s string, when time.Time) (git.Signature, error) {
	open := strings.LastIndexByte(s, '<')
	if open < 0 || !strings.HasSuffix(s, ">") {
		return git.Signature{}, platformerrors.Newf(platformerrors.CodeInvalidInput,
			"invalid author %q: expected \"Name <email>\"", s)
	}

	return git.Signature{
		Name:  strings.TrimSpace(s[:open]),
		Email: s[open+1 : len(s)-1],
		When:  when,
	}, nil
}

// headName returns the short name of the branch a commit advanced, for
// the summary line.
func headName(repo *git.Repository, ref string) string {
	if ref != "" && ref != plumbing.HEAD.String() {
		return plumbing.ReferenceName(ref).Short()
	}

	refs, err := repo.ReferenceMap()
	if err != nil {
		return plumbing.HEAD.String()
	}
	head := refs[plumbing.HEAD.String()]
	if head.Kind != git.ReferenceSymbolic {
		return "detached HEAD"
	}
	return plumbing.ReferenceName(head.Target).Short()
}
