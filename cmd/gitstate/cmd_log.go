package main

import (
	"fmt"
	"io"
	"strings"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/gitstate/git"
	"github.com/spf13/cobra"
)

func newLogCmd(opts *globalOptions) *cobra.Command {
	var limit int
	var oneline bool

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the history reachable from HEAD, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return platformerrors.New(platformerrors.CodeInvalidInput, "--max-count must not be negative")
			}

			repo, err := opts.open()
			if err != nil {
				return err
			}

			commits, err := repo.Revisions()
			if err != nil {
				return err
			}
			if limit > 0 && len(commits) > limit {
				commits = commits[:limit]
			}

			return render(cmd.OutOrStdout(), opts.output, commits, func(w io.Writer) error {
				for i, c := range commits {
					if oneline {
						fmt.Fprintf(w, "%s %s\n", shortID(c.ID), c.Summary)
						continue
					}
					if i > 0 {
						fmt.Fprintln(w)
					}
					writeCommit(w, c)
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "max-count", "n", 0, "limit the number of commits shown")
	cmd.Flags().BoolVar(&oneline, "oneline", false, "show one line per commit")
	return cmd
}

func writeCommit(w io.Writer, c git.Commit) {
	fmt.Fprintf(w, "commit %s\n", c.ID)
	if len(c.ParentIDs) > 1 {
		fmt.Fprint(w, "Merge:")
		for _, p := range c.ParentIDs {
			fmt.Fprintf(w, " %s", shortID(p))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Author: %s <%s>\n", c.Author.Name, c.Author.Email)
	fmt.Fprintf(w, "Date:   %s\n\n", c.Author.When.Format("Mon Jan 2 15:04:05 2006 -0700"))
	for _, line := range splitLines(c.Message) {
		fmt.Fprintf(w, "    %s\n", line)
	}
}

// splitLines splits a commit message into lines without the trailing
// newline.
func splitLines(message string) []string {
	return strings.Split(strings.TrimRight(message, "\n"), "\n")
}
