package main

import (
	"fmt"
	"io"

	"github.com/jmgilman/gitstate/git"
	"github.com/spf13/cobra"
)

func newStatusCmd(opts *globalOptions) *cobra.Command {
	var ignored bool
	var noUntracked bool
	var stagedOnly bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show staged, unstaged, untracked and ignored paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := opts.open()
			if err != nil {
				return err
			}

			statusOpts := git.DefaultStatusOptions()
			statusOpts.Ignored = ignored
			statusOpts.Untracked = !noUntracked
			if stagedOnly {
				statusOpts = git.StatusOptions{Staged: true}
			}

			status, err := repo.Status(statusOpts)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), opts.output, status.Map(), func(w io.Writer) error {
				return writeStatus(w, status)
			})
		},
	}

	cmd.Flags().BoolVar(&ignored, "ignored", false, "also show ignored paths")
	cmd.Flags().BoolVar(&noUntracked, "no-untracked", false, "do not show untracked paths")
	cmd.Flags().BoolVar(&stagedOnly, "staged", false, "only show staged changes (works on bare repositories)")
	return cmd
}

func writeStatus(w io.Writer, status *git.Status) error {
	if status.IsClean() {
		_, err := fmt.Fprintln(w, "nothing to commit, working tree clean")
		return err
	}

	sections := []struct {
		title   string
		entries []git.StatusEntry
	}{
		{"Changes to be committed:", status.Staged},
		{"Changes not staged for commit:", status.Unstaged},
		{"Untracked files:", status.Untracked},
		{"Ignored files:", status.Ignored},
	}

	first := true
	for _, s := range sections {
		if len(s.entries) == 0 {
			continue
		}
		if !first {
			fmt.Fprintln(w)
		}
		first = false

		fmt.Fprintln(w, s.title)
		for _, e := range s.entries {
			switch e.Kind {
			case git.ChangeUntracked, git.ChangeIgnored:
				fmt.Fprintf(w, "\t%s\n", e.Path)
			case git.ChangeRenamed:
				fmt.Fprintf(w, "\t%-11s %s -> %s\n", e.Kind+":", e.OldPath, e.Path)
			default:
				fmt.Fprintf(w, "\t%-11s %s\n", e.Kind+":", e.Path)
			}
		}
	}
	return nil
}
