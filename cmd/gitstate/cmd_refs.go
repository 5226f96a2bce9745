package main

import (
	"io"

	"github.com/jmgilman/gitstate/git"
	"github.com/spf13/cobra"
)

func newBranchesCmd(opts *globalOptions) *cobra.Command {
	var remote bool
	var all bool

	cmd := &cobra.Command{
		Use:   "branches",
		Short: "List local or remote-tracking branches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope := git.BranchLocal
			switch {
			case all:
				scope = git.BranchAll
			case remote:
				scope = git.BranchRemote
			}

			repo, err := opts.open()
			if err != nil {
				return err
			}

			branches, err := repo.Branches(scope)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), opts.output, branches, func(w io.Writer) error {
				rows := make([][]string, 0, len(branches))
				for _, b := range branches {
					marker := " "
					if b.IsHead {
						marker = "*"
					}
					target := shortID(b.Target)
					if b.Kind == git.ReferenceSymbolic {
						target = "-> " + b.Target
					}
					rows = append(rows, []string{marker, b.Shorthand, target, b.RemoteURL})
				}
				return table(w, rows)
			})
		},
	}

	cmd.Flags().BoolVarP(&remote, "remotes", "r", false, "list remote-tracking branches")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "list local and remote-tracking branches")
	return cmd
}

func newRefsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refs [pattern]",
		Short: "List references, optionally filtered by a glob over the full name",
		Long: `List references, optionally filtered by a glob over the full name.

A "*" matches within one path segment and "**" across segments:

  gitstate refs 'refs/tags/v*'
  gitstate refs 'refs/remotes/**'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := opts.open()
			if err != nil {
				return err
			}

			var refs []git.Reference
			if len(args) == 1 {
				refs, err = repo.ReferencesMatching(args[0])
			} else {
				refs, err = repo.References()
			}
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), opts.output, refs, func(w io.Writer) error {
				rows := make([][]string, 0, len(refs))
				for _, ref := range refs {
					rows = append(rows, []string{ref.Target, string(ref.Kind), ref.Name})
				}
				return table(w, rows)
			})
		},
	}
}

func newTagsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List annotated tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := opts.open()
			if err != nil {
				return err
			}

			tags, err := repo.Tags()
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), opts.output, tags, func(w io.Writer) error {
				rows := make([][]string, 0, len(tags))
				for _, tag := range tags {
					rows = append(rows, []string{tag.Name, shortID(tag.Target), tag.TargetType, firstLine(tag.Message)})
				}
				return table(w, rows)
			})
		},
	}
}
