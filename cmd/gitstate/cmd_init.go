package main

import (
	"fmt"
	"io"

	"github.com/jmgilman/gitstate/git"
	"github.com/spf13/cobra"
)

type initResult struct {
	Path string `json:"path" yaml:"path"`
	Bare bool   `json:"bare" yaml:"bare"`
}

func newInitCmd(opts *globalOptions) *cobra.Command {
	var bare bool
	var initialBranch string

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.repoPath
			if len(args) == 1 {
				path = args[0]
			}

			repoOpts := opts.repoOptions()
			if bare {
				repoOpts = append(repoOpts, git.WithBare())
			}
			if initialBranch != "" {
				repoOpts = append(repoOpts, git.WithInitialBranch(initialBranch))
			}

			repo, err := git.Init(path, repoOpts...)
			if err != nil {
				return err
			}

			res := initResult{Path: repo.Path(), Bare: bare}
			return render(cmd.OutOrStdout(), opts.output, res, func(w io.Writer) error {
				kind := "repository"
				if bare {
					kind = "bare repository"
				}
				_, err := fmt.Fprintf(w, "Initialized empty %s in %s\n", kind, res.Path)
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&bare, "bare", false, "create a bare repository")
	cmd.Flags().StringVarP(&initialBranch, "initial-branch", "b", "", "name of the initial branch (default: master)")
	return cmd
}
