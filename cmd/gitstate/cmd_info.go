package main

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

type repoInfo struct {
	Path    string `json:"path" yaml:"path"`
	Bare    bool   `json:"bare" yaml:"bare"`
	Empty   bool   `json:"empty" yaml:"empty"`
	Workdir string `json:"workdir,omitempty" yaml:"workdir,omitempty"`
}

func newInfoCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Describe the repository layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := opts.open()
			if err != nil {
				return err
			}

			info := repoInfo{Path: repo.Path()}
			if info.Bare, err = repo.IsBare(); err != nil {
				return err
			}
			if info.Empty, err = repo.IsEmpty(); err != nil {
				return err
			}
			if info.Workdir, err = repo.Workdir(); err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), opts.output, info, func(w io.Writer) error {
				return table(w, [][]string{
					{"path:", info.Path},
					{"bare:", strconv.FormatBool(info.Bare)},
					{"empty:", strconv.FormatBool(info.Empty)},
					{"workdir:", info.Workdir},
				})
			})
		},
	}
}
