package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/spf13/cobra"
)

type remoteInfo struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

func newRemotesCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remotes",
		Short: "List configured remotes and their URLs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := opts.open()
			if err != nil {
				return err
			}

			names, err := repo.Remotes()
			if err != nil {
				return err
			}
			urls, err := repo.RemoteURLs(names...)
			if err != nil {
				return err
			}

			remotes := make([]remoteInfo, len(names))
			for i, name := range names {
				remotes[i] = remoteInfo{Name: name, URL: urls[i]}
			}

			return render(cmd.OutOrStdout(), opts.output, remotes, func(w io.Writer) error {
				rows := make([][]string, 0, len(remotes))
				for _, r := range remotes {
					rows = append(rows, []string{r.Name, r.URL})
				}
				return table(w, rows)
			})
		},
	}
}

func newConfigCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config [key=value]...",
		Short: "List or set local configuration values",
		Long: `List or set local configuration values.

Without arguments every local value is listed. Each key=value argument sets
a value; keys use git's dotted form:

  gitstate config user.name="Jane Doe" user.email=jane@example.com
  gitstate config remote.origin.url=https://github.com/org/repo.git`,
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := parseAssignments(args)
			if err != nil {
				return err
			}

			repo, err := opts.open()
			if err != nil {
				return err
			}

			if len(vars) > 0 {
				return repo.SetConfig(vars)
			}

			values, err := repo.Config()
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), opts.output, values, func(w io.Writer) error {
				for _, k := range slices.Sorted(maps.Keys(values)) {
					if _, err := fmt.Fprintf(w, "%s=%s\n", k, values[k]); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

// parseAssignments parses key=value arguments. A later assignment to the
// same key wins.
func parseAssignments(args []string) (map[string]string, error) {
	vars := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, platformerrors.Newf(platformerrors.CodeInvalidInput,
				"invalid assignment %q: expected key=value", arg)
		}
		vars[key] = value
	}
	return vars, nil
}
