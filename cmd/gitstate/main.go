// Command gitstate inspects and commits to Git repositories from the command
// line.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/gitstate/git"
	"github.com/spf13/cobra"
)

const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

var outputFormats = []string{outputText, outputJSON, outputYAML}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	repoPath string
	output   string
	verbose  bool

	logger *slog.Logger
}

// repoOptions returns the options every facade call is made with.
func (o *globalOptions) repoOptions() []git.RepositoryOption {
	return []git.RepositoryOption{git.WithLogger(o.logger)}
}

// open opens the repository selected with -C.
func (o *globalOptions) open() (*git.Repository, error) {
	return git.Open(o.repoPath, o.repoOptions()...)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line in args and returns the process exit code.
// Errors are rendered to stderr in the selected output format.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &globalOptions{}
	root := newRootCmd(opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if rerr := renderError(stderr, opts.output, err); rerr != nil {
		fmt.Fprintln(stderr, err)
	}
	return 1
}

func newRootCmd(opts *globalOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "gitstate",
		Short:         "Inspect and commit to Git repositories",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(outputFormats, opts.output) {
				return platformerrors.Newf(platformerrors.CodeInvalidInput,
					"unsupported output format %q (want text, json or yaml)", opts.output)
			}

			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.repoPath, "repo", "C", ".", "path to the repository")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", outputText, "output format: text, json or yaml")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug details to stderr")

	root.AddCommand(newInitCmd(opts))
	root.AddCommand(newCloneCmd(opts))
	root.AddCommand(newAddCmd(opts))
	root.AddCommand(newCommitCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newBranchesCmd(opts))
	root.AddCommand(newRefsCmd(opts))
	root.AddCommand(newTagsCmd(opts))
	root.AddCommand(newLogCmd(opts))
	root.AddCommand(newRemotesCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	root.AddCommand(newInfoCmd(opts))

	return root
}
