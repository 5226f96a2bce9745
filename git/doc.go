// Package git provides a read-mostly facade over go-git for inspecting and
// committing to Git repositories.
//
// The package reports working tree status, enumerates branches, references
// and tags, walks history and creates commits atomically. It is built on the
// go-billy filesystem abstraction, so every operation works the same against
// the OS filesystem and an in-memory filesystem.
//
// # Stateless Repositories
//
// A Repository is a path plus options. Every method opens the repository,
// performs one task and releases everything it acquired before returning:
// no file handles, caches or locks outlive a call. Two Repository values for
// the same path therefore always observe the same on-disk state, and a
// Repository can be shared between goroutines.
//
//	repo, err := git.Open("/src/project")
//	if err != nil {
//	    return err
//	}
//
//	status, err := repo.Status(git.DefaultStatusOptions())
//
// # Factory Functions
//
// Init initializes a new repository, Open checks that a repository exists
// at a path and Clone fetches one from a remote URL. IsRepository reports
// whether a path holds a repository. All of them accept RepositoryOption
// arguments:
//
//	repo, err := git.Init("/repo", git.WithFilesystem(memfs.New()), git.WithInitialBranch("main"))
//
//	repo, err := git.Clone(ctx, "https://github.com/org/repo", "/src/repo",
//	    git.WithDepth(1),
//	    git.WithProgress(func(p git.Progress) {
//	        fmt.Printf("\r%3d%%", p.Percent())
//	    }))
//
// # Status
//
// Status classifies every changed path into staged, unstaged, untracked and
// ignored entries. Untracked and ignored directories are collapsed into a
// single entry with a trailing slash, as git does. Categories that were not
// requested are nil; requested categories are never nil.
//
// # Commits
//
// Commit writes the index as a tree, creates the commit object and advances
// a reference under the index and reference locks. Either every step
// succeeds or the repository is left as it was:
//
//	commit, err := repo.Commit(git.CommitOptions{
//	    Message:   "Update release pointer",
//	    Author:    sig,
//	    Committer: sig,
//	})
//	if errors.Is(err, git.ErrNothingStaged) {
//	    // The index matches the parent tree.
//	}
//
// # Authentication
//
// Clone accepts any go-git transport.AuthMethod through WithAuth. Helpers
// cover the common cases:
//
//	auth, err := git.SSHKeyFile("git", "/home/user/.ssh/id_ed25519")
//	auth, err := git.SSHAgentAuth("git")
//	auth := git.BasicAuth("x-access-token", token)
//	auth := git.TokenAuth(token)
//
// # Error Handling
//
// Errors are platform errors from github.com/jmgilman/go/errors. This
// package adds CodeLocked and CodeFailedPrecondition to the platform codes.
// go-git errors are classified as they are wrapped:
//
//   - NOT_FOUND: missing repository, reference, object or remote
//   - ALREADY_EXISTS: a repository already exists at the path
//   - LOCKED: a lock file is held or a reference moved concurrently (retryable)
//   - CONFLICT: nothing staged, or the index has unresolved conflicts
//   - UNAUTHORIZED: authentication failed
//   - INVALID_INPUT: bad paths, keys, patterns or options
//   - FAILED_PRECONDITION: a bare repository where a working tree is needed
//
// The original go-git error stays reachable with errors.Is.
//
// # Testing
//
// The testutil sub-package creates in-memory repositories and fixtures:
//
//	repo, fs, err := testutil.NewMemoryRepo()
//	id, err := testutil.CommitFile(repo, fs, "README.md", "# Test", "Initial commit")
//
// Clone's transport can be replaced with WithRemoteOperations.
package git
