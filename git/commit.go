package git

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	platformerrors "github.com/jmgilman/go/errors"
)

// maxSymbolicDepth bounds symbolic reference chains followed by Commit.
const maxSymbolicDepth = 5

// Commit records the staged changes as a new commit and advances a
// reference to it.
//
// The index is locked for the duration of the call (index.lock); the
// advanced reference is locked while it is updated (<ref>.lock) and is
// only moved if it still holds the value observed before the commit was
// written. Lock conflicts and concurrent updates fail with code LOCKED.
//
// When opts.Parents is nil the commit HEAD resolves to (if any) becomes
// the sole parent. opts.Ref defaults to HEAD; a symbolic HEAD advances the
// branch it points at.
//
// Returns ErrNothingStaged (code CONFLICT) when the index matches the HEAD
// tree, and an error with code NOT_FOUND when a parent does not exist.
//
// Examples:
//
//	sig := git.Signature{Name: "Jane", Email: "jane@example.com", When: time.Now()}
//	commit, err := repo.Commit(git.CommitOptions{
//	    Message:   "Add feature",
//	    Author:    sig,
//	    Committer: sig,
//	})
//
//	// Root commit on an orphan branch
//	commit, err := repo.Commit(git.CommitOptions{
//	    Message:   "Start over",
//	    Author:    sig,
//	    Committer: sig,
//	    Parents:   []string{},
//	    Ref:       "refs/heads/orphan",
//	})
func (r *Repository) Commit(opts CommitOptions) (*Commit, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	var commit *Commit
	err := r.withHandle(func(h *handle) error {
		var err error
		commit, err = h.commit(opts)
		return err
	})
	return commit, err
}

// validate checks the arguments before any handle is opened.
func (o CommitOptions) validate() error {
	if strings.TrimSpace(o.Message) == "" {
		return invalidInput("commit message is required")
	}
	if err := o.Author.validate("author"); err != nil {
		return err
	}
	if err := o.Committer.validate("committer"); err != nil {
		return err
	}
	for _, p := range o.Parents {
		if !plumbing.IsHash(p) {
			return invalidInput("parent %q is not a 40 character hex object id", p)
		}
	}
	if o.Ref != "" {
		if err := plumbing.ReferenceName(o.Ref).Validate(); err != nil {
			return invalidInput("invalid reference name %q", o.Ref)
		}
	}
	return nil
}

func (h *handle) commit(opts CommitOptions) (*Commit, error) {
	lock, err := acquireLock(h.dotgit, "index", h.logger)
	if err != nil {
		return nil, wrapError(err, "failed to commit")
	}
	defer lock.release()

	idx, err := h.storage.Index()
	if err != nil {
		return nil, wrapError(err, "failed to read index")
	}

	staged, conflicted := splitIndex(idx)
	if len(conflicted) > 0 {
		paths := make([]string, 0, len(conflicted))
		for p := range conflicted {
			paths = append(paths, p)
		}
		slices.Sort(paths)
		return nil, wrapError(platformerrors.WithContext(
			platformerrors.New(platformerrors.CodeConflict, "index has unresolved conflicts"),
			"paths", paths), "failed to commit")
	}

	head, err := h.headTree()
	if err != nil {
		return nil, err
	}
	if diffHeadToIndex(head, staged, conflicted).empty() {
		return nil, wrapError(ErrNothingStaged, "failed to commit")
	}

	target, old, err := h.resolveTarget(opts.Ref)
	if err != nil {
		return nil, err
	}

	parents, err := h.commitParents(opts.Parents)
	if err != nil {
		return nil, err
	}

	entries := make([]*index.Entry, 0, len(staged))
	for _, e := range staged {
		entries = append(entries, e)
	}
	tree, err := writeIndexTree(h.storage, entries)
	if err != nil {
		return nil, err
	}

	id, err := h.writeCommit(&object.Commit{
		Author:       opts.Author.toObject(),
		Committer:    opts.Committer.toObject(),
		Message:      opts.Message,
		TreeHash:     tree,
		ParentHashes: parents,
	})
	if err != nil {
		return nil, err
	}

	if err := h.updateRef(target, old, id); err != nil {
		return nil, err
	}

	written, err := object.GetCommit(h.storage, id)
	if err != nil {
		return nil, wrapError(err, "failed to read commit "+id.String())
	}

	h.logger.Debug("created commit", "commit", id.String(), "ref", target.String())
	c := newCommit(written)
	return &c, nil
}

// resolveTarget returns the direct reference a commit advances and its
// current value. The value is nil when the reference does not exist yet,
// such as the branch of an unborn HEAD.
func (h *handle) resolveTarget(ref string) (plumbing.ReferenceName, *plumbing.Reference, error) {
	name := plumbing.HEAD
	if ref != "" {
		name = plumbing.ReferenceName(ref)
	}

	for range maxSymbolicDepth {
		current, err := h.storage.Reference(name)
		switch {
		case errors.Is(err, plumbing.ErrReferenceNotFound):
			return name, nil, nil
		case err != nil:
			return "", nil, wrapError(err, "failed to read reference "+name.String())
		}

		switch current.Type() {
		case plumbing.HashReference:
			return name, current, nil
		case plumbing.SymbolicReference:
			name = current.Target()
		default:
			return "", nil, wrapError(ErrUnexpectedReferenceType, "failed to read reference "+name.String())
		}
	}
	return "", nil, wrapError(
		platformerrors.Newf(platformerrors.CodeInvalidInput, "symbolic reference chain exceeds %d levels", maxSymbolicDepth),
		"failed to resolve "+ref)
}

// commitParents resolves the parent ids. nil means the HEAD commit, if any.
func (h *handle) commitParents(requested []string) ([]plumbing.Hash, error) {
	if requested == nil {
		head, err := h.repo.Head()
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, wrapError(err, "failed to resolve HEAD")
		}
		requested = []string{head.Hash().String()}
	}

	parents := make([]plumbing.Hash, 0, len(requested))
	for _, p := range requested {
		id := plumbing.NewHash(p)
		if _, err := object.GetCommit(h.storage, id); err != nil {
			return nil, wrapError(err, "failed to find parent commit "+p)
		}
		parents = append(parents, id)
	}
	return parents, nil
}

func (h *handle) writeCommit(c *object.Commit) (plumbing.Hash, error) {
	obj := h.storage.NewEncodedObject()
	if err := c.Encode(obj); err != nil {
		return plumbing.ZeroHash, wrapError(err, "failed to encode commit")
	}

	id, err := h.storage.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, wrapError(err, "failed to write commit")
	}
	return id, nil
}

// updateRef moves target from old to id under "<target>.lock". The write
// fails with code LOCKED if target no longer holds old.
func (h *handle) updateRef(target plumbing.ReferenceName, old *plumbing.Reference, id plumbing.Hash) error {
	lock, err := acquireLock(h.dotgit, target.String(), h.logger)
	if err != nil {
		return wrapError(err, "failed to update "+target.String())
	}
	defer lock.release()

	if err := lock.write(id.String() + "\n"); err != nil {
		return err
	}

	if old == nil {
		if _, err := h.storage.Reference(target); err == nil {
			return wrapError(retryable(platformerrors.Newf(CodeLocked,
				"%s was created concurrently", target)), fmt.Sprintf("failed to update %s", target))
		}
	}

	if err := h.storage.CheckAndSetReference(plumbing.NewHashReference(target, id), old); err != nil {
		return wrapError(err, "failed to update "+target.String())
	}
	return nil
}
