package git

import (
	"fmt"
	"slices"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// Branches lists local branches, remote-tracking branches or both, in the
// order the reference store yields them.
//
// Remote-tracking branches carry the name of the remote whose fetch refspec
// maps onto them (falling back to the first path segment after
// refs/remotes/) and that remote's first URL. Symbolic remote references
// such as refs/remotes/origin/HEAD are included. IsHead is set on the
// branch HEAD points at; a detached or unborn HEAD marks no branch.
//
// Examples:
//
//	// Local branches only
//	branches, err := repo.Branches(git.BranchLocal)
//
//	// Everything, including origin/main
//	branches, err := repo.Branches(git.BranchAll)
func (r *Repository) Branches(scope BranchScope) ([]Branch, error) {
	if scope < BranchLocal || scope > BranchAll {
		return nil, invalidInput("invalid branch scope %d", int(scope))
	}

	var branches []Branch
	err := r.withHandle(func(h *handle) error {
		var err error
		branches, err = h.branches(scope)
		return err
	})
	return branches, err
}

func (h *handle) branches(scope BranchScope) ([]Branch, error) {
	headTarget, err := h.headTarget()
	if err != nil {
		return nil, err
	}

	refs, err := h.rawReferences()
	if err != nil {
		return nil, err
	}

	n := 0
	for _, ref := range refs {
		if _, ok := branchScopeOf(ref.Name(), scope); ok {
			n++
		}
	}

	cfg, err := h.storage.Config()
	if err != nil {
		return nil, wrapError(err, "failed to read configuration")
	}

	branches := make([]Branch, 0, n)
	for _, ref := range refs {
		refScope, ok := branchScopeOf(ref.Name(), scope)
		if !ok {
			continue
		}

		value, err := newReference(ref)
		if err != nil {
			return nil, err
		}

		branch := Branch{
			Reference: value,
			Scope:     refScope,
			IsHead:    headTarget != "" && ref.Name() == headTarget,
		}
		if refScope == BranchRemote {
			branch.RemoteName = remoteNameFor(cfg, ref.Name())
			branch.RemoteURL = h.remoteURL(cfg, branch.RemoteName)
		}
		branches = append(branches, branch)
	}
	return branches, nil
}

// headTarget returns the reference a symbolic HEAD names, or "" when HEAD
// is detached.
func (h *handle) headTarget() (plumbing.ReferenceName, error) {
	head, err := h.storage.Reference(plumbing.HEAD)
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w: %w", ErrUnexpectedHead, err)
	}

	switch head.Type() {
	case plumbing.SymbolicReference:
		return head.Target(), nil
	case plumbing.HashReference:
		return "", nil
	default:
		return "", wrapError(ErrUnexpectedHead, "failed to read HEAD")
	}
}

// branchScopeOf reports whether name is a branch selected by scope and
// which scope it belongs to.
func branchScopeOf(name plumbing.ReferenceName, scope BranchScope) (BranchScope, bool) {
	switch {
	case name.IsBranch():
		return BranchLocal, scope == BranchLocal || scope == BranchAll
	case name.IsRemote():
		return BranchRemote, scope == BranchRemote || scope == BranchAll
	default:
		return 0, false
	}
}

// remoteNameFor returns the configured remote whose fetch refspec
// destination matches name. When no refspec matches, the first segment
// after refs/remotes/ is used.
func remoteNameFor(cfg *config.Config, name plumbing.ReferenceName) string {
	rest := strings.TrimPrefix(name.String(), "refs/remotes/")
	segment, _, _ := strings.Cut(rest, "/")

	remotes := make([]string, 0, len(cfg.Remotes))
	for remote := range cfg.Remotes {
		remotes = append(remotes, remote)
	}
	slices.Sort(remotes)

	var matches []string
	for _, remote := range remotes {
		for _, spec := range cfg.Remotes[remote].Fetch {
			if spec.Reverse().Match(name) {
				matches = append(matches, remote)
				break
			}
		}
	}

	switch {
	case len(matches) == 0:
		return segment
	case slices.Contains(matches, segment):
		return segment
	default:
		return matches[0]
	}
}

// remoteURL returns the first URL of the named remote. A remote missing
// from the configuration is represented by an in-memory remote that is
// never written back, so its URL is empty.
func (h *handle) remoteURL(cfg *config.Config, name string) string {
	rc, ok := cfg.Remotes[name]
	if !ok {
		h.logger.Debug("remote not configured, using ephemeral remote", "remote", name)
		rc = gogit.NewRemote(nil, &config.RemoteConfig{Name: name}).Config()
	}
	if len(rc.URLs) == 0 {
		return ""
	}
	return rc.URLs[0]
}
