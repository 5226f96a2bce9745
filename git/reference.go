package git

import (
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/gobwas/glob"
)

// References returns every reference in the repository (branches, tags,
// notes and HEAD) in the order the store yields them. Symbolic references
// report their immediate target without resolving it.
func (r *Repository) References() ([]Reference, error) {
	return r.referencesWhere(func(string) bool { return true })
}

// ReferenceMap returns every reference keyed by its full name.
func (r *Repository) ReferenceMap() (map[string]Reference, error) {
	refs, err := r.References()
	if err != nil {
		return nil, err
	}

	m := make(map[string]Reference, len(refs))
	for _, ref := range refs {
		m[ref.Name] = ref
	}
	return m, nil
}

// ReferencesMatching returns the references whose full name matches a glob
// pattern. "*" stops at "/" and "**" crosses it.
//
// Example:
//
//	// All release tags, e.g. refs/tags/v1.2.0
//	refs, err := repo.ReferencesMatching("refs/tags/v*")
func (r *Repository) ReferencesMatching(pattern string) ([]Reference, error) {
	if pattern == "" {
		return nil, invalidInput("reference pattern is required")
	}

	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, invalidInput("invalid reference pattern %q: %v", pattern, err)
	}
	return r.referencesWhere(g.Match)
}

// referencesWhere lists the references whose name satisfies keep. The
// store is iterated twice: once to count, once to fill.
func (r *Repository) referencesWhere(keep func(name string) bool) ([]Reference, error) {
	var refs []Reference
	err := r.withHandle(func(h *handle) error {
		all, err := h.rawReferences()
		if err != nil {
			return err
		}

		n := 0
		for _, ref := range all {
			if keep(ref.Name().String()) {
				n++
			}
		}

		refs = make([]Reference, 0, n)
		for _, ref := range all {
			if !keep(ref.Name().String()) {
				continue
			}
			value, err := newReference(ref)
			if err != nil {
				return err
			}
			refs = append(refs, value)
		}
		return nil
	})
	return refs, err
}

// rawReferences collects the references of the store in iteration order.
func (h *handle) rawReferences() ([]*plumbing.Reference, error) {
	iter, err := h.repo.References()
	if err != nil {
		return nil, wrapError(err, "failed to list references")
	}
	defer iter.Close()

	var refs []*plumbing.Reference
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		refs = append(refs, ref)
		return nil
	})
	if err != nil {
		return nil, wrapError(err, "failed to list references")
	}
	return refs, nil
}

// newReference converts a go-git reference into a Reference value.
func newReference(ref *plumbing.Reference) (Reference, error) {
	value := Reference{
		Name:      ref.Name().String(),
		Shorthand: ref.Name().Short(),
	}

	switch ref.Type() {
	case plumbing.HashReference:
		value.Kind = ReferenceOID
		value.Target = ref.Hash().String()
	case plumbing.SymbolicReference:
		value.Kind = ReferenceSymbolic
		value.Target = ref.Target().String()
	default:
		return Reference{}, wrapError(ErrUnexpectedReferenceType, "failed to read reference "+value.Name)
	}
	return value, nil
}
