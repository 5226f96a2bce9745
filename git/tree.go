package git

import (
	"errors"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// treeEntry is a non-directory entry of a flattened tree.
type treeEntry struct {
	hash plumbing.Hash
	mode filemode.FileMode
}

// headTree returns the flattened tree of the commit HEAD resolves to.
// An unborn HEAD yields an empty tree.
func (h *handle) headTree() (map[string]treeEntry, error) {
	ref, err := h.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return map[string]treeEntry{}, nil
	}
	if err != nil {
		return nil, wrapError(err, "failed to resolve HEAD")
	}

	commit, err := object.GetCommit(h.storage, ref.Hash())
	if err != nil {
		return nil, wrapError(err, "failed to read HEAD commit "+ref.Hash().String())
	}

	entries := make(map[string]treeEntry)
	if err := flattenTree(h.storage, commit.TreeHash, "", entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// flattenTree records every blob and gitlink below the tree id, keyed by
// slash separated path. A missing subtree is an error.
func flattenTree(s storer.EncodedObjectStorer, id plumbing.Hash, prefix string, out map[string]treeEntry) error {
	tree, err := object.GetTree(s, id)
	if err != nil {
		return wrapError(err, "failed to read tree "+id.String())
	}

	for _, e := range tree.Entries {
		p := path.Join(prefix, e.Name)
		if e.Mode == filemode.Dir {
			if err := flattenTree(s, e.Hash, p, out); err != nil {
				return err
			}
			continue
		}
		out[p] = treeEntry{hash: e.Hash, mode: e.Mode}
	}
	return nil
}

// writeIndexTree writes the tree objects for the stage-0 index entries and
// returns the root tree id.
func writeIndexTree(s storer.EncodedObjectStorer, entries []*index.Entry) (plumbing.Hash, error) {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b *index.Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return writeTree(s, sorted, "")
}

// writeTree writes the tree for entries, all of which live below prefix.
func writeTree(s storer.EncodedObjectStorer, entries []*index.Entry, prefix string) (plumbing.Hash, error) {
	var out []object.TreeEntry
	for i := 0; i < len(entries); {
		rel := strings.TrimPrefix(entries[i].Name, prefix)
		name, _, isDir := strings.Cut(rel, "/")
		if !isDir {
			out = append(out, object.TreeEntry{Name: name, Mode: entries[i].Mode, Hash: entries[i].Hash})
			i++
			continue
		}

		sub := prefix + name + "/"
		j := i
		for j < len(entries) && strings.HasPrefix(entries[j].Name, sub) {
			j++
		}

		id, err := writeTree(s, entries[i:j], sub)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		out = append(out, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: id})
		i = j
	}

	sort.Sort(object.TreeEntrySorter(out))

	tree := &object.Tree{Entries: out}
	obj := s.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, wrapError(err, "failed to encode tree "+prefix)
	}

	id, err := s.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, wrapError(err, "failed to write tree "+prefix)
	}
	return id, nil
}
