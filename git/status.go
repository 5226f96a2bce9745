package git

import (
	"cmp"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// statusCategory is the Status field an entry is partitioned into.
type statusCategory int

const (
	categoryStaged statusCategory = iota
	categoryUnstaged
	categoryUntracked
	categoryIgnored
)

type classified struct {
	category statusCategory
	entry    StatusEntry
}

// Status classifies the differences between HEAD, the index and the
// working tree.
//
// Only the categories selected in opts are computed. Staged entries compare
// HEAD with the index; a deleted and an added file at least 50% similar are
// reported as one rename. Unstaged entries
// compare the index with the working tree. Untracked and ignored entries
// come from a walk of the working tree; directories without tracked content
// collapse into a single "dir/" entry. Entries of every category are sorted
// by path.
//
// Selecting any working tree category on a bare repository fails with
// ErrBareRepository.
//
// Example:
//
//	status, err := repo.Status(git.DefaultStatusOptions())
//	for _, e := range status.Unstaged {
//	    fmt.Println(e.Kind, e.Path)
//	}
func (r *Repository) Status(opts StatusOptions) (*Status, error) {
	var status *Status
	err := r.withHandle(func(h *handle) error {
		var err error
		status, err = h.status(opts)
		return err
	})
	return status, err
}

// status runs the comparison pass and partitions the result.
func (h *handle) status(opts StatusOptions) (*Status, error) {
	if (opts.Unstaged || opts.Untracked || opts.Ignored) && h.isBare() {
		return nil, h.requireWorktree("compute status")
	}

	idx, err := h.storage.Index()
	if err != nil {
		return nil, wrapError(err, "failed to read index")
	}
	staged, conflicted := splitIndex(idx)

	var found []classified

	if opts.Staged {
		head, err := h.headTree()
		if err != nil {
			return nil, err
		}
		entries, err := h.compareHeadToIndex(head, staged, conflicted)
		if err != nil {
			return nil, err
		}
		found = append(found, entries...)
	}

	if opts.Unstaged {
		filemodeTrusted, err := h.trustsFilemode()
		if err != nil {
			return nil, err
		}
		entries, err := compareIndexToWorktree(h.worktree, staged, filemodeTrusted)
		if err != nil {
			return nil, err
		}
		found = append(found, entries...)
	}

	if opts.Untracked || opts.Ignored {
		entries, err := h.scanWorktree(idx, opts)
		if err != nil {
			return nil, err
		}
		found = append(found, entries...)
	}

	return partition(found, opts), nil
}

// splitIndex returns the stage-0 entries by path and the set of paths with
// unresolved conflict stages.
func splitIndex(idx *index.Index) (map[string]*index.Entry, map[string]bool) {
	staged := make(map[string]*index.Entry, len(idx.Entries))
	conflicted := make(map[string]bool)
	for _, e := range idx.Entries {
		// index.Merged is declared as 1 in go-git; decoded entries use 0.
		if e.Stage != 0 {
			conflicted[e.Name] = true
			continue
		}
		staged[e.Name] = e
	}
	for name := range conflicted {
		delete(staged, name)
	}
	return staged, conflicted
}

// renameScore is the minimum similarity, in percent, at which a deleted
// and an added file are reported as one rename.
const renameScore = 50

// stagedDiff is the HEAD to index comparison before renames are paired.
type stagedDiff struct {
	changed []classified // modified and typechanged paths
	added   map[string]*index.Entry
	removed map[string]treeEntry
}

func (d stagedDiff) empty() bool {
	return len(d.changed) == 0 && len(d.added) == 0 && len(d.removed) == 0
}

// diffHeadToIndex compares the HEAD tree with the stage-0 entries. Paths
// with conflict stages are left out.
func diffHeadToIndex(head map[string]treeEntry, staged map[string]*index.Entry, conflicted map[string]bool) stagedDiff {
	d := stagedDiff{
		added:   make(map[string]*index.Entry),
		removed: make(map[string]treeEntry),
	}

	for name, e := range staged {
		old, ok := head[name]
		switch {
		case !ok:
			d.added[name] = e
		case kindOfMode(old.mode) != kindOfMode(e.Mode):
			d.changed = append(d.changed, stagedEntry(ChangeTypechange, name, ""))
		case old.hash != e.Hash || old.mode != e.Mode:
			d.changed = append(d.changed, stagedEntry(ChangeModified, name, ""))
		}
	}

	for name, old := range head {
		if _, ok := staged[name]; ok || conflicted[name] {
			continue
		}
		d.removed[name] = old
	}
	return d
}

// compareHeadToIndex classifies the staged changes. Deletions and additions
// go through go-git's rename detector: identical blobs pair first, then
// regular files at least renameScore percent similar.
func (h *handle) compareHeadToIndex(head map[string]treeEntry, staged map[string]*index.Entry, conflicted map[string]bool) ([]classified, error) {
	d := diffHeadToIndex(head, staged, conflicted)
	out := d.changed
	if len(d.added) == 0 || len(d.removed) == 0 {
		for name := range d.added {
			out = append(out, stagedEntry(ChangeNew, name, ""))
		}
		for name := range d.removed {
			out = append(out, stagedEntry(ChangeDeleted, name, ""))
		}
		return out, nil
	}

	blobs, err := h.blobTree()
	if err != nil {
		return nil, err
	}

	var changes object.Changes
	for name, e := range d.added {
		if !h.blobReadable(e.Mode, e.Hash) {
			out = append(out, stagedEntry(ChangeNew, name, ""))
			continue
		}
		changes = append(changes, &object.Change{To: changeEntry(blobs, name, e.Mode, e.Hash)})
	}
	for name, old := range d.removed {
		if !h.blobReadable(old.mode, old.hash) {
			out = append(out, stagedEntry(ChangeDeleted, name, ""))
			continue
		}
		changes = append(changes, &object.Change{From: changeEntry(blobs, name, old.mode, old.hash)})
	}
	sort.Sort(changes)

	changes, err = object.DetectRenames(changes, &object.DiffTreeOptions{
		DetectRenames: true,
		RenameScore:   renameScore,
	})
	if err != nil {
		return nil, wrapError(err, "failed to detect renames")
	}

	for _, c := range changes {
		switch {
		case c.From.Name == "":
			out = append(out, stagedEntry(ChangeNew, c.To.Name, ""))
		case c.To.Name == "":
			out = append(out, stagedEntry(ChangeDeleted, c.From.Name, ""))
		default:
			out = append(out, stagedEntry(ChangeRenamed, c.To.Name, c.From.Name))
		}
	}
	return out, nil
}

// blobTree returns an empty tree bound to the object store. The rename
// detector reads blobs through the tree of each change entry, so one tree
// serves both the HEAD and the index side without writing any object.
func (h *handle) blobTree() (*object.Tree, error) {
	obj := h.storage.NewEncodedObject()
	obj.SetType(plumbing.TreeObject)
	tree, err := object.DecodeTree(h.storage, obj)
	if err != nil {
		return nil, wrapError(err, "failed to prepare rename detection")
	}
	return tree, nil
}

// blobReadable reports whether the detector may read the blob behind an
// entry. Regular files whose blob is missing, such as intent-to-add
// entries, are reported as plain additions or deletions.
func (h *handle) blobReadable(mode filemode.FileMode, id plumbing.Hash) bool {
	if mode != filemode.Regular {
		return true
	}
	return h.storage.HasEncodedObject(id) == nil
}

func changeEntry(tree *object.Tree, name string, mode filemode.FileMode, id plumbing.Hash) object.ChangeEntry {
	return object.ChangeEntry{
		Name:      name,
		Tree:      tree,
		TreeEntry: object.TreeEntry{Name: path.Base(name), Mode: mode, Hash: id},
	}
}

func stagedEntry(kind ChangeKind, path, oldPath string) classified {
	return classified{category: categoryStaged, entry: StatusEntry{Kind: kind, Path: path, OldPath: oldPath}}
}

// trustsFilemode reports whether the executable bit is compared
// (core.filemode, default true).
func (h *handle) trustsFilemode() (bool, error) {
	cfg, err := h.storage.Config()
	if err != nil {
		return false, wrapError(err, "failed to read configuration")
	}
	return !strings.EqualFold(cfg.Raw.Section("core").Options.Get("filemode"), "false"), nil
}

// partition counts the entries of each selected category, allocates exact
// sized slices and fills them in path order.
func partition(found []classified, opts StatusOptions) *Status {
	slices.SortStableFunc(found, func(a, b classified) int {
		return cmp.Compare(a.entry.Path, b.entry.Path)
	})

	var counts [4]int
	for _, c := range found {
		counts[c.category]++
	}

	status := &Status{}
	if opts.Staged {
		status.Staged = make([]StatusEntry, 0, counts[categoryStaged])
	}
	if opts.Unstaged {
		status.Unstaged = make([]StatusEntry, 0, counts[categoryUnstaged])
	}
	if opts.Untracked {
		status.Untracked = make([]StatusEntry, 0, counts[categoryUntracked])
	}
	if opts.Ignored {
		status.Ignored = make([]StatusEntry, 0, counts[categoryIgnored])
	}

	for _, c := range found {
		switch c.category {
		case categoryStaged:
			status.Staged = append(status.Staged, c.entry)
		case categoryUnstaged:
			status.Unstaged = append(status.Unstaged, c.entry)
		case categoryUntracked:
			if opts.Untracked {
				status.Untracked = append(status.Untracked, c.entry)
			}
		case categoryIgnored:
			if opts.Ignored {
				status.Ignored = append(status.Ignored, c.entry)
			}
		}
	}
	return status
}

// entryKind is the object kind a path holds: file, symlink or gitlink.
type entryKind int

const (
	kindFile entryKind = iota
	kindSymlink
	kindGitlink
	kindDir
)

func kindOfMode(m filemode.FileMode) entryKind {
	switch m {
	case filemode.Symlink:
		return kindSymlink
	case filemode.Submodule:
		return kindGitlink
	case filemode.Dir:
		return kindDir
	default:
		return kindFile
	}
}
