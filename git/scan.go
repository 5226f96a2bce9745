package git

import (
	"errors"
	"io"
	"os"
	"path"
	"strings"
	"syscall"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/format/index"
)

// compareIndexToWorktree classifies the unstaged changes of the stage-0
// entries. Entries flagged skip-worktree are not inspected.
func compareIndexToWorktree(wt billy.Filesystem, staged map[string]*index.Entry, filemodeTrusted bool) ([]classified, error) {
	var out []classified
	for name, e := range staged {
		if e.SkipWorktree {
			continue
		}

		kind, err := worktreeChange(wt, e, filemodeTrusted)
		if err != nil {
			return nil, wrapError(err, "failed to inspect "+name)
		}
		if kind != "" {
			out = append(out, classified{category: categoryUnstaged, entry: StatusEntry{Kind: kind, Path: name}})
		}
	}
	return out, nil
}

// worktreeChange returns the change kind of e in the working tree, or ""
// when the path is unchanged.
func worktreeChange(wt billy.Filesystem, e *index.Entry, filemodeTrusted bool) (ChangeKind, error) {
	info, err := wt.Lstat(e.Name)
	if err != nil {
		if os.IsNotExist(err) || errors.Is(err, syscall.ENOTDIR) {
			return ChangeDeleted, nil
		}
		return "", err
	}

	want := kindOfMode(e.Mode)
	got := kindOfInfo(info)

	switch {
	case want == kindGitlink:
		// Submodule checkouts are only checked for presence.
		if got == kindDir {
			return "", nil
		}
		return ChangeTypechange, nil
	case got == kindDir:
		return ChangeDeleted, nil
	case want != got:
		return ChangeTypechange, nil
	}

	if want == kindFile && filemodeTrusted && isExecutable(info.Mode()) != isExecutableMode(e) {
		return ChangeModified, nil
	}

	id, err := hashWorktreePath(wt, e.Name, info)
	if err != nil {
		return "", err
	}
	if id != e.Hash {
		return ChangeModified, nil
	}
	return "", nil
}

func kindOfInfo(info os.FileInfo) entryKind {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		return kindSymlink
	case info.IsDir():
		return kindDir
	default:
		return kindFile
	}
}

func isExecutable(m os.FileMode) bool {
	return m&0o111 != 0
}

func isExecutableMode(e *index.Entry) bool {
	return e.Mode&0o111 != 0
}

// hashWorktreePath computes the blob id of a working tree file. Symlinks
// hash their target, as git stores them.
func hashWorktreePath(wt billy.Filesystem, name string, info os.FileInfo) (plumbing.Hash, error) {
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := wt.Readlink(name)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return plumbing.ComputeHash(plumbing.BlobObject, []byte(target)), nil
	}

	f, err := wt.Open(name)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	defer func() { _ = f.Close() }()

	h := plumbing.NewHasher(plumbing.BlobObject, info.Size())
	if _, err := io.Copy(h, f); err != nil {
		return plumbing.ZeroHash, err
	}
	return h.Sum(), nil
}

// worktreeScan walks the working tree for untracked and ignored paths.
type worktreeScan struct {
	fs      billy.Filesystem
	matcher gitignore.Matcher
	tracked map[string]bool
	dirs    map[string]bool // directories holding at least one tracked path
	out     []classified

	untracked bool // report untracked paths
	ignored   bool // report ignored paths; ignored directories are walked only then
}

// dirScan is the outcome of scanning a directory that holds no tracked path.
type dirScan struct {
	untracked bool
	ignored   []string
}

// scanWorktree reports untracked and ignored paths. Directories without
// tracked content are reported as "dir/": untracked when they hold any
// untracked file, ignored when everything inside is ignored. Ignored files
// inside an untracked directory are listed individually.
//
// Only the categories selected in opts are collected. Without opts.Ignored
// the ignore rules still exclude paths from the untracked set, but ignored
// directories are not descended into.
func (h *handle) scanWorktree(idx *index.Index, opts StatusOptions) ([]classified, error) {
	patterns, err := h.ignorePatterns()
	if err != nil {
		return nil, err
	}

	s := &worktreeScan{
		fs:      h.worktree,
		matcher: gitignore.NewMatcher(patterns),
		tracked: make(map[string]bool, len(idx.Entries)),
		dirs:    make(map[string]bool),

		untracked: opts.Untracked,
		ignored:   opts.Ignored,
	}
	for _, e := range idx.Entries {
		s.tracked[e.Name] = true
		for dir := path.Dir(e.Name); dir != "."; dir = path.Dir(dir) {
			s.dirs[dir] = true
		}
	}

	if err := s.walkTracked(""); err != nil {
		return nil, wrapError(err, "failed to scan working tree")
	}
	return s.out, nil
}

// ignorePatterns reads .gitignore files and info/exclude. The exclude file
// is read from the git directory so that "gitdir:" layouts are covered.
func (h *handle) ignorePatterns() ([]gitignore.Pattern, error) {
	patterns, err := gitignore.ReadPatterns(h.worktree, nil)
	if err != nil {
		return nil, wrapError(err, "failed to read ignore patterns")
	}

	data, err := util.ReadFile(h.dotgit, "info/exclude")
	switch {
	case errors.Is(err, os.ErrNotExist):
		return patterns, nil
	case err != nil:
		return nil, wrapError(err, "failed to read info/exclude")
	}

	var exclude []gitignore.Pattern
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		exclude = append(exclude, gitignore.ParsePattern(line, nil))
	}
	// Patterns later in the list take precedence; exclude has the lowest.
	return append(exclude, patterns...), nil
}

// walkTracked visits a directory that contains tracked paths.
func (s *worktreeScan) walkTracked(dir string) error {
	infos, err := s.fs.ReadDir(dirOrRoot(dir))
	if err != nil {
		return err
	}

	for _, info := range infos {
		if info.Name() == gogit.GitDirName {
			continue
		}
		p := path.Join(dir, info.Name())
		parts := strings.Split(p, "/")

		if kindOfInfo(info) != kindDir {
			if s.tracked[p] {
				continue
			}
			if s.matcher.Match(parts, false) {
				s.add(categoryIgnored, p)
			} else {
				s.add(categoryUntracked, p)
			}
			continue
		}

		if s.tracked[p] {
			// Gitlink checkout.
			continue
		}
		if s.dirs[p] {
			if err := s.walkTracked(p); err != nil {
				return err
			}
			continue
		}
		if err := s.classifyDir(p, parts); err != nil {
			return err
		}
	}
	return nil
}

// classifyDir reports a directory without tracked paths.
func (s *worktreeScan) classifyDir(p string, parts []string) error {
	if s.matcher.Match(parts, true) {
		if !s.ignored {
			return nil
		}
		hasFiles, err := s.hasFiles(p)
		if err != nil || !hasFiles {
			return err
		}
		s.add(categoryIgnored, p+"/")
		return nil
	}

	res, err := s.scanUntracked(p)
	if err != nil {
		return err
	}
	switch {
	case res.untracked:
		s.add(categoryUntracked, p+"/")
		for _, ignored := range res.ignored {
			s.add(categoryIgnored, ignored)
		}
	case len(res.ignored) > 0:
		s.add(categoryIgnored, p+"/")
	}
	return nil
}

// scanUntracked inspects a directory holding no tracked path.
func (s *worktreeScan) scanUntracked(dir string) (dirScan, error) {
	var res dirScan

	infos, err := s.fs.ReadDir(dir)
	if err != nil {
		return res, err
	}

	for _, info := range infos {
		p := path.Join(dir, info.Name())
		parts := strings.Split(p, "/")

		if info.Name() == gogit.GitDirName {
			// Nested repository.
			res.untracked = true
			continue
		}

		if kindOfInfo(info) != kindDir {
			if !s.matcher.Match(parts, false) {
				res.untracked = true
			} else if s.ignored {
				res.ignored = append(res.ignored, p)
			}
			continue
		}

		if s.matcher.Match(parts, true) {
			if !s.ignored {
				continue
			}
			hasFiles, err := s.hasFiles(p)
			if err != nil {
				return res, err
			}
			if hasFiles {
				res.ignored = append(res.ignored, p+"/")
			}
			continue
		}

		sub, err := s.scanUntracked(p)
		if err != nil {
			return res, err
		}
		if sub.untracked {
			res.untracked = true
			res.ignored = append(res.ignored, sub.ignored...)
			continue
		}
		if len(sub.ignored) > 0 {
			res.ignored = append(res.ignored, p+"/")
		}
	}
	return res, nil
}

// hasFiles reports whether dir holds at least one non-directory entry at
// any depth.
func (s *worktreeScan) hasFiles(dir string) (bool, error) {
	infos, err := s.fs.ReadDir(dir)
	if err != nil {
		return false, err
	}
	for _, info := range infos {
		if kindOfInfo(info) != kindDir {
			return true, nil
		}
		ok, err := s.hasFiles(path.Join(dir, info.Name()))
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (s *worktreeScan) add(category statusCategory, p string) {
	kind := ChangeUntracked
	if category == categoryIgnored {
		if !s.ignored {
			return
		}
		kind = ChangeIgnored
	} else if !s.untracked {
		return
	}
	s.out = append(s.out, classified{category: category, entry: StatusEntry{Kind: kind, Path: p}})
}

func dirOrRoot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
