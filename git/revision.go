package git

import (
	"errors"
	"strings"

	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Revisions returns every commit reachable from HEAD exactly once, newest
// committer time first. A commit is never returned before any of its
// reachable children, whatever the timestamps say.
//
// An unborn HEAD yields an empty slice. A missing commit anywhere in the
// history fails the whole call.
//
// Example:
//
//	commits, err := repo.Revisions()
//	for _, c := range commits {
//	    fmt.Println(c.ID[:7], c.Summary)
//	}
func (r *Repository) Revisions() ([]Commit, error) {
	var commits []Commit
	err := r.withHandle(func(h *handle) error {
		var err error
		commits, err = h.revisions()
		return err
	})
	return commits, err
}

func (h *handle) revisions() ([]Commit, error) {
	head, err := h.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return []Commit{}, nil
	}
	if err != nil {
		return nil, wrapError(err, "failed to resolve HEAD")
	}

	reachable, err := h.reachableCommits(head.Hash())
	if err != nil {
		return nil, err
	}

	// Pending child count per commit; a commit is ready once it drops to 0.
	pending := make(map[plumbing.Hash]int, len(reachable))
	for _, c := range reachable {
		for _, p := range c.ParentHashes {
			pending[p]++
		}
	}

	ready := binaryheap.NewWith(newestFirst)
	ready.Push(reachable[head.Hash()])

	commits := make([]Commit, 0, len(reachable))
	for !ready.Empty() {
		v, _ := ready.Pop()
		c := v.(*object.Commit)
		commits = append(commits, newCommit(c))

		for _, p := range c.ParentHashes {
			pending[p]--
			if pending[p] == 0 {
				ready.Push(reachable[p])
			}
		}
	}
	return commits, nil
}

// reachableCommits loads every commit reachable from tip.
func (h *handle) reachableCommits(tip plumbing.Hash) (map[plumbing.Hash]*object.Commit, error) {
	seen := make(map[plumbing.Hash]*object.Commit)
	stack := []plumbing.Hash{tip}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[id]; ok {
			continue
		}

		c, err := object.GetCommit(h.storage, id)
		if err != nil {
			return nil, wrapError(err, "failed to read commit "+id.String())
		}
		seen[id] = c
		stack = append(stack, c.ParentHashes...)
	}
	return seen, nil
}

// newestFirst orders the heap by committer time, newest on top. Equal
// times fall back to the id so the order is stable across runs.
func newestFirst(a, b interface{}) int {
	ca, cb := a.(*object.Commit), b.(*object.Commit)
	switch {
	case ca.Committer.When.After(cb.Committer.When):
		return -1
	case ca.Committer.When.Before(cb.Committer.When):
		return 1
	default:
		return strings.Compare(ca.Hash.String(), cb.Hash.String())
	}
}

// newCommit converts a go-git commit into a Commit value.
func newCommit(c *object.Commit) Commit {
	parents := make([]string, len(c.ParentHashes))
	for i, p := range c.ParentHashes {
		parents[i] = p.String()
	}

	return Commit{
		ID:        c.Hash.String(),
		TreeID:    c.TreeHash.String(),
		ParentIDs: parents,
		Author:    signatureFromObject(c.Author),
		Committer: signatureFromObject(c.Committer),
		Summary:   commitSummary(c.Message),
		Message:   c.Message,
	}
}

// commitSummary returns the first paragraph of message with its lines
// joined by single spaces. Leading whitespace is dropped and runs of
// whitespace that contain a newline become one space.
func commitSummary(message string) string {
	msg := strings.TrimLeft(message, " \t\r\n")

	var (
		b     strings.Builder
		space = -1
	)
	for i := 0; i < len(msg); i++ {
		ch := msg[i]
		if ch == '\n' {
			next := strings.TrimLeft(msg[i+1:], " \t\r\v\f")
			if next == "" || next[0] == '\n' {
				break
			}
		}

		if isSpace(ch) {
			if space < 0 {
				space = i
			}
			continue
		}

		if space >= 0 {
			if strings.ContainsRune(msg[space:i], '\n') {
				b.WriteByte(' ')
			} else {
				b.WriteString(msg[space:i])
			}
			space = -1
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
