package git

import (
	"time"
)

// Repository is a handle bound to a repository path.
//
// It carries no go-git state between calls: every method opens the
// repository, performs one task and releases everything it acquired before
// returning. Two Repository values for the same path observe the same
// on-disk state.
type Repository struct {
	path string
	opts *repositoryOptions
}

// Signature identifies the author, committer or tagger of an object.
// When carries both the instant and the UTC offset recorded in the object.
//
// JSON and YAML encode a signature as {name, email, time, offset}, with
// time in seconds since the Unix epoch and offset in minutes east of UTC.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Commit is a value type describing a commit object.
type Commit struct {
	ID        string    `json:"id" yaml:"id"`
	TreeID    string    `json:"tree" yaml:"tree"`
	ParentIDs []string  `json:"parents" yaml:"parents"`
	Author    Signature `json:"author" yaml:"author"`
	Committer Signature `json:"committer" yaml:"committer"`
	Summary   string    `json:"summary" yaml:"summary"`
	Message   string    `json:"message" yaml:"message"`
}

// ReferenceKind distinguishes direct references from symbolic ones.
type ReferenceKind string

const (
	// ReferenceOID is a direct reference holding an object id.
	ReferenceOID ReferenceKind = "oid"
	// ReferenceSymbolic is a reference holding the name of another reference.
	ReferenceSymbolic ReferenceKind = "symbolic"
)

// Reference is a named pointer. Target holds a 40-hex object id for direct
// references and the unresolved target name for symbolic ones.
type Reference struct {
	Name      string        `json:"name" yaml:"name"`
	Shorthand string        `json:"shorthand" yaml:"shorthand"`
	Kind      ReferenceKind `json:"kind" yaml:"kind"`
	Target    string        `json:"target" yaml:"target"`
}

// BranchScope selects which branches Branches enumerates.
type BranchScope int

const (
	// BranchLocal selects branches under refs/heads/.
	BranchLocal BranchScope = iota + 1
	// BranchRemote selects remote-tracking branches under refs/remotes/.
	BranchRemote
	// BranchAll selects both local and remote-tracking branches.
	BranchAll
)

// String returns the scope name.
func (s BranchScope) String() string {
	switch s {
	case BranchLocal:
		return "local"
	case BranchRemote:
		return "remote"
	case BranchAll:
		return "all"
	default:
		return "unknown"
	}
}

// Branch is a reference under refs/heads/ or refs/remotes/.
//
// RemoteName and RemoteURL are only set for remote-tracking branches.
// RemoteURL is empty when the remote is not configured.
type Branch struct {
	Reference  `yaml:",inline"`
	Scope      BranchScope `json:"-" yaml:"-"`
	RemoteName string      `json:"remote_name,omitempty" yaml:"remote_name,omitempty"`
	RemoteURL  string      `json:"remote_url,omitempty" yaml:"remote_url,omitempty"`
	IsHead     bool        `json:"is_head" yaml:"is_head"`
}

// IsRemote reports whether the branch is a remote-tracking branch.
func (b Branch) IsRemote() bool {
	return b.Scope == BranchRemote
}

// Tag is an annotated tag. Target is the id of the tagged object.
type Tag struct {
	Name       string    `json:"name" yaml:"name"`
	Message    string    `json:"message" yaml:"message"`
	Tagger     Signature `json:"tagger" yaml:"tagger"`
	Target     string    `json:"target" yaml:"target"`
	TargetType string    `json:"target_type" yaml:"target_type"`
}

// ChangeKind classifies a status entry.
type ChangeKind string

const (
	ChangeNew        ChangeKind = "new"
	ChangeModified   ChangeKind = "modified"
	ChangeDeleted    ChangeKind = "deleted"
	ChangeRenamed    ChangeKind = "renamed"
	ChangeTypechange ChangeKind = "typechange"
	ChangeUntracked  ChangeKind = "untracked"
	ChangeIgnored    ChangeKind = "ignored"
)

// StatusEntry is one classified path. OldPath is only set for renames.
// Collapsed untracked or ignored directories end with a slash.
type StatusEntry struct {
	Kind    ChangeKind `json:"kind" yaml:"kind"`
	Path    string     `json:"path" yaml:"path"`
	OldPath string     `json:"old_path,omitempty" yaml:"old_path,omitempty"`
}

// StatusOptions selects the categories Status computes.
type StatusOptions struct {
	Staged    bool
	Unstaged  bool
	Untracked bool
	Ignored   bool
}

// DefaultStatusOptions selects staged, unstaged and untracked entries.
func DefaultStatusOptions() StatusOptions {
	return StatusOptions{Staged: true, Unstaged: true, Untracked: true}
}

// Status is the partitioned result of a status call. Categories that were
// not selected are nil; selected categories are non-nil, possibly empty.
type Status struct {
	Staged    []StatusEntry `json:"staged,omitempty" yaml:"staged,omitempty"`
	Unstaged  []StatusEntry `json:"unstaged,omitempty" yaml:"unstaged,omitempty"`
	Untracked []StatusEntry `json:"untracked,omitempty" yaml:"untracked,omitempty"`
	Ignored   []StatusEntry `json:"ignored,omitempty" yaml:"ignored,omitempty"`
}

// Map returns the selected categories keyed by name
// ("staged", "unstaged", "untracked", "ignored").
func (s *Status) Map() map[string][]StatusEntry {
	m := make(map[string][]StatusEntry, 4)
	if s.Staged != nil {
		m["staged"] = s.Staged
	}
	if s.Unstaged != nil {
		m["unstaged"] = s.Unstaged
	}
	if s.Untracked != nil {
		m["untracked"] = s.Untracked
	}
	if s.Ignored != nil {
		m["ignored"] = s.Ignored
	}
	return m
}

// IsClean reports whether no entry was found in any selected category.
func (s *Status) IsClean() bool {
	return len(s.Staged) == 0 && len(s.Unstaged) == 0 && len(s.Untracked) == 0 && len(s.Ignored) == 0
}

// CommitOptions configures Commit.
type CommitOptions struct {
	// Message is the full commit message. Required.
	Message string
	// Author and Committer must be well-formed signatures.
	Author    Signature
	Committer Signature
	// Parents lists parent commit ids as 40-hex strings. When nil, the
	// commit HEAD resolves to (if any) is the only parent. A non-nil empty
	// slice creates a root commit.
	Parents []string
	// Ref is the reference to advance. Defaults to HEAD; a symbolic HEAD
	// advances the branch it points at.
	Ref string
}

// Progress reports transfer state during Clone.
type Progress struct {
	ReceivedObjects uint32
	TotalObjects    uint32
	ReceivedBytes   int64
}

// Percent returns the share of received objects, 0 to 100.
func (p Progress) Percent() int {
	if p.TotalObjects == 0 {
		return 0
	}
	return int(uint64(p.ReceivedObjects) * 100 / uint64(p.TotalObjects))
}

// ProgressFunc receives clone progress updates.
type ProgressFunc func(Progress)

// Auth is an interface for authentication methods.
// It is satisfied by go-git's transport.AuthMethod.
type Auth interface {
	// Marker interface - satisfied by go-git transport.AuthMethod
}
