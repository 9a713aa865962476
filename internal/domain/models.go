package domain

import "strings"

// Summary is the cached result of `hg summary` for one repository
type Summary struct {
	Branch               string
	Parents              []Revision
	HasOutstandingCommit bool // working directory is not clean
	HasPendingUpdate     bool // newer changesets can be checked out
}

// StatusLine renders the summary the way the status bar shows it
func (s Summary) StatusLine() string {
	line := s.Branch
	if s.HasOutstandingCommit {
		line += " ‼"
	}
	if s.HasPendingUpdate {
		line += " ^"
	}
	return line
}

// FileStatus is one entry of `hg status`
type FileStatus struct {
	Code string // M, A, R, !, ?, ...
	Path string
}

// Revision describes a changeset as reported by incoming/outgoing/summary
type Revision struct {
	Rev    string
	Node   string
	Tags   string
	Branch string
	Author string
	Desc   string
	Date   string
}

// ShortNode returns the 12 character abbreviated node hash
func (r Revision) ShortNode() string {
	if len(r.Node) > 12 {
		return r.Node[:12]
	}
	return r.Node
}

// Branch is one line of `hg branches`
type Branch struct {
	Name     string
	Rev      int
	Node     string
	Inactive bool
	Closed   bool
}

// Repository represents a Mercurial repository found on disk
type Repository struct {
	Path string
	Name string
}

// ScanProgress represents the current scanning state
type ScanProgress struct {
	IsScanning  bool
	ReposFound  int
	CurrentPath string
}

// BranchNames returns the names of the given branches in order
func BranchNames(branches []Branch) []string {
	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, strings.TrimSpace(b.Name))
	}
	return names
}
