package hg

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"hggrip/internal/domain"
)

// ParseSummary parses the plain output of `hg summary`
func ParseSummary(out string) domain.Summary {
	var s domain.Summary
	var last *domain.Revision

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, " ") && last != nil {
			// continuation line holds the parent's description
			if last.Desc != "" {
				last.Desc += "\n"
			}
			last.Desc += strings.TrimSpace(line)
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "parent":
			s.Parents = append(s.Parents, parseParent(value))
			last = &s.Parents[len(s.Parents)-1]
		case "branch":
			s.Branch = value
			last = nil
		case "commit":
			s.HasOutstandingCommit = !strings.Contains(value, "(clean)")
			last = nil
		case "update":
			s.HasPendingUpdate = pendingUpdate(value)
			last = nil
		default:
			last = nil
		}
	}
	return s
}

func parseParent(value string) domain.Revision {
	id, tags, _ := strings.Cut(value, " ")
	rev, node, _ := strings.Cut(id, ":")
	return domain.Revision{Rev: rev, Node: node, Tags: strings.TrimSpace(tags)}
}

// pendingUpdate reads values like "(current)" or "2 new changesets (update)"
func pendingUpdate(value string) bool {
	if strings.Contains(value, "(current)") {
		return false
	}
	first, _, _ := strings.Cut(value, " ")
	n, err := strconv.Atoi(first)
	return err == nil && n > 0
}

// ParseStatus parses `hg status --print0`
func ParseStatus(out string) []domain.FileStatus {
	var files []domain.FileStatus
	for _, entry := range strings.Split(out, "\x00") {
		entry = strings.TrimLeft(entry, "\n")
		if len(entry) < 3 {
			continue
		}
		files = append(files, domain.FileStatus{Code: entry[:1], Path: entry[2:]})
	}
	return files
}

const revisionFields = 7

// ParseRevisions parses output produced with revisionTemplate
func ParseRevisions(out string) ([]domain.Revision, error) {
	if strings.TrimSpace(out) == "" {
		return nil, nil
	}
	fields := strings.Split(out, "\x00")
	// the template ends with a separator, leaving a trailing empty field
	if n := len(fields); n > 0 && strings.TrimSpace(fields[n-1]) == "" {
		fields = fields[:n-1]
	}
	if len(fields)%revisionFields != 0 {
		return nil, fmt.Errorf("unexpected revision output: %d fields", len(fields))
	}

	revs := make([]domain.Revision, 0, len(fields)/revisionFields)
	for i := 0; i < len(fields); i += revisionFields {
		f := fields[i : i+revisionFields]
		revs = append(revs, domain.Revision{
			Rev:    f[0],
			Node:   f[1],
			Tags:   f[2],
			Branch: f[3],
			Author: f[4],
			Desc:   f[5],
			Date:   f[6],
		})
	}
	return revs, nil
}

var branchLine = regexp.MustCompile(`^(.*\S)\s+(-?\d+):([0-9a-f]+)(?:\s+\((inactive|closed)\))?\s*$`)

// ParseBranches parses the plain output of `hg branches`
func ParseBranches(out string) ([]domain.Branch, error) {
	var branches []domain.Branch
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := branchLine.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("unexpected branches line %q", line)
		}
		rev, _ := strconv.Atoi(m[2])
		branches = append(branches, domain.Branch{
			Name:     m[1],
			Rev:      rev,
			Node:     m[3],
			Inactive: m[4] == "inactive",
			Closed:   m[4] == "closed",
		})
	}
	return branches, nil
}

func trimLine(out string) string {
	return strings.TrimRight(out, "\r\n")
}
