package commands

import (
	"fmt"
	"strings"

	"hggrip/internal/domain"
	"hggrip/internal/hg"
)

// BranchStatus shows `<branch>[ ‼][ ^]` in the status bar, using the cached
// summary unless force is set.
func (d *Dispatcher) BranchStatus(t Target, force bool) error {
	conn, err := d.connection(t, true)
	if err != nil {
		d.r.EraseStatus(StatusKey)
		return err
	}

	if s := conn.Summary(); s != nil && !force {
		d.r.SetStatus(StatusKey, s.StatusLine())
		return nil
	}

	d.submit(conn, request{
		cmd: hg.Summary(),
		done: func(result any, err error) {
			if err != nil {
				d.message(err.Error())
				d.r.EraseStatus(StatusKey)
				return
			}
			s := result.(domain.Summary)
			conn.SetSummary(s)
			d.r.SetStatus(StatusKey, s.StatusLine())
		},
	})
	return nil
}

// Incoming lists changesets that a pull would bring in
func (d *Dispatcher) Incoming(t Target) error {
	return d.revisions(t, hg.Incoming(), TitleIncoming)
}

// Outgoing lists changesets that a push would send
func (d *Dispatcher) Outgoing(t Target) error {
	return d.revisions(t, hg.Outgoing(), TitleOutgoing)
}

func (d *Dispatcher) revisions(t Target, cmd hg.Command, title string) error {
	conn, err := d.connection(t, false)
	if err != nil {
		return err
	}
	d.submit(conn, request{
		cmd: cmd,
		done: func(result any, err error) {
			if err != nil {
				d.report(err, false)
				return
			}
			revs, _ := result.([]domain.Revision)
			if len(revs) == 0 {
				d.message("no " + cmd.Name)
				return
			}
			d.r.Scratch(FormatRevisions(revs), title, "")
		},
	})
	return nil
}

// Status shows the working directory changes
func (d *Dispatcher) Status(t Target) error {
	conn, err := d.connection(t, false)
	if err != nil {
		return err
	}
	d.submit(conn, request{
		cmd: hg.Status(),
		done: func(result any, err error) {
			if err != nil {
				d.report(err, false)
				return
			}
			files, _ := result.([]domain.FileStatus)
			if len(files) == 0 {
				d.message("No changes")
				return
			}
			d.r.Scratch(FormatStatus(files), TitleStatus, "")
		},
	})
	return nil
}

// Diff shows the working directory diff
func (d *Dispatcher) Diff(t Target) error {
	conn, err := d.connection(t, false)
	if err != nil {
		return err
	}
	d.submit(conn, request{
		cmd: hg.Diff(),
		done: func(result any, err error) {
			if err != nil {
				d.report(err, false)
				return
			}
			text, _ := result.(string)
			if strings.TrimSpace(text) == "" {
				d.message("No changes")
				return
			}
			d.r.Scratch(text, TitleDiff, SyntaxDiff)
		},
	})
	return nil
}

// Branches lists named branches, including closed ones when closed is set
func (d *Dispatcher) Branches(t Target, closed bool) error {
	conn, err := d.connection(t, false)
	if err != nil {
		return err
	}
	d.submit(conn, request{
		cmd: hg.Branches(closed),
		done: func(result any, err error) {
			if err != nil {
				d.report(err, false)
				return
			}
			branches, _ := result.([]domain.Branch)
			if len(branches) == 0 {
				d.message("No branches")
				return
			}
			d.r.Scratch(FormatBranches(branches), TitleBranches, "")
		},
	})
	return nil
}

// FormatRevisions renders incoming/outgoing changesets, one block per revision
func FormatRevisions(revs []domain.Revision) string {
	var b strings.Builder
	for _, r := range revs {
		fmt.Fprintf(&b, "%s\t%s:%s\t%s\n", r.Branch, r.Rev, r.ShortNode(), r.Date)
		b.WriteString(r.Author + "\n")
		b.WriteString(r.Desc + "\n")
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// FormatStatus renders one `<code>\t<path>` line per file
func FormatStatus(files []domain.FileStatus) string {
	lines := make([]string, 0, len(files))
	for _, f := range files {
		lines = append(lines, f.Code+"\t"+f.Path)
	}
	return strings.Join(lines, "\n")
}

// FormatBranches renders `hg branches` as a table
func FormatBranches(branches []domain.Branch) string {
	width := 0
	for _, br := range branches {
		width = max(width, len(br.Name))
	}
	var b strings.Builder
	for _, br := range branches {
		fmt.Fprintf(&b, "%-*s %d:%s", width, br.Name, br.Rev, br.Node)
		switch {
		case br.Closed:
			b.WriteString(" (closed)")
		case br.Inactive:
			b.WriteString(" (inactive)")
		}
		b.WriteString("\n")
	}
	return b.String()
}
