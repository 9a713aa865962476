package commands

import (
	"strings"

	"hggrip/internal/domain"
	"hggrip/internal/hg"
)

// CommitMarker starts the part of the commit editor that is ignored
const CommitMarker = "# ----------"

var commitHelp = []string{
	"# Enter the commit message. Everything below this paragraph is ignored.",
	"# Empty message aborts the commit.",
	"# Close this window to accept your message.",
}

// Commit lists pending changes and opens the commit editor. The commit
// itself runs when the editor is closed, see OnViewClosed.
func (d *Dispatcher) Commit(t Target, message string, closeBranch bool) error {
	conn, err := d.connection(t, false)
	if err != nil {
		return err
	}

	d.submit(conn, request{
		cmd:      hg.Status(),
		mutating: true,
		done: func(result any, err error) {
			if err != nil {
				d.report(err, false)
				return
			}
			files, _ := result.([]domain.FileStatus)
			if len(files) == 0 && !closeBranch {
				d.message("No changes")
				return
			}

			seed := message
			switch {
			case seed != "":
			case closeBranch:
				seed = "closed"
			default:
				seed = conn.LastMessage()
			}

			title := TitleCommit
			if closeBranch {
				title = TitleCommitCloseBranch
			}
			d.commits[title] = append(d.commits[title], pendingCommit{conn: conn, closeBranch: closeBranch})
			d.r.OpenEditor(title, CommitTemplate(seed, files, conn.History()))
		},
	})
	return nil
}

// OnViewClosed finishes a commit when its editor is closed. It reports
// whether the view was a commit editor.
func (d *Dispatcher) OnViewClosed(title, text string) bool {
	queue := d.commits[title]
	if len(queue) == 0 {
		return false
	}
	pc := queue[0]
	if len(queue) == 1 {
		delete(d.commits, title)
	} else {
		d.commits[title] = queue[1:]
	}

	msg := ParseCommitMessage(text)
	if msg == "" {
		d.message("No commit message")
		return true
	}
	pc.conn.RecordCommitMessage(msg)
	d.submit(pc.conn, request{
		cmd:       hg.Commit(msg, pc.closeBranch),
		logOutput: true,
		mutating:  true,
	})
	return true
}

// CommitTemplate builds the commit editor text: the seed message, the
// marker, help lines, the changed files and the message history.
func CommitTemplate(seed string, files []domain.FileStatus, history []string) string {
	lines := []string{seed, CommitMarker}
	lines = append(lines, commitHelp...)
	for _, f := range files {
		lines = append(lines, "#\t"+f.Code+"\t"+f.Path)
	}
	if len(history) > 0 {
		lines = append(lines, "# commit messages history:")
		for _, h := range history {
			lines = append(lines, "# "+h)
		}
	}
	return strings.Join(lines, "\n")
}

// ParseCommitMessage returns the text above the marker line, trimmed
func ParseCommitMessage(text string) string {
	if strings.HasPrefix(text, CommitMarker) {
		return ""
	}
	msg, _, _ := strings.Cut(text, "\n"+CommitMarker)
	return strings.TrimSpace(msg)
}
