package commands

import (
	"fmt"

	"hggrip/internal/domain"
	"hggrip/internal/hg"
	"hggrip/internal/repo"
)

// mergeTool keeps conflict markers in files instead of launching a merge program
const mergeTool = "internal:merge"

// Pull pulls from the default path. Rebasing turns update off, and without
// update conflicts are left as markers.
func (d *Dispatcher) Pull(t Target, update, rebase bool) error {
	conn, err := d.connection(t, false)
	if err != nil {
		return err
	}
	if rebase {
		update = false
	}
	opts := hg.PullOptions{Update: update, Rebase: rebase}
	if !update {
		opts.Tool = mergeTool
	}
	d.submit(conn, request{cmd: hg.Pull(opts), logOutput: true, mutating: true})
	return nil
}

// Push pushes to the default path
func (d *Dispatcher) Push(t Target, newBranch bool) error {
	conn, err := d.connection(t, false)
	if err != nil {
		return err
	}
	d.submit(conn, request{cmd: hg.Push(newBranch), logOutput: true})
	return nil
}

// Update checks out rev, or the branch head when rev is empty. A clean
// update discards local changes and is confirmed first.
func (d *Dispatcher) Update(t Target, clean bool, rev string) error {
	conn, err := d.connection(t, false)
	if err != nil {
		return err
	}
	run := func() {
		d.submit(conn, request{
			cmd:       hg.Update(hg.UpdateOptions{Rev: rev, Clean: clean}),
			logOutput: true,
			mutating:  true,
		})
	}
	if !clean {
		run()
		return nil
	}
	d.r.Confirm("Discard uncommitted changes?", func(yes bool) {
		if yes {
			run()
		}
	})
	return nil
}

// UpdateBranch lets the user pick a branch and updates to it
func (d *Dispatcher) UpdateBranch(t Target, closed bool) error {
	return d.pickBranch(t, closed, func(name string) {
		_ = d.Update(t, false, name)
	})
}

// Merge merges rev, or the other head when rev is empty, and commits the
// result right away with a generated message.
func (d *Dispatcher) Merge(t Target, rev string) error {
	conn, err := d.connection(t, false)
	if err != nil {
		return err
	}

	code := 0
	d.submit(conn, request{
		cmd:       hg.Merge(rev),
		logOutput: true,
		mutating:  true,
		onCode:    func(c int) { code = c },
		done: func(_ any, err error) {
			if code != 0 {
				d.message(fmt.Sprintf("RETURN CODE: %d", code))
				return
			}
			if err != nil {
				d.report(err, true)
				return
			}
			d.submit(conn, request{
				cmd:       hg.Commit(mergeMessage(rev), false),
				logOutput: true,
				keepPanel: true,
				mutating:  true,
			})
		},
	})
	return nil
}

func mergeMessage(rev string) string {
	if rev == "" {
		return "merged"
	}
	return "merged " + rev
}

// MergeBranch lets the user pick a branch and merges it
func (d *Dispatcher) MergeBranch(t Target) error {
	return d.pickBranch(t, false, func(name string) {
		_ = d.Merge(t, name)
	})
}

// pickBranch shows the branch list in a quick panel and calls chosen with the selection
func (d *Dispatcher) pickBranch(t Target, closed bool, chosen func(name string)) error {
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
			names := domain.BranchNames(result.([]domain.Branch))
			d.r.QuickPanel(names, func(i int) {
				if i < 0 || i >= len(names) {
					return
				}
				chosen(names[i])
			})
		},
	})
	return nil
}

// AddRemove adds new files and removes missing ones
func (d *Dispatcher) AddRemove(t Target) error {
	return d.simple(t, hg.AddRemove())
}

// ResolveAll re-merges every unresolved file
func (d *Dispatcher) ResolveAll(t Target) error {
	return d.simple(t, hg.ResolveAll())
}

// BranchClean resets the working directory branch name to its parent's
func (d *Dispatcher) BranchClean(t Target) error {
	return d.simple(t, hg.CleanBranch())
}

// Rebase continues or aborts an interrupted rebase, or rebases onto the branch tip
func (d *Dispatcher) Rebase(t Target, continueRebase, abortRebase bool) error {
	return d.simple(t, hg.Rebase(hg.RebaseOptions{Continue: continueRebase, Abort: abortRebase}))
}

func (d *Dispatcher) simple(t Target, cmd hg.Command) error {
	conn, err := d.connection(t, false)
	if err != nil {
		return err
	}
	d.submit(conn, request{cmd: cmd, logOutput: true, mutating: true})
	return nil
}

// Branch asks for a new branch name, prefilled with the current one, and
// marks the working directory so the next commit starts that branch.
func (d *Dispatcher) Branch(t Target) error {
	conn, err := d.connection(t, false)
	if err != nil {
		return err
	}
	d.submit(conn, request{
		cmd:      hg.CurrentBranch(),
		mutating: true,
		done: func(result any, err error) {
			if err != nil {
				d.report(err, false)
				return
			}
			current, _ := result.(string)
			d.r.InputPanel("Branch name:", current, func(name string, ok bool) {
				if !ok || name == "" || name == current {
					return
				}
				d.setBranch(conn, name)
			})
		},
	})
	return nil
}

func (d *Dispatcher) setBranch(conn *repo.Connection, name string) {
	d.submit(conn, request{cmd: hg.SetBranch(name), logOutput: true, mutating: true})
}
