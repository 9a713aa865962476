package hg

import (
	"context"
	"errors"
	"slices"
)

// ParseFunc turns the decoded output of a successful command into a value
type ParseFunc func(out string) (any, error)

// Command is one logical Mercurial invocation: the command line, the return
// codes that mean "nothing to do" rather than failure, and the output parser.
type Command struct {
	Name   string
	Args   []string
	Accept []int
	Parse  ParseFunc
}

// Run executes the command on r. Without a parser the decoded output is returned.
func (c Command) Run(ctx context.Context, r Runner, hooks Hooks) (any, error) {
	out, err := r.RunCommand(ctx, c.Args, hooks)
	if err != nil {
		var cmdErr *CommandError
		if !errors.As(err, &cmdErr) || !slices.Contains(c.Accept, cmdErr.Code) {
			return nil, err
		}
		out = cmdErr.Out
	}

	text := Decode(r.Encoding(), out)
	if c.Parse == nil {
		return text, nil
	}
	return c.Parse(text)
}

// rebaseExtension enables rebase for a single command
var rebaseExtension = []string{"--config", "extensions.rebase="}

// revisionTemplate separates fields with NUL so descriptions may contain anything
const revisionTemplate = `{rev}\0{node}\0{tags}\0{branch}\0{author}\0{desc}\0{date|isodate}\0`

// Summary runs `hg summary`
func Summary() Command {
	return Command{Name: "summary", Args: []string{"summary"}, Parse: func(out string) (any, error) {
		return ParseSummary(out), nil
	}}
}

// Status runs `hg status` with NUL-terminated entries
func Status() Command {
	return Command{Name: "status", Args: []string{"status", "--print0"}, Parse: func(out string) (any, error) {
		return ParseStatus(out), nil
	}}
}

// Diff runs `hg diff` and returns the patch text
func Diff() Command {
	return Command{Name: "diff", Args: []string{"diff"}}
}

// Incoming lists changesets available from the default path
func Incoming() Command {
	return Command{
		Name:   "incoming",
		Args:   []string{"incoming", "--quiet", "--template", revisionTemplate},
		Accept: []int{1},
		Parse:  parseRevisionsAny,
	}
}

// Outgoing lists changesets not present in the default push path
func Outgoing() Command {
	return Command{
		Name:   "outgoing",
		Args:   []string{"outgoing", "--quiet", "--template", revisionTemplate},
		Accept: []int{1},
		Parse:  parseRevisionsAny,
	}
}

func parseRevisionsAny(out string) (any, error) {
	return ParseRevisions(out)
}

// PullOptions controls `hg pull`
type PullOptions struct {
	Update bool
	Rebase bool
	Tool   string
}

// Pull runs `hg pull`
func Pull(opts PullOptions) Command {
	var args []string
	if opts.Rebase {
		args = append(args, rebaseExtension...)
	}
	args = append(args, "pull")
	if opts.Update {
		args = append(args, "--update")
	}
	if opts.Rebase {
		args = append(args, "--rebase")
	}
	if opts.Tool != "" {
		args = append(args, "--tool", opts.Tool)
	}
	return Command{Name: "pull", Args: args}
}

// Push runs `hg push`; return code 1 means there was nothing to push
func Push(newBranch bool) Command {
	args := []string{"push"}
	if newBranch {
		args = append(args, "--new-branch")
	}
	return Command{Name: "push", Args: args, Accept: []int{1}}
}

// UpdateOptions controls `hg update`
type UpdateOptions struct {
	Rev   string
	Clean bool
}

// Update runs `hg update`
func Update(opts UpdateOptions) Command {
	args := []string{"update"}
	if opts.Clean {
		args = append(args, "--clean")
	}
	if opts.Rev != "" {
		args = append(args, "--rev", opts.Rev)
	}
	return Command{Name: "update", Args: args}
}

// Merge runs `hg merge`, optionally with an explicit revision
func Merge(rev string) Command {
	args := []string{"merge"}
	if rev != "" {
		args = append(args, "--rev", rev)
	}
	return Command{Name: "merge", Args: args}
}

// Branches runs `hg branches`
func Branches(closed bool) Command {
	args := []string{"branches"}
	if closed {
		args = append(args, "--closed")
	}
	return Command{Name: "branches", Args: args, Parse: func(out string) (any, error) {
		return ParseBranches(out)
	}}
}

// CurrentBranch returns the branch name of the working directory
func CurrentBranch() Command {
	return Command{Name: "branch", Args: []string{"branch"}, Parse: func(out string) (any, error) {
		return trimLine(out), nil
	}}
}

// SetBranch marks the working directory as a new branch
func SetBranch(name string) Command {
	return Command{Name: "branch", Args: []string{"branch", "--", name}}
}

// CleanBranch resets the branch name to the parent's branch
func CleanBranch() Command {
	return Command{Name: "branch_clean", Args: []string{"branch", "--clean"}}
}

// Commit runs `hg commit` with the given message
func Commit(message string, closeBranch bool) Command {
	args := []string{"commit", "--message", message}
	if closeBranch {
		args = append(args, "--close-branch")
	}
	return Command{Name: "commit", Args: args}
}

// AddRemove runs `hg addremove`
func AddRemove() Command {
	return Command{Name: "addremove", Args: []string{"addremove"}}
}

// ResolveAll runs `hg resolve --all`
func ResolveAll() Command {
	return Command{Name: "resolve", Args: []string{"resolve", "--all"}}
}

// RebaseOptions controls `hg rebase`
type RebaseOptions struct {
	Continue bool
	Abort    bool
}

// Rebase runs `hg rebase` with the rebase extension enabled
func Rebase(opts RebaseOptions) Command {
	args := append(slices.Clone(rebaseExtension), "rebase")
	switch {
	case opts.Abort:
		args = append(args, "--abort")
	case opts.Continue:
		args = append(args, "--continue")
	}
	return Command{Name: "rebase", Args: args}
}
