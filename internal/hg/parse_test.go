package hg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hggrip/internal/domain"
)

func TestParseSummary(t *testing.T) {
	out := "parent: 2:8a1c0e3a5d3f tip\n" +
		" add feature\n" +
		"branch: stable\n" +
		"commit: 1 modified, 1 unknown\n" +
		"update: 2 new changesets (update)\n" +
		"phases: 3 draft\n"

	s := ParseSummary(out)
	assert.Equal(t, "stable", s.Branch)
	assert.True(t, s.HasOutstandingCommit)
	assert.True(t, s.HasPendingUpdate)
	require.Len(t, s.Parents, 1)
	assert.Equal(t, domain.Revision{Rev: "2", Node: "8a1c0e3a5d3f", Tags: "tip", Desc: "add feature"}, s.Parents[0])
	assert.Equal(t, "stable ‼ ^", s.StatusLine())
}

func TestParseSummaryClean(t *testing.T) {
	out := "parent: -1:000000000000  (no revision checked out)\n" +
		"branch: default\n" +
		"commit: (clean)\n" +
		"update: (current)\n"

	s := ParseSummary(out)
	assert.False(t, s.HasOutstandingCommit)
	assert.False(t, s.HasPendingUpdate)
	assert.Equal(t, "default", s.StatusLine())
}

func TestParseStatus(t *testing.T) {
	files := ParseStatus("M src/a.go\x00A b c.txt\x00? new\x00")
	assert.Equal(t, []domain.FileStatus{
		{Code: "M", Path: "src/a.go"},
		{Code: "A", Path: "b c.txt"},
		{Code: "?", Path: "new"},
	}, files)

	assert.Empty(t, ParseStatus(""))
}

func TestParseRevisions(t *testing.T) {
	out := "5\x00" + "0123456789abcdef0123\x00tip\x00default\x00alice\x00fix the thing\nsecond line\x002024-01-02 10:00 +0100\x00" +
		"6\x00fedcba9876543210fedc\x00\x00stable\x00bob\x00other\x002024-01-03 11:00 +0100\x00"

	revs, err := ParseRevisions(out)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, "0123456789ab", revs[0].ShortNode())
	assert.Equal(t, "fix the thing\nsecond line", revs[0].Desc)
	assert.Equal(t, "stable", revs[1].Branch)

	revs, err = ParseRevisions("")
	require.NoError(t, err)
	assert.Empty(t, revs)

	_, err = ParseRevisions("1\x00only\x00")
	require.Error(t, err)
}

func TestParseBranches(t *testing.T) {
	out := "default                        7:0123456789ab\n" +
		"feature one                    5:abcdefabcdef (inactive)\n" +
		"old                            2:fedcbafedcba (closed)\n"

	branches, err := ParseBranches(out)
	require.NoError(t, err)
	require.Len(t, branches, 3)
	assert.Equal(t, domain.Branch{Name: "default", Rev: 7, Node: "0123456789ab"}, branches[0])
	assert.Equal(t, "feature one", branches[1].Name)
	assert.True(t, branches[1].Inactive)
	assert.True(t, branches[2].Closed)
	assert.Equal(t, []string{"default", "feature one", "old"}, domain.BranchNames(branches))

	_, err = ParseBranches("garbage\n")
	require.Error(t, err)
}

func TestDecodeServerEncoding(t *testing.T) {
	assert.Equal(t, "é", Decode("latin1", []byte{0xe9}))
	assert.Equal(t, "plain", Decode("UTF-8", []byte("plain")))

	b, err := Encode("latin1", "é")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xe9}, b)
}

// stubRunner returns a canned result for every command
type stubRunner struct {
	out  []byte
	err  error
	args []string
}

func (s *stubRunner) RunCommand(_ context.Context, args []string, _ Hooks) ([]byte, error) {
	s.args = args
	return s.out, s.err
}

func (s *stubRunner) Encoding() string { return "UTF-8" }

func TestCommandRunAcceptsNothingToDoCodes(t *testing.T) {
	r := &stubRunner{err: &CommandError{Args: []string{"incoming"}, Code: 1}}

	res, err := Incoming().Run(context.Background(), r, Hooks{})
	require.NoError(t, err)
	assert.Empty(t, res)

	r.err = &CommandError{Args: []string{"incoming"}, Code: 255, Err: []byte("abort: no default path")}
	_, err = Incoming().Run(context.Background(), r, Hooks{})
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 255, cmdErr.Code)
}

func TestCommandArguments(t *testing.T) {
	assert.Equal(t, []string{"--config", "extensions.rebase=", "pull", "--rebase", "--tool", "internal:merge"},
		Pull(PullOptions{Rebase: true, Tool: "internal:merge"}).Args)
	assert.Equal(t, []string{"pull", "--update"}, Pull(PullOptions{Update: true}).Args)
	assert.Equal(t, []string{"update", "--clean", "--rev", "stable"}, Update(UpdateOptions{Rev: "stable", Clean: true}).Args)
	assert.Equal(t, []string{"commit", "--message", "msg", "--close-branch"}, Commit("msg", true).Args)
	assert.Equal(t, []string{"--config", "extensions.rebase=", "rebase", "--abort"}, Rebase(RebaseOptions{Abort: true, Continue: true}).Args)
	assert.Equal(t, []string{"branches", "--closed"}, Branches(true).Args)
	assert.Equal(t, []string{"merge", "--rev", "default"}, Merge("default").Args)
}
