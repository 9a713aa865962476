package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hggrip/internal/commands"
	"hggrip/internal/domain"
	"hggrip/internal/eventbus"
	"hggrip/internal/executor"
)

type dispatched struct {
	op     string
	target commands.Target
	params commands.Params
}

type fakeDispatcher struct {
	calls     []dispatched
	activated []commands.Target
	saved     []commands.Target
	closed    map[string]string
	err       error
}

func (f *fakeDispatcher) Dispatch(name string, t commands.Target, p commands.Params) error {
	f.calls = append(f.calls, dispatched{op: name, target: t, params: p})
	return f.err
}

func (f *fakeDispatcher) OnActivated(t commands.Target) { f.activated = append(f.activated, t) }
func (f *fakeDispatcher) OnPostSave(t commands.Target)  { f.saved = append(f.saved, t) }

func (f *fakeDispatcher) OnViewClosed(title, text string) bool {
	if f.closed == nil {
		f.closed = make(map[string]string)
	}
	f.closed[title] = text
	return true
}

func newTestModel(t *testing.T) (*Model, *fakeDispatcher, *executor.Mailbox) {
	t.Helper()
	mb := executor.NewMailbox()
	m := NewModel(mb, Options{Dir: t.TempDir(), MarkdownStyle: "notty"})
	d := &fakeDispatcher{}
	m.SetDispatcher(d)
	return m, d, mb
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *Model, msgs ...tea.Msg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

func TestPanelAppendsAndClears(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.Panel("one\n", false)
	m.Panel("two\n", false)
	assert.Equal(t, "one\ntwo\n", m.PanelText())
	assert.True(t, m.panelVisible)

	m.Panel("", true)
	assert.Empty(t, m.PanelText())

	m.panelVisible = false
	m.ShowPanel()
	assert.True(t, m.panelVisible)
}

func TestScratchReusesBufferWithSameTitle(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.Scratch("M a.txt", commands.TitleStatus, "")
	m.Scratch("+x", commands.TitleDiff, commands.SyntaxDiff)
	m.Scratch("A b.txt", commands.TitleStatus, "")

	require.Len(t, m.scratches, 2)
	assert.Equal(t, "A b.txt", m.scratches[0].text)
	assert.Equal(t, 0, m.active)
}

func TestStatusSlots(t *testing.T) {
	m, _, _ := newTestModel(t)

	m.SetStatus(commands.StatusKey, "default")
	assert.Contains(t, m.View(), "default")

	m.EraseStatus(commands.StatusKey)
	assert.NotContains(t, m.status, commands.StatusKey)
}

func TestQuickPanelPicksHighlightedItem(t *testing.T) {
	m, _, _ := newTestModel(t)

	picked := -2
	m.QuickPanel([]string{"default", "feature", "stable"}, func(i int) { picked = i })
	press(m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, 2, picked)
	assert.Empty(t, m.modes)
}

func TestQuickPanelEscapeCancels(t *testing.T) {
	m, _, _ := newTestModel(t)

	picked := -2
	m.QuickPanel([]string{"default"}, func(i int) { picked = i })
	press(m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, -1, picked)
}

func TestInputPanel(t *testing.T) {
	m, _, _ := newTestModel(t)

	var got string
	var ok bool
	m.InputPanel("Branch name:", "feat", func(text string, accepted bool) { got, ok = text, accepted })
	press(m, runes("ure"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.True(t, ok)
	assert.Equal(t, "feature", got)
}

func TestDialogsQueueInOrder(t *testing.T) {
	m, _, _ := newTestModel(t)

	var confirmed *bool
	var answer []byte
	answered := false
	m.Confirm("Discard uncommitted changes?", func(yes bool) { confirmed = &yes })
	m.PromptDialog("keep file?", func(a []byte) { answer, answered = a, true })

	press(m, runes("y"))
	require.NotNil(t, confirmed)
	assert.True(t, *confirmed)
	assert.False(t, answered)

	press(m, runes("n"))
	assert.True(t, answered)
	assert.Equal(t, []byte("n"), answer)
}

func TestPromptEscapeSendsEmptyAnswer(t *testing.T) {
	m, _, _ := newTestModel(t)

	answered := false
	answer := []byte("unset")
	m.PromptDialog("overwrite?", func(a []byte) { answer, answered = a, true })
	press(m, tea.KeyMsg{Type: tea.KeyEsc})

	assert.True(t, answered)
	assert.Empty(t, answer)
}

func TestEditorCloseHandsTextToDispatcher(t *testing.T) {
	m, d, _ := newTestModel(t)

	m.OpenEditor(commands.TitleCommit, "")
	press(m, runes("fix"), tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, "fix", d.closed[commands.TitleCommit])
	assert.Empty(t, m.modes)
}

func TestQuitAnswersPendingDialogs(t *testing.T) {
	m, d, _ := newTestModel(t)

	answered := false
	m.PromptDialog("continue?", func([]byte) { answered = true })
	m.OpenEditor(commands.TitleCommit, "message")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, answered)
	require.Contains(t, d.closed, commands.TitleCommit)
	assert.Empty(t, d.closed[commands.TitleCommit])
	assert.Empty(t, m.modes)
}

func TestOperationKeysDispatch(t *testing.T) {
	m, d, _ := newTestModel(t)

	press(m, runes("s"), tea.KeyMsg{Type: tea.KeyCtrlU}, runes("z"), runes("l"))

	require.Len(t, d.calls, 3)
	assert.Equal(t, "status", d.calls[0].op)
	assert.Equal(t, m.opts.Dir, d.calls[0].target.Folder)
	assert.Equal(t, "update", d.calls[1].op)
	assert.True(t, d.calls[1].params.Bool("clean"))
	assert.Equal(t, "branches", d.calls[2].op)
	assert.True(t, d.calls[2].params.Bool("closed"))
}

func TestNoRepositoryShowsStatus(t *testing.T) {
	m, d, _ := newTestModel(t)
	d.err = commands.ErrNoServer

	press(m, runes("d"))
	assert.Equal(t, "not a Mercurial repository", m.status[commands.StatusKey])
}

func TestMailboxIsDrainedInUpdate(t *testing.T) {
	m, _, mb := newTestModel(t)

	var order []int
	mb.Post(func() { order = append(order, 1) })
	mb.Post(func() { order = append(order, 2) })

	_, cmd := m.Update(mailboxMsg{})
	assert.Equal(t, []int{1, 2}, order)
	assert.NotNil(t, cmd)
}

func TestDiscoveredRepositoryBecomesTarget(t *testing.T) {
	m, d, _ := newTestModel(t)

	press(m,
		EventMsg{Event: eventbus.RepoDiscoveredEvent{Repo: domain.Repository{Path: "/src/b", Name: "b"}}},
		EventMsg{Event: eventbus.RepoDiscoveredEvent{Repo: domain.Repository{Path: "/src/a", Name: "a"}}},
	)

	require.Len(t, d.activated, 1)
	assert.Equal(t, "/src/b", d.activated[0].Folder)
	assert.Equal(t, "/src/b", m.dir())

	press(m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "/src/a", m.dir())
	require.Len(t, d.activated, 2)
}

func TestCommandEventsDriveSpinner(t *testing.T) {
	m, _, _ := newTestModel(t)

	_, cmd := m.Update(EventMsg{Event: eventbus.CommandStartedEvent{Command: "pull"}})
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "1 running")

	m.Update(EventMsg{Event: eventbus.CommandFinishedEvent{Command: "pull"}})
	assert.Equal(t, 0, m.running)
}

func TestFinishOvertakingStartLeavesNothingRunning(t *testing.T) {
	m, _, _ := newTestModel(t)

	press(m,
		EventMsg{Event: eventbus.CommandFinishedEvent{ID: "1", Command: "pull"}},
		EventMsg{Event: eventbus.CommandStartedEvent{ID: "2", Command: "status"}},
		EventMsg{Event: eventbus.CommandStartedEvent{ID: "1", Command: "pull"}},
	)
	assert.Equal(t, 1, m.running)

	press(m, EventMsg{Event: eventbus.CommandFinishedEvent{ID: "2", Command: "status"}})
	assert.Equal(t, 0, m.running)
	assert.Empty(t, m.inflight)
	assert.NotContains(t, m.View(), "running")
}

func TestManualListsEveryOperation(t *testing.T) {
	manual := Manual()
	for _, name := range commands.Names() {
		if name == "branch_status" {
			continue
		}
		assert.Contains(t, manual, "| "+name+" |")
	}
}

func TestFilterNarrowsRepositoriesAndMovesSelection(t *testing.T) {
	m, d, _ := newTestModel(t)

	press(m,
		EventMsg{Event: eventbus.RepoDiscoveredEvent{Repo: domain.Repository{Path: "/src/api", Name: "api"}}},
		EventMsg{Event: eventbus.RepoDiscoveredEvent{Repo: domain.Repository{Path: "/src/web", Name: "web"}}},
	)
	require.Equal(t, "/src/api", m.dir())

	press(m, runes("/"), runes("we"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "we", m.filter)
	assert.Equal(t, "/src/web", m.dir())
	assert.Len(t, m.visibleRepos(), 1)
	assert.Equal(t, "/src/web", d.activated[len(d.activated)-1].Folder)
}

func TestMatchesFilter(t *testing.T) {
	r := domain.Repository{Path: "/home/dev/Projects/hggrip", Name: "hggrip"}

	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"GRIP", true},
		{"projects", true},
		{"path:dev/projects", true},
		{"path:nothing", false},
		{"other", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, matchesFilter(r, tt.query))
		})
	}
}
