package ui

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hggrip/internal/commands"
	"hggrip/internal/domain"
	"hggrip/internal/eventbus"
	"hggrip/internal/executor"
	"hggrip/internal/logger"
	"hggrip/internal/repo"
	"hggrip/internal/ui/input/modes"
	"hggrip/internal/ui/views"
)

// defaultPanelHeight is the number of output lines shown when unset
const defaultPanelHeight = 8

// Dispatcher is what the UI needs from commands.Dispatcher
type Dispatcher interface {
	Dispatch(name string, t commands.Target, p commands.Params) error
	OnActivated(t commands.Target)
	OnPostSave(t commands.Target)
	OnViewClosed(title, text string) bool
}

// Options configures a Model
type Options struct {
	// Dir is used as the target until a repository is selected
	Dir                string
	PanelHeight        int
	ShowClosedBranches bool
	// MarkdownStyle is passed to glamour; empty picks one from the terminal
	MarkdownStyle string
}

type scratch struct {
	title  string
	text   string
	syntax string
}

// Model is the terminal UI. It implements commands.Renderer; every method
// runs on the bubbletea goroutine.
type Model struct {
	d       Dispatcher
	mailbox *executor.Mailbox
	styles  *views.Styles
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	opts    Options

	repos    []domain.Repository
	selected string // path of the target repository
	filter   string

	panel        viewport.Model
	panelText    strings.Builder
	panelVisible bool

	scratches []scratch
	active    int // -1 shows the repository list
	body      viewport.Model

	status   map[string]string
	modes    []modes.Mode
	// commands by id: true while running, false when the finish event
	// overtook the start event on the bus
	inflight map[string]bool
	running  int
	scanning bool

	width    int
	height   int
	quitting bool
}

var _ commands.Renderer = (*Model)(nil)

// NewModel creates the UI. Executor callbacks posted to mb run inside Update.
func NewModel(mb *executor.Mailbox, opts Options) *Model {
	if opts.PanelHeight <= 0 {
		opts.PanelHeight = defaultPanelHeight
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		mailbox:  mb,
		styles:   views.NewStyles(),
		keys:     defaultKeyMap(),
		help:     help.New(),
		spinner:  sp,
		opts:     opts,
		panel:    viewport.New(80, opts.PanelHeight),
		body:     viewport.New(80, 20),
		active:   -1,
		status:   make(map[string]string),
		inflight: make(map[string]bool),
		scanning: true,
		width:    80,
		height:   24,
	}
	m.spinner.Style = m.styles.Busy
	return m
}

// SetDispatcher connects the model to the operations it triggers
func (m *Model) SetDispatcher(d Dispatcher) {
	m.d = d
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		waitMailbox(m.mailbox),
		func() tea.Msg { return activateMsg{} },
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.panel.Width = msg.Width
		m.body.Width = msg.Width
		return m, nil

	case mailboxMsg:
		m.mailbox.Drain()
		return m, waitMailbox(m.mailbox)

	case activateMsg:
		m.activate()
		return m, nil

	case EventMsg:
		return m, m.handleEvent(msg.Event)

	case spinner.TickMsg:
		if m.running == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pagerDoneMsg:
		if msg.err != nil {
			logger.Warnf("pager: %v", msg.err)
			m.Panel(fmt.Sprintf("pager failed: %v\n", msg.err), false)
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleEvent(e eventbus.DomainEvent) tea.Cmd {
	switch e := e.(type) {
	case eventbus.CommandStartedEvent:
		if _, finished := m.inflight[e.ID]; finished {
			delete(m.inflight, e.ID)
			return nil
		}
		m.inflight[e.ID] = true
		m.running++
		if m.running == 1 {
			return m.spinner.Tick
		}
	case eventbus.CommandFinishedEvent:
		if m.inflight[e.ID] {
			delete(m.inflight, e.ID)
			m.running--
		} else {
			m.inflight[e.ID] = false
		}
	case eventbus.SummaryInvalidatedEvent:
		if root, ok := repo.FindRoot(m.dir()); ok && root == e.Root {
			m.activate()
		}
	case eventbus.FileSavedEvent:
		root, ok := repo.FindRoot(e.Path)
		if current, ok2 := repo.FindRoot(m.dir()); m.d != nil && ok && ok2 && root == current {
			m.d.OnPostSave(commands.Target{File: e.Path})
		}
	case eventbus.RepoDiscoveredEvent:
		m.addRepo(e.Repo)
	case eventbus.ScanCompletedEvent:
		m.scanning = false
	case eventbus.ErrorEvent:
		m.Panel(e.Message+"\n", false)
	}
	return nil
}

func (m *Model) addRepo(r domain.Repository) {
	if slices.ContainsFunc(m.repos, func(x domain.Repository) bool { return x.Path == r.Path }) {
		return
	}
	m.repos = append(m.repos, r)
	sort.Slice(m.repos, func(i, j int) bool { return m.repos[i].Path < m.repos[j].Path })
	// the first repository found becomes the target
	if m.selected == "" && matchesFilter(r, m.filter) {
		m.selected = r.Path
		m.activate()
	}
}

// visibleRepos returns the repositories matching the filter
func (m *Model) visibleRepos() []domain.Repository {
	return filterRepos(m.repos, m.filter)
}

func (m *Model) cursor(visible []domain.Repository) int {
	return slices.IndexFunc(visible, func(x domain.Repository) bool { return x.Path == m.selected })
}

func (m *Model) selectRepo(path string) {
	if path != m.selected {
		m.selected = path
		m.activate()
	}
}

// setFilter narrows the repository list, moving the selection onto it when
// the selected repository is filtered out
func (m *Model) setFilter(query string) {
	m.filter = query
	visible := m.visibleRepos()
	if len(visible) > 0 && m.cursor(visible) < 0 {
		m.selectRepo(visible[0].Path)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	if len(m.modes) > 0 {
		front := m.modes[0]
		finished, cmd := front.HandleKey(msg)
		if finished {
			m.popMode(front)
		}
		return cmd
	}

	for _, ob := range operationKeys {
		if key.Matches(msg, ob.key) {
			m.run(ob.op, ob.params)
			return nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.PageUp):
		m.body.ViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.body.ViewDown()
	case key.Matches(msg, m.keys.NextTab):
		m.cycle(1)
	case key.Matches(msg, m.keys.PrevTab):
		m.cycle(-1)
	case key.Matches(msg, m.keys.CloseTab):
		m.closeScratch()
	case key.Matches(msg, m.keys.Repos):
		m.active = -1
	case key.Matches(msg, m.keys.Filter):
		m.active = -1
		m.pushMode(modes.NewInputMode("Filter repositories:", m.filter, func(text string, ok bool) {
			if ok {
				m.setFilter(text)
			}
		}))
	case key.Matches(msg, m.keys.Pager):
		if m.active >= 0 {
			return openPager(m.scratches[m.active].text)
		}
	case key.Matches(msg, m.keys.PanelPager):
		return openPager(m.panelText.String())
	case key.Matches(msg, m.keys.TogglePanel):
		m.panelVisible = !m.panelVisible
	case key.Matches(msg, m.keys.Refresh):
		m.run("branch_status", commands.Params{"force": true})
	case key.Matches(msg, m.keys.Closed):
		m.opts.ShowClosedBranches = !m.opts.ShowClosedBranches
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Manual):
		return openPager(RenderMarkdown(Manual(), m.width, m.opts.MarkdownStyle))
	}
	return nil
}

// run dispatches op against the selected repository
func (m *Model) run(op string, params commands.Params) {
	if m.d == nil {
		return
	}
	if op == "branches" {
		params = commands.Params{"closed": m.opts.ShowClosedBranches}
	}
	err := m.d.Dispatch(op, m.target(), params)
	if errors.Is(err, commands.ErrNoServer) {
		m.SetStatus(commands.StatusKey, "not a Mercurial repository")
		return
	}
	if err != nil {
		logger.Debugf("%s: %v", op, err)
	}
}

func (m *Model) quit() tea.Cmd {
	// answer everything still waiting so no command stays blocked on a prompt
	for len(m.modes) > 0 {
		front := m.modes[0]
		m.modes = m.modes[1:]
		front.Cancel()
	}
	m.quitting = true
	return tea.Quit
}

func (m *Model) pushMode(md modes.Mode) {
	m.modes = append(m.modes, md)
}

func (m *Model) popMode(md modes.Mode) {
	if i := slices.Index(m.modes, md); i >= 0 {
		m.modes = slices.Delete(m.modes, i, i+1)
	}
}

func (m *Model) move(delta int) {
	if m.active >= 0 {
		if delta < 0 {
			m.body.LineUp(1)
		} else {
			m.body.LineDown(1)
		}
		return
	}
	visible := m.visibleRepos()
	if len(visible) == 0 {
		return
	}
	next := min(max(m.cursor(visible)+delta, 0), len(visible)-1)
	m.selectRepo(visible[next].Path)
}

// cycle walks the repository list and the open buffers
func (m *Model) cycle(delta int) {
	n := len(m.scratches) + 1
	m.active = (m.active+1+delta+n)%n - 1
	m.showActive()
}

func (m *Model) closeScratch() {
	if m.active < 0 {
		return
	}
	m.scratches = slices.Delete(m.scratches, m.active, m.active+1)
	if m.active >= len(m.scratches) {
		m.active = len(m.scratches) - 1
	}
	m.showActive()
}

func (m *Model) showActive() {
	if m.active < 0 {
		return
	}
	s := m.scratches[m.active]
	text := s.text
	if s.syntax == commands.SyntaxDiff {
		text = m.styles.HighlightDiff(text)
	}
	m.body.SetContent(text)
	m.body.GotoTop()
}

// dir is the directory commands run against
func (m *Model) dir() string {
	if m.selected != "" {
		return m.selected
	}
	return m.opts.Dir
}

func (m *Model) target() commands.Target {
	dir := m.dir()
	return commands.Target{File: dir, Folder: dir}
}

func (m *Model) activate() {
	if m.d == nil {
		return
	}
	m.EraseStatus(commands.StatusKey)
	m.d.OnActivated(m.target())
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	header := m.headerView()
	footer := m.help.View(m.keys)

	if ed, ok := m.frontEditor(); ok {
		ed.SetSize(m.width, m.height-lipgloss.Height(header)-lipgloss.Height(footer))
		return lipgloss.JoinVertical(lipgloss.Left, header, ed.View(m.styles, m.width), footer)
	}

	var bottom string
	switch {
	case len(m.modes) > 0:
		bottom = m.modes[0].View(m.styles, m.width)
	case m.panelVisible:
		m.panel.Height = m.opts.PanelHeight
		bottom = m.styles.Panel.Width(m.width).Render(m.panel.View())
	}

	bodyHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if bottom != "" {
		bodyHeight -= lipgloss.Height(bottom)
	}
	sections := []string{header, m.bodyView(max(bodyHeight, 1))}
	if bottom != "" {
		sections = append(sections, bottom)
	}
	sections = append(sections, footer)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) frontEditor() (*modes.EditorMode, bool) {
	if len(m.modes) == 0 {
		return nil, false
	}
	ed, ok := m.modes[0].(*modes.EditorMode)
	return ed, ok
}

func (m *Model) headerView() string {
	parts := []string{m.styles.Title.Render("hggrip")}
	if dir := m.dir(); dir != "" {
		parts = append(parts, filepath.Base(dir))
	}

	keys := make([]string, 0, len(m.status))
	for k := range m.status {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, m.styles.StatusBar.Render(m.status[k]))
	}

	if m.running > 0 {
		parts = append(parts, m.spinner.View()+m.styles.Busy.Render(fmt.Sprintf("%d running", m.running)))
	}
	if m.scanning {
		parts = append(parts, m.styles.Dim.Render("scanning…"))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) bodyView(height int) string {
	tabs := m.tabsView()
	if m.active >= 0 {
		m.body.Height = max(height-1, 1)
		return tabs + "\n" + m.body.View()
	}
	return tabs + "\n" + m.reposView(max(height-1, 1))
}

func (m *Model) tabsView() string {
	render := func(i int, title string) string {
		if i == m.active {
			return m.styles.ActiveTab.Render(title)
		}
		return m.styles.Tab.Render(title)
	}
	tabs := []string{render(-1, "Repositories")}
	for i, s := range m.scratches {
		tabs = append(tabs, render(i, s.title))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) reposView(height int) string {
	visible := m.visibleRepos()
	if len(visible) == 0 && m.filter != "" {
		return m.styles.Dim.Render("No repositories match " + m.filter)
	}
	if len(visible) == 0 {
		if m.scanning {
			return m.styles.Dim.Render("Looking for repositories under " + m.opts.Dir)
		}
		return m.styles.Dim.Render("No repositories found under " + m.opts.Dir)
	}

	cursor := m.cursor(visible)
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := min(start+height, len(visible))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		r := visible[i]
		line := fmt.Sprintf("%-24s %s", r.Name, m.styles.Dim.Render(r.Path))
		if i == cursor {
			line = m.styles.SelectionBg.Render(m.styles.Highlight.Render("> ") + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
