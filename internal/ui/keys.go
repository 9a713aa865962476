package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"hggrip/internal/commands"
)

// opBinding runs a dispatcher operation when its key is pressed
type opBinding struct {
	key    key.Binding
	op     string
	params commands.Params
}

func op(keys, help, name string, params commands.Params) opBinding {
	return opBinding{
		key:    key.NewBinding(key.WithKeys(keys), key.WithHelp(keys, help)),
		op:     name,
		params: params,
	}
}

// operationKeys lists every operation reachable from the keyboard.
// "branches" reads the closed flag from the model.
var operationKeys = []opBinding{
	op("s", "status", "status", nil),
	op("d", "diff", "diff", nil),
	op("i", "incoming", "incoming", nil),
	op("o", "outgoing", "outgoing", nil),
	op("l", "branches", "branches", nil),
	op("p", "pull", "pull", nil),
	op("ctrl+p", "pull + update", "pull", commands.Params{"update": true}),
	op("alt+p", "pull --rebase", "pull", commands.Params{"rebase": true}),
	op("P", "push", "push", nil),
	op("N", "push new branch", "push", commands.Params{"newbranch": true}),
	op("u", "update", "update", nil),
	op("ctrl+u", "update --clean", "update", commands.Params{"clean": true}),
	op("U", "update to branch", "update_branch", nil),
	op("alt+u", "update to any branch", "update_branch", commands.Params{"closed": true}),
	op("m", "merge", "merge", nil),
	op("M", "merge branch", "merge_branch", nil),
	op("a", "addremove", "addremove", nil),
	op("b", "branch", "branch", nil),
	op("B", "branch --clean", "branch_clean", nil),
	op("c", "commit", "commit", nil),
	op("C", "commit, close branch", "commit", commands.Params{"close_branch": true}),
	op("r", "resolve all", "resolve_all", nil),
	op("R", "rebase --continue", "rebase", commands.Params{"continue_rebase": true}),
	op("ctrl+r", "rebase --abort", "rebase", commands.Params{"abort_rebase": true}),
}

type keyMap struct {
	Up          key.Binding
	Down        key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	NextTab     key.Binding
	PrevTab     key.Binding
	CloseTab    key.Binding
	Repos       key.Binding
	Filter      key.Binding
	Pager       key.Binding
	PanelPager  key.Binding
	TogglePanel key.Binding
	Refresh     key.Binding
	Closed      key.Binding
	Help        key.Binding
	Manual      key.Binding
	Quit        key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		PageUp:      key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown", " "), key.WithHelp("pgdn", "page down")),
		NextTab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next buffer")),
		PrevTab:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous buffer")),
		CloseTab:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "close buffer")),
		Repos:       key.NewBinding(key.WithKeys("0"), key.WithHelp("0", "repositories")),
		Filter:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter repositories")),
		Pager:       key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "view in pager")),
		PanelPager:  key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "output in pager")),
		TogglePanel: key.NewBinding(key.WithKeys("`"), key.WithHelp("`", "toggle output")),
		Refresh:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "refresh branch status")),
		Closed:      key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "toggle closed branches")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
		Manual:      key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "manual")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		operationKeys[0].key, operationKeys[1].key, operationKeys[5].key,
		operationKeys[19].key, k.NextTab, k.Help, k.Quit,
	}
}

func (k keyMap) FullHelp() [][]key.Binding {
	var ops []key.Binding
	for _, b := range operationKeys {
		ops = append(ops, b.key)
	}
	half := (len(ops) + 1) / 2
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown, k.NextTab, k.PrevTab, k.CloseTab, k.Repos, k.Filter},
		ops[:half],
		ops[half:],
		{k.Pager, k.PanelPager, k.TogglePanel, k.Refresh, k.Closed, k.Manual, k.Help, k.Quit},
	}
}
