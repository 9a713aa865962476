package ui

import (
	"slices"

	"hggrip/internal/ui/input/modes"
)

func (m *Model) Panel(text string, clear bool) {
	if clear {
		m.panelText.Reset()
	}
	m.panelText.WriteString(text)
	m.panel.SetContent(m.panelText.String())
	m.panel.GotoBottom()
	m.panelVisible = true
}

func (m *Model) ShowPanel() {
	m.panelVisible = true
}

// PanelText returns everything written to the output panel since it was last cleared
func (m *Model) PanelText() string {
	return m.panelText.String()
}

func (m *Model) Scratch(text, title, syntax string) {
	i := slices.IndexFunc(m.scratches, func(s scratch) bool { return s.title == title })
	if i < 0 {
		m.scratches = append(m.scratches, scratch{title: title})
		i = len(m.scratches) - 1
	}
	m.scratches[i].text = text
	m.scratches[i].syntax = syntax
	m.active = i
	m.showActive()
}

func (m *Model) SetStatus(key, text string) {
	m.status[key] = text
}

func (m *Model) EraseStatus(key string) {
	delete(m.status, key)
}

func (m *Model) QuickPanel(items []string, done func(index int)) {
	m.pushMode(modes.NewQuickPickMode(items, done))
}

func (m *Model) InputPanel(prompt, initial string, done func(text string, ok bool)) {
	m.pushMode(modes.NewInputMode(prompt, initial, done))
}

func (m *Model) Confirm(question string, done func(yes bool)) {
	m.pushMode(modes.NewConfirmMode(question, done))
}

func (m *Model) PromptDialog(question string, done func(answer []byte)) {
	m.pushMode(modes.NewPromptMode(question, done))
}

func (m *Model) OpenEditor(title, text string) {
	m.pushMode(modes.NewEditorMode(title, text, func(title, text string) {
		if m.d != nil {
			m.d.OnViewClosed(title, text)
		}
	}))
}
