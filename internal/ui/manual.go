package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
)

// Manual renders the key reference as markdown
func Manual() string {
	var b strings.Builder
	b.WriteString("# hggrip\n\n")
	b.WriteString("Mercurial front-end. Commands run one at a time through a command server per repository.\n\n")
	b.WriteString("## Operations\n\n| Key | Action | Operation |\n|---|---|---|\n")
	for _, ob := range operationKeys {
		h := ob.key.Help()
		fmt.Fprintf(&b, "| `%s` | %s | %s |\n", h.Key, h.Desc, ob.op)
	}
	b.WriteString("\n## Navigation\n\n| Key | Action |\n|---|---|\n")
	k := defaultKeyMap()
	for _, kb := range []key.Binding{
		k.Up, k.Down, k.PageUp, k.PageDown, k.NextTab, k.PrevTab, k.CloseTab, k.Repos, k.Filter,
		k.Pager, k.PanelPager, k.TogglePanel, k.Refresh, k.Closed, k.Manual, k.Help, k.Quit,
	} {
		h := kb.Help()
		fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
	}
	b.WriteString("\n## Commit editor\n\n")
	b.WriteString("Write the message above the marker line. Closing the editor with `esc` or `ctrl+s` commits; ")
	b.WriteString("an empty message aborts.\n\n")
	b.WriteString("## Prompts\n\n")
	b.WriteString("Questions from Mercurial are answered with `y` or `n`. `esc` sends an empty answer so the default is taken.\n")
	return b.String()
}

// RenderMarkdown renders md for a terminal of the given width, falling back
// to the raw text if glamour fails
func RenderMarkdown(md string, width int, style string) string {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(max(width-4, 40))}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
