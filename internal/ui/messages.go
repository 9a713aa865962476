package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"hggrip/internal/eventbus"
	"hggrip/internal/executor"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// mailboxMsg means executor callbacks are waiting to run on the UI goroutine
type mailboxMsg struct{}

// activateMsg refreshes the branch status of the selected repository
type activateMsg struct{}

// pagerDoneMsg is sent when the external pager returns
type pagerDoneMsg struct {
	err error
}

// waitMailbox blocks until something is posted to mb
func waitMailbox(mb *executor.Mailbox) tea.Cmd {
	return func() tea.Msg {
		<-mb.Ready()
		return mailboxMsg{}
	}
}

// Forward delivers the bus events the UI cares about to p
func Forward(bus eventbus.EventBus, p *tea.Program) (unsubscribe func()) {
	types := []eventbus.EventType{
		eventbus.EventCommandStarted,
		eventbus.EventCommandFinished,
		eventbus.EventSummaryInvalidated,
		eventbus.EventRepoDiscovered,
		eventbus.EventScanCompleted,
		eventbus.EventFileSaved,
		eventbus.EventError,
	}
	unsubs := make([]func(), 0, len(types))
	for _, t := range types {
		unsubs = append(unsubs, bus.Subscribe(t, func(e eventbus.DomainEvent) {
			p.Send(EventMsg{Event: e})
		}))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
