package domain

import "time"

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventCommandQueued      EventType = "CommandQueued"
	EventCommandStarted     EventType = "CommandStarted"
	EventCommandFinished    EventType = "CommandFinished"
	EventSummaryInvalidated EventType = "SummaryInvalidated"
	EventConnectionOpened   EventType = "ConnectionOpened"
	EventConnectionClosed   EventType = "ConnectionClosed"
	EventRepoDiscovered     EventType = "RepoDiscovered"
	EventScanStarted        EventType = "ScanStarted"
	EventScanCompleted      EventType = "ScanCompleted"
	EventFileSaved          EventType = "FileSaved"
	EventError              EventType = "Error"
	EventConfigLoaded       EventType = "ConfigLoaded"
	EventConfigSaved        EventType = "ConfigSaved"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// CommandQueuedEvent is emitted when a command is waiting for the command lock
type CommandQueuedEvent struct {
	ID      string
	Root    string
	Command string
}

func (e CommandQueuedEvent) Type() EventType { return EventCommandQueued }

// CommandStartedEvent is emitted once a command holds the command lock
type CommandStartedEvent struct {
	ID      string
	Root    string
	Command string
	Args    []string
}

func (e CommandStartedEvent) Type() EventType { return EventCommandStarted }

// CommandFinishedEvent is emitted after the command lock is released
type CommandFinishedEvent struct {
	ID       string
	Root     string
	Command  string
	Success  bool
	Error    string
	Duration time.Duration
}

func (e CommandFinishedEvent) Type() EventType { return EventCommandFinished }

// SummaryInvalidatedEvent is emitted when a mutating command drops the cached summary
type SummaryInvalidatedEvent struct {
	Root    string
	Command string
}

func (e SummaryInvalidatedEvent) Type() EventType { return EventSummaryInvalidated }

// ConnectionOpenedEvent is emitted when a command server session starts for a root
type ConnectionOpenedEvent struct {
	Root     string
	Encoding string
}

func (e ConnectionOpenedEvent) Type() EventType { return EventConnectionOpened }

// ConnectionClosedEvent is emitted when a session is closed
type ConnectionClosedEvent struct {
	Root string
	Err  error
}

func (e ConnectionClosedEvent) Type() EventType { return EventConnectionClosed }

// RepoDiscoveredEvent is emitted when a repository is found during a scan
type RepoDiscoveredEvent struct {
	Repo Repository
}

func (e RepoDiscoveredEvent) Type() EventType { return EventRepoDiscovered }

// ScanStartedEvent is emitted when repository scanning begins
type ScanStartedEvent struct {
	Paths []string
}

func (e ScanStartedEvent) Type() EventType { return EventScanStarted }

// ScanCompletedEvent is emitted when repository scanning completes
type ScanCompletedEvent struct {
	ReposFound int
}

func (e ScanCompletedEvent) Type() EventType { return EventScanCompleted }

// FileSavedEvent is emitted by the watcher when a file inside a repository is written
type FileSavedEvent struct {
	Path string
}

func (e FileSavedEvent) Type() EventType { return EventFileSaved }

// ErrorEvent is emitted when an error occurs outside of a command
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }

// ConfigLoadedEvent is emitted when configuration is loaded
type ConfigLoadedEvent struct {
	Path string
}

func (e ConfigLoadedEvent) Type() EventType { return EventConfigLoaded }

// ConfigSavedEvent is emitted when configuration is saved
type ConfigSavedEvent struct {
	Path string
}

func (e ConfigSavedEvent) Type() EventType { return EventConfigSaved }
