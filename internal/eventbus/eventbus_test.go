package eventbus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan DomainEvent) DomainEvent {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
		return nil
	}
}

func TestPublishReachesSubscribersOfThatType(t *testing.T) {
	b := New()
	defer b.Close()

	started := make(chan DomainEvent, 1)
	saved := make(chan DomainEvent, 1)
	b.Subscribe(EventCommandStarted, func(e DomainEvent) { started <- e })
	b.Subscribe(EventFileSaved, func(e DomainEvent) { saved <- e })

	b.Publish(CommandStartedEvent{Root: "/src/a", Command: "pull"})

	e := receive(t, started)
	assert.Equal(t, "pull", e.(CommandStartedEvent).Command)
	select {
	case <-saved:
		t.Fatal("FileSaved subscriber received a CommandStarted event")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	defer b.Close()

	first := make(chan DomainEvent, 2)
	second := make(chan DomainEvent, 2)
	unsubscribe := b.Subscribe(EventFileSaved, func(e DomainEvent) { first <- e })
	b.Subscribe(EventFileSaved, func(e DomainEvent) { second <- e })

	unsubscribe()
	b.Publish(FileSavedEvent{Path: "a.txt"})

	receive(t, second)
	select {
	case <-first:
		t.Fatal("unsubscribed handler was called")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHandlerPanicDoesNotStopBus(t *testing.T) {
	b := New()
	defer b.Close()

	got := make(chan DomainEvent, 2)
	b.Subscribe(EventError, func(DomainEvent) { panic("boom") })
	b.Subscribe(EventError, func(e DomainEvent) { got <- e })

	b.Publish(ErrorEvent{Message: "first"})
	b.Publish(ErrorEvent{Message: "second"})

	messages := []string{
		receive(t, got).(ErrorEvent).Message,
		receive(t, got).(ErrorEvent).Message,
	}
	assert.ElementsMatch(t, []string{"first", "second"}, messages)
}

func TestPublishAfterCloseIsIgnored(t *testing.T) {
	b := New()
	called := make(chan DomainEvent, 1)
	b.Subscribe(EventScanCompleted, func(e DomainEvent) { called <- e })

	b.Close()
	b.Close()
	require.NotPanics(t, func() { b.Publish(ScanCompletedEvent{ReposFound: 1}) })

	select {
	case <-called:
		t.Fatal("handler called after Close")
	case <-time.After(100 * time.Millisecond):
	}
}
