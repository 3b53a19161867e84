package sound

import (
	"fmt"
	"log/slog"
	"sync"

	"hsound.dev/internal/line"
)

// Listener observes the line lifecycle of a logical sound. Callbacks run on
// whichever goroutine saw the transition and must not block.
type Listener interface {
	OnOpen(id string)
	OnStart(id string)
	OnStop(id string)
	OnClose(id string)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Open  func(id string)
	Start func(id string)
	Stop  func(id string)
	Close func(id string)
}

func (f ListenerFuncs) OnOpen(id string) {
	if f.Open != nil {
		f.Open(id)
	}
}

func (f ListenerFuncs) OnStart(id string) {
	if f.Start != nil {
		f.Start(id)
	}
}

func (f ListenerFuncs) OnStop(id string) {
	if f.Stop != nil {
		f.Stop(id)
	}
}

func (f ListenerFuncs) OnClose(id string) {
	if f.Close != nil {
		f.Close(id)
	}
}

// EventKind tags a lifecycle transition
type EventKind int

const (
	Opened EventKind = iota + 1
	Started
	Stopped
	Closed
)

func (k EventKind) String() string {
	switch k {
	case Opened:
		return "opened"
	case Started:
		return "started"
	case Stopped:
		return "stopped"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is what subscribers receive
type Event struct {
	Kind  EventKind
	Sound string
}

func kindOf(t line.EventType) (EventKind, bool) {
	switch t {
	case line.EventOpen:
		return Opened, true
	case line.EventStart:
		return Started, true
	case line.EventStop:
		return Stopped, true
	case line.EventClose:
		return Closed, true
	}
	return 0, false
}

// notifier fans lifecycle transitions of one logical sound out to listeners
// and channel subscribers
type notifier struct {
	id string

	mutex     sync.Mutex
	listeners []Listener
	subs      []chan Event
	dropped   int
}

func newNotifier(id string, listeners []Listener) *notifier {
	n := &notifier{id: id}
	for _, l := range listeners {
		n.add(l)
	}
	return n
}

func (n *notifier) add(l Listener) {
	if l == nil {
		return
	}
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.listeners = append(n.listeners, l)
}

func (n *notifier) subscribe(buffer int) <-chan Event {
	ch := make(chan Event, max(buffer, 0))
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.subs = append(n.subs, ch)
	return ch
}

func (n *notifier) unsubscribe(ch <-chan Event) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	for i, sub := range n.subs {
		if sub == ch {
			n.subs = append(n.subs[:i], n.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// publish delivers synchronously to listeners. Subscribers that are not
// ready miss the event.
func (n *notifier) publish(kind EventKind) {
	n.mutex.Lock()
	listeners := make([]Listener, len(n.listeners))
	copy(listeners, n.listeners)
	event := Event{Kind: kind, Sound: n.id}
	for _, ch := range n.subs {
		select {
		case ch <- event:
		default:
			n.dropped++
		}
	}
	n.mutex.Unlock()

	for _, l := range listeners {
		switch kind {
		case Opened:
			l.OnOpen(n.id)
		case Started:
			l.OnStart(n.id)
		case Stopped:
			l.OnStop(n.id)
		case Closed:
			l.OnClose(n.id)
		}
	}
}

// forward translates a line event and publishes it
func (n *notifier) forward(e line.Event) {
	kind, ok := kindOf(e.Type)
	if !ok {
		slog.Debug("ignoring unknown line event", "sound", n.id, "type", e.Type.String())
		return
	}
	n.publish(kind)
}

func (n *notifier) droppedEvents() int {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return n.dropped
}

func (n *notifier) closeSubscriptions() {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	for _, ch := range n.subs {
		close(ch)
	}
	n.subs = nil
}
