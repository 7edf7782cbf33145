package network

import "fmt"

type EventKind int

const (
	ProcessorAdded EventKind = iota + 1
	ProcessorRemoved
	PortAdded
	PortRemoved
	ConnectionAdded
	ConnectionRemoved
	LinkAdded
	LinkRemoved
	IdentifierChanged
	InvalidationBegin
	InvalidationEnd
	EvaluateRequested
	// NetworkChanged follows the buffered events flushed by the final Unlock.
	NetworkChanged
)

var eventKindNames = map[EventKind]string{
	ProcessorAdded:    "ProcessorAdded",
	ProcessorRemoved:  "ProcessorRemoved",
	PortAdded:         "PortAdded",
	PortRemoved:       "PortRemoved",
	ConnectionAdded:   "ConnectionAdded",
	ConnectionRemoved: "ConnectionRemoved",
	LinkAdded:         "LinkAdded",
	LinkRemoved:       "LinkRemoved",
	IdentifierChanged: "IdentifierChanged",
	InvalidationBegin: "InvalidationBegin",
	InvalidationEnd:   "InvalidationEnd",
	EvaluateRequested: "EvaluateRequested",
	NetworkChanged:    "NetworkChanged",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// buffered reports whether events of this kind are held back while the
// network is locked.
func (k EventKind) buffered() bool {
	return k != InvalidationBegin && k != InvalidationEnd
}

// Event describes a change of the network. Only the fields relevant to Kind
// are set.
type Event struct {
	Kind       EventKind
	Processor  Processor
	Port       Port
	Connection Connection
	Link       PropertyLink
	// Property is the modified property of an invalidation, if any.
	Property Property
	// OldIdentifier is set for IdentifierChanged.
	OldIdentifier string
}

func (e Event) String() string {
	switch {
	case e.Kind == ConnectionAdded || e.Kind == ConnectionRemoved:
		return fmt.Sprintf("%s %s", e.Kind, e.Connection)
	case e.Kind == LinkAdded || e.Kind == LinkRemoved:
		return fmt.Sprintf("%s %s", e.Kind, e.Link)
	case e.Port != nil:
		return fmt.Sprintf("%s %s", e.Kind, e.Port.base())
	case e.Processor != nil:
		return fmt.Sprintf("%s %s", e.Kind, e.Processor.AsProcessor().identifier)
	default:
		return e.Kind.String()
	}
}

// Observer receives network events.
type Observer interface {
	OnNetworkEvent(ev Event)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(ev Event)

func (f ObserverFunc) OnNetworkEvent(ev Event) { f(ev) }

type observerEntry struct {
	id int
	o  Observer
}

// AddObserver registers o and returns a function removing it. Observers are
// called in registration order.
func (n *ProcessorNetwork) AddObserver(o Observer) (remove func()) {
	n.nextObserver++
	id := n.nextObserver
	n.observers = append(n.observers, observerEntry{id: id, o: o})
	return func() {
		for i, e := range n.observers {
			if e.id == id {
				n.observers = append(n.observers[:i:i], n.observers[i+1:]...)
				return
			}
		}
	}
}

func (n *ProcessorNetwork) notify(ev Event) {
	if n.locked > 0 && ev.Kind.buffered() {
		n.pending = append(n.pending, ev)
		return
	}
	n.deliver(ev)
}

func (n *ProcessorNetwork) deliver(ev Event) {
	// Observers may add or remove observers while being notified.
	for _, e := range append([]observerEntry(nil), n.observers...) {
		n.deliverTo(e.o, ev)
	}
}

func (n *ProcessorNetwork) deliverTo(o Observer, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Error("observer panicked", "event", ev.String(), "panic", r)
		}
	}()
	o.OnNetworkEvent(ev)
}
