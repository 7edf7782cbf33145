// Package network is the data model of a processor network: processors with
// typed inports and outports, connections from outports to inports, and
// links between processor properties.
//
// Changes invalidate processors downstream of the change; invalid sinks
// request evaluation through an EvaluateRequested event, which an evaluator
// subscribes to. The network is not safe for concurrent use.
package network

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/birdayz/procnet/traverse"
)

// Connection connects an outport to an inport.
type Connection struct {
	Outport Outport
	Inport  Inport
}

func (c Connection) String() string {
	if c.Outport == nil || c.Inport == nil {
		return "<nil connection>"
	}
	return fmt.Sprintf("%s -> %s", c.Outport.base(), c.Inport.base())
}

// ProcessorNetwork owns processors, their connections and property links.
type ProcessorNetwork struct {
	log     *slog.Logger
	ids     *IdentifierRegistry
	factory Factory

	processors  []Processor
	byID        map[string]Processor
	connections []Connection
	links       []PropertyLink

	observers    []observerEntry
	nextObserver int
	locked       int
	pending      []Event

	linking       bool
	deserializing bool
}

func New(opts ...Option) *ProcessorNetwork {
	n := &ProcessorNetwork{
		log:  NullLogger(),
		ids:  DefaultIdentifiers,
		byID: make(map[string]Processor),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// AddProcessor adds p under its identifier, or its display name if it has
// none, disambiguated with a numeric suffix. An invalid sink requests
// evaluation once added.
func (n *ProcessorNetwork) AddProcessor(p Processor) error {
	b := p.AsProcessor()
	if b.This == nil {
		return fmt.Errorf("%w: %T", ErrNotInitialized, p)
	}
	if b.net != nil {
		return fmt.Errorf("%w: %s", ErrProcessorExists, b.identifier)
	}
	id := b.identifier
	if id == "" {
		id = b.displayName
	}
	if id == "" {
		id = b.classID
	}
	if err := ValidateIdentifier(id, "processor", processorIdentifierExtra); err != nil {
		return err
	}

	b.identifier = n.ids.Reserve(id)
	b.net = n
	n.processors = append(n.processors, p)
	n.byID[b.identifier] = p
	n.notify(Event{Kind: ProcessorAdded, Processor: p})

	if b.IsSink() && !b.IsValid() {
		b.requestEvaluate()
	}
	return nil
}

// MustAddProcessor is AddProcessor panicking on error.
func (n *ProcessorNetwork) MustAddProcessor(p Processor) {
	if err := n.AddProcessor(p); err != nil {
		panic(err)
	}
}

// RemoveProcessor disconnects p, removes the links touching its properties,
// releases its identifier and calls its Destroy hook.
func (n *ProcessorNetwork) RemoveProcessor(p Processor) error {
	b := p.AsProcessor()
	if b.net != n {
		return fmt.Errorf("%w: %s", ErrProcessorNotFound, b.identifier)
	}

	for _, in := range b.inports {
		n.disconnectPort(in)
	}
	for _, out := range b.outports {
		n.disconnectPort(out)
	}
	for _, prop := range b.properties {
		n.removePropertyLinks(prop)
	}

	n.processors = slices.DeleteFunc(n.processors, func(q Processor) bool { return q == p })
	delete(n.byID, b.identifier)
	n.ids.Release(b.identifier)
	n.notify(Event{Kind: ProcessorRemoved, Processor: p})
	b.net = nil
	b.evaluateRequested = false

	if d, ok := p.(Destroyer); ok {
		d.Destroy()
	}
	return nil
}

// Processor looks up a processor by identifier.
func (n *ProcessorNetwork) Processor(id string) (Processor, bool) {
	p, ok := n.byID[id]
	return p, ok
}

// Processors returns the processors in insertion order.
func (n *ProcessorNetwork) Processors() []Processor {
	return slices.Clone(n.processors)
}

func (n *ProcessorNetwork) Len() int {
	return len(n.processors)
}

// Sinks returns the processors without outports, in insertion order.
func (n *ProcessorNetwork) Sinks() []Processor {
	var res []Processor
	for _, p := range n.processors {
		if p.AsProcessor().IsSink() {
			res = append(res, p)
		}
	}
	return res
}

// Sources returns the processors without inports, in insertion order.
func (n *ProcessorNetwork) Sources() []Processor {
	var res []Processor
	for _, p := range n.processors {
		if p.AsProcessor().IsSource() {
			res = append(res, p)
		}
	}
	return res
}

// RequestedSinks returns the processors with a pending evaluate request.
func (n *ProcessorNetwork) RequestedSinks() []Processor {
	var res []Processor
	for _, p := range n.processors {
		if p.AsProcessor().evaluateRequested {
			res = append(res, p)
		}
	}
	return res
}

// TopologicalSort orders all processors so that each comes after its
// predecessors. Ties keep insertion order.
func (n *ProcessorNetwork) TopologicalSort() ([]Processor, error) {
	return SortProcessors(n.processors)
}

// Outport resolves the endpoint processor.port to an outport.
func (n *ProcessorNetwork) Outport(processor, port string) (Outport, error) {
	p, ok := n.byID[processor]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProcessorNotFound, processor)
	}
	out, ok := p.AsProcessor().Outport(port)
	if !ok {
		return nil, fmt.Errorf("%w: outport %s.%s", ErrPortNotFound, processor, port)
	}
	return out, nil
}

// Inport resolves the endpoint processor.port to an inport.
func (n *ProcessorNetwork) Inport(processor, port string) (Inport, error) {
	p, ok := n.byID[processor]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProcessorNotFound, processor)
	}
	in, ok := p.AsProcessor().Inport(port)
	if !ok {
		return nil, fmt.Errorf("%w: inport %s.%s", ErrPortNotFound, processor, port)
	}
	return in, nil
}

// Connect connects out to in. Connecting an existing connection is a no-op.
// The connection is rejected if the ports do not belong to processors of
// this network, are incompatible, the inport is full or the connection
// would close a cycle.
func (n *ProcessorNetwork) Connect(out Outport, in Inport) error {
	src, dst := out.base().owner, in.base().owner
	if src == nil || src.net != n {
		return fmt.Errorf("%w: outport %s", ErrPortNotFound, out.base())
	}
	if dst == nil || dst.net != n {
		return fmt.Errorf("%w: inport %s", ErrPortNotFound, in.base())
	}
	if in.IsConnectedTo(out) {
		return nil
	}
	if !in.CanConnectTo(out) {
		return fmt.Errorf("%w: %s (%s) -> %s (%s)", ErrIncompatiblePorts, out.base(), out.ClassIdentifier(), in.base(), in.ClassIdentifier())
	}
	if in.inport().full() {
		return fmt.Errorf("%w: %s", ErrInportFull, in.base())
	}
	if src == dst || traverse.Reaches(Graph, dst.This, src.This, traverse.Down) {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, out.base(), in.base())
	}

	in.inport().connected = append(in.inport().connected, out)
	out.outport().connected = append(out.outport().connected, in)
	in.inport().changed = true
	c := Connection{Outport: out, Inport: in}
	n.connections = append(n.connections, c)
	n.notify(Event{Kind: ConnectionAdded, Connection: c, Processor: dst.This})

	dst.Invalidate(InvalidOutput, nil)
	return nil
}

// Disconnect removes the connection from out to in.
func (n *ProcessorNetwork) Disconnect(out Outport, in Inport) error {
	if !n.IsConnected(out, in) {
		return fmt.Errorf("%w: %s -> %s", ErrConnectionNotFound, out.base(), in.base())
	}
	n.disconnect(out, in)
	return nil
}

func (n *ProcessorNetwork) disconnect(out Outport, in Inport) {
	in.inport().connected = slices.DeleteFunc(in.inport().connected, func(o Outport) bool { return o == out })
	out.outport().connected = slices.DeleteFunc(out.outport().connected, func(i Inport) bool { return i == in })
	c := Connection{Outport: out, Inport: in}
	n.connections = slices.DeleteFunc(n.connections, func(x Connection) bool { return x == c })

	dst := in.base().owner
	in.inport().changed = true
	n.notify(Event{Kind: ConnectionRemoved, Connection: c, Processor: dst.This})
	dst.Invalidate(InvalidOutput, nil)
}

// disconnectPort removes every connection of port.
func (n *ProcessorNetwork) disconnectPort(port Port) {
	switch v := port.(type) {
	case Inport:
		for _, out := range slices.Clone(v.inport().connected) {
			n.disconnect(out, v)
		}
	case Outport:
		for _, in := range slices.Clone(v.outport().connected) {
			n.disconnect(v, in)
		}
	}
}

func (n *ProcessorNetwork) IsConnected(out Outport, in Inport) bool {
	return slices.Contains(n.connections, Connection{Outport: out, Inport: in})
}

// Connections returns the connections in creation order.
func (n *ProcessorNetwork) Connections() []Connection {
	return slices.Clone(n.connections)
}

// Lock defers structural notifications and evaluate requests until the
// matching Unlock. Locks nest.
func (n *ProcessorNetwork) Lock() {
	n.locked++
}

// Unlock releases one Lock. The final Unlock delivers the buffered events in
// order followed by a single NetworkChanged.
func (n *ProcessorNetwork) Unlock() error {
	if n.locked == 0 {
		return ErrNotLocked
	}
	n.locked--
	if n.locked > 0 {
		return nil
	}
	pending := n.pending
	n.pending = nil
	for _, ev := range pending {
		n.deliver(ev)
	}
	if len(pending) > 0 {
		n.deliver(Event{Kind: NetworkChanged})
	}
	return nil
}

func (n *ProcessorNetwork) IsLocked() bool {
	return n.locked > 0
}

// Clear removes all processors, most recently added first.
func (n *ProcessorNetwork) Clear() {
	n.Lock()
	defer n.Unlock() //nolint:errcheck
	for i := len(n.processors) - 1; i >= 0; i-- {
		if err := n.RemoveProcessor(n.processors[i]); err != nil {
			n.log.Error("failed to remove processor", "error", err)
		}
	}
}

func (n *ProcessorNetwork) renamed(p Processor, old string) {
	delete(n.byID, old)
	n.byID[p.AsProcessor().identifier] = p
	n.notify(Event{Kind: IdentifierChanged, Processor: p, OldIdentifier: old})
}
