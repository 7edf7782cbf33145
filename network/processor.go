package network

import (
	"context"
	"fmt"
	"slices"
)

// DefaultPortGroup is the group of ports added without one.
const DefaultPortGroup = "default"

// Processor is a unit of computation with typed ports. Implementations embed
// ProcessorBase and call InitProcessor in their constructor:
//
//	type Scale struct {
//		network.ProcessorBase
//		in  *network.DataInport[float64]
//		out *network.DataOutport[float64]
//	}
//
//	func NewScale() *Scale {
//		p := &Scale{...}
//		p.InitProcessor(p, "org.procnet.Scale", "Scale")
//		p.MustAddPort(p.in, "")
//		p.MustAddPort(p.out, "")
//		return p
//	}
type Processor interface {
	AsProcessor() *ProcessorBase
	// Process computes the outports from the inports. It is only called when
	// the processor is ready.
	Process(ctx context.Context) error
}

// ResourceInitializer is implemented by processors that (re)build resources
// before processing when invalidated at InvalidResources.
type ResourceInitializer interface {
	InitializeResources(ctx context.Context) error
}

// Destroyer is implemented by processors that release resources when removed
// from their network.
type Destroyer interface {
	Destroy()
}

// ProcessorBase carries the state every processor shares.
type ProcessorBase struct {
	// This is the concrete processor embedding the base.
	This Processor

	classID     string
	displayName string
	identifier  string
	net         *ProcessorNetwork

	inports    []Inport
	outports   []Outport
	groups     map[Port]string
	owned      map[Port]struct{}
	properties []Property
	handlers   []InteractionHandler

	level             InvalidationLevel
	evaluateRequested bool
}

// InitProcessor must be called once by the constructor of every processor.
func (p *ProcessorBase) InitProcessor(this Processor, classID, displayName string) {
	if this.AsProcessor() != p {
		panic("network: InitProcessor called with a processor embedding another base")
	}
	p.This = this
	p.classID = classID
	p.displayName = displayName
	p.level = InvalidResources
	p.groups = make(map[Port]string)
	p.owned = make(map[Port]struct{})
}

func (p *ProcessorBase) AsProcessor() *ProcessorBase { return p }

func (p *ProcessorBase) ClassIdentifier() string { return p.classID }
func (p *ProcessorBase) DisplayName() string     { return p.displayName }
func (p *ProcessorBase) Identifier() string      { return p.identifier }
func (p *ProcessorBase) String() string          { return p.identifier }

// Network returns the network the processor belongs to, or nil.
func (p *ProcessorBase) Network() *ProcessorNetwork { return p.net }

// SetIdentifier renames the processor. Inside a network the identifier is
// made unique and the resulting identifier is returned.
func (p *ProcessorBase) SetIdentifier(id string) (string, error) {
	if err := ValidateIdentifier(id, "processor", processorIdentifierExtra); err != nil {
		return "", err
	}
	if p.net == nil {
		p.identifier = id
		return id, nil
	}
	if id == p.identifier {
		return id, nil
	}
	old := p.identifier
	p.net.ids.Release(old)
	p.identifier = p.net.ids.Reserve(id)
	p.net.renamed(p.This, old)
	return p.identifier, nil
}

// AddPort adds an inport or outport to group, or to DefaultPortGroup if
// group is empty.
func (p *ProcessorBase) AddPort(port Port, group string) error {
	return p.addPort(port, group, false)
}

// AddOwnedPort adds a dynamically created port. Owned ports are recorded in
// the document and recreated through the port factory on load.
func (p *ProcessorBase) AddOwnedPort(port Port, group string) error {
	return p.addPort(port, group, true)
}

// MustAddPort is AddPort panicking on error, for constructors.
func (p *ProcessorBase) MustAddPort(port Port, group string) {
	if err := p.AddPort(port, group); err != nil {
		panic(err)
	}
}

func (p *ProcessorBase) addPort(port Port, group string, owned bool) error {
	b := port.base()
	if err := ValidateIdentifier(b.identifier, "port", ""); err != nil {
		return fmt.Errorf("processor %s: %w", p.identifier, err)
	}
	if b.owner != nil {
		return fmt.Errorf("%w: port %s already belongs to a processor", ErrDuplicatePort, b)
	}
	if _, ok := p.Port(b.identifier); ok {
		return fmt.Errorf("%w: processor %s already has a port %q", ErrDuplicatePort, p.identifier, b.identifier)
	}
	if group == "" {
		group = DefaultPortGroup
	}

	switch v := port.(type) {
	case Inport:
		p.inports = append(p.inports, v)
	case Outport:
		p.outports = append(p.outports, v)
	default:
		return fmt.Errorf("%w: port %q is neither inport nor outport", ErrIncompatiblePorts, b.identifier)
	}
	b.owner = p
	p.groups[port] = group
	if owned {
		p.owned[port] = struct{}{}
	}
	p.notify(Event{Kind: PortAdded, Processor: p.This, Port: port})
	return nil
}

// RemovePort disconnects and removes a port.
func (p *ProcessorBase) RemovePort(port Port) error {
	if port.base().owner != p {
		return fmt.Errorf("%w: %s on processor %s", ErrPortNotFound, port.Identifier(), p.identifier)
	}
	if p.net != nil {
		p.net.disconnectPort(port)
	}
	switch v := port.(type) {
	case Inport:
		p.inports = slices.DeleteFunc(p.inports, func(in Inport) bool { return in == v })
	case Outport:
		p.outports = slices.DeleteFunc(p.outports, func(out Outport) bool { return out == v })
	}
	delete(p.groups, port)
	delete(p.owned, port)
	p.notify(Event{Kind: PortRemoved, Processor: p.This, Port: port})
	port.base().owner = nil
	return nil
}

// Port looks up an inport or outport by identifier.
func (p *ProcessorBase) Port(id string) (Port, bool) {
	if in, ok := p.Inport(id); ok {
		return in, true
	}
	if out, ok := p.Outport(id); ok {
		return out, true
	}
	return nil, false
}

func (p *ProcessorBase) Inport(id string) (Inport, bool) {
	for _, in := range p.inports {
		if in.Identifier() == id {
			return in, true
		}
	}
	return nil, false
}

func (p *ProcessorBase) Outport(id string) (Outport, bool) {
	for _, out := range p.outports {
		if out.Identifier() == id {
			return out, true
		}
	}
	return nil, false
}

func (p *ProcessorBase) Inports() []Inport   { return slices.Clone(p.inports) }
func (p *ProcessorBase) Outports() []Outport { return slices.Clone(p.outports) }

// IsOwnedPort reports whether port was added with AddOwnedPort.
func (p *ProcessorBase) IsOwnedPort(port Port) bool {
	_, ok := p.owned[port]
	return ok
}

func (p *ProcessorBase) PortGroup(port Port) (string, error) {
	g, ok := p.groups[port]
	if !ok {
		return "", fmt.Errorf("%w: %s on processor %s", ErrPortNotFound, port.Identifier(), p.identifier)
	}
	return g, nil
}

// PortGroups returns the names of all non-empty groups, sorted.
func (p *ProcessorBase) PortGroups() []string {
	var res []string
	for _, g := range p.groups {
		if !slices.Contains(res, g) {
			res = append(res, g)
		}
	}
	slices.Sort(res)
	return res
}

// PortsInGroup returns the ports of a group, inports first, in insertion
// order.
func (p *ProcessorBase) PortsInGroup(group string) ([]Port, error) {
	var res []Port
	for _, port := range p.ports() {
		if p.groups[port] == group {
			res = append(res, port)
		}
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("%w: %q on processor %s", ErrPortGroupNotFound, group, p.identifier)
	}
	return res, nil
}

func (p *ProcessorBase) PortsInSameGroup(port Port) ([]Port, error) {
	g, err := p.PortGroup(port)
	if err != nil {
		return nil, err
	}
	return p.PortsInGroup(g)
}

func (p *ProcessorBase) ports() []Port {
	res := make([]Port, 0, len(p.inports)+len(p.outports))
	for _, in := range p.inports {
		res = append(res, in)
	}
	for _, out := range p.outports {
		res = append(res, out)
	}
	return res
}

// AddProperty adds a property. Its identifier must be unique within the
// processor.
func (p *ProcessorBase) AddProperty(prop Property) error {
	b := prop.property()
	if err := ValidateIdentifier(b.identifier, "property", ""); err != nil {
		return fmt.Errorf("processor %s: %w", p.identifier, err)
	}
	if b.owner != nil {
		return fmt.Errorf("%w: property %s already has an owner", ErrDuplicateProperty, b)
	}
	if _, ok := p.Property(b.identifier); ok {
		return fmt.Errorf("%w: processor %s already has a property %q", ErrDuplicateProperty, p.identifier, b.identifier)
	}
	b.owner = p
	p.properties = append(p.properties, prop)
	return nil
}

func (p *ProcessorBase) MustAddProperty(prop Property) {
	if err := p.AddProperty(prop); err != nil {
		panic(err)
	}
}

// RemoveProperty removes a property and every link touching it.
func (p *ProcessorBase) RemoveProperty(prop Property) error {
	if prop.property().owner != p {
		return fmt.Errorf("%w: %s on processor %s", ErrPropertyNotFound, prop.Identifier(), p.identifier)
	}
	if p.net != nil {
		p.net.removePropertyLinks(prop)
	}
	p.properties = slices.DeleteFunc(p.properties, func(q Property) bool { return q == prop })
	prop.property().owner = nil
	return nil
}

func (p *ProcessorBase) Property(id string) (Property, bool) {
	for _, prop := range p.properties {
		if prop.Identifier() == id {
			return prop, true
		}
	}
	return nil, false
}

func (p *ProcessorBase) Properties() []Property { return slices.Clone(p.properties) }

// IsSource reports whether the processor has no inports.
func (p *ProcessorBase) IsSource() bool { return len(p.inports) == 0 }

// IsSink reports whether the processor has no outports.
func (p *ProcessorBase) IsSink() bool { return len(p.outports) == 0 }

func (p *ProcessorBase) InvalidationLevel() InvalidationLevel { return p.level }
func (p *ProcessorBase) IsValid() bool                       { return p.level == Valid }

// IsReady reports whether every inport that is not optional and
// unconnected is ready.
func (p *ProcessorBase) IsReady() bool {
	for _, in := range p.inports {
		if in.IsOptional() && !in.IsConnected() {
			continue
		}
		if !in.IsReady() {
			return false
		}
	}
	return true
}

// AllInportsConnected reports whether every non-optional inport is
// connected.
func (p *ProcessorBase) AllInportsConnected() bool {
	for _, in := range p.inports {
		if !in.IsOptional() && !in.IsConnected() {
			return false
		}
	}
	return true
}

// Invalidate raises the invalidation level to at least level. Unless the
// processor stays valid, its outports and every processor downstream become
// invalid, and invalid sinks among them request evaluation. modified is the
// property that caused the invalidation, or nil.
func (p *ProcessorBase) Invalidate(level InvalidationLevel, modified Property) {
	p.notify(Event{Kind: InvalidationBegin, Processor: p.This, Property: modified})
	if level > p.level {
		p.level = level
	}
	if p.level == Valid {
		p.notify(Event{Kind: InvalidationEnd, Processor: p.This, Property: modified})
		return
	}
	for _, out := range p.outports {
		out.outport().invalidate(InvalidOutput)
	}

	sinks := []*ProcessorBase{}
	if p.IsSink() {
		sinks = append(sinks, p)
	}
	if p.This != nil {
		for _, q := range Successors(p.This) {
			qb := q.AsProcessor()
			qb.notify(Event{Kind: InvalidationBegin, Processor: q})
			if qb.level < InvalidOutput {
				qb.level = InvalidOutput
			}
			for _, out := range qb.outports {
				out.outport().invalidate(InvalidOutput)
			}
			qb.notify(Event{Kind: InvalidationEnd, Processor: q})
			if qb.IsSink() {
				sinks = append(sinks, qb)
			}
		}
	}
	p.notify(Event{Kind: InvalidationEnd, Processor: p.This, Property: modified})

	for _, s := range sinks {
		s.requestEvaluate()
	}
}

// SetValid marks the processor valid after a successful Process: inports
// are no longer changed, outports become valid and mark their connected
// inports changed.
func (p *ProcessorBase) SetValid() {
	for _, in := range p.inports {
		in.inport().changed = false
	}
	for _, out := range p.outports {
		out.outport().setValid()
	}
	p.level = Valid
}

// EvaluateRequested reports whether the processor has a pending evaluate
// request.
func (p *ProcessorBase) EvaluateRequested() bool { return p.evaluateRequested }

// ClearEvaluateRequest resets the pending request after an evaluation pass
// handled the processor.
func (p *ProcessorBase) ClearEvaluateRequest() { p.evaluateRequested = false }

// requestEvaluate sets the pending flag and notifies EvaluateRequested only on
// the transition from not requested.
func (p *ProcessorBase) requestEvaluate() {
	if p.net == nil || p.evaluateRequested {
		return
	}
	p.evaluateRequested = true
	p.notify(Event{Kind: EvaluateRequested, Processor: p.This})
}

func (p *ProcessorBase) notify(ev Event) {
	if p.net != nil {
		p.net.notify(ev)
	}
}
