package network

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/multierr"

	"github.com/birdayz/procnet/doc"
)

// Element tags of a serialized network.
const (
	TagProcessors         = "Processors"
	TagConnections        = doc.TagConnections
	TagConnection         = "Connection"
	TagPartialConnections = doc.TagPartialConnections
	TagPropertyLinks      = doc.TagPropertyLinks
	TagPropertyLink       = "PropertyLink"

	tagPortGroups    = "PortGroups"
	tagPortGroup     = "PortGroup"
	tagOwnedInports  = "OwnedInportIdentifiers"
	tagOwnedInport   = "InportIdentifier"
	tagOwnedOutports = "OwnedOutportIdentifiers"
	tagOwnedOutport  = "OutportIdentifier"
	tagInports       = "InPorts"
	tagOutports      = "OutPorts"
	tagProperties    = "Properties"
)

// Serialize writes the processor's class, identifier, ports and properties.
func (p *ProcessorBase) Serialize(s *doc.Serializer) {
	s.SetAttr(doc.AttrType, p.classID)
	s.SetAttr(doc.AttrIdentifier, p.identifier)

	groups := make(map[string]string, len(p.groups))
	var ownedIn, ownedOut []string
	for _, port := range p.ports() {
		groups[port.Identifier()] = p.groups[port]
	}
	for _, in := range p.inports {
		if p.IsOwnedPort(in) {
			ownedIn = append(ownedIn, in.Identifier())
		}
	}
	for _, out := range p.outports {
		if p.IsOwnedPort(out) {
			ownedOut = append(ownedOut, out.Identifier())
		}
	}
	s.Map(tagPortGroups, tagPortGroup, groups)
	s.Strings(tagOwnedInports, tagOwnedInport, ownedIn)
	s.Strings(tagOwnedOutports, tagOwnedOutport, ownedOut)

	ins := s.Child(tagInports)
	for _, in := range p.inports {
		writePort(ins.Child(doc.TagInport), in)
	}
	outs := s.Child(tagOutports)
	for _, out := range p.outports {
		writePort(outs.Child(doc.TagOutport), out)
	}

	props := s.Child(tagProperties)
	for _, prop := range p.properties {
		c := props.Child(doc.TagProperty)
		c.SetAttr(doc.AttrType, prop.ClassIdentifier())
		c.SetAttr(doc.AttrIdentifier, prop.Identifier())
		b, err := prop.MarshalText()
		if err != nil {
			c.Fail(err)
			continue
		}
		c.SetAttr(doc.AttrContent, string(b))
	}
}

func writePort(s *doc.Serializer, port Port) {
	s.SetAttr(doc.AttrType, port.ClassIdentifier())
	s.SetAttr(doc.AttrIdentifier, port.Identifier())
}

// Deserialize reads ports and properties into the processor. Document ports
// are matched to existing ports by identifier. Owned ports missing from the
// document are removed and owned ports missing from the processor are
// created through the network's PortFactory. Failures of single ports or
// properties are ignorable.
func (p *ProcessorBase) Deserialize(d *doc.Deserializer) error {
	groups := d.Map(tagPortGroups, tagPortGroup)
	ownedIn := d.Strings(tagOwnedInports, tagOwnedInport)
	ownedOut := d.Strings(tagOwnedOutports, tagOwnedOutport)

	var errs error
	errs = multierr.Append(errs, doc.Identified[Inport]{
		ListTag:  tagInports,
		ItemTag:  doc.TagInport,
		ID:       func(in Inport) string { return in.Identifier() },
		AllowNew: func(id string) bool { return slices.Contains(ownedIn, id) },
		OnNew: func(id string, item *doc.Deserializer) error {
			return p.createOwnedPort(id, item, groups[id], true)
		},
		OnRemove: func(in Inport) error {
			if !p.IsOwnedPort(in) {
				return nil
			}
			return p.RemovePort(in)
		},
	}.Deserialize(d, p.Inports()))

	errs = multierr.Append(errs, doc.Identified[Outport]{
		ListTag:  tagOutports,
		ItemTag:  doc.TagOutport,
		ID:       func(out Outport) string { return out.Identifier() },
		AllowNew: func(id string) bool { return slices.Contains(ownedOut, id) },
		OnNew: func(id string, item *doc.Deserializer) error {
			return p.createOwnedPort(id, item, groups[id], false)
		},
		OnRemove: func(out Outport) error {
			if !p.IsOwnedPort(out) {
				return nil
			}
			return p.RemovePort(out)
		},
	}.Deserialize(d, p.Outports()))

	errs = multierr.Append(errs, doc.Identified[Property]{
		ListTag: tagProperties,
		ItemTag: doc.TagProperty,
		ID:      func(prop Property) string { return prop.Identifier() },
		OnExisting: func(prop Property, item *doc.Deserializer) error {
			content, ok := item.Attr(doc.AttrContent)
			if !ok {
				return nil
			}
			return doc.Ignore(item.Path(), prop.UnmarshalText([]byte(content)))
		},
	}.Deserialize(d, p.Properties()))
	return errs
}

func (p *ProcessorBase) createOwnedPort(id string, item *doc.Deserializer, group string, inport bool) error {
	classID, err := item.RequireAttr(doc.AttrType)
	if err != nil {
		return doc.Ignore(item.Path(), err)
	}
	var pf PortFactory
	if p.net != nil {
		pf, _ = p.net.factory.(PortFactory)
	}
	if pf == nil {
		return doc.Ignore(item.Path(), fmt.Errorf("%w: no port factory for %q", ErrUnknownClass, classID))
	}
	port, err := pf.CreatePort(classID, id)
	if err != nil {
		return doc.Ignore(item.Path(), err)
	}
	if _, ok := port.(Inport); ok != inport {
		return doc.Ignore(item.Path(), fmt.Errorf("%w: port class %q has the wrong direction", ErrIncompatiblePorts, classID))
	}
	return doc.Ignore(item.Path(), p.AddOwnedPort(port, group))
}

// Serialize writes all processors, connections and links. Properties whose
// value cannot be encoded are recorded with s.Fail.
func (n *ProcessorNetwork) Serialize(s *doc.Serializer) {
	n.serialize(s, n.processors)
}

// SerializeSelected writes the selected processors, the connections and
// links among them, and the connections into them from processors outside
// the selection as partial connections.
func (n *ProcessorNetwork) SerializeSelected(s *doc.Serializer, selected []Processor) {
	n.serialize(s, selected)

	in := func(p *ProcessorBase) bool { return slices.Contains(selected, p.This) }
	partial := s.Child(TagPartialConnections)
	for _, c := range n.connections {
		if !in(c.Outport.base().owner) && in(c.Inport.base().owner) {
			writeConnection(partial.Child(TagConnection), c)
		}
	}
}

func (n *ProcessorNetwork) serialize(s *doc.Serializer, procs []Processor) {
	selected := func(p *ProcessorBase) bool { return slices.Contains(procs, p.This) }

	ps := s.Child(TagProcessors)
	for _, p := range procs {
		p.AsProcessor().Serialize(ps.Child(doc.TagProcessor))
	}

	cs := s.Child(TagConnections)
	for _, c := range n.connections {
		if selected(c.Outport.base().owner) && selected(c.Inport.base().owner) {
			writeConnection(cs.Child(TagConnection), c)
		}
	}

	ls := s.Child(TagPropertyLinks)
	for _, l := range n.links {
		if !selected(l.Source.property().owner) || !selected(l.Destination.property().owner) {
			continue
		}
		el := ls.Child(TagPropertyLink)
		el.SetAttr(doc.AttrSource, l.Source.property().String())
		el.SetAttr(doc.AttrDestination, l.Destination.property().String())
	}
}

func writeConnection(s *doc.Serializer, c Connection) {
	s.SetAttr(doc.AttrSource, c.Outport.base().String())
	s.SetAttr(doc.AttrDestination, c.Inport.base().String())
}

// Deserialize reads a network document. Processors are matched to existing
// processors by identifier, unmatched ones are created through the network's
// Factory and processors missing from the document are removed.
//
// The returned error combines all failures. Failures wrapped as
// doc.IgnoreError, such as unknown processor classes and connections to
// them, leave the rest of the network loaded. Any other error means the
// network is in an undefined state and should be cleared.
func (n *ProcessorNetwork) Deserialize(d *doc.Deserializer) error {
	n.Lock()
	defer n.Unlock() //nolint:errcheck
	n.deserializing = true
	defer func() { n.deserializing = false }()

	resolved := make(map[string]Processor)
	errs := doc.Identified[Processor]{
		ListTag:  TagProcessors,
		ItemTag:  doc.TagProcessor,
		ID:       func(p Processor) string { return p.AsProcessor().identifier },
		AllowNew: func(string) bool { return true },
		OnNew: func(id string, item *doc.Deserializer) error {
			p, err := n.createProcessor(id, item)
			if p != nil {
				resolved[id] = p
			}
			return err
		},
		OnExisting: func(p Processor, item *doc.Deserializer) error {
			resolved[p.AsProcessor().identifier] = p
			return p.AsProcessor().Deserialize(item)
		},
		OnRemove: func(p Processor) error { return n.RemoveProcessor(p) },
	}.Deserialize(d, n.Processors())

	lookup := func(id string) (Processor, bool) {
		p, ok := resolved[id]
		return p, ok
	}
	errs = multierr.Append(errs, n.deserializeConnections(d, TagConnections, lookup))
	errs = multierr.Append(errs, n.deserializeLinks(d, lookup))
	return errs
}

// AppendDeserialized adds the processors of a document written by
// SerializeSelected as new processors, renamed where their identifiers are
// taken. Partial connections are restored when the referenced outport exists
// in the network. It returns the added processors.
func (n *ProcessorNetwork) AppendDeserialized(d *doc.Deserializer) ([]Processor, error) {
	n.Lock()
	defer n.Unlock() //nolint:errcheck
	n.deserializing = true
	defer func() { n.deserializing = false }()

	var errs error
	var added []Processor
	resolved := make(map[string]Processor)
	for _, item := range d.List(TagProcessors, doc.TagProcessor) {
		id, ok := item.Attr(doc.AttrIdentifier)
		if !ok {
			continue
		}
		if _, dup := resolved[id]; dup {
			errs = multierr.Append(errs, doc.Ignore(item.Path(), fmt.Errorf("%w: %s", doc.ErrDuplicateItem, id)))
			continue
		}
		p, err := n.createProcessor(id, item)
		errs = multierr.Append(errs, err)
		if p != nil {
			resolved[id] = p
			added = append(added, p)
		}
	}

	lookup := func(id string) (Processor, bool) {
		p, ok := resolved[id]
		return p, ok
	}
	errs = multierr.Append(errs, n.deserializeConnections(d, TagConnections, lookup))
	errs = multierr.Append(errs, n.deserializeLinks(d, lookup))

	// Sources of partial connections live outside the pasted selection.
	partialLookup := func(id string) (Processor, bool) {
		if p, ok := resolved[id]; ok {
			return p, true
		}
		p, ok := n.byID[id]
		return p, ok && !slices.Contains(added, p)
	}
	errs = multierr.Append(errs, n.deserializeConnections(d, TagPartialConnections, partialLookup))
	return added, errs
}

// createProcessor creates and adds the processor of item. Unknown classes are
// ignorable; the returned processor is nil in that case.
func (n *ProcessorNetwork) createProcessor(id string, item *doc.Deserializer) (Processor, error) {
	classID, err := item.RequireAttr(doc.AttrType)
	if err != nil {
		return nil, doc.Ignore(item.Path(), err)
	}
	if n.factory == nil {
		return nil, doc.Ignore(item.Path(), &UnknownClassError{ClassID: classID, Kind: "processor"})
	}
	p, err := n.factory.Create(classID)
	if err != nil {
		if errors.Is(err, ErrUnknownClass) {
			return nil, doc.Ignore(item.Path(), err)
		}
		return nil, fmt.Errorf("%s: %w", item.Path(), err)
	}
	if _, err := p.AsProcessor().SetIdentifier(id); err != nil {
		return nil, doc.Ignore(item.Path(), err)
	}
	if err := n.AddProcessor(p); err != nil {
		return nil, fmt.Errorf("%s: %w", item.Path(), err)
	}
	return p, p.AsProcessor().Deserialize(item)
}

func (n *ProcessorNetwork) deserializeConnections(d *doc.Deserializer, listTag string, lookup func(string) (Processor, bool)) error {
	var errs error
	for _, item := range d.List(listTag, TagConnection) {
		out, in, err := resolveConnection(item, lookup)
		if err == nil {
			err = n.Connect(out, in)
		}
		errs = multierr.Append(errs, doc.Ignore(item.Path(), err))
	}
	return errs
}

func resolveConnection(item *doc.Deserializer, lookup func(string) (Processor, bool)) (Outport, Inport, error) {
	src, dst, err := endpoints(item)
	if err != nil {
		return nil, nil, err
	}
	sp, sport, _ := doc.SplitEndpoint(src)
	dp, dport, _ := doc.SplitEndpoint(dst)

	from, ok := lookup(sp)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrProcessorNotFound, sp)
	}
	to, ok := lookup(dp)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrProcessorNotFound, dp)
	}
	out, ok := from.AsProcessor().Outport(sport)
	if !ok {
		return nil, nil, fmt.Errorf("%w: outport %s", ErrPortNotFound, src)
	}
	in, ok := to.AsProcessor().Inport(dport)
	if !ok {
		return nil, nil, fmt.Errorf("%w: inport %s", ErrPortNotFound, dst)
	}
	return out, in, nil
}

func (n *ProcessorNetwork) deserializeLinks(d *doc.Deserializer, lookup func(string) (Processor, bool)) error {
	var errs error
	for _, item := range d.List(TagPropertyLinks, TagPropertyLink) {
		src, dst, err := resolveLink(item, lookup)
		if err == nil {
			err = n.AddLink(src, dst)
		}
		errs = multierr.Append(errs, doc.Ignore(item.Path(), err))
	}
	return errs
}

func resolveLink(item *doc.Deserializer, lookup func(string) (Processor, bool)) (Property, Property, error) {
	src, dst, err := endpoints(item)
	if err != nil {
		return nil, nil, err
	}
	resolve := func(ref string) (Property, error) {
		pid, propID, _ := doc.SplitEndpoint(ref)
		p, ok := lookup(pid)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProcessorNotFound, pid)
		}
		prop, ok := p.AsProcessor().Property(propID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrPropertyNotFound, ref)
		}
		return prop, nil
	}
	from, err := resolve(src)
	if err != nil {
		return nil, nil, err
	}
	to, err := resolve(dst)
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func endpoints(item *doc.Deserializer) (src, dst string, err error) {
	if src, err = item.RequireAttr(doc.AttrSource); err != nil {
		return "", "", err
	}
	if dst, err = item.RequireAttr(doc.AttrDestination); err != nil {
		return "", "", err
	}
	for _, ref := range []string{src, dst} {
		if _, _, ok := doc.SplitEndpoint(ref); !ok {
			return "", "", fmt.Errorf("%w: endpoint %q", doc.ErrInvalidValue, ref)
		}
	}
	return src, dst, nil
}
