package network

import (
	"fmt"
	"slices"
)

// PropertyLink pushes the value of Source to Destination when Source changes.
type PropertyLink struct {
	Source      Property
	Destination Property
}

func (l PropertyLink) String() string {
	if l.Source == nil || l.Destination == nil {
		return "<nil link>"
	}
	return fmt.Sprintf("%s -> %s", l.Source.property(), l.Destination.property())
}

func (n *ProcessorNetwork) checkLinkEndpoint(prop Property) error {
	owner := prop.property().owner
	if owner == nil || owner.net != n {
		return fmt.Errorf("%w: %s", ErrPropertyNotFound, prop.property())
	}
	return nil
}

// AddLink links src to dst. Adding an existing link is a no-op. Adding a
// link does not propagate the current value, see EvaluateLinksFromProperty.
func (n *ProcessorNetwork) AddLink(src, dst Property) error {
	if err := n.checkLinkEndpoint(src); err != nil {
		return err
	}
	if err := n.checkLinkEndpoint(dst); err != nil {
		return err
	}
	if src == dst {
		return fmt.Errorf("%w: %s links to itself", ErrInvalidLink, src.property())
	}
	if n.IsLinked(src, dst) {
		return nil
	}
	l := PropertyLink{Source: src, Destination: dst}
	n.links = append(n.links, l)
	n.notify(Event{Kind: LinkAdded, Link: l})
	return nil
}

// AddBidirectionalLink links a to b and b to a.
func (n *ProcessorNetwork) AddBidirectionalLink(a, b Property) error {
	if err := n.AddLink(a, b); err != nil {
		return err
	}
	return n.AddLink(b, a)
}

func (n *ProcessorNetwork) RemoveLink(src, dst Property) error {
	l := PropertyLink{Source: src, Destination: dst}
	i := slices.Index(n.links, l)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLinkNotFound, l)
	}
	n.links = slices.Delete(n.links, i, i+1)
	n.notify(Event{Kind: LinkRemoved, Link: l})
	return nil
}

// removePropertyLinks removes every link with prop at either end.
func (n *ProcessorNetwork) removePropertyLinks(prop Property) {
	for _, l := range slices.Clone(n.links) {
		if l.Source == prop || l.Destination == prop {
			_ = n.RemoveLink(l.Source, l.Destination)
		}
	}
}

func (n *ProcessorNetwork) IsLinked(src, dst Property) bool {
	return slices.Contains(n.links, PropertyLink{Source: src, Destination: dst})
}

// Links returns the links in creation order.
func (n *ProcessorNetwork) Links() []PropertyLink {
	return slices.Clone(n.links)
}

// LinksFrom returns the links with src as source.
func (n *ProcessorNetwork) LinksFrom(src Property) []PropertyLink {
	var res []PropertyLink
	for _, l := range n.links {
		if l.Source == src {
			res = append(res, l)
		}
	}
	return res
}

// LinksTo returns the links with dst as destination.
func (n *ProcessorNetwork) LinksTo(dst Property) []PropertyLink {
	var res []PropertyLink
	for _, l := range n.links {
		if l.Destination == dst {
			res = append(res, l)
		}
	}
	return res
}

// EvaluateLinksFromProperty pushes the value of src along its links,
// transitively and breadth first. Every property is assigned at most once,
// so cyclic links terminate. Changes made while a propagation is running do
// not start another one.
func (n *ProcessorNetwork) EvaluateLinksFromProperty(src Property) {
	if n.linking || n.deserializing {
		return
	}
	n.linking = true
	defer func() { n.linking = false }()

	visited := map[Property]struct{}{src: {}}
	queue := []Property{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, l := range n.LinksFrom(cur) {
			if _, ok := visited[l.Destination]; ok {
				continue
			}
			visited[l.Destination] = struct{}{}
			if err := l.Destination.SetValue(cur.Value()); err != nil {
				n.log.Warn("failed to evaluate link", "link", l.String(), "error", err)
				continue
			}
			queue = append(queue, l.Destination)
		}
	}
}
