package doc

import (
	"slices"
	"strings"

	"github.com/beevik/etree"
)

// Element tags used by the network document.
const (
	TagProcessor = "Processor"
	TagInport    = "InPort"
	TagOutport   = "OutPort"
	TagProperty  = "Property"

	TagConnections        = "Connections"
	TagPartialConnections = "PartialConnections"
	TagPropertyLinks      = "PropertyLinks"
	// TagLegacyLinks held property links before core version 1.
	TagLegacyLinks = "Links"
)

// Endpoint attributes reference a port or property as "processor.identifier".
const (
	AttrSource      = "src"
	AttrDestination = "dst"
)

// EndpointSeparator separates the processor and the port or property
// identifier in an endpoint reference. Processor identifiers cannot contain it.
const EndpointSeparator = "."

// Endpoint builds an endpoint reference.
func Endpoint(processor, identifier string) string {
	return processor + EndpointSeparator + identifier
}

// SplitEndpoint splits an endpoint reference at the first separator.
func SplitEndpoint(ref string) (processor, identifier string, ok bool) {
	return strings.Cut(ref, EndpointSeparator)
}

// Kind matches an element by tag and, unless Type is empty, by its type
// attribute.
type Kind struct {
	Tag  string
	Type string
}

func ProcessorKind(classID string) Kind { return Kind{Tag: TagProcessor, Type: classID} }
func InportKind(classID string) Kind    { return Kind{Tag: TagInport, Type: classID} }
func OutportKind(classID string) Kind   { return Kind{Tag: TagOutport, Type: classID} }
func PropertyKind(classID string) Kind  { return Kind{Tag: TagProperty, Type: classID} }

func (k Kind) matches(el *etree.Element) bool {
	if el.Tag != k.Tag {
		return false
	}
	return k.Type == "" || el.SelectAttrValue(AttrType, "") == k.Type
}

// Match returns every chain of elements below root where chain[i] matches
// path[i] and each element is a descendant of the previous one.
func Match(root *etree.Element, path []Kind) [][]*etree.Element {
	if len(path) == 0 {
		return nil
	}
	var res [][]*etree.Element
	var match func(el *etree.Element, depth int, chain []*etree.Element)
	match = func(el *etree.Element, depth int, chain []*etree.Element) {
		for _, c := range el.ChildElements() {
			if path[depth].matches(c) {
				next := append(chain[:depth:depth], c)
				if depth == len(path)-1 {
					res = append(res, next)
				} else {
					match(c, depth+1, next)
				}
				continue
			}
			match(c, depth, chain)
		}
	}
	match(root, 0, make([]*etree.Element, 0, len(path)))
	return res
}

// Rule is a deterministic rewrite of a raw document tree. Apply reports
// whether anything changed.
type Rule interface {
	Apply(root *etree.Element) bool
}

// IdentifierReplacement renames the identifier of every element matching
// Path from Old to New. When the first element of the path is a processor,
// endpoint references to the renamed port or property are rewritten as well:
// inport renames touch connection destinations, outport renames connection
// sources and property renames both ends of property links.
type IdentifierReplacement struct {
	Path []Kind
	Old  string
	New  string
}

func (r IdentifierReplacement) Apply(root *etree.Element) bool {
	changed := false
	for _, chain := range Match(root, r.Path) {
		target := chain[len(chain)-1]
		if target.SelectAttrValue(AttrIdentifier, "") != r.Old {
			continue
		}
		target.CreateAttr(AttrIdentifier, r.New)
		changed = true

		if len(chain) > 1 && chain[0].Tag == TagProcessor {
			owner := chain[0].SelectAttrValue(AttrIdentifier, "")
			if lists, attrs, ok := endpointScope(target.Tag); ok {
				RenameEndpoint(root, lists, attrs, Endpoint(owner, r.Old), Endpoint(owner, r.New))
			}
		}
	}
	return changed
}

// AttributeReplacement changes the value of attribute Attr from Old to New on
// every element matching Path.
type AttributeReplacement struct {
	Path []Kind
	Attr string
	Old  string
	New  string
}

func (r AttributeReplacement) Apply(root *etree.Element) bool {
	changed := false
	for _, chain := range Match(root, r.Path) {
		target := chain[len(chain)-1]
		if a := target.SelectAttr(r.Attr); a != nil && a.Value == r.Old {
			target.CreateAttr(r.Attr, r.New)
			changed = true
		}
	}
	return changed
}

// RuleFunc adapts a function to a Rule.
type RuleFunc func(root *etree.Element) bool

func (f RuleFunc) Apply(root *etree.Element) bool { return f(root) }

// endpointScope returns the list tags and attributes that can reference an
// element with the given tag.
func endpointScope(tag string) (lists, attrs []string, ok bool) {
	connections := []string{TagConnections, TagPartialConnections}
	switch tag {
	case TagInport:
		return connections, []string{AttrDestination}, true
	case TagOutport:
		return connections, []string{AttrSource}, true
	case TagProperty:
		return []string{TagPropertyLinks, TagLegacyLinks}, []string{AttrSource, AttrDestination}, true
	}
	return nil, nil, false
}

// RenameEndpoint rewrites the attrs equal to from on the children of every
// element below root tagged with one of lists. It reports whether anything
// changed.
func RenameEndpoint(root *etree.Element, lists, attrs []string, from, to string) bool {
	changed := false
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, c := range el.ChildElements() {
			if slices.Contains(lists, el.Tag) {
				for _, key := range attrs {
					if a := c.SelectAttr(key); a != nil && a.Value == from {
						c.CreateAttr(key, to)
						changed = true
					}
				}
			}
			walk(c)
		}
	}
	walk(root)
	return changed
}
