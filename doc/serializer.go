package doc

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/beevik/etree"
	"go.uber.org/multierr"
	"golang.org/x/exp/maps"
)

// Common attribute names.
const (
	AttrType       = "type"
	AttrIdentifier = "identifier"
	AttrContent    = "content"
	AttrKey        = "key"
	AttrVersion    = "version"
)

// Serializer writes into one element of a document. Serializers derived
// with Child share one error list.
type Serializer struct {
	el   *etree.Element
	errs *error
}

// Element returns the element the serializer writes to.
func (s *Serializer) Element() *etree.Element {
	return s.el
}

// SetAttr sets an attribute on the current element.
func (s *Serializer) SetAttr(key, value string) {
	s.el.CreateAttr(key, value)
}

// SetInt sets an integer attribute on the current element.
func (s *Serializer) SetInt(key string, v int) {
	s.el.CreateAttr(key, strconv.Itoa(v))
}

// Child appends a new child element and returns a serializer for it.
func (s *Serializer) Child(tag string) *Serializer {
	return &Serializer{el: s.el.CreateElement(tag), errs: s.errs}
}

// Fail records err for the current element. Writing continues.
func (s *Serializer) Fail(err error) {
	*s.errs = multierr.Append(*s.errs, fmt.Errorf("%s: %w", s.el.GetPath(), err))
}

// Err returns the errors recorded with Fail on any serializer of the
// document.
func (s *Serializer) Err() error {
	return *s.errs
}

// Serialize appends a child element named tag and lets v fill it.
func (s *Serializer) Serialize(tag string, v Serializable) {
	v.Serialize(s.Child(tag))
}

// Strings writes values as
//
//	<listTag><itemTag content="v0"/>...</listTag>
func (s *Serializer) Strings(listTag, itemTag string, values []string) {
	list := s.Child(listTag)
	for _, v := range values {
		list.Child(itemTag).SetAttr(AttrContent, v)
	}
}

// Map writes m sorted by key as
//
//	<listTag><itemTag key="k" content="v"/>...</listTag>
func (s *Serializer) Map(listTag, itemTag string, m map[string]string) {
	list := s.Child(listTag)
	keys := maps.Keys(m)
	slices.Sort(keys)
	for _, k := range keys {
		item := list.Child(itemTag)
		item.SetAttr(AttrKey, k)
		item.SetAttr(AttrContent, m[k])
	}
}

// Deserializer reads from one element of a document.
type Deserializer struct {
	el   *etree.Element
	path string
}

// Wrap returns a deserializer for a raw element.
func Wrap(el *etree.Element) *Deserializer {
	return &Deserializer{el: el, path: el.Tag}
}

// Element returns the element the deserializer reads from.
func (d *Deserializer) Element() *etree.Element {
	return d.el
}

// Tag returns the name of the current element.
func (d *Deserializer) Tag() string {
	return d.el.Tag
}

// Path describes the position of the current element for error messages.
func (d *Deserializer) Path() string {
	return d.path
}

// Attr returns the value of an attribute.
func (d *Deserializer) Attr(key string) (string, bool) {
	a := d.el.SelectAttr(key)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

// RequireAttr returns the value of an attribute or ErrMissingAttribute.
func (d *Deserializer) RequireAttr(key string) (string, error) {
	v, ok := d.Attr(key)
	if !ok {
		return "", fmt.Errorf("%s: %w %q", d.path, ErrMissingAttribute, key)
	}
	return v, nil
}

// Int reads an integer attribute. ok is false when the attribute is absent.
func (d *Deserializer) Int(key string) (v int, ok bool, err error) {
	raw, ok := d.Attr(key)
	if !ok {
		return 0, false, nil
	}
	v, err = strconv.Atoi(raw)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w: attribute %q: %v", d.path, ErrInvalidValue, key, err)
	}
	return v, true, nil
}

// Child returns the first child element named tag.
func (d *Deserializer) Child(tag string) (*Deserializer, bool) {
	el := d.el.SelectElement(tag)
	if el == nil {
		return nil, false
	}
	return d.sub(el), true
}

// RequireChild returns the first child element named tag or ErrMissingElement.
func (d *Deserializer) RequireChild(tag string) (*Deserializer, error) {
	c, ok := d.Child(tag)
	if !ok {
		return nil, fmt.Errorf("%s: %w %q", d.path, ErrMissingElement, tag)
	}
	return c, nil
}

// Children returns all child elements named tag, or all child elements if
// tag is empty.
func (d *Deserializer) Children(tag string) []*Deserializer {
	var els []*etree.Element
	if tag == "" {
		els = d.el.ChildElements()
	} else {
		els = d.el.SelectElements(tag)
	}
	res := make([]*Deserializer, len(els))
	for i, el := range els {
		res[i] = d.sub(el)
	}
	return res
}

// List returns the itemTag children of the listTag child. A missing list
// reads as empty.
func (d *Deserializer) List(listTag, itemTag string) []*Deserializer {
	list, ok := d.Child(listTag)
	if !ok {
		return nil
	}
	return list.Children(itemTag)
}

// Strings reads a list written by Serializer.Strings.
func (d *Deserializer) Strings(listTag, itemTag string) []string {
	items := d.List(listTag, itemTag)
	res := make([]string, 0, len(items))
	for _, item := range items {
		if v, ok := item.Attr(AttrContent); ok {
			res = append(res, v)
		}
	}
	return res
}

// Map reads a map written by Serializer.Map.
func (d *Deserializer) Map(listTag, itemTag string) map[string]string {
	items := d.List(listTag, itemTag)
	res := make(map[string]string, len(items))
	for _, item := range items {
		k, ok := item.Attr(AttrKey)
		if !ok {
			continue
		}
		v, _ := item.Attr(AttrContent)
		res[k] = v
	}
	return res
}

// Errorf returns an error prefixed with the current path.
func (d *Deserializer) Errorf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", d.path, fmt.Errorf(format, args...))
}

func (d *Deserializer) sub(el *etree.Element) *Deserializer {
	p := d.path + "/" + el.Tag
	if id := el.SelectAttrValue(AttrIdentifier, ""); id != "" {
		p += "[" + id + "]"
	}
	return &Deserializer{el: el, path: p}
}
