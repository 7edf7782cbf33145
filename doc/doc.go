// Package doc is the persistence format of processor networks: a
// hierarchical, human-readable XML document with named elements carrying
// type and identifier attributes.
//
// Entities write themselves through a Serializer and read themselves back
// through a Deserializer. Both are thin cursors over an element of the
// underlying etree document, so converters can rewrite the raw tree before
// the typed deserializers run.
package doc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/beevik/etree"
)

// Document is a persisted network document.
type Document struct {
	tree *etree.Document
}

// New creates an empty document with a root element named rootTag.
func New(rootTag string) *Document {
	tree := etree.NewDocument()
	tree.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	tree.CreateElement(rootTag)
	return &Document{tree: tree}
}

// Read parses a document.
func Read(r io.Reader) (*Document, error) {
	tree := etree.NewDocument()
	if _, err := tree.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if tree.Root() == nil {
		return nil, fmt.Errorf("parse document: %w: no root element", ErrMissingElement)
	}
	return &Document{tree: tree}, nil
}

// ReadBytes parses a document from b.
func ReadBytes(b []byte) (*Document, error) {
	return Read(bytes.NewReader(b))
}

// Root returns the root element of the raw tree.
func (d *Document) Root() *etree.Element {
	return d.tree.Root()
}

// WriteTo writes the indented document to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	d.tree.Indent(2)
	return d.tree.WriteTo(w)
}

// Bytes returns the indented document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Copy returns a deep copy of the document.
func (d *Document) Copy() *Document {
	return &Document{tree: d.tree.Copy()}
}

// Serializer returns a serializer positioned at the root element.
func (d *Document) Serializer() *Serializer {
	return &Serializer{el: d.Root(), errs: new(error)}
}

// Deserializer returns a deserializer positioned at the root element.
func (d *Document) Deserializer() *Deserializer {
	root := d.Root()
	return &Deserializer{el: root, path: root.Tag}
}

// Serializable is implemented by every persisted entity.
type Serializable interface {
	Serialize(s *Serializer)
	Deserialize(d *Deserializer) error
}
