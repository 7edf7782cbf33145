package network

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/birdayz/procnet/doc"
)

// InvalidationLevel orders how stale a processor or outport is.
type InvalidationLevel int

const (
	Valid InvalidationLevel = iota
	// InvalidOutput means the outputs must be recomputed.
	InvalidOutput
	// InvalidResources means resources must be re-initialized before the
	// outputs are recomputed.
	InvalidResources
)

func (l InvalidationLevel) String() string {
	switch l {
	case Valid:
		return "Valid"
	case InvalidOutput:
		return "InvalidOutput"
	case InvalidResources:
		return "InvalidResources"
	default:
		return "Unknown"
	}
}

// Port is a typed connection point owned by exactly one processor.
type Port interface {
	Identifier() string
	ClassIdentifier() string
	// Processor returns the owner, or nil for a port not yet added.
	Processor() Processor
	IsConnected() bool
	IsReady() bool

	base() *portBase
}

// Inport consumes data from zero or more connected outports.
type Inport interface {
	Port
	ConnectedOutports() []Outport
	IsConnectedTo(o Outport) bool
	// IsOptional inports do not block readiness while unconnected.
	IsOptional() bool
	// IsChanged reports whether a connected outport became valid since the
	// owner was last validated.
	IsChanged() bool
	// MaxConnections is 0 for unbounded multi-inports.
	MaxConnections() int
	CanConnectTo(o Outport) bool

	inport() *inportBase
}

// Outport produces data for zero or more connected inports.
type Outport interface {
	Port
	ConnectedInports() []Inport
	IsValid() bool
	HasData() bool

	outport() *outportBase
}

type portBase struct {
	identifier string
	classID    string
	owner      *ProcessorBase
}

func (p *portBase) Identifier() string      { return p.identifier }
func (p *portBase) ClassIdentifier() string { return p.classID }
func (p *portBase) base() *portBase         { return p }

func (p *portBase) Processor() Processor {
	if p.owner == nil {
		return nil
	}
	return p.owner.This
}

// String returns the endpoint reference "processor.port".
func (p *portBase) String() string {
	if p.owner == nil {
		return p.identifier
	}
	return doc.Endpoint(p.owner.identifier, p.identifier)
}

type inportBase struct {
	portBase
	connected      []Outport
	optional       bool
	changed        bool
	maxConnections int
}

func (in *inportBase) inport() *inportBase { return in }

func (in *inportBase) ConnectedOutports() []Outport {
	return append([]Outport(nil), in.connected...)
}

func (in *inportBase) IsConnected() bool { return len(in.connected) > 0 }
func (in *inportBase) IsOptional() bool  { return in.optional }
func (in *inportBase) IsChanged() bool   { return in.changed }
func (in *inportBase) MaxConnections() int {
	return in.maxConnections
}

func (in *inportBase) IsConnectedTo(o Outport) bool {
	for _, c := range in.connected {
		if c == o {
			return true
		}
	}
	return false
}

// IsReady reports whether the inport is connected and every connected
// outport is ready.
func (in *inportBase) IsReady() bool {
	if len(in.connected) == 0 {
		return false
	}
	for _, o := range in.connected {
		if !o.IsReady() {
			return false
		}
	}
	return true
}

func (in *inportBase) full() bool {
	return in.maxConnections > 0 && len(in.connected) >= in.maxConnections
}

type outportBase struct {
	portBase
	connected []Inport
	state     InvalidationLevel
	hasData   bool
}

func (o *outportBase) outport() *outportBase { return o }

func (o *outportBase) ConnectedInports() []Inport {
	return append([]Inport(nil), o.connected...)
}

func (o *outportBase) IsConnected() bool { return len(o.connected) > 0 }
func (o *outportBase) IsValid() bool     { return o.state == Valid }
func (o *outportBase) HasData() bool     { return o.hasData }
func (o *outportBase) IsReady() bool     { return o.state == Valid && o.hasData }

func (o *outportBase) invalidate(level InvalidationLevel) {
	o.state = level
}

// setValid marks the outport valid and every connected inport changed.
func (o *outportBase) setValid() {
	o.state = Valid
	for _, in := range o.connected {
		in.inport().changed = true
	}
}

// DataOutport holds a single value of type T.
type DataOutport[T any] struct {
	outportBase
	data T
}

func NewDataOutport[T any](identifier string) *DataOutport[T] {
	return &DataOutport[T]{
		outportBase: outportBase{
			portBase: portBase{identifier: identifier, classID: DataOutportClass[T]()},
			state:    InvalidOutput,
		},
	}
}

func (o *DataOutport[T]) SetData(v T) {
	o.data = v
	o.hasData = true
}

func (o *DataOutport[T]) Data() (T, bool) {
	return o.data, o.hasData
}

func (o *DataOutport[T]) Clear() {
	var zero T
	o.data = zero
	o.hasData = false
}

// DataInport reads values of type T from connected DataOutport[T]s.
type DataInport[T any] struct {
	inportBase
}

// NewDataInport creates an inport accepting a single connection.
func NewDataInport[T any](identifier string) *DataInport[T] {
	return newDataInport[T](identifier, 1)
}

// NewMultiDataInport creates an inport accepting any number of connections.
func NewMultiDataInport[T any](identifier string) *DataInport[T] {
	return newDataInport[T](identifier, 0)
}

func newDataInport[T any](identifier string, maxConnections int) *DataInport[T] {
	return &DataInport[T]{
		inportBase: inportBase{
			portBase:       portBase{identifier: identifier, classID: DataInportClass[T]()},
			maxConnections: maxConnections,
		},
	}
}

func (in *DataInport[T]) SetOptional(optional bool) *DataInport[T] {
	in.optional = optional
	return in
}

func (in *DataInport[T]) CanConnectTo(o Outport) bool {
	_, ok := o.(*DataOutport[T])
	return ok
}

// Data returns the value of the first connected outport holding data.
func (in *DataInport[T]) Data() (T, bool) {
	for _, o := range in.connected {
		if d, ok := o.(*DataOutport[T]); ok && d.hasData {
			return d.data, true
		}
	}
	var zero T
	return zero, false
}

// VectorData returns the values of all connected outports holding data, in
// connection order.
func (in *DataInport[T]) VectorData() []T {
	var res []T
	for _, o := range in.connected {
		if d, ok := o.(*DataOutport[T]); ok && d.hasData {
			res = append(res, d.data)
		}
	}
	return res
}

// DataInportClass returns the class identifier of DataInport[T], for example
// "org.procnet.Float64Inport".
func DataInportClass[T any]() string {
	return "org.procnet." + typeName(reflect.TypeFor[T]()) + "Inport"
}

// DataOutportClass returns the class identifier of DataOutport[T].
func DataOutportClass[T any]() string {
	return "org.procnet." + typeName(reflect.TypeFor[T]()) + "Outport"
}

func typeName(t reflect.Type) string {
	switch {
	case t.Name() != "":
		r := []rune(t.Name())
		r[0] = unicode.ToUpper(r[0])
		return strings.Map(func(r rune) rune {
			if isIdentifierRune(r) && r != '-' {
				return r
			}
			return -1
		}, string(r))
	case t.Kind() == reflect.Slice || t.Kind() == reflect.Array:
		return typeName(t.Elem()) + "Vector"
	case t.Kind() == reflect.Pointer:
		return typeName(t.Elem())
	case t.Kind() == reflect.Map:
		return typeName(t.Key()) + typeName(t.Elem()) + "Map"
	default:
		return "Any"
	}
}
