package network

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Property is a named configuration value of a processor. Properties are the
// endpoints of property links.
type Property interface {
	Identifier() string
	ClassIdentifier() string
	// Owner returns the owning processor, or nil.
	Owner() Processor
	// InvalidationLevel is applied to the owner when the value changes.
	InvalidationLevel() InvalidationLevel
	Value() any
	// SetValue assigns v, which must have the property's value type.
	SetValue(v any) error
	MarshalText() ([]byte, error)
	UnmarshalText(b []byte) error

	property() *propertyBase
}

type propertyBase struct {
	identifier string
	classID    string
	level      InvalidationLevel
	owner      *ProcessorBase
}

func (p *propertyBase) Identifier() string                   { return p.identifier }
func (p *propertyBase) ClassIdentifier() string              { return p.classID }
func (p *propertyBase) InvalidationLevel() InvalidationLevel { return p.level }
func (p *propertyBase) property() *propertyBase              { return p }

func (p *propertyBase) Owner() Processor {
	if p.owner == nil {
		return nil
	}
	return p.owner.This
}

func (p *propertyBase) String() string {
	if p.owner == nil {
		return p.identifier
	}
	return p.owner.identifier + "." + p.identifier
}

// ValueProperty holds a comparable value of type T, persisted as JSON.
type ValueProperty[T comparable] struct {
	propertyBase
	value T
	self  Property
}

// NewValueProperty creates a property invalidating its owner's output on
// change. The class identifier is derived from T, for example
// "org.procnet.Float64Property".
func NewValueProperty[T comparable](identifier string, value T) *ValueProperty[T] {
	p := &ValueProperty[T]{
		propertyBase: propertyBase{
			identifier: identifier,
			classID:    "org.procnet." + typeName(reflect.TypeFor[T]()) + "Property",
			level:      InvalidOutput,
		},
		value: value,
	}
	p.self = p
	return p
}

// SetInvalidationLevel sets the level applied to the owner on change.
func (p *ValueProperty[T]) SetInvalidationLevel(level InvalidationLevel) *ValueProperty[T] {
	p.level = level
	return p
}

func (p *ValueProperty[T]) Get() T {
	return p.value
}

// Set assigns v. If the value changes, the owner is invalidated and the new
// value is pushed along the owner network's links.
func (p *ValueProperty[T]) Set(v T) {
	if p.value == v {
		return
	}
	p.value = v
	p.propertyModified(p.self)
}

func (p *ValueProperty[T]) Value() any {
	return p.value
}

func (p *ValueProperty[T]) SetValue(v any) error {
	tv, ok := v.(T)
	if !ok {
		return fmt.Errorf("%w: property %s holds %T, got %T", ErrTypeMismatch, p, p.value, v)
	}
	p.Set(tv)
	return nil
}

// MarshalText encodes the value as JSON. Non-finite floats, which JSON
// cannot represent, are written as "+Inf", "-Inf" and "NaN".
func (p *ValueProperty[T]) MarshalText() ([]byte, error) {
	switch f := any(p.value).(type) {
	case float64:
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
		}
	case float32:
		if math.IsInf(float64(f), 0) || math.IsNaN(float64(f)) {
			return []byte(strconv.FormatFloat(float64(f), 'g', -1, 32)), nil
		}
	}
	b, err := json.Marshal(p.value)
	if err != nil {
		return nil, fmt.Errorf("property %s: %w", p, err)
	}
	return b, nil
}

func (p *ValueProperty[T]) UnmarshalText(b []byte) error {
	var v T
	if f, ok := parseNonFinite(b); ok {
		switch pv := any(&v).(type) {
		case *float64:
			*pv = f
			p.Set(v)
			return nil
		case *float32:
			*pv = float32(f)
			p.Set(v)
			return nil
		}
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("property %s: %w", p, err)
	}
	p.Set(v)
	return nil
}

func parseNonFinite(b []byte) (float64, bool) {
	switch string(b) {
	case "+Inf", "Inf":
		return math.Inf(1), true
	case "-Inf":
		return math.Inf(-1), true
	case "NaN":
		return math.NaN(), true
	}
	return 0, false
}

func (p *propertyBase) propertyModified(self Property) {
	if p.owner == nil {
		return
	}
	p.owner.Invalidate(p.level, self)
	if p.owner.net != nil {
		p.owner.net.EvaluateLinksFromProperty(self)
	}
}
