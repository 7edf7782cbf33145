package network

import (
	"errors"
	"fmt"
)

// Sentinel errors for structural validation and lookups. Mutating calls that
// return one of them leave the network unchanged.
var (
	ErrInvalidIdentifier  = errors.New("invalid identifier")
	ErrNotInitialized     = errors.New("processor not initialized")
	ErrProcessorExists    = errors.New("processor already in a network")
	ErrProcessorNotFound  = errors.New("processor not found")
	ErrDuplicatePort      = errors.New("duplicate port identifier")
	ErrPortNotFound       = errors.New("port not found")
	ErrPortGroupNotFound  = errors.New("port group not found")
	ErrDuplicateProperty  = errors.New("duplicate property identifier")
	ErrPropertyNotFound   = errors.New("property not found")
	ErrIncompatiblePorts  = errors.New("incompatible ports")
	ErrInportFull         = errors.New("inport accepts no more connections")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrCycle              = errors.New("connection would create a cycle")
	ErrInvalidLink        = errors.New("invalid link")
	ErrLinkNotFound       = errors.New("link not found")
	ErrNotLocked          = errors.New("network is not locked")
	ErrUnknownClass       = errors.New("unknown class identifier")
	ErrClassExists        = errors.New("class identifier already registered")
	ErrTypeMismatch       = errors.New("type mismatch")
)

// UnknownClassError is returned by a Factory for an unregistered class.
type UnknownClassError struct {
	ClassID string
	// Kind is "processor" or "port".
	Kind string
}

func (e *UnknownClassError) Error() string {
	return fmt.Sprintf("%s: %s %q", ErrUnknownClass, e.Kind, e.ClassID)
}

func (e *UnknownClassError) Unwrap() error {
	return ErrUnknownClass
}
