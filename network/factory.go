package network

import (
	"fmt"
	"slices"
	"sync"

	"golang.org/x/exp/maps"
)

// Factory creates processors by class identifier.
type Factory interface {
	Create(classID string) (Processor, error)
}

// PortFactory creates ports by class identifier. Deserialization uses it to
// recreate owned ports.
type PortFactory interface {
	CreatePort(classID, identifier string) (Port, error)
}

// Registry is a Factory and PortFactory backed by registered constructors.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	processors map[string]func() Processor
	ports      map[string]func(identifier string) Port
}

func NewRegistry() *Registry {
	return &Registry{
		processors: make(map[string]func() Processor),
		ports:      make(map[string]func(identifier string) Port),
	}
}

// Register adds a processor constructor.
func (r *Registry) Register(classID string, ctor func() Processor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.processors[classID]; ok {
		return fmt.Errorf("%w: processor %q", ErrClassExists, classID)
	}
	r.processors[classID] = ctor
	return nil
}

func (r *Registry) MustRegister(classID string, ctor func() Processor) {
	if err := r.Register(classID, ctor); err != nil {
		panic(err)
	}
}

// RegisterPort adds a port constructor.
func (r *Registry) RegisterPort(classID string, ctor func(identifier string) Port) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ports[classID]; ok {
		return fmt.Errorf("%w: port %q", ErrClassExists, classID)
	}
	r.ports[classID] = ctor
	return nil
}

// RegisterDataPorts registers DataInport[T] and DataOutport[T].
func RegisterDataPorts[T any](r *Registry) error {
	if err := r.RegisterPort(DataInportClass[T](), func(id string) Port { return NewDataInport[T](id) }); err != nil {
		return err
	}
	return r.RegisterPort(DataOutportClass[T](), func(id string) Port { return NewDataOutport[T](id) })
}

func (r *Registry) Create(classID string) (Processor, error) {
	r.mu.RLock()
	ctor, ok := r.processors[classID]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownClassError{ClassID: classID, Kind: "processor"}
	}
	p := ctor()
	if p.AsProcessor().This == nil {
		return nil, fmt.Errorf("%w: constructor of %q did not call InitProcessor", ErrNotInitialized, classID)
	}
	return p, nil
}

func (r *Registry) CreatePort(classID, identifier string) (Port, error) {
	r.mu.RLock()
	ctor, ok := r.ports[classID]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownClassError{ClassID: classID, Kind: "port"}
	}
	return ctor(identifier), nil
}

// Classes returns the registered processor class identifiers, sorted.
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := maps.Keys(r.processors)
	slices.Sort(keys)
	return keys
}
