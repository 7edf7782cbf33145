package network

import "slices"

// InteractionEvent is a user interaction routed through processors, for
// example a key press or a pick. Handlers mark it used to stop delivery.
type InteractionEvent struct {
	Name    string
	Payload any

	used    bool
	visited map[*ProcessorBase]struct{}
}

func NewInteractionEvent(name string, payload any) *InteractionEvent {
	return &InteractionEvent{Name: name, Payload: payload}
}

func (e *InteractionEvent) MarkAsUsed()       { e.used = true }
func (e *InteractionEvent) MarkAsUnused()     { e.used = false }
func (e *InteractionEvent) HasBeenUsed() bool { return e.used }

// markVisited records p and reports whether p was seen before.
func (e *InteractionEvent) markVisited(p *ProcessorBase) bool {
	if e.visited == nil {
		e.visited = make(map[*ProcessorBase]struct{})
	}
	if _, ok := e.visited[p]; ok {
		return true
	}
	e.visited[p] = struct{}{}
	return false
}

// InteractionHandler receives interaction events delivered to a processor.
// Handlers are compared by identity, so implementations should be pointers.
type InteractionHandler interface {
	InvokeEvent(e *InteractionEvent)
}

// AddInteractionHandler registers h once.
func (p *ProcessorBase) AddInteractionHandler(h InteractionHandler) {
	if !slices.Contains(p.handlers, h) {
		p.handlers = append(p.handlers, h)
	}
}

func (p *ProcessorBase) RemoveInteractionHandler(h InteractionHandler) {
	p.handlers = slices.DeleteFunc(p.handlers, func(x InteractionHandler) bool { return x == h })
}

func (p *ProcessorBase) InteractionHandlers() []InteractionHandler {
	return slices.Clone(p.handlers)
}

// InvokeEvent runs the handlers in registration order until one marks the
// event used.
func (p *ProcessorBase) InvokeEvent(e *InteractionEvent) {
	for _, h := range p.handlers {
		h.InvokeEvent(e)
		if e.used {
			return
		}
	}
}

// PropagateEvent delivers e to this processor and, unless it is used here,
// upstream through every connected inport. Each processor sees the event at
// most once. The event ends up used if any upstream branch used it.
func (p *ProcessorBase) PropagateEvent(e *InteractionEvent) {
	if e.markVisited(p) {
		return
	}
	p.InvokeEvent(e)
	if e.used {
		return
	}

	used := false
	for _, in := range p.inports {
		for _, out := range in.inport().connected {
			owner := out.base().owner
			if owner == nil {
				continue
			}
			owner.PropagateEvent(e)
			used = used || e.used
			e.MarkAsUnused()
		}
	}
	if used {
		e.MarkAsUsed()
	}
}
