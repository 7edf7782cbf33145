package network

import "github.com/birdayz/procnet/traverse"

// Graph is the port-connection graph between processors.
var Graph traverse.Graph[Processor] = processorGraph{}

type processorGraph struct{}

func (processorGraph) Predecessors(p Processor) []Processor {
	var res []Processor
	for _, in := range p.AsProcessor().inports {
		for _, out := range in.inport().connected {
			if owner := out.base().owner; owner != nil {
				res = append(res, owner.This)
			}
		}
	}
	return res
}

func (processorGraph) Successors(p Processor) []Processor {
	var res []Processor
	for _, out := range p.AsProcessor().outports {
		for _, in := range out.outport().connected {
			if owner := in.base().owner; owner != nil {
				res = append(res, owner.This)
			}
		}
	}
	return res
}

// Traverse walks the processors reachable from start, see traverse.Walk.
func Traverse(state *traverse.State[Processor], start Processor, dir traverse.Direction, order traverse.Order, visit func(Processor)) {
	traverse.Walk(Graph, state, start, dir, order, visit)
}

// DirectPredecessors returns the owners of the outports connected to p.
func DirectPredecessors(p Processor) []Processor { return traverse.DirectPredecessors(Graph, p) }

// DirectSuccessors returns the owners of the inports connected to p.
func DirectSuccessors(p Processor) []Processor { return traverse.DirectSuccessors(Graph, p) }

// Predecessors returns every processor upstream of p, excluding p.
func Predecessors(p Processor) []Processor { return traverse.Predecessors(Graph, p) }

// Successors returns every processor downstream of p, excluding p.
func Successors(p Processor) []Processor { return traverse.Successors(Graph, p) }

// SortProcessors orders procs so that every processor comes after its
// predecessors among procs.
func SortProcessors(procs []Processor) ([]Processor, error) {
	return traverse.TopologicalSort(Graph, procs)
}
