package processors

import (
	"context"
	"fmt"

	"github.com/birdayz/procnet/network"
)

// Aggregate folds every value arriving on its inputs into a single output.
// Besides the default multi-connection inport "in", further inputs can be
// added at runtime with AddInput; they are owned by the processor and
// restored from saved documents.
type Aggregate[Vin, State, Vout any] struct {
	network.ProcessorBase
	In  *network.DataInport[Vin]
	Out *network.DataOutport[Vout]

	initFunc      func() State
	aggregateFunc func(Vin, State) State
	finalizeFunc  func(State) Vout
}

// InputGroup is the port group holding the inputs of an Aggregate.
const InputGroup = "inputs"

// NewAggregate creates an aggregate processor. init creates a fresh state per
// evaluation, aggregate is called for each input value in port order and
// finalize maps the state to the output.
func NewAggregate[Vin, State, Vout any](
	classID, displayName string,
	init func() State,
	aggregate func(Vin, State) State,
	finalize func(State) Vout,
) *Aggregate[Vin, State, Vout] {
	p := &Aggregate[Vin, State, Vout]{
		In:            network.NewMultiDataInport[Vin]("in"),
		Out:           network.NewDataOutport[Vout]("out"),
		initFunc:      init,
		aggregateFunc: aggregate,
		finalizeFunc:  finalize,
	}
	p.InitProcessor(p, classID, displayName)
	p.MustAddPort(p.In, InputGroup)
	p.MustAddPort(p.Out, "")
	return p
}

// AddInput adds an owned single-connection input.
func (p *Aggregate[Vin, State, Vout]) AddInput(identifier string) (*network.DataInport[Vin], error) {
	in := network.NewDataInport[Vin](identifier).SetOptional(true)
	if err := p.AddOwnedPort(in, InputGroup); err != nil {
		return nil, err
	}
	return in, nil
}

// Inputs returns the typed inputs in port order.
func (p *Aggregate[Vin, State, Vout]) Inputs() []*network.DataInport[Vin] {
	var res []*network.DataInport[Vin]
	for _, in := range p.Inports() {
		if typed, ok := in.(*network.DataInport[Vin]); ok {
			res = append(res, typed)
		}
	}
	return res
}

func (p *Aggregate[Vin, State, Vout]) Process(ctx context.Context) error {
	state := p.initFunc()
	for _, in := range p.Inputs() {
		for _, v := range in.VectorData() {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("aggregate %s: %w", p.Identifier(), err)
			}
			state = p.aggregateFunc(v, state)
		}
	}
	p.Out.SetData(p.finalizeFunc(state))
	return nil
}

// Sum adds all input values.
type Sum = Aggregate[float64, float64, float64]

func NewSum() *Sum {
	return NewAggregate(ClassSum, "Sum",
		func() float64 { return 0 },
		func(v, acc float64) float64 { return acc + v },
		func(acc float64) float64 { return acc },
	)
}

type meanState struct {
	sum float64
	n   int
}

// Mean averages all input values. Without input it produces 0.
type Mean = Aggregate[float64, meanState, float64]

func NewMean() *Mean {
	return NewAggregate(ClassMean, "Mean",
		func() meanState { return meanState{} },
		func(v float64, s meanState) meanState { return meanState{sum: s.sum + v, n: s.n + 1} },
		func(s meanState) float64 {
			if s.n == 0 {
				return 0
			}
			return s.sum / float64(s.n)
		},
	)
}
