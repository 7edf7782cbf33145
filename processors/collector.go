package processors

import (
	"context"
	"slices"

	"github.com/birdayz/procnet/network"
)

// Collector is a sink recording every value it receives. At most Capacity
// values are kept; older ones are dropped. Changing the capacity
// reinitializes the collector's resources, which clears the recorded values.
type Collector struct {
	network.ProcessorBase
	In       *network.DataInport[float64]
	Capacity *network.ValueProperty[int]

	values      []float64
	initialized int
}

func NewCollector() *Collector {
	p := &Collector{
		In:       network.NewMultiDataInport[float64]("in").SetOptional(true),
		Capacity: network.NewValueProperty("capacity", 1024).SetInvalidationLevel(network.InvalidResources),
	}
	p.InitProcessor(p, ClassCollector, "Collector")
	p.MustAddPort(p.In, "")
	p.MustAddProperty(p.Capacity)
	return p
}

func (p *Collector) InitializeResources(context.Context) error {
	p.values = make([]float64, 0, max(p.Capacity.Get(), 0))
	p.initialized++
	return nil
}

func (p *Collector) Process(context.Context) error {
	p.values = append(p.values, p.In.VectorData()...)
	if c := p.Capacity.Get(); c >= 0 && len(p.values) > c {
		p.values = slices.Delete(p.values, 0, len(p.values)-c)
	}
	return nil
}

// Values returns the recorded values, oldest first.
func (p *Collector) Values() []float64 {
	return slices.Clone(p.values)
}

// Last returns the most recent value.
func (p *Collector) Last() (float64, bool) {
	if len(p.values) == 0 {
		return 0, false
	}
	return p.values[len(p.values)-1], true
}

// Initializations counts how often the collector's resources were set up.
func (p *Collector) Initializations() int {
	return p.initialized
}
