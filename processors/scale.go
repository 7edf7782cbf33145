package processors

import (
	"context"

	"github.com/birdayz/procnet/network"
)

// Scale multiplies its input by a factor.
type Scale struct {
	network.ProcessorBase
	In     *network.DataInport[float64]
	Out    *network.DataOutport[float64]
	Factor *network.ValueProperty[float64]
}

func NewScale() *Scale {
	p := &Scale{
		In:     network.NewDataInport[float64]("in"),
		Out:    network.NewDataOutport[float64]("out"),
		Factor: network.NewValueProperty("factor", 1.0),
	}
	p.InitProcessor(p, ClassScale, "Scale")
	p.MustAddPort(p.In, "")
	p.MustAddPort(p.Out, "")
	p.MustAddProperty(p.Factor)
	return p
}

func (p *Scale) Process(context.Context) error {
	v, _ := p.In.Data()
	p.Out.SetData(v * p.Factor.Get())
	return nil
}
