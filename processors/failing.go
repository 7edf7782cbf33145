package processors

import (
	"context"
	"errors"
	"fmt"

	"github.com/birdayz/procnet/network"
)

var ErrFailing = errors.New("processor configured to fail")

// Failing passes its input through unless Fail or Panic is set.
type Failing struct {
	network.ProcessorBase
	In    *network.DataInport[float64]
	Out   *network.DataOutport[float64]
	Fail  *network.ValueProperty[bool]
	Panic *network.ValueProperty[bool]
}

func NewFailing() *Failing {
	p := &Failing{
		In:    network.NewDataInport[float64]("in"),
		Out:   network.NewDataOutport[float64]("out"),
		Fail:  network.NewValueProperty("fail", true),
		Panic: network.NewValueProperty("panic", false),
	}
	p.InitProcessor(p, ClassFailing, "Failing")
	p.MustAddPort(p.In, "")
	p.MustAddPort(p.Out, "")
	p.MustAddProperty(p.Fail)
	p.MustAddProperty(p.Panic)
	return p
}

func (p *Failing) Process(context.Context) error {
	if p.Panic.Get() {
		panic(fmt.Sprintf("%s panicked", p.Identifier()))
	}
	if p.Fail.Get() {
		return fmt.Errorf("%s: %w", p.Identifier(), ErrFailing)
	}
	v, _ := p.In.Data()
	p.Out.SetData(v)
	return nil
}
