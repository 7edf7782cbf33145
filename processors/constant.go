package processors

import (
	"context"

	"github.com/birdayz/procnet/network"
)

// SetValueEvent is the name of the interaction event setting the value of
// a Constant. Its payload is a float64.
const SetValueEvent = "setValue"

// Constant is a source producing its value property.
type Constant struct {
	network.ProcessorBase
	Out   *network.DataOutport[float64]
	Value *network.ValueProperty[float64]
}

func NewConstant() *Constant {
	p := &Constant{
		Out:   network.NewDataOutport[float64]("out"),
		Value: network.NewValueProperty("value", 0.0),
	}
	p.InitProcessor(p, ClassConstant, "Constant")
	p.MustAddPort(p.Out, "")
	p.MustAddProperty(p.Value)
	p.AddInteractionHandler(&setValueHandler{p: p})
	return p
}

func (p *Constant) Process(context.Context) error {
	p.Out.SetData(p.Value.Get())
	return nil
}

type setValueHandler struct {
	p *Constant
}

func (h *setValueHandler) InvokeEvent(e *network.InteractionEvent) {
	if e.Name != SetValueEvent {
		return
	}
	if v, ok := e.Payload.(float64); ok {
		h.p.Value.Set(v)
		e.MarkAsUsed()
	}
}
