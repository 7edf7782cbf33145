package processors

import (
	"context"
	"fmt"
	"io"

	"github.com/birdayz/procnet/network"
)

// ForEach is a sink calling a function for every value on its input.
type ForEach[T any] struct {
	network.ProcessorBase
	In *network.DataInport[T]

	forEachFunc func(identifier string, v T)
}

func NewForEach[T any](classID, displayName string, forEachFunc func(identifier string, v T)) *ForEach[T] {
	p := &ForEach[T]{
		In:          network.NewMultiDataInport[T]("in"),
		forEachFunc: forEachFunc,
	}
	p.InitProcessor(p, classID, displayName)
	p.MustAddPort(p.In, "")
	return p
}

func (p *ForEach[T]) Process(context.Context) error {
	for _, v := range p.In.VectorData() {
		p.forEachFunc(p.Identifier(), v)
	}
	return nil
}

// NewPrinter creates a sink writing "identifier: value" lines to w.
func NewPrinter(w io.Writer) *ForEach[float64] {
	return NewForEach(ClassPrinter, "Printer", func(id string, v float64) {
		fmt.Fprintf(w, "%s: %g\n", id, v)
	})
}
