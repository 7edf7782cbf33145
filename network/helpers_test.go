package network

import (
	"context"
	"errors"
	"testing"
)

type source struct {
	ProcessorBase
	out       *DataOutport[int]
	value     *ValueProperty[int]
	processed int
}

func newSource() *source {
	p := &source{
		out:   NewDataOutport[int]("out"),
		value: NewValueProperty("value", 1),
	}
	p.InitProcessor(p, "org.test.Source", "Source")
	p.MustAddPort(p.out, "")
	p.MustAddProperty(p.value)
	return p
}

func (p *source) Process(context.Context) error {
	p.processed++
	p.out.SetData(p.value.Get())
	return nil
}

type filter struct {
	ProcessorBase
	in     *DataInport[int]
	out    *DataOutport[int]
	factor *ValueProperty[int]
	fail   bool
}

func newFilter() *filter {
	p := &filter{
		in:     NewDataInport[int]("in"),
		out:    NewDataOutport[int]("out"),
		factor: NewValueProperty("factor", 2),
	}
	p.InitProcessor(p, "org.test.Filter", "Filter")
	p.MustAddPort(p.in, "")
	p.MustAddPort(p.out, "")
	p.MustAddProperty(p.factor)
	return p
}

func (p *filter) Process(context.Context) error {
	if p.fail {
		return errors.New("filter failed")
	}
	v, _ := p.in.Data()
	p.out.SetData(v * p.factor.Get())
	return nil
}

type sink struct {
	ProcessorBase
	in        *DataInport[int]
	got       []int
	destroyed bool
}

func newSink() *sink {
	p := &sink{in: NewMultiDataInport[int]("in")}
	p.InitProcessor(p, "org.test.Sink", "Sink")
	p.MustAddPort(p.in, "")
	return p
}

func (p *sink) Process(context.Context) error {
	p.got = append(p.got, p.in.VectorData()...)
	return nil
}

func (p *sink) Destroy() { p.destroyed = true }

// newTestNetwork returns a network with its own identifier registry so
// tests see deterministic identifiers.
func newTestNetwork(t *testing.T) *ProcessorNetwork {
	t.Helper()
	reg := NewRegistry()
	reg.MustRegister("org.test.Source", func() Processor { return newSource() })
	reg.MustRegister("org.test.Filter", func() Processor { return newFilter() })
	reg.MustRegister("org.test.Sink", func() Processor { return newSink() })
	if err := RegisterDataPorts[int](reg); err != nil {
		t.Fatal(err)
	}
	return New(WithIdentifierRegistry(NewIdentifierRegistry()), WithFactory(reg))
}

// chain builds Source -> Filter -> Sink.
func chain(t *testing.T, n *ProcessorNetwork) (*source, *filter, *sink) {
	t.Helper()
	s, f, k := newSource(), newFilter(), newSink()
	for _, p := range []Processor{s, f, k} {
		if err := n.AddProcessor(p); err != nil {
			t.Fatal(err)
		}
	}
	if err := n.Connect(s.out, f.in); err != nil {
		t.Fatal(err)
	}
	if err := n.Connect(f.out, k.in); err != nil {
		t.Fatal(err)
	}
	return s, f, k
}

// runAll processes every ready, invalid processor in topological order.
func runAll(t *testing.T, n *ProcessorNetwork) {
	t.Helper()
	order, err := n.TopologicalSort()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range order {
		b := p.AsProcessor()
		if b.IsValid() || !b.IsReady() {
			continue
		}
		if err := p.Process(context.Background()); err != nil {
			continue
		}
		b.SetValid()
		b.ClearEvaluateRequest()
	}
}

func identifiers(procs []Processor) []string {
	res := make([]string, len(procs))
	for i, p := range procs {
		res[i] = p.AsProcessor().Identifier()
	}
	return res
}
