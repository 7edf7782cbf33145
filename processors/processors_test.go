package processors

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/birdayz/procnet/evaluator"
	"github.com/birdayz/procnet/network"
)

func newNetwork(t *testing.T) (*network.ProcessorNetwork, *evaluator.Evaluator) {
	t.Helper()
	n := network.New(network.WithIdentifierRegistry(network.NewIdentifierRegistry()))
	e := evaluator.New(n)
	t.Cleanup(e.Close)
	return n, e
}

func add(t *testing.T, n *network.ProcessorNetwork, procs ...network.Processor) {
	t.Helper()
	for _, p := range procs {
		assert.NoError(t, n.AddProcessor(p))
	}
}

func connect(t *testing.T, n *network.ProcessorNetwork, out network.Outport, in network.Inport) {
	t.Helper()
	assert.NoError(t, n.Connect(out, in))
}

func evaluate(t *testing.T, e *evaluator.Evaluator) *evaluator.Pass {
	t.Helper()
	pass, err := e.EvaluateRequested(context.Background())
	assert.NoError(t, err)
	return pass
}

func constant(v float64) *Constant {
	c := NewConstant()
	c.Value.Set(v)
	return c
}

func TestConstantScaleCollector(t *testing.T) {
	n, e := newNetwork(t)
	c, s, k := constant(3), NewScale(), NewCollector()
	s.Factor.Set(2)
	add(t, n, c, s, k)
	connect(t, n, c.Out, s.In)
	connect(t, n, s.Out, k.In)

	evaluate(t, e)
	assert.Equal(t, []float64{6}, k.Values())

	c.Value.Set(4)
	evaluate(t, e)
	assert.Equal(t, []float64{6, 8}, k.Values())

	last, ok := k.Last()
	assert.True(t, ok)
	assert.Equal(t, 8.0, last)
}

func TestSum(t *testing.T) {
	n, e := newNetwork(t)
	a, b, c := constant(1), constant(2), constant(4)
	sum, k := NewSum(), NewCollector()
	add(t, n, a, b, c, sum, k)

	extra, err := sum.AddInput("extra")
	assert.NoError(t, err)
	assert.True(t, sum.IsOwnedPort(extra))

	connect(t, n, a.Out, sum.In)
	connect(t, n, b.Out, sum.In)
	connect(t, n, c.Out, extra)
	connect(t, n, sum.Out, k.In)

	evaluate(t, e)
	assert.Equal(t, []float64{7}, k.Values())

	ports, err := sum.PortsInGroup(InputGroup)
	assert.NoError(t, err)
	assert.Equal(t, 2, len(ports))

	_, err = sum.AddInput("extra")
	assert.True(t, errors.Is(err, network.ErrDuplicatePort))
}

func TestMean(t *testing.T) {
	n, e := newNetwork(t)
	mean, k := NewMean(), NewCollector()
	add(t, n, mean, k)
	for _, v := range []float64{1, 2, 6} {
		c := constant(v)
		add(t, n, c)
		connect(t, n, c.Out, mean.In)
	}
	connect(t, n, mean.Out, k.In)

	evaluate(t, e)
	assert.Equal(t, []float64{3}, k.Values())
}

func TestFailing(t *testing.T) {
	n, e := newNetwork(t)
	c, f, k := constant(1), NewFailing(), NewCollector()
	add(t, n, c, f, k)
	connect(t, n, c.Out, f.In)
	connect(t, n, f.Out, k.In)

	pass := evaluate(t, e)
	assert.Equal(t, 1, len(pass.Failed))
	assert.True(t, errors.Is(pass.Err(), ErrFailing))
	assert.Equal(t, 0, len(k.Values()))

	f.Panic.Set(true)
	pass = evaluate(t, e)
	assert.Equal(t, 1, len(pass.Failed))
	assert.True(t, errors.Is(pass.Err(), evaluator.ErrPanic))

	f.Panic.Set(false)
	f.Fail.Set(false)
	evaluate(t, e)
	assert.Equal(t, []float64{1}, k.Values())
}

func TestCollectorCapacity(t *testing.T) {
	n, e := newNetwork(t)
	c, k := constant(1), NewCollector()
	k.Capacity.Set(2)
	add(t, n, c, k)
	connect(t, n, c.Out, k.In)

	for _, v := range []float64{1, 2, 3} {
		c.Value.Set(v)
		evaluate(t, e)
	}
	assert.Equal(t, []float64{2, 3}, k.Values())
	assert.Equal(t, 1, k.Initializations())

	// Resizing reinitializes the collector before it processes again.
	k.Capacity.Set(5)
	assert.Equal(t, network.InvalidResources, k.InvalidationLevel())
	evaluate(t, e)
	assert.Equal(t, 2, k.Initializations())
	assert.Equal(t, []float64{3}, k.Values())
}

func TestSetValueEvent(t *testing.T) {
	n, e := newNetwork(t)
	c, s, k := constant(1), NewScale(), NewCollector()
	add(t, n, c, s, k)
	connect(t, n, c.Out, s.In)
	connect(t, n, s.Out, k.In)
	evaluate(t, e)

	ev := network.NewInteractionEvent(SetValueEvent, 5.0)
	k.PropagateEvent(ev)
	assert.True(t, ev.HasBeenUsed())
	assert.Equal(t, 5.0, c.Value.Get())

	evaluate(t, e)
	assert.Equal(t, []float64{1, 5}, k.Values())

	other := network.NewInteractionEvent("zoom", 2.0)
	k.PropagateEvent(other)
	assert.False(t, other.HasBeenUsed())
}

func TestPrinter(t *testing.T) {
	var out bytes.Buffer
	n, e := newNetwork(t)
	c, p := constant(2.5), NewPrinter(&out)
	add(t, n, c, p)
	connect(t, n, c.Out, p.In)

	evaluate(t, e)
	assert.Equal(t, "Printer: 2.5\n", out.String())
}

func TestRegister(t *testing.T) {
	r := network.NewRegistry()
	assert.NoError(t, Register(r, &bytes.Buffer{}))
	assert.Equal(t, []string{
		ClassCollector,
		ClassConstant,
		ClassFailing,
		ClassMean,
		ClassPrinter,
		ClassScale,
		ClassSum,
	}, r.Classes())

	p, err := r.Create(ClassSum)
	assert.NoError(t, err)
	_, ok := p.(*Sum)
	assert.True(t, ok)

	assert.Error(t, Register(r, &bytes.Buffer{}))
}
