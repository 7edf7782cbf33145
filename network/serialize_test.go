package network

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"
	"go.uber.org/multierr"

	"github.com/birdayz/procnet/doc"
)

func linkStrings(n *ProcessorNetwork) []string {
	var res []string
	for _, l := range n.Links() {
		res = append(res, l.String())
	}
	return res
}

func serialize(t *testing.T, n *ProcessorNetwork) []byte {
	t.Helper()
	d := doc.New("ProcessorNetwork")
	n.Serialize(d.Serializer())
	b, err := d.Bytes()
	assert.NoError(t, err)
	return b
}

func deserialize(t *testing.T, n *ProcessorNetwork, b []byte) error {
	t.Helper()
	d, err := doc.ReadBytes(b)
	assert.NoError(t, err)
	return n.Deserialize(d.Deserializer())
}

func TestSerializeRoundTrip(t *testing.T) {
	n := newTestNetwork(t)
	s, f, k := chain(t, n)
	s2 := newSource()
	assert.NoError(t, n.AddProcessor(s2))
	extra := NewDataInport[int]("extra")
	assert.NoError(t, k.AddOwnedPort(extra, "aux"))
	assert.NoError(t, n.Connect(s2.out, extra))
	assert.NoError(t, n.AddBidirectionalLink(s.value, s2.value))
	f.factor.Set(3)
	s.value.Set(4)

	b := serialize(t, n)

	loaded := newTestNetwork(t)
	assert.NoError(t, deserialize(t, loaded, b))

	assert.Equal(t, []string{"Source", "Filter", "Sink", "Source 2"}, identifiers(loaded.Processors()))
	assert.Equal(t, []string{
		"Source.out -> Filter.in",
		"Filter.out -> Sink.in",
		"Source 2.out -> Sink.extra",
	}, connectionStrings(loaded))
	assert.Equal(t, []string{
		"Source.value -> Source 2.value",
		"Source 2.value -> Source.value",
	}, linkStrings(loaded))

	lf, _ := loaded.Processor("Filter")
	assert.Equal(t, 3, lf.(*filter).factor.Get())
	ls2, _ := loaded.Processor("Source 2")
	assert.Equal(t, 4, ls2.(*source).value.Get())

	lk, _ := loaded.Processor("Sink")
	lextra, ok := lk.AsProcessor().Inport("extra")
	assert.True(t, ok)
	assert.True(t, lk.AsProcessor().IsOwnedPort(lextra))
	g, err := lk.AsProcessor().PortGroup(lextra)
	assert.NoError(t, err)
	assert.Equal(t, "aux", g)

	assert.Equal(t, string(b), string(serialize(t, loaded)))

	// Every loaded sink waits for evaluation.
	assert.Equal(t, []string{"Sink"}, identifiers(loaded.RequestedSinks()))
}

func TestDeserializeInPlace(t *testing.T) {
	n := newTestNetwork(t)
	_, f, k := chain(t, n)
	assert.NoError(t, k.AddOwnedPort(NewDataInport[int]("extra"), ""))
	b := serialize(t, n)

	// Changes after saving are reverted by loading the document again.
	f.factor.Set(10)
	assert.NoError(t, k.AddOwnedPort(NewDataInport[int]("later"), ""))
	assert.NoError(t, n.AddProcessor(newSink()))

	assert.NoError(t, deserialize(t, n, b))
	assert.Equal(t, []string{"Source", "Filter", "Sink"}, identifiers(n.Processors()))
	assert.Equal(t, 2, f.factor.Get())
	assert.Equal(t, []string{"in", "extra"}, portIDs(k.Inports()))
}

const unknownClassDoc = `<ProcessorNetwork>
  <Processors>
    <Processor type="org.test.Source" identifier="Source"/>
    <Processor type="org.test.Missing" identifier="Ghost"/>
    <Processor type="org.test.Sink" identifier="Sink"/>
  </Processors>
  <Connections>
    <Connection src="Source.out" dst="Sink.in"/>
    <Connection src="Ghost.out" dst="Sink.in"/>
    <Connection src="Source.nope" dst="Sink.in"/>
    <Connection src="broken" dst="Sink.in"/>
  </Connections>
  <PropertyLinks>
    <PropertyLink src="Ghost.value" dst="Source.value"/>
  </PropertyLinks>
</ProcessorNetwork>`

func TestDeserializeUnknownClass(t *testing.T) {
	n := newTestNetwork(t)
	err := deserialize(t, n, []byte(unknownClassDoc))
	assert.Error(t, err)

	errs := multierr.Errors(err)
	assert.Equal(t, 5, len(errs))
	for _, e := range errs {
		assert.True(t, doc.IsIgnorable(e), e.Error())
	}
	assert.True(t, errors.Is(errs[0], ErrUnknownClass))
	assert.Equal(t, []string{"Source", "Sink"}, identifiers(n.Processors()))
	assert.Equal(t, []string{"Source.out -> Sink.in"}, connectionStrings(n))
}

func TestDeserializeFatal(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("org.test.Source", func() Processor { return &source{} })
	n := New(WithIdentifierRegistry(NewIdentifierRegistry()), WithFactory(reg))

	err := deserialize(t, n, []byte(`<ProcessorNetwork><Processors>
		<Processor type="org.test.Source" identifier="Source"/>
	</Processors></ProcessorNetwork>`))
	assert.Error(t, err)
	assert.False(t, doc.IsIgnorable(err))
	assert.True(t, errors.Is(err, ErrNotInitialized))
}

func TestCopyPaste(t *testing.T) {
	n := newTestNetwork(t)
	s, f, k := chain(t, n)
	assert.NoError(t, n.AddLink(f.factor, s.value))

	d := doc.New("ProcessorNetwork")
	n.SerializeSelected(d.Serializer(), []Processor{f, k})
	b, err := d.Bytes()
	assert.NoError(t, err)

	pasted, err := doc.ReadBytes(b)
	assert.NoError(t, err)
	added, err := n.AppendDeserialized(pasted.Deserializer())
	assert.NoError(t, err)
	assert.Equal(t, []string{"Filter 2", "Sink 2"}, identifiers(added))
	assert.Equal(t, []string{
		"Source.out -> Filter.in",
		"Filter.out -> Sink.in",
		"Filter 2.out -> Sink 2.in",
		"Source.out -> Filter 2.in",
	}, connectionStrings(n))

	// The link leaves the selection and is not copied.
	assert.Equal(t, 1, len(n.Links()))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("org.test.Sink", func() Processor { return newSink() })
	assert.True(t, errors.Is(reg.Register("org.test.Sink", func() Processor { return newSink() }), ErrClassExists))
	assert.NoError(t, RegisterDataPorts[float64](reg))
	assert.True(t, errors.Is(RegisterDataPorts[float64](reg), ErrClassExists))

	_, err := reg.Create("org.test.Nope")
	var unknown *UnknownClassError
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, "org.test.Nope", unknown.ClassID)
	assert.True(t, errors.Is(err, ErrUnknownClass))

	port, err := reg.CreatePort("org.procnet.Float64Outport", "result")
	assert.NoError(t, err)
	assert.Equal(t, "result", port.Identifier())
	_, ok := port.(*DataOutport[float64])
	assert.True(t, ok)

	assert.Equal(t, []string{"org.test.Sink"}, reg.Classes())
	assert.Equal(t, "org.procnet.Float64VectorInport", DataInportClass[[]float64]())
}

type limits struct {
	ProcessorBase
	high *ValueProperty[float64]
	low  *ValueProperty[float32]
	mid  *ValueProperty[float64]
}

func newLimits() *limits {
	p := &limits{
		high: NewValueProperty("high", 0.0),
		low:  NewValueProperty("low", float32(0)),
		mid:  NewValueProperty("mid", 0.5),
	}
	p.InitProcessor(p, "org.test.Limits", "Limits")
	p.MustAddProperty(p.high)
	p.MustAddProperty(p.low)
	p.MustAddProperty(p.mid)
	return p
}

func (p *limits) Process(context.Context) error { return nil }

func TestNonFiniteProperties(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("org.test.Limits", func() Processor { return newLimits() })
	n := New(WithIdentifierRegistry(NewIdentifierRegistry()), WithFactory(reg))
	l := newLimits()
	assert.NoError(t, n.AddProcessor(l))
	l.high.Set(math.Inf(1))
	l.low.Set(float32(math.Inf(-1)))
	l.mid.Set(math.NaN())

	d := doc.New("ProcessorNetwork")
	s := d.Serializer()
	n.Serialize(s)
	assert.NoError(t, s.Err())
	b, err := d.Bytes()
	assert.NoError(t, err)
	assert.Contains(t, string(b), `identifier="high" content="+Inf"`)
	assert.Contains(t, string(b), `identifier="low" content="-Inf"`)
	assert.Contains(t, string(b), `identifier="mid" content="NaN"`)

	l.high.Set(1)
	l.low.Set(1)
	l.mid.Set(1)
	assert.NoError(t, deserialize(t, n, b))
	assert.True(t, math.IsInf(l.high.Get(), 1))
	assert.True(t, math.IsInf(float64(l.low.Get()), -1))
	assert.True(t, math.IsNaN(l.mid.Get()))
}

var errCannotEncode = errors.New("cannot encode")

type unencodable struct{}

func (unencodable) MarshalJSON() ([]byte, error) { return nil, errCannotEncode }

type opaque struct {
	ProcessorBase
	state *ValueProperty[unencodable]
}

func newOpaque() *opaque {
	p := &opaque{state: NewValueProperty("state", unencodable{})}
	p.InitProcessor(p, "org.test.Opaque", "Opaque")
	p.MustAddProperty(p.state)
	return p
}

func (p *opaque) Process(context.Context) error { return nil }

func TestSerializeUnencodableProperty(t *testing.T) {
	n := newTestNetwork(t)
	src := newSource()
	assert.NoError(t, n.AddProcessor(src))
	assert.NoError(t, n.AddProcessor(newOpaque()))

	d := doc.New("ProcessorNetwork")
	s := d.Serializer()
	n.Serialize(s)
	err := s.Err()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errCannotEncode))
	assert.Contains(t, err.Error(), "state")

	// Encodable properties are still written.
	b, berr := d.Bytes()
	assert.NoError(t, berr)
	assert.Contains(t, string(b), `identifier="value" content="1"`)
}

const duplicateProcessorDoc = `<ProcessorNetwork>
  <Processors>
    <Processor type="org.test.Source" identifier="Source">
      <Properties><Property type="org.procnet.IntProperty" identifier="value" content="4"/></Properties>
    </Processor>
    <Processor type="org.test.Source" identifier="Source">
      <Properties><Property type="org.procnet.IntProperty" identifier="value" content="9"/></Properties>
    </Processor>
    <Processor type="org.test.Sink" identifier="Sink"/>
  </Processors>
  <Connections>
    <Connection src="Source.out" dst="Sink.in"/>
  </Connections>
</ProcessorNetwork>`

func TestDeserializeDuplicateProcessor(t *testing.T) {
	n := newTestNetwork(t)
	err := deserialize(t, n, []byte(duplicateProcessorDoc))

	errs := multierr.Errors(err)
	assert.Equal(t, 1, len(errs))
	assert.True(t, doc.IsIgnorable(errs[0]))
	assert.True(t, errors.Is(errs[0], doc.ErrDuplicateItem))

	assert.Equal(t, []string{"Source", "Sink"}, identifiers(n.Processors()))
	assert.Equal(t, []string{"Source.out -> Sink.in"}, connectionStrings(n))
	src, _ := n.Processor("Source")
	assert.Equal(t, 4, src.(*source).value.Get())

	t.Run("paste", func(t *testing.T) {
		pasted, err := doc.ReadBytes([]byte(duplicateProcessorDoc))
		assert.NoError(t, err)
		added, err := n.AppendDeserialized(pasted.Deserializer())
		assert.True(t, errors.Is(err, doc.ErrDuplicateItem))
		assert.Equal(t, []string{"Source 2", "Sink 2"}, identifiers(added))
		assert.Equal(t, 4, added[0].(*source).value.Get())
	})
}
