// Package evaluator runs evaluation passes over a processor network: every
// invalid processor upstream of the requested sinks is processed in
// topological order once its inputs are ready.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/birdayz/procnet/network"
	"github.com/birdayz/procnet/traverse"
)

// ErrPanic wraps a panic recovered from a processor.
var ErrPanic = errors.New("processor panicked")

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLog sets the logger.
var WithLog = func(log *slog.Logger) Option {
	return func(e *Evaluator) {
		e.log = log
	}
}

// WithLogr sets the logger from a logr.Logger.
var WithLogr = func(log logr.Logger) Option {
	return func(e *Evaluator) {
		e.log = slog.New(logr.ToSlogHandler(log))
	}
}

// WithAutoEvaluate makes the evaluator run a pass as soon as a sink requests
// evaluation. Requests made while the network is locked run on the final
// unlock.
var WithAutoEvaluate = func(auto bool) Option {
	return func(e *Evaluator) {
		e.auto = auto
	}
}

// WithContext sets the context of automatic passes.
var WithContext = func(ctx context.Context) Option {
	return func(e *Evaluator) {
		e.ctx = ctx
	}
}

// WithMetrics registers evaluation metrics with reg.
var WithMetrics = func(reg prometheus.Registerer) Option {
	return func(e *Evaluator) {
		e.metrics = NewMetrics(reg)
	}
}

// ProcessorError is the failure of one processor during a pass.
type ProcessorError struct {
	Processor network.Processor
	Err       error
}

func (e *ProcessorError) Error() string {
	b := e.Processor.AsProcessor()
	return fmt.Sprintf("processor %s (%s): %v", b.Identifier(), b.ClassIdentifier(), e.Err)
}

func (e *ProcessorError) Unwrap() error {
	return e.Err
}

// Pass is the outcome of an evaluation pass.
type Pass struct {
	// Processed lists the processors processed successfully, in order.
	Processed []network.Processor
	// NotReady lists invalid processors skipped because an input was not
	// ready.
	NotReady []network.Processor
	// Failed lists processors whose Process returned an error or panicked.
	// They stay invalid.
	Failed []*ProcessorError
	// Deferred is set when the pass was requested while another pass was
	// running. It runs after the current pass.
	Deferred bool
	Duration time.Duration
}

// Err combines the processor failures of the pass.
func (p *Pass) Err() error {
	var err error
	for _, f := range p.Failed {
		err = multierr.Append(err, f)
	}
	return err
}

func (p *Pass) merge(o *Pass) {
	p.Processed = append(p.Processed, o.Processed...)
	p.NotReady = append(p.NotReady, o.NotReady...)
	p.Failed = append(p.Failed, o.Failed...)
	p.Duration += o.Duration
}

// Evaluator evaluates a processor network. Like the network it is not safe
// for concurrent use.
type Evaluator struct {
	net          *network.ProcessorNetwork
	log          *slog.Logger
	metrics      *Metrics
	interceptors []Interceptor
	auto         bool
	ctx          context.Context
	remove       func()

	evaluating bool
	queued     bool
	queuedAll  bool
}

// New creates an evaluator subscribed to net.
func New(net *network.ProcessorNetwork, opts ...Option) *Evaluator {
	e := &Evaluator{
		net: net,
		log: network.NullLogger(),
		ctx: context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.remove = net.AddObserver(network.ObserverFunc(e.onNetworkEvent))
	return e
}

// Close unsubscribes the evaluator from the network.
func (e *Evaluator) Close() {
	e.remove()
}

func (e *Evaluator) onNetworkEvent(ev network.Event) {
	if !e.auto || ev.Kind != network.EvaluateRequested {
		return
	}
	pass, err := e.EvaluateRequested(e.ctx)
	if err != nil {
		e.log.Error("evaluation failed", "error", err)
		return
	}
	if !pass.Deferred {
		e.log.Debug("evaluated", "processed", len(pass.Processed), "failed", len(pass.Failed), "duration", pass.Duration)
	}
}

// Evaluate runs a pass over every sink and its predecessors. It also runs
// while the network is locked. Processor failures are reported in the
// returned Pass; the error is only set if ctx is done or the network is
// cyclic.
func (e *Evaluator) Evaluate(ctx context.Context) (*Pass, error) {
	return e.run(ctx, true)
}

// EvaluateRequested runs a pass over the sinks with a pending evaluate
// request and their predecessors.
func (e *Evaluator) EvaluateRequested(ctx context.Context) (*Pass, error) {
	return e.run(ctx, false)
}

func (e *Evaluator) run(ctx context.Context, all bool) (*Pass, error) {
	if e.evaluating {
		e.queued = true
		e.queuedAll = e.queuedAll || all
		return &Pass{Deferred: true}, nil
	}
	e.evaluating = true
	defer func() { e.evaluating = false }()

	pass, err := e.pass(ctx, all)
	for err == nil && e.queued {
		all := e.queuedAll
		e.queued, e.queuedAll = false, false
		var next *Pass
		next, err = e.pass(ctx, all)
		pass.merge(next)
	}
	return pass, err
}

func (e *Evaluator) pass(ctx context.Context, all bool) (*Pass, error) {
	start := time.Now()
	pass := &Pass{}

	sinks := e.net.RequestedSinks()
	if all {
		sinks = e.net.Sinks()
	}
	// Requests made while this pass runs must notify again.
	for _, s := range sinks {
		s.AsProcessor().ClearEvaluateRequest()
	}

	var candidates []network.Processor
	state := traverse.NewState[network.Processor]()
	for _, s := range sinks {
		network.Traverse(state, s, traverse.Up, traverse.Post, func(p network.Processor) {
			candidates = append(candidates, p)
		})
	}
	order, err := network.SortProcessors(candidates)
	if err != nil {
		return pass, err
	}

	for _, p := range order {
		if err := ctx.Err(); err != nil {
			pass.Duration = time.Since(start)
			return pass, err
		}
		b := p.AsProcessor()
		if b.IsValid() {
			continue
		}
		if !b.IsReady() {
			pass.NotReady = append(pass.NotReady, p)
			continue
		}

		err := e.process(ctx, p)
		e.metrics.recordProcessed(b.ClassIdentifier(), err)
		if err != nil {
			e.log.Error("processor failed", "processor", b.Identifier(), "class", b.ClassIdentifier(), "error", err)
			pass.Failed = append(pass.Failed, &ProcessorError{Processor: p, Err: err})
			continue
		}
		b.SetValid()
		pass.Processed = append(pass.Processed, p)
	}

	pass.Duration = time.Since(start)
	e.metrics.recordPass(pass)
	return pass, nil
}

func (e *Evaluator) process(ctx context.Context, p network.Processor) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	if p.AsProcessor().InvalidationLevel() >= network.InvalidResources {
		if ri, ok := p.(network.ResourceInitializer); ok {
			if err := ri.InitializeResources(ctx); err != nil {
				return fmt.Errorf("initialize resources: %w", err)
			}
		}
	}
	return chain(e.interceptors, p, p.Process)(ctx)
}
