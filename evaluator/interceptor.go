package evaluator

import (
	"context"

	"github.com/birdayz/procnet/network"
)

// Interceptor wraps the processing of a single processor. It must call next
// to run the processor; returning without calling next skips it and the
// returned error counts as the processor's result.
type Interceptor func(ctx context.Context, p network.Processor, next func(context.Context) error) error

// WithInterceptors adds interceptors around every Process call. The first
// interceptor is the outermost.
var WithInterceptors = func(interceptors ...Interceptor) Option {
	return func(e *Evaluator) {
		e.interceptors = append(e.interceptors, interceptors...)
	}
}

func chain(interceptors []Interceptor, p network.Processor, last func(context.Context) error) func(context.Context) error {
	next := last
	for i := len(interceptors) - 1; i >= 0; i-- {
		ic, n := interceptors[i], next
		next = func(ctx context.Context) error {
			return ic(ctx, p, n)
		}
	}
	return next
}
