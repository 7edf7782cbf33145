package network

import (
	"io"
	"log/slog"

	"github.com/go-logr/logr"
)

// Option configures a ProcessorNetwork.
type Option func(*ProcessorNetwork)

// WithLog sets the logger of the network.
var WithLog = func(log *slog.Logger) Option {
	return func(n *ProcessorNetwork) {
		n.log = log
	}
}

// WithLogr sets the logger of the network from a logr.Logger.
var WithLogr = func(log logr.Logger) Option {
	return func(n *ProcessorNetwork) {
		n.log = slog.New(logr.ToSlogHandler(log))
	}
}

// WithIdentifierRegistry replaces DefaultIdentifiers. Networks sharing a
// registry never hand out the same processor identifier.
var WithIdentifierRegistry = func(ids *IdentifierRegistry) Option {
	return func(n *ProcessorNetwork) {
		n.ids = ids
	}
}

// WithFactory sets the factory used to create processors and owned ports
// during deserialization.
var WithFactory = func(f Factory) Option {
	return func(n *ProcessorNetwork) {
		n.factory = f
	}
}

// NullLogger creates a logger that discards all output.
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
