package workspace

import (
	"log/slog"

	"github.com/Masterminds/semver/v3"
	"github.com/go-logr/logr"

	"github.com/birdayz/procnet/store"
)

// DefaultAppVersion is written to documents unless WithAppVersion is given.
var DefaultAppVersion = semver.MustParse("0.3.0")

// Option configures a Manager.
type Option func(*Manager)

var WithLog = func(log *slog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

var WithLogr = func(log logr.Logger) Option {
	return func(m *Manager) {
		m.log = slog.New(logr.ToSlogHandler(log))
	}
}

// WithModules adds modules whose versions are recorded and migrated. The
// core module is always present.
var WithModules = func(modules ...Module) Option {
	return func(m *Manager) {
		for _, mod := range modules {
			m.modules[mod.Name] = mod
		}
	}
}

// WithAppVersion sets the application version written to documents. Loading
// a document of a newer major version logs a warning.
var WithAppVersion = func(v *semver.Version) Option {
	return func(m *Manager) {
		m.appVersion = v
	}
}

// WithStore enables SaveTo and LoadFrom.
var WithStore = func(s store.Store) Option {
	return func(m *Manager) {
		m.store = s
	}
}
