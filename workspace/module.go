package workspace

import (
	"fmt"
	"slices"

	"github.com/beevik/etree"

	"github.com/birdayz/procnet/doc"
	"github.com/birdayz/procnet/network"
)

// Migration upgrades documents of one module from version From to From+1.
type Migration struct {
	From  int
	Rules []doc.Rule
}

// Module groups processor classes that are versioned together. Documents
// record the version of every module; loading an older document runs the
// module's migrations up to Version first.
type Module struct {
	Name       string
	Version    int
	Migrations []Migration
	// Register adds the module's processor and port classes. It may be nil.
	Register func(r *network.Registry) error
}

// migrate applies the migrations from version from to the current version.
func (m Module) migrate(root *etree.Element, from int) (changed bool, err error) {
	if from > m.Version {
		return false, fmt.Errorf("%w: module %s version %d, supported up to %d", ErrUnsupportedVersion, m.Name, from, m.Version)
	}
	for v := from; v < m.Version; v++ {
		i := slices.IndexFunc(m.Migrations, func(mig Migration) bool { return mig.From == v })
		if i < 0 {
			return changed, fmt.Errorf("%w: module %s from version %d", ErrMissingMigration, m.Name, v)
		}
		for _, rule := range m.Migrations[i].Rules {
			if rule.Apply(root) {
				changed = true
			}
		}
	}
	return changed, nil
}

// CoreModule is the module entry of the network document schema itself.
const CoreModule = "core"

// CoreVersion is the current version of the network document schema.
const CoreVersion = 1

// Core returns the module describing the network document schema. Version 0
// documents stored property links as <Links><Link/></Links>.
func Core() Module {
	return Module{
		Name:    CoreModule,
		Version: CoreVersion,
		Migrations: []Migration{
			{From: 0, Rules: []doc.Rule{doc.RuleFunc(renameLegacyLinks)}},
		},
	}
}

func renameLegacyLinks(root *etree.Element) bool {
	links := root.SelectElement(doc.TagLegacyLinks)
	if links == nil || root.SelectElement(network.TagPropertyLinks) != nil {
		return false
	}
	links.Tag = network.TagPropertyLinks
	for _, l := range links.SelectElements("Link") {
		l.Tag = network.TagPropertyLink
	}
	return true
}

// NewRegistry returns a registry with the classes of all modules.
func NewRegistry(modules ...Module) (*network.Registry, error) {
	r := network.NewRegistry()
	for _, m := range modules {
		if m.Register == nil {
			continue
		}
		if err := m.Register(r); err != nil {
			return nil, fmt.Errorf("register module %s: %w", m.Name, err)
		}
	}
	return r, nil
}
