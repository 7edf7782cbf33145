// Package workspace loads and saves complete processor networks. Documents
// record the version of every module they use and are migrated to the
// current versions before they are read.
package workspace

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/Masterminds/semver/v3"
	"github.com/beevik/etree"
	"go.uber.org/multierr"
	"golang.org/x/exp/maps"

	"github.com/birdayz/procnet/doc"
	"github.com/birdayz/procnet/network"
	"github.com/birdayz/procnet/store"
)

const (
	RootTag = "ProcessorNetwork"

	tagModuleVersions = "ModuleVersions"
	tagModule         = "Module"
	attrName          = "name"
	attrAppVersion    = "appVersion"
)

// Manager saves and loads the workspace of one network.
type Manager struct {
	net        *network.ProcessorNetwork
	log        *slog.Logger
	modules    map[string]Module
	appVersion *semver.Version
	store      store.Store
}

func New(net *network.ProcessorNetwork, opts ...Option) *Manager {
	m := &Manager{
		net:        net,
		log:        network.NullLogger(),
		modules:    map[string]Module{CoreModule: Core()},
		appVersion: DefaultAppVersion,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Network() *network.ProcessorNetwork {
	return m.net
}

// Modules returns the known modules sorted by name.
func (m *Manager) Modules() []Module {
	names := maps.Keys(m.modules)
	slices.Sort(names)
	res := make([]Module, len(names))
	for i, name := range names {
		res[i] = m.modules[name]
	}
	return res
}

// LoadResult describes a load that did not fail.
type LoadResult struct {
	// Incomplete is set when parts of the document could not be restored,
	// for example processors of unknown classes. Errors lists why.
	Incomplete bool
	Errors     []error
	// Migrated is set when the document was written with older module
	// versions.
	Migrated bool
	// AppVersion is the application version that wrote the document, if
	// recorded.
	AppVersion *semver.Version
	// Added lists the pasted processors.
	Added []network.Processor
}

// Document serializes the network with the current module versions. The
// error lists the properties that could not be encoded.
func (m *Manager) Document() (*doc.Document, error) {
	d := doc.New(RootTag)
	s := d.Serializer()
	s.SetInt(doc.AttrVersion, CoreVersion)
	s.SetAttr(attrAppVersion, m.appVersion.String())
	m.writeModuleVersions(s.Element())
	m.net.Serialize(s)
	return d, s.Err()
}

func (m *Manager) writeModuleVersions(parent *etree.Element) *etree.Element {
	list := parent.CreateElement(tagModuleVersions)
	for _, mod := range m.Modules() {
		if mod.Name == CoreModule {
			continue
		}
		item := list.CreateElement(tagModule)
		item.CreateAttr(attrName, mod.Name)
		item.CreateAttr(doc.AttrVersion, strconv.Itoa(mod.Version))
	}
	return list
}

func (m *Manager) Save(w io.Writer) error {
	d, err := m.Document()
	if err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}
	if _, err := d.WriteTo(w); err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}
	return nil
}

// Load replaces the network with the workspace read from r. See
// LoadDocument.
func (m *Manager) Load(r io.Reader) (*LoadResult, error) {
	d, err := doc.Read(r)
	if err != nil {
		m.net.Clear()
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	return m.LoadDocument(d)
}

// LoadDocument migrates d and deserializes it into the network. Failures the
// load can recover from are reported in the result; any other failure leaves
// the network empty and is returned.
func (m *Manager) LoadDocument(d *doc.Document) (*LoadResult, error) {
	res := &LoadResult{AppVersion: m.checkAppVersion(d)}

	migrated, err := m.Migrate(d)
	if err != nil {
		m.net.Clear()
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	res.Migrated = migrated

	if err := m.collect(res, m.net.Deserialize(d.Deserializer())); err != nil {
		m.net.Clear()
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	if res.Incomplete {
		m.log.Warn("workspace loaded incompletely", "errors", len(res.Errors), "error", multierr.Combine(res.Errors...))
	}
	return res, nil
}

// collect sorts the errors of a deserialization into res. It returns the
// errors that are not ignorable.
func (m *Manager) collect(res *LoadResult, err error) error {
	var fatal error
	for _, e := range multierr.Errors(err) {
		if doc.IsIgnorable(e) {
			res.Errors = append(res.Errors, e)
			continue
		}
		fatal = multierr.Append(fatal, e)
	}
	res.Incomplete = len(res.Errors) > 0
	return fatal
}

func (m *Manager) checkAppVersion(d *doc.Document) *semver.Version {
	raw := d.Root().SelectAttrValue(attrAppVersion, "")
	if raw == "" {
		return nil
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		m.log.Warn("invalid application version in document", "appVersion", raw, "error", err)
		return nil
	}
	if v.Major() > m.appVersion.Major() {
		m.log.Warn("document was written by a newer application", "appVersion", v.String(), "current", m.appVersion.String())
	}
	return v
}

// Versions returns the module versions recorded in d. The core version is
// the version attribute of the root element; a missing entry reads as 0.
func Versions(d *doc.Document) (map[string]int, error) {
	root := d.Deserializer()
	core, _, err := root.Int(doc.AttrVersion)
	if err != nil {
		return nil, err
	}
	res := map[string]int{CoreModule: core}
	for _, item := range root.List(tagModuleVersions, tagModule) {
		name, err := item.RequireAttr(attrName)
		if err != nil {
			return nil, err
		}
		v, _, err := item.Int(doc.AttrVersion)
		if err != nil {
			return nil, err
		}
		res[name] = v
	}
	return res, nil
}

// Migrate upgrades d to the current versions of all known modules and
// records those versions. Modules missing from the document are migrated
// from version 0. It reports whether any rule changed the document.
func (m *Manager) Migrate(d *doc.Document) (bool, error) {
	versions, err := Versions(d)
	if err != nil {
		return false, err
	}
	for name := range versions {
		if _, ok := m.modules[name]; !ok {
			m.log.Warn("document references unknown module", "module", name)
		}
	}

	changed := false
	for _, mod := range m.Modules() {
		c, err := mod.migrate(d.Root(), versions[mod.Name])
		if err != nil {
			return changed, err
		}
		if c {
			m.log.Info("migrated document", "module", mod.Name, "from", versions[mod.Name], "to", mod.Version)
		}
		changed = changed || c
	}

	m.stampVersions(d.Root())
	return changed, nil
}

func (m *Manager) stampVersions(root *etree.Element) {
	root.CreateAttr(doc.AttrVersion, strconv.Itoa(CoreVersion))
	if old := root.SelectElement(tagModuleVersions); old != nil {
		root.RemoveChild(old)
	}
	list := m.writeModuleVersions(root)
	root.RemoveChild(list)
	root.InsertChildAt(0, list)
}

// Copy serializes the selected processors for Paste.
func (m *Manager) Copy(selected []network.Processor) ([]byte, error) {
	d := doc.New(RootTag)
	s := d.Serializer()
	s.SetInt(doc.AttrVersion, CoreVersion)
	s.SetAttr(attrAppVersion, m.appVersion.String())
	m.writeModuleVersions(s.Element())
	m.net.SerializeSelected(s, selected)
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("copy: %w", err)
	}
	return d.Bytes()
}

// Paste adds the processors of a document written by Copy. Pasted
// processors are renamed where their identifiers are taken. On a failure
// that is not ignorable, the pasted processors are removed again.
func (m *Manager) Paste(b []byte) (*LoadResult, error) {
	d, err := doc.ReadBytes(b)
	if err != nil {
		return nil, fmt.Errorf("paste: %w", err)
	}
	res := &LoadResult{AppVersion: m.checkAppVersion(d)}
	if res.Migrated, err = m.Migrate(d); err != nil {
		return nil, fmt.Errorf("paste: %w", err)
	}

	added, err := m.net.AppendDeserialized(d.Deserializer())
	if err := m.collect(res, err); err != nil {
		m.net.Lock()
		for _, p := range added {
			_ = m.net.RemoveProcessor(p)
		}
		_ = m.net.Unlock()
		return nil, fmt.Errorf("paste: %w", err)
	}
	res.Added = added
	return res, nil
}

// SaveTo saves the workspace under key in the configured store.
func (m *Manager) SaveTo(ctx context.Context, key string) error {
	if m.store == nil {
		return ErrNoStore
	}
	var buf bytes.Buffer
	if err := m.Save(&buf); err != nil {
		return err
	}
	if err := m.store.Set(ctx, key, buf.Bytes()); err != nil {
		return fmt.Errorf("save workspace %s: %w", key, err)
	}
	m.log.Info("saved workspace", "key", key, "processors", m.net.Len())
	return nil
}

// LoadFrom loads the workspace stored under key.
func (m *Manager) LoadFrom(ctx context.Context, key string) (*LoadResult, error) {
	if m.store == nil {
		return nil, ErrNoStore
	}
	b, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load workspace %s: %w", key, err)
	}
	return m.Load(bytes.NewReader(b))
}
