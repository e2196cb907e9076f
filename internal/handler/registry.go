package handler

import (
	"fmt"
	"sort"
	"strings"
)

// Query scopes a match to the method that produced the failing output.
// Empty fields skip the corresponding layer.
type Query struct {
	// Tool is the catalog tool being installed.
	Tool string
	// Ecosystem is the method's language ecosystem tag, if any.
	Ecosystem string
	// Family is the method's package-manager family tag, if any.
	Family string
}

// Registry holds the four handler layers. Construct it with Builtin and
// AddToolEntries during load; once matching begins it must be treated as
// immutable and is then safe for concurrent use.
type Registry struct {
	infra      []Entry
	families   map[string][]Entry
	ecosystems map[string][]Entry
	tools      map[string][]Entry
}

// NewRegistry builds a registry from explicit layer tables and compiles
// every entry. Most callers want Builtin instead.
func NewRegistry(infra []Entry, families, ecosystems map[string][]Entry) (*Registry, error) {
	r := &Registry{
		infra:      stampLayer(infra, LayerInfra),
		families:   map[string][]Entry{},
		ecosystems: map[string][]Entry{},
		tools:      map[string][]Entry{},
	}
	for name, entries := range families {
		r.families[name] = stampLayer(entries, LayerMethodFamily)
	}
	for name, entries := range ecosystems {
		r.ecosystems[name] = stampLayer(entries, LayerEcosystem)
	}
	if err := r.compile(); err != nil {
		return nil, err
	}
	return r, nil
}

// Builtin returns a registry preloaded with the infrastructure layer and
// the method family and ecosystem tables.
func Builtin() *Registry {
	r, err := NewRegistry(infraEntries(), familyTables(), ecosystemTables())
	if err != nil {
		// Builtin tables are static; a compile failure is a programming
		// error caught by the package tests.
		panic(err)
	}
	return r
}

// AddToolEntries installs recipe-supplied handlers for one tool. It must
// only be called during registry assembly, before Match is used.
func (r *Registry) AddToolEntries(tool string, entries []Entry) error {
	stamped := stampLayer(entries, LayerToolSpecific)
	for i := range stamped {
		if stamped[i].ID == "" {
			stamped[i].ID = fmt.Sprintf("%s/handler-%d", tool, i)
		}
		if err := stamped[i].Compile(); err != nil {
			return err
		}
	}
	r.tools[tool] = append(r.tools[tool], stamped...)
	return nil
}

// Match walks the layers from most to least specific and returns the
// first entry whose signature appears in output. The boolean is false
// only when no layer matched, which for any plausible failure text means
// the infrastructure layer's tables are incomplete.
func (r *Registry) Match(output string, q Query) (*Entry, bool) {
	lower := strings.ToLower(output)
	if q.Tool != "" {
		if e, ok := matchIn(r.tools[q.Tool], lower, output); ok {
			return e, true
		}
	}
	if q.Ecosystem != "" {
		if e, ok := matchIn(r.ecosystems[q.Ecosystem], lower, output); ok {
			return e, true
		}
	}
	if q.Family != "" {
		if e, ok := matchIn(r.families[q.Family], lower, output); ok {
			return e, true
		}
	}
	if e, ok := matchIn(r.infra, lower, output); ok {
		return e, true
	}
	return nil, false
}

// Scenario is a declared failure case used by the coverage matrix.
type Scenario struct {
	EntryID  string
	Layer    Layer
	Category Category
	Sample   string
}

// Scenarios returns the declared failure scenarios in scope for a query:
// every entry with a sample in the tool, ecosystem, family, and infra
// layers the query selects.
func (r *Registry) Scenarios(q Query) []Scenario {
	var out []Scenario
	collect := func(entries []Entry) {
		for _, e := range entries {
			if e.Sample == "" {
				continue
			}
			out = append(out, Scenario{EntryID: e.ID, Layer: e.Layer, Category: e.Category, Sample: e.Sample})
		}
	}
	if q.Tool != "" {
		collect(r.tools[q.Tool])
	}
	if q.Ecosystem != "" {
		collect(r.ecosystems[q.Ecosystem])
	}
	if q.Family != "" {
		collect(r.families[q.Family])
	}
	collect(r.infra)
	return out
}

// Lookup finds an entry by ID across all layers.
func (r *Registry) Lookup(id string) (*Entry, bool) {
	tables := [][]Entry{r.infra}
	for _, t := range r.families {
		tables = append(tables, t)
	}
	for _, t := range r.ecosystems {
		tables = append(tables, t)
	}
	for _, t := range r.tools {
		tables = append(tables, t)
	}
	for _, table := range tables {
		for i := range table {
			if table[i].ID == id {
				return &table[i], true
			}
		}
	}
	return nil, false
}

// FamilyNames returns the method families with builtin tables, sorted.
func (r *Registry) FamilyNames() []string {
	return sortedKeys(r.families)
}

// EcosystemNames returns the ecosystems with builtin tables, sorted.
func (r *Registry) EcosystemNames() []string {
	return sortedKeys(r.ecosystems)
}

// InfraIDs returns the IDs of the infrastructure layer in match order.
func (r *Registry) InfraIDs() []string {
	ids := make([]string, len(r.infra))
	for i := range r.infra {
		ids[i] = r.infra[i].ID
	}
	return ids
}

// DependencyTools returns the sorted set of catalog tools referenced by
// install_dependency options anywhere in the registry. Load-time
// validation uses this to reject registries that point at tools the
// catalog cannot resolve.
func (r *Registry) DependencyTools() []string {
	seen := map[string]bool{}
	collect := func(entries []Entry) {
		for _, e := range entries {
			for _, o := range e.Options {
				if o.Strategy == StrategyInstallDependency && o.Tool != "" {
					seen[o.Tool] = true
				}
			}
		}
	}
	collect(r.infra)
	for _, t := range r.families {
		collect(t)
	}
	for _, t := range r.ecosystems {
		collect(t)
	}
	for _, t := range r.tools {
		collect(t)
	}
	tools := make([]string, 0, len(seen))
	for t := range seen {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return tools
}

func (r *Registry) compile() error {
	for i := range r.infra {
		if err := r.infra[i].Compile(); err != nil {
			return err
		}
	}
	for _, table := range r.families {
		for i := range table {
			if err := table[i].Compile(); err != nil {
				return err
			}
		}
	}
	for _, table := range r.ecosystems {
		for i := range table {
			if err := table[i].Compile(); err != nil {
				return err
			}
		}
	}
	return nil
}

func matchIn(entries []Entry, lower, raw string) (*Entry, bool) {
	for i := range entries {
		if entries[i].matchesLower(lower, raw) {
			return &entries[i], true
		}
	}
	return nil, false
}

func stampLayer(entries []Entry, layer Layer) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	for i := range out {
		out[i].Layer = layer
	}
	return out
}

func sortedKeys(m map[string][]Entry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
