package catalog

import (
	"sort"

	"github.com/tsukumogami/naosu/internal/handler"
)

// Catalog is an immutable set of validated recipes keyed by tool name.
type Catalog struct {
	recipes  map[string]*Recipe
	byBinary map[string]string
}

// New builds a catalog from recipes, validating each. Problems across
// all recipes are aggregated into a single ConfigurationError so one
// load reports every broken recipe. Later duplicates override earlier
// ones, which is how user catalogs shadow embedded recipes.
func New(source string, recipes []*Recipe) (*Catalog, error) {
	c := &Catalog{
		recipes:  make(map[string]*Recipe, len(recipes)),
		byBinary: make(map[string]string, len(recipes)),
	}
	var problems []ValidationError
	for _, r := range recipes {
		problems = append(problems, ValidateRecipe(r)...)
		if r.Metadata.Name == "" {
			continue
		}
		for i := range r.Methods {
			r.Methods[i].normalize()
		}
		c.recipes[r.Metadata.Name] = r
	}
	if len(problems) > 0 {
		return nil, &ConfigurationError{Source: source, Problems: problems}
	}
	c.indexBinaries()
	return c, nil
}

func (c *Catalog) indexBinaries() {
	c.byBinary = make(map[string]string, len(c.recipes))
	for name, r := range c.recipes {
		bin := r.Metadata.Binary
		// Prefer the recipe named after its binary when several provide
		// the same one.
		if existing, ok := c.byBinary[bin]; ok && existing == bin {
			continue
		}
		if name == bin {
			c.byBinary[bin] = name
			continue
		}
		if _, ok := c.byBinary[bin]; !ok {
			c.byBinary[bin] = name
		}
	}
}

// Get returns the recipe for a tool, or a NotFoundError.
func (c *Catalog) Get(name string) (*Recipe, error) {
	r, ok := c.recipes[name]
	if !ok {
		return nil, &NotFoundError{Tool: name}
	}
	return r, nil
}

// Has reports whether the catalog carries a recipe for the tool.
func (c *Catalog) Has(name string) bool {
	_, ok := c.recipes[name]
	return ok
}

// Names returns all tool names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.recipes))
	for name := range c.recipes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of recipes.
func (c *Catalog) Len() int { return len(c.recipes) }

// ToolForBinary finds the tool whose recipe installs the given binary.
// Missing prerequisites are reported as binaries; this turns them back
// into installable tools.
func (c *Catalog) ToolForBinary(bin string) (string, bool) {
	name, ok := c.byBinary[bin]
	return name, ok
}

// ToolEntries returns the tool-specific handler entries of every recipe,
// ready for registry assembly.
func (c *Catalog) ToolEntries() map[string][]handler.Entry {
	out := map[string][]handler.Entry{}
	for name, r := range c.recipes {
		if entries := r.HandlerEntries(); len(entries) > 0 {
			out[name] = entries
		}
	}
	return out
}

// Merge returns a catalog with other's recipes laid over c's. Recipes in
// other shadow same-named recipes in c. Both inputs stay usable.
func (c *Catalog) Merge(other *Catalog) *Catalog {
	merged := &Catalog{recipes: make(map[string]*Recipe, len(c.recipes)+len(other.recipes))}
	for name, r := range c.recipes {
		merged.recipes[name] = r
	}
	for name, r := range other.recipes {
		merged.recipes[name] = r
	}
	merged.indexBinaries()
	return merged
}

// Validate checks cross-recipe references: every tool named by an
// install_dependency option or a manager method must have a recipe, in
// this catalog, including the tools the builtin registry depends on.
func (c *Catalog) Validate(reg *handler.Registry) error {
	if problems := crossValidate(c, reg); len(problems) > 0 {
		return &ConfigurationError{Source: "catalog", Problems: problems}
	}
	return nil
}

// BuildRegistry assembles the handler registry this catalog resolves
// against: the builtin layers plus every recipe's tool-specific
// entries, cross-validated so no handler can name a tool the catalog
// cannot install.
func (c *Catalog) BuildRegistry() (*handler.Registry, error) {
	reg := handler.Builtin()
	for tool, entries := range c.ToolEntries() {
		if err := reg.AddToolEntries(tool, entries); err != nil {
			return nil, err
		}
	}
	if err := c.Validate(reg); err != nil {
		return nil, err
	}
	return reg, nil
}
