package catalog

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/tsukumogami/naosu/internal/config"
)

//go:embed recipes/*.toml
var embeddedRecipes embed.FS

// Parse decodes a single recipe from TOML. Unknown keys are rejected so
// typos surface at load time instead of silently changing behavior.
func Parse(data []byte, source string) (*Recipe, error) {
	var r Recipe
	meta, err := toml.Decode(string(data), &r)
	if err != nil {
		return nil, &ConfigurationError{Source: source, Problems: []ValidationError{
			{Field: "toml", Message: err.Error()},
		}}
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, &ConfigurationError{Source: source, Problems: []ValidationError{
			{Recipe: r.Metadata.Name, Field: "toml", Message: fmt.Sprintf("unknown keys: %s", strings.Join(keys, ", "))},
		}}
	}
	return &r, nil
}

// Embedded loads the recipes compiled into the binary.
func Embedded() (*Catalog, error) {
	entries, err := embeddedRecipes.ReadDir("recipes")
	if err != nil {
		return nil, fmt.Errorf("reading embedded recipes: %w", err)
	}
	var recipes []*Recipe
	for _, entry := range entries {
		data, err := embeddedRecipes.ReadFile("recipes/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading embedded recipe %s: %w", entry.Name(), err)
		}
		r, err := Parse(data, "embedded:"+entry.Name())
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	return New("embedded", recipes)
}

// LoadDir loads every *.toml recipe in dir. A missing directory yields
// an empty catalog; anything else that goes wrong is an error.
func LoadDir(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return New(dir, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("reading catalog dir %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var recipes []*Recipe
	var problems []ValidationError
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading recipe %s: %w", path, err)
		}
		r, err := Parse(data, path)
		if err != nil {
			var cfgErr *ConfigurationError
			if errors.As(err, &cfgErr) {
				problems = append(problems, cfgErr.Problems...)
				continue
			}
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if len(problems) > 0 {
		return nil, &ConfigurationError{Source: dir, Problems: problems}
	}
	return New(dir, recipes)
}

// Load assembles the full catalog: embedded recipes, overlaid with the
// user catalog directory, overlaid with NAOSU_CATALOG_DIR when set.
// Later layers shadow earlier ones by tool name.
func Load(cfg *config.Config) (*Catalog, error) {
	cat, err := Embedded()
	if err != nil {
		return nil, err
	}
	if cfg != nil && cfg.CatalogDir != "" {
		user, err := LoadDir(cfg.CatalogDir)
		if err != nil {
			return nil, err
		}
		cat = cat.Merge(user)
	}
	if extra := config.GetCatalogDir(); extra != "" {
		overlay, err := LoadDir(extra)
		if err != nil {
			return nil, err
		}
		cat = cat.Merge(overlay)
	}
	return cat, nil
}
