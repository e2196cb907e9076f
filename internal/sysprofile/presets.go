package sysprofile

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed presets/*.yaml
var embeddedPresets embed.FS

// LoadPresets parses all embedded preset profiles, keyed by preset name.
// Presets describe representative machines (stock Ubuntu desktop, minimal
// Alpine container, macOS without brew) for tests and coverage runs.
func LoadPresets() (map[string]*Profile, error) {
	entries, err := embeddedPresets.ReadDir("presets")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded presets: %w", err)
	}

	presets := make(map[string]*Profile, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		data, err := embeddedPresets.ReadFile("presets/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read preset %s: %w", entry.Name(), err)
		}

		var p Profile
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse preset %s: %w", entry.Name(), err)
		}
		if p.Name == "" {
			p.Name = strings.TrimSuffix(entry.Name(), ".yaml")
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}

		presets[p.Name] = &p
	}

	return presets, nil
}

// Preset returns a single embedded preset by name.
func Preset(name string) (*Profile, error) {
	presets, err := LoadPresets()
	if err != nil {
		return nil, err
	}
	p, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %s)",
			name, strings.Join(PresetNames(presets), ", "))
	}
	return p, nil
}

// PresetNames returns sorted preset names for error messages and listings.
func PresetNames(presets map[string]*Profile) []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
