// Package catalog loads, validates, and serves install recipes. A recipe
// describes every way a tool can be installed: one MethodSpec per route
// (native package manager, installable manager, language ecosystem,
// installer script, or release binary), a preference order, optional
// version metadata, and tool-specific failure handlers.
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tsukumogami/naosu/internal/handler"
)

// Kind discriminates the method union. Each kind carries its own required
// fields, enforced at load time.
type Kind string

const (
	// KindNativePM installs through the distribution's package manager.
	KindNativePM Kind = "native_pm"
	// KindManager installs through a manager that is itself installable,
	// such as Homebrew or snapd.
	KindManager Kind = "manager"
	// KindEcosystem installs through a language package manager.
	KindEcosystem Kind = "ecosystem"
	// KindScript runs an upstream installer script.
	KindScript Kind = "script"
	// KindBinary downloads a release binary or archive.
	KindBinary Kind = "binary"
)

// Kinds lists every valid method kind.
var Kinds = []Kind{KindNativePM, KindManager, KindEcosystem, KindScript, KindBinary}

// Valid reports whether k is a known method kind.
func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if k == v {
			return true
		}
	}
	return false
}

// NativeFamilies are the package-manager families KindNativePM accepts.
var NativeFamilies = []string{"apt", "dnf", "pacman", "apk", "zypper"}

// ManagerFamilies are the families KindManager accepts.
var ManagerFamilies = []string{"brew", "snap"}

// Ecosystems are the language ecosystems KindEcosystem accepts. They
// mirror the handler registry's ecosystem tables.
var Ecosystems = []string{"python", "node", "rust", "go", "ruby"}

// Requires lists what must already be present before a method can run.
// Binaries gates availability: a missing binary makes the method Locked.
// Packages names prerequisite system packages per Linux family; they are
// surfaced in plans but do not gate availability.
type Requires struct {
	Binaries []string            `toml:"binaries,omitempty"`
	Packages map[string][]string `toml:"packages,omitempty"`
}

// MethodSpec is one install route for a tool.
type MethodSpec struct {
	// Name identifies the method within its recipe.
	Name string `toml:"name"`
	// Kind selects which fields below are meaningful.
	Kind Kind `toml:"kind"`
	// Family tags the method for the handler registry's method family
	// layer. Required for native_pm and manager kinds; script and binary
	// kinds default to their kind name.
	Family string `toml:"family,omitempty"`
	// Ecosystem tags ecosystem methods for the handler registry's
	// ecosystem layer (python, node, rust, go, ruby).
	Ecosystem string `toml:"ecosystem,omitempty"`
	// Packages are the package-manager package names for native_pm and
	// manager methods.
	Packages []string `toml:"packages,omitempty"`
	// Command is the install command template. Optional for native_pm
	// and manager methods, which derive a default from their family.
	// Templates may reference {tool}, {version}, {os}, and {arch}.
	Command string `toml:"command,omitempty"`
	// OSVariants overrides Command per operating system.
	OSVariants map[string]string `toml:"os_variants,omitempty"`
	// NeedsSudo marks commands that must run elevated.
	NeedsSudo bool `toml:"needs_sudo,omitempty"`
	// RequiresInit names an init system the method depends on, such as
	// systemd for snap.
	RequiresInit string `toml:"requires_init,omitempty"`
	// ManagerBinary is the binary that proves a manager-kind method's
	// manager is installed. Defaults to the family name.
	ManagerBinary string `toml:"manager_binary,omitempty"`
	// ManagerTool is the catalog tool that installs the manager when it
	// is absent.
	ManagerTool string `toml:"manager_tool,omitempty"`
	// Requires lists prerequisites beyond the manager itself.
	Requires Requires `toml:"requires,omitempty"`
	// ArchMap translates Go architecture names to the names upstream
	// release assets use (amd64 -> x86_64). An empty map passes the
	// architecture through unchanged.
	ArchMap map[string]string `toml:"arch_map,omitempty"`
	// ArchPassthrough, with a non-empty ArchMap, passes unmapped
	// architectures through instead of rejecting them.
	ArchPassthrough bool `toml:"arch_passthrough,omitempty"`
}

// normalize fills the defaults the TOML form leaves implicit.
func (m *MethodSpec) normalize() {
	switch m.Kind {
	case KindScript:
		if m.Family == "" {
			m.Family = "script"
		}
	case KindBinary:
		if m.Family == "" {
			m.Family = "binary"
		}
	case KindManager:
		if m.ManagerBinary == "" {
			m.ManagerBinary = m.Family
		}
	}
}

// WritesSystemArea reports whether the method writes outside the user's
// home directory. Native and manager installs always touch the system
// area; other kinds only when they run elevated.
func (m *MethodSpec) WritesSystemArea() bool {
	if m.NeedsSudo {
		return true
	}
	return m.Kind == KindNativePM || m.Kind == KindManager
}

// CommandFor returns the command template for the given operating
// system: the OS variant when one exists, the explicit command
// otherwise, falling back to the family default for package-manager
// methods.
func (m *MethodSpec) CommandFor(os string) string {
	if v, ok := m.OSVariants[os]; ok {
		return v
	}
	if m.Command != "" {
		return m.Command
	}
	if tmpl, ok := familyCommands[m.Family]; ok && (m.Kind == KindNativePM || m.Kind == KindManager) {
		return strings.ReplaceAll(tmpl, "{packages}", strings.Join(m.Packages, " "))
	}
	return ""
}

// NeedsVersion reports whether the method's command for the given
// operating system references a release version.
func (m *MethodSpec) NeedsVersion(os string) bool {
	return strings.Contains(m.CommandFor(os), "{version}")
}

// familyCommands are the default install command templates per
// package-manager family.
var familyCommands = map[string]string{
	"apt":    "apt-get install -y {packages}",
	"dnf":    "dnf install -y {packages}",
	"pacman": "pacman -S --noconfirm {packages}",
	"apk":    "apk add {packages}",
	"zypper": "zypper install -y {packages}",
	"brew":   "brew install {packages}",
	"snap":   "snap install {packages}",
}

// MetadataSection identifies the tool and fixes the method preference
// order.
type MetadataSection struct {
	Name        string `toml:"name"`
	Binary      string `toml:"binary"`
	Description string `toml:"description,omitempty"`
	Homepage    string `toml:"homepage,omitempty"`
	// Prefer is the authoritative method order. Methods it omits are
	// never auto-selected; an empty list falls back to declaration
	// order.
	Prefer []string `toml:"prefer,omitempty"`
}

// VersionSection says where release versions come from.
type VersionSection struct {
	// GitHubRepo is the "owner/repo" whose releases are consulted when a
	// command template needs {version}.
	GitHubRepo string `toml:"github_repo,omitempty"`
	// Constraint restricts acceptable versions, in semver range syntax.
	Constraint string `toml:"constraint,omitempty"`
}

// HandlerSpec is a tool-specific failure handler as written in a recipe.
type HandlerSpec struct {
	Patterns []string         `toml:"patterns,omitempty"`
	Regexp   string           `toml:"regexp,omitempty"`
	Category string           `toml:"category"`
	Sample   string           `toml:"sample,omitempty"`
	Options  []handler.Option `toml:"options"`
}

// Entry converts the spec into a registry entry for the given tool.
func (h HandlerSpec) Entry(tool string, idx int) handler.Entry {
	patterns := make([]string, len(h.Patterns))
	for i, p := range h.Patterns {
		patterns[i] = strings.ToLower(p)
	}
	return handler.Entry{
		ID:       fmt.Sprintf("%s/handler-%d", tool, idx),
		Category: handler.Category(h.Category),
		Patterns: patterns,
		Regexp:   h.Regexp,
		Sample:   h.Sample,
		Options:  h.Options,
	}
}

// Recipe describes every install route for one tool.
type Recipe struct {
	Metadata MetadataSection `toml:"metadata"`
	Version  VersionSection  `toml:"version,omitempty"`
	Methods  []MethodSpec    `toml:"methods"`
	Handlers []HandlerSpec   `toml:"handlers,omitempty"`
}

// Name returns the tool name.
func (r *Recipe) Name() string { return r.Metadata.Name }

// Binary returns the binary the tool installs.
func (r *Recipe) Binary() string { return r.Metadata.Binary }

// Method looks up a method by name.
func (r *Recipe) Method(name string) (*MethodSpec, bool) {
	for i := range r.Methods {
		if r.Methods[i].Name == name {
			return &r.Methods[i], true
		}
	}
	return nil, false
}

// MethodNames returns the method names in declaration order.
func (r *Recipe) MethodNames() []string {
	names := make([]string, len(r.Methods))
	for i := range r.Methods {
		names[i] = r.Methods[i].Name
	}
	return names
}

// PreferOrder returns the authoritative selection order: the prefer list
// when present, declaration order otherwise.
func (r *Recipe) PreferOrder() []string {
	if len(r.Metadata.Prefer) > 0 {
		return r.Metadata.Prefer
	}
	return r.MethodNames()
}

// HandlerEntries converts the recipe's handler specs into registry
// entries.
func (r *Recipe) HandlerEntries() []handler.Entry {
	if len(r.Handlers) == 0 {
		return nil
	}
	entries := make([]handler.Entry, len(r.Handlers))
	for i, h := range r.Handlers {
		entries[i] = h.Entry(r.Name(), i)
	}
	return entries
}

// DependencyRefs returns the catalog tools this recipe references:
// manager tools and install_dependency handler options. They must all
// resolve at load time.
func (r *Recipe) DependencyRefs() []string {
	seen := map[string]bool{}
	for _, m := range r.Methods {
		if m.Kind == KindManager && m.ManagerTool != "" {
			seen[m.ManagerTool] = true
		}
	}
	for _, h := range r.Handlers {
		for _, o := range h.Options {
			if o.Strategy == handler.StrategyInstallDependency && o.Tool != "" {
				seen[o.Tool] = true
			}
		}
	}
	refs := make([]string, 0, len(seen))
	for t := range seen {
		refs = append(refs, t)
	}
	sort.Strings(refs)
	return refs
}
