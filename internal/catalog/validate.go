package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/tsukumogami/naosu/internal/handler"
)

var (
	toolNameRe   = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
	githubRepoRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
	// placeholderRe finds {placeholder} tokens in command templates.
	// Lowercase only, so shell constructs like ${HOME} pass through.
	placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)
)

// commandPlaceholders are the tokens RenderCommand knows how to expand.
var commandPlaceholders = map[string]bool{
	"tool":     true,
	"version":  true,
	"os":       true,
	"arch":     true,
	"packages": true,
}

// ValidateRecipe checks a recipe's structure: the method union's
// per-kind required fields, the preference list, version metadata, and
// handler blocks. It returns every problem found rather than stopping at
// the first, so one load reports everything wrong with a file.
func ValidateRecipe(r *Recipe) []ValidationError {
	v := &recipeValidator{name: r.Metadata.Name}

	if r.Metadata.Name == "" {
		v.add("metadata.name", "is required")
	} else if !toolNameRe.MatchString(r.Metadata.Name) {
		v.add("metadata.name", fmt.Sprintf("%q must be lowercase alphanumeric with ._- separators", r.Metadata.Name))
	}
	if r.Metadata.Binary == "" {
		v.add("metadata.binary", "is required")
	}
	if len(r.Methods) == 0 {
		v.add("methods", "at least one install method is required")
	}

	names := map[string]bool{}
	for i := range r.Methods {
		m := &r.Methods[i]
		field := fmt.Sprintf("methods[%d]", i)
		if m.Name == "" {
			v.add(field+".name", "is required")
		} else {
			field = fmt.Sprintf("methods.%s", m.Name)
			if names[m.Name] {
				v.add(field, "duplicate method name")
			}
			names[m.Name] = true
		}
		v.validateMethod(field, m)
	}

	seen := map[string]bool{}
	for _, p := range r.Metadata.Prefer {
		if seen[p] {
			v.add("metadata.prefer", fmt.Sprintf("%q listed twice", p))
		}
		seen[p] = true
		if !names[p] {
			v.add("metadata.prefer", fmt.Sprintf("references unknown method %q", p))
		}
	}

	if r.Version.GitHubRepo != "" && !githubRepoRe.MatchString(r.Version.GitHubRepo) {
		v.add("version.github_repo", fmt.Sprintf("%q is not an owner/repo pair", r.Version.GitHubRepo))
	}
	if r.Version.Constraint != "" {
		if _, err := semver.NewConstraint(r.Version.Constraint); err != nil {
			v.add("version.constraint", fmt.Sprintf("%q does not parse: %v", r.Version.Constraint, err))
		}
	}

	for i, h := range r.Handlers {
		field := fmt.Sprintf("handlers[%d]", i)
		entry := h.Entry(r.Metadata.Name, i)
		for _, problem := range entry.Validate() {
			v.add(field, problem)
		}
		if err := entry.Compile(); err != nil {
			v.add(field+".regexp", err.Error())
		}
	}

	return v.problems
}

type recipeValidator struct {
	name     string
	problems []ValidationError
}

func (v *recipeValidator) add(field, message string) {
	v.problems = append(v.problems, ValidationError{Recipe: v.name, Field: field, Message: message})
}

func (v *recipeValidator) validateMethod(field string, m *MethodSpec) {
	if !m.Kind.Valid() {
		v.add(field+".kind", fmt.Sprintf("unknown kind %q", m.Kind))
		return
	}

	switch m.Kind {
	case KindNativePM:
		if !contains(NativeFamilies, m.Family) {
			v.add(field+".family", fmt.Sprintf("%q is not a native package manager family", m.Family))
		}
		if len(m.Packages) == 0 {
			v.add(field+".packages", "native_pm methods must name at least one package")
		}
	case KindManager:
		if !contains(ManagerFamilies, m.Family) {
			v.add(field+".family", fmt.Sprintf("%q is not an installable manager family", m.Family))
		}
		if m.ManagerTool == "" {
			v.add(field+".manager_tool", "manager methods must name the catalog tool that installs the manager")
		}
		if len(m.Packages) == 0 && m.Command == "" {
			v.add(field+".packages", "manager methods need packages or an explicit command")
		}
	case KindEcosystem:
		if !contains(Ecosystems, m.Ecosystem) {
			v.add(field+".ecosystem", fmt.Sprintf("%q is not a known ecosystem", m.Ecosystem))
		}
		if m.Command == "" {
			v.add(field+".command", "ecosystem methods need an explicit command")
		}
	case KindScript, KindBinary:
		if m.Command == "" && len(m.OSVariants) == 0 {
			v.add(field+".command", fmt.Sprintf("%s methods need an explicit command", m.Kind))
		}
	}

	if m.Kind != KindEcosystem && m.Ecosystem != "" {
		v.add(field+".ecosystem", "only ecosystem methods carry an ecosystem tag")
	}

	for _, cmd := range commandVariants(m) {
		for _, token := range placeholderRe.FindAllStringSubmatch(cmd, -1) {
			if !commandPlaceholders[token[1]] {
				v.add(field+".command", fmt.Sprintf("unknown placeholder {%s}", token[1]))
			}
		}
	}
	for os := range m.OSVariants {
		if os != "linux" && os != "darwin" {
			v.add(field+".os_variants", fmt.Sprintf("unknown operating system %q", os))
		}
	}
	for family := range m.Requires.Packages {
		if !contains(linuxFamilies, family) {
			v.add(field+".requires.packages", fmt.Sprintf("unknown Linux family %q", family))
		}
	}
	for raw, mapped := range m.ArchMap {
		if strings.TrimSpace(raw) == "" || strings.TrimSpace(mapped) == "" {
			v.add(field+".arch_map", "entries must map a non-empty architecture to a non-empty name")
		}
	}
	if m.ArchPassthrough && len(m.ArchMap) == 0 {
		v.add(field+".arch_passthrough", "meaningless without an arch_map")
	}
}

// commandVariants collects every command template a method declares.
func commandVariants(m *MethodSpec) []string {
	var cmds []string
	if m.Command != "" {
		cmds = append(cmds, m.Command)
	}
	for _, v := range m.OSVariants {
		cmds = append(cmds, v)
	}
	return cmds
}

// linuxFamilies are the requires.packages keys recipes may use. They
// match the families a system profile reports.
var linuxFamilies = []string{"debian", "rhel", "arch", "alpine", "suse"}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// crossValidate checks references that span recipes: manager tools and
// install_dependency targets must resolve to catalog recipes, and the
// builtin registry's dependency tools must too. A dangling reference is
// a catalog bug and fails the load.
func crossValidate(c *Catalog, reg *handler.Registry) []ValidationError {
	var problems []ValidationError
	for _, name := range c.Names() {
		r, _ := c.Get(name)
		for _, ref := range r.DependencyRefs() {
			if !c.Has(ref) {
				problems = append(problems, ValidationError{
					Recipe:  name,
					Field:   "install_dependency",
					Message: fmt.Sprintf("references tool %q, which has no recipe", ref),
				})
			}
		}
	}
	if reg != nil {
		for _, ref := range reg.DependencyTools() {
			if !c.Has(ref) {
				problems = append(problems, ValidationError{
					Field:   "handlers",
					Message: fmt.Sprintf("builtin handlers reference tool %q, which has no recipe", ref),
				})
			}
		}
	}
	return problems
}
