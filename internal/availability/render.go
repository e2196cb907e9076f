package availability

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tsukumogami/naosu/internal/catalog"
	"github.com/tsukumogami/naosu/internal/sysprofile"
)

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// RenderCommand expands a method's command template into the literal
// command to run on a machine. {tool}, {os}, {arch}, and {packages}
// come from the recipe and profile; {version} comes from the caller,
// who resolves it only for templates that reference it. The profile's
// architecture is translated through the method's arch_map first.
//
// A template that cannot be fully expanded is a configuration error,
// never a runnable command.
func RenderCommand(rec *catalog.Recipe, m *catalog.MethodSpec, prof *sysprofile.Profile, version string) (string, error) {
	renderErr := func(field, message string) error {
		return &catalog.ConfigurationError{
			Source: "recipe " + rec.Name(),
			Problems: []catalog.ValidationError{
				{Recipe: rec.Name(), Field: "methods." + m.Name + "." + field, Message: message},
			},
		}
	}

	tmpl := m.CommandFor(prof.OS)
	if tmpl == "" {
		return "", renderErr("command", fmt.Sprintf("no command for operating system %q", prof.OS))
	}

	arch := prof.Arch
	if len(m.ArchMap) > 0 {
		mapped, ok := m.ArchMap[arch]
		switch {
		case ok:
			arch = mapped
		case !m.ArchPassthrough:
			return "", renderErr("arch_map", fmt.Sprintf("no entry for architecture %q", arch))
		}
	}

	if strings.Contains(tmpl, "{version}") && version == "" {
		return "", renderErr("command", "references {version} but no version was resolved")
	}

	cmd := strings.NewReplacer(
		"{tool}", rec.Name(),
		"{version}", version,
		"{os}", prof.OS,
		"{arch}", arch,
		"{packages}", strings.Join(m.Packages, " "),
	).Replace(tmpl)

	if leftover := placeholderRe.FindString(cmd); leftover != "" {
		return "", renderErr("command", fmt.Sprintf("unexpanded placeholder %s", leftover))
	}
	return cmd, nil
}
