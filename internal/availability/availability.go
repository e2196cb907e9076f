// Package availability decides which of a tool's install methods are
// usable on a given machine. Resolve grades one method against a system
// profile as ready, locked behind a missing prerequisite, or impossible;
// Select picks the method to attempt from those grades.
//
// Resolution is a pure function of the recipe and the profile. It never
// touches the live system, so a profile snapshot taken at startup gives
// the same answers for the whole run.
package availability

import (
	"fmt"

	"github.com/tsukumogami/naosu/internal/catalog"
	"github.com/tsukumogami/naosu/internal/sysprofile"
)

// State grades one install method on one machine.
type State string

const (
	// StateReady means the method can run right now.
	StateReady State = "ready"
	// StateLocked means the method needs a prerequisite installed first.
	// The status carries the unlock action.
	StateLocked State = "locked"
	// StateImpossible means a structural gate fails: no amount of
	// installing prerequisites makes the method usable on this machine.
	StateImpossible State = "impossible"
)

// Unlock describes what a locked method is waiting for.
type Unlock struct {
	// Binary is the missing command.
	Binary string `json:"binary"`
	// Tool is the catalog tool that provides the binary, when the recipe
	// names one. The chain resolver fills it in from the catalog's binary
	// index otherwise.
	Tool string `json:"tool,omitempty"`
	// Reason explains the lock in one line.
	Reason string `json:"reason"`
}

// Status is the availability of one method on one machine.
type Status struct {
	Method string  `json:"method"`
	State  State   `json:"state"`
	Reason string  `json:"reason,omitempty"`
	Unlock *Unlock `json:"unlock,omitempty"`
}

// Ready reports whether the method can run right now.
func (s Status) Ready() bool { return s.State == StateReady }

// Resolve grades one method of a recipe against a profile. Gates are
// checked in a fixed priority order and the first failing gate decides
// the status:
//
//  1. native package manager absent: impossible
//  2. installable manager binary absent: locked on the manager's tool
//  3. required init system not running: impossible
//  4. required binary absent: locked on that binary
//  5. target write area read-only: impossible
//  6. architecture not in arch_map and no passthrough: impossible
//
// A method that passes every gate is ready. A missing prerequisite or
// read-only filesystem must never grade ready; that is the invariant
// everything downstream leans on.
//
// A structurally broken method spec is a configuration error, not a
// grade. Recipes loaded through the catalog are already validated, so
// that path only fires for hand-built specs.
func Resolve(rec *catalog.Recipe, method string, prof *sysprofile.Profile) (Status, error) {
	m, ok := rec.Method(method)
	if !ok {
		return Status{}, &catalog.UnknownMethodError{Tool: rec.Name(), Method: method}
	}
	if err := checkSpec(rec.Name(), m); err != nil {
		return Status{}, err
	}

	if m.Kind == catalog.KindNativePM && !prof.HasPackageManager(m.Family) {
		return impossible(method, fmt.Sprintf("%s is not available on this system", m.Family)), nil
	}

	if m.Kind == catalog.KindManager && !prof.HasBinary(m.ManagerBinary) {
		return locked(method, &Unlock{
			Binary: m.ManagerBinary,
			Tool:   m.ManagerTool,
			Reason: fmt.Sprintf("%s is not installed", m.ManagerBinary),
		}), nil
	}

	if m.RequiresInit != "" && !prof.HasInit(m.RequiresInit) {
		return impossible(method, fmt.Sprintf("requires %s, which is not running here", m.RequiresInit)), nil
	}

	for _, bin := range m.Requires.Binaries {
		if !prof.HasBinary(bin) {
			return locked(method, &Unlock{
				Binary: bin,
				Reason: fmt.Sprintf("requires %s, which is not installed", bin),
			}), nil
		}
	}

	if m.WritesSystemArea() {
		if !prof.FilesystemWritable {
			return impossible(method, "the system area is read-only"), nil
		}
	} else if !prof.HomeWritable {
		return impossible(method, "the home directory is not writable"), nil
	}

	if len(m.ArchMap) > 0 && !m.ArchPassthrough {
		if _, ok := m.ArchMap[prof.Arch]; !ok {
			return impossible(method, fmt.Sprintf("no release for architecture %s", prof.Arch)), nil
		}
	}

	return Status{Method: method, State: StateReady}, nil
}

// Statuses grades every declared method of a recipe against a profile,
// keyed by method name.
func Statuses(rec *catalog.Recipe, prof *sysprofile.Profile) (map[string]Status, error) {
	out := make(map[string]Status, len(rec.Methods))
	for _, name := range rec.MethodNames() {
		st, err := Resolve(rec, name, prof)
		if err != nil {
			return nil, err
		}
		out[name] = st
	}
	return out, nil
}

// checkSpec rejects method specs the gates cannot reason about. It
// repeats the cheap structural subset of catalog validation so Resolve
// fails loudly on specs that never went through a catalog load.
func checkSpec(tool string, m *catalog.MethodSpec) error {
	problem := func(field, message string) error {
		return &catalog.ConfigurationError{
			Source: "recipe " + tool,
			Problems: []catalog.ValidationError{
				{Recipe: tool, Field: "methods." + m.Name + "." + field, Message: message},
			},
		}
	}
	switch m.Kind {
	case catalog.KindNativePM:
		if m.Family == "" {
			return problem("family", "native_pm methods must name their package manager family")
		}
	case catalog.KindManager:
		if m.ManagerBinary == "" {
			return problem("manager_binary", "manager methods must name the manager binary")
		}
	case catalog.KindEcosystem, catalog.KindScript, catalog.KindBinary:
	default:
		return problem("kind", fmt.Sprintf("unknown kind %q", m.Kind))
	}
	return nil
}

func locked(method string, u *Unlock) Status {
	return Status{Method: method, State: StateLocked, Reason: u.Reason, Unlock: u}
}

func impossible(method, reason string) Status {
	return Status{Method: method, State: StateImpossible, Reason: reason}
}
