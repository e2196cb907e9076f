package handler

import (
	"strings"
	"testing"
)

func TestInfraClassification(t *testing.T) {
	reg := Builtin()

	tests := []struct {
		name   string
		output string
		wantID string
	}{
		{
			name:   "dns failure",
			output: "curl: (6) Could not resolve host: github.com",
			wantID: InfraNetworkUnreachable,
		},
		{
			name:   "unreachable network",
			output: "connect: Network is unreachable",
			wantID: InfraNetworkUnreachable,
		},
		{
			name:   "tls interception",
			output: "curl: (60) SSL certificate problem: self-signed certificate in certificate chain",
			wantID: InfraNetworkBlocked,
		},
		{
			name:   "proxy denial",
			output: "The requested URL returned error: 403 Forbidden",
			wantID: InfraNetworkBlocked,
		},
		{
			name:   "disk full",
			output: "tar: ./rg: Cannot write: No space left on device",
			wantID: InfraDiskFull,
		},
		{
			name:   "read-only root",
			output: "mkdir: cannot create directory '/usr/local/bin': Read-only file system",
			wantID: InfraReadOnlyFS,
		},
		{
			name:   "sudo not installed",
			output: "sh: 1: sudo: not found",
			wantID: InfraSudoMissing,
		},
		{
			name:   "sudo without terminal",
			output: "sudo: a terminal is required to read the password",
			wantID: InfraSudoAuthFailed,
		},
		{
			name:   "wrong password",
			output: "sudo: 3 incorrect password attempts",
			wantID: InfraSudoAuthFailed,
		},
		{
			name:   "plain permission failure",
			output: "install: cannot create regular file '/usr/local/bin/jq': Permission denied",
			wantID: InfraPermissionDenied,
		},
		{
			name:   "oom killed build",
			output: "error: could not compile `regex` (lib): signal: killed",
			wantID: InfraOOMKilled,
		},
		{
			name:   "timed out command",
			output: "command timed out after 5m0s",
			wantID: InfraTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok := reg.Match(tt.output, Query{})
			if !ok {
				t.Fatalf("Match(%q) found nothing, want %s", tt.output, tt.wantID)
			}
			if entry.ID != tt.wantID {
				t.Errorf("Match(%q) = %s, want %s", tt.output, entry.ID, tt.wantID)
			}
			if entry.Layer != LayerInfra {
				t.Errorf("entry %s layer = %s, want infra", entry.ID, entry.Layer)
			}
		})
	}
}

// Specific signatures must outrank the generic permission and network
// entries, which match very broad substrings.
func TestInfraOrdering(t *testing.T) {
	reg := Builtin()

	tests := []struct {
		output string
		wantID string
	}{
		// "Read-only file system" failures usually mention the denied
		// path too; the read-only entry must claim them.
		{"open /usr/bin/rg: Read-only file system: permission denied", InfraReadOnlyFS},
		// sudo auth failures say "password", not a bare permission error.
		{"sudo: a password is required\nsudo: unable to run command: Permission denied", InfraSudoAuthFailed},
		// The timeout marker is appended deliberately; it wins over the
		// kill signal text the interrupted child printed.
		{"error: could not compile `regex` (lib): signal: killed\ncommand timed out after 2m0s", InfraTimeout},
	}

	for _, tt := range tests {
		entry, ok := reg.Match(tt.output, Query{})
		if !ok {
			t.Fatalf("Match(%q) found nothing", tt.output)
		}
		if entry.ID != tt.wantID {
			t.Errorf("Match(%q) = %s, want %s", tt.output, entry.ID, tt.wantID)
		}
	}
}

func TestMatchLayerPrecedence(t *testing.T) {
	reg := Builtin()

	// The same EACCES output classifies differently depending on how
	// much context the query carries.
	output := "npm ERR! code EACCES\nnpm ERR! syscall access\nnpm ERR! path /usr/lib/node_modules"

	entry, ok := reg.Match(output, Query{Ecosystem: "node"})
	if !ok || entry.ID != "node/global_eacces" {
		t.Fatalf("with ecosystem: got %v, want node/global_eacces", entry)
	}
	entry, ok = reg.Match(output, Query{})
	if !ok || entry.ID != InfraPermissionDenied {
		t.Fatalf("without ecosystem: got %v, want %s", entry, InfraPermissionDenied)
	}

	// Tool-specific entries outrank everything.
	if err := reg.AddToolEntries("mytool", []Entry{{
		ID:       "mytool/eacces",
		Category: CategoryPermissions,
		Patterns: []string{"npm err! code eacces"},
		Options:  []Option{{Strategy: StrategyManual, Instruction: "reinstall mytool"}},
	}}); err != nil {
		t.Fatalf("AddToolEntries: %v", err)
	}
	entry, ok = reg.Match(output, Query{Tool: "mytool", Ecosystem: "node"})
	if !ok || entry.ID != "mytool/eacces" {
		t.Fatalf("with tool entry: got %v, want mytool/eacces", entry)
	}
	if entry.Layer != LayerToolSpecific {
		t.Errorf("layer = %s, want tool", entry.Layer)
	}

	// Other tools are unaffected.
	entry, _ = reg.Match(output, Query{Tool: "othertool", Ecosystem: "node"})
	if entry.ID != "node/global_eacces" {
		t.Errorf("other tool leaked into mytool's entries: got %s", entry.ID)
	}

	// A family query whose table has no matching pattern still falls
	// through to the infra layer.
	entry, ok = reg.Match("tar: can't create directory 'usr/bin': Read-only file system", Query{Family: "apk"})
	if !ok || entry.ID != InfraReadOnlyFS {
		t.Fatalf("apk fall-through: got %v, want %s", entry, InfraReadOnlyFS)
	}
}

func TestMatchDeterministic(t *testing.T) {
	reg := Builtin()
	output := "E: Unable to locate package ripgrep"
	q := Query{Family: "apt"}

	first, ok := reg.Match(output, q)
	if !ok {
		t.Fatal("no match")
	}
	for i := 0; i < 10; i++ {
		again, ok := reg.Match(output, q)
		if !ok || again.ID != first.ID {
			t.Fatalf("iteration %d: got %v, want %s", i, again, first.ID)
		}
	}
}

// Every builtin sample must classify back to its own entry when matched
// with the query scope the entry lives in. This keeps the samples honest
// as the tables grow: a new entry that shadows an older one's sample
// shows up here immediately.
func TestSamplesRoundTrip(t *testing.T) {
	reg := Builtin()

	for _, e := range infraEntries() {
		entry, ok := reg.Match(e.Sample, Query{})
		if !ok {
			t.Errorf("infra %s: sample did not match anything", e.ID)
			continue
		}
		if entry.ID != e.ID {
			t.Errorf("infra %s: sample classified as %s", e.ID, entry.ID)
		}
	}
	for family, entries := range familyTables() {
		for _, e := range entries {
			entry, ok := reg.Match(e.Sample, Query{Family: family})
			if !ok {
				t.Errorf("%s: sample did not match anything", e.ID)
				continue
			}
			if entry.ID != e.ID {
				t.Errorf("%s: sample classified as %s", e.ID, entry.ID)
			}
		}
	}
	for eco, entries := range ecosystemTables() {
		for _, e := range entries {
			entry, ok := reg.Match(e.Sample, Query{Ecosystem: eco})
			if !ok {
				t.Errorf("%s: sample did not match anything", e.ID)
				continue
			}
			if entry.ID != e.ID {
				t.Errorf("%s: sample classified as %s", e.ID, entry.ID)
			}
		}
	}
}

// Builtin entries must be structurally sound: lowercase patterns, known
// categories and strategies, strategy-specific fields present, and every
// entry carries a sample for the coverage matrix.
func TestBuiltinTablesValid(t *testing.T) {
	check := func(t *testing.T, e Entry) {
		t.Helper()
		if problems := e.Validate(); len(problems) > 0 {
			t.Errorf("%s: %s", e.ID, strings.Join(problems, "; "))
		}
		if e.ID == "" {
			t.Error("entry without ID")
		}
		if e.Sample == "" {
			t.Errorf("%s: no sample", e.ID)
		}
		if !e.Matches(e.Sample) {
			t.Errorf("%s: entry does not match its own sample", e.ID)
		}
	}

	for _, e := range infraEntries() {
		check(t, e)
	}
	for _, entries := range familyTables() {
		for _, e := range entries {
			check(t, e)
		}
	}
	for _, entries := range ecosystemTables() {
		for _, e := range entries {
			check(t, e)
		}
	}
}

// Every infra entry needs at least one option that works on any profile:
// a manual instruction, an environment fix, or a plain retry. Options
// that need sudo or another install are conditional on the system.
func TestInfraAlwaysActionable(t *testing.T) {
	for _, e := range infraEntries() {
		actionable := false
		for _, o := range e.Options {
			switch o.Strategy {
			case StrategyManual, StrategyFixEnvironment, StrategyRetryModified:
				actionable = true
			}
		}
		if !actionable {
			t.Errorf("%s: every option depends on system state", e.ID)
		}
	}
}

func TestEntryValidate(t *testing.T) {
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{
			name:  "no patterns",
			entry: Entry{Category: CategoryNetwork, Options: []Option{{Strategy: StrategyManual, Instruction: "x"}}},
			want:  "no patterns",
		},
		{
			name: "uppercase pattern",
			entry: Entry{
				Category: CategoryNetwork,
				Patterns: []string{"Connection Refused"},
				Options:  []Option{{Strategy: StrategyManual, Instruction: "x"}},
			},
			want: "must be lowercase",
		},
		{
			name:  "unknown category",
			entry: Entry{Category: "weather", Patterns: []string{"rain"}, Options: []Option{{Strategy: StrategyManual, Instruction: "x"}}},
			want:  "unknown category",
		},
		{
			name:  "no options",
			entry: Entry{Category: CategoryNetwork, Patterns: []string{"x"}},
			want:  "no options",
		},
		{
			name: "dependency without tool",
			entry: Entry{
				Category: CategoryDependency,
				Patterns: []string{"x"},
				Options:  []Option{{Strategy: StrategyInstallDependency}},
			},
			want: "requires a tool",
		},
		{
			name: "manual without text",
			entry: Entry{
				Category: CategoryDependency,
				Patterns: []string{"x"},
				Options:  []Option{{Strategy: StrategyManual}},
			},
			want: "requires instruction text",
		},
		{
			name: "unknown strategy",
			entry: Entry{
				Category: CategoryDependency,
				Patterns: []string{"x"},
				Options:  []Option{{Strategy: "reboot"}},
			},
			want: "unknown strategy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := tt.entry.Validate()
			found := false
			for _, p := range problems {
				if strings.Contains(p, tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("Validate() = %v, want a problem containing %q", problems, tt.want)
			}
		})
	}

	good := Entry{
		Category: CategoryNetwork,
		Patterns: []string{"connection refused"},
		Options:  []Option{{Strategy: StrategyManual, Instruction: "check the network"}},
	}
	if problems := good.Validate(); len(problems) != 0 {
		t.Errorf("valid entry reported problems: %v", problems)
	}
}

func TestEntryRegexp(t *testing.T) {
	e := Entry{
		ID:       "test/regexp",
		Category: CategoryCompatibility,
		Regexp:   `requires rustc 1\.\d+`,
		Options:  []Option{{Strategy: StrategyManual, Instruction: "update rust"}},
	}
	if err := e.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !e.Matches("package foo requires rustc 1.72 or newer") {
		t.Error("regexp did not match")
	}
	if e.Matches("package foo requires go 1.22") {
		t.Error("regexp matched unrelated output")
	}

	bad := Entry{ID: "test/bad", Regexp: `requires rustc 1.(`}
	if err := bad.Compile(); err == nil {
		t.Error("Compile accepted an invalid regexp")
	}
}

func TestRecommended(t *testing.T) {
	e := Entry{Options: []Option{
		{Strategy: StrategyManual, Instruction: "first"},
		{Strategy: StrategyRetryElevated, Recommended: true},
	}}
	if got := e.Recommended(); got.Strategy != StrategyRetryElevated {
		t.Errorf("Recommended() = %s, want retry_with_elevation", got.Strategy)
	}

	e = Entry{Options: []Option{
		{Strategy: StrategyManual, Instruction: "first"},
		{Strategy: StrategyRetryElevated},
	}}
	if got := e.Recommended(); got.Strategy != StrategyManual {
		t.Errorf("Recommended() without marker = %s, want first option", got.Strategy)
	}
}

func TestScenarios(t *testing.T) {
	reg := Builtin()

	infraOnly := reg.Scenarios(Query{})
	if len(infraOnly) != len(infraEntries()) {
		t.Errorf("infra scenarios = %d, want %d", len(infraOnly), len(infraEntries()))
	}

	withApt := reg.Scenarios(Query{Family: "apt"})
	if len(withApt) <= len(infraOnly) {
		t.Errorf("apt query returned %d scenarios, want more than the %d infra ones", len(withApt), len(infraOnly))
	}

	withRust := reg.Scenarios(Query{Ecosystem: "rust"})
	seen := map[string]bool{}
	for _, s := range withRust {
		seen[s.EntryID] = true
	}
	if !seen["rust/linker_missing"] {
		t.Error("rust query missing rust/linker_missing scenario")
	}
	if !seen[InfraPermissionDenied] {
		t.Error("rust query missing infra scenarios")
	}
}

func TestLookup(t *testing.T) {
	reg := Builtin()
	e, ok := reg.Lookup("apt/package_not_found")
	if !ok || e.Category != CategoryDependency {
		t.Fatalf("Lookup(apt/package_not_found) = %v, %v", e, ok)
	}
	if _, ok := reg.Lookup("apt/no_such_entry"); ok {
		t.Error("Lookup found a nonexistent entry")
	}
}
