// Package telemetry provides anonymous usage telemetry for naosu.
package telemetry

import (
	"runtime"

	"github.com/google/uuid"

	"github.com/tsukumogami/naosu/internal/buildinfo"
)

// Event represents a telemetry event sent to the backend.
type Event struct {
	Action        string `json:"action"`         // "resolve", "diagnose", or "install"
	Tool          string `json:"tool"`           // Tool id (e.g., "ripgrep")
	Method        string `json:"method"`         // Selected or diagnosed method (e.g., "apt")
	Status        string `json:"status"`         // Resolution status or failure category
	ChainDepth    int    `json:"chain_depth"`    // Depth of the remediation chain, 0 if none
	OS            string `json:"os"`             // Operating system ("linux", "darwin")
	Arch          string `json:"arch"`           // CPU architecture ("amd64", "arm64")
	NaosuVersion  string `json:"naosu_version"`  // Version of the naosu CLI
	RunID         string `json:"run_id"`         // Random id correlating events from one invocation
	SchemaVersion string `json:"schema_version"` // Event schema version
}

const schemaVersion = "1"

// runID is generated once per process so events from a single invocation
// can be correlated without identifying the machine.
var runID = uuid.NewString()

// newBaseEvent creates an event with common fields pre-filled.
func newBaseEvent() Event {
	return Event{
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
		NaosuVersion:  buildinfo.Version(),
		RunID:         runID,
		SchemaVersion: schemaVersion,
	}
}

// NewResolveEvent creates a telemetry event for a resolution.
// status is the selector outcome ("ready", "locked", "none_available").
func NewResolveEvent(tool, method, status string) Event {
	e := newBaseEvent()
	e.Action = "resolve"
	e.Tool = tool
	e.Method = method
	e.Status = status
	return e
}

// NewDiagnoseEvent creates a telemetry event for a diagnosis.
// status is the matched failure category, or "no_match".
func NewDiagnoseEvent(tool, method, status string, chainDepth int) Event {
	e := newBaseEvent()
	e.Action = "diagnose"
	e.Tool = tool
	e.Method = method
	e.Status = status
	e.ChainDepth = chainDepth
	return e
}

// NewInstallEvent creates a telemetry event for an executed install.
// status is "ok" or the failure category when the install failed.
func NewInstallEvent(tool, method, status string) Event {
	e := newBaseEvent()
	e.Action = "install"
	e.Tool = tool
	e.Method = method
	e.Status = status
	return e
}
