// Package sysprofile captures the host facts availability decisions run
// against. A Profile is built once per invocation by Snapshot and treated as
// immutable afterwards; resolution never re-queries the system mid-run.
package sysprofile

import (
	"fmt"
	"strings"
)

// ValidLinuxFamilies lists the recognized linux_family values.
// Each family corresponds to a package manager ecosystem:
//   - debian: apt (Ubuntu, Debian, Mint, Pop!_OS)
//   - rhel: dnf (Fedora, RHEL, CentOS, Rocky, Alma)
//   - arch: pacman (Arch Linux, Manjaro)
//   - alpine: apk (Alpine Linux)
//   - suse: zypper (openSUSE, SLES)
var ValidLinuxFamilies = []string{"debian", "rhel", "arch", "alpine", "suse"}

// FamilyManagers maps a linux_family to its native package manager.
var FamilyManagers = map[string]string{
	"debian": "apt",
	"rhel":   "dnf",
	"arch":   "pacman",
	"alpine": "apk",
	"suse":   "zypper",
}

// Profile is a snapshot of one machine's capabilities.
//
// All fields describe facts, not intent: what is installed, what is
// writable, who the user is. Decision logic lives elsewhere.
type Profile struct {
	// Name identifies a preset profile; empty for live snapshots.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// OS is the operating system ("linux", "darwin").
	OS string `yaml:"os" json:"os"`

	// Arch is the CPU architecture in Go toolchain notation ("amd64", "arm64").
	Arch string `yaml:"arch" json:"arch"`

	// LinuxFamily is the distro family ("debian", "rhel", "arch", "alpine",
	// "suse"). Empty for non-Linux systems and unidentifiable distros.
	LinuxFamily string `yaml:"linux_family,omitempty" json:"linux_family,omitempty"`

	// Libc is the C library ("glibc", "musl"). Empty off Linux.
	Libc string `yaml:"libc,omitempty" json:"libc,omitempty"`

	// PackageManagers lists the package manager command families usable on
	// this machine ("apt", "dnf", "pacman", "apk", "zypper", "brew", "snap").
	PackageManagers []string `yaml:"package_managers" json:"package_managers"`

	// InstalledBinaries lists commands found on PATH that recipes care
	// about (curl, git, brew, python3, cargo, ...).
	InstalledBinaries []string `yaml:"installed_binaries" json:"installed_binaries"`

	// InitSystem is the running init ("systemd", "openrc"); empty when no
	// recognizable init is managing the machine (most containers).
	InitSystem string `yaml:"init_system,omitempty" json:"init_system,omitempty"`

	HasSudo bool `yaml:"has_sudo" json:"has_sudo"`
	IsRoot  bool `yaml:"is_root" json:"is_root"`

	// FilesystemWritable reports whether the system install prefix is
	// writable (directly or through sudo). False on read-only roots.
	FilesystemWritable bool `yaml:"filesystem_writable" json:"filesystem_writable"`

	// HomeWritable reports whether the user's home prefix is writable.
	HomeWritable bool `yaml:"home_writable" json:"home_writable"`

	Container bool `yaml:"container" json:"container"`
	WSL       bool `yaml:"wsl" json:"wsl"`

	// PythonExternallyManaged reports a PEP 668 EXTERNALLY-MANAGED marker,
	// which makes bare pip installs fail on this machine.
	PythonExternallyManaged bool `yaml:"python_externally_managed" json:"python_externally_managed"`
}

// HasPackageManager reports whether the named package manager family is
// usable on this machine.
func (p *Profile) HasPackageManager(name string) bool {
	for _, m := range p.PackageManagers {
		if m == name {
			return true
		}
	}
	return false
}

// HasBinary reports whether the named command was found on PATH.
func (p *Profile) HasBinary(name string) bool {
	for _, b := range p.InstalledBinaries {
		if b == name {
			return true
		}
	}
	return false
}

// CanElevate reports whether commands can run with root privileges,
// either directly or through sudo.
func (p *Profile) CanElevate() bool {
	return p.IsRoot || p.HasSudo
}

// HasInit reports whether the named init system is managing the machine.
func (p *Profile) HasInit(name string) bool {
	return p.InitSystem == name
}

// Platform returns the combined os/arch string (e.g. "linux/amd64").
func (p *Profile) Platform() string {
	return p.OS + "/" + p.Arch
}

// String returns a one-line human-readable summary for diagnostics.
func (p *Profile) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%s", p.OS, p.Arch)
	if p.LinuxFamily != "" {
		fmt.Fprintf(&b, " (%s", p.LinuxFamily)
		if p.Libc != "" {
			fmt.Fprintf(&b, ", %s", p.Libc)
		}
		b.WriteString(")")
	}
	if len(p.PackageManagers) > 0 {
		fmt.Fprintf(&b, " pm=%s", strings.Join(p.PackageManagers, ","))
	}
	if p.Container {
		b.WriteString(" container")
	}
	if p.WSL {
		b.WriteString(" wsl")
	}
	if !p.FilesystemWritable {
		b.WriteString(" read-only")
	}
	return b.String()
}

// Validate reports structural problems in a profile, such as an unknown
// linux_family. Used when loading presets.
func (p *Profile) Validate() error {
	if p.OS == "" {
		return fmt.Errorf("profile %q: os is required", p.Name)
	}
	if p.Arch == "" {
		return fmt.Errorf("profile %q: arch is required", p.Name)
	}
	if p.OS == "linux" && p.LinuxFamily != "" {
		valid := false
		for _, f := range ValidLinuxFamilies {
			if p.LinuxFamily == f {
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("profile %q: unknown linux_family %q", p.Name, p.LinuxFamily)
		}
	}
	return nil
}
