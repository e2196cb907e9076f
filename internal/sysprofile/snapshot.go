package sysprofile

import (
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

// managerProbes maps package manager families to the binaries that prove
// their presence. Ordered so profile output is stable.
var managerProbes = []struct {
	name     string
	binaries []string
}{
	{"apt", []string{"apt-get"}},
	{"dnf", []string{"dnf", "yum"}},
	{"pacman", []string{"pacman"}},
	{"apk", []string{"apk"}},
	{"zypper", []string{"zypper"}},
	{"brew", []string{"brew"}},
	{"snap", []string{"snap"}},
}

// binaryProbes lists the commands recipes and remediation options test for.
var binaryProbes = []string{
	"bash", "curl", "wget", "git", "tar", "unzip", "xz",
	"gcc", "cc", "make", "pkg-config",
	"python3", "pip3", "pipx",
	"node", "npm",
	"cargo", "rustc", "rustup",
	"ruby", "gem",
	"go",
	"brew", "snap", "flatpak",
	"sudo", "systemctl",
}

// Snapshot builds a Profile for the current machine. It is called once per
// invocation; callers pass the result around instead of re-detecting.
func Snapshot() (*Profile, error) {
	p := &Profile{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	if p.OS == "linux" {
		release, err := ParseOSRelease("/etc/os-release")
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if release != nil {
			if family, ferr := MapDistroToFamily(release.ID, release.IDLike); ferr == nil {
				p.LinuxFamily = family
			}
		}
		p.Libc = DetectLibc()
		p.InitSystem = detectInitSystem("")
		p.Container = detectContainer("")
		p.WSL = detectWSL(readProcVersion())
		p.PythonExternallyManaged = detectExternallyManaged("")
	}

	look := exec.LookPath
	p.PackageManagers = probeManagers(look)
	p.InstalledBinaries = probeBinaries(look)

	p.IsRoot = unix.Geteuid() == 0
	p.HasSudo = hasBinary(look, "sudo")
	p.FilesystemWritable = systemPrefixWritable(p.OS)
	p.HomeWritable = homeWritable()

	return p, nil
}

// probeManagers returns the package manager families whose binaries are on
// PATH, in probe order.
func probeManagers(look func(string) (string, error)) []string {
	var found []string
	for _, probe := range managerProbes {
		for _, bin := range probe.binaries {
			if _, err := look(bin); err == nil {
				found = append(found, probe.name)
				break
			}
		}
	}
	return found
}

// probeBinaries returns the probe binaries found on PATH, in probe order.
func probeBinaries(look func(string) (string, error)) []string {
	var found []string
	for _, bin := range binaryProbes {
		if _, err := look(bin); err == nil {
			found = append(found, bin)
		}
	}
	return found
}

func hasBinary(look func(string) (string, error), name string) bool {
	_, err := look(name)
	return err == nil
}

// detectInitSystem identifies the running init system. Containers usually
// have none, which gates daemon-backed installers like snap.
func detectInitSystem(root string) string {
	if info, err := os.Stat(filepath.Join(root, "/run/systemd/system")); err == nil && info.IsDir() {
		return "systemd"
	}
	if _, err := os.Stat(filepath.Join(root, "/run/openrc")); err == nil {
		return "openrc"
	}
	return ""
}

// detectContainer checks the conventional container marker files.
func detectContainer(root string) bool {
	if _, err := os.Stat(filepath.Join(root, "/.dockerenv")); err == nil {
		return true
	}
	if _, err := os.Stat(filepath.Join(root, "/run/.containerenv")); err == nil {
		return true
	}
	return false
}

func readProcVersion() string {
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return ""
	}
	return string(data)
}

// detectWSL recognizes the Microsoft kernel signature in /proc/version.
func detectWSL(procVersion string) bool {
	return strings.Contains(strings.ToLower(procVersion), "microsoft")
}

// detectExternallyManaged checks for a PEP 668 marker in the system Python
// installation, which blocks bare pip installs.
func detectExternallyManaged(root string) bool {
	patterns := []string{
		filepath.Join(root, "/usr/lib/python3*/EXTERNALLY-MANAGED"),
		filepath.Join(root, "/usr/lib/python3/EXTERNALLY-MANAGED"),
	}
	for _, pattern := range patterns {
		if matches, _ := filepath.Glob(pattern); len(matches) > 0 {
			return true
		}
	}
	return false
}

// systemPrefixWritable reports whether the system install prefix sits on a
// writable filesystem. Permission denials are not read-only mounts:
// elevation can still write there, so only EROFS counts as unwritable.
func systemPrefixWritable(goos string) bool {
	candidates := []string{"/usr/local"}
	if goos == "darwin" {
		candidates = []string{"/opt/homebrew", "/usr/local"}
	}

	for _, dir := range candidates {
		err := unix.Access(dir, unix.W_OK)
		switch {
		case err == nil:
			return true
		case errors.Is(err, unix.EROFS):
			return false
		case errors.Is(err, unix.EACCES):
			return true
		}
		// ENOENT and friends: try the next candidate
	}

	// No candidate exists; fall back to the root mount
	return !errors.Is(unix.Access("/", unix.W_OK), unix.EROFS)
}

// homeWritable reports whether the user's home directory accepts writes.
// Unlike the system prefix, a permission denial here counts as unwritable
// because elevation does not normally apply to user-prefix installs.
func homeWritable() bool {
	home, err := os.UserHomeDir()
	if err != nil {
		return false
	}
	return unix.Access(home, unix.W_OK) == nil
}
