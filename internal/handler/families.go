package handler

// familyTables returns the builtin method family tables. A method tagged
// with a family consults its table before falling through to the
// infrastructure layer, so these entries can claim signatures that would
// otherwise classify generically (apt's "are you root?" instead of a
// plain permission failure, for example).
func familyTables() map[string][]Entry {
	return map[string][]Entry{
		"apt": {
			{
				ID:       "apt/package_not_found",
				Category: CategoryDependency,
				Patterns: []string{"unable to locate package", "has no installation candidate"},
				Sample:   "E: Unable to locate package ripgrep",
				Options: []Option{
					{
						Strategy:    StrategyAddRepository,
						Recommended: true,
						Command:     "sudo add-apt-repository universe && sudo apt-get update && {command}",
						Note:        "enable the universe component, which carries most developer tools",
					},
					{Strategy: StrategyRetryModified, Command: "sudo apt-get update && {command}", Note: "refresh the package index first"},
					{
						Strategy:    StrategyManual,
						Instruction: "Check the package name for this release (apt-cache search <name>); the tool may not be packaged for your distribution yet.",
					},
				},
			},
			{
				ID:       "apt/lock_held",
				Category: CategoryConfiguration,
				Patterns: []string{"could not get lock", "is held by process", "is another process using it"},
				Sample:   "E: Could not get lock /var/lib/dpkg/lock-frontend. It is held by process 2847 (unattended-upgr)",
				Options: []Option{
					{
						Strategy:    StrategyManual,
						Recommended: true,
						Instruction: "Another package operation is running (often unattended-upgrades). Wait for it to finish, then retry.",
					},
					{Strategy: StrategyRetryModified, Command: "{command}", Note: "retry after the lock is released"},
				},
			},
			{
				ID:       "apt/dpkg_interrupted",
				Category: CategoryConfiguration,
				Patterns: []string{"dpkg was interrupted"},
				Sample:   "E: dpkg was interrupted, you must manually run 'sudo dpkg --configure -a' to correct the problem.",
				Options: []Option{
					{Strategy: StrategyRetryModified, Recommended: true, Command: "sudo dpkg --configure -a && {command}", Note: "finish the interrupted dpkg run, then retry"},
					{Strategy: StrategyManual, Instruction: "Run sudo dpkg --configure -a to repair the package database before retrying."},
				},
			},
			{
				ID:       "apt/stale_index",
				Category: CategoryNetwork,
				Patterns: []string{"failed to fetch", "hash sum mismatch"},
				Sample:   "E: Failed to fetch http://archive.ubuntu.com/ubuntu/pool/universe/r/ripgrep/ripgrep_14.1.0-1_amd64.deb  404  Not Found",
				Options: []Option{
					{Strategy: StrategyRetryModified, Recommended: true, Command: "sudo apt-get update && {command}", Note: "the local index is stale; refresh it"},
					{Strategy: StrategyManual, Instruction: "If the refresh does not help, switch to a healthy mirror in /etc/apt/sources.list."},
				},
			},
			{
				ID:       "apt/needs_root",
				Category: CategoryPermissions,
				Patterns: []string{"are you root?"},
				Sample:   "E: Could not open lock file /var/lib/dpkg/lock-frontend - open (13: Permission denied)\nE: Unable to acquire the dpkg frontend lock (/var/lib/dpkg/lock-frontend), are you root?",
				Options: []Option{
					{Strategy: StrategyRetryElevated, Recommended: true, Note: "apt needs root for system-wide installs"},
					{Strategy: StrategyManual, Instruction: "Ask an administrator to install the package, or use a method that installs under your home directory."},
				},
			},
		},
		"dnf": {
			{
				ID:       "dnf/package_not_found",
				Category: CategoryDependency,
				Patterns: []string{"no match for argument", "unable to find a match"},
				Sample:   "Error: Unable to find a match: ripgrep",
				Options: []Option{
					{
						Strategy:    StrategyAddRepository,
						Recommended: true,
						Command:     "sudo dnf install -y epel-release && {command}",
						Note:        "on RHEL derivatives most developer tools live in EPEL",
					},
					{Strategy: StrategyManual, Instruction: "Search for the exact package name with dnf search <name>; it may differ from the tool name."},
				},
			},
			{
				ID:       "dnf/cache_sync",
				Category: CategoryNetwork,
				Patterns: []string{"failed to synchronize cache", "cannot download", "failed to download metadata"},
				Sample:   "Error: Failed to download metadata for repo 'updates': Cannot prepare internal mirrorlist",
				Options: []Option{
					{Strategy: StrategyRetryModified, Recommended: true, Command: "sudo dnf clean all && {command}", Note: "drop the broken metadata cache and retry"},
					{Strategy: StrategyManual, Instruction: "Check connectivity to the configured mirrors; a proxy or captive portal often causes this."},
				},
			},
			{
				ID:       "dnf/needs_root",
				Category: CategoryPermissions,
				Patterns: []string{"this command has to be run with superuser privileges"},
				Sample:   "Error: This command has to be run with superuser privileges (under the root user on most systems).",
				Options: []Option{
					{Strategy: StrategyRetryElevated, Recommended: true},
					{Strategy: StrategyManual, Instruction: "Ask an administrator to install the package, or use a method that installs under your home directory."},
				},
			},
		},
		"pacman": {
			{
				ID:       "pacman/package_not_found",
				Category: CategoryDependency,
				Patterns: []string{"target not found"},
				Sample:   "error: target not found: ripgrep",
				Options: []Option{
					{Strategy: StrategyRetryModified, Recommended: true, Command: "sudo pacman -Sy && {command}", Note: "sync the package databases first"},
					{Strategy: StrategyManual, Instruction: "The package may live in the AUR; install it with an AUR helper such as paru or yay."},
				},
			},
			{
				ID:       "pacman/db_locked",
				Category: CategoryConfiguration,
				Patterns: []string{"unable to lock database", "db.lck"},
				Sample:   "error: failed to init transaction (unable to lock database)",
				Options: []Option{
					{
						Strategy:    StrategyManual,
						Recommended: true,
						Instruction: "Another pacman instance holds the database lock. If none is running, remove the stale /var/lib/pacman/db.lck and retry.",
					},
					{Strategy: StrategyRetryModified, Command: "{command}", Note: "retry after the lock clears"},
				},
			},
			{
				ID:       "pacman/keyring_stale",
				Category: CategoryConfiguration,
				Patterns: []string{"is unknown trust", "invalid or corrupted package", "signature from"},
				Sample:   "error: ripgrep: signature from \"Arch Build System\" is unknown trust",
				Options: []Option{
					{Strategy: StrategyRetryModified, Recommended: true, Command: "sudo pacman -Sy archlinux-keyring && {command}", Note: "refresh the keyring before installing"},
					{Strategy: StrategyManual, Instruction: "On long-unused systems run pacman-key --refresh-keys to rebuild trust."},
				},
			},
			{
				ID:       "pacman/needs_root",
				Category: CategoryPermissions,
				Patterns: []string{"you cannot perform this operation unless you are root"},
				Sample:   "error: you cannot perform this operation unless you are root.",
				Options: []Option{
					{Strategy: StrategyRetryElevated, Recommended: true},
					{Strategy: StrategyManual, Instruction: "Ask an administrator to install the package, or use a method that installs under your home directory."},
				},
			},
		},
		"apk": {
			{
				ID:       "apk/package_not_found",
				Category: CategoryDependency,
				Patterns: []string{"unable to select packages", "no such package"},
				Sample:   "ERROR: unable to select packages:\n  ripgrep (no such package):\n    required by: world[ripgrep]",
				Options: []Option{
					{Strategy: StrategyRetryModified, Recommended: true, Command: "apk update && {command}", Note: "refresh the index first"},
					{
						Strategy:    StrategyManual,
						Instruction: "Enable the community repository (uncomment it in /etc/apk/repositories, then apk update); most developer tools live there.",
					},
				},
			},
			{
				ID:       "apk/db_locked",
				Category: CategoryPermissions,
				Patterns: []string{"unable to lock database"},
				Sample:   "ERROR: Unable to lock database: Permission denied\nERROR: Failed to open apk database: Permission denied",
				Options: []Option{
					{Strategy: StrategyRetryElevated, Recommended: true, Note: "apk needs root to modify the system"},
					{Strategy: StrategyManual, Instruction: "Run the install as root; Alpine containers usually run as root already."},
				},
			},
		},
		"zypper": {
			{
				ID:       "zypper/package_not_found",
				Category: CategoryDependency,
				Patterns: []string{"not found in package names", "no provider of"},
				Sample:   "'ripgrep' not found in package names. Trying capabilities.\nNo provider of 'ripgrep' found.",
				Options: []Option{
					{Strategy: StrategyRetryModified, Recommended: true, Command: "sudo zypper refresh && {command}", Note: "refresh the repositories first"},
					{Strategy: StrategyManual, Instruction: "Search openSUSE software (zypper search <name>); the package may need an additional repository."},
				},
			},
			{
				ID:       "zypper/needs_root",
				Category: CategoryPermissions,
				Patterns: []string{"root privileges are required"},
				Sample:   "Root privileges are required to run this command.",
				Options: []Option{
					{Strategy: StrategyRetryElevated, Recommended: true},
					{Strategy: StrategyManual, Instruction: "Ask an administrator to install the package, or use a method that installs under your home directory."},
				},
			},
		},
		"brew": {
			{
				ID:       "brew/formula_not_found",
				Category: CategoryDependency,
				Patterns: []string{"no available formula", "no formulae found"},
				Sample:   "Warning: No available formula with the name \"ripgrep\".",
				Options: []Option{
					{Strategy: StrategyRetryModified, Recommended: true, Command: "brew update && {command}", Note: "update Homebrew's formula index"},
					{Strategy: StrategyManual, Instruction: "Search for the formula with brew search <name>; it may live in a tap you need to add first."},
				},
			},
			{
				ID:       "brew/clt_missing",
				Category: CategoryEnvironment,
				Patterns: []string{"invalid active developer path", "xcrun: error", "command line tools"},
				Sample:   "xcrun: error: invalid active developer path (/Library/Developer/CommandLineTools), missing xcrun",
				Options: []Option{
					{Strategy: StrategyManual, Recommended: true, Instruction: "Install the Xcode Command Line Tools: xcode-select --install, then retry."},
					{Strategy: StrategyRetryModified, Command: "{command}", Note: "retry once the tools finish installing"},
				},
			},
			{
				ID:       "brew/prefix_mismatch",
				Category: CategoryCompatibility,
				Patterns: []string{"cannot install in homebrew on arm processor in intel default prefix"},
				Sample:   "Error: Cannot install in Homebrew on ARM processor in Intel default prefix (/usr/local)!",
				Options: []Option{
					{
						Strategy:    StrategyManual,
						Recommended: true,
						Instruction: "This Homebrew was installed for Intel. Reinstall it into /opt/homebrew for Apple Silicon, or run the command under arch -x86_64.",
					},
				},
			},
			{
				ID:       "brew/prefix_not_writable",
				Category: CategoryPermissions,
				Patterns: []string{"permission denied @ dir_s_mkdir", "permission denied @ apply2files"},
				Sample:   "Error: Permission denied @ dir_s_mkdir - /opt/homebrew/Cellar",
				Options: []Option{
					{
						Strategy:    StrategyManual,
						Recommended: true,
						Instruction: "Re-own the Homebrew prefix to your user: sudo chown -R $(whoami) $(brew --prefix)/* — Homebrew refuses to run as root.",
					},
				},
			},
		},
		"snap": {
			{
				ID:       "snap/daemon_unreachable",
				Category: CategoryEnvironment,
				Patterns: []string{"cannot communicate with server", "snapd socket"},
				Sample:   "error: cannot communicate with server: Post \"http://localhost/v2/snaps/ripgrep\": dial unix /run/snapd.socket: connect: no such file or directory",
				Options: []Option{
					{Strategy: StrategyRetryModified, Recommended: true, Command: "sudo systemctl enable --now snapd.socket && {command}", Note: "start the snap daemon first"},
					{Strategy: StrategyManual, Instruction: "snapd is not running. Without systemd (WSL, containers) snaps are unavailable; pick another method."},
				},
			},
			{
				ID:       "snap/not_supported",
				Category: CategoryCompatibility,
				Patterns: []string{"system does not fully support snapd"},
				Sample:   "error: system does not fully support snapd: cannot mount squashfs image using \"squashfs\"",
				Options: []Option{
					{Strategy: StrategyManual, Recommended: true, Instruction: "This system cannot run snaps (no systemd or squashfs support). Use a different install method."},
				},
			},
			{
				ID:       "snap/needs_classic",
				Category: CategoryConfiguration,
				Patterns: []string{"--classic"},
				Sample:   "error: This revision of snap \"go\" was published using classic confinement and thus may perform arbitrary system changes outside of the security sandbox that snaps are usually confined to, which may put your system at risk.\n       If you understand and want to proceed repeat the command including --classic.",
				Options: []Option{
					{Strategy: StrategyRetryModified, Recommended: true, Command: "{command} --classic", Note: "the snap requires classic confinement"},
				},
			},
			{
				ID:       "snap/access_denied",
				Category: CategoryPermissions,
				Patterns: []string{"error: access denied"},
				Sample:   "error: access denied (try with sudo)",
				Options: []Option{
					{Strategy: StrategyRetryElevated, Recommended: true},
					{Strategy: StrategyManual, Instruction: "Ask an administrator to install the snap for you."},
				},
			},
		},
		"script": {
			{
				ID:       "script/curl_missing",
				Category: CategoryDependency,
				Patterns: []string{"curl: command not found", "curl: not found"},
				Sample:   "sh: 1: curl: not found",
				Options: []Option{
					{Strategy: StrategyInstallDependency, Recommended: true, Tool: "curl", Note: "the installer script is fetched with curl"},
					{Strategy: StrategyManual, Instruction: "Install curl with your package manager, then retry."},
				},
			},
			{
				ID:       "script/wget_missing",
				Category: CategoryDependency,
				Patterns: []string{"wget: command not found", "wget: not found"},
				Sample:   "bash: line 1: wget: command not found",
				Options: []Option{
					{Strategy: StrategyInstallDependency, Recommended: true, Tool: "wget"},
					{Strategy: StrategyManual, Instruction: "Install wget with your package manager, then retry."},
				},
			},
			{
				ID:       "script/bash_missing",
				Category: CategoryDependency,
				Patterns: []string{"bash: command not found", "bash: not found"},
				Sample:   "sh: bash: not found",
				Options: []Option{
					{Strategy: StrategyInstallDependency, Recommended: true, Tool: "bash", Note: "the installer script requires bash"},
					{Strategy: StrategyManual, Instruction: "Install bash with your package manager; minimal containers often ship only sh."},
				},
			},
			{
				ID:       "script/syntax_error",
				Category: CategoryCompatibility,
				Patterns: []string{"syntax error: unexpected", "syntax error near unexpected token"},
				Sample:   "sh: 231: Syntax error: Unexpected \"(\"",
				Options: []Option{
					{Strategy: StrategyManual, Recommended: true, Instruction: "The script was run with a shell it does not support. Download it and run it with bash explicitly."},
					{Strategy: StrategyInstallDependency, Tool: "bash"},
				},
			},
			{
				ID:       "script/download_aborted",
				Category: CategoryNetwork,
				Patterns: []string{"failed writing body", "transfer closed with", "curl: (22)"},
				Sample:   "curl: (23) Failed writing body (0 != 16384)",
				Options: []Option{
					{Strategy: StrategyRetryModified, Recommended: true, Command: "{command}", Note: "the download aborted midway; retry"},
					{Strategy: StrategyManual, Instruction: "If retries keep failing, download the installer manually and run it locally."},
				},
			},
		},
		"binary": {
			{
				ID:       "binary/tar_missing",
				Category: CategoryDependency,
				Patterns: []string{"tar: command not found", "tar: not found"},
				Sample:   "sh: 1: tar: not found",
				Options: []Option{
					{Strategy: StrategyInstallDependency, Recommended: true, Tool: "tar", Note: "the release archive is a tarball"},
					{Strategy: StrategyManual, Instruction: "Install tar with your package manager, then retry."},
				},
			},
			{
				ID:       "binary/unzip_missing",
				Category: CategoryDependency,
				Patterns: []string{"unzip: command not found", "unzip: not found"},
				Sample:   "sh: 1: unzip: not found",
				Options: []Option{
					{Strategy: StrategyInstallDependency, Recommended: true, Tool: "unzip", Note: "the release archive is a zip file"},
					{Strategy: StrategyManual, Instruction: "Install unzip with your package manager, then retry."},
				},
			},
			{
				ID:       "binary/exec_format",
				Category: CategoryCompatibility,
				Patterns: []string{"exec format error", "cannot execute binary file"},
				Sample:   "/home/user/.local/bin/rg: cannot execute binary file: Exec format error",
				Options: []Option{
					{
						Strategy:    StrategyManual,
						Recommended: true,
						Instruction: "The downloaded binary targets a different CPU architecture. Check uname -m against the release asset name and fetch the matching build.",
					},
				},
			},
			{
				ID:       "binary/glibc_on_musl",
				Category: CategoryCompatibility,
				Patterns: []string{"error loading shared library", "not found (required by"},
				Sample:   "Error loading shared library libc.so.6: No such file or directory (needed by /usr/local/bin/terraform)",
				Options: []Option{
					{
						Strategy:    StrategyManual,
						Recommended: true,
						Instruction: "This binary is linked against glibc but the system uses musl. Fetch the musl/static build of the release, or install via the system package manager.",
					},
				},
			},
			{
				ID:       "binary/checksum_mismatch",
				Category: CategoryConfiguration,
				Patterns: []string{"checksum mismatch", "computed checksum did not match"},
				Sample:   "sha256sum: WARNING: 1 computed checksum did NOT match",
				Options: []Option{
					{Strategy: StrategyRetryModified, Recommended: true, Command: "{command}", Note: "the download was corrupted; fetch it again"},
					{Strategy: StrategyManual, Instruction: "If the mismatch persists, the mirror may be serving a tampered file. Verify the checksum source before installing."},
				},
			},
		},
	}
}
