package handler

// Infrastructure entry IDs. Every environment-level failure an install
// command can produce classifies into one of these, so a diagnosis that
// reaches the infra layer never comes back empty-handed.
const (
	InfraNetworkUnreachable = "infra/network_unreachable"
	InfraNetworkBlocked     = "infra/network_blocked"
	InfraDiskFull           = "infra/disk_full"
	InfraReadOnlyFS         = "infra/read_only_filesystem"
	InfraSudoMissing        = "infra/sudo_missing"
	InfraSudoAuthFailed     = "infra/sudo_auth_failed"
	InfraPermissionDenied   = "infra/permission_denied"
	InfraOOMKilled          = "infra/oom_killed"
	InfraTimeout            = "infra/timeout"
)

// infraEntries returns the infrastructure layer in match order. More
// specific signatures come first: a read-only filesystem or sudo failure
// would otherwise be swallowed by the generic permission entry.
func infraEntries() []Entry {
	return []Entry{
		{
			ID:       InfraReadOnlyFS,
			Category: CategoryEnvironment,
			Patterns: []string{"read-only file system", "erofs"},
			Sample:   "mkdir: cannot create directory '/usr/local/bin': Read-only file system",
			Options: []Option{
				{
					Strategy:    StrategyManual,
					Recommended: true,
					Instruction: "The system area is read-only. Pick a method that installs under your home directory (binary or a language ecosystem method) and re-run.",
				},
				{
					Strategy:    StrategyManual,
					Instruction: "If you control this appliance, remount the root filesystem read-write (mount -o remount,rw /) before retrying.",
				},
			},
		},
		{
			ID:       InfraSudoMissing,
			Category: CategoryDependency,
			Patterns: []string{"sudo: command not found", "sudo: not found", `exec: "sudo"`},
			Sample:   "sh: 1: sudo: not found",
			Options: []Option{
				{Strategy: StrategyInstallDependency, Recommended: true, Tool: "sudo", Note: "install sudo, then retry"},
				{
					Strategy:    StrategyManual,
					Instruction: "If you are already root, re-run the command without the sudo prefix.",
				},
			},
		},
		{
			ID:       InfraSudoAuthFailed,
			Category: CategoryPermissions,
			Patterns: []string{
				"incorrect password attempt",
				"sudo: a password is required",
				"sudo: authentication failure",
				"a terminal is required to read the password",
			},
			Sample: "sudo: a terminal is required to read the password; either use the -S option to read from standard input or configure an askpass helper",
			Options: []Option{
				{
					Strategy:    StrategyManual,
					Recommended: true,
					Instruction: "Run the command in an interactive terminal so sudo can prompt for your password, and confirm your account is in sudoers.",
				},
				{Strategy: StrategyRetryModified, Command: "sudo -v && {command}", Note: "pre-authenticate sudo, then retry"},
			},
		},
		{
			ID:       InfraDiskFull,
			Category: CategoryResources,
			Patterns: []string{"no space left on device", "disk quota exceeded", "insufficient disk space"},
			Sample:   "tar: ./rg: Cannot write: No space left on device",
			Options: []Option{
				{
					Strategy:    StrategyManual,
					Recommended: true,
					Instruction: "Free disk space (check df -h; clearing the package manager cache is usually the quickest win) and retry.",
				},
				{Strategy: StrategyRetryModified, Command: "{command}", Note: "retry once space is available"},
			},
		},
		{
			ID:       InfraNetworkBlocked,
			Category: CategoryNetwork,
			Patterns: []string{
				"403 forbidden",
				"proxy authentication required",
				"ssl certificate problem",
				"certificate verify failed",
				"self-signed certificate in certificate chain",
			},
			Sample: "curl: (60) SSL certificate problem: self-signed certificate in certificate chain",
			Options: []Option{
				{
					Strategy:    StrategyFixEnvironment,
					Recommended: true,
					Env:         map[string]string{"HTTPS_PROXY": "<your proxy URL>", "HTTP_PROXY": "<your proxy URL>"},
					Note:        "route downloads through your organization's proxy",
				},
				{
					Strategy:    StrategyManual,
					Instruction: "Downloads are being intercepted or denied. Ask your network administrator to allow the download host, and check the system clock if TLS verification fails.",
				},
			},
		},
		{
			ID:       InfraNetworkUnreachable,
			Category: CategoryNetwork,
			Patterns: []string{
				"network is unreachable",
				"no such host",
				"could not resolve host",
				"temporary failure in name resolution",
				"temporary failure resolving",
				"connection refused",
				"connection timed out",
				"failed to connect to",
			},
			Sample: "curl: (6) Could not resolve host: github.com",
			Options: []Option{
				{
					Strategy:    StrategyManual,
					Recommended: true,
					Instruction: "Check the network connection and DNS resolution (ping a public host, inspect /etc/resolv.conf), then retry.",
				},
				{Strategy: StrategyRetryModified, Command: "{command}", Note: "retry once connectivity is restored"},
			},
		},
		{
			ID:       InfraTimeout,
			Category: CategoryResources,
			Patterns: []string{"timed out after", "context deadline exceeded", "operation timed out"},
			Sample:   "command timed out after 5m0s",
			Options: []Option{
				{Strategy: StrategyRetryModified, Recommended: true, Command: "{command}", Note: "re-run with a longer timeout (--timeout 15m)"},
				{
					Strategy:    StrategyManual,
					Instruction: "The command exceeded its time limit. Check for a slow mirror or proxy before retrying.",
				},
			},
		},
		{
			ID:       InfraOOMKilled,
			Category: CategoryResources,
			Patterns: []string{"out of memory", "cannot allocate memory", "oom-kill", "signal: killed"},
			Sample:   "c++: fatal error: Killed signal terminated program cc1plus\ncompilation terminated.\nerror: could not compile `regex` (lib): signal: killed",
			Options: []Option{
				{
					Strategy:    StrategyManual,
					Recommended: true,
					Instruction: "The process was killed for lack of memory. Close other workloads or add swap, then retry; for source builds, reduce parallelism (e.g. -j1).",
				},
				{Strategy: StrategyRetryModified, Command: "{command}", Note: "retry with more memory available"},
			},
		},
		{
			ID:       InfraPermissionDenied,
			Category: CategoryPermissions,
			Patterns: []string{"permission denied", "operation not permitted", "access denied", "eacces"},
			Sample:   "install: cannot create regular file '/usr/local/bin/jq': Permission denied",
			Options: []Option{
				{Strategy: StrategyRetryElevated, Recommended: true, Note: "retry with sudo"},
				{Strategy: StrategyRetryModified, Command: "{command}", Note: "re-run against a user-writable prefix such as ~/.local"},
				{
					Strategy:    StrategyManual,
					Instruction: "The target path is not writable by this user. Install into a directory you own, or ask an administrator to run the command.",
				},
			},
		},
	}
}
