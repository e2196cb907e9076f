package handler

// ecosystemTables returns the builtin language ecosystem tables. Methods
// tagged with an ecosystem consult these before the method family and
// infrastructure layers, so pip's EACCES lands here rather than in the
// generic permission entry.
func ecosystemTables() map[string][]Entry {
	return map[string][]Entry{
		"python": {
			{
				ID:       "python/externally_managed",
				Category: CategoryEnvironment,
				Patterns: []string{"externally-managed-environment"},
				Sample:   "error: externally-managed-environment\n\n× This environment is externally managed\n╰─> To install Python packages system-wide, try apt install python3-xyz",
				Options: []Option{
					{
						Strategy:    StrategyInstallDependency,
						Recommended: true,
						Tool:        "pipx",
						Note:        "pipx installs CLI tools into isolated environments, which is what this distribution expects",
					},
					{Strategy: StrategyRetryModified, Command: "{command} --break-system-packages", Note: "override the distribution policy (may conflict with system packages)"},
					{
						Strategy:    StrategyManual,
						Instruction: "Create a virtualenv and install there: python3 -m venv ~/.venvs/tool && ~/.venvs/tool/bin/pip install <package>.",
					},
				},
			},
			{
				ID:       "python/pip_missing",
				Category: CategoryDependency,
				Patterns: []string{"no module named pip", "pip: command not found", "pip3: command not found"},
				Sample:   "/usr/bin/python3: No module named pip",
				Options: []Option{
					{Strategy: StrategyInstallDependency, Recommended: true, Tool: "python3", Note: "reinstall the Python toolchain including pip"},
					{Strategy: StrategyManual, Instruction: "On Debian and Ubuntu pip ships separately: sudo apt-get install python3-pip."},
				},
			},
			{
				ID:       "python/header_missing",
				Category: CategoryCompiler,
				Patterns: []string{"python.h: no such file", "error: command 'gcc' failed", "error: command 'cc' failed"},
				Sample:   "fatal error: Python.h: No such file or directory\ncompilation terminated.\nerror: command 'gcc' failed with exit status 1",
				Options: []Option{
					{Strategy: StrategyInstallDependency, Recommended: true, Tool: "gcc", Note: "the package builds a C extension"},
					{Strategy: StrategyManual, Instruction: "Install the Python development headers (python3-dev on Debian, python3-devel on Fedora), then retry."},
				},
			},
			{
				ID:       "python/ssl_unavailable",
				Category: CategoryEnvironment,
				Patterns: []string{"ssl module in python is not available"},
				Sample:   "WARNING: pip is configured with locations that require TLS/SSL, however the ssl module in Python is not available.",
				Options: []Option{
					{Strategy: StrategyInstallDependency, Recommended: true, Tool: "python3", Note: "this Python was built without SSL support; reinstall it"},
					{Strategy: StrategyManual, Instruction: "Reinstall Python from your package manager so the ssl module is present."},
				},
			},
		},
		"node": {
			{
				ID:       "node/global_eacces",
				Category: CategoryPermissions,
				Patterns: []string{"npm err! code eacces", "eacces: permission denied, access"},
				Sample:   "npm ERR! code EACCES\nnpm ERR! syscall access\nnpm ERR! path /usr/lib/node_modules",
				Options: []Option{
					{
						Strategy:    StrategyFixEnvironment,
						Recommended: true,
						Env:         map[string]string{"NPM_CONFIG_PREFIX": "$HOME/.npm-global"},
						Note:        "install global packages into a user prefix; add ~/.npm-global/bin to PATH",
					},
					{Strategy: StrategyRetryElevated, Note: "installs into the system prefix"},
				},
			},
			{
				ID:       "node/gyp_build_failed",
				Category: CategoryCompiler,
				Patterns: []string{"gyp err!", "node-gyp rebuild"},
				Sample:   "gyp ERR! build error\ngyp ERR! stack Error: not found: make",
				Options: []Option{
					{Strategy: StrategyInstallDependency, Recommended: true, Tool: "gcc", Note: "node-gyp compiles native addons"},
					{Strategy: StrategyInstallDependency, Tool: "python3", Note: "node-gyp also needs python"},
					{Strategy: StrategyManual, Instruction: "Install the build toolchain (make, a C compiler, python3), then retry."},
				},
			},
			{
				ID:       "node/engine_unsupported",
				Category: CategoryCompatibility,
				Patterns: []string{"ebadengine", "unsupported engine"},
				Sample:   "npm WARN EBADENGINE Unsupported engine {\n  package: 'tool@3.0.0',\n  required: { node: '>=20' },\n  current: { node: 'v16.20.2' }\n}",
				Options: []Option{
					{Strategy: StrategyInstallDependency, Recommended: true, Tool: "nodejs", Note: "the package needs a newer Node.js"},
					{Strategy: StrategyManual, Instruction: "Upgrade Node.js to the version the package requires, then retry."},
				},
			},
			{
				ID:       "node/registry_unreachable",
				Category: CategoryNetwork,
				Patterns: []string{"enotfound registry.npmjs.org", "npm err! code econnreset"},
				Sample:   "npm ERR! code ENOTFOUND\nnpm ERR! errno ENOTFOUND\nnpm ERR! network request to https://registry.npmjs.org/tool failed, reason: getaddrinfo ENOTFOUND registry.npmjs.org",
				Options: []Option{
					{Strategy: StrategyManual, Recommended: true, Instruction: "Check connectivity to registry.npmjs.org; behind a proxy, configure npm with npm config set proxy."},
					{Strategy: StrategyRetryModified, Command: "{command}", Note: "retry once the registry is reachable"},
				},
			},
		},
		"rust": {
			{
				ID:       "rust/linker_missing",
				Category: CategoryCompiler,
				Patterns: []string{"linker `cc` not found", "linker 'cc' not found"},
				Sample:   "error: linker `cc` not found\n  |\n  = note: No such file or directory (os error 2)",
				Options: []Option{
					{Strategy: StrategyInstallDependency, Recommended: true, Tool: "gcc", Note: "cargo needs a C linker"},
					{Strategy: StrategyManual, Instruction: "Install a C toolchain (build-essential, base-devel, or build-base depending on distribution)."},
				},
			},
			{
				ID:       "rust/toolchain_outdated",
				Category: CategoryCompatibility,
				Patterns: []string{"requires rustc", "has been stable since"},
				Sample:   "error: package `ripgrep v14.1.0` cannot be built because it requires rustc 1.72 or newer, while the currently active rustc version is 1.63.0",
				Options: []Option{
					{Strategy: StrategyRetryModified, Recommended: true, Command: "rustup update stable && {command}", Note: "update the Rust toolchain first"},
					{Strategy: StrategyInstallDependency, Tool: "rust", Note: "install a current toolchain via rustup"},
				},
			},
			{
				ID:       "rust/openssl_sys",
				Category: CategoryCompiler,
				Patterns: []string{"failed to run custom build command for `openssl-sys", "could not find directory of openssl"},
				Sample:   "error: failed to run custom build command for `openssl-sys v0.9.92`\nCould not find directory of OpenSSL installation",
				Options: []Option{
					{Strategy: StrategyManual, Recommended: true, Instruction: "Install the OpenSSL development package (libssl-dev on Debian, openssl-devel on Fedora) and pkg-config, then retry."},
					{Strategy: StrategyInstallDependency, Tool: "gcc"},
				},
			},
		},
		"go": {
			{
				ID:       "go/goroot_missing",
				Category: CategoryEnvironment,
				Patterns: []string{"cannot find goroot"},
				Sample:   "go: cannot find GOROOT directory: /usr/local/go",
				Options: []Option{
					{
						Strategy:    StrategyFixEnvironment,
						Recommended: true,
						Env:         map[string]string{"GOROOT": "/usr/local/go"},
						Note:        "point GOROOT at the toolchain location",
					},
					{Strategy: StrategyInstallDependency, Tool: "go", Note: "reinstall the Go toolchain"},
				},
			},
			{
				ID:       "go/module_not_found",
				Category: CategoryConfiguration,
				Patterns: []string{"no required module provides package", "requires a version when current directory is not in a module"},
				Sample:   "go: 'go install' requires a version when current directory is not in a module\n\tTry 'go install example.com/cmd@latest' to install the latest version",
				Options: []Option{
					{Strategy: StrategyRetryModified, Recommended: true, Command: "{command}@latest", Note: "go install needs an explicit version outside a module"},
					{Strategy: StrategyManual, Instruction: "Check the module path; go install expects the full import path of the command."},
				},
			},
			{
				ID:       "go/proxy_unreachable",
				Category: CategoryNetwork,
				Patterns: []string{"proxy.golang.org", "dial tcp: lookup proxy"},
				Sample:   "go: golang.org/x/tools@latest: module golang.org/x/tools: Get \"https://proxy.golang.org/golang.org/x/tools/@v/list\": dial tcp: lookup proxy.golang.org: i/o timeout",
				Options: []Option{
					{
						Strategy:    StrategyFixEnvironment,
						Recommended: true,
						Env:         map[string]string{"GOPROXY": "direct"},
						Note:        "bypass the module proxy and fetch from origin",
					},
					{Strategy: StrategyManual, Instruction: "Check connectivity to proxy.golang.org, or point GOPROXY at a mirror you can reach."},
				},
			},
		},
		"ruby": {
			{
				ID:       "ruby/gem_dir_unwritable",
				Category: CategoryPermissions,
				Patterns: []string{"you don't have write permissions for the", "gem::filepermissionerror"},
				Sample:   "ERROR:  While executing gem ... (Gem::FilePermissionError)\n    You don't have write permissions for the /var/lib/gems/3.1.0 directory.",
				Options: []Option{
					{Strategy: StrategyRetryModified, Recommended: true, Command: "{command} --user-install", Note: "install into ~/.gem; make sure its bin directory is on PATH"},
					{Strategy: StrategyRetryElevated, Note: "installs into the system gem directory"},
				},
			},
			{
				ID:       "ruby/native_ext_failed",
				Category: CategoryCompiler,
				Patterns: []string{"failed to build gem native extension"},
				Sample:   "ERROR: Error installing tool:\n\tERROR: Failed to build gem native extension.\n    mkmf.rb can't find header files for ruby",
				Options: []Option{
					{Strategy: StrategyInstallDependency, Recommended: true, Tool: "gcc", Note: "the gem compiles C code"},
					{Strategy: StrategyManual, Instruction: "Install the Ruby development headers (ruby-dev on Debian, ruby-devel on Fedora), then retry."},
				},
			},
			{
				ID:       "ruby/gem_missing",
				Category: CategoryDependency,
				Patterns: []string{"gem: command not found", "gem: not found"},
				Sample:   "sh: 1: gem: not found",
				Options: []Option{
					{Strategy: StrategyInstallDependency, Recommended: true, Tool: "ruby"},
					{Strategy: StrategyManual, Instruction: "Install Ruby with your package manager; gem ships with it."},
				},
			},
		},
	}
}
