package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// EnvNaosuHome is the environment variable to override the default naosu home directory
	EnvNaosuHome = "NAOSU_HOME"

	// EnvAPITimeout is the environment variable to configure API request timeout
	EnvAPITimeout = "NAOSU_API_TIMEOUT"

	// EnvExecTimeout is the environment variable to configure the default
	// timeout for executed install commands
	EnvExecTimeout = "NAOSU_EXEC_TIMEOUT"

	// EnvMaxChainDepth is the environment variable to configure the maximum
	// remediation chain depth
	EnvMaxChainDepth = "NAOSU_MAX_CHAIN_DEPTH"

	// EnvCatalogDir is the environment variable pointing at an extra recipe
	// catalog directory loaded on top of the embedded catalog
	EnvCatalogDir = "NAOSU_CATALOG_DIR"

	// EnvBundleSizeLimit is the environment variable to configure the maximum
	// decompressed size accepted when loading a catalog bundle
	EnvBundleSizeLimit = "NAOSU_BUNDLE_SIZE_LIMIT"

	// DefaultAPITimeout is the default timeout for API requests (30 seconds)
	DefaultAPITimeout = 30 * time.Second

	// DefaultExecTimeout is the default timeout for executed install commands
	DefaultExecTimeout = 5 * time.Minute

	// DefaultMaxChainDepth is the default maximum remediation chain depth
	DefaultMaxChainDepth = 5

	// DefaultBundleSizeLimit is the default decompressed size limit for
	// catalog bundles (50MB)
	DefaultBundleSizeLimit = 50 * 1024 * 1024
)

// GetAPITimeout returns the configured API timeout from NAOSU_API_TIMEOUT.
// If not set or invalid, returns DefaultAPITimeout (30 seconds).
// Accepts duration strings like "30s", "1m", "2m30s".
func GetAPITimeout() time.Duration {
	envValue := os.Getenv(EnvAPITimeout)
	if envValue == "" {
		return DefaultAPITimeout
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			EnvAPITimeout, envValue, DefaultAPITimeout)
		return DefaultAPITimeout
	}

	// Validate reasonable range (1 second to 10 minutes)
	if duration < 1*time.Second {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum 1s\n",
			EnvAPITimeout, duration)
		return 1 * time.Second
	}
	if duration > 10*time.Minute {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum 10m\n",
			EnvAPITimeout, duration)
		return 10 * time.Minute
	}

	return duration
}

// GetExecTimeout returns the configured command timeout from NAOSU_EXEC_TIMEOUT.
// If not set or invalid, returns DefaultExecTimeout (5 minutes).
// Accepts duration strings like "90s", "5m", "10m".
func GetExecTimeout() time.Duration {
	envValue := os.Getenv(EnvExecTimeout)
	if envValue == "" {
		return DefaultExecTimeout
	}

	duration, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n",
			EnvExecTimeout, envValue, DefaultExecTimeout)
		return DefaultExecTimeout
	}

	// Validate reasonable range (5 seconds to 30 minutes)
	if duration < 5*time.Second {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum 5s\n",
			EnvExecTimeout, duration)
		return 5 * time.Second
	}
	if duration > 30*time.Minute {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum 30m\n",
			EnvExecTimeout, duration)
		return 30 * time.Minute
	}

	return duration
}

// GetMaxChainDepth returns the configured remediation chain depth limit from
// NAOSU_MAX_CHAIN_DEPTH. If not set or invalid, returns DefaultMaxChainDepth.
// Values are clamped to the range 1..10.
func GetMaxChainDepth() int {
	envValue := os.Getenv(EnvMaxChainDepth)
	if envValue == "" {
		return DefaultMaxChainDepth
	}

	depth, err := strconv.Atoi(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %d\n",
			EnvMaxChainDepth, envValue, DefaultMaxChainDepth)
		return DefaultMaxChainDepth
	}

	if depth < 1 {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%d), using minimum 1\n",
			EnvMaxChainDepth, depth)
		return 1
	}
	if depth > 10 {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%d), using maximum 10\n",
			EnvMaxChainDepth, depth)
		return 10
	}

	return depth
}

// GetCatalogDir returns the extra catalog directory from NAOSU_CATALOG_DIR,
// or the empty string when unset.
func GetCatalogDir() string {
	return os.Getenv(EnvCatalogDir)
}

// ParseByteSize parses a human-readable byte size string into bytes.
// Accepts formats: plain numbers (52428800), KB/K (50K, 50KB), MB/M (50M, 50MB), GB/G (1G, 1GB).
// Case-insensitive. Returns an error for invalid formats.
func ParseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	s = strings.ToUpper(s)

	// Try to parse as plain number first
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}

	var numStr string
	var suffix string
	for i, c := range s {
		if c >= '0' && c <= '9' || c == '.' {
			numStr += string(c)
		} else {
			suffix = s[i:]
			break
		}
	}

	if numStr == "" {
		return 0, fmt.Errorf("invalid size format: %q", s)
	}

	num, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size number: %q", numStr)
	}

	var multiplier float64
	switch suffix {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("invalid size suffix: %q", suffix)
	}

	return int64(num * multiplier), nil
}

// GetBundleSizeLimit returns the configured catalog bundle size limit from
// NAOSU_BUNDLE_SIZE_LIMIT. If not set or invalid, returns
// DefaultBundleSizeLimit (50MB). Accepts human-readable sizes like "50MB",
// "50M", "52428800".
func GetBundleSizeLimit() int64 {
	envValue := os.Getenv(EnvBundleSizeLimit)
	if envValue == "" {
		return DefaultBundleSizeLimit
	}

	size, err := ParseByteSize(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %dMB\n",
			EnvBundleSizeLimit, envValue, DefaultBundleSizeLimit/(1024*1024))
		return DefaultBundleSizeLimit
	}

	// Validate reasonable range (1MB to 1GB)
	minSize := int64(1 * 1024 * 1024)
	maxSize := int64(1 * 1024 * 1024 * 1024)

	if size < minSize {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%d bytes), using minimum 1MB\n",
			EnvBundleSizeLimit, size)
		return minSize
	}
	if size > maxSize {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%d bytes), using maximum 1GB\n",
			EnvBundleSizeLimit, size)
		return maxSize
	}

	return size
}

// DefaultHomeOverride can be set by the binary's main package to change the
// default home directory. Used by dev builds (via ldflags) to default to
// .naosu-dev instead of ~/.naosu. NAOSU_HOME env var still takes precedence.
var DefaultHomeOverride string

// Config holds naosu directory layout
type Config struct {
	HomeDir     string // $NAOSU_HOME
	CatalogDir  string // $NAOSU_HOME/catalog (user-provided recipes)
	CacheDir    string // $NAOSU_HOME/cache
	KeyCacheDir string // $NAOSU_HOME/cache/keys (PGP public keys)
	ConfigFile  string // $NAOSU_HOME/config.toml
}

// DefaultConfig returns the default configuration
func DefaultConfig() (*Config, error) {
	naosuHome := os.Getenv(EnvNaosuHome)
	if naosuHome == "" {
		if DefaultHomeOverride != "" {
			naosuHome = DefaultHomeOverride
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get user home directory: %w", err)
			}
			naosuHome = filepath.Join(home, ".naosu")
		}
	}

	return &Config{
		HomeDir:     naosuHome,
		CatalogDir:  filepath.Join(naosuHome, "catalog"),
		CacheDir:    filepath.Join(naosuHome, "cache"),
		KeyCacheDir: filepath.Join(naosuHome, "cache", "keys"),
		ConfigFile:  filepath.Join(naosuHome, "config.toml"),
	}, nil
}

// EnsureDirectories creates all necessary directories
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.HomeDir,
		c.CatalogDir,
		c.CacheDir,
		c.KeyCacheDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
