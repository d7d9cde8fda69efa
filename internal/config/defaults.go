package config

import (
	"os"
	"path/filepath"

	"github.com/quantmind-br/bundlefile/internal/profile"
)

// Default values
const (
	// Bundle defaults
	DefaultProfile     = profile.MarkdownFenceName
	DefaultMaxFileSize = "10MB"

	// Unbundle defaults
	DefaultOutputDir       = "."
	DefaultOverwritePolicy = "prompt"
	DefaultChecksumPolicy  = "warn"

	DefaultConcurrency = 1

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// DefaultAllowPatterns includes every file
var DefaultAllowPatterns = []string{"**"}

// DefaultDenyPatterns excludes VCS metadata, virtualenvs, caches and logs
var DefaultDenyPatterns = []string{
	"**/.git/**",
	"**/.hg/**",
	"**/.svn/**",
	"**/.venv/**",
	"**/__pycache__/**",
	"**/.pytest_cache/**",
	"**/.tox/**",
	"*.log",
}

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bundlefile"
	}
	return filepath.Join(home, ".bundlefile")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Bundle: BundleConfig{
			Profile:        DefaultProfile,
			Allow:          append([]string(nil), DefaultAllowPatterns...),
			Deny:           append([]string(nil), DefaultDenyPatterns...),
			MaxFileSize:    DefaultMaxFileSize,
			Checksums:      true,
			BinaryAsBase64: true,
			Concurrency:    DefaultConcurrency,
		},
		Unbundle: UnbundleConfig{
			Output:          DefaultOutputDir,
			Profile:         profile.AutoDetect,
			OverwritePolicy: DefaultOverwritePolicy,
			ChecksumPolicy:  DefaultChecksumPolicy,
			Concurrency:     DefaultConcurrency,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
