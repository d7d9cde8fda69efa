package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quantmind-br/bundlefile/internal/config"
)

// ConfigValues holds form values that map to Config struct.
// Numeric fields and pattern lists are stored as strings for form editing.
type ConfigValues struct {
	BundleProfile     string
	MaxFileSize       string
	Checksums         bool
	BinaryAsBase64    bool
	BundleConcurrency string

	// one glob per line
	AllowPatterns string
	DenyPatterns  string

	Output              string
	UnbundleProfile     string
	OverwritePolicy     string
	ChecksumPolicy      string
	AddHeaders          bool
	DryRun              bool
	FailFast            bool
	UnbundleConcurrency string

	LogLevel  string
	LogFormat string
}

// FromConfig converts a Config to ConfigValues for form editing
func FromConfig(cfg *config.Config) *ConfigValues {
	return &ConfigValues{
		BundleProfile:     cfg.Bundle.Profile,
		MaxFileSize:       cfg.Bundle.MaxFileSize,
		Checksums:         cfg.Bundle.Checksums,
		BinaryAsBase64:    cfg.Bundle.BinaryAsBase64,
		BundleConcurrency: strconv.Itoa(cfg.Bundle.Concurrency),

		AllowPatterns: strings.Join(cfg.Bundle.Allow, "\n"),
		DenyPatterns:  strings.Join(cfg.Bundle.Deny, "\n"),

		Output:              cfg.Unbundle.Output,
		UnbundleProfile:     cfg.Unbundle.Profile,
		OverwritePolicy:     cfg.Unbundle.OverwritePolicy,
		ChecksumPolicy:      cfg.Unbundle.ChecksumPolicy,
		AddHeaders:          cfg.Unbundle.AddHeaders,
		DryRun:              cfg.Unbundle.DryRun,
		FailFast:            cfg.Unbundle.FailFast,
		UnbundleConcurrency: strconv.Itoa(cfg.Unbundle.Concurrency),

		LogLevel:  cfg.Logging.Level,
		LogFormat: cfg.Logging.Format,
	}
}

// ToConfig converts ConfigValues back to a validated Config
func (v *ConfigValues) ToConfig() (*config.Config, error) {
	bundleWorkers, err := parseIntOrDefault(v.BundleConcurrency, config.DefaultConcurrency)
	if err != nil {
		return nil, fmt.Errorf("invalid bundle.concurrency: %w", err)
	}
	unbundleWorkers, err := parseIntOrDefault(v.UnbundleConcurrency, config.DefaultConcurrency)
	if err != nil {
		return nil, fmt.Errorf("invalid unbundle.concurrency: %w", err)
	}

	cfg := &config.Config{
		Bundle: config.BundleConfig{
			Profile:        v.BundleProfile,
			Allow:          splitPatterns(v.AllowPatterns),
			Deny:           splitPatterns(v.DenyPatterns),
			MaxFileSize:    strings.TrimSpace(v.MaxFileSize),
			Checksums:      v.Checksums,
			BinaryAsBase64: v.BinaryAsBase64,
			Concurrency:    bundleWorkers,
		},
		Unbundle: config.UnbundleConfig{
			Output:          strings.TrimSpace(v.Output),
			Profile:         v.UnbundleProfile,
			OverwritePolicy: v.OverwritePolicy,
			AddHeaders:      v.AddHeaders,
			DryRun:          v.DryRun,
			Concurrency:     unbundleWorkers,
			FailFast:        v.FailFast,
			ChecksumPolicy:  v.ChecksumPolicy,
		},
		Logging: config.LoggingConfig{
			Level:  v.LogLevel,
			Format: v.LogFormat,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitPatterns splits one pattern per line, dropping blank lines
func splitPatterns(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseIntOrDefault(s string, defaultVal int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(s)
}
