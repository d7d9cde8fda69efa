package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/profile"
	"github.com/quantmind-br/bundlefile/internal/writer"
)

// Config represents the application configuration
type Config struct {
	Bundle   BundleConfig   `mapstructure:"bundle" yaml:"bundle"`
	Unbundle UnbundleConfig `mapstructure:"unbundle" yaml:"unbundle"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// BundleConfig contains settings for creating bundles
type BundleConfig struct {
	Profile        string   `mapstructure:"profile" yaml:"profile"`
	Allow          []string `mapstructure:"allow" yaml:"allow"`
	Deny           []string `mapstructure:"deny" yaml:"deny"`
	MaxFileSize    string   `mapstructure:"max_file_size" yaml:"max_file_size"`
	Checksums      bool     `mapstructure:"checksums" yaml:"checksums"`
	BinaryAsBase64 bool     `mapstructure:"binary_as_base64" yaml:"binary_as_base64"`
	Concurrency    int      `mapstructure:"concurrency" yaml:"concurrency"`
}

// UnbundleConfig contains settings for extracting bundles
type UnbundleConfig struct {
	Output          string `mapstructure:"output" yaml:"output"`
	Profile         string `mapstructure:"profile" yaml:"profile"`
	OverwritePolicy string `mapstructure:"overwrite_policy" yaml:"overwrite_policy"`
	AddHeaders      bool   `mapstructure:"add_headers" yaml:"add_headers"`
	DryRun          bool   `mapstructure:"dry_run" yaml:"dry_run"`
	Concurrency     int    `mapstructure:"concurrency" yaml:"concurrency"`
	FailFast        bool   `mapstructure:"fail_fast" yaml:"fail_fast"`
	ChecksumPolicy  string `mapstructure:"checksum_policy" yaml:"checksum_policy"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate normalizes the configuration, falling back to defaults for
// unset values, and rejects unknown profiles and policies
func (c *Config) Validate() error {
	names := profile.DefaultRegistry().Names()

	c.Bundle.Profile = strings.ToLower(strings.TrimSpace(c.Bundle.Profile))
	if c.Bundle.Profile == "" {
		c.Bundle.Profile = DefaultProfile
	}
	if !slices.Contains(names, c.Bundle.Profile) {
		return domain.NewValidationError("bundle.profile", fmt.Sprintf("unknown profile %q (available: %s)", c.Bundle.Profile, strings.Join(names, ", ")))
	}

	if c.Bundle.MaxFileSize == "" {
		c.Bundle.MaxFileSize = DefaultMaxFileSize
	} else if _, err := ParseSize(c.Bundle.MaxFileSize); err != nil {
		return fmt.Errorf("invalid bundle.max_file_size: %w", err)
	}
	if c.Bundle.Concurrency < 1 {
		c.Bundle.Concurrency = DefaultConcurrency
	}

	c.Unbundle.Profile = strings.ToLower(strings.TrimSpace(c.Unbundle.Profile))
	if c.Unbundle.Profile == "" {
		c.Unbundle.Profile = profile.AutoDetect
	}
	if c.Unbundle.Profile != profile.AutoDetect && !slices.Contains(names, c.Unbundle.Profile) {
		return domain.NewValidationError("unbundle.profile", fmt.Sprintf("unknown profile %q (available: %s)", c.Unbundle.Profile, strings.Join(names, ", ")))
	}

	if c.Unbundle.Output == "" {
		c.Unbundle.Output = DefaultOutputDir
	}
	if c.Unbundle.OverwritePolicy == "" {
		c.Unbundle.OverwritePolicy = DefaultOverwritePolicy
	}
	policy, err := writer.ParsePolicy(c.Unbundle.OverwritePolicy)
	if err != nil {
		return err
	}
	c.Unbundle.OverwritePolicy = string(policy)

	if c.Unbundle.ChecksumPolicy == "" {
		c.Unbundle.ChecksumPolicy = DefaultChecksumPolicy
	}
	checksums, err := writer.ParseChecksumPolicy(c.Unbundle.ChecksumPolicy)
	if err != nil {
		return err
	}
	c.Unbundle.ChecksumPolicy = string(checksums)

	if c.Unbundle.Concurrency < 1 {
		c.Unbundle.Concurrency = DefaultConcurrency
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	return nil
}

// MaxFileSizeBytes returns bundle.max_file_size in bytes
func (c *Config) MaxFileSizeBytes() (int64, error) {
	return ParseSize(c.Bundle.MaxFileSize)
}

func ParseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	var multiplier int64 = 1
	if strings.HasSuffix(s, "GB") {
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "GB")
	} else if strings.HasSuffix(s, "MB") {
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "MB")
	} else if strings.HasSuffix(s, "KB") {
		multiplier = 1024
		s = strings.TrimSuffix(s, "KB")
	} else if strings.HasSuffix(s, "B") {
		s = strings.TrimSuffix(s, "B")
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("no numeric value in size string")
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value: %w", err)
	}

	if n < 0 {
		return 0, fmt.Errorf("negative size not allowed")
	}

	return n * multiplier, nil
}
