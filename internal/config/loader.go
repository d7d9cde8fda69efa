package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. BUNDLEFILE_UNBUNDLE_DRY_RUN
const EnvPrefix = "BUNDLEFILE"

// Load loads configuration from file, environment, and defaults
// Uses the global viper instance to access CLI flag bindings
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper(), "")
}

// LoadWithViper loads configuration and returns the viper instance
// This is useful for merging CLI flags later
func LoadWithViper() (*Config, *viper.Viper, error) {
	v := viper.New()
	cfg, err := LoadFrom(v, "")
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// LoadFrom loads configuration into v. An explicit file must exist; without
// one, config.yaml is searched in ConfigDir() and the working directory.
func LoadFrom(v *viper.Viper, file string) (*Config, error) {
	// Set defaults
	setDefaults(v)

	// Config file settings
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || file != "" {
			return nil, err
		}
	}

	// Environment variables (BUNDLEFILE_*)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate and apply defaults for invalid values
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	def := Default()

	// Bundle defaults
	v.SetDefault("bundle.profile", def.Bundle.Profile)
	v.SetDefault("bundle.allow", def.Bundle.Allow)
	v.SetDefault("bundle.deny", def.Bundle.Deny)
	v.SetDefault("bundle.max_file_size", def.Bundle.MaxFileSize)
	v.SetDefault("bundle.checksums", def.Bundle.Checksums)
	v.SetDefault("bundle.binary_as_base64", def.Bundle.BinaryAsBase64)
	v.SetDefault("bundle.concurrency", def.Bundle.Concurrency)

	// Unbundle defaults
	v.SetDefault("unbundle.output", def.Unbundle.Output)
	v.SetDefault("unbundle.profile", def.Unbundle.Profile)
	v.SetDefault("unbundle.overwrite_policy", def.Unbundle.OverwritePolicy)
	v.SetDefault("unbundle.add_headers", def.Unbundle.AddHeaders)
	v.SetDefault("unbundle.dry_run", def.Unbundle.DryRun)
	v.SetDefault("unbundle.concurrency", def.Unbundle.Concurrency)
	v.SetDefault("unbundle.fail_fast", def.Unbundle.FailFast)
	v.SetDefault("unbundle.checksum_policy", def.Unbundle.ChecksumPolicy)

	// Logging defaults
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	dir := ConfigDir()
	return os.MkdirAll(dir, 0755)
}
