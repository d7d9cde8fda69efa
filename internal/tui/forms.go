package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/quantmind-br/bundlefile/internal/profile"
	"github.com/quantmind-br/bundlefile/internal/writer"
)

func profileOptions(withAuto bool) []huh.Option[string] {
	var opts []huh.Option[string]
	if withAuto {
		opts = append(opts, huh.NewOption("Detect from the bundle", profile.AutoDetect))
	}
	for _, p := range profile.DefaultRegistry().Profiles() {
		opts = append(opts, huh.NewOption(p.DisplayName()+" ("+p.Name()+")", p.Name()))
	}
	return opts
}

func CreateBundleForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("profile").
				Title("Profile").
				Description("Format used by 'bundlefile bundle'").
				Options(profileOptions(false)...).
				Value(&values.BundleProfile),

			huh.NewInput().
				Key("max_file_size").
				Title("Max File Size").
				Description("Larger files fail the bundle (0 for unlimited)").
				Value(&values.MaxFileSize).
				Placeholder("10MB").
				Validate(ValidateSize),

			huh.NewConfirm().
				Key("checksums").
				Title("Checksums").
				Description("Record a SHA-256 checksum for every file").
				Value(&values.Checksums),

			huh.NewConfirm().
				Key("binary_as_base64").
				Title("Binary Files").
				Description("Embed binary files as base64 instead of failing").
				Value(&values.BinaryAsBase64),

			huh.NewInput().
				Key("concurrency").
				Title("Readers").
				Description("Number of files read in parallel (1-64)").
				Value(&values.BundleConcurrency).
				Placeholder("1").
				Validate(ValidateIntRange(1, 64)),
		),
	)
}

func CreatePatternsForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Key("allow").
				Title("Allow Patterns").
				Description("One glob per line; empty selects every file").
				Value(&values.AllowPatterns).
				Validate(ValidatePatterns),

			huh.NewText().
				Key("deny").
				Title("Deny Patterns").
				Description("One glob per line; deny wins over allow").
				Value(&values.DenyPatterns).
				Validate(ValidatePatterns),
		),
	)
}

func CreateUnbundleForm(values *ConfigValues) *huh.Form {
	var policies []huh.Option[string]
	for _, p := range writer.Policies() {
		policies = append(policies, huh.NewOption(string(p), string(p)))
	}
	var checksums []huh.Option[string]
	for _, p := range writer.ChecksumPolicies() {
		checksums = append(checksums, huh.NewOption(string(p), string(p)))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("output").
				Title("Output Directory").
				Description("Where restored files are written").
				Value(&values.Output).
				Placeholder(".").
				Validate(ValidateRequired),

			huh.NewSelect[string]().
				Key("profile").
				Title("Profile").
				Description("Profile used to read bundles").
				Options(profileOptions(true)...).
				Value(&values.UnbundleProfile),

			huh.NewSelect[string]().
				Key("overwrite_policy").
				Title("Overwrite Policy").
				Description("What to do when a file already exists").
				Options(policies...).
				Value(&values.OverwritePolicy),

			huh.NewSelect[string]().
				Key("checksum_policy").
				Title("Checksum Policy").
				Description("How declared checksums are enforced").
				Options(checksums...).
				Value(&values.ChecksumPolicy),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Key("add_headers").
				Title("File Headers").
				Description("Prepend a FILE comment to restored text files").
				Value(&values.AddHeaders),

			huh.NewConfirm().
				Key("dry_run").
				Title("Dry Run").
				Description("Report what would be written without writing").
				Value(&values.DryRun),

			huh.NewConfirm().
				Key("fail_fast").
				Title("Fail Fast").
				Description("Stop at the first failed file").
				Value(&values.FailFast),

			huh.NewInput().
				Key("concurrency").
				Title("Writers").
				Description("Number of parallel writes (1-64)").
				Value(&values.UnbundleConcurrency).
				Placeholder("1").
				Validate(ValidateIntRange(1, 64)),
		),
	)
}

func CreateLoggingForm(values *ConfigValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("level").
				Title("Log Level").
				Description("Minimum log level to display").
				Options(
					huh.NewOption("Debug", "debug"),
					huh.NewOption("Info", "info"),
					huh.NewOption("Warn", "warn"),
					huh.NewOption("Error", "error"),
				).
				Value(&values.LogLevel),

			huh.NewSelect[string]().
				Key("format").
				Title("Log Format").
				Description("Output format for logs").
				Options(
					huh.NewOption("Pretty (human-readable)", "pretty"),
					huh.NewOption("JSON (structured)", "json"),
				).
				Value(&values.LogFormat),
		),
	)
}

// GetFormForCategory returns the themed form editing category, or nil
func GetFormForCategory(category string, values *ConfigValues, accessible bool) *huh.Form {
	var form *huh.Form
	switch category {
	case "bundle":
		form = CreateBundleForm(values)
	case "patterns":
		form = CreatePatternsForm(values)
	case "unbundle":
		form = CreateUnbundleForm(values)
	case "logging":
		form = CreateLoggingForm(values)
	default:
		return nil
	}
	return form.WithTheme(GetTheme(accessible)).WithAccessible(accessible)
}
