package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/quantmind-br/bundlefile/internal/config"
	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/profile"
	"github.com/quantmind-br/bundlefile/internal/tui"
	"github.com/quantmind-br/bundlefile/internal/utils"
	"github.com/quantmind-br/bundlefile/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Dependencies for testing
var (
	osStat       = os.Stat
	writeProbe   = os.CreateTemp
	configDir    = config.ConfigDir
	configFileAt = config.ConfigFilePath
)

// skipConfig replaces the root PersistentPreRunE for commands that must
// work without a loadable configuration
func skipConfig(*cobra.Command, []string) error { return nil }

type profileInfo struct {
	Name         string              `yaml:"name"`
	DisplayName  string              `yaml:"display_name"`
	Capabilities domain.Capabilities `yaml:"capabilities"`
}

func (c *cli) newProfilesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the available bundle profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			asYAML, _ := cmd.Flags().GetBool("yaml")

			o, err := c.orchestrator()
			if err != nil {
				return err
			}

			var infos []profileInfo
			for _, p := range o.Registry().Profiles() {
				infos = append(infos, profileInfo{
					Name:         p.Name(),
					DisplayName:  p.DisplayName(),
					Capabilities: p.Capabilities(),
				})
			}
			if asYAML {
				return writeYAML(cmd.OutOrStdout(), infos)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tDESCRIPTION\tBINARY\tCHECKSUMS\tMETADATA")
			for _, p := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Name, p.DisplayName,
					yesNo(p.Capabilities.SupportsBinary),
					yesNo(p.Capabilities.SupportsChecksums),
					yesNo(p.Capabilities.SupportsMetadata))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("yaml", false, "Print the profiles as YAML")
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (c *cli) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeYAML(cmd.OutOrStdout(), c.cfg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:               "path",
		Short:             "Print the default configuration file path",
		Args:              cobra.NoArgs,
		PersistentPreRunE: skipConfig,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), configFileAt())
		},
	})

	initCmd := &cobra.Command{
		Use:               "init",
		Short:             "Write the default configuration file",
		Args:              cobra.NoArgs,
		PersistentPreRunE: skipConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			force, _ := cmd.Flags().GetBool("force")
			path := configFileAt()

			exists, err := utils.Exists(path)
			if err != nil {
				return err
			}
			if exists && !force {
				return fmt.Errorf("%s already exists (use --force to replace it)", path)
			}
			if err := config.EnsureConfigDir(); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := saveConfig(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "Replace an existing configuration file")
	cmd.AddCommand(initCmd)

	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit the configuration file interactively",
		Long: `Open a terminal editor for the configuration. Saving writes the file given
with --config, or the default configuration file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accessible, _ := cmd.Flags().GetBool("accessible")
			target := c.cfgFile
			if target == "" {
				target = configFileAt()
			}
			return tui.Run(tui.Options{
				Config:     c.cfg,
				Target:     target,
				Accessible: accessible,
				Input:      cmd.InOrStdin(),
				Output:     cmd.OutOrStdout(),
				SaveFunc: func(cfg *config.Config) error {
					return saveConfig(target, cfg)
				},
			})
		},
	}
	editCmd.Flags().Bool("accessible", false, "Use plain prompts suitable for screen readers")
	cmd.AddCommand(editCmd)

	return cmd
}

// saveConfig writes cfg as YAML to path
func saveConfig(path string, cfg *config.Config) error {
	var buf bytes.Buffer
	if err := writeYAML(&buf, cfg); err != nil {
		return err
	}
	return writeOutput(io.Discard, path, buf.Bytes())
}

func (c *cli) newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "doctor",
		Short:             "Check the configuration and environment",
		Long:              "Verifies that the configuration loads and that bundles can be written and restored here.",
		PersistentPreRunE: skipConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Checking bundlefile setup...")
			allPassed := true

			// Check 1: Config file
			fmt.Fprint(out, "  Config file: ")
			cfg, err := config.LoadFrom(viper.New(), c.cfgFile)
			if err != nil {
				fmt.Fprintf(out, "FAILED (%v)\n", err)
				allPassed = false
				cfg = config.Default()
			} else {
				fmt.Fprintln(out, "OK")
			}

			// Check 2: Config directory
			fmt.Fprint(out, "  Config directory: ")
			if info, err := osStat(configDir()); err == nil && info.IsDir() {
				fmt.Fprintf(out, "OK (%s)\n", configDir())
			} else {
				fmt.Fprintln(out, "WARN (run 'bundlefile config init' to create it)")
			}

			// Check 3: Write permissions for the output directory
			output := utils.ExpandPath(cfg.Unbundle.Output)
			fmt.Fprintf(out, "  Write permissions (%s): ", output)
			if checkWritePermissions(output) {
				fmt.Fprintln(out, "OK")
			} else {
				fmt.Fprintln(out, "FAILED")
				allPassed = false
			}

			// Check 4: Profiles
			names := profile.DefaultRegistry().Names()
			fmt.Fprintf(out, "  Profiles: %d registered (%v)\n", len(names), names)

			fmt.Fprintln(out)
			if !allPassed {
				fmt.Fprintln(out, "Some checks failed. Please resolve the issues above.")
				return fmt.Errorf("doctor found problems")
			}
			fmt.Fprintln(out, "All critical checks passed!")
			return nil
		},
	}
}

// checkWritePermissions checks if a file can be created in dir
func checkWritePermissions(dir string) bool {
	f, err := writeProbe(dir, ".bundlefile_write_*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return true
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "version",
		Short:             "Print version information",
		PersistentPreRunE: skipConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
				return writeYAML(cmd.OutOrStdout(), version.Get())
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return nil
		},
	}
	cmd.Flags().Bool("yaml", false, "Print version information as YAML")
	return cmd
}
