package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/quantmind-br/bundlefile/internal/app"
	"github.com/quantmind-br/bundlefile/internal/config"
	"github.com/quantmind-br/bundlefile/internal/utils"
	"github.com/quantmind-br/bundlefile/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// cli holds the state shared by every command of one invocation
type cli struct {
	v       *viper.Viper
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *utils.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "bundlefile",
		Short: "Pack a directory tree into one text bundle and back",
		Long: `bundlefile packs the files of a directory tree into a single text bundle
and restores the tree from it, byte for byte.

Bundles come in three profiles: md_fence (fenced Markdown blocks, the default),
plain_marker (comment separators) and jsonl (one JSON record per file).`,
		Version:           version.Short(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.initConfig,
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "config file (default is ~/.bundlefile/config.yaml)")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "Verbose output")
	pf.String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	pf.String("log-format", config.DefaultLogFormat, "Log format (pretty, json)")

	c.bind(pf, map[string]string{
		"logging.level":  "log-level",
		"logging.format": "log-format",
	})

	// Add subcommands
	rootCmd.AddCommand(c.newBundleCmd())
	rootCmd.AddCommand(c.newUnbundleCmd())
	rootCmd.AddCommand(c.newValidateCmd())
	rootCmd.AddCommand(c.newInspectCmd())
	rootCmd.AddCommand(c.newConvertCmd())
	rootCmd.AddCommand(c.newProfilesCmd())
	rootCmd.AddCommand(c.newConfigCmd())
	rootCmd.AddCommand(c.newDoctorCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// bind maps viper keys to flags of fs
func (c *cli) bind(fs *pflag.FlagSet, keys map[string]string) {
	for key, flag := range keys {
		_ = c.v.BindPFlag(key, fs.Lookup(flag))
	}
}

// initConfig loads the configuration and sets up the logger. Bound flags
// override the environment, which overrides the config file.
func (c *cli) initConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFrom(c.v, c.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c.cfg = cfg

	level := cfg.Logging.Level
	if c.verbose {
		level = "debug"
	}
	c.logger = utils.NewLogger(utils.LoggerOptions{
		Level:   level,
		Format:  cfg.Logging.Format,
		Output:  cmd.ErrOrStderr(),
		Verbose: c.verbose,
	})
	return nil
}

func (c *cli) orchestrator() (*app.Orchestrator, error) {
	o, err := app.NewOrchestrator(app.OrchestratorOptions{
		Config:  c.cfg,
		Logger:  c.logger,
		Verbose: c.verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}
	return o, nil
}
