package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/quantmind-br/bundlefile/internal/app"
	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/utils"
	"github.com/quantmind-br/bundlefile/internal/writer"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func (c *cli) newUnbundleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unbundle <file>",
		Short: "Restore the files of a bundle",
		Long: `Restore every file of a bundle under the output directory.

The profile is detected from the bundle unless --profile is given. Use - to
read the bundle from stdin. Under the prompt overwrite policy each existing
file is confirmed interactively; answer "all" or "none" to stop asking.
Prompting needs stdin, so a bundle read from stdin reports conflicts instead.`,
		Example: `  bundlefile unbundle src.md -o ./restored
  bundlefile unbundle src.md --overwrite skip --dry-run
  cat src.jsonl | bundlefile unbundle - --overwrite overwrite -j 4`,
		Args: cobra.ExactArgs(1),
		RunE: c.runUnbundle,
	}

	f := cmd.Flags()
	f.StringP("output", "o", "", "Output directory")
	f.StringP("profile", "p", "", "Bundle profile (auto, md_fence, plain_marker, jsonl)")
	f.String("overwrite", "", "Overwrite policy ("+policyNames()+")")
	f.Bool("dry-run", false, "Report what would be written without writing")
	f.Bool("headers", false, "Prepend a FILE header comment to text files")
	f.IntP("concurrency", "j", 0, "Number of parallel writes")
	f.Bool("fail-fast", false, "Stop at the first failed file")
	f.String("checksums", "", "Checksum policy (ignore, warn, strict)")
	f.Bool("no-progress", false, "Hide the progress bar")

	c.bind(f, map[string]string{
		"unbundle.output":           "output",
		"unbundle.profile":          "profile",
		"unbundle.overwrite_policy": "overwrite",
		"unbundle.dry_run":          "dry-run",
		"unbundle.add_headers":      "headers",
		"unbundle.concurrency":      "concurrency",
		"unbundle.fail_fast":        "fail-fast",
		"unbundle.checksum_policy":  "checksums",
	})
	return cmd
}

func policyNames() string {
	names := make([]string, 0, len(writer.Policies()))
	for _, p := range writer.Policies() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

func (c *cli) runUnbundle(cmd *cobra.Command, args []string) error {
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	errOut := cmd.ErrOrStderr()

	text, err := readInput(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	o, err := c.orchestrator()
	if err != nil {
		return err
	}

	cfg := c.cfg.Unbundle
	interactive := cfg.OverwritePolicy == string(writer.PolicyPrompt) && args[0] != "-" && !cfg.DryRun

	var bar *progressbar.ProgressBar
	var opts app.UnbundleOptions
	if interactive {
		opts.Resolve = newPrompter(cmd.InOrStdin(), errOut).Resolve
	} else if !noProgress {
		opts.OnParsed = func(m *domain.Manifest) {
			bar = utils.NewProgressBar(m.Len(), utils.DescExtracting, progressbar.OptionSetWriter(errOut))
		}
		opts.OnEntry = func(writer.Result, error) {
			_ = bar.Add(1)
		}
	}

	res, err := o.Unbundle(cmd.Context(), text, opts)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(errOut)
	}
	if res == nil {
		return err
	}

	report := res.Report
	if cfg.DryRun {
		printDryRun(cmd.OutOrStdout(), report)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(errOut, "  %v\n", e)
	}

	verb := "Restored"
	if cfg.DryRun {
		verb = "Would restore"
	}
	fmt.Fprintf(errOut, "%s %d files to %s (skipped %d, renamed %d, failed %d",
		verb, report.Processed, cfg.Output, report.Skipped, report.Renamed, report.Failed)
	if report.Aborted > 0 {
		fmt.Fprintf(errOut, ", not attempted %d", report.Aborted)
	}
	fmt.Fprintln(errOut, ")")

	if err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d files failed", report.Failed, res.Manifest.Len())
	}
	return nil
}

func printDryRun(w io.Writer, report *writer.Report) {
	for _, r := range report.Results {
		if r.Entry == "" {
			continue
		}
		switch r.Status {
		case writer.StatusRenamed:
			fmt.Fprintf(w, "%-9s %s -> %s\n", r.Status, r.Entry, r.Path)
		default:
			fmt.Fprintf(w, "%-9s %s\n", r.Status, r.Entry)
		}
	}
}
