package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"
	"github.com/quantmind-br/bundlefile/internal/app"
	"github.com/quantmind-br/bundlefile/internal/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func (c *cli) newBundleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle <dir>",
		Short: "Pack a directory tree into a bundle",
		Long: `Pack every file under <dir> into one bundle.

Files are selected with glob patterns matched against their forward-slash
path relative to <dir>; patterns without a slash also match the base name.
The bundle is written to stdout unless --output is given.`,
		Example: `  bundlefile bundle ./src -o src.md
  bundlefile bundle . --profile jsonl --include '**/*.go' --exclude vendor/**`,
		Args: cobra.ExactArgs(1),
		RunE: c.runBundle,
	}

	f := cmd.Flags()
	f.StringP("output", "o", "-", "Bundle file to write (- for stdout)")
	f.StringP("profile", "p", "", "Bundle profile (md_fence, plain_marker, jsonl)")
	f.StringSlice("include", nil, "Glob patterns to include (replaces the configured allow list)")
	f.StringSlice("exclude", nil, "Glob patterns to exclude (added to the configured deny list)")
	f.String("max-size", "", "Maximum file size, e.g. 512KB or 10MB (0 for unlimited)")
	f.Bool("no-checksums", false, "Omit SHA-256 checksums")
	f.Bool("no-binary", false, "Fail on binary files instead of embedding them as base64")
	f.IntP("concurrency", "j", 0, "Number of files read in parallel")
	f.Bool("no-progress", false, "Hide the progress bar")

	c.bind(f, map[string]string{
		"bundle.profile":       "profile",
		"bundle.allow":         "include",
		"bundle.max_file_size": "max-size",
		"bundle.concurrency":   "concurrency",
	})
	return cmd
}

func (c *cli) runBundle(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	if noChecksums, _ := f.GetBool("no-checksums"); noChecksums {
		c.cfg.Bundle.Checksums = false
	}
	if noBinary, _ := f.GetBool("no-binary"); noBinary {
		c.cfg.Bundle.BinaryAsBase64 = false
	}
	exclude, _ := f.GetStringSlice("exclude")
	c.cfg.Bundle.Deny = append(c.cfg.Bundle.Deny, exclude...)
	output, _ := f.GetString("output")
	noProgress, _ := f.GetBool("no-progress")

	o, err := c.orchestrator()
	if err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	var opts app.BundleOptions
	if !noProgress {
		opts.OnDiscovered = func(total int) {
			bar = utils.NewProgressBar(total, utils.DescBundling, progressbar.OptionSetWriter(cmd.ErrOrStderr()))
		}
		opts.OnFile = func(string) {
			_ = bar.Add(1)
		}
	}

	var buf bytes.Buffer
	res, err := o.Bundle(cmd.Context(), args[0], &buf, opts)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil {
		return err
	}

	if err := writeOutput(cmd.OutOrStdout(), output, buf.Bytes()); err != nil {
		return err
	}

	dest := output
	if dest == "" || dest == "-" {
		dest = "stdout"
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Bundled %d files (%d text, %d binary) into %s as %s\n",
		res.Manifest.Len(), res.Manifest.TextCount(), res.Manifest.BinaryCount(), dest, res.Profile.Name())
	return nil
}

// writeOutput writes data to stdout for "" or "-", otherwise atomically
// to path
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}

	path = utils.ExpandPath(path)
	if err := utils.EnsureDir(path); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return os.Chmod(path, 0644)
}

// readInput reads a bundle file, or stdin for "-"
func readInput(stdin io.Reader, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(utils.ExpandPath(path))
	}
	if err != nil {
		return "", fmt.Errorf("read bundle: %w", err)
	}
	return app.DecodeBundleText(data), nil
}
