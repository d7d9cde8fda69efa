package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/quantmind-br/bundlefile/internal/app"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (c *cli) newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Parse a bundle and verify its checksums",
		Long: `Parse a bundle and verify every declared checksum. With --target, also
check that the bundle could be written in another profile.`,
		Args: cobra.ExactArgs(1),
		RunE: c.runValidate,
	}
	cmd.Flags().StringP("profile", "p", "auto", "Bundle profile (auto, md_fence, plain_marker, jsonl)")
	cmd.Flags().String("target", "", "Profile the bundle must be convertible to")
	return cmd
}

func (c *cli) runValidate(cmd *cobra.Command, args []string) error {
	profileName, _ := cmd.Flags().GetString("profile")
	target, _ := cmd.Flags().GetString("target")

	text, err := readInput(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	o, err := c.orchestrator()
	if err != nil {
		return err
	}

	report, err := o.Validate(text, profileName, target)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range report.ChecksumErrors {
		fmt.Fprintf(out, "FAIL  %v\n", e)
	}
	if report.Target != nil {
		if report.TargetError != nil {
			fmt.Fprintf(out, "FAIL  %v\n", report.TargetError)
		}
		for _, a := range report.Advisories {
			fmt.Fprintf(out, "NOTE  %s\n", a)
		}
	}

	if !report.OK() {
		return fmt.Errorf("%s: bundle is not valid", args[0])
	}
	fmt.Fprintf(out, "OK    %d files, profile %s, format %s\n",
		report.Manifest.Len(), report.Profile.Name(), report.Manifest.Version())
	return nil
}

func (c *cli) newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "List the entries of a bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profileName, _ := cmd.Flags().GetString("profile")
			asYAML, _ := cmd.Flags().GetBool("yaml")

			text, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			o, err := c.orchestrator()
			if err != nil {
				return err
			}
			summary, err := o.Inspect(text, profileName)
			if err != nil {
				return err
			}

			if asYAML {
				return writeYAML(cmd.OutOrStdout(), summary)
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().StringP("profile", "p", "auto", "Bundle profile (auto, md_fence, plain_marker, jsonl)")
	cmd.Flags().Bool("yaml", false, "Print the summary as YAML")
	return cmd
}

func printSummary(w io.Writer, s app.Summary) error {
	fmt.Fprintf(w, "Profile: %s (format %s)\n", s.Profile, s.Version)
	fmt.Fprintf(w, "Files:   %d (%d text, %d binary)\n", s.Files, s.Text, s.Binary)
	for _, k := range slices.Sorted(maps.Keys(s.Metadata)) {
		fmt.Fprintf(w, "Meta:    %s=%s\n", k, s.Metadata[k])
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tENCODING\tEOL\tSIZE")
	for _, e := range s.Entries {
		size := "-"
		if e.Size > 0 {
			size = fmt.Sprintf("%d", e.Size)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Path, e.Encoding, e.EOL, size)
	}
	return tw.Flush()
}

func (c *cli) newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "convert <file>",
		Short:   "Rewrite a bundle in another profile",
		Example: `  bundlefile convert src.md --to jsonl -o src.jsonl`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetString("profile")
			to, _ := cmd.Flags().GetString("to")
			output, _ := cmd.Flags().GetString("output")

			text, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			o, err := c.orchestrator()
			if err != nil {
				return err
			}
			converted, advisories, err := o.Convert(text, from, to)
			if err != nil {
				return err
			}
			for _, a := range advisories {
				c.logger.Warn().Str("profile", to).Msg(a)
			}
			return writeOutput(cmd.OutOrStdout(), output, []byte(converted))
		},
	}
	cmd.Flags().StringP("profile", "p", "auto", "Profile of the input bundle")
	cmd.Flags().String("to", "", "Profile to convert to")
	cmd.Flags().StringP("output", "o", "-", "File to write (- for stdout)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
