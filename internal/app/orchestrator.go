package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/quantmind-br/bundlefile/internal/config"
	"github.com/quantmind-br/bundlefile/internal/discovery"
	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/profile"
	"github.com/quantmind-br/bundlefile/internal/textenc"
	"github.com/quantmind-br/bundlefile/internal/utils"
	"github.com/quantmind-br/bundlefile/internal/writer"
	"github.com/quantmind-br/bundlefile/pkg/version"
)

// Orchestrator coordinates bundling and unbundling
type Orchestrator struct {
	config   *config.Config
	registry *profile.Registry
	logger   *utils.Logger
}

// OrchestratorOptions contains options for creating an orchestrator
type OrchestratorOptions struct {
	Config   *config.Config
	Registry *profile.Registry
	Logger   *utils.Logger
	Verbose  bool
}

// NewOrchestrator creates a new orchestrator with the given configuration
func NewOrchestrator(opts OrchestratorOptions) (*Orchestrator, error) {
	cfg := opts.Config

	// Validate config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := opts.Logger
	if logger == nil {
		logLevel := cfg.Logging.Level
		if opts.Verbose {
			logLevel = "debug"
		}
		logger = utils.NewLogger(utils.LoggerOptions{
			Level:   logLevel,
			Format:  cfg.Logging.Format,
			Verbose: opts.Verbose,
		})
	}

	registry := opts.Registry
	if registry == nil {
		registry = profile.DefaultRegistry()
	}

	return &Orchestrator{
		config:   cfg,
		registry: registry,
		logger:   logger,
	}, nil
}

// Registry returns the profile registry in use
func (o *Orchestrator) Registry() *profile.Registry {
	return o.registry
}

// BundleOptions contains per-call hooks for Bundle
type BundleOptions struct {
	// OnDiscovered receives the number of files selected for the bundle
	OnDiscovered func(total int)
	// OnFile is called after each file has been read
	OnFile func(path string)
}

// BundleResult describes a written bundle
type BundleResult struct {
	Manifest   *domain.Manifest
	Profile    domain.Profile
	Advisories []string
	Bytes      int
}

// Bundle reads the tree under root and writes it to out in the configured
// profile
func (o *Orchestrator) Bundle(ctx context.Context, root string, out io.Writer, opts BundleOptions) (*BundleResult, error) {
	startTime := time.Now()
	cfg := o.config.Bundle

	p, err := o.registry.Get(cfg.Profile)
	if err != nil {
		return nil, err
	}
	maxSize, err := o.config.MaxFileSizeBytes()
	if err != nil {
		return nil, err
	}

	o.logger.Info().
		Str("source", root).
		Str("profile", p.Name()).
		Msg("Starting bundle")

	builder, err := discovery.NewBuilder(discovery.BuilderOptions{
		Allow:          cfg.Allow,
		Deny:           cfg.Deny,
		MaxFileSize:    maxSize,
		Checksums:      cfg.Checksums,
		BinaryAsBase64: cfg.BinaryAsBase64,
		Profile:        p.Name(),
		Tool:           "bundlefile " + version.Short(),
		Concurrency:    cfg.Concurrency,
		Logger:         o.logger,
		OnFile:         opts.OnFile,
	})
	if err != nil {
		return nil, err
	}

	paths, err := builder.Discover(root)
	if err != nil {
		return nil, err
	}
	if opts.OnDiscovered != nil {
		opts.OnDiscovered(len(paths))
	}

	m, err := builder.BuildFiles(ctx, root, paths)
	if err != nil {
		return nil, err
	}

	advisories := profile.Advisories(p, m)
	for _, msg := range advisories {
		o.logger.Warn().Str("profile", p.Name()).Msg(msg)
	}

	text, err := p.Format(m)
	if err != nil {
		return nil, err
	}
	n, err := io.WriteString(out, text)
	if err != nil {
		return nil, fmt.Errorf("write bundle: %w", err)
	}

	o.logger.Info().
		Int("files", m.Len()).
		Int("bytes", n).
		Dur("duration", time.Since(startTime)).
		Msg("Bundle completed")

	return &BundleResult{Manifest: m, Profile: p, Advisories: advisories, Bytes: n}, nil
}

// UnbundleOptions contains per-call hooks for Unbundle
type UnbundleOptions struct {
	Resolve writer.ResolveFunc
	OnEntry func(writer.Result, error)
	// OnParsed receives the manifest before any file is written
	OnParsed func(m *domain.Manifest)
}

// UnbundleResult describes an extraction
type UnbundleResult struct {
	Manifest *domain.Manifest
	Profile  domain.Profile
	Report   *writer.Report
}

// Unbundle parses bundle text and writes its files under the configured
// output directory, creating it unless this is a dry run
func (o *Orchestrator) Unbundle(ctx context.Context, text string, opts UnbundleOptions) (*UnbundleResult, error) {
	startTime := time.Now()
	cfg := o.config.Unbundle

	m, p, err := o.registry.Parse(text, cfg.Profile)
	if err != nil {
		return nil, err
	}
	logger := o.logger.WithProfile(p.Name())
	logger.Info().
		Int("files", m.Len()).
		Str("output", cfg.Output).
		Bool("dry_run", cfg.DryRun).
		Msg("Bundle parsed")

	if opts.OnParsed != nil {
		opts.OnParsed(m)
	}

	output := utils.ExpandPath(cfg.Output)
	if !cfg.DryRun {
		if err := os.MkdirAll(output, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	w := writer.New(writer.Options{
		BaseDir:        output,
		Policy:         writer.Policy(cfg.OverwritePolicy),
		AddHeaders:     cfg.AddHeaders,
		DryRun:         cfg.DryRun,
		ChecksumPolicy: writer.ChecksumPolicy(cfg.ChecksumPolicy),
		Logger:         logger,
	})

	report, err := w.Extract(ctx, m, writer.ExtractOptions{
		Concurrency: cfg.Concurrency,
		FailFast:    cfg.FailFast,
		Resolve:     opts.Resolve,
		OnEntry:     opts.OnEntry,
	})
	if err != nil {
		if ctx.Err() != nil {
			logger.Warn().Msg("Extraction cancelled")
		}
		return &UnbundleResult{Manifest: m, Profile: p, Report: report}, err
	}

	logger.Info().
		Dur("duration", time.Since(startTime)).
		Msg("Unbundle completed")

	return &UnbundleResult{Manifest: m, Profile: p, Report: report}, nil
}

// ValidationReport is the outcome of Validate
type ValidationReport struct {
	Manifest *domain.Manifest
	Profile  domain.Profile
	// ChecksumErrors holds one error per entry failing verification
	ChecksumErrors []error
	// Target is the profile checked for convertibility, if any
	Target      domain.Profile
	TargetError error
	Advisories  []string
}

// OK reports whether the bundle verified cleanly
func (r *ValidationReport) OK() bool {
	return len(r.ChecksumErrors) == 0 && r.TargetError == nil
}

// Validate parses bundle text, verifies every checksum and optionally
// checks that the manifest can be formatted with the target profile
func (o *Orchestrator) Validate(text, profileName, target string) (*ValidationReport, error) {
	m, p, err := o.registry.Parse(text, profileName)
	if err != nil {
		return nil, err
	}

	report := &ValidationReport{
		Manifest:       m,
		Profile:        p,
		ChecksumErrors: textenc.VerifyManifest(m),
	}

	if target != "" {
		tp, err := o.registry.Get(target)
		if err != nil {
			return nil, err
		}
		report.Target = tp
		report.TargetError = tp.ValidateManifest(m)
		report.Advisories = profile.Advisories(tp, m)
	}

	o.logger.Debug().
		Str("profile", p.Name()).
		Int("files", m.Len()).
		Int("checksum_errors", len(report.ChecksumErrors)).
		Bool("ok", report.OK()).
		Msg("Bundle validated")
	return report, nil
}

// Convert re-formats bundle text with another profile
func (o *Orchestrator) Convert(text, from, to string) (string, []string, error) {
	m, _, err := o.registry.Parse(text, from)
	if err != nil {
		return "", nil, err
	}
	tp, err := o.registry.Get(to)
	if err != nil {
		return "", nil, err
	}
	out, err := tp.Format(m.WithProfile(tp.Name()))
	if err != nil {
		return "", nil, err
	}
	return out, profile.Advisories(tp, m), nil
}

// DecodeBundleText converts raw bundle file bytes to text, dropping a
// leading UTF-8 BOM
func DecodeBundleText(data []byte) string {
	return string(bytes.TrimPrefix(data, textenc.UTF8BOM))
}
