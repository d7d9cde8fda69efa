package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/textenc"
	"github.com/quantmind-br/bundlefile/internal/utils"
)

// DefaultTool is recorded in the "tool" metadata key when none is set
const DefaultTool = "bundlefile"

// Metadata keys written by the Builder
const (
	MetaCreated   = "created"
	MetaTool      = "tool"
	MetaSource    = "source"
	MetaFileCount = "file_count"
)

// BuilderOptions configures a Builder
type BuilderOptions struct {
	Allow []string
	Deny  []string
	// MaxFileSize is the per-file limit in bytes; 0 disables the check
	MaxFileSize    int64
	Checksums      bool
	BinaryAsBase64 bool
	Profile        string
	Tool           string
	Concurrency    int
	Now            func() time.Time
	Logger         *utils.Logger
	// OnFile is called after each file has been read. It may be called
	// from several goroutines.
	OnFile func(path string)
}

// Builder reads a directory tree into a Manifest
type Builder struct {
	opts   BuilderOptions
	filter *Filter
	logger *utils.Logger
}

// NewBuilder creates a Builder, validating the glob patterns
func NewBuilder(opts BuilderOptions) (*Builder, error) {
	filter, err := NewFilter(opts.Allow, opts.Deny)
	if err != nil {
		return nil, err
	}
	if opts.Tool == "" {
		opts.Tool = DefaultTool
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Builder{
		opts:   opts,
		filter: filter,
		logger: logger.WithComponent("builder"),
	}, nil
}

// Discover lists the files under root that Build would include. Files
// with names a bundle cannot carry are logged and left out.
func (b *Builder) Discover(root string) ([]string, error) {
	return Walk(root, b.filter, func(rel string, err error) {
		b.logger.Warn().Str("path", rel).Err(err).Msg("Skipping file")
	})
}

// Build discovers the files under root and reads them into a Manifest
func (b *Builder) Build(ctx context.Context, root string) (*domain.Manifest, error) {
	paths, err := b.Discover(root)
	if err != nil {
		return nil, err
	}
	return b.BuildFiles(ctx, root, paths)
}

// BuildFiles reads the given relative paths under root into a Manifest.
// Every unreadable, oversized or rejected file is reported.
func (b *Builder) BuildFiles(ctx context.Context, root string, paths []string) (*domain.Manifest, error) {
	b.logger.Debug().
		Str("root", root).
		Int("files", len(paths)).
		Msg("Building manifest")

	entries := make([]domain.Entry, len(paths))
	errs := utils.ParallelForEach(ctx, indexes(len(paths)), b.opts.Concurrency, func(ctx context.Context, i int) error {
		entry, err := b.readEntry(root, paths[i])
		if err != nil {
			return err
		}
		entries[i] = entry
		if b.opts.OnFile != nil {
			b.opts.OnFile(paths[i])
		}
		return nil
	})
	if failed := utils.CollectErrors(errs); len(failed) > 0 {
		return nil, errors.Join(failed...)
	}

	m, err := domain.NewManifest(b.opts.Profile, entries, b.metadata(root, len(entries)))
	if err != nil {
		return nil, fmt.Errorf("build manifest: %w", err)
	}

	b.logger.Info().
		Int("files", m.Len()).
		Int("binary", m.BinaryCount()).
		Int64("bytes", m.TotalSize()).
		Msg("Manifest built")
	return m, nil
}

func (b *Builder) readEntry(root, rel string) (domain.Entry, error) {
	full := filepath.Join(root, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("read %s: %w", rel, err)
	}
	if b.opts.MaxFileSize > 0 && info.Size() > b.opts.MaxFileSize {
		return domain.Entry{}, &domain.FileSizeError{Path: rel, Size: info.Size(), Limit: b.opts.MaxFileSize}
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("read %s: %w", rel, err)
	}

	det := textenc.Sniff(data)
	if det.Binary && !b.opts.BinaryAsBase64 {
		return domain.Entry{}, domain.NewEncodingError(rel, string(domain.EncodingBase64), "binary content and base64 transport disabled", nil)
	}

	entry := domain.Entry{
		Path:     rel,
		Content:  det.Content,
		IsBinary: det.Binary,
		Encoding: det.Encoding,
		EOL:      det.EOL,
		Size:     int64(len(data)),
	}
	if b.opts.Checksums {
		entry.Checksum = textenc.Checksum(data)
	}

	b.logger.Debug().
		Str("path", rel).
		Str("encoding", string(entry.Encoding)).
		Str("eol", string(entry.EOL)).
		Bool("binary", entry.IsBinary).
		Msg("File read")
	return entry, nil
}

func (b *Builder) metadata(root string, count int) map[string]string {
	source := filepath.Base(root)
	if abs, err := filepath.Abs(root); err == nil {
		source = filepath.Base(abs)
	}
	return map[string]string{
		MetaCreated:   b.opts.Now().UTC().Format(time.RFC3339),
		MetaTool:      b.opts.Tool,
		MetaSource:    source,
		MetaFileCount: strconv.Itoa(count),
	}
}

func indexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
