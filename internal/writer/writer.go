package writer

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/textenc"
	"github.com/quantmind-br/bundlefile/internal/utils"
)

// DefaultFileMode is applied to written files when Options.FileMode is zero
const DefaultFileMode os.FileMode = 0644

// Writer materializes manifest entries under a base directory
type Writer struct {
	opts   Options
	logger *utils.Logger
}

// Options contains options for the writer
type Options struct {
	BaseDir        string
	Policy         Policy
	AddHeaders     bool
	DryRun         bool
	ChecksumPolicy ChecksumPolicy
	FileMode       os.FileMode
	Logger         *utils.Logger
}

// Result describes one written, skipped or renamed entry
type Result struct {
	// Entry is the bundle path
	Entry  string
	Status Status
	// Path is the absolute target path
	Path        string
	Bytes       int
	RenamedFrom string
	DryRun      bool
}

// New creates a writer. Empty options default to the prompt policy, the
// warn checksum policy and mode 0644.
func New(opts Options) *Writer {
	if opts.BaseDir == "" {
		opts.BaseDir = "."
	}
	if opts.Policy == "" {
		opts.Policy = PolicyPrompt
	}
	if opts.ChecksumPolicy == "" {
		opts.ChecksumPolicy = ChecksumWarn
	}
	if opts.FileMode == 0 {
		opts.FileMode = DefaultFileMode
	}
	logger := opts.Logger
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Writer{
		opts:   opts,
		logger: logger.WithComponent("writer"),
	}
}

// Options returns the effective options
func (w *Writer) Options() Options {
	return w.opts
}

// WithPolicy returns a copy of the writer using another overwrite policy
func (w *Writer) WithPolicy(p Policy) *Writer {
	cp := *w
	cp.opts.Policy = p
	return &cp
}

// Target resolves a bundle path to its absolute location under BaseDir
func (w *Writer) Target(path string) (string, error) {
	target, err := utils.SafeJoin(w.opts.BaseDir, path)
	if err != nil {
		return "", domain.NewWriteError(path, "invalid target path: "+err.Error(), err)
	}
	return target, nil
}

// WriteEntry writes a single entry. Nothing is written when the path
// escapes BaseDir, the payload cannot be decoded, or a strict checksum
// does not match.
func (w *Writer) WriteEntry(ctx context.Context, e domain.Entry) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	target, err := w.Target(e.Path)
	if err != nil {
		return Result{}, err
	}
	if !w.opts.DryRun && !utils.IsDir(w.opts.BaseDir) {
		return Result{}, domain.NewWriteError(w.opts.BaseDir, "base directory does not exist", domain.ErrBaseDirMissing)
	}

	res := Result{Entry: e.Path, Status: StatusProcessed, Path: target, DryRun: w.opts.DryRun}
	logger := w.logger.WithPath(e.Path)

	exists, err := utils.Exists(target)
	if err != nil {
		return Result{}, domain.NewWriteError(target, "stat target", err)
	}
	if exists {
		if utils.IsDir(target) {
			return Result{}, domain.NewWriteError(target, "target is a directory", nil)
		}
		switch w.opts.Policy {
		case PolicyOverwrite:
		case PolicySkip:
			logger.Debug().Msg("Target exists, skipping")
			res.Status = StatusSkipped
			return res, nil
		case PolicyRename:
			renamed, err := utils.FreeName(target)
			if err != nil {
				return Result{}, domain.NewWriteError(target, "no free name", err)
			}
			res.Status = StatusRenamed
			res.RenamedFrom = target
			res.Path = renamed
		default:
			return Result{}, &domain.OverwriteError{Path: target}
		}
	}

	data, err := w.encode(e, res.Path)
	if err != nil {
		return Result{}, err
	}
	res.Bytes = len(data)

	if w.opts.DryRun {
		logger.Debug().Str("target", res.Path).Int("bytes", res.Bytes).Msg("Dry run, not writing")
		return res, nil
	}

	if err := utils.EnsureDir(res.Path); err != nil {
		return Result{}, domain.NewWriteError(res.Path, "create parent directory", err)
	}
	if err := atomic.WriteFile(res.Path, bytes.NewReader(data)); err != nil {
		return Result{}, domain.NewWriteError(res.Path, "", err)
	}
	if err := os.Chmod(res.Path, w.opts.FileMode); err != nil {
		return Result{}, domain.NewWriteError(res.Path, "set file mode", err)
	}

	logger.Debug().
		Str("target", res.Path).
		Str("status", string(res.Status)).
		Int("bytes", res.Bytes).
		Msg("Entry written")
	return res, nil
}

// encode returns the bytes to write for e, verifying the declared
// checksum against the payload before any header is added
func (w *Writer) encode(e domain.Entry, target string) ([]byte, error) {
	var data []byte
	if e.IsBinary {
		decoded, err := textenc.DecodeBase64(e.Content)
		if err != nil {
			return nil, domain.NewWriteError(target, fmt.Sprintf("Base64 decode failed: %v", err), err)
		}
		data = decoded
	} else {
		encoded, err := textenc.Encode(e.Content, e.Encoding)
		if err != nil {
			return nil, domain.NewWriteError(target, fmt.Sprintf("cannot encode as %s", e.Encoding), err)
		}
		data = encoded
	}

	if err := w.verify(e, data); err != nil {
		return nil, err
	}

	if w.opts.AddHeaders && !e.IsBinary {
		if header := Header(e); header != "" {
			withHeader, err := textenc.Encode(header+e.Content, e.Encoding)
			if err != nil {
				return nil, domain.NewWriteError(target, fmt.Sprintf("cannot encode as %s", e.Encoding), err)
			}
			data = withHeader
		}
	}
	return data, nil
}

func (w *Writer) verify(e domain.Entry, data []byte) error {
	if e.Checksum == "" || w.opts.ChecksumPolicy == ChecksumIgnore {
		return nil
	}
	err := textenc.MatchChecksum(e.Path, e.Checksum, data)
	if err == nil {
		return nil
	}
	if w.opts.ChecksumPolicy == ChecksumStrict {
		return err
	}
	w.logger.Warn().Err(err).Str("path", e.Path).Msg("Checksum mismatch, writing anyway")
	return nil
}
