package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/utils"
)

// ResolveFunc answers an overwrite conflict raised under the prompt policy.
// Returning PolicyOverwrite, PolicySkip or PolicyRename retries the entry
// with that policy; any other policy records the conflict. An error aborts
// the remaining entries.
type ResolveFunc func(e domain.Entry, target string) (Policy, error)

// ExtractOptions configures Extract
type ExtractOptions struct {
	// Concurrency is the number of parallel writes. Rename and interactive
	// prompt policies always write sequentially.
	Concurrency int
	FailFast    bool
	Resolve     ResolveFunc
	// OnEntry is called after each entry. It may be called from several
	// goroutines.
	OnEntry func(Result, error)
}

// Report summarizes an extraction
type Report struct {
	Processed int
	Skipped   int
	Renamed   int
	Failed    int
	// Aborted counts entries never attempted after a fail-fast stop or
	// cancellation
	Aborted int
	// Results holds one result per entry, in manifest order
	Results []Result
	Errors  []error
}

// Err joins every recorded error, or returns nil
func (r *Report) Err() error {
	return errors.Join(r.Errors...)
}

// ErrAborted is recorded when a ResolveFunc stops the extraction
var ErrAborted = errors.New("extraction aborted")

// Extract writes every entry of m. One entry's failure does not stop the
// others unless FailFast is set. The returned error is non-nil only when
// the manifest cannot be extracted at all or ctx was cancelled.
func (w *Writer) Extract(ctx context.Context, m *domain.Manifest, opts ExtractOptions) (*Report, error) {
	if err := w.checkTargets(m); err != nil {
		return nil, err
	}

	workers := opts.Concurrency
	if workers <= 0 || w.opts.Policy == PolicyRename || (w.opts.Policy == PolicyPrompt && opts.Resolve != nil) {
		workers = 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := m.Entries()
	report := &Report{Results: make([]Result, len(entries))}

	errs := utils.ParallelForEach(runCtx, indexes(len(entries)), workers, func(ctx context.Context, i int) error {
		res, err := w.writeResolved(ctx, entries[i], opts.Resolve)
		if err != nil {
			res = Result{Entry: entries[i].Path, Status: StatusFailed}
			if opts.FailFast || errors.Is(err, ErrAborted) {
				cancel()
			}
		}
		report.Results[i] = res
		if opts.OnEntry != nil {
			opts.OnEntry(res, err)
		}
		return err
	})

	for i, err := range errs {
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			report.Results[i] = Result{Entry: entries[i].Path, Status: StatusFailed}
			report.Aborted++
			continue
		default:
			report.Errors = append(report.Errors, err)
		}
		switch report.Results[i].Status {
		case StatusProcessed:
			report.Processed++
		case StatusSkipped:
			report.Skipped++
		case StatusRenamed:
			report.Renamed++
		case StatusFailed:
			report.Failed++
		}
	}

	w.logger.Info().
		Int("processed", report.Processed).
		Int("skipped", report.Skipped).
		Int("renamed", report.Renamed).
		Int("failed", report.Failed).
		Int("aborted", report.Aborted).
		Msg("Extraction finished")

	return report, ctx.Err()
}

func indexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// writeResolved writes e and resolves prompt conflicts through resolve
func (w *Writer) writeResolved(ctx context.Context, e domain.Entry, resolve ResolveFunc) (Result, error) {
	res, err := w.WriteEntry(ctx, e)
	if err == nil || resolve == nil || w.opts.Policy != PolicyPrompt || !domain.IsConflict(err) {
		return res, err
	}

	var conflict *domain.OverwriteError
	errors.As(err, &conflict)
	choice, rerr := resolve(e, conflict.Path)
	if rerr != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrAborted, rerr)
	}
	switch choice {
	case PolicyOverwrite, PolicySkip, PolicyRename:
		return w.WithPolicy(choice).WriteEntry(ctx, e)
	default:
		return Result{}, err
	}
}

// checkTargets rejects manifests where two entries resolve to the same
// file on a case-insensitive filesystem
func (w *Writer) checkTargets(m *domain.Manifest) error {
	seen := make(map[string]string, m.Len())
	for _, e := range m.Entries() {
		target, err := w.Target(e.Path)
		if err != nil {
			// reported per entry by WriteEntry
			continue
		}
		key := strings.ToLower(target)
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%w: %s and %s resolve to the same target", domain.ErrDuplicatePath, prev, e.Path)
		}
		seen[key] = e.Path
	}
	return nil
}
