package utils

import "github.com/schollz/progressbar/v3"

// Standard progress bar descriptions
const (
	DescScanning   = "Scanning"
	DescBundling   = "Bundling"
	DescExtracting = "Extracting"
	DescVerifying  = "Verifying"
)

// NewProgressBar creates a consistently styled progress bar.
//
// Parameters:
//   - total: Total number of items. Use -1 for unknown totals (indeterminate/spinner mode).
//   - description: Text description to show before the progress bar (e.g., DescBundling, DescExtracting).
//
// Behavior:
//   - For unknown totals (total < 0): Uses spinner type 14 with blank state rendering.
//   - For known totals (total >= 0): Shows count and iterations/second (its).
//   - All progress bars show count.
//
// Example:
//
//	bar := utils.NewProgressBar(m.Len(), utils.DescExtracting)
//	defer bar.Finish()
//
//	for _, entry := range m.Entries() {
//	    // write entry
//	    bar.Add(1)
//	}
func NewProgressBar(total int, description string, extra ...progressbar.Option) *progressbar.ProgressBar {
	// Build common options
	opts := []progressbar.Option{
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
	}

	// Add options based on whether total is known
	if total < 0 {
		// Unknown total: use spinner mode
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	} else {
		// Known total: show iterations/second
		opts = append(opts,
			progressbar.OptionShowIts(),
		)
	}

	opts = append(opts, extra...)
	return progressbar.NewOptions(total, opts...)
}
