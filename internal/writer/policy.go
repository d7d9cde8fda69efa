package writer

import (
	"fmt"
	"strings"

	"github.com/quantmind-br/bundlefile/internal/domain"
)

// Policy decides what happens when a target file already exists
type Policy string

const (
	// PolicyOverwrite replaces the existing file
	PolicyOverwrite Policy = "overwrite"
	// PolicySkip leaves the existing file untouched
	PolicySkip Policy = "skip"
	// PolicyError reports an OverwriteError
	PolicyError Policy = "error"
	// PolicyPrompt reports an OverwriteError for the caller to resolve
	PolicyPrompt Policy = "prompt"
	// PolicyRename writes to the first free name_N.ext instead
	PolicyRename Policy = "rename"
)

// Policies lists every overwrite policy
func Policies() []Policy {
	return []Policy{PolicyOverwrite, PolicySkip, PolicyError, PolicyPrompt, PolicyRename}
}

// ParsePolicy parses a policy name, case-insensitively
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Policies() {
		if p == known {
			return p, nil
		}
	}
	return "", domain.NewValidationError("overwrite_policy", fmt.Sprintf("unknown policy %q", s))
}

// ChecksumPolicy decides how declared checksums are enforced on write
type ChecksumPolicy string

const (
	// ChecksumIgnore skips verification
	ChecksumIgnore ChecksumPolicy = "ignore"
	// ChecksumWarn logs mismatches and writes anyway
	ChecksumWarn ChecksumPolicy = "warn"
	// ChecksumStrict refuses to write mismatching entries
	ChecksumStrict ChecksumPolicy = "strict"
)

// ChecksumPolicies lists every checksum policy
func ChecksumPolicies() []ChecksumPolicy {
	return []ChecksumPolicy{ChecksumIgnore, ChecksumWarn, ChecksumStrict}
}

// ParseChecksumPolicy parses a checksum policy name, case-insensitively
func ParseChecksumPolicy(s string) (ChecksumPolicy, error) {
	p := ChecksumPolicy(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ChecksumPolicies() {
		if p == known {
			return p, nil
		}
	}
	return "", domain.NewValidationError("checksum_policy", fmt.Sprintf("unknown checksum policy %q", s))
}

// Status is the outcome of writing one entry
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusRenamed   Status = "renamed"
	StatusFailed    Status = "failed"
)
