package version

import (
	"fmt"
	"runtime"

	"github.com/quantmind-br/bundlefile/internal/domain"
)

// Build-time variables (set via ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	Commit    = "unknown"
)

// Info contains version information
type Info struct {
	Version      string `json:"version" yaml:"version"`
	BuildTime    string `json:"build_time" yaml:"build_time"`
	Commit       string `json:"commit" yaml:"commit"`
	BundleFormat string `json:"bundle_format" yaml:"bundle_format"`
	GoVersion    string `json:"go_version" yaml:"go_version"`
	OS           string `json:"os" yaml:"os"`
	Arch         string `json:"arch" yaml:"arch"`
}

// Get returns the current version info
func Get() Info {
	return Info{
		Version:      Version,
		BuildTime:    BuildTime,
		Commit:       Commit,
		BundleFormat: domain.FormatVersion,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
	}
}

// String returns a formatted version string
func (i Info) String() string {
	return fmt.Sprintf("bundlefile %s (format %s, commit: %s, built: %s, %s %s/%s)",
		i.Version, i.BundleFormat, i.Commit, i.BuildTime, i.GoVersion, i.OS, i.Arch)
}

// Short returns a short version string
func Short() string {
	return Version
}

// Full returns a full version string
func Full() string {
	return Get().String()
}
