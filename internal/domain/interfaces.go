package domain

// DetectSnippetSize is how much leading bundle text profiles see in Detect
const DetectSnippetSize = 2048

// Profile defines the interface for a bundle grammar
type Profile interface {
	// Name returns the stable lowercase identifier
	Name() string
	// DisplayName returns a human-readable name for listings
	DisplayName() string
	// Detect returns true if the snippet looks like this grammar
	Detect(snippet string) bool
	// Parse reads bundle text into a manifest
	Parse(text string) (*Manifest, error)
	// Format writes a manifest as bundle text
	Format(m *Manifest) (string, error)
	// Capabilities declares what the grammar can represent
	Capabilities() Capabilities
	// ValidateManifest reports everything Format would reject, in one error
	ValidateManifest(m *Manifest) error
}
