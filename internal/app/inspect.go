package app

import (
	"github.com/quantmind-br/bundlefile/internal/domain"
)

// Summary is a serializable overview of a manifest
type Summary struct {
	Profile  string            `json:"profile" yaml:"profile"`
	Version  string            `json:"version" yaml:"version"`
	Files    int               `json:"files" yaml:"files"`
	Text     int               `json:"text" yaml:"text"`
	Binary   int               `json:"binary" yaml:"binary"`
	Bytes    int64             `json:"bytes" yaml:"bytes"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Entries  []EntrySummary    `json:"entries" yaml:"entries"`
}

// EntrySummary describes one entry without its content
type EntrySummary struct {
	Path     string `json:"path" yaml:"path"`
	Encoding string `json:"encoding" yaml:"encoding"`
	EOL      string `json:"eol" yaml:"eol"`
	Binary   bool   `json:"binary" yaml:"binary"`
	Size     int64  `json:"size,omitempty" yaml:"size,omitempty"`
	Checksum string `json:"sha256,omitempty" yaml:"sha256,omitempty"`
}

// Inspect summarizes a manifest
func Inspect(m *domain.Manifest) Summary {
	s := Summary{
		Profile: m.Profile(),
		Version: m.Version(),
		Files:   m.Len(),
		Text:    m.TextCount(),
		Binary:  m.BinaryCount(),
		Bytes:   m.TotalSize(),
		Entries: make([]EntrySummary, 0, m.Len()),
	}
	if meta := m.Metadata(); len(meta) > 0 {
		s.Metadata = meta
	}
	for _, e := range m.Entries() {
		s.Entries = append(s.Entries, EntrySummary{
			Path:     e.Path,
			Encoding: string(e.Encoding),
			EOL:      string(e.EOL),
			Binary:   e.IsBinary,
			Size:     e.Size,
			Checksum: e.Checksum,
		})
	}
	return s
}

// Inspect parses bundle text and summarizes it
func (o *Orchestrator) Inspect(text, profileName string) (Summary, error) {
	m, _, err := o.registry.Parse(text, profileName)
	if err != nil {
		return Summary{}, err
	}
	return Inspect(m), nil
}
