package domain

import (
	"fmt"
	"maps"
	"sort"
)

// Manifest is an ordered, immutable collection of entries plus bundle-level
// metadata. Build one with NewManifest.
type Manifest struct {
	profile  string
	version  string
	entries  []Entry
	index    map[string]int
	metadata map[string]string
}

// NewManifest validates entries and returns a manifest owning copies of its
// inputs. Entry order is preserved.
func NewManifest(profile string, entries []Entry, metadata map[string]string) (*Manifest, error) {
	m := &Manifest{
		profile:  profile,
		version:  FormatVersion,
		entries:  make([]Entry, len(entries)),
		index:    make(map[string]int, len(entries)),
		metadata: make(map[string]string, len(metadata)),
	}
	copy(m.entries, entries)
	maps.Copy(m.metadata, metadata)

	for i, e := range m.entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if prev, ok := m.index[e.Path]; ok {
			return nil, fmt.Errorf("%w: %s (entries %d and %d)", ErrDuplicatePath, e.Path, prev, i)
		}
		m.index[e.Path] = i
	}
	return m, nil
}

// Profile returns the name of the profile the manifest was parsed with or is
// intended for
func (m *Manifest) Profile() string { return m.profile }

// Version returns the bundle format version
func (m *Manifest) Version() string { return m.version }

// Len returns the number of entries
func (m *Manifest) Len() int { return len(m.entries) }

// At returns the i-th entry
func (m *Manifest) At(i int) Entry { return m.entries[i] }

// Entries returns a copy of the entries in order
func (m *Manifest) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Lookup finds an entry by its normalized path
func (m *Manifest) Lookup(path string) (Entry, bool) {
	i, ok := m.index[path]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Paths returns entry paths in manifest order
func (m *Manifest) Paths() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Path
	}
	return out
}

// Metadata returns a copy of the bundle-level metadata
func (m *Manifest) Metadata() map[string]string {
	out := make(map[string]string, len(m.metadata))
	maps.Copy(out, m.metadata)
	return out
}

// MetadataKeys returns metadata keys in sorted order
func (m *Manifest) MetadataKeys() []string {
	keys := make([]string, 0, len(m.metadata))
	for k := range m.metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// BinaryCount returns the number of binary entries
func (m *Manifest) BinaryCount() int {
	n := 0
	for _, e := range m.entries {
		if e.IsBinary {
			n++
		}
	}
	return n
}

// TextCount returns the number of text entries
func (m *Manifest) TextCount() int {
	return len(m.entries) - m.BinaryCount()
}

// TotalSize sums the recorded entry sizes; entries without a size count as zero
func (m *Manifest) TotalSize() int64 {
	var total int64
	for _, e := range m.entries {
		total += e.Size
	}
	return total
}

// Filter returns a new manifest holding the entries keep accepts
func (m *Manifest) Filter(keep func(Entry) bool) *Manifest {
	out := &Manifest{
		profile:  m.profile,
		version:  m.version,
		index:    make(map[string]int),
		metadata: m.Metadata(),
	}
	for _, e := range m.entries {
		if keep(e) {
			out.index[e.Path] = len(out.entries)
			out.entries = append(out.entries, e)
		}
	}
	return out
}

// WithVersion returns a copy of the manifest carrying another format version
func (m *Manifest) WithVersion(version string) *Manifest {
	out := m.Filter(func(Entry) bool { return true })
	if version != "" {
		out.version = version
	}
	return out
}

// WithProfile returns a copy of the manifest tagged with another profile name
func (m *Manifest) WithProfile(name string) *Manifest {
	out := m.Filter(func(Entry) bool { return true })
	out.profile = name
	return out
}
