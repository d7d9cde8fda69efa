// Package profile implements the bundle grammars and the registry used to
// pick one for unlabeled input.
package profile

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/textenc"
)

const (
	modeText   = "text"
	modeBinary = "binary"
)

// Base carries the identity and capabilities shared by every profile
type Base struct {
	name         string
	displayName  string
	capabilities domain.Capabilities
}

// NewBase creates a Base. A zero capability set is the conservative default.
func NewBase(name, displayName string, caps domain.Capabilities) Base {
	return Base{name: name, displayName: displayName, capabilities: caps}
}

// Name returns the profile identifier
func (b Base) Name() string { return b.name }

// DisplayName returns the human-readable name
func (b Base) DisplayName() string { return b.displayName }

// Capabilities returns what the grammar can represent
func (b Base) Capabilities() domain.Capabilities { return b.capabilities }

// pathCheck returns a non-empty reason when a grammar cannot carry e
type pathCheck func(e domain.Entry) string

// Validate runs the capability checks every profile shares plus the
// grammar-specific check, collecting all offending paths into one
// FormatError. Checksums and metadata a grammar cannot carry are dropped
// by the formatter, see Advisories.
func Validate(p domain.Profile, m *domain.Manifest, check pathCheck) error {
	caps := p.Capabilities()
	var (
		reasons []string
		paths   []string
		seen    = map[string]bool{}
	)
	add := func(reason, path string) {
		if !seen[reason] {
			seen[reason] = true
			reasons = append(reasons, reason)
		}
		paths = append(paths, path)
	}

	for _, e := range m.Entries() {
		switch {
		case e.IsBinary && !caps.SupportsBinary:
			add("binary entries unsupported", e.Path)
		case e.IsBinary && !validBase64(e.Content):
			add("invalid base64 payload", e.Path)
		case check != nil && check(e) != "":
			add(check(e), e.Path)
		}
	}

	if len(paths) == 0 {
		return nil
	}
	return domain.NewFormatError(p.Name(), strings.Join(reasons, "; "), paths...)
}

func validBase64(content string) bool {
	_, err := textenc.DecodeBase64(content)
	return err == nil
}

// Advisories lists the information Format will drop because the grammar
// cannot carry it. They are not errors.
func Advisories(p domain.Profile, m *domain.Manifest) []string {
	caps := p.Capabilities()
	var out []string
	if !caps.SupportsChecksums {
		for _, e := range m.Entries() {
			if e.Checksum != "" {
				out = append(out, fmt.Sprintf("%s: checksum dropped, %s does not support checksums", e.Path, p.Name()))
			}
		}
	}
	if !caps.SupportsMetadata && len(m.Metadata()) > 0 {
		out = append(out, fmt.Sprintf("bundle metadata dropped, %s does not support metadata", p.Name()))
	}
	return out
}

// hasLineBreak reports whether s holds a character that would split a
// header line
func hasLineBreak(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}

// =============================================================================
// Header fields
// =============================================================================

// field is one key=value pair of a record header
type field struct {
	key   string
	value string
}

// parseFields splits "k=v; k=v" into lowercased keys and trimmed values.
// Segments without "=" are ignored.
func parseFields(s string) map[string]string {
	return splitFields(s, strings.ToLower)
}

// parseMetadata is parseFields keeping the keys as written
func parseMetadata(s string) map[string]string {
	return splitFields(s, func(k string) string { return k })
}

func splitFields(s string, keyFn func(string) string) map[string]string {
	out := map[string]string{}
	for _, part := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = keyFn(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}

// fieldSafe reports whether a metadata key or value survives a
// formatFields/parseMetadata round trip unchanged
func fieldSafe(s string) bool {
	return strings.TrimSpace(s) == s && !strings.ContainsAny(s, ";=\r\n")
}

func formatFields(fields []field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f.key + "=" + f.value
	}
	return strings.Join(parts, "; ")
}

// entryFields renders an entry's header fields in a stable order
func entryFields(e domain.Entry, caps domain.Capabilities) []field {
	mode := modeText
	if e.IsBinary {
		mode = modeBinary
	}
	fields := []field{
		{"encoding", string(e.Encoding)},
		{"eol", string(eolOf(e))},
		{"mode", mode},
	}
	if caps.SupportsChecksums && e.Checksum != "" {
		fields = append(fields, field{"sha256", strings.ToLower(e.Checksum)})
	}
	if e.Size > 0 {
		fields = append(fields, field{"size", strconv.FormatInt(e.Size, 10)})
	}
	return fields
}

func eolOf(e domain.Entry) domain.EOLStyle {
	if e.EOL != "" {
		return e.EOL
	}
	if e.IsBinary {
		return domain.EOLNone
	}
	return domain.EOLLF
}

// metadataFields renders bundle metadata sorted by key
func metadataFields(meta map[string]string) []field {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]field, len(keys))
	for i, k := range keys {
		fields[i] = field{k, meta[k]}
	}
	return fields
}

// record is a grammar-neutral view of one parsed file record
type record struct {
	line     int
	path     string
	content  string
	mode     string
	binary   *bool
	encoding string
	eol      string
	checksum string
	size     string
}

func recordFromFields(line int, path, content string, f map[string]string) record {
	return record{
		line:     line,
		path:     path,
		content:  content,
		mode:     f["mode"],
		encoding: f["encoding"],
		eol:      f["eol"],
		checksum: f["sha256"],
		size:     f["size"],
	}
}

// entry converts a record into a validated entry. Structural problems are
// ParseErrors, undecodable payloads and unknown encodings EncodingErrors.
func (r record) entry(profile string) (domain.Entry, error) {
	path, err := domain.NormalizePath(r.path)
	if err != nil {
		return domain.Entry{}, &domain.ParseError{Profile: profile, Line: r.line, Reason: fmt.Sprintf("invalid path %q", r.path), Err: err}
	}

	binary := false
	switch strings.ToLower(r.mode) {
	case "", modeText:
	case modeBinary:
		binary = true
	default:
		return domain.Entry{}, domain.NewParseError(profile, r.line, fmt.Sprintf("%s: unknown mode %q", path, r.mode))
	}
	if r.binary != nil {
		binary = *r.binary
	}

	enc := domain.EncodingUTF8
	if binary {
		enc = domain.EncodingBase64
	}
	if r.encoding != "" {
		enc, err = domain.ParseEncoding(r.encoding)
		if err != nil {
			return domain.Entry{}, domain.NewEncodingError(path, r.encoding, "unknown encoding", err)
		}
	}
	// encoding=base64 alone marks a binary record
	if r.mode == "" && r.binary == nil && enc == domain.EncodingBase64 {
		binary = true
	}
	if binary != enc.IsBinaryTransport() {
		return domain.Entry{}, domain.NewParseError(profile, r.line, fmt.Sprintf("%s: encoding %s conflicts with mode", path, enc))
	}

	eol, err := domain.ParseEOLStyle(r.eol, binary)
	if err != nil {
		return domain.Entry{}, &domain.ParseError{Profile: profile, Line: r.line, Reason: path + ": " + err.Error(), Err: err}
	}

	if r.checksum != "" && !domain.IsChecksum(r.checksum) {
		return domain.Entry{}, &domain.ParseError{Profile: profile, Line: r.line, Reason: fmt.Sprintf("%s: malformed sha256 %q", path, r.checksum), Err: domain.ErrInvalidChecksum}
	}

	var size int64
	if r.size != "" {
		size, err = strconv.ParseInt(r.size, 10, 64)
		if err != nil || size < 0 {
			return domain.Entry{}, domain.NewParseError(profile, r.line, fmt.Sprintf("%s: invalid size %q", path, r.size))
		}
	}

	content := r.content
	if binary {
		data, err := textenc.DecodeBase64(content)
		if err != nil {
			return domain.Entry{}, domain.NewEncodingError(path, string(enc), fmt.Sprintf("line %d: invalid base64 payload", r.line), err)
		}
		content = textenc.EncodeBase64(data)
	}

	return domain.Entry{
		Path:     path,
		Content:  content,
		IsBinary: binary,
		Encoding: enc,
		EOL:      eol,
		Checksum: strings.ToLower(r.checksum),
		Size:     size,
	}, nil
}

// collector accumulates parsed entries and rejects duplicate paths
type collector struct {
	profile string
	entries []domain.Entry
	lines   map[string]int
}

func newCollector(profile string) *collector {
	return &collector{profile: profile, lines: map[string]int{}}
}

func (c *collector) add(r record) error {
	e, err := r.entry(c.profile)
	if err != nil {
		return err
	}
	if first, ok := c.lines[e.Path]; ok {
		return &domain.ParseError{
			Profile: c.profile,
			Line:    r.line,
			Reason:  fmt.Sprintf("duplicate path %s (first seen at line %d)", e.Path, first),
			Err:     domain.ErrDuplicatePath,
		}
	}
	c.lines[e.Path] = r.line
	c.entries = append(c.entries, e)
	return nil
}

func (c *collector) manifest(metadata map[string]string) (*domain.Manifest, error) {
	m, err := domain.NewManifest(c.profile, c.entries, metadata)
	if err != nil {
		var parseErr *domain.ParseError
		if errors.As(err, &parseErr) {
			return nil, err
		}
		return nil, &domain.ParseError{Profile: c.profile, Reason: err.Error(), Err: err}
	}
	return m, nil
}
