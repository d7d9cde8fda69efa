package domain

import (
	_ "crypto/sha256"
	"fmt"
	"path"
	"strings"

	"github.com/opencontainers/go-digest"
)

// FormatVersion is the bundle format version stamped on new manifests
const FormatVersion = "2.1"

// Encoding is the declared text encoding of an entry
type Encoding string

const (
	// EncodingUTF8 is plain UTF-8 without a byte order mark
	EncodingUTF8 Encoding = "utf-8"
	// EncodingUTF8BOM is UTF-8 preceded by EF BB BF
	EncodingUTF8BOM Encoding = "utf-8-bom"
	// EncodingUTF16LE is little-endian UTF-16 with a BOM
	EncodingUTF16LE Encoding = "utf-16le"
	// EncodingUTF16BE is big-endian UTF-16 with a BOM
	EncodingUTF16BE Encoding = "utf-16be"
	// EncodingWindows1252 is the Windows western code page
	EncodingWindows1252 Encoding = "windows-1252"
	// EncodingLatin1 is ISO-8859-1
	EncodingLatin1 Encoding = "latin-1"
	// EncodingBase64 marks a binary payload carried as base64 text
	EncodingBase64 Encoding = "base64"
	// EncodingNone is the explicit no-encoding marker for binary payloads
	EncodingNone Encoding = "n/a"
)

var encodingAliases = map[string]Encoding{
	"utf-8":        EncodingUTF8,
	"utf8":         EncodingUTF8,
	"utf-8-bom":    EncodingUTF8BOM,
	"utf8-bom":     EncodingUTF8BOM,
	"utf-8-sig":    EncodingUTF8BOM,
	"utf-8_sig":    EncodingUTF8BOM,
	"utf-16le":     EncodingUTF16LE,
	"utf-16be":     EncodingUTF16BE,
	"windows-1252": EncodingWindows1252,
	"cp1252":       EncodingWindows1252,
	"latin-1":      EncodingLatin1,
	"latin1":       EncodingLatin1,
	"iso-8859-1":   EncodingLatin1,
	"base64":       EncodingBase64,
	"n/a":          EncodingNone,
}

// ParseEncoding maps a declared encoding name (case-insensitive, common aliases
// accepted) onto the closed Encoding set
func ParseEncoding(name string) (Encoding, error) {
	enc, ok := encodingAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// IsBinaryTransport reports whether the encoding marks a binary payload
func (e Encoding) IsBinaryTransport() bool {
	return e == EncodingBase64 || e == EncodingNone
}

// HasBOM reports whether the encoding is written with a byte order mark
func (e Encoding) HasBOM() bool {
	switch e {
	case EncodingUTF8BOM, EncodingUTF16LE, EncodingUTF16BE:
		return true
	}
	return false
}

func (e Encoding) String() string { return string(e) }

// EOLStyle describes the line endings found in an entry's content. It is a
// declaration only; content bytes are never rewritten to match it.
type EOLStyle string

const (
	EOLLF    EOLStyle = "LF"
	EOLCRLF  EOLStyle = "CRLF"
	EOLCR    EOLStyle = "CR"
	EOLMixed EOLStyle = "MIXED"
	// EOLNone is used for binary payloads
	EOLNone EOLStyle = "n/a"
)

// ParseEOLStyle parses an EOL tag. Blank values default to LF for text and
// n/a for binary.
func ParseEOLStyle(s string, binary bool) (EOLStyle, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		if binary {
			return EOLNone, nil
		}
		return EOLLF, nil
	}
	switch style := EOLStyle(strings.ToUpper(s)); style {
	case EOLLF, EOLCRLF, EOLCR, EOLMixed:
		return style, nil
	}
	if strings.EqualFold(s, string(EOLNone)) {
		return EOLNone, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidEOL, s)
}

func (s EOLStyle) String() string { return string(s) }

// Entry is one file's record within a manifest
type Entry struct {
	Path     string   `json:"path" yaml:"path"`
	Content  string   `json:"content" yaml:"-"`
	IsBinary bool     `json:"binary" yaml:"binary"`
	Encoding Encoding `json:"encoding" yaml:"encoding"`
	EOL      EOLStyle `json:"eol" yaml:"eol"`
	Checksum string   `json:"sha256,omitempty" yaml:"sha256,omitempty"`
	Size     int64    `json:"size,omitempty" yaml:"size,omitempty"`
}

// NormalizePath converts a bundle path to its canonical relative form:
// forward slashes, no "./" segments, no duplicate or trailing slashes.
// It rejects empty paths, absolute paths, drive letters and any path that
// climbs above the bundle root.
func NormalizePath(p string) (string, error) {
	raw := p
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" {
		return "", ErrEmptyPath
	}
	if strings.HasPrefix(p, "/") || hasDriveLetter(p) {
		return "", fmt.Errorf("%w: %q is absolute", ErrPathEscape, raw)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("%w: %q", ErrPathEscape, raw)
		}
	}
	cleaned := path.Clean(p)
	if cleaned == "." {
		return "", ErrEmptyPath
	}
	return cleaned, nil
}

func hasDriveLetter(p string) bool {
	if len(p) < 2 || p[1] != ':' {
		return false
	}
	c := p[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// Validate checks the entry's invariants. It does not decode binary content:
// malformed base64 is reported by profiles at parse time and by the writer.
func (e Entry) Validate() error {
	normalized, err := NormalizePath(e.Path)
	if err != nil {
		return err
	}
	if normalized != e.Path {
		return NewValidationError("path", fmt.Sprintf("%q is not normalized (want %q)", e.Path, normalized))
	}
	enc, err := ParseEncoding(string(e.Encoding))
	if err != nil {
		return NewValidationError("encoding", err.Error())
	}
	if enc != e.Encoding {
		return NewValidationError("encoding", fmt.Sprintf("%q is not canonical (want %q)", e.Encoding, enc))
	}
	if e.IsBinary && !e.Encoding.IsBinaryTransport() {
		return NewValidationError("encoding", fmt.Sprintf("binary entry %s declares text encoding %s", e.Path, e.Encoding))
	}
	if !e.IsBinary && e.Encoding.IsBinaryTransport() {
		return NewValidationError("encoding", fmt.Sprintf("text entry %s declares binary encoding %s", e.Path, e.Encoding))
	}
	if _, err := ParseEOLStyle(string(e.EOL), e.IsBinary); err != nil {
		return NewValidationError("eol", err.Error())
	}
	if e.Checksum != "" && !IsChecksum(e.Checksum) {
		return fmt.Errorf("%w: %s: %q", ErrInvalidChecksum, e.Path, e.Checksum)
	}
	if e.Size < 0 {
		return NewValidationError("size", fmt.Sprintf("negative size %d for %s", e.Size, e.Path))
	}
	return nil
}

// IsChecksum reports whether s is a SHA-256 hex digest (either case)
func IsChecksum(s string) bool {
	return digest.NewDigestFromEncoded(digest.SHA256, strings.ToLower(s)).Validate() == nil
}

// ChecksumEqual compares two hex digests case-insensitively
func ChecksumEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Capabilities declares what a profile's grammar can represent
type Capabilities struct {
	SupportsBinary    bool `json:"supports_binary" yaml:"supports_binary"`
	SupportsChecksums bool `json:"supports_checksums" yaml:"supports_checksums"`
	SupportsMetadata  bool `json:"supports_metadata" yaml:"supports_metadata"`
}

// DefaultCapabilities is the most conservative capability set
func DefaultCapabilities() Capabilities {
	return Capabilities{}
}
