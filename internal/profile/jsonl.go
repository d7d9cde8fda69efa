package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/textenc"
)

// JSONLinesName is the registry name of the line-delimited-record grammar
const JSONLinesName = "jsonl"

const (
	kindBundle = "bundle"
	kindFile   = "file"
)

// jsonRecord is one line of a jsonl bundle. The header uses kind, version,
// profile and metadata; file records use the rest.
type jsonRecord struct {
	Kind     string            `json:"kind"`
	Version  string            `json:"version,omitempty"`
	Profile  string            `json:"profile,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`

	Path     string `json:"path,omitempty"`
	Encoding string `json:"encoding,omitempty"`
	EOL      string `json:"eol,omitempty"`
	Binary   *bool  `json:"binary,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Content  string `json:"content,omitempty"`
}

// JSONLines is the line-delimited-record grammar: a bundle header object
// followed by one JSON object per file
type JSONLines struct {
	Base
}

// NewJSONLines creates the jsonl profile
func NewJSONLines() *JSONLines {
	return &JSONLines{
		Base: NewBase(JSONLinesName, "JSON Lines", domain.Capabilities{
			SupportsBinary:    true,
			SupportsChecksums: true,
			SupportsMetadata:  true,
		}),
	}
}

// Detect checks that the first non-blank line is a bundle or file record
func (p *JSONLines) Detect(snippet string) bool {
	for _, line := range strings.Split(snippet, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "{") {
			return false
		}
		var probe struct {
			Kind string `json:"kind"`
		}
		// the snippet may cut the first record short
		if err := json.Unmarshal([]byte(line), &probe); err != nil {
			return strings.Contains(line, `"kind":"bundle"`) || strings.Contains(line, `"kind":"file"`)
		}
		return probe.Kind == kindBundle || probe.Kind == kindFile
	}
	return false
}

// ValidateManifest reports text entries JSON cannot carry byte-exact
func (p *JSONLines) ValidateManifest(m *domain.Manifest) error {
	return Validate(p, m, func(e domain.Entry) string {
		if !e.IsBinary && !utf8.ValidString(e.Content) {
			return "text content is not valid UTF-8"
		}
		return ""
	})
}

// Format writes the header line and one record per entry
func (p *JSONLines) Format(m *domain.Manifest) (string, error) {
	if err := p.ValidateManifest(m); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	header := jsonRecord{Kind: kindBundle, Version: m.Version(), Profile: p.Name(), Metadata: m.Metadata()}
	if err := enc.Encode(header); err != nil {
		return "", domain.NewFormatError(p.Name(), err.Error())
	}

	for _, e := range m.Entries() {
		binary := e.IsBinary
		content := e.Content
		if binary {
			data, _ := textenc.DecodeBase64(e.Content)
			content = textenc.EncodeBase64(data)
		}
		rec := jsonRecord{
			Kind:     kindFile,
			Path:     e.Path,
			Encoding: string(e.Encoding),
			EOL:      string(eolOf(e)),
			Binary:   &binary,
			SHA256:   strings.ToLower(e.Checksum),
			Size:     e.Size,
			Content:  content,
		}
		if err := enc.Encode(rec); err != nil {
			return "", domain.NewFormatError(p.Name(), err.Error(), e.Path)
		}
	}
	return buf.String(), nil
}

// Parse reads one JSON object per non-blank line
func (p *JSONLines) Parse(text string) (*domain.Manifest, error) {
	c := newCollector(p.Name())
	var header *jsonRecord

	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var rec jsonRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, &domain.ParseError{Profile: p.Name(), Line: lineNo, Reason: "invalid JSON: " + err.Error(), Err: err}
		}

		switch rec.Kind {
		case kindBundle:
			if header != nil || len(c.entries) > 0 {
				return nil, domain.NewParseError(p.Name(), lineNo, "bundle header must be the first record")
			}
			header = &rec
		case kindFile:
			if rec.Path == "" {
				return nil, domain.NewParseError(p.Name(), lineNo, "file record without a path")
			}
			r := record{
				line:     lineNo,
				path:     rec.Path,
				content:  rec.Content,
				binary:   rec.Binary,
				encoding: rec.Encoding,
				eol:      rec.EOL,
				checksum: rec.SHA256,
			}
			if rec.Size != 0 {
				r.size = strconv.FormatInt(rec.Size, 10)
			}
			if err := c.add(r); err != nil {
				return nil, err
			}
		default:
			return nil, domain.NewParseError(p.Name(), lineNo, fmt.Sprintf("unknown record kind %q", rec.Kind))
		}
	}

	var metadata map[string]string
	if header != nil {
		metadata = header.Metadata
	}
	m, err := c.manifest(metadata)
	if err != nil {
		return nil, err
	}
	if header != nil {
		m = m.WithVersion(header.Version)
	}
	return m, nil
}
