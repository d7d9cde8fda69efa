package profile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/textenc"
)

// PlainMarkerName is the registry name of the marker-delimited grammar
const PlainMarkerName = "plain_marker"

// plainMarkerDetectLines bounds how far Detect looks for a FILE marker
const plainMarkerDetectLines = 20

var (
	plainSeparator = "# " + strings.Repeat("=", 67)

	plainSeparatorRe = regexp.MustCompile(`^\s*#\s*={10,}\s*$`)
	plainFileRe      = regexp.MustCompile(`(?i)^\s*#\s*FILE\s*:\s*(.*?)\s*$`)
	plainMetaRe      = regexp.MustCompile(`(?i)^\s*#\s*META\s*:\s*(.*?)\s*$`)
)

// PlainMarker is the marker-delimited grammar:
//
//	# ===================================================================
//	# FILE: src/main.go
//	# META: encoding=utf-8; eol=LF; mode=text; lines=3
//	# ===================================================================
//	<content>
//
// The lines field counts the body lines so bodies containing marker-like
// lines survive. Records without it run until the next FILE marker.
type PlainMarker struct {
	Base
}

// NewPlainMarker creates the plain_marker profile
func NewPlainMarker() *PlainMarker {
	return &PlainMarker{
		Base: NewBase(PlainMarkerName, "Plain Marker", domain.Capabilities{SupportsBinary: true}),
	}
}

// Detect looks for a FILE marker in the first lines
func (p *PlainMarker) Detect(snippet string) bool {
	lines := strings.SplitN(snippet, "\n", plainMarkerDetectLines+1)
	if len(lines) > plainMarkerDetectLines {
		lines = lines[:plainMarkerDetectLines]
	}
	for _, line := range lines {
		if m := plainFileRe.FindStringSubmatch(line); m != nil && m[1] != "" {
			return true
		}
	}
	return false
}

// ValidateManifest reports entries whose path would break a marker line
func (p *PlainMarker) ValidateManifest(m *domain.Manifest) error {
	return Validate(p, m, func(e domain.Entry) string {
		if hasLineBreak(e.Path) {
			return "path contains a line break"
		}
		return ""
	})
}

// Format writes every entry as a framed record
func (p *PlainMarker) Format(m *domain.Manifest) (string, error) {
	if err := p.ValidateManifest(m); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, e := range m.Entries() {
		body := e.Content
		if e.IsBinary {
			data, _ := textenc.DecodeBase64(e.Content)
			body = textenc.EncodeBase64(data)
		}
		body += "\n"

		fields := entryFields(e, p.Capabilities())
		fields = append(fields, field{"lines", strconv.Itoa(strings.Count(body, "\n"))})

		sb.WriteString(plainSeparator + "\n")
		sb.WriteString("# FILE: " + e.Path + "\n")
		sb.WriteString("# META: " + formatFields(fields) + "\n")
		sb.WriteString(plainSeparator + "\n")
		sb.WriteString(body)
	}
	return sb.String(), nil
}

// Parse reads marker-delimited text. Lines before the first FILE marker are
// ignored.
func (p *PlainMarker) Parse(text string) (*domain.Manifest, error) {
	lines := splitLines(text)
	c := newCollector(p.Name())

	i := 0
	for i < len(lines) {
		line := trimEOL(lines[i])
		fm := plainFileRe.FindStringSubmatch(line)
		if fm == nil {
			i++
			continue
		}

		start := i + 1
		path := fm[1]
		if path == "" {
			return nil, domain.NewParseError(p.Name(), start, "FILE marker without a path")
		}
		i++

		// header: META lines and separators up to the body
		meta := map[string]string{}
		for i < len(lines) {
			h := trimEOL(lines[i])
			if mm := plainMetaRe.FindStringSubmatch(h); mm != nil {
				for k, v := range parseFields(mm[1]) {
					meta[k] = v
				}
				i++
				continue
			}
			if plainSeparatorRe.MatchString(h) {
				// the closing separator ends the header
				i++
			}
			break
		}

		var body string
		if n, ok := meta["lines"]; ok {
			count, err := strconv.Atoi(n)
			if err != nil || count < 0 {
				return nil, domain.NewParseError(p.Name(), start, fmt.Sprintf("invalid lines count %q", n))
			}
			if i+count > len(lines) {
				return nil, domain.NewParseError(p.Name(), start, fmt.Sprintf("record %s is truncated: want %d body lines, have %d", path, count, len(lines)-i))
			}
			body = strings.Join(lines[i:i+count], "")
			i += count
		} else {
			from := i
			for i < len(lines) && plainFileRe.FindStringSubmatch(trimEOL(lines[i])) == nil {
				i++
			}
			var sb strings.Builder
			for _, l := range lines[from:i] {
				if !plainSeparatorRe.MatchString(trimEOL(l)) {
					sb.WriteString(l)
				}
			}
			body = sb.String()
		}
		body = strings.TrimSuffix(body, "\n")

		if err := c.add(recordFromFields(start, path, body, meta)); err != nil {
			return nil, err
		}
	}

	return c.manifest(nil)
}

// splitLines splits text after every "\n", keeping the terminator. A
// trailing fragment without one is kept as the last line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// trimEOL drops the line terminator, tolerating CRLF-converted bundles
func trimEOL(line string) string {
	return strings.TrimRight(line, "\r\n")
}
