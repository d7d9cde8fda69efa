package profile

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/textenc"
)

// MarkdownFenceName is the registry name of the fenced-block grammar
const MarkdownFenceName = "md_fence"

const (
	mdFenceDetectLines = 30
	minFenceLength     = 3
)

var (
	mdFileRe   = regexp.MustCompile(`(?i)^\s*<!--\s*FILE\s*:\s*(.*?)\s*-->\s*$`)
	mdBundleRe = regexp.MustCompile(`(?i)^\s*<!--\s*BUNDLE\s*:\s*(.*?)\s*-->\s*$`)
	mdFenceRe  = regexp.MustCompile("^\\s*(`{3,})([\\w+#.-]*)\\s*$")
)

// languageHints maps file extensions to fence info strings
var languageHints = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".java": "java",
	".cpp":  "cpp",
	".c":    "c",
	".h":    "c",
	".cs":   "csharp",
	".rb":   "ruby",
	".go":   "go",
	".rs":   "rust",
	".php":  "php",
	".html": "html",
	".css":  "css",
	".json": "json",
	".xml":  "xml",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".sql":  "sql",
	".sh":   "bash",
	".md":   "markdown",
}

// MarkdownFence is the fenced-block grammar:
//
//	<!-- BUNDLE: created=2026-01-01T00:00:00Z; tool=bundlefile -->
//	<!-- FILE: src/main.py; encoding=utf-8; eol=LF; mode=text; sha256=... -->
//	```python
//	<content>
//	```
//
// A fence is one backtick longer than the longest run inside the content.
type MarkdownFence struct {
	Base
}

// NewMarkdownFence creates the md_fence profile
func NewMarkdownFence() *MarkdownFence {
	return &MarkdownFence{
		Base: NewBase(MarkdownFenceName, "Markdown Fence", domain.Capabilities{
			SupportsBinary:    true,
			SupportsChecksums: true,
			SupportsMetadata:  true,
		}),
	}
}

// Detect requires the first non-blank line to be a BUNDLE or FILE comment
// and a fence line within the first lines
func (p *MarkdownFence) Detect(snippet string) bool {
	lines := strings.SplitN(snippet, "\n", mdFenceDetectLines+1)
	if len(lines) > mdFenceDetectLines {
		lines = lines[:mdFenceDetectLines]
	}
	var first string
	hasFence := false
	for _, line := range lines {
		if first == "" && strings.TrimSpace(line) != "" {
			first = line
		}
		if mdFenceRe.MatchString(line) {
			hasFence = true
		}
	}
	return hasFence && (mdFileRe.MatchString(first) || mdBundleRe.MatchString(first))
}

// ValidateManifest reports entries and metadata that cannot be written into
// an HTML comment header
func (p *MarkdownFence) ValidateManifest(m *domain.Manifest) error {
	var badKeys []string
	for _, f := range metadataFields(m.Metadata()) {
		if f.key == "" || !fieldSafe(f.key) || !fieldSafe(f.value) || !commentSafe(f.key+f.value) {
			badKeys = append(badKeys, f.key)
		}
	}
	if len(badKeys) > 0 {
		return domain.NewFormatError(p.Name(), "metadata keys and values must not contain ';', '=', '-->', line breaks or surrounding spaces", badKeys...)
	}

	return Validate(p, m, func(e domain.Entry) string {
		if !commentSafe(e.Path) {
			return "path contains ';', '-->' or a line break"
		}
		return ""
	})
}

func commentSafe(s string) bool {
	return !hasLineBreak(s) && !strings.Contains(s, ";") && !strings.Contains(s, "-->")
}

// Format writes an optional BUNDLE comment and one fenced block per entry
func (p *MarkdownFence) Format(m *domain.Manifest) (string, error) {
	if err := p.ValidateManifest(m); err != nil {
		return "", err
	}

	var sb strings.Builder
	if meta := m.Metadata(); len(meta) > 0 {
		sb.WriteString("<!-- BUNDLE: " + formatFields(metadataFields(meta)) + " -->\n\n")
	}

	for i, e := range m.Entries() {
		if i > 0 {
			sb.WriteString("\n")
		}
		body := e.Content
		hint := ""
		if e.IsBinary {
			data, _ := textenc.DecodeBase64(e.Content)
			body = textenc.EncodeBase64(data)
		} else {
			hint = languageHints[strings.ToLower(path.Ext(e.Path))]
		}
		fence := fenceFor(body)

		sb.WriteString("<!-- FILE: " + e.Path + "; " + formatFields(entryFields(e, p.Capabilities())) + " -->\n")
		sb.WriteString(fence + hint + "\n")
		sb.WriteString(body + "\n")
		sb.WriteString(fence + "\n")
	}
	return sb.String(), nil
}

// fenceFor returns a backtick fence longer than any run in content
func fenceFor(content string) string {
	longest, run := 0, 0
	for i := 0; i < len(content); i++ {
		if content[i] == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	return strings.Repeat("`", max(minFenceLength, longest+1))
}

// Parse reads fenced-block text. Blank lines between records are ignored;
// any other text outside a fence is a parse error.
func (p *MarkdownFence) Parse(text string) (*domain.Manifest, error) {
	lines := splitLines(text)
	c := newCollector(p.Name())
	var metadata map[string]string

	for i := 0; i < len(lines); i++ {
		lineNo := i + 1
		line := trimEOL(lines[i])
		if strings.TrimSpace(line) == "" {
			continue
		}

		if bm := mdBundleRe.FindStringSubmatch(line); bm != nil {
			if metadata != nil || len(c.entries) > 0 {
				return nil, domain.NewParseError(p.Name(), lineNo, "BUNDLE comment must precede all records")
			}
			metadata = parseMetadata(bm[1])
			continue
		}

		fm := mdFileRe.FindStringSubmatch(line)
		if fm == nil {
			return nil, domain.NewParseError(p.Name(), lineNo, "content outside a fenced block")
		}
		filePath, rest, _ := strings.Cut(fm[1], ";")
		filePath = strings.TrimSpace(filePath)
		if filePath == "" {
			return nil, domain.NewParseError(p.Name(), lineNo, "FILE comment without a path")
		}

		// the fence must follow, blank lines allowed
		j := i + 1
		for j < len(lines) && strings.TrimSpace(lines[j]) == "" {
			j++
		}
		if j >= len(lines) {
			return nil, domain.NewParseError(p.Name(), lineNo, fmt.Sprintf("FILE comment for %s without a fenced block", filePath))
		}
		open := mdFenceRe.FindStringSubmatch(trimEOL(lines[j]))
		if open == nil {
			return nil, domain.NewParseError(p.Name(), j+1, fmt.Sprintf("FILE comment for %s without a fenced block", filePath))
		}
		fence := open[1]

		k := j + 1
		for k < len(lines) && strings.TrimSpace(lines[k]) != fence {
			k++
		}
		if k >= len(lines) {
			return nil, domain.NewParseError(p.Name(), j+1, fmt.Sprintf("unterminated fence for %s", filePath))
		}

		body := strings.TrimSuffix(strings.Join(lines[j+1:k], ""), "\n")
		if err := c.add(recordFromFields(lineNo, filePath, body, parseFields(rest))); err != nil {
			return nil, err
		}
		i = k
	}

	return c.manifest(metadata)
}
