package profile_test

import (
	"strings"
	"testing"

	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneText(t *testing.T, path, content string) *domain.Manifest {
	t.Helper()
	m, err := domain.NewManifest("", []domain.Entry{
		{Path: path, Content: content, Encoding: domain.EncodingUTF8, EOL: domain.EOLLF},
	}, nil)
	require.NoError(t, err)
	return m
}

// =============================================================================
// plain_marker
// =============================================================================

func TestPlainMarker_Format(t *testing.T) {
	text, err := profile.NewPlainMarker().Format(oneText(t, "src/a.go", "x\ny"))
	require.NoError(t, err)

	sep := "# " + strings.Repeat("=", 67)
	want := sep + "\n" +
		"# FILE: src/a.go\n" +
		"# META: encoding=utf-8; eol=LF; mode=text; lines=2\n" +
		sep + "\n" +
		"x\ny\n"
	assert.Equal(t, want, text)
}

func TestPlainMarker_ParseLegacy(t *testing.T) {
	text := "Project bundle\n" +
		"# ===================================================================\n" +
		"# FILE: a.txt\n" +
		"# META: encoding=utf-8; eol=LF; mode=text\n" +
		"# ===================================================================\n" +
		"first\n" +
		"# ===================================================================\n" +
		"# FILE: b.bin\n" +
		"# META: encoding=base64; eol=n/a; mode=binary\n" +
		"# ===================================================================\n" +
		"AAEC\n"

	m, err := profile.NewPlainMarker().Parse(text)
	require.NoError(t, err)
	require.Equal(t, []string{"a.txt", "b.bin"}, m.Paths())
	assert.Equal(t, "first", m.At(0).Content)
	assert.True(t, m.At(1).IsBinary)
	assert.Equal(t, "AAEC", m.At(1).Content)
	assert.Equal(t, domain.EOLNone, m.At(1).EOL)
}

func TestPlainMarker_ParseDefaults(t *testing.T) {
	m, err := profile.NewPlainMarker().Parse("# FILE: notes.txt\nhello\n")
	require.NoError(t, err)
	e := m.At(0)
	assert.Equal(t, domain.EncodingUTF8, e.Encoding)
	assert.Equal(t, domain.EOLLF, e.EOL)
	assert.Equal(t, "hello", e.Content)
}

func TestPlainMarker_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		line int
	}{
		{"blank path", "# FILE: \nx\n", 1},
		{"dot path", "# FILE: .\nx\n", 1},
		{"root path", "# FILE: /\nx\n", 1},
		{"truncated body", "# FILE: a\n# META: lines=5\nx\n", 1},
		{"bad lines", "# FILE: a\n# META: lines=many\nx\n", 1},
		{"bad mode", "# FILE: a\n# META: mode=weird\nx\n", 1},
		{"bad eol", "x\n# FILE: a\n# META: eol=LFCR\nx\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := profile.NewPlainMarker().Parse(tt.text)
			var parseErr *domain.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, "plain_marker", parseErr.Profile)
			assert.Equal(t, tt.line, parseErr.Line)
		})
	}
}

func TestPlainMarker_PathWithLineBreakIsUnrepresentable(t *testing.T) {
	m := oneText(t, "a\nb", "x")
	_, err := profile.NewPlainMarker().Format(m)
	var formatErr *domain.FormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestPlainMarker_Detect(t *testing.T) {
	p := profile.NewPlainMarker()
	assert.True(t, p.Detect("# FILE: a.txt\n"))
	assert.True(t, p.Detect("#FILE:a.txt"))
	assert.False(t, p.Detect("# FILE:\n"))
	assert.False(t, p.Detect(strings.Repeat("\n", 25)+"# FILE: a.txt\n"))
}

// =============================================================================
// md_fence
// =============================================================================

func TestMarkdownFence_Format(t *testing.T) {
	text, err := profile.NewMarkdownFence().Format(oneText(t, "main.py", "print('hi')\n"))
	require.NoError(t, err)

	want := "<!-- FILE: main.py; encoding=utf-8; eol=LF; mode=text -->\n" +
		"```python\n" +
		"print('hi')\n\n" +
		"```\n"
	assert.Equal(t, want, text)
}

func TestMarkdownFence_FenceOutgrowsBacktickRuns(t *testing.T) {
	content := "use ```` inside"
	text, err := profile.NewMarkdownFence().Format(oneText(t, "a.txt", content))
	require.NoError(t, err)
	assert.Contains(t, text, "\n`````\n")

	m, err := profile.NewMarkdownFence().Parse(text)
	require.NoError(t, err)
	assert.Equal(t, content, m.At(0).Content)
}

func TestMarkdownFence_ParseMetadata(t *testing.T) {
	text := "<!-- BUNDLE: tool=bundlefile; created=2026-01-01T00:00:00Z -->\n\n" +
		"<!-- FILE: a.txt; encoding=utf-8; eol=CRLF; mode=text; sha256=2CF24DBA5FB0A30E26E83B2AC5B9E29E1B161E5C1FA7425E73043362938B9824 -->\n" +
		"```\nhello\n```\n"

	m, err := profile.NewMarkdownFence().Parse(text)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"tool": "bundlefile", "created": "2026-01-01T00:00:00Z"}, m.Metadata())
	assert.Equal(t, domain.EOLCRLF, m.At(0).EOL)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", m.At(0).Checksum)
}

func TestMarkdownFence_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		line int
	}{
		{"unterminated fence", "<!-- FILE: a.txt; mode=text -->\n```\nx\n", 2},
		{"comment without fence", "<!-- FILE: a.txt; mode=text -->\nplain\n", 2},
		{"comment at end", "<!-- FILE: a.txt; mode=text -->\n", 1},
		{"content outside fence", "hello\n", 1},
		{"late bundle comment", "<!-- FILE: a; mode=text -->\n```\nx\n```\n<!-- BUNDLE: k=v -->\n", 5},
		{"bad checksum", "<!-- FILE: a; sha256=abc -->\n```\nx\n```\n", 1},
		{"mismatched closing fence", "<!-- FILE: a; mode=text -->\n````\nx\n```\n", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := profile.NewMarkdownFence().Parse(tt.text)
			var parseErr *domain.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.line, parseErr.Line)
		})
	}
}

func TestMarkdownFence_ToleratesCRLFStructure(t *testing.T) {
	text := "<!-- FILE: a.txt; encoding=utf-8; eol=LF; mode=text -->\r\n```\r\nx\n```\r\n"
	m, err := profile.NewMarkdownFence().Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "x", m.At(0).Content)
}

func TestMarkdownFence_Detect(t *testing.T) {
	p := profile.NewMarkdownFence()
	assert.True(t, p.Detect("\n<!-- FILE: a; mode=text -->\n```\n"))
	assert.True(t, p.Detect("<!-- BUNDLE: tool=x -->\n\n<!-- FILE: a -->\n```go\n"))
	assert.False(t, p.Detect("<!-- FILE: a; mode=text -->\nno fence\n"))
	assert.False(t, p.Detect("# Title\n<!-- FILE: a -->\n```\n"))
}

// =============================================================================
// jsonl
// =============================================================================

func TestJSONLines_Format(t *testing.T) {
	text, err := profile.NewJSONLines().Format(oneText(t, "a.html", "<p>&</p>"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"kind":"bundle","version":"2.1","profile":"jsonl"}`, lines[0])
	assert.Equal(t, `{"kind":"file","path":"a.html","encoding":"utf-8","eol":"LF","binary":false,"content":"<p>&</p>"}`, lines[1])
}

func TestJSONLines_ParseVersionAndMetadata(t *testing.T) {
	text := `{"kind":"bundle","version":"2.0","metadata":{"tool":"x"}}` + "\n" +
		`{"kind":"file","path":"b.bin","binary":true,"content":"AAEC"}` + "\n"

	m, err := profile.NewJSONLines().Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "2.0", m.Version())
	assert.Equal(t, "x", m.Metadata()["tool"])
	assert.Equal(t, domain.EncodingBase64, m.At(0).Encoding)
	assert.True(t, m.At(0).IsBinary)
}

func TestJSONLines_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		line int
	}{
		{"invalid json", "{\"kind\":\"file\",\n", 1},
		{"unknown kind", `{"kind":"dir","path":"a"}`, 1},
		{"missing path", `{"kind":"file","content":"x"}`, 1},
		{"late header", `{"kind":"file","path":"a","content":""}` + "\n\n" + `{"kind":"bundle"}`, 3},
		{"negative size", `{"kind":"file","path":"a","size":-1,"content":""}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := profile.NewJSONLines().Parse(tt.text)
			var parseErr *domain.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.line, parseErr.Line)
		})
	}
}
