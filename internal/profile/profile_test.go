package profile_test

import (
	"strings"
	"testing"

	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/profile"
	"github.com/quantmind-br/bundlefile/internal/textenc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allProfiles() []domain.Profile {
	return profile.DefaultRegistry().Profiles()
}

// tricky returns a manifest exercising every encoding and escaping edge
func tricky(t *testing.T) *domain.Manifest {
	t.Helper()
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00}
	entries := []domain.Entry{
		{Path: "src/main.go", Content: "package main\n\nfunc main() {}\n", Encoding: domain.EncodingUTF8, EOL: domain.EOLLF, Checksum: textenc.Checksum([]byte("package main\n\nfunc main() {}\n"))},
		{Path: "win.txt", Content: "a\r\nb\r\n", Encoding: domain.EncodingUTF8, EOL: domain.EOLCRLF},
		{Path: "mixed.txt", Content: "a\r\nb\nc\rd", Encoding: domain.EncodingUTF8, EOL: domain.EOLMixed},
		{Path: "bom.txt", Content: "hello", Encoding: domain.EncodingUTF8BOM, EOL: domain.EOLLF},
		{Path: "empty.txt", Content: "", Encoding: domain.EncodingUTF8, EOL: domain.EOLLF},
		{Path: "newlines.txt", Content: "\n\n\n", Encoding: domain.EncodingUTF8, EOL: domain.EOLLF},
		{Path: "markers.txt", Content: "# FILE: fake.txt\n# META: mode=binary\n# ===========================\n<!-- FILE: x; mode=text -->\n", Encoding: domain.EncodingUTF8, EOL: domain.EOLLF},
		{Path: "README.md", Content: "```go\nfmt.Println()\n```\n````\nnested\n````", Encoding: domain.EncodingUTF8, EOL: domain.EOLLF},
		{Path: "img/logo.png", Content: textenc.EncodeBase64(png), IsBinary: true, Encoding: domain.EncodingBase64, EOL: domain.EOLNone, Size: int64(len(png))},
		{Path: "latin.txt", Content: "café", Encoding: domain.EncodingLatin1, EOL: domain.EOLLF},
	}
	m, err := domain.NewManifest("md_fence", entries, map[string]string{"tool": "bundlefile test", "created": "2026-01-01T00:00:00Z"})
	require.NoError(t, err)
	return m
}

func assertSameEntries(t *testing.T, p domain.Profile, want, got *domain.Manifest) {
	t.Helper()
	require.Equal(t, want.Paths(), got.Paths())
	for i := 0; i < want.Len(); i++ {
		w, g := want.At(i), got.At(i)
		assert.Equal(t, w.IsBinary, g.IsBinary, w.Path)
		assert.Equal(t, w.Encoding, g.Encoding, w.Path)
		assert.Equal(t, w.EOL, g.EOL, w.Path)
		assert.Equal(t, w.Size, g.Size, w.Path)

		wantBytes, err := textenc.Payload(w)
		require.NoError(t, err)
		gotBytes, err := textenc.Payload(g)
		require.NoError(t, err)
		assert.Equal(t, wantBytes, gotBytes, w.Path)

		if p.Capabilities().SupportsChecksums {
			assert.Equal(t, w.Checksum, g.Checksum, w.Path)
		} else {
			assert.Empty(t, g.Checksum, w.Path)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	m := tricky(t)

	for _, p := range allProfiles() {
		t.Run(p.Name(), func(t *testing.T) {
			text, err := p.Format(m)
			require.NoError(t, err)

			got, err := p.Parse(text)
			require.NoError(t, err)
			assert.Equal(t, p.Name(), got.Profile())
			assertSameEntries(t, p, m, got)

			if p.Capabilities().SupportsMetadata {
				assert.Equal(t, m.Metadata(), got.Metadata())
			}

			// formatting is stable
			again, err := p.Format(got)
			require.NoError(t, err)
			assert.Equal(t, text, again)
		})
	}
}

func TestRoundTrip_EmptyManifest(t *testing.T) {
	m, err := domain.NewManifest("", nil, nil)
	require.NoError(t, err)

	for _, p := range allProfiles() {
		t.Run(p.Name(), func(t *testing.T) {
			text, err := p.Format(m)
			require.NoError(t, err)
			got, err := p.Parse(text)
			require.NoError(t, err)
			assert.Equal(t, 0, got.Len())
		})
	}
}

func TestFormat_DetectsOwnOutput(t *testing.T) {
	m := tricky(t)
	reg := profile.DefaultRegistry()

	for _, p := range reg.Profiles() {
		t.Run(p.Name(), func(t *testing.T) {
			text, err := p.Format(m)
			require.NoError(t, err)

			detected, err := reg.Detect(text)
			require.NoError(t, err)
			assert.Equal(t, p.Name(), detected.Name())
		})
	}
}

func TestValidateManifest_AggregatesPaths(t *testing.T) {
	var entries []domain.Entry
	for _, name := range []string{"a;1", "b;2", "c;3", "d;4", "e;5"} {
		entries = append(entries, domain.Entry{Path: name, Encoding: domain.EncodingUTF8, EOL: domain.EOLLF})
	}
	entries = append(entries, domain.Entry{Path: "ok.txt", Encoding: domain.EncodingUTF8, EOL: domain.EOLLF})
	m, err := domain.NewManifest("", entries, nil)
	require.NoError(t, err)

	err = profile.NewMarkdownFence().ValidateManifest(m)
	var formatErr *domain.FormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Len(t, formatErr.Paths, 5)
	assert.Contains(t, err.Error(), "a;1, b;2, c;3 and 2 more")
	assert.NotContains(t, err.Error(), "ok.txt")

	_, err = profile.NewMarkdownFence().Format(m)
	require.ErrorAs(t, err, &formatErr)

	// the same paths are fine for the other grammars
	assert.NoError(t, profile.NewPlainMarker().ValidateManifest(m))
	assert.NoError(t, profile.NewJSONLines().ValidateManifest(m))
}

func TestValidateManifest_InvalidBase64(t *testing.T) {
	m, err := domain.NewManifest("", []domain.Entry{
		{Path: "x.bin", Content: "%%%", IsBinary: true, Encoding: domain.EncodingBase64, EOL: domain.EOLNone},
	}, nil)
	require.NoError(t, err)

	for _, p := range allProfiles() {
		var formatErr *domain.FormatError
		require.ErrorAs(t, p.ValidateManifest(m), &formatErr, p.Name())
		assert.Equal(t, []string{"x.bin"}, formatErr.Paths)
	}
}

func TestValidateManifest_MetadataUnsafeForComments(t *testing.T) {
	m, err := domain.NewManifest("", nil, map[string]string{"note": "a;b"})
	require.NoError(t, err)

	var formatErr *domain.FormatError
	require.ErrorAs(t, profile.NewMarkdownFence().ValidateManifest(m), &formatErr)
	assert.Equal(t, []string{"note"}, formatErr.Paths)
	assert.NoError(t, profile.NewJSONLines().ValidateManifest(m))
}

func TestMarkdownFence_MetadataKeepsKeyCase(t *testing.T) {
	meta := map[string]string{"Created": "2026-10-14", "toolVersion": "2.1.0"}
	m, err := domain.NewManifest("", nil, meta)
	require.NoError(t, err)

	p := profile.NewMarkdownFence()
	text, err := p.Format(m)
	require.NoError(t, err)
	got, err := p.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, meta, got.Metadata())
}

func TestValidateManifest_MetadataSurroundingSpaces(t *testing.T) {
	m, err := domain.NewManifest("", nil, map[string]string{"Created": " v ", "ok": "v"})
	require.NoError(t, err)

	var formatErr *domain.FormatError
	require.ErrorAs(t, profile.NewMarkdownFence().ValidateManifest(m), &formatErr)
	assert.Equal(t, []string{"Created"}, formatErr.Paths)
	assert.NoError(t, profile.NewJSONLines().ValidateManifest(m))
}

func TestJSONLines_RejectsInvalidUTF8Text(t *testing.T) {
	m, err := domain.NewManifest("", []domain.Entry{
		{Path: "bad.txt", Content: "\xff\xfe", Encoding: domain.EncodingUTF8, EOL: domain.EOLLF},
	}, nil)
	require.NoError(t, err)

	var formatErr *domain.FormatError
	assert.ErrorAs(t, profile.NewJSONLines().ValidateManifest(m), &formatErr)
}

func TestAdvisories(t *testing.T) {
	m := tricky(t)

	advisories := profile.Advisories(profile.NewPlainMarker(), m)
	require.Len(t, advisories, 2)
	assert.Contains(t, advisories[0], "src/main.go")
	assert.Contains(t, advisories[1], "metadata")

	assert.Empty(t, profile.Advisories(profile.NewMarkdownFence(), m))
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, domain.Capabilities{SupportsBinary: true}, profile.NewPlainMarker().Capabilities())
	assert.True(t, profile.NewMarkdownFence().Capabilities().SupportsChecksums)
	assert.True(t, profile.NewJSONLines().Capabilities().SupportsMetadata)
	assert.Equal(t, domain.DefaultCapabilities(), profile.NewBase("x", "X", domain.Capabilities{}).Capabilities())
}

func TestParse_DecodesBinary(t *testing.T) {
	for _, p := range allProfiles() {
		t.Run(p.Name(), func(t *testing.T) {
			m, err := domain.NewManifest("", []domain.Entry{
				{Path: "a.bin", Content: "AAEC", IsBinary: true, Encoding: domain.EncodingBase64, EOL: domain.EOLNone},
			}, nil)
			require.NoError(t, err)
			text, err := p.Format(m)
			require.NoError(t, err)

			broken := strings.Replace(text, "AAEC", "AA*C", 1)
			_, err = p.Parse(broken)
			var encErr *domain.EncodingError
			require.ErrorAs(t, err, &encErr)
			assert.Equal(t, "a.bin", encErr.Path)
		})
	}
}

func TestParse_DuplicatePaths(t *testing.T) {
	for _, p := range allProfiles() {
		t.Run(p.Name(), func(t *testing.T) {
			m, err := domain.NewManifest("", []domain.Entry{
				{Path: "a.txt", Content: "1", Encoding: domain.EncodingUTF8, EOL: domain.EOLLF},
			}, nil)
			require.NoError(t, err)
			text, err := p.Format(m)
			require.NoError(t, err)

			// drop a jsonl header so the record can simply be repeated
			if p.Name() == profile.JSONLinesName {
				lines := strings.SplitAfter(text, "\n")
				text = lines[1]
			}
			_, err = p.Parse(text + text)
			var parseErr *domain.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.ErrorIs(t, err, domain.ErrDuplicatePath)
			assert.Greater(t, parseErr.Line, 1)
		})
	}
}

func TestParse_UnknownEncoding(t *testing.T) {
	inputs := map[string]string{
		profile.PlainMarkerName:   "# FILE: a.txt\n# META: encoding=ebcdic; eol=LF; mode=text; lines=1\nx\n",
		profile.MarkdownFenceName: "<!-- FILE: a.txt; encoding=ebcdic; eol=LF; mode=text -->\n```\nx\n```\n",
		profile.JSONLinesName:     `{"kind":"file","path":"a.txt","encoding":"ebcdic","eol":"LF","content":"x"}` + "\n",
	}
	reg := profile.DefaultRegistry()
	for name, text := range inputs {
		t.Run(name, func(t *testing.T) {
			p, err := reg.Get(name)
			require.NoError(t, err)
			_, err = p.Parse(text)
			var encErr *domain.EncodingError
			require.ErrorAs(t, err, &encErr)
			assert.ErrorIs(t, err, domain.ErrUnknownEncoding)
		})
	}
}

func TestParse_RejectsEscapingPaths(t *testing.T) {
	inputs := map[string]string{
		profile.PlainMarkerName:   "# FILE: ../evil.txt\n# META: encoding=utf-8; eol=LF; mode=text; lines=1\nx\n",
		profile.MarkdownFenceName: "<!-- FILE: /etc/passwd; encoding=utf-8; eol=LF; mode=text -->\n```\nx\n```\n",
		profile.JSONLinesName:     `{"kind":"file","path":"a/../../b","content":"x"}` + "\n",
	}
	reg := profile.DefaultRegistry()
	for name, text := range inputs {
		t.Run(name, func(t *testing.T) {
			p, err := reg.Get(name)
			require.NoError(t, err)
			_, err = p.Parse(text)
			var parseErr *domain.ParseError
			require.ErrorAs(t, err, &parseErr)
			assert.ErrorIs(t, err, domain.ErrPathEscape)
		})
	}
}
