package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quantmind-br/bundlefile/internal/config"
	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/utils"
	"github.com/quantmind-br/bundlefile/internal/writer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sourceFiles = map[string][]byte{
	"src/main.go":      []byte("package main\n\nfunc main() {}\n"),
	"src/win.bat":      []byte("@echo off\r\necho hi\r\n"),
	"docs/readme.md":   []byte("# Title\n\n```go\nx := 1\n```\n"),
	"docs/mixed.txt":   []byte("a\r\nb\nc\r"),
	"assets/logo.bin":  {0x89, 'P', 'N', 'G', 0x00, 0xFF, 0x10},
	"i18n/wide.txt":    {0xFF, 0xFE, 'o', 0x00, 'k', 0x00, '\n', 0x00},
	"i18n/bom.txt":     []byte("\xEF\xBB\xBFbom text\n"),
	"notes/empty.txt":  {},
	"notes/marker.txt": []byte("# FILE: fake.txt\n# ===\n<!-- FILE: x -->\n"),
}

func writeSource(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for rel, data := range sourceFiles {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, data, 0644))
	}
	return root
}

func newTestOrchestrator(t *testing.T, modify func(*config.Config)) *Orchestrator {
	t.Helper()
	cfg := config.Default()
	cfg.Unbundle.OverwritePolicy = "error"
	if modify != nil {
		modify(cfg)
	}
	require.NoError(t, cfg.Validate())

	o, err := NewOrchestrator(OrchestratorOptions{Config: cfg, Logger: utils.NewNopLogger()})
	require.NoError(t, err)
	return o
}

func TestNewOrchestrator_RequiresConfig(t *testing.T) {
	_, err := NewOrchestrator(OrchestratorOptions{})
	assert.Error(t, err)
}

func TestOrchestrator_RoundTrip(t *testing.T) {
	for _, name := range []string{"md_fence", "plain_marker", "jsonl"} {
		t.Run(name, func(t *testing.T) {
			root := writeSource(t)
			out := filepath.Join(t.TempDir(), "restored")

			o := newTestOrchestrator(t, func(c *config.Config) {
				c.Bundle.Profile = name
				c.Bundle.Concurrency = 3
				c.Unbundle.Output = out
				c.Unbundle.Concurrency = 2
			})

			var buf bytes.Buffer
			var discovered int
			bundled, err := o.Bundle(context.Background(), root, &buf, BundleOptions{
				OnDiscovered: func(n int) { discovered = n },
			})
			require.NoError(t, err)
			assert.Equal(t, len(sourceFiles), discovered)
			assert.Equal(t, len(sourceFiles), bundled.Manifest.Len())
			assert.Equal(t, buf.Len(), bundled.Bytes)

			res, err := o.Unbundle(context.Background(), buf.String(), UnbundleOptions{})
			require.NoError(t, err)
			assert.Equal(t, name, res.Profile.Name())
			assert.Equal(t, len(sourceFiles), res.Report.Processed)
			require.NoError(t, res.Report.Err())

			for rel, want := range sourceFiles {
				got, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(rel)))
				require.NoError(t, err, rel)
				assert.Equal(t, want, got, rel)
			}
		})
	}
}

func TestOrchestrator_BundleAdvisories(t *testing.T) {
	root := writeSource(t)
	o := newTestOrchestrator(t, func(c *config.Config) { c.Bundle.Profile = "plain_marker" })

	res, err := o.Bundle(context.Background(), root, &bytes.Buffer{}, BundleOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Advisories)
	assert.Contains(t, strings.Join(res.Advisories, "\n"), "metadata")
}

func TestOrchestrator_BundleUnknownProfile(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	o.config.Bundle.Profile = "nope"

	_, err := o.Bundle(context.Background(), t.TempDir(), &bytes.Buffer{}, BundleOptions{})
	var notFound *domain.ProfileNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestOrchestrator_BundleFileTooLarge(t *testing.T) {
	root := writeSource(t)
	o := newTestOrchestrator(t, func(c *config.Config) { c.Bundle.MaxFileSize = "10B" })

	_, err := o.Bundle(context.Background(), root, &bytes.Buffer{}, BundleOptions{})
	var sizeErr *domain.FileSizeError
	assert.True(t, errors.As(err, &sizeErr))
}

func TestOrchestrator_UnbundleDryRun(t *testing.T) {
	root := writeSource(t)
	out := filepath.Join(t.TempDir(), "never")
	o := newTestOrchestrator(t, func(c *config.Config) {
		c.Unbundle.Output = out
		c.Unbundle.DryRun = true
	})

	var buf bytes.Buffer
	_, err := o.Bundle(context.Background(), root, &buf, BundleOptions{})
	require.NoError(t, err)

	var parsed int
	res, err := o.Unbundle(context.Background(), buf.String(), UnbundleOptions{
		OnParsed: func(m *domain.Manifest) { parsed = m.Len() },
	})
	require.NoError(t, err)
	assert.Equal(t, len(sourceFiles), parsed)
	assert.Equal(t, len(sourceFiles), res.Report.Processed)
	for _, r := range res.Report.Results {
		assert.True(t, r.DryRun)
	}
	assert.NoDirExists(t, out)
}

func TestOrchestrator_UnbundlePromptResolve(t *testing.T) {
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "a.txt"), []byte("old"), 0644))
	text := "<!-- FILE: a.txt; encoding=utf-8; eol=LF -->\n```\nnew\n```\n"

	o := newTestOrchestrator(t, func(c *config.Config) {
		c.Unbundle.Output = out
		c.Unbundle.OverwritePolicy = "prompt"
	})

	var asked int
	res, err := o.Unbundle(context.Background(), text, UnbundleOptions{
		Resolve: func(domain.Entry, string) (writer.Policy, error) {
			asked++
			return writer.PolicyOverwrite, nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, asked)
	assert.Equal(t, 1, res.Report.Processed)

	got, err := os.ReadFile(filepath.Join(out, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestOrchestrator_UnbundleParseError(t *testing.T) {
	o := newTestOrchestrator(t, func(c *config.Config) {
		c.Unbundle.Output = t.TempDir()
		c.Unbundle.Profile = "md_fence"
	})

	_, err := o.Unbundle(context.Background(), "<!-- FILE: a.txt -->\n```\nunterminated\n", UnbundleOptions{})
	var parseErr *domain.ParseError
	assert.True(t, errors.As(err, &parseErr))
}

const checksumBundle = `{"kind":"bundle","version":"2.1","profile":"jsonl","metadata":{"note":"a;b"}}
{"kind":"file","path":"ok.txt","encoding":"utf-8","eol":"LF","sha256":"b5bb9d8014a0f9b1d61e21e796d78dccdf1352f23cd32812f4850b878ae4944c","content":"foo\n"}
{"kind":"file","path":"bad.txt","encoding":"utf-8","eol":"LF","sha256":"0000000000000000000000000000000000000000000000000000000000000000","content":"foo\n"}
`

func TestOrchestrator_Validate(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	report, err := o.Validate(checksumBundle, "auto", "")
	require.NoError(t, err)
	assert.Equal(t, "jsonl", report.Profile.Name())
	require.Len(t, report.ChecksumErrors, 1)
	var mismatch *domain.ChecksumMismatchError
	require.True(t, errors.As(report.ChecksumErrors[0], &mismatch))
	assert.Equal(t, "bad.txt", mismatch.Path)
	assert.False(t, report.OK())

	report, err = o.Validate(checksumBundle, "jsonl", "md_fence")
	require.NoError(t, err)
	var formatErr *domain.FormatError
	assert.True(t, errors.As(report.TargetError, &formatErr))

	report, err = o.Validate(checksumBundle, "jsonl", "plain_marker")
	require.NoError(t, err)
	assert.NoError(t, report.TargetError)
	assert.NotEmpty(t, report.Advisories)

	_, err = o.Validate(checksumBundle, "jsonl", "xml")
	var notFound *domain.ProfileNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestOrchestrator_InspectAndConvert(t *testing.T) {
	o := newTestOrchestrator(t, nil)

	summary, err := o.Inspect(checksumBundle, "")
	require.NoError(t, err)
	assert.Equal(t, "jsonl", summary.Profile)
	assert.Equal(t, "2.1", summary.Version)
	assert.Equal(t, 2, summary.Files)
	assert.Equal(t, 2, summary.Text)
	assert.Equal(t, "a;b", summary.Metadata["note"])
	assert.Equal(t, "ok.txt", summary.Entries[0].Path)

	converted, advisories, err := o.Convert(checksumBundle, "jsonl", "plain_marker")
	require.NoError(t, err)
	assert.NotEmpty(t, advisories)
	assert.Contains(t, converted, "# FILE: ok.txt")

	back, err := o.Inspect(converted, "auto")
	require.NoError(t, err)
	assert.Equal(t, "plain_marker", back.Profile)
	assert.Equal(t, []string{"ok.txt", "bad.txt"}, []string{back.Entries[0].Path, back.Entries[1].Path})
	assert.Empty(t, back.Entries[0].Checksum)

	_, _, err = o.Convert(checksumBundle, "jsonl", "md_fence")
	assert.Error(t, err)
}

func TestDecodeBundleText(t *testing.T) {
	assert.Equal(t, "abc", DecodeBundleText([]byte("\xEF\xBB\xBFabc")))
	assert.Equal(t, "abc", DecodeBundleText([]byte("abc")))
}
