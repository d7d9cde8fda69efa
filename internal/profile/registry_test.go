package profile_test

import (
	"strings"
	"testing"

	"github.com/quantmind-br/bundlefile/internal/domain"
	"github.com/quantmind-br/bundlefile/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_Names(t *testing.T) {
	reg := profile.DefaultRegistry()
	assert.Equal(t, []string{"jsonl", "md_fence", "plain_marker"}, reg.Names())
	assert.Len(t, reg.Profiles(), 3)
}

func TestRegistry_Get(t *testing.T) {
	reg := profile.DefaultRegistry()

	p, err := reg.Get("md_fence")
	require.NoError(t, err)
	assert.Equal(t, "Markdown Fence", p.DisplayName())

	_, err = reg.Get("xml")
	var notFound *domain.ProfileNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "xml", notFound.Name)
	assert.Equal(t, reg.Names(), notFound.Available)
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := profile.NewRegistry()
	require.NoError(t, reg.Register(profile.NewJSONLines()))
	assert.Error(t, reg.Register(profile.NewJSONLines()))
	assert.Panics(t, func() { reg.MustRegister(profile.NewJSONLines()) })
}

func TestRegistry_Detect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "jsonl header",
			text: `{"kind":"bundle","version":"2.1"}` + "\n",
			want: "jsonl",
		},
		{
			name: "jsonl file record first",
			text: `{"kind":"file","path":"a","content":""}` + "\n",
			want: "jsonl",
		},
		{
			name: "md fence",
			text: "<!-- FILE: a.txt; encoding=utf-8; eol=LF; mode=text -->\n```\nx\n```\n",
			want: "md_fence",
		},
		{
			name: "md fence whose content holds plain markers",
			text: "<!-- FILE: a.txt; encoding=utf-8; eol=LF; mode=text -->\n```\n# FILE: b.txt\n```\n",
			want: "md_fence",
		},
		{
			name: "plain marker",
			text: "# ===================\n# FILE: a.txt\n# META: encoding=utf-8\n# ===================\nx\n",
			want: "plain_marker",
		},
		{
			name: "plain marker whose content holds md comments",
			text: "# FILE: a.md\n<!-- FILE: b; mode=text -->\n```\nx\n```\n",
			want: "plain_marker",
		},
	}

	reg := profile.DefaultRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := reg.Detect(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}

func TestRegistry_DetectOnlySeesSnippet(t *testing.T) {
	text := strings.Repeat("prose line\n", 500) + "# FILE: late.txt\n"
	_, err := profile.DefaultRegistry().Detect(text)

	var detErr *domain.DetectionError
	require.ErrorAs(t, err, &detErr)
	assert.Equal(t, []string{"jsonl", "md_fence", "plain_marker"}, detErr.Attempted)
}

func TestRegistry_Parse(t *testing.T) {
	reg := profile.DefaultRegistry()
	text := "<!-- FILE: a.txt; encoding=utf-8; eol=LF; mode=text -->\n```\nhello\n```\n"

	m, p, err := reg.Parse(text, "")
	require.NoError(t, err)
	assert.Equal(t, "md_fence", p.Name())
	assert.Equal(t, "hello", m.At(0).Content)

	m, p, err = reg.Parse(text, profile.AutoDetect)
	require.NoError(t, err)
	assert.Equal(t, "md_fence", p.Name())
	assert.Equal(t, 1, m.Len())

	_, _, err = reg.Parse(text, "nope")
	var notFound *domain.ProfileNotFoundError
	assert.ErrorAs(t, err, &notFound)
}
