package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAutop(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "  \n ", ""},
		{"single block", "Hello", "<p>Hello</p>"},
		{"two blocks", "One\n\nTwo", "<p>One</p>\n<p>Two</p>"},
		{"line break", "One\nTwo", "<p>One<br />\nTwo</p>"},
		{"crlf", "One\r\n\r\nTwo", "<p>One</p>\n<p>Two</p>"},
		{"existing block", "<h2>Title</h2>\n\nText", "<h2>Title</h2>\n<p>Text</p>"},
		{"form block", "<form><button>go</button></form>\n\nText", "<form><button>go</button></form>\n<p>Text</p>"},
		{"details block", "<details><summary>More</summary>x</details>", "<details><summary>More</summary>x</details>"},
		{"definition list", "<dl><dt>a</dt><dd>b</dd></dl>", "<dl><dt>a</dt><dd>b</dd></dl>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Autop(tt.input))
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "keeps markup",
			input:    `<p>Hello <strong>world</strong></p>`,
			contains: []string{"<p>Hello <strong>world</strong></p>"},
		},
		{
			name:     "drops script",
			input:    `<p>Hi</p><script>alert(1)</script>`,
			contains: []string{"<p>Hi</p>"},
			excludes: []string{"script", "alert"},
		},
		{
			name:     "drops event handlers",
			input:    `<img src="a.png" onerror="alert(1)">`,
			contains: []string{`src="a.png"`},
			excludes: []string{"onerror"},
		},
		{
			name:     "drops javascript urls",
			input:    `<a href=" javascript:alert(1)">x</a>`,
			contains: []string{"x"},
			excludes: []string{"javascript"},
		},
		{
			name:     "drops comments",
			input:    `<p>a<!-- hidden --></p>`,
			contains: []string{"<p>a</p>"},
			excludes: []string{"hidden"},
		},
		{
			name:     "drops form actions",
			input:    `<form><button formaction="javascript:alert(1)">go</button></form>`,
			contains: []string{"go"},
			excludes: []string{"formaction", "javascript", "<form", "<button"},
		},
		{
			name:     "drops meta refresh",
			input:    `<p>a</p><meta http-equiv="refresh" content="0;url=javascript:alert(3)">`,
			contains: []string{"<p>a</p>"},
			excludes: []string{"<meta", "refresh", "javascript"},
		},
		{
			name:     "drops srcdoc and base",
			input:    `<base href="https://evil.example/"><iframe srcdoc="<script>alert(1)</script>"></iframe><p>b</p>`,
			contains: []string{"<p>b</p>"},
			excludes: []string{"<base", "srcdoc", "alert"},
		},
		{
			name:     "escapes text",
			input:    `Fish & Chips`,
			contains: []string{"Fish &amp; Chips"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Sanitize(tt.input)
			for _, c := range tt.contains {
				assert.Contains(t, out, c)
			}
			for _, e := range tt.excludes {
				assert.NotContains(t, out, e)
			}
		})
	}
}

func TestPipelineTransform(t *testing.T) {
	p := NewPipeline(0)
	assert.Equal(t, DefaultExcerptWords, p.ExcerptWords)

	assert.Equal(t, "<p>Body text</p>", p.Transform("body", "Body text"))
	assert.Equal(t, "<p>Short</p>", p.Transform("summary", "Short"))
	assert.Equal(t, "&lt;b&gt;x&lt;/b&gt;", p.Transform("caption", "<b>x</b>"))

	// NFC: "e" + combining acute becomes a single code point
	assert.Equal(t, "<p>caf\u00e9</p>", p.Transform("body", "cafe\u0301"))

	raw := &Pipeline{ExcerptWords: 10}
	assert.Equal(t, "Line one\nLine two", raw.Transform("body", "Line one\nLine two"))
}

func TestTrimWords(t *testing.T) {
	assert.Equal(t, "a b c", TrimWords("a  b\nc", 3, "…"))
	assert.Equal(t, "a b…", TrimWords("a b c d", 2, "…"))
	assert.Equal(t, "a b c d", TrimWords("a b c d", 0, "…"))
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "Hello world", strings.Join(strings.Fields(StripTags("<p>Hello <em>world</em></p>")), " "))
	assert.NotContains(t, StripTags("<p>ok</p><script>bad()</script>"), "bad")
	assert.Equal(t, "Write &lt;em&gt;hi&lt;/em&gt; &amp; more", StripTags("<p>Write &lt;em&gt;hi&lt;/em&gt; &amp; more</p>"))
}

func TestPipelineTransformSanitizesBlocks(t *testing.T) {
	p := NewPipeline(0)
	out := p.Transform("body", "<form><button formaction=\"javascript:alert(1)\">go</button></form>\n\n"+
		"<meta http-equiv=\"refresh\" content=\"0;url=javascript:alert(3)\">")
	assert.NotContains(t, out, "javascript")
	assert.NotContains(t, out, "<p></p>")
	assert.Contains(t, out, "go")
}

func TestExcerptKeepsEscapedText(t *testing.T) {
	p := NewPipeline(0)
	ex := p.Excerpt("<p>Write &lt;em&gt;hi&lt;/em&gt; to emphasize, and &lt;img src=x&gt;.</p>")
	out := p.Transform("summary", ex)
	assert.NotContains(t, out, "<em>")
	assert.NotContains(t, out, "<img")
	assert.Contains(t, out, "&lt;em&gt;hi&lt;/em&gt;")
}

func TestExcerpt(t *testing.T) {
	p := NewPipeline(3)
	assert.Equal(t, "one two three"+ExcerptMore, p.Excerpt("<p>one two</p><p>three four five</p>"))
	assert.Equal(t, "one two", p.Excerpt("<p>one two</p>"))
}
