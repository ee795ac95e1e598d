package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestRenderMarkdownInline(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"`code`", "<code>code</code>"},
		{"~~gone~~", "<del>gone</del>"},
	}
	for _, tt := range tests {
		got, err := ToHTML(tt.input)
		if err != nil {
			t.Fatalf("ToHTML(%q): %v", tt.input, err)
		}
		if !strings.Contains(got, tt.expected) {
			t.Errorf("ToHTML(%q) = %q, want it to contain %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderMarkdownHeadingID(t *testing.T) {
	got, err := ToHTML("## On the Road")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `<h2 id="on-the-road">`) {
		t.Errorf("heading id missing: %q", got)
	}
}

func TestRenderMarkdownCodeBlock(t *testing.T) {
	input := "```go\nfmt.Println(1)\n```"
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, input); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	if !strings.Contains(got, "<pre>") || !strings.Contains(got, `class="language-go"`) {
		t.Errorf("code block not rendered: %q", got)
	}
}

func TestRenderMarkdownStripsScripts(t *testing.T) {
	tests := []string{
		"<script>alert(1)</script>hello",
		`<img src="x" onerror="alert(1)">`,
		"[click](javascript:alert(1))",
	}
	for _, input := range tests {
		got, err := ToHTML(input)
		if err != nil {
			t.Fatal(err)
		}
		for _, bad := range []string{"<script", "onerror", "javascript:"} {
			if strings.Contains(got, bad) {
				t.Errorf("ToHTML(%q) = %q, should not contain %q", input, got, bad)
			}
		}
	}
}

func TestRenderMarkdownExternalLinks(t *testing.T) {
	got, err := ToHTML("[duo](https://example.com)")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "nofollow") || !strings.Contains(got, `target="_blank"`) {
		t.Errorf("external link attributes missing: %q", got)
	}
}

func TestMarkdownComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown("# Title").Render(context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<h1") {
		t.Errorf("Markdown component output = %q", buf.String())
	}
}

func TestStripText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "plain"},
		{"<b>bold</b> text", "bold text"},
		{"<script>alert(1)</script>", ""},
		{"Tom & Jerry", "Tom & Jerry"},
		{"a < b", "a < b"},
	}
	for _, tt := range tests {
		if got := StripText(tt.input); got != tt.expected {
			t.Errorf("StripText(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSummary(t *testing.T) {
	got := Summary("**Hello** world", 100)
	if got != "Hello world" {
		t.Errorf("Summary = %q", got)
	}

	long := strings.Repeat("word ", 50)
	got = Summary(long, 20)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("long summary should be truncated: %q", got)
	}
	if len([]rune(got)) > 21 {
		t.Errorf("summary too long: %d runes", len([]rune(got)))
	}
}

func TestSafeURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"/public/uploads/a.jpg", "/public/uploads/a.jpg"},
		{"https://example.com/a.jpg", "https://example.com/a.jpg"},
		{"javascript:alert(1)", ""},
		{"data:text/html,hi", ""},
		{"", ""},
		{"no-scheme", ""},
	}
	for _, tt := range tests {
		if got := SafeURL(tt.input); got != tt.expected {
			t.Errorf("SafeURL(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
