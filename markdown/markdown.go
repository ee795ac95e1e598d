// Package markdown renders blog Markdown to sanitised HTML and reduces
// user-supplied text to plain text.
package markdown

import (
	"bytes"
	"context"
	"html"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			// raw HTML passes through here and is cleaned by ugc below
			gmhtml.WithUnsafe(),
		),
	)

	ugc   = newUGCPolicy()
	plain = bluemonday.StrictPolicy()
)

func newUGCPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "span")
	p.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	p.AllowAttrs("loading").Matching(bluemonday.SpaceSeparatedTokens).OnElements("img")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Markdown returns a templ.Component that renders content as sanitised HTML.
func Markdown(content string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := RenderMarkdown(&buf, content); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// RenderMarkdown writes the sanitised HTML representation of content to buf.
func RenderMarkdown(buf *bytes.Buffer, content string) error {
	var raw bytes.Buffer
	if err := md.Convert([]byte(content), &raw); err != nil {
		return err
	}
	buf.Write(ugc.SanitizeBytes(raw.Bytes()))
	return nil
}

// ToHTML converts Markdown to a sanitised HTML string.
func ToHTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, content); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// StripText removes every HTML tag from s and returns the remaining text
// unescaped, ready to be escaped again at render time.
func StripText(s string) string {
	return html.UnescapeString(plain.Sanitize(s))
}

// Summary renders content, strips it to plain text and cuts it to at most
// max runes on a word boundary. It is used for feed and meta descriptions.
func Summary(content string, max int) string {
	out, err := ToHTML(content)
	if err != nil {
		out = content
	}
	text := strings.Join(strings.Fields(StripText(out)), " ")
	if utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)[:max]
	cut := string(runes)
	if i := strings.LastIndex(cut, " "); i > max/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// SafeURL validates a URL for use in HTML attributes. Relative paths and
// http(s), mailto and tel links pass; anything else yields "".
func SafeURL(raw string) string {
	val := strings.TrimSpace(html.UnescapeString(raw))
	if val == "" {
		return ""
	}
	if strings.HasPrefix(val, "/") || strings.HasPrefix(val, "#") {
		return val
	}
	parsed, err := url.Parse(val)
	if err != nil || parsed.Scheme == "" {
		return ""
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https", "mailto", "tel":
		return val
	default:
		return ""
	}
}
