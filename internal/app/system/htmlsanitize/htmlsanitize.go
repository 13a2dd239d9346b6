// internal/app/system/htmlsanitize/htmlsanitize.go

// Package htmlsanitize sanitizes user-authored HTML before display.
// Group descriptions and chat messages may contain rich text; everything
// rendered back to other users goes through Sanitize first.
package htmlsanitize

import (
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the shared sanitization policy. Built once at init.
//
// Starts from bluemonday's user-generated-content policy and adds the
// formatting our editor emits: mark/underline/strikethrough, and class
// plus a narrow set of style properties on table elements.
var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowElements("u", "s", "sub", "sup", "mark")

	tableElements := []string{"table", "thead", "tbody", "tfoot", "tr", "th", "td"}
	p.AllowAttrs("class").OnElements(tableElements...)
	p.AllowStyles("width", "text-align", "vertical-align").OnElements(tableElements...)

	return p
}

// Sanitize strips dangerous markup from an HTML string and returns the
// cleaned string. Safe formatting (paragraphs, lists, tables, links,
// images, code blocks) is preserved.
func Sanitize(html string) string {
	if html == "" {
		return ""
	}
	return policy.Sanitize(html)
}

// SanitizeToHTML sanitizes and returns template.HTML, ready to render
// without further escaping.
func SanitizeToHTML(html string) template.HTML {
	return template.HTML(Sanitize(html))
}

// IsPlainText reports whether the string looks like plain text rather
// than HTML. A string is treated as HTML only if it contains both "<"
// and ">", so comparisons like "5 < 10" stay plain.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML escapes a plain-text string and converts newlines to
// <br>, wrapping the result in a paragraph.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := template.HTMLEscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	return "<p>" + escaped + "</p>"
}

// PrepareForDisplay renders stored content for display: plain text is
// escaped and paragraph-wrapped, HTML is sanitized.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}
