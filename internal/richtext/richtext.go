// Package richtext turns the editor's HTML fragments into plain text for
// terminal output. The payload itself is never rewritten before it is sent
// back to the store.
package richtext

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// block-level elements that end a line
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "blockquote": true, "pre": true,
}

// PlainText extracts the visible text of an HTML fragment. List items are
// prefixed with "- " and block elements are separated by newlines.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				// Malformed input: fall back to the raw payload
				return strings.TrimSpace(fragment)
			}
			return tidy(b.String())
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "li" {
				b.WriteString("\n- ")
			} else if tag == "br" {
				b.WriteString("\n")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if blockTags[string(name)] {
				b.WriteString("\n")
			}
		}
	}
}

// IsBlank reports whether the fragment has no visible text, e.g. "<p></p>".
func IsBlank(fragment string) bool {
	return PlainText(fragment) == ""
}

// FromPlain wraps plain text lines into paragraphs so text typed on the
// command line renders like editor output.
func FromPlain(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}
	return b.String()
}

// Revise returns the payload to store after current was edited as plain
// text. When the visible text is unchanged current is returned as-is, so
// formatting the terminal cannot show survives.
func Revise(current, edited string) string {
	if tidy(edited) == PlainText(current) {
		return current
	}
	return FromPlain(edited)
}

func tidy(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" && l != "-" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
