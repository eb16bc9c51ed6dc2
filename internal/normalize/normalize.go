// Package normalize canonicalizes raw document text before any pattern
// matching: whitespace collapsing, OCR artifact repair, and quote/dash
// unification. Normalization is pure, total, and idempotent; citation-relevant
// digits and punctuation (reporter periods, "v.", the section sign) are never
// altered.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// substitutions is the fixed OCR/typography repair table. Keys are artifacts
// commonly introduced by PDF extraction and OCR; values are the plain forms
// the extraction patterns expect.
var substitutions = map[rune]string{
	'‘': "'",  // left single quote
	'’': "'",  // right single quote
	'‚': "'",  // single low quote
	'“': `"`,  // left double quote
	'”': `"`,  // right double quote
	'„': `"`,  // double low quote
	'–': "-",  // en dash
	'—': "-",  // em dash
	'−': "-",  // minus sign
	'\u00ad': "",  // soft hyphen
	'\u200b': "",  // zero-width space
	'\ufeff': "",  // byte order mark
	'\u00a0': " ", // no-break space
	'\u2007': " ", // figure space
	'\u202f': " ", // narrow no-break space
	'ﬁ': "fi", // fi ligature
	'ﬂ': "fl", // fl ligature
	'ﬀ': "ff", // ff ligature
	'ﬃ': "ffi",
	'ﬄ': "ffl",
}

// Normalize canonicalizes raw text: repairs OCR artifacts via the fixed
// substitution table and collapses runs of whitespace and newlines to single
// spaces. Span offsets downstream are positions in the normalized text.
// Unknown bytes pass through unchanged; Normalize never fails.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	if !utf8.ValidString(raw) {
		// Byte-preserving pass-through on unknown encoding.
		return raw
	}

	var b strings.Builder
	b.Grow(len(raw))

	inSpace := false
	for _, r := range raw {
		if sub, ok := substitutions[r]; ok {
			if sub == "" {
				continue
			}
			if sub == " " {
				if !inSpace {
					b.WriteByte(' ')
					inSpace = true
				}
				continue
			}
			b.WriteString(sub)
			inSpace = false
			continue
		}

		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}

		b.WriteRune(r)
		inSpace = false
	}

	return strings.TrimSpace(b.String())
}

// LooksLikeHTML reports whether a blob is likely an HTML document rather than
// plain text. Content acquisition is out of scope, but callers still hand the
// engine whatever blob they obtained.
func LooksLikeHTML(blob string) bool {
	head := strings.ToLower(blob)
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.Contains(head, "<html") ||
		strings.Contains(head, "<!doctype html") ||
		strings.Contains(head, "<body")
}

// StripHTML extracts the visible text of an HTML blob, skipping script, style,
// and other non-content elements. Block-level elements become line breaks so
// sentence boundaries survive for the associator.
func StripHTML(blob string) string {
	doc, err := html.Parse(strings.NewReader(blob))
	if err != nil {
		// Parse failures degrade to treating the blob as plain text.
		return blob
	}

	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode {
			switch n.Data {
			case "p", "div", "br", "li", "h1", "h2", "h3", "h4", "blockquote", "tr":
				buf.WriteString("\n")
			}
		}
	}

	walk(doc)
	return buf.String()
}
