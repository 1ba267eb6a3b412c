// Package textnorm provides the pure text transforms applied to product
// fields before they are written to the feed: entity decoding, markup
// stripping, whitespace collapsing and description truncation.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"
)

// DefaultDescriptionLimit is the maximum DESCRIPTION length accepted by the
// feed consumer, in characters.
const DefaultDescriptionLimit = 320

// Ellipsis is appended to truncated descriptions.
const Ellipsis = "..."

var (
	entityPattern     = regexp.MustCompile(`(?i)&(nbsp|amp|quot|apos|lt|gt);`)
	whitespacePattern = regexp.MustCompile(`[\s\p{Zs}]+`)
)

var entities = map[string]string{
	"nbsp": " ",
	"amp":  "&",
	"quot": `"`,
	"apos": "'",
	"lt":   "<",
	"gt":   ">",
}

// DecodeEntities replaces &nbsp; &amp; &quot; &apos; &lt; and &gt; (in any
// letter case) with their literal characters. Other entities are left as-is.
func DecodeEntities(text string) string {
	if text == "" {
		return ""
	}
	return entityPattern.ReplaceAllStringFunc(text, func(m string) string {
		name := strings.ToLower(m[1 : len(m)-1])
		return entities[name]
	})
}

// CollapseWhitespace replaces every whitespace run with a single space and
// trims the result.
func CollapseWhitespace(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// ToXMLSafeText decodes entities, collapses whitespace and returns NFC
// normalized text. Escaping for XML itself is left to the encoder.
func ToXMLSafeText(text string) string {
	return norm.NFC.String(CollapseWhitespace(DecodeEntities(text)))
}

// StripMarkup removes all tags from an HTML fragment. The contents of script,
// style and noscript elements are dropped entirely. Text is kept raw so entities
// survive for DecodeEntities.
func StripMarkup(fragment string) string {
	if fragment == "" {
		return ""
	}

	var (
		b       strings.Builder
		skipped int
	)

	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF or a malformed tail; either way we are done.
			return CollapseWhitespace(b.String())
		case html.StartTagToken:
			name, _ := z.TagName()
			if isSkippedElement(name) {
				skipped++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			name, _ := z.TagName()
			if isSkippedElement(name) && skipped > 0 {
				skipped--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		case html.TextToken:
			if skipped == 0 {
				b.Write(z.Raw())
			}
		case html.CommentToken, html.DoctypeToken:
		}
	}
}

func isSkippedElement(name []byte) bool {
	switch atom.Lookup(name) {
	case atom.Script, atom.Style, atom.Noscript:
		return true
	}
	return false
}

// TruncateDescription cuts text to limit characters, replacing the tail with
// an ellipsis when it is too long. A limit of zero or less uses
// DefaultDescriptionLimit.
func TruncateDescription(text string, limit int) string {
	if limit <= 0 {
		limit = DefaultDescriptionLimit
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	cut := max(limit-len(Ellipsis), 0)
	return string(runes[:cut]) + Ellipsis
}

// Description runs the full description pipeline: strip markup, normalize,
// truncate.
func Description(fragment string, limit int) string {
	return TruncateDescription(ToXMLSafeText(StripMarkup(fragment)), limit)
}
