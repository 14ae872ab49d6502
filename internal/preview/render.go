package preview

import (
	"regexp"
	"strings"
)

var (
	cellSplitter = regexp.MustCompile(`[;,]`)
	tagPattern   = regexp.MustCompile(`<[^>]+>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// EscapeHTML escapes the characters that would break cell markup.
func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// CSVToHTML renders CSV text as a simple HTML table. Rows split on
// newlines, cells on ";" or ","; blank rows are skipped and every cell
// is escaped.
func CSVToHTML(text string) string {
	var b strings.Builder
	b.WriteString(`<table style="width:100%; border-collapse:collapse; font-size:0.85rem;">`)
	b.WriteString("<tbody>")
	for _, row := range strings.Split(strings.TrimSpace(text), "\n") {
		row = strings.TrimSuffix(row, "\r")
		if strings.TrimSpace(row) == "" {
			continue
		}
		b.WriteString("<tr>")
		for _, cell := range cellSplitter.Split(row, -1) {
			b.WriteString(`<td style="border:1px solid rgba(148,163,184,0.4); padding:4px 6px;">`)
			b.WriteString(EscapeHTML(strings.TrimSpace(cell)))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

// StripTags reduces converted HTML to plain text for search indexing.
func StripTags(html string) string {
	plain := tagPattern.ReplaceAllString(html, " ")
	plain = spacePattern.ReplaceAllString(plain, " ")
	return strings.TrimSpace(plain)
}
