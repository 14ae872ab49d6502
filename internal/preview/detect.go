// Package preview implements attachment type detection and the
// preview/text-extraction helpers used by the upload registry. The
// spreadsheet and word-processor converters are external collaborators
// reached through the decoder interfaces in decoder.go.
package preview

import "strings"

// Category describes which preview strategy applies to an attachment.
type Category int

const (
	// CategoryOther has no inline preview; users open it externally.
	CategoryOther Category = iota
	// CategoryInline renders directly via the access handle
	// (images, PDFs, plain text).
	CategoryInline
	// CategoryCSV is parsed into an HTML table locally.
	CategoryCSV
	// CategorySpreadsheet goes through the spreadsheet decoder.
	CategorySpreadsheet
	// CategoryWord goes through the word-processor decoder.
	CategoryWord
	// CategoryLegacyWord (.doc) has no inline preview.
	CategoryLegacyWord
)

// Detect classifies an attachment by extension first, falling back to
// the reported content type.
func Detect(name, contentType string) Category {
	n := strings.ToLower(name)
	t := strings.ToLower(contentType)
	switch {
	case strings.HasSuffix(n, ".csv") || strings.Contains(t, "csv"):
		return CategoryCSV
	case strings.HasSuffix(n, ".xls") || strings.HasSuffix(n, ".xlsx") ||
		strings.Contains(t, "sheet") || strings.Contains(t, "excel"):
		return CategorySpreadsheet
	case strings.HasSuffix(n, ".docx") || strings.Contains(t, "wordprocessingml"):
		return CategoryWord
	case strings.HasSuffix(n, ".doc") && !strings.Contains(t, "docx"):
		return CategoryLegacyWord
	case strings.HasPrefix(t, "image/") || t == "application/pdf" || strings.HasPrefix(t, "text/"):
		return CategoryInline
	default:
		return CategoryOther
	}
}

// GuessMIME maps well-known extensions to a content type. Unknown
// extensions yield the empty string.
func GuessMIME(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	case strings.HasSuffix(lower, ".txt"):
		return "text/plain"
	case strings.HasSuffix(lower, ".csv"):
		return "text/csv"
	case strings.HasSuffix(lower, ".xls"):
		return "application/vnd.ms-excel"
	case strings.HasSuffix(lower, ".xlsx"):
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case strings.HasSuffix(lower, ".doc"):
		return "application/msword"
	case strings.HasSuffix(lower, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return ""
	}
}
