package preview

// SpreadsheetDecoder converts workbook bytes (.xls/.xlsx) into an HTML
// rendering of the first sheet plus a best-effort plain-text dump for
// search indexing. The plain text may be empty when extraction fails;
// that is not an error.
type SpreadsheetDecoder interface {
	FirstSheetHTML(data []byte) (html string, plain string, err error)
}

// WordDecoder converts word-processor bytes (.docx) into HTML. Plain
// text for indexing is derived by the caller via StripTags.
type WordDecoder interface {
	HTML(data []byte) (string, error)
}
