package preview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name        string
		fileName    string
		contentType string
		want        Category
	}{
		{"csv by extension", "umsatz.CSV", "", CategoryCSV},
		{"csv by content type", "export.dat", "text/csv", CategoryCSV},
		{"xlsx", "mappe.xlsx", "", CategorySpreadsheet},
		{"xls", "alt.xls", "application/vnd.ms-excel", CategorySpreadsheet},
		{"sheet content type wins over unknown ext", "blob", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", CategorySpreadsheet},
		{"docx", "vertrag.docx", "", CategoryWord},
		{"docx content type", "blob", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", CategoryWord},
		{"legacy doc", "vertrag.doc", "application/msword", CategoryLegacyWord},
		{"pdf", "scan.pdf", "application/pdf", CategoryInline},
		{"image", "foto.jpg", "image/jpeg", CategoryInline},
		{"plain text", "notizen.txt", "text/plain", CategoryInline},
		{"zip", "archiv.zip", "application/zip", CategoryOther},
		{"no hints", "blob", "", CategoryOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Detect(tc.fileName, tc.contentType))
		})
	}
}

func TestGuessMIME(t *testing.T) {
	require.Equal(t, "application/pdf", GuessMIME("Scan.PDF"))
	require.Equal(t, "image/jpeg", GuessMIME("foto.jpeg"))
	require.Equal(t, "text/csv", GuessMIME("daten.csv"))
	require.Equal(t, "", GuessMIME("unbekannt.xyz"))
}

func TestCSVToHTML(t *testing.T) {
	html := CSVToHTML("Name;Betrag\r\nMiete,950\n\n")

	require.True(t, strings.HasPrefix(html, "<table"))
	require.Equal(t, 2, strings.Count(html, "<tr>"))
	require.Equal(t, 4, strings.Count(html, "<td"))
	require.Contains(t, html, ">Miete</td>")
	require.Contains(t, html, ">950</td>")
}

func TestCSVToHTMLEscapesCells(t *testing.T) {
	html := CSVToHTML("a;<script>&x")
	require.NotContains(t, html, "<script>")
	require.Contains(t, html, "&lt;script&gt;")
	require.Contains(t, html, "&amp;x")
}

func TestStripTags(t *testing.T) {
	plain := StripTags("<table><tr><td>Miete</td><td>950</td></tr></table>")
	require.Equal(t, "Miete 950", plain)
	require.Equal(t, "schon text", StripTags("schon   text"))
}
