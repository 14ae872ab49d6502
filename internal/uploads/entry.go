// Package uploads is the session-scoped registry of attachment
// metadata and preview state per file node. Entries hydrate lazily
// from the object store, multi-file uploads run as independent
// per-file tasks whose completions arrive out of order, and a single
// reducer folds every completion into the registry state.
package uploads

import (
	"fmt"
	"time"
)

// Status describes an entry's lifecycle: uploading -> committed, then
// depending on detected type previewing -> previewReady|previewFailed.
// Entries are listed as soon as they are committed; preview fields
// fill in asynchronously.
type Status string

const (
	StatusUploading     Status = "uploading"
	StatusCommitted     Status = "committed"
	StatusPreviewing    Status = "previewing"
	StatusPreviewReady  Status = "previewReady"
	StatusPreviewFailed Status = "previewFailed"
)

// PreviewKind names the pre-rendered markup stored on an entry.
type PreviewKind string

const (
	PreviewNone            PreviewKind = ""
	PreviewCSVHTML         PreviewKind = "csv-html"
	PreviewSpreadsheetHTML PreviewKind = "spreadsheet-html"
	PreviewWordHTML        PreviewKind = "word-html"
)

// SortMode orders a node's entry list.
type SortMode string

const (
	SortNewestFirst SortMode = "createdDesc" // default
	SortOldestFirst SortMode = "createdAsc"
	SortNameAsc     SortMode = "nameAsc"
	SortNameDesc    SortMode = "nameDesc"
)

// Entry holds the metadata for one uploaded attachment. Size is nil
// when the backend reported no size metadata. Handle is the
// time-limited signed URL; it stays empty when derivation failed, in
// which case the entry is still listed without a direct-open link.
type Entry struct {
	ID          string
	Name        string
	Size        *int64
	MIMEType    string
	Handle      string
	ObjectKey   string
	Status      Status
	PreviewKind PreviewKind
	PreviewHTML string
	SearchText  string
	CreatedAt   time.Time
}

// RawFile is one user-selected file handed to Upload.
type RawFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// FormatSize renders a byte count the way listings display it.
func FormatSize(size *int64) string {
	if size == nil {
		return ""
	}
	b := *size
	if b < 1024 {
		return fmt.Sprintf("%d B", b)
	}
	kb := float64(b) / 1024
	if kb < 1024 {
		return fmt.Sprintf("%.1f KB", kb)
	}
	mb := kb / 1024
	if mb < 1024 {
		return fmt.Sprintf("%.1f MB", mb)
	}
	return fmt.Sprintf("%.1f GB", mb/1024)
}
