package uploads

import (
	"bytes"
	"context"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mlehmann/docshelf/internal/objectstore"
	"github.com/mlehmann/docshelf/internal/preview"
)

func newEntryID() string {
	return uuid.NewString()
}

// Upload stores each selected file under the user/node prefix and
// registers it. Every file runs as its own task: commits and preview
// completions arrive independently and out of order, and one file's
// failure never aborts its siblings.
func (r *Registry) Upload(userID, nodeID string, files []RawFile) {
	r.mu.Lock()
	gen := r.generation
	if r.entries[nodeID] == nil {
		r.entries[nodeID] = []*Entry{}
	}
	r.mu.Unlock()

	for _, f := range files {
		go r.uploadOne(gen, userID, nodeID, f)
	}
}

func (r *Registry) uploadOne(gen int, userID, nodeID string, f RawFile) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	mime := f.ContentType
	if mime == "" {
		mime = preview.GuessMIME(f.Name)
	}
	path := objectstore.UploadPath(userID, nodeID, f.Name, r.now())

	if err := r.store.Upload(ctx, path, bytes.NewReader(f.Data), int64(len(f.Data)), mime); err != nil {
		r.apply(event{kind: evUploadFailed, gen: gen, nodeID: nodeID, fileName: f.Name, err: err})
		return
	}

	handle, err := r.store.SignedURL(ctx, path, r.signedTTL)
	if err != nil {
		// entry stays listed without a direct-open link
		log.Printf("sign url for %s: %v", path, err)
		handle = ""
	}

	category := preview.Detect(f.Name, mime)
	size := int64(len(f.Data))
	entry := &Entry{
		ID:        newEntryID(),
		Name:      f.Name,
		Size:      &size,
		MIMEType:  mime,
		Handle:    handle,
		ObjectKey: path,
		Status:    StatusCommitted,
		CreatedAt: r.now(),
	}
	if r.hasDecodeStage(category) {
		entry.Status = StatusPreviewing
	}
	r.apply(event{kind: evCommitted, gen: gen, nodeID: nodeID, entry: entry})

	r.enqueueExtract(ctx, userID, nodeID, path, f.Name, category)
	r.generatePreview(gen, nodeID, entry.ID, category, f)
}

func (r *Registry) hasDecodeStage(category preview.Category) bool {
	switch category {
	case preview.CategoryCSV:
		return true
	case preview.CategorySpreadsheet:
		return r.spreadsheet != nil
	case preview.CategoryWord:
		return r.word != nil
	default:
		return false
	}
}

// generatePreview runs the type-dependent decode for one committed
// entry and resolves it into a preview-ready or preview-failed event.
// Inline types only contribute searchable text; legacy word documents
// and unknown types stay preview-less.
func (r *Registry) generatePreview(gen int, nodeID, entryID string, category preview.Category, f RawFile) {
	switch category {
	case preview.CategoryCSV:
		if !utf8.Valid(f.Data) {
			r.apply(event{kind: evPreviewFailed, gen: gen, nodeID: nodeID, entryID: entryID,
				fileName: f.Name, err: errInvalidText})
			return
		}
		text := string(f.Data)
		r.apply(event{
			kind: evPreviewReady, gen: gen, nodeID: nodeID, entryID: entryID,
			previewKind: PreviewCSVHTML,
			previewHTML: preview.CSVToHTML(text),
			searchText:  strings.ToLower(text),
		})

	case preview.CategorySpreadsheet:
		if r.spreadsheet == nil {
			return
		}
		html, plain, err := r.spreadsheet.FirstSheetHTML(f.Data)
		if err != nil {
			r.apply(event{kind: evPreviewFailed, gen: gen, nodeID: nodeID, entryID: entryID,
				fileName: f.Name, err: err})
			return
		}
		r.apply(event{
			kind: evPreviewReady, gen: gen, nodeID: nodeID, entryID: entryID,
			previewKind: PreviewSpreadsheetHTML,
			previewHTML: html,
			searchText:  strings.ToLower(plain),
		})

	case preview.CategoryWord:
		if r.word == nil {
			return
		}
		html, err := r.word.HTML(f.Data)
		if err != nil {
			r.apply(event{kind: evPreviewFailed, gen: gen, nodeID: nodeID, entryID: entryID,
				fileName: f.Name, err: err})
			return
		}
		r.apply(event{
			kind: evPreviewReady, gen: gen, nodeID: nodeID, entryID: entryID,
			previewKind: PreviewWordHTML,
			previewHTML: html,
			searchText:  strings.ToLower(preview.StripTags(html)),
		})

	case preview.CategoryInline:
		mime := strings.ToLower(f.ContentType)
		if mime == "" {
			mime = strings.ToLower(preview.GuessMIME(f.Name))
		}
		switch {
		case mime == "application/pdf":
			text, err := preview.ExtractPDFText(f.Data)
			if err != nil {
				log.Printf("extract pdf text from %s: %v", f.Name, err)
				return
			}
			r.apply(event{kind: evTextIndexed, gen: gen, nodeID: nodeID, entryID: entryID,
				searchText: strings.ToLower(text)})
		case strings.HasPrefix(mime, "text/") && utf8.Valid(f.Data):
			r.apply(event{kind: evTextIndexed, gen: gen, nodeID: nodeID, entryID: entryID,
				searchText: strings.ToLower(string(f.Data))})
		}
	}
}

func (r *Registry) enqueueExtract(ctx context.Context, userID, nodeID, path, fileName string, category preview.Category) {
	if r.tasks == nil {
		return
	}
	switch category {
	case preview.CategoryCSV, preview.CategorySpreadsheet, preview.CategoryWord, preview.CategoryInline:
	default:
		return
	}
	req := ExtractRequest{UserID: userID, NodeID: nodeID, ObjectKey: path, FileName: fileName}
	if err := r.tasks.EnqueueExtract(ctx, req); err != nil {
		log.Printf("enqueue extract for %s: %v", path, err)
	}
}
