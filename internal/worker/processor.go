// Package worker runs the background text extraction behind content
// search: it downloads a committed attachment, pulls best-effort plain
// text out of it and stores the result for later sessions to hydrate.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/hibiken/asynq"

	"github.com/mlehmann/docshelf/internal/docstore"
	"github.com/mlehmann/docshelf/internal/objectstore"
	"github.com/mlehmann/docshelf/internal/preview"
	"github.com/mlehmann/docshelf/internal/queue"
)

// Processor is plugged into the asynq worker loop.
type Processor struct {
	texts       docstore.TextStore
	store       objectstore.Store
	spreadsheet preview.SpreadsheetDecoder
	word        preview.WordDecoder
}

// NewProcessor constructs a worker processor. The decoders may be nil;
// their formats are then skipped.
func NewProcessor(texts docstore.TextStore, store objectstore.Store, spreadsheet preview.SpreadsheetDecoder, word preview.WordDecoder) *Processor {
	return &Processor{texts: texts, store: store, spreadsheet: spreadsheet, word: word}
}

// Handler registers the extract job handler.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.ExtractAttachmentTask, p.handleExtract)
	return mux
}

func (p *Processor) handleExtract(ctx context.Context, task *asynq.Task) error {
	var payload queue.ExtractPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	data, err := p.store.Download(ctx, payload.ObjectKey)
	if err != nil {
		return fmt.Errorf("download %s: %w", payload.ObjectKey, err)
	}
	text, err := p.extractText(payload.FileName, data)
	if err != nil {
		// corrupt content is final, retrying cannot fix it
		log.Printf("extract %s: %v", payload.ObjectKey, err)
		return nil
	}
	if text == "" {
		return nil
	}
	if err := p.texts.Upsert(ctx, payload.ObjectKey, payload.UserID, payload.NodeID, text); err != nil {
		return fmt.Errorf("store text for %s: %w", payload.ObjectKey, err)
	}
	log.Printf("attachment %s indexed (%d bytes)", payload.ObjectKey, len(text))
	return nil
}

func (p *Processor) extractText(fileName string, data []byte) (string, error) {
	mime := preview.GuessMIME(fileName)
	switch preview.Detect(fileName, mime) {
	case preview.CategoryCSV:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("csv %s is not valid text", fileName)
		}
		return string(data), nil
	case preview.CategorySpreadsheet:
		if p.spreadsheet == nil {
			return "", nil
		}
		_, plain, err := p.spreadsheet.FirstSheetHTML(data)
		return plain, err
	case preview.CategoryWord:
		if p.word == nil {
			return "", nil
		}
		html, err := p.word.HTML(data)
		if err != nil {
			return "", err
		}
		return preview.StripTags(html), nil
	case preview.CategoryInline:
		if mime == "application/pdf" {
			return preview.ExtractPDFText(data)
		}
		if strings.HasPrefix(mime, "text/") && utf8.Valid(data) {
			return string(data), nil
		}
		return "", nil
	default:
		return "", nil
	}
}
