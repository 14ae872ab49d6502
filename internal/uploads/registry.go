package uploads

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mlehmann/docshelf/internal/docstore"
	"github.com/mlehmann/docshelf/internal/objectstore"
	"github.com/mlehmann/docshelf/internal/preview"
)

// ExtractRequest asks the background worker to index one stored
// object for content search.
type ExtractRequest struct {
	UserID    string
	NodeID    string
	ObjectKey string
	FileName  string
}

// Enqueuer hands extract requests to the task queue. A nil Enqueuer
// disables background indexing.
type Enqueuer interface {
	EnqueueExtract(ctx context.Context, req ExtractRequest) error
}

// Config wires a Registry. Store is required; everything else is
// optional and degrades gracefully when absent.
type Config struct {
	Store       objectstore.Store
	Texts       docstore.TextStore
	Tasks       Enqueuer
	Spreadsheet preview.SpreadsheetDecoder
	Word        preview.WordDecoder
	SignedTTL   time.Duration
	ListLimit   int
	OnChange    func()
	OnError     func(fileName string, err error)
	Now         func() time.Time
}

// Registry tracks the per-node attachment lists for one session. All
// state changes funnel through the apply reducer; asynchronous
// completions (hydration, uploads, previews) arrive as discriminated
// events and are dropped when they belong to a torn-down session
// generation.
type Registry struct {
	store       objectstore.Store
	texts       docstore.TextStore
	tasks       Enqueuer
	spreadsheet preview.SpreadsheetDecoder
	word        preview.WordDecoder
	signedTTL   time.Duration
	listLimit   int
	onChange    func()
	onError     func(fileName string, err error)
	now         func() time.Time
	collator    *collate.Collator

	mu         sync.Mutex
	generation int
	entries    map[string][]*Entry
	hydrating  map[string]bool
	hydrated   map[string]bool
	sortModes  map[string]SortMode
}

// NewRegistry constructs a Registry.
func NewRegistry(cfg Config) *Registry {
	if cfg.SignedTTL <= 0 {
		cfg.SignedTTL = time.Hour
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 100
	}
	if cfg.OnChange == nil {
		cfg.OnChange = func() {}
	}
	if cfg.OnError == nil {
		cfg.OnError = func(string, error) {}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Registry{
		store:       cfg.Store,
		texts:       cfg.Texts,
		tasks:       cfg.Tasks,
		spreadsheet: cfg.Spreadsheet,
		word:        cfg.Word,
		signedTTL:   cfg.SignedTTL,
		listLimit:   cfg.ListLimit,
		onChange:    cfg.OnChange,
		onError:     cfg.OnError,
		now:         cfg.Now,
		collator:    collate.New(language.German, collate.IgnoreCase),
		entries:     make(map[string][]*Entry),
		hydrating:   make(map[string]bool),
		hydrated:    make(map[string]bool),
		sortModes:   make(map[string]SortMode),
	}
}

type eventKind int

const (
	evHydrated eventKind = iota
	evCommitted
	evPreviewReady
	evPreviewFailed
	evTextIndexed
	evUploadFailed
)

// event is the discriminated result of one asynchronous task.
type event struct {
	kind        eventKind
	gen         int
	nodeID      string
	entry       *Entry
	entryID     string
	previewKind PreviewKind
	previewHTML string
	searchText  string
	fileName    string
	err         error
	list        []*Entry
}

// apply is the single reducer for all asynchronous completions.
func (r *Registry) apply(ev event) {
	r.mu.Lock()
	if ev.gen != r.generation {
		// completion for a torn-down session
		r.mu.Unlock()
		return
	}
	switch ev.kind {
	case evHydrated:
		r.entries[ev.nodeID] = ev.list
		delete(r.hydrating, ev.nodeID)
		r.hydrated[ev.nodeID] = true
	case evCommitted:
		r.entries[ev.nodeID] = append(r.entries[ev.nodeID], ev.entry)
		r.hydrated[ev.nodeID] = true
	case evPreviewReady:
		if e := r.findLocked(ev.nodeID, ev.entryID); e != nil {
			e.Status = StatusPreviewReady
			e.PreviewKind = ev.previewKind
			e.PreviewHTML = ev.previewHTML
			e.SearchText = ev.searchText
		}
	case evPreviewFailed:
		log.Printf("preview for %s failed: %v", ev.fileName, ev.err)
		if e := r.findLocked(ev.nodeID, ev.entryID); e != nil {
			e.Status = StatusPreviewFailed
			e.PreviewKind = PreviewNone
		}
	case evTextIndexed:
		if e := r.findLocked(ev.nodeID, ev.entryID); e != nil {
			e.SearchText = ev.searchText
		}
	case evUploadFailed:
		log.Printf("upload of %s failed: %v", ev.fileName, ev.err)
		r.mu.Unlock()
		r.onError(ev.fileName, ev.err)
		return
	}
	r.mu.Unlock()
	r.onChange()
}

func (r *Registry) findLocked(nodeID, entryID string) *Entry {
	for _, e := range r.entries[nodeID] {
		if e.ID == entryID {
			return e
		}
	}
	return nil
}

// ListForNode returns the node's entries in the node's sort order.
// The first access per node id triggers one background hydration from
// the object store; concurrent accesses never duplicate the fetch.
func (r *Registry) ListForNode(userID, nodeID string) []*Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hydrated[nodeID] && !r.hydrating[nodeID] {
		r.hydrating[nodeID] = true
		if r.entries[nodeID] == nil {
			r.entries[nodeID] = []*Entry{}
		}
		go r.hydrate(r.generation, userID, nodeID)
	}
	r.sortLocked(nodeID)
	// snapshot copies; the reducer mutates the stored entries
	out := make([]*Entry, len(r.entries[nodeID]))
	for i, e := range r.entries[nodeID] {
		copied := *e
		out[i] = &copied
	}
	return out
}

func (r *Registry) hydrate(gen int, userID, nodeID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	prefix := objectstore.Prefix(userID, nodeID)
	objs, err := r.store.List(ctx, prefix, r.listLimit)
	if err != nil {
		log.Printf("list uploads for node %s: %v", nodeID, err)
		r.apply(event{kind: evHydrated, gen: gen, nodeID: nodeID, list: []*Entry{}})
		return
	}

	var texts map[string]string
	if r.texts != nil && userID != "" {
		texts, err = r.texts.ListForNode(ctx, userID, nodeID)
		if err != nil {
			log.Printf("load attachment texts for node %s: %v", nodeID, err)
		}
	}

	list := make([]*Entry, 0, len(objs))
	for _, obj := range objs {
		if obj.Name == objectstore.PlaceholderObject {
			continue
		}
		path := prefix + "/" + obj.Name
		handle, err := r.store.SignedURL(ctx, path, r.signedTTL)
		if err != nil {
			log.Printf("sign url for %s: %v", path, err)
			continue
		}
		size := obj.Size
		createdAt := obj.CreatedAt
		if createdAt.IsZero() {
			createdAt = r.now()
		}
		entry := &Entry{
			ID:        newEntryID(),
			Name:      obj.Name,
			Size:      &size,
			MIMEType:  preview.GuessMIME(obj.Name),
			Handle:    handle,
			ObjectKey: path,
			Status:    StatusCommitted,
			CreatedAt: createdAt,
		}
		if txt, ok := texts[obj.Name]; ok {
			entry.SearchText = strings.ToLower(txt)
		}
		list = append(list, entry)
	}
	r.apply(event{kind: evHydrated, gen: gen, nodeID: nodeID, list: list})
}

// Remove hides an entry from the node's in-memory listing. The remote
// object is deliberately left in place, so the entry reappears when a
// later session hydrates this node again.
func (r *Registry) Remove(nodeID, entryID string) {
	r.mu.Lock()
	list := r.entries[nodeID]
	kept := list[:0]
	for _, e := range list {
		if e.ID != entryID {
			kept = append(kept, e)
		}
	}
	r.entries[nodeID] = kept
	r.mu.Unlock()
	r.onChange()
}

// SetSortMode changes the node's listing order.
func (r *Registry) SetSortMode(nodeID string, mode SortMode) {
	r.mu.Lock()
	r.sortModes[nodeID] = mode
	r.mu.Unlock()
	r.onChange()
}

// SortModeFor returns the node's current sort mode.
func (r *Registry) SortModeFor(nodeID string) SortMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mode, ok := r.sortModes[nodeID]; ok {
		return mode
	}
	return SortNewestFirst
}

func (r *Registry) sortLocked(nodeID string) {
	list := r.entries[nodeID]
	if len(list) < 2 {
		return
	}
	mode := r.sortModes[nodeID]
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		switch mode {
		case SortNameAsc:
			return r.collator.CompareString(a.Name, b.Name) < 0
		case SortNameDesc:
			return r.collator.CompareString(b.Name, a.Name) < 0
		case SortOldestFirst:
			return a.CreatedAt.Before(b.CreatedAt)
		default: // SortNewestFirst
			return b.CreatedAt.Before(a.CreatedAt)
		}
	})
}

// MatchesContent reports whether any entry of the node contains the
// lowercased query in its extracted text. This is the upload matcher
// handed to the tree filter.
func (r *Registry) MatchesContent(nodeID, query string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries[nodeID] {
		if e.SearchText != "" && strings.Contains(e.SearchText, query) {
			return true
		}
	}
	return false
}

// PurgeNode drops all in-memory state for a removed file node.
func (r *Registry) PurgeNode(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, nodeID)
	delete(r.hydrated, nodeID)
	delete(r.hydrating, nodeID)
	delete(r.sortModes, nodeID)
}

// ResetSession clears all entries and bumps the generation so late
// completions from the previous session are ignored.
func (r *Registry) ResetSession() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.entries = make(map[string][]*Entry)
	r.hydrating = make(map[string]bool)
	r.hydrated = make(map[string]bool)
	r.sortModes = make(map[string]SortMode)
}
