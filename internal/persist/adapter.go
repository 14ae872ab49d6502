// Package persist keeps the local cache and the remote document store
// in sync. Local writes are synchronous; remote writes go through a
// debounced depth-1 queue where the newest tree replaces any pending
// payload. Remote failures are logged and degrade to local-only
// operation, never propagating past this boundary.
package persist

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mlehmann/docshelf/internal/docstore"
	"github.com/mlehmann/docshelf/internal/localcache"
	"github.com/mlehmann/docshelf/internal/tree"
)

// Adapter is the persistence boundary for the tree document. The
// session state (current user, remembered row id) lives here and is
// created at login and torn down at logout.
type Adapter struct {
	cache    *localcache.Cache
	store    docstore.TreeStore
	debounce time.Duration

	mu      sync.Mutex
	userID  string
	rowID   string
	timer   *time.Timer
	pending *tree.Node
}

// New constructs an Adapter. A nil store means local-only operation.
func New(cache *localcache.Cache, store docstore.TreeStore, debounce time.Duration) *Adapter {
	return &Adapter{cache: cache, store: store, debounce: debounce}
}

// SetUser starts a session for userID. The remembered row id is reset
// so the next remote load re-resolves it.
func (a *Adapter) SetUser(userID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userID = userID
	a.rowID = ""
}

// ClearUser tears the session down; remote writes stop until the next
// SetUser.
func (a *Adapter) ClearUser() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userID = ""
	a.rowID = ""
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
}

// UserID returns the current session's user id, or "" outside a
// session.
func (a *Adapter) UserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userID
}

// LoadLocalOrDefault reads the cached tree or the built-in default.
func (a *Adapter) LoadLocalOrDefault() *tree.Node {
	return a.cache.LoadOrDefault()
}

// SaveLocal writes only the local cache.
func (a *Adapter) SaveLocal(t *tree.Node) {
	a.cache.Save(t)
}

// LoadRemoteOrInitialize fetches the session user's remote tree; when
// no row exists yet it seeds one from the local cache (or the default)
// and remembers the new row id. Outside a session, or on any remote
// failure, it falls back to the local cache. The result is always
// mirrored back into the local cache.
func (a *Adapter) LoadRemoteOrInitialize(ctx context.Context) *tree.Node {
	a.mu.Lock()
	userID := a.userID
	a.mu.Unlock()

	if userID == "" || a.store == nil {
		t := a.cache.LoadOrDefault()
		a.cache.Save(t)
		return t
	}

	row, err := a.store.FetchByOwner(ctx, userID)
	if err != nil {
		log.Printf("load remote tree: %v", err)
		t := a.cache.LoadOrDefault()
		a.cache.Save(t)
		return t
	}
	if row != nil {
		a.mu.Lock()
		a.rowID = row.ID
		a.mu.Unlock()
		a.cache.Save(row.Tree)
		return row.Tree
	}

	t := a.cache.LoadOrDefault()
	id, err := a.store.Insert(ctx, userID, t)
	if err != nil {
		log.Printf("initialize remote tree: %v", err)
	} else {
		a.mu.Lock()
		a.rowID = id
		a.mu.Unlock()
	}
	a.cache.Save(t)
	return t
}

// Save updates the local cache synchronously and schedules a debounced
// remote write. Repeated calls within the window coalesce into one
// remote write carrying the most recent tree.
func (a *Adapter) Save(t *tree.Node) {
	a.cache.Save(t)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.userID == "" || a.store == nil {
		return
	}
	a.pending = t
	if a.timer == nil {
		a.timer = time.AfterFunc(a.debounce, a.flushPending)
	} else {
		a.timer.Reset(a.debounce)
	}
}

// Flush writes any pending tree immediately; used at shutdown.
func (a *Adapter) Flush(ctx context.Context) {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	t := a.pending
	a.pending = nil
	a.mu.Unlock()
	if t != nil {
		a.writeRemote(ctx, t)
	}
}

func (a *Adapter) flushPending() {
	a.mu.Lock()
	a.timer = nil
	t := a.pending
	a.pending = nil
	a.mu.Unlock()
	if t == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.writeRemote(ctx, t)
}

func (a *Adapter) writeRemote(ctx context.Context, t *tree.Node) {
	a.mu.Lock()
	userID := a.userID
	rowID := a.rowID
	a.mu.Unlock()
	if userID == "" || a.store == nil {
		return
	}

	if rowID == "" {
		id, err := a.store.Insert(ctx, userID, t)
		if err != nil {
			log.Printf("insert remote tree: %v", err)
			return
		}
		a.mu.Lock()
		// keep a row id resolved by a concurrent load
		if a.rowID == "" {
			a.rowID = id
		}
		a.mu.Unlock()
		return
	}
	if err := a.store.Update(ctx, rowID, userID, t); err != nil {
		log.Printf("update remote tree: %v", err)
	}
}
