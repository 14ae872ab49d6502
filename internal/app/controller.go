// Package app holds the application controller: the current tree,
// selection and search state, and the intent dispatchers the
// presentation layer calls into. Rendering itself is an external
// collaborator; every intent concludes with a re-render request
// through the configured callback.
package app

import (
	"context"
	"sync"

	"github.com/mlehmann/docshelf/internal/localcache"
	"github.com/mlehmann/docshelf/internal/persist"
	"github.com/mlehmann/docshelf/internal/tree"
	"github.com/mlehmann/docshelf/internal/uploads"
)

// Config wires a Controller.
type Config struct {
	Persist  *persist.Adapter
	Registry *uploads.Registry
	Cache    *localcache.Cache
	// OnRender is the re-render request; it must tolerate being
	// called from upload completion goroutines.
	OnRender func()
	// OnAlert surfaces the few failures that block a user action
	// outright ("no file selected", "upload failed").
	OnAlert func(title, message string)
}

// Controller dispatches user intents to the tree model, the
// persistence adapter and the upload registry.
type Controller struct {
	persist  *persist.Adapter
	registry *uploads.Registry
	cache    *localcache.Cache
	render   func()
	alert    func(title, message string)

	mu               sync.Mutex
	tree             *tree.Node
	selectedID       string
	selectedUploadID string
	searchQuery      string
}

// New creates a Controller seeded from the local cache.
func New(cfg Config) *Controller {
	if cfg.OnRender == nil {
		cfg.OnRender = func() {}
	}
	if cfg.OnAlert == nil {
		cfg.OnAlert = func(string, string) {}
	}
	c := &Controller{
		persist:  cfg.Persist,
		registry: cfg.Registry,
		cache:    cfg.Cache,
		render:   cfg.OnRender,
		alert:    cfg.OnAlert,
	}
	c.tree = cfg.Persist.LoadLocalOrDefault()
	c.selectedID = c.tree.ID
	return c
}

// RequestRender forwards a re-render request; upload completions are
// wired here.
func (c *Controller) RequestRender() {
	c.render()
}

// Login starts a session: the remote tree replaces the local one and
// the upload registry starts a fresh generation.
func (c *Controller) Login(ctx context.Context, userID string) {
	c.persist.SetUser(userID)
	c.registry.ResetSession()
	t := c.persist.LoadRemoteOrInitialize(ctx)
	c.mu.Lock()
	c.tree = t
	c.selectedID = t.ID
	c.selectedUploadID = ""
	c.searchQuery = ""
	c.mu.Unlock()
	c.render()
}

// Logout tears the session down; the tree stays usable locally.
func (c *Controller) Logout() {
	c.persist.ClearUser()
	c.registry.ResetSession()
	c.mu.Lock()
	c.selectedUploadID = ""
	c.mu.Unlock()
	c.render()
}

// Tree returns the current full tree.
func (c *Controller) Tree() *tree.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree
}

// VisibleTree returns the tree filtered by the current search query,
// with attachment content search delegated to the registry.
func (c *Controller) VisibleTree() *tree.Node {
	c.mu.Lock()
	t, q := c.tree, c.searchQuery
	c.mu.Unlock()
	return tree.Filter(t, q, c.registry.MatchesContent)
}

// Selected returns the currently selected node; selection falls back
// to the root when the previous selection no longer exists.
func (c *Controller) Selected() *tree.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedLocked()
}

func (c *Controller) selectedLocked() *tree.Node {
	if found, ok := tree.FindByID(c.tree, c.selectedID); ok {
		return found.Node
	}
	c.selectedID = c.tree.ID
	return c.tree
}

// SearchQuery returns the active query.
func (c *Controller) SearchQuery() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchQuery
}

// Breadcrumbs returns the path from the root to the selection.
func (c *Controller) Breadcrumbs() []*tree.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return tree.Path(c.tree, c.selectedLocked().ID)
}

// Select changes the selection and clears the upload selection.
func (c *Controller) Select(id string) {
	c.mu.Lock()
	c.selectedID = id
	c.selectedUploadID = ""
	c.selectedLocked()
	c.mu.Unlock()
	c.render()
}

// ToggleFolder flips a folder's expanded flag.
func (c *Controller) ToggleFolder(id string) {
	c.mutate(func(t *tree.Node) *tree.Node {
		return tree.Update(t, id, func(n *tree.Node) {
			if n.Kind == tree.KindFolder {
				n.Expanded = !n.Expanded
			}
		})
	})
}

// SetIcon assigns an icon glyph to a node.
func (c *Controller) SetIcon(id, icon string) {
	c.mutate(func(t *tree.Node) *tree.Node {
		return tree.Update(t, id, func(n *tree.Node) { n.Icon = icon })
	})
}

// Rename renames the selected node. An empty or whitespace-only name
// is silently rejected.
func (c *Controller) Rename(rawName string) {
	name, ok := tree.SanitizeName(rawName)
	if !ok {
		return
	}
	c.mu.Lock()
	id := c.selectedLocked().ID
	c.mu.Unlock()
	c.mutate(func(t *tree.Node) *tree.Node {
		return tree.Update(t, id, func(n *tree.Node) { n.Name = name })
	})
}

// SetNote replaces the selected node's note text.
func (c *Controller) SetNote(value string) {
	c.mu.Lock()
	id := c.selectedLocked().ID
	c.mu.Unlock()
	c.mutate(func(t *tree.Node) *tree.Node {
		return tree.Update(t, id, func(n *tree.Node) { n.Note = value })
	})
}

// AddFolder inserts a new folder as the first child of the selected
// folder. Silent no-op when the name is unusable or the selection is
// not a folder.
func (c *Controller) AddFolder(rawName string) {
	c.addChild(rawName, tree.NewFolder)
}

// AddFile inserts a new file reference as the first child of the
// selected folder.
func (c *Controller) AddFile(rawName string) {
	c.addChild(rawName, tree.NewFile)
}

// AddRootFolder inserts a new top-level folder.
func (c *Controller) AddRootFolder(rawName string) {
	name, ok := tree.SanitizeName(rawName)
	if !ok {
		return
	}
	c.mutate(func(t *tree.Node) *tree.Node {
		return tree.Insert(t, t.ID, tree.NewFolder(name))
	})
}

func (c *Controller) addChild(rawName string, build func(string) *tree.Node) {
	name, ok := tree.SanitizeName(rawName)
	if !ok {
		return
	}
	c.mu.Lock()
	selected := c.selectedLocked()
	if selected.Kind != tree.KindFolder {
		c.mu.Unlock()
		return
	}
	id := selected.ID
	c.mu.Unlock()
	c.mutate(func(t *tree.Node) *tree.Node {
		return tree.Insert(t, id, build(name))
	})
}

// Delete removes the selected node and its subtree. The root is
// protected; upload state for every file node in the removed subtree
// is purged. Confirmation is the presentation layer's job.
func (c *Controller) Delete() {
	c.mu.Lock()
	selected := c.selectedLocked()
	if selected.ID == c.tree.ID {
		c.mu.Unlock()
		return
	}
	var fileIDs []string
	tree.Walk(selected, func(n, _ *tree.Node) {
		if n.Kind == tree.KindFile {
			fileIDs = append(fileIDs, n.ID)
		}
	})
	id := selected.ID
	c.tree = tree.Remove(c.tree, id)
	c.selectedID = c.tree.ID
	c.selectedUploadID = ""
	t := c.tree
	c.mu.Unlock()

	for _, fid := range fileIDs {
		c.registry.PurgeNode(fid)
	}
	c.persist.Save(t)
	c.render()
}

// SetSearch updates the search query.
func (c *Controller) SetSearch(query string) {
	c.mu.Lock()
	c.searchQuery = query
	c.mu.Unlock()
	c.render()
}

// CollapseAll collapses every folder except the root.
func (c *Controller) CollapseAll() {
	c.mutate(func(t *tree.Node) *tree.Node {
		collapsed := tree.SetExpandedAll(t, false)
		collapsed.Expanded = true
		return collapsed
	})
}

// ExpandAll expands every folder.
func (c *Controller) ExpandAll() {
	c.mutate(func(t *tree.Node) *tree.Node {
		return tree.SetExpandedAll(t, true)
	})
}

// mutate applies a pure tree transformation, persists the result and
// requests a re-render.
func (c *Controller) mutate(apply func(*tree.Node) *tree.Node) {
	c.mu.Lock()
	c.tree = apply(c.tree)
	t := c.tree
	c.selectedLocked()
	c.mu.Unlock()
	c.persist.Save(t)
	c.render()
}
