package app

import (
	"github.com/mlehmann/docshelf/internal/localcache"
	"github.com/mlehmann/docshelf/internal/tree"
	"github.com/mlehmann/docshelf/internal/uploads"
)

// Uploads returns the attachment entries for the selected file node,
// triggering lazy hydration on first access. Nil when the selection is
// not a file.
func (c *Controller) Uploads() []*uploads.Entry {
	c.mu.Lock()
	selected := c.selectedLocked()
	c.mu.Unlock()
	if selected.Kind != tree.KindFile {
		return nil
	}
	return c.registry.ListForNode(c.persist.UserID(), selected.ID)
}

// Upload stores the given files against the selected file node. The
// intent is rejected with an alert when no file node is selected or
// no session user is set.
func (c *Controller) Upload(files []uploads.RawFile) {
	if len(files) == 0 {
		c.alert("Kein Dokument ausgewählt", "Bitte zuerst Dateien auswählen.")
		return
	}
	c.mu.Lock()
	selected := c.selectedLocked()
	c.mu.Unlock()
	if selected.Kind != tree.KindFile {
		c.alert("Kein Dokument ausgewählt", "Bitte zuerst eine Datei (Referenz) im Baum auswählen.")
		return
	}
	userID := c.persist.UserID()
	if userID == "" {
		c.alert("Nicht eingeloggt", "Bitte loggen Sie sich erneut ein, bevor Sie Dateien hochladen.")
		return
	}
	c.registry.Upload(userID, selected.ID, files)
	c.render()
}

// RemoveUpload hides one attachment entry from the selected node's
// session listing.
func (c *Controller) RemoveUpload(entryID string) {
	c.mu.Lock()
	selected := c.selectedLocked()
	if c.selectedUploadID == entryID {
		c.selectedUploadID = ""
	}
	c.mu.Unlock()
	c.registry.Remove(selected.ID, entryID)
}

// SelectUpload marks one attachment entry as selected.
func (c *Controller) SelectUpload(entryID string) {
	c.mu.Lock()
	c.selectedUploadID = entryID
	c.mu.Unlock()
	c.render()
}

// SelectedUploadID returns the selected attachment entry id, or "".
func (c *Controller) SelectedUploadID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedUploadID
}

// SetSortMode changes the selected node's attachment listing order.
func (c *Controller) SetSortMode(mode uploads.SortMode) {
	c.mu.Lock()
	selected := c.selectedLocked()
	c.mu.Unlock()
	c.registry.SetSortMode(selected.ID, mode)
}

// Theme returns the stored theme preference, defaulting to light.
func (c *Controller) Theme() string {
	if theme := c.cache.LoadTheme(); theme != "" {
		return theme
	}
	return localcache.ThemeLight
}

// SetTheme stores the theme preference.
func (c *Controller) SetTheme(theme string) {
	c.cache.SaveTheme(theme)
	c.render()
}

// ResetDemo clears the local cache, theme and session uploads and
// reloads the built-in default tree.
func (c *Controller) ResetDemo() {
	c.cache.Clear()
	c.registry.ResetSession()
	t := c.persist.LoadLocalOrDefault()
	c.mu.Lock()
	c.tree = t
	c.selectedID = t.ID
	c.selectedUploadID = ""
	c.searchQuery = ""
	c.mu.Unlock()
	c.persist.Save(t)
	c.render()
}
