// Package localcache is the best-effort local copy of the tree
// document plus the independent theme preference. Failures are logged
// and degrade to defaults; nothing here returns an error to callers.
package localcache

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"

	"github.com/mlehmann/docshelf/internal/tree"
)

// File names inside the cache directory. The tree and the theme are
// independent keys.
const (
	treeFile  = "doc-structure-v1.json"
	themeFile = "theme"
)

// Theme preference values.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Cache reads and writes the local copies under one directory.
type Cache struct {
	dir string
}

// New creates a Cache rooted at dir.
func New(dir string) *Cache {
	return &Cache{dir: dir}
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// LoadOrDefault reads the cached tree, falling back to the built-in
// default when the cache is missing, unreadable or corrupted.
func (c *Cache) LoadOrDefault() *tree.Node {
	raw, err := os.ReadFile(filepath.Join(c.dir, treeFile))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("read local tree cache: %v", err)
		}
		return tree.Default()
	}
	var t tree.Node
	if err := json.Unmarshal(raw, &t); err != nil {
		log.Printf("decode local tree cache: %v", err)
		return tree.Default()
	}
	return &t
}

// Save writes the tree to the local cache. Failure is logged, not
// surfaced.
func (c *Cache) Save(t *tree.Node) {
	raw, err := json.Marshal(t)
	if err != nil {
		log.Printf("encode tree for local cache: %v", err)
		return
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		log.Printf("create cache dir: %v", err)
		return
	}
	if err := os.WriteFile(filepath.Join(c.dir, treeFile), raw, 0o644); err != nil {
		log.Printf("write local tree cache: %v", err)
	}
}

// LoadTheme returns the stored theme preference, or the empty string
// when none is set.
func (c *Cache) LoadTheme() string {
	raw, err := os.ReadFile(filepath.Join(c.dir, themeFile))
	if err != nil {
		return ""
	}
	return string(raw)
}

// SaveTheme stores the theme preference.
func (c *Cache) SaveTheme(theme string) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		log.Printf("create cache dir: %v", err)
		return
	}
	if err := os.WriteFile(filepath.Join(c.dir, themeFile), []byte(theme), 0o644); err != nil {
		log.Printf("write theme: %v", err)
	}
}

// Clear removes both cached keys; used by the reset-demo intent.
func (c *Cache) Clear() {
	for _, name := range []string{treeFile, themeFile} {
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !os.IsNotExist(err) {
			log.Printf("clear cache %s: %v", name, err)
		}
	}
}
