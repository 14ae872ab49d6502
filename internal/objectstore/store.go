// Package objectstore abstracts the remote object store holding
// attachment bytes. Uploads live under a {userID}/{nodeID} prefix with
// a timestamp-prefixed server-side name; reads go through time-limited
// signed access handles.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrNotFound is returned when an object path does not exist.
var ErrNotFound = errors.New("object not found")

// PlaceholderObject is the marker some backends keep in otherwise
// empty prefixes; listings skip it.
const PlaceholderObject = ".emptyFolderPlaceholder"

// ObjectInfo describes one stored object within a listed prefix.
type ObjectInfo struct {
	Name      string
	Size      int64
	CreatedAt time.Time
}

// Store is the remote object store contract consumed by the upload
// registry and the extraction worker.
type Store interface {
	// List returns the objects directly under prefix, oldest first,
	// capped at limit.
	List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error)
	// Upload writes size bytes from r to path.
	Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	// Download fetches the full object bytes.
	Download(ctx context.Context, path string) ([]byte, error)
	// SignedURL issues a time-limited access handle for path.
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
}

// UploadPath builds the collision-avoiding object path for a new
// attachment: {userID}/{nodeID}/{unix-ms}-{originalName}.
func UploadPath(userID, nodeID, fileName string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%d-%s", userID, nodeID, now.UnixMilli(), fileName)
}

// Prefix builds the listing prefix for one file node.
func Prefix(userID, nodeID string) string {
	return fmt.Sprintf("%s/%s", userID, nodeID)
}
