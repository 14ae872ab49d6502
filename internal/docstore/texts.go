package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TextStore holds the plain text extracted from persisted attachments,
// keyed by object path. The registry reads it during hydration so
// content search also covers uploads from earlier sessions.
type TextStore interface {
	Upsert(ctx context.Context, objectKey, userID, nodeID, content string) error
	ListForNode(ctx context.Context, userID, nodeID string) (map[string]string, error)
}

// TextRepository implements TextStore on the attachment_texts table.
type TextRepository struct {
	pool *pgxpool.Pool
}

// NewTextRepository constructs a repository.
func NewTextRepository(pool *pgxpool.Pool) *TextRepository {
	return &TextRepository{pool: pool}
}

// Upsert stores or replaces the extracted text for one object.
func (r *TextRepository) Upsert(ctx context.Context, objectKey, userID, nodeID, content string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attachment_texts (object_key, user_id, node_id, content, updated_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (object_key) DO UPDATE SET content=EXCLUDED.content, updated_at=EXCLUDED.updated_at
	`, objectKey, userID, nodeID, content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert attachment text: %w", err)
	}
	return nil
}

// ListForNode returns object-name → extracted text for one file node.
// Keys are the base object names within the node's prefix.
func (r *TextRepository) ListForNode(ctx context.Context, userID, nodeID string) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT object_key, content FROM attachment_texts WHERE user_id=$1 AND node_id=$2
	`, userID, nodeID)
	if err != nil {
		return nil, fmt.Errorf("select attachment texts: %w", err)
	}
	defer rows.Close()
	prefix := fmt.Sprintf("%s/%s/", userID, nodeID)
	out := make(map[string]string)
	for rows.Next() {
		var key, content string
		if err := rows.Scan(&key, &content); err != nil {
			return nil, fmt.Errorf("scan attachment text: %w", err)
		}
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			key = key[len(prefix):]
		}
		out[key] = content
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachment texts: %w", err)
	}
	return out, nil
}
