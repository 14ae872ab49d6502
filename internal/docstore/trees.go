package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mlehmann/docshelf/internal/tree"
)

// TreeRow is the stored document for one user: the remembered row id
// plus the deserialized tree.
type TreeRow struct {
	ID   string
	Tree *tree.Node
}

// TreeStore is the remote document store contract: query-by-owner,
// insert, update-by-id-and-owner. Exactly one row exists per user.
type TreeStore interface {
	FetchByOwner(ctx context.Context, userID string) (*TreeRow, error)
	Insert(ctx context.Context, userID string, t *tree.Node) (string, error)
	Update(ctx context.Context, rowID, userID string, t *tree.Node) error
}

// TreeRepository implements TreeStore on the doc_trees table.
type TreeRepository struct {
	pool *pgxpool.Pool
}

// NewTreeRepository constructs a repository.
func NewTreeRepository(pool *pgxpool.Pool) *TreeRepository {
	return &TreeRepository{pool: pool}
}

// FetchByOwner returns the user's stored tree, or nil when the user
// has no document yet.
func (r *TreeRepository) FetchByOwner(ctx context.Context, userID string) (*TreeRow, error) {
	var (
		id  string
		raw []byte
	)
	row := r.pool.QueryRow(ctx, `
		SELECT id, tree FROM doc_trees WHERE user_id=$1 LIMIT 1
	`, userID)
	if err := row.Scan(&id, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select doc_trees: %w", err)
	}
	var t tree.Node
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode stored tree: %w", err)
	}
	return &TreeRow{ID: id, Tree: &t}, nil
}

// Insert creates the user's document row and returns its id.
func (r *TreeRepository) Insert(ctx context.Context, userID string, t *tree.Node) (string, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode tree: %w", err)
	}
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err = r.pool.Exec(ctx, `
		INSERT INTO doc_trees (id, user_id, tree, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
	`, id, userID, raw, now, now)
	if err != nil {
		return "", fmt.Errorf("insert doc_trees: %w", err)
	}
	return id, nil
}

// Update overwrites the stored tree, guarded by the owning user id.
func (r *TreeRepository) Update(ctx context.Context, rowID, userID string, t *tree.Node) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE doc_trees SET tree=$1, updated_at=$2 WHERE id=$3 AND user_id=$4
	`, raw, time.Now().UTC(), rowID, userID)
	if err != nil {
		return fmt.Errorf("update doc_trees: %w", err)
	}
	return nil
}
