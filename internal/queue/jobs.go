package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/mlehmann/docshelf/internal/uploads"
)

const (
	// ExtractAttachmentTask is scheduled after each attachment commit
	// so content search keeps working across sessions.
	ExtractAttachmentTask = "attachment:extract"
)

// ExtractPayload is serialized into the task so the worker knows which
// object to download and where its text belongs.
type ExtractPayload struct {
	UserID    string `json:"user_id"`
	NodeID    string `json:"node_id"`
	ObjectKey string `json:"object_key"`
	FileName  string `json:"file_name"`
}

// Client adapts an asynq client to the registry's Enqueuer contract.
type Client struct {
	client *asynq.Client
}

// NewClient wraps an asynq client.
func NewClient(client *asynq.Client) *Client {
	return &Client{client: client}
}

// EnqueueExtract enqueues a text extraction job for one attachment.
func (c *Client) EnqueueExtract(ctx context.Context, req uploads.ExtractRequest) error {
	payload := ExtractPayload{
		UserID:    req.UserID,
		NodeID:    req.NodeID,
		ObjectKey: req.ObjectKey,
		FileName:  req.FileName,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(ExtractAttachmentTask, data)
	if _, err := c.client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueue extract task: %w", err)
	}
	return nil
}
