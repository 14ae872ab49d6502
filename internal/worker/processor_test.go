package worker

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/mlehmann/docshelf/internal/objectstore"
	"github.com/mlehmann/docshelf/internal/queue"
)

type memTexts struct {
	mu      sync.Mutex
	upserts map[string]string
}

func (m *memTexts) Upsert(_ context.Context, objectKey, _, _ string, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upserts == nil {
		m.upserts = make(map[string]string)
	}
	m.upserts[objectKey] = content
	return nil
}

func (m *memTexts) ListForNode(context.Context, string, string) (map[string]string, error) {
	return nil, nil
}

func extractTask(t *testing.T, payload queue.ExtractPayload) *asynq.Task {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(queue.ExtractAttachmentTask, raw)
}

func TestHandleExtractStoresText(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewMemoryStore([]byte("test-secret"))
	require.NoError(t, store.Upload(ctx, "user-1/node-1/1-notizen.txt",
		strings.NewReader("Mietvertrag verlängert"), 23, "text/plain"))

	texts := &memTexts{}
	p := NewProcessor(texts, store, nil, nil)

	err := p.handleExtract(ctx, extractTask(t, queue.ExtractPayload{
		UserID:    "user-1",
		NodeID:    "node-1",
		ObjectKey: "user-1/node-1/1-notizen.txt",
		FileName:  "notizen.txt",
	}))
	require.NoError(t, err)
	require.Equal(t, "Mietvertrag verlängert", texts.upserts["user-1/node-1/1-notizen.txt"])
}

func TestHandleExtractCorruptContentIsFinal(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewMemoryStore([]byte("test-secret"))
	require.NoError(t, store.Upload(ctx, "user-1/node-1/1-defekt.csv",
		strings.NewReader(string([]byte{0xff, 0xfe})), 2, "text/csv"))

	texts := &memTexts{}
	p := NewProcessor(texts, store, nil, nil)

	// corrupt bytes must not surface as a retryable error
	err := p.handleExtract(ctx, extractTask(t, queue.ExtractPayload{
		UserID:    "user-1",
		NodeID:    "node-1",
		ObjectKey: "user-1/node-1/1-defekt.csv",
		FileName:  "defekt.csv",
	}))
	require.NoError(t, err)
	require.Empty(t, texts.upserts)
}

func TestHandleExtractMissingObjectRetries(t *testing.T) {
	p := NewProcessor(&memTexts{}, objectstore.NewMemoryStore([]byte("test-secret")), nil, nil)
	err := p.handleExtract(context.Background(), extractTask(t, queue.ExtractPayload{
		ObjectKey: "user-1/node-1/missing.txt",
		FileName:  "missing.txt",
	}))
	require.Error(t, err)
}

func TestHandleExtractSkipsFormatsWithoutDecoder(t *testing.T) {
	ctx := context.Background()
	store := objectstore.NewMemoryStore([]byte("test-secret"))
	require.NoError(t, store.Upload(ctx, "user-1/node-1/1-mappe.xlsx",
		strings.NewReader("binary"), 6, ""))

	texts := &memTexts{}
	p := NewProcessor(texts, store, nil, nil)

	err := p.handleExtract(ctx, extractTask(t, queue.ExtractPayload{
		ObjectKey: "user-1/node-1/1-mappe.xlsx",
		FileName:  "mappe.xlsx",
	}))
	require.NoError(t, err)
	require.Empty(t, texts.upserts)
}
