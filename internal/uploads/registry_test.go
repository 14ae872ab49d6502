package uploads

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mlehmann/docshelf/internal/objectstore"
)

const (
	testUser = "user-1"
	testNode = "node-1"
)

// instrumentedStore wraps a real store with call counting and failure
// injection.
type instrumentedStore struct {
	objectstore.Store
	listCalls  atomic.Int32
	failSubstr string
	gate       chan struct{}
}

func (s *instrumentedStore) List(ctx context.Context, prefix string, limit int) ([]objectstore.ObjectInfo, error) {
	s.listCalls.Add(1)
	return s.Store.List(ctx, prefix, limit)
}

func (s *instrumentedStore) Upload(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	if s.gate != nil {
		<-s.gate
	}
	if s.failSubstr != "" && strings.Contains(path, s.failSubstr) {
		return errors.New("storage unavailable")
	}
	return s.Store.Upload(ctx, path, r, size, contentType)
}

type fakeTexts struct {
	mu     sync.Mutex
	byNode map[string]map[string]string
}

func (f *fakeTexts) Upsert(_ context.Context, objectKey, userID, nodeID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.byNode == nil {
		f.byNode = make(map[string]map[string]string)
	}
	if f.byNode[nodeID] == nil {
		f.byNode[nodeID] = make(map[string]string)
	}
	f.byNode[nodeID][objectKey] = content
	return nil
}

func (f *fakeTexts) ListForNode(_ context.Context, _, nodeID string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string)
	for k, v := range f.byNode[nodeID] {
		out[k] = v
	}
	return out, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type testEnv struct {
	reg     *Registry
	store   *instrumentedStore
	backend *objectstore.MemoryStore
	clock   *fakeClock
	changes atomic.Int64

	errMu sync.Mutex
	errs  []string
}

func newTestEnv(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()
	env := &testEnv{
		backend: objectstore.NewMemoryStore([]byte("test-secret")),
		clock:   &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
	}
	env.backend.SetClock(env.clock.Now)
	env.store = &instrumentedStore{Store: env.backend}

	cfg := Config{
		Store:    env.store,
		OnChange: func() { env.changes.Add(1) },
		OnError: func(fileName string, _ error) {
			env.errMu.Lock()
			env.errs = append(env.errs, fileName)
			env.errMu.Unlock()
		},
		Now: env.clock.Now,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	env.reg = NewRegistry(cfg)
	return env
}

// awaitHydrated triggers the node's hydration and waits for it so that
// later assertions see a settled baseline.
func (env *testEnv) awaitHydrated(t *testing.T, nodeID string) {
	t.Helper()
	before := env.changes.Load()
	env.reg.ListForNode(testUser, nodeID)
	require.Eventually(t, func() bool {
		return env.changes.Load() > before
	}, time.Second, 2*time.Millisecond)
}

func (env *testEnv) failedUploads() []string {
	env.errMu.Lock()
	defer env.errMu.Unlock()
	return append([]string(nil), env.errs...)
}

func entryByName(list []*Entry, name string) *Entry {
	for _, e := range list {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func TestUploadBatchSettlesOutOfOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	env.awaitHydrated(t, testNode)

	env.reg.Upload(testUser, testNode, []RawFile{
		{Name: "notizen.txt", ContentType: "text/plain", Data: []byte("Mietvertrag Januar")},
		{Name: "umsatz.csv", ContentType: "text/csv", Data: []byte("Posten;Betrag\nMiete;950")},
		{Name: "archiv.zip", ContentType: "application/zip", Data: []byte{0x50, 0x4b}},
	})

	var list []*Entry
	require.Eventually(t, func() bool {
		list = env.reg.ListForNode(testUser, testNode)
		if len(list) != 3 {
			return false
		}
		csv := entryByName(list, "umsatz.csv")
		txt := entryByName(list, "notizen.txt")
		return csv != nil && csv.Status == StatusPreviewReady &&
			txt != nil && txt.SearchText != ""
	}, time.Second, 2*time.Millisecond)

	csv := entryByName(list, "umsatz.csv")
	require.Equal(t, PreviewCSVHTML, csv.PreviewKind)
	require.Contains(t, csv.PreviewHTML, ">Miete</td>")
	require.Contains(t, csv.SearchText, "miete;950")

	txt := entryByName(list, "notizen.txt")
	require.Equal(t, StatusCommitted, txt.Status)
	require.Equal(t, "mietvertrag januar", txt.SearchText)
	require.True(t, strings.HasPrefix(txt.Handle, "memory://"))
	require.True(t, strings.HasPrefix(txt.ObjectKey, testUser+"/"+testNode+"/"))
	require.NotNil(t, txt.Size)
	require.Equal(t, int64(18), *txt.Size)

	zip := entryByName(list, "archiv.zip")
	require.Equal(t, StatusCommitted, zip.Status)
	require.Equal(t, PreviewNone, zip.PreviewKind)
	require.Empty(t, zip.SearchText)
}

func TestUploadFailureSparesSiblings(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.failSubstr = "kaputt"
	env.awaitHydrated(t, testNode)

	env.reg.Upload(testUser, testNode, []RawFile{
		{Name: "kaputt.txt", ContentType: "text/plain", Data: []byte("weg")},
		{Name: "heil.txt", ContentType: "text/plain", Data: []byte("da")},
	})

	require.Eventually(t, func() bool {
		return len(env.failedUploads()) == 1 && len(env.reg.ListForNode(testUser, testNode)) == 1
	}, time.Second, 2*time.Millisecond)
	require.Equal(t, []string{"kaputt.txt"}, env.failedUploads())
	require.Equal(t, "heil.txt", env.reg.ListForNode(testUser, testNode)[0].Name)
}

func TestCSVPreviewFailureKeepsEntryListed(t *testing.T) {
	env := newTestEnv(t, nil)
	env.awaitHydrated(t, testNode)

	env.reg.Upload(testUser, testNode, []RawFile{
		{Name: "gut.csv", ContentType: "text/csv", Data: []byte("a;b")},
		{Name: "defekt.csv", ContentType: "text/csv", Data: []byte{0xff, 0xfe, 0x00}},
	})

	var list []*Entry
	require.Eventually(t, func() bool {
		list = env.reg.ListForNode(testUser, testNode)
		if len(list) != 2 {
			return false
		}
		bad := entryByName(list, "defekt.csv")
		good := entryByName(list, "gut.csv")
		return bad != nil && bad.Status == StatusPreviewFailed &&
			good != nil && good.Status == StatusPreviewReady
	}, time.Second, 2*time.Millisecond)

	bad := entryByName(list, "defekt.csv")
	require.Equal(t, PreviewNone, bad.PreviewKind)
	require.Empty(t, bad.PreviewHTML)
	require.Empty(t, env.failedUploads())
}

func TestHydrationFromStore(t *testing.T) {
	texts := &fakeTexts{}
	env := newTestEnv(t, func(cfg *Config) { cfg.Texts = texts })

	ctx := context.Background()
	prefix := objectstore.Prefix(testUser, testNode)
	for _, name := range []string{"alt.pdf", "liste.csv", objectstore.PlaceholderObject} {
		require.NoError(t, env.backend.Upload(ctx, prefix+"/"+name, strings.NewReader("inhalt"), 6, ""))
	}
	require.NoError(t, texts.Upsert(ctx, "alt.pdf", testUser, testNode, "Kündigungsfrist DREI Monate"))

	var list []*Entry
	require.Eventually(t, func() bool {
		list = env.reg.ListForNode(testUser, testNode)
		return len(list) == 2
	}, time.Second, 2*time.Millisecond)

	pdf := entryByName(list, "alt.pdf")
	require.NotNil(t, pdf)
	require.Equal(t, StatusCommitted, pdf.Status)
	require.Equal(t, "application/pdf", pdf.MIMEType)
	require.Equal(t, "kündigungsfrist drei monate", pdf.SearchText)
	require.True(t, strings.HasPrefix(pdf.Handle, "memory://"))
	require.Nil(t, entryByName(list, objectstore.PlaceholderObject))
	require.True(t, env.reg.MatchesContent(testNode, "kündigungsfrist"))
}

func TestHydrationRunsOnce(t *testing.T) {
	env := newTestEnv(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env.reg.ListForNode(testUser, testNode)
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		env.reg.ListForNode(testUser, testNode)
		return env.store.listCalls.Load() == 1
	}, time.Second, 5*time.Millisecond)
	// settled: further listings stay in memory
	env.reg.ListForNode(testUser, testNode)
	require.Equal(t, int32(1), env.store.listCalls.Load())
}

func TestResetSessionDropsLateCompletions(t *testing.T) {
	env := newTestEnv(t, nil)
	env.awaitHydrated(t, testNode)

	gate := make(chan struct{})
	env.store.gate = gate
	env.reg.Upload(testUser, testNode, []RawFile{
		{Name: "spaet.txt", ContentType: "text/plain", Data: []byte("alte sitzung")},
	})

	env.reg.ResetSession()
	close(gate)

	time.Sleep(50 * time.Millisecond)
	env.reg.mu.Lock()
	stale := len(env.reg.entries[testNode])
	env.reg.mu.Unlock()
	require.Zero(t, stale)
}

func TestRemoveIsSessionLocal(t *testing.T) {
	env := newTestEnv(t, nil)
	env.awaitHydrated(t, testNode)

	env.reg.Upload(testUser, testNode, []RawFile{
		{Name: "bleibt-remote.txt", ContentType: "text/plain", Data: []byte("x")},
	})
	var list []*Entry
	require.Eventually(t, func() bool {
		list = env.reg.ListForNode(testUser, testNode)
		return len(list) == 1
	}, time.Second, 2*time.Millisecond)

	env.reg.Remove(testNode, list[0].ID)
	require.Empty(t, env.reg.ListForNode(testUser, testNode))

	// the stored object is untouched
	data, err := env.backend.Download(context.Background(), list[0].ObjectKey)
	require.NoError(t, err)
	require.Equal(t, []byte("x"), data)
}

func TestPurgeNodeForgetsEverything(t *testing.T) {
	env := newTestEnv(t, nil)
	env.awaitHydrated(t, testNode)

	env.reg.Upload(testUser, testNode, []RawFile{
		{Name: "weg.txt", ContentType: "text/plain", Data: []byte("Mietvertrag")},
	})
	require.Eventually(t, func() bool {
		return env.reg.MatchesContent(testNode, "mietvertrag")
	}, time.Second, 2*time.Millisecond)

	env.reg.PurgeNode(testNode)
	require.False(t, env.reg.MatchesContent(testNode, "mietvertrag"))
}

func TestSortModes(t *testing.T) {
	env := newTestEnv(t, nil)

	ctx := context.Background()
	prefix := objectstore.Prefix(testUser, testNode)
	// upload order fixes the creation timestamps (fake clock ticks per call)
	for _, name := range []string{"älter.txt", "beta.txt", "alpha.txt"} {
		require.NoError(t, env.backend.Upload(ctx, prefix+"/"+name, strings.NewReader("x"), 1, ""))
	}

	names := func() []string {
		list := env.reg.ListForNode(testUser, testNode)
		out := make([]string, len(list))
		for i, e := range list {
			out[i] = e.Name
		}
		return out
	}

	require.Eventually(t, func() bool {
		return len(names()) == 3
	}, time.Second, 2*time.Millisecond)

	require.Equal(t, SortNewestFirst, env.reg.SortModeFor(testNode))
	require.Equal(t, []string{"alpha.txt", "beta.txt", "älter.txt"}, names())

	env.reg.SetSortMode(testNode, SortOldestFirst)
	require.Equal(t, []string{"älter.txt", "beta.txt", "alpha.txt"}, names())

	env.reg.SetSortMode(testNode, SortNameAsc)
	require.Equal(t, []string{"alpha.txt", "älter.txt", "beta.txt"}, names())

	env.reg.SetSortMode(testNode, SortNameDesc)
	require.Equal(t, []string{"beta.txt", "älter.txt", "alpha.txt"}, names())
	require.Equal(t, SortNameDesc, env.reg.SortModeFor(testNode))
}

func TestWordDecoderFailureMarksPreviewFailed(t *testing.T) {
	env := newTestEnv(t, func(cfg *Config) {
		cfg.Word = failingWordDecoder{}
	})
	env.awaitHydrated(t, testNode)

	env.reg.Upload(testUser, testNode, []RawFile{
		{Name: "vertrag.docx", Data: []byte("zzz")},
	})

	require.Eventually(t, func() bool {
		list := env.reg.ListForNode(testUser, testNode)
		return len(list) == 1 && list[0].Status == StatusPreviewFailed
	}, time.Second, 2*time.Millisecond)
}

type failingWordDecoder struct{}

func (failingWordDecoder) HTML([]byte) (string, error) {
	return "", errors.New("not a zip archive")
}

func TestFormatSize(t *testing.T) {
	n := func(v int64) *int64 { return &v }
	require.Equal(t, "", FormatSize(nil))
	require.Equal(t, "512 B", FormatSize(n(512)))
	require.Equal(t, "1.5 KB", FormatSize(n(1536)))
	require.Equal(t, "2.0 MB", FormatSize(n(2*1024*1024)))
	require.Equal(t, "3.0 GB", FormatSize(n(3*1024*1024*1024)))
}
