package gaps

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/pdiddy/research-advisor/internal/gapstore"
	"github.com/pdiddy/research-advisor/pkg/types"
)

// --- fixtures shared by the maintenance task tests ---

func testGapStore(t *testing.T) *gapstore.Store {
	t.Helper()
	store, err := gapstore.Open(filepath.Join(t.TempDir(), "gaps.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seedGap(t *testing.T, store *gapstore.Store, slug, title, description string) types.GapEntry {
	t.Helper()
	entry := types.GapEntry{
		Title:       title,
		Description: description,
		SourceURL:   "https://wikenigma.org.uk/content/" + slug,
	}
	if err := store.Upsert(context.Background(), &entry); err != nil {
		t.Fatalf("seeding %s: %v", slug, err)
	}
	return entry
}

func findBySourceURL(t *testing.T, store *gapstore.Store, url string) types.GapEntry {
	t.Helper()
	entries, err := store.All(context.Background())
	if err != nil {
		t.Fatalf("listing entries: %v", err)
	}
	for _, e := range entries {
		if e.SourceURL == url {
			return e
		}
	}
	t.Fatalf("no entry with source URL %s", url)
	return types.GapEntry{}
}

type fakeBatchEmbedder struct {
	batches [][]string
	err     error
	short   bool
}

// EmbedBatch returns one deterministic vector per text, the text length
// and a constant 1.
func (f *fakeBatchEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, append([]string(nil), texts...))
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(len(texts[i])), 1}
	}
	if f.short && len(vectors) > 0 {
		vectors = vectors[:len(vectors)-1]
	}
	return vectors, nil
}

// --- BackfillEmbeddings ---

func TestBackfillEmbeddings(t *testing.T) {
	store := testGapStore(t)
	ball := seedGap(t, store, "ball-lightning", "Ball lightning", "No accepted physical mechanism.")
	seedGap(t, store, "contagious-yawning", "Contagious yawning", "Why it spreads is unknown.")
	embedder := &fakeBatchEmbedder{}

	summary, err := BackfillEmbeddings(context.Background(), store, embedder, 0, nil)
	if err != nil {
		t.Fatalf("BackfillEmbeddings: %v", err)
	}
	if summary.Embedded != 2 || summary.Skipped != 0 {
		t.Errorf("summary = %+v, want 2 embedded, 0 skipped", summary)
	}

	if len(embedder.batches) != 1 {
		t.Fatalf("embedder saw %d batches, want 1", len(embedder.batches))
	}
	wantTexts := []string{
		"Ball lightning No accepted physical mechanism.",
		"Contagious yawning Why it spreads is unknown.",
	}
	for i, want := range wantTexts {
		if embedder.batches[0][i] != want {
			t.Errorf("batch text %d = %q, want %q", i, embedder.batches[0][i], want)
		}
	}

	pending, err := store.WithoutEmbedding(context.Background(), 0)
	if err != nil {
		t.Fatalf("WithoutEmbedding: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("%d entries still lack embeddings, want 0", len(pending))
	}

	got := findBySourceURL(t, store, ball.SourceURL)
	wantVec := []float32{float32(len(wantTexts[0])), 1}
	if len(got.Embedding) != 2 || got.Embedding[0] != wantVec[0] || got.Embedding[1] != wantVec[1] {
		t.Errorf("stored embedding = %v, want %v", got.Embedding, wantVec)
	}
}

func TestBackfillSkipsBlankEntries(t *testing.T) {
	store := testGapStore(t)
	seedGap(t, store, "blank", "", "")
	kept := seedGap(t, store, "dark-matter", "Dark matter", "Composition unknown.")
	embedder := &fakeBatchEmbedder{}

	summary, err := BackfillEmbeddings(context.Background(), store, embedder, 0, nil)
	if err != nil {
		t.Fatalf("BackfillEmbeddings: %v", err)
	}
	if summary.Embedded != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 1 embedded, 1 skipped", summary)
	}
	if len(embedder.batches) != 1 || len(embedder.batches[0]) != 1 {
		t.Fatalf("embedder batches = %v, want only the non-blank text", embedder.batches)
	}
	if got := findBySourceURL(t, store, kept.SourceURL); len(got.Embedding) == 0 {
		t.Error("non-blank entry was not embedded")
	}
}

func TestBackfillEmbedErrorSkipsBatch(t *testing.T) {
	store := testGapStore(t)
	seedGap(t, store, "a", "Problem A", "Open.")
	seedGap(t, store, "b", "Problem B", "Open.")
	embedder := &fakeBatchEmbedder{err: errors.New("429 too many requests")}

	summary, err := BackfillEmbeddings(context.Background(), store, embedder, 0, nil)
	if err != nil {
		t.Fatalf("BackfillEmbeddings returned %v, want nil; a failed batch is not fatal", err)
	}
	if summary.Embedded != 0 || summary.Skipped != 2 {
		t.Errorf("summary = %+v, want 0 embedded, 2 skipped", summary)
	}
	pending, err := store.WithoutEmbedding(context.Background(), 0)
	if err != nil {
		t.Fatalf("WithoutEmbedding: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("%d entries still pending, want 2", len(pending))
	}
}

func TestBackfillWrongVectorCountSkipsBatch(t *testing.T) {
	store := testGapStore(t)
	seedGap(t, store, "a", "Problem A", "Open.")
	seedGap(t, store, "b", "Problem B", "Open.")
	embedder := &fakeBatchEmbedder{short: true}

	summary, err := BackfillEmbeddings(context.Background(), store, embedder, 0, nil)
	if err != nil {
		t.Fatalf("BackfillEmbeddings: %v", err)
	}
	if summary.Embedded != 0 || summary.Skipped != 2 {
		t.Errorf("summary = %+v, want the misaligned batch skipped whole", summary)
	}
}

func TestBackfillHonorsLimit(t *testing.T) {
	store := testGapStore(t)
	seedGap(t, store, "a", "Problem A", "Open.")
	seedGap(t, store, "b", "Problem B", "Open.")
	seedGap(t, store, "c", "Problem C", "Open.")
	embedder := &fakeBatchEmbedder{}

	summary, err := BackfillEmbeddings(context.Background(), store, embedder, 2, nil)
	if err != nil {
		t.Fatalf("BackfillEmbeddings: %v", err)
	}
	if summary.Embedded != 2 {
		t.Errorf("embedded %d, want the limit of 2", summary.Embedded)
	}
	pending, err := store.WithoutEmbedding(context.Background(), 0)
	if err != nil {
		t.Fatalf("WithoutEmbedding: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("%d entries still pending, want 1", len(pending))
	}
}

func TestBackfillNothingPending(t *testing.T) {
	store := testGapStore(t)
	embedder := &fakeBatchEmbedder{}

	summary, err := BackfillEmbeddings(context.Background(), store, embedder, 0, nil)
	if err != nil {
		t.Fatalf("BackfillEmbeddings: %v", err)
	}
	if summary.Embedded != 0 || summary.Skipped != 0 {
		t.Errorf("summary = %+v, want all zero", summary)
	}
	if len(embedder.batches) != 0 {
		t.Errorf("embedder called %d times on an empty backlog, want 0", len(embedder.batches))
	}
}

func TestBackfillCanceledContext(t *testing.T) {
	store := testGapStore(t)
	seedGap(t, store, "a", "Problem A", "Open.")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := BackfillEmbeddings(ctx, store, &fakeBatchEmbedder{}, 0, nil)
	if err == nil {
		t.Fatal("BackfillEmbeddings returned nil error on a canceled context")
	}
}
