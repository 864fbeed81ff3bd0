package gapstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-advisor/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "gaps.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleEntry(slug string) types.GapEntry {
	return types.GapEntry{
		Title:       "Open problem " + slug,
		Description: "Nobody knows why " + slug + " happens.",
		Source:      "wikenigma",
		SourceURL:   "https://wikenigma.org.uk/" + slug,
		Category:    "physics",
		Tags:        []string{"unsolved", slug},
	}
}

func mustUpsert(t *testing.T, store *Store, entry types.GapEntry) types.GapEntry {
	t.Helper()
	if err := store.Upsert(context.Background(), &entry); err != nil {
		t.Fatal(err)
	}
	return entry
}

func entryIDs(entries []types.GapEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.SourceURL
	}
	return ids
}

// --- schema tests ---

func TestOpenCreatesSchema(t *testing.T) {
	store := testStore(t)

	var count int
	err := store.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = 'gaps'`,
	).Scan(&count)
	if err != nil {
		t.Fatal(err)
	}
	if count == 0 {
		t.Error("gaps table does not exist")
	}
}

// --- upsert tests ---

func TestUpsertInsertRoundTrip(t *testing.T) {
	store := testStore(t)
	entry := mustUpsert(t, store, sampleEntry("dark-matter"))

	if entry.ID == 0 {
		t.Error("upsert did not assign an ID")
	}
	if entry.ScrapedAt.IsZero() || entry.CreatedAt.IsZero() {
		t.Error("upsert did not fill timestamps")
	}

	all, err := store.All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("All returned %d entries, want 1", len(all))
	}
	got := all[0]
	if got.Title != "Open problem dark-matter" ||
		got.Description != "Nobody knows why dark-matter happens." ||
		got.Source != "wikenigma" ||
		got.Category != "physics" {
		t.Errorf("stored entry fields do not round-trip: %+v", got)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "unsolved" || got.Tags[1] != "dark-matter" {
		t.Errorf("tags = %v, want [unsolved dark-matter]", got.Tags)
	}
	if got.Embedding != nil {
		t.Errorf("fresh entry has embedding %v, want none", got.Embedding)
	}
}

func TestUpsertRequiresSourceURL(t *testing.T) {
	store := testStore(t)
	entry := sampleEntry("x")
	entry.SourceURL = ""
	if err := store.Upsert(context.Background(), &entry); err == nil {
		t.Error("expected an error for an entry without source_url")
	}
}

func TestUpsertSameContentKeepsEmbedding(t *testing.T) {
	store := testStore(t)
	entry := mustUpsert(t, store, sampleEntry("turbulence"))
	if err := store.UpdateEmbedding(context.Background(), nil, entry.ID, []float32{0.5, -0.5}); err != nil {
		t.Fatal(err)
	}

	again := sampleEntry("turbulence")
	again.Category = "fluid-dynamics"
	again = mustUpsert(t, store, again)

	if again.ID != entry.ID {
		t.Errorf("re-import created a new row: id %d, want %d", again.ID, entry.ID)
	}
	all, err := store.All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("All returned %d entries, want 1", len(all))
	}
	if all[0].Category != "fluid-dynamics" {
		t.Errorf("category = %q, want fluid-dynamics", all[0].Category)
	}
	if len(all[0].Embedding) != 2 {
		t.Errorf("unchanged content lost its embedding: %v", all[0].Embedding)
	}
}

func TestUpsertContentChangeClearsEmbedding(t *testing.T) {
	store := testStore(t)
	entry := mustUpsert(t, store, sampleEntry("ball-lightning"))
	if err := store.UpdateEmbedding(context.Background(), nil, entry.ID, []float32{1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	changed := sampleEntry("ball-lightning")
	changed.Description = "New observations changed the picture."
	changed = mustUpsert(t, store, changed)

	if changed.Embedding != nil {
		t.Errorf("returned entry still carries embedding %v", changed.Embedding)
	}
	pending, err := store.WithoutEmbedding(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != entry.ID {
		t.Errorf("WithoutEmbedding = %v, want the changed entry", entryIDs(pending))
	}
	if changed.ScrapedAt.Before(entry.ScrapedAt) {
		t.Errorf("scraped_at went backwards: %v -> %v", entry.ScrapedAt, changed.ScrapedAt)
	}
	if !changed.CreatedAt.Equal(entry.CreatedAt) {
		t.Errorf("created_at changed on update: %v -> %v", entry.CreatedAt, changed.CreatedAt)
	}
}

func TestUpsertKeepsTaxonomy(t *testing.T) {
	store := testStore(t)
	entry := mustUpsert(t, store, sampleEntry("abiogenesis"))
	err := store.UpdateTaxonomy(context.Background(), nil, entry.ID,
		"Life Sciences", "Biochemistry, Genetics and Molecular Biology", "Molecular Biology", "Origins of Life")
	if err != nil {
		t.Fatal(err)
	}

	changed := sampleEntry("abiogenesis")
	changed.Title = "Open problem abiogenesis, revisited"
	mustUpsert(t, store, changed)

	all, err := store.All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if all[0].Domain != "Life Sciences" || all[0].Topic != "Origins of Life" {
		t.Errorf("content change erased taxonomy: %+v", all[0])
	}
}

// --- query tests ---

func TestByCategoryAndBySource(t *testing.T) {
	store := testStore(t)
	mustUpsert(t, store, sampleEntry("one"))
	other := sampleEntry("two")
	other.Category = "biology"
	other.Source = "convergent"
	mustUpsert(t, store, other)

	byCat, err := store.ByCategory(context.Background(), "biology")
	if err != nil {
		t.Fatal(err)
	}
	if len(byCat) != 1 || byCat[0].SourceURL != "https://wikenigma.org.uk/two" {
		t.Errorf("ByCategory = %v", entryIDs(byCat))
	}

	bySrc, err := store.BySource(context.Background(), "wikenigma")
	if err != nil {
		t.Fatal(err)
	}
	if len(bySrc) != 1 || bySrc[0].SourceURL != "https://wikenigma.org.uk/one" {
		t.Errorf("BySource = %v", entryIDs(bySrc))
	}
}

func TestByTaxonomyORCombines(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	a := mustUpsert(t, store, sampleEntry("a"))
	b := mustUpsert(t, store, sampleEntry("b"))
	c := mustUpsert(t, store, sampleEntry("c"))
	if err := store.UpdateTaxonomy(ctx, nil, a.ID, "Physical Sciences", "Physics and Astronomy", "Astrophysics", ""); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateTaxonomy(ctx, nil, b.ID, "Physical Sciences", "Chemistry", "Organic Chemistry", ""); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateTaxonomy(ctx, nil, c.ID, "Life Sciences", "Neuroscience", "Cognitive Neuroscience", ""); err != nil {
		t.Fatal(err)
	}

	bySubfield, err := store.ByTaxonomy(ctx, "", "", "Astrophysics", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(bySubfield) != 1 || bySubfield[0].ID != a.ID {
		t.Errorf("subfield match = %v", entryIDs(bySubfield))
	}

	// Field OR subfield picks up the chemist and the neuroscientist.
	combined, err := store.ByTaxonomy(ctx, "", "Chemistry", "Cognitive Neuroscience", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(combined) != 2 {
		t.Errorf("OR-combined match = %v, want 2 entries", entryIDs(combined))
	}

	none, err := store.ByTaxonomy(ctx, "", "", "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if none != nil {
		t.Errorf("empty filter returned %v", entryIDs(none))
	}
}

func TestBacklogQueries(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	a := mustUpsert(t, store, sampleEntry("a"))
	mustUpsert(t, store, sampleEntry("b"))
	mustUpsert(t, store, sampleEntry("c"))

	if err := store.UpdateEmbedding(ctx, nil, a.ID, []float32{1}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateTaxonomy(ctx, nil, a.ID, "Physical Sciences", "Physics and Astronomy", "", ""); err != nil {
		t.Fatal(err)
	}

	noEmbed, err := store.WithoutEmbedding(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(noEmbed) != 2 {
		t.Errorf("WithoutEmbedding = %v, want 2 entries", entryIDs(noEmbed))
	}

	limited, err := store.WithoutEmbedding(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("WithoutEmbedding limit 1 = %v", entryIDs(limited))
	}

	noTax, err := store.WithoutTaxonomy(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(noTax) != 2 {
		t.Errorf("WithoutTaxonomy = %v, want 2 entries", entryIDs(noTax))
	}
}

// --- embedding tests ---

func TestEmbeddingRoundTrip(t *testing.T) {
	store := testStore(t)
	entry := mustUpsert(t, store, sampleEntry("vector"))

	want := []float32{0.25, -1.5, 3.125}
	if err := store.UpdateEmbedding(context.Background(), nil, entry.ID, want); err != nil {
		t.Fatal(err)
	}
	all, err := store.All(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	got := all[0].Embedding
	if len(got) != len(want) {
		t.Fatalf("embedding length %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("embedding[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestUpdateEmbeddingRejectsEmpty(t *testing.T) {
	store := testStore(t)
	entry := mustUpsert(t, store, sampleEntry("x"))
	if err := store.UpdateEmbedding(context.Background(), nil, entry.ID, nil); err == nil {
		t.Error("expected an error for an empty vector")
	}
}

func TestDecodeEmbeddingTruncatedBlob(t *testing.T) {
	if got := decodeEmbedding([]byte{1, 2}); got != nil {
		t.Errorf("short blob decoded to %v", got)
	}
	// A trailing partial float is dropped, the whole prefix kept.
	blob := encodeEmbedding([]float32{1, 2})
	if got := decodeEmbedding(blob[:6]); len(got) != 1 || got[0] != 1 {
		t.Errorf("truncated blob decoded to %v, want [1]", got)
	}
}

func TestSimilarToEmbeddingOrdersByDistance(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	exact := mustUpsert(t, store, sampleEntry("exact"))
	near := mustUpsert(t, store, sampleEntry("near"))
	far := mustUpsert(t, store, sampleEntry("far"))
	mustUpsert(t, store, sampleEntry("unembedded"))

	if err := store.UpdateEmbedding(ctx, nil, far.ID, []float32{0, 1}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateEmbedding(ctx, nil, exact.ID, []float32{1, 0}); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateEmbedding(ctx, nil, near.ID, []float32{0.9, 0.1}); err != nil {
		t.Fatal(err)
	}

	got, err := store.SimilarToEmbedding(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != exact.ID || got[1].ID != near.ID {
		t.Errorf("SimilarToEmbedding = %v, want [exact near]", entryIDs(got))
	}
}

// --- tx tests ---

func TestUpdateTaxonomyInTransaction(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	entry := mustUpsert(t, store, sampleEntry("tx"))

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateTaxonomy(ctx, tx, entry.ID, "Life Sciences", "Neuroscience", "", ""); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatal(err)
	}
	all, err := store.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if all[0].Domain != "" {
		t.Errorf("rolled-back taxonomy persisted: %q", all[0].Domain)
	}

	tx, err = store.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateTaxonomy(ctx, tx, entry.ID, "Life Sciences", "Neuroscience", "", ""); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
	all, err = store.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if all[0].Domain != "Life Sciences" {
		t.Errorf("committed taxonomy missing: %q", all[0].Domain)
	}
}

// --- seed tests ---

func TestImportSeed(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	seed := SeedFile{Entries: []types.GapEntry{
		sampleEntry("seed-one"),
		sampleEntry("seed-two"),
		{Title: "No URL, cannot be keyed"},
	}}
	data, err := yaml.Marshal(&seed)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "seed.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	summary, err := store.ImportSeed(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Imported != 2 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 2 imported, 1 skipped", summary)
	}

	// Re-importing the same seed upserts instead of duplicating.
	if _, err := store.ImportSeed(ctx, path); err != nil {
		t.Fatal(err)
	}
	all, err := store.All(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("re-import grew the catalog to %d entries", len(all))
	}
}

func TestImportSeedBadFile(t *testing.T) {
	store := testStore(t)
	if _, err := store.ImportSeed(context.Background(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing seed file")
	}
}
