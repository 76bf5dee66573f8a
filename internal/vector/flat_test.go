package vector

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSearchNearest(t *testing.T) {
	idx := NewFlatIndex()
	ctx := context.Background()
	vecs := [][]float32{{0, 0}, {10, 0}, {0, 10}}
	owners := []int64{1, 2, 3}
	if err := idx.Append(ctx, vecs, owners); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	hits, err := idx.Search(ctx, []float32{1, 1}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].DocID != 1 {
		t.Errorf("expected nearest doc 1, got %d", hits[0].DocID)
	}

	hits, err = idx.Search(ctx, []float32{1, 1}, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].DocID != 1 {
		t.Errorf("hits[0] = doc %d, want 1", hits[0].DocID)
	}
	// (10,0) and (0,10) are equidistant from (1,1); the earlier-inserted
	// vector wins the tie.
	if hits[1].DocID != 2 || hits[2].DocID != 3 {
		t.Errorf("tie order = %d,%d, want 2,3", hits[1].DocID, hits[2].DocID)
	}
	if hits[1].Distance != hits[2].Distance {
		t.Errorf("expected equal distances, got %v and %v", hits[1].Distance, hits[2].Distance)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx := NewFlatIndex()
	hits, err := idx.Search(context.Background(), []float32{1, 2}, 5)
	if err != nil {
		t.Fatalf("Search on empty index failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestSearchKLargerThanIndex(t *testing.T) {
	idx := NewFlatIndex()
	ctx := context.Background()
	if err := idx.Append(ctx, [][]float32{{1, 0}, {0, 1}}, []int64{7, 8}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	hits, err := idx.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected 2 hits, got %d", len(hits))
	}
}

func TestAppendDimensionMismatch(t *testing.T) {
	idx := NewFlatIndex()
	ctx := context.Background()
	if err := idx.Append(ctx, [][]float32{{1, 2, 3}}, []int64{1}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	err := idx.Append(ctx, [][]float32{{1, 2}}, []int64{2})
	var dimErr *DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionError, got %v", err)
	}
	if dimErr.Got != 2 || dimErr.Want != 3 {
		t.Errorf("DimensionError = got %d want %d", dimErr.Got, dimErr.Want)
	}
	if idx.Size() != 1 {
		t.Errorf("failed append must not grow index, size = %d", idx.Size())
	}
}

func TestAppendOwnersMismatch(t *testing.T) {
	idx := NewFlatIndex()
	err := idx.Append(context.Background(), [][]float32{{1}, {2}}, []int64{1})
	if err == nil {
		t.Fatal("expected error for owners/vectors length mismatch")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectors.bin")
	ctx := context.Background()

	idx := NewFlatIndex()
	vecs := [][]float32{{0.5, -1.5, 2}, {3, 0, -0.25}, {1, 1, 1}}
	owners := []int64{11, 22, 33}
	if err := idx.Append(ctx, vecs, owners); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := idx.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded := NewFlatIndex()
	if err := loaded.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Size() != 3 || loaded.Dimensions() != 3 {
		t.Fatalf("loaded size=%d dim=%d, want 3 and 3", loaded.Size(), loaded.Dimensions())
	}

	query := []float32{1, 1, 1}
	want, err := idx.Search(ctx, query, 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	got, err := loaded.Search(ctx, query, 3)
	if err != nil {
		t.Fatalf("Search on loaded index failed: %v", err)
	}
	for i := range want {
		if got[i].DocID != want[i].DocID || got[i].Distance != want[i].Distance {
			t.Errorf("hit %d differs after reload: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	idx := NewFlatIndex()
	if err := idx.Load(filepath.Join(t.TempDir(), "absent.bin")); err != nil {
		t.Fatalf("Load of missing file must be a no-op, got %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("expected empty index, size = %d", idx.Size())
	}
}
