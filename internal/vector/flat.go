// Package vector provides an append-only flat vector index with exhaustive
// L2 nearest-neighbor search and a parallel chunk→document owner map.
package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// DimensionError is returned when an append or search disagrees with the
// dimensionality fixed by the index's first append. It is a configuration
// error; the index refuses the operation.
type DimensionError struct {
	Got, Want int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: got %d, expected %d", e.Got, e.Want)
}

// Hit is a single nearest-neighbor result. Distance is squared L2.
type Hit struct {
	Position int
	DocID    int64
	Distance float64
}

// FlatIndex stores embedding vectors alongside the parallel slice of owning
// document ids (the chunk map). Both slices grow in lock-step under one
// mutex, so any reader holding the read lock observes them consistent:
// there is always exactly one owner entry per stored vector.
type FlatIndex struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
	owners  []int64
}

// NewFlatIndex returns an empty index. The dimensionality is fixed by the
// first append.
func NewFlatIndex() *FlatIndex {
	return &FlatIndex{}
}

// Append adds vectors and their owning document ids in lock-step. All
// vectors of one call must share the index dimensionality; the first append
// establishes it. Owners and vectors must have equal length.
func (x *FlatIndex) Append(ctx context.Context, vectors [][]float32, owners []int64) error {
	if len(vectors) != len(owners) {
		return fmt.Errorf("vectors and owners length mismatch: %d vs %d", len(vectors), len(owners))
	}
	if len(vectors) == 0 {
		return nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	dim := x.dim
	if dim == 0 {
		dim = len(vectors[0])
		if dim == 0 {
			return fmt.Errorf("cannot append zero-dimension vectors")
		}
	}
	for _, v := range vectors {
		if len(v) != dim {
			return &DimensionError{Got: len(v), Want: dim}
		}
	}
	x.dim = dim
	for i, v := range vectors {
		vec := make([]float32, dim)
		copy(vec, v)
		x.vectors = append(x.vectors, vec)
		x.owners = append(x.owners, owners[i])
	}
	return nil
}

// Search returns the k nearest stored vectors to query by squared L2
// distance, ascending, ties broken toward the lower stored position
// (earlier-inserted wins). Returns fewer than k hits if the index holds
// fewer vectors, and nil on an empty index.
func (x *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if k <= 0 || len(x.vectors) == 0 {
		return nil, nil
	}
	if len(query) != x.dim {
		return nil, &DimensionError{Got: len(query), Want: x.dim}
	}
	hits := make([]Hit, len(x.vectors))
	for i, vec := range x.vectors {
		var sum float64
		for j := 0; j < x.dim; j++ {
			d := float64(query[j] - vec[j])
			sum += d * d
		}
		hits[i] = Hit{Position: i, DocID: x.owners[i], Distance: sum}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Position < hits[j].Position
	})
	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Size returns the number of stored vectors (equal to the chunk-map length).
func (x *FlatIndex) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.vectors)
}

// Dimensions returns the established dimensionality, 0 before the first append.
func (x *FlatIndex) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.dim
}

// Save persists the index to path: dimension (4), count (4), then per entry
// the owner id (8) and the vector (dimension*4), all little-endian. A loaded
// index searches identically to the saved one.
func (x *FlatIndex) Save(path string) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if err := binary.Write(f, binary.LittleEndian, uint32(x.dim)); err != nil {
		return fmt.Errorf("write dimension: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(x.vectors))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i := range x.vectors {
		if err := binary.Write(f, binary.LittleEndian, uint64(x.owners[i])); err != nil {
			return fmt.Errorf("write owner: %w", err)
		}
		if _, err := f.Write(float32SliceToBytes(x.vectors[i])); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load reads the index from path, replacing in-memory contents. If the file
// does not exist the index is left empty and no error is returned.
func (x *FlatIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimension: %w", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	vectors := make([][]float32, 0, n)
	owners := make([]int64, 0, n)
	buf := make([]byte, int(dim)*4)
	for i := uint32(0); i < n; i++ {
		var owner uint64
		if err := binary.Read(f, binary.LittleEndian, &owner); err != nil {
			return fmt.Errorf("read owner: %w", err)
		}
		if _, err := io.ReadFull(f, buf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		owners = append(owners, int64(owner))
		vectors = append(vectors, bytesToFloat32Slice(buf))
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.dim = int(dim)
	x.vectors = vectors
	x.owners = owners
	return nil
}

func float32SliceToBytes(s []float32) []byte {
	out := make([]byte, len(s)*4)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*4:(i+1)*4], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : (i+1)*4]))
	}
	return out
}
