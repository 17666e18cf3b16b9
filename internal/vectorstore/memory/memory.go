package memory

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"pdfqa/internal/domain"
)

// MaxK bounds the number of matches a single search may return.
const MaxK = 20

// Index is a flat in-memory inner-product index. Vectors are expected to
// be L2-normalized, which makes the score equal to cosine similarity.
// Index is not safe for concurrent mutation; the caller serializes access.
type Index struct {
	dimension int
	vectors   [][]float32
}

// New creates an empty index for vectors of the given dimension.
func New(dimension int) *Index { return &Index{dimension: dimension} }

// Len returns the number of indexed vectors.
func (x *Index) Len() int { return len(x.vectors) }

// Dimension returns the configured vector size.
func (x *Index) Dimension() int { return x.dimension }

// Add appends vectors. Every vector is validated before any is stored.
func (x *Index) Add(vectors [][]float32) error {
	if x.dimension <= 0 {
		return errors.New("memory: invalid dimension")
	}
	for i, v := range vectors {
		if len(v) != x.dimension {
			return fmt.Errorf("memory: vector %d has dimension %d, want %d", i, len(v), x.dimension)
		}
	}
	for _, v := range vectors {
		x.vectors = append(x.vectors, append([]float32(nil), v...))
	}
	return nil
}

// Search returns up to min(k, Len, MaxK) matches by descending score.
// Ties keep insertion order.
func (x *Index) Search(query []float32, k int) []domain.Match {
	if k > MaxK {
		k = MaxK
	}
	if k > len(x.vectors) {
		k = len(x.vectors)
	}
	if k <= 0 || len(query) != x.dimension {
		return nil
	}
	scored := make([]domain.Match, len(x.vectors))
	for i, v := range x.vectors {
		scored[i] = domain.Match{Position: i, Score: dot(query, v)}
	}
	sort.SliceStable(scored, func(a, b int) bool { return scored[a].Score > scored[b].Score })
	return scored[:k]
}

// MarshalBinary stores dim(uint32), n(uint32), then n vectors of
// float32[dim], all little-endian.
func (x *Index) MarshalBinary() ([]byte, error) {
	out := make([]byte, 8, 8+4*x.dimension*len(x.vectors))
	binary.LittleEndian.PutUint32(out[0:4], uint32(x.dimension))
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(x.vectors)))
	b := make([]byte, 4)
	for _, v := range x.vectors {
		for _, f := range v {
			binary.LittleEndian.PutUint32(b, math.Float32bits(f))
			out = append(out, b...)
		}
	}
	return out, nil
}

// UnmarshalBinary replaces the index contents with the encoded vectors.
func (x *Index) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return errors.New("memory: invalid data")
	}
	dim := int(binary.LittleEndian.Uint32(data[0:4]))
	n := int(binary.LittleEndian.Uint32(data[4:8]))
	if n > 0 && dim == 0 {
		return errors.New("memory: zero dimension with vectors")
	}
	if want := 8 + 4*dim*n; len(data) != want {
		return fmt.Errorf("memory: truncated data: %d bytes, want %d", len(data), want)
	}
	off := 8
	vectors := make([][]float32, n)
	for i := range vectors {
		v := make([]float32, dim)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		vectors[i] = v
	}
	if dim > 0 {
		x.dimension = dim
	}
	x.vectors = vectors
	return nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
