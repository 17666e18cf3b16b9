package vectorstore

import "pdfqa/internal/domain"

// Index is an append-only nearest-neighbour index over unit vectors.
// Positions are assigned in insertion order starting at zero.
type Index interface {
	// Add appends vectors. It either appends all of them or none.
	Add(vectors [][]float32) error
	// Search returns up to k matches ordered by descending inner product.
	Search(query []float32, k int) []domain.Match
	Len() int
	Dimension() int
	MarshalBinary() ([]byte, error)
	UnmarshalBinary(data []byte) error
}
