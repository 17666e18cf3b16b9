package embedding

import (
	"context"
	"math"

	"github.com/viant/vec/search"
)

// Embedder converts text into fixed-dimension vectors.
// Embed returns one vector per input, in input order.
type Embedder interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Normalize scales v to unit L2 length in place. Zero vectors are left as is.
func Normalize(v []float32) {
	mag := search.Float32s(v).Magnitude()
	if mag == 0 || math.IsNaN(float64(mag)) {
		return
	}
	for i := range v {
		v[i] /= mag
	}
}
