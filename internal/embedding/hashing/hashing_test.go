package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestEmbedder_DeterministicAndNormalized(t *testing.T) {
	e := NewEmbedder(64)
	vecs, err := e.Embed(context.Background(), []string{"Revenue grew in the third quarter", "Revenue grew in the third quarter"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Len(t, vecs[0], 64)
	assert.Equal(t, vecs[0], vecs[1])
	assert.InDelta(t, 1.0, math.Sqrt(dot(vecs[0], vecs[0])), 1e-5)
}

func TestEmbedder_SimilarTextScoresHigher(t *testing.T) {
	e := NewEmbedder(256)
	vecs, err := e.Embed(context.Background(), []string{
		"the invoice total is due in thirty days",
		"when is the invoice total due",
		"penguins live in antarctica and eat fish",
	})
	require.NoError(t, err)
	assert.Greater(t, dot(vecs[0], vecs[1]), dot(vecs[0], vecs[2]))
}

func TestEmbedder_StopwordsOnlyGivesZeroVector(t *testing.T) {
	e := NewEmbedder(16)
	vecs, err := e.Embed(context.Background(), []string{"the and of"})
	require.NoError(t, err)
	assert.Equal(t, make([]float32, 16), vecs[0])
}

func TestEmbedder_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEmbedder(16).Embed(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEmbedder_DefaultDimension(t *testing.T) {
	e := NewEmbedder(0)
	assert.Equal(t, DefaultDimension, e.Dimension())
	assert.Equal(t, "hashing", e.Name())
}
