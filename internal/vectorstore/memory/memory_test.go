package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_AddIsAllOrNothing(t *testing.T) {
	x := New(2)
	require.NoError(t, x.Add([][]float32{{1, 0}}))
	err := x.Add([][]float32{{0, 1}, {1, 2, 3}})
	assert.Error(t, err)
	assert.Equal(t, 1, x.Len())
}

func TestIndex_SearchOrdersByScore(t *testing.T) {
	x := New(2)
	require.NoError(t, x.Add([][]float32{{1, 0}, {0, 1}, {0.6, 0.8}}))

	got := x.Search([]float32{0, 1}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, 1, got[0].Position)
	assert.Equal(t, 2, got[1].Position)
	assert.Equal(t, 0, got[2].Position)
	assert.InDelta(t, 1.0, got[0].Score, 1e-6)
	assert.InDelta(t, 0.8, got[1].Score, 1e-6)
}

func TestIndex_SearchClampsK(t *testing.T) {
	x := New(1)
	vecs := make([][]float32, 30)
	for i := range vecs {
		vecs[i] = []float32{1}
	}
	require.NoError(t, x.Add(vecs))

	assert.Len(t, x.Search([]float32{1}, 100), MaxK)
	assert.Len(t, x.Search([]float32{1}, 3), 3)
	assert.Empty(t, x.Search([]float32{1}, 0))

	small := New(1)
	require.NoError(t, small.Add([][]float32{{1}, {1}}))
	assert.Len(t, small.Search([]float32{1}, 5), 2)
}

func TestIndex_TiesKeepInsertionOrder(t *testing.T) {
	x := New(1)
	require.NoError(t, x.Add([][]float32{{1}, {1}, {1}}))
	got := x.Search([]float32{1}, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{got[0].Position, got[1].Position, got[2].Position})
}

func TestIndex_SearchEmptyAndWrongDimension(t *testing.T) {
	x := New(3)
	assert.Empty(t, x.Search([]float32{1, 0, 0}, 5))
	require.NoError(t, x.Add([][]float32{{1, 0, 0}}))
	assert.Empty(t, x.Search([]float32{1, 0}, 5))
}

func TestIndex_BinaryRoundTrip(t *testing.T) {
	x := New(3)
	require.NoError(t, x.Add([][]float32{{1, 0, 0}, {0, 0.6, 0.8}}))
	data, err := x.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, data, 8+2*3*4)

	y := New(3)
	require.NoError(t, y.UnmarshalBinary(data))
	assert.Equal(t, 2, y.Len())
	assert.Equal(t, x.Search([]float32{0, 1, 0}, 2), y.Search([]float32{0, 1, 0}, 2))
}

func TestIndex_UnmarshalRejectsTruncated(t *testing.T) {
	x := New(2)
	require.NoError(t, x.Add([][]float32{{1, 0}}))
	data, err := x.MarshalBinary()
	require.NoError(t, err)

	y := New(2)
	assert.Error(t, y.UnmarshalBinary(data[:len(data)-1]))
	assert.Error(t, y.UnmarshalBinary([]byte{1, 2}))
	assert.Zero(t, y.Len())
}
