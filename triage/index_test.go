package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIndexSearchOrdersByScore(t *testing.T) {
	idx := NewInMemoryIndex()
	idx.Replace([]VectorItem{
		{Label: "a", Vector: []float32{1, 0}},
		{Label: "b", Vector: []float32{0, 1}},
		{Label: "c", Vector: []float32{1, 1}},
	})
	require.Equal(t, 3, idx.Size())

	hits := idx.Search([]float32{1, 0.1}, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Label)
	assert.Equal(t, "c", hits[1].Label)
	assert.Equal(t, 0, hits[0].Position)
}

func TestInMemoryIndexTiesKeepLoadOrder(t *testing.T) {
	idx := NewInMemoryIndex()
	idx.Replace([]VectorItem{
		{Label: "first", Vector: []float32{1, 0}},
		{Label: "second", Vector: []float32{2, 0}},
		{Label: "third", Vector: []float32{3, 0}},
	})
	hits := idx.Search([]float32{5, 0}, 3)
	require.Len(t, hits, 3)
	assert.Equal(t, []string{"first", "second", "third"}, []string{hits[0].Label, hits[1].Label, hits[2].Label})
}

func TestInMemoryIndexEmpty(t *testing.T) {
	idx := NewInMemoryIndex()
	assert.Nil(t, idx.Search([]float32{1}, 1))

	idx.Replace([]VectorItem{{Label: "a", Vector: []float32{1}}})
	assert.Nil(t, idx.Search(nil, 1))
	assert.Nil(t, idx.Search([]float32{1}, 0))
}

func TestInMemoryIndexReplaceCopiesVectors(t *testing.T) {
	vec := []float32{1, 0}
	idx := NewInMemoryIndex()
	idx.Replace([]VectorItem{{Label: "a", Vector: vec}})
	vec[0] = -1
	hits := idx.Search([]float32{1, 0}, 1)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Equal(t, float32(0), cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, float32(0), cosineSimilarity(nil, []float32{1}))
}
