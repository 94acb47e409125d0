package triage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorCacheMemoryOnly(t *testing.T) {
	c, err := newVectorCache("", "model")
	require.NoError(t, err)

	_, ok := c.Get("headache")
	assert.False(t, ok)

	vec := []float32{1, 2, 3}
	require.NoError(t, c.Put("headache", vec))
	vec[0] = 99

	got, ok := c.Get("headache")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, got)
	got[1] = 42
	again, _ := c.Get("headache")
	assert.Equal(t, float32(2), again[1])
}

func TestVectorCachePersistsToDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	first, err := newVectorCache(dir, "bge-m3/model.onnx")
	require.NoError(t, err)
	assert.DirExists(t, dir)
	require.NoError(t, first.Put("chest pain", []float32{0.5, -0.5}))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	second, err := newVectorCache(dir, "bge-m3/model.onnx")
	require.NoError(t, err)
	assert.Zero(t, second.Len())
	got, ok := second.Get("chest pain")
	require.True(t, ok)
	assert.Equal(t, []float32{0.5, -0.5}, got)
	assert.Equal(t, 1, second.Len())
}

func TestVectorCacheKeysByModel(t *testing.T) {
	dir := t.TempDir()
	a, err := newVectorCache(dir, "model-a")
	require.NoError(t, err)
	b, err := newVectorCache(dir, "model-b")
	require.NoError(t, err)

	require.NoError(t, a.Put("rash", []float32{1}))
	_, ok := b.Get("rash")
	assert.False(t, ok)
	assert.NotEqual(t, a.key("rash"), b.key("rash"))
}
