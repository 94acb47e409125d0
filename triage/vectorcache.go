package triage

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
)

// vectorCache remembers embeddings per model and text, in memory and
// optionally as one file per vector under dir.
type vectorCache struct {
	dir     string
	modelID string

	mu  sync.RWMutex
	mem map[string][]float32
}

func newVectorCache(dir, modelID string) (*vectorCache, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return &vectorCache{dir: dir, modelID: modelID, mem: make(map[string][]float32)}, nil
}

// key hashes the model id with the text so that switching models never
// serves stale vectors.
func (c *vectorCache) key(text string) string {
	h := sha1.New()
	_, _ = io.WriteString(h, c.modelID)
	_, _ = io.WriteString(h, "|")
	_, _ = io.WriteString(h, text)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a copy of the cached vector for text. A disk hit is promoted
// to memory.
func (c *vectorCache) Get(text string) ([]float32, bool) {
	key := c.key(text)
	c.mu.RLock()
	vec, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		return cloneVector(vec), true
	}
	vec, err := readVectorFile(c.dir, key)
	if err != nil {
		return nil, false
	}
	c.mu.Lock()
	c.mem[key] = vec
	c.mu.Unlock()
	return cloneVector(vec), true
}

// Put stores vec for text. Disk write failures only cost a recomputation
// later and are returned for logging.
func (c *vectorCache) Put(text string, vec []float32) error {
	key := c.key(text)
	c.mu.Lock()
	c.mem[key] = cloneVector(vec)
	c.mu.Unlock()
	return writeVectorFile(c.dir, key, vec)
}

// Len reports how many vectors are held in memory.
func (c *vectorCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mem)
}

// readVectorFile reads a cache entry: a little-endian uint32 length followed
// by that many float32 values.
func readVectorFile(dir, key string) ([]float32, error) {
	if dir == "" {
		return nil, os.ErrNotExist
	}
	path := filepath.Join(dir, key+".bin")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("cache file too small: %s", path)
	}
	length := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	if len(data) != length*4 {
		return nil, fmt.Errorf("cache length mismatch: %s", path)
	}
	vec := make([]float32, length)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}

func writeVectorFile(dir, key string, vec []float32) error {
	if dir == "" {
		return nil
	}
	path := filepath.Join(dir, key+".bin")
	tmp := path + ".tmp"
	buf := make([]byte, 4+len(vec)*4)
	binary.LittleEndian.PutUint32(buf, uint32(len(vec)))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4+i*4:], math.Float32bits(v))
	}
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
