package triage

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"
)

const defaultHashDimension = 384

// HashEmbedder is a deterministic lexical embedder: word tokens and character
// trigrams are hashed into a fixed number of buckets and the counts are L2
// normalized. It needs no model files, which makes it useful offline and in
// tests, but it only captures word overlap.
type HashEmbedder struct {
	dim int
}

// NewHashEmbedder returns a HashEmbedder producing dim-sized vectors.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = defaultHashDimension
	}
	return &HashEmbedder{dim: dim}
}

func (h *HashEmbedder) ModelID() string {
	return fmt.Sprintf("hash-%d", h.dim)
}

func (h *HashEmbedder) Close() error { return nil }

// EmbedText hashes the normalized text into a vector.
func (h *HashEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, h.dim)
	for _, tok := range tokenize(text) {
		vec[fnv32(tok)%uint32(h.dim)] += 1
		padded := " " + tok + " "
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			vec[fnv32("#"+string(runes[i:i+3]))%uint32(h.dim)] += 0.5
		}
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum > 0 {
		n := float32(math.Sqrt(sum))
		for i := range vec {
			vec[i] /= n
		}
	}
	return vec, nil
}

func (h *HashEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := h.EmbedText(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(NormalizeKey(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func fnv32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	var h uint32 = offset32
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}
