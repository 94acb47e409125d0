package triage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleEntries() []ReferenceEntry {
	return []ReferenceEntry{
		{Description: "severe headache lasting days", Department: "Neurology", Location: "Head", PainType: "Throbbing"},
		{Description: "chest pain when breathing", Department: "Cardiology", Location: "Chest", PainType: "Sharp"},
		{Description: "stomach cramps after eating", Department: "Gastroenterology", Location: "Stomach", PainType: "Cramping"},
		{Description: "itchy red rash on the skin", Department: "Dermatology", Location: "Skin", PainType: "Itching"},
		{Description: "swollen knee joint pain when walking", Department: "Orthopedics", Location: "Knee", PainType: "Aching"},
	}
}

// countingEmbedder wraps HashEmbedder and records every text it embeds.
type countingEmbedder struct {
	*HashEmbedder
	mu    sync.Mutex
	texts []string
}

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{HashEmbedder: NewHashEmbedder(256)}
}

func (c *countingEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	c.texts = append(c.texts, text)
	c.mu.Unlock()
	return c.HashEmbedder.EmbedText(ctx, text)
}

func (c *countingEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := c.EmbedText(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *countingEmbedder) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.texts)
}

var errBoom = errors.New("boom")

// failingResolver always fails.
type failingResolver struct{}

func (failingResolver) Resolve(context.Context, string) (string, error) { return "", errBoom }

func (failingResolver) Rank(context.Context, string, int) ([]Match, error) { return nil, errBoom }

func newTestAssistant(t *testing.T, cfg Config, entries []ReferenceEntry) *Assistant {
	t.Helper()
	a, err := NewAssistantWith(context.Background(), cfg, NewHashEmbedder(256), entries, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	return newTestAssistant(t, cfg, sampleEntries()).Engine()
}
