package triage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// Resolver maps free text to the department of the most similar reference
// description. The table is embedded once at construction and only read
// afterwards, so one Resolver can serve many sessions.
type Resolver struct {
	embedder Embedder
	index    VectorIndex
	entries  []ReferenceEntry
	logger   *log.Logger
}

// NewResolver embeds every entry that has no precomputed embedding and loads
// the table into an in-memory index.
func NewResolver(ctx context.Context, embedder Embedder, entries []ReferenceEntry, logger *log.Logger) (*Resolver, error) {
	return NewResolverWithIndex(ctx, embedder, entries, NewInMemoryIndex(), logger)
}

// NewResolverWithIndex is NewResolver with a caller supplied index.
func NewResolverWithIndex(ctx context.Context, embedder Embedder, entries []ReferenceEntry, index VectorIndex, logger *log.Logger) (*Resolver, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if index == nil {
		return nil, errors.New("index is required")
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: reference table is empty", ErrConfiguration)
	}
	r := &Resolver{
		embedder: embedder,
		index:    index,
		entries:  make([]ReferenceEntry, len(entries)),
		logger:   logger,
	}
	copy(r.entries, entries)

	var missing []int
	var texts []string
	for i, e := range r.entries {
		if len(e.Embedding) == 0 {
			missing = append(missing, i)
			texts = append(texts, NormalizeText(e.Description))
		}
	}
	if len(texts) > 0 {
		vecs, err := embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed reference table: %w", err)
		}
		for j, i := range missing {
			r.entries[i].Embedding = vecs[j]
		}
	}

	items := make([]VectorItem, len(r.entries))
	for i, e := range r.entries {
		items[i] = VectorItem{
			Label:  e.Department,
			Text:   e.Description,
			Vector: e.Embedding,
		}
	}
	index.Replace(items)
	r.logf("Loaded %d reference entries (%d embedded with %s)", len(items), len(texts), embedder.ModelID())
	return r, nil
}

// Entries returns a copy of the reference table.
func (r *Resolver) Entries() []ReferenceEntry {
	out := make([]ReferenceEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Size returns how many reference entries are indexed.
func (r *Resolver) Size() int {
	return r.index.Size()
}

// Resolve returns the department of the reference entry closest to query.
func (r *Resolver) Resolve(ctx context.Context, query string) (string, error) {
	matches, err := r.search(ctx, query, 1)
	if err != nil {
		return "", err
	}
	return matches[0].Department, nil
}

// Rank returns up to k matches with distinct departments, best first.
func (r *Resolver) Rank(ctx context.Context, query string, k int) ([]Match, error) {
	if k <= 0 {
		k = 1
	}
	matches, err := r.search(ctx, query, r.index.Size())
	if err != nil {
		return nil, err
	}
	out := make([]Match, 0, k)
	seen := make(map[string]struct{})
	for _, m := range matches {
		if _, ok := seen[m.Department]; ok {
			continue
		}
		seen[m.Department] = struct{}{}
		out = append(out, m)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func (r *Resolver) search(ctx context.Context, query string, k int) ([]Match, error) {
	query = NormalizeText(query)
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidInput)
	}
	if r.index.Size() == 0 {
		return nil, fmt.Errorf("%w: no reference entries", ErrInvalidInput)
	}
	vec, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits := r.index.Search(vec, k)
	if len(hits) == 0 {
		return nil, fmt.Errorf("%w: query embedding is empty", ErrInvalidInput)
	}
	out := make([]Match, len(hits))
	for i, h := range hits {
		out[i] = Match{Department: h.Label, Description: h.Text, Score: h.Score}
	}
	return out, nil
}

func (r *Resolver) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}
