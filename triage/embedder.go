package triage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"yashubustudio/symptomchat/emb"
)

// Embedder exposes the minimal surface required by the resolver.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	Close() error
	ModelID() string
}

// NewEmbedder builds the embedder selected by cfg.Backend.
func NewEmbedder(cfg EmbedderConfig) (Embedder, error) {
	switch cfg.Backend {
	case BackendHash:
		return NewHashEmbedder(cfg.Dimension), nil
	case BackendORT, "":
		e, err := NewOrtEmbedder(cfg)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%w: unknown embedder backend %q", ErrConfiguration, cfg.Backend)
	}
}

// OrtEmbedder runs the ONNX sentence encoder and remembers every vector it
// has produced in a vectorCache.
type OrtEmbedder struct {
	mu    sync.Mutex
	enc   *emb.Encoder
	cache *vectorCache
	model string
}

// NewOrtEmbedder loads the model and tokenizer named by cfg. The model id
// defaults to "<model dir>/<model file>" and keys the cache.
func NewOrtEmbedder(cfg EmbedderConfig) (*OrtEmbedder, error) {
	model := cfg.ModelID
	if model == "" && cfg.ModelPath != "" {
		model = filepath.Base(filepath.Dir(cfg.ModelPath)) + "/" + filepath.Base(cfg.ModelPath)
	}
	cache, err := newVectorCache(cfg.CacheDir, model)
	if err != nil {
		return nil, err
	}
	encoder := &emb.Encoder{}
	if err := encoder.Init(emb.Config{
		OrtDLL:        cfg.OrtDLL,
		ModelPath:     cfg.ModelPath,
		TokenizerPath: cfg.TokenizerPath,
		MaxSeqLen:     cfg.MaxSeqLen,
	}); err != nil {
		return nil, fmt.Errorf("%w: init encoder: %v", ErrConfiguration, err)
	}
	return &OrtEmbedder{enc: encoder, cache: cache, model: model}, nil
}

func (o *OrtEmbedder) Close() error {
	if o == nil {
		return nil
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.enc != nil {
		o.enc.Close()
		o.enc = nil
	}
	return nil
}

func (o *OrtEmbedder) ModelID() string {
	return o.model
}

func (o *OrtEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	if o == nil {
		return nil, errors.New("embedder is not initialized")
	}
	normalized := NormalizeText(text)
	if vec, ok := o.cache.Get(normalized); ok {
		return vec, nil
	}
	o.mu.Lock()
	if o.enc == nil {
		o.mu.Unlock()
		return nil, errors.New("embedder is closed")
	}
	vec, err := o.enc.Encode(normalized)
	o.mu.Unlock()
	if err != nil {
		return nil, err
	}
	_ = o.cache.Put(normalized, vec)
	return cloneVector(vec), nil
}

// EmbedTexts embeds texts one by one, stopping when ctx is done.
func (o *OrtEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := o.EmbedText(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}
