package triage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// Assistant bundles the process-wide pieces: the embedder, the resolver over
// the reference table and the dialog engine. Build it once at startup.
type Assistant struct {
	mu       sync.RWMutex
	cfg      Config
	embedder Embedder
	resolver *Resolver
	engine   *Engine
	logger   *log.Logger
}

// NewAssistant loads the reference table named by cfg and wires the engine.
// Any error is fatal for the process.
func NewAssistant(ctx context.Context, cfg Config, logger *log.Logger) (*Assistant, error) {
	cfg.ApplyDefaults()
	var columns ColumnCandidates
	if cfg.Columns != nil {
		columns = *cfg.Columns
	}
	SetColumnCandidates(columns)
	entries, err := LoadReferenceTable(cfg.ReferencePath)
	if err != nil {
		return nil, fmt.Errorf("load reference table: %w", err)
	}
	embedder, err := NewEmbedder(cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	a, err := NewAssistantWith(ctx, cfg, embedder, entries, logger)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}
	return a, nil
}

// NewAssistantWith wires an assistant from an embedder and entries that are
// already loaded.
func NewAssistantWith(ctx context.Context, cfg Config, embedder Embedder, entries []ReferenceEntry, logger *log.Logger) (*Assistant, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	cfg.ApplyDefaults()
	resolver, err := NewResolver(ctx, embedder, entries, logger)
	if err != nil {
		return nil, fmt.Errorf("init resolver: %w", err)
	}
	engine, err := NewEngine(resolver, cfg, DefaultExtractors(cfg, entries), logger)
	if err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}
	return &Assistant{
		cfg:      cfg,
		embedder: embedder,
		resolver: resolver,
		engine:   engine,
		logger:   logger,
	}, nil
}

// Config returns a copy of the configuration in use.
func (a *Assistant) Config() Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg.Clone()
}

// Resolver returns the shared resolver.
func (a *Assistant) Resolver() *Resolver { return a.resolver }

// Engine returns the current dialog engine.
func (a *Assistant) Engine() *Engine {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.engine
}

// NewSession starts a standalone conversation.
func (a *Assistant) NewSession(id string) *Session { return NewSession(id, a.Engine()) }

// NewSessions returns a keyed session store using the configured TTL.
func (a *Assistant) NewSessions() *Sessions {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return NewSessions(a.engine, a.cfg.SessionTTL.Std(), a.logger)
}

// Reconfigure rebuilds the dialog engine from cfg over the same resolver.
// The reference table and embedder settings in cfg are ignored. Sessions
// created before the call keep the engine they started with.
func (a *Assistant) Reconfigure(cfg Config) (Config, error) {
	cfg.ApplyDefaults()
	engine, err := NewEngine(a.resolver, cfg, DefaultExtractors(cfg, a.resolver.Entries()), a.logger)
	if err != nil {
		return a.Config(), err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	cfg.ReferencePath = a.cfg.ReferencePath
	cfg.Embedder = a.cfg.Embedder
	a.cfg = cfg
	a.engine = engine
	a.logf("configuration updated: policy=%s alternatives=%d duplicateGuard=%t", cfg.SeverityPolicy, cfg.Alternatives, cfg.GuardDuplicates())
	return cfg.Clone(), nil
}

// Close releases embedder resources.
func (a *Assistant) Close() error {
	if a.embedder != nil {
		return a.embedder.Close()
	}
	return nil
}

func (a *Assistant) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}
