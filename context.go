// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

import "go.uber.org/zap"

// Context is the per-configuration handle a caller threads through every
// construction and evaluation call: it owns the SDD Universe, the
// homomorphism factory and its evaluation cache, and the active
// configuration and logger. It replaces the source's process-scoped
// singletons with the explicit context object spec.md Design Note §9
// recommends, while still offering NewContext as the "convenience default"
// the note allows.
//
// Context carries the Id type parameter, like Order, OrderBuilder, Hom,
// Inductive, Tuple and TupleIterator; the SDD algebra itself (Universe,
// SDD) stays non-generic.
type Context[Id comparable] struct {
	sdd      *Universe
	homs     *homFactory[Id]
	homCache *opCache[homOp[Id]]
	logger   *zap.Logger
	cfg      configs
}

// homOp is the evaluation cache's key: a (homomorphism, sdd) pair,
// generalizing the teacher's (operand1, operand2, operator) applycache key
// (hashing.go's setapply/matchapply) to a single-operand-plus-operator
// shape.
type homOp[Id comparable] struct {
	hom *Hom[Id]
	sdd *SDD
}

func (o homOp[Id]) Hash() uint64 {
	return hashCombine(hashCombine(fnvOffset, o.hom.serial), o.sdd.serial)
}

// NewContext builds a fresh Context, applying opts over the library's
// default configuration (spec.md §6).
func NewContext[Id comparable](opts ...Option) *Context[Id] {
	cfg := defaultConfigs()
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context[Id]{
		sdd:      NewUniverse(cfg.sddCacheSize),
		homs:     newHomFactory[Id](),
		homCache: newOpCache[homOp[Id]](cfg.homCacheSize),
		logger:   logger,
		cfg:      cfg,
	}
}

// Universe exposes the SDD node algebra owned by this context: its smart
// constructors, binary operations, and unique table.
func (c *Context[Id]) Universe() *Universe { return c.sdd }

// Homs exposes the homomorphism smart constructors bound to this context's
// Hom unique table.
func (c *Context[Id]) Homs() *homFactory[Id] { return c.homs }

// EvalCacheStats returns the homomorphism evaluation cache's round-by-round
// statistics (spec.md §4.G).
func (c *Context[Id]) EvalCacheStats() []cacheRoundStats {
	return c.homCache.stats()
}

// ClearCaches discards both operation caches without touching either
// unique table (spec.md §5: "Destroying a context discards its caches
// without affecting the unique tables").
func (c *Context[Id]) ClearCaches() {
	c.sdd.cache.Clear()
	c.homCache.Clear()
}
