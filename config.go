// Copyright (c) 2021 Silvano DAL ZILIO
//
// MIT License

package sdd

import (
	"io"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// configs bundles the options a Context is built from. Grounded on the
// teacher's own configs struct (config.go), generalized from BDD-specific
// knobs (Nodesize, Cacheratio, ...) to this library's cache-size and
// node-layout options (spec.md §6).
type configs struct {
	sddCacheSize int
	homCacheSize int
	packedNodes  bool
	logger       *zap.Logger
}

func defaultConfigs() configs {
	return configs{
		sddCacheSize: _DEFAULTCACHESIZE,
		homCacheSize: _DEFAULTCACHESIZE,
	}
}

// Option configures a Context, in the same functional-option style as the
// teacher's Option (config.go: Nodesize, Maxnodesize, Cachesize, ...).
type Option func(*configs)

// InitialSDDCacheSize sets the SDD operation cache's initial capacity
// (spec.md §6, initial_sdd_cache_size).
func InitialSDDCacheSize(n int) Option {
	return func(c *configs) { c.sddCacheSize = n }
}

// InitialHomomorphismCacheSize sets the homomorphism evaluation cache's
// initial capacity (spec.md §6, initial_homomorphism_cache_size).
func InitialHomomorphismCacheSize(n int) Option {
	return func(c *configs) { c.homCacheSize = n }
}

// PackedNodes requests a tight in-memory node layout (spec.md §6,
// packed_nodes). The node layout itself (node.go) is already a plain Go
// struct without manual padding control, so this option is recorded for
// introspection and forward compatibility but does not change node
// representation.
func PackedNodes(v bool) Option {
	return func(c *configs) { c.packedNodes = v }
}

// WithLogger installs a structured logger (spec.md §2's ambient stack);
// the default is a no-op logger, matching the teacher's own silence by
// default (debug.go is compiled out unless the debug build tag is set).
func WithLogger(l *zap.Logger) Option {
	return func(c *configs) { c.logger = l }
}

// fileConfig is the YAML shape LoadConfig decodes (spec.md §6's table of
// recognized configuration options).
type fileConfig struct {
	InitialSDDCacheSize          int  `yaml:"initial_sdd_cache_size"`
	InitialHomomorphismCacheSize int  `yaml:"initial_homomorphism_cache_size"`
	PackedNodes                  bool `yaml:"packed_nodes"`
}

// LoadConfig reads a YAML configuration bundle and translates it into
// Options, in the style of DIRPX-dxrel's gopkg.in/yaml.v3-based
// configuration loading (its go.mod's direct, non-indirect require).
func LoadConfig(r io.Reader) ([]Option, error) {
	var fc fileConfig
	if err := yaml.NewDecoder(r).Decode(&fc); err != nil {
		return nil, errors.WithStack(err)
	}
	var opts []Option
	if fc.InitialSDDCacheSize > 0 {
		opts = append(opts, InitialSDDCacheSize(fc.InitialSDDCacheSize))
	}
	if fc.InitialHomomorphismCacheSize > 0 {
		opts = append(opts, InitialHomomorphismCacheSize(fc.InitialHomomorphismCacheSize))
	}
	opts = append(opts, PackedNodes(fc.PackedNodes))
	return opts, nil
}
