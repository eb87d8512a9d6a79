// Package postprocessors builds the chunkers applied to extracted report text.
package postprocessors

import (
	"fmt"
	"maps"
	"slices"

	"github.com/custodia-labs/healthlens/internal/core/ports/driven"
)

// BuilderFunc turns a settings map into a Chunker.
type BuilderFunc func(cfg map[string]any) (driven.Chunker, error)

// Registry holds chunker builders by name. It is populated at startup and
// read-only afterwards, so it carries no lock.
type Registry struct {
	builders map[string]BuilderFunc
}

func NewRegistry() *Registry {
	return &Registry{builders: map[string]BuilderFunc{}}
}

// Register replaces any builder already stored under name.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

func (r *Registry) Build(name string, cfg map[string]any) (driven.Chunker, error) {
	if build, ok := r.builders[name]; ok {
		return build(cfg)
	}
	return nil, fmt.Errorf("unknown chunker %q (have %v)", name, r.Names())
}

func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names lists registered builders in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.builders))
}
