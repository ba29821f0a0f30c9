// Package idgen provides monotonic identifier allocation for type variables
// and lexical scopes.
package idgen

import "sync/atomic"

// Generator hands out fresh 64-bit ids. The zero value is ready to use.
// A single generator is shared by the inferer and every Air stack of one
// compilation; ids are only ever compared for equality.
type Generator struct {
	counter atomic.Uint64
}

// New creates a new Generator starting at zero.
func New() *Generator {
	return &Generator{}
}

// Next returns the next fresh id.
func (g *Generator) Next() uint64 {
	return g.counter.Add(1)
}
