package engine

import (
	"maps"
	"sort"
)

// Bindings is the mutable binding set representing one session's accumulated
// state, semantically a persistent interpreter namespace. The engine treats
// binding values as opaque; only the Evaluator interprets them.
//
// A Bindings map is exclusively owned by its session and must only be
// mutated through execution operations.
type Bindings map[string]any

// Names returns the binding names sorted for deterministic output.
func (b Bindings) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a shallow copy of the binding set.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	maps.Copy(out, b)
	return out
}
