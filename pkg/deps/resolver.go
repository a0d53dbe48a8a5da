package deps

import "context"

// Resolver expands a root coordinate into its transitive dependency tree.
//
// Resolve returns the artifacts of the mediated tree in pre-order: a parent
// always precedes its children and siblings keep declaration order. The
// order is stable for identical inputs. The list may start with the root
// itself at depth 0.
//
// Any error means the tree could not be collected; partial results are
// never returned.
type Resolver interface {
	Resolve(ctx context.Context, root Coordinate, opts Options) ([]Artifact, error)
	// Name returns the resolver's identifier (e.g., "maven").
	Name() string
}
