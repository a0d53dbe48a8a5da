package java

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/stackaudit/pkg/deps"
	"github.com/matzehuels/stackaudit/pkg/errors"
	"github.com/matzehuels/stackaudit/pkg/integrations/maven"
)

// POMSource provides effective POMs by coordinate. *maven.Client implements it.
type POMSource interface {
	FetchEffectivePOM(ctx context.Context, group, artifact, version string, refresh bool) (*maven.POM, error)
}

// Resolver collects Maven dependency trees from POM files.
//
// The tree is built breadth-first so that Maven's "nearest wins" mediation
// holds: the first group:artifact found at the smallest depth is kept and
// later occurrences are dropped, with declaration order breaking ties.
// Exclusions declared on a dependency apply to its whole subtree. Versions
// managed by the root POM (including imported BOMs) override the versions of
// transitive dependencies, as in a Maven build of the root. Only
// compile and runtime dependencies are followed; optional dependencies are
// never transitive.
type Resolver struct {
	source POMSource
}

// NewResolver creates a resolver reading POMs from source.
func NewResolver(source POMSource) *Resolver {
	return &Resolver{source: source}
}

// Name returns "maven".
func (r *Resolver) Name() string { return "maven" }

type node struct {
	art      deps.Artifact
	excludes []maven.Exclusion
	children []*node
}

// Resolve returns the mediated tree of root in pre-order, root first. Any
// POM that cannot be fetched or lacks a usable version fails the whole
// resolution.
func (r *Resolver) Resolve(ctx context.Context, root deps.Coordinate, opts deps.Options) ([]deps.Artifact, error) {
	opts = opts.WithDefaults()
	if root.Version == "" {
		return nil, errors.New(errors.ErrCodeInvalidCoordinate, "missing version for %s", root.Key())
	}

	top := &node{art: deps.Artifact{
		Group:    root.Group,
		Artifact: root.Artifact,
		Version:  root.Version,
		Scope:    deps.ScopeCompile,
	}}
	chosen := map[string]bool{top.art.Key(): true}
	poms := make(map[string]*maven.POM)
	var managed map[string]string

	queue := []*node{top}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := queue[0]
		queue = queue[1:]

		pom, ok := poms[n.art.String()]
		if !ok {
			var err error
			pom, err = r.source.FetchEffectivePOM(ctx, n.art.Group, n.art.Artifact, n.art.Version, opts.Refresh)
			if err != nil {
				return nil, fmt.Errorf("collect %s: %w", n.art, err)
			}
			poms[n.art.String()] = pom
		}
		if n == top {
			managed = managedVersions(pom)
		}

		for _, d := range pom.Dependencies {
			scope, follow := transitiveScope(n.art.Scope, d)
			if !follow || excluded(n.excludes, d) {
				continue
			}
			if chosen[d.Key()] {
				continue
			}
			if v, ok := managed[d.Key()]; ok && n != top {
				d.Version = v
			}
			if d.Version == "" || strings.Contains(d.Version, "${") {
				return nil, fmt.Errorf("collect %s: unresolved version %q for %s", n.art, d.Version, d.Key())
			}
			if len(chosen) >= opts.MaxNodes {
				opts.Logger.Debug("node limit reached", "root", root, "limit", opts.MaxNodes)
				queue = nil
				break
			}

			child := &node{
				art: deps.Artifact{
					Group:    d.GroupID,
					Artifact: d.ArtifactID,
					Version:  d.Version,
					Scope:    scope,
					Depth:    n.art.Depth + 1,
				},
				excludes: append(append([]maven.Exclusion(nil), n.excludes...), d.Exclusions...),
			}
			chosen[d.Key()] = true
			n.children = append(n.children, child)
			if child.art.Depth < opts.MaxDepth {
				queue = append(queue, child)
			}
		}
	}

	var out []deps.Artifact
	var walk func(*node)
	walk = func(n *node) {
		out = append(out, n.art)
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(top)
	return out, nil
}

// managedVersions indexes the usable versions of pom's dependencyManagement.
func managedVersions(pom *maven.POM) map[string]string {
	out := make(map[string]string, len(pom.DependencyManagement))
	for _, d := range pom.DependencyManagement {
		if d.Scope == "import" || d.Version == "" || strings.Contains(d.Version, "${") {
			continue
		}
		if _, ok := out[d.Key()]; !ok {
			out[d.Key()] = d.Version
		}
	}
	return out
}

// transitiveScope returns the scope a dependency d gets under a parent with
// scope parent, and whether it is followed at all.
func transitiveScope(parent string, d maven.Dependency) (string, bool) {
	if d.IsOptional() {
		return "", false
	}
	switch d.Scope {
	case "", deps.ScopeCompile:
		if parent == deps.ScopeRuntime {
			return deps.ScopeRuntime, true
		}
		return deps.ScopeCompile, true
	case deps.ScopeRuntime:
		return deps.ScopeRuntime, true
	default:
		return "", false
	}
}

func excluded(excludes []maven.Exclusion, d maven.Dependency) bool {
	for _, e := range excludes {
		if (e.GroupID == "*" || e.GroupID == d.GroupID) && (e.ArtifactID == "*" || e.ArtifactID == d.ArtifactID) {
			return true
		}
	}
	return false
}

var _ deps.Resolver = (*Resolver)(nil)
