// Package deps defines the dependency resolution contract used by the audit
// collector.
//
// # Overview
//
// A [Resolver] turns one root [Coordinate] into the pre-order list of
// [Artifact] values of its mediated dependency tree. A [ManifestParser] reads
// root coordinates (and their exclusions) from a local build file so that a
// whole project can be audited at once.
//
// The Maven implementation lives in [java].
//
// # Resolving Dependencies
//
//	resolver, _ := java.NewResolver(maven.NewClient(c, 24*time.Hour))
//	arts, err := resolver.Resolve(ctx, deps.Coordinate{
//	    Group: "org.apache.commons", Artifact: "commons-text", Version: "1.9",
//	}, deps.Options{MaxDepth: 10})
//
// # Options
//
// [Options] controls resolution behavior:
//
//   - MaxDepth: Maximum dependency depth (default 50)
//   - MaxNodes: Maximum artifacts per root (default 5000)
//   - Refresh: Bypass cache for fresh data
//   - Logger: Debug logging of skipped or unresolvable nodes
//
// [java]: github.com/matzehuels/stackaudit/pkg/deps/java
package deps
