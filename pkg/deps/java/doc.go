// Package java provides dependency resolution for Maven/Java artifacts.
//
// # Overview
//
// This package implements [deps.Resolver] and [deps.ManifestParser] for
// Maven:
//
//   - [Resolver] walks POM files fetched through the [maven] client
//   - [POMParser] reads audit roots from a local pom.xml
//
// # Registry Resolution
//
//	resolver := java.NewResolver(maven.NewClient(c, 24*time.Hour))
//	arts, _ := resolver.Resolve(ctx, deps.Coordinate{
//	    Group: "com.google.guava", Artifact: "guava", Version: "31.0-jre",
//	}, deps.Options{MaxDepth: 10})
//
// Resolution follows Maven's rules closely enough for auditing: nearest
// wins mediation by group:artifact, exclusions inherited by subtrees,
// compile and runtime scopes followed, optional dependencies dropped. Version
// ranges, profiles and relocations are not supported.
//
// # Manifest Parsing
//
//	parser := java.NewPOMParser(mavenClient)
//	roots, _ := parser.Parse("pom.xml", deps.Options{})
//
// [maven]: github.com/matzehuels/stackaudit/pkg/integrations/maven
// [deps.Resolver]: github.com/matzehuels/stackaudit/pkg/deps.Resolver
// [deps.ManifestParser]: github.com/matzehuels/stackaudit/pkg/deps.ManifestParser
package java
