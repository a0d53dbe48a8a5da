// Package maven provides an HTTP client for Maven 2 layout repositories.
//
// # Overview
//
// This package fetches POM files from a Maven repository (Maven Central at
// https://repo1.maven.org/maven2 by default) and computes the effective
// project model needed to walk dependency trees.
//
// # Usage
//
//	client := maven.NewClient(c, 24*time.Hour)
//
//	pom, err := client.FetchEffectivePOM(ctx, "org.apache.commons", "commons-text", "1.9", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range pom.Dependencies {
//	    fmt.Println(d.Key(), d.Version, d.Scope)
//	}
//
// # Effective POM
//
// [Effective] merges what Maven would inherit and interpolate:
//
//   - The parent chain (bounded), child values winning
//   - <properties>, plus project.*, pom.* and parent.* built-ins
//   - <dependencyManagement>, including import-scoped BOMs
//   - Missing dependency versions, scopes and exclusions filled from management
//
// Profiles, version ranges and relocations are not evaluated.
//
// # Latest Version
//
// [Client.LatestVersion] queries the Maven Central search API
// (https://search.maven.org) for the newest release of an artifact.
//
// # Caching
//
// Raw POMs and search results are cached through [cache.Cache]. Pass
// refresh=true to bypass the cache.
//
// [cache.Cache]: github.com/matzehuels/stackaudit/pkg/cache.Cache
package maven
