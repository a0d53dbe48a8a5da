// Package pkg provides the core libraries for Stackaudit, a vulnerability
// auditor for Maven dependency trees.
//
// # Overview
//
// Stackaudit resolves the transitive dependencies of one or more root
// artifacts, registers every distinct package exactly once and checks the
// whole set against the Sonatype OSS Index in a single batch. Each finding is
// attributed to the root whose resolution first introduced it.
//
// # Architecture
//
// The typical data flow:
//
//	Maven coordinate or pom.xml
//	         ↓
//	    [deps/java] package (effective POM, mediation, exclusions)
//	         ↓
//	    [audit] Collector (dedup, parent tracking, exclusions)
//	         ↓
//	    [audit] Request (cached reports, one batch call)
//	         ↓
//	    [integrations/ossindex] package (component reports)
//
// # Quick Start
//
//	mem, _ := cache.NewMemoryCache(0)
//	mvn := maven.NewClient(mem, 24*time.Hour)
//	resolver := audit.FromDeps(java.NewResolver(mvn), deps.Options{})
//
//	batch := audit.NewRequest(ossindex.NewClient(ossindex.Config{}), mem)
//	col := audit.NewCollector(resolver, batch)
//	defer col.Close()
//
//	col.Add(ctx, "org.apache.logging.log4j", "log4j-core", "2.14.1", nil)
//	reports, err := col.Run(ctx)
//
// # Main Packages
//
// [audit] - Package identities, the collector that deduplicates packages
// across roots, the batched audit request and report types.
//
// [deps] - Coordinates, resolver options and manifest detection shared by
// ecosystem resolvers. [deps/java] resolves Maven trees.
//
// [integrations] - The shared cached HTTP client plus the [integrations/maven]
// repository client and the [integrations/ossindex] audit service.
//
// [cache] - Cache backends: memory (LRU), file, sqlite, redis and mongo, all
// behind one interface.
//
// [config] - TOML configuration with environment overrides.
//
// [server] - The HTTP audit API.
//
// [metrics] - Prometheus collectors for the observability hooks.
//
// [errors] - Coded errors with user-facing messages.
//
// [audit]: github.com/matzehuels/stackaudit/pkg/audit
// [deps]: github.com/matzehuels/stackaudit/pkg/deps
// [deps/java]: github.com/matzehuels/stackaudit/pkg/deps/java
// [integrations]: github.com/matzehuels/stackaudit/pkg/integrations
// [integrations/maven]: github.com/matzehuels/stackaudit/pkg/integrations/maven
// [integrations/ossindex]: github.com/matzehuels/stackaudit/pkg/integrations/ossindex
// [cache]: github.com/matzehuels/stackaudit/pkg/cache
// [config]: github.com/matzehuels/stackaudit/pkg/config
// [server]: github.com/matzehuels/stackaudit/pkg/server
// [metrics]: github.com/matzehuels/stackaudit/pkg/metrics
// [errors]: github.com/matzehuels/stackaudit/pkg/errors
package pkg
