// Package audit collects the dependency graphs of root artifacts into one
// deduplicated, parent-tracked batch of packages and audits the batch for
// known vulnerabilities.
//
// # Overview
//
// A [Collector] is bookkeeping glue between a [Resolver] and a [Batch]:
//
//	c := audit.NewCollector(audit.FromDeps(resolver, opts), audit.NewRequest(ossindexClient, reportCache))
//	defer c.Close()
//
//	c.Add(ctx, "org.apache.commons", "commons-text", "1.9", nil)
//	c.Add(ctx, "com.example", "app", "2.0", audit.NewExclusions("org.slf4j:slf4j-api"))
//
//	reports, err := c.Run(ctx)
//	for _, r := range reports {
//	    if r.Parent != nil {
//	        fmt.Println(r.Identity, "via", *r.Parent)
//	    }
//	}
//
// # Dedup and Parents
//
// Every distinct [Identity] is registered with the batch exactly once per
// session. Resolved artifacts are visited in the resolver's pre-order; an
// artifact whose "group:artifact" is in the call's [Exclusions] is dropped,
// one already seen (in this or any earlier Add) is skipped, and every other
// one is registered with the root being added as its parent. The first
// recorded parent is never overwritten by later roots.
//
// # Failures
//
// A root whose resolution fails stays registered with no children; the
// failure is returned as a [Resolution] value, not as an error. A failure of
// the batch run is returned by [Collector.Run] as an AUDIT_FAILED error.
//
// # Caching
//
// [Request] serves fresh reports from a [cache.Cache] and only sends cache
// misses to the [Service], so repeated audits of the same packages avoid
// redundant service calls.
//
// [cache.Cache]: github.com/matzehuels/stackaudit/pkg/cache.Cache
package audit
