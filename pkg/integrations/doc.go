// Package integrations provides HTTP clients for the upstream services the
// audit talks to.
//
// # Overview
//
// Each upstream has its own subpackage:
//
//   - [maven]: Maven 2 repositories (POM files) and the Maven Central search API
//   - [ossindex]: Sonatype OSS Index component reports
//
// # Shared Infrastructure
//
// The [Client] type provides shared HTTP functionality used by all
// subpackages:
//
//   - Response caching through any [cache.Cache] backend
//   - Retries of network failures, 5xx and 429 responses (honouring Retry-After)
//   - Status mapping to [ErrNotFound], [ErrUnauthorized], [ErrRateLimited] and [ErrNetwork],
//     wrapped in coded errors (NOT_FOUND, UNAUTHORIZED, RATE_LIMITED, NETWORK_ERROR, TIMEOUT)
//   - Optional basic authentication
//   - HTTP and cache events reported to [observability] hooks
//
// [maven]: github.com/matzehuels/stackaudit/pkg/integrations/maven
// [ossindex]: github.com/matzehuels/stackaudit/pkg/integrations/ossindex
// [cache.Cache]: github.com/matzehuels/stackaudit/pkg/cache.Cache
// [observability]: github.com/matzehuels/stackaudit/pkg/observability
package integrations
