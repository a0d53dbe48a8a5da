// Package ossindex provides a client for the Sonatype OSS Index
// vulnerability service.
//
// # Overview
//
// The client posts package URLs to the v3 component-report endpoint and maps
// the returned records onto [audit.Report] values:
//
//	client := ossindex.NewClient(ossindex.Config{Username: user, Token: token})
//	reports, err := client.ComponentReports(ctx, ids)
//
// # Limits
//
// The service accepts at most 128 coordinates per request, so larger batches
// are split into chunks. Chunks are sent concurrently (bounded by
// Config.Concurrency) and paced by a token-bucket limiter. Anonymous use is
// rate limited more aggressively than authenticated use; 429 responses are
// retried after the server's Retry-After hint.
//
// [audit.Report]: github.com/matzehuels/stackaudit/pkg/audit.Report
package ossindex
