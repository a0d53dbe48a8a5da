package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Audit hooks
	a := NoopAuditHooks{}
	a.OnResolveStart(ctx, "org.example:app:1.0")
	a.OnResolveComplete(ctx, "org.example:app:1.0", 12, time.Second, nil)
	a.OnPackageRegistered(ctx, "maven", true)
	a.OnPackageSkipped(ctx, SkipExcluded)
	a.OnAuditStart(ctx, 13)
	a.OnAuditComplete(ctx, 13, 2, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "report")
	c.OnCacheMiss(ctx, "report")
	c.OnCacheSet(ctx, "http", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "repo1.maven.org", "/maven2/org/example/app/1.0/app-1.0.pom")
	h.OnResponse(ctx, "GET", "repo1.maven.org", "/maven2/org/example/app/1.0/app-1.0.pom", 200, time.Second)
	h.OnError(ctx, "GET", "repo1.maven.org", "/maven2/org/example/app/1.0/app-1.0.pom", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Audit().(NoopAuditHooks); !ok {
		t.Error("Audit() should return NoopAuditHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customAudit := &testAuditHooks{}
	SetAuditHooks(customAudit)
	if Audit() != customAudit {
		t.Error("SetAuditHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Audit().(NoopAuditHooks); !ok {
		t.Error("Reset() should restore NoopAuditHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testAuditHooks{}
	SetAuditHooks(custom)

	// Setting nil should be ignored
	SetAuditHooks(nil)

	if Audit() != custom {
		t.Error("SetAuditHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testAuditHooks struct{ NoopAuditHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
