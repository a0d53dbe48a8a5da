package audit

import "github.com/matzehuels/stackaudit/pkg/deps"

// Resolution is the outcome of resolving one root in [Collector.Add]: either
// the resolved artifacts or the failure that prevented resolution. A failed
// resolution still leaves the root registered, with no children.
type Resolution struct {
	Root       Identity
	artifacts  []deps.Artifact
	registered []Identity
	err        error
}

// Resolved returns a successful outcome.
func Resolved(root Identity, artifacts []deps.Artifact) Resolution {
	return Resolution{Root: root, artifacts: artifacts}
}

// ResolutionFailed returns a failed outcome carrying err.
func ResolutionFailed(root Identity, err error) Resolution {
	return Resolution{Root: root, err: err}
}

// Failed reports whether resolution failed.
func (r Resolution) Failed() bool { return r.err != nil }

// Err returns the resolution error, or nil.
func (r Resolution) Err() error { return r.err }

// Artifacts returns everything the resolver returned, in pre-order, before
// exclusion and dedup. It is empty for a failed resolution.
func (r Resolution) Artifacts() []deps.Artifact { return r.artifacts }

// Registered returns the identities this call added to the batch, the root
// first when it was new.
func (r Resolution) Registered() []Identity { return r.registered }
