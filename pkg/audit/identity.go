package audit

import (
	"net/url"
	"strings"
)

// DefaultEcosystem is the ecosystem tag used for Maven artifacts.
const DefaultEcosystem = "maven"

// Identity is the dedup key of a package: two identities are equal iff all
// four fields are equal.
type Identity struct {
	Ecosystem string `json:"ecosystem"`
	Group     string `json:"group"`
	Artifact  string `json:"artifact"`
	Version   string `json:"version"`
}

// Key returns the version-agnostic "group:artifact" used for exclusions.
func (id Identity) Key() string { return id.Group + ":" + id.Artifact }

// String returns "group:artifact:version".
func (id Identity) String() string { return id.Key() + ":" + id.Version }

// PURL returns the package URL, e.g. "pkg:maven/org.example/lib@1.0".
func (id Identity) PURL() string {
	eco := id.Ecosystem
	if eco == "" {
		eco = DefaultEcosystem
	}
	return "pkg:" + strings.ToLower(eco) + "/" +
		url.PathEscape(id.Group) + "/" + url.PathEscape(id.Artifact) +
		"@" + url.PathEscape(id.Version)
}

// Package is the handle a [Batch] returns for a registered identity.
type Package struct {
	id    Identity
	index int
}

// Identity returns the registered identity.
func (p *Package) Identity() Identity { return p.id }

// Exclusions is a set of version-agnostic "group:artifact" keys.
// A nil Exclusions is a valid empty set.
type Exclusions map[string]struct{}

// NewExclusions builds a set from keys. Blank keys are ignored.
func NewExclusions(keys ...string) Exclusions {
	e := make(Exclusions, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			e[k] = struct{}{}
		}
	}
	return e
}

// Has reports whether key is excluded.
func (e Exclusions) Has(key string) bool {
	_, ok := e[key]
	return ok
}

// Keys returns the excluded keys in no particular order.
func (e Exclusions) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	return keys
}
