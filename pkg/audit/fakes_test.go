package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/matzehuels/stackaudit/pkg/deps"
)

// fakeResolver answers from a table keyed by "group:artifact:version".
// Roots missing from the table fail resolution.
type fakeResolver struct {
	trees map[string][]deps.Artifact
	calls []deps.Coordinate
}

func (f *fakeResolver) Resolve(ctx context.Context, root deps.Coordinate) ([]deps.Artifact, error) {
	f.calls = append(f.calls, root)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	arts, ok := f.trees[root.String()]
	if !ok {
		return nil, fmt.Errorf("cannot collect %s", root)
	}
	return arts, nil
}

// arts builds pre-order artifacts from "g:a:v" strings.
func arts(coords ...string) []deps.Artifact {
	out := make([]deps.Artifact, 0, len(coords))
	for _, c := range coords {
		p := strings.Split(c, ":")
		out = append(out, deps.Artifact{Group: p[0], Artifact: p[1], Version: p[2], Scope: deps.ScopeCompile, Depth: 1})
	}
	return out
}

func mvn(g, a, v string) Identity {
	return Identity{Ecosystem: DefaultEcosystem, Group: g, Artifact: a, Version: v}
}

// recordingBatch records every Add and answers Run with one report per
// package, optionally carrying findings.
type recordingBatch struct {
	added    []Identity
	findings map[Identity][]Vulnerability
	runErr   error
	closed   int
}

func (b *recordingBatch) Add(eco, g, a, v string) *Package {
	id := Identity{Ecosystem: eco, Group: g, Artifact: a, Version: v}
	b.added = append(b.added, id)
	return &Package{id: id, index: len(b.added) - 1}
}

func (b *recordingBatch) Run(ctx context.Context) ([]*Report, error) {
	if b.runErr != nil {
		return nil, b.runErr
	}
	reports := make([]*Report, 0, len(b.added))
	for _, id := range b.added {
		reports = append(reports, &Report{Identity: id, Vulnerabilities: b.findings[id]})
	}
	return reports, nil
}

func (b *recordingBatch) Close() error {
	b.closed++
	return nil
}

// fakeService records requested identities and reports findings from a table.
type fakeService struct {
	mu       sync.Mutex
	requests [][]Identity
	findings map[Identity][]Vulnerability
	skip     map[Identity]bool
	err      error
}

var errServiceDown = errors.New("service down")

func (s *fakeService) ComponentReports(ctx context.Context, ids []Identity) ([]*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, append([]Identity(nil), ids...))
	if s.err != nil {
		return nil, s.err
	}
	var out []*Report
	for _, id := range ids {
		if s.skip[id] {
			continue
		}
		vulns := s.findings[id]
		if vulns == nil {
			vulns = []Vulnerability{}
		}
		out = append(out, &Report{Identity: id, Reference: "https://ossindex.example/" + id.String(), Vulnerabilities: vulns})
	}
	return out, nil
}
