package java

import (
	"context"
	"os"
	"strings"

	"github.com/matzehuels/stackaudit/pkg/deps"
	"github.com/matzehuels/stackaudit/pkg/errors"
	"github.com/matzehuels/stackaudit/pkg/integrations/maven"
)

// ModelSource computes effective POMs. *maven.Client implements it.
type ModelSource interface {
	EffectivePOM(ctx context.Context, p *maven.POM, refresh bool) (*maven.POM, error)
}

// POMParser reads audit roots from a local pom.xml. Each compile or runtime
// dependency becomes one root carrying its <exclusions>.
//
// With a nil source only the file itself is considered: parent POMs and
// imported BOMs are not fetched, so versions they manage stay unknown and
// those dependencies are skipped.
type POMParser struct {
	source ModelSource
}

// NewPOMParser creates a parser. source may be nil.
func NewPOMParser(source ModelSource) *POMParser {
	return &POMParser{source: source}
}

func (p *POMParser) Type() string              { return "pom.xml" }
func (p *POMParser) Supports(name string) bool { return name == "pom.xml" }

func (p *POMParser) Parse(path string, opts deps.Options) ([]deps.Root, error) {
	opts = opts.WithDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "manifest not found: %s", path)
		}
		return nil, err
	}

	raw, err := maven.ParsePOM(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "invalid manifest: %s", path)
	}

	ctx := context.Background()
	var pom *maven.POM
	if p.source != nil {
		pom, err = p.source.EffectivePOM(ctx, raw, opts.Refresh)
	} else {
		pom, err = maven.Effective(ctx, raw, nil)
	}
	if err != nil {
		return nil, err
	}

	return extractRoots(pom, opts), nil
}

func extractRoots(pom *maven.POM, opts deps.Options) []deps.Root {
	var roots []deps.Root
	seen := make(map[string]bool)

	for _, dep := range pom.Dependencies {
		scope, ok := transitiveScope(deps.ScopeCompile, dep)
		if !ok {
			continue
		}
		if dep.Version == "" || strings.Contains(dep.Version, "${") ||
			strings.HasPrefix(dep.GroupID, "${") || strings.HasPrefix(dep.ArtifactID, "${") {
			opts.Logger.Debug("skipping dependency with unresolved coordinate", "dependency", dep.Key(), "version", dep.Version)
			continue
		}
		if seen[dep.Key()] {
			continue
		}
		seen[dep.Key()] = true

		root := deps.Root{Coordinate: deps.Coordinate{
			Group:    dep.GroupID,
			Artifact: dep.ArtifactID,
			Version:  dep.Version,
			Scope:    scope,
		}}
		for _, e := range dep.Exclusions {
			root.Exclusions = append(root.Exclusions, e.Key())
		}
		roots = append(roots, root)
	}
	return roots
}

var _ deps.ManifestParser = (*POMParser)(nil)
