package deps

import (
	"path/filepath"

	"github.com/matzehuels/stackaudit/pkg/errors"
)

// ManifestParser reads root coordinates from local manifest files.
type ManifestParser interface {
	// Parse reads the manifest at path and returns its audit roots.
	Parse(path string, opts Options) ([]Root, error)
	// Supports reports whether this parser handles the given filename.
	Supports(filename string) bool
	// Type returns the manifest type identifier (e.g., "pom.xml").
	Type() string
}

// Root is one top-level dependency declared by a manifest, together with the
// "group:artifact" keys the manifest excludes beneath it.
type Root struct {
	Coordinate Coordinate
	Exclusions []string
}

// DetectManifest finds a parser that supports the given file path.
// Returns an error if no parser matches.
func DetectManifest(path string, parsers ...ManifestParser) (ManifestParser, error) {
	name := filepath.Base(path)
	for _, p := range parsers {
		if p.Supports(name) {
			return p, nil
		}
	}
	return nil, errors.New(errors.ErrCodeUnsupported, "unsupported manifest: %s", name)
}
