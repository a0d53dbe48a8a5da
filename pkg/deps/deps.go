package deps

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackaudit/pkg/errors"
)

const (
	DefaultMaxDepth = 50             // Default maximum dependency depth
	DefaultMaxNodes = 5000           // Default maximum artifacts per root
	DefaultCacheTTL = 24 * time.Hour // Default response cache duration (cache.ttl)
)

// Dependency scopes understood by resolvers.
const (
	ScopeCompile  = "compile"
	ScopeRuntime  = "runtime"
	ScopeTest     = "test"
	ScopeProvided = "provided"
	ScopeSystem   = "system"
	ScopeImport   = "import"
)

// Options configures dependency resolution behavior.
type Options struct {
	MaxDepth int         // Maximum depth to traverse (default: 50)
	MaxNodes int         // Maximum artifacts collected per root (default: 5000)
	Refresh  bool        // Bypass cache for fresh data
	Logger   *log.Logger // Progress and failure logging (optional)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return opts
}

// Coordinate names one artifact to resolve. Scope selects which of the
// artifact's dependencies are followed; empty means compile.
type Coordinate struct {
	Group    string
	Artifact string
	Version  string
	Scope    string
}

// ParseCoordinate parses "group:artifact" or "group:artifact:version".
// The version is optional here; resolvers require it.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Coordinate{}, errors.New(errors.ErrCodeInvalidCoordinate,
			"invalid coordinate %q (expected group:artifact[:version])", s)
	}
	c := Coordinate{Group: parts[0], Artifact: parts[1]}
	if len(parts) == 3 {
		c.Version = parts[2]
		if c.Version == "" {
			return Coordinate{}, errors.New(errors.ErrCodeInvalidCoordinate, "empty version in %q", s)
		}
	}
	if err := errors.ValidateCoordinate(c.Group, c.Artifact, c.Version); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Key returns the version-agnostic "group:artifact".
func (c Coordinate) Key() string { return c.Group + ":" + c.Artifact }

// String returns "group:artifact:version", or "group:artifact" when the
// version is unknown.
func (c Coordinate) String() string {
	if c.Version == "" {
		return c.Key()
	}
	return c.Key() + ":" + c.Version
}

// Artifact is one node of a resolved dependency tree.
type Artifact struct {
	Group    string
	Artifact string
	Version  string
	Scope    string // Effective scope after mediation
	Depth    int    // 0 for the root itself
}

// Key returns the version-agnostic "group:artifact".
func (a Artifact) Key() string { return a.Group + ":" + a.Artifact }

// String returns "group:artifact:version".
func (a Artifact) String() string { return a.Key() + ":" + a.Version }
