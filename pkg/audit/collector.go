package audit

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackaudit/pkg/deps"
	"github.com/matzehuels/stackaudit/pkg/errors"
	"github.com/matzehuels/stackaudit/pkg/observability"
)

// Resolver expands one root coordinate into its transitive artifacts in
// stable pre-order (parent before children). Any error is a resolution
// failure for that root.
type Resolver interface {
	Resolve(ctx context.Context, root deps.Coordinate) ([]deps.Artifact, error)
}

// ResolverFunc adapts a function to [Resolver].
type ResolverFunc func(ctx context.Context, root deps.Coordinate) ([]deps.Artifact, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, root deps.Coordinate) ([]deps.Artifact, error) {
	return f(ctx, root)
}

// FromDeps binds a [deps.Resolver] to fixed options.
func FromDeps(r deps.Resolver, opts deps.Options) Resolver {
	return ResolverFunc(func(ctx context.Context, root deps.Coordinate) ([]deps.Artifact, error) {
		return r.Resolve(ctx, root, opts)
	})
}

// Batch accumulates packages and audits them in one run.
//
// Add does not have to deduplicate: the collector never passes the same
// identity twice. Run returns one report per registered package.
type Batch interface {
	Add(ecosystem, group, artifact, version string) *Package
	Run(ctx context.Context) ([]*Report, error)
}

// Collector walks the dependency trees of root artifacts, drops excluded
// and already-seen packages, records the first-seen parent of every package,
// and registers each distinct package with a [Batch] exactly once.
//
// The seen set spans the whole session: a package reached from a second root
// keeps the parent recorded when it was first seen.
//
// A Collector is not safe for concurrent use. The check-then-register
// sequence in Add is not atomic; callers sharing a Collector between
// goroutines must serialize access.
type Collector struct {
	resolver  Resolver
	batch     Batch
	ecosystem string
	logger    *log.Logger
	hooks     observability.AuditHooks

	firstSeenRoots bool

	// parents has one entry per registered identity; nil marks a root.
	parents map[Identity]*Identity
	order   []Identity
	// pending counts packages registered since the last successful Run.
	pending int
	closed  bool
}

// Option configures a [Collector].
type Option func(*Collector)

// WithLogger sets the logger. Resolution failures are logged at debug level.
func WithLogger(l *log.Logger) Option {
	return func(c *Collector) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHooks overrides the globally registered audit hooks.
func WithHooks(h observability.AuditHooks) Option {
	return func(c *Collector) {
		if h != nil {
			c.hooks = h
		}
	}
}

// WithEcosystem sets the ecosystem tag passed to the batch (default "maven").
func WithEcosystem(eco string) Option {
	return func(c *Collector) {
		if eco != "" {
			c.ecosystem = eco
		}
	}
}

// WithFirstSeenRoots makes an explicitly added root that was already reached
// transitively keep its recorded parent. By default such a root is promoted
// and its parent becomes none.
func WithFirstSeenRoots() Option {
	return func(c *Collector) { c.firstSeenRoots = true }
}

// NewCollector creates a collector that resolves roots with resolver and
// registers packages with batch. A Collector must be created with
// NewCollector before Add or Run; only Close is valid on a zero value.
// With a nil batch every Add fails with an INTERNAL_ERROR resolution.
func NewCollector(resolver Resolver, batch Batch, opts ...Option) *Collector {
	c := &Collector{
		resolver:  resolver,
		batch:     batch,
		ecosystem: DefaultEcosystem,
		logger:    log.New(io.Discard),
		hooks:     observability.Audit(),
		parents:   make(map[Identity]*Identity),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add registers group:artifact:version as a root, resolves its compile-scope
// dependencies and registers every resolved artifact that is neither
// excluded nor already seen, with this root as its parent.
//
// Resolution failures are not returned as errors: the root stays registered
// with no children and the failure is carried by the returned [Resolution].
func (c *Collector) Add(ctx context.Context, group, artifact, version string, exclusions Exclusions) Resolution {
	root := Identity{Ecosystem: c.ecosystem, Group: group, Artifact: artifact, Version: version}
	if c.batch == nil {
		return ResolutionFailed(root, errors.New(errors.ErrCodeInternal, "no batch configured"))
	}
	var registered []Identity

	if parent, seen := c.parents[root]; !seen {
		c.register(root, nil)
		registered = append(registered, root)
		c.hooks.OnPackageRegistered(ctx, c.ecosystem, false)
	} else if parent != nil && !c.firstSeenRoots {
		c.logger.Debug("promoting transitive package to root", "root", root, "was_via", *parent)
		c.parents[root] = nil
	}

	start := time.Now()
	c.hooks.OnResolveStart(ctx, root.String())

	arts, err := c.resolve(ctx, root)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeResolution, err, "resolve %s", root)
		c.logger.Debug("resolution failed", "root", root, "err", err)
		c.hooks.OnResolveComplete(ctx, root.String(), 0, time.Since(start), err)
		res := ResolutionFailed(root, err)
		res.registered = registered
		return res
	}

	for _, a := range arts {
		if exclusions.Has(a.Key()) {
			c.hooks.OnPackageSkipped(ctx, observability.SkipExcluded)
			continue
		}
		id := Identity{Ecosystem: c.ecosystem, Group: a.Group, Artifact: a.Artifact, Version: a.Version}
		if _, seen := c.parents[id]; seen {
			c.hooks.OnPackageSkipped(ctx, observability.SkipDuplicate)
			continue
		}
		c.register(id, &root)
		registered = append(registered, id)
		c.hooks.OnPackageRegistered(ctx, c.ecosystem, true)
	}

	c.hooks.OnResolveComplete(ctx, root.String(), len(arts), time.Since(start), nil)
	res := Resolved(root, arts)
	res.registered = registered
	return res
}

func (c *Collector) resolve(ctx context.Context, root Identity) ([]deps.Artifact, error) {
	if c.resolver == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no resolver configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.resolver.Resolve(ctx, deps.Coordinate{
		Group:    root.Group,
		Artifact: root.Artifact,
		Version:  root.Version,
		Scope:    deps.ScopeCompile,
	})
}

func (c *Collector) register(id Identity, parent *Identity) {
	if c.parents == nil {
		c.parents = make(map[Identity]*Identity)
	}
	c.batch.Add(id.Ecosystem, id.Group, id.Artifact, id.Version)
	c.parents[id] = parent
	c.order = append(c.order, id)
	c.pending++
}

// Run audits everything registered so far and attaches each report's
// parent. A batch failure is returned as an AUDIT_FAILED error.
func (c *Collector) Run(ctx context.Context) ([]*Report, error) {
	if c.batch == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no batch configured")
	}

	start := time.Now()
	c.hooks.OnAuditStart(ctx, c.pending)

	reports, err := c.batch.Run(ctx)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeAudit, err, "audit %d packages", c.pending)
		c.hooks.OnAuditComplete(ctx, c.pending, 0, time.Since(start), err)
		return nil, err
	}
	c.pending = 0

	for _, r := range reports {
		parent, ok := c.parents[r.Identity]
		if !ok {
			continue
		}
		if parent == nil {
			r.Parent = nil
			continue
		}
		p := *parent
		r.Parent = &p
	}

	c.hooks.OnAuditComplete(ctx, len(reports), CountVulnerable(reports), time.Since(start), nil)
	return reports, nil
}

// Parent returns the recorded parent of id. ok is false when id was never
// registered; a nil parent with ok true marks a root.
func (c *Collector) Parent(id Identity) (parent *Identity, ok bool) {
	p, ok := c.parents[id]
	if !ok || p == nil {
		return nil, ok
	}
	cp := *p
	return &cp, true
}

// Packages returns every registered identity in registration order.
func (c *Collector) Packages() []Identity {
	return append([]Identity(nil), c.order...)
}

// Close releases the batch when it holds resources. It is safe to call on a
// zero Collector and more than once.
func (c *Collector) Close() error {
	if c == nil || c.closed {
		return nil
	}
	c.closed = true
	if closer, ok := c.batch.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
