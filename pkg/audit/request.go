package audit

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackaudit/pkg/cache"
	"github.com/matzehuels/stackaudit/pkg/observability"
)

// DefaultReportTTL is how long audit reports are served from the cache.
const DefaultReportTTL = 12 * time.Hour

// Service fetches audit reports for a set of packages. Implementations may
// omit packages they know nothing about.
type Service interface {
	ComponentReports(ctx context.Context, ids []Identity) ([]*Report, error)
}

// Request is a [Batch] backed by a [Service] and a report cache. Reports
// still fresh in the cache are served locally; only the remaining packages
// are sent to the service.
//
// Run consumes the packages registered so far: packages added afterwards
// form a new batch.
type Request struct {
	service Service
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	refresh bool
	logger  *log.Logger

	pkgs  []*Package
	index map[Identity]*Package
}

// RequestOption configures a [Request].
type RequestOption func(*Request)

// WithReportTTL sets how long fetched reports are cached.
func WithReportTTL(ttl time.Duration) RequestOption {
	return func(r *Request) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithRefresh bypasses cached reports; fetched reports are still stored.
func WithRefresh(refresh bool) RequestOption {
	return func(r *Request) { r.refresh = refresh }
}

// WithKeyer sets the cache key generator.
func WithKeyer(k cache.Keyer) RequestOption {
	return func(r *Request) {
		if k != nil {
			r.keyer = k
		}
	}
}

// WithRequestLogger sets the logger used for cache diagnostics.
func WithRequestLogger(l *log.Logger) RequestOption {
	return func(r *Request) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRequest creates an empty batch. A nil cache disables report caching.
func NewRequest(service Service, c cache.Cache, opts ...RequestOption) *Request {
	if c == nil {
		c = cache.NewNullCache()
	}
	r := &Request{
		service: service,
		cache:   c,
		keyer:   cache.NewDefaultKeyer(),
		ttl:     DefaultReportTTL,
		logger:  log.New(io.Discard),
		index:   make(map[Identity]*Package),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers one package. Adding an identity twice returns the existing
// handle.
func (r *Request) Add(ecosystem, group, artifact, version string) *Package {
	id := Identity{Ecosystem: ecosystem, Group: group, Artifact: artifact, Version: version}
	if p, ok := r.index[id]; ok {
		return p
	}
	p := &Package{id: id, index: len(r.pkgs)}
	r.pkgs = append(r.pkgs, p)
	r.index[id] = p
	return p
}

// Len returns the number of packages waiting to be audited.
func (r *Request) Len() int { return len(r.pkgs) }

// Run audits the registered packages and returns one report per package in
// registration order. Packages the service did not report on get a report
// without vulnerabilities. On error the packages stay registered.
func (r *Request) Run(ctx context.Context) ([]*Report, error) {
	pkgs := r.pkgs
	reports := make([]*Report, len(pkgs))

	var misses []Identity
	for i, p := range pkgs {
		if rep, ok := r.cached(ctx, p.id); ok {
			reports[i] = rep
			continue
		}
		misses = append(misses, p.id)
	}

	if len(misses) > 0 {
		fetched, err := r.service.ComponentReports(ctx, misses)
		if err != nil {
			return nil, err
		}
		byID := make(map[Identity]*Report, len(fetched))
		for _, rep := range fetched {
			if rep != nil {
				byID[rep.Identity] = rep
			}
		}
		for i, p := range pkgs {
			if reports[i] != nil {
				continue
			}
			rep, ok := byID[p.id]
			if !ok {
				reports[i] = &Report{Identity: p.id, Vulnerabilities: []Vulnerability{}}
				continue
			}
			r.store(ctx, rep)
			reports[i] = rep
		}
	}

	r.pkgs = nil
	r.index = make(map[Identity]*Package)
	return reports, nil
}

func (r *Request) cached(ctx context.Context, id Identity) (*Report, bool) {
	if r.refresh {
		return nil, false
	}
	data, ok, err := r.cache.Get(ctx, r.keyer.ReportKey(id.Ecosystem, id.PURL()))
	if err != nil {
		r.logger.Debug("report cache read failed", "package", id, "err", err)
	}
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, "report")
		return nil, false
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		observability.Cache().OnCacheMiss(ctx, "report")
		return nil, false
	}
	rep.Identity = id
	rep.Parent = nil
	observability.Cache().OnCacheHit(ctx, "report")
	return &rep, true
}

func (r *Request) store(ctx context.Context, rep *Report) {
	stored := *rep
	stored.Parent = nil
	data, err := json.Marshal(&stored)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, r.keyer.ReportKey(rep.Identity.Ecosystem, rep.Identity.PURL()), data, r.ttl); err != nil {
		r.logger.Debug("report cache write failed", "package", rep.Identity, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "report", len(data))
}

// Close closes the report cache.
func (r *Request) Close() error {
	return r.cache.Close()
}

var _ Batch = (*Request)(nil)
